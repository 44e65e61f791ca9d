package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/domain"
	"github.com/northwind-commerce/storefront-service/internal/session"
	"github.com/northwind-commerce/storefront-service/internal/testutil"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

type stubResolver struct {
	res   session.Resolution
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, _ string, _ domain.RequestMeta) session.Resolution {
	s.calls++
	return s.res
}

type resolvedView struct {
	UserID        string `json:"userId"`
	Role          string `json:"role"`
	Impersonating bool   `json:"impersonating"`
}

func middlewareApp(f *testutil.Fixture, tokens *TokenManager, resolver ImpersonationResolver) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewSessionMiddleware(SessionMiddlewareConfig{
		AuthCookie:          "sf_auth",
		ImpersonationCookie: "impersonation_session",
	}, tokens, f.Profiles, resolver, zap.NewNop())
	app.Use(mw.Handle)
	app.Get("/", func(c *fiber.Ctx) error {
		sc := SessionFromContext(c)
		view := resolvedView{Impersonating: sc.Impersonating()}
		if sc.Principal != nil {
			view.UserID = sc.Principal.UserID
			view.Role = string(sc.Principal.Role)
		}
		return c.JSON(view)
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, cookies ...*http.Cookie) (*http.Response, resolvedView) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var view resolvedView
	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &view))
	}
	return resp, view
}

func cleared(resp *http.Response, name string) bool {
	for _, ck := range resp.Cookies() {
		if ck.Name == name && ck.Value == "" && ck.Expires.Before(time.Now()) {
			return true
		}
	}
	return false
}

func TestSessionMiddleware_LoadsPrincipal(t *testing.T) {
	f := testutil.NewFixture()
	tokens := NewTokenManager("secret", 60)
	token, _, err := tokens.GenerateToken(f.Admin)
	require.NoError(t, err)
	resolver := &stubResolver{}

	resp, view := doGet(t, middlewareApp(f, tokens, resolver), &http.Cookie{Name: "sf_auth", Value: token})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, f.Admin.ID, view.UserID)
	assert.Equal(t, "admin", view.Role)
	assert.Equal(t, 0, resolver.calls, "no impersonation cookie, no resolve")
}

func TestSessionMiddleware_ClearsInvalidAuthCookie(t *testing.T) {
	f := testutil.NewFixture()
	tokens := NewTokenManager("secret", 60)
	foreign, _, err := NewTokenManager("other", 60).GenerateToken(f.Admin)
	require.NoError(t, err)

	for _, value := range []string{"not-a-jwt", foreign} {
		resp, view := doGet(t, middlewareApp(f, tokens, &stubResolver{}), &http.Cookie{Name: "sf_auth", Value: value})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, view.UserID)
		assert.True(t, cleared(resp, "sf_auth"))
	}
}

func TestSessionMiddleware_ClearsCookieForDeletedProfile(t *testing.T) {
	f := testutil.NewFixture()
	tokens := NewTokenManager("secret", 60)
	token, _, err := tokens.GenerateToken(&domain.Profile{ID: "gone", Email: "gone@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	resp, view := doGet(t, middlewareApp(f, tokens, &stubResolver{}), &http.Cookie{Name: "sf_auth", Value: token})
	assert.Empty(t, view.UserID)
	assert.True(t, cleared(resp, "sf_auth"))
}

func TestSessionMiddleware_StoreFailureIsInternal(t *testing.T) {
	f := testutil.NewFixture()
	f.Profiles.GetErr = errors.New("db down")
	tokens := NewTokenManager("secret", 60)
	token, _, err := tokens.GenerateToken(f.CustomerUser)
	require.NoError(t, err)

	resp, _ := doGet(t, middlewareApp(f, tokens, &stubResolver{}), &http.Cookie{Name: "sf_auth", Value: token})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSessionMiddleware_ClearsRejectedImpersonationCookie(t *testing.T) {
	f := testutil.NewFixture()
	resolver := &stubResolver{res: session.Resolution{Session: domain.NotImpersonating(), ClearCookie: true}}

	resp, view := doGet(t, middlewareApp(f, NewTokenManager("secret", 60), resolver),
		&http.Cookie{Name: "impersonation_session", Value: "garbage"})
	assert.Equal(t, 1, resolver.calls)
	assert.False(t, view.Impersonating)
	assert.True(t, cleared(resp, "impersonation_session"))
}

func TestSessionMiddleware_ImpersonationSkipsProfileLookup(t *testing.T) {
	f := testutil.NewFixture()
	tokens := NewTokenManager("secret", 60)
	token, _, err := tokens.GenerateToken(f.Admin)
	require.NoError(t, err)

	started := time.Now()
	resolver := &stubResolver{res: session.Resolution{Session: domain.ImpersonationSession{
		IsImpersonating:        true,
		OriginalAdminUserID:    f.Admin.ID,
		ImpersonatedCustomer:   &domain.ImpersonatedCustomer{ID: "cust_123"},
		ImpersonationStartedAt: &started,
	}}}

	resp, view := doGet(t, middlewareApp(f, tokens, resolver),
		&http.Cookie{Name: "sf_auth", Value: token},
		&http.Cookie{Name: "impersonation_session", Value: "signed"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, view.Impersonating)
	assert.Equal(t, f.Admin.ID, view.UserID)
	assert.Equal(t, 0, f.Profiles.GetCalls)
	assert.False(t, cleared(resp, "impersonation_session"))
}

func TestPasswordHashing(t *testing.T) {
	_, err := HashPassword("short", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "wrong horse"))
}
