package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northwind-commerce/storefront-service/internal/domain"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func impersonatingSession() domain.ImpersonationSession {
	started := testStart
	return domain.ImpersonationSession{
		IsImpersonating:        true,
		OriginalAdminUserID:    "admin-1",
		ImpersonatedCustomer:   &domain.ImpersonatedCustomer{ID: "cust_123", Email: "jane@example.com"},
		ImpersonationStartedAt: &started,
	}
}

var (
	anonymous   = &SessionContext{Impersonation: domain.NotImpersonating()}
	asCustomer  = &SessionContext{Principal: &Principal{UserID: "user-9", Role: domain.RoleCustomer}, Impersonation: domain.NotImpersonating()}
	asAdmin     = &SessionContext{Principal: &Principal{UserID: "admin-1", Role: domain.RoleAdmin}, Impersonation: domain.NotImpersonating()}
	impersonate = &SessionContext{Principal: &Principal{UserID: "admin-1", Role: domain.RoleAdmin}, Impersonation: impersonatingSession()}
)

func TestClassify(t *testing.T) {
	cases := map[string]RouteClass{
		"/":                RoutePublic,
		"":                 RoutePublic,
		"/products/42":     RoutePublic,
		"/api/admin/x":     RoutePublic,
		"/administrator":   RoutePublic,
		"/admin":           RouteAdmin,
		"/admin/dashboard": RouteAdmin,
		"/account":         RouteCustomer,
		"/account/orders":  RouteCustomer,
		"/checkout":        RouteCustomer,
		"/orders/7":        RouteCustomer,
		"/login":           RouteAuthOnly,
		"/signup/":         RouteAuthOnly,
	}
	for path, want := range cases {
		assert.Equal(t, want, Classify(path), path)
	}
}

func TestDecide(t *testing.T) {
	g := DefaultGuardConfig()
	cases := []struct {
		name string
		path string
		sc   *SessionContext
		want string
	}{
		{"anonymous admin page", "/admin/dashboard", anonymous, "/login?redirectTo=/admin/dashboard"},
		{"anonymous customer page", "/account", anonymous, "/login?redirectTo=/account"},
		{"anonymous public", "/", anonymous, ""},
		{"anonymous login", "/login", anonymous, ""},
		{"customer on admin", "/admin/customers", asCustomer, "/account"},
		{"customer on account", "/account", asCustomer, ""},
		{"customer on login", "/login", asCustomer, "/account"},
		{"admin on admin", "/admin/dashboard", asAdmin, ""},
		{"admin on login", "/login", asAdmin, "/admin/dashboard"},
		{"admin on signup", "/signup", asAdmin, "/admin/dashboard"},
		{"impersonating on account", "/account", impersonate, ""},
		{"impersonating on admin", "/admin/customers", impersonate, ""},
		{"impersonating on login", "/login", impersonate, "/account"},
		{"cookie-only impersonation", "/checkout", &SessionContext{Impersonation: impersonatingSession()}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, g.Decide(tc.path, tc.sc))
		})
	}
}

func TestDecide_EscapesReturnPath(t *testing.T) {
	got := DefaultGuardConfig().Decide("/account/a&b=c", anonymous)
	assert.Equal(t, "/login?redirectTo=/account/a%26b%3Dc", got)
}

func TestDecide_KeepsQueryInReturnPath(t *testing.T) {
	g := DefaultGuardConfig()

	got := g.Decide("/account/orders?page=2", anonymous)
	assert.Equal(t, "/login?redirectTo=/account/orders%3Fpage%3D2", got)

	got = g.Decide("/admin/customers?q=jane&sort=name", anonymous)
	assert.Equal(t, "/login?redirectTo=/admin/customers%3Fq%3Djane%26sort%3Dname", got)

	location, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/admin/customers?q=jane&sort=name", location.Query().Get("redirectTo"))

	assert.Equal(t, "", g.Decide("/account/orders?page=2", asCustomer))
	assert.Equal(t, "/account", g.Decide("/admin/customers?q=jane", asCustomer))
}

func TestSessionContext_EffectiveIdentity(t *testing.T) {
	assert.Equal(t, "cust_123", impersonate.EffectiveUserID())
	assert.Equal(t, domain.RoleCustomer, impersonate.EffectiveRole())
	assert.Equal(t, "admin-1", impersonate.ActorID())

	assert.Equal(t, "admin-1", asAdmin.EffectiveUserID())
	assert.Equal(t, domain.RoleAdmin, asAdmin.EffectiveRole())
	assert.False(t, anonymous.HasSession())
	assert.Equal(t, "", anonymous.EffectiveUserID())
}

func requireApp(capability Capability, sc *SessionContext) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		if sc != nil {
			SetSessionContext(c, sc)
		}
		return c.Next()
	})
	app.Get("/", Require(capability), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestRequire(t *testing.T) {
	adminCap := Capability{Role: domain.RoleAdmin}
	cases := []struct {
		name string
		cap  Capability
		sc   *SessionContext
		want int
	}{
		{"no middleware", adminCap, nil, http.StatusUnauthorized},
		{"anonymous", adminCap, anonymous, http.StatusUnauthorized},
		{"cookie-only impersonation", adminCap, &SessionContext{Impersonation: impersonatingSession()}, http.StatusUnauthorized},
		{"customer", adminCap, asCustomer, http.StatusForbidden},
		{"admin", adminCap, asAdmin, http.StatusNoContent},
		{"admin while impersonating", adminCap, impersonate, http.StatusNoContent},
		{"any session", Capability{}, asCustomer, http.StatusNoContent},
		{"customer capability as admin", Capability{Role: domain.RoleCustomer}, asAdmin, http.StatusForbidden},
		{"customer capability impersonating", Capability{Role: domain.RoleCustomer}, impersonate, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := requireApp(tc.cap, tc.sc).Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
