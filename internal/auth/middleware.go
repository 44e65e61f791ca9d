package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/domain"
	"github.com/northwind-commerce/storefront-service/internal/repository"
	"github.com/northwind-commerce/storefront-service/internal/session"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

// ImpersonationResolver turns the carrier cookie into a session.
type ImpersonationResolver interface {
	Resolve(ctx context.Context, cookieValue string, meta domain.RequestMeta) session.Resolution
}

// SessionMiddlewareConfig names the cookies the middleware reads.
type SessionMiddlewareConfig struct {
	AuthCookie          string
	ImpersonationCookie string
	Secure              bool
}

// SessionMiddleware resolves the SessionContext for every request.
type SessionMiddleware struct {
	cfg      SessionMiddlewareConfig
	tokens   *TokenManager
	profiles repository.ProfileRepository
	resolver ImpersonationResolver
	logger   *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(cfg SessionMiddlewareConfig, tokens *TokenManager, profiles repository.ProfileRepository, resolver ImpersonationResolver, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{cfg: cfg, tokens: tokens, profiles: profiles, resolver: resolver, logger: logger}
}

// Handle attaches the resolved SessionContext and continues.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sc := &SessionContext{Impersonation: domain.NotImpersonating()}

	if raw := c.Cookies(m.cfg.ImpersonationCookie); raw != "" {
		res := m.resolver.Resolve(ctx, raw, RequestMeta(c))
		sc.Impersonation = res.Session
		if res.ClearCookie {
			c.Cookie(session.ClearCookie(m.cfg.ImpersonationCookie, m.cfg.Secure))
		}
	}

	if raw := c.Cookies(m.cfg.AuthCookie); raw != "" {
		principal, err := m.loadPrincipal(ctx, raw, sc)
		if err != nil {
			return err
		}
		if principal == nil {
			c.Cookie(session.ClearCookie(m.cfg.AuthCookie, m.cfg.Secure))
		}
		sc.Principal = principal
	}

	SetSessionContext(c, sc)
	return c.Next()
}

func (m *SessionMiddleware) loadPrincipal(ctx context.Context, raw string, sc *SessionContext) (*Principal, error) {
	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return nil, nil
	}

	// An active impersonation already vouches for the admin behind it, so the
	// role comes from the login token claims without a profile read. A demotion
	// during the session is not seen here until that token expires; handlers
	// exposing admin data re-check the stored role.
	if sc.Impersonating() && sc.Impersonation.OriginalAdminUserID == claims.SubjectID {
		return &Principal{UserID: claims.SubjectID, Email: claims.Email, Role: claims.Role}, nil
	}

	profile, err := m.profiles.GetByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		m.logger.Error("load profile for session", zap.String("user_id", claims.SubjectID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return &Principal{UserID: profile.ID, Email: profile.Email, Role: profile.Role}, nil
}

// RequestMeta extracts the client details recorded on audit entries.
func RequestMeta(c *fiber.Ctx) domain.RequestMeta {
	return domain.RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
