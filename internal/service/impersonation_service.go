package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/config"
	"github.com/northwind-commerce/storefront-service/internal/domain"
	"github.com/northwind-commerce/storefront-service/internal/events"
	"github.com/northwind-commerce/storefront-service/internal/repository"
	"github.com/northwind-commerce/storefront-service/internal/session"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

const tokenBytes = 32

var (
	ErrInvalidToken       = apperrors.NewDomainError("INVALID_TOKEN", "invalid impersonation token", http.StatusBadRequest, nil)
	ErrExpiredOrUsedToken = apperrors.NewDomainError("TOKEN_EXPIRED_OR_USED", "impersonation token expired or already used", http.StatusGone, nil)
	ErrNoActiveSession    = apperrors.NewDomainError("NO_ACTIVE_SESSION", "no active impersonation session", http.StatusBadRequest, nil)
)

// IssueRequest carries the inputs of a token issue.
type IssueRequest struct {
	AdminUserID string
	CustomerID  string
	// TTL overrides the configured token lifetime when positive.
	TTL  time.Duration
	Meta domain.RequestMeta
}

// IssueResult is returned to the admin that requested impersonation.
type IssueResult struct {
	TokenID     string
	Token       string
	ExpiresAt   time.Time
	RedirectURL string
}

// ConsumeResult carries the new session and its signed cookie value.
type ConsumeResult struct {
	Session     domain.ImpersonationSession
	CookieValue string
	ExpiresAt   time.Time
}

// StopResult is returned when a session is terminated.
type StopResult struct {
	RedirectURL     string
	SessionDuration int
	Audit           *domain.ImpersonationAudit
}

// ImpersonationDependencies encapsulates repo requirements for the service.
type ImpersonationDependencies struct {
	ProfileRepo  repository.ProfileRepository
	CustomerRepo repository.CustomerRepository
	TokenRepo    repository.ImpersonationTokenRepository
	AuditRepo    repository.ImpersonationAuditRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// ImpersonationService issues, redeems and terminates impersonation sessions.
type ImpersonationService struct {
	profiles   repository.ProfileRepository
	customers  repository.CustomerRepository
	tokens     repository.ImpersonationTokenRepository
	audits     repository.ImpersonationAuditRepository
	dispatcher events.Dispatcher
	codec      *session.Codec
	logger     *zap.Logger
	now        func() time.Time

	publicURL    string
	tokenTTL     time.Duration
	sessionTTL   time.Duration
	stopRedirect string
}

// NewImpersonationService builds the service.
func NewImpersonationService(cfg config.Config, deps ImpersonationDependencies) *ImpersonationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	signingKey := cfg.Impersonation.SigningKey
	if signingKey == "" {
		signingKey = cfg.Auth.JWTSecret
	}
	return &ImpersonationService{
		profiles:     deps.ProfileRepo,
		customers:    deps.CustomerRepo,
		tokens:       deps.TokenRepo,
		audits:       deps.AuditRepo,
		dispatcher:   deps.Dispatcher,
		codec:        session.NewCodec(signingKey),
		logger:       logger,
		now:          now,
		publicURL:    strings.TrimRight(cfg.App.PublicURL, "/"),
		tokenTTL:     cfg.Impersonation.TokenTTL(),
		sessionTTL:   cfg.Impersonation.SessionMaxAge(),
		stopRedirect: cfg.Impersonation.StopRedirectPath,
	}
}

// SessionTTL returns how long a redeemed session lasts.
func (s *ImpersonationService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// CanImpersonate reports whether the user holds the admin role.
func (s *ImpersonationService) CanImpersonate(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.NewInternalError(err)
	}
	return profile.IsAdmin(), nil
}

// Issue creates a single-use token letting the admin act as the customer.
func (s *ImpersonationService) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	admin, err := s.profiles.GetByID(ctx, req.AdminUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("unknown admin user")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !admin.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, apperrors.NewValidationError("customerId is required", nil)
	}

	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customerId": req.CustomerID})
		}
		return nil, apperrors.NewInternalError(err)
	}

	raw, err := generateToken()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	token := &domain.ImpersonationToken{
		AdminUserID: admin.ID,
		CustomerID:  customer.ID,
		Token:       raw,
		ExpiresAt:   s.now().Add(ttl),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	tokenID := token.ID
	s.recordAudit(ctx, &domain.ImpersonationAudit{
		AdminUserID:   admin.ID,
		CustomerID:    customer.ID,
		Action:        domain.AuditActionStart,
		TokenID:       &tokenID,
		AdminEmail:    admin.Email,
		CustomerEmail: customer.Email,
		IPAddress:     optional(req.Meta.IPAddress),
		UserAgent:     optional(req.Meta.UserAgent),
	})
	s.publish(ctx, events.EventImpersonationStarted, customer.ID, events.Actor{AdminUserID: admin.ID, AdminEmail: admin.Email},
		events.ImpersonationStartedPayload{TokenID: token.ID, CustomerEmail: customer.Email, ExpiresAt: token.ExpiresAt})

	s.logger.Info("impersonation token issued",
		zap.String("admin_user_id", admin.ID),
		zap.String("customer_id", customer.ID),
		zap.String("token_id", token.ID),
		zap.Time("expires_at", token.ExpiresAt))

	return &IssueResult{
		TokenID:     token.ID,
		Token:       raw,
		ExpiresAt:   token.ExpiresAt,
		RedirectURL: s.publicURL + "/auth/impersonate/" + raw,
	}, nil
}

// Consume redeems a raw token exactly once and starts the session.
func (s *ImpersonationService) Consume(ctx context.Context, rawToken string) (*ConsumeResult, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	token, err := s.tokens.GetByToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	if !token.IsValid(now) {
		return nil, ErrExpiredOrUsedToken
	}

	marked, err := s.tokens.MarkUsed(ctx, token.ID, now)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !marked {
		return nil, ErrExpiredOrUsedToken
	}

	customer, err := s.customers.GetByID(ctx, token.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customerId": token.CustomerID})
		}
		return nil, apperrors.NewInternalError(err)
	}

	startedAt := now.UTC()
	sess := domain.ImpersonationSession{
		IsImpersonating:     true,
		OriginalAdminUserID: token.AdminUserID,
		ImpersonatedCustomer: &domain.ImpersonatedCustomer{
			ID:        customer.ID,
			Email:     customer.Email,
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
			FullName:  customer.FullName(),
		},
		ImpersonationStartedAt: &startedAt,
		TokenID:                token.ID,
	}

	expiresAt := startedAt.Add(s.sessionTTL)
	value, err := s.codec.Encode(sess, expiresAt)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("impersonation session started",
		zap.String("admin_user_id", token.AdminUserID),
		zap.String("customer_id", customer.ID),
		zap.String("token_id", token.ID))

	return &ConsumeResult{Session: sess, CookieValue: value, ExpiresAt: expiresAt}, nil
}

// Resolve reads the carrier cookie. Malformed cookies and sessions that were
// already stopped resolve to no session and ask to be cleared; expired ones
// are audited as expire events the first time they are seen.
func (s *ImpersonationService) Resolve(ctx context.Context, cookieValue string, meta domain.RequestMeta) session.Resolution {
	if strings.TrimSpace(cookieValue) == "" {
		return session.Resolution{Session: domain.NotImpersonating()}
	}

	now := s.now()
	sess, err := s.codec.Decode(cookieValue, now)
	switch {
	case err == nil:
		ended, err := s.audits.HasEnded(ctx, sess.TokenID)
		if err != nil {
			// fail closed but keep the cookie; the next request may succeed
			s.logger.Error("lookup impersonation session end", zap.String("token_id", sess.TokenID), zap.Error(err))
			return session.Resolution{Session: domain.NotImpersonating()}
		}
		if ended {
			return session.Resolution{Session: domain.NotImpersonating(), ClearCookie: true}
		}
		return session.Resolution{Session: sess}
	case errors.Is(err, session.ErrExpired):
		duration := elapsedSeconds(*sess.ImpersonationStartedAt, now)
		tokenID := sess.TokenID
		written := s.recordSessionEnd(ctx, &domain.ImpersonationAudit{
			AdminUserID:     sess.OriginalAdminUserID,
			CustomerID:      sess.ImpersonatedCustomer.ID,
			Action:          domain.AuditActionExpire,
			TokenID:         &tokenID,
			AdminEmail:      s.adminEmail(ctx, sess.OriginalAdminUserID),
			CustomerEmail:   sess.ImpersonatedCustomer.Email,
			IPAddress:       optional(meta.IPAddress),
			UserAgent:       optional(meta.UserAgent),
			SessionDuration: &duration,
		})
		if !written {
			return session.Resolution{Session: domain.NotImpersonating(), ClearCookie: true}
		}
		s.publish(ctx, events.EventImpersonationExpired, sess.ImpersonatedCustomer.ID, events.Actor{AdminUserID: sess.OriginalAdminUserID},
			events.ImpersonationEndedPayload{CustomerEmail: sess.ImpersonatedCustomer.Email, DurationSeconds: duration})
		return session.Resolution{Session: domain.NotImpersonating(), ClearCookie: true}
	default:
		s.logger.Warn("discarding malformed impersonation cookie", zap.Error(err))
		return session.Resolution{Session: domain.NotImpersonating(), ClearCookie: true}
	}
}

// Stop terminates the session carried by cookieValue and audits its duration.
func (s *ImpersonationService) Stop(ctx context.Context, cookieValue string, meta domain.RequestMeta) (*StopResult, error) {
	if strings.TrimSpace(cookieValue) == "" {
		return nil, ErrNoActiveSession
	}
	now := s.now()
	// expired sessions were already closed out by Resolve with an expire audit
	sess, err := s.codec.Decode(cookieValue, now)
	if err != nil {
		return nil, ErrNoActiveSession
	}

	duration := elapsedSeconds(*sess.ImpersonationStartedAt, now)
	adminEmail := s.adminEmail(ctx, sess.OriginalAdminUserID)
	tokenID := sess.TokenID
	audit := &domain.ImpersonationAudit{
		AdminUserID:     sess.OriginalAdminUserID,
		CustomerID:      sess.ImpersonatedCustomer.ID,
		Action:          domain.AuditActionStop,
		TokenID:         &tokenID,
		AdminEmail:      adminEmail,
		CustomerEmail:   sess.ImpersonatedCustomer.Email,
		IPAddress:       optional(meta.IPAddress),
		UserAgent:       optional(meta.UserAgent),
		SessionDuration: &duration,
	}
	// a replayed cookie loses the insert to the first stop or expire
	if !s.recordSessionEnd(ctx, audit) {
		return nil, ErrNoActiveSession
	}
	s.publish(ctx, events.EventImpersonationStopped, sess.ImpersonatedCustomer.ID, events.Actor{AdminUserID: sess.OriginalAdminUserID, AdminEmail: adminEmail},
		events.ImpersonationEndedPayload{CustomerEmail: sess.ImpersonatedCustomer.Email, DurationSeconds: duration})

	s.logger.Info("impersonation session stopped",
		zap.String("admin_user_id", sess.OriginalAdminUserID),
		zap.String("customer_id", sess.ImpersonatedCustomer.ID),
		zap.Int("session_duration", duration))

	return &StopResult{RedirectURL: s.stopRedirect, SessionDuration: duration, Audit: audit}, nil
}

// History lists audit entries, newest first.
func (s *ImpersonationService) History(ctx context.Context, filter repository.AuditFilter) ([]domain.ImpersonationAudit, error) {
	entries, err := s.audits.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// SweepTokens deletes tokens used or expired before the retention cutoff.
func (s *ImpersonationService) SweepTokens(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	removed, err := s.tokens.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	s.logger.Info("impersonation tokens swept", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	return removed, nil
}

// recordAudit writes best-effort: failures are logged, never surfaced.
func (s *ImpersonationService) recordAudit(ctx context.Context, audit *domain.ImpersonationAudit) {
	if err := s.audits.Create(ctx, audit); err != nil {
		s.logger.Error("impersonation audit write failed",
			zap.String("action", string(audit.Action)),
			zap.String("admin_user_id", audit.AdminUserID),
			zap.String("customer_id", audit.CustomerID),
			zap.Error(err))
	}
}

// recordSessionEnd writes a stop or expire entry and reports whether this
// call ended the session. A failed write is logged and does not block it.
func (s *ImpersonationService) recordSessionEnd(ctx context.Context, audit *domain.ImpersonationAudit) bool {
	written, err := s.audits.CreateTerminal(ctx, audit)
	if err != nil {
		s.logger.Error("impersonation audit write failed",
			zap.String("action", string(audit.Action)),
			zap.String("admin_user_id", audit.AdminUserID),
			zap.String("customer_id", audit.CustomerID),
			zap.Error(err))
		return true
	}
	return written
}

func (s *ImpersonationService) adminEmail(ctx context.Context, adminUserID string) string {
	profile, err := s.profiles.GetByID(ctx, adminUserID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("lookup admin email", zap.String("admin_user_id", adminUserID), zap.Error(err))
		}
		return ""
	}
	return profile.Email
}

func (s *ImpersonationService) publish(ctx context.Context, eventType events.EventType, customerID string, actor events.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CustomerID: customerID,
		Actor:      actor,
		Timestamp:  s.now(),
		Payload:    payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func elapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
