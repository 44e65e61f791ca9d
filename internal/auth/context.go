package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/northwind-commerce/storefront-service/internal/domain"
)

const sessionContextKey = "session_context"

// Principal represents the authenticated caller behind the auth cookie.
type Principal struct {
	UserID string
	Email  string
	Role   domain.Role
}

// SessionContext is resolved once per request and threaded through handlers.
type SessionContext struct {
	Principal     *Principal
	Impersonation domain.ImpersonationSession
}

// Impersonating reports whether an admin is acting as a customer.
func (s *SessionContext) Impersonating() bool {
	return s != nil && s.Impersonation.Active()
}

// HasSession reports whether any identity is attached to the request.
func (s *SessionContext) HasSession() bool {
	return s != nil && (s.Principal != nil || s.Impersonating())
}

// IsAdmin reports whether the logged-in principal holds the admin role.
func (s *SessionContext) IsAdmin() bool {
	return s != nil && s.Principal != nil && s.Principal.Role == domain.RoleAdmin
}

// EffectiveUserID is the identity the storefront should act as.
func (s *SessionContext) EffectiveUserID() string {
	if s == nil {
		return ""
	}
	if s.Impersonating() {
		return s.Impersonation.ImpersonatedCustomer.ID
	}
	if s.Principal != nil {
		return s.Principal.UserID
	}
	return ""
}

// EffectiveRole is the role of the effective identity.
func (s *SessionContext) EffectiveRole() domain.Role {
	if s == nil {
		return ""
	}
	if s.Impersonating() {
		return domain.RoleCustomer
	}
	if s.Principal != nil {
		return s.Principal.Role
	}
	return ""
}

// ActorID is the identity protected actions are attributed to in audit
// records; during impersonation it stays the original admin.
func (s *SessionContext) ActorID() string {
	if s == nil {
		return ""
	}
	if s.Impersonating() {
		return s.Impersonation.OriginalAdminUserID
	}
	if s.Principal != nil {
		return s.Principal.UserID
	}
	return ""
}

// SetSessionContext stores the resolved context on the request.
func SetSessionContext(c *fiber.Ctx, sc *SessionContext) {
	c.Locals(sessionContextKey, sc)
}

// SessionFromContext retrieves the resolved session context. Requests that
// never passed the session middleware get an anonymous context.
func SessionFromContext(c *fiber.Ctx) *SessionContext {
	if sc, ok := c.Locals(sessionContextKey).(*SessionContext); ok && sc != nil {
		return sc
	}
	return &SessionContext{Impersonation: domain.NotImpersonating()}
}
