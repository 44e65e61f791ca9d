package domain

import "time"

// ImpersonationToken is a single-use credential exchanged for a session.
type ImpersonationToken struct {
	ID          string
	AdminUserID string
	CustomerID  string
	Token       string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

// IsValid reports whether the token can still be redeemed at now.
func (t *ImpersonationToken) IsValid(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(now)
}

// ImpersonatedCustomer is the customer snapshot taken when a session starts.
type ImpersonatedCustomer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}

// ImpersonationSession is carried by the session cookie, never persisted.
type ImpersonationSession struct {
	IsImpersonating        bool                  `json:"isImpersonating"`
	OriginalAdminUserID    string                `json:"originalAdminUserId,omitempty"`
	ImpersonatedCustomer   *ImpersonatedCustomer `json:"impersonatedCustomer,omitempty"`
	ImpersonationStartedAt *time.Time            `json:"impersonationStartedAt,omitempty"`
	// TokenID links the session to the token it was redeemed from. It
	// travels as the cookie's jti claim and is never rendered to clients.
	TokenID                string                `json:"-"`
}

// NotImpersonating is the zero session returned whenever no valid cookie exists.
func NotImpersonating() ImpersonationSession {
	return ImpersonationSession{IsImpersonating: false}
}

// Active reports whether the session carries a complete impersonation.
func (s ImpersonationSession) Active() bool {
	return s.IsImpersonating &&
		s.OriginalAdminUserID != "" &&
		s.ImpersonatedCustomer != nil &&
		s.ImpersonatedCustomer.ID != "" &&
		s.ImpersonationStartedAt != nil
}

// AuditAction enumerates impersonation audit events.
type AuditAction string

const (
	AuditActionStart  AuditAction = "start"
	AuditActionStop   AuditAction = "stop"
	AuditActionExpire AuditAction = "expire"
)

// ImpersonationAudit is an immutable audit trail entry.
type ImpersonationAudit struct {
	ID              string
	AdminUserID     string
	CustomerID      string
	Action          AuditAction
	TokenID         *string
	AdminEmail      string
	CustomerEmail   string
	IPAddress       *string
	UserAgent       *string
	SessionDuration *int
	CreatedAt       time.Time
}

// RequestMeta captures the client details recorded on audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
