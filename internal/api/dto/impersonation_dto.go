package dto

import (
	"time"

	"github.com/northwind-commerce/storefront-service/internal/domain"
)

// ImpersonateRequest payload for POST /api/admin/impersonate.
type ImpersonateRequest struct {
	CustomerID string `json:"customerId"`
}

// ImpersonateResponse is returned after a token is issued.
type ImpersonateResponse struct {
	Success     bool      `json:"success"`
	Token       string    `json:"token"`
	RedirectURL string    `json:"redirectUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// PermissionResponse answers the impersonation permission probe.
type PermissionResponse struct {
	Success        bool   `json:"success"`
	CanImpersonate bool   `json:"canImpersonate"`
	UserID         string `json:"userId"`
}

// StopResponse is returned when a session ends.
type StopResponse struct {
	Success         bool   `json:"success"`
	RedirectURL     string `json:"redirectUrl"`
	SessionDuration int    `json:"sessionDuration"`
}

// AuditEntryResponse is one audit trail row.
type AuditEntryResponse struct {
	ID              string    `json:"id"`
	AdminUserID     string    `json:"adminUserId"`
	CustomerID      string    `json:"customerId"`
	Action          string    `json:"action"`
	TokenID         *string   `json:"tokenId,omitempty"`
	AdminEmail      string    `json:"adminEmail"`
	CustomerEmail   string    `json:"customerEmail"`
	IPAddress       *string   `json:"ipAddress,omitempty"`
	UserAgent       *string   `json:"userAgent,omitempty"`
	SessionDuration *int      `json:"sessionDuration,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewAuditEntryResponse maps a domain audit record.
func NewAuditEntryResponse(a domain.ImpersonationAudit) AuditEntryResponse {
	return AuditEntryResponse{
		ID:              a.ID,
		AdminUserID:     a.AdminUserID,
		CustomerID:      a.CustomerID,
		Action:          string(a.Action),
		TokenID:         a.TokenID,
		AdminEmail:      a.AdminEmail,
		CustomerEmail:   a.CustomerEmail,
		IPAddress:       a.IPAddress,
		UserAgent:       a.UserAgent,
		SessionDuration: a.SessionDuration,
		CreatedAt:       a.CreatedAt,
	}
}
