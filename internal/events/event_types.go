package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventImpersonationStarted EventType = "impersonation_started"
	EventImpersonationStopped EventType = "impersonation_stopped"
	EventImpersonationExpired EventType = "impersonation_expired"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	AdminUserID string `json:"admin_user_id"`
	AdminEmail  string `json:"admin_email,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	CustomerID string      `json:"customer_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ImpersonationStartedPayload payload.
type ImpersonationStartedPayload struct {
	TokenID       string    `json:"token_id"`
	CustomerEmail string    `json:"customer_email"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ImpersonationEndedPayload payload for stop and expire events.
type ImpersonationEndedPayload struct {
	CustomerEmail   string `json:"customer_email"`
	DurationSeconds int    `json:"duration_seconds"`
}
