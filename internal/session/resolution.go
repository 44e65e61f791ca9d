package session

import "github.com/northwind-commerce/storefront-service/internal/domain"

// Resolution is the outcome of reading the carrier cookie for one request.
type Resolution struct {
	Session domain.ImpersonationSession
	// ClearCookie asks the caller to drop a malformed or expired cookie.
	ClearCookie bool
}
