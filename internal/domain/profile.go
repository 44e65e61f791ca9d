package domain

import "time"

// Role enumerates the account roles known to the storefront.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Profile is an authenticated account, admin or customer.
type Profile struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the profile carries the elevated role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
