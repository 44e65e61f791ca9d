package domain

import (
	"strings"
	"time"
)

// Customer is a shopper record; ProfileID links it to a login when one exists.
type Customer struct {
	ID        string
	ProfileID *string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
