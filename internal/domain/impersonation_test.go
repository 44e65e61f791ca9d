package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImpersonationToken_IsValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)

	assert.True(t, (&ImpersonationToken{ExpiresAt: now.Add(time.Second)}).IsValid(now))
	assert.False(t, (&ImpersonationToken{ExpiresAt: now}).IsValid(now))
	assert.False(t, (&ImpersonationToken{ExpiresAt: now.Add(time.Hour), UsedAt: &used}).IsValid(now))
}

func TestImpersonationSession_Active(t *testing.T) {
	started := time.Now()
	full := ImpersonationSession{
		IsImpersonating:        true,
		OriginalAdminUserID:    "admin-1",
		ImpersonatedCustomer:   &ImpersonatedCustomer{ID: "cust_123"},
		ImpersonationStartedAt: &started,
	}
	assert.True(t, full.Active())
	assert.False(t, NotImpersonating().Active())

	missingCustomer := full
	missingCustomer.ImpersonatedCustomer = nil
	assert.False(t, missingCustomer.Active())

	missingAdmin := full
	missingAdmin.OriginalAdminUserID = ""
	assert.False(t, missingAdmin.Active())
}

func TestCustomerFullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", (&Customer{FirstName: "Jane", LastName: "Doe"}).FullName())
	assert.Equal(t, "Jane", (&Customer{FirstName: "Jane"}).FullName())
	assert.True(t, (&Profile{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (*Profile)(nil).IsAdmin())
}
