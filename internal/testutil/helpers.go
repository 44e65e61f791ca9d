package testutil

import (
	"sync"
	"time"

	"github.com/northwind-commerce/storefront-service/internal/config"
	"github.com/northwind-commerce/storefront-service/internal/domain"
)

// Clock is a settable time source for time-dependent tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() config.Config {
	return config.Config{
		App: config.AppConfig{
			Name:      "storefront-service",
			Env:       "test",
			PublicURL: "https://shop.example.com",
		},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
			CookieName:            "sf_auth",
		},
		Impersonation: config.ImpersonationConfig{
			TokenTTLMinutes:      5,
			SessionMaxAgeMinutes: 60,
			CookieName:           "impersonation_session",
			LandingPath:          "/account",
			StopRedirectPath:     "/admin/customers",
		},
		Sweeper: config.SweeperConfig{RetentionHours: 24},
	}
}

// Fixture holds the stores seeded with the standard admin and customer.
type Fixture struct {
	Profiles  *MemoryProfiles
	Customers *MemoryCustomers
	Tokens    *MemoryTokens
	Audits    *MemoryAudits
	Accounts  *MemoryAccounts

	Admin        *domain.Profile
	CustomerUser *domain.Profile
	Customer     *domain.Customer
}

// NewFixture seeds admin@example.com (admin) and customer cust_123
// (jane@example.com) with a customer login.
func NewFixture() *Fixture {
	f := &Fixture{
		Profiles:  NewMemoryProfiles(),
		Customers: NewMemoryCustomers(),
		Tokens:    NewMemoryTokens(),
		Audits:    NewMemoryAudits(),
	}
	f.Accounts = &MemoryAccounts{Profiles: f.Profiles, Customers: f.Customers}
	f.Admin = f.Profiles.Add(&domain.Profile{
		ID:        "11111111-1111-1111-1111-111111111111",
		Email:     "admin@example.com",
		Role:      domain.RoleAdmin,
		FirstName: "Amina",
		LastName:  "Admin",
	})
	f.CustomerUser = f.Profiles.Add(&domain.Profile{
		ID:        "22222222-2222-2222-2222-222222222222",
		Email:     "jane@example.com",
		Role:      domain.RoleCustomer,
		FirstName: "Jane",
		LastName:  "Doe",
	})
	profileID := f.CustomerUser.ID
	f.Customer = f.Customers.Add(&domain.Customer{
		ID:        "cust_123",
		ProfileID: &profileID,
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	return f
}
