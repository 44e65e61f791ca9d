package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/northwind-commerce/storefront-service/internal/domain"
	"github.com/northwind-commerce/storefront-service/internal/repository"
)

// MemoryProfiles implements repository.ProfileRepository in memory.
type MemoryProfiles struct {
	mu       sync.Mutex
	byID     map[string]*domain.Profile
	GetErr   error
	GetCalls int
}

// NewMemoryProfiles creates an empty store.
func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{byID: make(map[string]*domain.Profile)}
}

// Add stores a profile as-is, assigning an id when missing.
func (m *MemoryProfiles) Add(p *domain.Profile) *domain.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	m.byID[p.ID] = &cp
	return p
}

func (m *MemoryProfiles) Create(_ context.Context, p *domain.Profile) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.Add(p)
	return nil
}

func (m *MemoryProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// MemoryCustomers implements repository.CustomerRepository in memory.
type MemoryCustomers struct {
	mu   sync.Mutex
	byID map[string]*domain.Customer
}

// NewMemoryCustomers creates an empty store.
func NewMemoryCustomers() *MemoryCustomers {
	return &MemoryCustomers{byID: make(map[string]*domain.Customer)}
}

// Add stores a customer as-is.
func (m *MemoryCustomers) Add(c *domain.Customer) *domain.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.byID[c.ID] = &cp
	return c
}

func (m *MemoryCustomers) Create(_ context.Context, c *domain.Customer) error {
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.Add(c)
	return nil
}

func (m *MemoryCustomers) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

// ByEmail finds a customer by email.
func (m *MemoryCustomers) ByEmail(email string) (*domain.Customer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Email == email {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

// MemoryAccounts implements repository.AccountRepository over the profile and
// customer stores. A failed customer insert leaves no profile behind.
type MemoryAccounts struct {
	Profiles    *MemoryProfiles
	Customers   *MemoryCustomers
	CustomerErr error
}

func (m *MemoryAccounts) CreateCustomerAccount(ctx context.Context, p *domain.Profile, c *domain.Customer) error {
	if m.CustomerErr != nil {
		return m.CustomerErr
	}
	if err := m.Profiles.Create(ctx, p); err != nil {
		return err
	}
	profileID := p.ID
	c.ProfileID = &profileID
	return m.Customers.Create(ctx, c)
}

// MemoryTokens implements repository.ImpersonationTokenRepository in memory.
// MarkUsed is a compare-and-set under the mutex, mirroring the conditional
// UPDATE of the Postgres implementation.
type MemoryTokens struct {
	mu        sync.Mutex
	byID      map[string]*domain.ImpersonationToken
	CreateErr error
}

// NewMemoryTokens creates an empty store.
func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{byID: make(map[string]*domain.ImpersonationToken)}
}

func (m *MemoryTokens) Create(_ context.Context, t *domain.ImpersonationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *MemoryTokens) GetByToken(_ context.Context, token string) (*domain.ImpersonationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *MemoryTokens) MarkUsed(_ context.Context, id string, usedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.UsedAt != nil || !t.ExpiresAt.After(usedAt) {
		return false, nil
	}
	at := usedAt
	t.UsedAt = &at
	return true, nil
}

func (m *MemoryTokens) DeleteStale(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, t := range m.byID {
		if (t.UsedAt != nil && t.UsedAt.Before(before)) || t.ExpiresAt.Before(before) {
			delete(m.byID, id)
			removed++
		}
	}
	return removed, nil
}

// Get returns a copy of the stored token by id.
func (m *MemoryTokens) Get(id string) (domain.ImpersonationToken, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return domain.ImpersonationToken{}, false
	}
	return *t, true
}

// Len reports how many tokens are stored.
func (m *MemoryTokens) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// MemoryAudits implements repository.ImpersonationAuditRepository in memory.
// CreateTerminal honours the one stop-or-expire per token unique index.
type MemoryAudits struct {
	mu          sync.Mutex
	entries     []domain.ImpersonationAudit
	CreateErr   error
	HasEndedErr error
}

// NewMemoryAudits creates an empty store.
func NewMemoryAudits() *MemoryAudits {
	return &MemoryAudits{}
}

func (m *MemoryAudits) Create(_ context.Context, a *domain.ImpersonationAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	m.entries = append(m.entries, *a)
	return nil
}

func (m *MemoryAudits) CreateTerminal(_ context.Context, a *domain.ImpersonationAudit) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return false, m.CreateErr
	}
	if a.TokenID != nil && m.endedLocked(*a.TokenID) {
		return false, nil
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	m.entries = append(m.entries, *a)
	return true, nil
}

func (m *MemoryAudits) HasEnded(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HasEndedErr != nil {
		return false, m.HasEndedErr
	}
	return m.endedLocked(tokenID), nil
}

func (m *MemoryAudits) endedLocked(tokenID string) bool {
	for _, e := range m.entries {
		if e.TokenID == nil || *e.TokenID != tokenID {
			continue
		}
		if e.Action == domain.AuditActionStop || e.Action == domain.AuditActionExpire {
			return true
		}
	}
	return false
}

func (m *MemoryAudits) List(_ context.Context, filter repository.AuditFilter) ([]domain.ImpersonationAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ImpersonationAudit
	for _, a := range m.entries {
		if filter.AdminUserID != "" && a.AdminUserID != filter.AdminUserID {
			continue
		}
		if filter.CustomerID != "" && a.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Entries returns the audit rows in insertion order.
func (m *MemoryAudits) Entries() []domain.ImpersonationAudit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ImpersonationAudit(nil), m.entries...)
}

// ByAction returns the audit rows with the given action.
func (m *MemoryAudits) ByAction(action domain.AuditAction) []domain.ImpersonationAudit {
	var out []domain.ImpersonationAudit
	for _, a := range m.Entries() {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}
