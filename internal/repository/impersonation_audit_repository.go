package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-commerce/storefront-service/internal/domain"
)

// AuditFilter narrows audit listings. Zero values mean no restriction.
type AuditFilter struct {
	AdminUserID string
	CustomerID  string
	Limit       int
}

// ImpersonationAuditRepository stores impersonation audit entries.
type ImpersonationAuditRepository interface {
	Create(ctx context.Context, audit *domain.ImpersonationAudit) error
	// CreateTerminal writes a stop or expire entry unless the same token
	// already has one, reporting whether this call wrote the row.
	CreateTerminal(ctx context.Context, audit *domain.ImpersonationAudit) (bool, error)
	// HasEnded reports whether a stop or expire entry exists for the token.
	HasEnded(ctx context.Context, tokenID string) (bool, error)
	List(ctx context.Context, filter AuditFilter) ([]domain.ImpersonationAudit, error)
}

type impersonationAuditRepository struct {
	pool *pgxpool.Pool
}

// NewImpersonationAuditRepository builds repository.
func NewImpersonationAuditRepository(pool *pgxpool.Pool) ImpersonationAuditRepository {
	return &impersonationAuditRepository{pool: pool}
}

func (r *impersonationAuditRepository) Create(ctx context.Context, audit *domain.ImpersonationAudit) error {
	const query = `
        INSERT INTO admin_impersonation_audit
            (admin_user_id, customer_id, action, token_id, admin_email, customer_email, ip_address, user_agent, session_duration)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		audit.AdminUserID,
		audit.CustomerID,
		audit.Action,
		audit.TokenID,
		audit.AdminEmail,
		audit.CustomerEmail,
		audit.IPAddress,
		audit.UserAgent,
		audit.SessionDuration,
	).Scan(&audit.ID, &audit.CreatedAt)
}

func (r *impersonationAuditRepository) CreateTerminal(ctx context.Context, audit *domain.ImpersonationAudit) (bool, error) {
	const query = `
        INSERT INTO admin_impersonation_audit
            (admin_user_id, customer_id, action, token_id, admin_email, customer_email, ip_address, user_agent, session_duration)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (token_id) WHERE action IN ('stop', 'expire') DO NOTHING
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		audit.AdminUserID,
		audit.CustomerID,
		audit.Action,
		audit.TokenID,
		audit.AdminEmail,
		audit.CustomerEmail,
		audit.IPAddress,
		audit.UserAgent,
		audit.SessionDuration,
	).Scan(&audit.ID, &audit.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *impersonationAuditRepository) HasEnded(ctx context.Context, tokenID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM admin_impersonation_audit
            WHERE token_id = $1 AND action IN ('stop', 'expire')
        )`
	var ended bool
	if err := r.pool.QueryRow(ctx, query, tokenID).Scan(&ended); err != nil {
		return false, err
	}
	return ended, nil
}

func (r *impersonationAuditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.ImpersonationAudit, error) {
	const query = `
        SELECT id, admin_user_id, customer_id, action, token_id, admin_email, customer_email,
               ip_address, user_agent, session_duration, created_at
        FROM admin_impersonation_audit
        WHERE ($1 = '' OR admin_user_id::text = $1)
          AND ($2 = '' OR customer_id = $2)
        ORDER BY created_at DESC
        LIMIT $3`
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, query, filter.AdminUserID, filter.CustomerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ImpersonationAudit
	for rows.Next() {
		var audit domain.ImpersonationAudit
		if err := rows.Scan(
			&audit.ID,
			&audit.AdminUserID,
			&audit.CustomerID,
			&audit.Action,
			&audit.TokenID,
			&audit.AdminEmail,
			&audit.CustomerEmail,
			&audit.IPAddress,
			&audit.UserAgent,
			&audit.SessionDuration,
			&audit.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, audit)
	}
	return result, rows.Err()
}
