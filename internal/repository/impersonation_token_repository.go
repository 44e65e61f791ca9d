package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-commerce/storefront-service/internal/domain"
)

// ImpersonationTokenRepository manages impersonation token persistence.
type ImpersonationTokenRepository interface {
	Create(ctx context.Context, token *domain.ImpersonationToken) error
	GetByToken(ctx context.Context, token string) (*domain.ImpersonationToken, error)
	// MarkUsed flags the token as consumed. It reports false when the token
	// was already used or had expired by usedAt, so only one caller wins.
	MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

type impersonationTokenRepository struct {
	pool *pgxpool.Pool
}

// NewImpersonationTokenRepository constructs repository.
func NewImpersonationTokenRepository(pool *pgxpool.Pool) ImpersonationTokenRepository {
	return &impersonationTokenRepository{pool: pool}
}

func (r *impersonationTokenRepository) Create(ctx context.Context, token *domain.ImpersonationToken) error {
	const query = `
        INSERT INTO admin_impersonation_tokens (admin_user_id, customer_id, token, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		token.AdminUserID,
		token.CustomerID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *impersonationTokenRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.ImpersonationToken, error) {
	const query = `
        SELECT id, admin_user_id, customer_id, token, expires_at, used_at, created_at
        FROM admin_impersonation_tokens WHERE token=$1`
	var token domain.ImpersonationToken
	if err := r.pool.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.AdminUserID,
		&token.CustomerID,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *impersonationTokenRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	const query = `
        UPDATE admin_impersonation_tokens SET used_at=$2
        WHERE id=$1 AND used_at IS NULL AND expires_at > $2`
	cmd, err := r.pool.Exec(ctx, query, id, usedAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *impersonationTokenRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	const query = `
        DELETE FROM admin_impersonation_tokens
        WHERE (used_at IS NOT NULL AND used_at < $1) OR expires_at < $1`
	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
