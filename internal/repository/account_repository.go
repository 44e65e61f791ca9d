package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-commerce/storefront-service/internal/domain"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository writes records that span the profile and customer tables.
type AccountRepository interface {
	// CreateCustomerAccount inserts the profile and its customer record in one
	// transaction and links customer.ProfileID to the new profile.
	CreateCustomerAccount(ctx context.Context, profile *domain.Profile, customer *domain.Customer) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) CreateCustomerAccount(ctx context.Context, profile *domain.Profile, customer *domain.Customer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := insertProfile(ctx, tx, profile); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	profileID := profile.ID
	customer.ProfileID = &profileID
	if err := insertCustomer(ctx, tx, customer); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
