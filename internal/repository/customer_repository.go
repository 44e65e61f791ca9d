package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-commerce/storefront-service/internal/domain"
)

// CustomerRepository defines persistence access for customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const insertCustomerSQL = `
        INSERT INTO customers (id, profile_id, email, first_name, last_name)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return insertCustomer(ctx, r.pool, customer)
}

func insertCustomer(ctx context.Context, q querier, customer *domain.Customer) error {
	return q.QueryRow(ctx, insertCustomerSQL,
		customer.ID,
		customer.ProfileID,
		customer.Email,
		customer.FirstName,
		customer.LastName,
	).Scan(&customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, profile_id, email, first_name, last_name, created_at, updated_at
        FROM customers WHERE id=$1`

	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&customer.ID,
		&customer.ProfileID,
		&customer.Email,
		&customer.FirstName,
		&customer.LastName,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
