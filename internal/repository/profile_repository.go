package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-commerce/storefront-service/internal/domain"
)

// ProfileRepository defines persistence access for account profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const insertProfileSQL = `
        INSERT INTO profiles (email, password_hash, role, first_name, last_name)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	return insertProfile(ctx, r.pool, profile)
}

func insertProfile(ctx context.Context, q querier, profile *domain.Profile) error {
	return q.QueryRow(ctx, insertProfileSQL,
		profile.Email,
		profile.PasswordHash,
		profile.Role,
		profile.FirstName,
		profile.LastName,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `
        SELECT id, email, password_hash, role, first_name, last_name, created_at, updated_at
        FROM profiles WHERE id=$1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.Role,
		&profile.FirstName,
		&profile.LastName,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	const query = `
        SELECT id, email, password_hash, role, first_name, last_name, created_at, updated_at
        FROM profiles WHERE email=$1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.Role,
		&profile.FirstName,
		&profile.LastName,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
