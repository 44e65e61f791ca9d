package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/config"
)

// ErrPostgresNotConfigured is returned by Ping when no DSN was supplied.
var ErrPostgresNotConfigured = errors.New("postgres pool not configured")

// Postgres holds the pgx pool shared by the repositories.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres opens and verifies the pool. An empty DSN yields a Postgres
// without a pool so local runs can start without a database.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; running without a database")
		return &Postgres{}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	tunePool(poolCfg, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to postgres",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{Pool: pool}, nil
}

func tunePool(poolCfg *pgxpool.Config, cfg config.PostgresConfig) {
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
}

// PoolHandle returns the pool, nil when no database is configured.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}

// Ping satisfies the readiness probe.
func (p *Postgres) Ping(ctx context.Context) error {
	pool := p.PoolHandle()
	if pool == nil {
		return ErrPostgresNotConfigured
	}
	return pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() {
	if pool := p.PoolHandle(); pool != nil {
		pool.Close()
	}
}
