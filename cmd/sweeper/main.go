package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/config"
	"github.com/northwind-commerce/storefront-service/internal/observability"
	"github.com/northwind-commerce/storefront-service/internal/persistence"
	"github.com/northwind-commerce/storefront-service/internal/repository"
	"github.com/northwind-commerce/storefront-service/internal/service"
)

// sweeper removes used and expired impersonation tokens; run it from cron.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, zap.String("service", cfg.App.Name), zap.String("version", cfg.App.Version))
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required for the sweeper")
	}

	pool := pg.PoolHandle()
	svc := service.NewImpersonationService(*cfg, service.ImpersonationDependencies{
		ProfileRepo:  repository.NewProfileRepository(pool),
		CustomerRepo: repository.NewCustomerRepository(pool),
		TokenRepo:    repository.NewImpersonationTokenRepository(pool),
		AuditRepo:    repository.NewImpersonationAuditRepository(pool),
		Logger:       logger,
	})

	if _, err := svc.SweepTokens(ctx, cfg.Sweeper.Retention()); err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}
}
