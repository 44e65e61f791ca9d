package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/northwind-commerce/storefront-service/internal/api/http"
	"github.com/northwind-commerce/storefront-service/internal/api/http/handlers"
	"github.com/northwind-commerce/storefront-service/internal/auth"
	"github.com/northwind-commerce/storefront-service/internal/config"
	"github.com/northwind-commerce/storefront-service/internal/events"
	"github.com/northwind-commerce/storefront-service/internal/observability"
	"github.com/northwind-commerce/storefront-service/internal/persistence"
	"github.com/northwind-commerce/storefront-service/internal/ratelimit"
	"github.com/northwind-commerce/storefront-service/internal/repository"
	"github.com/northwind-commerce/storefront-service/internal/service"
	"github.com/northwind-commerce/storefront-service/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	profileRepo := repository.NewProfileRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	tokenRepo := repository.NewImpersonationTokenRepository(pool)
	auditRepo := repository.NewImpersonationAuditRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		ProfileRepo: profileRepo,
		AccountRepo: repository.NewAccountRepository(pool),
	})
	impersonationService := service.NewImpersonationService(*cfg, service.ImpersonationDependencies{
		ProfileRepo:  profileRepo,
		CustomerRepo: customerRepo,
		TokenRepo:    tokenRepo,
		AuditRepo:    auditRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	secure := cfg.App.IsProduction()
	sessionMiddleware := auth.NewSessionMiddleware(auth.SessionMiddlewareConfig{
		AuthCookie:          cfg.Auth.CookieName,
		ImpersonationCookie: cfg.Impersonation.CookieName,
		Secure:              secure,
	}, authService.TokenManager(), profileRepo, impersonationService, logger)

	cookies := handlers.CookieSettings{
		AuthCookie:          cfg.Auth.CookieName,
		AuthMaxAge:          authService.TokenManager().TTL(),
		ImpersonationCookie: cfg.Impersonation.CookieName,
		SessionMaxAge:       impersonationService.SessionTTL(),
		Secure:              secure,
	}

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:              handlers.NewAuthHandler(authService, impersonationService, cookies),
		Impersonation:     handlers.NewImpersonationHandler(impersonationService, cookies, cfg.Impersonation.LandingPath, logger),
		Pages:             handlers.NewPagesHandler(),
		SessionMiddleware: sessionMiddleware,
		Guard:             auth.DefaultGuardConfig(),
		Limiter:           ratelimit.NewLimiter(redis.Client, "ratelimit", cfg.Impersonation.RateLimitPerMinute, time.Minute),
		Logger:            logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
