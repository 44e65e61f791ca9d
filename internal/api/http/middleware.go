package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/observability"
	"github.com/northwind-commerce/storefront-service/internal/ratelimit"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				errBody := fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}
				if len(domainErr.Details) > 0 {
					errBody["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(fiber.Map{"success": false, "error": errBody})
				err = nil
			}
		}()
		return c.Next()
	}
}

// rateLimitMiddleware caps hits per client IP on the named route.
func rateLimitMiddleware(limiter *ratelimit.Limiter, route string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := limiter.Allow(c.UserContext(), route+":"+c.IP())
		if err != nil {
			logger.Warn("rate limiter unavailable; allowing request", zap.String("route", route), zap.Error(err))
		}
		if !allowed {
			return apperrors.NewTooManyRequests("too many requests, try again shortly")
		}
		return c.Next()
	}
}
