package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs one structured line per request and records metrics.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals("request_id", requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		latency := time.Since(start)
		// route path keeps token parameters out of the metric keys
		routePath := c.Route().Path
		metrics.RecordRequest(routePath, c.Method(), status, latency)

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", routePath),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
		return err
	}
}
