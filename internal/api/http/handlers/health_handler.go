package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency whose connectivity gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	serviceName  string
	version      string
	startedAt    time.Time
	dependencies map[string]Pinger
}

// NewHealthHandler returns a handler probing the named dependencies.
func NewHealthHandler(serviceName, version string, dependencies map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName:  serviceName,
		version:      version,
		startedAt:    time.Now(),
		dependencies: dependencies,
	}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "alive",
		"service":       h.serviceName,
		"version":       h.version,
		"uptimeSeconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// Ready handles GET /health/ready, pinging every dependency in parallel.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		status = fiber.Map{}
		ready  = true
	)
	for name, dep := range h.dependencies {
		wg.Add(1)
		go func(name string, dep Pinger) {
			defer wg.Done()
			err := dep.Ping(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				status[name] = err.Error()
				ready = false
				return
			}
			status[name] = "ok"
		}(name, dep)
	}
	wg.Wait()

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": status,
			},
		})
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": status})
}
