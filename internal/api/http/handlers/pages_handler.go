package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/northwind-commerce/storefront-service/internal/auth"
)

// PagesHandler answers the guarded page routes with the identity the page
// would render for; markup lives in the frontend.
type PagesHandler struct{}

// NewPagesHandler constructs handler.
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

// Render reports the page name with the effective identity and banner state.
func (h *PagesHandler) Render(page string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc := auth.SessionFromContext(c)
		body := fiber.Map{
			"page":            page,
			"effectiveUserId": sc.EffectiveUserID(),
			"effectiveRole":   string(sc.EffectiveRole()),
			"impersonation":   sc.Impersonation,
		}
		if sc.Impersonating() {
			body["actorId"] = sc.ActorID()
		}
		return c.JSON(body)
	}
}
