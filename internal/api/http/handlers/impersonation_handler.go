package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/northwind-commerce/storefront-service/internal/api/dto"
	"github.com/northwind-commerce/storefront-service/internal/auth"
	"github.com/northwind-commerce/storefront-service/internal/repository"
	"github.com/northwind-commerce/storefront-service/internal/service"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

const impersonationFailedPath = "/login?error=impersonation_failed"

// ImpersonationHandler exposes the admin impersonation endpoints.
type ImpersonationHandler struct {
	service     *service.ImpersonationService
	cookies     CookieSettings
	landingPath string
	logger      *zap.Logger
}

// NewImpersonationHandler constructs handler.
func NewImpersonationHandler(svc *service.ImpersonationService, cookies CookieSettings, landingPath string, logger *zap.Logger) *ImpersonationHandler {
	if landingPath == "" {
		landingPath = "/account"
	}
	return &ImpersonationHandler{service: svc, cookies: cookies, landingPath: landingPath, logger: logger}
}

// Issue handles POST /api/admin/impersonate.
func (h *ImpersonationHandler) Issue(c *fiber.Ctx) error {
	sc := auth.SessionFromContext(c)
	if sc.Principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ImpersonateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return apperrors.NewValidationError("customerId is required", nil)
	}

	result, err := h.service.Issue(c.UserContext(), service.IssueRequest{
		AdminUserID: sc.Principal.UserID,
		CustomerID:  req.CustomerID,
		Meta:        auth.RequestMeta(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(dto.ImpersonateResponse{
		Success:     true,
		Token:       result.Token,
		RedirectURL: result.RedirectURL,
		ExpiresAt:   result.ExpiresAt,
	})
}

// Permission handles GET /api/admin/impersonate.
func (h *ImpersonationHandler) Permission(c *fiber.Ctx) error {
	sc := auth.SessionFromContext(c)
	if sc.Principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	allowed, err := h.service.CanImpersonate(c.UserContext(), sc.Principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dto.PermissionResponse{
		Success:        true,
		CanImpersonate: allowed,
		UserID:         sc.Principal.UserID,
	})
}

// Audit handles GET /api/admin/impersonate/audit. The role is read from the
// store again because the session principal may come from token claims.
func (h *ImpersonationHandler) Audit(c *fiber.Ctx) error {
	sc := auth.SessionFromContext(c)
	if sc.Principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	allowed, err := h.service.CanImpersonate(c.UserContext(), sc.Principal.UserID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.NewForbidden("admin role required")
	}

	entries, err := h.service.History(c.UserContext(), repository.AuditFilter{
		AdminUserID: c.Query("adminUserId"),
		CustomerID:  c.Query("customerId"),
		Limit:       c.QueryInt("limit", 100),
	})
	if err != nil {
		return err
	}

	data := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, dto.NewAuditEntryResponse(entry))
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// Exchange handles GET /auth/impersonate/:token. Failures never grant a
// session; they bounce to the login page.
func (h *ImpersonationHandler) Exchange(c *fiber.Ctx) error {
	result, err := h.service.Consume(c.UserContext(), c.Params("token"))
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= 500 {
			h.logger.Error("impersonation exchange failed", zap.Error(err))
		} else {
			h.logger.Warn("impersonation exchange rejected", zap.String("code", domainErr.Code))
		}
		return c.Redirect(impersonationFailedPath, http.StatusFound)
	}

	c.Cookie(h.cookies.impersonation().Cookie(result.CookieValue))
	return c.Redirect(h.landingPath, http.StatusFound)
}

// Session handles GET /api/auth/impersonate/session.
func (h *ImpersonationHandler) Session(c *fiber.Ctx) error {
	return c.JSON(auth.SessionFromContext(c).Impersonation)
}

// Stop handles POST /api/auth/impersonate/stop.
func (h *ImpersonationHandler) Stop(c *fiber.Ctx) error {
	result, err := h.service.Stop(c.UserContext(), c.Cookies(h.cookies.ImpersonationCookie), auth.RequestMeta(c))
	if err != nil {
		return err
	}

	h.cookies.impersonation().Clear(c)
	return c.JSON(dto.StopResponse{
		Success:         true,
		RedirectURL:     result.RedirectURL,
		SessionDuration: result.SessionDuration,
	})
}
