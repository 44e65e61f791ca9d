package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/northwind-commerce/storefront-service/internal/api/dto"
	"github.com/northwind-commerce/storefront-service/internal/auth"
	"github.com/northwind-commerce/storefront-service/internal/service"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

// AuthHandler exposes login, signup and logout.
type AuthHandler struct {
	auth          *service.AuthService
	impersonation *service.ImpersonationService
	cookies       CookieSettings
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, impersonation *service.ImpersonationService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{auth: authService, impersonation: impersonation, cookies: cookies}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	c.Cookie(h.cookies.auth().Cookie(result.Token))
	return c.Status(http.StatusCreated).JSON(authResponse(result))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(h.cookies.auth().Cookie(result.Token))
	return c.JSON(authResponse(result))
}

// Logout handles POST /api/auth/logout; it also ends any impersonation overlay.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if raw := c.Cookies(h.cookies.ImpersonationCookie); raw != "" {
		if _, err := h.impersonation.Stop(c.UserContext(), raw, auth.RequestMeta(c)); err != nil && !errors.Is(err, service.ErrNoActiveSession) {
			return err
		}
	}
	h.cookies.auth().Clear(c)
	h.cookies.impersonation().Clear(c)
	return c.JSON(fiber.Map{"success": true})
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Success: true,
		User: dto.ProfileResponse{
			ID:        result.Profile.ID,
			Email:     result.Profile.Email,
			Role:      string(result.Profile.Role),
			FirstName: result.Profile.FirstName,
			LastName:  result.Profile.LastName,
		},
		ExpiresAt: result.ExpiresAt,
	}
}
