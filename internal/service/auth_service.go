package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/northwind-commerce/storefront-service/internal/auth"
	"github.com/northwind-commerce/storefront-service/internal/config"
	"github.com/northwind-commerce/storefront-service/internal/domain"
	"github.com/northwind-commerce/storefront-service/internal/repository"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

// SignupInput carries a new customer's account details.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is the outcome of a successful login or signup.
type AuthResult struct {
	Profile   *domain.Profile
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates signup and login flows.
type AuthService struct {
	profiles   repository.ProfileRepository
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	ProfileRepo repository.ProfileRepository
	AccountRepo repository.AccountRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		profiles:   deps.ProfileRepo,
		accounts:   deps.AccountRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Signup creates a customer profile with its customer record.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	profile := &domain.Profile{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	customer := &domain.Customer{
		ID:        "cust_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.accounts.CreateCustomerAccount(ctx, profile, customer); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return s.issue(profile)
}

// Login authenticates a profile by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	profile, err := s.profiles.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(profile.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(profile)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(profile *domain.Profile) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(profile)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{Profile: profile, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
