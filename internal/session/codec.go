package session

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/northwind-commerce/storefront-service/internal/domain"
)

var (
	// ErrMalformed marks a cookie that cannot be decoded or fails its signature.
	ErrMalformed = errors.New("malformed impersonation session")
	// ErrExpired marks a correctly signed cookie past its expiry.
	ErrExpired = errors.New("impersonation session expired")
)

// Codec serializes impersonation sessions into signed cookie values.
type Codec struct {
	secret []byte
}

// NewCodec builds a codec signing with the given secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

type sessionClaims struct {
	domain.ImpersonationSession
	jwt.RegisteredClaims
}

// Encode signs the session, valid until expiresAt.
func (c *Codec) Encode(s domain.ImpersonationSession, expiresAt time.Time) (string, error) {
	if !s.Active() {
		return "", errors.New("cannot encode an inactive impersonation session")
	}
	if s.TokenID == "" {
		return "", errors.New("cannot encode an impersonation session without a token id")
	}
	claims := &sessionClaims{
		ImpersonationSession: s,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.TokenID,
			Subject:   s.ImpersonatedCustomer.ID,
			IssuedAt:  jwt.NewNumericDate(*s.ImpersonationStartedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies and unpacks a cookie value. On ErrExpired the decoded
// session is returned alongside the error.
func (c *Codec) Decode(value string, now time.Time) (domain.ImpersonationSession, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return domain.NotImpersonating(), ErrMalformed
	}

	s := claims.ImpersonationSession
	if !s.Active() || claims.ExpiresAt == nil || claims.ID == "" {
		return domain.NotImpersonating(), ErrMalformed
	}
	s.TokenID = claims.ID
	if !now.Before(claims.ExpiresAt.Time) {
		return s, ErrExpired
	}
	return s, nil
}
