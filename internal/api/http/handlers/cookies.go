package handlers

import (
	"time"

	"github.com/northwind-commerce/storefront-service/internal/session"
)

// CookieSettings names the cookies handlers write.
type CookieSettings struct {
	AuthCookie          string
	AuthMaxAge          time.Duration
	ImpersonationCookie string
	SessionMaxAge       time.Duration
	Secure              bool
}

func (s CookieSettings) auth() session.CookieOptions {
	return session.CookieOptions{Name: s.AuthCookie, MaxAge: s.AuthMaxAge, Secure: s.Secure}
}

func (s CookieSettings) impersonation() session.CookieOptions {
	return session.CookieOptions{Name: s.ImpersonationCookie, MaxAge: s.SessionMaxAge, Secure: s.Secure}
}
