package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieOptions describes how the session carrier cookie is written.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Cookie builds the carrier cookie for value.
func (o CookieOptions) Cookie(value string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(o.MaxAge / time.Second),
		HTTPOnly: true,
		Secure:   o.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// Clear writes an expired, empty cookie so the browser drops it.
func (o CookieOptions) Clear(c *fiber.Ctx) {
	c.Cookie(ClearCookie(o.Name, o.Secure))
}

// ClearCookie builds an already-expired cookie named name.
func ClearCookie(name string, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
