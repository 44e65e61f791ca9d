package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/northwind-commerce/storefront-service/internal/domain"
	apperrors "github.com/northwind-commerce/storefront-service/pkg/util/errorutil"
)

// RouteClass groups page paths by the access they require.
type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteCustomer
	RouteAdmin
	RouteAuthOnly
)

func (r RouteClass) String() string {
	switch r {
	case RouteCustomer:
		return "customer"
	case RouteAdmin:
		return "admin"
	case RouteAuthOnly:
		return "auth-only"
	default:
		return "public"
	}
}

var (
	adminPrefixes    = []string{"/admin"}
	customerPrefixes = []string{"/account", "/checkout", "/orders"}
	authOnlyPaths    = []string{"/login", "/signup"}
)

// Classify maps a request path to its RouteClass.
func Classify(path string) RouteClass {
	if path == "" {
		path = "/"
	}
	for _, p := range authOnlyPaths {
		if path == p || path == p+"/" {
			return RouteAuthOnly
		}
	}
	for _, p := range adminPrefixes {
		if hasSegmentPrefix(path, p) {
			return RouteAdmin
		}
	}
	for _, p := range customerPrefixes {
		if hasSegmentPrefix(path, p) {
			return RouteCustomer
		}
	}
	return RoutePublic
}

func hasSegmentPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// GuardConfig names the redirect targets used by RouteGuard.
type GuardConfig struct {
	LoginPath    string
	AdminHome    string
	CustomerHome string
}

// DefaultGuardConfig returns the storefront's standard redirect targets.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		LoginPath:    "/login",
		AdminHome:    "/admin/dashboard",
		CustomerHome: "/account",
	}
}

// Decide returns the redirect location for the request URI, or "" to allow
// the request. Routes are classified by path; the query rides along in
// redirectTo.
func (g GuardConfig) Decide(requestURI string, sc *SessionContext) string {
	path, rawQuery := requestURI, ""
	if u, err := url.ParseRequestURI(requestURI); err == nil {
		path, rawQuery = u.Path, u.RawQuery
	}
	class := Classify(path)
	switch class {
	case RouteCustomer, RouteAdmin:
		if !sc.HasSession() {
			return g.LoginPath + "?redirectTo=" + escapeReturnPath(path, rawQuery)
		}
		if class == RouteAdmin && !sc.IsAdmin() && !sc.Impersonating() {
			return g.CustomerHome
		}
	case RouteAuthOnly:
		if sc.HasSession() {
			return g.home(sc)
		}
	}
	return ""
}

func (g GuardConfig) home(sc *SessionContext) string {
	if sc.IsAdmin() && !sc.Impersonating() {
		return g.AdminHome
	}
	return g.CustomerHome
}

func escapeReturnPath(path, rawQuery string) string {
	escaped := (&url.URL{Path: path}).EscapedPath()
	escaped = strings.NewReplacer("&", "%26", "+", "%2B", "=", "%3D").Replace(escaped)
	if rawQuery != "" {
		escaped += "%3F" + url.QueryEscape(rawQuery)
	}
	return escaped
}

// RouteGuard applies the page access rules before handler dispatch.
func RouteGuard(cfg GuardConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if target := cfg.Decide(c.OriginalURL(), SessionFromContext(c)); target != "" {
			return c.Redirect(target, http.StatusFound)
		}
		return c.Next()
	}
}

// Capability describes what a JSON endpoint requires of its caller.
type Capability struct {
	Role domain.Role
}

// Require guards JSON endpoints: 401 without a session, 403 when the
// capability is not met.
func Require(capability Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc := SessionFromContext(c)
		if !sc.HasSession() {
			return apperrors.NewUnauthorized("authentication required")
		}
		switch capability.Role {
		case "":
		case domain.RoleAdmin:
			if sc.Principal == nil {
				return apperrors.NewUnauthorized("authentication required")
			}
			if !sc.IsAdmin() {
				return apperrors.NewForbidden("admin role required")
			}
		default:
			if sc.EffectiveRole() != capability.Role {
				return apperrors.NewForbidden("insufficient role")
			}
		}
		return c.Next()
	}
}
