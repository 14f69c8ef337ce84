package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/amo-catalog/internal/services"
	"github.com/localnerve/amo-catalog/internal/types"
)

// SessionCookie is the cookie browser clients keep their API token in.
const SessionCookie = "amo_session"

const claimsLocal = "claims"

// AuthAdmin validates that the request has admin role authorization
func AuthAdmin(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, secret, []string{services.RoleAdmin}, "catalog.authorization.admin")
	}
}

// AuthUser validates that the request has user role authorization
func AuthUser(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, secret, []string{services.RoleUser}, "catalog.authorization.user")
	}
}

// AuthOptional records the claims of a valid token when one is sent, and lets
// anonymous requests through.
func AuthOptional(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := requestToken(c); token != "" {
			if claims, err := services.ParseToken(secret, token); err == nil {
				c.Locals(claimsLocal, claims)
			}
		}
		return c.Next()
	}
}

// Claims returns the claims stored by the auth middleware, or nil.
func Claims(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(claimsLocal).(*services.Claims)
	return claims
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, secret string, roles []string, errorType string) error {
	token := requestToken(c)
	if token == "" {
		return types.NewCustomError(fiber.StatusUnauthorized, errorType,
			"Bearer token or cookie %q not found", SessionCookie)
	}

	claims, err := services.ParseToken(secret, token)
	if err != nil {
		return types.NewCustomError(fiber.StatusForbidden, errorType, "Invalid session: %v", err)
	}
	if !claims.HasRole(roles...) {
		return types.NewCustomError(fiber.StatusForbidden, errorType, "Role %q is not allowed", claims.Role)
	}

	c.Locals(claimsLocal, claims)
	return c.Next()
}

// requestToken reads the Authorization bearer token, falling back to the
// session cookie.
func requestToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return c.Cookies(SessionCookie)
}
