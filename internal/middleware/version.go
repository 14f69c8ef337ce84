package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/amo-catalog/internal/types"
)

// APIVersion is the version served when the client does not ask for one.
const APIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header and stores it in context
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", APIVersion)

		// Support version aliases
		switch version {
		case "1", "1.0":
			version = APIVersion
		}

		if !strings.HasPrefix(version, "1.") {
			return types.NewCustomError(fiber.StatusBadRequest, "version",
				"Unsupported API version %q", version)
		}

		// Store version in context
		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", version)

		return c.Next()
	}
}
