package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/veriface/punchclock/internal/admin"
	"github.com/veriface/punchclock/internal/domain"
)

// LocalAdminUser is the context key holding the authenticated admin
// username.
const LocalAdminUser = "admin_user"

// TokenValidator parses and checks a bearer token.
type TokenValidator interface {
	Validate(token string) (*admin.Claims, error)
}

// AdminAuth guards admin endpoints behind a JWT from the login
// endpoint.
func AdminAuth(validator TokenValidator, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			logger.Debug("missing authorization header on admin route",
				slog.String("path", c.Path()))
			return domain.ErrUnauthorized
		}

		claims, err := validator.Validate(token)
		if err != nil {
			logger.Warn("rejected admin token",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
			return domain.ErrUnauthorized
		}

		c.Locals(LocalAdminUser, claims.Username)
		return c.Next()
	}
}

// AdminUser retrieves the authenticated admin username from context.
func AdminUser(c *fiber.Ctx) (string, error) {
	username, ok := c.Locals(LocalAdminUser).(string)
	if !ok || username == "" {
		return "", domain.ErrUnauthorized
	}
	return username, nil
}

func extractBearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
