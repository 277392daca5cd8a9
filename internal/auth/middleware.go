package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/devbyzero/flowlens-gateway/pkg/errorutil"
)

// OperatorMiddleware guards debug routes with a bearer operator token.
// Validation is purely cryptographic; no store lookups happen per request.
func OperatorMiddleware(manager *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return errorutil.NewUnauthorized("missing authorization header")
		}
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			return errorutil.NewUnauthorized("malformed authorization header")
		}

		claims, err := manager.Validate(tokenString)
		if err != nil {
			return errorutil.NewUnauthorized("invalid or expired token")
		}
		if claims.Role != "operator" {
			return errorutil.NewForbidden("operator role required")
		}

		c.Locals("operator", claims.Subject)
		return c.Next()
	}
}
