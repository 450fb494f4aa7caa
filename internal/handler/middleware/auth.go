package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

const (
	localPrincipal = "principal"
	localToken     = "token"
)

// TokenValidator resolves a raw access token to its principal.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.Principal, error)
}

// AuthMiddleware requires a valid access token, read from the session cookie
// first and then from an Authorization: Bearer header.
func AuthMiddleware(validator TokenValidator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ExtractToken(c, cookieName)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": domain.StatusError,
				"error":  "no token provided",
			})
		}

		principal, err := validator.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": domain.StatusError,
				"error":  "invalid or expired token",
			})
		}

		c.Locals(localPrincipal, *principal)
		c.Locals(localToken, token)

		return c.Next()
	}
}

// ExtractToken returns the request's credential or "" when none was sent.
func ExtractToken(c *fiber.Ctx, cookieName string) string {
	if token := c.Cookies(cookieName); token != "" {
		return token
	}

	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	return ""
}

// GetPrincipal returns the principal stored by AuthMiddleware.
func GetPrincipal(c *fiber.Ctx) (domain.Principal, bool) {
	p, ok := c.Locals(localPrincipal).(domain.Principal)
	return p, ok
}

// GetToken returns the raw token stored by AuthMiddleware.
func GetToken(c *fiber.Ctx) string {
	token, _ := c.Locals(localToken).(string)
	return token
}
