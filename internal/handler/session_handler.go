package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/handler/middleware"
)

// Session returns the principal decoded from the request's token. It runs
// behind AuthMiddleware, which already answered 401 for a bad credential.
// GET /api/session
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	return respondSuccess(c, fiber.Map{"user": principal})
}
