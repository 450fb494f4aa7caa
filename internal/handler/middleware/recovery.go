package middleware

import (
	"log"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

// RecoveryMiddleware turns a handler panic into a 500 without leaking the
// panic value to the client.
func RecoveryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[HTTP] PANIC on %s %s: %v\n%s", c.Method(), c.Path(), r, debug.Stack())

				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"status": domain.StatusError,
					"error":  "internal server error",
				})
			}
		}()

		return c.Next()
	}
}
