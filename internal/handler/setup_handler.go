package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/service"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/validator"
)

type SetupHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewSetupHandler(authService *service.AuthService, validator *validator.Validator) *SetupHandler {
	return &SetupHandler{
		authService: authService,
		validator:   validator,
	}
}

// CreateAdmin creates the first admin user. It only works while the user
// table is empty.
// POST /api/setup
func (h *SetupHandler) CreateAdmin(c *fiber.Ctx) error {
	var req service.SetupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	principal, err := h.authService.Setup(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, service.ErrSetupCompleted) {
			return respondError(c, fiber.StatusForbidden, err.Error())
		}
		log.Printf("[SETUP] Failed to create admin: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "failed to create admin user")
	}

	return c.Status(fiber.StatusCreated).JSON(domain.Response{
		Status: domain.StatusSuccess,
		Data:   fiber.Map{"user": principal},
	})
}
