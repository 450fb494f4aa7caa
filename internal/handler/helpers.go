package handler

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
	"github.com/KrishnaRLolage/GoldShopManager/internal/service"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/validator"
)

func respondSuccess(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Status: domain.StatusSuccess,
		Data:   data,
	})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(domain.Response{
		Status: domain.StatusError,
		Error:  message,
	})
}

// StatusFor maps a service or dispatch error to an HTTP status code.
func StatusFor(err error) int {
	var validationErr *validator.ValidationError
	switch {
	case errors.Is(err, service.ErrUnknownAction):
		return fiber.StatusNotFound
	case errors.As(err, &validationErr),
		errors.Is(err, service.ErrInvalidPayload),
		errors.Is(err, service.ErrEmptyPDF):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrItemNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// mergeID sets "id" on a JSON object body so path-addressed updates reuse the
// payload shape of the socket action.
func mergeID(body []byte, id int64) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, service.ErrInvalidPayload
		}
	}

	raw, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	fields["id"] = raw

	return json.Marshal(fields)
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
