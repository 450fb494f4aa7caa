package handler

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/handler/middleware"
	"github.com/KrishnaRLolage/GoldShopManager/internal/service"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/validator"
)

// CookieSettings describe the cookie carrying the access token.
type CookieSettings struct {
	Name     string
	Secure   bool
	SameSite string
	MaxAge   time.Duration
}

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
	cookie      CookieSettings
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
		cookie:      cookie,
	}
}

// Login verifies credentials and sets the token cookie.
// POST /api/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return respondError(c, fiber.StatusUnauthorized, err.Error())
		}
		log.Printf("[AUTH_HANDLER] Login failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "login failed")
	}

	c.Cookie(h.tokenCookie(resp.Token.Value, h.cookie.MaxAge))

	return respondSuccess(c, fiber.Map{
		"user":  resp.User,
		"token": resp.Token.Value,
	})
}

// Logout clears the cookie and revokes the token when revocation is enabled.
// It never touches socket sessions.
// POST /api/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token := middleware.ExtractToken(c, h.cookie.Name); token != "" {
		if err := h.authService.Logout(c.UserContext(), token); err != nil {
			log.Printf("[AUTH_HANDLER] Revocation failed: %v", err)
		}
	}

	c.Cookie(h.tokenCookie("", -time.Second))

	return respondSuccess(c, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) tokenCookie(value string, maxAge time.Duration) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	}

	if maxAge > 0 {
		cookie.MaxAge = int(maxAge.Seconds())
		cookie.Expires = time.Now().Add(maxAge)
	} else {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}

	return cookie
}
