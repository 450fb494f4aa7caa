package handler

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/socket"
)

type SocketHandler struct {
	gateway *socket.Gateway
}

func NewSocketHandler(gateway *socket.Gateway) *SocketHandler {
	return &SocketHandler{gateway: gateway}
}

// RequireUpgrade rejects plain HTTP requests to the socket route.
func (h *SocketHandler) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve hands each upgraded connection to the gateway. Credentials travel
// inside the message envelopes, so the upgrade itself is unauthenticated.
// GET /ws
func (h *SocketHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.gateway.Serve(context.Background(), conn)
	})
}
