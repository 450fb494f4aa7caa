package handler

import (
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth   *AuthHandler
	Setup  *SetupHandler
	Shop   *ShopHandler
	Health *HealthHandler
	Socket *SocketHandler
}

func SetupRoutes(app *fiber.App, h Handlers, authMiddleware fiber.Handler) {
	// Health checks (public)
	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)

	// Message transport
	app.Get("/ws", h.Socket.RequireUpgrade, h.Socket.Serve())

	api := app.Group("/api")

	// Public
	api.Post("/login", h.Auth.Login)
	api.Post("/logout", h.Auth.Logout)
	api.Post("/setup", h.Setup.CreateAdmin)

	// Everything below requires a valid token
	protected := api.Group("", authMiddleware)
	protected.Get("/session", h.Auth.Session)

	protected.Get("/gold-settings", h.Shop.GetGoldSettings)
	protected.Post("/gold-settings", h.Shop.UpdateGoldSettings)

	protected.Get("/inventory", h.Shop.ListInventory)
	protected.Post("/inventory", h.Shop.AddInventory)
	protected.Post("/inventory/update-quantity", h.Shop.UpdateInventoryQuantity)
	protected.Put("/inventory/:id", h.Shop.UpdateInventory)
	protected.Delete("/inventory/:id", h.Shop.DeleteInventory)
	protected.Get("/inventory-names", h.Shop.InventoryNames)

	protected.Get("/customers", h.Shop.ListCustomers)
	protected.Put("/customers/:id", h.Shop.UpdateCustomer)
	protected.Post("/add-or-get-customer", h.Shop.AddOrGetCustomer)

	protected.Get("/invoices", h.Shop.ListInvoices)
	protected.Post("/invoices", h.Shop.AddInvoice)
	protected.Get("/invoice-pdf/:id", h.Shop.GetInvoicePDF)
	protected.Post("/upload-invoice-pdf", h.Shop.UploadInvoicePDF)
}

// ErrorHandler renders errors that escaped a handler in the normalized shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
		message = fe.Message
	}
	return respondError(c, code, message)
}
