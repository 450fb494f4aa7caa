package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/handler/middleware"
	"github.com/KrishnaRLolage/GoldShopManager/internal/service"
)

// ShopHandler maps the REST resource routes onto dispatcher actions, so both
// transports run the same code for every operation.
type ShopHandler struct {
	dispatcher *service.Dispatcher
}

func NewShopHandler(dispatcher *service.Dispatcher) *ShopHandler {
	return &ShopHandler{dispatcher: dispatcher}
}

// dispatch runs action for the request's principal. On failure it also
// returns the HTTP status the error maps to.
func (h *ShopHandler) dispatch(c *fiber.Ctx, action string, payload json.RawMessage) (any, int, error) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return nil, fiber.StatusUnauthorized, errors.New("invalid or expired token")
	}

	data, err := h.dispatcher.Dispatch(c.UserContext(), principal, action, payload)
	if err != nil {
		return nil, StatusFor(err), err
	}

	return data, fiber.StatusOK, nil
}

func (h *ShopHandler) respondAction(c *fiber.Ctx, action string, payload json.RawMessage) error {
	data, status, err := h.dispatch(c, action, payload)
	if err != nil {
		return respondError(c, status, err.Error())
	}

	return respondSuccess(c, data)
}

func (h *ShopHandler) body(c *fiber.Ctx) json.RawMessage {
	return json.RawMessage(c.Body())
}

func (h *ShopHandler) withPathID(c *fiber.Ctx, action string) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, err := mergeID(c.Body(), id)
	if err != nil {
		return respondError(c, StatusFor(err), err.Error())
	}

	return h.respondAction(c, action, payload)
}

// GET /api/inventory
func (h *ShopHandler) ListInventory(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionGetInventory, nil)
}

// POST /api/inventory
func (h *ShopHandler) AddInventory(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionAddInventory, h.body(c))
}

// PUT /api/inventory/:id
func (h *ShopHandler) UpdateInventory(c *fiber.Ctx) error {
	return h.withPathID(c, service.ActionUpdateInventory)
}

// DELETE /api/inventory/:id
func (h *ShopHandler) DeleteInventory(c *fiber.Ctx) error {
	return h.withPathID(c, service.ActionDeleteInventory)
}

// POST /api/inventory/update-quantity
func (h *ShopHandler) UpdateInventoryQuantity(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionUpdateInventoryQuantity, h.body(c))
}

// GET /api/inventory-names?q=
func (h *ShopHandler) InventoryNames(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionGetInventoryNames, mustJSON(fiber.Map{"query": c.Query("q")}))
}

// GET /api/customers
func (h *ShopHandler) ListCustomers(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionGetCustomers, nil)
}

// PUT /api/customers/:id
func (h *ShopHandler) UpdateCustomer(c *fiber.Ctx) error {
	return h.withPathID(c, service.ActionUpdateCustomer)
}

// POST /api/add-or-get-customer
func (h *ShopHandler) AddOrGetCustomer(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionAddOrGetCustomer, h.body(c))
}

// GET /api/invoices
func (h *ShopHandler) ListInvoices(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionGetInvoices, nil)
}

// POST /api/invoices
func (h *ShopHandler) AddInvoice(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionAddInvoice, h.body(c))
}

// GET /api/gold-settings
func (h *ShopHandler) GetGoldSettings(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionGetGoldSettings, nil)
}

// POST /api/gold-settings
func (h *ShopHandler) UpdateGoldSettings(c *fiber.Ctx) error {
	return h.respondAction(c, service.ActionUpdateGoldSettings, h.body(c))
}
