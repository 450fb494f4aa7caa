package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/validator"
)

// Actions understood by the dispatcher. Both transports use these names.
const (
	ActionGetInventory            = "getInventory"
	ActionAddInventory            = "addInventory"
	ActionUpdateInventory         = "updateInventory"
	ActionDeleteInventory         = "deleteInventory"
	ActionUpdateInventoryQuantity = "updateInventoryQuantity"
	ActionGetInventoryNames       = "getInventoryNames"
	ActionGetCustomers            = "getCustomers"
	ActionUpdateCustomer          = "updateCustomer"
	ActionAddOrGetCustomer        = "addOrGetCustomer"
	ActionGetInvoices             = "getInvoices"
	ActionAddInvoice              = "addInvoice"
	ActionGetGoldSettings         = "getGoldSettings"
	ActionUpdateGoldSettings      = "updateGoldSettings"
	ActionUploadInvoicePDF        = "uploadInvoicePDF"
	ActionGetInvoicePDF           = "getInvoicePDF"
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")
)

// DispatchError wraps any failure of a known action. Its message is what
// the caller sees.
type DispatchError struct {
	Action string
	Err    error
}

func (e *DispatchError) Error() string {
	return e.Err.Error()
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

type actionHandler func(ctx context.Context, payload json.RawMessage) (any, error)

// Services are the domain operations the dispatcher routes to.
type Services struct {
	Inventory    *InventoryService
	Customers    *CustomerService
	Invoices     *InvoiceService
	GoldSettings *GoldSettingsService
}

type Dispatcher struct {
	handlers  map[string]actionHandler
	policy    Policy
	validator *validator.Validator
}

// NewDispatcher builds the action table. A nil policy allows every
// authenticated principal.
func NewDispatcher(svc Services, v *validator.Validator, policy Policy) *Dispatcher {
	if policy == nil {
		policy = AllowAuthenticated
	}

	d := &Dispatcher{
		policy:    policy,
		validator: v,
	}

	d.handlers = map[string]actionHandler{
		ActionGetInventory:            noPayload(svc.Inventory.List),
		ActionAddInventory:            withPayload(d, svc.Inventory.Add),
		ActionUpdateInventory:         withPayload(d, svc.Inventory.Update),
		ActionDeleteInventory:         withPayload(d, svc.Inventory.Delete),
		ActionUpdateInventoryQuantity: withPayload(d, svc.Inventory.AdjustQuantity),
		ActionGetInventoryNames:       withPayload(d, svc.Inventory.SearchNames),
		ActionGetCustomers:            noPayload(svc.Customers.List),
		ActionUpdateCustomer:          withPayload(d, svc.Customers.Update),
		ActionAddOrGetCustomer:        withPayload(d, svc.Customers.AddOrGet),
		ActionGetInvoices:             noPayload(svc.Invoices.List),
		ActionAddInvoice:              withPayload(d, svc.Invoices.Add),
		ActionGetGoldSettings:         noPayload(svc.GoldSettings.Latest),
		ActionUpdateGoldSettings:      withPayload(d, svc.GoldSettings.Update),
		ActionUploadInvoicePDF:        withPayload(d, svc.Invoices.UploadPDF),
		ActionGetInvoicePDF:           withPayload(d, svc.Invoices.GetPDF),
	}

	return d
}

// Known reports whether action is in the table.
func (d *Dispatcher) Known(action string) bool {
	_, ok := d.handlers[action]
	return ok
}

// Actions lists the table in sorted order.
func (d *Dispatcher) Actions() []string {
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs action for principal. Unknown names fail with
// ErrUnknownAction; every other failure is a *DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, principal domain.Principal, action string, payload json.RawMessage) (any, error) {
	handler, ok := d.handlers[action]
	if !ok {
		return nil, ErrUnknownAction
	}

	if err := d.policy(principal, action); err != nil {
		return nil, &DispatchError{Action: action, Err: err}
	}

	data, err := handler(ctx, payload)
	if err != nil {
		log.Printf("[DISPATCH] %s by %s failed: %v", action, principal.Username, err)
		return nil, &DispatchError{Action: action, Err: err}
	}

	return data, nil
}

func noPayload[T any](fn func(ctx context.Context) (T, error)) actionHandler {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return fn(ctx)
	}
}

func withPayload[Req, T any](d *Dispatcher, fn func(ctx context.Context, req *Req) (T, error)) actionHandler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		req := new(Req)
		if err := decodePayload(payload, req); err != nil {
			return nil, err
		}
		if err := d.validator.Validate(req); err != nil {
			return nil, err
		}
		return fn(ctx, req)
	}
}

func decodePayload(payload json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
