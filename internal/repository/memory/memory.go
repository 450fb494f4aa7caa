// Package memory implements the repositories in process memory. It backs
// STORAGE_DRIVER=memory for local runs and the package tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
)

// Store is the shared backing state. Each repository type is a view on it so
// cross-entity writes (invoices touching inventory) share one lock.
type Store struct {
	mu        sync.RWMutex
	seq       map[string]int64
	users     map[int64]*domain.User
	inventory map[int64]*domain.InventoryItem
	customers map[int64]*domain.Customer
	invoices  map[int64]*domain.Invoice
	items     []domain.InvoiceItem
	pdfs      map[int64]*domain.InvoicePDF
	gold      []*domain.GoldSettings
}

func NewStore() *Store {
	s := &Store{
		seq:       make(map[string]int64),
		users:     make(map[int64]*domain.User),
		inventory: make(map[int64]*domain.InventoryItem),
		customers: make(map[int64]*domain.Customer),
		invoices:  make(map[int64]*domain.Invoice),
		pdfs:      make(map[int64]*domain.InvoicePDF),
	}
	s.gold = append(s.gold, &domain.GoldSettings{
		ID:                  s.next("gold"),
		GoldRate:            9000,
		GSTRate:             3,
		MakingChargePerGram: 500,
		UpdatedAt:           time.Now().UTC(),
	})
	return s
}

func (s *Store) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) Users() *UserRepository { return &UserRepository{s} }
func (s *Store) Inventory() *InventoryRepository { return &InventoryRepository{s} }
func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{s} }
func (s *Store) Invoices() *InvoiceRepository { return &InvoiceRepository{s} }
func (s *Store) PDFs() *PDFRepository { return &PDFRepository{s} }
func (s *Store) GoldSettings() *GoldSettingsRepository { return &GoldSettingsRepository{s} }

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, repository.ErrNotFound)
}

type UserRepository struct{ s *Store }

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.createLocked(user)
}

func (r *UserRepository) CreateFirst(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.users) > 0 {
		return repository.ErrUsersExist
	}
	return r.createLocked(user)
}

func (r *UserRepository) createLocked(user *domain.User) error {
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return fmt.Errorf("failed to create user: username %q already exists", user.Username)
		}
	}
	user.ID = r.s.next("users")
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("user", username)
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

type InventoryRepository struct{ s *Store }

var _ repository.InventoryRepository = (*InventoryRepository)(nil)

func (r *InventoryRepository) List(ctx context.Context) ([]*domain.InventoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.InventoryItem, 0, len(r.s.inventory))
	for _, item := range r.s.inventory {
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item.ID = r.s.next("inventory")
	cp := *item
	r.s.inventory[item.ID] = &cp
	return nil
}

func (r *InventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.inventory[item.ID]; !ok {
		return notFound("inventory item", item.ID)
	}
	cp := *item
	r.s.inventory[item.ID] = &cp
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.inventory[id]; !ok {
		return 0, nil
	}
	delete(r.s.inventory, id)
	return 1, nil
}

func (r *InventoryRepository) FindByNameAndWeight(ctx context.Context, name string, weightPerPiece float64) (*domain.InventoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, item := range r.s.inventory {
		if item.ItemName == name && item.WeightPerPiece == weightPerPiece {
			cp := *item
			return &cp, nil
		}
	}
	return nil, notFound("inventory item", name)
}

func (r *InventoryRepository) SetQuantity(ctx context.Context, id int64, quantity int, totalWeight float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.inventory[id]
	if !ok {
		return notFound("inventory item", id)
	}
	item.Quantity = quantity
	item.TotalWeight = totalWeight
	return nil
}

func (r *InventoryRepository) SearchNames(ctx context.Context, query string, limit int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]bool)
	names := []string{}
	q := strings.ToLower(query)
	for _, item := range r.s.inventory {
		if seen[item.ItemName] || !strings.Contains(strings.ToLower(item.ItemName), q) {
			continue
		}
		seen[item.ItemName] = true
		names = append(names, item.ItemName)
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

type CustomerRepository struct{ s *Store }

var _ repository.CustomerRepository = (*CustomerRepository)(nil)

func (r *CustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	customer.ID = r.s.next("customers")
	cp := *customer
	r.s.customers[customer.ID] = &cp
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[customer.ID]; !ok {
		return notFound("customer", customer.ID)
	}
	cp := *customer
	r.s.customers[customer.ID] = &cp
	return nil
}

func (r *CustomerRepository) FindByNameAndContact(ctx context.Context, name, phone, address string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.customers {
		if c.Name == name && (c.Phone == phone || c.Address == address) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, notFound("customer", name)
}

type InvoiceRepository struct{ s *Store }

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice, items []domain.InvoiceItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, it := range items {
		if _, ok := r.s.inventory[it.InventoryID]; !ok {
			return notFound("inventory item", it.InventoryID)
		}
	}

	invoice.ID = r.s.next("invoices")
	cp := *invoice
	r.s.invoices[invoice.ID] = &cp

	for _, it := range items {
		it.ID = r.s.next("invoice_items")
		it.InvoiceID = invoice.ID
		r.s.items = append(r.s.items, it)

		stock := r.s.inventory[it.InventoryID]
		stock.Quantity -= it.Quantity
		stock.RecomputeWeight()
	}
	return nil
}

func (r *InvoiceRepository) ListBilling(ctx context.Context) ([]*domain.BillingRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	latest := make(map[int64]*domain.InvoicePDF)
	for _, p := range r.s.pdfs {
		if cur, ok := latest[p.InvoiceID]; !ok || p.CreatedAt.After(cur.CreatedAt) ||
			(p.CreatedAt.Equal(cur.CreatedAt) && p.ID > cur.ID) {
			latest[p.InvoiceID] = p
		}
	}

	out := make([]*domain.BillingRecord, 0, len(r.s.invoices))
	for _, inv := range r.s.invoices {
		rec := &domain.BillingRecord{ID: inv.ID, Date: inv.Date, Total: inv.Total}
		if c, ok := r.s.customers[inv.CustomerID]; ok {
			name, addr, phone := c.Name, c.Address, c.Phone
			rec.CustomerName, rec.CustomerAddress, rec.CustomerContact = &name, &addr, &phone
		}
		if p, ok := latest[inv.ID]; ok {
			id := p.ID
			rec.PDFID = &id
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type PDFRepository struct{ s *Store }

var _ repository.PDFRepository = (*PDFRepository)(nil)

func (r *PDFRepository) Create(ctx context.Context, pdf *domain.InvoicePDF) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[pdf.InvoiceID]; !ok {
		return notFound("invoice", pdf.InvoiceID)
	}
	pdf.ID = r.s.next("invoice_pdfs")
	if pdf.CreatedAt.IsZero() {
		pdf.CreatedAt = time.Now().UTC()
	}
	cp := *pdf
	cp.Blob = append([]byte(nil), pdf.Blob...)
	r.s.pdfs[pdf.ID] = &cp
	return nil
}

func (r *PDFRepository) GetByID(ctx context.Context, id int64) (*domain.InvoicePDF, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.pdfs[id]
	if !ok {
		return nil, notFound("invoice pdf", id)
	}
	cp := *p
	return &cp, nil
}

type GoldSettingsRepository struct{ s *Store }

var _ repository.GoldSettingsRepository = (*GoldSettingsRepository)(nil)

func (r *GoldSettingsRepository) Latest(ctx context.Context) (*domain.GoldSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if len(r.s.gold) == 0 {
		return nil, notFound("gold settings", "latest")
	}
	cp := *r.s.gold[len(r.s.gold)-1]
	return &cp, nil
}

func (r *GoldSettingsRepository) Create(ctx context.Context, settings *domain.GoldSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	settings.ID = r.s.next("gold")
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now().UTC()
	}
	cp := *settings
	r.s.gold = append(r.s.gold, &cp)
	return nil
}
