package repository

import (
	"context"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

type InvoiceRepository interface {
	// Create stores the invoice and its items and takes each item's quantity
	// out of inventory, all or nothing.
	Create(ctx context.Context, invoice *domain.Invoice, items []domain.InvoiceItem) error
	ListBilling(ctx context.Context) ([]*domain.BillingRecord, error)
}

type PDFRepository interface {
	Create(ctx context.Context, pdf *domain.InvoicePDF) error
	GetByID(ctx context.Context, id int64) (*domain.InvoicePDF, error)
}

type GoldSettingsRepository interface {
	Latest(ctx context.Context) (*domain.GoldSettings, error)
	Create(ctx context.Context, settings *domain.GoldSettings) error
}
