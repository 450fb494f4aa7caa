package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
)

type invoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository creates a new PostgreSQL invoice repository
func NewInvoiceRepository(db *sqlx.DB) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Create inserts the invoice and its items and decrements stock in one transaction
func (r *invoiceRepository) Create(ctx context.Context, invoice *domain.Invoice, items []domain.InvoiceItem) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin invoice transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("[REPO] Invoice rollback failed: %v", rbErr)
			}
		}
	}()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO invoices (customer_id, date, total) VALUES ($1, $2, $3) RETURNING id`,
		invoice.CustomerID, invoice.Date, invoice.Total,
	).Scan(&invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoice_items (invoice_id, inventory_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			invoice.ID, item.InventoryID, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to create invoice item: %w", err)
		}

		var result sql.Result
		result, err = tx.ExecContext(ctx,
			`UPDATE inventory
			 SET quantity = quantity - $1,
			     total_weight = (quantity - $1) * weight_per_piece
			 WHERE id = $2`,
			item.Quantity, item.InventoryID,
		)
		if err != nil {
			return fmt.Errorf("failed to update inventory quantity: %w", err)
		}

		var rows int64
		if rows, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			err = fmt.Errorf("inventory item %d: %w", item.InventoryID, repository.ErrNotFound)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}

	return nil
}

func (r *invoiceRepository) ListBilling(ctx context.Context) ([]*domain.BillingRecord, error) {
	query := `
		SELECT i.id, i.date, i.total,
			   c.name AS customer_name,
			   c.address AS customer_address,
			   c.phone AS customer_contact,
			   (SELECT p.id FROM invoice_pdfs p
			    WHERE p.invoice_id = i.id
			    ORDER BY p.created_at DESC, p.id DESC
			    LIMIT 1) AS pdf_id
		FROM invoices i
		LEFT JOIN customers c ON i.customer_id = c.id
		ORDER BY i.id DESC`

	records := []*domain.BillingRecord{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	return records, nil
}

type pdfRepository struct {
	db *sqlx.DB
}

// NewPDFRepository creates a new PostgreSQL invoice PDF repository
func NewPDFRepository(db *sqlx.DB) repository.PDFRepository {
	return &pdfRepository{db: db}
}

func (r *pdfRepository) Create(ctx context.Context, pdf *domain.InvoicePDF) error {
	query := `
		INSERT INTO invoice_pdfs (invoice_id, pdf_blob)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, pdf.InvoiceID, pdf.Blob).Scan(&pdf.ID, &pdf.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store invoice pdf: %w", err)
	}

	return nil
}

func (r *pdfRepository) GetByID(ctx context.Context, id int64) (*domain.InvoicePDF, error) {
	var pdf domain.InvoicePDF
	err := r.db.GetContext(ctx, &pdf, `SELECT id, invoice_id, pdf_blob, created_at FROM invoice_pdfs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice pdf %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice pdf: %w", err)
	}

	return &pdf, nil
}

type goldSettingsRepository struct {
	db *sqlx.DB
}

// NewGoldSettingsRepository creates a new PostgreSQL gold settings repository
func NewGoldSettingsRepository(db *sqlx.DB) repository.GoldSettingsRepository {
	return &goldSettingsRepository{db: db}
}

func (r *goldSettingsRepository) Latest(ctx context.Context) (*domain.GoldSettings, error) {
	query := `
		SELECT id, gold_rate, gst_rate, making_charge_per_gram, updated_at
		FROM gold_settings
		ORDER BY id DESC
		LIMIT 1`

	var settings domain.GoldSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("gold settings: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get gold settings: %w", err)
	}

	return &settings, nil
}

func (r *goldSettingsRepository) Create(ctx context.Context, settings *domain.GoldSettings) error {
	query := `
		INSERT INTO gold_settings (gold_rate, gst_rate, making_charge_per_gram)
		VALUES ($1, $2, $3)
		RETURNING id, updated_at`

	err := r.db.QueryRowxContext(ctx, query, settings.GoldRate, settings.GSTRate, settings.MakingChargePerGram).
		Scan(&settings.ID, &settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update gold settings: %w", err)
	}

	return nil
}
