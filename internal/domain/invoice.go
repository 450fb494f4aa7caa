package domain

import "time"

type Invoice struct {
	ID         int64   `json:"id" db:"id"`
	CustomerID int64   `json:"customer_id" db:"customer_id"`
	Date       string  `json:"date" db:"date"`
	Total      float64 `json:"total" db:"total"`
}

type InvoiceItem struct {
	ID          int64   `json:"id" db:"id"`
	InvoiceID   int64   `json:"invoice_id" db:"invoice_id"`
	InventoryID int64   `json:"inventory_id" db:"inventory_id"`
	Quantity    int     `json:"quantity" db:"quantity"`
	Price       float64 `json:"price" db:"price"`
}

// BillingRecord is one row of the billing history screen: an invoice joined
// with its customer and the most recent PDF linked to it.
type BillingRecord struct {
	ID              int64   `json:"id" db:"id"`
	Date            string  `json:"date" db:"date"`
	Total           float64 `json:"total" db:"total"`
	CustomerName    *string `json:"customer_name" db:"customer_name"`
	CustomerAddress *string `json:"customer_address" db:"customer_address"`
	CustomerContact *string `json:"customer_contact" db:"customer_contact"`
	PDFID           *int64  `json:"pdf_id" db:"pdf_id"`
	HasPDF          bool    `json:"has_pdf" db:"-"`
	PDFURL          *string `json:"pdf_url" db:"-"`
}

type InvoicePDF struct {
	ID        int64     `json:"id" db:"id"`
	InvoiceID int64     `json:"invoice_id" db:"invoice_id"`
	Blob      []byte    `json:"pdf_base64" db:"pdf_blob"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
