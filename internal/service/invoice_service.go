package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
)

// PDFURLPrefix is where the REST transport serves stored invoice PDFs.
const PDFURLPrefix = "/api/invoice-pdf/"

var ErrEmptyPDF = errors.New("pdf is empty")

type InvoiceItemRequest struct {
	InventoryID int64   `json:"inventory_id" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type AddInvoiceRequest struct {
	CustomerID int64                `json:"customer_id" validate:"required,gt=0"`
	Date       string               `json:"date" validate:"required,max=64"`
	Total      float64              `json:"total" validate:"required,gt=0"`
	Items      []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UploadPDFRequest struct {
	InvoiceID int64  `json:"invoiceId" validate:"required,gt=0"`
	PDFBase64 string `json:"pdfBase64" validate:"required,base64"`
}

type GetPDFRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type InvoiceService struct {
	invoices repository.InvoiceRepository
	pdfs     repository.PDFRepository
}

func NewInvoiceService(invoices repository.InvoiceRepository, pdfs repository.PDFRepository) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		pdfs:     pdfs,
	}
}

// List returns the billing history newest first, with a link to each
// invoice's latest PDF when one was uploaded.
func (s *InvoiceService) List(ctx context.Context) ([]*domain.BillingRecord, error) {
	records, err := s.invoices.ListBilling(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		rec.HasPDF = rec.PDFID != nil
		if rec.HasPDF {
			url := fmt.Sprintf("%s%d", PDFURLPrefix, *rec.PDFID)
			rec.PDFURL = &url
		}
	}

	return records, nil
}

// Add stores the invoice and takes the sold quantities out of stock.
func (s *InvoiceService) Add(ctx context.Context, req *AddInvoiceRequest) (*IDResult, error) {
	invoice := &domain.Invoice{
		CustomerID: req.CustomerID,
		Date:       req.Date,
		Total:      req.Total,
	}

	items := make([]domain.InvoiceItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.InvoiceItem{
			InventoryID: it.InventoryID,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}

	if err := s.invoices.Create(ctx, invoice, items); err != nil {
		return nil, err
	}

	return &IDResult{ID: invoice.ID}, nil
}

func (s *InvoiceService) UploadPDF(ctx context.Context, req *UploadPDFRequest) (*IDResult, error) {
	blob, err := base64.StdEncoding.DecodeString(req.PDFBase64)
	if err != nil {
		return nil, fmt.Errorf("pdfBase64: %w", err)
	}
	if len(blob) == 0 {
		return nil, ErrEmptyPDF
	}

	pdf := &domain.InvoicePDF{
		InvoiceID: req.InvoiceID,
		Blob:      blob,
	}
	if err := s.pdfs.Create(ctx, pdf); err != nil {
		return nil, err
	}

	return &IDResult{ID: pdf.ID}, nil
}

func (s *InvoiceService) GetPDF(ctx context.Context, req *GetPDFRequest) (*domain.InvoicePDF, error) {
	return s.pdfs.GetByID(ctx, req.ID)
}
