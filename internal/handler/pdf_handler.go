package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/service"
)

type uploadJSONBody struct {
	InvoiceID json.Number `json:"invoice_id"`
	PDFBase64 string      `json:"pdf_base64"`
}

// GetInvoicePDF streams a stored PDF.
// GET /api/invoice-pdf/:id
func (h *ShopHandler) GetInvoicePDF(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	data, status, err := h.dispatch(c, service.ActionGetInvoicePDF, mustJSON(fiber.Map{"id": id}))
	if err != nil {
		if status == fiber.StatusNotFound {
			return respondError(c, status, "PDF not found")
		}
		return respondError(c, status, err.Error())
	}

	pdf := data.(*domain.InvoicePDF)
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="invoice_%d.pdf"`, pdf.InvoiceID))

	return c.Status(fiber.StatusOK).Send(pdf.Blob)
}

// UploadInvoicePDF accepts a multipart form (pdf file + invoice_id), a raw
// application/pdf body with X-Invoice-Id, or JSON {invoice_id, pdf_base64}.
// POST /api/upload-invoice-pdf
func (h *ShopHandler) UploadInvoicePDF(c *fiber.Ctx) error {
	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))

	var (
		invoiceID string
		encoded   string
	)

	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		invoiceID = c.FormValue("invoice_id")
		file, err := c.FormFile("pdf")
		if err != nil || invoiceID == "" {
			return respondError(c, fiber.StatusBadRequest, "missing invoice_id or PDF file")
		}

		f, err := file.Open()
		if err != nil {
			return respondError(c, fiber.StatusInternalServerError, "failed to read PDF file")
		}
		defer f.Close()

		blob, err := io.ReadAll(f)
		if err != nil {
			return respondError(c, fiber.StatusInternalServerError, "failed to read PDF file")
		}
		encoded = base64.StdEncoding.EncodeToString(blob)

	case strings.HasPrefix(contentType, "application/pdf"):
		invoiceID = c.Get("X-Invoice-Id")
		if invoiceID == "" {
			invoiceID = c.Query("invoice_id")
		}
		if invoiceID == "" {
			return respondError(c, fiber.StatusBadRequest, "missing invoice_id")
		}
		encoded = base64.StdEncoding.EncodeToString(c.Body())

	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		var body uploadJSONBody
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return respondError(c, fiber.StatusBadRequest, "invalid request body")
		}
		if body.InvoiceID == "" || body.PDFBase64 == "" {
			return respondError(c, fiber.StatusBadRequest, "missing invoice_id or pdf_base64")
		}
		invoiceID, encoded = body.InvoiceID.String(), body.PDFBase64

	default:
		return respondError(c, fiber.StatusUnsupportedMediaType, "unsupported content type")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(invoiceID), 10, 64)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid invoice_id")
	}

	return h.respondAction(c, service.ActionUploadInvoicePDF, mustJSON(service.UploadPDFRequest{
		InvoiceID: id,
		PDFBase64: encoded,
	}))
}
