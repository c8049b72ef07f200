// Package pdfgen renders invoices to PDF artifacts off the work queue and
// manages the artifact container.
package pdfgen

import (
	"fmt"
	"strings"
	"time"
)

// Container holds the rendered PDF artifacts in the blob store.
const Container = "invoice-pdfs"

const (
	timestampLayout = "20060102150405"
	pdfSuffix       = ".pdf"

	// unknownInvoice is the placeholder for names that do not parse.
	unknownInvoice = "Unknown"
)

// BlobName builds the artifact name {invoiceNumber}_{yyyyMMddHHmmss}.pdf.
// Timestamp granularity is one second; same-second renders of the same
// invoice collide and the last write wins.
func BlobName(invoiceNumber string, renderedAt time.Time) string {
	return fmt.Sprintf("%s_%s%s", invoiceNumber, renderedAt.UTC().Format(timestampLayout), pdfSuffix)
}

// ExtractInvoiceNumber parses the invoice number out of an artifact name.
// Best effort: malformed names degrade to a placeholder.
func ExtractInvoiceNumber(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) == 0 || parts[0] == "" {
		return unknownInvoice
	}
	return parts[0]
}

// ExtractGeneratedAt parses the render timestamp out of an artifact name.
// Best effort: returns false when the name does not carry one.
func ExtractGeneratedAt(name string) (time.Time, bool) {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(parts[1], pdfSuffix)
	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
