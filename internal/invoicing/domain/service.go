package domain

import (
	"context"
	"errors"
)

// RenderQueue is the work queue render requests travel on.
const RenderQueue = "pdf-generation"

// RenderRequest is the queue wire format: exactly these two string fields,
// serialized as UTF-8 JSON.
type RenderRequest struct {
	CustomerName  string `json:"CustomerName"`
	InvoiceNumber string `json:"InvoiceNumber"`
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrItemNotFound    = errors.New("invoice_item_not_found")
)

// Service owns the entity lifecycle for customers, invoices and items, the
// invoice total reconciliation, and render request dispatch.
type Service interface {
	CreateCustomer(ctx context.Context, customer Customer) (Customer, error)
	// ListCustomers returns all customers ordered by name ascending.
	ListCustomers(ctx context.Context) ([]Customer, error)

	// CreateInvoice generates an invoice number when none is supplied and
	// upserts under (partition = customer name, row = invoice number).
	// Number collisions are not checked; an existing invoice is silently
	// overwritten.
	CreateInvoice(ctx context.Context, invoice Invoice) (Invoice, error)
	// GetInvoice is the O(1) point lookup. Returns ErrInvoiceNotFound when
	// absent.
	GetInvoice(ctx context.Context, customerName, invoiceNumber string) (Invoice, error)
	// GetInvoiceByNumber is the by-number fallback lookup: a full scan on
	// the InvoiceNumber property across all partitions, used when the
	// caller lacks the customer name. O(n) over the invoice table.
	GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (Invoice, error)
	// ListInvoices returns invoices ordered by creation time descending,
	// optionally restricted to one customer partition.
	ListInvoices(ctx context.Context, customerName string) ([]Invoice, error)
	// UpdateInvoice upserts with both keys supplied by the caller; no
	// existence check is made.
	UpdateInvoice(ctx context.Context, invoice Invoice) (Invoice, error)
	DeleteInvoice(ctx context.Context, customerName, invoiceNumber string) error

	// ListInvoiceItems returns items ordered by creation time ascending.
	ListInvoiceItems(ctx context.Context, invoiceNumber string) ([]InvoiceItem, error)
	// AddInvoiceItem recomputes TotalPrice from Quantity x UnitPrice,
	// ignoring any caller-supplied value, then reconciles the invoice
	// total before returning.
	AddInvoiceItem(ctx context.Context, invoiceNumber string, item InvoiceItem) (InvoiceItem, error)
	DeleteInvoiceItem(ctx context.Context, invoiceNumber, itemID string) error

	// EnqueueRender dispatches a render request for a known customer.
	EnqueueRender(ctx context.Context, customerName, invoiceNumber string) error
	// EnqueueRenderByNumber resolves the customer via the by-number
	// fallback first. Returns false without enqueuing when the invoice
	// does not exist.
	EnqueueRenderByNumber(ctx context.Context, invoiceNumber string) (bool, error)
}
