// Package domain contains the invoicing entities and service contract.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/store"
)

// Entity tables and the fixed customer partition.
const (
	CustomerTable    = "customers"
	InvoiceTable     = "invoices"
	InvoiceItemTable = "invoiceitems"

	// CustomerPartition groups every customer under one constant partition.
	CustomerPartition = "Customer"
)

// InvoiceStatus is an enumerated status. Assignment is deliberately
// unconstrained: any status may overwrite any other, there is no transition
// machine.
type InvoiceStatus string

const (
	StatusDraft   InvoiceStatus = "Draft"
	StatusSent    InvoiceStatus = "Sent"
	StatusPaid    InvoiceStatus = "Paid"
	StatusOverdue InvoiceStatus = "Overdue"
)

// Customer is stored under (partition = CustomerPartition, row = ID).
type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	Country    string    `json:"country,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Extra holds schema-less attributes round-tripped through the store.
	Extra map[string]store.Value `json:"extra,omitempty"`
}

// Invoice is stored under (partition = CustomerKey, row = InvoiceNumber).
//
// CustomerKey is the customer name at creation time and is never revised,
// even if CustomerName is later edited; partition-keyed lookup becomes
// unreliable after such a rename and callers fall back to the by-number
// scan. The customer name/email/address fields are a point-in-time snapshot
// and are not re-synced on customer edits.
type Invoice struct {
	CustomerKey     string          `json:"customer_key"`
	InvoiceNumber   string          `json:"invoice_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	CustomerAddress string          `json:"customer_address,omitempty"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	DueDate         time.Time       `json:"due_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          InvoiceStatus   `json:"status"`
	Description     string          `json:"description,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Extra map[string]store.Value `json:"extra,omitempty"`
}

// InvoiceItem is stored under (partition = invoice number, row = ID).
// TotalPrice is computed as Quantity x UnitPrice at write time and not
// re-derived on read.
type InvoiceItem struct {
	InvoiceNumber string          `json:"invoice_number"`
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedAt     time.Time       `json:"created_at"`

	Extra map[string]store.Value `json:"extra,omitempty"`
}
