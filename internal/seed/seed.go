// Package seed loads a small development data set through the invoicing
// service, exercising item reconciliation along the way.
package seed

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/invoicing/domain"
	"go.uber.org/zap"
)

type Seeder struct {
	svc domain.Service
	log *zap.Logger
}

func New(svc domain.Service, log *zap.Logger) *Seeder {
	return &Seeder{
		svc: svc,
		log: log.Named("seed"),
	}
}

// Result summarizes what a seeding run created.
type Result struct {
	Customers int `json:"customers"`
	Invoices  int `json:"invoices"`
	Items     int `json:"items"`
}

type seedInvoice struct {
	invoice domain.Invoice
	items   []domain.InvoiceItem
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

var customers = []domain.Customer{
	{
		Name:       "John Doe",
		Email:      "john@example.com",
		Phone:      "+1234567890",
		Address:    "123 Main St, New York, NY 10001",
		City:       "New York",
		PostalCode: "10001",
		Country:    "USA",
	},
	{
		Name:       "Jane Smith",
		Email:      "jane@example.com",
		Phone:      "+1987654321",
		Address:    "456 Oak Ave, Los Angeles, CA 90210",
		City:       "Los Angeles",
		PostalCode: "90210",
		Country:    "USA",
	},
	{
		Name:       "Bob Johnson",
		Email:      "bob@example.com",
		Phone:      "+1555123456",
		Address:    "789 Pine Rd, Chicago, IL 60601",
		City:       "Chicago",
		PostalCode: "60601",
		Country:    "USA",
	},
}

var invoices = []seedInvoice{
	{
		invoice: domain.Invoice{
			InvoiceNumber:   "INV-001",
			CustomerName:    "John Doe",
			CustomerEmail:   "john@example.com",
			CustomerAddress: "123 Main St, New York, NY 10001",
			Description:     "Web Development Services",
			Status:          domain.StatusSent,
		},
		items: []domain.InvoiceItem{
			{Description: "Frontend Development", Quantity: 80, UnitPrice: price("25.00")},
			{Description: "Backend API Development", Quantity: 20, UnitPrice: price("25.00")},
		},
	},
	{
		invoice: domain.Invoice{
			InvoiceNumber:   "INV-002",
			CustomerName:    "Jane Smith",
			CustomerEmail:   "jane@example.com",
			CustomerAddress: "456 Oak Ave, Los Angeles, CA 90210",
			Description:     "Mobile App Development",
			Status:          domain.StatusDraft,
		},
		items: []domain.InvoiceItem{
			{Description: "iOS App Development", Quantity: 60, UnitPrice: price("40.00")},
			{Description: "Android App Development", Quantity: 60, UnitPrice: price("40.00")},
		},
	},
	{
		invoice: domain.Invoice{
			InvoiceNumber:   "INV-003",
			CustomerName:    "Bob Johnson",
			CustomerEmail:   "bob@example.com",
			CustomerAddress: "789 Pine Rd, Chicago, IL 60601",
			Description:     "Consulting Services",
			Status:          domain.StatusPaid,
		},
		items: []domain.InvoiceItem{
			{Description: "Architecture Consultation", Quantity: 12, UnitPrice: price("100.00")},
			{Description: "Code Review Sessions", Quantity: 6, UnitPrice: price("100.00")},
		},
	},
	{
		invoice: domain.Invoice{
			InvoiceNumber:   "INV-004",
			CustomerName:    "John Doe",
			CustomerEmail:   "john@example.com",
			CustomerAddress: "123 Main St, New York, NY 10001",
			Description:     "Database Design & Implementation",
			Status:          domain.StatusOverdue,
		},
		items: []domain.InvoiceItem{
			{Description: "Database Schema Design", Quantity: 24, UnitPrice: price("75.00")},
			{Description: "Data Migration Scripts", Quantity: 16, UnitPrice: price("75.00")},
			{Description: "Performance Optimization", Quantity: 8, UnitPrice: price("75.00")},
		},
	},
}

// Run creates the sample customers, invoices and items. Items go through
// AddInvoiceItem so stored totals come out of reconciliation rather than a
// hardcoded amount.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var result Result

	for _, customer := range customers {
		if _, err := s.svc.CreateCustomer(ctx, customer); err != nil {
			return result, err
		}
		result.Customers++
	}

	for _, entry := range invoices {
		if _, err := s.svc.CreateInvoice(ctx, entry.invoice); err != nil {
			return result, err
		}
		result.Invoices++

		for _, item := range entry.items {
			if _, err := s.svc.AddInvoiceItem(ctx, entry.invoice.InvoiceNumber, item); err != nil {
				return result, err
			}
			result.Items++
		}
	}

	s.log.Info("development data seeded",
		zap.Int("customers", result.Customers),
		zap.Int("invoices", result.Invoices),
		zap.Int("items", result.Items))
	return result, nil
}
