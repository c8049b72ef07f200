package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoicing/domain"
	"github.com/smallbiznis/invoicer/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Tables store.TableStore
	Queue  store.Queue
	Clock  clock.Clock
	Node   *snowflake.Node
	Log    *zap.Logger
	Cfg    config.Config
}

type Service struct {
	tables    store.TableStore
	queue     store.Queue
	clock     clock.Clock
	node      *snowflake.Node
	log       *zap.Logger
	queueName string
}

func New(p Params) domain.Service {
	queueName := p.Cfg.RenderQueueName
	if queueName == "" {
		queueName = domain.RenderQueue
	}
	return &Service{
		tables:    p.Tables,
		queue:     p.Queue,
		clock:     p.Clock,
		node:      p.Node,
		log:       p.Log.Named("invoicing.service"),
		queueName: queueName,
	}
}

func (s *Service) CreateCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.Name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Email == "" || !strings.Contains(customer.Email, "@") {
		return domain.Customer{}, domain.ErrInvalidEmail
	}

	now := s.clock.Now()
	customer.ID = s.node.Generate().String()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	if err := s.tables.Upsert(ctx, domain.CustomerTable, customer.ToEntity()); err != nil {
		return domain.Customer{}, err
	}
	s.log.Info("created customer", zap.String("customer", customer.Name))
	return customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	entities, err := s.tables.Query(ctx, domain.CustomerTable, store.ByPartition(domain.CustomerPartition))
	if err != nil {
		return nil, err
	}
	customers := make([]domain.Customer, 0, len(entities))
	for _, e := range entities {
		customers = append(customers, domain.CustomerFromEntity(e))
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].Name < customers[j].Name
	})
	return customers, nil
}

func (s *Service) CreateInvoice(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error) {
	invoice.CustomerName = strings.TrimSpace(invoice.CustomerName)
	if invoice.CustomerName == "" {
		return domain.Invoice{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = s.generateInvoiceNumber()
	}
	if invoice.InvoiceDate.IsZero() {
		invoice.InvoiceDate = now
	}
	if invoice.DueDate.IsZero() {
		invoice.DueDate = invoice.InvoiceDate.AddDate(0, 0, 30)
	}
	if invoice.Status == "" {
		invoice.Status = domain.StatusDraft
	}

	invoice.CustomerKey = invoice.CustomerName
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	if err := s.tables.Upsert(ctx, domain.InvoiceTable, invoice.ToEntity()); err != nil {
		return domain.Invoice{}, err
	}
	s.log.Info("created invoice", zap.String("invoice", invoice.InvoiceNumber))
	return invoice, nil
}

func (s *Service) GetInvoice(ctx context.Context, customerName, invoiceNumber string) (domain.Invoice, error) {
	e, err := s.tables.Get(ctx, domain.InvoiceTable, customerName, invoiceNumber)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	if err != nil {
		return domain.Invoice{}, err
	}
	return domain.InvoiceFromEntity(e), nil
}

func (s *Service) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (domain.Invoice, error) {
	invoice, err := s.findByNumber(ctx, invoiceNumber)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return *invoice, nil
}

// findByNumber is the by-number fallback lookup: an InvoiceNumber property
// scan across all partitions, first match wins. Nil means absent.
func (s *Service) findByNumber(ctx context.Context, invoiceNumber string) (*domain.Invoice, error) {
	entities, err := s.tables.Query(ctx, domain.InvoiceTable, store.ByProperty(domain.PropInvoiceNumber, invoiceNumber))
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	invoice := domain.InvoiceFromEntity(entities[0])
	return &invoice, nil
}

func (s *Service) ListInvoices(ctx context.Context, customerName string) ([]domain.Invoice, error) {
	filter := store.All()
	if customerName != "" {
		filter = store.ByPartition(customerName)
	}
	entities, err := s.tables.Query(ctx, domain.InvoiceTable, filter)
	if err != nil {
		return nil, err
	}
	invoices := make([]domain.Invoice, 0, len(entities))
	for _, e := range entities {
		invoices = append(invoices, domain.InvoiceFromEntity(e))
	}
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return invoices, nil
}

func (s *Service) UpdateInvoice(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error) {
	if invoice.CustomerKey == "" || invoice.InvoiceNumber == "" {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	invoice.UpdatedAt = s.clock.Now()

	if err := s.tables.Upsert(ctx, domain.InvoiceTable, invoice.ToEntity()); err != nil {
		return domain.Invoice{}, err
	}
	s.log.Info("updated invoice", zap.String("invoice", invoice.InvoiceNumber))
	return invoice, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, customerName, invoiceNumber string) error {
	err := s.tables.Delete(ctx, domain.InvoiceTable, customerName, invoiceNumber)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrInvoiceNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("deleted invoice", zap.String("invoice", invoiceNumber))
	return nil
}

func (s *Service) ListInvoiceItems(ctx context.Context, invoiceNumber string) ([]domain.InvoiceItem, error) {
	entities, err := s.tables.Query(ctx, domain.InvoiceItemTable, store.ByPartition(invoiceNumber))
	if err != nil {
		return nil, err
	}
	items := make([]domain.InvoiceItem, 0, len(entities))
	for _, e := range entities {
		items = append(items, domain.InvoiceItemFromEntity(e))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Service) AddInvoiceItem(ctx context.Context, invoiceNumber string, item domain.InvoiceItem) (domain.InvoiceItem, error) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	item.InvoiceNumber = invoiceNumber
	item.ID = uuid.NewString()
	// TotalPrice is always recomputed; a caller-supplied value is not
	// trusted.
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))
	item.CreatedAt = s.clock.Now()

	if err := s.tables.Upsert(ctx, domain.InvoiceItemTable, item.ToEntity()); err != nil {
		return domain.InvoiceItem{}, err
	}
	s.log.Info("added invoice item",
		zap.String("invoice", invoiceNumber),
		zap.String("description", item.Description))

	if err := s.recalculateTotal(ctx, invoiceNumber); err != nil {
		return domain.InvoiceItem{}, err
	}
	return item, nil
}

func (s *Service) DeleteInvoiceItem(ctx context.Context, invoiceNumber, itemID string) error {
	err := s.tables.Delete(ctx, domain.InvoiceItemTable, invoiceNumber, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrItemNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("deleted invoice item",
		zap.String("invoice", invoiceNumber),
		zap.String("item", itemID))

	return s.recalculateTotal(ctx, invoiceNumber)
}

// recalculateTotal re-sums the invoice's items and overwrites the stored
// total. The caller only has the invoice number here, so the invoice is
// re-resolved by a row-key scan across all partitions; O(n) in invoice
// count per item change. Idempotent: repeated runs with unchanged items
// store the same total. Two overlapping item mutations race on the final
// write, last write wins; accepted property of the eventually consistent
// design.
func (s *Service) recalculateTotal(ctx context.Context, invoiceNumber string) error {
	items, err := s.ListInvoiceItems(ctx, invoiceNumber)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}

	entities, err := s.tables.Query(ctx, domain.InvoiceTable, store.ByRow(invoiceNumber))
	if err != nil {
		return err
	}
	for _, e := range entities {
		invoice := domain.InvoiceFromEntity(e)
		invoice.TotalAmount = total
		invoice.UpdatedAt = s.clock.Now()
		if err := s.tables.Upsert(ctx, domain.InvoiceTable, invoice.ToEntity()); err != nil {
			return err
		}
		break
	}
	return nil
}

func (s *Service) EnqueueRender(ctx context.Context, customerName, invoiceNumber string) error {
	if err := s.send(ctx, domain.RenderRequest{
		CustomerName:  customerName,
		InvoiceNumber: invoiceNumber,
	}); err != nil {
		return err
	}
	s.log.Info("queued invoice for pdf generation", zap.String("invoice", invoiceNumber))
	return nil
}

func (s *Service) EnqueueRenderByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	invoice, err := s.findByNumber(ctx, invoiceNumber)
	if err != nil {
		return false, err
	}
	if invoice == nil {
		s.log.Warn("invoice not found for pdf generation", zap.String("invoice", invoiceNumber))
		return false, nil
	}

	if err := s.send(ctx, domain.RenderRequest{
		CustomerName:  invoice.CustomerName,
		InvoiceNumber: invoiceNumber,
	}); err != nil {
		return false, err
	}
	s.log.Info("queued invoice for pdf generation",
		zap.String("invoice", invoiceNumber),
		zap.String("customer", invoice.CustomerName))
	return true, nil
}

func (s *Service) send(ctx context.Context, req domain.RenderRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal render request: %w", err)
	}
	return s.queue.Send(ctx, s.queueName, body)
}

// generateInvoiceNumber builds INV-{UTC date}-{8 uppercase hex chars}.
func (s *Service) generateInvoiceNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", s.clock.Now().Format("20060102"), suffix)
}
