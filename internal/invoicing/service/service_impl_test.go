package service

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoicing/domain"
	"github.com/smallbiznis/invoicer/internal/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentMessage struct {
	queue string
	body  []byte
}

type captureQueue struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (q *captureQueue) Send(ctx context.Context, queue string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, sentMessage{queue: queue, body: body})
	return nil
}

func (q *captureQueue) Consume(ctx context.Context, queue string, handler store.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (q *captureQueue) messages() []sentMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]sentMessage(nil), q.sent...)
}

func setupService(t *testing.T) (domain.Service, *captureQueue, *clock.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	tables, err := store.NewGormStore(db, zap.NewNop())
	assert.NoError(t, err)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	queue := &captureQueue{}
	fake := clock.NewFakeClock(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC))

	svc := New(Params{
		Tables: tables,
		Queue:  queue,
		Clock:  fake,
		Node:   node,
		Log:    zap.NewNop(),
		Cfg:    config.Config{},
	})
	return svc, queue, fake
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, domain.Customer{Name: "  ", Email: "a@b.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.CreateCustomer(ctx, domain.Customer{Name: "Jane Smith", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	created, err := svc.CreateCustomer(ctx, domain.Customer{Name: " Jane Smith ", Email: "jane@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, "Jane Smith", created.Name)
	assert.NotEmpty(t, created.ID)
}

func TestListCustomersOrderedByName(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	for _, name := range []string{"John Doe", "Bob Johnson", "Jane Smith"} {
		_, err := svc.CreateCustomer(ctx, domain.Customer{Name: name, Email: "x@example.com"})
		assert.NoError(t, err)
	}

	customers, err := svc.ListCustomers(ctx)
	assert.NoError(t, err)
	assert.Len(t, customers, 3)
	assert.Equal(t, "Bob Johnson", customers[0].Name)
	assert.Equal(t, "Jane Smith", customers[1].Name)
	assert.Equal(t, "John Doe", customers[2].Name)
}

func TestCreateInvoiceGeneratesNumberAndDefaults(t *testing.T) {
	svc, _, fake := setupService(t)

	created, err := svc.CreateInvoice(context.Background(), domain.Invoice{CustomerName: "Jane Smith"})
	assert.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^INV-20250314-[0-9A-F]{8}$`), created.InvoiceNumber)
	assert.Equal(t, "Jane Smith", created.CustomerKey)
	assert.Equal(t, domain.StatusDraft, created.Status)
	assert.True(t, created.InvoiceDate.Equal(fake.Now()))
	assert.True(t, created.DueDate.Equal(fake.Now().AddDate(0, 0, 30)))
}

func TestCreateInvoiceKeepsSuppliedNumber(t *testing.T) {
	svc, _, _ := setupService(t)

	created, err := svc.CreateInvoice(context.Background(), domain.Invoice{
		CustomerName:  "John Doe",
		InvoiceNumber: "INV-001",
		Status:        domain.StatusSent,
	})
	assert.NoError(t, err)
	assert.Equal(t, "INV-001", created.InvoiceNumber)
	assert.Equal(t, domain.StatusSent, created.Status)
}

func TestGetInvoiceLookupsAgree(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateInvoice(ctx, domain.Invoice{CustomerName: "Jane Smith", InvoiceNumber: "INV-010"})
	assert.NoError(t, err)

	point, err := svc.GetInvoice(ctx, "Jane Smith", created.InvoiceNumber)
	assert.NoError(t, err)

	scanned, err := svc.GetInvoiceByNumber(ctx, created.InvoiceNumber)
	assert.NoError(t, err)

	assert.Equal(t, point.InvoiceNumber, scanned.InvoiceNumber)
	assert.Equal(t, point.CustomerKey, scanned.CustomerKey)
	assert.True(t, point.TotalAmount.Equal(scanned.TotalAmount))

	_, err = svc.GetInvoice(ctx, "Jane Smith", "INV-404")
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)

	_, err = svc.GetInvoiceByNumber(ctx, "INV-404")
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestListInvoicesNewestFirst(t *testing.T) {
	svc, _, fake := setupService(t)
	ctx := context.Background()

	for _, number := range []string{"INV-001", "INV-002", "INV-003"} {
		_, err := svc.CreateInvoice(ctx, domain.Invoice{CustomerName: "John Doe", InvoiceNumber: number})
		assert.NoError(t, err)
		fake.Advance(time.Minute)
	}

	invoices, err := svc.ListInvoices(ctx, "John Doe")
	assert.NoError(t, err)
	assert.Len(t, invoices, 3)
	assert.Equal(t, "INV-003", invoices[0].InvoiceNumber)
	assert.Equal(t, "INV-001", invoices[2].InvoiceNumber)
}

// The reconciliation invariant: the stored invoice total tracks the item
// set through every add and delete.
func TestInvoiceTotalReconciliation(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, domain.Invoice{CustomerName: "Jane Smith", InvoiceNumber: "INV-010"})
	assert.NoError(t, err)
	assert.True(t, invoice.TotalAmount.IsZero())

	first, err := svc.AddInvoiceItem(ctx, "INV-010", domain.InvoiceItem{
		Description: "Design work",
		Quantity:    3,
		UnitPrice:   decimal.RequireFromString("10.00"),
	})
	assert.NoError(t, err)
	assert.True(t, first.TotalPrice.Equal(decimal.RequireFromString("30.00")))

	got, err := svc.GetInvoice(ctx, "Jane Smith", "INV-010")
	assert.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("30.00")))

	_, err = svc.AddInvoiceItem(ctx, "INV-010", domain.InvoiceItem{
		Description: "Hosting",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("5.50"),
	})
	assert.NoError(t, err)

	got, err = svc.GetInvoice(ctx, "Jane Smith", "INV-010")
	assert.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("35.50")))

	assert.NoError(t, svc.DeleteInvoiceItem(ctx, "INV-010", first.ID))

	got, err = svc.GetInvoice(ctx, "Jane Smith", "INV-010")
	assert.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("5.50")))
}

func TestAddInvoiceItemRecomputesTotalPrice(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, domain.Invoice{CustomerName: "John Doe", InvoiceNumber: "INV-001"})
	assert.NoError(t, err)

	item, err := svc.AddInvoiceItem(ctx, "INV-001", domain.InvoiceItem{
		Description: "Consulting",
		Quantity:    4,
		UnitPrice:   decimal.RequireFromString("100.00"),
		TotalPrice:  decimal.RequireFromString("1.00"),
	})
	assert.NoError(t, err)
	assert.True(t, item.TotalPrice.Equal(decimal.RequireFromString("400.00")))
}

func TestAddInvoiceItemDefaultsQuantity(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, domain.Invoice{CustomerName: "John Doe", InvoiceNumber: "INV-001"})
	assert.NoError(t, err)

	item, err := svc.AddInvoiceItem(ctx, "INV-001", domain.InvoiceItem{
		Description: "Setup fee",
		Quantity:    0,
		UnitPrice:   decimal.RequireFromString("50.00"),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), item.Quantity)
	assert.True(t, item.TotalPrice.Equal(decimal.RequireFromString("50.00")))
}

func TestListInvoiceItemsOldestFirst(t *testing.T) {
	svc, _, fake := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, domain.Invoice{CustomerName: "Bob Johnson", InvoiceNumber: "INV-003"})
	assert.NoError(t, err)

	for _, desc := range []string{"first", "second", "third"} {
		_, err := svc.AddInvoiceItem(ctx, "INV-003", domain.InvoiceItem{
			Description: desc,
			Quantity:    1,
			UnitPrice:   decimal.NewFromInt(1),
		})
		assert.NoError(t, err)
		fake.Advance(time.Second)
	}

	items, err := svc.ListInvoiceItems(ctx, "INV-003")
	assert.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, "first", items[0].Description)
	assert.Equal(t, "third", items[2].Description)
}

func TestDeleteInvoiceItemNotFound(t *testing.T) {
	svc, _, _ := setupService(t)

	err := svc.DeleteInvoiceItem(context.Background(), "INV-001", "no-such-item")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestDeleteInvoice(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, domain.Invoice{CustomerName: "John Doe", InvoiceNumber: "INV-001"})
	assert.NoError(t, err)

	assert.NoError(t, svc.DeleteInvoice(ctx, "John Doe", "INV-001"))
	assert.ErrorIs(t, svc.DeleteInvoice(ctx, "John Doe", "INV-001"), domain.ErrInvoiceNotFound)
}

func TestEnqueueRenderWireFormat(t *testing.T) {
	svc, queue, _ := setupService(t)

	assert.NoError(t, svc.EnqueueRender(context.Background(), "John Doe", "INV-001"))

	sent := queue.messages()
	assert.Len(t, sent, 1)
	assert.Equal(t, domain.RenderQueue, sent[0].queue)

	// Exactly these two PascalCase keys, nothing else.
	var raw map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(sent[0].body, &raw))
	assert.Len(t, raw, 2)
	assert.JSONEq(t, `{"CustomerName":"John Doe","InvoiceNumber":"INV-001"}`, string(sent[0].body))
}

func TestEnqueueRenderByNumber(t *testing.T) {
	svc, queue, _ := setupService(t)
	ctx := context.Background()

	ok, err := svc.EnqueueRenderByNumber(ctx, "INV-404")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, queue.messages())

	_, err = svc.CreateInvoice(ctx, domain.Invoice{CustomerName: "Jane Smith", InvoiceNumber: "INV-002"})
	assert.NoError(t, err)

	ok, err = svc.EnqueueRenderByNumber(ctx, "INV-002")
	assert.NoError(t, err)
	assert.True(t, ok)

	sent := queue.messages()
	assert.Len(t, sent, 1)
	assert.JSONEq(t, `{"CustomerName":"Jane Smith","InvoiceNumber":"INV-002"}`, string(sent[0].body))
}

func TestExtraPropertiesRoundTrip(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.CreateInvoice(ctx, domain.Invoice{
		CustomerName:  "John Doe",
		InvoiceNumber: "INV-001",
		Extra: map[string]store.Value{
			"PurchaseOrder": store.String("PO-7781"),
		},
	})
	assert.NoError(t, err)

	got, err := svc.GetInvoice(ctx, "John Doe", created.InvoiceNumber)
	assert.NoError(t, err)
	po, ok := got.Extra["PurchaseOrder"]
	assert.True(t, ok)
	s, _ := po.AsString()
	assert.Equal(t, "PO-7781", s)
}
