package pdfgen

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoicing/domain"
	invoicingservice "github.com/smallbiznis/invoicer/internal/invoicing/service"
	"github.com/smallbiznis/invoicer/internal/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type pipelineFixture struct {
	pipeline  *Pipeline
	invoicing domain.Service
	blobs     store.BlobStore
	clock     *clock.FakeClock
	metrics   *Metrics
}

func setupPipeline(t *testing.T) *pipelineFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	tables, err := store.NewGormStore(db, zap.NewNop())
	assert.NoError(t, err)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC))
	queue := store.NewMemoryQueue()

	svc := invoicingservice.New(invoicingservice.Params{
		Tables: tables,
		Queue:  queue,
		Clock:  fake,
		Node:   node,
		Log:    zap.NewNop(),
		Cfg:    config.Config{},
	})

	blobs := store.NewAferoBlobStore(afero.NewMemMapFs(), "/data")
	metrics := NewMetrics(prometheus.NewRegistry())

	pipeline := NewPipeline(PipelineParams{
		Invoicing: svc,
		Blobs:     blobs,
		Renderer:  NewRenderer(config.DefaultRenderConfig()),
		Clock:     fake,
		Log:       zap.NewNop(),
		Metrics:   metrics,
	})

	return &pipelineFixture{
		pipeline:  pipeline,
		invoicing: svc,
		blobs:     blobs,
		clock:     fake,
		metrics:   metrics,
	}
}

func (f *pipelineFixture) createInvoice(t *testing.T, number string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.invoicing.CreateInvoice(ctx, domain.Invoice{
		CustomerName:    "John Doe",
		InvoiceNumber:   number,
		CustomerEmail:   "john@example.com",
		CustomerAddress: "123 Main St, New York, NY 10001",
		Status:          domain.StatusSent,
	})
	assert.NoError(t, err)

	_, err = f.invoicing.AddInvoiceItem(ctx, number, domain.InvoiceItem{
		Description: "Frontend Development",
		Quantity:    80,
		UnitPrice:   decimal.RequireFromString("25.00"),
	})
	assert.NoError(t, err)
}

func TestHandleRendersAndStoresArtifact(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.createInvoice(t, "INV-001")

	err := f.pipeline.Handle(ctx, []byte(`{"CustomerName":"John Doe","InvoiceNumber":"INV-001"}`))
	assert.NoError(t, err)

	names, err := f.blobs.List(ctx, Container)
	assert.NoError(t, err)
	assert.Equal(t, []string{"INV-001_20250314092653.pdf"}, names)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Rendered))
}

// Duplicate deliveries are expected on an at-least-once queue; each render
// lands as its own timestamped artifact instead of failing.
func TestHandleDuplicateDeliveryWritesSecondArtifact(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.createInvoice(t, "INV-001")

	body := []byte(`{"CustomerName":"John Doe","InvoiceNumber":"INV-001"}`)
	assert.NoError(t, f.pipeline.Handle(ctx, body))

	f.clock.Advance(time.Second)
	assert.NoError(t, f.pipeline.Handle(ctx, body))

	names, err := f.blobs.List(ctx, Container)
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"INV-001_20250314092653.pdf",
		"INV-001_20250314092654.pdf",
	}, names)
}

func TestHandleFallsBackToNumberScan(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.createInvoice(t, "INV-001")

	// Stale customer name in the payload: point lookup misses, the
	// by-number scan still finds the invoice.
	err := f.pipeline.Handle(ctx, []byte(`{"CustomerName":"Old Name","InvoiceNumber":"INV-001"}`))
	assert.NoError(t, err)

	names, err := f.blobs.List(ctx, Container)
	assert.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestHandleMissingInvoiceIsDropped(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	err := f.pipeline.Handle(ctx, []byte(`{"CustomerName":"","InvoiceNumber":"INV-404"}`))
	assert.NoError(t, err)

	names, err := f.blobs.List(ctx, Container)
	assert.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.MissingInvoices))
}

func TestHandleMalformedPayloadIsDropped(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	assert.NoError(t, f.pipeline.Handle(ctx, []byte(`not json`)))
	assert.NoError(t, f.pipeline.Handle(ctx, []byte(`{"CustomerName":"John Doe"}`)))

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.MalformedPayloads))
	names, err := f.blobs.List(ctx, Container)
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestListPdfsFiltersAndOrders(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	blobs := []string{
		"INV-001_20250314092653.pdf",
		"INV-001_20250315100000.pdf",
		"INV-002_20250314120000.pdf",
	}
	for _, name := range blobs {
		assert.NoError(t, f.blobs.Put(ctx, Container, name, []byte("%PDF")))
	}

	all, err := f.pipeline.ListPdfs(ctx, "")
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"INV-002_20250314120000.pdf",
		"INV-001_20250315100000.pdf",
		"INV-001_20250314092653.pdf",
	}, all)

	filtered, err := f.pipeline.ListPdfs(ctx, "INV-001")
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"INV-001_20250315100000.pdf",
		"INV-001_20250314092653.pdf",
	}, filtered)
}

func TestGetPdfRoundTrip(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	assert.NoError(t, f.blobs.Put(ctx, Container, "INV-001_20250314092653.pdf", []byte("%PDF-1.7 content")))

	rc, err := f.pipeline.GetPdf(ctx, "INV-001_20250314092653.pdf")
	assert.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 content"), data)

	_, err = f.pipeline.GetPdf(ctx, "missing.pdf")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
