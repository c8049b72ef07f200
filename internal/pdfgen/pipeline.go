package pdfgen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/invoicing/domain"
	"github.com/smallbiznis/invoicer/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type PipelineParams struct {
	fx.In

	Invoicing domain.Service
	Blobs     store.BlobStore
	Renderer  *Renderer
	Clock     clock.Clock
	Log       *zap.Logger
	Metrics   *Metrics
}

// Pipeline consumes render requests one message at a time, resolves the
// invoice, renders it and stores the artifact. Duplicate deliveries are
// harmless: each render writes a fresh timestamped artifact.
type Pipeline struct {
	invoicing domain.Service
	blobs     store.BlobStore
	renderer  *Renderer
	clock     clock.Clock
	log       *zap.Logger
	metrics   *Metrics
}

func NewPipeline(p PipelineParams) *Pipeline {
	return &Pipeline{
		invoicing: p.Invoicing,
		blobs:     p.Blobs,
		renderer:  p.Renderer,
		clock:     p.Clock,
		log:       p.Log.Named("pdfgen.pipeline"),
		metrics:   p.Metrics,
	}
}

// Handle processes one queue message. A nil return acknowledges the
// message; malformed payloads and missing invoices are acknowledged and
// dropped (counted, not retried), everything else is returned to the queue.
func (p *Pipeline) Handle(ctx context.Context, body []byte) error {
	var req domain.RenderRequest
	if err := json.Unmarshal(body, &req); err != nil || req.InvoiceNumber == "" {
		p.metrics.MalformedPayloads.Inc()
		p.log.Warn("dropping malformed render request",
			zap.ByteString("body", body),
			zap.Error(err))
		return nil
	}

	invoice, err := p.resolve(ctx, req)
	if errors.Is(err, domain.ErrInvoiceNotFound) {
		p.metrics.MissingInvoices.Inc()
		p.log.Warn("invoice not found, nothing to render",
			zap.String("invoice", req.InvoiceNumber))
		return nil
	}
	if err != nil {
		return err
	}

	items, err := p.invoicing.ListInvoiceItems(ctx, invoice.InvoiceNumber)
	if err != nil {
		return err
	}

	renderedAt := p.clock.Now()
	data, err := p.renderer.Render(invoice, items, renderedAt)
	if err != nil {
		p.metrics.RenderFailures.Inc()
		return err
	}

	name := BlobName(invoice.InvoiceNumber, renderedAt)
	if err := p.blobs.Put(ctx, Container, name, data); err != nil {
		p.metrics.RenderFailures.Inc()
		return err
	}

	p.metrics.Rendered.Inc()
	p.log.Info("pdf generated and stored",
		zap.String("invoice", invoice.InvoiceNumber),
		zap.String("blob", name))
	return nil
}

// resolve tries the point lookup when a customer name is present, falling
// back to the by-number scan otherwise or when the point lookup misses
// (the partition goes stale after a customer rename).
func (p *Pipeline) resolve(ctx context.Context, req domain.RenderRequest) (domain.Invoice, error) {
	if req.CustomerName != "" {
		invoice, err := p.invoicing.GetInvoice(ctx, req.CustomerName, req.InvoiceNumber)
		if err == nil {
			return invoice, nil
		}
		if !errors.Is(err, domain.ErrInvoiceNotFound) {
			return domain.Invoice{}, err
		}
	}
	return p.invoicing.GetInvoiceByNumber(ctx, req.InvoiceNumber)
}

// ListPdfs enumerates artifact names, optionally prefix-filtered by invoice
// number, in descending name order. Names are timestamp-suffixed so the
// order is a proxy for recency.
func (p *Pipeline) ListPdfs(ctx context.Context, invoiceNumberFilter string) ([]string, error) {
	names, err := p.blobs.List(ctx, Container)
	if err != nil {
		return nil, err
	}
	filtered := make([]string, 0, len(names))
	for _, name := range names {
		if invoiceNumberFilter != "" && !strings.HasPrefix(name, invoiceNumberFilter) {
			continue
		}
		filtered = append(filtered, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(filtered)))
	return filtered, nil
}

// GetPdf returns the artifact content; the caller must drain and close it.
// Returns store.ErrNotFound when the blob is absent.
func (p *Pipeline) GetPdf(ctx context.Context, name string) (io.ReadCloser, error) {
	return p.blobs.Get(ctx, Container, name)
}
