package pdfgen

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics captures render pipeline health signals. Malformed payloads are
// dropped, not retried, so the drop has to be countable.
type Metrics struct {
	Rendered          prometheus.Counter
	RenderFailures    prometheus.Counter
	MalformedPayloads prometheus.Counter
	MissingInvoices   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoicer_pdfs_rendered_total",
			Help: "PDF artifacts rendered and stored.",
		}),
		RenderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoicer_pdf_render_failures_total",
			Help: "Render attempts that failed and were returned to the queue.",
		}),
		MalformedPayloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoicer_pdf_malformed_payloads_total",
			Help: "Queue payloads that failed to parse and were dropped.",
		}),
		MissingInvoices: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoicer_pdf_missing_invoices_total",
			Help: "Render requests for invoices that no longer exist.",
		}),
	}
	reg.MustRegister(m.Rendered, m.RenderFailures, m.MalformedPayloads, m.MissingInvoices)
	return m
}
