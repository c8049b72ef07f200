package pdfgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoicing/domain"
)

var (
	boxGray    = props.Color{Red: 235, Green: 235, Blue: 235}
	stripeGray = props.Color{Red: 246, Green: 246, Blue: 246}
	totalTint  = props.Color{Red: 255, Green: 250, Blue: 205}
	footerGray = props.Color{Red: 128, Green: 128, Blue: 128}
)

// Renderer produces the fixed single-page invoice layout. There is no
// pagination or overflow handling; a long item list overdraws the page.
type Renderer struct {
	cfg config.RenderConfig
}

func NewRenderer(cfg config.RenderConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render draws the invoice and its items into PDF bytes.
func (r *Renderer) Render(invoice domain.Invoice, items []domain.InvoiceItem, renderedAt time.Time) ([]byte, error) {
	m := maroto.New(marotocfg.NewBuilder().Build())

	// Header: title left, invoice number right.
	m.AddRow(14,
		text.NewCol(8, "INVOICE", props.Text{
			Size:  24,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "#"+invoice.InvoiceNumber, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	r.addMetaBox(m, invoice)

	if invoice.Description != "" {
		m.AddRow(8,
			text.NewCol(12, "Description:", props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}),
		)
		m.AddRow(10,
			text.NewCol(12, invoice.Description, props.Text{Size: 10}),
		)
	}

	r.addItemTable(m, items)
	r.addTotalBox(m, invoice)
	r.addFooter(m, renderedAt)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

// addMetaBox draws the bordered metadata block: dates and status on the
// left, the denormalized customer snapshot on the right.
func (r *Renderer) addMetaBox(m core.Maroto, invoice domain.Invoice) {
	left := col.New(6).Add(
		text.New("Invoice Date: "+invoice.InvoiceDate.Format("2006-01-02"), props.Text{Size: 10, Top: 2, Left: 2}),
		text.New("Due Date: "+invoice.DueDate.Format("2006-01-02"), props.Text{Size: 10, Top: 8, Left: 2}),
		text.New("Status: "+string(invoice.Status), props.Text{Size: 10, Top: 14, Left: 2}),
	)

	customerLines := []string{invoice.CustomerName, invoice.CustomerEmail}
	customerLines = append(customerLines, wrapText(invoice.CustomerAddress, r.cfg.AddressWrapWidth)...)
	right := col.New(6).Add(text.New("Bill To:", props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}))
	top := 8.0
	for _, line := range customerLines {
		if line == "" {
			continue
		}
		right.Add(text.New(line, props.Text{Size: 10, Top: top}))
		top += 5
	}

	m.AddRows(row.New(40).Add(left, right).WithStyle(&props.Cell{
		BackgroundColor: &boxGray,
	}))
}

func (r *Renderer) addItemTable(m core.Maroto, items []domain.InvoiceItem) {
	m.AddRows(row.New(9).Add(
		text.NewCol(6, "Description", props.Text{Size: 10, Style: fontstyle.Bold, Left: 2, Top: 2}),
		text.NewCol(2, "Qty", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
		text.NewCol(2, "Unit Price", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
		text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
	).WithStyle(&props.Cell{BackgroundColor: &boxGray}))

	for i, item := range items {
		line := row.New(8).Add(
			text.NewCol(6, truncateText(item.Description, r.cfg.CellTextLimit), props.Text{Size: 10, Left: 2, Top: 2}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 10, Align: align.Right, Top: 2}),
			text.NewCol(2, r.money(item.UnitPrice.StringFixed(2)), props.Text{Size: 10, Align: align.Right, Top: 2}),
			text.NewCol(2, r.money(item.TotalPrice.StringFixed(2)), props.Text{Size: 10, Align: align.Right, Top: 2}),
		)
		if i%2 == 0 {
			line.WithStyle(&props.Cell{BackgroundColor: &stripeGray})
		}
		m.AddRows(line)
	}
}

func (r *Renderer) addTotalBox(m core.Maroto, invoice domain.Invoice) {
	m.AddRows(row.New(12).Add(
		col.New(7),
		text.NewCol(3, "Total Amount:", props.Text{Size: 12, Style: fontstyle.Bold, Top: 3}),
		text.NewCol(2, r.money(invoice.TotalAmount.StringFixed(2)), props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Top: 3}),
	).WithStyle(&props.Cell{BackgroundColor: &totalTint}))
}

func (r *Renderer) addFooter(m core.Maroto, renderedAt time.Time) {
	m.AddRow(10,
		text.NewCol(6, "Generated on "+renderedAt.UTC().Format("2006-01-02 15:04:05")+" UTC", props.Text{
			Size:  8,
			Top:   4,
			Color: &footerGray,
		}),
		text.NewCol(6, r.cfg.FooterNote, props.Text{
			Size:  8,
			Top:   4,
			Align: align.Right,
			Color: &footerGray,
		}),
	)
}

func (r *Renderer) money(v string) string {
	return r.cfg.CurrencySymbol + v
}

// wrapText word-wraps a string at a column width; words longer than the
// width get their own line.
func wrapText(s string, width int) []string {
	if s == "" {
		return nil
	}
	var lines []string
	current := ""
	for _, word := range strings.Fields(s) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// truncateText caps a string at max characters with an ellipsis.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
