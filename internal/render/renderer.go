// Package render lays out an invoice on A4 pages.
//
// The layout is absolute: a cursor descends from the top margin through the
// sender line, the recipient and metadata columns, the title, the line-item
// table, the totals block and the outro, while the four-column footer is
// anchored to the bottom margin of every page. Body content that would run
// into the footer continues on a new page, and the item table header is
// repeated there. All amounts come from invoice.ComputeTotals,
// the same calculation the XRechnung mapper uses.
package render

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/pkg/models"
)

// Options control one rendering.
type Options struct {
	// Language overrides Invoice.Language. Empty means "use the invoice's,
	// else German".
	Language i18n.Language

	// Greeting replaces the localized default salutation.
	Greeting string
}

// Renderer produces Documents. It is safe for concurrent use.
type Renderer struct {
	logos LogoSource
	clock func() time.Time
	log   zerolog.Logger
}

// NewRenderer creates a renderer. logos may be nil, which disables logos.
func NewRenderer(logos LogoSource) *Renderer {
	return &Renderer{
		logos: logos,
		clock: time.Now,
		log:   logger.WithComponent("render"),
	}
}

// WithClock returns a copy of r that stamps documents with clock.
func (r *Renderer) WithClock(clock func() time.Time) *Renderer {
	c := *r
	c.clock = clock
	return &c
}

// ResolveLanguage picks the document language: explicit option, then the
// invoice field, then German.
func ResolveLanguage(inv *models.Invoice, explicit i18n.Language) i18n.Language {
	if explicit.Valid() {
		return explicit
	}
	if lang, err := i18n.ParseLanguage(inv.Language); err == nil {
		return lang
	}
	return i18n.German
}

// Render lays out inv. Missing optional fields are omitted from the page;
// an unreachable logo is logged and skipped.
func (r *Renderer) Render(ctx context.Context, inv *models.Invoice, opts Options) (*Document, error) {
	const op = "Render"

	if inv == nil {
		return nil, missingField("invoice")
	}
	if strings.TrimSpace(inv.Seller.Name) == "" {
		return nil, missingField("seller.name")
	}
	if len(inv.Items) == 0 {
		return nil, missingField("items")
	}

	lang := ResolveLanguage(inv, opts.Language)
	greeting := strings.TrimSpace(opts.Greeting)
	if greeting == "" {
		greeting = i18n.Translations(lang).DefaultGreeting
	}

	var logo *Logo
	if r.logos != nil && strings.TrimSpace(inv.LogoURL) != "" {
		logo = r.logos.Fetch(ctx, inv.LogoURL)
	}

	doc := &Document{
		inv:      inv,
		lang:     lang,
		greeting: greeting,
		logo:     logo,
		created:  r.clock().UTC().Truncate(time.Second),
		totals:   invoice.ComputeTotals(inv),
	}

	pdf, layout := doc.draw()
	if err := pdf.Error(); err != nil {
		return nil, NewRenderError(op, err, "layout")
	}
	doc.layout = layout

	r.log.Info().
		Str("invoice_number", inv.Number).
		Str("language", string(lang)).
		Int("items", len(inv.Items)).
		Int("vat_groups", len(doc.totals.Groups)).
		Bool("logo", layout.LogoPlaced).
		Str("gross", doc.totals.Gross.StringFixed(2)).
		Msg("Invoice rendered")

	return doc, nil
}
