// Package assembler produces the hybrid invoice: a PDF/A-3b page with the
// XRechnung XML embedded as xrechnung.xml.
//
// Build runs validation, layout, mapping, serialization and embedding in
// that order and stops at the first failure. Validation errors block the
// build; warnings travel in the Result.
package assembler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/internal/render"
	"invoicegen/internal/xrechnung"
	"invoicegen/pkg/models"
)

// Options control one build.
type Options struct {
	Profile invoice.Profile
	Render  render.Options

	// VisualOnly skips the XML and writes a plain PDF.
	VisualOnly bool
}

// Result holds the build artefacts. XML is nil for visual-only builds.
type Result struct {
	PDF    []byte
	XML    []byte
	Report invoice.Report
	Totals invoice.Totals
}

// Assembler wires the validator, the renderer and the embedder.
type Assembler struct {
	checker  invoice.Checker
	renderer *render.Renderer
	embedder Embedder
	log      zerolog.Logger
}

// New creates an assembler. A nil embedder selects FpdfEmbedder.
func New(checker invoice.Checker, renderer *render.Renderer, embedder Embedder) *Assembler {
	if embedder == nil {
		embedder = FpdfEmbedder{}
	}
	return &Assembler{
		checker:  checker,
		renderer: renderer,
		embedder: embedder,
		log:      logger.WithComponent("assembler"),
	}
}

// Build validates inv and produces the hybrid document.
func (a *Assembler) Build(ctx context.Context, inv *models.Invoice, opts Options) (*Result, error) {
	const op = "Build"
	start := time.Now()

	if inv == nil {
		return nil, fmt.Errorf("%s: %w: invoice", op, invoice.ErrMissingRequiredField)
	}

	profile := opts.Profile
	if profile == "" {
		profile = invoice.ProfileXRechnung
	}
	report := a.checker.Validate(inv, profile)
	if err := report.Err(); err != nil {
		a.log.Warn().
			Str("invoice_number", inv.Number).
			Str("profile", string(profile)).
			Strs("errors", report.Errors).
			Msg("Invoice rejected by validation")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := a.renderer.Render(ctx, inv, opts.Render)
	if err != nil {
		return nil, err
	}
	res := &Result{Report: report, Totals: doc.Totals()}

	if opts.VisualOnly {
		if res.PDF, err = doc.Bytes(); err != nil {
			return nil, err
		}
		return res, nil
	}

	res.XML, err = xrechnung.Serialize(xrechnung.Map(inv, doc.Created()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res.PDF, err = a.embedder.Embed(doc, res.XML, MetadataFor(doc))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info().
		Str("invoice_number", inv.Number).
		Str("profile", string(profile)).
		Int("warnings", len(report.Warnings)).
		Int("pdf_bytes", len(res.PDF)).
		Int("xml_bytes", len(res.XML)).
		Dur("duration", time.Since(start)).
		Msg("Hybrid invoice assembled")

	return res, nil
}
