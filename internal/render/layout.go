package render

import (
	"strings"

	"invoicegen/internal/invoice"
)

// Page geometry in points. The cursor runs top-down from the top margin.
const (
	PageWidth  = 595.28
	PageHeight = 841.89
	Margin     = 50.0

	ContentWidth = PageWidth - 2*Margin
	RightEdge    = PageWidth - Margin
)

const (
	logoMaxWidth  = 150.0
	logoMaxHeight = 50.0

	metaPitch   = 16.0
	linePitch   = 14.0
	itemGap     = 20.0
	totalsPitch = 16.0
	totalsWidth = 180.0

	footerBaseline = PageHeight - (Margin + 60)
	bodyLimit      = footerBaseline - 30
	footerPitch    = 11.0
	footerSize     = 8.0
	footerColWidth = ContentWidth / 4
)

// Table column anchors as fractions of the content width.
const (
	colQuantity  = 0.50
	colUnit      = 0.62
	colUnitPrice = 0.74
	descWidth    = 0.45
)

// Text shades as 0..255 gray levels.
const (
	black     = 0
	gray      = 128 // 0.5
	lightGray = 179 // 0.7
)

// TextRun is one drawn string with its baseline position.
type TextRun struct {
	Page  int
	X     float64
	Y     float64
	Style string // "" or "B"
	Size  float64
	Gray  int
	Text  string
}

// Layout is the trace of one rendering pass.
type Layout struct {
	Runs       []TextRun
	Totals     invoice.Totals
	LogoPlaced bool
	// Bottom is the cursor position after the last body element on the
	// last page.
	Bottom float64
	Pages  int
}

// Texts returns the drawn strings in drawing order.
func (l Layout) Texts() []string {
	out := make([]string, len(l.Runs))
	for i, r := range l.Runs {
		out[i] = r.Text
	}
	return out
}

// Has reports whether a run with exactly text was drawn.
func (l Layout) Has(text string) bool {
	_, ok := l.Find(text)
	return ok
}

// Find returns the first run whose text equals text.
func (l Layout) Find(text string) (TextRun, bool) {
	for _, r := range l.Runs {
		if r.Text == text {
			return r, true
		}
	}
	return TextRun{}, false
}

// Row returns the texts drawn on the same page and baseline as the first
// run equal to text, in drawing order.
func (l Layout) Row(text string) []string {
	anchor, ok := l.Find(text)
	if !ok {
		return nil
	}
	var row []string
	for _, r := range l.Runs {
		if r.Page == anchor.Page && r.Y == anchor.Y {
			row = append(row, r.Text)
		}
	}
	return row
}

// Contains reports whether any drawn run contains sub.
func (l Layout) Contains(sub string) bool {
	for _, r := range l.Runs {
		if strings.Contains(r.Text, sub) {
			return true
		}
	}
	return false
}
