package xrechnung

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// ErrIncompleteSummation is returned when a document lacks one of the header
// monetary totals.
var ErrIncompleteSummation = errors.New("incomplete monetary summation")

// Summary holds the header monetary totals of a CII document.
type Summary struct {
	LineTotal  decimal.Decimal
	TaxBasis   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal
	DuePayable decimal.Decimal
}

// Totals reads the header totals back from a mapped tree.
func Totals(doc *CrossIndustryInvoice) (Summary, error) {
	const op = "Totals"

	var out Summary
	s := doc.Transaction.Settlement.Summation
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"LineTotalAmount", s.LineTotal, &out.LineTotal},
		{"TaxBasisTotalAmount", s.TaxBasis, &out.TaxBasis},
		{"TaxTotalAmount", s.TaxTotal.Value, &out.TaxTotal},
		{"GrandTotalAmount", s.GrandTotal, &out.GrandTotal},
		{"DuePayableAmount", s.DuePayable, &out.DuePayable},
	}

	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Summary{}, fmt.Errorf("%s: %s %q: %w", op, f.name, f.raw, err)
		}
		*f.dst = v
	}
	return out, nil
}

// ReadSummary extracts the header totals from serialized CII XML. Only the
// header summation element is consulted, so line totals are not mistaken
// for the document total.
func ReadSummary(data []byte) (Summary, error) {
	const op = "ReadSummary"

	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		inHeader bool
		current  string
		values   = make(map[string]string)
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, fmt.Errorf("%s: %w", op, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "SpecifiedTradeSettlementHeaderMonetarySummation" {
				inHeader = true
			}
			current = t.Name.Local
		case xml.EndElement:
			if t.Name.Local == "SpecifiedTradeSettlementHeaderMonetarySummation" {
				inHeader = false
			}
			current = ""
		case xml.CharData:
			if inHeader && current != "" {
				values[current] += string(t)
			}
		}
	}

	doc := &CrossIndustryInvoice{}
	s := &doc.Transaction.Settlement.Summation
	s.LineTotal = values["LineTotalAmount"]
	s.TaxBasis = values["TaxBasisTotalAmount"]
	s.TaxTotal.Value = values["TaxTotalAmount"]
	s.GrandTotal = values["GrandTotalAmount"]
	s.DuePayable = values["DuePayableAmount"]
	if s.GrandTotal == "" || s.TaxTotal.Value == "" {
		return Summary{}, fmt.Errorf("%s: %w", op, ErrIncompleteSummation)
	}
	return Totals(doc)
}
