// Package invoice holds the rules every generated invoice must satisfy.
//
// It provides the two validation profiles, the totals calculation shared by
// the PDF renderer and the XRechnung mapper, invoice numbering and the
// delivery status transitions.
//
// Validation Profiles:
//   - general: structural checks (required fields, dates, quantities, rates)
//   - xrechnung: general plus the German e-invoicing rules BR-DE-1, BR-DE-19,
//     BR-DE-4, BR-DE-9 (blocking) and BR-DE-2, PEPPOL-EN16931-R010/R020,
//     BR-CO-26 (warnings)
//
// Totals:
//   - VAT is aggregated per distinct rate among the line items
//   - line nets and group taxes are rounded to the cent before summation
//   - Gross = Net + sum of group taxes
package invoice

import "invoicegen/pkg/models"

// Checker validates invoices. *Validator is the production implementation.
type Checker interface {
	// Validate runs the profile's rules and returns the full report.
	Validate(inv *models.Invoice, profile Profile) Report
}

var _ Checker = (*Validator)(nil)
