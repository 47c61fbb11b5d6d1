package models

import "time"

// Invoice status values. A "_paid" suffix may be appended by the payment
// side and is preserved across transitions.
const (
	StatusDraft      = "draft"
	StatusInDelivery = "in_delivery"
	StatusSent       = "sent"
	PaidSuffix       = "_paid"
)

// InvoiceRecord is the ledger row kept for every issued invoice.
type InvoiceRecord struct {
	ID            string    // Unique record identifier (uuid)
	UserID        string    // Owner, used to namespace stored documents
	InvoiceNumber string    // Human-readable invoice number
	Date          string    // Invoice date, YYYY-MM-DD
	Customer      string    // Customer name
	CustomerID    string    // Upstream customer key, optional

	// Amounts in cents, copied from the computed totals at issue time
	NetAmount   int64
	VATAmount   int64
	GrossAmount int64
	Currency    string

	Status    string
	PDFURL    string
	XMLURL    string
	CreatedAt time.Time
}
