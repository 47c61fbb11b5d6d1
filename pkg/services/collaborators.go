// Package services declares the collaborators the invoice workflow talks to:
// object storage, the invoice ledger, the booking journal, mail delivery and
// the booking generator.
package services

import (
	"context"

	"invoicegen/pkg/models"
)

// RecordRef identifies rows written to a ledger or journal. Rows are located
// by ID, so a reference stays valid when other rows move.
type RecordRef struct {
	Sheet string `json:"sheet"`
	ID    string `json:"id"`
	Rows  int    `json:"rows"`
}

// ObjectStore keeps generated documents and uploads
type ObjectStore interface {
	// Put stores data under key and returns the public URL
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get loads an object by public URL or key
	Get(ctx context.Context, url string) ([]byte, error)

	// Delete removes key; a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// InvoiceLedger is the record store of issued invoices
type InvoiceLedger interface {
	Numbers(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, rec *models.InvoiceRecord) (RecordRef, error)
	Delete(ctx context.Context, ref RecordRef) error
	UpdateStatus(ctx context.Context, ref RecordRef, status, url string) error
	Status(ctx context.Context, ref RecordRef) (string, error)
}

// BookingJournal receives the accounting entries of issued invoices
type BookingJournal interface {
	Post(ctx context.Context, bookings []DATEVBooking) (RecordRef, error)
	Delete(ctx context.Context, ref RecordRef) error
}

// Attachment is a file sent along with a message
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// InvoiceMessage is an invoice delivery email
type InvoiceMessage struct {
	ToAddress   string
	ToName      string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer delivers invoices to customers
type Mailer interface {
	SendInvoice(ctx context.Context, msg *InvoiceMessage) error
}
