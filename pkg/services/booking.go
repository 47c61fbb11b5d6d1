package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"invoicegen/internal/invoice"
	"invoicegen/pkg/models"
)

// BookingService derives the DATEV accounting entries for an issued invoice
type BookingService interface {
	// GenerateBookings returns one revenue booking per VAT group of totals
	GenerateBookings(ctx context.Context, inv *models.Invoice, totals invoice.Totals) ([]DATEVBooking, error)
}

// DATEVBooking represents a complete DATEV accounting entry
type DATEVBooking struct {
	// Core booking information
	BookingText      string          `json:"booking_text"`      // Buchungstext (max 60 chars)
	DebitAccount     string          `json:"debit_account"`     // Sollkonto (Debitor)
	CreditAccount    string          `json:"credit_account"`    // Habenkonto (Erlöse)
	Amount           decimal.Decimal `json:"amount"`            // Bruttobetrag der Steuergruppe
	Currency         string          `json:"currency"`          // Währung
	TaxKey           string          `json:"tax_key"`           // Steuerschlüssel, leer bei Automatikkonten
	VATRate          decimal.Decimal `json:"vat_rate"`          // Steuersatz in Prozent
	BookingDate      time.Time       `json:"booking_date"`      // Buchungsdatum
	DocumentNumber   string          `json:"document_number"`   // Belegnummer
	AccountingPeriod string          `json:"accounting_period"` // Buchungsperiode (MMYYYY)

	// Additional information
	Explanation string `json:"explanation"` // Erläuterung der Buchung

	// Account descriptions for display
	DebitAccountName  string `json:"debit_account_name"`  // Name des Sollkontos
	CreditAccountName string `json:"credit_account_name"` // Name des Habenkontos
	TaxKeyDescription string `json:"tax_key_description"` // Beschreibung des Steuerschlüssels

	// Metadata
	GeneratedAt      time.Time `json:"generated_at"`      // Timestamp of generation
	KontenrahmenType string    `json:"kontenrahmen_type"` // SKR03 or SKR04
}
