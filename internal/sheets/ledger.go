package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"invoicegen/internal/logger"
	"invoicegen/pkg/models"
	"invoicegen/pkg/services"
)

// DefaultLedgerSheet is the worksheet of the invoice ledger.
const DefaultLedgerSheet = "Debitoren"

// Ledger columns, A to N
const (
	colLedgerID = iota
	colLedgerNumber
	colLedgerDate
	colLedgerCustomer
	colLedgerCustomerID
	colLedgerUser
	colLedgerNet
	colLedgerVAT
	colLedgerGross
	colLedgerCurrency
	colLedgerStatus
	colLedgerPDF
	colLedgerXML
	colLedgerCreated
	ledgerColumns
)

var ledgerHeaders = []string{
	"ID", "Rechnungsnr", "Datum", "Kunde", "Kunden-ID", "Benutzer",
	"Netto", "MwSt", "Brutto", "Währung", "Status", "PDF", "XML", "Erstellt",
}

// Ledger is the invoice record store on one worksheet
type Ledger struct {
	grid  grid
	sheet string
	log   zerolog.Logger
}

var _ services.InvoiceLedger = (*Ledger)(nil)

// NewLedger creates a ledger on sheet; empty selects DefaultLedgerSheet
func NewLedger(s *Service, sheet string) *Ledger {
	return newLedger(s, sheet)
}

func newLedger(g grid, sheet string) *Ledger {
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultLedgerSheet
	}
	return &Ledger{
		grid:  g,
		sheet: sheet,
		log:   logger.WithComponent("ledger").With().Str("sheet", sheet).Logger(),
	}
}

// Numbers returns every invoice number in the ledger
func (l *Ledger) Numbers(ctx context.Context) ([]string, error) {
	const op = "Numbers"

	rows, err := l.dataRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	numbers := make([]string, 0, len(rows))
	for _, r := range rows {
		if n := cell(r.values, colLedgerNumber); n != "" {
			numbers = append(numbers, n)
		}
	}
	return numbers, nil
}

// Insert appends rec and assigns an ID when it has none
func (l *Ledger) Insert(ctx context.Context, rec *models.InvoiceRecord) (services.RecordRef, error) {
	const op = "Insert"

	if err := l.grid.EnsureSheet(ctx, l.sheet, ledgerHeaders); err != nil {
		return services.RecordRef{}, fmt.Errorf("%s: %w", op, err)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if err := l.grid.Append(ctx, l.sheet, [][]interface{}{recordToValues(rec)}); err != nil {
		return services.RecordRef{}, fmt.Errorf("%s: %w", op, err)
	}

	l.log.Info().
		Str("record_id", rec.ID).
		Str("invoice_number", rec.InvoiceNumber).
		Str("status", rec.Status).
		Msg("Invoice record inserted")

	return services.RecordRef{Sheet: l.sheet, ID: rec.ID, Rows: 1}, nil
}

// Delete removes the record; a missing record is not an error
func (l *Ledger) Delete(ctx context.Context, ref services.RecordRef) error {
	const op = "Delete"

	rows, err := l.find(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return nil
	}

	indices := make([]int, len(rows))
	for i, r := range rows {
		indices[i] = r.index
	}
	if err := l.grid.DeleteRows(ctx, l.sheet, indices); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	l.log.Info().Str("record_id", ref.ID).Msg("Invoice record deleted")
	return nil
}

// UpdateStatus sets the status and, when url is not empty, the PDF URL
func (l *Ledger) UpdateStatus(ctx context.Context, ref services.RecordRef, status, url string) error {
	const op = "UpdateStatus"

	r, err := l.one(ctx, ref)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	values := padRow(r.values, ledgerColumns)
	values[colLedgerStatus] = status
	if url != "" {
		values[colLedgerPDF] = url
	}
	if err := l.grid.UpdateRow(ctx, l.sheet, r.index, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	l.log.Info().
		Str("record_id", ref.ID).
		Str("status", status).
		Msg("Invoice status updated")
	return nil
}

// Status returns the record's current status
func (l *Ledger) Status(ctx context.Context, ref services.RecordRef) (string, error) {
	const op = "Status"

	r, err := l.one(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return cell(r.values, colLedgerStatus), nil
}

func (l *Ledger) one(ctx context.Context, ref services.RecordRef) (row, error) {
	rows, err := l.find(ctx, ref.ID)
	if err != nil {
		return row{}, err
	}
	if len(rows) == 0 {
		return row{}, fmt.Errorf("%w: %s", ErrRecordNotFound, ref.ID)
	}
	return rows[0], nil
}

func (l *Ledger) find(ctx context.Context, id string) ([]row, error) {
	rows, err := l.dataRows(ctx)
	if err != nil {
		return nil, err
	}
	return matching(rows, colLedgerID, id), nil
}

func (l *Ledger) dataRows(ctx context.Context) ([]row, error) {
	values, err := l.grid.Rows(ctx, l.sheet, ledgerColumns)
	if err != nil {
		return nil, err
	}
	return withIndices(values), nil
}

func recordToValues(rec *models.InvoiceRecord) []interface{} {
	return []interface{}{
		rec.ID,                             // A: ID
		rec.InvoiceNumber,                  // B: Rechnungsnr
		rec.Date,                           // C: Datum
		rec.Customer,                       // D: Kunde
		rec.CustomerID,                     // E: Kunden-ID
		rec.UserID,                         // F: Benutzer
		float64(rec.NetAmount) / 100,       // G: Netto
		float64(rec.VATAmount) / 100,       // H: MwSt
		float64(rec.GrossAmount) / 100,     // I: Brutto
		rec.Currency,                       // J: Währung
		rec.Status,                         // K: Status
		rec.PDFURL,                         // L: PDF
		rec.XMLURL,                         // M: XML
		rec.CreatedAt.Format(time.RFC3339), // N: Erstellt
	}
}

// row is a data row with its 1-based sheet row number.
type row struct {
	index  int
	values []interface{}
}

// withIndices drops the header row and numbers the rest.
func withIndices(values [][]interface{}) []row {
	if len(values) <= 1 {
		return nil
	}
	rows := make([]row, 0, len(values)-1)
	for i, v := range values[1:] {
		rows = append(rows, row{index: i + 2, values: v})
	}
	return rows
}

func matching(rows []row, col int, id string) []row {
	if id == "" {
		return nil
	}
	var out []row
	for _, r := range rows {
		if cell(r.values, col) == id {
			out = append(out, r)
		}
	}
	return out
}

func cell(values []interface{}, col int) string {
	if col >= len(values) || values[col] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(values[col]))
}

func padRow(values []interface{}, n int) []interface{} {
	out := make([]interface{}, n)
	copy(out, values)
	for i := range out {
		if out[i] == nil {
			out[i] = ""
		}
	}
	return out
}
