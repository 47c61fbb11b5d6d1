package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"invoicegen/internal/logger"
	"invoicegen/pkg/services"
)

// DefaultJournalSheet is the worksheet of the booking journal.
const DefaultJournalSheet = "Buchungen"

// Journal columns, A to P. Column A holds the posting ID shared by all rows
// of one Post call.
const (
	colJournalPosting = iota
	journalColumns    = 16
)

var journalHeaders = []string{
	"Buchungs-ID", "Belegnr", "Datum", "Periode", "Sollkonto", "Sollkonto Name",
	"Habenkonto", "Habenkonto Name", "Betrag", "Währung", "USt-Satz", "Steuerschlüssel",
	"Buchungstext", "Erläuterung", "Kontenrahmen", "Erstellt",
}

// Journal is the DATEV booking journal on one worksheet
type Journal struct {
	grid  grid
	sheet string
	log   zerolog.Logger
}

var _ services.BookingJournal = (*Journal)(nil)

// NewJournal creates a journal on sheet; empty selects DefaultJournalSheet
func NewJournal(s *Service, sheet string) *Journal {
	return newJournal(s, sheet)
}

func newJournal(g grid, sheet string) *Journal {
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultJournalSheet
	}
	return &Journal{
		grid:  g,
		sheet: sheet,
		log:   logger.WithComponent("journal").With().Str("sheet", sheet).Logger(),
	}
}

// Post appends the bookings as one posting
func (j *Journal) Post(ctx context.Context, bookings []services.DATEVBooking) (services.RecordRef, error) {
	const op = "Post"

	if err := j.grid.EnsureSheet(ctx, j.sheet, journalHeaders); err != nil {
		return services.RecordRef{}, fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()
	values := make([][]interface{}, 0, len(bookings))
	for _, b := range bookings {
		values = append(values, bookingToValues(id, b))
	}
	if err := j.grid.Append(ctx, j.sheet, values); err != nil {
		return services.RecordRef{}, fmt.Errorf("%s: %w", op, err)
	}

	j.log.Info().
		Str("posting_id", id).
		Int("bookings", len(bookings)).
		Msg("Bookings posted")

	return services.RecordRef{Sheet: j.sheet, ID: id, Rows: len(bookings)}, nil
}

// Delete removes every row of the posting; a missing posting is not an error
func (j *Journal) Delete(ctx context.Context, ref services.RecordRef) error {
	const op = "Delete"

	values, err := j.grid.Rows(ctx, j.sheet, journalColumns)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows := matching(withIndices(values), colJournalPosting, ref.ID)
	if len(rows) == 0 {
		return nil
	}

	indices := make([]int, len(rows))
	for i, r := range rows {
		indices[i] = r.index
	}
	if err := j.grid.DeleteRows(ctx, j.sheet, indices); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	j.log.Info().Str("posting_id", ref.ID).Int("rows", len(indices)).Msg("Posting deleted")
	return nil
}

func bookingToValues(postingID string, b services.DATEVBooking) []interface{} {
	return []interface{}{
		postingID,                                   // A: Buchungs-ID
		b.DocumentNumber,                            // B: Belegnr
		b.BookingDate.Format("02.01.2006"),          // C: Datum
		b.AccountingPeriod,                          // D: Periode
		b.DebitAccount,                              // E: Sollkonto
		b.DebitAccountName,                          // F: Sollkonto Name
		b.CreditAccount,                             // G: Habenkonto
		b.CreditAccountName,                         // H: Habenkonto Name
		b.Amount.InexactFloat64(),                   // I: Betrag
		b.Currency,                                  // J: Währung
		b.VATRate.InexactFloat64(),                  // K: USt-Satz
		b.TaxKey,                                    // L: Steuerschlüssel
		b.BookingText,                               // M: Buchungstext
		b.Explanation,                               // N: Erläuterung
		b.KontenrahmenType,                          // O: Kontenrahmen
		b.GeneratedAt.Format("02.01.2006 15:04:05"), // P: Erstellt
	}
}
