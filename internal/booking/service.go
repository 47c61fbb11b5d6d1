// Package booking derives DATEV revenue bookings for issued invoices.
//
// Each VAT group of the invoice becomes one booking: the gross amount of the
// group is debited to the debtor account and credited to the revenue account
// of the group's rate. The mapping is deterministic, so the same invoice
// always yields the same bookings.
package booking

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/pkg/models"
	"invoicegen/pkg/services"
)

// maxBookingText is the DATEV limit for Buchungstext.
const maxBookingText = 60

// Service implements services.BookingService for one chart of accounts.
type Service struct {
	chart Chart
	clock func() time.Time
	log   zerolog.Logger
}

var _ services.BookingService = (*Service)(nil)

// NewService creates a booking service for chart.
func NewService(chart Chart) *Service {
	return &Service{
		chart: chart,
		clock: time.Now,
		log:   logger.WithComponent("booking").With().Str("chart", chart.Name).Logger(),
	}
}

// WithClock returns a copy of s that stamps bookings with clock.
func (s *Service) WithClock(clock func() time.Time) *Service {
	c := *s
	c.clock = clock
	return &c
}

// GenerateBookings creates one booking per VAT group of totals.
func (s *Service) GenerateBookings(ctx context.Context, inv *models.Invoice, totals invoice.Totals) ([]services.DATEVBooking, error) {
	const op = "GenerateBookings"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%s: %w: invoice", op, invoice.ErrMissingRequiredField)
	}

	now := s.clock()
	bookingDate, err := invoice.ParseDate(inv.Date)
	if err != nil {
		bookingDate = now
	}
	period := fmt.Sprintf("%02d%d", bookingDate.Month(), bookingDate.Year())

	bookings := make([]services.DATEVBooking, 0, len(totals.Groups))
	for _, g := range totals.Groups {
		revenue := s.chart.RevenueFor(g.Rate)
		gross := g.Basis.Add(g.Tax)

		bookings = append(bookings, services.DATEVBooking{
			BookingText:      bookingText(inv),
			DebitAccount:     s.chart.Debtors.Number,
			CreditAccount:    revenue.Number,
			Amount:           gross,
			Currency:         totals.Currency,
			TaxKey:           revenue.TaxKey,
			VATRate:          g.Rate,
			BookingDate:      bookingDate,
			DocumentNumber:   inv.Number,
			AccountingPeriod: period,
			Explanation: fmt.Sprintf("Ausgangsrechnung %s: netto %s, USt %s %% %s",
				inv.Number, g.Basis.StringFixed(2), g.Rate.String(), g.Tax.StringFixed(2)),

			DebitAccountName:  s.chart.Debtors.Name,
			CreditAccountName: revenue.Name,
			TaxKeyDescription: revenue.TaxKeyDescription,

			GeneratedAt:      now,
			KontenrahmenType: s.chart.Name,
		})
	}

	s.log.Info().
		Str("invoice_number", inv.Number).
		Int("bookings", len(bookings)).
		Str("gross", totals.Gross.StringFixed(2)).
		Msg("DATEV bookings generated")

	return bookings, nil
}

// bookingText is "RE {number} {customer}" cut to the DATEV limit.
func bookingText(inv *models.Invoice) string {
	text := "RE " + inv.Number
	if inv.Customer.Name != "" {
		text += " " + inv.Customer.Name
	}
	if utf8.RuneCountInString(text) <= maxBookingText {
		return text
	}
	return string([]rune(text)[:maxBookingText])
}
