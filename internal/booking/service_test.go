package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"invoicegen/internal/invoice"
	"invoicegen/pkg/models"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
}

func mixedInvoice() *models.Invoice {
	return &models.Invoice{
		Number:   "2024-03-0004",
		Date:     "2024-03-15",
		Customer: models.Customer{Name: "Erika Mustermann"},
		Items: []models.LineItem{
			{Description: "Beratung", Quantity: 1, Unit: "piece", UnitPrice: 100, VATRate: models.Rate(19)},
			{Description: "Fachbuch", Quantity: 2, Unit: "piece", UnitPrice: 25, VATRate: models.Rate(7)},
			{Description: "Export", Quantity: 1, Unit: "piece", UnitPrice: 30, VATRate: models.Rate(0)},
		},
	}
}

func TestGenerateBookings(t *testing.T) {
	tests := []struct {
		chart      Chart
		wantDebtor string
		wantCredit []string // ascending by rate: 0, 7, 19
	}{
		{SKR03, "1400", []string{"8120", "8300", "8400"}},
		{SKR04, "1200", []string{"4100", "4300", "4400"}},
	}

	for _, tt := range tests {
		t.Run(tt.chart.Name, func(t *testing.T) {
			inv := mixedInvoice()
			totals := invoice.ComputeTotals(inv)

			got, err := NewService(tt.chart).WithClock(fixedClock).GenerateBookings(context.Background(), inv, totals)
			if err != nil {
				t.Fatalf("GenerateBookings() error = %v", err)
			}
			if len(got) != len(tt.wantCredit) {
				t.Fatalf("got %d bookings, want %d", len(got), len(tt.wantCredit))
			}

			sum := decimal.Zero
			for i, b := range got {
				if b.DebitAccount != tt.wantDebtor {
					t.Errorf("[%d] DebitAccount = %s, want %s", i, b.DebitAccount, tt.wantDebtor)
				}
				if b.CreditAccount != tt.wantCredit[i] {
					t.Errorf("[%d] CreditAccount = %s, want %s", i, b.CreditAccount, tt.wantCredit[i])
				}
				if b.TaxKey != "" {
					t.Errorf("[%d] TaxKey = %q, automatic accounts take no key", i, b.TaxKey)
				}
				if b.AccountingPeriod != "032024" {
					t.Errorf("[%d] AccountingPeriod = %s", i, b.AccountingPeriod)
				}
				if b.KontenrahmenType != tt.chart.Name {
					t.Errorf("[%d] KontenrahmenType = %s", i, b.KontenrahmenType)
				}
				if !b.GeneratedAt.Equal(fixedClock()) {
					t.Errorf("[%d] GeneratedAt = %v", i, b.GeneratedAt)
				}
				sum = sum.Add(b.Amount)
			}

			if !sum.Equal(totals.Gross) {
				t.Errorf("booked %s, invoice gross %s", sum, totals.Gross)
			}
			if got[2].Amount.StringFixed(2) != "119.00" || got[1].Amount.StringFixed(2) != "53.50" {
				t.Errorf("amounts = %s, %s", got[1].Amount, got[2].Amount)
			}
		})
	}
}

func TestGenerateBookingsUnusualRate(t *testing.T) {
	inv := mixedInvoice()
	inv.Items = []models.LineItem{{Description: "X", Quantity: 1, Unit: "piece", UnitPrice: 10, VATRate: models.Rate(10.7)}}

	got, err := NewService(SKR03).GenerateBookings(context.Background(), inv, invoice.ComputeTotals(inv))
	if err != nil {
		t.Fatalf("GenerateBookings() error = %v", err)
	}
	if got[0].CreditAccount != "8200" || !strings.Contains(got[0].TaxKeyDescription, "manuell") {
		t.Errorf("booking = %+v, want fallback revenue account", got[0])
	}
}

func TestGenerateBookingsBadDateUsesClock(t *testing.T) {
	inv := mixedInvoice()
	inv.Date = "15.03.2024"

	got, err := NewService(SKR03).WithClock(fixedClock).GenerateBookings(context.Background(), inv, invoice.ComputeTotals(inv))
	if err != nil {
		t.Fatalf("GenerateBookings() error = %v", err)
	}
	if !got[0].BookingDate.Equal(fixedClock()) {
		t.Errorf("BookingDate = %v, want clock", got[0].BookingDate)
	}
}

func TestGenerateBookingsErrors(t *testing.T) {
	s := NewService(SKR03)

	if _, err := s.GenerateBookings(context.Background(), nil, invoice.Totals{}); !errors.Is(err, invoice.ErrMissingRequiredField) {
		t.Errorf("nil invoice error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.GenerateBookings(ctx, mixedInvoice(), invoice.Totals{}); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled error = %v", err)
	}
}

func TestBookingText(t *testing.T) {
	inv := &models.Invoice{Number: "2024-03-0001", Customer: models.Customer{Name: strings.Repeat("Ä", 80)}}
	got := bookingText(inv)
	if n := len([]rune(got)); n != maxBookingText {
		t.Errorf("len = %d, want %d", n, maxBookingText)
	}
	if !strings.HasPrefix(got, "RE 2024-03-0001 ÄÄ") {
		t.Errorf("bookingText = %q", got)
	}
}

func TestParseChart(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "SKR03", false},
		{"skr03", "SKR03", false},
		{" SKR04 ", "SKR04", false},
		{"SKR49", "", true},
	}
	for _, tt := range tests {
		got, err := ParseChart(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseChart(%q) error = %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownChart) {
			t.Errorf("ParseChart(%q) error = %v, want ErrUnknownChart", tt.in, err)
		}
		if got.Name != tt.want {
			t.Errorf("ParseChart(%q) = %s, want %s", tt.in, got.Name, tt.want)
		}
	}
}
