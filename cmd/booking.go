package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"invoicegen/internal/booking"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/pkg/models"
	"invoicegen/pkg/services"
)

var bookingCmd = &cobra.Command{
	Use:   "booking [invoice-file]",
	Short: "Generate DATEV revenue bookings for an invoice JSON file",
	Long: `Derive the DATEV accounting entries for an outgoing invoice.

Each VAT group of the invoice becomes one booking: the gross amount of the
group is debited to the debtor account and credited to the revenue account
of the group's rate (SKR03 8400/8300/8120, SKR04 4400/4300/4100).

The chart of accounts defaults to CHART_OF_ACCOUNTS.`,
	Example: `  # Console output
  invoicegen booking invoice.json

  # JSON output with the SKR04 chart
  invoicegen booking invoice.json --json --skr SKR04`,
	Args: cobra.ExactArgs(1),
	RunE: runBooking,
}

func init() {
	rootCmd.AddCommand(bookingCmd)

	addBuildFlags(bookingCmd)
	bookingCmd.Flags().String("skr", "", "Kontenrahmen (SKR03 or SKR04, default: CHART_OF_ACCOUNTS)")
	bookingCmd.Flags().Bool("json", false, "Output as JSON format")
	bookingCmd.Flags().Bool("verbose", false, "Show detailed explanation")
	bookingCmd.Flags().StringP("output", "o", "", "Output file path for --json (default: stdout)")
}

func runBooking(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("booking")

	settings, err := resolveBuildSettings(cmd)
	if err != nil {
		return err
	}
	skr, _ := cmd.Flags().GetString("skr")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	outputPath, _ := cmd.Flags().GetString("output")

	if skr == "" {
		skr = settings.cfg.ChartOfAccounts
	}
	chart, err := booking.ParseChart(skr)
	if err != nil {
		return fmt.Errorf("unsupported chart of accounts %q (must be SKR03 or SKR04)", skr)
	}

	inv, err := readInvoiceFile(args[0], settings.cfg.Settings, log)
	if err != nil {
		return err
	}

	report := invoice.NewValidator().Validate(inv, settings.profile)
	if err := report.Err(); err != nil {
		return handleBuildError(err, log)
	}

	ctx, cancel := commandContext(time.Duration(settings.timeout)*time.Second, log)
	defer cancel()

	startTime := time.Now()
	totals := invoice.ComputeTotals(inv)
	bookings, err := booking.NewService(chart).GenerateBookings(ctx, inv, totals)
	if err != nil {
		return handleBuildError(err, log)
	}
	duration := time.Since(startTime)

	log.Info().
		Str("invoice_number", inv.Number).
		Str("chart", chart.Name).
		Int("bookings", len(bookings)).
		Str("gross", totals.Gross.StringFixed(2)).
		Dur("duration", duration).
		Msg("DATEV bookings generated successfully")

	if jsonOutput {
		return writeJSON(map[string]any{
			"invoice_number": inv.Number,
			"bookings":       bookings,
			"metadata": map[string]any{
				"processing_duration_ms": duration.Milliseconds(),
				"generated_at":           time.Now(),
				"tool_version":           version,
			},
		}, outputPath, log)
	}
	return outputBookingConsole(inv, totals, bookings, verbose, duration)
}

// outputBookingConsole prints the bookings in a formatted console display.
func outputBookingConsole(inv *models.Invoice, totals invoice.Totals, bookings []services.DATEVBooking, verbose bool, duration time.Duration) error {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                           DATEV BUCHUNGSSATZ")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("=== RECHNUNGSDATEN ===")
	fmt.Printf("Rechnungsnummer: %s\n", inv.Number)
	fmt.Println("Typ: AUSGANGSRECHNUNG")
	if inv.Customer.Name != "" {
		fmt.Printf("Kunde: %s\n", inv.Customer.Name)
	}
	fmt.Printf("Betrag: %s %s (Netto: %s, USt: %s)\n",
		totals.Gross.StringFixed(2), totals.Currency, totals.Net.StringFixed(2), totals.Tax.StringFixed(2))
	if inv.Date != "" {
		if d, err := invoice.ParseDate(inv.Date); err == nil {
			fmt.Printf("Rechnungsdatum: %s\n", d.Format("02.01.2006"))
		}
	}
	fmt.Println()

	for i, b := range bookings {
		fmt.Printf("=== BUCHUNG %d/%d (%s) ===\n", i+1, len(bookings), b.KontenrahmenType)
		fmt.Printf("Sollkonto: %s - %s\n", b.DebitAccount, b.DebitAccountName)
		fmt.Printf("Habenkonto: %s - %s\n", b.CreditAccount, b.CreditAccountName)
		fmt.Printf("Betrag: %s %s\n", b.Amount.StringFixed(2), b.Currency)
		taxKey := b.TaxKey
		if taxKey == "" {
			taxKey = "-"
		}
		fmt.Printf("Steuerschlüssel: %s (%s)\n", taxKey, b.TaxKeyDescription)
		fmt.Printf("Buchungstext: %s\n", b.BookingText)
		fmt.Printf("Belegnummer: %s\n", b.DocumentNumber)
		fmt.Printf("Buchungsdatum: %s\n", b.BookingDate.Format("02.01.2006"))
		fmt.Printf("Buchungsperiode: %s\n", b.AccountingPeriod)
		if verbose && b.Explanation != "" {
			fmt.Printf("Erläuterung: %s\n", b.Explanation)
		}
		fmt.Println()
	}

	if verbose && len(bookings) > 0 {
		fmt.Println("=== DETAILLIERTE INFORMATIONEN ===")
		fmt.Printf("Verarbeitungszeit: %.3f Sekunden\n", duration.Seconds())
		fmt.Printf("Generiert am: %s\n", bookings[0].GeneratedAt.Format("02.01.2006 15:04:05"))
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 80))
	return nil
}
