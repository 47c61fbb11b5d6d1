package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"invoicegen/internal/logger"
	"invoicegen/internal/workflow"
)

var createCmd = &cobra.Command{
	Use:   "create [invoice-file]",
	Short: "Issue an invoice: number, ledger, bookings, documents and storage",
	Long: `Issue an invoice end to end.

The steps run in order and are rolled back in reverse when one fails:
  1. reserve the next invoice number (YYYY-MM-NNNN) unless the file has one
  2. insert the invoice into the ledger worksheet
  3. post the DATEV bookings to the journal worksheet
  4. validate and build the hybrid PDF/A-3b
  5. upload the PDF to Cloud Storage
  6. upload the XRechnung XML to Cloud Storage
  7. mark the invoice ready in the ledger

With --deliver the PDF is then mailed to the customer through SendGrid. A
failed delivery does not roll back the issued invoice.

Required environment variables:
  GCS_BUCKET - Cloud Storage bucket for invoice files
  GOOGLE_SHEET_URL - spreadsheet holding the ledger and journal
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - service account
  SENDGRID_API_KEY, MAIL_FROM_ADDRESS - only for --deliver`,
	Example: `  invoicegen create invoice.json --user u-42 --customer c-7
  invoicegen create invoice.json --user u-42 --deliver`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

// createOutput is the command's JSON result.
type createOutput struct {
	ID            string            `json:"id"`
	InvoiceNumber string            `json:"invoice_number"`
	Status        string            `json:"status"`
	PDFURL        string            `json:"pdf_url"`
	XMLURL        string            `json:"xml_url,omitempty"`
	Totals        map[string]string `json:"totals"`
	Warnings      []string          `json:"warnings,omitempty"`
	Bookings      int               `json:"bookings"`
	Delivered     bool              `json:"delivered"`
	DeliveryError string            `json:"delivery_error,omitempty"`
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().String("lang", "", "Document language (de or en, default: invoice field, then INVOICE_LANGUAGE)")
	createCmd.Flags().String("profile", "", "Validation profile (general or xrechnung, default: VALIDATION_PROFILE)")
	createCmd.Flags().Int("timeout", 120, "Timeout in seconds")
	createCmd.Flags().String("user", "", "Owner user ID, used in the storage paths (required)")
	createCmd.Flags().String("customer", "", "Customer ID recorded in the ledger")
	createCmd.Flags().String("id", "", "Invoice record ID (default: new UUID)")
	createCmd.Flags().Bool("deliver", false, "Mail the invoice to the customer after issuing")
	createCmd.Flags().StringP("output", "o", "", "Output file path for the JSON result (default: stdout)")
	_ = createCmd.MarkFlagRequired("user")
}

func runCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("create")

	settings, err := resolveBuildSettings(cmd)
	if err != nil {
		return err
	}
	userID, _ := cmd.Flags().GetString("user")
	customerID, _ := cmd.Flags().GetString("customer")
	invoiceID, _ := cmd.Flags().GetString("id")
	deliver, _ := cmd.Flags().GetBool("deliver")
	outputPath, _ := cmd.Flags().GetString("output")

	if deliver && !settings.cfg.MailEnabled() {
		return fmt.Errorf("--deliver needs SENDGRID_API_KEY and MAIL_FROM_ADDRESS")
	}

	inv, err := readInvoiceFile(args[0], settings.cfg.Settings, log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(time.Duration(settings.timeout)*time.Second, log)
	defer cancel()

	b, err := openBackends(ctx, settings.cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close storage client")
		}
	}()

	log.Info().
		Str("user_id", userID).
		Str("customer_id", customerID).
		Str("profile", string(settings.profile)).
		Bool("deliver", deliver).
		Msg("Starting invoice creation")

	startTime := time.Now()
	outcome, err := b.creator(settings.cfg).Create(ctx, workflow.Request{
		Invoice:    inv,
		UserID:     userID,
		CustomerID: customerID,
		InvoiceID:  invoiceID,
		Profile:    settings.profile,
		Render:     settings.renderOptions(inv),
		Deliver:    deliver,
	})
	if err != nil {
		return handleCreateError(err, log)
	}

	out := createOutput{
		ID:            outcome.Record.ID,
		InvoiceNumber: outcome.Record.InvoiceNumber,
		Status:        outcome.Status,
		PDFURL:        outcome.PDFURL,
		XMLURL:        outcome.XMLURL,
		Totals: map[string]string{
			"net":      outcome.Result.Totals.Net.StringFixed(2),
			"tax":      outcome.Result.Totals.Tax.StringFixed(2),
			"gross":    outcome.Result.Totals.Gross.StringFixed(2),
			"currency": outcome.Result.Totals.Currency,
		},
		Warnings:  outcome.Result.Report.Warnings,
		Bookings:  len(outcome.Bookings),
		Delivered: outcome.Delivered,
	}
	if outcome.DeliveryErr != nil {
		out.DeliveryError = workflow.Message(outcome.DeliveryErr)
	}

	log.Info().
		Str("invoice_number", out.InvoiceNumber).
		Str("status", out.Status).
		Str("pdf_url", out.PDFURL).
		Dur("duration", time.Since(startTime)).
		Msg("Invoice created successfully")

	return writeJSON(out, outputPath, log)
}

// handleCreateError reports the saga failure and whether it was rolled
// back cleanly.
func handleCreateError(err error, log zerolog.Logger) error {
	var sagaErr *workflow.SagaError
	if errors.As(err, &sagaErr) && !sagaErr.RolledBack() {
		log.Error().
			Err(sagaErr.Compensation).
			Str("step", sagaErr.Step).
			Msg("Rollback incomplete, manual cleanup required")
		return fmt.Errorf("%w\nrollback after step %q was incomplete, check the ledger and the bucket: %v",
			handleBuildError(err, log), sagaErr.Step, sagaErr.Compensation)
	}
	return handleBuildError(err, log)
}
