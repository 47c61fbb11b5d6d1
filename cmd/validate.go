package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
)

// errInvoiceInvalid makes the process exit with status 1 after the report
// has been written.
var errInvoiceInvalid = errors.New("invoice is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate [invoice-file]",
	Short: "Validate an invoice JSON file and print the report",
	Long: `Run the validation profile against an invoice and print the report as
JSON: {"profile", "valid", "errors", "warnings"}.

The general profile checks the structure of the invoice. The xrechnung
profile adds the German e-invoicing rules (BR-DE-*). The command exits
with status 1 when the report has errors; warnings never fail it.`,
	Example: `  invoicegen validate invoice.json
  invoicegen validate invoice.json --profile general`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addBuildFlags(validateCmd)
	validateCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")

	settings, err := resolveBuildSettings(cmd)
	if err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")

	inv, err := readInvoiceFile(args[0], settings.cfg.Settings, log)
	if err != nil {
		return err
	}

	report := invoice.NewValidator().Validate(inv, settings.profile)

	log.Info().
		Str("invoice_number", inv.Number).
		Str("profile", string(report.Profile)).
		Bool("valid", report.Valid).
		Int("errors", len(report.Errors)).
		Int("warnings", len(report.Warnings)).
		Msg("Invoice validated")

	if err := writeJSON(report, outputPath, log); err != nil {
		return err
	}
	if !report.Valid {
		return errInvoiceInvalid
	}
	return nil
}
