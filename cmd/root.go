package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"invoicegen/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoicegen",
	Short: "invoicegen - compliant German and EU invoices as PDF and XRechnung",
	Long: `invoicegen turns invoice data into an A4 PDF, an EN16931
XRechnung CII XML document and a hybrid PDF/A-3b file that carries the
XML as an attachment.

It validates invoices against a general and a strict XRechnung profile,
derives DATEV bookings, and can issue invoices end to end against Cloud
Storage, a Google Sheets ledger and SendGrid.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("invoicegen executed without a command")

		_ = cmd.Help()
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errInvoiceInvalid) {
			os.Exit(1)
		}
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
