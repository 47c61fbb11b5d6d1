package cmd

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"invoicegen/internal/assembler"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/internal/xrechnung"
)

var renderCmd = &cobra.Command{
	Use:   "render [invoice-file]",
	Short: "Render an invoice JSON file to a hybrid PDF/A-3b",
	Long: `Render an invoice described as JSON into an A4 PDF.

By default the PDF is a PDF/A-3b hybrid document that carries the
XRechnung (EN16931 CII) XML as the embedded file xrechnung.xml. Use
--no-xml for a plain visual PDF.

The invoice is validated first. Validation errors abort the rendering;
warnings are logged. Seller fields missing from the file are filled from
the SELLER_* environment variables.`,
	Example: `  # Render next to the input file (invoice.pdf)
  invoicegen render invoice.json

  # English document without the strict XRechnung rules
  invoicegen render invoice.json --lang en --profile general -o out.pdf

  # Visual PDF only, written to stdout
  invoicegen render invoice.json --no-xml -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var xmlCmd = &cobra.Command{
	Use:   "xml [invoice-file]",
	Short: "Generate the XRechnung CII XML for an invoice JSON file",
	Long: `Validate an invoice and write its EN16931 Cross Industry Invoice XML
(XRechnung 3.0 customization) to stdout or a file.`,
	Example: `  invoicegen xml invoice.json
  invoicegen xml invoice.json -o xrechnung.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runXML,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(xmlCmd)

	addBuildFlags(renderCmd)
	renderCmd.Flags().String("lang", "", "Document language (de or en, default: invoice field, then INVOICE_LANGUAGE)")
	renderCmd.Flags().StringP("output", "o", "", `Output file path (default: input name with .pdf, "-" for stdout)`)
	renderCmd.Flags().Bool("no-xml", false, "Write a visual PDF without embedded XML")

	addBuildFlags(xmlCmd)
	xmlCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runRender(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("render")

	settings, err := resolveBuildSettings(cmd)
	if err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")
	noXML, _ := cmd.Flags().GetBool("no-xml")

	inputPath := args[0]
	switch outputPath {
	case "":
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".pdf"
	case "-":
		outputPath = ""
	}

	log.Info().
		Str("file", inputPath).
		Str("output", outputPath).
		Str("profile", string(settings.profile)).
		Bool("visual_only", noXML).
		Msg("Starting invoice rendering")

	inv, err := readInvoiceFile(inputPath, settings.cfg.Settings, log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(time.Duration(settings.timeout)*time.Second, log)
	defer cancel()

	startTime := time.Now()
	result, err := newAssembler(settings.cfg).Build(ctx, inv, assembler.Options{
		Profile:    settings.profile,
		Render:     settings.renderOptions(inv),
		VisualOnly: noXML,
	})
	if err != nil {
		return handleBuildError(err, log)
	}

	for _, w := range result.Report.Warnings {
		log.Warn().Str("invoice_number", inv.Number).Msg(w)
	}
	log.Info().
		Str("invoice_number", inv.Number).
		Str("gross", result.Totals.Gross.StringFixed(2)).
		Str("currency", result.Totals.Currency).
		Int("bytes", len(result.PDF)).
		Dur("duration", time.Since(startTime)).
		Msg("Invoice rendered successfully")

	return writeOutput(result.PDF, outputPath, log)
}

func runXML(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("xml")

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
	if err := report.Err(); err != nil {
		return handleBuildError(err, log)
	}
	for _, w := range report.Warnings {
		log.Warn().Str("invoice_number", inv.Number).Msg(w)
	}

	data, err := xrechnung.Generate(inv, time.Now())
	if err != nil {
		return handleBuildError(err, log)
	}

	log.Info().
		Str("invoice_number", inv.Number).
		Int("bytes", len(data)).
		Msg("XRechnung XML generated successfully")

	return writeOutput(data, outputPath, log)
}
