package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
	"invoicegen/internal/assembler"
	"invoicegen/internal/config"
	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/internal/render"
	"invoicegen/internal/workflow"
	"invoicegen/pkg/models"
)

// maxInvoiceFileBytes bounds the invoice JSON read from disk.
const maxInvoiceFileBytes = 5 * 1024 * 1024

// addBuildFlags registers the flags shared by the document commands.
// Commands that lay out a page also register --lang.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "Validation profile (general or xrechnung, default: VALIDATION_PROFILE)")
	cmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

// buildSettings carries the resolved flag values of a document command.
type buildSettings struct {
	cfg      *config.Config
	profile  invoice.Profile
	language i18n.Language
	timeout  int
}

func resolveBuildSettings(cmd *cobra.Command) (*buildSettings, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &buildSettings{cfg: cfg, profile: cfg.Profile()}

	if raw, _ := cmd.Flags().GetString("profile"); raw != "" {
		if s.profile, err = invoice.ParseProfile(raw); err != nil {
			return nil, err
		}
	}
	if raw, _ := cmd.Flags().GetString("lang"); raw != "" {
		if s.language, err = i18n.ParseLanguage(raw); err != nil {
			return nil, err
		}
	}
	s.timeout, _ = cmd.Flags().GetInt("timeout")
	if s.timeout <= 0 {
		return nil, fmt.Errorf("--timeout must be positive, got %d", s.timeout)
	}
	return s, nil
}

// renderOptions resolves the document language and the greeting. An
// explicit --lang wins over the invoice field, which wins over the
// configured default.
func (s *buildSettings) renderOptions(inv *models.Invoice) render.Options {
	lang := s.language
	if !lang.Valid() {
		parsed, err := i18n.ParseLanguage(inv.Language)
		if err != nil {
			parsed = s.cfg.Language()
		}
		lang = parsed
	}
	return render.Options{
		Language: lang,
		Greeting: s.cfg.Settings.GreetingFor(lang),
	}
}

func newAssembler(cfg *config.Config) *assembler.Assembler {
	renderer := render.NewRenderer(render.NewLogoFetcher(cfg.LogoFetchTimeout))
	return assembler.New(invoice.NewValidator(), renderer, nil)
}

// readInvoiceFile loads an invoice JSON document and applies the seller
// settings to it.
func readInvoiceFile(path string, settings config.Settings, log zerolog.Logger) (*models.Invoice, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", path).
				Msg("Invoice file not found")
			return nil, fmt.Errorf("invoice file not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", path).
				Msg("Permission denied accessing invoice file")
			return nil, fmt.Errorf("permission denied accessing invoice file: %s", path)
		}
		return nil, fmt.Errorf("error accessing invoice file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		log.Warn().
			Str("file", path).
			Msg("File does not have .json extension")
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("invoice file is empty: %s", path)
	}
	if fileInfo.Size() > maxInvoiceFileBytes {
		return nil, fmt.Errorf("invoice file too large (%d bytes). Maximum size is %d bytes",
			fileInfo.Size(), int64(maxInvoiceFileBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice file: %w", err)
	}

	var inv models.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		log.Error().
			Err(err).
			Str("file", path).
			Msg("Invoice file is not valid JSON")
		return nil, fmt.Errorf("invoice file is not a valid invoice document: %w", err)
	}
	settings.Apply(&inv)

	log.Debug().
		Str("file", path).
		Str("invoice_number", inv.Number).
		Int("items", len(inv.Items)).
		Msg("Invoice file loaded")
	return &inv, nil
}

// commandContext creates a context with timeout that is also canceled on
// SIGINT and SIGTERM.
func commandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(data []byte, path string, log zerolog.Logger) error {
	if path == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", path).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", path).
		Int("bytes", len(data)).
		Msg("Output written to file")
	return nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(v any, path string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(append(data, '\n'), path, log)
}

// googleOptions returns client options for the Google APIs. Inline
// GOOGLE_CREDENTIALS wins; otherwise the client falls back to
// GOOGLE_APPLICATION_CREDENTIALS via application default credentials.
func googleOptions() []option.ClientOption {
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS")); creds != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return nil
}

// handleBuildError provides user-friendly messages for document failures.
func handleBuildError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Invoice processing failed")

	var verr *invoice.ValidationError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("invoice processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("invoice processing was canceled")
	case errors.As(err, &verr):
		return fmt.Errorf("the invoice data is invalid:\n  %s", strings.Join(verr.Errors, "\n  "))
	case workflow.KindOf(err) != "":
		return errors.New(workflow.Message(err))
	default:
		return fmt.Errorf("invoice processing failed: %w", err)
	}
}
