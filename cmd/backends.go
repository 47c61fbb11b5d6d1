package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"invoicegen/internal/booking"
	"invoicegen/internal/config"
	"invoicegen/internal/mail"
	"invoicegen/internal/sheets"
	"invoicegen/internal/storage"
	"invoicegen/internal/workflow"
)

// backends are the cloud collaborators of the create saga. The mailer is
// nil when SendGrid is not configured.
type backends struct {
	keys    storage.Keys
	store   *storage.GCSStore
	ledger  *sheets.Ledger
	journal *sheets.Journal
	mailer  *mail.SendGridMailer
	chart   booking.Chart
}

func (b *backends) Close() error {
	if b.store == nil {
		return nil
	}
	return b.store.Close()
}

// creator wires the saga over the backends.
func (b *backends) creator(cfg *config.Config) *workflow.Creator {
	deps := workflow.Deps{
		Builder:  newAssembler(cfg),
		Store:    b.store,
		Keys:     b.keys,
		Ledger:   b.ledger,
		Journal:  b.journal,
		Bookings: booking.NewService(b.chart),
	}
	if b.mailer != nil {
		deps.Mailer = b.mailer
	}
	return workflow.NewCreator(deps)
}

// openBackends connects to GCS and Google Sheets. Both are required.
func openBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	if err := errors.Join(cfg.RequireStorage(), cfg.RequireLedger()); err != nil {
		return nil, fmt.Errorf("backends not configured:\n%w", err)
	}

	chart, err := booking.ParseChart(cfg.ChartOfAccounts)
	if err != nil {
		return nil, err
	}

	b := &backends{
		keys: storage.Keys{
			Bucket:    cfg.GCSBucket,
			Prefix:    cfg.StoragePathPrefix,
			PublicURL: cfg.StoragePublicURL,
		},
		chart: chart,
	}

	b.store, err = storage.NewGCSStore(ctx, b.keys, googleOptions()...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Cloud Storage")
		return nil, fmt.Errorf("failed to connect to Cloud Storage: %w", err)
	}

	sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		_ = b.store.Close()
		if errors.Is(err, sheets.ErrMissingCredentials) {
			return nil, fmt.Errorf("missing Google credentials. Please set one of:\n" +
				"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n" +
				"  GOOGLE_CREDENTIALS='<json-credentials>'")
		}
		if errors.Is(err, sheets.ErrInvalidSheetURL) {
			return nil, fmt.Errorf("GOOGLE_SHEET_URL is not a Google Sheets URL: %s", cfg.GoogleSheetURL)
		}
		log.Error().Err(err).Msg("Failed to connect to Google Sheets")
		return nil, fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}
	b.ledger = sheets.NewLedger(sheetsService, cfg.LedgerWorksheet)
	b.journal = sheets.NewJournal(sheetsService, cfg.BookingWorksheet)

	if cfg.MailEnabled() {
		b.mailer, err = mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromAddress, cfg.MailFromName)
		if err != nil {
			_ = b.store.Close()
			return nil, fmt.Errorf("invalid SendGrid configuration: %w", err)
		}
	} else {
		log.Debug().Msg("SendGrid not configured, invoice delivery disabled")
	}

	log.Debug().
		Str("bucket", cfg.GCSBucket).
		Str("ledger", cfg.LedgerWorksheet).
		Str("journal", cfg.BookingWorksheet).
		Str("chart", chart.Name).
		Bool("mail", b.mailer != nil).
		Msg("Backends connected")
	return b, nil
}
