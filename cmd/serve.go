package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"invoicegen/internal/config"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/internal/server"
	"invoicegen/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the invoice HTTP API",
	Long: `Start the HTTP API for validation, rendering and issuing invoices.

Rendering, validation and the unit catalog work without any backend.
Issuing invoices, the status webhook and the upload routes need
GCS_BUCKET and GOOGLE_SHEET_URL; without them those routes answer 503.`,
	Example: `  invoicegen serve
  invoicegen serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{
		Checker:        invoice.NewValidator(),
		Builder:        newAssembler(cfg),
		Language:       cfg.Language(),
		Profile:        cfg.Profile(),
		Settings:       cfg.Settings,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Keys: storage.Keys{
			Bucket:    cfg.GCSBucket,
			Prefix:    cfg.StoragePathPrefix,
			PublicURL: cfg.StoragePublicURL,
		},
	}

	if cfg.RequireStorage() == nil && cfg.RequireLedger() == nil {
		b, err := openBackends(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := b.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close storage client")
			}
		}()
		deps.Creator = b.creator(cfg)
		deps.Ledger = b.ledger
		deps.Store = b.store
		deps.Keys = b.keys
	} else {
		log.Warn().Msg("GCS_BUCKET or GOOGLE_SHEET_URL not set, issuing and uploads are disabled")
	}

	log.Info().
		Str("addr", addr).
		Str("language", string(deps.Language)).
		Str("profile", string(deps.Profile)).
		Bool("backends", deps.Creator != nil).
		Msg("Starting invoice API")

	return server.New(deps).Run(ctx, addr)
}
