// Package server exposes invoice generation over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/units
//	POST /api/invoices/validate?profile=
//	POST /api/invoices/pdf?lang=&profile=&xml=
//	POST /api/invoices/xrechnung?profile=
//	POST /api/invoices
//	POST /api/invoices/webhook
//	POST /api/logos/:company
//	GET  /api/customers/:id/attachments
//	POST /api/customers/:id/attachments
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"invoicegen/internal/config"
	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/internal/storage"
	"invoicegen/internal/workflow"
	"invoicegen/pkg/models"
	"invoicegen/pkg/services"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Creator issues invoices. *workflow.Creator implements it.
type Creator interface {
	Create(ctx context.Context, req workflow.Request) (*workflow.Outcome, error)
}

// Lister lists stored keys under a prefix. *storage.GCSStore implements it.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Deps are the server's collaborators. Creator, Ledger and Store are
// optional; the routes that need a missing one answer 503.
type Deps struct {
	Checker invoice.Checker
	Builder workflow.Builder
	Creator Creator
	Ledger  services.InvoiceLedger
	Store   services.ObjectStore
	Keys    storage.Keys

	Language       i18n.Language
	Profile        invoice.Profile
	Settings       config.Settings
	AllowedOrigins []string
	Clock          func() time.Time
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	engine *gin.Engine
	log    zerolog.Logger
}

// New creates the server and registers its routes.
func New(deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if !deps.Language.Valid() {
		deps.Language = i18n.German
	}
	if deps.Profile == "" {
		deps.Profile = invoice.ProfileXRechnung
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		deps:   deps,
		engine: gin.New(),
		log:    logger.WithComponent("server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), requestID(), accessLog())
	if mw := s.corsMiddleware(); mw != nil {
		r.Use(mw)
	}

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.GET("/units", s.listUnits)

	api.POST("/invoices", s.createInvoice)
	api.POST("/invoices/validate", s.validateInvoice)
	api.POST("/invoices/pdf", s.renderPDF)
	api.POST("/invoices/xrechnung", s.renderXML)
	api.POST("/invoices/webhook", s.webhook)

	api.POST("/logos/:company", s.uploadLogo)
	api.GET("/customers/:id/attachments", s.listAttachments)
	api.POST("/customers/:id/attachments", s.uploadAttachment)
}

// corsMiddleware returns nil when no usable origin is configured; the API
// then serves same-origin requests only.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	if len(s.deps.AllowedOrigins) == 0 {
		s.log.Debug().Msg("No CORS origins configured, cross-origin requests are not answered")
		return nil
	}
	cfg := cors.Config{
		AllowOrigins:     s.deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", RequestIDHeader},
		AllowCredentials: false,
	}
	if err := cfg.Validate(); err != nil {
		s.log.Warn().
			Err(err).
			Strs("origins", s.deps.AllowedOrigins).
			Msg("Invalid CORS origins, cross-origin requests are not answered")
		return nil
	}
	return cors.New(cfg)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	const op = "Run"

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", op, err)
	}
	return nil
}

// prepare applies the seller settings to inv.
func (s *Server) prepare(inv *models.Invoice) {
	s.deps.Settings.Apply(inv)
}
