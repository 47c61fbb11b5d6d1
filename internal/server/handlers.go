package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"invoicegen/internal/assembler"
	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/internal/render"
	"invoicegen/internal/sheets"
	"invoicegen/internal/storage"
	"invoicegen/internal/units"
	"invoicegen/internal/workflow"
	"invoicegen/internal/xrechnung"
	"invoicegen/pkg/models"
	"invoicegen/pkg/services"
)

// Upload limits.
const (
	maxLogoBytes       = 5 << 20
	maxAttachmentBytes = 20 << 20
)

type errorBody struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listUnits(c *gin.Context) {
	c.JSON(http.StatusOK, units.All())
}

func (s *Server) validateInvoice(c *gin.Context) {
	inv, ok := s.bindInvoice(c)
	if !ok {
		return
	}
	profile, ok := s.profile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.deps.Checker.Validate(inv, profile))
}

func (s *Server) renderPDF(c *gin.Context) {
	inv, ok := s.bindInvoice(c)
	if !ok {
		return
	}
	opts, ok := s.buildOptions(c, inv)
	if !ok {
		return
	}
	opts.VisualOnly = c.Query("xml") == "false"

	res, err := s.deps.Builder.Build(c.Request.Context(), inv, opts)
	if err != nil {
		s.fail(c, workflow.ClassifyBuild("pdf", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName(inv.Number, ".pdf")))
	c.Data(http.StatusOK, "application/pdf", res.PDF)
}

func (s *Server) renderXML(c *gin.Context) {
	inv, ok := s.bindInvoice(c)
	if !ok {
		return
	}
	profile, ok := s.profile(c)
	if !ok {
		return
	}

	if err := s.deps.Checker.Validate(inv, profile).Err(); err != nil {
		s.fail(c, workflow.ClassifyBuild("xrechnung", err))
		return
	}
	data, err := xrechnung.Generate(inv, s.deps.Clock())
	if err != nil {
		s.fail(c, workflow.NewWorkflowError(workflow.KindRendering, "xrechnung", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, xrechnung.DefaultDocumentFileName))
	c.Data(http.StatusOK, "application/xml", data)
}

type createRequest struct {
	Invoice    models.Invoice `json:"invoice"`
	UserID     string         `json:"userId"`
	CustomerID string         `json:"customerId,omitempty"`
	InvoiceID  string         `json:"invoiceId,omitempty"`
	Deliver    bool           `json:"deliver"`
}

type createResponse struct {
	ID            string                 `json:"id"`
	InvoiceNumber string                 `json:"invoiceNumber"`
	Status        string                 `json:"status"`
	PDFURL        string                 `json:"pdfUrl"`
	XMLURL        string                 `json:"xmlUrl"`
	Bookings      int                    `json:"bookings"`
	Ledger        services.RecordRef     `json:"ledger"`
	Warnings      []string               `json:"warnings"`
	Delivered     bool                   `json:"delivered"`
	DeliveryError string                 `json:"deliveryError,omitempty"`
	Totals        map[string]interface{} `json:"totals"`
}

func (s *Server) createInvoice(c *gin.Context) {
	if s.deps.Creator == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "invoice creation is not configured"})
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "userId is required"})
		return
	}
	s.prepare(&req.Invoice)

	opts, ok := s.buildOptions(c, &req.Invoice)
	if !ok {
		return
	}

	out, err := s.deps.Creator.Create(c.Request.Context(), workflow.Request{
		Invoice:    &req.Invoice,
		UserID:     req.UserID,
		CustomerID: req.CustomerID,
		InvoiceID:  req.InvoiceID,
		Profile:    opts.Profile,
		Render:     opts.Render,
		Deliver:    req.Deliver,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := createResponse{
		ID:            out.Record.ID,
		InvoiceNumber: out.Record.InvoiceNumber,
		Status:        out.Status,
		PDFURL:        out.PDFURL,
		XMLURL:        out.XMLURL,
		Bookings:      len(out.Bookings),
		Ledger:        out.Ref,
		Warnings:      out.Result.Report.Warnings,
		Delivered:     out.Delivered,
		Totals: map[string]interface{}{
			"currency": out.Result.Totals.Currency,
			"net":      out.Result.Totals.Net.StringFixed(2),
			"vat":      out.Result.Totals.Tax.StringFixed(2),
			"gross":    out.Result.Totals.Gross.StringFixed(2),
		},
	}
	if out.DeliveryErr != nil {
		resp.DeliveryError = workflow.Message(out.DeliveryErr)
	}
	c.JSON(http.StatusCreated, resp)
}

type webhookRequest struct {
	ID            string `json:"id"`
	Action        string `json:"action"`
	InvoiceNumber string `json:"invoiceNumber"`
	URL           string `json:"url"`
}

// webhook applies a delivery status transition reported by the mail side.
func (s *Server) webhook(c *gin.Context) {
	if s.deps.Ledger == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "invoice ledger is not configured"})
		return
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" || req.Action == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Missing required fields: id, action"})
		return
	}

	ctx := c.Request.Context()
	ref := services.RecordRef{ID: req.ID}
	current, err := s.deps.Ledger.Status(ctx, ref)
	if errors.Is(err, sheets.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Error: "Invoice not found"})
		return
	}
	if err != nil {
		s.fail(c, workflow.NewWorkflowError(workflow.KindLedger, "webhook", err))
		return
	}

	next, err := invoice.NextStatus(current, req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid action"})
		return
	}

	url := req.URL
	switch req.Action {
	case invoice.ActionReadyForDelivery:
		if req.InvoiceNumber == "" || req.URL == "" {
			c.JSON(http.StatusBadRequest, errorBody{Error: "Missing fields for invoice_ready_for_delivery: invoiceNumber, url"})
			return
		}
	case invoice.ActionSent:
		url = ""
	}

	if err := s.deps.Ledger.UpdateStatus(ctx, ref, next, url); err != nil {
		s.fail(c, workflow.NewWorkflowError(workflow.KindLedger, "webhook", err))
		return
	}

	logger.WithContext(ctx).Info().
		Str("record_id", req.ID).
		Str("action", req.Action).
		Str("from", current).
		Str("to", next).
		Msg("Invoice status updated")

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Invoice updated to " + next})
}

func (s *Server) uploadLogo(c *gin.Context) {
	data, name, contentType, ok := s.readUpload(c, maxLogoBytes)
	if !ok {
		return
	}

	logo, err := render.NewLogo(data, contentType, name)
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, errorBody{Error: "logo must be a PNG or JPEG image"})
		return
	}
	contentType = "image/jpeg"
	if logo.Type == render.ImagePNG {
		contentType = "image/png"
	}

	key := s.deps.Keys.Logo(c.Param("company"), contentType)
	url, err := s.deps.Store.Put(c.Request.Context(), key, data, contentType)
	if err != nil {
		s.fail(c, workflow.NewWorkflowError(workflow.KindStorage, "logo", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "key": key})
}

func (s *Server) uploadAttachment(c *gin.Context) {
	data, name, contentType, ok := s.readUpload(c, maxAttachmentBytes)
	if !ok {
		return
	}

	key := s.deps.Keys.Attachment(c.Param("id"), name, s.deps.Clock())
	url, err := s.deps.Store.Put(c.Request.Context(), key, data, contentType)
	if err != nil {
		s.fail(c, workflow.NewWorkflowError(workflow.KindStorage, "attachment", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "key": key})
}

func (s *Server) listAttachments(c *gin.Context) {
	lister, ok := s.deps.Store.(Lister)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "attachment listing is not supported"})
		return
	}

	keys, err := lister.List(c.Request.Context(), s.deps.Keys.Attachments(c.Param("id")))
	if err != nil {
		s.fail(c, workflow.NewWorkflowError(workflow.KindStorage, "attachments", err))
		return
	}

	urls := make([]string, 0, len(keys))
	for _, k := range keys {
		urls = append(urls, s.deps.Keys.URL(k))
	}
	c.JSON(http.StatusOK, gin.H{"attachments": urls})
}

// readUpload reads the multipart "file" field.
func (s *Server) readUpload(c *gin.Context, limit int64) (data []byte, name, contentType string, ok bool) {
	if s.deps.Store == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "document storage is not configured"})
		return nil, "", "", false
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "No file uploaded"})
		return nil, "", "", false
	}
	if fh.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, errorBody{Error: fmt.Sprintf("file exceeds %d bytes", limit)})
		return nil, "", "", false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "unreadable upload"})
		return nil, "", "", false
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "unreadable upload"})
		return nil, "", "", false
	}

	contentType = fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, fh.Filename, contentType, true
}

func (s *Server) bindInvoice(c *gin.Context) (*models.Invoice, bool) {
	var inv models.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid invoice: " + err.Error()})
		return nil, false
	}
	s.prepare(&inv)
	return &inv, true
}

func (s *Server) profile(c *gin.Context) (invoice.Profile, bool) {
	raw := c.Query("profile")
	if raw == "" {
		return s.deps.Profile, true
	}
	profile, err := invoice.ParseProfile(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return "", false
	}
	return profile, true
}

func (s *Server) buildOptions(c *gin.Context, inv *models.Invoice) (assembler.Options, bool) {
	profile, ok := s.profile(c)
	if !ok {
		return assembler.Options{}, false
	}

	var lang i18n.Language
	if raw := c.Query("lang"); raw != "" {
		parsed, err := i18n.ParseLanguage(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
			return assembler.Options{}, false
		}
		lang = parsed
	} else if _, err := i18n.ParseLanguage(inv.Language); err != nil {
		lang = s.deps.Language
	}

	resolved := render.ResolveLanguage(inv, lang)
	return assembler.Options{
		Profile: profile,
		Render: render.Options{
			Language: lang,
			Greeting: s.deps.Settings.GreetingFor(resolved),
		},
	}, true
}

// fail writes err with a status matching its kind.
func (s *Server) fail(c *gin.Context, err error) {
	body := errorBody{Error: workflow.Message(err), Kind: string(workflow.KindOf(err))}

	var verr *invoice.ValidationError
	if errors.As(err, &verr) {
		body.Details = verr.Errors
	}

	status := http.StatusInternalServerError
	switch workflow.KindOf(err) {
	case workflow.KindValidation:
		status = http.StatusUnprocessableEntity
	case workflow.KindStorage:
		status = http.StatusBadGateway
		if errors.Is(err, storage.ErrPermissionDenied) {
			status = http.StatusForbidden
		}
	case workflow.KindLedger, workflow.KindDelivery:
		status = http.StatusBadGateway
	}

	log := logger.WithContext(c.Request.Context())
	log.Error().Err(err).Int("status", status).Msg("Request failed")
	c.JSON(status, body)
}

func fileName(number, ext string) string {
	if number == "" {
		return "invoice" + ext
	}
	return strings.NewReplacer("/", "_", `"`, "_").Replace(number) + ext
}
