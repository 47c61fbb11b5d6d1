// Package workflow issues invoices: it reserves a number, records the
// invoice in the ledger, posts its bookings, builds the hybrid PDF, stores
// both documents and marks the invoice ready for delivery.
//
// The steps run as a saga. When one fails, the side effects of the
// committed steps are undone in reverse order, so a failed issue leaves no
// ledger row, no bookings and no orphaned files behind. Delivery by email
// happens after the saga commits and is never rolled back.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"invoicegen/internal/assembler"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
	"invoicegen/internal/mail"
	"invoicegen/internal/render"
	"invoicegen/internal/storage"
	"invoicegen/pkg/models"
	"invoicegen/pkg/services"
)

// Step names, in execution order.
const (
	StepReserveNumber  = "reserve-number"
	StepInsertRecord   = "insert-record"
	StepPostBookings   = "post-bookings"
	StepBuildDocuments = "build-documents"
	StepUploadPDF      = "upload-pdf"
	StepUploadXML      = "upload-xml"
	StepMarkReady      = "mark-ready"
)

const contentTypeXML = "application/xml"

// Builder produces the hybrid invoice. *assembler.Assembler implements it.
type Builder interface {
	Build(ctx context.Context, inv *models.Invoice, opts assembler.Options) (*assembler.Result, error)
}

var _ Builder = (*assembler.Assembler)(nil)

// Deps are the collaborators of a Creator. Journal, Bookings and Mailer
// are optional.
type Deps struct {
	Builder  Builder
	Store    services.ObjectStore
	Keys     storage.Keys
	Ledger   services.InvoiceLedger
	Journal  services.BookingJournal
	Bookings services.BookingService
	Mailer   services.Mailer

	Clock               func() time.Time
	CompensationTimeout time.Duration
}

// Request describes one invoice to issue.
type Request struct {
	Invoice    *models.Invoice
	UserID     string
	CustomerID string

	// InvoiceID is the record ID; empty assigns a new uuid.
	InvoiceID string

	Profile invoice.Profile
	Render  render.Options

	// Deliver mails the PDF to the customer after issuing.
	Deliver bool
}

// Outcome is the result of a successful issue.
type Outcome struct {
	Record     *models.InvoiceRecord
	Ref        services.RecordRef
	BookingRef services.RecordRef
	Bookings   []services.DATEVBooking
	Result     *assembler.Result

	PDFURL string
	XMLURL string
	Status string

	Delivered   bool
	DeliveryErr error
}

// Creator runs the create-invoice saga.
type Creator struct {
	deps Deps
	log  zerolog.Logger
}

// NewCreator creates a Creator.
func NewCreator(deps Deps) *Creator {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Creator{
		deps: deps,
		log:  logger.WithComponent("workflow"),
	}
}

// issue is the state shared by the steps of one Create call.
type issue struct {
	req     Request
	inv     models.Invoice
	profile invoice.Profile
	now     time.Time
	totals  invoice.Totals
	rec     *models.InvoiceRecord
	pdfKey  string
	xmlKey  string
	out     *Outcome
	log     zerolog.Logger
}

func (c *Creator) newIssue(req Request) *issue {
	is := &issue{
		req:     req,
		inv:     *req.Invoice,
		profile: req.Profile,
		now:     c.deps.Clock(),
		out:     &Outcome{},
		log:     c.log,
	}
	if is.profile == "" {
		is.profile = invoice.ProfileXRechnung
	}
	return is
}

// Create issues req.Invoice. The caller's invoice is not modified; the
// issued copy, with its assigned number, is in Outcome.Record and
// Outcome.Result.
func (c *Creator) Create(ctx context.Context, req Request) (*Outcome, error) {
	const op = "Create"

	if req.Invoice == nil {
		return nil, NewWorkflowError(KindValidation, op, fmt.Errorf("%w: invoice", invoice.ErrMissingRequiredField))
	}

	is := c.newIssue(req)
	start := time.Now()

	saga := NewSaga(c.log, c.steps(is)...).WithCompensationTimeout(c.deps.CompensationTimeout)
	if err := saga.Run(ctx); err != nil {
		is.log.Error().
			Err(err).
			Str("kind", string(KindOf(err))).
			Msg("Invoice creation rolled back")
		return nil, err
	}

	out := is.out
	is.rec.Status = out.Status
	is.rec.PDFURL = out.PDFURL
	is.rec.XMLURL = out.XMLURL
	out.Record = is.rec

	is.log.Info().
		Str("record_id", is.rec.ID).
		Str("pdf_url", out.PDFURL).
		Int("bookings", len(out.Bookings)).
		Dur("duration", time.Since(start)).
		Msg("Invoice issued")

	if req.Deliver && c.deps.Mailer != nil {
		c.deliver(ctx, is)
	}

	return out, nil
}

func (c *Creator) steps(is *issue) []Step {
	return []Step{
		{Name: StepReserveNumber, Do: is.bind(c.reserveNumber)},
		{Name: StepInsertRecord, Do: is.bind(c.insertRecord), Compensate: is.bind(c.deleteRecord)},
		{Name: StepPostBookings, Do: is.bind(c.postBookings), Compensate: is.bind(c.deleteBookings)},
		{Name: StepBuildDocuments, Do: is.bind(c.buildDocuments)},
		{Name: StepUploadPDF, Do: is.bind(c.uploadPDF), Compensate: is.bind(c.deletePDF)},
		{Name: StepUploadXML, Do: is.bind(c.uploadXML), Compensate: is.bind(c.deleteXML)},
		{Name: StepMarkReady, Do: is.bind(c.markReady)},
	}
}

func (is *issue) bind(fn func(context.Context, *issue) error) func(context.Context) error {
	return func(ctx context.Context) error { return fn(ctx, is) }
}

func (c *Creator) reserveNumber(ctx context.Context, is *issue) error {
	is.inv.Date = issueDate(&is.inv, is.now)
	if is.inv.Number == "" {
		existing, err := c.deps.Ledger.Numbers(ctx)
		if err != nil {
			return NewWorkflowError(KindLedger, StepReserveNumber, err)
		}
		number, err := invoice.NextNumber(is.inv.Date, existing)
		if err != nil {
			return NewWorkflowError(KindValidation, StepReserveNumber, err)
		}
		is.inv.Number = number
	}
	is.log = logger.WithInvoice(is.inv.Number).With().Str("component", "workflow").Logger()
	return nil
}

func (c *Creator) insertRecord(ctx context.Context, is *issue) error {
	is.totals = invoice.ComputeTotals(&is.inv)

	id := is.req.InvoiceID
	if id == "" {
		id = uuid.NewString()
	}
	is.rec = &models.InvoiceRecord{
		ID:            id,
		UserID:        is.req.UserID,
		InvoiceNumber: is.inv.Number,
		Date:          is.inv.Date,
		Customer:      is.inv.Customer.Name,
		CustomerID:    is.req.CustomerID,
		NetAmount:     invoice.Cents(is.totals.Net),
		VATAmount:     invoice.Cents(is.totals.Tax),
		GrossAmount:   invoice.Cents(is.totals.Gross),
		Currency:      is.totals.Currency,
		Status:        models.StatusDraft,
		CreatedAt:     is.now,
	}

	ref, err := c.deps.Ledger.Insert(ctx, is.rec)
	if err != nil {
		return NewWorkflowError(KindLedger, StepInsertRecord, err)
	}
	is.out.Ref = ref
	return nil
}

// deleteRecord also runs when Insert failed midway, so it deletes by the
// record ID rather than by the returned reference.
func (c *Creator) deleteRecord(ctx context.Context, is *issue) error {
	if is.rec == nil {
		return nil
	}
	ref := is.out.Ref
	ref.ID = is.rec.ID
	return c.deps.Ledger.Delete(ctx, ref)
}

func (c *Creator) postBookings(ctx context.Context, is *issue) error {
	if c.deps.Journal == nil || c.deps.Bookings == nil {
		return nil
	}
	bookings, err := c.deps.Bookings.GenerateBookings(ctx, &is.inv, is.totals)
	if err != nil {
		return NewWorkflowError(KindLedger, StepPostBookings, err)
	}
	ref, err := c.deps.Journal.Post(ctx, bookings)
	if err != nil {
		return NewWorkflowError(KindLedger, StepPostBookings, err)
	}
	is.out.Bookings = bookings
	is.out.BookingRef = ref
	return nil
}

func (c *Creator) deleteBookings(ctx context.Context, is *issue) error {
	if c.deps.Journal == nil || is.out.BookingRef.ID == "" {
		return nil
	}
	return c.deps.Journal.Delete(ctx, is.out.BookingRef)
}

func (c *Creator) buildDocuments(ctx context.Context, is *issue) error {
	res, err := c.deps.Builder.Build(ctx, &is.inv, assembler.Options{
		Profile: is.profile,
		Render:  is.req.Render,
	})
	if err != nil {
		return NewWorkflowError(buildKind(err), StepBuildDocuments, err)
	}
	is.out.Result = res
	return nil
}

func (c *Creator) uploadPDF(ctx context.Context, is *issue) error {
	is.pdfKey = c.deps.Keys.Invoice(is.req.UserID, is.rec.ID, is.inv.Number+".pdf")
	url, err := c.deps.Store.Put(ctx, is.pdfKey, is.out.Result.PDF, mail.ContentTypePDF)
	if err != nil {
		return NewWorkflowError(KindStorage, StepUploadPDF, err)
	}
	is.out.PDFURL = url
	return nil
}

func (c *Creator) deletePDF(ctx context.Context, is *issue) error {
	if is.pdfKey == "" {
		return nil
	}
	return c.deps.Store.Delete(ctx, is.pdfKey)
}

func (c *Creator) uploadXML(ctx context.Context, is *issue) error {
	is.xmlKey = c.deps.Keys.XRechnung(is.req.UserID, is.rec.ID)
	url, err := c.deps.Store.Put(ctx, is.xmlKey, is.out.Result.XML, contentTypeXML)
	if err != nil {
		return NewWorkflowError(KindStorage, StepUploadXML, err)
	}
	is.out.XMLURL = url
	return nil
}

func (c *Creator) deleteXML(ctx context.Context, is *issue) error {
	if is.xmlKey == "" {
		return nil
	}
	return c.deps.Store.Delete(ctx, is.xmlKey)
}

func (c *Creator) markReady(ctx context.Context, is *issue) error {
	current, err := c.deps.Ledger.Status(ctx, is.out.Ref)
	if err != nil {
		return NewWorkflowError(KindLedger, StepMarkReady, err)
	}
	next, err := invoice.NextStatus(current, invoice.ActionReadyForDelivery)
	if err != nil {
		return NewWorkflowError(KindLedger, StepMarkReady, err)
	}
	if err := c.deps.Ledger.UpdateStatus(ctx, is.out.Ref, next, is.out.PDFURL); err != nil {
		return NewWorkflowError(KindLedger, StepMarkReady, err)
	}
	is.out.Status = next
	return nil
}

// deliver mails the PDF and advances the status to sent. Failures are
// recorded on the outcome and leave the status at in_delivery.
func (c *Creator) deliver(ctx context.Context, is *issue) {
	out := is.out
	lang := render.ResolveLanguage(&is.inv, is.req.Render.Language)
	msg := mail.Compose(&is.inv, lang, is.req.Render.Greeting, out.Result.Totals, out.Result.PDF)

	if err := c.deps.Mailer.SendInvoice(ctx, msg); err != nil {
		out.DeliveryErr = NewWorkflowError(KindDelivery, "deliver", err)
		is.log.Error().Err(err).Str("to", msg.ToAddress).Msg("Invoice delivery failed")
		return
	}
	out.Delivered = true

	next, err := invoice.NextStatus(out.Status, invoice.ActionSent)
	if err == nil {
		err = c.deps.Ledger.UpdateStatus(ctx, out.Ref, next, "")
	}
	if err != nil {
		is.log.Error().Err(err).Msg("Invoice sent but status update failed")
		return
	}
	out.Status = next
	out.Record.Status = next
}

// issueDate is the invoice date, or today when none is given.
func issueDate(inv *models.Invoice, now time.Time) string {
	if inv.Date != "" {
		return inv.Date
	}
	return now.Format("2006-01-02")
}
