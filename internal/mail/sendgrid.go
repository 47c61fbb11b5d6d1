package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"invoicegen/internal/logger"
	"invoicegen/pkg/services"
)

const sendEndpoint = "/v3/mail/send"

var (
	// ErrMissingAPIKey is returned when no SendGrid API key is configured.
	ErrMissingAPIKey = errors.New("sendgrid api key is empty")

	// ErrMissingSender is returned when no from address is configured.
	ErrMissingSender = errors.New("from address is empty")

	// ErrMissingRecipient is returned when the customer has no email address.
	ErrMissingRecipient = errors.New("recipient address is empty")

	// ErrDeliveryFailed is returned when SendGrid rejects the message.
	ErrDeliveryFailed = errors.New("invoice delivery failed")
)

// SendGridMailer implements services.Mailer
type SendGridMailer struct {
	apiKey string
	from   *sgmail.Email
	host   string
	log    zerolog.Logger
}

var _ services.Mailer = (*SendGridMailer)(nil)

// NewSendGridMailer creates a mailer sending as fromName <fromAddress>.
func NewSendGridMailer(apiKey, fromAddress, fromName string) (*SendGridMailer, error) {
	const op = "NewSendGridMailer"

	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingAPIKey)
	}
	if strings.TrimSpace(fromAddress) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingSender)
	}

	return &SendGridMailer{
		apiKey: apiKey,
		from:   sgmail.NewEmail(fromName, fromAddress),
		log:    logger.WithComponent("mail"),
	}, nil
}

// WithHost returns a copy of m talking to host instead of the SendGrid API.
func (m *SendGridMailer) WithHost(host string) *SendGridMailer {
	c := *m
	c.host = host
	return &c
}

// SendInvoice sends msg with its attachments.
func (m *SendGridMailer) SendInvoice(ctx context.Context, msg *services.InvoiceMessage) error {
	const op = "SendInvoice"

	if msg == nil || strings.TrimSpace(msg.ToAddress) == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingRecipient)
	}

	message := sgmail.NewV3MailInit(
		m.from,
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.ToAddress),
		sgmail.NewContent("text/plain", msg.Body),
		sgmail.NewContent("text/html", htmlBody(msg.Body)),
	)
	for _, a := range msg.Attachments {
		message.AddAttachment(sgmail.NewAttachment().
			SetContent(base64.StdEncoding.EncodeToString(a.Data)).
			SetType(a.ContentType).
			SetFilename(a.Name).
			SetDisposition("attachment"))
	}

	request := sendgrid.GetRequest(m.apiKey, sendEndpoint, m.host)
	request.Method = "POST"
	request.Body = sgmail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("%s: sendgrid send error: %w", op, err)
	}
	if response.StatusCode >= 400 {
		m.log.Error().
			Int("status", response.StatusCode).
			Str("body", response.Body).
			Str("to", msg.ToAddress).
			Msg("SendGrid rejected invoice mail")
		return fmt.Errorf("%s: %w: status=%d", op, ErrDeliveryFailed, response.StatusCode)
	}

	m.log.Info().
		Int("status", response.StatusCode).
		Str("to", msg.ToAddress).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("Invoice mail sent")

	return nil
}

// htmlBody renders the plain-text body as paragraphs.
func htmlBody(body string) string {
	var b strings.Builder
	for _, para := range strings.Split(body, "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
