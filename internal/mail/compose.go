// Package mail delivers issued invoices by email through SendGrid.
package mail

import (
	"strings"

	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/pkg/models"
	"invoicegen/pkg/services"
)

// ContentTypePDF is the MIME type of the attached invoice.
const ContentTypePDF = "application/pdf"

// Compose builds the localized delivery message for inv with the PDF
// attached as {number}.pdf. The recipient is the customer's electronic
// address. An empty greeting selects the localized salutation.
func Compose(inv *models.Invoice, lang i18n.Language, greeting string, totals invoice.Totals, pdf []byte) *services.InvoiceMessage {
	t := i18n.Translations(lang)
	if strings.TrimSpace(greeting) == "" {
		greeting = t.EmailGreeting
	}
	vars := map[string]string{
		"invoice_number": inv.Number,
		"total_amount":   i18n.FormatCurrency(totals.Gross, totals.Currency, lang),
		"customer_name":  inv.Customer.Name,
	}

	paragraphs := []string{
		greeting,
		i18n.RenderTemplate(t.EmailBody, vars),
		t.EmailQuestions,
		t.EmailClosing + "\n" + inv.Seller.Name,
	}

	return &services.InvoiceMessage{
		ToAddress: invoice.BuyerElectronicAddress(inv.Customer),
		ToName:    strings.TrimSpace(inv.Customer.Name),
		Subject:   i18n.RenderTemplate(t.EmailSubject, vars),
		Body:      strings.Join(paragraphs, "\n\n"),
		Attachments: []services.Attachment{{
			Name:        inv.Number + ".pdf",
			ContentType: ContentTypePDF,
			Data:        pdf,
		}},
	}
}
