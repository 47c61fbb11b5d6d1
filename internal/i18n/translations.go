package i18n

import (
	"fmt"
	"strings"
)

// MetaLabels are the small caps labels of the metadata column next to the
// recipient address.
type MetaLabels struct {
	InvoiceNumber string
	InvoiceDate   string
	Reference     string
	ServiceDate   string
	ContactPerson string
}

// ColumnLabels are the line-item table headers.
type ColumnLabels struct {
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Total       string
}

// Table is the fixed set of strings for one language.
type Table struct {
	Invoice       string
	InvoiceNumber string
	InvoiceDate   string
	ServiceDate   string
	DueDate       string

	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Price       string
	Total       string

	Subtotal    string
	NetAmount   string
	VATLabel    string
	GrossAmount string
	TotalAmount string

	BankDetails   string
	BankName      string
	IBAN          string
	BIC           string
	AccountHolder string

	Phone     string
	Email     string
	TaxNumber string
	VATID     string

	DocumentTitle   string // PDF title prefix
	Meta            MetaLabels
	Columns         ColumnLabels
	NetTotal        string
	GrossTotal      string
	InsuranceLabel  string
	DefaultGreeting string

	EmailSubject   string // template, see RenderTemplate
	EmailGreeting  string
	EmailBody      string // template, see RenderTemplate
	EmailClosing   string
	EmailQuestions string

	vatFormat   string
	vatLine     string
	titleFormat string
}

var german = Table{
	Invoice:       "RECHNUNG",
	InvoiceNumber: "Rechnungsnummer",
	InvoiceDate:   "Rechnungsdatum",
	ServiceDate:   "Leistungsdatum",
	DueDate:       "Fälligkeitsdatum",

	Description: "Beschreibung",
	Quantity:    "Menge",
	Unit:        "Einheit",
	UnitPrice:   "Preis",
	Price:       "Preis",
	Total:       "Gesamt",

	Subtotal:    "Zwischensumme",
	NetAmount:   "Nettobetrag",
	VATLabel:    "MwSt.",
	GrossAmount: "Gesamtbetrag",
	TotalAmount: "Gesamtbetrag",

	BankDetails:   "Bankverbindung",
	BankName:      "Bank",
	IBAN:          "IBAN",
	BIC:           "BIC / SWIFT",
	AccountHolder: "Kontoinhaber",

	Phone:     "Tel.",
	Email:     "E-Mail",
	TaxNumber: "Steuernummer",
	VATID:     "USt-IdNr.",

	DocumentTitle: "Rechnung",
	Meta: MetaLabels{
		InvoiceNumber: "RECHNUNGS-NR.",
		InvoiceDate:   "RECHNUNGSDATUM",
		Reference:     "REFERENZ",
		ServiceDate:   "LIEFERDATUM",
		ContactPerson: "IHR ANSPRECHPARTNER",
	},
	Columns: ColumnLabels{
		Description: "Beschreibung",
		Quantity:    "Menge",
		Unit:        "Einheit",
		UnitPrice:   "Einzelpreis",
		Total:       "Gesamtpreis",
	},
	NetTotal:        "Gesamtbetrag netto",
	GrossTotal:      "Gesamtbetrag brutto",
	InsuranceLabel:  "Versicherungsnummer:",
	DefaultGreeting: "Sehr geehrte Damen und Herren,",

	EmailSubject:   "Rechnung {invoice_number}",
	EmailGreeting:  "Sehr geehrte Damen und Herren,",
	EmailBody:      "anbei erhalten Sie Rechnung {invoice_number} über {total_amount}.",
	EmailClosing:   "Mit freundlichen Grüßen",
	EmailQuestions: "Bei Fragen stehen wir Ihnen gerne zur Verfügung.",

	vatFormat:   "MwSt. (%s%%)",
	vatLine:     "Umsatzsteuer %s%%",
	titleFormat: "Rechnung Nr. %s",
}

var english = Table{
	Invoice:       "INVOICE",
	InvoiceNumber: "Invoice Number",
	InvoiceDate:   "Invoice Date",
	ServiceDate:   "Service Date",
	DueDate:       "Due Date",

	Description: "Description",
	Quantity:    "Quantity",
	Unit:        "Unit",
	UnitPrice:   "Price",
	Price:       "Price",
	Total:       "Total",

	Subtotal:    "Subtotal",
	NetAmount:   "Net Amount",
	VATLabel:    "VAT",
	GrossAmount: "Total Amount",
	TotalAmount: "Total Amount",

	BankDetails:   "Bank Details",
	BankName:      "Bank",
	IBAN:          "IBAN",
	BIC:           "BIC / SWIFT",
	AccountHolder: "Account Holder",

	Phone:     "Phone",
	Email:     "Email",
	TaxNumber: "Tax Number",
	VATID:     "VAT ID",

	DocumentTitle: "Invoice",
	Meta: MetaLabels{
		InvoiceNumber: "INVOICE NO.",
		InvoiceDate:   "INVOICE DATE",
		Reference:     "REFERENCE",
		ServiceDate:   "DELIVERY DATE",
		ContactPerson: "YOUR CONTACT",
	},
	Columns: ColumnLabels{
		Description: "Description",
		Quantity:    "Qty",
		Unit:        "Unit",
		UnitPrice:   "Unit Price",
		Total:       "Total",
	},
	NetTotal:        "Net total",
	GrossTotal:      "Total amount",
	InsuranceLabel:  "Insurance Number:",
	DefaultGreeting: "Dear Sir or Madam,",

	EmailSubject:   "Invoice {invoice_number}",
	EmailGreeting:  "Dear Sir or Madam,",
	EmailBody:      "please find attached invoice {invoice_number} for {total_amount}.",
	EmailClosing:   "Best regards",
	EmailQuestions: "If you have any questions, please feel free to contact us.",

	vatFormat:   "VAT (%s%%)",
	vatLine:     "VAT %s%%",
	titleFormat: "Invoice No. %s",
}

// Translations returns the label table for lang. Unsupported values get the
// German table, which is the domestic document language.
func Translations(lang Language) Table {
	if lang == English {
		return english
	}
	return german
}

// VAT returns the short VAT label with rate, e.g. "MwSt. (19%)".
func (t Table) VAT(rate string) string {
	return fmt.Sprintf(t.vatFormat, rate)
}

// VATLine returns the totals-block label for one VAT group, e.g. "VAT 19%".
func (t Table) VATLine(rate string) string {
	return fmt.Sprintf(t.vatLine, rate)
}

// Title returns the document headline for an invoice number.
func (t Table) Title(number string) string {
	return fmt.Sprintf(t.titleFormat, number)
}

// DefaultEmailSubject returns the subject template with placeholders intact.
func DefaultEmailSubject(lang Language) string {
	return Translations(lang).EmailSubject
}

// DefaultEmailBody returns the full plain-text body template with
// placeholders intact.
func DefaultEmailBody(lang Language) string {
	t := Translations(lang)
	return strings.Join([]string{
		t.EmailGreeting,
		t.EmailBody,
		t.EmailQuestions,
		t.EmailClosing,
	}, "\n\n")
}

// RenderTemplate replaces every {key} in tpl with vars[key]. Unknown
// placeholders are left as they are.
func RenderTemplate(tpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
