// Package xrechnung maps invoices to EN16931 Cross Industry Invoice XML in
// the XRechnung 3.0 flavour.
//
// The tree is built from the same invoice.Totals the PDF renderer prints, so
// every amount in the XML equals the amount on the page. Amounts carry two
// decimals; rates and quantities are written without trailing zeros.
package xrechnung

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"invoicegen/internal/invoice"
	"invoicegen/internal/units"
	"invoicegen/pkg/models"
)

// Map builds the CII tree for inv. now stands in for the issue date when
// the invoice date is unusable.
func Map(inv *models.Invoice, now time.Time) *CrossIndustryInvoice {
	totals := invoice.ComputeTotals(inv)

	issue, err := invoice.ParseDate(inv.Date)
	if err != nil {
		issue = now.UTC()
	}

	doc := &CrossIndustryInvoice{
		XmlnsRSM: NamespaceRSM,
		XmlnsRAM: NamespaceRAM,
		XmlnsUDT: NamespaceUDT,
		XmlnsQDT: NamespaceQDT,
		Context: DocumentContext{
			BusinessProcess: IDParameter{ID: BusinessProcess},
			Guideline:       IDParameter{ID: Guideline},
		},
		Document: ExchangedDocument{
			ID:        inv.Number,
			TypeCode:  TypeCodeInvoice,
			IssueDate: date102(issue),
		},
	}
	if note := strings.TrimSpace(inv.Note); note != "" {
		doc.Document.Notes = []Note{{Content: note}}
	}

	tx := &doc.Transaction
	for _, line := range totals.Lines {
		tx.Lines = append(tx.Lines, mapLine(line))
	}

	tx.Agreement = HeaderAgreement{
		BuyerReference: inv.EffectiveBuyerReference(),
		Seller:         mapSeller(inv.Seller),
		Buyer:          mapBuyer(inv.Customer),
	}

	if d, err := invoice.ParseDate(inv.ServiceDate); err == nil {
		tx.Delivery.Event = &DeliveryEvent{Occurrence: date102(d)}
	}

	tx.Settlement = mapSettlement(inv, totals, issue)
	return doc
}

func mapLine(line invoice.LineTotal) LineItem {
	unitCode := units.Resolve(line.Item.Unit)
	qty := decimal.NewFromFloat(line.Item.Quantity).String()

	return LineItem{
		Document: LineDocument{LineID: fmt.Sprintf("LINE-%d", line.Index)},
		Product:  TradeProduct{Name: line.Item.Description},
		Agreement: LineAgreement{
			// price per billed quantity, so price x basis reproduces the
			// rounded line total
			NetPrice: TradePrice{
				ChargeAmount:  amount(line.Net),
				BasisQuantity: &Quantity{UnitCode: unitCode, Value: qty},
			},
		},
		Delivery: LineDelivery{
			BilledQuantity: Quantity{UnitCode: unitCode, Value: qty},
		},
		Settlement: LineSettlement{
			Tax: TradeTax{
				TypeCode:     TaxTypeVAT,
				CategoryCode: invoice.CategoryFor(line.Rate),
				Rate:         line.Rate.String(),
			},
			Summation: LineMonetarySummation{LineTotal: amount(line.Net)},
		},
	}
}

func mapSeller(s models.Seller) TradeParty {
	party := TradeParty{
		Name:    s.Name,
		Address: mapAddress(s.Address),
	}

	if reg := strings.TrimSpace(s.RegisterNumber); reg != "" {
		party.LegalOrganization = &LegalOrganization{ID: SchemeID{Scheme: SchemeHandelsregister, Value: reg}}
	}

	if !s.Contact.IsEmpty() {
		c := &TradeContact{PersonName: strings.TrimSpace(s.Contact.Name)}
		if phone := strings.TrimSpace(s.Contact.Phone); phone != "" {
			c.Telephone = &PhoneNumber{Number: phone}
		}
		if email := strings.TrimSpace(s.Contact.Email); email != "" {
			c.Email = &EmailAddress{URIID: email}
		}
		party.Contact = c
	}

	if email := s.ElectronicAddress(); email != "" {
		party.URI = &URICommunication{URIID: SchemeID{Scheme: SchemeEmail, Value: email}}
	}

	if vat := SellerVATID(s); vat != "" {
		party.TaxRegistrations = append(party.TaxRegistrations, TaxRegistration{ID: SchemeID{Scheme: SchemeVATID, Value: vat}})
	}
	if tax := strings.TrimSpace(s.TaxNumber); tax != "" {
		party.TaxRegistrations = append(party.TaxRegistrations, TaxRegistration{ID: SchemeID{Scheme: SchemeTaxNumber, Value: tax}})
	}
	return party
}

func mapBuyer(c models.Customer) TradeParty {
	party := TradeParty{
		Name:    c.Name,
		Address: mapAddress(c.Address),
	}
	if email := invoice.BuyerElectronicAddress(c); email != "" {
		party.URI = &URICommunication{URIID: SchemeID{Scheme: SchemeEmail, Value: email}}
	}
	return party
}

func mapAddress(a models.Address) PostalAddress {
	return PostalAddress{
		Postcode:  strings.TrimSpace(a.PostalCode),
		LineOne:   a.StreetLine(),
		City:      strings.TrimSpace(a.City),
		CountryID: a.CountryCode(),
	}
}

func mapSettlement(inv *models.Invoice, totals invoice.Totals, issue time.Time) HeaderSettlement {
	st := HeaderSettlement{
		Currency:     totals.Currency,
		PaymentMeans: PaymentMeans{TypeCode: PaymentMeansSEPA},
		Summation: HeaderSummation{
			LineTotal:  amount(totals.Net),
			TaxBasis:   amount(totals.Net),
			TaxTotal:   CurrencyAmount{Currency: totals.Currency, Value: amount(totals.Tax)},
			GrandTotal: amount(totals.Gross),
			DuePayable: amount(totals.Gross),
		},
	}

	if inv.Bank != nil {
		if iban := invoice.NormalizeIBAN(inv.Bank.IBAN); iban != "" {
			st.PaymentMeans.Account = &CreditorAccount{IBAN: iban}
		}
	}

	for _, g := range totals.Groups {
		st.Taxes = append(st.Taxes, TradeTax{
			CalculatedAmount: amount(g.Tax),
			TypeCode:         TaxTypeVAT,
			BasisAmount:      amount(g.Basis),
			CategoryCode:     g.Category,
			Rate:             g.Rate.String(),
		})
	}

	if totals.Gross.IsPositive() {
		st.PaymentTerms = &PaymentTerms{DueDate: date102(issue.AddDate(0, 0, PaymentTermDays))}
	}
	return st
}

// SellerVATID returns the VAT ID with the seller's country prefix, adding
// it when missing.
func SellerVATID(s models.Seller) string {
	vat := strings.ToUpper(strings.Join(strings.Fields(s.VATID), ""))
	if vat == "" {
		return ""
	}
	country := s.Address.CountryCode()
	if strings.HasPrefix(vat, country) {
		return vat
	}
	return country + vat
}

// Serialize writes the XML declaration and the indented document.
func Serialize(doc *CrossIndustryInvoice) ([]byte, error) {
	const op = "Serialize"

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("%s: encode cross industry invoice: %w", op, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Generate maps and serializes inv in one step.
func Generate(inv *models.Invoice, now time.Time) ([]byte, error) {
	return Serialize(Map(inv, now))
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func date102(t time.Time) DateTime {
	return DateTime{Value: DateString{Format: DateFormat102, Value: t.Format("20060102")}}
}
