package models

import (
	"math"
	"strings"
)

// Defaults applied when an upstream record leaves a field empty.
const (
	DefaultTaxRate  = 19.0
	DefaultCurrency = "EUR"
	DefaultCountry  = "DE"
)

type Address struct {
	Street       string `json:"street"`
	StreetNumber string `json:"streetNumber"`
	PostalCode   string `json:"postalCode"`
	City         string `json:"city"`
	Country      string `json:"country,omitempty"` // ISO 3166-1 alpha-2, empty means DE
}

// CountryCode returns the upper-cased country, defaulting to DE.
func (a Address) CountryCode() string {
	if c := strings.TrimSpace(a.Country); c != "" {
		return strings.ToUpper(c)
	}
	return DefaultCountry
}

// StreetLine returns "street number".
func (a Address) StreetLine() string {
	return strings.TrimSpace(a.Street + " " + a.StreetNumber)
}

// CityLine returns "postal city".
func (a Address) CityLine() string {
	return strings.TrimSpace(a.PostalCode + " " + a.City)
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// IsEmpty reports whether none of name, phone or email is set.
func (c *Contact) IsEmpty() bool {
	return c == nil || (strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.Phone) == "" &&
		strings.TrimSpace(c.Email) == "")
}

type Seller struct {
	Name        string   `json:"name"`
	SubHeadline string   `json:"subHeadline,omitempty"` // e.g. "Steuerberatungsgesellschaft"
	Address     Address  `json:"address"`
	Phone       string   `json:"phoneNumber,omitempty"`
	Email       string   `json:"email,omitempty"`
	TaxNumber   string   `json:"taxNumber,omitempty"` // Steuernummer
	VATID       string   `json:"vatId,omitempty"`     // USt-IdNr.
	Contact     *Contact `json:"contact,omitempty"`

	// Legal information printed in the footer
	Court            string `json:"court,omitempty"`          // Amtsgericht
	RegisterNumber   string `json:"registerNumber,omitempty"` // HRB/HRA
	ManagingDirector string `json:"managingDirector,omitempty"`
}

// ElectronicAddress returns the seller's e-mail used for electronic
// exchange: the contact's address first, then the company address.
func (s Seller) ElectronicAddress() string {
	if s.Contact != nil && strings.TrimSpace(s.Contact.Email) != "" {
		return strings.TrimSpace(s.Contact.Email)
	}
	return strings.TrimSpace(s.Email)
}

// FooterEmail returns the company address first, then the contact's.
func (s Seller) FooterEmail() string {
	if e := strings.TrimSpace(s.Email); e != "" {
		return e
	}
	if s.Contact != nil {
		return strings.TrimSpace(s.Contact.Email)
	}
	return ""
}

type Customer struct {
	Name            string   `json:"name"`
	Address         Address  `json:"address"`
	Phone           string   `json:"phoneNumber,omitempty"`
	Email           string   `json:"email,omitempty"`
	InsuranceNumber string   `json:"insuranceNumber,omitempty"`
	AdditionalInfo  []string `json:"additionalInfo,omitempty"`
}

type LineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	UnitPrice   float64  `json:"unitPrice"`
	VATRate     *float64 `json:"vatRate,omitempty"` // nil falls back to Invoice.TaxRate
}

// HasRate reports whether the item carries its own usable VAT rate.
func (li LineItem) HasRate() bool {
	return li.VATRate != nil && !math.IsNaN(*li.VATRate) && !math.IsInf(*li.VATRate, 0)
}

type BankDetails struct {
	IBAN     string `json:"iban"`
	BankName string `json:"bankName"`
	BIC      string `json:"bic,omitempty"`
}

// Invoice is the generator's input. It carries no totals; they are always
// recomputed from Items.
type Invoice struct {
	Number      string `json:"invoiceNumber"`
	Date        string `json:"invoiceDate"` // YYYY-MM-DD
	ServiceDate string `json:"serviceDate"` // YYYY-MM-DD

	Seller   Seller     `json:"seller"`
	Customer Customer   `json:"customer"`
	Items    []LineItem `json:"items"`

	TaxRate  *float64 `json:"taxRate,omitempty"` // default rate for items without their own
	Currency string   `json:"currency,omitempty"`

	Note           string       `json:"note,omitempty"`
	Intro          string       `json:"introText,omitempty"`
	Outro          string       `json:"outroText,omitempty"`
	LogoURL        string       `json:"logoUrl,omitempty"`
	Bank           *BankDetails `json:"bankDetails,omitempty"`
	BuyerReference string       `json:"buyerReference,omitempty"`
	Language       string       `json:"language,omitempty"`
}

// EffectiveTaxRate returns the invoice default rate, or 19 when unset or
// not a number.
func (inv *Invoice) EffectiveTaxRate() float64 {
	if inv.TaxRate == nil || math.IsNaN(*inv.TaxRate) || math.IsInf(*inv.TaxRate, 0) {
		return DefaultTaxRate
	}
	return *inv.TaxRate
}

// ItemRate returns the rate that applies to item.
func (inv *Invoice) ItemRate(item LineItem) float64 {
	if item.HasRate() {
		return *item.VATRate
	}
	return inv.EffectiveTaxRate()
}

// EffectiveCurrency returns the upper-cased currency, defaulting to EUR.
func (inv *Invoice) EffectiveCurrency() string {
	if c := strings.TrimSpace(inv.Currency); c != "" {
		return strings.ToUpper(c)
	}
	return DefaultCurrency
}

// EffectiveBuyerReference returns the explicit buyer reference or the
// invoice number.
func (inv *Invoice) EffectiveBuyerReference() string {
	if r := strings.TrimSpace(inv.BuyerReference); r != "" {
		return r
	}
	return inv.Number
}

// Rate is a convenience for building optional rates in literals.
func Rate(v float64) *float64 {
	return &v
}
