package config

import (
	"strings"

	"invoicegen/internal/i18n"
	"invoicegen/pkg/models"
)

// DefaultSellerName is used when neither the invoice nor SELLER_NAME names
// the seller.
const DefaultSellerName = "Ihr Unternehmen"

// Settings are the seller defaults applied to invoices that leave them out.
type Settings struct {
	Seller   models.Seller
	Bank     *models.BankDetails
	LogoURL  string
	Greeting string
}

// LoadSettings reads the SELLER_* environment. Bank details are only set
// when both IBAN and bank name are present.
func LoadSettings() Settings {
	s := Settings{
		Seller: models.Seller{
			Name:        getEnv("SELLER_NAME", DefaultSellerName),
			SubHeadline: getEnv("SELLER_SUB_HEADLINE", ""),
			Address: models.Address{
				Street:       getEnv("SELLER_STREET", ""),
				StreetNumber: getEnv("SELLER_STREET_NUMBER", ""),
				PostalCode:   getEnv("SELLER_POSTAL_CODE", ""),
				City:         getEnv("SELLER_CITY", ""),
				Country:      getEnv("SELLER_COUNTRY", models.DefaultCountry),
			},
			Phone:            getEnv("SELLER_PHONE", ""),
			Email:            getEnv("SELLER_EMAIL", ""),
			TaxNumber:        getEnv("SELLER_TAX_NUMBER", ""),
			VATID:            getEnv("SELLER_VAT_ID", ""),
			Court:            getEnv("SELLER_COURT", ""),
			RegisterNumber:   getEnv("SELLER_REGISTER_NUMBER", ""),
			ManagingDirector: getEnv("SELLER_MANAGING_DIRECTOR", ""),
		},
		LogoURL:  getEnv("SELLER_LOGO_URL", ""),
		Greeting: getEnv("INVOICE_GREETING", ""),
	}

	contact := &models.Contact{
		Name:  getEnv("SELLER_CONTACT_NAME", ""),
		Phone: getEnv("SELLER_CONTACT_PHONE", ""),
		Email: getEnv("SELLER_CONTACT_EMAIL", ""),
	}
	if !contact.IsEmpty() {
		s.Seller.Contact = contact
	}

	iban, bankName := getEnv("SELLER_IBAN", ""), getEnv("SELLER_BANK_NAME", "")
	if iban != "" && bankName != "" {
		s.Bank = &models.BankDetails{IBAN: iban, BankName: bankName, BIC: getEnv("SELLER_BIC", "")}
	}

	return s
}

// GreetingFor returns the configured greeting or the localized default.
func (s Settings) GreetingFor(lang i18n.Language) string {
	if g := strings.TrimSpace(s.Greeting); g != "" {
		return g
	}
	return i18n.Translations(lang).DefaultGreeting
}

// Apply fills the seller, bank details and logo of inv from s when the
// invoice leaves them empty. Values carried by the invoice win.
func (s Settings) Apply(inv *models.Invoice) {
	if inv == nil {
		return
	}
	if strings.TrimSpace(inv.Seller.Name) == "" {
		inv.Seller = s.Seller
	}
	if inv.Bank == nil && s.Bank != nil {
		bank := *s.Bank
		inv.Bank = &bank
	}
	if strings.TrimSpace(inv.LogoURL) == "" {
		inv.LogoURL = s.LogoURL
	}
}
