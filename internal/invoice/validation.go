package invoice

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"invoicegen/internal/i18n"
	"invoicegen/internal/logger"
	"invoicegen/pkg/models"
)

// Profile selects the rule set a Validator applies.
type Profile string

const (
	// ProfileGeneral checks structure only.
	ProfileGeneral Profile = "general"
	// ProfileXRechnung adds the German e-invoicing business rules.
	ProfileXRechnung Profile = "xrechnung"
)

// ParseProfile validates a profile name from configuration or a request.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case ProfileGeneral:
		return ProfileGeneral, nil
	case ProfileXRechnung, "strict":
		return ProfileXRechnung, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

// Report is the outcome of one validation run. Valid is true iff Errors is
// empty; warnings never affect it.
type Report struct {
	Profile  Profile  `json:"profile"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Err returns a *ValidationError for an invalid report, nil otherwise.
func (r Report) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Profile: r.Profile, Errors: r.Errors, Warnings: r.Warnings}
}

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	ibanPattern    = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]+$`)
	currencyCode   = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// Validator checks invoices against a Profile.
type Validator struct {
	log zerolog.Logger
}

// NewValidator creates a new invoice validator
func NewValidator() *Validator {
	return &Validator{
		log: logger.WithComponent("invoice-validation"),
	}
}

type checker struct {
	errors   []string
	warnings []string
}

func (c *checker) fail(field, message string) {
	c.errors = append(c.errors, fmt.Sprintf("%s: %s", field, message))
}

func (c *checker) rule(code, message string) {
	c.errors = append(c.errors, fmt.Sprintf("%s: %s", code, message))
}

func (c *checker) warn(code, message string) {
	c.warnings = append(c.warnings, fmt.Sprintf("%s: %s", code, message))
}

func (c *checker) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.fail(field, "is required")
	}
}

// Validate runs the profile's checks. The strict profile is a superset of
// the general one.
func (v *Validator) Validate(inv *models.Invoice, profile Profile) Report {
	c := &checker{}

	v.checkStructure(c, inv)
	if profile == ProfileXRechnung {
		v.checkXRechnung(c, inv)
	}

	report := Report{
		Profile:  profile,
		Valid:    len(c.errors) == 0,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
	if report.Errors == nil {
		report.Errors = []string{}
	}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}

	v.log.Debug().
		Str("invoice_number", inv.Number).
		Str("profile", string(profile)).
		Bool("valid", report.Valid).
		Int("errors", len(report.Errors)).
		Int("warnings", len(report.Warnings)).
		Msg("Invoice validated")

	return report
}

func (v *Validator) checkStructure(c *checker, inv *models.Invoice) {
	c.required("invoiceNumber", inv.Number)
	checkDate(c, "invoiceDate", inv.Date)
	checkDate(c, "serviceDate", inv.ServiceDate)

	c.required("seller.name", inv.Seller.Name)
	c.required("seller.address.street", inv.Seller.Address.Street)
	c.required("seller.address.streetNumber", inv.Seller.Address.StreetNumber)
	c.required("seller.address.city", inv.Seller.Address.City)
	checkCountry(c, "seller.address.country", inv.Seller.Address.Country)
	checkEmail(c, "seller.email", inv.Seller.Email)
	if inv.Seller.Contact != nil {
		checkEmail(c, "seller.contact.email", inv.Seller.Contact.Email)
	}

	c.required("customer.name", inv.Customer.Name)
	c.required("customer.address.street", inv.Customer.Address.Street)
	c.required("customer.address.city", inv.Customer.Address.City)
	checkCountry(c, "customer.address.country", inv.Customer.Address.Country)
	checkEmail(c, "customer.email", inv.Customer.Email)

	if len(inv.Items) == 0 {
		c.fail("items", "at least one item is required")
	}
	for i, item := range inv.Items {
		field := fmt.Sprintf("items[%d]", i)
		c.required(field+".description", item.Description)
		c.required(field+".unit", item.Unit)
		if !(item.Quantity > 0) || math.IsInf(item.Quantity, 0) {
			c.fail(field+".quantity", "must be positive")
		}
		if !(item.UnitPrice >= 0) || math.IsInf(item.UnitPrice, 0) {
			c.fail(field+".unitPrice", "must not be negative")
		}
		if item.HasRate() && !validRate(*item.VATRate) {
			c.fail(field+".vatRate", "must be between 0 and 100")
		}
	}

	if inv.TaxRate != nil && !math.IsNaN(*inv.TaxRate) && !validRate(*inv.TaxRate) {
		c.fail("taxRate", "must be between 0 and 100")
	}
	if inv.Currency != "" && !currencyCode.MatchString(inv.Currency) {
		c.fail("currency", "must be an ISO 4217 code (e.g. 'EUR')")
	}
}

func (v *Validator) checkXRechnung(c *checker, inv *models.Invoice) {
	if inv.Bank == nil || strings.TrimSpace(inv.Bank.IBAN) == "" {
		c.rule("BR-DE-1", "Zahlungsanweisungen (IBAN) sind für XRechnung erforderlich")
	} else {
		iban := NormalizeIBAN(inv.Bank.IBAN)
		if len(iban) < 15 || len(iban) > 34 || !ibanPattern.MatchString(iban) {
			c.rule("BR-DE-19", "IBAN-Format ist ungültig")
		}
		if strings.TrimSpace(inv.Bank.BankName) == "" {
			c.rule("BR-DE-1", "Bankname ist erforderlich")
		}
	}

	if strings.TrimSpace(inv.Seller.Address.PostalCode) == "" {
		c.rule("BR-DE-4", "Verkäufer-PLZ ist für XRechnung erforderlich")
	}
	if strings.TrimSpace(inv.Customer.Address.PostalCode) == "" {
		c.rule("BR-DE-9", "Käufer-PLZ ist für XRechnung erforderlich")
	}

	if inv.Seller.Contact.IsEmpty() {
		c.warn("BR-DE-2", "Verkäufer-Kontakt (Name, Telefon oder E-Mail) empfohlen für vollständige XRechnung-Konformität")
	}
	if inv.Seller.ElectronicAddress() == "" {
		c.warn("PEPPOL-EN16931-R020", "Verkäufer-E-Mail-Adresse empfohlen für elektronischen Rechnungsaustausch")
	}
	if BuyerElectronicAddress(inv.Customer) == "" {
		c.warn("PEPPOL-EN16931-R010", "Käufer-E-Mail-Adresse empfohlen für elektronischen Rechnungsaustausch")
	}
	if strings.TrimSpace(inv.Seller.VATID) == "" &&
		strings.TrimSpace(inv.Seller.RegisterNumber) == "" &&
		strings.TrimSpace(inv.Seller.TaxNumber) == "" {
		c.warn("BR-CO-26", "USt-IdNr., Steuernummer oder Registernummer des Verkäufers empfohlen")
	}
}

// NormalizeIBAN removes whitespace and upper-cases an IBAN.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}

func validRate(r float64) bool {
	return r >= 0 && r <= 100
}

func checkDate(c *checker, field, value string) {
	if _, err := ParseDate(value); err != nil {
		c.fail(field, "invalid date format (YYYY-MM-DD)")
	}
}

func checkCountry(c *checker, field, value string) {
	if value == "" {
		return
	}
	if !i18n.IsCountryCode(value) {
		c.fail(field, "must be an ISO 3166-1 alpha-2 code (e.g. 'DE')")
	}
}

func checkEmail(c *checker, field, value string) {
	value = strings.TrimSpace(value)
	if value != "" && !strings.Contains(value, "@") {
		c.fail(field, "is not an email address")
	}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(value string) (time.Time, error) {
	if !isoDatePattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return d, nil
}
