package i18n

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"de", German, false},
		{"EN", English, false},
		{"de-AT", German, false},
		{"en-GB", English, false},
		{"fr", "", true},
		{"", "", true},
		{"not a tag!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguage(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedLanguage) {
					t.Fatalf("ParseLanguage(%q) error = %v, want ErrUnsupportedLanguage", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLanguage(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		lang Language
		want string
	}{
		{"german", "2024-03-15", German, "15.03.2024"},
		{"english", "2024-03-15", English, "03/15/2024"},
		{"timestamp suffix", "2024-03-15T10:00:00Z", German, "15.03.2024"},
		{"malformed passes through", "15/03/2024", German, "15/03/2024"},
		{"empty", "", English, ""},
		{"best effort split", "2024-3-5", German, "5.3.2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.in, tt.lang); got != tt.want {
				t.Errorf("FormatDate(%q, %s) = %q, want %q", tt.in, tt.lang, got, tt.want)
			}
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		lang     Language
		want     string
	}{
		{"german grouping", "1234.56", "EUR", German, "1.234,56 €"},
		{"english grouping", "1234.56", "EUR", English, "€1,234.56"},
		{"pads fraction", "470", "EUR", English, "€470.00"},
		{"german small", "89.3", "EUR", German, "89,30 €"},
		{"default currency", "559.3", "", English, "€559.30"},
		{"dollar", "10", "usd", English, "$10.00"},
		{"unknown code english", "10", "CHF", English, "CHF 10.00"},
		{"unknown code german", "10", "CHF", German, "10,00 CHF"},
		{"millions", "1234567.891", "EUR", German, "1.234.567,89 €"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCurrency(decimal.RequireFromString(tt.amount), tt.currency, tt.lang)
			if got != tt.want {
				t.Errorf("FormatCurrency(%s, %q, %s) = %q, want %q", tt.amount, tt.currency, tt.lang, got, tt.want)
			}
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		amount float64
		lang   Language
		want   string
	}{
		{10, German, "10,00"},
		{1500.5, English, "1,500.50"},
		{2.345, German, "2,35"},
		{0.125, German, "0,13"},
		{2.5, English, "2.50"},
	}
	for _, tt := range tests {
		if got := FormatQuantity(tt.amount, tt.lang); got != tt.want {
			t.Errorf("FormatQuantity(%v, %s) = %q, want %q", tt.amount, tt.lang, got, tt.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		rate string
		lang Language
		want string
	}{
		{"19", German, "19"},
		{"7", English, "7"},
		{"5.5", German, "5,5"},
		{"5.5", English, "5.5"},
		{"0", German, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.rate+string(tt.lang), func(t *testing.T) {
			if got := FormatRate(decimal.RequireFromString(tt.rate), tt.lang); got != tt.want {
				t.Errorf("FormatRate(%s, %s) = %q, want %q", tt.rate, tt.lang, got, tt.want)
			}
		})
	}
}

func TestCountryName(t *testing.T) {
	tests := []struct {
		code string
		lang Language
		want string
	}{
		{"DE", German, "Deutschland"},
		{"DE", English, "Germany"},
		{"AT", German, "Österreich"},
		{"CH", English, "Switzerland"},
		{"GB", German, "Großbritannien"},
		{"US", German, "USA"},
		{"cz", English, "Czech Republic"},
		{"XX", German, "XX"},
		{"ZZZ", English, "ZZZ"},
		{"", German, ""},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+string(tt.lang), func(t *testing.T) {
			if got := CountryName(tt.code, tt.lang); got != tt.want {
				t.Errorf("CountryName(%q, %s) = %q, want %q", tt.code, tt.lang, got, tt.want)
			}
		})
	}
}

func TestCountryNameRegistryFallback(t *testing.T) {
	got := CountryName("ES", German)
	if got == "" || got == "ES" {
		t.Errorf("CountryName(ES) = %q, want a registry name", got)
	}
}

func TestTranslations(t *testing.T) {
	de := Translations(German)
	en := Translations(English)

	if de.VAT("19") != "MwSt. (19%)" {
		t.Errorf("de VAT label = %q", de.VAT("19"))
	}
	if en.VATLine("7") != "VAT 7%" {
		t.Errorf("en VAT line = %q", en.VATLine("7"))
	}
	if de.Title("2024-03-0001") != "Rechnung Nr. 2024-03-0001" {
		t.Errorf("de title = %q", de.Title("2024-03-0001"))
	}
	if en.Title("42") != "Invoice No. 42" {
		t.Errorf("en title = %q", en.Title("42"))
	}
	if en.Columns.Quantity != "Qty" || de.Columns.UnitPrice != "Einzelpreis" {
		t.Error("table column labels mismatch")
	}
	if en.BIC != "BIC / SWIFT" || de.VATID != "USt-IdNr." {
		t.Error("bank/contact labels mismatch")
	}
}

func TestEmailTemplates(t *testing.T) {
	vars := map[string]string{
		"invoice_number": "2024-03-0007",
		"total_amount":   "559,30 €",
	}

	subject := RenderTemplate(DefaultEmailSubject(German), vars)
	if subject != "Rechnung 2024-03-0007" {
		t.Errorf("subject = %q", subject)
	}

	body := RenderTemplate(DefaultEmailBody(German), vars)
	want := "Sehr geehrte Damen und Herren,\n\n" +
		"anbei erhalten Sie Rechnung 2024-03-0007 über 559,30 €.\n\n" +
		"Bei Fragen stehen wir Ihnen gerne zur Verfügung.\n\n" +
		"Mit freundlichen Grüßen"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}

	if got := RenderTemplate("Hi {name}", nil); got != "Hi {name}" {
		t.Errorf("RenderTemplate without vars = %q", got)
	}
}
