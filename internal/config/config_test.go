package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/pkg/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Language() != i18n.German || cfg.Profile() != invoice.ProfileXRechnung {
		t.Errorf("language/profile = %s/%s", cfg.Language(), cfg.Profile())
	}
	if cfg.LogoFetchTimeout != 5*time.Second {
		t.Errorf("LogoFetchTimeout = %v", cfg.LogoFetchTimeout)
	}
	if cfg.LedgerWorksheet != "Debitoren" || cfg.BookingWorksheet != "Buchungen" {
		t.Errorf("worksheets = %q/%q", cfg.LedgerWorksheet, cfg.BookingWorksheet)
	}
	if cfg.MailEnabled() {
		t.Error("MailEnabled() = true without SENDGRID_API_KEY")
	}
	if cfg.RequireStorage() == nil || cfg.RequireLedger() == nil {
		t.Error("backends reported as configured")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INVOICE_LANGUAGE", "en")
	t.Setenv("VALIDATION_PROFILE", "general")
	t.Setenv("LOGO_FETCH_TIMEOUT", "1500ms")
	t.Setenv("GCS_BUCKET", "invoices")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SENDGRID_API_KEY", "SG.x")
	t.Setenv("MAIL_FROM_ADDRESS", "rechnung@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Language() != i18n.English || cfg.Profile() != invoice.ProfileGeneral {
		t.Errorf("language/profile = %s/%s", cfg.Language(), cfg.Profile())
	}
	if cfg.LogoFetchTimeout != 1500*time.Millisecond {
		t.Errorf("LogoFetchTimeout = %v", cfg.LogoFetchTimeout)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.MailEnabled() || cfg.RequireStorage() != nil {
		t.Error("configured backends not reported")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"INVOICE_LANGUAGE", "fr", "INVOICE_LANGUAGE"},
		{"VALIDATION_PROFILE", "peppol", "VALIDATION_PROFILE"},
		{"LOGO_FETCH_TIMEOUT", "soon", "LOGO_FETCH_TIMEOUT"},
		{"LOGO_FETCH_TIMEOUT", "-1s", "LOGO_FETCH_TIMEOUT"},
		{"CHART_OF_ACCOUNTS", "SKR99", "CHART_OF_ACCOUNTS"},
		{"LOG_FORMAT", "xml", "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadSettings(t *testing.T) {
	t.Run("fallbacks", func(t *testing.T) {
		s := LoadSettings()
		if s.Seller.Name != DefaultSellerName || s.Seller.Address.Country != "DE" {
			t.Errorf("Seller = %+v", s.Seller)
		}
		if s.Bank != nil || s.Seller.Contact != nil {
			t.Errorf("Bank = %+v, Contact = %+v", s.Bank, s.Seller.Contact)
		}
		if got := s.GreetingFor(i18n.German); got != "Sehr geehrte Damen und Herren," {
			t.Errorf("GreetingFor(de) = %q", got)
		}
		if got := s.GreetingFor(i18n.English); got != "Dear Sir or Madam," {
			t.Errorf("GreetingFor(en) = %q", got)
		}
	})

	t.Run("bank needs iban and name", func(t *testing.T) {
		t.Setenv("SELLER_IBAN", "DE89370400440532013000")
		if s := LoadSettings(); s.Bank != nil {
			t.Errorf("Bank = %+v with IBAN only", s.Bank)
		}
		t.Setenv("SELLER_BANK_NAME", "Commerzbank")
		if s := LoadSettings(); s.Bank == nil || s.Bank.BankName != "Commerzbank" {
			t.Errorf("Bank = %+v", s.Bank)
		}
	})

	t.Run("env values", func(t *testing.T) {
		t.Setenv("SELLER_NAME", "Muster GmbH")
		t.Setenv("SELLER_CONTACT_EMAIL", "max@muster.example")
		t.Setenv("SELLER_LOGO_URL", "https://cdn.example/logo.png")
		t.Setenv("INVOICE_GREETING", "Hallo,")

		s := LoadSettings()
		if s.Seller.Name != "Muster GmbH" || s.Seller.Contact == nil || s.Seller.Contact.Email != "max@muster.example" {
			t.Errorf("Seller = %+v", s.Seller)
		}
		if s.LogoURL != "https://cdn.example/logo.png" || s.GreetingFor(i18n.English) != "Hallo," {
			t.Errorf("Settings = %+v", s)
		}
	})
}

func TestSettingsApply(t *testing.T) {
	s := Settings{
		Seller:  models.Seller{Name: "Muster GmbH"},
		Bank:    &models.BankDetails{IBAN: "DE89370400440532013000", BankName: "Commerzbank"},
		LogoURL: "https://cdn.example/logo.png",
	}

	empty := &models.Invoice{}
	s.Apply(empty)
	if empty.Seller.Name != "Muster GmbH" || empty.Bank == nil || empty.LogoURL != s.LogoURL {
		t.Errorf("Apply(empty) = %+v", empty)
	}
	empty.Bank.IBAN = "changed"
	if s.Bank.IBAN == "changed" {
		t.Error("Apply shares the settings' bank details")
	}

	own := &models.Invoice{
		Seller:  models.Seller{Name: "Eigene AG"},
		Bank:    &models.BankDetails{IBAN: "DE02120300000000202051", BankName: "DKB"},
		LogoURL: "https://own.example/logo.png",
	}
	s.Apply(own)
	if own.Seller.Name != "Eigene AG" || own.Bank.BankName != "DKB" || own.LogoURL != "https://own.example/logo.png" {
		t.Errorf("Apply overrode invoice values: %+v", own)
	}

	s.Apply(nil)
}
