package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"invoicegen/internal/config"
	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/internal/storage"
	"invoicegen/internal/workflow"
	"invoicegen/pkg/models"
)

const sampleInvoice = `{
  "invoiceNumber": "2024-03-0001",
  "invoiceDate": "2024-03-15",
  "customer": {"name": "Erika Mustermann", "address": {"street": "Hauptstr.", "streetNumber": "1", "postalCode": "10115", "city": "Berlin"}},
  "items": [{"description": "Consulting", "quantity": 10, "unit": "hour", "unitPrice": 47}],
  "language": "en"
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadInvoiceFile(t *testing.T) {
	settings := config.Settings{
		Seller: models.Seller{Name: "Kanzlei Muster GmbH"},
		Bank:   &models.BankDetails{IBAN: "DE89370400440532013000", BankName: "Commerzbank"},
	}

	t.Run("applies seller settings", func(t *testing.T) {
		inv, err := readInvoiceFile(writeFile(t, "invoice.json", sampleInvoice), settings, zerolog.Nop())
		if err != nil {
			t.Fatalf("readInvoiceFile() error = %v", err)
		}
		if inv.Seller.Name != "Kanzlei Muster GmbH" {
			t.Errorf("Seller.Name = %q", inv.Seller.Name)
		}
		if inv.Bank == nil || inv.Bank.IBAN != "DE89370400440532013000" {
			t.Errorf("Bank = %+v", inv.Bank)
		}
		if inv.Bank == settings.Bank {
			t.Error("bank details shared with settings")
		}
		if len(inv.Items) != 1 || inv.Items[0].UnitPrice != 47 {
			t.Errorf("Items = %+v", inv.Items)
		}
	})

	errorTests := []struct {
		name    string
		path    func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.json") },
			wantMsg: "invoice file not found",
		},
		{
			name:    "directory",
			path:    func(t *testing.T) string { return t.TempDir() },
			wantMsg: "not a regular file",
		},
		{
			name:    "empty file",
			path:    func(t *testing.T) string { return writeFile(t, "empty.json", "") },
			wantMsg: "invoice file is empty",
		},
		{
			name:    "not json",
			path:    func(t *testing.T) string { return writeFile(t, "bad.json", "invoice") },
			wantMsg: "not a valid invoice document",
		},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readInvoiceFile(tt.path(t), settings, zerolog.Nop())
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("readInvoiceFile() error = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRenderOptions(t *testing.T) {
	tests := []struct {
		name         string
		explicit     i18n.Language
		invoiceLang  string
		configured   string
		greeting     string
		wantLang     i18n.Language
		wantGreeting string
	}{
		{
			name:         "flag wins",
			explicit:     i18n.English,
			invoiceLang:  "de",
			configured:   "de",
			wantLang:     i18n.English,
			wantGreeting: "Dear Sir or Madam,",
		},
		{
			name:         "invoice field before configuration",
			invoiceLang:  "en",
			configured:   "de",
			wantLang:     i18n.English,
			wantGreeting: "Dear Sir or Madam,",
		},
		{
			name:         "configured default",
			configured:   "de",
			wantLang:     i18n.German,
			wantGreeting: "Sehr geehrte Damen und Herren,",
		},
		{
			name:         "greeting override",
			configured:   "en",
			greeting:     "Hello team,",
			wantLang:     i18n.English,
			wantGreeting: "Hello team,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &buildSettings{
				cfg: &config.Config{
					InvoiceLanguage: tt.configured,
					Settings:        config.Settings{Greeting: tt.greeting},
				},
				language: tt.explicit,
			}
			opts := s.renderOptions(&models.Invoice{Language: tt.invoiceLang})
			if opts.Language != tt.wantLang {
				t.Errorf("Language = %q, want %q", opts.Language, tt.wantLang)
			}
			if opts.Greeting != tt.wantGreeting {
				t.Errorf("Greeting = %q, want %q", opts.Greeting, tt.wantGreeting)
			}
		})
	}
}

func TestHandleBuildError(t *testing.T) {
	verr := &invoice.ValidationError{
		Profile: invoice.ProfileXRechnung,
		Errors:  []string{"BR-DE-1: IBAN missing", "BR-DE-9: buyer postal code missing"},
	}

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "validation errors listed",
			err:     fmt.Errorf("Build: %w", verr),
			wantMsg: "the invoice data is invalid:\n  BR-DE-1: IBAN missing\n  BR-DE-9: buyer postal code missing",
		},
		{
			name:    "storage permission",
			err:     workflow.NewWorkflowError(workflow.KindStorage, workflow.StepUploadPDF, storage.ErrPermissionDenied),
			wantMsg: "Access to the document storage was denied",
		},
		{
			name:    "other",
			err:     errors.New("boom"),
			wantMsg: "invoice processing failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handleBuildError(tt.err, zerolog.Nop())
			if !strings.Contains(got.Error(), tt.wantMsg) {
				t.Errorf("handleBuildError() = %q, want it to contain %q", got, tt.wantMsg)
			}
		})
	}
}

func TestHandleCreateErrorReportsIncompleteRollback(t *testing.T) {
	err := &workflow.SagaError{
		Step:         workflow.StepUploadXML,
		Err:          workflow.NewWorkflowError(workflow.KindStorage, workflow.StepUploadXML, errors.New("timeout")),
		Compensation: errors.New("delete pdf: permission denied"),
	}

	got := handleCreateError(err, zerolog.Nop()).Error()
	for _, want := range []string{"could not be stored", `after step "upload-xml" was incomplete`, "delete pdf"} {
		if !strings.Contains(got, want) {
			t.Errorf("handleCreateError() = %q, want it to contain %q", got, want)
		}
	}
}
