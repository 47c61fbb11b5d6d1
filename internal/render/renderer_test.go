package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/pkg/models"
)

var fixedClock = func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) }

func consultingInvoice() *models.Invoice {
	return &models.Invoice{
		Number:      "2024-03-0001",
		Date:        "2024-03-15",
		ServiceDate: "2024-03-14",
		Seller: models.Seller{
			Name:        "Muster Beratung GmbH",
			SubHeadline: "Steuerberatungsgesellschaft",
			Address: models.Address{
				Street: "Hauptstraße", StreetNumber: "1", PostalCode: "10115", City: "Berlin", Country: "DE",
			},
			Phone:          "+49 30 123456",
			Email:          "rechnung@muster.example",
			VATID:          "DE123456789",
			Court:          "Berlin-Charlottenburg",
			RegisterNumber: "HRB 12345",
			Contact:        &models.Contact{Name: "Max Muster"},
		},
		Customer: models.Customer{
			Name: "Erika Mustermann",
			Address: models.Address{
				Street: "Nebenweg", StreetNumber: "5a", PostalCode: "80331", City: "München",
			},
			InsuranceNumber: "A-123",
		},
		Items: []models.LineItem{
			{Description: "Consulting", Quantity: 10, Unit: "hour", UnitPrice: 47.00, VATRate: models.Rate(19)},
		},
		Intro: "Thank you for your order.",
		Outro: "Please pay within 14 days.\nKind regards",
		Bank:  &models.BankDetails{IBAN: "DE89370400440532013000", BankName: "Commerzbank", BIC: "COBADEFFXXX"},
	}
}

func render(t *testing.T, r *Renderer, inv *models.Invoice, opts Options) *Document {
	t.Helper()
	doc, err := r.WithClock(fixedClock).Render(context.Background(), inv, opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return doc
}

func TestRenderEndToEnd(t *testing.T) {
	doc := render(t, NewRenderer(nil), consultingInvoice(), Options{Language: i18n.English})
	layout := doc.Layout()

	rows := []struct {
		label string
		want  []string
	}{
		{"Net total", []string{"Net total", "€470.00"}},
		{"VAT 19%", []string{"VAT 19%", "€89.30"}},
		{"Total amount", []string{"Total amount", "€559.30"}},
	}
	for _, row := range rows {
		if got := layout.Row(row.label); !reflect.DeepEqual(got, row.want) {
			t.Errorf("row %q = %q, want %q", row.label, got, row.want)
		}
	}

	for _, text := range []string{
		"Muster Beratung GmbH - Hauptstraße 1 - 10115 Berlin",
		"Invoice No. 2024-03-0001",
		"03/15/2024",
		"Dear Sir or Madam,",
		"Thank you for your order.",
		"Insurance Number: A-123",
		"YOUR CONTACT",
		"Max Muster",
		"Consulting",
		"10.00",
		"Stunde",
		"€47.00",
		"€470.00",
		"Please pay within 14 days.",
		"Kind regards",
		"IBAN",
		"DE89370400440532013000",
		"Germany",
		"1/1",
	} {
		if !layout.Has(text) {
			t.Errorf("layout is missing %q", text)
		}
	}

	if layout.Has("REFERENCE") {
		t.Error("reference row drawn without an explicit buyer reference")
	}
	if layout.LogoPlaced {
		t.Error("logo placed without a logo URL")
	}
	if !doc.Totals().Gross.Equal(invoice.ComputeTotals(consultingInvoice()).Gross) {
		t.Error("document totals differ from ComputeTotals")
	}
}

func TestRenderGerman(t *testing.T) {
	inv := consultingInvoice()
	inv.BuyerReference = "PO-991"
	inv.Customer.Address.Country = "AT"

	doc := render(t, NewRenderer(nil), inv, Options{Greeting: "Liebe Frau Mustermann,"})
	layout := doc.Layout()

	if doc.Language() != i18n.German {
		t.Fatalf("language = %q, want de", doc.Language())
	}
	for _, text := range []string{
		"Rechnung Nr. 2024-03-0001",
		"15.03.2024",
		"Liebe Frau Mustermann,",
		"Gesamtbetrag netto",
		"470,00 €",
		"Umsatzsteuer 19%",
		"89,30 €",
		"Gesamtbetrag brutto",
		"559,30 €",
		"REFERENZ",
		"PO-991",
		"Österreich",
		"Versicherungsnummer: A-123",
		"Stunde",
	} {
		if !layout.Has(text) {
			t.Errorf("layout is missing %q", text)
		}
	}
	if doc.Title() != "Rechnung 2024-03-0001" {
		t.Errorf("Title() = %q", doc.Title())
	}
}

func TestRenderMultiRate(t *testing.T) {
	inv := consultingInvoice()
	inv.Items = []models.LineItem{
		{Description: "Beratung", Quantity: 1, Unit: "piece", UnitPrice: 100, VATRate: models.Rate(19)},
		{Description: "Fachbuch", Quantity: 2, Unit: "piece", UnitPrice: 25, VATRate: models.Rate(7)},
	}

	layout := render(t, NewRenderer(nil), inv, Options{Language: i18n.English}).Layout()

	vat7, ok7 := layout.Find("VAT 7%")
	vat19, ok19 := layout.Find("VAT 19%")
	if !ok7 || !ok19 {
		t.Fatalf("missing VAT lines: %q", layout.Texts())
	}
	if vat7.Y >= vat19.Y {
		t.Error("VAT lines are not in ascending rate order")
	}
	if got := layout.Row("VAT 7%"); !reflect.DeepEqual(got, []string{"VAT 7%", "€3.50"}) {
		t.Errorf("7%% row = %q", got)
	}
	if got := layout.Row("VAT 19%"); !reflect.DeepEqual(got, []string{"VAT 19%", "€19.00"}) {
		t.Errorf("19%% row = %q", got)
	}
	if got := layout.Row("Total amount"); !reflect.DeepEqual(got, []string{"Total amount", "€172.50"}) {
		t.Errorf("gross row = %q", got)
	}
}

func TestRenderWrapsLongDescriptions(t *testing.T) {
	inv := consultingInvoice()
	inv.Items[0].Description = strings.Repeat("Laufende Finanzbuchhaltung und Lohnabrechnung ", 4)
	inv.Items = append(inv.Items, models.LineItem{Description: "Fachbuch", Quantity: 1, Unit: "piece", UnitPrice: 50})

	layout := render(t, NewRenderer(nil), inv, Options{Language: i18n.English}).Layout()

	header, ok := layout.Find(i18n.Translations(i18n.English).Columns.Description)
	if !ok {
		t.Fatal("table header missing")
	}
	next, ok := layout.Find("Fachbuch")
	if !ok {
		t.Fatal("second item missing")
	}

	// every run in the first column between the header and the next row
	// belongs to the wrapped description
	var lines []TextRun
	for _, r := range layout.Runs {
		if r.X == Margin && r.Y > header.Y && r.Y < next.Y {
			lines = append(lines, r)
		}
	}
	if len(lines) < 2 {
		t.Fatalf("description not wrapped: %d lines", len(lines))
	}

	texts := make([]string, len(lines))
	for i, r := range lines {
		texts[i] = r.Text
		if i > 0 && r.Y-lines[i-1].Y != linePitch {
			t.Errorf("line %d pitch = %v, want %v", i, r.Y-lines[i-1].Y, linePitch)
		}
	}
	if got, want := strings.Join(texts, " "), Sanitize(inv.Items[0].Description); got != want {
		t.Errorf("wrapped text = %q, want %q", got, want)
	}
	if gap := next.Y - lines[len(lines)-1].Y; gap != itemGap {
		t.Errorf("next row starts %v below the last line, want %v", gap, itemGap)
	}
}

func TestRenderBreaksLongTables(t *testing.T) {
	inv := consultingInvoice()
	inv.Items = nil
	for i := 1; i <= 40; i++ {
		inv.Items = append(inv.Items, models.LineItem{
			Description: fmt.Sprintf("Position %02d", i), Quantity: 1, Unit: "hour", UnitPrice: 10, VATRate: models.Rate(19),
		})
	}

	doc := render(t, NewRenderer(nil), inv, Options{Language: i18n.English})
	layout := doc.Layout()

	if layout.Pages < 2 {
		t.Fatalf("Pages = %d, want the table to continue on a second page", layout.Pages)
	}

	headers := map[int]bool{}
	footers := map[int]bool{}
	for _, r := range layout.Runs {
		if r.Y > bodyLimit && r.Y < footerBaseline {
			t.Errorf("%q on page %d at y=%v runs into the footer", r.Text, r.Page, r.Y)
		}
		switch r.Text {
		case "Description":
			headers[r.Page] = true
		case "Muster Beratung GmbH":
			footers[r.Page] = true
		}
	}
	for n := 1; n <= layout.Pages; n++ {
		if !footers[n] {
			t.Errorf("page %d has no footer", n)
		}
		if !layout.Has(fmt.Sprintf("%d/%d", n, layout.Pages)) {
			t.Errorf("page label %d/%d missing", n, layout.Pages)
		}
	}
	if !headers[2] {
		t.Error("table header not repeated on page 2")
	}
	for i := 1; i <= 40; i++ {
		if !layout.Has(fmt.Sprintf("Position %02d", i)) {
			t.Errorf("item %d missing", i)
		}
	}
	if got := layout.Row("Total amount"); !reflect.DeepEqual(got, []string{"Total amount", "€476.00"}) {
		t.Errorf("gross row = %q", got)
	}

	pdf, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if got := bytes.Count(pdf, []byte("<</Type /Page\n")); got != layout.Pages {
		t.Errorf("PDF has %d pages, layout %d", got, layout.Pages)
	}
}

func TestRenderMissingLogo(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	unreachable := srv.URL + "/logo.png"
	srv.Close()

	r := NewRenderer(NewLogoFetcher(500 * time.Millisecond))
	for _, url := range []string{unreachable, "http://127.0.0.1:1/logo.png", "::not a url::"} {
		inv := consultingInvoice()
		inv.LogoURL = url

		doc := render(t, r, inv, Options{})
		if doc.Layout().LogoPlaced {
			t.Errorf("logo placed for %q", url)
		}
		pdf, err := doc.Bytes()
		if err != nil {
			t.Fatalf("Bytes() error = %v", err)
		}
		if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
			t.Error("output is not a PDF")
		}
	}
}

func TestRenderWithLogo(t *testing.T) {
	logo := pngBytes(t, 600, 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(logo)
	}))
	defer srv.Close()

	inv := consultingInvoice()
	inv.LogoURL = srv.URL + "/logo"

	withLogo := render(t, NewRenderer(NewLogoFetcher(time.Second)), inv, Options{})
	without := render(t, NewRenderer(nil), consultingInvoice(), Options{})

	if !withLogo.Layout().LogoPlaced {
		t.Fatal("logo not placed")
	}
	// 600x100 scales to 150x25, which is taller than the 20pt minimum
	a, _ := withLogo.Layout().Find("Erika Mustermann")
	b, _ := without.Layout().Find("Erika Mustermann")
	if a.Y-b.Y != 5 {
		t.Errorf("recipient moved by %v, want 5", a.Y-b.Y)
	}
}

func TestRenderRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(inv *models.Invoice)
	}{
		{"no seller name", func(inv *models.Invoice) { inv.Seller.Name = "  " }},
		{"no items", func(inv *models.Invoice) { inv.Items = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := consultingInvoice()
			tt.mutate(inv)

			_, err := NewRenderer(nil).Render(context.Background(), inv, Options{})
			if !errors.Is(err, invoice.ErrMissingRequiredField) {
				t.Fatalf("error = %v, want ErrMissingRequiredField", err)
			}
			var renderErr *RenderError
			if !errors.As(err, &renderErr) {
				t.Errorf("error %T is not a *RenderError", err)
			}
		})
	}
}

func TestRenderOptionalFieldsOmitted(t *testing.T) {
	inv := consultingInvoice()
	inv.Bank = nil
	inv.Seller.Contact = nil
	inv.Seller.Phone = ""
	inv.Customer.InsuranceNumber = ""
	inv.Intro = ""
	inv.Outro = ""

	layout := render(t, NewRenderer(nil), inv, Options{Language: i18n.English}).Layout()
	for _, text := range []string{"IBAN", "BANK", "TEL.", "YOUR CONTACT", "Insurance Number:"} {
		if layout.Has(text) || layout.Contains(text) {
			t.Errorf("layout contains %q although the field is empty", text)
		}
	}
}

func TestDocumentWriteIsRepeatable(t *testing.T) {
	logo := pngBytes(t, 300, 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(logo)
	}))
	defer srv.Close()

	withLogo := consultingInvoice()
	withLogo.LogoURL = srv.URL + "/logo"

	tests := []struct {
		name string
		doc  *Document
	}{
		{name: "plain", doc: render(t, NewRenderer(nil), consultingInvoice(), Options{})},
		{name: "with logo", doc: render(t, NewRenderer(NewLogoFetcher(time.Second)), withLogo, Options{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := tt.doc.Bytes()
			if err != nil {
				t.Fatalf("first Bytes() error = %v", err)
			}
			// map iteration in the engine varies between runs, so one
			// lucky pair proves little
			for i := 0; i < 10; i++ {
				next, err := tt.doc.Bytes()
				if err != nil {
					t.Fatalf("Bytes() error = %v", err)
				}
				if !bytes.Equal(first, next) {
					t.Fatalf("write %d differs from the first", i+2)
				}
			}
		})
	}
}
