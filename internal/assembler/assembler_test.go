package assembler

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/internal/render"
	"invoicegen/internal/xrechnung"
	"invoicegen/pkg/models"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
}

func hybridInvoice() *models.Invoice {
	return &models.Invoice{
		Number:      "2024-03-0007",
		Date:        "2024-03-15",
		ServiceDate: "2024-03-14",
		Seller: models.Seller{
			Name: "Müller & Söhne GmbH",
			Address: models.Address{
				Street: "Hauptstraße", StreetNumber: "1", PostalCode: "10115", City: "Berlin", Country: "DE",
			},
			Email:          "rechnung@mueller.example",
			VATID:          "DE123456789",
			RegisterNumber: "HRB 12345",
			Contact:        &models.Contact{Name: "Max Muster", Phone: "+49 30 123456"},
		},
		Customer: models.Customer{
			Name:  "Erika Mustermann",
			Email: "erika@example.com",
			Address: models.Address{
				Street: "Nebenweg", StreetNumber: "5a", PostalCode: "80331", City: "München",
			},
		},
		Items: []models.LineItem{
			{Description: "Beratung", Quantity: 10, Unit: "hour", UnitPrice: 47.00, VATRate: models.Rate(19)},
			{Description: "Fachbuch", Quantity: 1, Unit: "piece", UnitPrice: 50.00, VATRate: models.Rate(7)},
		},
		Bank: &models.BankDetails{IBAN: "DE89 3704 0044 0532 0130 00", BankName: "Commerzbank"},
	}
}

func newAssembler() *Assembler {
	return New(invoice.NewValidator(), render.NewRenderer(nil).WithClock(fixedClock), nil)
}

var embeddedLength = regexp.MustCompile(`/Type /EmbeddedFile /Length (\d+)`)

// attachment inflates the first embedded file stream of an fpdf document.
func attachment(t *testing.T, pdf []byte) []byte {
	t.Helper()
	loc := embeddedLength.FindSubmatchIndex(pdf)
	if loc == nil {
		t.Fatal("no embedded file in PDF")
	}
	n, err := strconv.Atoi(string(pdf[loc[2]:loc[3]]))
	if err != nil {
		t.Fatalf("bad stream length: %v", err)
	}
	rest := pdf[loc[1]:]
	start := bytes.Index(rest, []byte("stream\n"))
	if start < 0 {
		t.Fatal("embedded file has no stream")
	}
	raw := rest[start+len("stream\n") : start+len("stream\n")+n]
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("zlib.NewReader() error = %v", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("inflate attachment: %v", err)
	}
	return out
}

func TestBuildHybrid(t *testing.T) {
	res, err := newAssembler().Build(context.Background(), hybridInvoice(), Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !bytes.HasPrefix(res.PDF, []byte("%PDF-")) {
		t.Fatalf("PDF header = %q", res.PDF[:8])
	}
	if !res.Report.Valid || res.Report.Profile != invoice.ProfileXRechnung {
		t.Errorf("Report = %+v, want valid xrechnung report", res.Report)
	}

	if got := attachment(t, res.PDF); !bytes.Equal(got, res.XML) {
		t.Error("embedded attachment differs from Result.XML")
	}

	pdf := string(res.PDF)
	for _, want := range []string{
		"/Type /Metadata /Subtype /XML",
		"<pdfaid:part>3</pdfaid:part>",
		"<pdfaid:conformance>B</pdfaid:conformance>",
		"<fx:DocumentType>INVOICE</fx:DocumentType>",
		"<fx:DocumentFileName>xrechnung.xml</fx:DocumentFileName>",
		"<fx:Version>1.0</fx:Version>",
		"<fx:ConformanceLevel>XRECHNUNG</fx:ConformanceLevel>",
		"<pdf:Keywords>Invoice, Rechnung, 2024-03-0007, ZUGFeRD, EN16931</pdf:Keywords>",
		"<rdf:li>Müller &amp; Söhne GmbH</rdf:li>",
		"<xmp:CreateDate>2024-03-15T09:30:00Z</xmp:CreateDate>",
		"/Type /Filespec",
		"/Type /EmbeddedFile ",
	} {
		if !strings.Contains(pdf, want) {
			t.Errorf("PDF lacks %q", want)
		}
	}

	summary, err := xrechnung.ReadSummary(res.XML)
	if err != nil {
		t.Fatalf("ReadSummary() error = %v", err)
	}
	if !summary.GrandTotal.Equal(res.Totals.Gross) || !summary.TaxTotal.Equal(res.Totals.Tax) {
		t.Errorf("XML totals %s/%s, rendered %s/%s",
			summary.GrandTotal, summary.TaxTotal, res.Totals.Gross, res.Totals.Tax)
	}
	if got := res.Totals.Gross.StringFixed(2); got != "612.80" {
		t.Errorf("Gross = %s, want 612.80", got)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := newAssembler()
	first, err := a.Build(context.Background(), hybridInvoice(), Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := a.Build(context.Background(), hybridInvoice(), Options{})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if !bytes.Equal(first.PDF, next.PDF) {
			t.Fatalf("build %d with a fixed clock differs from the first", i+2)
		}
	}
}

func TestBuildValidation(t *testing.T) {
	noBank := hybridInvoice()
	noBank.Bank = nil

	t.Run("strict rejects missing bank", func(t *testing.T) {
		_, err := newAssembler().Build(context.Background(), noBank, Options{Profile: invoice.ProfileXRechnung})
		if !errors.Is(err, invoice.ErrValidationFailed) {
			t.Fatalf("Build() error = %v, want ErrValidationFailed", err)
		}
		var verr *invoice.ValidationError
		if !errors.As(err, &verr) || !strings.HasPrefix(verr.Errors[0], "BR-DE-1") {
			t.Errorf("ValidationError = %+v", verr)
		}
	})

	t.Run("general accepts missing bank", func(t *testing.T) {
		res, err := newAssembler().Build(context.Background(), noBank, Options{Profile: invoice.ProfileGeneral})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if len(res.XML) == 0 {
			t.Error("XML missing")
		}
	})

	t.Run("nil invoice", func(t *testing.T) {
		_, err := newAssembler().Build(context.Background(), nil, Options{})
		if !errors.Is(err, invoice.ErrMissingRequiredField) {
			t.Errorf("Build() error = %v", err)
		}
	})
}

func TestBuildVisualOnly(t *testing.T) {
	res, err := newAssembler().Build(context.Background(), hybridInvoice(), Options{VisualOnly: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.XML != nil {
		t.Error("visual-only build returned XML")
	}
	// the engine always writes an empty /EmbeddedFiles name tree, so the
	// file objects themselves are checked
	for _, marker := range []string{"/Type /Filespec", "/Type /EmbeddedFile ", "pdfaid:part", "/Type /Metadata"} {
		if bytes.Contains(res.PDF, []byte(marker)) {
			t.Errorf("visual-only PDF contains %q", marker)
		}
	}
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newAssembler().Build(ctx, hybridInvoice(), Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

type failingEmbedder struct{ err error }

func (f failingEmbedder) Embed(VisualDocument, []byte, Metadata) ([]byte, error) {
	return nil, f.err
}

func TestBuildEmbedFailure(t *testing.T) {
	boom := errors.New("boom")
	a := New(invoice.NewValidator(), render.NewRenderer(nil), failingEmbedder{err: boom})
	if _, err := a.Build(context.Background(), hybridInvoice(), Options{}); !errors.Is(err, boom) {
		t.Errorf("Build() error = %v, want wrapped boom", err)
	}
}

func TestEmbedRejectsEmptyXML(t *testing.T) {
	doc, err := render.NewRenderer(nil).Render(context.Background(), hybridInvoice(), render.Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if _, err := (FpdfEmbedder{}).Embed(doc, nil, MetadataFor(doc)); !errors.Is(err, ErrEmptyXML) {
		t.Errorf("Embed() error = %v, want ErrEmptyXML", err)
	}
}

func TestMetadataForFollowsLanguage(t *testing.T) {
	tests := []struct {
		lang i18n.Language
		want string
	}{
		{i18n.German, "Rechnung 2024-03-0007"},
		{i18n.English, "Invoice 2024-03-0007"},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			doc, err := render.NewRenderer(nil).Render(context.Background(), hybridInvoice(), render.Options{Language: tt.lang})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			meta := MetadataFor(doc)
			if meta.Subject != tt.want || meta.Title != tt.want {
				t.Errorf("Title, Subject = %q, %q, want %q", meta.Title, meta.Subject, tt.want)
			}
		})
	}

	res, err := newAssembler().Build(context.Background(), hybridInvoice(), Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := `<dc:description><rdf:Alt><rdf:li xml:lang="x-default">Rechnung 2024-03-0007</rdf:li></rdf:Alt></dc:description>`
	if !bytes.Contains(res.PDF, []byte(want)) {
		t.Error("XMP description is not the German subject")
	}
}

func TestXMPEscapes(t *testing.T) {
	xmp, err := XMP(Metadata{Title: "A <b> & c", Created: fixedClock(), Modified: fixedClock()})
	if err != nil {
		t.Fatalf("XMP() error = %v", err)
	}
	s := string(xmp)
	if !strings.HasPrefix(s, "<?xpacket begin=\"\xef\xbb\xbf\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>") {
		t.Errorf("packet header = %q, want a UTF-8 byte order mark in begin", s[:min(len(s), 60)])
	}
	if !strings.Contains(s, "A &lt;b&gt; &amp; c") {
		t.Error("title not escaped")
	}
	if !strings.Contains(s, "<fx:DocumentFileName>xrechnung.xml</fx:DocumentFileName>") {
		t.Error("default file name missing")
	}
	if !strings.HasSuffix(s, `<?xpacket end="w"?>`) {
		t.Error("packet trailer missing")
	}
}
