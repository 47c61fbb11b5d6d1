package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/internal/units"
	"invoicegen/pkg/models"
)

// Producer is written to the PDF info dictionary.
const Producer = "invoicegen"

// Decorator adjusts the PDF engine right before output, e.g. to attach
// files or XMP metadata.
type Decorator func(pdf *fpdf.Fpdf)

// Document is a rendered invoice. The page is redrawn on every Write, so a
// Document can be written any number of times and with different
// decorators.
type Document struct {
	inv      *models.Invoice
	lang     i18n.Language
	greeting string
	logo     *Logo
	created  time.Time
	totals   invoice.Totals
	layout   Layout
}

// Invoice returns the rendered invoice.
func (d *Document) Invoice() *models.Invoice { return d.inv }

// Language returns the document language.
func (d *Document) Language() i18n.Language { return d.lang }

// Created returns the creation timestamp written to the metadata.
func (d *Document) Created() time.Time { return d.created }

// Totals returns the amounts printed on the page.
func (d *Document) Totals() invoice.Totals { return d.totals }

// Layout returns the trace of the drawn page.
func (d *Document) Layout() Layout { return d.layout }

// Title returns the metadata title, e.g. "Rechnung 2024-03-0001".
func (d *Document) Title() string {
	return i18n.Translations(d.lang).DocumentTitle + " " + d.inv.Number
}

// Write draws the page, applies decorators and writes the PDF to w.
func (d *Document) Write(w io.Writer, decorators ...Decorator) error {
	const op = "Write"

	pdf, _ := d.draw()
	for _, decorate := range decorators {
		decorate(pdf)
	}
	if err := pdf.Error(); err != nil {
		return NewRenderError(op, err, "layout")
	}
	if err := pdf.Output(w); err != nil {
		return NewRenderError(op, err, "output")
	}
	return nil
}

// Bytes returns the PDF as a byte slice.
func (d *Document) Bytes(decorators ...Decorator) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf, decorators...); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, NewRenderError("Bytes", ErrNoOutput, "")
	}
	return buf.Bytes(), nil
}

// page wraps the engine with the current font state and records every
// drawn run.
type page struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	style string
	size  float64
	shade int
	runs  []TextRun
}

func (p *page) font(style string, size float64) {
	p.style, p.size = style, size
	p.pdf.SetFont("Helvetica", style, size)
}

func (p *page) color(shade int) {
	p.shade = shade
	p.pdf.SetTextColor(shade, shade, shade)
}

func (p *page) width(s string) float64 {
	return p.pdf.GetStringWidth(p.tr(s))
}

func (p *page) text(x, y float64, s string) {
	s = Sanitize(s)
	if s == "" {
		return
	}
	p.pdf.Text(x, y, p.tr(s))
	p.runs = append(p.runs, TextRun{
		Page: p.pdf.PageNo(), X: x, Y: y,
		Style: p.style, Size: p.size, Gray: p.shade, Text: s,
	})
}

func (p *page) textRight(right, y float64, s string) {
	s = Sanitize(s)
	p.text(right-p.width(s), y, s)
}

func (p *page) rule(x1, y, x2 float64, shade int) {
	p.pdf.SetDrawColor(shade, shade, shade)
	p.pdf.SetLineWidth(0.5)
	p.pdf.Line(x1, y, x2, y)
}

func (p *page) wrap(s string, max float64) []string {
	return Wrap(p.width, Sanitize(s), max)
}

// draw lays out the document. Page labels need the page count, so an
// invoice that overflows the first page is drawn a second time.
func (d *Document) draw() (*fpdf.Fpdf, Layout) {
	pdf, layout := d.drawPages(1)
	if layout.Pages > 1 {
		pdf, layout = d.drawPages(layout.Pages)
	}
	return pdf, layout
}

func (d *Document) drawPages(total int) (*fpdf.Fpdf, Layout) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, Margin)
	pdf.SetTitle(d.Title(), true)
	pdf.SetAuthor(d.inv.Seller.Name, true)
	pdf.SetCreator(Producer, true)
	pdf.SetProducer(Producer, true)
	pdf.SetCreationDate(d.created)
	pdf.SetModificationDate(d.created)
	pdf.SetLang(string(d.lang))
	pdf.AddPage()

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	t := i18n.Translations(d.lang)
	inv := d.inv
	cur := d.totals.Currency

	layout := Layout{Totals: d.totals}
	y := Margin

	// Sender line and logo
	logoW, logoH := 0.0, 0.0
	if d.logo != nil {
		logoW, logoH = scaleLogo(d.logo)
	}
	sender := strings.Join(nonEmpty(
		inv.Seller.Name,
		inv.Seller.Address.StreetLine(),
		inv.Seller.Address.CityLine(),
	), " - ")
	p.font("", 8)
	p.color(gray)
	senderMax := ContentWidth
	if logoW > 0 {
		senderMax -= logoW + 10
	}
	p.text(Margin, y, Truncate(p.width, Sanitize(sender), senderMax))

	if logoW > 0 {
		info := pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: d.logo.Type}, bytes.NewReader(d.logo.Data))
		if info != nil && pdf.Error() == nil {
			pdf.ImageOptions("logo", RightEdge-logoW, y-10, logoW, logoH, false, fpdf.ImageOptions{ImageType: d.logo.Type}, 0, "")
			layout.LogoPlaced = true
		}
	}
	if !layout.LogoPlaced {
		logoH = 0
	}
	y += max(logoH, 20) + 30

	// Recipient block
	left := y
	p.color(black)
	p.font("B", 10)
	p.text(Margin, left, inv.Customer.Name)
	left += linePitch
	p.font("", 10)
	for _, line := range nonEmpty(inv.Customer.Address.StreetLine(), inv.Customer.Address.CityLine()) {
		p.text(Margin, left, line)
		left += linePitch
	}
	if country := inv.Customer.Address.CountryCode(); country != models.DefaultCountry {
		p.text(Margin, left, i18n.CountryName(country, d.lang))
		left += linePitch
	}
	for _, info := range inv.Customer.AdditionalInfo {
		if Sanitize(info) == "" {
			continue
		}
		p.text(Margin, left, Truncate(p.width, Sanitize(info), ContentWidth/2-10))
		left += linePitch
	}
	if nr := strings.TrimSpace(inv.Customer.InsuranceNumber); nr != "" {
		p.font("", 9)
		p.text(Margin, left, t.InsuranceLabel+" "+nr)
		left += linePitch
	}

	// Metadata column
	right := y
	metaX := PageWidth/2 + 10
	metaRow := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		p.font("", 8)
		p.color(gray)
		p.text(metaX, right, label)
		p.color(black)
		p.textRight(RightEdge, right, value)
		right += metaPitch
	}
	metaRow(t.Meta.InvoiceNumber, inv.Number)
	metaRow(t.Meta.InvoiceDate, i18n.FormatDate(inv.Date, d.lang))
	if strings.TrimSpace(inv.BuyerReference) != "" {
		metaRow(t.Meta.Reference, inv.BuyerReference)
	}
	metaRow(t.Meta.ServiceDate, i18n.FormatDate(inv.ServiceDate, d.lang))
	if inv.Seller.Contact != nil {
		metaRow(t.Meta.ContactPerson, inv.Seller.Contact.Name)
	}

	y = max(left, right) + 45

	// Title with the date on the optical center line
	const titleSize, dateSize = 14.0, 10.0
	p.color(black)
	p.font("B", titleSize)
	p.text(Margin, y, t.Title(inv.Number))
	p.font("", dateSize)
	p.textRight(RightEdge, y-(titleSize-dateSize)/2, i18n.FormatDate(inv.Date, d.lang))
	y += 30

	// Greeting and intro
	p.font("", 10)
	p.text(Margin, y, d.greeting)
	y += 20
	for _, line := range p.wrap(inv.Intro, ContentWidth) {
		p.text(Margin, y, line)
		y += linePitch
	}
	y += 20

	// Line items
	colQty := Margin + ContentWidth*colQuantity
	colU := Margin + ContentWidth*colUnit
	colPrice := Margin + ContentWidth*colUnitPrice

	tableHeader := func() {
		p.color(black)
		p.font("B", 9)
		p.text(Margin, y, t.Columns.Description)
		p.textRight(colQty+40, y, t.Columns.Quantity)
		p.text(colU, y, t.Columns.Unit)
		p.textRight(colPrice+55, y, t.Columns.UnitPrice)
		p.textRight(RightEdge, y, t.Columns.Total)
		y += 5
		p.rule(Margin, y, RightEdge, black)
		y += 18
		p.font("", 10)
	}

	// newPage closes the current page with its footer and moves the cursor
	// to the top of the next one when height does not fit above the footer.
	newPage := func(height float64) bool {
		if y+height <= bodyLimit {
			return false
		}
		d.drawFooter(p, t, total)
		pdf.AddPage()
		y = Margin + 10
		p.color(black)
		p.font("", 10)
		return true
	}

	tableHeader()
	for _, line := range d.totals.Lines {
		desc := p.wrap(line.Item.Description, ContentWidth*descWidth)
		if newPage(float64(max(len(desc)-1, 0)) * linePitch) {
			tableHeader()
		}
		if len(desc) > 0 {
			p.text(Margin, y, desc[0])
		}
		p.textRight(colQty+40, y, i18n.FormatQuantity(line.Item.Quantity, d.lang))
		p.text(colU, y, units.LabelOf(line.Item.Unit))
		p.textRight(colPrice+55, y, i18n.FormatCurrency(unitPrice(line.Item), cur, d.lang))
		p.textRight(RightEdge, y, i18n.FormatCurrency(line.Net, cur, d.lang))
		for _, extra := range desc[min(1, len(desc)):] {
			y += linePitch
			p.text(Margin, y, extra)
		}
		y += itemGap
	}

	// Totals
	y += 10
	newPage(totalsPitch*float64(len(d.totals.Groups)+1) + 14)
	labelX := RightEdge - totalsWidth
	p.text(labelX, y, t.NetTotal)
	p.textRight(RightEdge, y, i18n.FormatCurrency(d.totals.Net, cur, d.lang))
	y += totalsPitch
	for _, g := range d.totals.Groups {
		p.text(labelX, y, t.VATLine(i18n.FormatRate(g.Rate, d.lang)))
		p.textRight(RightEdge, y, i18n.FormatCurrency(g.Tax, cur, d.lang))
		y += totalsPitch
	}
	y += 2
	p.rule(labelX, y, RightEdge, black)
	y += 12
	p.font("B", 10)
	p.text(labelX, y, t.GrossTotal)
	p.textRight(RightEdge, y, i18n.FormatCurrency(d.totals.Gross, cur, d.lang))
	y += 40

	// Outro, one paragraph per input line
	p.font("", 10)
	for _, para := range strings.Split(inv.Outro, "\n") {
		for _, line := range p.wrap(para, ContentWidth) {
			newPage(0)
			p.text(Margin, y, line)
			y += linePitch
		}
	}
	layout.Bottom = y

	d.drawFooter(p, t, total)

	layout.Runs = p.runs
	layout.Pages = pdf.PageCount()
	return pdf, layout
}

// drawFooter draws the seller footer and the "page/total" label on the
// current page.
func (d *Document) drawFooter(p *page, t i18n.Table, total int) {
	p.font("", 8)
	p.color(gray)
	p.textRight(RightEdge, PageHeight-Margin, fmt.Sprintf("%d/%d", p.pdf.PageNo(), total))

	inv := d.inv
	seller := inv.Seller
	maxWidth := footerColWidth - 5
	cols := [4]float64{
		Margin,
		Margin + footerColWidth,
		Margin + footerColWidth*2,
		Margin + footerColWidth*3,
	}

	p.rule(Margin, footerBaseline-20, RightEdge, lightGray)

	// label and value share a line when both fit, otherwise the value
	// moves below the label
	row := func(label, value string, x, y float64) float64 {
		if strings.TrimSpace(value) == "" {
			return y
		}
		p.font("", footerSize)
		labelWidth := p.width(label + " ")
		p.color(gray)
		p.text(x, y, label)
		p.color(black)
		if labelWidth+p.width(Sanitize(value)) <= maxWidth {
			p.text(x+labelWidth, y, value)
			return y + footerPitch
		}
		y += footerPitch
		p.text(x, y, value)
		return y + footerPitch
	}

	p.font("", footerSize)
	p.color(black)
	y := footerBaseline
	p.text(cols[0], y, seller.Name)
	y += footerPitch
	if seller.SubHeadline != "" {
		for _, line := range p.wrap(seller.SubHeadline, maxWidth) {
			p.text(cols[0], y, line)
			y += footerPitch
		}
	}
	p.text(cols[0], y, seller.Address.StreetLine())
	y += footerPitch
	p.text(cols[0], y, seller.Address.CityLine())
	if c := strings.TrimSpace(seller.Address.Country); c != "" {
		y += footerPitch
		p.text(cols[0], y, i18n.CountryName(c, d.lang))
	}

	y = footerBaseline
	y = row("TEL.", seller.Phone, cols[1], y)
	row("E-MAIL", seller.FooterEmail(), cols[1], y)

	y = footerBaseline
	y = row("AMTSGERICHT", seller.Court, cols[2], y)
	y = row("HR-NR.", seller.RegisterNumber, cols[2], y)
	y = row("UST.-ID", seller.VATID, cols[2], y)
	y = row("STEUER-NR.", seller.TaxNumber, cols[2], y)
	row("GESCHÄFTSF.", seller.ManagingDirector, cols[2], y)

	if inv.Bank != nil {
		y = footerBaseline
		y = row("BANK", inv.Bank.BankName, cols[3], y)
		y = row("IBAN", inv.Bank.IBAN, cols[3], y)
		row("BIC", inv.Bank.BIC, cols[3], y)
	}
}

func unitPrice(item models.LineItem) decimal.Decimal {
	return decimal.NewFromFloat(item.UnitPrice)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
