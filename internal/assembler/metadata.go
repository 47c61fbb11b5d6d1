package assembler

import (
	"bytes"
	"encoding/xml"
	"strings"
	"text/template"
	"time"

	"invoicegen/internal/render"
	"invoicegen/internal/xrechnung"
)

// Factur-X extension values declared in the XMP packet.
const (
	AttachmentDescription = "XRechnung EN16931"
	DocumentType          = "INVOICE"
	DocumentVersion       = "1.0"
	ConformanceLevel      = "XRECHNUNG"
	xmpDate               = "2006-01-02T15:04:05Z07:00"
)

// Metadata is written to both the PDF info dictionary and the XMP packet.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
	Creator  string
	Producer string
	Created  time.Time
	Modified time.Time

	// FileName is the name of the embedded XML; defaults to xrechnung.xml.
	FileName string
}

// MetadataFor derives the metadata of a rendered document. Title and
// subject follow the document language.
func MetadataFor(doc *render.Document) Metadata {
	inv := doc.Invoice()
	return Metadata{
		Title:    doc.Title(),
		Author:   inv.Seller.Name,
		Subject:  doc.Title(),
		Keywords: []string{"Invoice", "Rechnung", inv.Number, "ZUGFeRD", "EN16931"},
		Creator:  inv.Seller.Name,
		Producer: render.Producer,
		Created:  doc.Created(),
		Modified: doc.Created(),
		FileName: xrechnung.DefaultDocumentFileName,
	}
}

func (m Metadata) fileName() string {
	if m.FileName == "" {
		return xrechnung.DefaultDocumentFileName
	}
	return m.FileName
}

func (m Metadata) keywords() string {
	return strings.Join(m.Keywords, ", ")
}

var xmpTemplate = template.Must(template.New("xmp").Funcs(template.FuncMap{
	"esc": escapeXML,
}).Parse(`<?xpacket begin="` + "\ufeff" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <rdf:Description rdf:about="" xmlns:pdfaid="http://www.aiim.org/pdfa/ns/id/">
      <pdfaid:part>3</pdfaid:part>
      <pdfaid:conformance>B</pdfaid:conformance>
    </rdf:Description>
    <rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">
      <dc:format>application/pdf</dc:format>
      <dc:title><rdf:Alt><rdf:li xml:lang="x-default">{{esc .Title}}</rdf:li></rdf:Alt></dc:title>
      <dc:creator><rdf:Seq><rdf:li>{{esc .Author}}</rdf:li></rdf:Seq></dc:creator>
      <dc:description><rdf:Alt><rdf:li xml:lang="x-default">{{esc .Subject}}</rdf:li></rdf:Alt></dc:description>
    </rdf:Description>
    <rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/">
      <xmp:CreatorTool>{{esc .Creator}}</xmp:CreatorTool>
      <xmp:CreateDate>{{.CreateDate}}</xmp:CreateDate>
      <xmp:ModifyDate>{{.ModifyDate}}</xmp:ModifyDate>
    </rdf:Description>
    <rdf:Description rdf:about="" xmlns:pdf="http://ns.adobe.com/pdf/1.3/">
      <pdf:Producer>{{esc .Producer}}</pdf:Producer>
      <pdf:Keywords>{{esc .Keywords}}</pdf:Keywords>
    </rdf:Description>
    <rdf:Description rdf:about="" xmlns:fx="urn:factur-x:pdfa:CrossIndustryDocument:invoice:1p0#">
      <fx:DocumentType>{{.DocumentType}}</fx:DocumentType>
      <fx:DocumentFileName>{{esc .FileName}}</fx:DocumentFileName>
      <fx:Version>{{.Version}}</fx:Version>
      <fx:ConformanceLevel>{{.ConformanceLevel}}</fx:ConformanceLevel>
    </rdf:Description>
    <rdf:Description rdf:about=""
        xmlns:pdfaExtension="http://www.aiim.org/pdfa/ns/extension/"
        xmlns:pdfaSchema="http://www.aiim.org/pdfa/ns/schema#"
        xmlns:pdfaProperty="http://www.aiim.org/pdfa/ns/property#">
      <pdfaExtension:schemas>
        <rdf:Bag>
          <rdf:li rdf:parseType="Resource">
            <pdfaSchema:schema>Factur-X PDFA Extension Schema</pdfaSchema:schema>
            <pdfaSchema:namespaceURI>urn:factur-x:pdfa:CrossIndustryDocument:invoice:1p0#</pdfaSchema:namespaceURI>
            <pdfaSchema:prefix>fx</pdfaSchema:prefix>
            <pdfaSchema:property>
              <rdf:Seq>
{{- range .Properties}}
                <rdf:li rdf:parseType="Resource">
                  <pdfaProperty:name>{{.}}</pdfaProperty:name>
                  <pdfaProperty:valueType>Text</pdfaProperty:valueType>
                  <pdfaProperty:category>external</pdfaProperty:category>
                  <pdfaProperty:description>{{.}}</pdfaProperty:description>
                </rdf:li>
{{- end}}
              </rdf:Seq>
            </pdfaSchema:property>
          </rdf:li>
        </rdf:Bag>
      </pdfaExtension:schemas>
    </rdf:Description>
  </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`))

// XMP renders the metadata packet declaring PDF/A-3b conformance and the
// embedded XRechnung document.
func XMP(m Metadata) ([]byte, error) {
	data := struct {
		Title, Author, Subject, Creator, Producer, Keywords string
		CreateDate, ModifyDate                              string
		DocumentType, FileName, Version, ConformanceLevel   string
		Properties                                          []string
	}{
		Title:            m.Title,
		Author:           m.Author,
		Subject:          m.Subject,
		Creator:          m.Creator,
		Producer:         m.Producer,
		Keywords:         m.keywords(),
		CreateDate:       m.Created.UTC().Format(xmpDate),
		ModifyDate:       m.Modified.UTC().Format(xmpDate),
		DocumentType:     DocumentType,
		FileName:         m.fileName(),
		Version:          DocumentVersion,
		ConformanceLevel: ConformanceLevel,
		Properties:       []string{"DocumentFileName", "DocumentType", "Version", "ConformanceLevel"},
	}

	var buf bytes.Buffer
	if err := xmpTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
