package assembler

import (
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"invoicegen/internal/render"
)

// ErrEmptyXML is returned when there is no structured document to embed.
var ErrEmptyXML = errors.New("structured document is empty")

// VisualDocument is a page that can be written with engine decorators.
// *render.Document satisfies it.
type VisualDocument interface {
	Bytes(decorators ...render.Decorator) ([]byte, error)
}

// Embedder produces the hybrid PDF from the visual document and the XML.
type Embedder interface {
	Embed(visual VisualDocument, xml []byte, meta Metadata) ([]byte, error)
}

// FpdfEmbedder attaches the XML as an embedded file and writes the PDF/A-3
// XMP packet through the fpdf engine.
//
// fpdf has no OutputIntent support, so the conformance claim rests on the
// XMP declaration alone.
type FpdfEmbedder struct{}

var _ Embedder = FpdfEmbedder{}

// Embed writes visual with xml attached and meta applied.
func (FpdfEmbedder) Embed(visual VisualDocument, xml []byte, meta Metadata) ([]byte, error) {
	const op = "Embed"

	if len(xml) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyXML)
	}
	xmp, err := XMP(meta)
	if err != nil {
		return nil, fmt.Errorf("%s: build xmp packet: %w", op, err)
	}

	out, err := visual.Bytes(Decorate(xml, xmp, meta))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Decorate returns the engine decorator applying attachment, XMP and info
// dictionary.
func Decorate(xml, xmp []byte, meta Metadata) render.Decorator {
	return func(pdf *fpdf.Fpdf) {
		pdf.SetCatalogSort(true)
		pdf.SetAttachments([]fpdf.Attachment{{
			Content:     xml,
			Filename:    meta.fileName(),
			Description: AttachmentDescription,
		}})
		pdf.SetXmpMetadata(xmp)
		pdf.SetTitle(meta.Title, true)
		pdf.SetAuthor(meta.Author, true)
		pdf.SetSubject(meta.Subject, true)
		pdf.SetKeywords(meta.keywords(), true)
		pdf.SetCreator(meta.Creator, true)
		pdf.SetProducer(meta.Producer, true)
		pdf.SetCreationDate(meta.Created)
		pdf.SetModificationDate(meta.Modified)
	}
}
