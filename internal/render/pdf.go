package render

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/ostendo/internal/models"
)

// PDF renders the deck as a landscape A4 document, one page per slide.
// Images are placed from their original files when the format is
// supported by the PDF writer; SVG and WebP visuals are listed as
// captions instead.
func (r *Renderer) PDF(payload *models.Payload) ([]byte, error) {
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 0)

	for _, slide := range payload.Slides {
		doc.AddPage()
		r.pdfSlide(doc, payload, &slide)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) pdfSlide(doc *fpdf.Fpdf, payload *models.Payload, slide *models.Slide) {
	pageW, _ := doc.GetPageSize()

	if slide.Type == models.SlideTitle {
		doc.SetFont("Helvetica", "B", 36)
		doc.SetY(70)
		doc.MultiCell(0, 16, slide.Title, "", "C", false)
		doc.SetFont("Helvetica", "", 16)
		for _, bullet := range slide.Bullets {
			doc.MultiCell(0, 10, bullet, "", "C", false)
		}
		return
	}

	doc.SetFont("Helvetica", "B", 24)
	doc.SetXY(18, 20)
	doc.MultiCell(pageW-36, 12, slide.Title, "", "L", false)
	doc.SetDrawColor(45, 108, 223)
	doc.SetLineWidth(1)
	doc.Line(18, doc.GetY()+2, pageW-18, doc.GetY()+2)
	doc.SetY(doc.GetY() + 8)

	doc.SetFont("Helvetica", "", 14)
	for _, bullet := range slide.Bullets {
		doc.SetX(22)
		doc.MultiCell(pageW-44, 8, "- "+bullet, "", "L", false)
	}

	x := 22.0
	for _, visual := range slide.Visuals {
		entry := payload.MediaByID(visual.MediaID)
		if entry == nil {
			continue
		}
		imagePath := mediaFilePath(payload, entry)
		imageType := pdfImageType(entry.Mime)
		if imageType != "" {
			if _, err := os.Stat(imagePath); err != nil {
				imageType = ""
			}
		}
		if imageType == "" {
			doc.SetX(22)
			doc.SetFont("Helvetica", "I", 10)
			doc.MultiCell(pageW-44, 6, "[image: "+visual.Alt+"]", "", "L", false)
			doc.SetFont("Helvetica", "", 14)
			continue
		}
		opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
		doc.ImageOptions(imagePath, x, doc.GetY()+6, 110, 0, false, opts, 0, "")
		x += 120
	}
}

func pdfImageType(mime string) string {
	switch mime {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return ""
	}
}
