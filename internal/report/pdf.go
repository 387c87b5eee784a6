package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	marginLeft = 20.0
	labelWidth = 60.0
	valueWidth = 110.0
	rowHeight  = 8.0
)

type rgb struct{ r, g, b int }

var (
	headerColor = rgb{41, 128, 185}
	highColor   = rgb{231, 76, 60}
	lowColor    = rgb{39, 174, 96}
)

func (d Document) bannerColor() rgb {
	if d.HighRisk {
		return highColor
	}
	return lowColor
}

// WritePDF renders doc as an A4 PDF. The output depends only on doc;
// the embedded dates are doc.GeneratedAt.
func WritePDF(w io.Writer, doc Document) error {
	return writePDF(w, doc, true)
}

// PDF renders doc into memory
func PDF(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePDF(w io.Writer, doc Document, compress bool) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("Diabetes Dashboard", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(marginLeft, 20, doc.Title)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginLeft, 35, "Patient Information")
	pdf.SetY(40)
	table(pdf, tr, doc.Patient)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginLeft, pdf.GetY()+10, "Submitted Features")
	pdf.SetY(pdf.GetY() + 15)
	table(pdf, tr, doc.Features)

	y := pdf.GetY() + 10
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginLeft, y, "Risk Assessment")

	c := doc.bannerColor()
	pdf.SetFillColor(c.r, c.g, c.b)
	pdf.Rect(marginLeft, y+5, 40, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.Text(marginLeft+5, y+12, doc.Risk)
	pdf.SetTextColor(0, 0, 0)
	if doc.Confidence > 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(marginLeft+45, y+12, fmt.Sprintf("Confidence: %.0f%%", doc.Confidence*100))
	}

	y += 28
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginLeft, y, "Recommendations")
	pdf.SetFont("Helvetica", "", 11)
	for i, rec := range doc.Recommendations {
		pdf.Text(marginLeft+10, y+10+float64(i)*7, tr("• "+rec))
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(marginLeft, 280, doc.Footer)

	return pdf.Output(w)
}

func table(pdf *fpdf.Fpdf, tr func(string) string, rows []Row) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(headerColor.r, headerColor.g, headerColor.b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetX(marginLeft)
	pdf.CellFormat(labelWidth, rowHeight, "Field", "1", 0, "L", true, 0, "")
	pdf.CellFormat(valueWidth, rowHeight, "Value", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	for _, r := range rows {
		pdf.SetX(marginLeft)
		pdf.CellFormat(labelWidth, rowHeight, tr(r.Label+":"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(valueWidth, rowHeight, tr(r.Value), "1", 1, "L", false, 0, "")
	}
}
