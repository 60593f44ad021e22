package render

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Printer writes the preview region to a print surface.
type Printer interface {
	Print(ctx context.Context, p Preview, w io.Writer) error
}

// PDFPrinter lays the preview out on a single A4 page. Core PDF fonts only
// cover cp1252, so symbols outside it print as '?'.
type PDFPrinter struct{}

func (PDFPrinter) Print(ctx context.Context, p Preview, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	r, g, b := hexRGB(colorOr(p.Template.Accent, "#6b7280"))
	pdf.SetFillColor(r, g, b)
	pdf.Rect(0, 0, 210, 4, "F")

	if p.Logo != nil {
		if err := printLogo(pdf, p.Logo); err != nil {
			return err
		}
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(120, 9, tr(p.Header.BusinessName), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 9, tr("Invoice #"+p.Header.InvoiceNumber), "", 1, "R", false, 0, "")
	pdf.CellFormat(120, 6, tr(p.Header.BusinessEmail), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(dateLine(p.Header)), "", 1, "R", false, 0, "")
	if p.Header.BusinessAddress != "" {
		pdf.CellFormat(0, 6, tr(p.Header.BusinessAddress), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr(p.BillTo.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(p.BillTo.Email), "", 1, "L", false, 0, "")
	if p.Employee != nil {
		pdf.CellFormat(0, 6, tr("Prepared by: "+p.Employee.Name), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{90, 20, 35, 35}
	aligns := []string{"L", "R", "R", "R"}
	pdf.SetFont("Arial", "B", 11)
	for i, col := range p.Items.Columns {
		pdf.CellFormat(widths[i], 8, col, "B", 0, aligns[i], false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 11)
	for _, row := range p.Items.Rows {
		cells := []string{row.Description, row.Quantity, row.UnitPrice, row.Total}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, tr(c), "", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	for _, line := range p.Totals.Lines() {
		if line.Label == "Total" {
			pdf.SetFont("Arial", "B", 12)
		}
		pdf.CellFormat(145, 7, tr(line.Label), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, tr(line.Amount), "", 1, "R", false, 0, "")
	}

	if p.Notes != nil {
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(p.Notes.Text), "", "L", false)
	}

	pdf.Ln(4)
	x, y := pdf.GetX(), pdf.GetY()
	for i, qr := range []*QRBlock{p.PaymentQR, p.ContactQR} {
		if qr == nil {
			continue
		}
		pdf.SetXY(x, y)
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(35, 5, tr(qr.Title), "", 2, "L", false, 0, "")
		if qr.HasImage() {
			name := "qr-" + strconv.Itoa(i)
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(qr.PNG))
			pdf.ImageOptions(name, x, y+6, 30, 30, false, opts, 0, "")
		} else {
			pdf.CellFormat(35, 5, tr(qr.Placeholder), "", 2, "L", false, 0, "")
		}
		x += 45
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// printLogo places the logo top left, 16mm high, and moves the cursor below
// it. The image is re-encoded as PNG since gofpdf does not read every format
// an upload may use.
func printLogo(pdf *gofpdf.Fpdf, l *LogoBlock) error {
	img, err := decodeLogo(l)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("logo", opts, &buf)
	pdf.ImageOptions("logo", 15, 8, 0, 16, false, opts, 0, "")
	pdf.SetY(8 + 16 + 4)
	return nil
}

func dateLine(h HeaderBlock) string {
	parts := []string{}
	if h.InvoiceDate != "" {
		parts = append(parts, "Date: "+h.InvoiceDate)
	}
	if h.DueDate != "" {
		parts = append(parts, "Due: "+h.DueDate)
	}
	return strings.Join(parts, "  ")
}

// hexRGB parses #rrggbb, returning grey on malformed input.
func hexRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 107, 114, 128
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 107, 114, 128
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
