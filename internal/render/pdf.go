package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder for logos
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/seafreight/backend/internal/model"
)

const (
	pageWidth     = 210.0 // A4, mm
	minPageHeight = 297.0
	// measureHeight is the scratch page used to find the content height.
	measureHeight = 5000.0
	margin        = 15.0
	contentWidth  = pageWidth - 2*margin
	footerSpace   = 25.0
	fontFamily    = "Helvetica"
	logoImageName = "logo"

	// maxLogoSourceDimension bounds a stored logo's declared size before decoding.
	maxLogoSourceDimension = 8000
)

var (
	skyR, skyG, skyB       = 2, 132, 199
	slateR, slateG, slateB = 71, 85, 105
)

// column widths of the items table, summing to contentWidth
var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"Description", 54, "L"},
	{"Unit", 18, "C"},
	{"Qty", 14, "C"},
	{"Weight", 22, "C"},
	{"CBM", 18, "C"},
	{"Rate", 26, "R"},
	{"Amount", 28, "R"},
}

// PDFRenderer renders the invoice as a one-page A4-wide PDF. The page grows
// taller than A4 instead of breaking onto a second page.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// PDFFilename is the download name for rec.
func PDFFilename(rec *model.InvoiceRecord) string {
	name := strings.TrimSpace(rec.InvoiceNumber)
	if name == "" {
		name = "Invoice"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	return name + ".pdf"
}

// RenderPDF writes the PDF for rec to w.
func (r *PDFRenderer) RenderPDF(rec *model.InvoiceRecord, w io.Writer) error {
	v := NewInvoiceView(rec)
	logo, err := decodeLogo(string(v.Company.LogoURL))
	if err != nil {
		slog.Warn("logo not embedded in pdf", "error", err)
		logo = nil
	}

	measure := newPDF(measureHeight)
	end := drawInvoice(measure, v, logo)
	if err := measure.Error(); err != nil {
		return fmt.Errorf("render pdf: layout: %w", err)
	}

	height := end + footerSpace
	if height < minPageHeight {
		height = minPageHeight
	}
	if height > measureHeight {
		slog.Warn("pdf content clipped at maximum page height",
			"invoice", rec.InvoiceNumber,
			"content_height_mm", height,
			"max_height_mm", measureHeight,
			"items", len(rec.Items))
		height = measureHeight
	}

	pdf := newPDF(height)
	drawInvoice(pdf, v, logo)
	drawFooter(pdf, v, height)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func newPDF(height float64) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pageWidth, Ht: height},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Invoice", true)
	pdf.SetCreator("InvoiceGen", true)
	pdf.AddPage()
	return pdf
}

// drawInvoice lays out everything above the footer and returns the y position
// where the content ends.
func drawInvoice(pdf *gofpdf.Fpdf, v InvoiceView, logo []byte) float64 {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	symbol := pdfSymbol(v.Currency)

	// top bar
	pdf.SetFillColor(skyR, skyG, skyB)
	pdf.Rect(0, 0, pageWidth, 4, "F")

	// company block
	top := 14.0
	if logo != nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(logoImageName, opts, bytes.NewReader(logo))
		pdf.ImageOptions(logoImageName, margin, top, 24, 0, false, opts, 0, "")
	} else {
		pdf.SetFillColor(240, 249, 255)
		pdf.Rect(margin, top, 24, 24, "F")
	}

	textX := margin + 28
	pdf.SetXY(textX, top)
	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetTextColor(15, 23, 42)
	pdf.CellFormat(80, 8, tr(v.Company.Name), "", 2, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(100, 116, 139)
	for _, line := range []string{v.Company.Address, v.Company.Email, v.Company.Phone} {
		pdf.SetX(textX)
		pdf.CellFormat(80, 5, tr(line), "", 2, "L", false, 0, "")
	}

	// invoice meta
	metaX := pageWidth - margin - 70
	pdf.SetXY(metaX, top)
	pdf.SetFont(fontFamily, "", 24)
	pdf.SetTextColor(skyR, skyG, skyB)
	pdf.CellFormat(70, 10, "INVOICE", "", 2, "R", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont(fontFamily, "", 10)
	for _, kv := range [][2]string{{"Invoice #: ", v.Number}, {"Date: ", v.Date}, {"Due Date: ", v.DueDate}} {
		pdf.SetX(metaX)
		pdf.SetTextColor(slateR, slateG, slateB)
		pdf.CellFormat(70, 5, tr(kv[0]+kv[1]), "", 2, "R", false, 0, "")
	}

	// bill to / shipment
	y := top + 38
	half := contentWidth/2 - 6
	pdf.SetXY(margin, y)
	sectionLabel(pdf, "BILL TO", half)
	pdf.SetX(margin)
	pdf.SetFont(fontFamily, "B", 13)
	pdf.SetTextColor(15, 23, 42)
	pdf.MultiCell(half, 6, tr(v.BillTo.Heading), "", "L", false)
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(slateR, slateG, slateB)
	for _, line := range []string{v.BillTo.Contact, v.BillTo.Address, v.BillTo.Email} {
		if line == "" {
			continue
		}
		pdf.SetX(margin)
		pdf.MultiCell(half, 5, tr(line), "", "L", false)
	}
	leftEnd := pdf.GetY()

	shipX := margin + half + 12
	pdf.SetXY(shipX, y)
	sectionLabel(pdf, "SHIPMENT DETAILS", half)
	boxY := pdf.GetY()
	pdf.SetFillColor(248, 250, 252)
	pdf.SetDrawColor(241, 245, 249)
	pdf.Rect(shipX, boxY, half, 24, "FD")
	pdf.SetXY(shipX+4, boxY+3)
	pdf.SetFont(fontFamily, "", 8)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(half-8, 4, "REFERENCE / BOOKING NO.", "", 2, "L", false, 0, "")
	pdf.SetX(shipX + 4)
	pdf.SetFont("Courier", "B", 12)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(half-8, 7, tr(v.BillTo.Reference), "", 2, "L", false, 0, "")
	pdf.SetX(shipX + 4)
	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(half-8, 5, "Sea Freight Service", "", 2, "L", false, 0, "")

	y = leftEnd
	if boxY+24 > y {
		y = boxY + 24
	}

	// items table
	y += 10
	pdf.SetXY(margin, y)
	pdf.SetFillColor(skyR, skyG, skyB)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(fontFamily, "B", 9)
	for _, col := range itemColumns {
		pdf.CellFormat(col.width, 9, col.title, "", 0, col.align, true, 0, "")
	}
	pdf.Ln(9)

	pdf.SetDrawColor(241, 245, 249)
	if len(v.Items) == 0 {
		pdf.SetX(margin)
		pdf.SetFont(fontFamily, "I", 10)
		pdf.SetTextColor(148, 163, 184)
		pdf.CellFormat(contentWidth, 16, "No items added yet.", "B", 1, "C", false, 0, "")
	}
	for _, item := range v.Items {
		drawItemRow(pdf, tr, item, symbol)
	}

	// totals
	y = pdf.GetY() + 8
	boxX := pageWidth - margin - 70
	totalRow := func(label, value string, style string, size float64) {
		pdf.SetX(boxX)
		pdf.SetFont(fontFamily, style, size)
		pdf.CellFormat(35, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(value), "", 1, "R", false, 0, "")
	}
	pdf.SetXY(boxX, y)
	pdf.SetTextColor(slateR, slateG, slateB)
	totalRow("Subtotal", symbol+v.Subtotal, "", 10)
	totalRow("Total CBM", v.TotalCBM, "", 10)
	pdf.SetDrawColor(226, 232, 240)
	pdf.SetLineWidth(0.6)
	pdf.Line(boxX, pdf.GetY()+1, boxX+70, pdf.GetY()+1)
	pdf.SetLineWidth(0.2)
	pdf.Ln(3)
	pdf.SetTextColor(15, 23, 42)
	totalRow("Total", symbol+v.Total, "B", 14)

	// notes
	y = pdf.GetY() + 10
	pdf.SetDrawColor(226, 232, 240)
	pdf.Line(margin, y, pageWidth-margin, y)
	pdf.SetXY(margin, y+5)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(contentWidth, 6, "Notes & Instructions", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(slateR, slateG, slateB)
	pdf.MultiCell(contentWidth, 4.5, tr(v.Notes), "", "L", false)

	return pdf.GetY()
}

func drawItemRow(pdf *gofpdf.Fpdf, tr func(string) string, item ItemView, symbol string) {
	const lineH = 5.0
	descW := itemColumns[0].width
	pdf.SetFont(fontFamily, "", 9)
	lines := pdf.SplitLines([]byte(tr(item.Description)), descW-2)
	if len(lines) == 0 {
		lines = [][]byte{nil}
	}
	rowH := float64(len(lines))*lineH + 4
	if item.Dimensions != "" {
		rowH += 4
	}

	x, y := margin, pdf.GetY()
	pdf.SetTextColor(30, 41, 59)
	for i, line := range lines {
		pdf.SetXY(x+1, y+2+float64(i)*lineH)
		pdf.CellFormat(descW-2, lineH, string(line), "", 0, "L", false, 0, "")
	}
	if item.Dimensions != "" {
		pdf.SetXY(x+1, y+2+float64(len(lines))*lineH)
		pdf.SetFont(fontFamily, "", 7)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(descW-2, 4, tr("Dims: "+item.Dimensions), "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 9)
	}

	cells := []string{strings.ToUpper(item.Unit), item.Qty, item.Weight, item.CBM, symbol + item.Rate, symbol + item.Amount}
	cx := x + descW
	for i, text := range cells {
		col := itemColumns[i+1]
		pdf.SetXY(cx, y)
		if i == len(cells)-1 {
			pdf.SetFont(fontFamily, "B", 9)
			pdf.SetTextColor(15, 23, 42)
		} else {
			pdf.SetFont(fontFamily, "", 9)
			pdf.SetTextColor(slateR, slateG, slateB)
		}
		pdf.CellFormat(col.width, rowH, tr(text), "", 0, col.align, false, 0, "")
		cx += col.width
	}
	pdf.Line(margin, y+rowH, pageWidth-margin, y+rowH)
	pdf.SetXY(margin, y+rowH)
}

func drawFooter(pdf *gofpdf.Fpdf, v InvoiceView, height float64) {
	pdf.SetXY(margin, height-15)
	pdf.SetFont(fontFamily, "", 8)
	pdf.SetTextColor(148, 163, 184)
	pdf.CellFormat(contentWidth, 5, v.Footer, "", 0, "C", false, 0, "")
}

func sectionLabel(pdf *gofpdf.Fpdf, text string, w float64) {
	pdf.SetFont(fontFamily, "B", 8)
	pdf.SetTextColor(skyR, skyG, skyB)
	pdf.CellFormat(w, 6, text, "", 2, "L", false, 0, "")
}

// pdfSymbol is the currency prefix for the PDF. The core fonts are cp1252, which
// has no cedi sign.
func pdfSymbol(c model.Currency) string {
	if c == model.CurrencyGHS {
		return "GHS "
	}
	return model.CurrencySymbol(c)
}

// decodeLogo returns the logo of a data URI as PNG bytes, or nil when there is none.
func decodeLogo(uri string) ([]byte, error) {
	if uri == "" {
		return nil, nil
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 || !strings.Contains(uri[:comma], ";base64") {
		return nil, errors.New("logo is not a base64 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > maxLogoSourceDimension || cfg.Height > maxLogoSourceDimension {
		return nil, fmt.Errorf("decode logo: %dx%d exceeds %d pixels per side",
			cfg.Width, cfg.Height, maxLogoSourceDimension)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	return buf.Bytes(), nil
}
