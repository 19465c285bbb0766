package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Layout constants, in points on a US Letter page.
const (
	margin       = 50.0
	tableRight   = 540.0
	rowHeight    = 20.0
	lineHeight   = 13.0
	totalsLeft   = 350.0
	totalsLabelW = 100.0
	totalsValueW = 90.0
	footerOffset = 50.0
	dateLayout   = "1/2/2006"
	FooterText   = "Thank you for your business!"
)

var (
	tableHeaders = []string{"Description", "Qty", "Unit Price", "Total"}
	columnWidths = []float64{250, 60, 90, 90}
)

// Renderer writes invoice documents as PDF.
type Renderer struct {
	// CreatedAt is stamped into the document metadata. Zero means the issue date.
	CreatedAt time.Time

	uncompressed bool
}

func New() *Renderer {
	return &Renderer{}
}

// Render lays out doc and writes the PDF to w.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageH := pdf.GetPageSize()

	created := r.CreatedAt
	if created.IsZero() {
		created = doc.IssueDate
	}
	pdf.SetCreationDate(created)
	pdf.SetCompression(!r.uncompressed)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Invoice "+doc.Number, true)
	pdf.SetAuthor(doc.From.Name, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, footerOffset+20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(pageH - footerOffset)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 10, FooterText, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Title block
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 28, "INVOICE", "", 1, "R", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 14, tr(doc.Number), "", 1, "R", false, 0, "")

	pdf.Ln(24)
	party(pdf, tr, "From:", doc.From.Name, doc.From.Address, doc.From.Email, doc.From.Phone)
	pdf.Ln(lineHeight)
	party(pdf, tr, "Bill To:", doc.To.Name, doc.To.Email, doc.To.Address, doc.To.Phone)

	pdf.Ln(lineHeight)
	text(pdf, "Issue Date: "+doc.IssueDate.Format(dateLayout))
	text(pdf, "Due Date: "+doc.DueDate.Format(dateLayout))

	// Item table
	pdf.Ln(26)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range tableHeaders {
		pdf.CellFormat(columnWidths[i], 15, h, "", 0, align(i), false, 0, "")
	}
	pdf.Ln(15)
	y := pdf.GetY()
	pdf.Line(margin, y, tableRight, y)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range doc.Items {
		lines := pdf.SplitText(tr(it.Description), columnWidths[0])
		if len(lines) == 0 {
			lines = []string{""}
		}
		pdf.CellFormat(columnWidths[0], rowHeight, lines[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(columnWidths[1], rowHeight, Quantity(it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(columnWidths[2], rowHeight, Money(it.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(columnWidths[3], rowHeight, Money(it.Total), "", 1, "R", false, 0, "")
		for _, more := range lines[1:] {
			pdf.CellFormat(columnWidths[0], lineHeight, more, "", 1, "L", false, 0, "")
		}
	}

	// Totals block
	pdf.Ln(10)
	y = pdf.GetY()
	pdf.Line(totalsLeft, y, tableRight, y)
	pdf.Ln(10)
	total(pdf, "Subtotal:", Money(doc.Subtotal))
	if doc.TaxRate.IsPositive() {
		total(pdf, fmt.Sprintf("Tax (%s%%):", doc.TaxRate.String()), Money(doc.TaxAmount))
	}
	pdf.SetFont("Helvetica", "B", 10)
	total(pdf, "Total:", Money(doc.Total))

	if strings.TrimSpace(doc.Notes) != "" {
		pdf.Ln(30)
		pdf.SetFont("Helvetica", "B", 10)
		text(pdf, "Notes:")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, lineHeight, tr(doc.Notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}
	return nil
}

// Bytes renders doc into memory.
func (r *Renderer) Bytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Quantity prints a quantity without the column's padding zeros.
func Quantity(d decimal.Decimal) string {
	return d.String()
}

// Money formats an amount the way the invoice prints it.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func party(pdf *fpdf.Fpdf, tr func(string) string, title string, lines ...string) {
	pdf.SetFont("Helvetica", "B", 10)
	text(pdf, title)
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		if l == "" {
			continue
		}
		for _, part := range strings.Split(l, "\n") {
			text(pdf, tr(part))
		}
	}
}

func text(pdf *fpdf.Fpdf, s string) {
	pdf.CellFormat(0, lineHeight, s, "", 1, "L", false, 0, "")
}

func total(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetX(totalsLeft)
	pdf.CellFormat(totalsLabelW, rowHeight, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(totalsValueW, rowHeight, value, "", 1, "R", false, 0, "")
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}
