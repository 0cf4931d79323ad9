package invoice

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

// Color is an RGB triple
type Color struct {
	R, G, B int
}

// Theme holds the styling and copy variants of the invoice layout
type Theme struct {
	Banner        Color
	HeaderFill    Color
	ClientLabel   string // used when the client name is missing
	ThankYouNote  string // used when the note is missing
	ChecksPayable bool   // print "Make all checks payable to <company>"
}

// DefaultTheme returns the navy banner layout
func DefaultTheme() Theme {
	return Theme{
		Banner:        Color{30, 58, 138},
		HeaderFill:    Color{243, 244, 246},
		ClientLabel:   entity.DefaultClientName,
		ThankYouNote:  entity.DefaultNote,
		ChecksPayable: true,
	}
}

// Decorator supplies the decorative invoice number and date stamp
type Decorator interface {
	InvoiceNumber() int
	Date() time.Time
}

type randomDecorator struct{}

func (randomDecorator) InvoiceNumber() int { return 1000 + rand.IntN(9000) }
func (randomDecorator) Date() time.Time    { return time.Now() }

// FixedDecorator returns the same number and date on every call
type FixedDecorator struct {
	Number int
	On     time.Time
}

func (d FixedDecorator) InvoiceNumber() int { return d.Number }
func (d FixedDecorator) Date() time.Time    { return d.On }

// Document is the output of a render
type Document struct {
	PDF        []byte
	Number     int
	Date       time.Time
	ClientName string
	Table      Table
}

// Option configures a Renderer
type Option func(*Renderer)

// WithTheme overrides the layout theme. Blank fallback labels keep the
// built-in defaults.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(theme.ClientLabel) == "" {
			theme.ClientLabel = entity.DefaultClientName
		}
		if strings.TrimSpace(theme.ThankYouNote) == "" {
			theme.ThankYouNote = entity.DefaultNote
		}
		r.theme = theme
	}
}

// WithDecorator overrides the invoice number and date source
func WithDecorator(d Decorator) Option {
	return func(r *Renderer) { r.decorator = d }
}

// WithCompression toggles stream compression in the output
func WithCompression(on bool) Option {
	return func(r *Renderer) { r.compress = on }
}

// Renderer turns invoice data into PDF bytes. It keeps no state between
// calls and is safe for concurrent use.
type Renderer struct {
	theme     Theme
	decorator Decorator
	compress  bool
}

// NewRenderer creates a renderer with the default theme and random decorations
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		theme:     DefaultTheme(),
		decorator: randomDecorator{},
		compress:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Page geometry in millimetres (A4 portrait)
const (
	pageWidth    = 210.0
	bannerHeight = 40.0
	rowHeight    = 10.0
	colDesc      = 110.0
	colQty       = 20.0
	colPrice     = 30.0
	colTotal     = 30.0
	fontFamily   = "Arial"
)

// Render lays out the invoice for companyName. Items that fail numeric
// coercion are skipped; the only error is a failure of the PDF writer.
func (r *Renderer) Render(companyName string, req entity.InvoiceDocumentRequest) (*Document, error) {
	table := BuildTable(req.Items)
	client := req.ClientOrDefault(r.theme.ClientLabel)
	note := req.NoteOrDefault(r.theme.ThankYouNote)
	number := r.decorator.InvoiceNumber()
	date := r.decorator.Date()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(date)
	pdf.SetModificationDate(date)
	pdf.SetTitle(toCP1252(companyName+" invoice"), false)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	r.drawBanner(pdf, companyName, number, date)
	r.drawBillTo(pdf, client)
	r.drawTable(pdf, table)
	r.drawTotal(pdf, table.GrandTotal)
	r.drawNotes(pdf, companyName, note)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write invoice pdf: %w", err)
	}

	return &Document{
		PDF:        buf.Bytes(),
		Number:     number,
		Date:       date,
		ClientName: client,
		Table:      table,
	}, nil
}

func (r *Renderer) drawBanner(pdf *gofpdf.Fpdf, companyName string, number int, date time.Time) {
	b := r.theme.Banner
	pdf.SetFillColor(b.R, b.G, b.B)
	pdf.Rect(0, 0, pageWidth, bannerHeight, "F")

	pdf.SetFont(fontFamily, "B", 24)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(10, 10)
	pdf.CellFormat(100, 15, toCP1252(companyName), "", 0, "L", false, 0, "")

	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetXY(150, 10)
	pdf.CellFormat(50, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	pdf.SetXY(150, 20)
	pdf.CellFormat(50, 5, fmt.Sprintf("#%d", number), "", 1, "R", false, 0, "")
	pdf.SetXY(150, 25)
	pdf.CellFormat(50, 5, date.Format("2006-01-02"), "", 1, "R", false, 0, "")
}

func (r *Renderer) drawBillTo(pdf *gofpdf.Fpdf, client string) {
	b := r.theme.Banner
	pdf.SetY(50)
	pdf.SetTextColor(b.R, b.G, b.B)
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 8, "BILL TO:", "", 1, "", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(fontFamily, "", 11)
	pdf.CellFormat(0, 6, toCP1252(client), "", 1, "", false, 0, "")
	pdf.Ln(10)
}

func (r *Renderer) drawTable(pdf *gofpdf.Fpdf, table Table) {
	f := r.theme.HeaderFill
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(f.R, f.G, f.B)
	pdf.CellFormat(colDesc, rowHeight, "  Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, rowHeight, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colPrice, rowHeight, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colTotal, rowHeight, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	for _, row := range table.Rows {
		pdf.CellFormat(colDesc, rowHeight, toCP1252("  "+row.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, rowHeight, row.DisplayQuantity(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, rowHeight, toCP1252(FormatCurrency(row.UnitPrice)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, rowHeight, toCP1252(FormatCurrency(row.LineTotal)), "1", 1, "R", false, 0, "")
	}
}

func (r *Renderer) drawTotal(pdf *gofpdf.Fpdf, total float64) {
	b := r.theme.Banner
	pdf.Ln(5)
	pdf.SetFont(fontFamily, "B", 14)
	pdf.SetTextColor(b.R, b.G, b.B)
	pdf.CellFormat(0, 10, toCP1252("TOTAL: "+FormatCurrency(total)+"  "), "", 1, "R", false, 0, "")
}

func (r *Renderer) drawNotes(pdf *gofpdf.Fpdf, companyName, note string) {
	pdf.Ln(10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(0, 8, "NOTES:", "", 0, "", false, 0, "")
	pdf.Ln(5)
	pdf.SetFont(fontFamily, "", 9)
	pdf.MultiCell(0, 5, toCP1252(note), "", "", false)

	if r.theme.ChecksPayable {
		pdf.Ln(3)
		pdf.SetFont(fontFamily, "I", 9)
		pdf.CellFormat(0, 5, toCP1252("Make all checks payable to "+companyName), "", 1, "L", false, 0, "")
	}
}
