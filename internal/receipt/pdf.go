// Package receipt renders printable fee receipts and bills, and verifies the QR codes printed on
// them.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"

	"ms-backoffice/internal/models"
	"ms-backoffice/internal/words"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	fontFamily = "receipt"
	printDate  = "02/01/2006"
	marginX    = 40.0
	lineHeight = 20.0
)

type Generator struct {
	Institute string
	Codec     *Codec
	font      []byte
}

// NewGenerator loads the TTF at fontPath, falling back to the bundled Go Regular face when the
// file does not exist.
func NewGenerator(institute, fontPath string, codec *Codec) (*Generator, error) {
	font, err := os.ReadFile(fontPath)
	if errors.Is(err, os.ErrNotExist) || fontPath == "" {
		font, err = goregular.TTF, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return &Generator{Institute: institute, Codec: codec, font: font}, nil
}

func (g *Generator) newPage() (*gopdf.GoPdf, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()
	if err := pdf.AddTTFFontData(fontFamily, g.font); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.SetFont(fontFamily, "", 18); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetXY(marginX, 40)
	_ = pdf.Cell(nil, g.Institute)
	return pdf, pdf.SetFont(fontFamily, "", 12)
}

type line struct {
	Label string
	Value string
}

func writeLines(pdf *gopdf.GoPdf, lines []line) {
	for _, l := range lines {
		pdf.SetX(marginX)
		_ = pdf.Cell(nil, l.Label+": "+l.Value)
		pdf.Br(lineHeight)
	}
}

func rule(pdf *gopdf.GoPdf) {
	y := pdf.GetY() + 4
	pdf.Line(marginX, y, 555, y)
	pdf.SetY(y + 10)
}

func (g *Generator) finish(pdf *gopdf.GoPdf, p Payload) ([]byte, error) {
	if g.Codec != nil {
		code, err := g.Codec.QRCode(p)
		if err != nil {
			return nil, err
		}
		img, err := png.Decode(bytes.NewReader(code))
		if err != nil {
			return nil, fmt.Errorf("decode qr: %w", err)
		}
		if err := pdf.ImageFrom(img, marginX, pdf.GetY()+lineHeight, &gopdf.Rect{W: 100, H: 100}); err != nil {
			return nil, fmt.Errorf("draw qr: %w", err)
		}
		pdf.SetY(pdf.GetY() + 130)
	}
	pdf.SetX(marginX)
	_ = pdf.Cell(nil, "This is a computer generated receipt.")

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// PaymentReceipt renders a fee receipt. a may be nil when the admission row is unavailable.
func (g *Generator) PaymentReceipt(p *models.Payment, a *models.Admission) ([]byte, error) {
	amountWords, err := words.ToWords(p.Amount)
	if err != nil {
		return nil, err
	}
	pdf, err := g.newPage()
	if err != nil {
		return nil, err
	}

	pdf.SetXY(marginX, 70)
	_ = pdf.Cell(nil, "FEE RECEIPT")
	pdf.Br(lineHeight * 1.5)

	lines := []line{
		{"Receipt No", p.ReceiptNo},
		{"Date", p.PaidAt.Format(printDate)},
	}
	if a != nil {
		lines = append(lines,
			line{"Form No", a.FormNo},
			line{"Student", a.FullName()},
			line{"Course", a.CourseName + " (" + a.Batch + ")"},
		)
	}
	lines = append(lines,
		line{"Mode", string(p.Mode)},
		line{"Amount", "Rs. " + p.Amount.StringFixed(2)},
		line{"In words", amountWords},
	)
	if p.Reference != "" {
		lines = append(lines, line{"Reference", p.Reference})
	}
	if a != nil {
		lines = append(lines,
			line{"Total Fee", "Rs. " + a.TotalFee.StringFixed(2)},
			line{"Balance", "Rs. " + a.RemainingFee().StringFixed(2)},
		)
	}
	writeLines(pdf, lines)

	return g.finish(pdf, Payload{
		Kind:      KindPayment,
		ReceiptNo: p.ReceiptNo,
		Amount:    p.Amount.StringFixed(2),
		Date:      p.PaidAt.Format("2006-01-02"),
	})
}

// Bill renders a retail bill with its item table. Items must be loaded.
func (g *Generator) Bill(b *models.Bill) ([]byte, error) {
	totalWords, err := words.ToWords(b.TotalAmount)
	if err != nil {
		return nil, err
	}
	pdf, err := g.newPage()
	if err != nil {
		return nil, err
	}

	pdf.SetXY(marginX, 70)
	_ = pdf.Cell(nil, "BILL")
	pdf.Br(lineHeight * 1.5)
	writeLines(pdf, []line{
		{"Bill No", b.ReceiptNo},
		{"Date", b.BillDate.Format(printDate)},
		{"Customer", b.CustomerName},
		{"Mobile", b.CustomerMobile},
	})
	rule(pdf)

	cols := []float64{marginX, 300, 370, 460}
	row := func(cells ...string) {
		y := pdf.GetY()
		for i, c := range cells {
			pdf.SetXY(cols[i], y)
			_ = pdf.Cell(nil, c)
		}
		pdf.SetY(y + lineHeight)
	}
	row("Item", "Qty", "Rate", "Amount")
	for _, it := range b.Items {
		row(it.ItemName, it.Quantity.String(), it.Rate.StringFixed(2), it.Amount.StringFixed(2))
	}
	rule(pdf)
	row("", "", "Total", b.TotalAmount.StringFixed(2))
	writeLines(pdf, []line{{"In words", totalWords}})

	return g.finish(pdf, Payload{
		Kind:      KindBill,
		ReceiptNo: b.ReceiptNo,
		Amount:    b.TotalAmount.StringFixed(2),
		Date:      b.BillDate.Format("2006-01-02"),
	})
}
