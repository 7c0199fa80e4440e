package printing

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"

	"shoppos/internal/domain"
)

type Symbology string

const (
	SymbologyCode128 Symbology = "code128"
	SymbologyQR      Symbology = "qr"
)

func ParseSymbology(raw string) Symbology {
	if Symbology(strings.ToLower(strings.TrimSpace(raw))) == SymbologyQR {
		return SymbologyQR
	}
	return SymbologyCode128
}

var ErrNoLabels = errors.New("no products with a barcode to print")

type LabelOptions struct {
	ShopName  string
	Currency  string
	Symbology Symbology
	// FontPath points at a UTF-8 TrueType font. Without it the core
	// Helvetica font is used and non-Latin text is lost.
	FontPath string
}

// A4 grid, four tiles per row.
const (
	pageMargin = 10.0
	labelCols  = 4
	labelW     = (210.0 - 2*pageMargin) / labelCols
	labelH     = 34.0
	labelRows  = int(297.0-2*pageMargin) / int(labelH)
)

// RenderLabelSheet draws one tile per product carrying name, symbol, code,
// price and shop name. Products without a barcode are skipped.
func RenderLabelSheet(products []domain.Product, opts LabelOptions) ([]byte, error) {
	printable := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.TrimSpace(p.Barcode) != "" {
			printable = append(printable, p)
		}
	}
	if len(printable) == 0 {
		return nil, ErrNoLabels
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)

	family := "Helvetica"
	text := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		family = "label"
		pdf.AddUTF8Font(family, "", opts.FontPath)
		text = func(s string) string { return s }
	}

	perPage := labelCols * labelRows
	for i, p := range printable {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		slot := i % perPage
		x := pageMargin + float64(slot%labelCols)*labelW
		y := pageMargin + float64(slot/labelCols)*labelH

		img, err := encodeSymbol(p.Barcode, opts.Symbology)
		if err != nil {
			return nil, fmt.Errorf("encode barcode for %q: %w", p.Name, err)
		}
		drawLabel(pdf, family, text, x, y, p, img, opts)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("draw label for %q: %w", p.Name, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write label pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLabel(pdf *fpdf.Fpdf, family string, text func(string) string, x, y float64, p domain.Product, symbol []byte, opts LabelOptions) {
	const pad = 2.0
	inner := labelW - 2*pad

	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(x, y, labelW, labelH, "D")

	pdf.SetFont(family, "", 7)
	pdf.SetXY(x+pad, y+pad)
	pdf.CellFormat(inner, 3.5, text(truncateName(p.Name, 28)), "", 0, "C", false, 0, "")

	symW, symH := inner, 12.0
	if opts.Symbology == SymbologyQR {
		symW, symH = 14.0, 14.0
	}
	name := "sym-" + p.ID
	imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(symbol))
	pdf.ImageOptions(name, x+(labelW-symW)/2, y+pad+4, symW, symH, false, imgOpts, 0, "")

	below := y + pad + 4 + symH + 0.5
	pdf.SetFont(family, "", 6)
	pdf.SetXY(x+pad, below)
	pdf.CellFormat(inner, 3, text(p.Barcode), "", 0, "C", false, 0, "")

	pdf.SetFont(family, "", 8)
	pdf.SetXY(x+pad, below+3)
	pdf.CellFormat(inner, 4, text(p.Price.StringFixed(2)+" "+opts.Currency), "", 0, "C", false, 0, "")

	if opts.ShopName != "" {
		pdf.SetFont(family, "", 5)
		pdf.SetXY(x+pad, y+labelH-pad-2.5)
		pdf.CellFormat(inner, 2.5, text(opts.ShopName), "", 0, "C", false, 0, "")
	}
}

func encodeSymbol(content string, sym Symbology) ([]byte, error) {
	var (
		code barcode.Barcode
		err  error
		w, h int
	)
	if sym == SymbologyQR {
		code, err = qr.Encode(content, qr.M, qr.Auto)
		w, h = 200, 200
	} else {
		code, err = code128.Encode(content)
		w, h = 400, 120
	}
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, w, h)
	if err != nil {
		return nil, fmt.Errorf("scale symbol: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode symbol png: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateName(name string, maxRunes int) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	return string(runes[:maxRunes-1]) + "…"
}
