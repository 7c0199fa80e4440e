package catalog

import (
	"errors"
	"strings"
	"unicode"

	"shoppos/internal/domain"
)

var ErrBarcodeNotFound = errors.New("barcode not registered")

type Outcome int

const (
	NotFound Outcome = iota
	Found
	OutOfStock
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case OutOfStock:
		return "out_of_stock"
	default:
		return "not_found"
	}
}

// CleanScan drops everything outside printable ASCII and trims the result.
// Scanners in keyboard-wedge mode often leak control characters.
func CleanScan(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= 0x20 && r <= 0x7E {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizeBarcode keeps ASCII letters and digits only, which strips GS1
// group separators and keyboard-layout artifacts such as "(093)0-{{}".
func NormalizeBarcode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve looks a scanned code up in products. An exact match on the cleaned
// code wins; otherwise the first product whose normalized barcode equals the
// normalized scan is used. A found product with no stock resolves to
// OutOfStock.
func Resolve(products []domain.Product, raw string) (domain.Product, Outcome) {
	code := CleanScan(raw)

	match := -1
	for i := range products {
		if products[i].Barcode == code {
			match = i
			break
		}
	}
	if match < 0 {
		if normalized := NormalizeBarcode(code); normalized != "" {
			for i := range products {
				if NormalizeBarcode(products[i].Barcode) == normalized {
					match = i
					break
				}
			}
		}
	}
	if match < 0 {
		return domain.Product{}, NotFound
	}
	if products[match].Quantity <= 0 {
		return products[match], OutOfStock
	}
	return products[match], Found
}
