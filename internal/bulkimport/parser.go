// Package bulkimport turns recognized supplier-invoice text into product
// drafts for human review.
package bulkimport

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"shoppos/internal/domain"
)

var ErrNothingExtracted = errors.New("no products could be extracted")

const minLineLength = 5

var (
	fieldSeparator = regexp.MustCompile(`\s{2,}|\t|\|`)
	nonNumeric     = regexp.MustCompile(`[^\d.]`)
	looseLine      = regexp.MustCompile(`(.+?)\s+(\d+(\.\d+)?)\s+(\d+(\.\d+)?)`)
)

// ParseText extracts one draft per usable line. Columnar lines (three or
// more fields) need at least two numeric fields after the name and never fall
// back to the loose pattern. Drafts carry no sale price.
func ParseText(text string) []domain.DraftProduct {
	drafts := make([]domain.DraftProduct, 0)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len([]rune(trimmed)) <= minLineLength {
			continue
		}

		if parts := fieldSeparator.Split(trimmed, -1); len(parts) >= 3 {
			numbers := make([]string, 0, len(parts)-1)
			for _, part := range parts[1:] {
				if digits := nonNumeric.ReplaceAllString(part, ""); digits != "" {
					numbers = append(numbers, digits)
				}
			}
			if len(numbers) >= 2 {
				drafts = append(drafts, newDraft(parts[0], numbers[0], numbers[1]))
			}
			continue
		}

		if m := looseLine.FindStringSubmatch(line); m != nil {
			drafts = append(drafts, newDraft(m[1], m[2], m[4]))
		}
	}
	return drafts
}

func newDraft(name, quantity, cost string) domain.DraftProduct {
	return domain.DraftProduct{
		Name:      strings.TrimSpace(name),
		Quantity:  parseQuantity(quantity),
		CostPrice: parseAmount(cost),
		Price:     decimal.Zero,
	}
}

// parseQuantity defaults to 1 when the text is not a positive number or is
// too large for a stock count.
func parseQuantity(raw string) int {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 1 || value > math.MaxInt32 {
		return 1
	}
	return int(value)
}

func parseAmount(raw string) decimal.Decimal {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(value)
}
