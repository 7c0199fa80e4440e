// Package printing renders the thermal receipt and the label sheet.
package printing

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"shoppos/internal/domain"
)

const receiptDateLayout = "2006-01-02 15:04"

type ReceiptOptions struct {
	ShopName string
	Tagline  string
	Contact  string
	Currency string
	// Width is the printable width in monospace columns.
	Width    int
	Location *time.Location
}

// RenderReceipt lays out an invoice for an 80 mm thermal printer.
func RenderReceipt(inv domain.Invoice, opts ReceiptOptions) string {
	width := opts.Width
	if width < 20 {
		width = 32
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	line := func(s string) {
		b.WriteString(strings.TrimRight(s, " "))
		b.WriteByte('\n')
	}
	rule := func(ch string) { line(strings.Repeat(ch, width)) }

	line(center(opts.ShopName, width))
	if opts.Tagline != "" {
		line(center(opts.Tagline, width))
	}
	rule("-")
	line(columns("رقم الفاتورة:", inv.InvoiceNumber, width))
	if !inv.CreatedAt.IsZero() {
		line(columns("التاريخ والوقت:", inv.CreatedAt.In(loc).Format(receiptDateLayout), width))
	}
	rule("-")

	for _, item := range inv.Items {
		for _, nameLine := range strings.Split(runewidth.Wrap(item.Name, width), "\n") {
			line(nameLine)
		}
		detail := fmt.Sprintf("  %d قطعة × %s %s", item.Quantity, money(item.Price), opts.Currency)
		line(columns(detail, money(item.LineTotal), width))
	}

	rule("=")
	line(columns("المطلوب سداده", money(inv.Total)+" "+opts.Currency, width))
	rule("-")
	line(center("شكرًا لزيارتكم", width))
	if opts.Contact != "" {
		line(center(opts.Contact, width))
	}
	return b.String()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func center(s string, width int) string {
	s = runewidth.Truncate(s, width, "")
	pad := (width - runewidth.StringWidth(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// columns puts left and right on one line, right-aligned to width. When they
// do not fit, right moves to its own line.
func columns(left, right string, width int) string {
	lw, rw := runewidth.StringWidth(left), runewidth.StringWidth(right)
	if lw+rw+1 > width {
		return left + "\n" + strings.Repeat(" ", max(0, width-rw)) + right
	}
	return left + strings.Repeat(" ", width-lw-rw) + right
}
