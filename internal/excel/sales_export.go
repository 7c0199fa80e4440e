package excel

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"shoppos/internal/domain"
)

const (
	SalesSheet        = "المبيعات"
	exportDateLayout  = "2006-01-02 15:04"
	itemSeparator     = "، "
	minProductsColumn = 10
)

var ErrNothingToExport = errors.New("no invoices to export")

var salesHeaders = []string{"رقم الفاتورة", "التاريخ", "عدد القطع", "الإجمالي (ج.م)", "المنتجات"}

// ExportFileName names the download for a report window.
func ExportFileName(start, end string) string {
	return fmt.Sprintf("تقرير_مبيعات_%s_إلى_%s.xlsx", start, end)
}

// ItemsSummary renders invoice lines as "name (qty)" joined with an Arabic
// comma.
func ItemsSummary(items []domain.InvoiceItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (%d)", item.Name, item.Quantity))
	}
	return strings.Join(parts, itemSeparator)
}

// BuildSalesWorkbook renders one row per invoice on a right-to-left sheet.
// Timestamps are shown in loc.
func BuildSalesWorkbook(invoices []domain.Invoice, loc *time.Location) ([]byte, error) {
	if len(invoices) == 0 {
		return nil, ErrNothingToExport
	}
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SalesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	rtl := true
	if err := f.SetSheetView(SalesSheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return nil, fmt.Errorf("set sheet view: %w", err)
	}

	if err := f.SetSheetRow(SalesSheet, "A1", &salesHeaders); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	productsWidth := minProductsColumn
	for i, inv := range invoices {
		date := ""
		if !inv.CreatedAt.IsZero() {
			date = inv.CreatedAt.In(loc).Format(exportDateLayout)
		}
		items := ItemsSummary(inv.Items)
		if n := utf8.RuneCountInString(items); n > productsWidth {
			productsWidth = n
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{inv.InvoiceNumber, date, inv.ItemCount, inv.Total.InexactFloat64(), items}
		if err := f.SetSheetRow(SalesSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write invoice row %d: %w", i+1, err)
		}
	}

	widths := []float64{15, 20, 10, 15, float64(productsWidth)}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SalesSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set column %s width: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
