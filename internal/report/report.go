package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shoppos/internal/domain"
)

const (
	dateLayout     = "2006-01-02"
	TopSellerCount = 5
	RecentCount    = 5
	LowStockShown  = 5
)

var ErrInvalidWindow = errors.New("invalid report window")

// Window is an inclusive time range covering whole calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow parses YYYY-MM-DD dates in loc. End is the last instant of the
// end day.
func NewWindow(start, end string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	from, err := time.ParseInLocation(dateLayout, strings.TrimSpace(start), loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start must be YYYY-MM-DD", ErrInvalidWindow)
	}
	to, err := time.ParseInLocation(dateLayout, strings.TrimSpace(end), loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end must be YYYY-MM-DD", ErrInvalidWindow)
	}
	if to.Before(from) {
		return Window{}, fmt.Errorf("%w: end is before start", ErrInvalidWindow)
	}
	return Window{Start: from, End: endOfDay(to)}, nil
}

// Day is the window covering the calendar day of t in loc.
func Day(t time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: endOfDay(start)}
}

func (w Window) StartLabel() string { return w.Start.Format(dateLayout) }
func (w Window) EndLabel() string   { return w.End.Format(dateLayout) }

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Summarize totals the invoices of a window. TopProducts ranks the catalog
// by all-time sold count and ignores the window.
func Summarize(w Window, invoices []domain.Invoice, products []domain.Product) domain.SalesReport {
	total, items := Totals(invoices)
	return domain.SalesReport{
		Start:        w.Start,
		End:          w.End,
		TotalSales:   total,
		InvoiceCount: len(invoices),
		ItemsSold:    items,
		TopProducts:  TopSellers(products, TopSellerCount),
		Invoices:     invoices,
	}
}

func Totals(invoices []domain.Invoice) (decimal.Decimal, int) {
	total := decimal.Zero
	items := 0
	for _, inv := range invoices {
		total = total.Add(inv.Total)
		items += inv.ItemCount
	}
	return total, items
}

// TopSellers returns up to n products with the highest sold count. Ties keep
// catalog order.
func TopSellers(products []domain.Product, n int) []domain.Product {
	ranked := append([]domain.Product(nil), products...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Sold > ranked[j].Sold
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Dashboard builds the landing-page figures. today holds the invoices of the
// current day and recent the latest invoices overall, newest first.
func Dashboard(today, recent []domain.Invoice, products []domain.Product, lowStockThreshold int) domain.DashboardStats {
	total, _ := Totals(today)
	stats := domain.DashboardStats{
		TodaySales:       total,
		TodayInvoices:    len(today),
		TotalProducts:    len(products),
		RecentSales:      recent,
		LowStockProducts: make([]domain.Product, 0, LowStockShown),
	}
	if len(stats.RecentSales) > RecentCount {
		stats.RecentSales = stats.RecentSales[:RecentCount]
	}
	for _, p := range products {
		switch {
		case p.Quantity <= 0:
			stats.OutOfStock++
		case p.Quantity <= lowStockThreshold:
			stats.LowStock++
			if len(stats.LowStockProducts) < LowStockShown {
				stats.LowStockProducts = append(stats.LowStockProducts, p)
			}
		}
	}
	return stats
}
