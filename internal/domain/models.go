package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the scale every stored amount is kept at. Line totals are
// computed from prices already rounded to it, so they stay exact.
const MoneyPlaces = 2

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Quantity  int             `json:"quantity"`
	Barcode   string          `json:"barcode"`
	Sold      int             `json:"sold"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// InvoiceItem is a denormalized copy of a sold line. It is never updated
// when the product it came from is edited or deleted.
type InvoiceItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Items         []InvoiceItem   `json:"items"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	Cashier       *string         `json:"cashier,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DraftProduct is a candidate record waiting for human review before it is
// inserted into the catalog.
type DraftProduct struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Price     decimal.Decimal `json:"price"`
	Barcode   string          `json:"barcode,omitempty"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type SalesReport struct {
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	InvoiceCount int             `json:"invoice_count"`
	ItemsSold    int             `json:"items_sold"`
	TopProducts  []Product       `json:"top_products"`
	Invoices     []Invoice       `json:"invoices"`
}

type DashboardStats struct {
	TodaySales       decimal.Decimal `json:"today_sales"`
	TodayInvoices    int             `json:"today_invoices"`
	LowStock         int             `json:"low_stock"`
	OutOfStock       int             `json:"out_of_stock"`
	TotalProducts    int             `json:"total_products"`
	RecentSales      []Invoice       `json:"recent_sales"`
	LowStockProducts []Product       `json:"low_stock_products"`
}
