package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shoppos/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type ProductOrder string

const (
	OrderCreated ProductOrder = "created"
	OrderName    ProductOrder = "name"
)

// ParseProductOrder falls back to newest-first for anything unrecognised.
func ParseProductOrder(raw string) ProductOrder {
	if ProductOrder(strings.ToLower(strings.TrimSpace(raw))) == OrderName {
		return OrderName
	}
	return OrderCreated
}

type ProductListFilter struct {
	Search string
	Order  ProductOrder
}

type ProductInput struct {
	Name      string
	Price     decimal.Decimal
	CostPrice decimal.Decimal
	Quantity  int
	Barcode   string
}

func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	if in.Quantity > math.MaxInt32 {
		return fmt.Errorf("%w: quantity is too large", ErrInvalidInput)
	}
	if in.Price.IsNegative() || in.CostPrice.IsNegative() {
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidInput)
	}
	return nil
}

// Normalized trims text fields and rounds both prices to MoneyPlaces.
func (in ProductInput) Normalized() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.Price = domain.RoundMoney(in.Price)
	in.CostPrice = domain.RoundMoney(in.CostPrice)
	return in
}

type InvoiceListFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
	// All lifts the page limit; used by report aggregation.
	All bool
}

// Store is the persistent state of the shop. Implementations assign IDs and
// timestamps themselves.
type Store interface {
	ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, input ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// ApplySale decrements quantity and increments sold by qty in a single
	// field-level write. Stock is not re-checked.
	ApplySale(ctx context.Context, id string, qty int) error

	CreateInvoice(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (domain.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]domain.Invoice, error)

	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
}

// MatchesSearch reports whether a product name or barcode contains term,
// ignoring case. An empty term matches everything.
func MatchesSearch(p domain.Product, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Barcode), term)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func inWindow(t time.Time, filter InvoiceListFilter) bool {
	if filter.From != nil && t.Before(*filter.From) {
		return false
	}
	if filter.To != nil && t.After(*filter.To) {
		return false
	}
	return true
}
