package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shoppos/internal/domain"
)

// Memory is a process-local Store used by tests and the memory driver.
type Memory struct {
	mu       sync.RWMutex
	now      func() time.Time
	products map[string]domain.Product
	invoices []domain.Invoice
	users    map[string]domain.User

	// failSale makes ApplySale fail for the given product IDs.
	failSale map[string]error
}

func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		now:      now,
		products: make(map[string]domain.Product),
		users:    make(map[string]domain.User),
		failSale: make(map[string]error),
	}
}

// FailSaleFor injects an ApplySale failure for one product.
func (m *Memory) FailSaleFor(productID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSale[productID] = err
}

func (m *Memory) ListProducts(_ context.Context, filter ProductListFilter) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if MatchesSearch(p, filter.Search) {
			out = append(out, p)
		}
	}
	sortProducts(out, filter.Order)
	return out, nil
}

func (m *Memory) GetProduct(_ context.Context, id string) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) CreateProduct(_ context.Context, input ProductInput) (domain.Product, error) {
	if err := input.Validate(); err != nil {
		return domain.Product{}, err
	}
	input = input.Normalized()
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	p := domain.Product{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Price:     input.Price,
		CostPrice: input.CostPrice,
		Quantity:  input.Quantity,
		Barcode:   strings.TrimSpace(input.Barcode),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *Memory) UpdateProduct(_ context.Context, id string, input ProductInput) (domain.Product, error) {
	if err := input.Validate(); err != nil {
		return domain.Product{}, err
	}
	input = input.Normalized()
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	p.Name = strings.TrimSpace(input.Name)
	p.Price = input.Price
	p.CostPrice = input.CostPrice
	p.Quantity = input.Quantity
	p.Barcode = strings.TrimSpace(input.Barcode)
	p.UpdatedAt = m.now()
	m.products[id] = p
	return p, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) ApplySale(_ context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSale[id]; err != nil {
		return fmt.Errorf("apply sale %s: %w", id, err)
	}
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Quantity -= qty
	p.Sold += qty
	p.UpdatedAt = m.now()
	m.products[id] = p
	return nil
}

func (m *Memory) CreateInvoice(_ context.Context, invoice domain.Invoice) (domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	invoice.ID = uuid.NewString()
	invoice.CreatedAt = m.now()
	invoice.Items = append([]domain.InvoiceItem(nil), invoice.Items...)
	m.invoices = append(m.invoices, invoice)
	return invoice, nil
}

func (m *Memory) GetInvoice(_ context.Context, id string) (domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inv := range m.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return domain.Invoice{}, ErrNotFound
}

func (m *Memory) ListInvoices(_ context.Context, filter InvoiceListFilter) ([]domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Invoice, 0)
	for i := len(m.invoices) - 1; i >= 0; i-- {
		if inWindow(m.invoices[i].CreatedAt, filter) {
			out = append(out, m.invoices[i])
		}
	}
	// Appends happen in clock order except when a test clock goes backwards.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if !filter.All {
		if limit := normalizeLimit(filter.Limit); len(out) > limit {
			out = out[:limit]
		}
	}
	return out, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[normalizeEmail(email)]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = normalizeEmail(user.Email)
	if existing, ok := m.users[user.Email]; ok {
		return existing, nil
	}
	user.ID = uuid.NewString()
	user.CreatedAt = m.now()
	m.users[user.Email] = user
	return user, nil
}

func sortProducts(products []domain.Product, order ProductOrder) {
	if order == OrderName {
		sort.SliceStable(products, func(i, j int) bool {
			return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
		})
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}
