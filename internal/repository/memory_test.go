package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppos/internal/domain"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestMemory() *Memory {
	clock := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewMemoryWithClock(clock.now)
}

func TestMemory_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory()

	created, err := store.CreateProduct(ctx, ProductInput{
		Name: " Ring ", Price: decimal.NewFromInt(10), Quantity: 3, Barcode: "ACC-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ring", created.Name)
	assert.Zero(t, created.Sold)

	require.NoError(t, store.ApplySale(ctx, created.ID, 2))

	updated, err := store.UpdateProduct(ctx, created.ID, ProductInput{
		Name: "Ring", Price: decimal.NewFromInt(12), Quantity: 8, Barcode: "ACC-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Quantity)
	assert.Equal(t, 2, updated.Sold, "edit keeps sold")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	require.NoError(t, store.DeleteProduct(ctx, created.ID))
	_, err = store.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteProduct(ctx, created.ID), ErrNotFound)
}

func TestMemory_CreateProductValidation(t *testing.T) {
	tests := []struct {
		name  string
		input ProductInput
	}{
		{"empty name", ProductInput{Name: "  "}},
		{"negative quantity", ProductInput{Name: "x", Quantity: -1}},
		{"negative price", ProductInput{Name: "x", Price: decimal.NewFromInt(-1)}},
		{"quantity beyond stock column", ProductInput{Name: "x", Quantity: math.MaxInt32 + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestMemory().CreateProduct(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestMemory_ProductPricesRoundedToCents(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory()

	created, err := store.CreateProduct(ctx, ProductInput{
		Name: "Ring", Price: decimal.RequireFromString("3.335"), CostPrice: decimal.RequireFromString("1.2349"), Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "3.34", created.Price.String())
	assert.Equal(t, "1.23", created.CostPrice.String())

	updated, err := store.UpdateProduct(ctx, created.ID, ProductInput{Name: "Ring", Price: decimal.RequireFromString("0.125"), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "0.13", updated.Price.String())
}

func TestMemory_ListProductsSearchAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory()
	for _, in := range []ProductInput{
		{Name: "bracelet", Barcode: "ACC-AAA"},
		{Name: "Anklet", Barcode: "ACC-BBB"},
		{Name: "Chain", Barcode: "X-99"},
	} {
		_, err := store.CreateProduct(ctx, in)
		require.NoError(t, err)
	}

	newest, err := store.ListProducts(ctx, ProductListFilter{})
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, "Chain", newest[0].Name)

	byName, err := store.ListProducts(ctx, ProductListFilter{Order: OrderName})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anklet", "bracelet", "Chain"}, names(byName))

	found, err := store.ListProducts(ctx, ProductListFilter{Search: "acc-"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestMemory_ApplySaleFailureInjection(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory()
	p, err := store.CreateProduct(ctx, ProductInput{Name: "Ring", Quantity: 1})
	require.NoError(t, err)

	boom := errors.New("unavailable")
	store.FailSaleFor(p.ID, boom)
	assert.ErrorIs(t, store.ApplySale(ctx, p.ID, 1), boom)
	assert.ErrorIs(t, store.ApplySale(ctx, "missing", 1), ErrNotFound)
}

func TestMemory_ListInvoicesWindowAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory()
	var created []domain.Invoice
	for _, number := range []string{"INV-000001", "INV-000002", "INV-000003"} {
		inv, err := store.CreateInvoice(ctx, domain.Invoice{InvoiceNumber: number})
		require.NoError(t, err)
		created = append(created, inv)
	}

	all, err := store.ListInvoices(ctx, InvoiceListFilter{})
	require.NoError(t, err)
	assert.Equal(t, "INV-000003", all[0].InvoiceNumber)

	from := created[1].CreatedAt
	windowed, err := store.ListInvoices(ctx, InvoiceListFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, windowed, 2)

	limited, err := store.ListInvoices(ctx, InvoiceListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	got, err := store.GetInvoice(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", got.InvoiceNumber)
}

func TestMemory_CreateUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory()

	first, err := store.CreateUser(ctx, domain.User{Email: "Owner@Shop.test", PasswordHash: "h1"})
	require.NoError(t, err)
	second, err := store.CreateUser(ctx, domain.User{Email: "owner@shop.test", PasswordHash: "h2"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "h1", second.PasswordHash)

	got, err := store.GetUserByEmail(ctx, " OWNER@shop.test ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func names(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}
