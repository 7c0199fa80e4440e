package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppos/internal/auth"
	"shoppos/internal/bulkimport"
	"shoppos/internal/catalog"
	"shoppos/internal/checkout"
	"shoppos/internal/config"
	"shoppos/internal/excel"
	"shoppos/internal/ocr"
	"shoppos/internal/repository"
)

const terminal = "cashier@shop.test"

func newTestService(t *testing.T) (*Service, *repository.Memory) {
	t.Helper()
	store := repository.NewMemory()
	svc := New(Deps{
		Store:  store,
		Issuer: auth.NewIssuer("0123456789abcdef0123456789abcdef", time.Hour),
		Shop: config.ShopConfig{
			Name:              "Test Shop",
			Currency:          "EGP",
			Location:          time.UTC,
			ReceiptWidth:      32,
			LowStockThreshold: 5,
		},
		Auth: config.AuthConfig{DefaultEmail: "Owner@Shop.test", DefaultPassword: "secret"},
	})
	return svc, store
}

func mustCreate(t *testing.T, svc *Service, name string, price int64, qty int, barcode string) string {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), repository.ProductInput{
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Quantity: qty,
		Barcode:  barcode,
	})
	require.NoError(t, err)
	return p.ID
}

func TestCreateProduct_GeneratesBarcode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, repository.ProductInput{Name: " Ring ", Price: decimal.NewFromInt(10), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "Ring", p.Name)
	assert.True(t, strings.HasPrefix(p.Barcode, "ACC-"))

	updated, err := svc.UpdateProduct(ctx, p.ID, repository.ProductInput{Name: "Ring", Price: decimal.NewFromInt(12), Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, p.Barcode, updated.Barcode)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(12)))

	_, err = svc.CreateProduct(ctx, repository.ProductInput{Name: "", Quantity: 1})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestScanAndCheckout(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "Bracelet", 10, 5, "ACC-AAA")
	b := mustCreate(t, svc, "Chain", 5, 3, "ACC-BBB")

	_, _, err := svc.Scan(ctx, terminal, "ACC-AAA\r")
	require.NoError(t, err)
	_, _, err = svc.Scan(ctx, terminal, "accaaa")
	require.Error(t, err, "normalization is case sensitive")
	_, _, err = svc.Scan(ctx, terminal, "ACCAAA")
	require.NoError(t, err)
	view, _, err := svc.Scan(ctx, terminal, "ACC-BBB")
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 3, view.ItemCount)

	cashier := " cashier@shop.test "
	inv, err := svc.Checkout(ctx, terminal, &cashier)
	require.NoError(t, err)
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 3, inv.ItemCount)
	assert.Len(t, inv.Items, 2)
	require.NotNil(t, inv.Cashier)
	assert.Equal(t, "cashier@shop.test", *inv.Cashier)

	pa, err := store.GetProduct(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 3, pa.Quantity)
	assert.Equal(t, 2, pa.Sold)
	pb, err := store.GetProduct(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 2, pb.Quantity)
	assert.Equal(t, 1, pb.Sold)

	assert.Zero(t, svc.Cart(terminal).ItemCount)

	receipt, err := svc.Receipt(ctx, inv.ID)
	require.NoError(t, err)
	assert.Contains(t, receipt, inv.InvoiceNumber)
	assert.Contains(t, receipt, "Bracelet")
}

func TestScan_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "Empty", 10, 0, "ZERO-1")

	_, _, err := svc.Scan(ctx, terminal, "NOPE\x00")
	assert.ErrorIs(t, err, catalog.ErrBarcodeNotFound)
	assert.Contains(t, err.Error(), "NOPE")

	view, _, err := svc.Scan(ctx, terminal, "ZERO-1")
	assert.ErrorIs(t, err, checkout.ErrOutOfStock)
	assert.Empty(t, view.Lines)

	_, err = svc.Checkout(ctx, terminal, nil)
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestCartOperations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, "Ring", 10, 2, "")

	_, err := svc.AddToCart(ctx, terminal, id)
	require.NoError(t, err)
	view, err := svc.AdjustCartLine(terminal, id, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)

	_, err = svc.AdjustCartLine(terminal, id, 1)
	assert.ErrorIs(t, err, checkout.ErrStockCeiling)

	view, err = svc.SetLinePrice(terminal, id, decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(14)))

	_, err = svc.SetLinePrice(terminal, id, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, checkout.ErrNegativePrice)

	other := svc.Cart("other-terminal")
	assert.Empty(t, other.Lines)

	view, err = svc.RemoveFromCart(terminal, id)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = svc.AddToCart(ctx, terminal, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.AddToCart(ctx, terminal, id)
	require.NoError(t, err)
	assert.Empty(t, svc.ClearCart(terminal).Lines)
}

func TestCheckout_PartialFailureKeepsCart(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "A", 10, 5, "A-1")
	b := mustCreate(t, svc, "B", 5, 5, "B-1")
	store.FailSaleFor(b, errors.New("unavailable"))

	_, err := svc.AddToCart(ctx, terminal, a)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, terminal, b)
	require.NoError(t, err)

	inv, err := svc.Checkout(ctx, terminal, nil)
	var partial *checkout.PartialCommitError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{a}, partial.Applied)
	assert.Equal(t, b, partial.Failed)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, 2, svc.Cart(terminal).ItemCount)

	invoices, err := svc.ListInvoices(ctx, nil, nil, 0)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestImportDrafts(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	drafts, err := svc.DraftsFromText("Gold Chain    12    45\nab\n")
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	_, err = svc.DraftsFromText("nothing useful")
	assert.ErrorIs(t, err, bulkimport.ErrNothingExtracted)

	_, err = svc.DraftsFromImage(ctx, []byte{1})
	assert.ErrorIs(t, err, ErrOCRUnavailable)

	svc.recognizer = ocr.Func(func(context.Context, []byte) (string, error) {
		return "Silver Ring | 3 | 20", nil
	})
	fromImage, err := svc.DraftsFromImage(ctx, []byte{1})
	require.NoError(t, err)
	require.Len(t, fromImage, 1)
	assert.Equal(t, "Silver Ring", fromImage[0].Name)

	created, err := svc.CommitDrafts(ctx, append(drafts, fromImage...))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, created[0].Barcode, created[1].Barcode)
	for _, p := range created {
		assert.True(t, strings.HasPrefix(p.Barcode, "ACC-"))
		assert.Zero(t, p.Sold)
		assert.True(t, p.Price.IsZero())
	}

	all, err := store.ListProducts(ctx, repository.ProductListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stock, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, stock, 2)
}

func TestCommitDrafts_BarcodeFromReviewKept(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	drafts, err := svc.DraftsFromText("Gold Chain    12    45\nBangle    4    9")
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	for _, d := range drafts {
		assert.Empty(t, d.Barcode)
	}
	drafts[1].Barcode = " 6221234567890 "

	created, err := svc.CommitDrafts(ctx, drafts)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.True(t, strings.HasPrefix(created[0].Barcode, "ACC-"))
	assert.Equal(t, "6221234567890", created[1].Barcode)
}

func TestDraftsFromSpreadsheet(t *testing.T) {
	svc, _ := newTestService(t)

	drafts, err := svc.DraftsFromSpreadsheet("items.csv", strings.NewReader("name,quantity,cost\nRing,2,10\n"))
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	_, err = svc.DraftsFromSpreadsheet("items.csv", strings.NewReader("name,quantity\n"))
	assert.ErrorIs(t, err, bulkimport.ErrNothingExtracted)
}

func TestReports(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, "Ring", 100, 10, "R-1")

	today := time.Now().UTC().Format("2006-01-02")
	_, _, err := svc.ExportSales(ctx, today, today)
	assert.ErrorIs(t, err, excel.ErrNothingToExport)

	for i := 0; i < 2; i++ {
		_, err := svc.AddToCart(ctx, terminal, id)
		require.NoError(t, err)
		_, err = svc.Checkout(ctx, terminal, nil)
		require.NoError(t, err)
	}

	rep, err := svc.SalesReport(ctx, today, today)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.InvoiceCount)
	assert.True(t, rep.TotalSales.Equal(decimal.NewFromInt(200)))
	require.NotEmpty(t, rep.TopProducts)
	assert.Equal(t, 2, rep.TopProducts[0].Sold)

	name, data, err := svc.ExportSales(ctx, today, today)
	require.NoError(t, err)
	assert.Contains(t, name, today)
	assert.NotEmpty(t, data)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.TodayInvoices)
	assert.Len(t, dash.RecentSales, 2)
	assert.Equal(t, 1, dash.TotalProducts)

	_, err = svc.SalesReport(ctx, "bad", today)
	assert.Error(t, err)

	pdf, err := svc.Labels(ctx, "ring", "qr")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

type deny struct{}

func (deny) Allow(context.Context, string) (bool, error) { return false, nil }

func TestLoginLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultUser(ctx))
	require.NoError(t, svc.EnsureDefaultUser(ctx))

	_, err := svc.Login(ctx, "owner@shop.test", "wrong", "ip")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@shop.test", "secret", "ip")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	session, err := svc.Login(ctx, " OWNER@shop.test", "secret", "ip")
	require.NoError(t, err)
	assert.Equal(t, "owner@shop.test", session.User.Email)

	p, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, p))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	svc.limiter = deny{}
	_, err = svc.Login(ctx, "owner@shop.test", "secret", "ip")
	assert.ErrorIs(t, err, auth.ErrRateLimited)
}
