package excel

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shoppos/internal/domain"
)

func TestBuildSalesWorkbook_Empty(t *testing.T) {
	data, err := BuildSalesWorkbook(nil, time.UTC)
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Nil(t, data)
}

func TestBuildSalesWorkbook(t *testing.T) {
	longName := strings.Repeat("س", 30)
	invoices := []domain.Invoice{
		{
			InvoiceNumber: "INV-000101",
			CreatedAt:     time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC),
			ItemCount:     3,
			Total:         decimal.RequireFromString("25.5"),
			Items: []domain.InvoiceItem{
				{Name: "خاتم", Quantity: 2},
				{Name: longName, Quantity: 1},
			},
		},
		{InvoiceNumber: "INV-000102", ItemCount: 1, Total: decimal.NewFromInt(5)},
	}

	data, err := BuildSalesWorkbook(invoices, time.FixedZone("EET", 2*60*60))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SalesSheet}, f.GetSheetList())

	rows, err := f.GetRows(SalesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, salesHeaders, rows[0])
	assert.Equal(t, "INV-000101", rows[1][0])
	assert.Equal(t, "2024-03-01 16:05", rows[1][1])
	assert.Equal(t, "3", rows[1][2])
	assert.Equal(t, "25.5", rows[1][3])
	assert.Equal(t, "خاتم (2)، "+longName+" (1)", rows[1][4])
	assert.Equal(t, "", rows[2][1])

	widthA, err := f.GetColWidth(SalesSheet, "A")
	require.NoError(t, err)
	assert.Equal(t, 15.0, widthA)
	widthE, err := f.GetColWidth(SalesSheet, "E")
	require.NoError(t, err)
	assert.Equal(t, float64(len([]rune(rows[1][4]))), widthE)
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "تقرير_مبيعات_2024-03-01_إلى_2024-03-31.xlsx", ExportFileName("2024-03-01", "2024-03-31"))
}

func TestParseCatalogRows_CSV(t *testing.T) {
	csvData := "\ufeffاسم المنتج,الكمية,سعر الجملة,Sell Price,Barcode\n" +
		"Gold Chain,١٢,45,60,ACC-1\n" +
		",3,1,1,\n" +
		"Ring,2,,,\n"

	drafts, err := ParseCatalogRows("stock.csv", strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "Gold Chain", drafts[0].Name)
	assert.Equal(t, 12, drafts[0].Quantity)
	assert.True(t, decimal.NewFromInt(45).Equal(drafts[0].CostPrice))
	assert.True(t, decimal.NewFromInt(60).Equal(drafts[0].Price))
	assert.Equal(t, "ACC-1", drafts[0].Barcode)
	assert.True(t, drafts[1].Price.IsZero())
}

func TestParseCatalogRows_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"Product Name", "Qty", "Cost"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Bangle", 4, 9.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	drafts, err := ParseCatalogRows("upload.bin", buf)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Bangle", drafts[0].Name)
	assert.Equal(t, 4, drafts[0].Quantity)
	assert.True(t, decimal.RequireFromString("9.5").Equal(drafts[0].CostPrice))
}

func TestParseCatalogRows_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"empty", "a.csv", ""},
		{"missing quantity column", "a.csv", "name,price\nRing,3\n"},
		{"fractional quantity", "a.csv", "name,qty\nRing,1.5\n"},
		{"quantity out of range", "a.csv", "name,qty\nRing,99999999999999999999\n"},
		{"negative price", "a.csv", "name,qty,price\nRing,1,-4\n"},
		{"no data rows", "a.csv", "name,qty\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalogRows(tt.file, strings.NewReader(tt.body))
			assert.Error(t, err)
		})
	}
}
