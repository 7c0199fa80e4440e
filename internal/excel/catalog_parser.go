package excel

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"shoppos/internal/domain"
)

var ErrNoDataRows = errors.New("file has no valid data rows")

var headerAliases = map[string]string{
	"name":         "name",
	"product":      "name",
	"product name": "name",
	"item":         "name",
	"الاسم":        "name",
	"المنتج":       "name",
	"اسم المنتج":   "name",
	"الصنف":        "name",
	"quantity":     "quantity",
	"qty":          "quantity",
	"stock":        "quantity",
	"الكمية":       "quantity",
	"العدد":        "quantity",
	"cost":         "cost_price",
	"cost price":   "cost_price",
	"wholesale":    "cost_price",
	"سعر الجملة":   "cost_price",
	"سعر التكلفة":  "cost_price",
	"price":        "price",
	"sell price":   "price",
	"sale price":   "price",
	"السعر":        "price",
	"سعر البيع":    "price",
	"barcode":      "barcode",
	"code":         "barcode",
	"الباركود":     "barcode",
}

var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"٫", ".", "٬", "", "،", "",
)

// ParseCatalogRows reads a spreadsheet of products into drafts. The format is
// picked from the file extension; unknown extensions try xlsx then csv.
// Name and quantity columns are required.
func ParseCatalogRows(fileName string, reader io.Reader) ([]domain.DraftProduct, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}

	switch strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))) {
	case ".csv":
		rows, err := parseCSVRows(data)
		if err != nil {
			return nil, err
		}
		return parseCatalogTable(rows)
	case ".xlsx", ".xlsm":
		rows, err := parseExcelRows(data)
		if err != nil {
			return nil, err
		}
		return parseCatalogTable(rows)
	default:
		if rows, err := parseExcelRows(data); err == nil {
			return parseCatalogTable(rows)
		}
		rows, err := parseCSVRows(data)
		if err != nil {
			return nil, fmt.Errorf("unsupported or invalid spreadsheet format")
		}
		return parseCatalogTable(rows)
	}
}

func parseCatalogTable(rows [][]string) ([]domain.DraftProduct, error) {
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	colMap := mapColumns(rows[0])
	for _, required := range []string{"name", "quantity"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	drafts := make([]domain.DraftProduct, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		name := strings.TrimSpace(readCell(cells, colMap["name"]))
		if name == "" {
			continue
		}

		qty, err := parseInt(readCell(cells, colMap["quantity"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid quantity: %w", index+1, err)
		}
		if qty < 0 {
			return nil, fmt.Errorf("row %d invalid quantity: cannot be negative", index+1)
		}

		cost, err := optionalAmount(cells, colMap, "cost_price")
		if err != nil {
			return nil, fmt.Errorf("row %d invalid cost price: %w", index+1, err)
		}
		price, err := optionalAmount(cells, colMap, "price")
		if err != nil {
			return nil, fmt.Errorf("row %d invalid price: %w", index+1, err)
		}

		draft := domain.DraftProduct{Name: name, Quantity: qty, CostPrice: cost, Price: price}
		if idx, ok := colMap["barcode"]; ok {
			draft.Barcode = strings.TrimSpace(readCell(cells, idx))
		}
		drafts = append(drafts, draft)
	}

	if len(drafts) == 0 {
		return nil, ErrNoDataRows
	}
	return drafts, nil
}

func parseCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}
	return rows, nil
}

func parseExcelRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}
	return rows, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		canonical, ok := headerAliases[normalizeHeader(col)]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	return strings.Join(strings.Fields(value), " ")
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func normalizeNumber(raw string) string {
	value := strings.TrimPrefix(strings.TrimSpace(raw), "\ufeff")
	value = arabicDigits.Replace(value)
	return strings.ReplaceAll(value, ",", "")
}

func parseInt(raw string) (int, error) {
	value := normalizeNumber(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}
	asFloat, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.Mod(asFloat, 1) != 0 {
		return 0, fmt.Errorf("must be an integer")
	}
	if math.Abs(asFloat) > math.MaxInt32 {
		return 0, fmt.Errorf("out of range")
	}
	return int(asFloat), nil
}

func optionalAmount(cells []string, colMap map[string]int, key string) (decimal.Decimal, error) {
	idx, ok := colMap[key]
	if !ok {
		return decimal.Zero, nil
	}
	value := normalizeNumber(readCell(cells, idx))
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("cannot be negative")
	}
	return amount, nil
}
