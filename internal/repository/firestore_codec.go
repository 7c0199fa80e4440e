package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"

	"shoppos/internal/domain"
)

func productFields(input ProductInput) map[string]any {
	return map[string]any{
		"name":      strings.TrimSpace(input.Name),
		"price":     input.Price.InexactFloat64(),
		"costPrice": input.CostPrice.InexactFloat64(),
		"quantity":  input.Quantity,
		"barcode":   strings.TrimSpace(input.Barcode),
	}
}

func invoiceFields(inv domain.Invoice) map[string]any {
	items := make([]map[string]any, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, map[string]any{
			"id":        it.ProductID,
			"name":      it.Name,
			"price":     it.Price.InexactFloat64(),
			"costPrice": it.CostPrice.InexactFloat64(),
			"quantity":  it.Quantity,
			"total":     it.LineTotal.InexactFloat64(),
		})
	}
	data := map[string]any{
		"invoiceNumber": inv.InvoiceNumber,
		"items":         items,
		"total":         inv.Total.InexactFloat64(),
		"itemCount":     inv.ItemCount,
	}
	if inv.Cashier != nil {
		data["cashier"] = *inv.Cashier
	}
	return data
}

func productFromSnapshot(snap *firestore.DocumentSnapshot) domain.Product {
	return productFromMap(snap.Ref.ID, snap.Data())
}

// productFromMap decodes leniently: documents written by older clients may
// hold numbers as strings or miss optional fields entirely.
func productFromMap(id string, raw map[string]any) domain.Product {
	p := domain.Product{
		ID:        id,
		Name:      stringAny(raw["name"]),
		Price:     decimalAny(raw["price"]),
		CostPrice: decimalAny(raw["costPrice"]),
		Quantity:  intAny(raw["quantity"]),
		Barcode:   stringAny(raw["barcode"]),
		Sold:      intAny(raw["sold"]),
	}
	p.CreatedAt, _ = timeAnyToTime(raw["createdAt"])
	p.UpdatedAt, _ = timeAnyToTime(raw["updatedAt"])
	return p
}

func invoiceFromSnapshot(snap *firestore.DocumentSnapshot) domain.Invoice {
	return invoiceFromMap(snap.Ref.ID, snap.Data())
}

func invoiceFromMap(id string, raw map[string]any) domain.Invoice {
	inv := domain.Invoice{
		ID:            id,
		InvoiceNumber: stringAny(raw["invoiceNumber"]),
		Total:         decimalAny(raw["total"]),
		ItemCount:     intAny(raw["itemCount"]),
	}
	if cashier := stringAny(raw["cashier"]); cashier != "" {
		inv.Cashier = &cashier
	}
	inv.CreatedAt, _ = timeAnyToTime(raw["createdAt"])

	list, _ := raw["items"].([]any)
	inv.Items = make([]domain.InvoiceItem, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		inv.Items = append(inv.Items, domain.InvoiceItem{
			ProductID: stringAny(m["id"]),
			Name:      stringAny(m["name"]),
			Price:     decimalAny(m["price"]),
			CostPrice: decimalAny(m["costPrice"]),
			Quantity:  intAny(m["quantity"]),
			LineTotal: decimalAny(m["total"]),
		})
	}
	return inv
}

func userFromSnapshot(snap *firestore.DocumentSnapshot) domain.User {
	raw := snap.Data()
	u := domain.User{
		ID:           snap.Ref.ID,
		Email:        stringAny(raw["email"]),
		PasswordHash: stringAny(raw["passwordHash"]),
	}
	u.CreatedAt, _ = timeAnyToTime(raw["createdAt"])
	return u
}

func timeAnyToTime(v any) (time.Time, bool) {
	x, ok := v.(time.Time)
	if !ok || x.IsZero() {
		return time.Time{}, false
	}
	return x.UTC(), true
}

func stringAny(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}

func intAny(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float32:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func decimalAny(v any) decimal.Decimal {
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case float64:
		return decimal.NewFromFloat(x)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
