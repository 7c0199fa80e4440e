package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shoppos/internal/domain"
)

type saleWriter interface {
	CreateInvoice(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error)
	ApplySale(ctx context.Context, productID string, qty int) error
}

// PartialCommitError means the invoice was recorded but stock was only
// updated for the Applied products. Nothing is rolled back.
type PartialCommitError struct {
	Invoice domain.Invoice
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("invoice %s recorded but stock update failed for product %s after %d of %d lines: %v",
		e.Invoice.InvoiceNumber, e.Failed, len(e.Applied), len(e.Invoice.Items), e.Err)
}

func (e *PartialCommitError) Unwrap() error { return e.Err }

type Committer struct {
	store saleWriter
	now   func() time.Time
	log   *zap.Logger
}

func NewCommitter(store saleWriter, log *zap.Logger) *Committer {
	return &Committer{store: store, now: time.Now, log: log}
}

// InvoiceNumber is "INV-" plus the last six digits of the millisecond clock.
// Two checkouts in the same millisecond-modulo window collide.
func InvoiceNumber(t time.Time) string {
	return fmt.Sprintf("INV-%06d", t.UnixMilli()%1_000_000)
}

// BuildInvoice snapshots the cart into an unsaved invoice.
func BuildInvoice(cart *Cart, number string, cashier *string) domain.Invoice {
	lines := cart.Lines()
	inv := domain.Invoice{
		InvoiceNumber: number,
		Items:         make([]domain.InvoiceItem, 0, len(lines)),
		Total:         decimal.Zero,
		Cashier:       cashier,
	}
	for _, line := range lines {
		item := domain.InvoiceItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Price,
			CostPrice: domain.RoundMoney(line.Product.CostPrice),
			Quantity:  line.Quantity,
			LineTotal: line.Total(),
		}
		inv.Items = append(inv.Items, item)
		inv.Total = inv.Total.Add(item.LineTotal)
		inv.ItemCount += item.Quantity
	}
	return inv
}

// Commit records the sale: one invoice write, then one stock write per line
// in cart order, each awaited before the next. The cart is cleared only when
// every write succeeded.
func (c *Committer) Commit(ctx context.Context, cart *Cart, cashier *string) (domain.Invoice, error) {
	if cart.Len() == 0 {
		return domain.Invoice{}, ErrEmptyCart
	}

	draft := BuildInvoice(cart, InvoiceNumber(c.now()), cashier)
	invoice, err := c.store.CreateInvoice(ctx, draft)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("record invoice %s: %w", draft.InvoiceNumber, err)
	}

	applied := make([]string, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		if err := c.store.ApplySale(ctx, item.ProductID, item.Quantity); err != nil {
			c.log.Error("checkout left stock partially updated",
				zap.String("invoice_id", invoice.ID),
				zap.String("invoice_number", invoice.InvoiceNumber),
				zap.Strings("applied", applied),
				zap.String("failed", item.ProductID),
				zap.Error(err),
			)
			return invoice, &PartialCommitError{
				Invoice: invoice,
				Applied: applied,
				Failed:  item.ProductID,
				Err:     err,
			}
		}
		applied = append(applied, item.ProductID)
	}

	cart.Clear()
	c.log.Info("checkout committed",
		zap.String("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total", invoice.Total.StringFixed(2)),
		zap.Int("item_count", invoice.ItemCount),
	)
	return invoice, nil
}
