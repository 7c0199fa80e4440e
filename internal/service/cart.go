package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shoppos/internal/catalog"
	"shoppos/internal/checkout"
	"shoppos/internal/domain"
	"shoppos/internal/repository"
)

func (s *Service) Cart(terminal string) checkout.View {
	var view checkout.View
	_ = s.carts.WithCart(terminal, func(c *checkout.Cart) error {
		view = c.View()
		return nil
	})
	return view
}

// Scan resolves a scanned code against the snapshot and adds one unit of the
// match. An unknown code wraps catalog.ErrBarcodeNotFound with the cleaned
// code; a match with no stock returns checkout.ErrOutOfStock.
func (s *Service) Scan(ctx context.Context, terminal, code string) (checkout.View, domain.Product, error) {
	if err := s.ensureSnapshot(ctx); err != nil {
		return checkout.View{}, domain.Product{}, err
	}
	product, outcome := s.snapshot.Resolve(code)
	switch outcome {
	case catalog.NotFound:
		return s.Cart(terminal), domain.Product{}, fmt.Errorf("%w: %s", catalog.ErrBarcodeNotFound, catalog.CleanScan(code))
	case catalog.OutOfStock:
		return s.Cart(terminal), product, checkout.ErrOutOfStock
	}
	view, err := s.addToCart(terminal, product)
	return view, product, err
}

// AddToCart adds one unit of the product by id, as picked from the catalog
// grid. The snapshot is reloaded once if the id is unknown to it.
func (s *Service) AddToCart(ctx context.Context, terminal, productID string) (checkout.View, error) {
	if err := s.ensureSnapshot(ctx); err != nil {
		return checkout.View{}, err
	}
	product, ok := s.snapshot.Lookup(productID)
	if !ok {
		s.refreshSnapshot(ctx)
		if product, ok = s.snapshot.Lookup(productID); !ok {
			return s.Cart(terminal), fmt.Errorf("product %s: %w", productID, repository.ErrNotFound)
		}
	}
	return s.addToCart(terminal, product)
}

func (s *Service) addToCart(terminal string, product domain.Product) (checkout.View, error) {
	var view checkout.View
	err := s.carts.WithCart(terminal, func(c *checkout.Cart) error {
		err := c.Add(product)
		view = c.View()
		return err
	})
	return view, err
}

func (s *Service) RemoveFromCart(terminal, productID string) (checkout.View, error) {
	return s.mutateCart(terminal, func(c *checkout.Cart) error { return c.Remove(productID) })
}

func (s *Service) AdjustCartLine(terminal, productID string, delta int) (checkout.View, error) {
	return s.mutateCart(terminal, func(c *checkout.Cart) error { return c.Adjust(productID, delta) })
}

func (s *Service) SetLinePrice(terminal, productID string, price decimal.Decimal) (checkout.View, error) {
	return s.mutateCart(terminal, func(c *checkout.Cart) error { return c.OverridePrice(productID, price) })
}

func (s *Service) ClearCart(terminal string) checkout.View {
	view, _ := s.mutateCart(terminal, func(c *checkout.Cart) error {
		c.Clear()
		return nil
	})
	return view
}

func (s *Service) mutateCart(terminal string, fn func(*checkout.Cart) error) (checkout.View, error) {
	var view checkout.View
	err := s.carts.WithCart(terminal, func(c *checkout.Cart) error {
		err := fn(c)
		view = c.View()
		return err
	})
	return view, err
}

// Checkout commits the terminal's cart. The writes run on a context detached
// from the caller so a dropped request cannot stop a commit halfway. The
// snapshot is reloaded afterwards whenever any stock may have moved.
func (s *Service) Checkout(ctx context.Context, terminal string, cashier *string) (domain.Invoice, error) {
	commitCtx := context.WithoutCancel(ctx)
	var invoice domain.Invoice
	err := s.carts.WithCart(terminal, func(c *checkout.Cart) error {
		var err error
		invoice, err = s.committer.Commit(commitCtx, c, normalizeNullable(cashier))
		return err
	})
	if invoice.ID != "" {
		s.refreshSnapshot(commitCtx)
	}
	if err != nil {
		s.log.Warn("checkout failed", zap.String("terminal", terminal), zap.Error(err))
		return invoice, err
	}
	return invoice, nil
}
