package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shoppos/internal/auth"
	"shoppos/internal/catalog"
	"shoppos/internal/checkout"
	"shoppos/internal/config"
	"shoppos/internal/domain"
	"shoppos/internal/ocr"
	"shoppos/internal/repository"
)

// Deps wires the collaborators a Service needs. Recognizer may be nil when no
// OCR engine is installed; Limiter defaults to no limit.
type Deps struct {
	Store      repository.Store
	Recognizer ocr.Recognizer
	Issuer     *auth.Issuer
	Revoker    auth.Revoker
	Limiter    auth.Limiter
	Shop       config.ShopConfig
	Auth       config.AuthConfig
	Log        *zap.Logger
}

// Service owns the shop's working memory: the catalog snapshot scans resolve
// against and one cart per terminal.
type Service struct {
	store      repository.Store
	snapshot   *catalog.Snapshot
	carts      *checkout.Registry
	committer  *checkout.Committer
	recognizer ocr.Recognizer
	issuer     *auth.Issuer
	revoker    auth.Revoker
	limiter    auth.Limiter
	authn      *auth.Authenticator
	shop       config.ShopConfig
	authCfg    config.AuthConfig
	log        *zap.Logger
}

func New(deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = auth.NoLimit{}
	}
	revoker := deps.Revoker
	if revoker == nil {
		revoker = auth.NewMemoryRevoker()
	}
	return &Service{
		store:      deps.Store,
		snapshot:   catalog.NewSnapshot(deps.Store),
		carts:      checkout.NewRegistry(),
		committer:  checkout.NewCommitter(deps.Store, log.Named("checkout")),
		recognizer: deps.Recognizer,
		issuer:     deps.Issuer,
		revoker:    revoker,
		limiter:    limiter,
		authn:      auth.NewAuthenticator(deps.Issuer, revoker),
		shop:       deps.Shop,
		authCfg:    deps.Auth,
		log:        log,
	}
}

func (s *Service) ListProducts(ctx context.Context, search, order string) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, repository.ProductListFilter{
		Search: search,
		Order:  repository.ParseProductOrder(order),
	})
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// CreateProduct stores a product, generating a barcode when none is given.
func (s *Service) CreateProduct(ctx context.Context, input repository.ProductInput) (domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Barcode = strings.TrimSpace(input.Barcode)
	if input.Barcode == "" {
		input.Barcode = catalog.GenerateBarcode()
	}
	created, err := s.store.CreateProduct(ctx, input)
	if err != nil {
		return domain.Product{}, err
	}
	s.refreshSnapshot(ctx)
	return created, nil
}

// UpdateProduct replaces the editable fields. Sold is preserved and an empty
// barcode keeps the current one.
func (s *Service) UpdateProduct(ctx context.Context, id string, input repository.ProductInput) (domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Barcode = strings.TrimSpace(input.Barcode)
	if input.Barcode == "" {
		current, err := s.store.GetProduct(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		input.Barcode = current.Barcode
	}
	updated, err := s.store.UpdateProduct(ctx, id, input)
	if err != nil {
		return domain.Product{}, err
	}
	s.refreshSnapshot(ctx)
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// Catalog reloads the snapshot and lists the products that can be sold.
func (s *Service) Catalog(ctx context.Context) ([]domain.Product, error) {
	if err := s.snapshot.Refresh(ctx); err != nil {
		s.log.Error("catalog refresh failed", zap.Error(err))
		return nil, err
	}
	return s.snapshot.InStock(), nil
}

func (s *Service) refreshSnapshot(ctx context.Context) {
	if err := s.snapshot.Refresh(ctx); err != nil {
		s.log.Warn("catalog snapshot is stale", zap.Error(err))
	}
}

// ensureSnapshot loads the catalog once before the first scan of the process.
func (s *Service) ensureSnapshot(ctx context.Context) error {
	if !s.snapshot.RefreshedAt().IsZero() {
		return nil
	}
	if err := s.snapshot.Refresh(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	return nil
}

func normalizeNullable(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
