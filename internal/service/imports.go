package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"shoppos/internal/bulkimport"
	"shoppos/internal/catalog"
	"shoppos/internal/domain"
	"shoppos/internal/excel"
	"shoppos/internal/repository"
)

var ErrOCRUnavailable = errors.New("image recognition is not configured")

// DraftsFromText parses pasted or recognised invoice text.
func (s *Service) DraftsFromText(text string) ([]domain.DraftProduct, error) {
	drafts := bulkimport.ParseText(text)
	if len(drafts) == 0 {
		return nil, bulkimport.ErrNothingExtracted
	}
	return drafts, nil
}

// DraftsFromImage runs one photographed invoice through OCR and the text
// parser.
func (s *Service) DraftsFromImage(ctx context.Context, image []byte) ([]domain.DraftProduct, error) {
	if s.recognizer == nil {
		return nil, ErrOCRUnavailable
	}
	text, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		s.log.Error("ocr failed", zap.Int("bytes", len(image)), zap.Error(err))
		return nil, fmt.Errorf("recognize image: %w", err)
	}
	return s.DraftsFromText(text)
}

func (s *Service) DraftsFromSpreadsheet(fileName string, r io.Reader) ([]domain.DraftProduct, error) {
	drafts, err := excel.ParseCatalogRows(fileName, r)
	if errors.Is(err, excel.ErrNoDataRows) {
		return nil, bulkimport.ErrNothingExtracted
	}
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

// CommitDrafts inserts each reviewed draft as its own product with a freshly
// generated barcode unless the draft already carries one. Parsed text and OCR
// drafts never do; a barcode there was typed in during review or came from a
// spreadsheet column. Inserts are
// independent; on failure the products created so far stay and their count
// is returned with the error.
func (s *Service) CommitDrafts(ctx context.Context, drafts []domain.DraftProduct) ([]domain.Product, error) {
	if len(drafts) == 0 {
		return nil, bulkimport.ErrNothingExtracted
	}
	for i, d := range drafts {
		in := draftInput(d)
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i+1, err)
		}
	}

	created := make([]domain.Product, 0, len(drafts))
	for i, d := range drafts {
		in := draftInput(d)
		if in.Barcode == "" {
			in.Barcode = catalog.GenerateBarcode()
		}
		p, err := s.store.CreateProduct(ctx, in)
		if err != nil {
			s.log.Error("bulk import stopped",
				zap.Int("created", len(created)),
				zap.Int("total", len(drafts)),
				zap.Error(err),
			)
			s.refreshSnapshot(ctx)
			return created, fmt.Errorf("save draft %d of %d: %w", i+1, len(drafts), err)
		}
		created = append(created, p)
	}
	s.log.Info("bulk import saved", zap.Int("created", len(created)))
	s.refreshSnapshot(ctx)
	return created, nil
}

func draftInput(d domain.DraftProduct) repository.ProductInput {
	return repository.ProductInput{
		Name:      d.Name,
		Price:     d.Price,
		CostPrice: d.CostPrice,
		Quantity:  d.Quantity,
		Barcode:   strings.TrimSpace(d.Barcode),
	}
}
