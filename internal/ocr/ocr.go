// Package ocr extracts text from photographed supplier invoices.
package ocr

import (
	"context"
	"errors"
)

var ErrEmptyImage = errors.New("image is empty")

// Recognizer turns one image into plain text, one visual line per text line.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type Options struct {
	// Languages uses tesseract's "ara+eng" syntax.
	Languages string
	// Binary is the tesseract executable used by the CLI recognizer.
	Binary string
}

// Func adapts a plain function to Recognizer.
type Func func(ctx context.Context, image []byte) (string, error)

func (f Func) Recognize(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}
