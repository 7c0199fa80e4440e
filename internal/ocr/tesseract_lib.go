//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract drives libtesseract through cgo. A gosseract client is not safe
// for concurrent use, so calls are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func New(opts Options) (*Tesseract, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(languagesOrDefault(opts.Languages), "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set tesseract languages: %w", err)
	}
	return &Tesseract{client: client}, nil
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

func (t *Tesseract) Close() error {
	return t.client.Close()
}

func languagesOrDefault(languages string) string {
	if strings.TrimSpace(languages) == "" {
		return "ara+eng"
	}
	return languages
}
