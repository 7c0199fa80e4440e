//go:build !gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tesseract shells out to the tesseract binary, feeding the image on stdin.
// Build with -tags gosseract to link libtesseract instead.
type Tesseract struct {
	binary    string
	languages string
}

func New(opts Options) (*Tesseract, error) {
	binary := opts.Binary
	if binary == "" {
		binary = "tesseract"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("find tesseract binary %q: %w", binary, err)
	}
	return &Tesseract{binary: path, languages: languagesOrDefault(opts.Languages)}, nil
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	cmd := exec.CommandContext(ctx, t.binary, "stdin", "stdout", "-l", t.languages)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (t *Tesseract) Close() error { return nil }

func languagesOrDefault(languages string) string {
	if strings.TrimSpace(languages) == "" {
		return "ara+eng"
	}
	return languages
}
