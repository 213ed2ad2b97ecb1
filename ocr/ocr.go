// Package ocr extracts text from photographed pages so it can be ranked
// like a typed query. An empty image yields an empty string; a tesseract
// failure is returned as an error.
package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultLanguages is the tesseract language set used for the book corpus.
const DefaultLanguages = "ara+eng"

// Extractor turns image bytes into text.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}

// ExtractorFunc is a function type that implements the Extractor interface.
type ExtractorFunc func(context.Context, []byte) (string, error)

// Extract implements the Extractor interface for ExtractorFunc.
func (f ExtractorFunc) Extract(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// Tesseract runs the tesseract command line tool.
type Tesseract struct {
	binary    string
	languages string
}

// TesseractOption configures a Tesseract extractor.
type TesseractOption func(*Tesseract)

// WithBinary sets the tesseract executable. Defaults to "tesseract" on PATH.
func WithBinary(path string) TesseractOption {
	return func(t *Tesseract) {
		if path != "" {
			t.binary = path
		}
	}
}

// WithLanguages sets the "+"-joined tesseract language codes.
func WithLanguages(langs string) TesseractOption {
	return func(t *Tesseract) {
		if langs != "" {
			t.languages = langs
		}
	}
}

// NewTesseract returns a Tesseract extractor.
func NewTesseract(opts ...TesseractOption) *Tesseract {
	t := &Tesseract{binary: "tesseract", languages: DefaultLanguages}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Args returns the command line arguments used for one extraction. The image
// is read from stdin and the text written to stdout.
func (t *Tesseract) Args() []string {
	return []string{"stdin", "stdout", "-l", t.languages}
}

// Extract implements Extractor. Surrounding whitespace is trimmed from the
// recognised text.
func (t *Tesseract) Extract(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	cmd := exec.CommandContext(ctx, t.binary, t.Args()...)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "tesseract canceled")
		}
		return "", errors.Wrapf(err, "tesseract failed: %s", strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
