package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

// Backend names accepted by NewRecognizer.
const (
	BackendAuto      = "auto"
	BackendGosseract = "gosseract"
	BackendTesseract = "tesseract"
)

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	Close() error
}

// Options configures a Recognizer.
type Options struct {
	Backend string

	// Language is one or more Tesseract language codes joined by "+".
	Language string

	PageSegMode PageSegMode

	// TesseractPath is the directory holding the tesseract executable for
	// the CLI backend. Empty means $PATH.
	TesseractPath string

	// MaxImageSide downscales images whose longer side exceeds it. Zero
	// disables scaling.
	MaxImageSide int
}

// DefaultOptions returns English recognition with automatic segmentation,
// using the embedded engine when it was compiled in.
func DefaultOptions() Options {
	return Options{
		Backend:     BackendAuto,
		Language:    "eng",
		PageSegMode: PSM_AUTO,
	}
}

// NewRecognizer creates the recognizer named by opts.Backend. For "auto" the
// gosseract engine is used when the binary was built with -tags ocr and the
// tesseract executable otherwise.
func NewRecognizer(opts Options) (Recognizer, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}

	switch opts.Backend {
	case BackendGosseract:
		engine, err := newEngine(opts)
		if err != nil {
			return nil, err
		}
		return engine, nil
	case BackendTesseract:
		return NewCLI(opts), nil
	case BackendAuto, "":
		engine, err := newEngine(opts)
		if errors.Is(err, ErrOCRNotEnabled) {
			return NewCLI(opts), nil
		}
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown OCR backend %q", opts.Backend)
	}
}

// newEngine creates a configured gosseract-backed Client.
func newEngine(opts Options) (*Client, error) {
	client, err := New()
	if err != nil {
		return nil, err
	}
	client.maxSide = opts.MaxImageSide

	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language %q: %w", opts.Language, err)
	}
	if err := client.SetPageSegMode(opts.PageSegMode); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode %d: %w", opts.PageSegMode, err)
	}
	return client, nil
}

// languages splits a "+" joined language list.
func languages(lang string) []string {
	var out []string
	for _, l := range strings.Split(lang, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
