package raster

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// MuPDF renders pages in-process with MuPDF.
type MuPDF struct {
	DPI float64
}

// Render opens path and renders each page at r.DPI.
func (r *MuPDF) Render(ctx context.Context, path string, fn PageFunc) error {
	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		img, err := doc.ImageDPI(n, r.DPI)
		if err != nil {
			return fmt.Errorf("failed to render page %d: %w", n+1, err)
		}
		if err := fn(n, img); err != nil {
			return err
		}
	}

	return nil
}
