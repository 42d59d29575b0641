// Package raster renders PDF pages to images for text recognition.
//
// Two backends implement [Renderer]:
//
//   - "mupdf" renders in-process through github.com/gen2brain/go-fitz
//   - "poppler" runs the pdftoppm executable, optionally from a given
//     directory
//
// Pages are delivered one at a time, in page order, to a [PageFunc]:
//
//	r, err := raster.New(raster.Options{Backend: raster.BackendMuPDF, DPI: 200})
//	err = r.Render(ctx, "document.pdf", func(page int, img image.Image) error {
//	    ...
//	})
package raster

import (
	"context"
	"fmt"
	"image"
)

// Backend names accepted by New.
const (
	BackendMuPDF   = "mupdf"
	BackendPoppler = "poppler"
)

// DefaultDPI is the rendering resolution used when Options.DPI is zero.
const DefaultDPI = 200

// PageFunc receives each rendered page. page is 0-indexed. Returning an
// error stops rendering and is returned from Render.
type PageFunc func(page int, img image.Image) error

// Renderer rasterizes every page of a PDF file in page order.
type Renderer interface {
	Render(ctx context.Context, path string, fn PageFunc) error
}

// Options selects and tunes a backend.
type Options struct {
	Backend string
	DPI     float64

	// PopplerPath is the directory holding pdftoppm. Empty means $PATH.
	PopplerPath string
}

// New creates the renderer named by opts.Backend.
func New(opts Options) (Renderer, error) {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	switch opts.Backend {
	case BackendMuPDF, "":
		return &MuPDF{DPI: dpi}, nil
	case BackendPoppler:
		return NewPoppler(opts.PopplerPath, dpi), nil
	default:
		return nil, fmt.Errorf("unknown raster backend %q", opts.Backend)
	}
}
