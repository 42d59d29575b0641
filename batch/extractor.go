package batch

import (
	"context"
	"fmt"

	"github.com/tsawler/pdfbatch/model"
	"github.com/tsawler/pdfbatch/reader"
	"github.com/tsawler/pdfbatch/tables"
)

// TableExtractor finds the tables of one PDF file, in page order.
type TableExtractor interface {
	ExtractTables(ctx context.Context, path string) ([]*model.Table, error)
}

// DetectorExtractor runs a registered tables.Detector over every page of a
// document.
type DetectorExtractor struct {
	mode   string
	config tables.Config
}

// NewDetectorExtractor returns an extractor for the detector registered
// under mode.
func NewDetectorExtractor(mode string, config tables.Config) (*DetectorExtractor, error) {
	det := tables.GetDetector(mode)
	if det == nil {
		return nil, fmt.Errorf("unknown table detection mode %q", mode)
	}
	if err := det.Configure(config); err != nil {
		return nil, err
	}
	return &DetectorExtractor{mode: mode, config: config}, nil
}

// Mode returns the detection mode name.
func (e *DetectorExtractor) Mode() string {
	return e.mode
}

// ExtractTables opens path and detects the tables of each page. Tables are
// ordered by page, then top to bottom.
func (e *DetectorExtractor) ExtractTables(ctx context.Context, path string) ([]*model.Table, error) {
	det := tables.GetDetector(e.mode)
	if det == nil {
		return nil, fmt.Errorf("unknown table detection mode %q", e.mode)
	}
	if err := det.Configure(e.config); err != nil {
		return nil, err
	}

	r, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var all []*model.Table
	for n := 1; n <= r.PageCount(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := r.Page(n)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		found, err := det.Detect(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		all = append(all, found...)
	}
	return all, nil
}
