// Package pdfbatch provides a fluent API for batch extraction of ruled
// tables and OCR text from a directory of PDF files.
//
// Basic usage:
//
//	summary, err := pdfbatch.Source("./PDFs").Output("./Output").Run(ctx)
//	if err != nil {
//	    // bad source directory, output directory or configuration
//	}
//	log.Printf("%d tables, %d pages", summary.Tables, summary.Pages)
//
// With options:
//
//	summary, err := pdfbatch.Source("./PDFs").
//	    Output("./Output").
//	    Formats("csv", "xlsx").
//	    Raster("poppler").
//	    PopplerPath("/opt/poppler/bin").
//	    Workers(4).
//	    Resume("./Output/.manifest.db").
//	    Run(ctx)
//
// For advanced use cases, the batch, tables, raster and ocr packages are
// also available.
package pdfbatch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tsawler/pdfbatch/batch"
	"github.com/tsawler/pdfbatch/config"
	"github.com/tsawler/pdfbatch/internal/logging"
	"github.com/tsawler/pdfbatch/model"
)

// Batch holds a run configuration. Each configuration method returns a new
// Batch, so a Batch can be shared and extended safely.
type Batch struct {
	options options
}

// Source starts a batch that reads the PDF files of dir, with every other
// setting at its default.
//
// Example:
//
//	summary, err := pdfbatch.Source("./PDFs").Run(ctx)
func Source(dir string) *Batch {
	opts := defaultOptions()
	opts.cfg.SourceDir = dir
	return &Batch{options: opts}
}

// FromConfig starts a batch from a loaded configuration. cfg is copied.
func FromConfig(cfg *config.Config) *Batch {
	opts := defaultOptions()
	opts.cfg = *cfg
	return &Batch{options: opts.clone()}
}

func (b *Batch) with(fn func(*options)) *Batch {
	opts := b.options.clone()
	fn(&opts)
	return &Batch{options: opts}
}

// Output sets the directory artifacts are written to. It is created when
// missing.
func (b *Batch) Output(dir string) *Batch {
	return b.with(func(o *options) { o.cfg.OutputDir = dir })
}

// Suffix sets the file name suffix of source documents.
func (b *Batch) Suffix(suffix string) *Batch {
	return b.with(func(o *options) { o.cfg.Suffix = suffix })
}

// Formats sets the table artifact formats (csv, markdown, json, html,
// xlsx).
func (b *Batch) Formats(formats ...string) *Batch {
	return b.with(func(o *options) { o.cfg.Tables.Formats = append([]string(nil), formats...) })
}

// MinTableSize sets the smallest table, in rows and columns, that is kept.
func (b *Batch) MinTableSize(rows, cols int) *Batch {
	return b.with(func(o *options) {
		o.cfg.Tables.MinRows = rows
		o.cfg.Tables.MinCols = cols
	})
}

// Raster selects the rendering backend ("mupdf" or "poppler").
func (b *Batch) Raster(backend string) *Batch {
	return b.with(func(o *options) { o.cfg.Raster.Backend = backend })
}

// DPI sets the rendering resolution.
func (b *Batch) DPI(dpi float64) *Batch {
	return b.with(func(o *options) { o.cfg.Raster.DPI = dpi })
}

// PopplerPath sets the directory holding pdftoppm.
func (b *Batch) PopplerPath(dir string) *Batch {
	return b.with(func(o *options) { o.cfg.Raster.PopplerPath = dir })
}

// OCR selects the recognition backend ("auto", "gosseract" or
// "tesseract").
func (b *Batch) OCR(backend string) *Batch {
	return b.with(func(o *options) { o.cfg.OCR.Backend = backend })
}

// TesseractPath sets the directory holding the tesseract executable.
func (b *Batch) TesseractPath(dir string) *Batch {
	return b.with(func(o *options) { o.cfg.OCR.TesseractPath = dir })
}

// Language sets the OCR language(s), e.g. "eng" or "eng+deu".
func (b *Batch) Language(lang string) *Batch {
	return b.with(func(o *options) { o.cfg.OCR.Language = lang })
}

// Workers sets how many files are processed at once.
func (b *Batch) Workers(n int) *Batch {
	return b.with(func(o *options) { o.cfg.Workers = n })
}

// Resume enables the completion manifest at path. Files that completed in
// an earlier run and have not changed since are skipped.
func (b *Batch) Resume(path string) *Batch {
	return b.with(func(o *options) { o.cfg.ManifestPath = path })
}

// Logger sets the logger. Without it a logger is built from the log
// settings of the configuration.
func (b *Batch) Logger(l zerolog.Logger) *Batch {
	return b.with(func(o *options) { o.logger = &l })
}

// Config returns a copy of the configuration the batch will run with.
func (b *Batch) Config() *config.Config {
	opts := b.options.clone()
	return &opts.cfg
}

// Run processes every file of the source directory. The error is non-nil
// only when the run could not start; per-file failures are logged and
// counted in the summary.
func (b *Batch) Run(ctx context.Context) (batch.Summary, error) {
	cfg := b.Config()

	logger := b.logger(cfg)
	p, err := batch.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return batch.Summary{}, err
	}
	defer p.Close()

	return p.Run(ctx)
}

func (b *Batch) logger(cfg *config.Config) zerolog.Logger {
	if b.options.logger != nil {
		return *b.options.logger
	}
	return logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// Tables detects the ruled tables of a single PDF file with the default
// lattice settings.
//
// Example:
//
//	tables, err := pdfbatch.Tables(ctx, "report.pdf")
//	for _, t := range tables {
//	    fmt.Print(t.ToCSV())
//	}
func Tables(ctx context.Context, path string) ([]*model.Table, error) {
	cfg := config.Default()
	ext, err := batch.NewDetectorExtractor(cfg.Tables.Mode, cfg.TableConfig())
	if err != nil {
		return nil, err
	}
	tables, err := ext.ExtractTables(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract tables from %s: %w", path, err)
	}
	return tables, nil
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	summary := pdfbatch.Must(pdfbatch.Source("./PDFs").Run(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
