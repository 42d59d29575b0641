package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfbatch/config"
	"github.com/tsawler/pdfbatch/export"
	"github.com/tsawler/pdfbatch/manifest"
	"github.com/tsawler/pdfbatch/ocr"
	"github.com/tsawler/pdfbatch/raster"
)

const (
	StageTables = "tables"
	StageText   = "text"
)

// Completions tracks which files earlier runs finished. *manifest.Manifest
// implements it.
type Completions interface {
	Completed(ctx context.Context, path string) (bool, error)
	Record(ctx context.Context, path string) error
}

// RendererFactory creates the renderer for one file.
type RendererFactory func() (raster.Renderer, error)

// RecognizerFactory creates the recognizer for one file. The recognizer is
// closed when the file's text stage ends.
type RecognizerFactory func() (ocr.Recognizer, error)

// Pipeline processes the PDF files of one directory.
type Pipeline struct {
	SourceDir string
	OutputDir string
	Suffix    string // defaults to ".pdf"

	// Formats lists the table artifact formats; nil means CSV only.
	Formats []export.Format

	// Workers bounds how many files are processed at once. Values below 2
	// process files one after another in name order.
	Workers int

	Tables        TableExtractor
	NewRenderer   RendererFactory
	NewRecognizer RecognizerFactory

	// Manifest, when set, skips unchanged files that completed before and
	// records files whose stages both succeed.
	Manifest Completions

	Logger zerolog.Logger

	closers []io.Closer
}

// Summary reports the outcome of a run.
type Summary struct {
	Files         int // files enumerated
	Processed     int
	Skipped       int // unchanged since a completed run
	Tables        int
	Pages         int
	Artifacts     int
	TableFailures int
	TextFailures  int
	Interrupted   bool
	Elapsed       time.Duration
}

// Failures returns the number of failed (file, stage) pairs.
func (s Summary) Failures() int {
	return s.TableFailures + s.TextFailures
}

// fileResult is the outcome of one file.
type fileResult struct {
	skipped     bool
	notStarted  bool
	tables      int
	pages       int
	artifacts   int
	tableErr    error
	textErr     error
	interrupted bool
}

func (s *Summary) add(r fileResult) {
	if r.skipped {
		s.Skipped++
		return
	}
	if r.notStarted {
		return
	}
	s.Processed++
	s.Tables += r.tables
	s.Pages += r.pages
	s.Artifacts += r.artifacts
	if r.tableErr != nil {
		s.TableFailures++
	}
	if r.textErr != nil {
		s.TextFailures++
	}
}

// New builds a pipeline from cfg. Invalid settings and an unusable
// manifest are configuration errors.
func New(cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindConfiguration, "validate config", "", err)
	}

	formats, err := cfg.TableFormats()
	if err != nil {
		return nil, newError(KindConfiguration, "parse table formats", "", err)
	}

	extractor, err := NewDetectorExtractor(cfg.Tables.Mode, cfg.TableConfig())
	if err != nil {
		return nil, newError(KindConfiguration, "configure table detector", "", err)
	}

	rasterOpts := cfg.RasterOptions()
	ocrOpts := cfg.OCROptions()

	p := &Pipeline{
		SourceDir: cfg.SourceDir,
		OutputDir: cfg.OutputDir,
		Suffix:    cfg.Suffix,
		Formats:   formats,
		Workers:   cfg.Workers,
		Tables:    extractor,
		NewRenderer: func() (raster.Renderer, error) {
			return raster.New(rasterOpts)
		},
		NewRecognizer: func() (ocr.Recognizer, error) {
			return ocr.NewRecognizer(ocrOpts)
		},
		Logger: logger,
	}

	if cfg.ManifestPath != "" {
		m, err := manifest.Open(cfg.ManifestPath)
		if err != nil {
			return nil, newError(KindConfiguration, "open manifest", cfg.ManifestPath, err)
		}
		p.Manifest = m
		p.closers = append(p.closers, m)
	}

	return p, nil
}

// Close releases resources opened by New.
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	p.closers = nil
	return errors.Join(errs...)
}

// Run enumerates the source directory, ensures the output directory exists
// and processes every file. Stage failures are logged and counted in the
// summary; the returned error is non-nil only for configuration errors and
// output directory failures. A cancelled ctx stops the run between files
// and pages and is reported through Summary.Interrupted.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	if p.Tables == nil || p.NewRenderer == nil || p.NewRecognizer == nil {
		return Summary{}, errorf(KindConfiguration, "run", "", "pipeline is not fully configured")
	}

	files, err := Enumerate(p.SourceDir, p.suffix())
	if err != nil {
		p.Logger.Error().Err(err).Str("source", p.SourceDir).Msg("cannot read source directory")
		return Summary{}, err
	}
	if err := EnsureDir(p.OutputDir); err != nil {
		p.Logger.Error().Err(err).Str("output", p.OutputDir).Msg("cannot create output directory")
		return Summary{}, err
	}

	p.Logger.Info().
		Int("files", len(files)).
		Str("source", p.SourceDir).
		Str("output", p.OutputDir).
		Int("workers", p.workers()).
		Msg("run started")

	summary := Summary{Files: len(files)}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(p.workers())

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := p.processFile(ctx, path)
			mu.Lock()
			summary.add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary.Interrupted = ctx.Err() != nil
	summary.Elapsed = time.Since(start)

	p.Logger.Info().
		Int("files", summary.Files).
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("tables", summary.Tables).
		Int("pages", summary.Pages).
		Int("artifacts", summary.Artifacts).
		Int("table_failures", summary.TableFailures).
		Int("text_failures", summary.TextFailures).
		Bool("interrupted", summary.Interrupted).
		Dur("elapsed", summary.Elapsed).
		Msg("run complete")

	return summary, nil
}

// ProcessFile runs both stages for one file without enumeration. The
// output directory must exist.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) Summary {
	var s Summary
	s.Files = 1
	s.add(p.processFile(ctx, path))
	s.Interrupted = ctx.Err() != nil
	return s
}

func (p *Pipeline) processFile(ctx context.Context, path string) fileResult {
	base := filepath.Base(path)
	log := p.Logger.With().Str("file", base).Logger()

	if ctx.Err() != nil {
		return fileResult{notStarted: true, interrupted: true}
	}

	if p.Manifest != nil {
		done, err := p.Manifest.Completed(ctx, path)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("manifest lookup failed, processing file")
		case done:
			log.Info().Msgf("Skipping %s: unchanged since last completed run", base)
			return fileResult{skipped: true}
		}
	}

	var res fileResult

	res.tables, res.artifacts, res.tableErr = p.runTables(ctx, path, base, log)
	if res.tableErr != nil {
		if ctx.Err() != nil {
			res.interrupted = true
			res.tableErr = nil
			log.Info().Str("stage", StageTables).Msg("interrupted")
		} else {
			log.Warn().
				Str("stage", StageTables).
				Str("kind", KindOf(res.tableErr).String()).
				Err(res.tableErr).
				Msgf("Error extracting tables from %s", base)
		}
	}

	if ctx.Err() != nil {
		res.interrupted = true
		return res
	}

	var textArtifacts int
	res.pages, textArtifacts, res.textErr = p.runText(ctx, path, base, log)
	res.artifacts += textArtifacts
	if res.textErr != nil {
		if ctx.Err() != nil {
			res.interrupted = true
			res.textErr = nil
			log.Info().Str("stage", StageText).Msg("interrupted")
		} else {
			log.Warn().
				Str("stage", StageText).
				Str("kind", KindOf(res.textErr).String()).
				Err(res.textErr).
				Msgf("Error extracting text from %s", base)
		}
	}

	if p.Manifest != nil && !res.interrupted && res.tableErr == nil && res.textErr == nil {
		if err := p.Manifest.Record(ctx, path); err != nil {
			log.Warn().Err(err).Msg("failed to record completion")
		}
	}

	return res
}

// runTables detects the tables of path and writes one artifact per table
// and format. A failed write skips only that artifact. A panic in the
// detector or an exporter ends the stage as an extraction error.
func (p *Pipeline) runTables(ctx context.Context, path, base string, log zerolog.Logger) (count, artifacts int, err error) {
	log = log.With().Str("stage", StageTables).Logger()

	op := "extract tables"
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(errorf(KindExtraction, op, path, "panic: %v", r), err)
		}
	}()

	found, err := p.Tables.ExtractTables(ctx, path)
	if err != nil {
		return 0, 0, newError(KindExtraction, op, path, err)
	}
	count = len(found)
	log.Info().Int("tables", count).Msgf("Processing %s: Found %d tables", base, count)

	var errs []error
	for i, table := range found {
		for _, f := range p.formats() {
			op = fmt.Sprintf("export table %d", i)
			out, err := WriteArtifact(p.OutputDir, TableArtifactName(base, i, f.Extension()), func(w io.Writer) error {
				return export.Write(w, table, f)
			})
			if err != nil {
				errs = append(errs, err)
				continue
			}
			artifacts++
			log.Info().Int("table", i).Str("output", out).Msgf("Saved table %d from %s to %s", i, base, out)
		}
	}
	return count, artifacts, errors.Join(errs...)
}

// runText renders path page by page, recognizes each page and writes its
// text. A render or recognition failure stops the file; a failed write
// skips only that page. A panic is classified by the capability that was
// running when it happened.
func (p *Pipeline) runText(ctx context.Context, path, base string, log zerolog.Logger) (pages, artifacts int, err error) {
	log = log.With().Str("stage", StageText).Logger()

	kind, op := KindRender, "create renderer"
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(errorf(kind, op, path, "panic: %v", r), err)
		}
	}()

	renderer, err := p.NewRenderer()
	if err != nil {
		return 0, 0, newError(kind, op, path, err)
	}
	kind, op = KindRecognition, "create recognizer"
	recognizer, err := p.NewRecognizer()
	if err != nil {
		return 0, 0, newError(kind, op, path, err)
	}
	defer recognizer.Close()

	var errs []error
	kind, op = KindRender, "render"
	err = renderer.Render(ctx, path, func(page int, img image.Image) error {
		kind, op = KindRecognition, fmt.Sprintf("recognize page %d", page+1)
		text, err := recognizer.Recognize(ctx, img)
		if err != nil {
			return newError(kind, op, path, err)
		}
		kind, op = KindRender, "render"
		pages++

		out, err := WriteArtifact(p.OutputDir, TextArtifactName(base, page), func(w io.Writer) error {
			_, err := io.WriteString(w, text)
			return err
		})
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		artifacts++
		log.Info().Int("page", page+1).Str("output", out).Msgf("Saved text from page %d of %s to %s", page+1, base, out)
		return nil
	})
	if err != nil {
		errs = append([]error{newError(KindRender, "render", path, err)}, errs...)
	}
	return pages, artifacts, errors.Join(errs...)
}

func (p *Pipeline) suffix() string {
	if p.Suffix == "" {
		return ".pdf"
	}
	return p.Suffix
}

func (p *Pipeline) workers() int {
	return max(1, p.Workers)
}

func (p *Pipeline) formats() []export.Format {
	if len(p.Formats) == 0 {
		return []export.Format{export.CSV}
	}
	return p.Formats
}
