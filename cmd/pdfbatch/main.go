// Package main provides the pdfbatch command: extract ruled tables and OCR
// text from every PDF file of a directory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsawler/pdfbatch/batch"
	"github.com/tsawler/pdfbatch/config"
	"github.com/tsawler/pdfbatch/internal/logging"
)

// flags holds command line settings. Only flags that were set override the
// loaded configuration.
type flags struct {
	cfgFile   string
	envFile   string
	source    string
	output    string
	mode      string
	formats   []string
	raster    string
	dpi       float64
	ocr       string
	lang      string
	workers   int
	manifest  string
	verbose   bool
	logFormat string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "pdfbatch",
		Short: "Extract ruled tables and OCR text from a directory of PDF files",
		Long: `pdfbatch scans a directory for PDF files and, for each file:

  writes every ruled table as table_<file>_<index>.csv (index from 0)
  rasterizes every page and writes its OCR text as text_<file>_<page>.txt (page from 1)

A failure in one file is logged and the run continues. The exit status is
non-zero only when the source directory, the output directory or the
configuration is unusable.

Settings come from defaults, an optional YAML file (--config), a .env file,
environment variables and finally flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.cfgFile, "config", "c", "", "config file path (YAML)")
	fl.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	fl.StringVarP(&f.source, "source", "s", "", "directory scanned for PDF files (default ./PDFs)")
	fl.StringVarP(&f.output, "output", "o", "", "directory artifacts are written to (default ./Output)")
	fl.StringVar(&f.mode, "mode", "", "table detection mode (default lattice)")
	fl.StringSliceVarP(&f.formats, "format", "f", nil, "table formats: csv, markdown, json, html, xlsx (default csv)")
	fl.StringVar(&f.raster, "raster", "", "rendering backend: mupdf or poppler (default mupdf)")
	fl.Float64Var(&f.dpi, "dpi", 0, "rendering resolution (default 200)")
	fl.StringVar(&f.ocr, "ocr", "", "OCR backend: auto, gosseract or tesseract (default auto)")
	fl.StringVar(&f.lang, "lang", "", "OCR language(s), e.g. eng+deu (default eng)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "files processed at once (default 1)")
	fl.StringVar(&f.manifest, "manifest", "", "completion manifest path; enables skipping unchanged files")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	fl.StringVar(&f.logFormat, "log-format", "", "log format: console or json (default console)")

	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return &batch.Error{Kind: batch.KindConfiguration, Op: "load env file", Path: f.envFile, Err: err}
	}

	cfg, err := config.Load(f.cfgFile)
	if err != nil {
		return &batch.Error{Kind: batch.KindConfiguration, Op: "load config", Path: f.cfgFile, Err: err}
	}
	applyFlags(cmd, f, cfg)

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.OutOrStdout(),
	})

	p, err := batch.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if summary.Interrupted {
		logger.Warn().Msg("run interrupted")
	}
	return nil
}

// applyFlags overrides cfg with the flags that were set.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("source") {
		cfg.SourceDir = f.source
	}
	if changed("output") {
		cfg.OutputDir = f.output
	}
	if changed("mode") {
		cfg.Tables.Mode = f.mode
	}
	if changed("format") {
		cfg.Tables.Formats = f.formats
	}
	if changed("raster") {
		cfg.Raster.Backend = f.raster
	}
	if changed("dpi") {
		cfg.Raster.DPI = f.dpi
	}
	if changed("ocr") {
		cfg.OCR.Backend = f.ocr
	}
	if changed("lang") {
		cfg.OCR.Language = f.lang
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("manifest") {
		cfg.ManifestPath = f.manifest
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
}

// execute runs the command and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
