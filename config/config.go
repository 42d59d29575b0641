// Package config loads pdfbatch configuration.
// Supports YAML files, .env files, environment variables, and programmatic
// overrides, applied in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/pdfbatch/export"
	"github.com/tsawler/pdfbatch/ocr"
	"github.com/tsawler/pdfbatch/raster"
	"github.com/tsawler/pdfbatch/tables"
)

// Config holds all configuration for a batch run.
type Config struct {
	SourceDir    string       `yaml:"source_dir"`
	OutputDir    string       `yaml:"output_dir"`
	Suffix       string       `yaml:"suffix"`
	Tables       TablesConfig `yaml:"tables"`
	Raster       RasterConfig `yaml:"raster"`
	OCR          OCRConfig    `yaml:"ocr"`
	Workers      int          `yaml:"workers"`
	ManifestPath string       `yaml:"manifest_path"`
	Log          LogConfig    `yaml:"log"`
}

// TablesConfig holds table detection and export settings.
type TablesConfig struct {
	Mode          string   `yaml:"mode"`
	Formats       []string `yaml:"formats"`
	LineTolerance float64  `yaml:"line_tolerance"`
	MinRows       int      `yaml:"min_rows"`
	MinCols       int      `yaml:"min_cols"`
	MinLineLength float64  `yaml:"min_line_length"`
}

// RasterConfig holds page rendering settings.
type RasterConfig struct {
	Backend     string  `yaml:"backend"` // mupdf or poppler
	DPI         float64 `yaml:"dpi"`
	PopplerPath string  `yaml:"poppler_path"`
}

// OCRConfig holds text recognition settings.
type OCRConfig struct {
	Backend       string `yaml:"backend"` // auto, gosseract or tesseract
	TesseractPath string `yaml:"tesseract_path"`
	Language      string `yaml:"language"`
	PageSegMode   int    `yaml:"page_seg_mode"`
	MaxImageSide  int    `yaml:"max_image_side"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from a YAML file and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a .env file into the process
// environment without replacing variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Default returns the configuration of the classic batch script: ./PDFs to
// ./Output, lattice tables as CSV, MuPDF rendering and English OCR, one file
// at a time.
func Default() *Config {
	tc := tables.DefaultConfig()
	return &Config{
		SourceDir: "./PDFs",
		OutputDir: "./Output",
		Suffix:    ".pdf",
		Tables: TablesConfig{
			Mode:          tables.ModeLattice,
			Formats:       []string{string(export.CSV)},
			LineTolerance: tc.AlignmentTolerance,
			MinRows:       tc.MinRows,
			MinCols:       tc.MinCols,
			MinLineLength: tc.MinLineLength,
		},
		Raster: RasterConfig{
			Backend: raster.BackendMuPDF,
			DPI:     raster.DefaultDPI,
		},
		OCR: OCRConfig{
			Backend:     ocr.BackendAuto,
			Language:    "eng",
			PageSegMode: int(ocr.PSM_AUTO),
		},
		Workers: 1,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceDir) == "" {
		return fmt.Errorf("source_dir is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Suffix == "" {
		return fmt.Errorf("suffix is required")
	}

	if tables.GetDetector(c.Tables.Mode) == nil {
		return fmt.Errorf("invalid table mode: %q (available: %s)", c.Tables.Mode, strings.Join(tables.ListDetectors(), ", "))
	}
	if len(c.Tables.Formats) == 0 {
		return fmt.Errorf("at least one table format is required")
	}
	if _, err := export.ParseFormats(c.Tables.Formats); err != nil {
		return err
	}
	if err := c.TableConfig().Validate(); err != nil {
		return err
	}

	switch c.Raster.Backend {
	case raster.BackendMuPDF, raster.BackendPoppler:
	default:
		return fmt.Errorf("invalid raster backend: %q", c.Raster.Backend)
	}
	if c.Raster.DPI <= 0 {
		return fmt.Errorf("raster dpi must be positive, got %v", c.Raster.DPI)
	}

	switch c.OCR.Backend {
	case ocr.BackendAuto, ocr.BackendGosseract, ocr.BackendTesseract:
	default:
		return fmt.Errorf("invalid ocr backend: %q", c.OCR.Backend)
	}
	if c.OCR.Language == "" {
		return fmt.Errorf("ocr language is required")
	}
	if !ocr.PageSegMode(c.OCR.PageSegMode).Valid() {
		return fmt.Errorf("invalid page_seg_mode: %d", c.OCR.PageSegMode)
	}
	if c.OCR.MaxImageSide < 0 {
		return fmt.Errorf("max_image_side must not be negative")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}

	return nil
}

// TableConfig returns the detector configuration.
func (c *Config) TableConfig() tables.Config {
	return tables.Config{
		MinRows:            c.Tables.MinRows,
		MinCols:            c.Tables.MinCols,
		AlignmentTolerance: c.Tables.LineTolerance,
		MinLineLength:      c.Tables.MinLineLength,
	}
}

// TableFormats returns the parsed export formats.
func (c *Config) TableFormats() ([]export.Format, error) {
	return export.ParseFormats(c.Tables.Formats)
}

// RasterOptions returns the renderer options.
func (c *Config) RasterOptions() raster.Options {
	return raster.Options{
		Backend:     c.Raster.Backend,
		DPI:         c.Raster.DPI,
		PopplerPath: c.Raster.PopplerPath,
	}
}

// OCROptions returns the recognizer options.
func (c *Config) OCROptions() ocr.Options {
	return ocr.Options{
		Backend:       c.OCR.Backend,
		Language:      c.OCR.Language,
		PageSegMode:   ocr.PageSegMode(c.OCR.PageSegMode),
		TesseractPath: c.OCR.TesseractPath,
		MaxImageSide:  c.OCR.MaxImageSide,
	}
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PDFBATCH_SOURCE_DIR"); v != "" {
		cfg.SourceDir = v
	}
	if v := os.Getenv("PDFBATCH_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("PDFBATCH_SUFFIX"); v != "" {
		cfg.Suffix = v
	}

	if v := os.Getenv("PDFBATCH_TABLE_MODE"); v != "" {
		cfg.Tables.Mode = v
	}
	if v := os.Getenv("PDFBATCH_TABLE_FORMATS"); v != "" {
		cfg.Tables.Formats = splitList(v)
	}

	if v := os.Getenv("PDFBATCH_RASTER_BACKEND"); v != "" {
		cfg.Raster.Backend = v
	}
	if v := os.Getenv("PDFBATCH_RASTER_DPI"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PDFBATCH_RASTER_DPI %q: %w", v, err)
		}
		cfg.Raster.DPI = dpi
	}
	if v := os.Getenv("POPPLER_PATH"); v != "" {
		cfg.Raster.PopplerPath = v
	}

	if v := os.Getenv("PDFBATCH_OCR_BACKEND"); v != "" {
		cfg.OCR.Backend = v
	}
	if v := os.Getenv("TESSERACT_PATH"); v != "" {
		cfg.OCR.TesseractPath = v
	}
	if v := os.Getenv("PDFBATCH_OCR_LANG"); v != "" {
		cfg.OCR.Language = v
	}

	if v := os.Getenv("PDFBATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PDFBATCH_WORKERS %q: %w", v, err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("PDFBATCH_MANIFEST"); v != "" {
		cfg.ManifestPath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	return nil
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
