package raster

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Poppler renders pages by running pdftoppm into a temporary directory.
type Poppler struct {
	binPath string
	dpi     float64
}

// NewPoppler creates a Poppler renderer. dir is the directory containing
// pdftoppm; if empty, pdftoppm is looked up on $PATH.
func NewPoppler(dir string, dpi float64) *Poppler {
	bin := "pdftoppm"
	if dir != "" {
		bin = filepath.Join(dir, bin)
	}
	return &Poppler{binPath: bin, dpi: dpi}
}

// BinPath returns the pdftoppm executable that will be run.
func (p *Poppler) BinPath() string {
	return p.binPath
}

// Render runs pdftoppm once for the whole document and then decodes the
// produced images in page order.
func (p *Poppler) Render(ctx context.Context, path string, fn PageFunc) error {
	dir, err := os.MkdirTemp("", "pdfbatch-raster-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, p.binPath, "-png", "-r", strconv.FormatFloat(p.dpi, 'f', -1, 64), path, prefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pdftoppm failed for %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	files, err := pageFiles(dir)
	if err != nil {
		return err
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open rendered page %d: %w", i+1, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to decode rendered page %d: %w", i+1, err)
		}

		if err := fn(i, img); err != nil {
			return err
		}
	}

	return nil
}

var pageNumberPattern = regexp.MustCompile(`-(\d+)\.png$`)

// pageFiles lists the PNG files written by pdftoppm ordered by page number.
// pdftoppm zero-pads the number to the width of the page count, so names
// are ordered numerically rather than lexically.
func pageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}

	type numbered struct {
		n    int
		path string
	}
	var pages []numbered
	for _, e := range entries {
		m := pageNumberPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		pages = append(pages, numbered{n: n, path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })

	files := make([]string, len(pages))
	for i, p := range pages {
		files[i] = p.path
	}
	return files, nil
}
