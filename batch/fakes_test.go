package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tsawler/pdfbatch/model"
	"github.com/tsawler/pdfbatch/ocr"
	"github.com/tsawler/pdfbatch/raster"
)

// fakeTables returns canned tables keyed by file base name.
type fakeTables struct {
	mu     sync.Mutex
	tables map[string][]*model.Table
	errs   map[string]error
	panics map[string]string
	calls  []string
}

func (f *fakeTables) ExtractTables(ctx context.Context, path string) ([]*model.Table, error) {
	base := filepath.Base(path)
	f.mu.Lock()
	f.calls = append(f.calls, base)
	f.mu.Unlock()

	if msg, ok := f.panics[base]; ok {
		panic(msg)
	}
	if err := f.errs[base]; err != nil {
		return nil, err
	}
	return f.tables[base], nil
}

// fakeRenderer emits pages[base] images. Page n is an image n+1 pixels
// wide so the recognizer can tell pages apart.
type fakeRenderer struct {
	pages map[string]int
	errs  map[string]error
}

func (r *fakeRenderer) Render(ctx context.Context, path string, fn raster.PageFunc) error {
	base := filepath.Base(path)
	if err := r.errs[base]; err != nil {
		return err
	}
	for n := 0; n < r.pages[base]; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(n, image.NewGray(image.Rect(0, 0, n+1, 1))); err != nil {
			return err
		}
	}
	return nil
}

// fakeRecognizer returns "page <n>\n" for the image of page n (1-based).
type fakeRecognizer struct {
	failPage  int // 1-based page to fail on, 0 for never
	panicPage int // 1-based page to panic on, 0 for never
	onCall    func()
	closed   *int
}

func (r *fakeRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if r.onCall != nil {
		r.onCall()
	}
	page := img.Bounds().Dx()
	if page == r.panicPage {
		panic("nil pointer in recognizer")
	}
	if page == r.failPage {
		return "", errors.New("tesseract exploded")
	}
	return fmt.Sprintf("page %d\n", page), nil
}

func (r *fakeRecognizer) Close() error {
	if r.closed != nil {
		*r.closed++
	}
	return nil
}

// testTable builds a table from rows of text.
func testTable(rows ...[]string) *model.Table {
	t := model.NewTable(len(rows), len(rows[0]))
	for i, row := range rows {
		for j, text := range row {
			t.Rows[i][j].Text = text
		}
	}
	return t
}

// harness wires a pipeline to fakes, temp directories and a captured log.
type harness struct {
	src, out string
	tables   *fakeTables
	renderer *fakeRenderer
	rec      *fakeRecognizer
	log      *bytes.Buffer
	p        *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		src:      filepath.Join(root, "PDFs"),
		out:      filepath.Join(root, "Output"),
		tables:   &fakeTables{tables: map[string][]*model.Table{}, errs: map[string]error{}},
		renderer: &fakeRenderer{pages: map[string]int{}, errs: map[string]error{}},
		rec:      &fakeRecognizer{},
		log:      &bytes.Buffer{},
	}
	if err := os.MkdirAll(h.src, 0755); err != nil {
		t.Fatal(err)
	}
	h.p = &Pipeline{
		SourceDir:     h.src,
		OutputDir:     h.out,
		Tables:        h.tables,
		NewRenderer:   func() (raster.Renderer, error) { return h.renderer, nil },
		NewRecognizer: func() (ocr.Recognizer, error) { return h.rec, nil },
		Logger:        zerolog.New(h.log),
	}
	return h
}

// addFile creates a source file with placeholder content.
func (h *harness) addFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(h.src, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 "+name), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// outputs lists the output directory, sorted.
func (h *harness) outputs(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.out)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func (h *harness) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.out, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
