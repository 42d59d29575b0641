package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tsawler/pdfbatch/config"
	"github.com/tsawler/pdfbatch/export"
	"github.com/tsawler/pdfbatch/manifest"
	"github.com/tsawler/pdfbatch/model"
	"github.com/tsawler/pdfbatch/ocr"
	"github.com/tsawler/pdfbatch/raster"
)

func TestRun_Scenario(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.addFile(t, "b.txt")
	h.tables.tables["a.pdf"] = []*model.Table{
		testTable([]string{"Region", "Total"}, []string{"North", "1,200"}),
		testTable([]string{"x", "y"}, []string{"1", "2"}),
	}
	h.renderer.pages["a.pdf"] = 1

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"table_a.pdf_0.csv", "table_a.pdf_1.csv", "text_a.pdf_1.txt"}
	if got := h.outputs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("outputs = %v, want %v", got, want)
	}
	if got := h.read(t, "table_a.pdf_0.csv"); got != "Region,Total\nNorth,\"1,200\"\n" {
		t.Errorf("table 0 = %q", got)
	}
	if got := h.read(t, "text_a.pdf_1.txt"); got != "page 1\n" {
		t.Errorf("text = %q", got)
	}

	if !reflect.DeepEqual(h.tables.calls, []string{"a.pdf"}) {
		t.Errorf("extractor called for %v, want only a.pdf", h.tables.calls)
	}
	if summary.Files != 1 || summary.Tables != 2 || summary.Pages != 1 || summary.Artifacts != 3 || summary.Failures() != 0 {
		t.Errorf("summary = %+v", summary)
	}

	log := h.log.String()
	for _, msg := range []string{
		"Processing a.pdf: Found 2 tables",
		"Saved table 0 from a.pdf to " + filepath.Join(h.out, "table_a.pdf_0.csv"),
		"Saved table 1 from a.pdf to ",
		"Saved text from page 1 of a.pdf to " + filepath.Join(h.out, "text_a.pdf_1.txt"),
		"run complete",
	} {
		if !strings.Contains(log, msg) {
			t.Errorf("log missing %q:\n%s", msg, log)
		}
	}
}

func TestRun_ZeroTables(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "plain.pdf")
	h.renderer.pages["plain.pdf"] = 1

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range h.outputs(t) {
		if strings.HasPrefix(name, "table_") {
			t.Errorf("unexpected table artifact %s", name)
		}
	}
	if summary.TableFailures != 0 {
		t.Errorf("zero tables counted as failure: %+v", summary)
	}
	if !strings.Contains(h.log.String(), "Processing plain.pdf: Found 0 tables") {
		t.Errorf("log missing zero count:\n%s", h.log.String())
	}
}

func TestRun_TableFailureStillRunsText(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.addFile(t, "b.pdf")
	h.tables.errs["a.pdf"] = errors.New("malformed xref table")
	h.tables.tables["b.pdf"] = []*model.Table{testTable([]string{"1", "2"}, []string{"3", "4"})}
	h.renderer.pages["a.pdf"] = 2
	h.renderer.pages["b.pdf"] = 1

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatalf("stage failure aborted the run: %v", err)
	}

	want := []string{"table_b.pdf_0.csv", "text_a.pdf_1.txt", "text_a.pdf_2.txt", "text_b.pdf_1.txt"}
	if got := h.outputs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("outputs = %v, want %v", got, want)
	}
	if summary.TableFailures != 1 || summary.TextFailures != 0 {
		t.Errorf("summary = %+v", summary)
	}

	log := h.log.String()
	if !strings.Contains(log, "Error extracting tables from a.pdf") || !strings.Contains(log, "malformed xref table") {
		t.Errorf("log missing failure line:\n%s", log)
	}
	if !strings.Contains(log, "ExtractionError") {
		t.Errorf("log missing error kind:\n%s", log)
	}
}

func TestRun_PanicsAreIsolated(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.addFile(t, "b.pdf")
	h.tables.panics = map[string]string{"a.pdf": "index out of range"}
	h.tables.tables["b.pdf"] = []*model.Table{testTable([]string{"1", "2"}, []string{"3", "4"})}
	h.renderer.pages["a.pdf"] = 2
	h.renderer.pages["b.pdf"] = 1

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatalf("panic aborted the run: %v", err)
	}

	want := []string{"table_b.pdf_0.csv", "text_a.pdf_1.txt", "text_a.pdf_2.txt", "text_b.pdf_1.txt"}
	if got := h.outputs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("outputs = %v, want %v", got, want)
	}
	if summary.TableFailures != 1 || summary.TextFailures != 0 || summary.Processed != 2 {
		t.Errorf("summary = %+v", summary)
	}

	log := h.log.String()
	if !strings.Contains(log, "Error extracting tables from a.pdf") || !strings.Contains(log, "panic: index out of range") {
		t.Errorf("log missing recovered panic:\n%s", log)
	}
	if !strings.Contains(log, "ExtractionError") {
		t.Errorf("log missing error kind:\n%s", log)
	}
}

func TestProcessFile_RecognizerPanic(t *testing.T) {
	h := newHarness(t)
	path := h.addFile(t, "scan.pdf")
	h.renderer.pages["scan.pdf"] = 3
	h.rec.panicPage = 2
	closed := 0
	h.rec.closed = &closed
	if err := EnsureDir(h.out); err != nil {
		t.Fatal(err)
	}

	summary := h.p.ProcessFile(context.Background(), path)
	if summary.TextFailures != 1 || summary.Pages != 1 {
		t.Errorf("summary = %+v, want one text failure after one page", summary)
	}
	if closed != 1 {
		t.Errorf("recognizer closed %d times, want 1", closed)
	}

	log := h.log.String()
	if !strings.Contains(log, "RecognitionError") || !strings.Contains(log, "recognize page 2") {
		t.Errorf("panic not classified as a recognition failure:\n%s", log)
	}
}

func TestRun_ThreePages(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "doc.pdf")
	h.renderer.pages["doc.pdf"] = 3

	if _, err := h.p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"text_doc.pdf_1.txt", "text_doc.pdf_2.txt", "text_doc.pdf_3.txt"}
	if got := h.outputs(t); !reflect.DeepEqual(got, want) {
		t.Fatalf("outputs = %v, want %v", got, want)
	}
	for i, name := range want {
		if got := h.read(t, name); got != fmt.Sprintf("page %d\n", i+1) {
			t.Errorf("%s = %q", name, got)
		}
	}

	// Log lines appear in page order
	log := h.log.String()
	first := strings.Index(log, "Saved text from page 1 of doc.pdf")
	third := strings.Index(log, "Saved text from page 3 of doc.pdf")
	if first < 0 || third < 0 || first > third {
		t.Errorf("page log lines out of order:\n%s", log)
	}
}

func TestRun_EmptySource(t *testing.T) {
	h := newHarness(t)

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := h.outputs(t); len(got) != 0 {
		t.Errorf("outputs = %v, want none", got)
	}
	if summary.Files != 0 || summary.Processed != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRun_MissingSource(t *testing.T) {
	h := newHarness(t)
	h.p.SourceDir = filepath.Join(h.src, "nope")

	_, err := h.p.Run(context.Background())
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ConfigurationError", err)
	}
	if _, statErr := os.Stat(h.out); !os.IsNotExist(statErr) {
		t.Error("output directory created despite configuration error")
	}
}

func TestRun_OutputUnusable(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	os.WriteFile(h.out, []byte("not a directory"), 0644)

	_, err := h.p.Run(context.Background())
	if !errors.Is(err, ErrIO) {
		t.Errorf("error = %v, want IOError", err)
	}
	if len(h.tables.calls) != 0 {
		t.Error("files processed without an output directory")
	}
}

func TestRun_RecognitionFailureStopsFile(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.addFile(t, "b.pdf")
	h.renderer.pages["a.pdf"] = 3
	h.renderer.pages["b.pdf"] = 1
	h.rec.failPage = 2

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"text_a.pdf_1.txt", "text_b.pdf_1.txt"}
	if got := h.outputs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("outputs = %v, want %v", got, want)
	}
	if summary.TextFailures != 1 {
		t.Errorf("summary = %+v", summary)
	}

	log := h.log.String()
	if !strings.Contains(log, "Error extracting text from a.pdf") || !strings.Contains(log, "RecognitionError") {
		t.Errorf("log missing recognition failure:\n%s", log)
	}
}

func TestRun_RenderFailure(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.tables.tables["a.pdf"] = []*model.Table{testTable([]string{"1", "2"}, []string{"3", "4"})}
	h.renderer.errs["a.pdf"] = errors.New("cannot open document")

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := h.outputs(t); !reflect.DeepEqual(got, []string{"table_a.pdf_0.csv"}) {
		t.Errorf("outputs = %v", got)
	}
	if summary.TextFailures != 1 || summary.TableFailures != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(h.log.String(), "RenderError") {
		t.Errorf("log missing render failure:\n%s", h.log.String())
	}
}

func TestRun_FactoryFailures(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.addFile(t, "b.pdf")
	h.p.NewRecognizer = func() (ocr.Recognizer, error) {
		return nil, errors.New("no tessdata")
	}

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.TextFailures != 2 {
		t.Errorf("summary = %+v, want 2 text failures", summary)
	}

	h.p.NewRenderer = func() (raster.Renderer, error) {
		return nil, errors.New("no backend")
	}
	h.log.Reset()
	if _, err := h.p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.log.String(), "RenderError") {
		t.Errorf("log missing render failure:\n%s", h.log.String())
	}
}

func TestRun_ClosesRecognizerPerFile(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.addFile(t, "b.pdf")
	closed := 0
	h.rec.closed = &closed

	if _, err := h.p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if closed != 2 {
		t.Errorf("recognizer closed %d times, want 2", closed)
	}
}

func TestRun_MultipleFormats(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.tables.tables["a.pdf"] = []*model.Table{testTable([]string{"1", "2"}, []string{"3", "4"})}
	h.p.Formats = []export.Format{export.CSV, export.Markdown, export.JSON}

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"table_a.pdf_0.csv", "table_a.pdf_0.json", "table_a.pdf_0.md"}
	if got := h.outputs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("outputs = %v, want %v", got, want)
	}
	if summary.Tables != 1 || summary.Artifacts != 3 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRun_Workers(t *testing.T) {
	h := newHarness(t)
	h.p.Workers = 4
	var want []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("f%d.pdf", i)
		h.addFile(t, name)
		h.tables.tables[name] = []*model.Table{testTable([]string{name, "x"}, []string{"1", "2"})}
		h.renderer.pages[name] = 2
		want = append(want, "table_"+name+"_0.csv", "text_"+name+"_1.txt", "text_"+name+"_2.txt")
	}

	summary, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := h.outputs(t); len(got) != len(want) {
		t.Errorf("got %d artifacts, want %d: %v", len(got), len(want), got)
	}
	if summary.Processed != 8 || summary.Pages != 16 || summary.Tables != 8 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.p.Run(ctx)
	if err != nil {
		t.Fatalf("cancelled run returned error: %v", err)
	}
	if !summary.Interrupted || summary.Processed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(h.tables.calls) != 0 {
		t.Errorf("files processed after cancellation: %v", h.tables.calls)
	}
}

func TestRun_CancelledMidFile(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	h.addFile(t, "b.pdf")
	h.renderer.pages["a.pdf"] = 3

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.rec.onCall = cancel

	summary, err := h.p.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if got := h.outputs(t); !reflect.DeepEqual(got, []string{"text_a.pdf_1.txt"}) {
		t.Errorf("outputs = %v, want only the first page", got)
	}
	if !summary.Interrupted || summary.Failures() != 0 {
		t.Errorf("summary = %+v, want interrupted without failures", summary)
	}
	if !reflect.DeepEqual(h.tables.calls, []string{"a.pdf"}) {
		t.Errorf("extractor calls = %v, want only a.pdf", h.tables.calls)
	}
}

func TestRun_Manifest(t *testing.T) {
	h := newHarness(t)
	h.addFile(t, "a.pdf")
	bad := h.addFile(t, "bad.pdf")
	h.tables.errs["bad.pdf"] = errors.New("broken")

	m, err := manifest.Open(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	h.p.Manifest = m

	first, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Processed != 2 || first.Skipped != 0 {
		t.Errorf("first run = %+v", first)
	}

	// a.pdf completed, bad.pdf did not
	if done, _ := m.Completed(context.Background(), bad); done {
		t.Error("failed file recorded as completed")
	}

	h.tables.calls = nil
	second, err := h.p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.Skipped != 1 || second.Processed != 1 {
		t.Errorf("second run = %+v", second)
	}
	if !reflect.DeepEqual(h.tables.calls, []string{"bad.pdf"}) {
		t.Errorf("second run extracted %v, want only bad.pdf", h.tables.calls)
	}
	if !strings.Contains(h.log.String(), "Skipping a.pdf: unchanged since last completed run") {
		t.Errorf("log missing skip line:\n%s", h.log.String())
	}
}

func TestRun_NotConfigured(t *testing.T) {
	p := &Pipeline{SourceDir: t.TempDir(), OutputDir: t.TempDir(), Logger: zerolog.Nop()}
	if _, err := p.Run(context.Background()); !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ConfigurationError", err)
	}
}

func TestProcessFile(t *testing.T) {
	h := newHarness(t)
	path := h.addFile(t, "one.pdf")
	h.renderer.pages["one.pdf"] = 2
	if err := EnsureDir(h.out); err != nil {
		t.Fatal(err)
	}

	s := h.p.ProcessFile(context.Background(), path)
	if s.Processed != 1 || s.Pages != 2 || s.Artifacts != 2 {
		t.Errorf("summary = %+v", s)
	}
}

func TestNew(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.SourceDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.Tables.Formats = []string{"csv", "md"}
	cfg.Workers = 3
	cfg.ManifestPath = filepath.Join(root, "state", "manifest.db")

	p, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()

	if p.Workers != 3 || !reflect.DeepEqual(p.Formats, []export.Format{export.CSV, export.Markdown}) {
		t.Errorf("pipeline = %+v", p)
	}
	if p.Manifest == nil {
		t.Error("manifest not opened")
	}
	if ext, ok := p.Tables.(*DetectorExtractor); !ok || ext.Mode() != "lattice" {
		t.Errorf("extractor = %T", p.Tables)
	}

	renderer, err := p.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := renderer.(*raster.MuPDF); !ok {
		t.Errorf("renderer = %T, want *raster.MuPDF", renderer)
	}
}

func TestNew_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Tables.Mode = "stream"
	if _, err := New(cfg, zerolog.Nop()); !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ConfigurationError", err)
	}
}
