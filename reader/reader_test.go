package reader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/pdfbatch/graphicsstate"
	"github.com/tsawler/pdfbatch/internal/pdftest"
	"github.com/tsawler/pdfbatch/model"
)

func TestOpen_NonexistentFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Error("Open() should fail for a missing file")
	}
}

func TestOpen_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	if err := os.WriteFile(path, []byte(strings.Repeat("not a pdf at all\n", 20)), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err == nil {
		r.Close()
		t.Error("Open() should fail for a file without a PDF header")
	}
}

func TestReader_Page(t *testing.T) {
	dir := t.TempDir()
	content := pdftest.Text(100, 700, "Hi") + "50 600 200 1 re f\n"
	path := pdftest.Write(t, dir, "one.pdf", pdftest.Page{Content: content})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer r.Close()

	if r.PageCount() != 1 {
		t.Fatalf("PageCount() = %d, want 1", r.PageCount())
	}
	if r.Filename() != path {
		t.Errorf("Filename() = %q, want %q", r.Filename(), path)
	}

	page, err := r.Page(1)
	if err != nil {
		t.Fatalf("Page(1) failed: %v", err)
	}
	if page.Number != 1 || page.Width != 612 || page.Height != 792 {
		t.Errorf("page = #%d %vx%v, want #1 612x792", page.Number, page.Width, page.Height)
	}

	var text strings.Builder
	for _, g := range page.Glyphs {
		text.WriteString(g.Text)
	}
	if text.String() != "Hi" {
		t.Errorf("glyph text = %q, want 'Hi'", text.String())
	}
	if len(page.Glyphs) > 0 {
		g := page.Glyphs[0]
		if g.X != 100 || g.Y != 700 || g.FontSize != 10 {
			t.Errorf("first glyph at (%v, %v) size %v, want (100, 700) size 10", g.X, g.Y, g.FontSize)
		}
	}

	if len(page.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(page.Rules))
	}
	if !page.Rules[0].IsHorizontal() || page.Rules[0].Length() != 200 {
		t.Errorf("rule = %+v, want horizontal of length 200", page.Rules[0])
	}
}

func TestReader_PageOutOfRange(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "one.pdf", pdftest.Page{Content: pdftest.Text(10, 10, "x")})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer r.Close()

	for _, n := range []int{0, 2} {
		if _, err := r.Page(n); !errors.Is(err, ErrNoPage) {
			t.Errorf("Page(%d) error = %v, want ErrNoPage", n, err)
		}
	}
}

func TestReader_CloseTwice(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "one.pdf", pdftest.Page{Content: pdftest.Text(10, 10, "x")})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestRulesFromRect(t *testing.T) {
	tests := []struct {
		name      string
		box       model.BBox
		wantRules int
		wantHoriz bool
	}{
		{"dot", model.BBox{X: 1, Y: 1, Width: 1, Height: 1}, 0, false},
		{"horizontal", model.BBox{X: 0, Y: 10, Width: 100, Height: 0.5}, 1, true},
		{"vertical", model.BBox{X: 10, Y: 0, Width: 0.5, Height: 100}, 1, false},
		{"negative height", model.BBox{X: 10, Y: 100, Width: 0.5, Height: -100}, 1, false},
		{"zero height", model.BBox{X: 0, Y: 10, Width: 100}, 1, true},
		{"box", model.BBox{X: 0, Y: 0, Width: 50, Height: 20}, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := RulesFromRect(tt.box, DefaultRuleThickness)
			if len(rules) != tt.wantRules {
				t.Fatalf("got %d rules, want %d", len(rules), tt.wantRules)
			}
			for _, r := range rules {
				if r.Start.X > r.End.X || r.Start.Y > r.End.Y {
					t.Errorf("rule %+v does not start at its lower-left end", r)
				}
			}
			if tt.wantRules == 1 && rules[0].IsHorizontal() != tt.wantHoriz {
				t.Errorf("IsHorizontal() = %v, want %v", rules[0].IsHorizontal(), tt.wantHoriz)
			}
		})
	}
}

func TestRuleFromSegment(t *testing.T) {
	tests := []struct {
		name   string
		seg    graphicsstate.Segment
		want   model.Rule
		wantOK bool
	}{
		{
			name:   "right to left",
			seg:    graphicsstate.Segment{Start: model.Point{X: 300, Y: 700}, End: model.Point{X: 100, Y: 700}},
			want:   model.Rule{Start: model.Point{X: 100, Y: 700}, End: model.Point{X: 300, Y: 700}},
			wantOK: true,
		},
		{
			name:   "top to bottom",
			seg:    graphicsstate.Segment{Start: model.Point{X: 50, Y: 700}, End: model.Point{X: 50, Y: 600}},
			want:   model.Rule{Start: model.Point{X: 50, Y: 600}, End: model.Point{X: 50, Y: 700}},
			wantOK: true,
		},
		{
			name: "diagonal",
			seg:  graphicsstate.Segment{Start: model.Point{X: 0, Y: 0}, End: model.Point{X: 100, Y: 100}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RuleFromSegment(tt.seg)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("rule = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// pageOf writes content as a one-page PDF and reads the page back.
func pageOf(t *testing.T, content string) *model.Page {
	t.Helper()
	path := pdftest.Write(t, t.TempDir(), "page.pdf", pdftest.Page{Content: content})
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer r.Close()

	page, err := r.Page(1)
	if err != nil {
		t.Fatalf("Page(1) failed: %v", err)
	}
	return page
}

func countRules(page *model.Page) (horizontal, vertical int) {
	for _, r := range page.Rules {
		if r.IsHorizontal() {
			horizontal++
		} else {
			vertical++
		}
	}
	return horizontal, vertical
}

func TestReader_PageStrokedLines(t *testing.T) {
	page := pageOf(t, pdftest.LineGrid(100, 700, 100, 20, [][]string{{"A", "B"}, {"C", "D"}}))

	h, v := countRules(page)
	if h != 3 || v != 3 {
		t.Fatalf("got %d horizontal and %d vertical rules, want 3 and 3", h, v)
	}
	top := page.Rules[0]
	if top.Start != (model.Point{X: 100, Y: 700}) || top.End != (model.Point{X: 300, Y: 700}) {
		t.Errorf("top rule = %+v, want (100,700)-(300,700)", top)
	}
}

func TestReader_PageTransformedRulesMatchText(t *testing.T) {
	content := pdftest.Transformed(1, 0, 0, 1, 50, -100,
		"100 700 200 0.5 re f\n"+pdftest.Text(100, 690, "A"))
	page := pageOf(t, content)

	if len(page.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(page.Rules))
	}
	rule := page.Rules[0]
	if rule.Start.X != 150 || rule.End.X != 350 || rule.Start.Y != 600.25 {
		t.Errorf("rule = %+v, want (150,600.25)-(350,600.25)", rule)
	}
	if len(page.Glyphs) == 0 {
		t.Fatal("no glyphs read")
	}
	if g := page.Glyphs[0]; g.X != 150 || g.Y != 590 {
		t.Errorf("glyph at (%v, %v), want (150, 590)", g.X, g.Y)
	}
}

func TestReader_PageFlippedCoordinates(t *testing.T) {
	// Top-down user space as produced by browser print engines.
	content := "q 1 0 0 -1 0 792 cm\n" +
		"0.5 w 100 100 m 300 100 l S\n" +
		"BT /F1 10 Tf 1 0 0 -1 100 110 Tm (A) Tj ET\n" +
		"Q\n"
	page := pageOf(t, content)

	if len(page.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(page.Rules))
	}
	if y := page.Rules[0].Start.Y; y != 692 {
		t.Errorf("rule y = %v, want 692", y)
	}
	if len(page.Glyphs) == 0 {
		t.Fatal("no glyphs read")
	}
	if g := page.Glyphs[0]; g.X != 100 || g.Y != 682 {
		t.Errorf("glyph at (%v, %v), want (100, 682)", g.X, g.Y)
	}
}

func TestReader_PageIgnoresClipAndCurves(t *testing.T) {
	content := pdftest.Clip(0, 0, 612, 792) +
		"100 100 m 150 150 200 150 250 100 c S\n" +
		"100 400 m 200 500 l S\n"
	page := pageOf(t, content)

	if len(page.Rules) != 0 {
		t.Errorf("got %d rules, want none: %+v", len(page.Rules), page.Rules)
	}
}
