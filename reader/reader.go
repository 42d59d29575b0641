package reader

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/tsawler/pdfbatch/graphicsstate"
	"github.com/tsawler/pdfbatch/model"
)

// DefaultRuleThickness is the largest rectangle side, in points, that is
// still read as a single ruling line rather than a box with four borders.
const DefaultRuleThickness = 2.0

// US Letter, used when a page has no usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// ErrNoPage is returned for page numbers outside the document.
var ErrNoPage = errors.New("page does not exist")

// Reader reads page content from a single PDF file.
type Reader struct {
	file     *os.File
	doc      *pdf.Reader
	filename string

	// RuleThickness overrides DefaultRuleThickness when positive.
	RuleThickness float64
}

// Open opens a PDF file for reading.
func Open(filename string) (r *Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("failed to open PDF %s: %v", filename, p)
		}
	}()

	file, doc, err := pdf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", filename, err)
	}

	return &Reader{file: file, doc: doc, filename: filename}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Filename returns the path the reader was opened with.
func (r *Reader) Filename() string {
	return r.filename
}

// PageCount returns the number of pages in the document.
func (r *Reader) PageCount() int {
	return r.doc.NumPage()
}

// Page interprets the content stream of the page with the given 1-indexed
// number.
func (r *Reader) Page(number int) (page *model.Page, err error) {
	if number < 1 || number > r.doc.NumPage() {
		return nil, fmt.Errorf("page %d of %d: %w", number, r.doc.NumPage(), ErrNoPage)
	}

	defer func() {
		if p := recover(); p != nil {
			page, err = nil, fmt.Errorf("failed to read page %d: %v", number, p)
		}
	}()

	p := r.doc.Page(number)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d: %w", number, ErrNoPage)
	}

	width, height := mediaBox(p.V)
	page = &model.Page{Number: number, Width: width, Height: height}

	content := p.Content()
	page.Glyphs = make([]model.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		page.Glyphs = append(page.Glyphs, model.Glyph{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			Width:    t.W,
			FontSize: t.FontSize,
		})
	}

	thickness := r.RuleThickness
	if thickness <= 0 {
		thickness = DefaultRuleThickness
	}
	geometry, err := paintedGeometry(p.V.Key("Contents"))
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", number, err)
	}
	for _, rect := range geometry.Rectangles() {
		page.Rules = append(page.Rules, RulesFromRect(rect.BBox, thickness)...)
	}
	for _, seg := range geometry.Segments() {
		if rule, ok := RuleFromSegment(seg); ok {
			page.Rules = append(page.Rules, rule)
		}
	}

	return page, nil
}

// paintedGeometry replays the page content through a graphics state
// extractor. The text pass in ledongthuc/pdf ignores path operators and the
// CTM for rectangles, so geometry gets its own pass over the same stream.
func paintedGeometry(contents pdf.Value) (*graphicsstate.Extractor, error) {
	ex := graphicsstate.NewExtractor()
	if contents.IsNull() {
		return ex, nil
	}

	var firstErr error
	pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]float64, n)
		numeric := true
		for i := n - 1; i >= 0; i-- {
			v := stk.Pop()
			switch v.Kind() {
			case pdf.Integer, pdf.Real:
				args[i] = v.Float64()
			default:
				numeric = false
			}
		}
		if !numeric {
			return
		}
		if err := ex.Apply(op, args...); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return ex, firstErr
}

// RulesFromRect converts a painted rectangle into ruling lines. A rectangle
// thinner than thickness on one side is a single rule along its centre line;
// anything larger contributes its four borders.
func RulesFromRect(box model.BBox, thickness float64) []model.Rule {
	minX, maxX := math.Min(box.Left(), box.Right()), math.Max(box.Left(), box.Right())
	minY, maxY := math.Min(box.Bottom(), box.Top()), math.Max(box.Bottom(), box.Top())
	w, h := maxX-minX, maxY-minY

	switch {
	case w <= thickness && h <= thickness:
		return nil
	case h <= thickness:
		y := (minY + maxY) / 2
		return []model.Rule{{Start: model.Point{X: minX, Y: y}, End: model.Point{X: maxX, Y: y}}}
	case w <= thickness:
		x := (minX + maxX) / 2
		return []model.Rule{{Start: model.Point{X: x, Y: minY}, End: model.Point{X: x, Y: maxY}}}
	}

	return []model.Rule{
		{Start: model.Point{X: minX, Y: minY}, End: model.Point{X: maxX, Y: minY}},
		{Start: model.Point{X: minX, Y: maxY}, End: model.Point{X: maxX, Y: maxY}},
		{Start: model.Point{X: minX, Y: minY}, End: model.Point{X: minX, Y: maxY}},
		{Start: model.Point{X: maxX, Y: minY}, End: model.Point{X: maxX, Y: maxY}},
	}
}

// RuleFromSegment converts a stroked segment into a rule. Diagonal segments
// are not rules.
func RuleFromSegment(seg graphicsstate.Segment) (model.Rule, bool) {
	if !seg.IsAxisAligned() {
		return model.Rule{}, false
	}
	a, b := seg.Start, seg.End
	if math.Abs(a.Y-b.Y) <= math.Abs(a.X-b.X) {
		y := (a.Y + b.Y) / 2
		return model.Rule{
			Start: model.Point{X: math.Min(a.X, b.X), Y: y},
			End:   model.Point{X: math.Max(a.X, b.X), Y: y},
		}, true
	}
	x := (a.X + b.X) / 2
	return model.Rule{
		Start: model.Point{X: x, Y: math.Min(a.Y, b.Y)},
		End:   model.Point{X: x, Y: math.Max(a.Y, b.Y)},
	}, true
}

// mediaBox returns the page dimensions, following the Parent chain for an
// inherited MediaBox.
func mediaBox(v pdf.Value) (float64, float64) {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageWidth, defaultPageHeight
}
