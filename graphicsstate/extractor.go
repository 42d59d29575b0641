package graphicsstate

import (
	"fmt"
	"math"

	"github.com/tsawler/pdfbatch/model"
)

// Segment is a straight stroked line in device space.
type Segment struct {
	Start, End model.Point
	Width      float64 // stroke width in device space
}

// IsAxisAligned reports whether the segment is horizontal or vertical.
func (s Segment) IsAxisAligned() bool {
	return axisAligned(s.Start, s.End)
}

// Rectangle is a painted axis-aligned rectangle in device space.
type Rectangle struct {
	BBox    model.BBox
	Stroked bool
	Filled  bool
	Width   float64 // stroke width in device space, zero when only filled
}

// Extractor records the painted geometry of one content stream.
type Extractor struct {
	gs   *Stack
	path Path

	segments   []Segment
	rectangles []Rectangle
}

// NewExtractor returns an extractor in the default graphics state.
func NewExtractor() *Extractor {
	return &Extractor{gs: NewStack()}
}

// Segments returns the stroked segments seen so far.
func (e *Extractor) Segments() []Segment {
	return e.segments
}

// Rectangles returns the painted rectangles seen so far.
func (e *Extractor) Rectangles() []Rectangle {
	return e.rectangles
}

// State returns the active graphics state.
func (e *Extractor) State() State {
	return e.gs.Current()
}

// Apply executes one content stream operator. Operators that do not
// affect geometry are ignored, as are operators with the wrong number of
// operands.
func (e *Extractor) Apply(op string, args ...float64) error {
	if n, ok := operandCount[op]; ok && len(args) != n {
		return nil
	}

	switch op {
	case "q":
		e.gs.Save()
	case "Q":
		if err := e.gs.Restore(); err != nil {
			return fmt.Errorf("Q: %w", err)
		}
	case "cm":
		e.gs.Concat(model.Matrix{args[0], args[1], args[2], args[3], args[4], args[5]})
	case "w":
		e.gs.SetLineWidth(args[0])

	case "m":
		e.path.MoveTo(e.device(args[0], args[1]))
	case "l":
		e.path.LineTo(e.device(args[0], args[1]))
	case "c":
		e.path.CurveTo(e.device(args[4], args[5]))
	case "v", "y":
		e.path.CurveTo(e.device(args[2], args[3]))
	case "h":
		e.path.Close()
	case "re":
		x, y, w, h := args[0], args[1], args[2], args[3]
		e.path.Rectangle([4]model.Point{
			e.device(x, y),
			e.device(x+w, y),
			e.device(x+w, y+h),
			e.device(x, y+h),
		})

	case "S":
		e.paint(true, false)
	case "s":
		e.path.Close()
		e.paint(true, false)
	case "f", "F", "f*":
		e.paint(false, true)
	case "B", "B*":
		e.paint(true, true)
	case "b", "b*":
		e.path.Close()
		e.paint(true, true)
	case "n":
		e.path.Reset()
	}
	return nil
}

var operandCount = map[string]int{
	"cm": 6, "w": 1,
	"m": 2, "l": 2, "c": 6, "v": 4, "y": 4, "re": 4,
}

func (e *Extractor) device(x, y float64) model.Point {
	return e.gs.Current().CTM.Transform(model.Point{X: x, Y: y})
}

// strokeWidth scales the user-space line width by the CTM.
func (e *Extractor) strokeWidth() float64 {
	st := e.gs.Current()
	m := st.CTM
	return st.LineWidth * math.Sqrt(math.Abs(m[0]*m[3]-m[1]*m[2]))
}

func (e *Extractor) paint(stroke, fill bool) {
	defer e.path.Reset()

	width := 0.0
	if stroke {
		width = e.strokeWidth()
	}

	for _, sp := range e.path.Subpaths {
		if box, ok := sp.bounds(fill); ok {
			e.rectangles = append(e.rectangles, Rectangle{BBox: box, Stroked: stroke, Filled: fill, Width: width})
			continue
		}
		if !stroke {
			continue
		}
		for _, edge := range sp.edges(false) {
			if edge.Curve || near(edge.From, edge.To) {
				continue
			}
			e.segments = append(e.segments, Segment{Start: edge.From, End: edge.To, Width: width})
		}
	}
}
