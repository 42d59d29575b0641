package graphicsstate

import (
	"math"

	"github.com/tsawler/pdfbatch/model"
)

const (
	pointTolerance = 0.1
	axisTolerance  = 0.5
)

// Edge is one piece of a subpath in device space. A Bézier segment is kept
// as its chord with Curve set.
type Edge struct {
	From, To model.Point
	Curve    bool
}

// Subpath is a run of connected edges started by m or re.
type Subpath struct {
	Start  model.Point
	Edges  []Edge
	Closed bool
}

// current returns the end point of the subpath.
func (sp *Subpath) current() model.Point {
	if len(sp.Edges) == 0 {
		return sp.Start
	}
	return sp.Edges[len(sp.Edges)-1].To
}

// Path is the path under construction between painting operators.
type Path struct {
	Subpaths []Subpath
}

func (p *Path) last() *Subpath {
	if len(p.Subpaths) == 0 {
		return nil
	}
	return &p.Subpaths[len(p.Subpaths)-1]
}

// CurrentPoint returns the end of the last subpath.
func (p *Path) CurrentPoint() (model.Point, bool) {
	sp := p.last()
	if sp == nil {
		return model.Point{}, false
	}
	if sp.Closed {
		return sp.Start, true
	}
	return sp.current(), true
}

// MoveTo starts a new subpath at pt.
func (p *Path) MoveTo(pt model.Point) {
	p.Subpaths = append(p.Subpaths, Subpath{Start: pt})
}

// LineTo adds a straight edge from the current point.
func (p *Path) LineTo(pt model.Point) {
	p.extend(pt, false)
}

// CurveTo adds a Bézier edge ending at end.
func (p *Path) CurveTo(end model.Point) {
	p.extend(end, true)
}

func (p *Path) extend(pt model.Point, curve bool) {
	sp := p.last()
	if sp == nil {
		p.MoveTo(pt)
		return
	}
	if sp.Closed {
		// Drawing after h continues from the start of the closed subpath.
		p.MoveTo(sp.Start)
		sp = p.last()
	}
	sp.Edges = append(sp.Edges, Edge{From: sp.current(), To: pt, Curve: curve})
}

// Close closes the current subpath (h).
func (p *Path) Close() {
	if sp := p.last(); sp != nil {
		sp.Closed = true
	}
}

// Rectangle appends a closed subpath through the four corners (re).
func (p *Path) Rectangle(corners [4]model.Point) {
	sp := Subpath{Start: corners[0], Closed: true}
	for i := 1; i < 4; i++ {
		sp.Edges = append(sp.Edges, Edge{From: corners[i-1], To: corners[i]})
	}
	p.Subpaths = append(p.Subpaths, sp)
}

// Reset discards the path.
func (p *Path) Reset() {
	p.Subpaths = p.Subpaths[:0]
}

// IsEmpty reports whether no subpath has been started.
func (p *Path) IsEmpty() bool {
	return len(p.Subpaths) == 0
}

// edges returns the edges of sp. A closed subpath, or any subpath that is
// filled, gets its closing edge back to Start.
func (sp Subpath) edges(close bool) []Edge {
	out := sp.Edges
	if (sp.Closed || close) && len(sp.Edges) > 0 {
		if end := sp.current(); !near(end, sp.Start) {
			out = append(out[:len(out):len(out)], Edge{From: end, To: sp.Start})
		}
	}
	return out
}

// bounds returns the box of sp when sp is a rectangle whose sides run along
// the device axes.
func (sp Subpath) bounds(filled bool) (model.BBox, bool) {
	closed := sp.Closed || filled
	if !closed && len(sp.Edges) == 4 && near(sp.current(), sp.Start) {
		closed = true
	}
	edges := sp.edges(closed)
	if !closed || len(edges) != 4 {
		return model.BBox{}, false
	}

	minX, maxX := sp.Start.X, sp.Start.X
	minY, maxY := sp.Start.Y, sp.Start.Y
	for _, e := range edges {
		if e.Curve || !axisAligned(e.From, e.To) {
			return model.BBox{}, false
		}
		minX, maxX = math.Min(minX, e.To.X), math.Max(maxX, e.To.X)
		minY, maxY = math.Min(minY, e.To.Y), math.Max(maxY, e.To.Y)
	}
	return model.BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

func axisAligned(a, b model.Point) bool {
	return math.Abs(a.X-b.X) <= axisTolerance || math.Abs(a.Y-b.Y) <= axisTolerance
}

func near(a, b model.Point) bool {
	return math.Abs(a.X-b.X) < pointTolerance && math.Abs(a.Y-b.Y) < pointTolerance
}
