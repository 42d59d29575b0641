package tables

import (
	"math"
	"sort"

	"github.com/tsawler/pdfbatch/model"
)

// GridDetector turns a set of ruling lines into row and column boundaries
type GridDetector struct {
	// Tolerance for considering lines aligned (in points)
	AlignmentTolerance float64

	// Minimum line length to consider (in points)
	MinLineLength float64
}

// NewGridDetector creates a new grid detector with default settings
func NewGridDetector() *GridDetector {
	return &GridDetector{
		AlignmentTolerance: 2.0,
		MinLineLength:      10.0,
	}
}

// AlignedLineGroup represents a group of lines aligned on an axis
type AlignedLineGroup struct {
	// Position on the alignment axis (X for vertical lines, Y for horizontal)
	Position float64

	// Lines in this group
	Lines []model.Rule

	// Total coverage (sum of line lengths)
	TotalLength float64

	// Span of the lines (min to max on the perpendicular axis)
	MinExtent float64
	MaxExtent float64
}

// Covers reports whether some line in the group crosses pos on the
// perpendicular axis, allowing tol of slack at the line ends.
func (g AlignedLineGroup) Covers(pos, tol float64, isHorizontal bool) bool {
	for _, line := range g.Lines {
		lo, hi := line.Start.Y, line.End.Y
		if isHorizontal {
			lo, hi = line.Start.X, line.End.X
		}
		if pos >= lo-tol && pos <= hi+tol {
			return true
		}
	}
	return false
}

// Grid is a grid built from ruling lines, with the aligned groups that
// produced each boundary.
type Grid struct {
	model.TableGrid

	// Horizontal groups top to bottom, parallel to TableGrid.Rows
	Horizontal []AlignedLineGroup

	// Vertical groups left to right, parallel to TableGrid.Cols
	Vertical []AlignedLineGroup
}

// FromRules builds a grid from the lines of one table. It returns nil when the
// lines do not describe at least one cell.
func (gd *GridDetector) FromRules(rules []model.Rule) *Grid {
	var horizontals, verticals []model.Rule
	for _, r := range rules {
		if r.Length() < gd.MinLineLength {
			continue
		}
		if r.IsHorizontal() {
			horizontals = append(horizontals, r)
		} else {
			verticals = append(verticals, r)
		}
	}

	hGroups := gd.groupAlignedLines(horizontals, true)
	vGroups := gd.groupAlignedLines(verticals, false)
	if len(hGroups) < 2 || len(vGroups) < 2 {
		return nil
	}

	// Rows run top to bottom in PDF coordinates
	sort.Slice(hGroups, func(i, j int) bool {
		return hGroups[i].Position > hGroups[j].Position
	})

	grid := &Grid{Horizontal: hGroups, Vertical: vGroups}
	grid.Rows = make([]float64, len(hGroups))
	for i, g := range hGroups {
		grid.Rows[i] = g.Position
	}
	grid.Cols = make([]float64, len(vGroups))
	for i, g := range vGroups {
		grid.Cols[i] = g.Position
	}

	return grid
}

// lineLength calculates the length of a line
func lineLength(line model.Rule) float64 {
	dx := line.End.X - line.Start.X
	dy := line.End.Y - line.Start.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// groupAlignedLines groups lines that are aligned on the same axis. Groups
// are returned in ascending position order.
func (gd *GridDetector) groupAlignedLines(lines []model.Rule, isHorizontal bool) []AlignedLineGroup {
	if len(lines) == 0 {
		return nil
	}

	position := func(line model.Rule) float64 {
		if isHorizontal {
			return (line.Start.Y + line.End.Y) / 2
		}
		return (line.Start.X + line.End.X) / 2
	}

	sorted := make([]model.Rule, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return position(sorted[i]) < position(sorted[j])
	})

	var groups []AlignedLineGroup
	current := AlignedLineGroup{
		Position: position(sorted[0]),
		Lines:    []model.Rule{sorted[0]},
	}

	for _, line := range sorted[1:] {
		pos := position(line)

		if pos-current.Position <= gd.AlignmentTolerance {
			current.Lines = append(current.Lines, line)
			// Update position to average
			current.Position = (current.Position*float64(len(current.Lines)-1) + pos) / float64(len(current.Lines))
			continue
		}

		finalizeGroup(&current, isHorizontal)
		groups = append(groups, current)
		current = AlignedLineGroup{Position: pos, Lines: []model.Rule{line}}
	}

	finalizeGroup(&current, isHorizontal)
	groups = append(groups, current)

	return groups
}

// finalizeGroup calculates final metrics for an aligned line group
func finalizeGroup(group *AlignedLineGroup, isHorizontal bool) {
	group.TotalLength = 0
	group.MinExtent = math.MaxFloat64
	group.MaxExtent = -math.MaxFloat64

	for _, line := range group.Lines {
		group.TotalLength += lineLength(line)

		minVal, maxVal := line.Start.Y, line.End.Y
		if isHorizontal {
			minVal, maxVal = line.Start.X, line.End.X
		}
		group.MinExtent = math.Min(group.MinExtent, minVal)
		group.MaxExtent = math.Max(group.MaxExtent, maxVal)
	}
}
