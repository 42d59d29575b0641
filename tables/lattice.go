package tables

import (
	"sort"

	"github.com/tidwall/rtree"
	"github.com/tsawler/pdfbatch/model"
)

// LatticeDetector finds tables delimited by visible ruling lines.
type LatticeDetector struct {
	config Config
	grid   *GridDetector
}

// NewLatticeDetector creates a new lattice detector with default configuration.
func NewLatticeDetector() *LatticeDetector {
	d := &LatticeDetector{grid: NewGridDetector()}
	_ = d.Configure(DefaultConfig())
	return d
}

// Name returns the detector's identifier ("lattice").
func (d *LatticeDetector) Name() string {
	return ModeLattice
}

// Configure sets the detector configuration.
func (d *LatticeDetector) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	d.config = config
	d.grid.AlignmentTolerance = config.AlignmentTolerance
	d.grid.MinLineLength = config.MinLineLength
	return nil
}

// Detect finds the ruled tables on a page, ordered top to bottom and then
// left to right. A page without ruling lines has no tables.
func (d *LatticeDetector) Detect(page *model.Page) ([]*model.Table, error) {
	if page == nil || len(page.Rules) == 0 {
		return nil, nil
	}

	var tables []*model.Table
	for _, cluster := range d.clusterRules(page.Rules) {
		grid := d.grid.FromRules(cluster)
		if grid == nil {
			continue
		}
		if table := d.buildTable(grid, page.Glyphs); table != nil {
			table.Page = page.Number
			tables = append(tables, table)
		}
	}

	sort.SliceStable(tables, func(i, j int) bool {
		if tables[i].BBox.Top() != tables[j].BBox.Top() {
			return tables[i].BBox.Top() > tables[j].BBox.Top()
		}
		return tables[i].BBox.Left() < tables[j].BBox.Left()
	})

	return tables, nil
}

// clusterRules partitions rules into groups of lines that touch, directly or
// through other lines. Groups keep the page order of their first line.
func (d *LatticeDetector) clusterRules(rules []model.Rule) [][]model.Rule {
	tol := d.config.AlignmentTolerance

	var tr rtree.RTreeG[int]
	for i, r := range rules {
		min, max := ruleBounds(r, tol)
		tr.Insert(min, max, i)
	}

	parent := make([]int, len(rules))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i, r := range rules {
		min, max := ruleBounds(r, tol)
		tr.Search(min, max, func(_, _ [2]float64, j int) bool {
			if a, b := find(i), find(j); a != b {
				if a < b {
					parent[b] = a
				} else {
					parent[a] = b
				}
			}
			return true
		})
	}

	index := make(map[int]int)
	var clusters [][]model.Rule
	for i, r := range rules {
		root := find(i)
		n, ok := index[root]
		if !ok {
			n = len(clusters)
			index[root] = n
			clusters = append(clusters, nil)
		}
		clusters[n] = append(clusters[n], r)
	}

	return clusters
}

// ruleBounds returns the rtree bounds of a rule widened by tol.
func ruleBounds(r model.Rule, tol float64) ([2]float64, [2]float64) {
	return [2]float64{r.Start.X - tol, r.Start.Y - tol}, [2]float64{r.End.X + tol, r.End.Y + tol}
}

// buildTable assigns glyphs to the cells of grid and merges cells whose
// separating line is missing.
func (d *LatticeDetector) buildTable(grid *Grid, glyphs []model.Glyph) *model.Table {
	rows, cols := grid.RowCount(), grid.ColCount()
	if rows < d.config.MinRows || cols < d.config.MinCols {
		return nil
	}

	tol := d.config.AlignmentTolerance
	table := model.NewTable(rows, cols)
	table.Grid = &grid.TableGrid
	table.BBox = grid.BBox()
	table.HasGrid = true

	// owner[r][c] is the top-left position of the merged cell covering (r, c)
	owner := make([][][2]int, rows)
	for r := 0; r < rows; r++ {
		owner[r] = make([][2]int, cols)
		for c := 0; c < cols; c++ {
			bbox := grid.GetCellBBox(r, c)
			mid := bbox.Center()
			table.Rows[r][c].BBox = bbox

			switch {
			case c > 0 && !grid.Vertical[c].Covers(mid.Y, tol, false):
				owner[r][c] = owner[r][c-1]
			case r > 0 && !grid.Horizontal[r].Covers(mid.X, tol, true):
				owner[r][c] = owner[r-1][c]
			default:
				owner[r][c] = [2]int{r, c}
			}
		}
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			o := owner[r][c]
			if o == [2]int{r, c} {
				continue
			}
			head := &table.Rows[o[0]][o[1]]
			head.RowSpan = max(head.RowSpan, r-o[0]+1)
			head.ColSpan = max(head.ColSpan, c-o[1]+1)
			head.BBox = head.BBox.Union(table.Rows[r][c].BBox)

			// Covered positions carry no span of their own
			table.Rows[r][c].RowSpan = 0
			table.Rows[r][c].ColSpan = 0
		}
	}

	buckets := make(map[[2]int][]model.Glyph)
	for _, g := range glyphs {
		center := g.BBox().Center()
		r := locateDescending(grid.Rows, center.Y)
		c := locateAscending(grid.Cols, center.X)
		if r < 0 || c < 0 {
			continue
		}
		o := owner[r][c]
		buckets[o] = append(buckets[o], g)
	}
	for pos, cellGlyphs := range buckets {
		table.Rows[pos[0]][pos[1]].Text = assembleText(cellGlyphs)
	}

	return table
}

// locateAscending returns the interval of bounds containing v, or -1.
func locateAscending(bounds []float64, v float64) int {
	for i := 0; i+1 < len(bounds); i++ {
		if v >= bounds[i] && v <= bounds[i+1] {
			return i
		}
	}
	return -1
}

// locateDescending is locateAscending for bounds sorted high to low.
func locateDescending(bounds []float64, v float64) int {
	for i := 0; i+1 < len(bounds); i++ {
		if v <= bounds[i] && v >= bounds[i+1] {
			return i
		}
	}
	return -1
}
