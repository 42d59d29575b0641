package model

import (
	"fmt"
	"io"
	"strings"
)

// Table is a detected table. Rows[r][c] is the cell in row r (top first)
// and column c (left first). A merged cell is stored at its top-left
// position with RowSpan/ColSpan covering the merge; positions it covers
// have zero spans and empty text.
type Table struct {
	Page    int // page number, starting at 1
	Rows    [][]Cell
	BBox    BBox
	Grid    *TableGrid
	HasGrid bool // true when the table was built from ruling lines
}

// Cell is one table position.
type Cell struct {
	Text    string
	BBox    BBox
	RowSpan int
	ColSpan int
}

// NewTable returns a rows x cols table of empty, unmerged cells.
func NewTable(rows, cols int) *Table {
	t := &Table{Rows: make([][]Cell, rows)}
	for r := range t.Rows {
		t.Rows[r] = make([]Cell, cols)
		for c := range t.Rows[r] {
			t.Rows[r][c].RowSpan, t.Rows[r][c].ColSpan = 1, 1
		}
	}
	return t
}

func (t *Table) RowCount() int { return len(t.Rows) }

// ColCount returns the width of the first row.
func (t *Table) ColCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// GetCell returns the cell at (row, col), or nil when out of range.
func (t *Table) GetCell(row, col int) *Cell {
	if !t.inRange(row, col) {
		return nil
	}
	return &t.Rows[row][col]
}

// SetCell replaces the cell at (row, col).
func (t *Table) SetCell(row, col int, cell Cell) error {
	if !t.inRange(row, col) {
		return fmt.Errorf("cell (%d, %d) outside %dx%d table", row, col, t.RowCount(), t.ColCount())
	}
	t.Rows[row][col] = cell
	return nil
}

func (t *Table) inRange(row, col int) bool {
	return row >= 0 && row < len(t.Rows) && col >= 0 && col < len(t.Rows[row])
}

// Records returns the cell texts in row-major order.
func (t *Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		records[i] = make([]string, len(row))
		for j, cell := range row {
			records[i][j] = cell.Text
		}
	}
	return records
}

// ToMarkdown converts the table to markdown format. The first row is used as
// the header row.
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(row []Cell) {
		for _, cell := range row {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(cell.Text, "\n", " "))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	writeRow(t.Rows[0])
	for range t.Rows[0] {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}

	return sb.String()
}

// ToCSV converts the table to CSV format
func (t *Table) ToCSV() string {
	var sb strings.Builder
	_ = t.WriteCSV(&sb)
	return sb.String()
}

// WriteCSV writes the table rows to w as comma separated values. A field is
// quoted when it contains a comma, a double quote or a line break; embedded
// quotes are doubled.
func (t *Table) WriteCSV(w io.Writer) error {
	for _, row := range t.Rows {
		var line strings.Builder
		for j, cell := range row {
			line.WriteString(QuoteCSVField(cell.Text))
			if j < len(row)-1 {
				line.WriteByte(',')
			}
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

// QuoteCSVField applies minimal CSV quoting to a single field.
func QuoteCSVField(text string) string {
	if strings.ContainsAny(text, ",\"\r\n") {
		return "\"" + strings.ReplaceAll(text, "\"", "\"\"") + "\""
	}
	return text
}

// TableGrid holds the ruling positions a table was built from. Rows are Y
// coordinates from the top boundary down; Cols are X coordinates from the
// left boundary across. n boundaries delimit n-1 rows or columns.
type TableGrid struct {
	Rows []float64
	Cols []float64
}

func (g *TableGrid) RowCount() int { return max(0, len(g.Rows)-1) }
func (g *TableGrid) ColCount() int { return max(0, len(g.Cols)-1) }

// GetCellBBox returns the rectangle of cell (row, col), or a zero BBox when
// the position is outside the grid.
func (g *TableGrid) GetCellBBox(row, col int) BBox {
	if row < 0 || row >= g.RowCount() || col < 0 || col >= g.ColCount() {
		return BBox{}
	}
	top, bottom := g.Rows[row], g.Rows[row+1]
	left, right := g.Cols[col], g.Cols[col+1]
	return BBox{X: left, Y: bottom, Width: right - left, Height: top - bottom}
}

// BBox returns the rectangle enclosed by the outermost boundaries.
func (g *TableGrid) BBox() BBox {
	rows, cols := g.RowCount(), g.ColCount()
	if rows == 0 || cols == 0 {
		return BBox{}
	}
	return g.GetCellBBox(0, 0).Union(g.GetCellBBox(rows-1, cols-1))
}
