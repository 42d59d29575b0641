package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/pdfbatch/model"
)

// assembleText joins the glyphs of one cell into text. Glyphs are grouped
// into lines by baseline, lines are read top to bottom and joined with
// newlines, and a space is inserted where the horizontal gap between glyphs
// exceeds a quarter of the font size.
func assembleText(glyphs []model.Glyph) string {
	if len(glyphs) == 0 {
		return ""
	}

	sorted := make([]model.Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines [][]model.Glyph
	var lineY, lineSize float64
	for _, g := range sorted {
		if len(lines) > 0 && math.Abs(g.Y-lineY) <= math.Max(lineSize, g.FontSize)*0.5 {
			lines[len(lines)-1] = append(lines[len(lines)-1], g)
			continue
		}
		lines = append(lines, []model.Glyph{g})
		lineY, lineSize = g.Y, g.FontSize
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X < line[j].X
		})

		var sb strings.Builder
		for i, g := range line {
			if i > 0 {
				prev := line[i-1]
				gap := g.X - (prev.X + prev.Width)
				spaced := strings.HasSuffix(prev.Text, " ") || strings.HasPrefix(g.Text, " ")
				if !spaced && gap > prev.FontSize*0.25 {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(g.Text)
		}

		if text := strings.Join(strings.Fields(sb.String()), " "); text != "" {
			out = append(out, text)
		}
	}

	return strings.Join(out, "\n")
}
