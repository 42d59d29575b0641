// Package pdftest builds small, uncompressed PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Page is the content stream of one page, written verbatim.
type Page struct {
	Content string
}

// Build assembles a PDF with the given pages on US Letter media. Every page
// has the Helvetica font available as /F1 with fixed 600-unit glyph widths.
func Build(pages ...Page) []byte {
	var objects []string

	// 1: catalog, 2: page tree, 3: font, then (page, content) pairs.
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(pages)))

	widths := strings.TrimSpace(strings.Repeat("600 ", 126-32+1))
	objects = append(objects, fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths))

	for i, p := range pages {
		objects = append(objects, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.Content)+1, p.Content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// Write builds the document and stores it as dir/name.
func Write(t *testing.T, dir, name string, pages ...Page) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages...), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// Text returns content that shows s at (x, y) in 10pt Helvetica.
func Text(x, y float64, s string) string {
	s = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
	return fmt.Sprintf("BT /F1 10 Tf 1 0 0 1 %.2f %.2f Tm (%s) Tj ET\n", x, y, s)
}

// Grid returns content for a fully ruled table whose top-left corner is at
// (left, top). Each cell is stroked as its own rectangle and cells[r][c] is
// written inside it.
func Grid(left, top, colWidth, rowHeight float64, cells [][]string) string {
	var sb strings.Builder
	for r, row := range cells {
		for c, text := range row {
			x := left + float64(c)*colWidth
			y := top - float64(r+1)*rowHeight
			fmt.Fprintf(&sb, "%.2f %.2f %.2f %.2f re S\n", x, y, colWidth, rowHeight)
			if text != "" {
				sb.WriteString(Text(x+4, y+rowHeight/2-3, text))
			}
		}
	}
	return sb.String()
}

// LineGrid returns content for a ruled table drawn the way most word
// processors do it: each row and column rule is a single moveto/lineto
// stroke across the whole table. Text placement matches Grid.
func LineGrid(left, top, colWidth, rowHeight float64, cells [][]string) string {
	rows := len(cells)
	cols := 0
	for _, row := range cells {
		cols = max(cols, len(row))
	}
	right := left + float64(cols)*colWidth
	bottom := top - float64(rows)*rowHeight

	var sb strings.Builder
	sb.WriteString("0.5 w\n")
	for r := 0; r <= rows; r++ {
		y := top - float64(r)*rowHeight
		fmt.Fprintf(&sb, "%.2f %.2f m %.2f %.2f l S\n", left, y, right, y)
	}
	for c := 0; c <= cols; c++ {
		x := left + float64(c)*colWidth
		fmt.Fprintf(&sb, "%.2f %.2f m %.2f %.2f l S\n", x, top, x, bottom)
	}
	for r, row := range cells {
		for c, text := range row {
			if text == "" {
				continue
			}
			x := left + float64(c)*colWidth
			y := top - float64(r+1)*rowHeight
			sb.WriteString(Text(x+4, y+rowHeight/2-3, text))
		}
	}
	return sb.String()
}

// Transformed wraps content in q ... Q with the given cm operands.
func Transformed(a, b, c, d, e, f float64, content string) string {
	return fmt.Sprintf("q %g %g %g %g %g %g cm\n%sQ\n", a, b, c, d, e, f, content)
}

// Clip returns a rectangular clipping path that paints nothing.
func Clip(x, y, w, h float64) string {
	return fmt.Sprintf("%.2f %.2f %.2f %.2f re W n\n", x, y, w, h)
}
