package export

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/pdfbatch/model"
)

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

// tableNode builds a <table> element for t. Positions covered by a merged
// cell are omitted and the owning cell carries rowspan/colspan.
func tableNode(t *model.Table) *html.Node {
	table := element(atom.Table)
	for _, row := range t.Rows {
		tr := element(atom.Tr)
		for _, cell := range row {
			if cell.RowSpan == 0 || cell.ColSpan == 0 {
				continue
			}
			var attrs []html.Attribute
			if cell.RowSpan > 1 {
				attrs = append(attrs, html.Attribute{Key: "rowspan", Val: strconv.Itoa(cell.RowSpan)})
			}
			if cell.ColSpan > 1 {
				attrs = append(attrs, html.Attribute{Key: "colspan", Val: strconv.Itoa(cell.ColSpan)})
			}
			td := element(atom.Td, attrs...)
			for i, line := range strings.Split(cell.Text, "\n") {
				if i > 0 {
					td.AppendChild(element(atom.Br))
				}
				if line != "" {
					td.AppendChild(&html.Node{Type: html.TextNode, Data: line})
				}
			}
			tr.AppendChild(td)
		}
		table.AppendChild(tr)
	}
	return table
}

func writeHTML(w io.Writer, t *model.Table) error {
	if err := html.Render(w, tableNode(t)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
