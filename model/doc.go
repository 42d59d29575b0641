// Package model provides the intermediate representation shared by the page
// reader, the table detectors and the exporters.
//
// A [Page] carries what table detection needs from one PDF page: positioned
// glyphs and the ruling lines painted on it. Coordinates are the page's
// default space, after the content stream's transforms, in points with the
// origin at the bottom-left corner.
//
// A [Table] is an ordered sequence of rows, each an ordered sequence of
// [Cell] values, together with the [TableGrid] it was assembled from:
//
//	for _, row := range table.Rows {
//	    for _, cell := range row {
//	        fmt.Print(cell.Text, "\t")
//	    }
//	}
//
// Tables serialize themselves with [Table.ToCSV] and [Table.ToMarkdown].
package model
