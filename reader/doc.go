// Package reader opens PDF files and exposes the positioned content of each
// page as a [model.Page].
//
// Content streams are interpreted by github.com/ledongthuc/pdf. The reader
// keeps only what table detection needs: positioned glyphs, and the ruling
// lines implied by the rectangles and straight strokes the page paints.
// Paths are followed through the graphics state (see package graphicsstate)
// so rules and glyphs share one coordinate space; clipping paths are not
// rules.
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	for n := 1; n <= r.PageCount(); n++ {
//	    page, err := r.Page(n)
//	    ...
//	}
//
// The underlying interpreter panics on malformed content; the reader turns
// those panics into errors.
package reader
