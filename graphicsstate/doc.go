// Package graphicsstate follows the graphics state of a page content stream
// far enough to recover the lines a page actually paints.
//
// A [Extractor] is fed one operator at a time. It tracks the current
// transformation matrix through q, Q and cm, builds paths from m, l, c, v,
// y, h and re, and on a painting operator records what was drawn:
//
//   - [Rectangle] for every axis-aligned rectangular subpath that was
//     stroked or filled,
//   - [Segment] for every straight stroked segment of any other subpath.
//
// All coordinates are in device space, the same space the text layer is
// reported in. Paths ended with n (clipping paths such as "re W n") paint
// nothing and are discarded.
//
//	ex := graphicsstate.NewExtractor()
//	ex.Apply("cm", 1, 0, 0, 1, 50, -100)
//	ex.Apply("m", 100, 700)
//	ex.Apply("l", 300, 700)
//	ex.Apply("S")
//	segments := ex.Segments()
package graphicsstate
