package model

// Page holds the positioned content of a single PDF page.
type Page struct {
	Number int     // 1-indexed page number
	Width  float64 // Page width in points
	Height float64 // Page height in points

	Glyphs []Glyph // Text runs in content-stream order
	Rules  []Rule  // Ruling lines in the same space as Glyphs
}

// Glyph is a positioned run of text, usually a single character.
type Glyph struct {
	Text     string
	X, Y     float64 // Baseline origin
	Width    float64
	FontSize float64
}

// BBox approximates the glyph box from its baseline origin and font size.
func (g Glyph) BBox() BBox {
	return BBox{X: g.X, Y: g.Y, Width: g.Width, Height: g.FontSize}
}

// Rule is an axis-aligned ruling line. Start is always the lower-left end.
type Rule struct {
	Start Point
	End   Point
}

// IsHorizontal reports whether the rule runs along the X axis.
func (r Rule) IsHorizontal() bool {
	return r.End.Y-r.Start.Y < r.End.X-r.Start.X
}

// Length returns the extent of the rule along its axis.
func (r Rule) Length() float64 {
	if r.IsHorizontal() {
		return r.End.X - r.Start.X
	}
	return r.End.Y - r.Start.Y
}
