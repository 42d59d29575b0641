package ocr

// PageSegMode is a Tesseract page segmentation mode (--psm).
type PageSegMode int

// The values match Tesseract's numbering so they can be passed to the
// executable unchanged.
const (
	PSM_OSD_ONLY PageSegMode = iota
	PSM_AUTO_OSD
	PSM_AUTO_ONLY
	PSM_AUTO // default for full pages
	PSM_SINGLE_COLUMN
	PSM_SINGLE_BLOCK_VERT_TEXT
	PSM_SINGLE_BLOCK
	PSM_SINGLE_LINE
	PSM_SINGLE_WORD
	PSM_CIRCLE_WORD
	PSM_SINGLE_CHAR
	PSM_SPARSE_TEXT
	PSM_SPARSE_TEXT_OSD
	PSM_RAW_LINE
)

// Valid reports whether m is a mode Tesseract knows.
func (m PageSegMode) Valid() bool {
	return m >= PSM_OSD_ONLY && m <= PSM_RAW_LINE
}
