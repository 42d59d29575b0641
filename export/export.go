// Package export serializes extracted tables into artifact formats.
//
// CSV is the default format and is written byte for byte as
// [model.Table.WriteCSV] produces it. The other formats are optional
// companions written next to it:
//
//	csv       comma separated values, minimal quoting
//	markdown  pipe table, first row as header
//	json      {"page": n, "rows": [[...], ...]}
//	html      <table> with rowspan/colspan for merged cells
//	xlsx      one "Table" worksheet with merged ranges
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tsawler/pdfbatch/model"
)

// Format names an export format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
	HTML     Format = "html"
	XLSX     Format = "xlsx"
)

// WriterFunc writes one table to w.
type WriterFunc func(w io.Writer, t *model.Table) error

var writers = map[Format]WriterFunc{
	CSV:      writeCSV,
	Markdown: writeMarkdown,
	JSON:     writeJSON,
	HTML:     writeHTML,
	XLSX:     writeXLSX,
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// Extension returns the file extension used for artifacts in this format,
// without the leading dot.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// ParseFormat parses a format name. Matching is case-insensitive and "md"
// is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "md" {
		name = string(Markdown)
	}
	f := Format(name)
	if _, ok := writers[f]; !ok {
		return "", fmt.Errorf("unknown table format %q (available: %s)", s, strings.Join(Names(), ", "))
	}
	return f, nil
}

// ParseFormats parses a list of format names, dropping duplicates while
// keeping the first occurrence order.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool, len(names))
	var out []Format
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Names returns the supported format names, sorted.
func Names() []string {
	names := make([]string, 0, len(writers))
	for f := range writers {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// Write serializes t to w in format f.
func Write(w io.Writer, t *model.Table, f Format) error {
	fn, ok := writers[f]
	if !ok {
		return fmt.Errorf("unknown table format %q", f)
	}
	if t == nil {
		return fmt.Errorf("nil table")
	}
	return fn(w, t)
}

func writeCSV(w io.Writer, t *model.Table) error {
	return t.WriteCSV(w)
}

func writeMarkdown(w io.Writer, t *model.Table) error {
	_, err := io.WriteString(w, t.ToMarkdown())
	return err
}
