package export

import (
	"encoding/json"
	"io"

	"github.com/tsawler/pdfbatch/model"
)

type jsonTable struct {
	Page int        `json:"page"`
	Rows [][]string `json:"rows"`
}

func writeJSON(w io.Writer, t *model.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonTable{Page: t.Page, Rows: t.Records()})
}
