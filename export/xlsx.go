package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/pdfbatch/model"
)

const sheetName = "Table"

func writeXLSX(w io.Writer, t *model.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for r, row := range t.Rows {
		for c, cell := range row {
			if cell.RowSpan == 0 || cell.ColSpan == 0 {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, ref, cell.Text); err != nil {
				return fmt.Errorf("failed to set %s: %w", ref, err)
			}
			if cell.RowSpan > 1 || cell.ColSpan > 1 {
				end, err := excelize.CoordinatesToCellName(c+cell.ColSpan, r+cell.RowSpan)
				if err != nil {
					return err
				}
				if err := f.MergeCell(sheetName, ref, end); err != nil {
					return fmt.Errorf("failed to merge %s:%s: %w", ref, end, err)
				}
			}
		}
	}

	return f.Write(w)
}
