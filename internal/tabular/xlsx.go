package tabular

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// parseXLSX decodes spreadsheet bytes into a cell grid from the first sheet.
func parseXLSX(data []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrapf(ErrCorrupt, "open xlsx: %v", err)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Wrap(ErrCorrupt, "xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	grid := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		grid = append(grid, cells)
	}
	return grid, nil
}
