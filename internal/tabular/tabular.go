// Package tabular decodes heterogeneous tabular resources (delimited text,
// spreadsheets) into a uniform sequence of observation rows.
//
// Source files vary in encoding, delimiter and shape: most are wide tables
// with one column per reference month, some are already long. The parser
// hides all of that and emits one Row per (group, indicator, month)
// observation, leaving value interpretation to the normalizer.
package tabular

import (
	"errors"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrUnsupportedFormat indicates the declared format is not a recognized
	// tabular kind. The resource is skipped, not failed.
	ErrUnsupportedFormat = errors.New("tabular: unsupported format")
	// ErrCorrupt indicates structural decoding failed outright.
	ErrCorrupt = errors.New("tabular: corrupt table")
)

// Row is one raw observation: all fields are untrimmed source text except
// Month, which may be a column header label. Interpretation (dates, numbers,
// group matching) happens downstream.
type Row struct {
	Group   string // economic group, as written in the source
	Service string // indicator/variable name
	Month   string // raw month label
	Value   string // raw value text
}

// Rows is a finite one-pass sequence of observation rows. Re-reading
// requires re-parsing the source bytes.
type Rows struct {
	rows []Row
	pos  int
}

// Next returns the next row, or false when the sequence is exhausted.
func (r *Rows) Next() (Row, bool) {
	if r.pos >= len(r.rows) {
		return Row{}, false
	}
	row := r.rows[r.pos]
	r.pos++
	return row, true
}

// Len returns the number of rows remaining.
func (r *Rows) Len() int {
	return len(r.rows) - r.pos
}

// Parse decodes raw resource bytes in the given normalized format ("csv",
// "txt", "xlsx") into observation rows. Any other format, including "ods",
// yields ErrUnsupportedFormat.
func Parse(data []byte, format string) (*Rows, error) {
	var grid [][]string
	var err error

	switch format {
	case "csv", "txt":
		grid, err = parseDelimited(data)
	case "xlsx":
		grid, err = parseXLSX(data)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
	if err != nil {
		return nil, err
	}

	return reshape(grid)
}

// Patterns marking banner/footnote lines around the real data.
var metadataPatterns = []string{
	"SERVIÇO:", "PERÍODO:", "FONTE:", "PARA MAIORES INFORMAÇÕES",
	"ÍNDICE DE DESEMPENHO NO ATENDIMENTO", "ANATEL",
}

// monthLabelRe matches YYYY-MM and YYYY-MM-DD[ hh:mm:ss] header labels.
var monthLabelRe = regexp.MustCompile(`^\d{4}-\d{2}(-\d{2}( \d{2}:\d{2}:\d{2})?)?$`)

// reshape locates the header, strips banner rows, and melts wide
// month-per-column tables into long observation rows. Tables already in
// long form pass through with columns matched by name.
func reshape(grid [][]string) (*Rows, error) {
	headerIdx := findHeaderRow(grid)
	if headerIdx < 0 {
		return nil, eris.Wrap(ErrCorrupt, "no header row found")
	}

	header := grid[headerIdx]
	data := grid[headerIdx+1:]

	monthCols := monthColumns(header)
	if len(monthCols) > 0 {
		return meltWide(header, data, monthCols), nil
	}
	return readLong(header, data)
}

// findHeaderRow returns the index of the row containing the economic-group
// column marker, or -1.
func findHeaderRow(grid [][]string) int {
	for i, row := range grid {
		joined := strings.ToUpper(strings.Join(row, " "))
		if strings.Contains(joined, "GRUPO ECON") || strings.Contains(joined, "GRUPO_ECON") {
			return i
		}
	}
	return -1
}

// monthColumns returns the header indexes whose label is a month.
func monthColumns(header []string) []int {
	var cols []int
	for i, cell := range header {
		if monthLabelRe.MatchString(strings.TrimSpace(cell)) {
			cols = append(cols, i)
		}
	}
	return cols
}

// isMetadataRow reports whether any cell carries a banner/footnote marker.
func isMetadataRow(row []string) bool {
	for _, cell := range row {
		upper := strings.ToUpper(cell)
		for _, p := range metadataPatterns {
			if strings.Contains(upper, p) {
				return true
			}
		}
	}
	return false
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cell returns row[i] or "" when the row is shorter than the header.
// Ragged rows are common in the source files and are tolerated.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// meltWide converts a wide table (first two columns identify the group and
// the indicator, remaining month columns hold values) into one Row per
// non-empty cell.
func meltWide(header []string, data [][]string, monthCols []int) *Rows {
	var out []Row
	for _, row := range data {
		if isEmptyRow(row) || isMetadataRow(row) {
			continue
		}
		group := cell(row, 0)
		service := cell(row, 1)
		for _, mc := range monthCols {
			value := cell(row, mc)
			if strings.TrimSpace(value) == "" {
				continue // month simply absent for this group
			}
			out = append(out, Row{
				Group:   group,
				Service: service,
				Month:   strings.TrimSpace(header[mc]),
				Value:   value,
			})
		}
	}
	return &Rows{rows: out}
}

// Long-form column name fragments, matched case-insensitively.
var longCols = map[string][]string{
	"group":   {"GRUPO ECON", "GRUPO_ECON"},
	"service": {"VARIAVEL", "VARIÁVEL", "SERVICO", "SERVIÇO", "INDICADOR"},
	"month":   {"MES", "MÊS", "REFERENCIA", "REFERÊNCIA", "DATA"},
	"value":   {"VALOR"},
}

// readLong reads a table that already has one observation per row.
func readLong(header []string, data [][]string) (*Rows, error) {
	idx := make(map[string]int, len(longCols))
	for name, fragments := range longCols {
		idx[name] = -1
		for i, cell := range header {
			upper := strings.ToUpper(strings.TrimSpace(cell))
			for _, frag := range fragments {
				if strings.Contains(upper, frag) {
					idx[name] = i
					break
				}
			}
			if idx[name] >= 0 {
				break
			}
		}
	}

	for name, i := range idx {
		if i < 0 {
			return nil, eris.Wrapf(ErrCorrupt, "long table missing %s column", name)
		}
	}

	var out []Row
	for _, row := range data {
		if isEmptyRow(row) || isMetadataRow(row) {
			continue
		}
		out = append(out, Row{
			Group:   cell(row, idx["group"]),
			Service: cell(row, idx["service"]),
			Month:   cell(row, idx["month"]),
			Value:   cell(row, idx["value"]),
		})
	}
	return &Rows{rows: out}, nil
}
