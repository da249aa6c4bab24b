package tabular

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// candidate field delimiters, in preference order for ties.
var delimiters = []rune{';', '\t', ','}

// sniffLines bounds how far sniffDelimiter looks into the file. Enough to
// get past the banner and metadata rows to the header.
const sniffLines = 10

// sniffDelimiter picks the delimiter with the highest single-line count
// across the leading lines. Source files open with banner lines that carry
// no delimiter at all, so one line is not enough to decide. Defaults to
// semicolon, the most common in the source set.
func sniffDelimiter(text string) rune {
	best := ';'
	bestCount := 0
	for i, line := range strings.SplitN(text, "\n", sniffLines+1) {
		if i == sniffLines {
			break
		}
		for _, d := range delimiters {
			if n := strings.Count(line, string(d)); n > bestCount {
				best = d
				bestCount = n
			}
		}
	}
	return best
}

// parseDelimited decodes delimited text bytes into a cell grid. Ragged rows
// are allowed; quoting errors beyond what lazy quoting tolerates mean the
// file is corrupt.
func parseDelimited(data []byte) ([][]string, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var grid [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(ErrCorrupt, "read delimited row: %v", err)
		}
		grid = append(grid, record)
	}
	return grid, nil
}
