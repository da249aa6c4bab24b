package ida

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Giomelox/Be-Analytic-ETL/internal/tabular"
)

// RejectReason classifies why a row could not become a Fact.
type RejectReason string

const (
	RejectNonData      RejectReason = "non_data_row"
	RejectUnknownGroup RejectReason = "unknown_group"
	RejectBadMonth     RejectReason = "bad_month"
	RejectBadValue     RejectReason = "bad_value"
)

// Rejection describes a row that was dropped during normalization. Rejected
// rows are counted, never loaded; a rejection is not a pipeline error.
type Rejection struct {
	Reason RejectReason
	Row    tabular.Row
	Detail string
}

func (r *Rejection) String() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// Normalize maps one raw observation row into a canonical Fact. It returns
// a non-nil Rejection instead when the row is not loadable: blank identity
// fields, an economic group outside the known set, an unparseable reference
// month, or a non-numeric value. Rules apply in that order, so the first
// defect wins.
func Normalize(row tabular.Row, resourceID string, serviceType ServiceType) (Fact, *Rejection) {
	service := strings.TrimSpace(row.Service)
	if strings.TrimSpace(row.Group) == "" || service == "" {
		return Fact{}, &Rejection{Reason: RejectNonData, Row: row, Detail: "blank group or service"}
	}

	group := ParseGroup(row.Group)
	if group == GroupUnknown {
		return Fact{}, &Rejection{
			Reason: RejectUnknownGroup,
			Row:    row,
			Detail: fmt.Sprintf("group %q not in known set", row.Group),
		}
	}

	month, err := parseMonth(row.Month)
	if err != nil {
		return Fact{}, &Rejection{
			Reason: RejectBadMonth,
			Row:    row,
			Detail: fmt.Sprintf("month %q: %v", row.Month, err),
		}
	}

	value, err := parseValue(row.Value)
	if err != nil {
		return Fact{}, &Rejection{
			Reason: RejectBadValue,
			Row:    row,
			Detail: fmt.Sprintf("value %q: %v", row.Value, err),
		}
	}

	return Fact{
		Month:       month,
		Group:       group,
		Service:     service,
		Value:       value,
		ServiceType: serviceType,
		ResourceID:  resourceID,
	}, nil
}

// Date layouts seen across the source files, tried in order.
var monthLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/2006",
	"02/01/2006", // day-first, Brazilian convention
	"2006/01",
}

// Portuguese month names and their usual three-letter abbreviations.
var ptMonths = map[string]time.Month{
	"jan": time.January, "fev": time.February, "mar": time.March,
	"abr": time.April, "mai": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "set": time.September,
	"out": time.October, "nov": time.November, "dez": time.December,
}

// parseMonth interprets a raw month label into the first day of that
// calendar month at midnight UTC.
func parseMonth(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty month")
	}

	for _, layout := range monthLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}

	if t, ok := parsePortugueseMonth(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized month format")
}

// parsePortugueseMonth handles labels such as "jan/17", "Março/2017" and
// "ago-2018".
func parsePortugueseMonth(s string) (time.Time, bool) {
	lower := fold(s) // strips diacritics: "MARÇO" becomes "MARCO"
	parts := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '/' || r == '-' || r == ' '
	})
	if len(parts) != 2 {
		return time.Time{}, false
	}

	name := strings.ToLower(parts[0])
	if len(name) < 3 {
		return time.Time{}, false
	}
	month, ok := ptMonths[name[:3]]
	if !ok {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
}

// Placeholder tokens the sources use for missing values.
var missingValues = map[string]struct{}{
	"": {}, "-": {}, "ND": {}, "NA": {}, "N/A": {}, "N/D": {},
}

// parseValue interprets a raw numeric cell honoring both decimal
// conventions: "95,5", "1.234,56" and "90.2" all parse.
func parseValue(raw string) (float64, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if _, missing := missingValues[strings.ToUpper(s)]; missing {
		return 0, fmt.Errorf("missing value")
	}

	if strings.Contains(s, ",") {
		// comma decimal; dots, if any, are thousands separators
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not numeric")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return v, nil
}
