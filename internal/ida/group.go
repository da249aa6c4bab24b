// Package ida holds the domain model for ANATEL's service-quality
// performance index: economic groups, canonical facts, and the
// normalization of raw observation rows into facts.
package ida

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EconomicGroup is one of the telecom holding groups tracked by the index.
type EconomicGroup string

const (
	GroupAlgar   EconomicGroup = "ALGAR"
	GroupClaro   EconomicGroup = "CLARO"
	GroupNextel  EconomicGroup = "NEXTEL"
	GroupOi      EconomicGroup = "OI"
	GroupTim     EconomicGroup = "TIM"
	GroupVivo    EconomicGroup = "VIVO"
	GroupUnknown EconomicGroup = ""
)

// Groups lists every recognized economic group.
var Groups = []EconomicGroup{
	GroupAlgar, GroupClaro, GroupNextel, GroupOi, GroupTim, GroupVivo,
}

// Source spellings that map to a canonical group but do not contain its
// name. Matching is on the folded form, so diacritics are irrelevant here.
var groupAliases = map[string]EconomicGroup{
	"CTBC":       GroupAlgar,
	"EMBRATEL":   GroupClaro,
	"NET SERV":   GroupClaro,
	"TELEFONICA": GroupVivo,
	"GVT":        GroupVivo,
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// fold upper-cases and strips diacritics for spelling-insensitive matching.
func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

// ParseGroup resolves a source spelling to its canonical economic group.
// Matching ignores case, diacritics and decoration such as "TIM (Intelig)".
// Unrecognized spellings yield GroupUnknown.
func ParseGroup(raw string) EconomicGroup {
	folded := fold(raw)
	if folded == "" {
		return GroupUnknown
	}
	for _, g := range Groups {
		if strings.Contains(folded, string(g)) {
			return g
		}
	}
	for alias, g := range groupAliases {
		if strings.Contains(folded, alias) {
			return g
		}
	}
	return GroupUnknown
}
