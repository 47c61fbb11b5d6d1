// Package units maps internal unit codes to display labels and to the
// UN/ECE Recommendation 20 codes required by structured invoice formats.
package units

import "strings"

// DefaultExternalCode is the UN/ECE code for "piece", used whenever a unit
// cannot be resolved.
const DefaultExternalCode = "C62"

// Unit is one entry of the catalog.
type Unit struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	External string `json:"unece"`
}

var catalog = []Unit{
	{Code: "hour", Label: "Stunde", External: "HUR"},
	{Code: "day", Label: "Tag", External: "DAY"},
	{Code: "piece", Label: "Stück", External: "C62"},
	{Code: "km", Label: "Kilometer", External: "KMT"},
	{Code: "kg", Label: "Kilogramm", External: "KGM"},
	{Code: "month", Label: "Monat", External: "MON"},
	{Code: "meter", Label: "Meter", External: "MTR"},
	{Code: "liter", Label: "Liter", External: "LTR"},
	{Code: "gram", Label: "Gramm", External: "GRM"},
}

// Older records stored free-form unit names.
var aliases = map[string]string{
	"hours":     "HUR",
	"h":         "HUR",
	"stunden":   "HUR",
	"stunde":    "HUR",
	"days":      "DAY",
	"tage":      "DAY",
	"pcs":       "C62",
	"pieces":    "C62",
	"stk":       "C62",
	"kilometer": "KMT",
	"kilogram":  "KGM",
	"m":         "MTR",
	"g":         "GRM",
}

var byCode = func() map[string]Unit {
	m := make(map[string]Unit, len(catalog))
	for _, u := range catalog {
		m[u.Code] = u
	}
	return m
}()

// All returns the catalog in declaration order.
func All() []Unit {
	out := make([]Unit, len(catalog))
	copy(out, catalog)
	return out
}

// LabelOf returns the display label for code, or code itself if unknown.
func LabelOf(code string) string {
	if u, ok := byCode[code]; ok {
		return u.Label
	}
	return code
}

// ExternalCodeOf returns the UN/ECE code for code, or DefaultExternalCode.
func ExternalCodeOf(code string) string {
	if u, ok := byCode[code]; ok {
		return u.External
	}
	return DefaultExternalCode
}

// Resolve maps arbitrary user-entered unit text to a UN/ECE code. Matching is
// case-insensitive against catalog codes, then labels, then legacy aliases.
func Resolve(text string) string {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return DefaultExternalCode
	}
	for _, u := range catalog {
		if strings.ToLower(u.Code) == key || strings.ToLower(u.Label) == key {
			return u.External
		}
	}
	if code, ok := aliases[key]; ok {
		return code
	}
	return DefaultExternalCode
}
