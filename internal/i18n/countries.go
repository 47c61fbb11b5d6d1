package i18n

import (
	"strings"

	"github.com/biter777/countries"
)

type countryName struct {
	de string
	en string
}

var countryNames = map[string]countryName{
	"DE": {"Deutschland", "Germany"},
	"AT": {"Österreich", "Austria"},
	"CH": {"Schweiz", "Switzerland"},
	"FR": {"Frankreich", "France"},
	"IT": {"Italien", "Italy"},
	"NL": {"Niederlande", "Netherlands"},
	"BE": {"Belgien", "Belgium"},
	"PL": {"Polen", "Poland"},
	"CZ": {"Tschechien", "Czech Republic"},
	"GB": {"Großbritannien", "United Kingdom"},
	"US": {"USA", "United States"},
}

// CountryName returns the display name of an ISO 3166-1 alpha-2 code.
// Codes outside the curated table fall back to the English short name from
// the ISO registry; anything unrecognized is returned unchanged.
func CountryName(code string, lang Language) string {
	key := strings.ToUpper(strings.TrimSpace(code))
	if n, ok := countryNames[key]; ok {
		if lang == English {
			return n.en
		}
		return n.de
	}
	if IsCountryCode(key) {
		return countries.ByName(key).String()
	}
	return code
}

// IsCountryCode reports whether code is an assigned ISO 3166-1 alpha-2 code.
func IsCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	c := countries.ByName(strings.ToUpper(code))
	return c != countries.Unknown && c.IsValid() && c.Alpha2() == strings.ToUpper(code)
}
