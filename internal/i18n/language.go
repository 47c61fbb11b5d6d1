// Package i18n holds the per-language label tables and the locale-aware
// formatting rules used on invoice documents and delivery emails.
//
// Every function takes the language explicitly. There is no package-level
// default, so a caller can never leak one invoice's language into another.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Language identifies a supported document language.
type Language string

const (
	German  Language = "de"
	English Language = "en"
)

// ErrUnsupportedLanguage is returned by ParseLanguage for anything other than de or en.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ParseLanguage validates external input such as a query parameter or an
// INVOICE_LANGUAGE setting. Matching is case-insensitive and accepts BCP 47
// tags whose base language is supported (e.g. "de-AT").
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty value", ErrUnsupportedLanguage)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "de":
		return German, nil
	case "en":
		return English, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == German || l == English
}

func (l Language) tag() language.Tag {
	if l == English {
		return language.English
	}
	return language.German
}
