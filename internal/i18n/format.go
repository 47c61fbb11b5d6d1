package i18n

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

func printer(lang Language) *message.Printer {
	return message.NewPrinter(lang.tag())
}

// FormatDate turns an ISO date (YYYY-MM-DD, optionally followed by a time
// part) into DD.MM.YYYY for German and MM/DD/YYYY for English. Input that
// does not split into three parts is returned unchanged.
func FormatDate(isoDate string, lang Language) string {
	date := isoDate
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		date = date[:i]
	}
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return isoDate
	}
	year, month, day := parts[0], parts[1], parts[2]
	if lang == English {
		return month + "/" + day + "/" + year
	}
	return day + "." + month + "." + year
}

// FormatCurrency renders amount with two fraction digits and the locale's
// grouping: "1.234,56 €" in German, "€1,234.56" in English.
func FormatCurrency(amount decimal.Decimal, currency string, lang Language) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "EUR"
	}
	symbol, known := currencySymbols[code]
	if !known {
		symbol = code
	}

	digits := printer(lang).Sprint(number.Decimal(
		amount.Round(2).InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))

	if lang == English {
		if known {
			return symbol + digits
		}
		return symbol + " " + digits
	}
	return digits + " " + symbol
}

// FormatQuantity renders a quantity with exactly two fraction digits,
// rounding half away from zero like the amounts.
func FormatQuantity(amount float64, lang Language) string {
	return printer(lang).Sprint(number.Decimal(
		decimal.NewFromFloat(amount).Round(2).InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// FormatRate renders a VAT rate without trailing zeros, e.g. "19" or "5,5".
func FormatRate(rate decimal.Decimal, lang Language) string {
	return printer(lang).Sprint(number.Decimal(
		rate.InexactFloat64(),
		number.MaxFractionDigits(2),
	))
}
