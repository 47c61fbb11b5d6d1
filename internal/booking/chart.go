package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownChart is returned for an unsupported chart of accounts.
var ErrUnknownChart = errors.New("unknown chart of accounts")

// Account is a ledger account of a chart.
type Account struct {
	Number string
	Name   string
}

// RevenueAccount is the revenue account used for one VAT rate. Automatic
// accounts derive the tax themselves and must be booked without a tax key.
type RevenueAccount struct {
	Account
	TaxKey            string
	TaxKeyDescription string
}

// Chart maps invoice VAT groups onto accounts of a DATEV chart.
type Chart struct {
	Name     string
	Debtors  Account
	Revenue  map[string]RevenueAccount // keyed by rate, e.g. "19"
	Fallback RevenueAccount
}

// SKR03 is the DATEV process-oriented chart.
var SKR03 = Chart{
	Name:    "SKR03",
	Debtors: Account{Number: "1400", Name: "Forderungen aus Lieferungen und Leistungen"},
	Revenue: map[string]RevenueAccount{
		"19": {Account: Account{Number: "8400", Name: "Erlöse 19 % USt"}, TaxKeyDescription: "Automatikkonto 19 % USt"},
		"7":  {Account: Account{Number: "8300", Name: "Erlöse 7 % USt"}, TaxKeyDescription: "Automatikkonto 7 % USt"},
		"0":  {Account: Account{Number: "8120", Name: "Steuerfreie Umsätze"}, TaxKeyDescription: "steuerfrei"},
	},
	Fallback: RevenueAccount{
		Account:           Account{Number: "8200", Name: "Erlöse"},
		TaxKeyDescription: "Steuersatz manuell prüfen",
	},
}

// SKR04 is the DATEV balance-sheet-oriented chart.
var SKR04 = Chart{
	Name:    "SKR04",
	Debtors: Account{Number: "1200", Name: "Forderungen aus Lieferungen und Leistungen"},
	Revenue: map[string]RevenueAccount{
		"19": {Account: Account{Number: "4400", Name: "Erlöse 19 % USt"}, TaxKeyDescription: "Automatikkonto 19 % USt"},
		"7":  {Account: Account{Number: "4300", Name: "Erlöse 7 % USt"}, TaxKeyDescription: "Automatikkonto 7 % USt"},
		"0":  {Account: Account{Number: "4100", Name: "Steuerfreie Umsätze"}, TaxKeyDescription: "steuerfrei"},
	},
	Fallback: RevenueAccount{
		Account:           Account{Number: "4200", Name: "Erlöse"},
		TaxKeyDescription: "Steuersatz manuell prüfen",
	},
}

// ParseChart returns the chart named s (case-insensitive). Empty selects
// SKR03.
func ParseChart(s string) (Chart, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "SKR03":
		return SKR03, nil
	case "SKR04":
		return SKR04, nil
	}
	return Chart{}, fmt.Errorf("%w: %q", ErrUnknownChart, s)
}

// RevenueFor returns the revenue account for rate.
func (c Chart) RevenueFor(rate decimal.Decimal) RevenueAccount {
	if acc, ok := c.Revenue[rate.String()]; ok {
		return acc
	}
	return c.Fallback
}
