package invoice

import (
	"sort"

	"github.com/shopspring/decimal"
	"invoicegen/pkg/models"
)

// VAT category codes (UNTDID 5305) used on the structured document.
const (
	CategoryStandard = "S"
	CategoryZero     = "Z"
)

var hundred = decimal.NewFromInt(100)

// LineTotal is one priced line item.
type LineTotal struct {
	Index int // 1-based position on the invoice
	Item  models.LineItem
	Rate  decimal.Decimal // effective VAT rate in percent
	Net   decimal.Decimal // quantity x unit price, rounded to the cent
}

// VATGroup aggregates all lines sharing one rate.
type VATGroup struct {
	Rate     decimal.Decimal
	Category string
	Basis    decimal.Decimal
	Tax      decimal.Decimal
}

// Totals is the single source of every amount printed on the PDF and written
// to the XML. Rounding policy: each line net is rounded to the cent, group
// bases are sums of rounded line nets, each group tax is rounded on its own,
// and Gross = Net + Tax. Nothing is re-rounded from unrounded sums.
type Totals struct {
	Currency string
	Lines    []LineTotal
	Groups   []VATGroup // ascending by rate
	Net      decimal.Decimal
	Tax      decimal.Decimal
	Gross    decimal.Decimal
}

// Round2 rounds half away from zero at the cent, which is half-up for
// the non-negative amounts on an invoice.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents converts a cent-precision amount to int64 cents.
func Cents(d decimal.Decimal) int64 {
	return Round2(d).Shift(2).IntPart()
}

// CategoryFor maps a rate to its VAT category: exactly 0 is zero-rated,
// everything else is standard-rated.
func CategoryFor(rate decimal.Decimal) string {
	if rate.IsZero() {
		return CategoryZero
	}
	return CategoryStandard
}

// ComputeTotals prices every line and aggregates VAT per distinct rate.
func ComputeTotals(inv *models.Invoice) Totals {
	t := Totals{
		Currency: inv.EffectiveCurrency(),
		Lines:    make([]LineTotal, 0, len(inv.Items)),
		Net:      decimal.Zero,
		Tax:      decimal.Zero,
	}

	groups := make(map[string]*VATGroup)
	for i, item := range inv.Items {
		rate := decimal.NewFromFloat(inv.ItemRate(item))
		net := Round2(decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.UnitPrice)))

		t.Lines = append(t.Lines, LineTotal{
			Index: i + 1,
			Item:  item,
			Rate:  rate,
			Net:   net,
		})

		key := rate.String()
		g, ok := groups[key]
		if !ok {
			g = &VATGroup{Rate: rate, Category: CategoryFor(rate), Basis: decimal.Zero}
			groups[key] = g
		}
		g.Basis = g.Basis.Add(net)
	}

	for _, g := range groups {
		g.Tax = Round2(g.Basis.Mul(g.Rate).Div(hundred))
		t.Groups = append(t.Groups, *g)
	}
	sort.Slice(t.Groups, func(i, j int) bool {
		return t.Groups[i].Rate.LessThan(t.Groups[j].Rate)
	})

	for _, g := range t.Groups {
		t.Net = t.Net.Add(g.Basis)
		t.Tax = t.Tax.Add(g.Tax)
	}
	t.Gross = t.Net.Add(t.Tax)

	return t
}
