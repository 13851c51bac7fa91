package catalog

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ResolvePrice returns the price of a product in a city. A city-specific
// override wins; otherwise the base price is raised by the city's markup
// percentage. The result is rounded half away from zero to kopecks.
func ResolvePrice(base, markupPercent decimal.Decimal, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return override.Round(2)
	}
	factor := decimal.NewFromInt(1).Add(markupPercent.Div(hundred))
	return base.Mul(factor).Round(2)
}
