package util

import (
	"github.com/shopspring/decimal"
)

// Costing works in float64; these helpers round only at the display and
// API boundary, so intermediate values keep full precision.

// RoundMoney rounds v half away from zero to places decimals.
func RoundMoney(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundPct rounds a percentage to one decimal place.
func RoundPct(v float64) float64 {
	return RoundMoney(v, 1)
}

// FormatMoney renders v with a currency code and a fixed number of places,
// for example "USD 4.50".
func FormatMoney(v float64, currency string, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)
	if currency == "" {
		return s
	}
	return currency + " " + s
}

// FormatUnitCost renders a per-unit cost with enough places to stay
// meaningful for cheap units such as grams: at least four decimals.
func FormatUnitCost(v float64, currency, unit string, places int32) string {
	if places < 4 {
		places = 4
	}
	return FormatMoney(v, currency, places) + " / " + unit
}

// FormatPct renders a percentage with one decimal, for example "37.5%".
func FormatPct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}
