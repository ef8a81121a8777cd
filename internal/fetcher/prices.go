package fetcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rivalscan/rivalscan/internal/domain"
)

// maxPricesPerPage caps how many price points are kept per page.
const maxPricesPerPage = 25

// contextWindow is how many characters around a price are inspected for
// unit words.
const contextWindow = 40

// pricePattern matches currency-symbol and currency-code price notations,
// e.g. "$54.99", "€1,200", "120 USD", "GBP 45".
var pricePattern = regexp.MustCompile(
	`([$€£])\s?(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?)|` +
		`(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?)\s?(USD|EUR|GBP|CAD|AUD)|` +
		`(USD|EUR|GBP|CAD|AUD)\s?(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?)`)

// symbolCurrencies maps currency symbols to ISO codes.
var symbolCurrencies = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// unitHints maps context words to pricing units, ordered so the most
// specific phrases win.
var unitHints = []struct {
	phrase string
	unit   string
}{
	{phrase: "per night", unit: "night"},
	{phrase: "/night", unit: "night"},
	{phrase: "a night", unit: "night"},
	{phrase: "per person", unit: "person"},
	{phrase: "/person", unit: "person"},
	{phrase: "per month", unit: "month"},
	{phrase: "/month", unit: "month"},
	{phrase: "/mo", unit: "month"},
	{phrase: "per year", unit: "year"},
	{phrase: "/year", unit: "year"},
	{phrase: "per hour", unit: "hour"},
	{phrase: "/hour", unit: "hour"},
	{phrase: "per session", unit: "session"},
}

// businessTypeUnits biases unit inference when the context window gives no
// signal: a hotel's bare price is most likely nightly, a SaaS price monthly.
var businessTypeUnits = map[string]string{
	"hotel":         "night",
	"hostel":        "night",
	"accommodation": "night",
	"saas":          "month",
	"software":      "month",
	"gym":           "month",
	"fitness":       "month",
}

// ExtractPrices scans page text for price points. The business type biases
// unit inference for prices without explicit units.
func ExtractPrices(text, businessType string) []domain.PricePoint {
	matches := pricePattern.FindAllStringSubmatchIndex(text, maxPricesPerPage)
	if len(matches) == 0 {
		return nil
	}

	fallbackUnit := businessTypeUnits[strings.ToLower(businessType)]

	prices := make([]domain.PricePoint, 0, len(matches))
	for _, m := range matches {
		raw := text[m[0]:m[1]]

		value, currency, ok := parsePriceMatch(text, m)
		if !ok {
			continue
		}

		unit := inferUnit(text, m[0], m[1])
		if unit == "" {
			unit = fallbackUnit
		}

		prices = append(prices, domain.PricePoint{
			Value:    value,
			Currency: currency,
			Unit:     unit,
			Raw:      raw,
		})
	}

	return prices
}

// parsePriceMatch extracts the numeric value and currency from one match's
// submatch indexes.
func parsePriceMatch(text string, m []int) (float64, string, bool) {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}

	var number, currency string
	switch {
	case group(1) != "": // symbol-first form
		currency = symbolCurrencies[group(1)]
		number = group(2)
	case group(3) != "": // number-then-code form
		number = group(3)
		currency = group(4)
	default: // code-then-number form
		currency = group(5)
		number = group(6)
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, "", false
	}

	return value, currency, true
}

// inferUnit looks for unit phrases in a window around the matched price.
func inferUnit(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}

	window := strings.ToLower(text[lo:hi])
	for _, hint := range unitHints {
		if strings.Contains(window, hint.phrase) {
			return hint.unit
		}
	}

	return ""
}
