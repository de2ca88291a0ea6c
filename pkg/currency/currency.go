// Package currency is the single source of truth for price conversion and
// display formatting. The storefront quotes every price in USD; this package
// converts to the shopper's display currency, back again for the payment
// processor, and down to integer minor units.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TableVersion identifies the rate snapshot in use. Bump it whenever the
// rates below change so audits can tie an order to the table that priced it.
const TableVersion = "2025-08"

// Rate describes one display currency: how many units one USD buys, the
// symbol used when rendering, and how many fraction digits to show.
type Rate struct {
	Code           string
	FromUSD        decimal.Decimal
	Symbol         string
	FractionDigits int32
}

var rates = map[string]Rate{
	"USD": {Code: "USD", FromUSD: decimal.NewFromInt(1), Symbol: "$", FractionDigits: 2},
	"GBP": {Code: "GBP", FromUSD: decimal.RequireFromString("0.79"), Symbol: "£", FractionDigits: 2},
	"NGN": {Code: "NGN", FromUSD: decimal.NewFromInt(1500), Symbol: "₦", FractionDigits: 0},
}

// supported is the set the payment processor accepts. Anything else resolves
// to USD before a session is created.
var supported = map[string]struct{}{
	"USD": {}, "GBP": {}, "EUR": {}, "CAD": {}, "AUD": {}, "NGN": {},
}

var shippingRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(10),
	"GBP": decimal.RequireFromString("7.9"),
	"NGN": decimal.NewFromInt(15000),
}

var defaultShipping = decimal.NewFromInt(10)

// Resolve normalizes a requested currency against the processor-supported
// set, defaulting to USD.
func Resolve(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := supported[normalized]; ok {
		return normalized
	}
	return "USD"
}

// rateFor returns the display rate for a code. Unknown codes use the USD
// identity rate.
func rateFor(code string) Rate {
	if rate, ok := rates[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return rate
	}
	return rates["USD"]
}

// Convert maps a USD amount into the given display currency.
func Convert(code string, usd decimal.Decimal) decimal.Decimal {
	return usd.Mul(rateFor(code).FromUSD)
}

// ConvertToUSD is the inverse of Convert. It is used when composing a
// processor request so line items are USD-consistent no matter what the
// shopper sees.
func ConvertToUSD(code string, amount decimal.Decimal) decimal.Decimal {
	return amount.Div(rateFor(code).FromUSD)
}

// Format renders a USD amount in the display currency: symbol, thousands
// grouping, and the currency's fraction digits.
func Format(code string, usd decimal.Decimal) string {
	rate := rateFor(code)
	converted := Convert(rate.Code, usd)
	return rate.Symbol + group(converted.StringFixed(rate.FractionDigits))
}

// Multiplier returns the minor-unit scale for a currency. Every supported
// currency uses centesimal minor units (cents, pence, kobo).
func Multiplier(code string) int64 {
	return 100
}

// MinorUnits converts a decimal amount to the integer minor-unit amount the
// processor requires, rounding half up.
func MinorUnits(amount decimal.Decimal, multiplier int64) int64 {
	return amount.Mul(decimal.NewFromInt(multiplier)).Round(0).IntPart()
}

// ShippingAmount returns the flat shipping charge in the resolved currency.
func ShippingAmount(code string) decimal.Decimal {
	if amount, ok := shippingRates[Resolve(code)]; ok {
		return amount
	}
	return defaultShipping
}

// group inserts thousands separators into the integer part of a fixed-point
// string produced by decimal.StringFixed.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
