package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsToUSD(t *testing.T) {
	assert.Equal(t, "USD", Resolve("usd"))
	assert.Equal(t, "GBP", Resolve("GBP"))
	assert.Equal(t, "NGN", Resolve(" ngn "))
	assert.Equal(t, "EUR", Resolve("EUR"))
	assert.Equal(t, "USD", Resolve("JPY"))
	assert.Equal(t, "USD", Resolve(""))
}

func TestFormat(t *testing.T) {
	cases := []struct {
		code string
		usd  string
		want string
	}{
		{"USD", "200", "$200.00"},
		{"USD", "1234.5", "$1,234.50"},
		{"GBP", "10", "£7.90"},
		{"NGN", "10", "₦15,000"},
		{"NGN", "1000", "₦1,500,000"},
		{"XYZ", "5", "$5.00"}, // unknown display currency falls back to USD
	}
	for _, tc := range cases {
		got := Format(tc.code, decimal.RequireFromString(tc.usd))
		assert.Equal(t, tc.want, got, "format %s %s", tc.code, tc.usd)
	}
}

func TestConvertToUSDRoundTrip(t *testing.T) {
	for _, code := range []string{"USD", "GBP", "NGN"} {
		usd := decimal.RequireFromString("123.45")
		display := Convert(code, usd)
		back := ConvertToUSD(code, display)

		diff := back.Sub(usd).Abs()
		require.True(t, diff.LessThan(decimal.RequireFromString("0.0000001")),
			"%s round trip drifted by %s", code, diff)
	}
}

func TestFormatUSDIdentity(t *testing.T) {
	x := decimal.RequireFromString("42.42")
	assert.Equal(t, Format("USD", x), Format("USD", ConvertToUSD("USD", x)))
}

func TestMinorUnitsRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"50", 5000},
		{"10.005", 1001},
		{"10.004", 1000},
		{"7.9", 790},
		{"15000", 1500000},
	}
	for _, tc := range cases {
		got := MinorUnits(decimal.RequireFromString(tc.amount), 100)
		assert.Equal(t, tc.want, got, "minor units of %s", tc.amount)
	}
}

func TestShippingAmount(t *testing.T) {
	assert.True(t, ShippingAmount("USD").Equal(decimal.NewFromInt(10)))
	assert.True(t, ShippingAmount("GBP").Equal(decimal.RequireFromString("7.9")))
	assert.True(t, ShippingAmount("NGN").Equal(decimal.NewFromInt(15000)))
	// Supported by the processor but absent from the shipping table.
	assert.True(t, ShippingAmount("EUR").Equal(decimal.NewFromInt(10)))
	assert.True(t, ShippingAmount("JPY").Equal(decimal.NewFromInt(10)))
}

func TestMultiplierAlwaysCentesimal(t *testing.T) {
	for _, code := range []string{"USD", "GBP", "NGN", "EUR"} {
		assert.Equal(t, int64(100), Multiplier(code))
	}
}
