package models

import "fmt"

// currencyDecimals lists minor-unit exponents for currencies that differ
// from the common two.
var currencyDecimals = map[string]int{
	"JPY": 0,
	"KRW": 0,
	"BHD": 3,
	"KWD": 3,
}

// FormatAmount renders an integer minor-unit amount for humans,
// e.g. (GBP, 2900) -> "GBP 29.00".
func FormatAmount(currency string, amount int64) string {
	dec, ok := currencyDecimals[currency]
	if !ok {
		dec = 2
	}
	if dec == 0 {
		return fmt.Sprintf("%s %d", currency, amount)
	}
	div := int64(1)
	for i := 0; i < dec; i++ {
		div *= 10
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s %s%d.%0*d", currency, sign, amount/div, dec, amount%div)
}
