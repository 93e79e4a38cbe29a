package models

import "testing"

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		currency string
		amount   int64
		want     string
	}{
		{"GBP", 2900, "GBP 29.00"},
		{"GBP", 5, "GBP 0.05"},
		{"USD", 100000, "USD 1000.00"},
		{"JPY", 2900, "JPY 2900"},
		{"KWD", 2900, "KWD 2.900"},
		{"EUR", -150, "EUR -1.50"},
		{"GBP", 0, "GBP 0.00"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.currency, tt.amount); got != tt.want {
			t.Errorf("FormatAmount(%s, %d) = %q, want %q", tt.currency, tt.amount, got, tt.want)
		}
	}
}
