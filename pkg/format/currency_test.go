package format

import "testing"

func TestCurrency(t *testing.T) {
	tests := map[float64]string{
		0:        "$0.00",
		88:       "$88.00",
		1234.5:   "$1,234.50",
		-1234.56: "-$1,234.56",
		1000000:  "$1,000,000.00",
	}
	for input, expected := range tests {
		if got := Currency(input); got != expected {
			t.Errorf("Currency(%v) = %q, expected %q", input, got, expected)
		}
	}
}

func TestCurrencyRoundsHalfAwayFromZero(t *testing.T) {
	tests := map[float64]string{
		1234.565:  "$1,234.57",
		-1234.565: "-$1,234.57",
		88.004:    "$88.00",
		999.995:   "$1,000.00",
		123456.7:  "$123,456.70",
	}
	for input, expected := range tests {
		if got := Currency(input); got != expected {
			t.Errorf("Currency(%v) = %q, expected %q", input, got, expected)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		ratio    float64
		decimals int
		expected string
	}{
		{0.114, 1, "11.4%"},
		{0.5, 0, "50%"},
		{1.5, 1, "150.0%"},
	}
	for _, tt := range tests {
		if got := Percent(tt.ratio, tt.decimals); got != tt.expected {
			t.Errorf("Percent(%v, %d) = %q, expected %q", tt.ratio, tt.decimals, got, tt.expected)
		}
	}
}

func TestSignedPercent(t *testing.T) {
	if got := SignedPercent(-0.114, 1); got != "-11.4%" {
		t.Fatalf("SignedPercent(-0.114) = %q", got)
	}
	if got := SignedPercent(0.05, 1); got != "+5.0%" {
		t.Fatalf("SignedPercent(0.05) = %q", got)
	}
}
