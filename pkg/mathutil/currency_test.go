package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Binary midpoint", 1.005, 1.01},
		{"Large number", 12345.678, 12345.68},
		{"Negative number round up", -1.235, -1.24},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundProbability(t *testing.T) {
	tests := map[float64]float64{
		0.12345: 0.123,
		0.6785:  0.679,
		1:       1,
		0:       0,
	}
	for input, expected := range tests {
		if got := RoundProbability(input); math.Abs(got-expected) > 1e-12 {
			t.Errorf("RoundProbability(%v) = %v, expected %v", input, got, expected)
		}
	}
}

func TestSafeRatio(t *testing.T) {
	if got := SafeRatio(110, 100); math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("SafeRatio(110, 100) = %v", got)
	}
	if got := SafeRatio(10, 0); got != 0 {
		t.Fatalf("SafeRatio with zero denominator = %v, expected 0", got)
	}
	if got := SafeRatio(10, -5); got != 0 {
		t.Fatalf("SafeRatio with negative denominator = %v, expected 0", got)
	}
}

func TestLinspace(t *testing.T) {
	values := Linspace(88, 160, 20)
	if len(values) != 20 {
		t.Fatalf("expected 20 values, got %d", len(values))
	}
	if values[0] != 88 || values[19] != 160 {
		t.Fatalf("expected inclusive endpoints, got %v and %v", values[0], values[19])
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			t.Fatalf("values not strictly ascending at %d: %v <= %v", i, values[i], values[i-1])
		}
	}
	step := (160.0 - 88.0) / 19
	if math.Abs(values[1]-values[0]-step) > 1e-9 {
		t.Fatalf("unexpected step %v", values[1]-values[0])
	}

	if got := Linspace(1, 2, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
	if got := Linspace(5, 9, 1); len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected [5] for n=1, got %v", got)
	}
}

func TestClampMean(t *testing.T) {
	if Clamp(-1, 0, 1) != 0 || Clamp(2, 0, 1) != 1 || Clamp(0.5, 0, 1) != 0.5 {
		t.Fatal("Clamp returned unexpected values")
	}
	if Mean(nil) != 0 {
		t.Fatal("Mean of empty slice should be 0")
	}
	if math.Abs(Mean([]float64{1.0, 0.9, 1.0})-2.9/3) > 1e-12 {
		t.Fatal("Mean returned unexpected value")
	}
}
