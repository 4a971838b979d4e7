package responder

import (
	"context"
	"strings"
	"testing"
)

func TestCalculatorRespond(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"1 + 1":                    "2",
		"calculate 5 * 6":          "30",
		"Calculate: 10 / 4?":       "2.5",
		"what is 2 + 2":            "4",
		"How much is (3 + 4) * 2?": "14",
		"calculate sqrt(81)":       "9",
	}
	calc := NewCalculator()
	for in, want := range tests {
		if got := calc.Respond(context.Background(), in); got != want {
			t.Fatalf("Respond(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCalculatorRejectsCode(t *testing.T) {
	t.Parallel()

	calc := NewCalculator()
	for _, in := range []string{"import os", "calculate __import__('os')", "Calculate the weekly hours", "1 / 0"} {
		got := calc.Respond(context.Background(), in)
		if !strings.HasPrefix(got, "Error in calculation: ") {
			t.Fatalf("Respond(%q) = %q, want calculation error", in, got)
		}
	}
}

func TestExtractExpression(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"calculate 5 * 6":    "5 * 6",
		"CALCULATE: 2^3!":    "2^3",
		"  7 - 2.  ":         "7 - 2",
		"calculated 1 + 1":   "calculated 1 + 1",
		"calculate (1+2)?!.": "(1+2)",
	}
	for in, want := range tests {
		if got := ExtractExpression(in); got != want {
			t.Fatalf("ExtractExpression(%q) = %q, want %q", in, got, want)
		}
	}
}
