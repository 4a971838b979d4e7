package tool

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want float64
	}{
		{"1 + 1", 2},
		{"5 * 6", 30},
		{"2 + 3 * (4 - 1)", 11},
		{"10 / 4", 2.5},
		{"-2 ** 2", -4},
		{"2 ** 3 ** 2", 512},
		{"2 ^ 10", 1024},
		{"2 ** -1", 0.5},
		{"7 % 3", 1},
		{"-7 % 3", 2},
		{"sqrt(16) + abs(-2)", 6},
		{"max(1, 9, 4) - min(3, 2)", 7},
		{"log(8, 2)", 3},
		{"round(2.5)", 2},
		{"floor(pi)", 3},
		{"1.5e2", 150},
		{"  ( ( 1 ) )  ", 1},
	}

	for _, tt := range tests {
		got, err := Evaluate(tt.expr)
		if err != nil {
			t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluateRejectsNonArithmetic(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"import os",
		"__import__('os').system('ls')",
		"open('/etc/passwd')",
		"2 + abc",
		"exit()",
		"os.getcwd()",
		"",
		"(1 + 2",
		"1 + 2)",
		"1 +",
		"1..2",
		"sqrt(1, 2)",
		"sqrt(-1)",
		"log(0)",
	}

	for _, in := range inputs {
		if _, err := Evaluate(in); err == nil {
			t.Fatalf("Evaluate(%q) expected error", in)
		}
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	t.Parallel()

	_, err := Evaluate("1 / (2 - 2)")
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("Evaluate() error = %v, want ErrDivisionByZero", err)
	}
}

func TestParseBuildsTypedAST(t *testing.T) {
	t.Parallel()

	node, err := Parse("1 + 2 * 3")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	add, ok := node.(Binary)
	if !ok || add.Op != OpAdd {
		t.Fatalf("root = %#v, want addition", node)
	}
	if _, ok := add.Left.(Number); !ok {
		t.Fatalf("left = %#v, want Number", add.Left)
	}
	mul, ok := add.Right.(Binary)
	if !ok || mul.Op != OpMul {
		t.Fatalf("right = %#v, want multiplication", add.Right)
	}
}

func TestParseUnknownFunctionMessage(t *testing.T) {
	t.Parallel()

	_, err := Parse("system(1)")
	if err == nil || !strings.Contains(err.Error(), `"system" is not allowed`) {
		t.Fatalf("Parse() error = %v, want not allowed", err)
	}
}

func TestFormatResult(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		2:           "2",
		30:          "30",
		0.5:         "0.5",
		-3:          "-3",
		math.Inf(1): "inf",
		1e21:        "1000000000000000000000",
	}
	for in, want := range tests {
		if got := FormatResult(in); got != want {
			t.Fatalf("FormatResult(%v) = %q, want %q", in, got, want)
		}
	}
}
