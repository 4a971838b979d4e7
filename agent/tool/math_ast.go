package tool

import (
	"fmt"
	"math"
)

// Node is a parsed arithmetic expression. Evaluation touches nothing but
// float64 values and the whitelisted functions below.
type Node interface {
	Eval() (float64, error)
}

type Op byte

const (
	OpAdd Op = '+'
	OpSub Op = '-'
	OpMul Op = '*'
	OpDiv Op = '/'
	OpMod Op = '%'
	OpPow Op = '^'
)

type Number struct {
	Value float64
}

func (n Number) Eval() (float64, error) {
	return n.Value, nil
}

type Negate struct {
	Operand Node
}

func (n Negate) Eval() (float64, error) {
	v, err := n.Operand.Eval()
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type Binary struct {
	Op    Op
	Left  Node
	Right Node
}

func (b Binary) Eval() (float64, error) {
	left, err := b.Left.Eval()
	if err != nil {
		return 0, err
	}
	right, err := b.Right.Eval()
	if err != nil {
		return 0, err
	}

	switch b.Op {
	case OpAdd:
		return left + right, nil
	case OpSub:
		return left - right, nil
	case OpMul:
		return left * right, nil
	case OpDiv:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left / right, nil
	case OpMod:
		if right == 0 {
			return 0, fmt.Errorf("modulo by zero")
		}
		// result takes the sign of the divisor
		m := math.Mod(left, right)
		if m != 0 && (m < 0) != (right < 0) {
			m += right
		}
		return m, nil
	case OpPow:
		if left == 0 && right < 0 {
			return 0, fmt.Errorf("0 cannot be raised to a negative power")
		}
		return math.Pow(left, right), nil
	default:
		return 0, fmt.Errorf("unknown operator %q", byte(b.Op))
	}
}

type Call struct {
	Name string
	Args []Node
}

func (c Call) Eval() (float64, error) {
	fn, ok := functions[c.Name]
	if !ok {
		return 0, fmt.Errorf("function %q is not allowed", c.Name)
	}
	if err := fn.checkArity(c.Name, len(c.Args)); err != nil {
		return 0, err
	}

	values := make([]float64, len(c.Args))
	for i, arg := range c.Args {
		v, err := arg.Eval()
		if err != nil {
			return 0, err
		}
		values[i] = v
	}
	return fn.apply(values)
}

type funcSpec struct {
	minArgs int
	maxArgs int // -1 means unbounded
	apply   func(args []float64) (float64, error)
}

func (f funcSpec) checkArity(name string, n int) error {
	if n < f.minArgs || (f.maxArgs >= 0 && n > f.maxArgs) {
		switch {
		case f.minArgs == f.maxArgs:
			return fmt.Errorf("%s() takes %d argument(s), got %d", name, f.minArgs, n)
		case f.maxArgs < 0:
			return fmt.Errorf("%s() takes at least %d argument(s), got %d", name, f.minArgs, n)
		default:
			return fmt.Errorf("%s() takes %d to %d arguments, got %d", name, f.minArgs, f.maxArgs, n)
		}
	}
	return nil
}

func unary(fn func(float64) float64) funcSpec {
	return funcSpec{minArgs: 1, maxArgs: 1, apply: func(args []float64) (float64, error) {
		return fn(args[0]), nil
	}}
}

func binary(fn func(float64, float64) float64) funcSpec {
	return funcSpec{minArgs: 2, maxArgs: 2, apply: func(args []float64) (float64, error) {
		return fn(args[0], args[1]), nil
	}}
}

func domain(name string, ok func(float64) bool, fn func(float64) float64) funcSpec {
	return funcSpec{minArgs: 1, maxArgs: 1, apply: func(args []float64) (float64, error) {
		if !ok(args[0]) {
			return 0, fmt.Errorf("math domain error in %s()", name)
		}
		return fn(args[0]), nil
	}}
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
	"inf": math.Inf(1),
}

var functions = map[string]funcSpec{
	"sqrt":  domain("sqrt", func(x float64) bool { return x >= 0 }, math.Sqrt),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  domain("asin", func(x float64) bool { return x >= -1 && x <= 1 }, math.Asin),
	"acos":  domain("acos", func(x float64) bool { return x >= -1 && x <= 1 }, math.Acos),
	"atan":  unary(math.Atan),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"log10": domain("log10", func(x float64) bool { return x > 0 }, math.Log10),
	"log2":  domain("log2", func(x float64) bool { return x > 0 }, math.Log2),
	"exp":   unary(math.Exp),
	"fabs":  unary(math.Abs),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"trunc": unary(math.Trunc),
	"round": unary(math.RoundToEven),
	"degrees": unary(func(x float64) float64 {
		return x * 180 / math.Pi
	}),
	"radians": unary(func(x float64) float64 {
		return x * math.Pi / 180
	}),
	"pow":   binary(math.Pow),
	"hypot": binary(math.Hypot),
	"atan2": binary(math.Atan2),
	"log": {minArgs: 1, maxArgs: 2, apply: func(args []float64) (float64, error) {
		if args[0] <= 0 {
			return 0, fmt.Errorf("math domain error in log()")
		}
		if len(args) == 1 {
			return math.Log(args[0]), nil
		}
		if args[1] <= 0 || args[1] == 1 {
			return 0, fmt.Errorf("math domain error in log()")
		}
		return math.Log(args[0]) / math.Log(args[1]), nil
	}},
	"min": {minArgs: 1, maxArgs: -1, apply: func(args []float64) (float64, error) {
		out := args[0]
		for _, v := range args[1:] {
			out = math.Min(out, v)
		}
		return out, nil
	}},
	"max": {minArgs: 1, maxArgs: -1, apply: func(args []float64) (float64, error) {
		out := args[0]
		for _, v := range args[1:] {
			out = math.Max(out, v)
		}
		return out, nil
	}},
}
