// Package emulator implements C9: a tree-walking interpreter over the Math
// IR (package mathir) that satisfies the same batch-function contract as a
// native JIT backend, per spec.md §4.5's batch function signature. Grounded
// on the teacher's recursive-descent tree walkers (inspector/golang's
// statement/expression visitors build a result by switching on AST node
// type without virtual dispatch) translated from Go-AST walking to Math-IR
// walking.
package emulator

import (
	"math"

	"github.com/viant/biome/mathir"
)

// Value is a runtime IR value: exactly one of R, I, B is meaningful,
// selected by Type. Mirrors mathir.Literal's representation so folding and
// interpretation agree on what a constant looks like.
type Value struct {
	Type mathir.ValueType
	R    float64
	I    int64
	B    bool
}

func RealValue(v float64) Value { return Value{Type: mathir.Real, R: v} }
func IntValue(v int64) Value    { return Value{Type: mathir.Integer, I: v} }
func BoolValue(v bool) Value    { return Value{Type: mathir.Boolean, B: v} }

// Real coerces v to a float64 regardless of its declared type, the numeric
// view used by every arithmetic/intrinsic op.
func (v Value) Real() float64 {
	switch v.Type {
	case mathir.Integer:
		return float64(v.I)
	case mathir.Boolean:
		if v.B {
			return 1
		}
		return 0
	default:
		return v.R
	}
}

func (v Value) Bool() bool {
	if v.Type == mathir.Boolean {
		return v.B
	}
	return v.Real() != 0
}

func literalValue(l *mathir.Literal) Value {
	switch l.Type {
	case mathir.Integer:
		return IntValue(l.IntVal)
	case mathir.Boolean:
		return BoolValue(l.BoolVal)
	default:
		return RealValue(l.RealVal)
	}
}

// evalUnary applies a UnaryOp to an already-evaluated operand.
func evalUnary(op string, v Value) Value {
	switch op {
	case "-":
		if v.Type == mathir.Integer {
			return IntValue(-v.I)
		}
		return RealValue(-v.Real())
	case "not":
		return BoolValue(!v.Bool())
	}
	return v
}

// evalBinary applies a BinaryOp to two already-evaluated operands, matching
// optimizer.applyBinary's operator set (the same semantics, now over
// runtime Values instead of Literal nodes).
func evalBinary(op string, a, b Value) Value {
	bothInt := a.Type == mathir.Integer && b.Type == mathir.Integer
	x, y := a.Real(), b.Real()
	switch op {
	case "+", "-", "*", "/", "^":
		var r float64
		switch op {
		case "+":
			r = x + y
		case "-":
			r = x - y
		case "*":
			r = x * y
		case "/":
			r = x / y
		case "^":
			r = math.Pow(x, y)
		}
		if bothInt && op != "/" && op != "^" {
			return IntValue(int64(r))
		}
		return RealValue(r)
	case "<":
		return BoolValue(x < y)
	case "<=":
		return BoolValue(x <= y)
	case ">":
		return BoolValue(x > y)
	case ">=":
		return BoolValue(x >= y)
	case "==":
		return BoolValue(x == y)
	case "!=":
		return BoolValue(x != y)
	case "and":
		return BoolValue(a.Bool() && b.Bool())
	case "or":
		return BoolValue(a.Bool() || b.Bool())
	}
	return RealValue(math.NaN())
}

var unaryIntrinsics = map[string]func(float64) float64{
	"sqrt": math.Sqrt, "cbrt": math.Cbrt, "exp": math.Exp,
	"log": math.Log, "log10": math.Log10, "log2": math.Log2,
	"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
	"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
	"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
	"floor": math.Floor, "ceil": math.Ceil, "abs": math.Abs, "fabs": math.Abs,
	"round": math.Round, "pow2": func(x float64) float64 { return math.Exp2(x) },
}

var binaryIntrinsics = map[string]func(float64, float64) float64{
	"copysign": math.Copysign, "min": math.Min, "max": math.Max, "pow": math.Pow,
}

// evalIntrinsic evaluates one of spec.md §4.6's intrinsic table entries
// against already-evaluated arguments. ok is false for a name this table
// doesn't recognize. The Interpreter calls it only for calls marked
// Intrinsic; other calls go to Env.CallFunction instead.
func evalIntrinsic(name string, args []Value) (Value, bool) {
	if fn, ok := unaryIntrinsics[name]; ok && len(args) == 1 {
		return RealValue(fn(args[0].Real())), true
	}
	if fn, ok := binaryIntrinsics[name]; ok && len(args) == 2 {
		return RealValue(fn(args[0].Real(), args[1].Real())), true
	}
	if name == "is_finite" && len(args) == 1 {
		v := args[0].Real()
		return BoolValue(!math.IsNaN(v) && !math.IsInf(v, 0)), true
	}
	return Value{}, false
}
