// Package optimizer implements C8: the IR pruning pipeline of spec.md §4.4,
// bottom-up constant folding, identity-law simplification, power
// specialization, if-chain/loop-of-one collapse, and dead-local removal.
// Grounded on the teacher's single-pass struct-tree rewriting style
// (inspector/graph building a new, simplified struct.Type tree from an
// input AST) adapted from Go-source rewriting to IR-node rewriting.
package optimizer

import (
	"math"

	"github.com/viant/biome/mathir"
)

// applyUnary folds a UnaryOp over a literal operand, per spec.md §4.4
// "apply_unary".
func applyUnary(op string, v *mathir.Literal) *mathir.Literal {
	switch op {
	case "-":
		switch v.Type {
		case mathir.Integer:
			return mathir.IntLit(-v.IntVal, v.Loc)
		default:
			return mathir.RealLit(-v.RealVal, v.Loc)
		}
	case "not":
		return mathir.BoolLit(!v.BoolVal, v.Loc)
	}
	return nil
}

// applyBinary folds a BinaryOp over two literal operands, per spec.md §4.4
// "apply_binary".
func applyBinary(op string, a, b *mathir.Literal) *mathir.Literal {
	numeric := func(l *mathir.Literal) float64 {
		if l.Type == mathir.Integer {
			return float64(l.IntVal)
		}
		return l.RealVal
	}
	bothInt := a.Type == mathir.Integer && b.Type == mathir.Integer
	switch op {
	case "+", "-", "*", "/", "^":
		x, y := numeric(a), numeric(b)
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
			return mathir.IntLit(int64(r), a.Loc)
		}
		return mathir.RealLit(r, a.Loc)
	case "<", "<=", ">", ">=", "==", "!=":
		x, y := numeric(a), numeric(b)
		var r bool
		switch op {
		case "<":
			r = x < y
		case "<=":
			r = x <= y
		case ">":
			r = x > y
		case ">=":
			r = x >= y
		case "==":
			r = x == y
		case "!=":
			r = x != y
		}
		return mathir.BoolLit(r, a.Loc)
	case "and":
		return mathir.BoolLit(a.BoolVal && b.BoolVal, a.Loc)
	case "or":
		return mathir.BoolLit(a.BoolVal || b.BoolVal, a.Loc)
	}
	return nil
}

// unaryIntrinsics and binaryIntrinsics list the one- and two-argument intrinsics applyIntrinsic
// can fold, per spec.md §4.6's intrinsic table.
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

// applyIntrinsic folds a FunctionCall with all-literal real arguments, per
// spec.md §4.4 "Intrinsic call with all-literal arguments".
func applyIntrinsic(name string, args []*mathir.Literal) (*mathir.Literal, bool) {
	toF := func(l *mathir.Literal) float64 {
		if l.Type == mathir.Integer {
			return float64(l.IntVal)
		}
		return l.RealVal
	}
	if fn, ok := unaryIntrinsics[name]; ok && len(args) == 1 {
		return mathir.RealLit(fn(toF(args[0])), args[0].Loc), true
	}
	if fn, ok := binaryIntrinsics[name]; ok && len(args) == 2 {
		return mathir.RealLit(fn(toF(args[0]), toF(args[1])), args[0].Loc), true
	}
	if name == "is_finite" && len(args) == 1 {
		v := toF(args[0])
		return mathir.BoolLit(!math.IsNaN(v) && !math.IsInf(v, 0), args[0].Loc), true
	}
	return nil, false
}
