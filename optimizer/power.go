package optimizer

import (
	"math"

	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/mathir"
)

// powerEps is the ε below which a literal base in c^x is treated as "not a
// usable constant base" and the generic ^ path is kept, per spec.md §4.4
// "c^x with literal c > ε".
const powerEps = 1e-300

// specializePower implements spec.md §4.4's `^` specialization table. base
// is the already-pruned LHS, exp the already-pruned RHS of a BinaryOp("^",
// ...); returns the replacement node, or nil if no specialization applies
// (caller keeps the plain BinaryOp).
func (p *Pruner) specializePower(loc diagnostics.SourceLoc, base, exp mathir.Node) mathir.Node {
	expLit, expIsLit := exp.(*mathir.Literal)
	baseLit, baseIsLit := base.(*mathir.Literal)

	if expIsLit {
		ev := realOf(expLit)

		if ev == 0.5 {
			return p.withCachedLocal(loc, base, func(x mathir.Node) mathir.Node {
				return &mathir.FunctionCall{Header: mathir.Header{Loc: loc, Type: mathir.Real}, Name: "sqrt", Args: []mathir.Node{x}, Intrinsic: true}
			})
		}

		if k := ev - 0.5; k == math.Trunc(k) && ev != 0.5 {
			ik := int64(k)
			return p.withCachedLocal(loc, base, func(x mathir.Node) mathir.Node {
				sqrtX := &mathir.FunctionCall{Header: mathir.Header{Loc: loc, Type: mathir.Real}, Name: "sqrt", Args: []mathir.Node{x}, Intrinsic: true}
				return p.withCachedLocal(loc, sqrtX, func(sq mathir.Node) mathir.Node {
					return mul(loc, sq, unrollIntPower(loc, x, ik))
				})
			})
		}

		if ev == math.Trunc(ev) {
			n := int64(ev)
			switch n {
			case -2, -1, 1, 2, 3, 4:
				return p.withCachedLocal(loc, base, func(x mathir.Node) mathir.Node {
					return unrollIntPower(loc, x, n)
				})
			}
		}
	}

	if baseIsLit {
		c := realOf(baseLit)
		if c == 2.0 {
			return &mathir.FunctionCall{Header: mathir.Header{Loc: loc, Type: mathir.Real}, Name: "pow2", Args: []mathir.Node{exp}, Intrinsic: true}
		}
		if c > powerEps {
			lnC := mathir.RealLit(math.Log(c), loc)
			return &mathir.FunctionCall{
				Header: mathir.Header{Loc: loc, Type: mathir.Real},
				Name:   "exp", Intrinsic: true,
				Args: []mathir.Node{mul(loc, lnC, exp)},
			}
		}
	}
	return nil
}

func realOf(l *mathir.Literal) float64 {
	if l.Type == mathir.Integer {
		return float64(l.IntVal)
	}
	return l.RealVal
}

func mul(loc diagnostics.SourceLoc, a, b mathir.Node) mathir.Node {
	return &mathir.BinaryOp{Header: mathir.Header{Loc: loc, Type: mathir.Real}, Op: "*", LHS: a, RHS: b}
}

func div(loc diagnostics.SourceLoc, a, b mathir.Node) mathir.Node {
	return &mathir.BinaryOp{Header: mathir.Header{Loc: loc, Type: mathir.Real}, Op: "/", LHS: a, RHS: b}
}

// unrollIntPower expands x^n for small integer n via repeated multiplies,
// per spec.md §4.4: x*x, x*x*x, (x*x)*(x*x), 1/(x*x), 1/x. Any other n is
// kept as a plain x ^ n BinaryOp.
func unrollIntPower(loc diagnostics.SourceLoc, x mathir.Node, n int64) mathir.Node {
	switch n {
	case -1:
		return div(loc, mathir.RealLit(1, loc), x)
	case 1:
		return x
	case 2:
		return mul(loc, x, x)
	case 3:
		return mul(loc, x, mul(loc, x, x))
	case 4:
		sq := mul(loc, x, x)
		return mul(loc, sq, sq)
	case -2:
		return div(loc, mathir.RealLit(1, loc), mul(loc, x, x))
	}
	return &mathir.BinaryOp{Header: mathir.Header{Loc: loc, Type: mathir.Real}, Op: "^", LHS: x, RHS: mathir.RealLit(float64(n), loc)}
}

// withCachedLocal wraps use(ref) in a Block that declares init once and
// references it by Identifier everywhere use needs it, avoiding
// recomputation of init, per spec.md §4.4 "pre-compute" / "avoid
// recomputation". Mirrors scenario 4's nested-Block shape exactly.
func (p *Pruner) withCachedLocal(loc diagnostics.SourceLoc, init mathir.Node, use func(ref mathir.Node) mathir.Node) mathir.Node {
	sid := p.nextScope()
	local := &mathir.LocalVar{
		Header:  mathir.Header{Loc: loc, Type: mathir.ValueTypeOf(init)},
		ScopeID: sid, ID: 0, Init: init, IsUsed: true,
	}
	ref := &mathir.Identifier{Header: mathir.Header{Loc: loc, Type: local.Type}, ScopeID: sid, LocalID: 0}
	body := use(ref)
	return &mathir.Block{
		Header:  mathir.Header{Loc: loc, Type: mathir.ValueTypeOf(body)},
		ScopeID: sid,
		Locals:  []*mathir.LocalVar{local},
		Stmts:   []mathir.Node{body},
	}
}
