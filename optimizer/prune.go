package optimizer

import (
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/mathir"
)

// Pruner runs the bottom-up pruning pipeline of spec.md §4.4 over one IR
// tree. It owns the monotonically-increasing scope-id counter used when a
// power specialization introduces a caching local (see power.go), seeded
// above every scope id already used by the unpruned tree so new locals
// never collide with surviving ones.
type Pruner struct {
	sink     *diagnostics.Sink
	scopeSeq int
	hasher   *subtreeHasher
}

// NewPruner constructs a Pruner whose fresh scope ids start at
// highestScopeID+1.
func NewPruner(sink *diagnostics.Sink, highestScopeID int) *Pruner {
	return &Pruner{sink: sink, scopeSeq: highestScopeID + 1, hasher: newSubtreeHasher()}
}

func (p *Pruner) nextScope() int {
	id := p.scopeSeq
	p.scopeSeq++
	return id
}

// PruneTree applies the pipeline to root and returns the simplified tree,
// per spec.md §4.4 "prune_tree": bottom-up recursion through identifier
// folding, unary/binary folding, if-chain collapse, block collapse, cast
// fold, intrinsic fold, then a final dead-local sweep.
func PruneTree(root mathir.Node, sink *diagnostics.Sink, highestScopeID int) mathir.Node {
	p := NewPruner(sink, highestScopeID)
	return p.prune(root, map[localKey]mathir.Node{})
}

type localKey struct {
	scope, id int
}

// prune is the recursive bottom-up rewrite. subst carries identifier ->
// literal substitutions for locals already folded to a constant in the
// enclosing blocks (spec.md §4.4 "Identifier → literal").
func (p *Pruner) prune(n mathir.Node, subst map[localKey]mathir.Node) mathir.Node {
	switch v := n.(type) {
	case *mathir.Block:
		return p.pruneBlock(v, subst)
	case *mathir.LocalVarAssignment:
		v.Value = p.prune(v.Value, subst)
		return v
	case *mathir.Identifier:
		if lit, ok := subst[localKey{v.ScopeID, v.LocalID}]; ok {
			return lit
		}
		return v
	case *mathir.Literal:
		return v
	case *mathir.UnaryOp:
		return p.pruneUnary(v, subst)
	case *mathir.BinaryOp:
		return p.pruneBinary(v, subst)
	case *mathir.FunctionCall:
		return p.pruneCall(v, subst)
	case *mathir.IfChain:
		return p.pruneIfChain(v, subst)
	case *mathir.StateVarAssignment:
		v.Value = p.prune(v.Value, subst)
		return v
	case *mathir.DerivativeAssignment:
		v.Value = p.prune(v.Value, subst)
		return v
	case *mathir.Cast:
		return p.pruneCast(v, subst)
	case *mathir.ExternalComputation:
		for i := range v.Args {
			v.Args[i].Offset = p.prune(v.Args[i].Offset, subst)
			v.Args[i].Stride = p.prune(v.Args[i].Stride, subst)
			v.Args[i].Count = p.prune(v.Args[i].Count, subst)
		}
		return v
	case *mathir.Iterate, *mathir.NoOp:
		return v
	default:
		return v
	}
}

func (p *Pruner) pruneUnary(v *mathir.UnaryOp, subst map[localKey]mathir.Node) mathir.Node {
	v.Operand = p.prune(v.Operand, subst)
	if lit, ok := v.Operand.(*mathir.Literal); ok {
		if folded := applyUnary(v.Op, lit); folded != nil {
			return p.hasher.memoize(folded)
		}
	}
	return v
}

func (p *Pruner) pruneBinary(v *mathir.BinaryOp, subst map[localKey]mathir.Node) mathir.Node {
	v.LHS = p.prune(v.LHS, subst)
	v.RHS = p.prune(v.RHS, subst)

	lLit, lIsLit := v.LHS.(*mathir.Literal)
	rLit, rIsLit := v.RHS.(*mathir.Literal)

	if lIsLit && rIsLit {
		if folded := applyBinary(v.Op, lLit, rLit); folded != nil {
			return p.hasher.memoize(folded)
		}
	}

	if v.Op == "^" {
		if specialized := p.specializePower(v.Loc, v.LHS, v.RHS); specialized != nil {
			return specialized
		}
	}

	if reduced := checkBinopReduction(v.Op, v.LHS, v.RHS); reduced != nil {
		return reduced
	}

	if reassoc := reassociate(v); reassoc != nil {
		return reassoc
	}

	return v
}

// checkBinopReduction applies the identity laws of spec.md §4.4: x+0, x*1,
// x*0, x/1, x-0, 0-x stays as negate (left to UnaryOp, not handled here),
// replacing the binop with the surviving operand (or a zero/one literal)
// when one side is the identity/absorbing literal.
func checkBinopReduction(op string, lhs, rhs mathir.Node) mathir.Node {
	isLitValue := func(n mathir.Node, want float64) bool {
		lit, ok := n.(*mathir.Literal)
		if !ok {
			return false
		}
		return realOf(lit) == want
	}
	switch op {
	case "+":
		if isLitValue(rhs, 0) {
			return lhs
		}
		if isLitValue(lhs, 0) {
			return rhs
		}
	case "-":
		if isLitValue(rhs, 0) {
			return lhs
		}
	case "*":
		if isLitValue(rhs, 1) {
			return lhs
		}
		if isLitValue(lhs, 1) {
			return rhs
		}
		if isLitValue(rhs, 0) {
			return mathir.RealLit(0, rhs.(*mathir.Literal).Loc)
		}
		if isLitValue(lhs, 0) {
			return mathir.RealLit(0, lhs.(*mathir.Literal).Loc)
		}
	case "/":
		if isLitValue(rhs, 1) {
			return lhs
		}
	}
	return nil
}

// reassociate implements the pipeline's second binary pass: `(literal op A)
// op literal` -> `literal' op A`, for +, -, *, /, per spec.md §4.4.
func reassociate(v *mathir.BinaryOp) mathir.Node {
	if v.Op != "+" && v.Op != "-" && v.Op != "*" && v.Op != "/" {
		return nil
	}
	outerLit, outerIsLit := v.RHS.(*mathir.Literal)
	inner, innerIsBinop := v.LHS.(*mathir.BinaryOp)
	if !outerIsLit || !innerIsBinop || inner.Op != v.Op {
		return nil
	}
	innerLit, innerIsLit := inner.LHS.(*mathir.Literal)
	if !innerIsLit {
		return nil
	}
	combined := applyBinary(v.Op, innerLit, outerLit)
	if combined == nil {
		return nil
	}
	return &mathir.BinaryOp{Header: v.Header, Op: v.Op, LHS: combined, RHS: inner.RHS}
}

func (p *Pruner) pruneCall(v *mathir.FunctionCall, subst map[localKey]mathir.Node) mathir.Node {
	allLit := true
	lits := make([]*mathir.Literal, len(v.Args))
	for i := range v.Args {
		v.Args[i] = p.prune(v.Args[i], subst)
		lit, ok := v.Args[i].(*mathir.Literal)
		if !ok {
			allLit = false
			continue
		}
		lits[i] = lit
	}
	if v.Intrinsic && allLit {
		if folded, ok := applyIntrinsic(v.Name, lits); ok {
			return p.hasher.memoize(folded)
		}
	}
	return v
}

func (p *Pruner) pruneCast(v *mathir.Cast, subst map[localKey]mathir.Node) mathir.Node {
	v.Operand = p.prune(v.Operand, subst)
	lit, ok := v.Operand.(*mathir.Literal)
	if !ok {
		return v
	}
	switch v.Type {
	case mathir.Real:
		return p.hasher.memoize(mathir.RealLit(realOf(lit), v.Loc))
	case mathir.Integer:
		return p.hasher.memoize(mathir.IntLit(int64(realOf(lit)), v.Loc))
	case mathir.Boolean:
		return p.hasher.memoize(mathir.BoolLit(realOf(lit) != 0, v.Loc))
	}
	return v
}

// pruneIfChain removes literal-false branches, collapses into the first
// literal-true branch (dropping everything after it), and replaces a
// single-branch result with that branch's body, per spec.md §4.4 and
// scenario 5.
func (p *Pruner) pruneIfChain(v *mathir.IfChain, subst map[localKey]mathir.Node) mathir.Node {
	var kept []mathir.IfBranch
	for _, br := range v.Branches {
		var cond mathir.Node
		if br.Cond != nil {
			cond = p.prune(br.Cond, subst)
		}
		body := p.prune(br.Body, subst)
		if lit, ok := cond.(*mathir.Literal); ok {
			if !lit.BoolVal {
				continue // literal false: drop this branch
			}
			// literal true: this branch wins, nothing after it runs.
			kept = append(kept, mathir.IfBranch{Cond: nil, Body: body})
			break
		}
		kept = append(kept, mathir.IfBranch{Cond: cond, Body: body})
	}
	if len(kept) == 0 {
		return &mathir.NoOp{Header: mathir.Header{Loc: v.Loc}}
	}
	if len(kept) == 1 {
		return kept[0].Body
	}
	v.Branches = kept
	return v
}

// pruneBlock recurses into local initializers (substituting any that fold
// to a literal and are then unused elsewhere) and statements, then
// collapses a loop-of-one or a single-statement non-loop block, per
// spec.md §4.4.
func (p *Pruner) pruneBlock(v *mathir.Block, subst map[localKey]mathir.Node) mathir.Node {
	inner := subst
	if len(v.Locals) > 0 {
		inner = cloneSubst(subst)
	}
	var survivors []*mathir.LocalVar
	for _, lv := range v.Locals {
		lv.Init = p.prune(lv.Init, inner)
		if lit, ok := lv.Init.(*mathir.Literal); ok {
			inner[localKey{v.ScopeID, lv.ID}] = lit
			lv.IsUsed = false
		} else {
			lv.IsUsed = true
			survivors = append(survivors, lv)
		}
	}
	v.Locals = survivors

	if v.Count != nil {
		v.Count = p.prune(v.Count, inner)
		if lit, ok := v.Count.(*mathir.Literal); ok && lit.Type == mathir.Integer && lit.IntVal == 1 {
			inner[localKey{v.ScopeID, v.LoopVar}] = mathir.IntLit(0, v.Loc)
			v.Count = nil
		}
	}

	for i := range v.Stmts {
		v.Stmts[i] = p.prune(v.Stmts[i], inner)
	}

	if v.Count == nil && len(v.Locals) == 0 && len(v.Stmts) == 1 {
		return v.Stmts[0]
	}
	return v
}

func cloneSubst(m map[localKey]mathir.Node) map[localKey]mathir.Node {
	out := make(map[localKey]mathir.Node, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
