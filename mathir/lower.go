package mathir

import (
	"github.com/viant/biome/ast"
	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/token"
)

// frame is one lexically-nested Function_Scope, per spec.md §4.4 "Build":
// a scope's local_var IDs increase monotonically within the frame.
type frame struct {
	scopeID int
	names   map[string]int // identifier -> local_id, this frame only
	nextID  int
}

// Scope is the Function_Scope stack a lowering pass pushes/pops blocks on.
// Identifier chains are resolved innermost-frame-first.
type Scope struct {
	frames  []*frame
	nextSID int
	sink    *diagnostics.Sink
}

// NewScope constructs an empty lowering scope.
func NewScope(sink *diagnostics.Sink) *Scope {
	return &Scope{sink: sink}
}

// Push starts a new frame (one per Block) and returns its scope id.
func (s *Scope) Push() int {
	id := s.nextSID
	s.nextSID++
	s.frames = append(s.frames, &frame{scopeID: id, names: map[string]int{}})
	return id
}

// Pop closes the innermost frame.
func (s *Scope) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Declare binds name to a freshly-assigned local id in the innermost frame
// and returns (scopeID, localID).
func (s *Scope) Declare(name string) (int, int) {
	f := s.frames[len(s.frames)-1]
	id := f.nextID
	f.nextID++
	if name != "" {
		f.names[name] = id
	}
	return f.scopeID, id
}

// Resolve looks up name innermost-frame-first, returning (scopeID, localID,
// ok).
func (s *Scope) Resolve(name string) (int, int, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if id, ok := s.frames[i].names[name]; ok {
			return s.frames[i].scopeID, id, true
		}
	}
	return 0, 0, false
}

func (s *Scope) fatalf(loc diagnostics.SourceLoc, format string, args ...interface{}) *diagnostics.Error {
	return s.sink.Fatalf(diagnostics.ModelBuilding, loc, format, args...)
}

// LowerExpr lowers a single expression argument (a literal, an identifier
// chain resolved against the current frame stack, or an inline call-shaped
// declaration) to an IR Node. Names not found as locals are left to the
// caller to resolve against the catalog (state vars, parameters, functions)
// via resolveExternal.
func (s *Scope) LowerExpr(arg *ast.Arg, resolveExternal func(name string, loc diagnostics.SourceLoc) Node) Node {
	switch arg.Kind {
	case ast.ArgLiteral:
		return literalNode(arg.Literal)
	case ast.ArgIdentChain:
		if len(arg.Chain) == 1 {
			if sid, lid, ok := s.Resolve(arg.Chain[0]); ok {
				return &Identifier{Header: Header{Loc: arg.Loc}, ScopeID: sid, LocalID: lid}
			}
		}
		if resolveExternal != nil {
			return resolveExternal(arg.IdentText(), arg.Loc)
		}
		s.fatalf(arg.Loc, "undeclared identifier %q", arg.IdentText())
		return &NoOp{Header: Header{Loc: arg.Loc}}
	case ast.ArgInlineDecl:
		return s.LowerCall(arg.Inline, resolveExternal)
	default:
		return &NoOp{Header: Header{Loc: arg.Loc}}
	}
}

func literalNode(t token.Token) Node {
	switch t.Kind {
	case token.Integer:
		return IntLit(t.IntVal, t.Loc)
	case token.Real:
		return RealLit(t.RealVal, t.Loc)
	case token.Boolean:
		return BoolLit(t.BoolVal, t.Loc)
	default:
		return &NoOp{Header: Header{Loc: t.Loc}}
	}
}

// LowerCall lowers `op(args...)` to a UnaryOp/BinaryOp/FunctionCall node by
// arity and name: one arg + an operator-shaped keyword -> UnaryOp, two args
// + an operator-shaped keyword -> BinaryOp, anything else -> FunctionCall
// (Intrinsic left false; the caller sets it once the backend's intrinsic
// table is consulted).
func (s *Scope) LowerCall(decl *ast.Decl, resolveExternal func(name string, loc diagnostics.SourceLoc) Node) Node {
	args := make([]Node, len(decl.Args))
	for i, a := range decl.Args {
		args[i] = s.LowerExpr(a, resolveExternal)
	}
	if isOperator(decl.Keyword) {
		switch len(args) {
		case 1:
			return &UnaryOp{Header: Header{Loc: decl.Loc}, Op: decl.Keyword, Operand: args[0]}
		case 2:
			return &BinaryOp{Header: Header{Loc: decl.Loc}, Op: decl.Keyword, LHS: args[0], RHS: args[1]}
		}
	}
	return &FunctionCall{Header: Header{Loc: decl.Loc}, Name: decl.Keyword, Args: args}
}

var operatorKeywords = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "^": true,
	"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true,
	"and": true, "or": true, "not": true,
}

func isOperator(keyword string) bool { return operatorKeywords[keyword] }

// LowerBlock lowers a braced sequence of statement declarations into a
// Block, pushing/popping one Function_Scope frame. A `local` declaration
// introduces a LocalVar; anything else lowers via stmtFn (the caller's
// statement-lowering callback, since statement shapes are model-specific:
// state_var assignment, if-chain, loop, etc.).
func (s *Scope) LowerBlock(loc diagnostics.SourceLoc, decls []*ast.Decl, count Node, stmtFn func(decl *ast.Decl) Node) *Block {
	sid := s.Push()
	defer s.Pop()
	b := &Block{Header: Header{Loc: loc, Type: None}, ScopeID: sid, Count: count}
	if count != nil {
		_, lid := s.Declare("")
		b.LoopVar = lid
	}
	for _, d := range decls {
		if d.Keyword == "local" && len(d.Args) >= 1 {
			name := ""
			if d.Args[0].Kind == ast.ArgIdentChain && len(d.Args[0].Chain) == 1 {
				name = d.Args[0].Chain[0]
			}
			_, lid := s.Declare(name)
			lv := &LocalVar{Header: Header{Loc: d.Loc}, ScopeID: sid, ID: lid, Name: name, IsUsed: true}
			if len(d.Args) > 1 {
				lv.Init = s.LowerExpr(d.Args[1], nil)
			} else {
				lv.Init = &NoOp{Header: Header{Loc: d.Loc}}
			}
			b.Locals = append(b.Locals, lv)
			continue
		}
		b.Stmts = append(b.Stmts, stmtFn(d))
	}
	return b
}
