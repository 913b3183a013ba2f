package emulator

import "github.com/viant/biome/mathir"

// Env is the host surface an Interpreter reads/writes globals and resolves
// externally linked calls through; a batch-function backend (package
// backend/emulate) adapts its BatchArgs slices to this interface. Kept
// independent of any concrete argument layout so emulator has no import-time
// dependency on package backend.
type Env interface {
	// Global reads the element at idx of the flat array addressed by one of
	// mathir's ScopeXxx sentinels (parameter, state var, series, temp var,
	// connection info, index count).
	Global(scope, idx int) float64
	SetGlobal(scope, idx int, v float64)
	// CallFunction invokes a non-intrinsic scalar FunctionCall by name; ok
	// is false if name isn't registered.
	CallFunction(name string, args []Value) (Value, bool)
	// CallExternal invokes an ExternalComputation (spec.md §4.7): offset,
	// stride, count triples, one per argument, describing the strided view
	// the linked function should see into the run's flat buffers.
	CallExternal(name string, triples [][3]float64)
}

type frame struct {
	scopeID int
	vals    map[int]Value
}

// Interpreter walks one Math IR tree against an Env. One Interpreter is
// created per batch invocation; its Function_Scope frame stack mirrors the
// lowering-time mathir.Scope stack but holds runtime Values instead of ids.
type Interpreter struct {
	env    Env
	frames []frame
}

func NewInterpreter(env Env) *Interpreter {
	return &Interpreter{env: env}
}

// Run executes root as the top-level statement of a batch function. The
// return value is root's evaluated Value when root is itself an expression
// (tests exercise Eval directly for that); batch bodies are Blocks whose
// value is discarded by the caller.
func (in *Interpreter) Run(root mathir.Node) Value {
	return in.Eval(root)
}

func (in *Interpreter) pushFrame(scopeID int) {
	in.frames = append(in.frames, frame{scopeID: scopeID, vals: map[int]Value{}})
}

func (in *Interpreter) popFrame() {
	in.frames = in.frames[:len(in.frames)-1]
}

func (in *Interpreter) frameFor(scopeID int) *frame {
	for i := len(in.frames) - 1; i >= 0; i-- {
		if in.frames[i].scopeID == scopeID {
			return &in.frames[i]
		}
	}
	return nil
}

// Eval is the single recursive dispatch for every IR node kind. Expression
// nodes return their computed Value; statement-shaped nodes (Block,
// StateVarAssignment, DerivativeAssignment, LocalVarAssignment,
// ExternalComputation, Iterate, NoOp) execute for effect and return the
// zero Value.
func (in *Interpreter) Eval(n mathir.Node) Value {
	switch v := n.(type) {
	case *mathir.Literal:
		return literalValue(v)

	case *mathir.Identifier:
		if mathir.IsGlobalScope(v.ScopeID) {
			return RealValue(in.env.Global(v.ScopeID, v.LocalID))
		}
		if f := in.frameFor(v.ScopeID); f != nil {
			return f.vals[v.LocalID]
		}
		return Value{}

	case *mathir.UnaryOp:
		return evalUnary(v.Op, in.Eval(v.Operand))

	case *mathir.BinaryOp:
		return evalBinary(v.Op, in.Eval(v.LHS), in.Eval(v.RHS))

	case *mathir.Cast:
		operand := in.Eval(v.Operand)
		switch v.Type {
		case mathir.Integer:
			return IntValue(int64(operand.Real()))
		case mathir.Boolean:
			return BoolValue(operand.Real() != 0)
		default:
			return RealValue(operand.Real())
		}

	case *mathir.FunctionCall:
		args := make([]Value, len(v.Args))
		for i, a := range v.Args {
			args[i] = in.Eval(a)
		}
		if v.Intrinsic {
			if r, ok := evalIntrinsic(v.Name, args); ok {
				return r
			}
			return Value{}
		}
		if r, ok := in.env.CallFunction(v.Name, args); ok {
			return r
		}
		return Value{}

	case *mathir.IfChain:
		for _, br := range v.Branches {
			if br.Cond == nil || in.Eval(br.Cond).Bool() {
				return in.Eval(br.Body)
			}
		}
		return Value{}

	case *mathir.LocalVarAssignment:
		val := in.Eval(v.Value)
		if f := in.frameFor(v.ScopeID); f != nil {
			f.vals[v.LocalID] = val
		}
		return Value{}

	case *mathir.StateVarAssignment:
		in.env.SetGlobal(mathir.ScopeStateVar, v.StateVarID, in.Eval(v.Value).Real())
		return Value{}

	case *mathir.DerivativeAssignment:
		// Derivative slots live in the solver workspace global array; see
		// backend/emulate's BatchArgs wiring.
		in.env.SetGlobal(mathir.ScopeTempVar, v.StateVarID, in.Eval(v.Value).Real())
		return Value{}

	case *mathir.ExternalComputation:
		triples := make([][3]float64, len(v.Args))
		for i, a := range v.Args {
			triples[i] = [3]float64{
				in.Eval(a.Offset).Real(),
				in.Eval(a.Stride).Real(),
				in.Eval(a.Count).Real(),
			}
		}
		in.env.CallExternal(v.FunctionName, triples)
		return Value{}

	case *mathir.Iterate:
		return Value{}

	case *mathir.NoOp:
		return Value{}

	case *mathir.Block:
		return in.evalBlock(v)

	default:
		return Value{}
	}
}

func (in *Interpreter) evalBlock(b *mathir.Block) Value {
	iterations := 1
	var count Value
	if b.Count != nil {
		count = in.Eval(b.Count)
		iterations = int(count.Real())
	}
	var last Value
	for i := 0; i < iterations; i++ {
		in.pushFrame(b.ScopeID)
		if b.Count != nil {
			in.frameFor(b.ScopeID).vals[b.LoopVar] = IntValue(int64(i))
		}
		for _, lv := range b.Locals {
			in.frameFor(b.ScopeID).vals[lv.ID] = in.Eval(lv.Init)
		}
		for _, stmt := range b.Stmts {
			last = in.Eval(stmt)
		}
		in.popFrame()
	}
	return last
}
