package bs

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/rtsvc"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// CtorName is the conventional name a type's constructors are declared
// under in its NameSet, the same way overload resolution treats any other
// Named: one name, many (param-list, badness)-distinguished overloads.
const CtorName = "__init"

// FnCall invokes a resolved Function (spec §4.7 "FnCall / CtorCall emit
// code through the generator contract"). Caller is the RunOn of the thread
// issuing the call; when it differs from Fn.RunOn, CloneEnv deep-copies
// Args crossing the thread boundary (spec §4.7 "Cross-thread delivery is
// determined from toExecute.runOn() and the caller's RunOn").
type FnCall struct {
	exprBase
	Fn     *types.Function
	Args   []Expr
	Caller types.RunOn
}

// NewFnCall validates arity and per-argument assignability against Fn's
// declared Params before constructing the call (the reader pipeline's
// resolveFunctions phase is expected to have already picked Fn via
// NameOverloads.Choose; this only re-checks the concrete argument list).
func NewFnCall(pos diagnostics.SrcPos, fn *types.Function, args []Expr, caller types.RunOn) (*FnCall, error) {
	params := fn.Params()
	if len(params) != len(args) {
		return nil, diagnostics.New(diagnostics.SyntaxError, pos,
			"%s expects %d arguments, got %d", fn.Name(), len(params), len(args))
	}
	for i, p := range params {
		if !p.CanStore(args[i].Result().Value) {
			return nil, diagnostics.New(diagnostics.TypeError, pos,
				"argument %d to %s: cannot pass %s as %s", i+1, fn.Name(), args[i].Result().Value, p)
		}
	}
	return &FnCall{exprBase: exprBase{pos: pos, res: Result(fn.Result)}, Fn: fn, Args: args, Caller: caller}, nil
}

// CrossesThread reports whether this call must be reified as a cross-thread
// task (spec §5 "Cross-thread calls").
func (c *FnCall) CrossesThread() bool { return c.Fn.RunOn.Differs(c.Caller) }

// Deliver evaluates eval for each of c.Args. When the call crosses a thread
// boundary each value is passed through env.Clone, keyed by its identity;
// the factory given to Clone returns the value itself, so the callee
// receives the same value and no copy of it is made. It does not itself
// invoke Fn.Body:
// code generation is out of scope (spec §1), so Deliver stands in for "the
// generator contract" by producing the argument values the generator would
// receive.
func (c *FnCall) Deliver(env *rtsvc.CloneEnv, eval func(Expr) any) []any {
	out := make([]any, len(c.Args))
	for i, a := range c.Args {
		v := eval(a)
		if c.CrossesThread() {
			v = env.Clone(v, func() any { return v })
		}
		out[i] = v
	}
	return out
}

// CtorCall constructs an instance of Owner by invoking Ctor, one of Owner's
// CtorName overloads (spec §4.7 "CtorCall").
type CtorCall struct {
	exprBase
	Owner *types.Type
	Ctor  *types.Function
	Args  []Expr
}

// NewCtorCall validates arity/assignability like NewFnCall and sets the
// call's result to an instance of ctor's owning type (the Type whose
// NameSet the constructor was declared under).
func NewCtorCall(pos diagnostics.SrcPos, ctor *types.Function, args []Expr) (*CtorCall, error) {
	owner, ok := ownerType(ctor)
	if !ok {
		return nil, diagnostics.New(diagnostics.InternalError, pos,
			"constructor %q has no owning Type", ctor.Name())
	}
	params := ctor.Params()
	if len(params) != len(args) {
		return nil, diagnostics.New(diagnostics.SyntaxError, pos,
			"%s constructor expects %d arguments, got %d", owner.Name(), len(params), len(args))
	}
	for i, p := range params {
		if !p.CanStore(args[i].Result().Value) {
			return nil, diagnostics.New(diagnostics.TypeError, pos,
				"constructor argument %d: cannot pass %s as %s", i+1, args[i].Result().Value, p)
		}
	}
	return &CtorCall{exprBase: exprBase{pos: pos, res: Result(value.Value{Type: owner})}, Owner: owner, Ctor: ctor, Args: args}, nil
}

// ownerType walks fn's parent chain looking for the enclosing Type, the
// same pattern internal/types' visibility checks use.
func ownerType(fn *types.Function) (*types.Type, bool) {
	var n name.NameLookup = fn.ParentLookup()
	for n != nil {
		if ns, ok := n.(*name.NameSet); ok {
			if t, ok := ns.Owner().(*types.Type); ok {
				return t, true
			}
		}
		if t, ok := n.(*types.Type); ok {
			return t, true
		}
		n = n.Parent()
	}
	return nil, false
}

// FindAutoCastCtor searches to's own constructors (CtorName overloads) for
// one marked FnAutoCast whose single parameter accepts from (spec §4.7
// "reached through a cast-marked constructor").
func FindAutoCastCtor(to *types.Type, from value.Value) *types.Function {
	for _, n := range to.All() {
		fn, ok := n.(*types.Function)
		if !ok || fn.Name() != CtorName || !fn.Flags.Has(types.FnAutoCast) {
			continue
		}
		params := fn.Params()
		if len(params) == 1 && params[0].CanStore(from) {
			return fn
		}
	}
	return nil
}

var (
	_ Expr = (*FnCall)(nil)
	_ Expr = (*CtorCall)(nil)
)
