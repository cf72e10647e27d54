package bs

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/value"
)

// MaybeUnwrap is implemented by a value.Type that wraps an inner type the
// way Maybe<T> does (spec §4.7 Condition "a Maybe unwrap"). internal/bs does
// not own any built-in type itself, so a weak cast recognizes a Maybe-shape
// value only through this optional contract rather than a hard-coded name.
type MaybeUnwrap interface {
	value.Type
	Inner() value.Value
}

// Condition is the unifying abstraction over boolean conditions and weak
// casts (spec §4.7 "Condition ... the unifying abstraction over boolean
// if/loops and 'weak casts'"). CondSuccess is the then-branch's scope: for a
// weak cast it declares the unwrapped local, for a plain bool condition it
// introduces no extra bindings.
type Condition struct {
	Source      Expr
	IsWeakCast  bool
	CondSuccess *Block
	WeakCastVar *LocalVar
}

// CreateCondition implements createCondition(expr) (spec §4.7): pick a bool
// condition, a Maybe unwrap, or raise a Syntax error. capturedName names the
// local a successful weak cast introduces in CondSuccess (the `as` target,
// or the expression's own name for a bare `if x` unwrap).
func CreateCondition(parent name.NameLookup, pos diagnostics.SrcPos, expr Expr, boolType value.Value, capturedName string) (*Condition, error) {
	v := expr.Result().Value
	success := NewBlock(parent, pos)

	if v.Matches(boolType, value.MatchNoInheritance) {
		return &Condition{Source: expr, CondSuccess: success}, nil
	}

	if mu, ok := v.Type.(MaybeUnwrap); ok {
		inner := mu.Inner()
		lv := NewLocalVar(capturedName, inner, pos)
		if err := success.AddVar(lv); err != nil {
			return nil, err
		}
		return &Condition{Source: expr, IsWeakCast: true, CondSuccess: success, WeakCastVar: lv}, nil
	}

	return nil, diagnostics.New(diagnostics.SyntaxError, pos,
		"%s is neither a Bool condition nor a weak-castable Maybe value", v)
}

// If is the `if`/`else` construct built directly on Condition (spec §4.7
// "Condition ... the unifying abstraction over boolean if/loops"): Then
// runs in Cond.CondSuccess so a weak cast's unwrapped local is visible
// there, Else is nil for a bare `if` with no else-branch. Its own result is
// the common ancestor of both branches (value.Common), matching the way
// Try folds its body and catch-clause results.
type If struct {
	exprBase
	Cond *Condition
	Else *Block
}

// NewIf computes If's result the same way NewTry computes Try's: Void when
// a branch is missing or never returns, otherwise the common ancestor of
// whichever branches do return.
func NewIf(pos diagnostics.SrcPos, cond *Condition, elseBlock *Block) *If {
	result := bodyResult(cond.CondSuccess)
	if elseBlock != nil {
		result = value.Common(result, bodyResult(elseBlock))
	} else {
		result = value.Void
	}
	return &If{exprBase: exprBase{pos: pos, res: Result(result)}, Cond: cond, Else: elseBlock}
}

var _ Expr = (*If)(nil)
