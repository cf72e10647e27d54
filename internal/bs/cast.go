package bs

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// LiteralCastable is implemented by an Expr whose own value can silently
// narrow/widen into a numeric-like target without invoking a constructor
// (spec §4.7 "100 x expr.castPenalty(to) for expression-level conversions
// (literals)"). CastPenalty returns a penalty >= 0, or -1 if this
// expression cannot convert to to at all.
type LiteralCastable interface {
	CastPenalty(to value.Value) int
}

// CastPenalty implements spec §4.7's auto-casting score: 0 if assignable,
// 100*expr.castPenalty(to) for a literal-level conversion, 1000 if only
// reachable through a cast-marked (FnAutoCast) constructor on to, -1 if
// none of these apply. Overload resolution (SimplePart.Badness) does not
// consult it, and CastTo applies its own checks rather than calling it.
func CastPenalty(expr Expr, to value.Value) int {
	from := expr.Result().Value
	if to.CanStore(from) {
		return 0
	}
	if lc, ok := expr.(LiteralCastable); ok {
		if p := lc.CastPenalty(to); p >= 0 {
			return 100 * p
		}
	}
	if t, ok := to.Type.(*types.Type); ok && FindAutoCastCtor(t, from) != nil {
		return 1000
	}
	return -1
}

// CastTo materializes a conversion: an identity pass-through when
// assignable, or a CtorCall wrapping a matching FnAutoCast constructor
// otherwise. Returns a TypeError in every other case, including a
// literal-level conversion that CastPenalty scores as possible.
func CastTo(expr Expr, to value.Value) (Expr, error) {
	from := expr.Result().Value
	if to.CanStore(from) {
		return expr, nil
	}
	if t, ok := to.Type.(*types.Type); ok {
		if ctor := FindAutoCastCtor(t, from); ctor != nil {
			return NewCtorCall(expr.SrcPos(), ctor, []Expr{expr})
		}
	}
	return nil, diagnostics.New(diagnostics.TypeError, expr.SrcPos(), "cannot cast %s to %s", from, to)
}
