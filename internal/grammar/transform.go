package grammar

import "github.com/stormlang/storm/internal/diagnostics"

// TransformExpr is a generated-per-production expression evaluated while
// constructing `me` or a constructor argument (spec §4.6 step 1). Concrete
// expressions (literals, member reads, constructor calls) are supplied by
// the hosting frontend (internal/bs); grammar only needs to invoke them.
type TransformExpr interface {
	Eval(ctx *TransformContext) (any, error)
}

// TransformContext threads the state one production match needs while its
// transform function runs: the captured per-member values and the
// matched InfoInternal (for position info on errors).
type TransformContext struct {
	Captured map[string]any
	Node     *InfoInternal
	// Invokers maps an invoke-method name (Token.Invoke()) to the function
	// it calls on `me` with the captured value, standing in for the
	// generated call the real code generator would emit (out of scope,
	// spec §1).
	Invokers map[string]func(me *Instance, val any) error
}

// Instance is the runtime representation of a matched production: the
// ProductionType it instantiated plus its populated member fields (spec
// §4.6 "the production type instance with its member variables
// populated").
type Instance struct {
	Type   *ProductionType
	Fields map[string]any
}

// Transform turns a production match into its AST fragment, following the
// four steps of spec §4.6:
//  1. construct `me` (named "me" parameter, declared result expression, or
//     default zero-value instance of the production type);
//  2. assign each captured member in token order, rejecting a member
//     captured by more than one token (tracked in a visited set); no
//     dependency ordering between members is computed;
//  3. call each invoke-marked token's setter on `me`;
//  4. the three repetition modes are handled by the caller feeding
//     Captured as either a single value (none/?) or a slice (+/*) before
//     Transform runs — Transform itself is repetition-agnostic.
func Transform(prod *Production, ctx *TransformContext) (*Instance, error) {
	me, err := constructMe(prod, ctx)
	if err != nil {
		return nil, err
	}

	visited := make(map[string]bool)
	for _, tok := range prod.Tokens {
		target := tok.Target()
		if target == nil {
			continue
		}
		if visited[target.VarName] {
			return nil, diagnostics.New(diagnostics.InternalError, prod.Pos(),
				"member %q captured by more than one token in production %q", target.VarName, prod.Name())
		}
		visited[target.VarName] = true
		val, ok := ctx.Captured[target.VarName]
		if !ok {
			continue
		}
		me.Fields[target.VarName] = val
	}

	for _, tok := range prod.Tokens {
		if tok.Invoke() == "" {
			continue
		}
		fn, ok := ctx.Invokers[tok.Invoke()]
		if !ok {
			continue
		}
		target := tok.Target()
		var val any
		if target != nil {
			val = ctx.Captured[target.VarName]
		}
		if err := fn(me, val); err != nil {
			return nil, err
		}
	}

	return me, nil
}

func constructMe(prod *Production, ctx *TransformContext) (*Instance, error) {
	if v, ok := ctx.Captured["me"]; ok {
		if inst, ok := v.(*Instance); ok {
			return inst, nil
		}
		return nil, diagnostics.New(diagnostics.InternalError, prod.Pos(),
			"production %q's \"me\" parameter did not capture a production instance", prod.Name())
	}
	if prod.ResultExpr != nil {
		v, err := prod.ResultExpr.Eval(ctx)
		if err != nil {
			return nil, err
		}
		if inst, ok := v.(*Instance); ok {
			return inst, nil
		}
		return nil, diagnostics.New(diagnostics.InternalError, prod.Pos(),
			"production %q's result expression did not produce an instance", prod.Name())
	}
	if prod.Owner == nil {
		return nil, diagnostics.New(diagnostics.InternalError, prod.Pos(),
			"production %q has no generated ProductionType to construct", prod.Name())
	}
	return &Instance{Type: prod.Owner, Fields: make(map[string]any)}, nil
}
