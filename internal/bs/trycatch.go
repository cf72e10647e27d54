package bs

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// CatchClause handles one exception type inside a Try. Type must derive
// from the root Exception type (spec §4.7 "each catch handler's declared
// type must derive from the root Exception type").
type CatchClause struct {
	ExcVar *LocalVar
	Body   *Block
}

// Try is the try/catch construct (spec §4.7 "Try/Catch"). The try block
// allocates an outer slot for the exception pointer (ExcSlot) so that catch
// handlers can enter their own block without clobbering registers the try
// body is still using.
type Try struct {
	exprBase
	Body    *Block
	Catches []CatchClause
	ExcSlot *LocalVar
}

// NewTry validates each catch clause's declared type derives from
// exceptionRoot, then computes the construct's result as the common
// ancestor of the try body's result and every catch body's result (spec
// §4.2 Common), matching how a Condition's branches combine.
func NewTry(pos diagnostics.SrcPos, body *Block, catches []CatchClause, excSlot *LocalVar, exceptionRoot *types.Type) (*Try, error) {
	for _, c := range catches {
		t, ok := c.ExcVar.VarType.Type.(*types.Type)
		if !ok || !(t == exceptionRoot || t.Chain().IsA(exceptionRoot.Chain())) {
			return nil, diagnostics.New(diagnostics.TypeError, c.ExcVar.Pos(),
				"catch type %s does not derive from %s", c.ExcVar.VarType, exceptionRoot.Name())
		}
	}

	result := bodyResult(body)
	for _, c := range catches {
		result = value.Common(result, bodyResult(c.Body))
	}

	return &Try{
		exprBase: exprBase{pos: pos, res: Result(result)},
		Body:     body, Catches: catches, ExcSlot: excSlot,
	}, nil
}

func bodyResult(b *Block) value.Value {
	if len(b.Body) == 0 {
		return value.Void
	}
	last := b.Body[len(b.Body)-1].Result()
	if !last.Returns {
		return value.Void
	}
	return last.Value
}

var _ Expr = (*Try)(nil)
