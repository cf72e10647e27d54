package bs

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/value"
)

// ExprBlock sequences a Block's expressions (spec §4.7 "ExprBlock"): if any
// non-terminal expression never returns, the block's own result is nothing;
// otherwise the block's result is its last expression's result. Unreachable
// is the index of the first expression found after a non-returning one, or
// -1 if every expression is reachable.
type ExprBlock struct {
	Block       *Block
	Unreachable int
}

// NewExprBlock wraps block without scanning it: Unreachable starts at -1
// and is set by Result, the pass that computes the block-level result and
// flags dead code (spec §4.7 "Output includes an `// unreachable code:`
// marker").
func NewExprBlock(block *Block) *ExprBlock {
	eb := &ExprBlock{Block: block, Unreachable: -1}
	return eb
}

// Result computes the block's ExprResult fresh from its current Body,
// matching the spec's per-evaluation rule rather than caching at
// construction time (a Block's Body can still grow while its frontend is
// being assembled).
func (eb *ExprBlock) Result() ExprResult {
	neverReturns := false
	for i, e := range eb.Block.Body {
		if neverReturns && eb.Unreachable < 0 {
			eb.Unreachable = i
		}
		if !e.Result().Returns {
			neverReturns = true
		}
	}
	if neverReturns {
		return Nothing
	}
	if len(eb.Block.Body) == 0 {
		return Result(value.Void)
	}
	return eb.Block.Body[len(eb.Block.Body)-1].Result()
}

func (eb *ExprBlock) SrcPos() diagnostics.SrcPos { return eb.Block.pos }

var _ Expr = (*ExprBlock)(nil)
