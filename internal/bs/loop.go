package bs

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/value"
)

// Breakable is implemented by a loop construct so Break/Continue can resolve
// up the BlockLookup chain to the nearest enclosing loop and register intent
// (spec §4.7 "Break/Continue resolve up the BlockLookup chain to the nearest
// Breakable block and register intent (willBreak/willContinue); the loop
// chooses its labels accordingly").
type Breakable interface {
	MarkWillBreak()
	MarkWillContinue()
}

// While is a condition-tested loop (spec §4.7 loop constructs). Cond reuses
// Condition so a `while` can weak-cast exactly like an `if` (spec §4.7
// Condition "the unifying abstraction over boolean if/loops"). willBreak and
// willContinue record whether any Break/Continue inside Body actually
// targets this loop, which the generator contract uses to decide whether the
// loop needs a break/continue label at all.
type While struct {
	exprBase
	Cond         *Condition
	Body         *Block
	willBreak    bool
	willContinue bool
}

// NewWhile links body's block to the new While so nested Break/Continue can
// find it, and sets Body.Owner accordingly.
func NewWhile(pos diagnostics.SrcPos, cond *Condition, body *Block) *While {
	w := &While{exprBase: exprBase{pos: pos, res: Result(value.Void)}, Cond: cond, Body: body}
	body.Owner = w
	return w
}

func (w *While) MarkWillBreak()     { w.willBreak = true }
func (w *While) MarkWillContinue()  { w.willContinue = true }
func (w *While) WillBreak() bool    { return w.willBreak }
func (w *While) WillContinue() bool { return w.willContinue }

var (
	_ Breakable = (*While)(nil)
	_ Expr      = (*While)(nil)
)

// resolveBreakable walks start's NameLookup chain looking for the nearest
// Block whose Owner is a loop, the same parent-walk pattern ownerType (in
// call.go) uses to find an enclosing Type.
func resolveBreakable(start name.NameLookup) (Breakable, error) {
	for n := start; n != nil; n = n.Parent() {
		if bl, ok := n.(*BlockLookup); ok && bl.block.Owner != nil {
			return bl.block.Owner, nil
		}
	}
	return nil, diagnostics.New(diagnostics.SyntaxError, diagnostics.NoPos,
		"break/continue used outside of any loop")
}

// Break is `break`, a non-returning expression that marks its target loop's
// willBreak intent at construction time (spec §4.7).
type Break struct {
	exprBase
	Target Breakable
}

// NewBreak resolves the nearest enclosing Breakable starting at scope (the
// BlockLookup of the block containing the break statement) and registers
// break intent on it.
func NewBreak(pos diagnostics.SrcPos, scope name.NameLookup) (*Break, error) {
	target, err := resolveBreakable(scope)
	if err != nil {
		return nil, err
	}
	target.MarkWillBreak()
	return &Break{exprBase: exprBase{pos: pos, res: Nothing}, Target: target}, nil
}

// Continue is `continue`, resolved and registered the same way as Break.
type Continue struct {
	exprBase
	Target Breakable
}

func NewContinue(pos diagnostics.SrcPos, scope name.NameLookup) (*Continue, error) {
	target, err := resolveBreakable(scope)
	if err != nil {
		return nil, err
	}
	target.MarkWillContinue()
	return &Continue{exprBase: exprBase{pos: pos, res: Nothing}, Target: target}, nil
}

var (
	_ Expr = (*Break)(nil)
	_ Expr = (*Continue)(nil)
)
