// Package bs implements the Basic-Storm AST (spec §4.7, component C7): the
// representative hosted-language frontend showing how Block/Scope, Condition,
// auto-casting, calls, try/catch, break/continue, and operator reshaping sit
// on top of the shared substrate (internal/name, internal/scope,
// internal/types, internal/value).
package bs

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/value"
)

// LocalVar is a block-scoped variable binding (spec §4.7 "VarMap<Str ->
// LocalVar>").
type LocalVar struct {
	name.Base
	VarType value.Value
}

func NewLocalVar(n string, t value.Value, pos diagnostics.SrcPos) *LocalVar {
	return &LocalVar{Base: name.NewBase(n, nil, pos), VarType: t}
}

func (l *LocalVar) AsValue() value.Value { return l.VarType }

var _ name.ValueProvider = (*LocalVar)(nil)

// BlockLookup hooks a Block into the name tree so Scope.Find resolves
// locals before reaching enclosing scopes (spec §4.7 "a BlockLookup that
// hooks the block into the name tree"). It forwards everything except
// Find/Parent to the owning Block so one Block need not itself satisfy the
// full name.NameLookup method set twice.
type BlockLookup struct {
	block *Block
}

func (b *BlockLookup) Name() string                      { return "<block>" }
func (b *BlockLookup) Params() []value.Value              { return nil }
func (b *BlockLookup) Visibility() name.Visibility        { return nil }
func (b *BlockLookup) SetVisibility(name.Visibility)      {}
func (b *BlockLookup) Pos() diagnostics.SrcPos            { return b.block.pos }
func (b *BlockLookup) Doc() *diagnostics.Doc              { return nil }
func (b *BlockLookup) ParentLookup() name.NameLookup      { return b.block.parent }
func (b *BlockLookup) SetParentLookup(p name.NameLookup)  { b.block.parent = p }
func (b *BlockLookup) Parent() name.NameLookup            { return b.block.parent }

func (b *BlockLookup) Find(part name.SimplePart) (name.Named, error) {
	if lv, ok := b.block.vars[part.PName]; ok {
		return lv, nil
	}
	return nil, nil
}

var _ name.NameLookup = (*BlockLookup)(nil)

// Block owns a VarMap of locals and the BlockLookup wiring it into the
// enclosing scope chain (spec §4.7 "Block"). Body holds the sequence of
// expressions the block evaluates, same order as declared.
type Block struct {
	Lookup *BlockLookup
	Body   []Expr

	// Owner is set when this Block is a loop's body, so Break/Continue can
	// find the nearest enclosing loop by walking the BlockLookup chain
	// (spec §4.7 "Break/Continue resolve up the BlockLookup chain to the
	// nearest Breakable block"). nil for an ordinary (non-loop) block.
	Owner Breakable

	vars   map[string]*LocalVar
	order  []string
	parent name.NameLookup
	pos    diagnostics.SrcPos
}

func NewBlock(parent name.NameLookup, pos diagnostics.SrcPos) *Block {
	b := &Block{vars: make(map[string]*LocalVar), parent: parent, pos: pos}
	b.Lookup = &BlockLookup{block: b}
	return b
}

// AddVar declares a new local, rejecting a name already bound in this block
// (shadowing an outer scope's binding is fine; redeclaring in the same
// block is not).
func (b *Block) AddVar(lv *LocalVar) error {
	if _, exists := b.vars[lv.Name()]; exists {
		return diagnostics.New(diagnostics.SyntaxError, lv.Pos(),
			"local variable %q already declared in this block", lv.Name())
	}
	b.vars[lv.Name()] = lv
	b.order = append(b.order, lv.Name())
	lv.SetParentLookup(b.Lookup)
	return nil
}

// Locals returns every declared local in declaration order.
func (b *Block) Locals() []*LocalVar {
	out := make([]*LocalVar, len(b.order))
	for i, n := range b.order {
		out[i] = b.vars[n]
	}
	return out
}

// LiftVars copies child's locals into b. Restricted to one hierarchy level
// (spec §4.7 "liftVars(child) is restricted to one hierarchy level to keep
// scoping sound"): only child's own locals are copied, not those of any
// block nested inside child. Condition does not call it: a weak-cast local
// stays in its CondSuccess block.
func (b *Block) LiftVars(child *Block) error {
	for _, n := range child.order {
		if err := b.AddVar(child.vars[n]); err != nil {
			return err
		}
	}
	return nil
}
