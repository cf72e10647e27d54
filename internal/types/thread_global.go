package types

import (
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/rtsvc"
	"github.com/stormlang/storm/internal/value"
)

// NamedThread wraps a runtime thread object as a Named entity so actor
// declarations can reference it by name (spec §3).
type NamedThread struct {
	name.Base
	Runtime *rtsvc.Thread
}

func NewNamedThread(base name.Base, rt *rtsvc.Thread) *NamedThread {
	return &NamedThread{Base: base, Runtime: rt}
}

func (t *NamedThread) Parent() name.NameLookup                    { return t.ParentLookup() }
func (t *NamedThread) Find(name.SimplePart) (name.Named, error)    { return nil, nil }

// GlobalVar is (type, thread, allocator) — spec §3. It is read or written
// only on its owning thread; cross-thread access must go through a
// reified call (spec §5).
type GlobalVar struct {
	name.Base
	VarType   value.Value
	Thread    *NamedThread
	Allocator func() any
}

func NewGlobalVar(base name.Base, varType value.Value, thread *NamedThread) *GlobalVar {
	return &GlobalVar{Base: base, VarType: varType, Thread: thread}
}

func (g *GlobalVar) Parent() name.NameLookup                 { return g.ParentLookup() }
func (g *GlobalVar) Find(name.SimplePart) (name.Named, error) { return nil, nil }

var (
	_ name.NameLookup = (*NamedThread)(nil)
	_ name.NameLookup = (*GlobalVar)(nil)
)
