package types

import (
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/value"
)

// RunOnKind is Function.RunOn's discriminant (spec §3).
type RunOnKind int

const (
	RunOnAny RunOnKind = iota
	RunOnNamed
	RunOnRuntime
)

// RunOn is the threading binding of a function: any thread, a specific
// named thread, or read from a parameter at call time (spec §3, glossary).
type RunOn struct {
	Kind   RunOnKind
	Thread *NamedThread // set iff Kind == RunOnNamed
}

func (r RunOn) Differs(other RunOn) bool {
	if r.Kind != other.Kind {
		return true
	}
	if r.Kind == RunOnNamed {
		return r.Thread != other.Thread
	}
	return false
}

// CodeRef is a late-bound code reference: may be a placeholder until code
// generation (out of scope, §1) produces a real entry point.
type CodeRef struct {
	Ready bool
	Addr  uintptr
}

// Function is (name, result, params, body-ref, flags, RunOn) — spec §3.
// Params is carried via the embedded name.Base (Named.Params()), matching
// the same (name, params) overload key every other Named entity uses.
type Function struct {
	name.Base

	Result value.Value
	Body   CodeRef
	Flags  FnFlags
	RunOn  RunOn

	parent name.NameLookup
}

func NewFunction(base name.Base, result value.Value, flags FnFlags, runOn RunOn) *Function {
	return &Function{Base: base, Result: result, Flags: flags, RunOn: runOn}
}

func (f *Function) Parent() name.NameLookup { return f.ParentLookup() }

// Find always misses: a Function is a leaf in the tree, not a container.
func (f *Function) Find(name.SimplePart) (name.Named, error) { return nil, nil }

var _ name.NameLookup = (*Function)(nil)
