// Package value implements Value and TypeChain (spec §3, §4.2, component C2):
// the polymorphic operand descriptor and the Cohen-style inheritance vector
// that gives O(1) subtype tests.
package value

import "fmt"

// Type is the minimal contract TypeChain and Value need from a real Storm
// Type (defined fully in internal/types, which embeds a *TypeChain and
// satisfies this interface). Kept separate from internal/types to avoid an
// import cycle: internal/types builds on top of Value, not the other way
// around.
type Type interface {
	Name() string
	Chain() *TypeChain
	IsClass() bool
	IsActor() bool
	IsValue() bool
	// BuiltIn reports the operand metadata the code generator needs for
	// built-in kinds (spec §4.2 "Built-in operand metadata"); ok is false
	// for user-defined types.
	BuiltIn() (size int, isFloat bool, ok bool)
}

// MatchFlags tune Value.matches beyond the default canStore rule.
type MatchFlags uint8

const (
	MatchDefault MatchFlags = 0
	// MatchNoInheritance requires exact type equality (spec §4.2).
	MatchNoInheritance MatchFlags = 1 << iota
)

// Value is a (type?, by-ref) operand descriptor. A nil Type denotes void
// ("no type"); void is never by-ref.
type Value struct {
	Type  Type
	ByRef bool
}

// Void is the canonical (⊥, false) value. Per spec §3 it compares equal
// only to itself.
var Void = Value{}

func (v Value) IsVoid() bool { return v.Type == nil }

// AsRef returns a copy of v with ByRef set to ref. Void values are never
// by-ref: the invariant is enforced here rather than left to callers.
func (v Value) AsRef(ref bool) Value {
	if v.IsVoid() {
		return v
	}
	return Value{Type: v.Type, ByRef: ref}
}

func (v Value) IsClass() bool { return !v.IsVoid() && v.Type.IsClass() }
func (v Value) IsActor() bool { return !v.IsVoid() && v.Type.IsActor() }
func (v Value) IsValue() bool { return !v.IsVoid() && v.Type.IsValue() }

// IsHeapObj is isClass || isActor (spec §4.2).
func (v Value) IsHeapObj() bool { return v.IsClass() || v.IsActor() }

func (v Value) IsBuiltIn() bool {
	if v.IsVoid() {
		return false
	}
	_, _, ok := v.Type.BuiltIn()
	return ok
}

// ValType returns the (size, isFloat) pair the code generator uses for
// built-in operands.
func (v Value) ValType() (size int, isFloat bool, ok bool) {
	if v.IsVoid() {
		return 0, false, false
	}
	return v.Type.BuiltIn()
}

func (v Value) Equal(o Value) bool {
	if v.IsVoid() && o.IsVoid() {
		return true
	}
	return v.Type == o.Type && v.ByRef == o.ByRef
}

func (v Value) String() string {
	if v.IsVoid() {
		return "void"
	}
	suffix := ""
	if v.ByRef {
		suffix = "&"
	}
	return fmt.Sprintf("%s%s", v.Type.Name(), suffix)
}

// CanStore reports whether a value described by other may be written
// through a slot typed self (spec §4.2 Value.canStore).
func (self Value) CanStore(other Value) bool {
	if self.IsVoid() {
		return true
	}
	if other.IsVoid() {
		return false
	}
	if self.Type.IsClass() && other.IsValue() {
		// A value-mode operand cannot satisfy a reference slot unless the
		// caller has already matched (e.g. boxed); plain assignment can't.
		return false
	}
	return other.Type.Chain().IsA(self.Type.Chain())
}

// Matches is CanStore, except MatchNoInheritance demands exact equality.
func (self Value) Matches(other Value, flags MatchFlags) bool {
	if flags&MatchNoInheritance != 0 {
		if self.IsVoid() || other.IsVoid() {
			return self.IsVoid() && other.IsVoid()
		}
		return self.Type == other.Type
	}
	return self.CanStore(other)
}

// Common returns the lowest common ancestor of a and b's types (spec §4.2),
// void when unrelated. A void operand yields the other side unchanged
// (models "never returns").
func Common(a, b Value) Value {
	if a.IsVoid() {
		return b
	}
	if b.IsVoid() {
		return a
	}
	anc := a.Type.Chain().CommonAncestor(b.Type.Chain())
	if anc == nil {
		return Void
	}
	return Value{Type: anc.Owner()}
}
