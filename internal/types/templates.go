package types

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/value"
)

// genericType builds the Type instantiated by a builtin container template:
// always a final heap-allocated class, named by its already-formatted
// SimplePart (e.g. "Array(core.Int)") so each instantiation is its own
// unique Named under the owning NameSet (spec §3 "templates").
func genericType(owner *name.NameSet, part name.SimplePart, flags Flags) *Type {
	base := name.NewBase(part.PName, part.Params, diagnostics.NoPos)
	t := NewType(base, flags)
	t.SetParentLookup(owner)
	return t
}

// ArrayTemplate instantiates Array<T>: a final, heap-allocated, homogeneous
// growable sequence (spec §4.3 built-in templates).
type ArrayTemplate struct{}

func (ArrayTemplate) CreateTemplate(owner *name.NameSet, part name.SimplePart) (name.Named, error) {
	if part.PName != "Array" || len(part.Params) != 1 {
		return nil, nil
	}
	elem := part.Params[0]
	if elem.IsVoid() {
		return nil, diagnostics.New(diagnostics.TypedefError, diagnostics.NoPos,
			"Array cannot be instantiated with void")
	}
	t := genericType(owner, part, FlagClass|FlagFinal)
	t.AddMember(&MemberVar{VarName: "data", VarType: elem.AsRef(true)})
	return t, nil
}

// MaybeTemplate instantiates Maybe<T>: a value-kind optional wrapper around
// T (spec §4.3). Value kind because Maybe<T> is stored inline, never on its
// own heap allocation, matching the teacher's value-type generics.
type MaybeTemplate struct{}

func (MaybeTemplate) CreateTemplate(owner *name.NameSet, part name.SimplePart) (name.Named, error) {
	if part.PName != "Maybe" || len(part.Params) != 1 {
		return nil, nil
	}
	inner := part.Params[0]
	if inner.IsVoid() {
		return nil, diagnostics.New(diagnostics.TypedefError, diagnostics.NoPos,
			"Maybe cannot wrap void")
	}
	t := genericType(owner, part, FlagValue|FlagFinal)
	t.AddMember(&MemberVar{VarName: "hasValue", VarType: value.Value{}})
	t.AddMember(&MemberVar{VarName: "value", VarType: inner})
	return t, nil
}

// MapTemplate instantiates Map<K, V>: a final, heap-allocated hash map
// (spec §4.3).
type MapTemplate struct{}

func (MapTemplate) CreateTemplate(owner *name.NameSet, part name.SimplePart) (name.Named, error) {
	if part.PName != "Map" || len(part.Params) != 2 {
		return nil, nil
	}
	key, val := part.Params[0], part.Params[1]
	if key.IsVoid() || val.IsVoid() {
		return nil, diagnostics.New(diagnostics.TypedefError, diagnostics.NoPos,
			"Map key and value must not be void")
	}
	t := genericType(owner, part, FlagClass|FlagFinal)
	t.AddMember(&MemberVar{VarName: "buckets", VarType: value.Value{}})
	return t, nil
}

// FnTemplate instantiates Fn<R, P...>: a final, heap-allocated callable
// value wrapping a function pointer and captured environment (spec §4.3).
// part.Params[0] is the result type; the remainder are parameter types.
type FnTemplate struct{}

func (FnTemplate) CreateTemplate(owner *name.NameSet, part name.SimplePart) (name.Named, error) {
	if part.PName != "Fn" || len(part.Params) < 1 {
		return nil, nil
	}
	t := genericType(owner, part, FlagClass|FlagFinal)
	t.AddMember(&MemberVar{VarName: "fn", VarType: value.Value{}})
	t.AddMember(&MemberVar{VarName: "env", VarType: value.Value{}})
	return t, nil
}

var (
	_ name.Template = ArrayTemplate{}
	_ name.Template = MaybeTemplate{}
	_ name.Template = MapTemplate{}
	_ name.Template = FnTemplate{}
)
