// Package types implements the Storm type system over the name tree (spec
// §3, §4.5, component C5): Type (value/class/actor/enum/template-instance),
// MemberVar, Function, Visibility, and templates.
package types

// Flags is TypeFlags (spec §3): a bitmask combining the type's kind with
// modifier bits. Exactly one kind bit is set on any well-formed Type.
type Flags uint16

const (
	FlagValue Flags = 1 << iota
	FlagClass
	FlagActor
	FlagEnum
	FlagBitmaskEnum
	FlagFinal
	FlagAbstract
	FlagCppPod
	FlagCppSimple
)

var kindFlags = FlagValue | FlagClass | FlagActor | FlagEnum | FlagBitmaskEnum

func (f Flags) Kind() Flags { return f & kindFlags }

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

func (f Flags) String() string {
	switch f.Kind() {
	case FlagValue:
		return "value"
	case FlagClass:
		return "class"
	case FlagActor:
		return "actor"
	case FlagEnum:
		return "enum"
	case FlagBitmaskEnum:
		return "bitmask enum"
	default:
		return "unknown"
	}
}

// FnFlags are Function modifier bits (spec §4.5).
type FnFlags uint8

const (
	FnPure FnFlags = 1 << iota
	FnAutoCast
	FnStatic
	FnFinal
	FnAssign
)

func (f FnFlags) Has(flag FnFlags) bool { return f&flag != 0 }
