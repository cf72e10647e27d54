package types

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/rtsvc"
	"github.com/stormlang/storm/internal/value"
)

// Size is a declared type size in bytes, finalized at layout time (spec §3,
// §4.5 "Member layout").
type Size struct {
	Bytes uintptr
	Align uintptr
}

// GcType describes an allocated type's pointer-offset table and finalizer,
// the minimal contract Runtime Services (C1) needs to scan and collect an
// instance (spec §3).
type GcType struct {
	PointerOffsets []uintptr
	Finalizer      func(obj any)
}

// Type extends NameSet with TypeFlags, a declared Size, a TypeChain, an
// optional thread binding (actor kinds), a GcType description, a vtable
// handle (class kind only), and computed member layout (spec §3).
type Type struct {
	*name.NameSet

	flags  Flags
	size   Size
	chain  *value.TypeChain
	thread *NamedThread
	gc     *GcType
	handle *rtsvc.TypeHandle

	vtable  []*Function // class-kind only, slot index -> Function
	members []*MemberVar

	builtIn      bool
	builtInSize  int
	builtInFloat bool

	// Member layout is never finalized before every declared member has
	// been read (the open question the teacher's Class::loadAll left,
	// spec §9): FinalizeLayout errors if the owning NameSet is not
	// FullyLoaded, so layout is always computed over the complete member
	// list.
}

// NewType constructs a Type of the given kind. Thread is required (non-nil)
// iff flags has FlagActor and RunOn is a *named* thread; a nil thread with
// FlagActor models Storm's `RunOn::runtime` (spec §3 GlobalVar/RunOn).
func NewType(base name.Base, flags Flags) *Type {
	t := &Type{NameSet: name.NewNameSet(base), flags: flags}
	t.chain = value.NewTypeChain(t)
	t.SetOwner(t)
	return t
}

func (t *Type) Flags() Flags { return t.flags }
func (t *Type) Size() Size   { return t.size }

func (t *Type) Chain() *value.TypeChain { return t.chain }

func (t *Type) IsClass() bool { return t.flags.Has(FlagClass) }
func (t *Type) IsActor() bool { return t.flags.Has(FlagActor) }
func (t *Type) IsValue() bool { return t.flags.Has(FlagValue) }
func (t *Type) IsEnum() bool  { return t.flags.Has(FlagEnum) || t.flags.Has(FlagBitmaskEnum) }
func (t *Type) IsFinal() bool { return t.flags.Has(FlagFinal) }
func (t *Type) IsAbstract() bool { return t.flags.Has(FlagAbstract) }

// IsHeapObj is isClass || isActor (spec §4.2).
func (t *Type) IsHeapObj() bool { return t.IsClass() || t.IsActor() }

// BuiltIn reports (size, isFloat, ok) for a Type that has been registered as
// a built-in primitive via SetBuiltIn; user types return ok == false.
func (t *Type) BuiltIn() (int, bool, bool) {
	if t.builtInSize == 0 && !t.builtIn {
		return 0, false, false
	}
	return t.builtInSize, t.builtInFloat, true
}

// SetBuiltIn registers this Type as a primitive operand kind (Int, Float,
// Bool, ...) with the code-generator metadata Value.ValType needs.
func (t *Type) SetBuiltIn(size int, isFloat bool) {
	t.builtIn = true
	t.builtInSize = size
	t.builtInFloat = isFloat
}

// AsValue implements scope.ValueProvider / name.ValueProvider so a Type can
// be returned directly from name resolution as a Value (by-value, non-ref
// by default).
func (t *Type) AsValue() value.Value { return value.Value{Type: t} }

// Thread returns the actor binding, or nil for value/class kinds and for
// actors using RunOn::runtime (spec §3).
func (t *Type) Thread() *NamedThread { return t.thread }
func (t *Type) SetThread(nt *NamedThread) { t.thread = nt }

func (t *Type) GcInfo() *GcType    { return t.gc }
func (t *Type) SetGcInfo(g *GcType) { t.gc = g }

func (t *Type) Handle() *rtsvc.TypeHandle     { return t.handle }
func (t *Type) SetHandle(h *rtsvc.TypeHandle) { t.handle = h }

// Super declares this type's superclass, delegating to TypeChain.Super and
// rejecting a super that does not match this type's value/class/actor kind
// (spec §4.5 kinds section: kind changes across hot reload are Replace
// errors, but declaring a super of the wrong kind outright is a Typedef
// error at load time).
func (t *Type) Super(parent *Type) error {
	if parent.flags.Kind() != t.flags.Kind() {
		return diagnostics.New(diagnostics.TypedefError, t.Pos(),
			"%s cannot inherit from %s of a different kind (%s vs %s)",
			t.Name(), parent.Name(), t.flags, parent.flags)
	}
	return t.chain.Super(parent.chain)
}

// Members returns the finalized member layout (spec §4.5 "Member layout").
func (t *Type) Members() []*MemberVar { return t.members }

// Vtable returns the class-kind virtual dispatch table, indexed by slot.
func (t *Type) Vtable() []*Function { return t.vtable }

func (t *Type) SetVtable(v []*Function) { t.vtable = v }

var (
	_ value.Type         = (*Type)(nil)
	_ name.ValueProvider = (*Type)(nil)
	_ name.NameLookup    = (*Type)(nil)
)
