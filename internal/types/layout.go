package types

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
)

// ObjectHeaderSize is the architecture-specified object header every
// class/actor instance carries before its first member (GC type pointer +
// vtable pointer on a 64-bit target). Value types have no header: they are
// embedded directly into their container's storage (spec §4.5 "Member
// layout").
const ObjectHeaderSize uintptr = 16

const pointerSize uintptr = 8

// fieldSize returns the (size, align) pair FinalizeLayout needs for one
// member: heap objects (class/actor) are stored by pointer; value types
// are embedded inline at their own declared size; built-ins use their
// code-generator metadata.
func fieldSize(m MemberVar) (uintptr, uintptr) {
	if m.VarType.IsVoid() {
		return 0, 1
	}
	if m.VarType.IsHeapObj() || m.VarType.ByRef {
		return pointerSize, pointerSize
	}
	if size, _, ok := m.VarType.ValType(); ok {
		return uintptr(size), uintptr(size)
	}
	if t, ok := m.VarType.Type.(*Type); ok {
		sz := t.Size()
		if sz.Bytes > 0 {
			return sz.Bytes, sz.Align
		}
	}
	return pointerSize, pointerSize
}

func align(offset, a uintptr) uintptr {
	if a <= 1 {
		return offset
	}
	rem := offset % a
	if rem == 0 {
		return offset
	}
	return offset + (a - rem)
}

// FinalizeLayout computes member offsets: super-class first (continuing
// from the architecture object header for a root class/actor), then own
// members packed with natural alignment (spec §4.5). It requires the
// owning NameSet to be FullyLoaded — computing layout over a partially
// loaded type would silently drop members declared by a not-yet-read file,
// which the teacher's own Class::loadAll TODO left unresolved (spec §9);
// Storm's answer is to refuse instead of guessing.
func (t *Type) FinalizeLayout() error {
	if t.State() != name.FullyLoaded {
		return diagnostics.New(diagnostics.InternalError, t.Pos(),
			"cannot finalize layout of %q before it is fully loaded", t.Name())
	}

	var offset uintptr
	var maxAlign uintptr = 1

	if super := t.superType(); super != nil {
		if err := super.FinalizeLayout(); err != nil && super.State() == name.FullyLoaded {
			return err
		}
		offset = super.size.Bytes
		maxAlign = super.size.Align
	} else if t.IsHeapObj() {
		offset = ObjectHeaderSize
		maxAlign = pointerSize
	}

	for _, m := range t.members {
		size, a := fieldSize(*m)
		offset = align(offset, a)
		m.Offset = offset
		offset += size
		if a > maxAlign {
			maxAlign = a
		}
	}
	offset = align(offset, maxAlign)
	t.size = Size{Bytes: offset, Align: maxAlign}
	return nil
}

// superType returns the direct superclass Type, if any, derived from the
// TypeChain (the entry immediately before self).
func (t *Type) superType() *Type {
	chain := t.chain.Ancestors()
	if len(chain) < 2 {
		return nil
	}
	super, _ := chain[len(chain)-2].(*Type)
	return super
}

// AddMember appends a declared member variable; offsets remain zero until
// FinalizeLayout runs.
func (t *Type) AddMember(m *MemberVar) {
	m.Owner = t
	t.members = append(t.members, m)
}
