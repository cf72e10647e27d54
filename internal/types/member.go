package types

import "github.com/stormlang/storm/internal/value"

// MemberVar is (name, type, owner, offset) — spec §3. Offset is assigned
// once, by FinalizeLayout, and never mutated afterward.
type MemberVar struct {
	VarName string
	VarType value.Value
	Owner   *Type
	Offset  uintptr
}
