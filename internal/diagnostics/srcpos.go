// Package diagnostics implements Storm's error taxonomy, source positions,
// and deferred documentation extraction (spec §4.9).
package diagnostics

import "fmt"

// SrcPos is an immutable (file, offset, length) triple. File may be empty
// for synthetic entities (template instances, compiler-generated locals).
type SrcPos struct {
	File   string
	Offset int
	Length int
}

// NoPos is the position used for synthetic, compiler-generated entities.
var NoPos = SrcPos{}

func (p SrcPos) IsSynthetic() bool {
	return p.File == ""
}

func (p SrcPos) String() string {
	if p.IsSynthetic() {
		return "<synthetic>"
	}
	return fmt.Sprintf("%s:%d+%d", p.File, p.Offset, p.Length)
}

// End returns the offset one past the last byte this position covers.
func (p SrcPos) End() int {
	return p.Offset + p.Length
}

// Contains reports whether q lies entirely within p (same file).
func (p SrcPos) Contains(q SrcPos) bool {
	return p.File == q.File && q.Offset >= p.Offset && q.End() <= p.End()
}
