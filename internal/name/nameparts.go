// Package name implements Storm's name tree data model (spec §3, §4.3,
// component C3): Name/SimpleName/NamePart, NameOverloads, and the
// lazily-loaded NameSet/Package hierarchy.
package name

import (
	"strings"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/value"
)

// NamePart is the common base of SimplePart and RecPart: every part of a
// Name carries a plain string label.
type NamePart interface {
	PartName() string
}

// SimplePart is a resolved name part: its parameters are already concrete
// Values. SimplePart is the unit overload resolution matches against.
type SimplePart struct {
	PName  string
	Params []value.Value
}

func (p SimplePart) PartName() string { return p.PName }

func (p SimplePart) String() string {
	if len(p.Params) == 0 {
		return p.PName
	}
	parts := make([]string, len(p.Params))
	for i, v := range p.Params {
		parts[i] = v.String()
	}
	return p.PName + "(" + strings.Join(parts, ", ") + ")"
}

// Badness scores how well actual (a concrete parameter list, e.g. at a call
// site) matches this part's formal Params: 0 is exact, positive is the sum
// of per-parameter subtype distances, -1 means incompatible (spec §3, §4.4).
func (p SimplePart) Badness(actual []value.Value) int {
	if len(actual) != len(p.Params) {
		return -1
	}
	total := 0
	for i, formal := range p.Params {
		av := actual[i]
		if av.IsVoid() {
			continue // an exact void actual never adds badness (spec §4.4)
		}
		if formal.IsVoid() {
			return -1
		}
		if !formal.CanStore(av) {
			return -1
		}
		d := av.Type.Chain().Distance(formal.Type.Chain())
		if d < 0 {
			return -1
		}
		total += d
	}
	return total
}

// RecPart is an unresolved name part: its parameters are recursive Names
// that must be resolved against a Scope before it becomes a SimplePart
// (spec §3).
type RecPart struct {
	PName  string
	Params []Name
}

func (p RecPart) PartName() string { return p.PName }

// Resolve turns a RecPart into a SimplePart by resolving each parameter
// Name to a Value via the supplied resolver (normally Scope.Value, but
// kept as a function to avoid internal/name depending on internal/scope).
func (p RecPart) Resolve(resolve func(Name) (value.Value, error)) (SimplePart, error) {
	params := make([]value.Value, len(p.Params))
	for i, n := range p.Params {
		v, err := resolve(n)
		if err != nil {
			return SimplePart{}, err
		}
		params[i] = v
	}
	return SimplePart{PName: p.PName, Params: params}, nil
}

// Name is an ordered sequence of NamePart; it may contain unresolved
// RecParts. SimpleName is the fully-resolved counterpart used as a map key.
type Name []NamePart

// SimpleName is a fully-resolved Name: every part is a SimplePart.
type SimpleName []SimplePart

func (n SimpleName) String() string {
	parts := make([]string, len(n))
	for i, p := range n {
		parts[i] = p.String()
	}
	return strings.Join(parts, ".")
}

// Key returns a deep, order-sensitive string suitable for use as a map key
// (spec §3: "SimpleName equality and hash are deep and used as map keys").
func (n SimpleName) Key() string {
	return n.String()
}

func (n SimpleName) Equal(o SimpleName) bool {
	return n.Key() == o.Key()
}

// IsResolved reports whether every part of n is already a SimplePart.
func (n Name) IsResolved() bool {
	for _, p := range n {
		if _, ok := p.(SimplePart); !ok {
			return false
		}
	}
	return true
}

// Resolve turns every RecPart of n into a SimplePart, producing a
// SimpleName. Parts already Simple pass through unchanged.
func (n Name) Resolve(resolve func(Name) (value.Value, error)) (SimpleName, error) {
	out := make(SimpleName, len(n))
	for i, p := range n {
		switch part := p.(type) {
		case SimplePart:
			out[i] = part
		case RecPart:
			sp, err := part.Resolve(resolve)
			if err != nil {
				return nil, diagnostics.New(diagnostics.InvalidName, diagnostics.NoPos,
					"cannot resolve name part %q: %v", part.PName, err)
			}
			out[i] = sp
		default:
			return nil, diagnostics.New(diagnostics.InternalError, diagnostics.NoPos,
				"unknown NamePart variant %T", p)
		}
	}
	return out, nil
}
