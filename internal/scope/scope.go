// Package scope implements Scope & ScopeLookup (spec §4.4, component C4):
// the policy objects that turn a SimpleName into a resolved Named relative
// to some lexical point in Basic Storm (or any other hosted language).
package scope

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/value"
)

// Lookup encodes a name-search policy (spec §4.4). The default policy and
// FileScope's layered policy both implement it.
type Lookup interface {
	Find(top name.NameLookup, n name.SimpleName) (name.Named, error)
}

// Scope pairs a starting point in the tree with the policy used to search
// from it (spec §3 "Scope / ScopeLookup").
type Scope struct {
	Top    name.NameLookup
	Lookup Lookup
}

func (s Scope) Find(n name.SimpleName) (name.Named, error) {
	if s.Lookup == nil {
		return nil, diagnostics.New(diagnostics.InternalError, diagnostics.NoPos, "scope has no lookup policy")
	}
	return s.Lookup.Find(s.Top, n)
}

// ValueProvider re-exports name.ValueProvider for callers that only import
// internal/scope.
type ValueProvider = name.ValueProvider

// Value resolves name via Find, rejects non-type results with a typed
// Syntax error, and recognizes the language's chosen void literal (spec
// §4.4 Scope.value).
func (s Scope) Value(n name.SimpleName, voidLiteral string) (value.Value, error) {
	if len(n) == 1 && n[0].PartName() == voidLiteral {
		return value.Void, nil
	}
	found, err := s.Find(n)
	if err != nil {
		return value.Value{}, err
	}
	if found == nil {
		return value.Value{}, diagnostics.New(diagnostics.SyntaxError, diagnostics.NoPos,
			"unknown name %q", n.String())
	}
	vp, ok := found.(ValueProvider)
	if !ok {
		return value.Value{}, diagnostics.New(diagnostics.SyntaxError, diagnostics.NoPos,
			"%q does not name a type", n.String())
	}
	return vp.AsValue(), nil
}

// resolveFrom walks n part-by-part starting at container: find part[0] in
// container, then (if more parts remain) the result must itself be a
// NameLookup to continue the descent (spec §4.4 step 2: "attempt to
// resolve the full SimpleName relative to it").
func resolveFrom(container name.NameLookup, n name.SimpleName) (name.Named, error) {
	cur := container
	var found name.Named
	for i, part := range n {
		f, err := cur.Find(part)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, nil
		}
		found = f
		if i < len(n)-1 {
			next, ok := f.(name.NameLookup)
			if !ok {
				return nil, nil
			}
			cur = next
		}
	}
	return found, nil
}
