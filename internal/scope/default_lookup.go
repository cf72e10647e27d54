package scope

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
)

// DefaultLookup is the default ScopeLookup policy (spec §4.4):
//  1. reject a first part matching the language's void alias.
//  2. starting from top, try find, then walk outward via parent() pointers,
//     accepting the first container under which the full SimpleName
//     resolves.
//  3. intersperse the well-known core package immediately before the
//     absolute root is reached, so built-ins appear imported everywhere.
type DefaultLookup struct {
	VoidAlias string
	Core      name.NameLookup
}

func (d DefaultLookup) Find(top name.NameLookup, n name.SimpleName) (name.Named, error) {
	if len(n) == 0 {
		return nil, diagnostics.New(diagnostics.InternalError, diagnostics.NoPos, "empty name")
	}
	if d.VoidAlias != "" && n[0].PartName() == d.VoidAlias {
		return nil, diagnostics.New(diagnostics.SyntaxError, diagnostics.NoPos, "%q cannot be used as a name", d.VoidAlias)
	}

	containers := collectChain(top)
	containers = intersperseCore(containers, d.Core)

	for _, c := range containers {
		found, err := resolveFrom(c, n)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}

func collectChain(top name.NameLookup) []name.NameLookup {
	var out []name.NameLookup
	for c := top; c != nil; c = c.Parent() {
		out = append(out, c)
	}
	return out
}

// intersperseCore inserts core immediately before the absolute root entry
// (the last element of chain) unless core is nil, already present, or is
// itself the root.
func intersperseCore(chain []name.NameLookup, core name.NameLookup) []name.NameLookup {
	if core == nil || len(chain) == 0 {
		return chain
	}
	rootIdx := len(chain) - 1
	if chain[rootIdx] == core {
		return chain
	}
	for _, c := range chain {
		if c == core {
			return chain
		}
	}
	out := make([]name.NameLookup, 0, len(chain)+1)
	out = append(out, chain[:rootIdx]...)
	out = append(out, core, chain[rootIdx])
	return out
}

// FileScopeLookup layers file-local `use`-declared package imports ahead of
// the default traversal (spec §4.4 step 4: "Child scopes add extra lookups
// ... ahead of the default traversal").
type FileScopeLookup struct {
	Imports []name.NameLookup
	Base    Lookup
}

func (f FileScopeLookup) Find(top name.NameLookup, n name.SimpleName) (name.Named, error) {
	for _, imp := range f.Imports {
		found, err := resolveFrom(imp, n)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	if f.Base == nil {
		return nil, nil
	}
	return f.Base.Find(top, n)
}
