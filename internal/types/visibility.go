package types

import "github.com/stormlang/storm/internal/name"

// visibility is the shared implementation behind the five singletons below;
// each only differs in its predicate (spec §4.5 "Visibility").
type visibility struct {
	vname string
	check func(check name.Named, source name.NameLookup) bool
}

func (v *visibility) Name() string { return v.vname }

func (v *visibility) Visible(check name.Named, source name.NameLookup) bool {
	return v.check(check, source)
}

// ownerOf resolves n to the richer Named it is embedded in, if n is a bare
// *name.NameSet with an owner recorded (Type, Package); otherwise n itself.
// A child's ParentLookup() is the containing NameSet, not that wrapper, so
// every walk that needs to recognize "this is a Type/Package" goes through
// this indirection first.
func ownerOf(n name.NameLookup) name.Named {
	if ns, ok := n.(*name.NameSet); ok {
		return ns.Owner()
	}
	return n
}

// enclosingType walks outward from n looking for the nearest Type, the
// same way Scope walks a parent chain (spec §4.4).
func enclosingType(n name.NameLookup) *Type {
	for n != nil {
		if t, ok := ownerOf(n).(*Type); ok {
			return t
		}
		n = n.Parent()
	}
	return nil
}

func enclosingPackage(n name.NameLookup) *name.Package {
	for n != nil {
		if p, ok := ownerOf(n).(*name.Package); ok {
			return p
		}
		n = n.Parent()
	}
	return nil
}

// Public is visible unconditionally.
var Public name.Visibility = &visibility{
	vname: "public",
	check: func(name.Named, name.NameLookup) bool { return true },
}

// TypePrivate is visible only from inside the exact declaring Type.
var TypePrivate name.Visibility = &visibility{
	vname: "private",
	check: func(check name.Named, source name.NameLookup) bool {
		owner := enclosingType(check.ParentLookup())
		return owner != nil && owner == enclosingType(source)
	},
}

// TypeProtected is visible from the declaring Type or any of its
// descendants (spec §4.2 TypeChain gives the O(1) isA test this needs).
var TypeProtected name.Visibility = &visibility{
	vname: "protected",
	check: func(check name.Named, source name.NameLookup) bool {
		owner := enclosingType(check.ParentLookup())
		if owner == nil {
			return false
		}
		from := enclosingType(source)
		if from == nil {
			return false
		}
		return from == owner || from.Chain().IsA(owner.Chain())
	},
}

// PackagePrivate is visible from anywhere whose nearest enclosing Package
// is the declaring one; a nested package is a Package of its own, so code
// inside it does not see the declaration.
var PackagePrivate name.Visibility = &visibility{
	vname: "package private",
	check: func(check name.Named, source name.NameLookup) bool {
		owner := enclosingPackage(check.ParentLookup())
		return owner != nil && owner == enclosingPackage(source)
	},
}

// FilePrivate is visible only from within the same source file as the
// declaration, the tightest of the five (spec §4.5).
var FilePrivate name.Visibility = &visibility{
	vname: "file private",
	check: func(check name.Named, source name.NameLookup) bool {
		file := check.Pos().File
		return file != "" && file == source.Pos().File
	},
}
