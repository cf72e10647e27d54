package reader

import (
	"github.com/stormlang/storm/internal/bs"
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// Core is the well-known virtual package every scope.DefaultLookup
// interspenses ahead of the absolute root (spec §4.4 "intersperse the
// well-known core package"): the handful of built-in value types every
// other reader's LiteralTypes ultimately point back to. It has no URL and
// is fully populated eagerly (spec §3 "A virtual package has no URL and
// must be populated eagerly").
type Core struct {
	Pkg       *name.Package
	Bool      *types.Type
	Int       *types.Type
	Float     *types.Type
	Str       *types.Type
	Version   *types.Type
	Exception *types.Type
}

// NewCore builds the core package, its built-in value types, and the root
// Exception class every catch handler's declared type must derive from
// (spec §4.7), ready to use as scope.DefaultLookup.Core, to source a
// bs.LiteralTypes from, and as a reader.Pipeline's ExcRoot.
func NewCore() *Core {
	pkg := name.NewPackage(name.NewBase("core", nil, diagnostics.NoPos), "")

	boolT := types.NewType(name.NewBase("Bool", nil, diagnostics.NoPos), types.FlagValue)
	boolT.SetBuiltIn(1, false)
	intT := types.NewType(name.NewBase("Int", nil, diagnostics.NoPos), types.FlagValue)
	intT.SetBuiltIn(4, false)
	floatT := types.NewType(name.NewBase("Float", nil, diagnostics.NoPos), types.FlagValue)
	floatT.SetBuiltIn(4, true)
	strT := types.NewType(name.NewBase("Str", nil, diagnostics.NoPos), types.FlagValue)
	strT.SetBuiltIn(8, false) // a Str handle is a pointer-sized reference to immutable heap storage
	versionT := types.NewType(name.NewBase("Version", nil, diagnostics.NoPos), types.FlagValue)
	versionT.SetBuiltIn(8, false) // the .version reader's synthetic GlobalVar type (SPEC_FULL.md §6)
	excT := types.NewType(name.NewBase("Exception", nil, diagnostics.NoPos), types.FlagClass)

	for _, t := range []*types.Type{boolT, intT, floatT, strT, versionT, excT} {
		if err := pkg.Add(t); err != nil {
			panic(err) // programmer error: distinct built-in names never collide
		}
	}
	if err := pkg.LoadAll(); err != nil {
		panic(err)
	}

	return &Core{Pkg: pkg, Bool: boolT, Int: intT, Float: floatT, Str: strT, Version: versionT, Exception: excT}
}

// Lits builds the bs.LiteralTypes the reader pipeline hands to every .bs
// file's parser, pointing every literal kind at Core's built-in types.
func (c *Core) Lits() bs.LiteralTypes {
	return bs.LiteralTypes{
		Bool:   value.Value{Type: c.Bool},
		Int:    value.Value{Type: c.Int},
		Float:  value.Value{Type: c.Float},
		String: value.Value{Type: c.Str},
	}
}
