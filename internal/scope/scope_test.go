package scope

import (
	"testing"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeType struct {
	n     string
	chain *value.TypeChain
}

func newFakeType(n string) *fakeType {
	ft := &fakeType{n: n}
	ft.chain = value.NewTypeChain(ft)
	return ft
}

func (f *fakeType) Name() string               { return f.n }
func (f *fakeType) Chain() *value.TypeChain     { return f.chain }
func (f *fakeType) IsClass() bool               { return false }
func (f *fakeType) IsActor() bool               { return false }
func (f *fakeType) IsValue() bool               { return true }
func (f *fakeType) BuiltIn() (int, bool, bool)  { return 0, false, false }

// fakeNamedType wraps a fakeType as a tree Named + ValueProvider, enough to
// exercise Scope.Value without depending on internal/types.
type fakeNamedType struct {
	name.Base
	t *fakeType
}

func newFakeNamedType(n string) *fakeNamedType {
	ft := newFakeType(n)
	fn := &fakeNamedType{t: ft}
	fn.Base = name.NewBase(n, nil, diagnostics.NoPos)
	return fn
}

func (f *fakeNamedType) AsValue() value.Value { return value.Value{Type: f.t} }

func (f *fakeNamedType) Parent() name.NameLookup          { return f.ParentLookup() }
func (f *fakeNamedType) Find(p name.SimplePart) (name.Named, error) { return nil, nil }

func TestDefaultLookupFindsInParentChain(t *testing.T) {
	root := name.NewNameSet(name.NewBase("root", nil, diagnostics.NoPos))
	pkg := name.NewNameSet(name.NewBase("pkg", nil, diagnostics.NoPos))
	require.NoError(t, root.Add(wrapNameSet(pkg)))

	intType := newFakeNamedType("Int")
	require.NoError(t, root.Add(intType))

	block := name.NewNameSet(name.NewBase("block", nil, diagnostics.NoPos))
	require.NoError(t, pkg.Add(wrapNameSet(block)))

	s := Scope{Top: block, Lookup: DefaultLookup{}}
	v, err := s.Value(name.SimpleName{{PName: "Int"}}, "void")
	require.NoError(t, err)
	assert.Equal(t, "Int", v.Type.Name())
}

func TestDefaultLookupInterspersesCore(t *testing.T) {
	root := name.NewNameSet(name.NewBase("root", nil, diagnostics.NoPos))
	core := name.NewNameSet(name.NewBase("core", nil, diagnostics.NoPos))
	strType := newFakeNamedType("Str")
	require.NoError(t, core.Add(strType))

	pkg := name.NewNameSet(name.NewBase("pkg", nil, diagnostics.NoPos))
	require.NoError(t, root.Add(wrapNameSet(pkg)))

	s := Scope{Top: pkg, Lookup: DefaultLookup{Core: core}}
	v, err := s.Value(name.SimpleName{{PName: "Str"}}, "void")
	require.NoError(t, err)
	assert.Equal(t, "Str", v.Type.Name())
}

func TestScopeValueRejectsNonType(t *testing.T) {
	pkg := name.NewNameSet(name.NewBase("pkg", nil, diagnostics.NoPos))
	notAType := &simpleNamedForScope{}
	notAType.Base = name.NewBase("notAType", nil, diagnostics.NoPos)
	require.NoError(t, pkg.Add(notAType))

	s := Scope{Top: pkg, Lookup: DefaultLookup{}}
	_, err := s.Value(name.SimpleName{{PName: "notAType"}}, "void")
	assert.Error(t, err)
}

func TestScopeValueRecognizesVoidLiteral(t *testing.T) {
	pkg := name.NewNameSet(name.NewBase("pkg", nil, diagnostics.NoPos))
	s := Scope{Top: pkg, Lookup: DefaultLookup{}}
	v, err := s.Value(name.SimpleName{{PName: "void"}}, "void")
	require.NoError(t, err)
	assert.True(t, v.IsVoid())
}

func TestFileScopeTriesImportsFirst(t *testing.T) {
	pkg := name.NewNameSet(name.NewBase("pkg", nil, diagnostics.NoPos))
	other := name.NewNameSet(name.NewBase("other", nil, diagnostics.NoPos))
	boolType := newFakeNamedType("Bool")
	require.NoError(t, other.Add(boolType))

	s := Scope{Top: pkg, Lookup: FileScopeLookup{
		Imports: []name.NameLookup{other},
		Base:    DefaultLookup{},
	}}
	v, err := s.Value(name.SimpleName{{PName: "Bool"}}, "void")
	require.NoError(t, err)
	assert.Equal(t, "Bool", v.Type.Name())
}

// --- fixtures ---

type simpleNamedForScope struct {
	name.Base
}

// nameSetLookup adapts *name.NameSet so it can be Add()ed as a Named while
// still being usable as a NameLookup for nested scoping tests.
type nameSetLookup struct {
	*name.NameSet
}

func wrapNameSet(ns *name.NameSet) name.Named {
	return ns
}
