package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/value"
)

func newTestType(t *testing.T, pkg *name.Package, n string, flags Flags) *Type {
	t.Helper()
	base := name.NewBase(n, nil, diagnostics.NoPos)
	ty := NewType(base, flags)
	require.NoError(t, pkg.Add(ty))
	require.NoError(t, ty.LoadAll())
	return ty
}

func newTestPackage(n string) *name.Package {
	return name.NewPackage(name.NewBase(n, nil, diagnostics.NoPos), "")
}

func TestFlagsKindIsolatesModifierBits(t *testing.T) {
	f := FlagClass | FlagFinal | FlagAbstract
	assert.Equal(t, FlagClass, f.Kind())
	assert.True(t, f.Has(FlagFinal))
	assert.False(t, f.Has(FlagActor))
	assert.Equal(t, "class", f.String())
}

func TestFinalizeLayoutRequiresFullyLoaded(t *testing.T) {
	pkg := newTestPackage("p")
	base := name.NewBase("Point", nil, diagnostics.NoPos)
	ty := NewType(base, FlagValue)
	require.NoError(t, pkg.Add(ty))

	err := ty.FinalizeLayout()
	var codeErr *diagnostics.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, diagnostics.InternalError, codeErr.Kind)
}

func TestFinalizeLayoutPacksSuperThenOwnMembers(t *testing.T) {
	pkg := newTestPackage("p")
	base := newTestType(t, pkg, "Base", FlagClass)
	base.SetBuiltIn(0, false)
	base.AddMember(&MemberVar{VarName: "x", VarType: value.Value{}})
	require.NoError(t, base.FinalizeLayout())

	derived := newTestType(t, pkg, "Derived", FlagClass)
	require.NoError(t, derived.Super(base))
	require.NoError(t, derived.FinalizeLayout())

	assert.GreaterOrEqual(t, derived.Size().Bytes, base.Size().Bytes)
}

func TestSuperRejectsMismatchedKind(t *testing.T) {
	pkg := newTestPackage("p")
	class := newTestType(t, pkg, "C", FlagClass)
	valueKind := newTestType(t, pkg, "V", FlagValue)

	err := valueKind.Super(class)
	var codeErr *diagnostics.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, diagnostics.TypedefError, codeErr.Kind)
}

func TestVisibilityPublicAlwaysVisible(t *testing.T) {
	pkg := newTestPackage("p")
	owner := newTestType(t, pkg, "Owner", FlagClass)
	fn := NewFunction(name.NewBase("f", nil, diagnostics.NoPos), value.Void, 0, RunOn{Kind: RunOnAny})
	require.NoError(t, owner.Add(fn))
	fn.SetVisibility(Public)

	assert.True(t, fn.Visibility().Visible(fn, pkg))
}

func TestVisibilityTypePrivateRejectsOutsideOwner(t *testing.T) {
	pkg := newTestPackage("p")
	owner := newTestType(t, pkg, "Owner", FlagClass)
	other := newTestType(t, pkg, "Other", FlagClass)
	fn := NewFunction(name.NewBase("f", nil, diagnostics.NoPos), value.Void, 0, RunOn{Kind: RunOnAny})
	require.NoError(t, owner.Add(fn))
	fn.SetVisibility(TypePrivate)

	assert.True(t, fn.Visibility().Visible(fn, owner))
	assert.False(t, fn.Visibility().Visible(fn, other))
}

func TestVisibilityTypeProtectedAllowsDescendant(t *testing.T) {
	pkg := newTestPackage("p")
	base := newTestType(t, pkg, "Base", FlagClass)
	derived := newTestType(t, pkg, "Derived", FlagClass)
	require.NoError(t, derived.Super(base))

	fn := NewFunction(name.NewBase("f", nil, diagnostics.NoPos), value.Void, 0, RunOn{Kind: RunOnAny})
	require.NoError(t, base.Add(fn))
	fn.SetVisibility(TypeProtected)

	assert.True(t, fn.Visibility().Visible(fn, derived))
}

func TestVisibilityFilePrivateComparesSourceFile(t *testing.T) {
	pkg := newTestPackage("p")
	owner := newTestType(t, pkg, "Owner", FlagClass)
	fnBase := name.NewBase("f", nil, diagnostics.SrcPos{File: "a.bs", Offset: 0, Length: 1})
	fn := NewFunction(fnBase, value.Void, 0, RunOn{Kind: RunOnAny})
	require.NoError(t, owner.Add(fn))
	fn.SetVisibility(FilePrivate)

	sameFileBase := name.NewBase("g", nil, diagnostics.SrcPos{File: "a.bs", Offset: 5, Length: 1})
	sameFileFn := NewFunction(sameFileBase, value.Void, 0, RunOn{Kind: RunOnAny})
	require.NoError(t, owner.Add(sameFileFn))

	otherFileBase := name.NewBase("h", nil, diagnostics.SrcPos{File: "b.bs", Offset: 0, Length: 1})
	otherFileFn := NewFunction(otherFileBase, value.Void, 0, RunOn{Kind: RunOnAny})
	require.NoError(t, owner.Add(otherFileFn))

	assert.True(t, fn.Visibility().Visible(fn, sameFileFn))
	assert.False(t, fn.Visibility().Visible(fn, otherFileFn))
}

func TestArrayTemplateInstantiatesElementType(t *testing.T) {
	pkg := newTestPackage("p")
	elemBase := name.NewBase("Int", nil, diagnostics.NoPos)
	elem := NewType(elemBase, FlagValue)
	elem.SetBuiltIn(8, false)
	require.NoError(t, pkg.Add(elem))

	pkg.AddTemplate("Array", ArrayTemplate{})

	found, err := pkg.Find(name.SimplePart{PName: "Array", Params: []value.Value{elem.AsValue()}})
	require.NoError(t, err)
	require.NotNil(t, found)
	arr, ok := found.(*Type)
	require.True(t, ok)
	assert.True(t, arr.IsClass())
	assert.True(t, arr.IsFinal())
}

func TestMaybeTemplateRejectsVoid(t *testing.T) {
	pkg := newTestPackage("p")
	pkg.AddTemplate("Maybe", MaybeTemplate{})

	_, err := pkg.Find(name.SimplePart{PName: "Maybe", Params: []value.Value{value.Void}})
	require.Error(t, err)
}
