package reload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

func newPkg(n string) *name.Package {
	return name.NewPackage(name.NewBase(n, nil, diagnostics.NoPos), "")
}

func newLoadedType(t *testing.T, pkg *name.Package, n string, flags types.Flags) *types.Type {
	t.Helper()
	ty := types.NewType(name.NewBase(n, nil, diagnostics.NoPos), flags)
	require.NoError(t, pkg.Add(ty))
	require.NoError(t, ty.LoadAll())
	return ty
}

func TestBuildEquivalenceKeepsMatchingTypes(t *testing.T) {
	oldPkg := newPkg("proj")
	newPkg_ := newPkg("proj")

	oldC := newLoadedType(t, oldPkg, "C", types.FlagClass)
	newC := newLoadedType(t, newPkg_, "C", types.FlagClass)

	eq, err := BuildEquivalence(context.Background(), oldPkg, newPkg_)
	require.NoError(t, err)
	require.Len(t, eq.Kept, 1)
	assert.Same(t, oldC, eq.Kept[0].Old)
	assert.Same(t, newC, eq.Kept[0].New)
	assert.Empty(t, eq.Added)
	assert.Empty(t, eq.Removed)
}

func TestBuildEquivalenceDetectsAddedAndRemoved(t *testing.T) {
	oldPkg := newPkg("proj")
	newPkg_ := newPkg("proj")

	newLoadedType(t, oldPkg, "Gone", types.FlagClass)
	newLoadedType(t, newPkg_, "Fresh", types.FlagClass)

	eq, err := BuildEquivalence(context.Background(), oldPkg, newPkg_)
	require.NoError(t, err)
	assert.Empty(t, eq.Kept)
	require.Len(t, eq.Removed, 1)
	assert.Equal(t, "Gone", eq.Removed[0].Name())
	require.Len(t, eq.Added, 1)
	assert.Equal(t, "Fresh", eq.Added[0].Name())
}

func TestBuildEquivalenceRejectsKindChange(t *testing.T) {
	oldPkg := newPkg("proj")
	newPkg_ := newPkg("proj")

	newLoadedType(t, oldPkg, "C", types.FlagClass)
	newLoadedType(t, newPkg_, "C", types.FlagValue)

	_, err := BuildEquivalence(context.Background(), oldPkg, newPkg_)
	require.Error(t, err)
	var codeErr *diagnostics.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, diagnostics.ReplaceError, codeErr.Kind)
}

func TestRunMigratesNewMemberOntoOldIdentity(t *testing.T) {
	oldPkg := newPkg("proj")
	newPkg_ := newPkg("proj")

	oldC := newLoadedType(t, oldPkg, "C", types.FlagClass)
	oldC.AddMember(&types.MemberVar{VarName: "a", VarType: value.Value{}})
	require.NoError(t, oldC.FinalizeLayout())

	newC := newLoadedType(t, newPkg_, "C", types.FlagClass)
	newC.AddMember(&types.MemberVar{VarName: "a", VarType: value.Value{}})
	newC.AddMember(&types.MemberVar{VarName: "b", VarType: value.Value{}})
	require.NoError(t, newC.FinalizeLayout())

	rc := NewReplaceContext(oldPkg, newPkg_)
	require.NoError(t, rc.Run(context.Background()))

	names := make([]string, 0, 2)
	for _, m := range oldC.Members() {
		names = append(names, m.VarName)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, names)

	// existing references to C retain the old object's identity.
	found, err := oldPkg.Find(name.PartOf(oldC))
	require.NoError(t, err)
	assert.Same(t, oldC, found)
}

func TestRunRemovesOrphanedType(t *testing.T) {
	oldPkg := newPkg("proj")
	newPkg_ := newPkg("proj")

	gone := newLoadedType(t, oldPkg, "Gone", types.FlagClass)

	rc := NewReplaceContext(oldPkg, newPkg_)
	require.NoError(t, rc.Run(context.Background()))

	found, err := oldPkg.Find(name.PartOf(gone))
	require.NoError(t, err)
	assert.Nil(t, found)
}
