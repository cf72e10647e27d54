package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeType is a minimal Type for exercising TypeChain/Value in isolation,
// without depending on internal/types.
type fakeType struct {
	name    string
	chain   *TypeChain
	class   bool
	actor   bool
	isValue bool
	builtIn *int
}

func newFakeType(name string) *fakeType {
	ft := &fakeType{name: name, isValue: true}
	ft.chain = NewTypeChain(ft)
	return ft
}

func (f *fakeType) Name() string       { return f.name }
func (f *fakeType) Chain() *TypeChain  { return f.chain }
func (f *fakeType) IsClass() bool      { return f.class }
func (f *fakeType) IsActor() bool      { return f.actor }
func (f *fakeType) IsValue() bool      { return f.isValue }
func (f *fakeType) BuiltIn() (int, bool, bool) {
	if f.builtIn == nil {
		return 0, false, false
	}
	return *f.builtIn, false, true
}

func mustSuper(t *testing.T, child, parent *fakeType) {
	t.Helper()
	require.NoError(t, child.chain.Super(parent.chain))
}

func TestTypeChainIsAConstantTime(t *testing.T) {
	root := newFakeType("Object")
	base := newFakeType("Animal")
	mid := newFakeType("Dog")
	leaf := newFakeType("Puppy")

	mustSuper(t, base, root)
	mustSuper(t, mid, base)
	mustSuper(t, leaf, mid)

	assert.True(t, leaf.chain.IsA(root.chain))
	assert.True(t, leaf.chain.IsA(base.chain))
	assert.True(t, leaf.chain.IsA(mid.chain))
	assert.True(t, leaf.chain.IsA(leaf.chain))
	assert.False(t, root.chain.IsA(leaf.chain))
	assert.False(t, base.chain.IsA(mid.chain))

	assert.Equal(t, 3, leaf.chain.Distance(root.chain))
	assert.Equal(t, 0, leaf.chain.Distance(leaf.chain))
	assert.Equal(t, -1, root.chain.Distance(leaf.chain))
}

func TestTypeChainSuperRejectsCycles(t *testing.T) {
	a := newFakeType("A")
	b := newFakeType("B")
	mustSuper(t, b, a)

	err := a.chain.Super(b.chain)
	assert.Error(t, err, "setting B as super of A, when A is already super of B, must be rejected as a cycle")

	err = a.chain.Super(a.chain)
	assert.Error(t, err, "a type cannot be its own super")
}

func TestTypeChainNotifiesDescendantsOnRebase(t *testing.T) {
	root := newFakeType("Object")
	oldBase := newFakeType("OldBase")
	mid := newFakeType("Mid")
	leaf := newFakeType("Leaf")

	mustSuper(t, oldBase, root)
	mustSuper(t, mid, oldBase)
	mustSuper(t, leaf, mid)
	require.Equal(t, 4, leaf.chain.Depth())

	newBase := newFakeType("NewBase")
	mustSuper(t, newBase, root)
	grandparent := newFakeType("Grandparent")
	mustSuper(t, grandparent, newBase)

	// Re-home mid under a deeper ancestor chain and confirm leaf's cached
	// chain (a descendant two levels down) is updated transactionally.
	require.NoError(t, mid.chain.Super(grandparent.chain))
	assert.Equal(t, 5, leaf.chain.Depth())
	assert.True(t, leaf.chain.IsA(grandparent.chain))
	assert.True(t, leaf.chain.IsA(newBase.chain))
	assert.False(t, leaf.chain.IsA(oldBase.chain))
}

func TestValueCanStoreRespectsInheritance(t *testing.T) {
	root := newFakeType("Object")
	dog := newFakeType("Dog")
	mustSuper(t, dog, root)

	objSlot := Value{Type: root}
	dogVal := Value{Type: dog}
	assert.True(t, objSlot.CanStore(dogVal))

	dogSlot := Value{Type: dog}
	objVal := Value{Type: root}
	assert.False(t, dogSlot.CanStore(objVal))
}

func TestValueVoidInvariants(t *testing.T) {
	assert.True(t, Void.IsVoid())
	assert.False(t, Void.ByRef)
	assert.True(t, Void.Equal(Void))
	assert.True(t, Void.CanStore(Void))

	someType := newFakeType("Int")
	v := Value{Type: someType}
	assert.True(t, Void.CanStore(v), "a void slot accepts a value of any type")
}

func TestCommonAncestorSymmetric(t *testing.T) {
	root := newFakeType("Object")
	cat := newFakeType("Cat")
	dog := newFakeType("Dog")
	mustSuper(t, cat, root)
	mustSuper(t, dog, root)

	a := Value{Type: cat}
	b := Value{Type: dog}
	c1 := Common(a, b)
	c2 := Common(b, a)
	assert.Equal(t, c1.Type, c2.Type)
	assert.Equal(t, root, c1.Type)

	same := Common(a, a)
	assert.Equal(t, cat, same.Type)
}
