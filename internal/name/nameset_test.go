package name

import (
	"testing"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simpleNamed is a minimal Named for exercising NameSet in isolation.
type simpleNamed struct {
	Base
}

func newNamed(n string, params ...value.Value) *simpleNamed {
	sn := &simpleNamed{}
	sn.Base = NewBase(n, params, diagnostics.NoPos)
	return sn
}

func TestNameSetAddEnforcesUniqueness(t *testing.T) {
	ns := NewNameSet(NewBase("pkg", nil, diagnostics.NoPos))
	a := newNamed("f")
	b := newNamed("f")

	require.NoError(t, ns.Add(a))
	err := ns.Add(b)
	assert.Error(t, err, "same (name, params) key must be rejected")
}

func TestNameSetAllowsOverloadsByParams(t *testing.T) {
	ns := NewNameSet(NewBase("pkg", nil, diagnostics.NoPos))
	intType := newFakeNameType("Int")
	natType := newFakeNameType("Nat")

	f1 := newNamed("f", value.Value{Type: intType})
	f2 := newNamed("f", value.Value{Type: natType})
	require.NoError(t, ns.Add(f1))
	require.NoError(t, ns.Add(f2))

	found, err := ns.Find(SimplePart{PName: "f", Params: []value.Value{{Type: intType}}})
	require.NoError(t, err)
	assert.Same(t, f1, found)

	found, err = ns.Find(SimplePart{PName: "f", Params: []value.Value{{Type: natType}}})
	require.NoError(t, err)
	assert.Same(t, f2, found)
}

func TestNameSetLazyLoadStateMachine(t *testing.T) {
	ns := NewNameSet(NewBase("pkg", nil, diagnostics.NoPos))
	loader := &fakeLoader{
		onLoadName: func(ns *NameSet, part string) (bool, error) {
			n := newNamed(part)
			return true, ns.Add(n)
		},
	}
	ns.SetLoader(loader)

	assert.Equal(t, Unloaded, ns.State())
	found, err := ns.Find(SimplePart{PName: "lazy"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, PartiallyLoaded, ns.State())

	require.NoError(t, ns.LoadAll())
	assert.Equal(t, FullyLoaded, ns.State())

	// loadName must never be invoked again once FullyLoaded.
	loader.onLoadName = func(ns *NameSet, part string) (bool, error) {
		t.Fatalf("loadName called after FullyLoaded")
		return false, nil
	}
	_, err = ns.Find(SimplePart{PName: "anything-else"})
	require.NoError(t, err)
}

func TestNameSetWatchNotifications(t *testing.T) {
	ns := NewNameSet(NewBase("pkg", nil, diagnostics.NoPos))
	w := &recordingWatcher{}
	ns.Watch(w)

	n := newNamed("x")
	require.NoError(t, ns.Add(n))
	require.True(t, ns.Remove(n))

	assert.Equal(t, []string{"add:x"}, w.addCalls)
	assert.Equal(t, []string{"remove:x"}, w.removeCalls)
}

func TestNameSetAnonNamePerInstanceCounter(t *testing.T) {
	a := NewNameSet(NewBase("a", nil, diagnostics.NoPos))
	b := NewNameSet(NewBase("b", nil, diagnostics.NoPos))

	assert.Equal(t, "<anon1>", a.AnonName())
	assert.Equal(t, "<anon2>", a.AnonName())
	assert.Equal(t, "<anon1>", b.AnonName(), "each NameSet owns its own counter")
}

func TestPackageExportedTransitiveFind(t *testing.T) {
	base := NewPackage(NewBase("base", nil, diagnostics.NoPos), "/base")
	lib := NewPackage(NewBase("lib", nil, diagnostics.NoPos), "/lib")
	n := newNamed("helper")
	require.NoError(t, lib.Add(n))
	base.AddExport(lib)

	found, err := base.Find(SimplePart{PName: "helper"})
	require.NoError(t, err)
	assert.Same(t, n, found)
}

// --- test fixtures ---

type fakeLoader struct {
	onLoadName func(*NameSet, string) (bool, error)
	onLoadAll  func(*NameSet) error
}

func (l *fakeLoader) LoadName(ns *NameSet, part string) (bool, error) {
	if l.onLoadName != nil {
		return l.onLoadName(ns, part)
	}
	return false, nil
}

func (l *fakeLoader) LoadAll(ns *NameSet) error {
	if l.onLoadAll != nil {
		return l.onLoadAll(ns)
	}
	return nil
}

type recordingWatcher struct {
	addCalls    []string
	removeCalls []string
}

func (w *recordingWatcher) WatchAdd(n Named)    { w.addCalls = append(w.addCalls, "add:"+n.Name()) }
func (w *recordingWatcher) WatchRemove(n Named) { w.removeCalls = append(w.removeCalls, "remove:"+n.Name()) }

type fakeNameType struct {
	n     string
	chain *value.TypeChain
}

func newFakeNameType(n string) *fakeNameType {
	ft := &fakeNameType{n: n}
	ft.chain = value.NewTypeChain(ft)
	return ft
}

func (f *fakeNameType) Name() string                { return f.n }
func (f *fakeNameType) Chain() *value.TypeChain      { return f.chain }
func (f *fakeNameType) IsClass() bool                { return false }
func (f *fakeNameType) IsActor() bool                { return false }
func (f *fakeNameType) IsValue() bool                { return true }
func (f *fakeNameType) BuiltIn() (int, bool, bool)    { return 0, false, false }
