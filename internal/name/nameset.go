package name

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/value"
)

// LoadState is NameSet's lazy-load state machine (spec §3):
//
//	Unloaded --loadName(part) true--> PartiallyLoaded
//	Unloaded --loadAll()----------> FullyLoaded
//	PartiallyLoaded --loadAll()---> FullyLoaded
//	FullyLoaded is terminal: loadName is never called again.
type LoadState int

const (
	Unloaded LoadState = iota
	PartiallyLoaded
	FullyLoaded
	// LoadFailed marks a NameSet whose loader returned an error. It is not
	// terminal: every later lookup of a missing part calls the loader again,
	// with no limit on the number of retries.
	LoadFailed
)

// Loader is supplied by a Reader (C8) to materialize parts of a NameSet on
// demand.
type Loader interface {
	// LoadName attempts to load just partName; returns true if it made
	// progress (whether or not it actually found anything).
	LoadName(ns *NameSet, partName string) (bool, error)
	// LoadAll loads everything remaining.
	LoadAll(ns *NameSet) error
}

// Watcher is notified of adds/removes on a NameSet (spec §3 lifecycles).
type Watcher interface {
	WatchAdd(n Named)
	WatchRemove(n Named)
}

// NameSet is a Named that contains a Map<Str, NameOverloads> (spec §3).
// Package and Type both embed a NameSet.
type NameSet struct {
	Base

	mu       sync.RWMutex
	byName   map[string]*NameOverloads
	order    []string // first-seen order, for stable iteration within a load phase
	state    LoadState
	loading  map[string]bool // re-entrancy guard keyed by part name ("*" for LoadAll), not by caller: any lookup of a part already loading returns without loading it
	loader   Loader
	watchers []Watcher

	anonCounter uint64

	exportedHook func() []*NameSet // set by Package to add step 4 of Find

	// owner optionally points back to the richer value a NameSet is embedded
	// in (Type, Package, ...). Add sets a child's parent to the NameSet it
	// was added under, not to that richer wrapper; code that needs the
	// wrapper (e.g. visibility's "same enclosing Type" check) reads this
	// back-link instead of trying to recover it from the NameSet alone.
	owner Named
}

func NewNameSet(base Base) *NameSet {
	return &NameSet{
		Base:    base,
		byName:  make(map[string]*NameOverloads),
		loading: make(map[string]bool),
	}
}

func (ns *NameSet) SetLoader(l Loader) { ns.loader = l }

// SetOwner records the richer value (Type, Package, ...) this NameSet is
// embedded in. Owner returns ns itself until this is called.
func (ns *NameSet) SetOwner(o Named) { ns.owner = o }

func (ns *NameSet) Owner() Named {
	if ns.owner != nil {
		return ns.owner
	}
	return ns
}

func (ns *NameSet) State() LoadState {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.state
}

func (ns *NameSet) Watch(w Watcher) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.watchers = append(ns.watchers, w)
}

func (ns *NameSet) notifyAdd(n Named) {
	for _, w := range ns.watchers {
		w.WatchAdd(n)
	}
}

func (ns *NameSet) notifyRemove(n Named) {
	for _, w := range ns.watchers {
		w.WatchRemove(n)
	}
}

// overloadsLocked returns (creating if needed) the slot for partName.
// Caller must hold ns.mu.
func (ns *NameSet) overloadsLocked(partName string) *NameOverloads {
	o, ok := ns.byName[partName]
	if !ok {
		o = &NameOverloads{}
		ns.byName[partName] = o
		ns.order = append(ns.order, partName)
	}
	return o
}

// Add validates named.ParentLookup() is unset, assigns it, and fires
// WatchAdd (spec §4.3). The composite key (name, params) must be unique
// within the entity's NameOverloads slot.
func (ns *NameSet) Add(n Named) error {
	if n.ParentLookup() != nil {
		return diagnostics.New(diagnostics.InternalError, n.Pos(),
			"cannot add %q: already has a parent", n.Name())
	}
	ns.mu.Lock()
	o := ns.overloadsLocked(n.Name())
	for _, existing := range o.items {
		if sameParams(existing.Params(), n.Params()) {
			ns.mu.Unlock()
			return diagnostics.New(diagnostics.TypedefError, n.Pos(),
				"%q is already defined with the same parameter list", n.Name())
		}
	}
	o.Add(n)
	n.SetParentLookup(ns)
	ns.mu.Unlock()
	ns.notifyAdd(n)
	return nil
}

func sameParams(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// AddTemplate registers a generic-type factory under name (spec §4.3).
func (ns *NameSet) AddTemplate(partName string, t Template) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.overloadsLocked(partName).AddTemplate(t)
}

// Remove is symmetric with Add: clears the parent pointer and fires
// WatchRemove.
func (ns *NameSet) Remove(n Named) bool {
	ns.mu.Lock()
	o, ok := ns.byName[n.Name()]
	if !ok {
		ns.mu.Unlock()
		return false
	}
	removed := o.Remove(n)
	ns.mu.Unlock()
	if removed {
		n.SetParentLookup(nil)
		ns.notifyRemove(n)
	}
	return removed
}

// LoadName drives the Unloaded -> PartiallyLoaded transition for one part
// name. FullyLoaded is terminal: calling LoadName again is a no-op, per
// spec's state machine invariant.
func (ns *NameSet) LoadName(partName string) error {
	ns.mu.Lock()
	if ns.state == FullyLoaded {
		ns.mu.Unlock()
		return nil
	}
	if ns.loading[partName] {
		ns.mu.Unlock()
		return nil // re-entrant load of the same part; break the recursion
	}
	loader := ns.loader
	ns.loading[partName] = true
	ns.mu.Unlock()

	defer func() {
		ns.mu.Lock()
		delete(ns.loading, partName)
		ns.mu.Unlock()
	}()

	if loader == nil {
		return nil
	}
	progressed, err := loader.LoadName(ns, partName)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if err != nil {
		ns.state = LoadFailed
		return err
	}
	if progressed && ns.state == Unloaded {
		ns.state = PartiallyLoaded
	}
	return nil
}

// LoadAll drives Unloaded/PartiallyLoaded -> FullyLoaded.
func (ns *NameSet) LoadAll() error {
	ns.mu.Lock()
	if ns.state == FullyLoaded {
		ns.mu.Unlock()
		return nil
	}
	if ns.loading["*"] {
		ns.mu.Unlock()
		return nil
	}
	loader := ns.loader
	ns.loading["*"] = true
	ns.mu.Unlock()

	defer func() {
		ns.mu.Lock()
		delete(ns.loading, "*")
		ns.mu.Unlock()
	}()

	if loader != nil {
		if err := loader.LoadAll(ns); err != nil {
			ns.mu.Lock()
			ns.state = LoadFailed
			ns.mu.Unlock()
			return err
		}
	}
	ns.mu.Lock()
	ns.state = FullyLoaded
	ns.mu.Unlock()
	return nil
}

// Find implements the NameSet.find contract (spec §4.3):
//  1. look up part.PName, lazy-loading (loadName, then loadAll) if absent
//     and not FullyLoaded;
//  2. choose the lowest-badness candidate, erroring on ties;
//  3. fall back to templates;
//  4. consult exported sources transitively with a cycle guard.
func (ns *NameSet) Find(part SimplePart) (Named, error) {
	return ns.find(part, make(map[*NameSet]bool))
}

func (ns *NameSet) find(part SimplePart, visited map[*NameSet]bool) (Named, error) {
	if visited[ns] {
		return nil, nil
	}
	visited[ns] = true

	ns.mu.RLock()
	o, ok := ns.byName[part.PName]
	state := ns.state
	ns.mu.RUnlock()

	if !ok && state != FullyLoaded {
		if err := ns.LoadName(part.PName); err != nil {
			return nil, err
		}
		ns.mu.RLock()
		o, ok = ns.byName[part.PName]
		state = ns.state
		ns.mu.RUnlock()
	}
	if !ok && state != FullyLoaded {
		if err := ns.LoadAll(); err != nil {
			return nil, err
		}
		ns.mu.RLock()
		o, ok = ns.byName[part.PName]
		ns.mu.RUnlock()
	}

	if ok {
		found, err := o.Choose(part)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
		found, err = o.MatchTemplate(ns, part)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}

	if ns.exportedHook != nil {
		for _, exp := range ns.exportedHook() {
			found, err := exp.find(part, visited)
			if err != nil {
				return nil, err
			}
			if found != nil {
				return found, nil
			}
		}
	}
	return nil, nil
}

// Parent returns the enclosing NameLookup, i.e. this NameSet's own parent
// container (spec §4.4 traversal walks parent() pointers).
func (ns *NameSet) Parent() NameLookup {
	return ns.ParentLookup()
}

// AnonName returns a monotonic synthetic name for lambdas and other
// compiler-generated entities; each NameSet owns its own counter (spec
// §4.3).
func (ns *NameSet) AnonName() string {
	id := atomic.AddUint64(&ns.anonCounter, 1)
	return fmt.Sprintf("<anon%d>", id)
}

// All returns every Named directly contained in this NameSet, grouped by
// the order their name was first seen (spec: "Iteration order over names
// is the map's order... stable during a single load phase").
func (ns *NameSet) All() []Named {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	var out []Named
	for _, partName := range ns.order {
		out = append(out, ns.byName[partName].Items()...)
	}
	return out
}
