// Package reload implements Hot-Reload Coordination (spec §4.10, component
// C10): ReplaceContext builds an equivalence relation between an old and a
// newly-parsed type graph by structural name-and-parameter matching, then
// ReplaceTasks performs the atomic reference swap. Grounded on the
// teacher's internal/typesystem/replace.go (ReplaceTCon tree-walk, reused
// here as the equivalence-matching walk) and internal/modules/loader.go's
// reload path.
package reload

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/rtsvc"
	"github.com/stormlang/storm/internal/types"
)

// KeptType pairs an old Type with its structural counterpart in the newly
// parsed graph (spec §4.10 step 1: "kept as the old instance; their
// contents are migrated member-by-member").
type KeptType struct {
	Old, New *types.Type
}

// Equivalence is the result of matching an old graph against a new one
// (spec §4.10): Kept types preserve old's object identity, Added types are
// net-new, Removed types are orphaned (spec §3 lifecycles "watchRemove").
type Equivalence struct {
	Kept    []KeptType
	Added   []*types.Type
	Removed []*types.Type
}

// qualifiedKey builds a stable, pointer-independent identity for n by
// walking its parent chain, climbing through each containing NameSet to
// the richer Named it belongs to (Type or Package), the same indirection
// internal/types/visibility.go's ownerOf uses.
func qualifiedKey(n name.Named) string {
	var parts []string
	parts = append(parts, name.PartOf(n).String())
	cur := n.ParentLookup()
	for cur != nil {
		ns, ok := cur.(*name.NameSet)
		if !ok {
			break
		}
		owner := ns.Owner()
		ownerNamed, ok := owner.(name.Named)
		if !ok || ownerNamed == name.Named(nil) {
			break
		}
		if _, isSet := any(ownerNamed).(*name.NameSet); isSet {
			break // no richer owner recorded; stop climbing
		}
		parts = append(parts, name.PartOf(ownerNamed).String())
		cur = ownerNamed.ParentLookup()
	}
	out := ""
	for i := len(parts) - 1; i >= 0; i-- {
		if out != "" {
			out += "."
		}
		out += parts[i]
	}
	return out
}

// namedEntry is one entity gathered from a tree walk, tagged with whether
// it denotes a Type (so a kind change - type <-> non-type - across reload
// can be detected and rejected per spec §4.10 step 3).
type namedEntry struct {
	named  name.Named
	isType bool
	typ    *types.Type
}

func collectNamed(ns *name.NameSet, out map[string]namedEntry) {
	for _, n := range ns.All() {
		key := qualifiedKey(n)
		if t, ok := n.(*types.Type); ok {
			out[key] = namedEntry{named: n, isType: true, typ: t}
			collectNamed(t.NameSet, out)
			continue
		}
		out[key] = namedEntry{named: n}
		if pkg, ok := n.(*name.Package); ok {
			collectNamed(pkg.NameSet, out)
		}
	}
}

// BuildEquivalence matches oldRoot against newRoot. Independent top-level
// subtrees are checked concurrently via errgroup before the atomic swap
// barrier (SPEC_FULL.md §5 "fan out structural-equivalence checks across
// independent subtrees").
func BuildEquivalence(ctx context.Context, oldRoot, newRoot *name.Package) (*Equivalence, error) {
	oldEntries := map[string]namedEntry{}
	newEntries := map[string]namedEntry{}
	collectNamed(oldRoot.NameSet, oldEntries)
	collectNamed(newRoot.NameSet, newEntries)

	keys := make([]string, 0, len(oldEntries))
	for k := range oldEntries {
		keys = append(keys, k)
	}

	eq := &Equivalence{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			oldEntry := oldEntries[k]
			newEntry, ok := newEntries[k]

			mu.Lock()
			defer mu.Unlock()
			if !ok {
				if oldEntry.isType {
					eq.Removed = append(eq.Removed, oldEntry.typ)
				}
				return nil
			}
			if oldEntry.isType != newEntry.isType {
				return diagnostics.New(diagnostics.ReplaceError, oldEntry.named.Pos(),
					"%q changed kind across reload (type <-> non-type)", k)
			}
			if !oldEntry.isType {
				return nil // non-Type Named entities are not migrated by reload
			}
			if oldEntry.typ.Flags().Kind() != newEntry.typ.Flags().Kind() {
				return diagnostics.New(diagnostics.ReplaceError, newEntry.typ.Pos(),
					"%q changed kind across reload (%s -> %s)", k, oldEntry.typ.Flags(), newEntry.typ.Flags())
			}
			eq.Kept = append(eq.Kept, KeptType{Old: oldEntry.typ, New: newEntry.typ})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for k, newEntry := range newEntries {
		if !newEntry.isType {
			continue
		}
		if _, ok := oldEntries[k]; !ok {
			eq.Added = append(eq.Added, newEntry.typ)
		}
	}
	return eq, nil
}

// migrateMembers copies members present in new but absent (by name) from
// old onto old, then refinalizes old's layout (spec §8 scenario 5: "add
// member" — existing references keep old's object identity, but
// old.find("b") must now succeed).
func migrateMembers(old, newT *types.Type) error {
	existing := map[string]bool{}
	for _, m := range old.Members() {
		existing[m.VarName] = true
	}
	for _, m := range newT.Members() {
		if existing[m.VarName] {
			continue
		}
		old.AddMember(&types.MemberVar{VarName: m.VarName, VarType: m.VarType})
	}
	return old.FinalizeLayout()
}

// TemplateDecision records what RematchTemplates did with one template
// instantiation (spec §4.10 step 3).
type TemplateDecision struct {
	Part       name.SimplePart
	Removed    bool
	Replacement name.Named
}

// RematchTemplates finds every template-instantiated Type in owner (one
// with a non-empty Params()) whose parameters reference a changed Type,
// removes the stale instance, and re-triggers NameSet.Find's own template
// machinery to either recreate it (replaceTemplatesFrom) or drop it for
// good when no live template still produces a match (removeTemplatesFrom)
// — spec §4.10 step 3.
func RematchTemplates(owner *name.NameSet, changed map[*types.Type]bool) ([]TemplateDecision, error) {
	var decisions []TemplateDecision
	for _, n := range owner.All() {
		t, ok := n.(*types.Type)
		if !ok || len(t.Params()) == 0 {
			continue
		}
		depends := false
		for _, p := range t.Params() {
			if pt, ok := p.Type.(*types.Type); ok && changed[pt] {
				depends = true
				break
			}
		}
		if !depends {
			continue
		}
		part := name.PartOf(t)
		owner.Remove(t)
		rematched, err := owner.Find(part)
		if err != nil {
			return decisions, err
		}
		if rematched == nil {
			decisions = append(decisions, TemplateDecision{Part: part, Removed: true})
			continue
		}
		decisions = append(decisions, TemplateDecision{Part: part, Replacement: rematched})
	}
	return decisions, nil
}

// ReplaceTasks performs the global reference swap (spec §4.10 step 4): an
// ObjMap of live (old -> new) runtime objects populated by the caller as
// it walks its own roots, plus the set of Type handles to install last.
// Apply is expected to run on the Compiler thread with no user code
// running (spec §4.10 "Reload happens on the Compiler thread").
type ReplaceTasks struct {
	Objects *rtsvc.ObjMap
	VTables map[*types.Type]*rtsvc.TypeHandle
}

func NewReplaceTasks() *ReplaceTasks {
	return &ReplaceTasks{Objects: rtsvc.NewObjMap(), VTables: make(map[*types.Type]*rtsvc.TypeHandle)}
}

// Apply visits every recorded (old, new) object pair — standing in for "the
// GC walks roots replacing those pointers" (spec §4.10 step 4), since no
// real collector is modeled here (spec §1 out of scope) — then installs
// every new vtable handle, strictly after the object pass.
func (rt *ReplaceTasks) Apply() {
	rt.Objects.Each(func(oldObj, newObj any) {
		o, ok := oldObj.(*rtsvc.Obj)
		if !ok {
			return
		}
		n, ok := newObj.(*rtsvc.Obj)
		if !ok {
			return
		}
		o.SetVTable(n.Handle())
	})
	for t, h := range rt.VTables {
		t.SetHandle(h)
	}
}

// ReplaceContext is the full hot-reload coordinator for one reload
// generation (spec §4.10, §3 "ReplaceContext / ReplaceTasks").
type ReplaceContext struct {
	GenerationID string
	Old, New     *name.Package
	Equivalence  *Equivalence
	Tasks        *ReplaceTasks
}

// NewReplaceContext starts a new reload generation, tagged with a uuid so
// concurrent reloads can be told apart in logs (SPEC_FULL.md §2 domain
// stack: "google/uuid ... C10 (reload generation IDs)").
func NewReplaceContext(old, newPkg *name.Package) *ReplaceContext {
	return &ReplaceContext{
		GenerationID: uuid.NewString(),
		Old:          old,
		New:          newPkg,
		Tasks:        NewReplaceTasks(),
	}
}

// Run executes the full spec §4.10 sequence: build the equivalence,
// migrate kept types' members in place, remove orphans, rematch dependent
// templates, then apply the reference swap.
func (rc *ReplaceContext) Run(ctx context.Context) error {
	eq, err := BuildEquivalence(ctx, rc.Old, rc.New)
	if err != nil {
		return err
	}
	rc.Equivalence = eq

	changed := make(map[*types.Type]bool, len(eq.Kept))
	for _, kt := range eq.Kept {
		if err := migrateMembers(kt.Old, kt.New); err != nil {
			return err
		}
		changed[kt.Old] = true
		if h := kt.New.Handle(); h != nil {
			rc.Tasks.VTables[kt.Old] = h
		}
	}

	for _, removed := range eq.Removed {
		if parent, ok := removed.ParentLookup().(*name.NameSet); ok {
			parent.Remove(removed)
		}
	}

	if _, err := RematchTemplates(rc.Old.NameSet, changed); err != nil {
		return err
	}

	rc.Tasks.Apply()
	return nil
}
