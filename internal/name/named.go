package name

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/value"
)

// Visibility gates whether check is visible from source (spec §4.5). The
// concrete singletons (Public, TypePrivate, ...) live in internal/types,
// which can see both Type and Named; this package only needs the contract.
type Visibility interface {
	Name() string
	Visible(check Named, source NameLookup) bool
}

// NameLookup is anything that can be walked outward (parent chain) and
// searched for a part — the minimum a Scope needs to traverse (spec §4.3,
// §4.4). NameSet, Package, and Type all implement it.
type NameLookup interface {
	Named
	Parent() NameLookup
	Find(part SimplePart) (Named, error)
}

// Named is a labelled entity in the tree carrying parameters for
// overloading (spec §3). All concrete entities (NameSet, Package, Type,
// Function, GlobalVar, NamedThread, Rule, ...) implement it, typically by
// embedding Base.
type Named interface {
	Name() string
	Params() []value.Value
	Visibility() Visibility
	SetVisibility(Visibility)
	Pos() diagnostics.SrcPos
	Doc() *diagnostics.Doc
	ParentLookup() NameLookup
	SetParentLookup(NameLookup)
}

// Base is the embeddable implementation of Named shared by every named
// entity in the tree (spec §3 "Named" attributes).
type Base struct {
	NName    string
	NParams  []value.Value
	vis      Visibility
	doc      *diagnostics.Doc
	position diagnostics.SrcPos
	parent   NameLookup
}

func NewBase(name string, params []value.Value, pos diagnostics.SrcPos) Base {
	return Base{NName: name, NParams: params, position: pos}
}

func (b *Base) Name() string                 { return b.NName }
func (b *Base) Params() []value.Value        { return b.NParams }
func (b *Base) Visibility() Visibility       { return b.vis }
func (b *Base) SetVisibility(v Visibility)   { b.vis = v }
func (b *Base) Pos() diagnostics.SrcPos      { return b.position }
func (b *Base) Doc() *diagnostics.Doc        { return b.doc }
func (b *Base) SetDoc(d *diagnostics.Doc)    { b.doc = d }
func (b *Base) ParentLookup() NameLookup     { return b.parent }

// SetParentLookup assigns the owning container. Per spec §4.3 add()
// validates this is unset; NameSet.Add enforces that, not Base itself, so
// Base stays a plain data holder other components can embed freely.
func (b *Base) SetParentLookup(p NameLookup) { b.parent = p }

// ValueProvider is implemented by Named entities that denote a type (i.e.
// internal/types.Type); Scope.Value uses it to reject non-type lookup
// results without internal/scope importing internal/types.
type ValueProvider interface {
	AsValue() value.Value
}

// PartOf builds the SimplePart a Named is addressed by within its
// container: its own name paired with its declared Params.
func PartOf(n Named) SimplePart {
	return SimplePart{PName: n.Name(), Params: n.Params()}
}
