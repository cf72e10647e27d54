package name

// Package extends NameSet with an optional filesystem URL, an append-only
// (until the loader is released) list of exported packages, and a
// discard-on-load flag (spec §3). A virtual package has no URL and must be
// populated eagerly (DiscardOnLoad has no effect on it).
type Package struct {
	*NameSet

	url           string
	license       string
	exported      []*Package
	discardOnLoad bool
	released      bool
}

func NewPackage(base Base, url string) *Package {
	p := &Package{NameSet: NewNameSet(base), url: url}
	p.SetOwner(p)
	p.exportedHook = func() []*NameSet {
		out := make([]*NameSet, len(p.exported))
		for i, e := range p.exported {
			out[i] = e.NameSet
		}
		return out
	}
	return p
}

func (p *Package) URL() string   { return p.url }
func (p *Package) IsVirtual() bool { return p.url == "" }

// License returns the text of this package's .license file, or "" if it has
// none.
func (p *Package) License() string     { return p.license }
func (p *Package) SetLicense(l string) { p.license = l }

// AddExport appends to Exported. Panics if called after the package's
// loader has been released — exported is append-only until then (spec §3
// lifecycles): a release-after-export call is a programming error in the
// reader pipeline, not a recoverable user error, so it is reported loudly
// rather than silently ignored.
func (p *Package) AddExport(dep *Package) {
	if p.released {
		panic("name: AddExport called after package loader was released")
	}
	p.exported = append(p.exported, dep)
}

func (p *Package) Exported() []*Package {
	out := make([]*Package, len(p.exported))
	copy(out, p.exported)
	return out
}

// ReleaseLoader marks the package's exported list as closed; AddExport
// panics after it (spec §3). Nothing in the reader pipeline calls it.
func (p *Package) ReleaseLoader() {
	p.released = true
}

func (p *Package) DiscardOnLoad() bool        { return p.discardOnLoad }
func (p *Package) SetDiscardOnLoad(v bool)    { p.discardOnLoad = v }

// RecursiveFind runs the same search as Find: the package's own names, then
// Exported transitively with a cycle guard (spec §4.8 "recursiveFind
// traverses them with a cycle guard"). Nothing in the repository calls it.
func (p *Package) RecursiveFind(part SimplePart) (Named, error) {
	return p.find(part, make(map[*NameSet]bool))
}
