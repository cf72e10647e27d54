package name

import (
	"golang.org/x/sync/singleflight"

	"github.com/stormlang/storm/internal/diagnostics"
)

// Template is a factory invoked on a SimplePart that does not match any
// existing Named (spec §3, §4.3) — the mechanism behind Array<T>, Maybe<T>,
// Fn<R, P...>, Map<K, V> and user generics. Owner is the NameSet the
// template instance should be added under once created.
type Template interface {
	// CreateTemplate attempts to produce a Named for part. Returning
	// (nil, nil) means "not applicable", distinct from an error.
	CreateTemplate(owner *NameSet, part SimplePart) (Named, error)
}

// NameOverloads holds every Named sharing one name within a single NameSet,
// plus the Templates that may still generate more on demand (spec §3).
type NameOverloads struct {
	items     []Named
	templates []Template

	// instantiate collapses concurrent MatchTemplate calls for the same
	// SimplePart onto a single CreateTemplate invocation, so two lookup
	// threads racing to instantiate e.g. Array(core.Int) don't both run the
	// factory and fight over Add.
	instantiate singleflight.Group
}

// Add appends a Named to this slot. The (name, params) uniqueness
// invariant (spec §3) is enforced by NameSet.Add, which calls this after
// checking for a duplicate key.
func (o *NameOverloads) Add(n Named) {
	o.items = append(o.items, n)
}

// AddTemplate registers a template generator. First-registered-wins is the
// documented tie-break policy when two templates could both match the same
// SimplePart (spec §9 Open Questions, resolved in DESIGN.md).
func (o *NameOverloads) AddTemplate(t Template) {
	o.templates = append(o.templates, t)
}

func (o *NameOverloads) Remove(n Named) bool {
	for i, item := range o.items {
		if item == n {
			o.items = append(o.items[:i], o.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns every Named in this slot, in insertion order (spec §4.3
// "Iteration order over overloads is insertion order").
func (o *NameOverloads) Items() []Named {
	return o.items
}

// Choose performs SimplePart.choose: pick the lowest-badness Named whose
// declared Params the part's Params match. Ties at the minimum badness are
// reported as an ambiguous-match error listing every tied candidate (spec
// §4.3 step 2).
func (o *NameOverloads) Choose(part SimplePart) (Named, error) {
	best := -1
	var bestMatches []Named
	for _, item := range o.items {
		part2 := SimplePart{PName: item.Name(), Params: item.Params()}
		b := part2.Badness(part.Params)
		if b < 0 {
			continue
		}
		if best < 0 || b < best {
			best = b
			bestMatches = []Named{item}
		} else if b == best {
			bestMatches = append(bestMatches, item)
		}
	}
	if len(bestMatches) == 1 {
		return bestMatches[0], nil
	}
	if len(bestMatches) > 1 {
		names := make([]string, len(bestMatches))
		for i, m := range bestMatches {
			names[i] = PartOf(m).String()
		}
		return nil, diagnostics.Ambiguous(diagnostics.NoPos, part.String(), names)
	}
	return nil, nil
}

// MatchTemplate iterates registered templates in registration order and
// returns the first one that produces a Named for part.
func (o *NameOverloads) MatchTemplate(owner *NameSet, part SimplePart) (Named, error) {
	v, err, _ := o.instantiate.Do(part.String(), func() (any, error) {
		for _, t := range o.templates {
			n, err := t.CreateTemplate(owner, part)
			if err != nil {
				return nil, err
			}
			if n != nil {
				o.Add(n)
				return n, nil
			}
		}
		return nil, nil
	})
	if err != nil || v == nil {
		return nil, err
	}
	return v.(Named), nil
}
