package grammar

import (
	"strings"
	"sync/atomic"

	"golang.org/x/text/width"
)

// InfoNode is a concrete-syntax tree node preserving every matched
// character, used for editor tooling (spec §3 "InfoNode", §4.6). Each node
// caches its length and an error flag in a single 32-bit field; mutating a
// node's children invalidates the cache up the parent chain.
type InfoNode interface {
	Length() int
	HasError() bool
	ToS() string
	setParent(*InfoInternal)
}

// packedCache stores (length, errorFlag) in one int32 as the spec
// describes, with a negative value meaning "not yet computed".
type packedCache struct {
	v int32
}

const infoCacheErrorBit int32 = 1 << 30

func (c *packedCache) load() (length int, hasError bool, valid bool) {
	v := atomic.LoadInt32(&c.v)
	if v < 0 {
		return 0, false, false
	}
	return int(v &^ infoCacheErrorBit), v&infoCacheErrorBit != 0, true
}

func (c *packedCache) store(length int, hasError bool) {
	v := int32(length)
	if hasError {
		v |= infoCacheErrorBit
	}
	atomic.StoreInt32(&c.v, v)
}

func (c *packedCache) invalidate() {
	atomic.StoreInt32(&c.v, -1)
}

// InfoLeaf is a terminal match: either a regex-matched token or raw
// untokenized text (spec §3 "InfoLeaf(matched-regex?, text)").
type InfoLeaf struct {
	MatchedRegex string // the RegexToken's pattern, empty if this leaf is raw/untokenized
	Text         string

	parent *InfoInternal
	errs   bool // true if this leaf stands in for a skipped/error span
}

func NewInfoLeaf(matchedRegex, text string) *InfoLeaf {
	return &InfoLeaf{MatchedRegex: matchedRegex, Text: text}
}

// NewErrorLeaf builds a leaf representing skipped input during error
// recovery (spec §4.6 InfoErrors "skipped").
func NewErrorLeaf(text string) *InfoLeaf {
	return &InfoLeaf{Text: text, errs: true}
}

func (l *InfoLeaf) Length() int     { return len(l.Text) }
func (l *InfoLeaf) HasError() bool  { return l.errs }
func (l *InfoLeaf) ToS() string     { return l.Text }
func (l *InfoLeaf) setParent(p *InfoInternal) { l.parent = p }

// InfoInternal is a production match: the production it came from plus its
// ordered children (spec §3 "InfoInternal(production, children[])").
type InfoInternal struct {
	Production *Production
	Children   []InfoNode
	Indents    []IndentAnnotation

	parent *InfoInternal
	cache  packedCache
}

func NewInfoInternal(prod *Production, children ...InfoNode) *InfoInternal {
	n := &InfoInternal{Production: prod}
	n.cache.invalidate()
	n.SetChildren(children)
	return n
}

// SetChildren replaces the node's children and invalidates the cached
// length/error bit up the parent chain (spec §3 "the length cache is
// invalidated up the parent chain on mutation").
func (n *InfoInternal) SetChildren(children []InfoNode) {
	n.Children = children
	for _, c := range children {
		c.setParent(n)
	}
	n.invalidateChain()
}

// AddChild appends one child, same invalidation contract as SetChildren.
func (n *InfoInternal) AddChild(c InfoNode) {
	n.Children = append(n.Children, c)
	c.setParent(n)
	n.invalidateChain()
}

func (n *InfoInternal) invalidateChain() {
	for cur := n; cur != nil; cur = cur.parent {
		cur.cache.invalidate()
	}
}

func (n *InfoInternal) setParent(p *InfoInternal) { n.parent = p }

// Length returns the cached total byte length of this subtree, recomputing
// and caching it on a miss (spec §3 "caches its length ... in a single
// 32-bit field").
func (n *InfoInternal) Length() int {
	if length, _, valid := n.cache.load(); valid {
		return length
	}
	length, _ := n.recompute()
	return length
}

// HasError reports whether this subtree contains any error leaf,
// recomputing the cache on a miss exactly like Length.
func (n *InfoInternal) HasError() bool {
	if _, hasError, valid := n.cache.load(); valid {
		return hasError
	}
	_, hasError := n.recompute()
	return hasError
}

func (n *InfoInternal) recompute() (length int, hasError bool) {
	for _, c := range n.Children {
		length += c.Length()
		hasError = hasError || c.HasError()
	}
	n.cache.store(length, hasError)
	return length, hasError
}

// ToS reconstructs the original matched source substring character for
// character (spec §8 "InfoNode round-trip").
func (n *InfoInternal) ToS() string {
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.ToS())
	}
	return b.String()
}

// Columns reports the editor column width of s, counting each East Asian
// wide or fullwidth rune as two columns (spec §4.6 InfoNode rendering
// needs column-accurate positions, not byte counts, for indent/cursor math).
func Columns(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// Columns is the column-width equivalent of Length for one leaf.
func (l *InfoLeaf) Columns() int { return Columns(l.Text) }

// Columns sums each child's column width; unlike Length it is not cached,
// since it is only ever queried for a line-at-a-time editor render rather
// than on every parse.
func (n *InfoInternal) Columns() int {
	total := 0
	for _, c := range n.Children {
		if cc, ok := c.(interface{ Columns() int }); ok {
			total += cc.Columns()
		} else {
			total += Columns(c.ToS())
		}
	}
	return total
}

var (
	_ InfoNode = (*InfoLeaf)(nil)
	_ InfoNode = (*InfoInternal)(nil)
)
