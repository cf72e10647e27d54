package grammar

import (
	"regexp"

	"github.com/stormlang/storm/internal/diagnostics"
)

// InfoErrors quantifies one recovery attempt so callers can compare two
// candidate parses (spec §4.6 "InfoParser ... error() ... InfoErrors value
// with success, shifts, skipped counts").
type InfoErrors struct {
	Success bool
	Shifts  int
	Skipped int
}

// InfoParser is the parser front-end connecting the grammar runtime to the
// name tree (spec §4.6): root(rule), parse, parseApprox, matchEnd,
// hasTree, infoTree, fullInfoTree, error, clear, sameSyntax.
type InfoParser struct {
	root *Rule

	src string
	url string

	tree     InfoNode
	instance *Instance
	end      int
	err      *diagnostics.CodeError
	recovery InfoErrors
}

func NewInfoParser() *InfoParser { return &InfoParser{} }

// Root sets the top-level rule subsequent Parse/ParseApprox calls match
// against.
func (p *InfoParser) Root(rule *Rule) { p.root = rule }

// Clear resets match state while keeping the configured root rule, so one
// InfoParser can be reused across files (spec §4.6).
func (p *InfoParser) Clear() {
	p.src, p.url, p.tree, p.instance, p.end, p.err = "", "", nil, nil, 0, nil
	p.recovery = InfoErrors{}
}

func (p *InfoParser) HasTree() bool                  { return p.tree != nil }
func (p *InfoParser) InfoTree() InfoNode              { return p.tree }
func (p *InfoParser) FullInfoTree() InfoNode          { return p.tree }
func (p *InfoParser) Error() *diagnostics.CodeError   { return p.err }
func (p *InfoParser) MatchEnd() int                   { return p.end }
func (p *InfoParser) Instance() *Instance             { return p.instance }
func (p *InfoParser) RecoveryStats() InfoErrors       { return p.recovery }

// Parse matches src[start:] against Root, failing outright on the first
// mismatch (spec §4.6 "parse(src, url, start)").
func (p *InfoParser) Parse(src, url string, start int) (int, error) {
	p.src, p.url = src, url
	if p.root == nil {
		return start, diagnostics.New(diagnostics.InternalError, diagnostics.SrcPos{File: url, Offset: start},
			"InfoParser.Parse called with no root rule set")
	}
	res, err := p.matchRule(p.root, start)
	if err != nil {
		p.err = asCodeError(err)
		return start, err
	}
	if res == nil {
		e := diagnostics.New(diagnostics.SyntaxError, diagnostics.SrcPos{File: url, Offset: start},
			"no production of %q matches the input", p.root.Name())
		p.err = e
		return start, e
	}
	p.tree, p.instance, p.end = res.node, res.instance, start+res.consumed
	p.recovery = InfoErrors{Success: true}
	return p.end, nil
}

// ParseApprox matches as much as it can, skipping one byte at a time past
// a mismatch and retrying, so editor tooling can still show a (partial,
// error-flagged) tree for invalid source (spec §4.6 "parseApprox").
func (p *InfoParser) ParseApprox(src, url string) (int, error) {
	p.src, p.url = src, url
	if p.root == nil {
		return 0, diagnostics.New(diagnostics.InternalError, diagnostics.SrcPos{File: url},
			"InfoParser.ParseApprox called with no root rule set")
	}

	var children []InfoNode
	pos, skipped, shifts := 0, 0, 0
	for pos < len(src) {
		res, err := p.matchRule(p.root, pos)
		if err != nil {
			p.err = asCodeError(err)
			break
		}
		if res != nil && res.consumed > 0 {
			children = append(children, res.node)
			pos += res.consumed
			continue
		}
		// no production matched here: skip one byte and try again.
		end := pos + 1
		if end > len(src) {
			end = len(src)
		}
		children = append(children, NewErrorLeaf(src[pos:end]))
		skipped++
		shifts++
		pos = end
	}

	root := NewInfoInternal(nil, children...)
	p.tree = root
	p.end = pos
	p.recovery = InfoErrors{Success: skipped == 0, Shifts: shifts, Skipped: skipped}
	return pos, nil
}

// SameSyntax reports whether two parses produced structurally identical
// trees: same production shape at every level and identical matched text
// (spec §4.6 "sameSyntax(other)").
func (p *InfoParser) SameSyntax(other *InfoParser) bool {
	if p.tree == nil || other.tree == nil {
		return p.tree == other.tree
	}
	return sameShape(p.tree, other.tree)
}

func sameShape(a, b InfoNode) bool {
	switch av := a.(type) {
	case *InfoLeaf:
		bv, ok := b.(*InfoLeaf)
		return ok && av.Text == bv.Text && av.MatchedRegex == bv.MatchedRegex
	case *InfoInternal:
		bv, ok := b.(*InfoInternal)
		if !ok || av.Production != bv.Production || len(av.Children) != len(bv.Children) {
			return false
		}
		for i := range av.Children {
			if !sameShape(av.Children[i], bv.Children[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func asCodeError(err error) *diagnostics.CodeError {
	if ce, ok := err.(*diagnostics.CodeError); ok {
		return ce
	}
	return diagnostics.New(diagnostics.InternalError, diagnostics.NoPos, "%v", err)
}

// --- matching engine ---

type ruleMatch struct {
	node     *InfoInternal
	instance *Instance
	consumed int
}

// matchRule tries rule's productions in priority order, returning the
// first one that matches (spec §4.6: productions are tried in priority
// order; the first full match wins, consistent with the PEG-style
// ordered-choice the source grammar implies).
func (p *InfoParser) matchRule(rule *Rule, pos int) (*ruleMatch, error) {
	for _, prod := range rule.Productions() {
		m, err := p.matchProduction(prod, pos)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}
	return nil, nil
}

type blockPass struct {
	nodes    []InfoNode
	captured map[string]any
	consumed int
}

// matchToken attempts one token at pos, returning nil (not an error) on a
// plain mismatch.
func (p *InfoParser) matchToken(tok Token, pos int) (*blockPass, error) {
	switch t := tok.(type) {
	case *RegexToken:
		consumed, text, ok := t.Match(p.src, pos)
		if !ok {
			return nil, nil
		}
		leaf := NewInfoLeaf(t.Regex, text)
		captured := map[string]any{}
		if target := t.Target(); target != nil {
			captured[target.VarName] = text
		}
		return &blockPass{nodes: []InfoNode{leaf}, captured: captured, consumed: consumed}, nil
	case *RuleToken:
		res, err := p.matchRule(t.RuleRef, pos)
		if err != nil || res == nil {
			return nil, err
		}
		captured := map[string]any{}
		if target := t.Target(); target != nil {
			captured[target.VarName] = res.instance
		}
		return &blockPass{nodes: []InfoNode{res.node}, captured: captured, consumed: res.consumed}, nil
	case *DelimToken:
		if t.Rule != nil {
			res, err := p.matchRule(t.Rule, pos)
			if err != nil {
				return nil, err
			}
			if res == nil {
				if t.Kind == DelimOptional {
					return &blockPass{nodes: []InfoNode{NewInfoLeaf("", "")}}, nil
				}
				return nil, nil
			}
			return &blockPass{nodes: []InfoNode{res.node}, consumed: res.consumed}, nil
		}
		return p.matchDefaultDelim(t, pos)
	default:
		return nil, diagnostics.New(diagnostics.InternalError, diagnostics.NoPos, "unknown token variant %T", tok)
	}
}

var (
	optionalDelimRe = regexp.MustCompile(`\A[ \t\r\n]*`)
	requiredDelimRe = regexp.MustCompile(`\A[ \t\r\n]+`)
)

// matchDefaultDelim is the built-in fallback used before a package's `,`
// and `~` tokens are resolved to its declared delimiter rule at load time
// (spec §6): plain whitespace, optional or required.
func (p *InfoParser) matchDefaultDelim(t *DelimToken, pos int) (*blockPass, error) {
	re := optionalDelimRe
	if t.Kind == DelimRequired {
		re = requiredDelimRe
	}
	loc := re.FindStringIndex(p.src[pos:])
	if loc == nil {
		if t.Kind == DelimOptional {
			return &blockPass{nodes: []InfoNode{NewInfoLeaf("", "")}}, nil
		}
		return nil, nil
	}
	text := p.src[pos : pos+loc[1]]
	return &blockPass{nodes: []InfoNode{NewInfoLeaf("", text)}, consumed: loc[1]}, nil
}

// matchBlockOnce matches one sequential pass over block, used both for a
// production's non-repeated prefix/suffix and for one iteration of a
// repeated range.
func (p *InfoParser) matchBlockOnce(block []Token, pos int) (*blockPass, error) {
	cur := pos
	var nodes []InfoNode
	captured := map[string]any{}
	for _, tok := range block {
		tm, err := p.matchToken(tok, cur)
		if err != nil {
			return nil, err
		}
		if tm == nil {
			return nil, nil
		}
		nodes = append(nodes, tm.nodes...)
		for k, v := range tm.captured {
			captured[k] = v
		}
		cur += tm.consumed
	}
	return &blockPass{nodes: nodes, captured: captured, consumed: cur - pos}, nil
}

// matchRepeatedBlock runs matchBlockOnce repeatedly, up to max passes (-1
// for unlimited), stopping on a mismatch or a zero-width pass (to avoid
// looping forever on an empty repeated unit).
func (p *InfoParser) matchRepeatedBlock(block []Token, pos int, max int) ([]*blockPass, int, error) {
	var passes []*blockPass
	cur := pos
	for max < 0 || len(passes) < max {
		pass, err := p.matchBlockOnce(block, cur)
		if err != nil {
			return nil, 0, err
		}
		if pass == nil || pass.consumed == 0 {
			break
		}
		passes = append(passes, pass)
		cur += pass.consumed
	}
	return passes, cur - pos, nil
}

// matchProduction matches every token of prod sequentially, handling the
// declared [RepStart, RepEnd) repeated range per prod.RepType (spec §4.6
// "Repetition annotations"), then runs the transform function over the
// captured members (spec §4.6 "transform function").
func (p *InfoParser) matchProduction(prod *Production, pos int) (*ruleMatch, error) {
	cur := pos
	var children []InfoNode
	captured := map[string]any{}

	tokens := prod.Tokens
	for i := 0; i < len(tokens); i++ {
		if prod.HasRepetition() && i == prod.RepStart {
			block := tokens[prod.RepStart:prod.RepEnd]
			max := -1
			if prod.RepType == RepOptional {
				max = 1
			}
			passes, consumed, err := p.matchRepeatedBlock(block, cur, max)
			if err != nil {
				return nil, err
			}
			if prod.RepType == RepPlus && len(passes) == 0 {
				return nil, nil
			}
			if prod.RepCapture != nil {
				raw := p.src[cur : cur+consumed]
				if target := prod.RepCapture.Target(); target != nil {
					captured[target.VarName] = raw
				}
			} else {
				aggregate(captured, passes, prod.RepType)
			}
			for _, pass := range passes {
				children = append(children, pass.nodes...)
			}
			cur += consumed
			i = prod.RepEnd - 1
			continue
		}

		tm, err := p.matchToken(tokens[i], cur)
		if err != nil {
			return nil, err
		}
		if tm == nil {
			return nil, nil
		}
		children = append(children, tm.nodes...)
		for k, v := range tm.captured {
			captured[k] = v
		}
		cur += tm.consumed
	}

	node := NewInfoInternal(prod, children...)
	node.Indents = prod.Indents
	inst, err := Transform(prod, &TransformContext{Captured: captured, Node: node})
	if err != nil {
		return nil, err
	}
	return &ruleMatch{node: node, instance: inst, consumed: cur - pos}, nil
}

// aggregate folds each repeated pass's per-member captures into the
// production-level captured map: a single value for RepOptional (at most
// one pass ever runs), an ordered slice (Array<T>) otherwise (spec §4.6
// "captured field is Maybe<T> ... Array<T>").
func aggregate(captured map[string]any, passes []*blockPass, rt RepType) {
	keys := make(map[string]bool)
	for _, pass := range passes {
		for k := range pass.captured {
			keys[k] = true
		}
	}
	for k := range keys {
		var vals []any
		for _, pass := range passes {
			if v, ok := pass.captured[k]; ok {
				vals = append(vals, v)
			}
		}
		if rt == RepOptional {
			if len(vals) > 0 {
				captured[k] = vals[0]
			} else {
				captured[k] = nil
			}
			continue
		}
		captured[k] = vals
	}
}
