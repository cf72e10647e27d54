package grammar

import (
	"regexp"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/types"
)

// Token is the common contract of the three grammar token variants (spec
// §3 "Token variants"). Each carries an optional capture target, an
// optional invoke method name, a raw-capture flag, and a syntax-highlight
// color.
type Token interface {
	Target() *types.MemberVar
	Invoke() string
	Raw() bool
	Color() string
	// Match attempts to consume src starting at pos. It returns the number
	// of bytes consumed and the matched text, or ok == false on no match.
	Match(src string, pos int) (consumed int, text string, ok bool)
	String() string
}

// tokenBase is the embeddable implementation shared by every Token variant.
type tokenBase struct {
	target *types.MemberVar
	invoke string
	raw    bool
	color  string
}

func (t tokenBase) Target() *types.MemberVar { return t.target }
func (t tokenBase) Invoke() string           { return t.invoke }
func (t tokenBase) Raw() bool                { return t.raw }
func (t tokenBase) Color() string            { return t.color }

// TokenOpt configures the shared tokenBase fields when constructing a
// token, mirroring the `('@' | ('->' ident) | (ident))? ('#' color)?`
// suffix grammar in spec §6.
type TokenOpt func(*tokenBase)

func WithTarget(m *types.MemberVar) TokenOpt { return func(b *tokenBase) { b.target = m } }
func WithInvoke(name string) TokenOpt        { return func(b *tokenBase) { b.invoke = name } }
func WithRaw() TokenOpt                      { return func(b *tokenBase) { b.raw = true } }
func WithColor(c string) TokenOpt            { return func(b *tokenBase) { b.color = c } }

func applyOpts(b *tokenBase, opts []TokenOpt) {
	for _, o := range opts {
		o(b)
	}
}

// RegexToken matches src against a compiled, left-anchored regular
// expression (spec §3 "RegexToken(regex)").
type RegexToken struct {
	tokenBase
	Regex    string
	compiled *regexp.Regexp
}

// NewRegexToken compiles pattern anchored at the match position. An
// unanchored user pattern is wrapped so partial matches never run away
// past the token boundary the grammar intends.
func NewRegexToken(pattern string, opts ...TokenOpt) (*RegexToken, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return nil, diagnostics.New(diagnostics.LangDefError, diagnostics.NoPos,
			"invalid token regex %q: %v", pattern, err)
	}
	tok := &RegexToken{Regex: pattern, compiled: re}
	applyOpts(&tok.tokenBase, opts)
	return tok, nil
}

func (t *RegexToken) Match(src string, pos int) (int, string, bool) {
	loc := t.compiled.FindStringIndex(src[pos:])
	if loc == nil || loc[0] != 0 {
		return 0, "", false
	}
	return loc[1], src[pos : pos+loc[1]], true
}

func (t *RegexToken) String() string { return `"` + t.Regex + `"` }

// RuleToken refers to another rule, optionally applying resolved
// parameters (spec §3 "RuleToken(rule, maybe params)"). Matching it
// delegates to the InfoParser's recursive rule-matching engine rather than
// a regex, so Match here only reports that recursive resolution is needed;
// callers use matchRule via the engine instead.
type RuleToken struct {
	tokenBase
	RuleRef *Rule
}

func NewRuleToken(rule *Rule, opts ...TokenOpt) *RuleToken {
	tok := &RuleToken{RuleRef: rule}
	applyOpts(&tok.tokenBase, opts)
	return tok
}

// Match always reports no-match: RuleTokens are matched by the engine's
// recursive descent (matchRule), which needs the full InfoParser state
// (position tracking, InfoNode construction) that a bare Match signature
// cannot express.
func (t *RuleToken) Match(string, int) (int, string, bool) { return 0, "", false }

func (t *RuleToken) String() string {
	if t.RuleRef == nil {
		return "<rule>"
	}
	return t.RuleRef.Name()
}

// DelimKind distinguishes the three `,` / `~` / explicit-name delimiter
// declarations from spec §6 (`optional = name; | required = name; |
// delimiter = name;`).
type DelimKind int

const (
	DelimOptional DelimKind = iota // ',' in a production, matches zero-or-more whitespace
	DelimRequired                  // '~' in a production, requires at least one
)

func (k DelimKind) String() string {
	if k == DelimRequired {
		return "~"
	}
	return ","
}

// DelimToken stands for a `,` or `~` token in a production; it is resolved
// to the package's declared optional/required delimiter rule at load time
// (spec §6 "replaced by the declared optional/required delimiters").
type DelimToken struct {
	tokenBase
	Kind DelimKind
	Rule *Rule
}

func NewDelimToken(kind DelimKind, rule *Rule, opts ...TokenOpt) *DelimToken {
	tok := &DelimToken{Kind: kind, Rule: rule}
	applyOpts(&tok.tokenBase, opts)
	return tok
}

// Match always reports no-match: the engine matches a DelimToken itself,
// through its Rule when one is set and through plain whitespace when Rule
// is nil.
func (t *DelimToken) Match(string, int) (int, string, bool) { return 0, "", false }

func (t *DelimToken) String() string { return t.Kind.String() }

var (
	_ Token = (*RegexToken)(nil)
	_ Token = (*RuleToken)(nil)
	_ Token = (*DelimToken)(nil)
)
