package grammar

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stormlang/storm/internal/diagnostics"
)

// bnf.go implements the grammar-definition language's concrete syntax
// (spec §6 ".bnf syntax (design-level EBNF sketch)"): a small hand-written
// lexer/parser that turns `.bnf` source into declaration ASTs. Resolving a
// RuleDecl's TypeName or a ProdDecl's RuleName against the name tree is the
// reader pipeline's job (internal/reader), not this package's — grammar
// only knows grammar syntax, not scope.

// UseDecl is `use name ;`.
type UseDecl struct {
	Name string
	Pos  diagnostics.SrcPos
}

// DelimDecl is `(optional|required|delimiter) = name ;`.
type DelimDecl struct {
	Kind string // "optional" | "required" | "delimiter"
	Name string
	Pos  diagnostics.SrcPos
}

// RuleParamDecl is one formal `(type name)` pair in a rule's parameter
// list.
type RuleParamDecl struct {
	TypeName string
	Name     string
}

// RuleDecl is `type name '(' params? ')' ('#' color)? ';'`.
type RuleDecl struct {
	TypeName string
	Name     string
	Params   []RuleParamDecl
	Color    string
	Pos      diagnostics.SrcPos
}

// TokenDecl is one element of a production's token sequence (spec §6
// `token := regex-literal | rule-ref | ',' | '~' | '-'`), with the trailing
// capture/invoke/color suffix already parsed.
type TokenDecl struct {
	Kind     string // "regex" | "rule" | "comma" | "tilde" | "dash"
	Regex    string
	RuleName string
	Color    string
	Target   string // bare `ident` capture target, empty if none
	Invoke   string // `-> ident` invoke method name, empty if none
	Raw      bool   // `@` raw-capture marker
}

// ProdDecl is `(parent '..')? rule-name ('[' int ']')? ('=>' result
// ('(' args? ')')?)? ':' token-seq ('=' prod-name)? ';'`.
type ProdDecl struct {
	Parent      string
	RuleName    string
	Priority    int
	HasPriority bool
	ResultName  string
	ResultArgs  []string
	Tokens      []TokenDecl
	RepStart    int
	RepEnd      int
	RepType     RepType
	ProdName    string
	Pos         diagnostics.SrcPos
}

// File is a fully parsed `.bnf` source file.
type File struct {
	Uses        []UseDecl
	Delims      []DelimDecl
	Rules       []RuleDecl
	Productions []ProdDecl
}

// --- lexer ---

type bnfTokKind int

const (
	bnfEOF bnfTokKind = iota
	bnfIdent
	bnfString
	bnfInt
	bnfPunct
)

type bnfTok struct {
	kind bnfTokKind
	text string
	pos  int
}

type bnfLexer struct {
	src string
	pos int
}

func newBnfLexer(src string) *bnfLexer { return &bnfLexer{src: src} }

func (l *bnfLexer) peekRune() (rune, int) {
	if l.pos >= len(l.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.src[l.pos:])
}

func (l *bnfLexer) skip() {
	for l.pos < len(l.src) {
		r, size := l.peekRune()
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			l.pos += size
			continue
		}
		if strings.HasPrefix(l.src[l.pos:], "//") {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

func (l *bnfLexer) next() bnfTok {
	l.skip()
	if l.pos >= len(l.src) {
		return bnfTok{kind: bnfEOF, pos: l.pos}
	}
	start := l.pos
	r, size := l.peekRune()

	switch {
	case r == '"':
		l.pos += size
		var b strings.Builder
		for l.pos < len(l.src) {
			r2, s2 := l.peekRune()
			if r2 == '"' {
				l.pos += s2
				break
			}
			if r2 == '\\' {
				l.pos += s2
				r3, s3 := l.peekRune()
				b.WriteRune(r3)
				l.pos += s3
				continue
			}
			b.WriteRune(r2)
			l.pos += s2
		}
		return bnfTok{kind: bnfString, text: b.String(), pos: start}
	case unicode.IsLetter(r) || r == '_':
		for l.pos < len(l.src) {
			r2, s2 := l.peekRune()
			if unicode.IsLetter(r2) || unicode.IsDigit(r2) || r2 == '_' {
				l.pos += s2
			} else {
				break
			}
		}
		return bnfTok{kind: bnfIdent, text: l.src[start:l.pos], pos: start}
	case unicode.IsDigit(r):
		for l.pos < len(l.src) {
			r2, s2 := l.peekRune()
			if unicode.IsDigit(r2) {
				l.pos += s2
			} else {
				break
			}
		}
		return bnfTok{kind: bnfInt, text: l.src[start:l.pos], pos: start}
	case strings.HasPrefix(l.src[l.pos:], "=>"):
		l.pos += 2
		return bnfTok{kind: bnfPunct, text: "=>", pos: start}
	case strings.HasPrefix(l.src[l.pos:], ".."):
		l.pos += 2
		return bnfTok{kind: bnfPunct, text: "..", pos: start}
	case strings.HasPrefix(l.src[l.pos:], "->"):
		l.pos += 2
		return bnfTok{kind: bnfPunct, text: "->", pos: start}
	default:
		l.pos += size
		return bnfTok{kind: bnfPunct, text: string(r), pos: start}
	}
}

// --- parser ---

type bnfParser struct {
	lex  *bnfLexer
	tok  bnfTok
	url  string
}

// ParseFile parses one complete `.bnf` source file (spec §6 `file := (use
// | delim | rule | prod)*`).
func ParseFile(src, url string) (*File, error) {
	p := &bnfParser{lex: newBnfLexer(src), url: url}
	p.advance()

	f := &File{}
	for p.tok.kind != bnfEOF {
		switch {
		case p.atIdent("use"):
			d, err := p.parseUse()
			if err != nil {
				return nil, err
			}
			f.Uses = append(f.Uses, d)
		case p.atIdent("optional") || p.atIdent("required") || p.atIdent("delimiter"):
			d, err := p.parseDelim()
			if err != nil {
				return nil, err
			}
			f.Delims = append(f.Delims, d)
		default:
			rules, prods, err := p.parseRuleOrProd()
			if err != nil {
				return nil, err
			}
			f.Rules = append(f.Rules, rules...)
			f.Productions = append(f.Productions, prods...)
		}
	}
	return f, nil
}

func (p *bnfParser) advance() { p.tok = p.lex.next() }

func (p *bnfParser) errAt(pos int, format string, args ...any) error {
	return diagnostics.New(diagnostics.SyntaxError, diagnostics.SrcPos{File: p.url, Offset: pos}, format, args...)
}

func (p *bnfParser) atIdent(s string) bool {
	return p.tok.kind == bnfIdent && p.tok.text == s
}

func (p *bnfParser) expectPunct(s string) (int, error) {
	if p.tok.kind != bnfPunct || p.tok.text != s {
		return 0, p.errAt(p.tok.pos, "expected %q, got %q", s, p.tok.text)
	}
	pos := p.tok.pos
	p.advance()
	return pos, nil
}

func (p *bnfParser) expectIdent() (string, int, error) {
	if p.tok.kind != bnfIdent {
		return "", 0, p.errAt(p.tok.pos, "expected identifier, got %q", p.tok.text)
	}
	text, pos := p.tok.text, p.tok.pos
	p.advance()
	return text, pos, nil
}

func (p *bnfParser) parseUse() (UseDecl, error) {
	pos := p.tok.pos
	p.advance() // "use"
	n, _, err := p.expectIdent()
	if err != nil {
		return UseDecl{}, err
	}
	for p.tok.kind == bnfPunct && p.tok.text == "." {
		p.advance()
		part, _, err := p.expectIdent()
		if err != nil {
			return UseDecl{}, err
		}
		n += "." + part
	}
	if _, err := p.expectPunct(";"); err != nil {
		return UseDecl{}, err
	}
	return UseDecl{Name: n, Pos: diagnostics.SrcPos{File: p.url, Offset: pos}}, nil
}

func (p *bnfParser) parseDelim() (DelimDecl, error) {
	kind, pos, err := p.expectIdent()
	if err != nil {
		return DelimDecl{}, err
	}
	if _, err := p.expectPunct("="); err != nil {
		return DelimDecl{}, err
	}
	n, _, err := p.expectIdent()
	if err != nil {
		return DelimDecl{}, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return DelimDecl{}, err
	}
	return DelimDecl{Kind: kind, Name: n, Pos: diagnostics.SrcPos{File: p.url, Offset: pos}}, nil
}

// parseRuleOrProd disambiguates `rule` from `prod` the way the EBNF
// implies: a rule declaration always starts `type name (`, a production
// always resolves to `[parent ..] rule-name [...] :`. A rule head may also
// be followed directly by `:` instead of `;` — the source's shorthand for
// declaring a rule and its single production together in one statement
// (spec §8 end-to-end scenario 1: `void Start() : "a"+ = test;`).
func (p *bnfParser) parseRuleOrProd() ([]RuleDecl, []ProdDecl, error) {
	pos := p.tok.pos
	first, _, err := p.expectIdent()
	if err != nil {
		return nil, nil, err
	}

	if p.tok.kind == bnfPunct && p.tok.text == ".." {
		p.advance()
		ruleName, _, err := p.expectIdent()
		if err != nil {
			return nil, nil, err
		}
		prod, err := p.parseProdBody(ruleName, first, pos)
		if err != nil {
			return nil, nil, err
		}
		return nil, []ProdDecl{prod}, nil
	}

	if p.tok.kind == bnfIdent {
		// `type name (...)` : a rule declaration, possibly with an inline
		// production body.
		second := p.tok.text
		p.advance()
		return p.parseRuleBody(first, second, pos)
	}

	// otherwise `first` is a rule-ref starting a production with no parent.
	prod, err := p.parseProdBody(first, "", pos)
	if err != nil {
		return nil, nil, err
	}
	return nil, []ProdDecl{prod}, nil
}

func (p *bnfParser) parseRuleBody(typeName, ruleName string, pos int) ([]RuleDecl, []ProdDecl, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, nil, err
	}
	var params []RuleParamDecl
	for !(p.tok.kind == bnfPunct && p.tok.text == ")") {
		pt, _, err := p.expectIdent()
		if err != nil {
			return nil, nil, err
		}
		pn, _, err := p.expectIdent()
		if err != nil {
			return nil, nil, err
		}
		params = append(params, RuleParamDecl{TypeName: pt, Name: pn})
		if p.tok.kind == bnfPunct && p.tok.text == "," {
			p.advance()
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, nil, err
	}
	color := ""
	if p.tok.kind == bnfPunct && p.tok.text == "#" {
		p.advance()
		c, _, err := p.expectIdent()
		if err != nil {
			return nil, nil, err
		}
		color = c
	}

	rule := RuleDecl{
		TypeName: typeName, Name: ruleName, Params: params, Color: color,
		Pos: diagnostics.SrcPos{File: p.url, Offset: pos},
	}

	if p.tok.kind == bnfPunct && p.tok.text == ":" {
		prod, err := p.parseProdBody(ruleName, "", pos)
		if err != nil {
			return nil, nil, err
		}
		return []RuleDecl{rule}, []ProdDecl{prod}, nil
	}

	if _, err := p.expectPunct(";"); err != nil {
		return nil, nil, err
	}
	return []RuleDecl{rule}, nil, nil
}

// parseProdBody parses everything from an optional `[priority]`/`=>
// result` head through the token sequence and trailing `;`. The leading
// `:` is consumed here too, since callers reach this point either having
// already matched `rule-name` (plain production) or having just finished a
// rule head that continues directly into `:` (combined rule+production).
func (p *bnfParser) parseProdBody(ruleName, parent string, pos int) (ProdDecl, error) {
	decl := ProdDecl{Pos: diagnostics.SrcPos{File: p.url, Offset: pos}, Parent: parent, RuleName: ruleName}

	if p.tok.kind == bnfPunct && p.tok.text == "[" {
		p.advance()
		n, _, err := p.expectInt()
		if err != nil {
			return ProdDecl{}, err
		}
		decl.Priority = n
		decl.HasPriority = true
		if _, err := p.expectPunct("]"); err != nil {
			return ProdDecl{}, err
		}
	}

	if p.tok.kind == bnfPunct && p.tok.text == "=>" {
		p.advance()
		rn, _, err := p.expectIdent()
		if err != nil {
			return ProdDecl{}, err
		}
		decl.ResultName = rn
		if p.tok.kind == bnfPunct && p.tok.text == "(" {
			p.advance()
			for !(p.tok.kind == bnfPunct && p.tok.text == ")") {
				arg, _, err := p.expectIdent()
				if err != nil {
					return ProdDecl{}, err
				}
				decl.ResultArgs = append(decl.ResultArgs, arg)
				if p.tok.kind == bnfPunct && p.tok.text == "," {
					p.advance()
				}
			}
			if _, err := p.expectPunct(")"); err != nil {
				return ProdDecl{}, err
			}
		}
	}

	if _, err := p.expectPunct(":"); err != nil {
		return ProdDecl{}, err
	}

	toks, repStart, repEnd, repType, err := p.parseTokenSeq()
	if err != nil {
		return ProdDecl{}, err
	}
	decl.Tokens, decl.RepStart, decl.RepEnd, decl.RepType = toks, repStart, repEnd, repType

	if p.tok.kind == bnfPunct && p.tok.text == "=" {
		p.advance()
		n, _, err := p.expectIdent()
		if err != nil {
			return ProdDecl{}, err
		}
		decl.ProdName = n
	}
	if _, err := p.expectPunct(";"); err != nil {
		return ProdDecl{}, err
	}
	return decl, nil
}

func (p *bnfParser) expectInt() (int, int, error) {
	if p.tok.kind != bnfInt {
		return 0, 0, p.errAt(p.tok.pos, "expected integer, got %q", p.tok.text)
	}
	n, err := strconv.Atoi(p.tok.text)
	if err != nil {
		return 0, 0, p.errAt(p.tok.pos, "invalid integer %q", p.tok.text)
	}
	pos := p.tok.pos
	p.advance()
	return n, pos, nil
}

// parseTokenSeq parses the production's body (spec §6 `token-seq`): a
// sequence of regex/rule/delimiter tokens, each with an optional trailing
// `+`/`*`/`?` repetition marker applied to the single preceding token
// (repStart/repEnd collapse to that one token's index) and an optional
// capture/invoke/color suffix.
func (p *bnfParser) parseTokenSeq() ([]TokenDecl, int, int, RepType, error) {
	var toks []TokenDecl
	repStart, repEnd := -1, -1
	repType := RepNone

	for {
		if p.tok.kind == bnfPunct && (p.tok.text == ";" || p.tok.text == "=") {
			break
		}
		if p.tok.kind == bnfPunct && p.tok.text == "-" {
			p.advance()
			toks = append(toks, TokenDecl{Kind: "dash"})
			continue
		}
		td, err := p.parseOneToken()
		if err != nil {
			return nil, 0, 0, RepNone, err
		}
		idx := len(toks)
		toks = append(toks, td)

		if p.tok.kind == bnfPunct && (p.tok.text == "+" || p.tok.text == "*" || p.tok.text == "?") {
			switch p.tok.text {
			case "+":
				repType = RepPlus
			case "*":
				repType = RepStar
			case "?":
				repType = RepOptional
			}
			repStart, repEnd = idx, idx+1
			p.advance()
		}
	}
	return toks, repStart, repEnd, repType, nil
}

func (p *bnfParser) parseOneToken() (TokenDecl, error) {
	var td TokenDecl
	switch {
	case p.tok.kind == bnfString:
		td.Kind, td.Regex = "regex", p.tok.text
		p.advance()
	case p.tok.kind == bnfPunct && p.tok.text == ",":
		td.Kind = "comma"
		p.advance()
	case p.tok.kind == bnfPunct && p.tok.text == "~":
		td.Kind = "tilde"
		p.advance()
	case p.tok.kind == bnfIdent:
		td.Kind, td.RuleName = "rule", p.tok.text
		p.advance()
	default:
		return TokenDecl{}, p.errAt(p.tok.pos, "unexpected token %q in production body", p.tok.text)
	}

	if p.tok.kind == bnfPunct && p.tok.text == "@" {
		td.Raw = true
		p.advance()
	}
	if p.tok.kind == bnfPunct && p.tok.text == "->" {
		p.advance()
		n, _, err := p.expectIdent()
		if err != nil {
			return TokenDecl{}, err
		}
		td.Invoke = n
	} else if p.tok.kind == bnfIdent {
		td.Target = p.tok.text
		p.advance()
	}
	if p.tok.kind == bnfPunct && p.tok.text == "#" {
		p.advance()
		c, _, err := p.expectIdent()
		if err != nil {
			return TokenDecl{}, err
		}
		td.Color = c
	}
	return td, nil
}
