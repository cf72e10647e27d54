package bs

import (
	"strconv"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/scope"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// parser.go turns Basic-Storm function-body source into the Expr tree the
// rest of internal/bs already knows how to build (spec §4.7, §6 "readers
// for .bs source"), the same recursive-descent shape as
// internal/grammar/bnf.go's bnfParser: one token of lookahead, an advance()
// that re-lexes, and expectX helpers returning a typed diagnostics error.
// Name resolution for anything that is not a block-local defers entirely to
// scope.Scope/NameOverloads, matching spec §4.4/§4.3: the parser decides
// syntax shape only, never policy.

// LiteralTypes supplies the concrete Value each kind of literal token
// carries, since internal/bs owns no built-in type itself (spec §4.7's
// frontend sits on top of whatever types the reader pipeline registered).
type LiteralTypes struct {
	Bool   value.Value
	Int    value.Value
	Float  value.Value
	String value.Value
}

// Parser parses one function body against a fixed Scope (spec §4.4): Top
// advances to each nested Block's BlockLookup as parsing descends, but
// Lookup (the search policy) stays fixed for the whole body.
type Parser struct {
	lex  *bsLexer
	tok  bsTok
	file string

	policy  scope.Lookup
	lits    LiteralTypes
	excRoot *types.Type
	caller  types.RunOn
}

// NewParser prepares src for parsing against policy (the enclosing file's
// ScopeLookup), with lits supplying literal-token types and excRoot the
// root Exception type try/catch validates against.
func NewParser(src, file string, policy scope.Lookup, lits LiteralTypes, excRoot *types.Type, caller types.RunOn) *Parser {
	p := &Parser{lex: newBsLexer(src), file: file, policy: policy, lits: lits, excRoot: excRoot, caller: caller}
	p.advance()
	return p
}

func (p *Parser) advance() { p.tok = p.lex.next() }

func (p *Parser) pos(off int) diagnostics.SrcPos {
	return diagnostics.SrcPos{File: p.file, Offset: off, Length: p.lex.pos - off}
}

func (p *Parser) errAt(off int, format string, args ...any) error {
	return diagnostics.New(diagnostics.SyntaxError, p.pos(off), format, args...)
}

func (p *Parser) atPunct(s string) bool { return p.tok.Kind == bsPunct && p.tok.Text == s }
func (p *Parser) atKeyword(s string) bool { return p.tok.Kind == bsIdent && p.tok.Text == s }

func (p *Parser) expectPunct(s string) error {
	if !p.atPunct(s) {
		return p.errAt(p.tok.Off, "expected %q, got %q", s, p.tok.Text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, int, error) {
	if p.tok.Kind != bsIdent {
		return "", 0, p.errAt(p.tok.Off, "expected identifier, got %q", p.tok.Text)
	}
	text, off := p.tok.Text, p.tok.Off
	p.advance()
	return text, off, nil
}

func (p *Parser) find(lookup name.NameLookup, part name.SimplePart) (name.Named, error) {
	return (scope.Scope{Top: lookup, Lookup: p.policy}).Find(name.SimpleName{part})
}

// ParseFunctionBody parses a sequence of statements into a fresh top-level
// Block rooted at parent, until EOF (spec §6 readFunctions phase "parses
// each function body against its already-resolved Scope").
func ParseFunctionBody(src, file string, parent name.NameLookup, policy scope.Lookup, lits LiteralTypes, excRoot *types.Type, caller types.RunOn) (*ExprBlock, error) {
	p := NewParser(src, file, policy, lits, excRoot, caller)
	blk := NewBlock(parent, p.pos(0))
	if err := p.parseStatements(blk, func() bool { return p.tok.Kind == bsEOF }); err != nil {
		return nil, err
	}
	return NewExprBlock(blk), nil
}

// parseStatements fills blk.Body until stop() reports true.
func (p *Parser) parseStatements(blk *Block, stop func() bool) error {
	for !stop() {
		e, err := p.parseStatement(blk)
		if err != nil {
			return err
		}
		if e != nil {
			blk.Body = append(blk.Body, e)
		}
	}
	return nil
}

func (p *Parser) parseStatement(blk *Block) (Expr, error) {
	switch {
	case p.atKeyword("var"):
		return p.parseVarDecl(blk)
	case p.atKeyword("break"):
		off := p.tok.Off
		p.advance()
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return NewBreak(p.pos(off), blk.Lookup)
	case p.atKeyword("continue"):
		off := p.tok.Off
		p.advance()
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return NewContinue(p.pos(off), blk.Lookup)
	case p.atKeyword("if"):
		return p.parseIf(blk)
	case p.atKeyword("while"):
		return p.parseWhile(blk)
	case p.atKeyword("try"):
		return p.parseTry(blk)
	case p.atPunct("{"):
		return p.parseBlockExpr(blk.Lookup)
	default:
		e, err := p.parseExpr(blk.Lookup)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return e, nil
	}
}

// parseVarDecl is `var name = expr ;` (spec §4.7 Block "VarMap").
func (p *Parser) parseVarDecl(blk *Block) (Expr, error) {
	off := p.tok.Off
	p.advance() // "var"
	varName, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	init, err := p.parseExpr(blk.Lookup)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	lv := NewLocalVar(varName, init.Result().Value, p.pos(off))
	if err := blk.AddVar(lv); err != nil {
		return nil, err
	}
	return NewAssign(p.pos(off), NewLocalVarAccess(p.pos(off), lv), init)
}

func (p *Parser) parseBlockExpr(parent name.NameLookup) (*ExprBlock, error) {
	off := p.tok.Off
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	blk := NewBlock(parent, p.pos(off))
	if err := p.parseStatements(blk, func() bool { return p.atPunct("}") || p.tok.Kind == bsEOF }); err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return NewExprBlock(blk), nil
}

// parseIf is `if ( expr [as name] ) block [else (block|if)]` (spec §4.7
// Condition "the unifying abstraction over boolean if/loops and 'weak
// casts'").
func (p *Parser) parseIf(blk *Block) (Expr, error) {
	off := p.tok.Off
	p.advance() // "if"
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(blk.Lookup)
	if err != nil {
		return nil, err
	}
	capture := "it"
	if lva, ok := cond.(*LocalVarAccess); ok {
		capture = lva.Var.Name()
	}
	if p.atKeyword("as") {
		p.advance()
		capture, _, err = p.expectIdent()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	condNode, err := CreateCondition(blk.Lookup, p.pos(off), cond, p.lits.Bool, capture)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if err := p.parseStatements(condNode.CondSuccess, func() bool { return p.atPunct("}") || p.tok.Kind == bsEOF }); err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	var elseBlk *Block
	if p.atKeyword("else") {
		p.advance()
		if p.atKeyword("if") {
			inner, err := p.parseIf(blk)
			if err != nil {
				return nil, err
			}
			elseBlk = NewBlock(blk.Lookup, inner.SrcPos())
			elseBlk.Body = append(elseBlk.Body, inner)
		} else {
			elseOff := p.tok.Off
			if err := p.expectPunct("{"); err != nil {
				return nil, err
			}
			elseBlk = NewBlock(blk.Lookup, p.pos(elseOff))
			if err := p.parseStatements(elseBlk, func() bool { return p.atPunct("}") || p.tok.Kind == bsEOF }); err != nil {
				return nil, err
			}
			if err := p.expectPunct("}"); err != nil {
				return nil, err
			}
		}
	}
	return NewIf(p.pos(off), condNode, elseBlk), nil
}

// parseWhile is `while ( expr ) block` (spec §4.7 loop constructs).
func (p *Parser) parseWhile(blk *Block) (Expr, error) {
	off := p.tok.Off
	p.advance() // "while"
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(blk.Lookup)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	condNode, err := CreateCondition(blk.Lookup, p.pos(off), cond, p.lits.Bool, "it")
	if err != nil {
		return nil, err
	}
	body := NewWhile(p.pos(off), condNode, condNode.CondSuccess)
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if err := p.parseStatements(condNode.CondSuccess, func() bool { return p.atPunct("}") || p.tok.Kind == bsEOF }); err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return body, nil
}

// parseTry is `try block (catch ( Type name ) block)+` (spec §4.7
// "Try/Catch").
func (p *Parser) parseTry(blk *Block) (Expr, error) {
	off := p.tok.Off
	p.advance() // "try"
	bodyBlk := NewBlock(blk.Lookup, p.pos(off))
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if err := p.parseStatements(bodyBlk, func() bool { return p.atPunct("}") || p.tok.Kind == bsEOF }); err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	var catches []CatchClause
	for p.atKeyword("catch") {
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		typeName, typeOff, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		found, err := p.find(blk.Lookup, name.SimplePart{PName: typeName})
		if err != nil {
			return nil, err
		}
		vp, ok := found.(name.ValueProvider)
		if !ok {
			return nil, p.errAt(typeOff, "%q does not name a type", typeName)
		}
		varName, varOff, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		excVar := NewLocalVar(varName, vp.AsValue(), p.pos(varOff))
		catchBlk := NewBlock(blk.Lookup, p.pos(varOff))
		if err := catchBlk.AddVar(excVar); err != nil {
			return nil, err
		}
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		if err := p.parseStatements(catchBlk, func() bool { return p.atPunct("}") || p.tok.Kind == bsEOF }); err != nil {
			return nil, err
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		catches = append(catches, CatchClause{ExcVar: excVar, Body: catchBlk})
	}
	excSlot := NewLocalVar("<exc>", value.Value{Type: p.excRoot}, p.pos(off))
	return NewTry(p.pos(off), bodyBlk, catches, excSlot, p.excRoot)
}

// parseExpr parses a flat operator run and reshapes it via prioritize
// (spec §4.7 "Binary operators are parsed flat").
func (p *Parser) parseExpr(parent name.NameLookup) (Expr, error) {
	var tokens []OpToken
	operand, err := p.parseUnary(parent)
	if err != nil {
		return nil, err
	}
	tokens = append(tokens, OpToken{Operand: operand, Pos: operand.SrcPos()})
	for (p.tok.Kind == bsPunct && isBinaryOp(p.tok.Text)) || p.atPunct("is not") || p.atKeyword("is") {
		opText := p.tok.Text
		opPos := p.pos(p.tok.Off)
		p.advance()
		tokens[len(tokens)-1].Op = opText
		tokens[len(tokens)-1].Pos = opPos
		operand, err := p.parseUnary(parent)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, OpToken{Operand: operand, Pos: operand.SrcPos()})
	}
	return prioritize(tokens, p.lits.Bool)
}

func isBinaryOp(s string) bool {
	switch s {
	case "=", "+=", "-=", "*=", "/=", "==", "!=", "<", ">", "<=", ">=", "+", "-", "*", "/", "%":
		return true
	default:
		return false
	}
}

// parseUnary handles a leading `!` (logical not, reified as a Negate) and
// falls through to parsePostfix otherwise.
func (p *Parser) parseUnary(parent name.NameLookup) (Expr, error) {
	if p.atPunct("!") {
		p.advance()
		inner, err := p.parseUnary(parent)
		if err != nil {
			return nil, err
		}
		return negate(inner, p.lits.Bool), nil
	}
	return p.parsePostfix(parent)
}

// parsePostfix handles `.member` and `(args)` chains on a primary.
func (p *Parser) parsePostfix(parent name.NameLookup) (Expr, error) {
	e, err := p.parsePrimary(parent)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atPunct("."):
			off := p.tok.Off
			p.advance()
			memberName, memberOff, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			t, ok := e.Result().Value.Type.(*types.Type)
			if !ok {
				return nil, p.errAt(off, "cannot access member %q of a non-object value", memberName)
			}
			var member *types.MemberVar
			for _, m := range t.Members() {
				if m.VarName == memberName {
					member = m
					break
				}
			}
			if member == nil {
				return nil, p.errAt(memberOff, "%s has no member %q", t.Name(), memberName)
			}
			e = NewMemberVarAccess(p.pos(off), e, member)
		case p.atPunct("("):
			args, err := p.parseArgs(parent)
			if err != nil {
				return nil, err
			}
			fn, ok := e.(*pendingCall)
			if !ok {
				return nil, p.errAt(p.tok.Off, "called expression is not a function")
			}
			resolved, err := fn.resolve(p, args)
			if err != nil {
				return nil, err
			}
			e = resolved
		default:
			return e, nil
		}
	}
}

// pendingCall defers resolving a bare identifier until its call arguments
// (if any) are known, since overload choice (NameOverloads.Choose) scores
// against the actual argument Values (spec §4.3 SimplePart.Badness).
type pendingCall struct {
	exprBase
	name   string
	parent name.NameLookup
}

func (c *pendingCall) resolve(p *Parser, args []Expr) (Expr, error) {
	argVals := make([]value.Value, len(args))
	for i, a := range args {
		argVals[i] = a.Result().Value
	}
	found, err := p.find(c.parent, name.SimplePart{PName: c.name, Params: argVals})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, p.errAt(c.pos.Offset, "unknown function %q", c.name)
	}
	fn, ok := found.(*types.Function)
	if !ok {
		return nil, p.errAt(c.pos.Offset, "%q does not name a function", c.name)
	}
	return NewFnCall(c.pos, fn, args, p.caller)
}

func (p *Parser) parseArgs(parent name.NameLookup) ([]Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.atPunct(")") {
		if len(args) > 0 {
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		a, err := p.parseExpr(parent)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, p.expectPunct(")")
}

// parsePrimary handles literals, parenthesized expressions, `new
// Type(args)`, and bare identifiers (locals, globals, or a pendingCall
// awaiting `(args)`).
func (p *Parser) parsePrimary(parent name.NameLookup) (Expr, error) {
	off := p.tok.Off
	switch {
	case p.tok.Kind == bsInt:
		text := p.tok.Text
		p.advance()
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			return nil, p.errAt(off, "invalid integer literal %q", text)
		}
		return NewLiteral(p.pos(off), p.lits.Int), nil
	case p.tok.Kind == bsFloat:
		text := p.tok.Text
		p.advance()
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return nil, p.errAt(off, "invalid float literal %q", text)
		}
		return NewLiteral(p.pos(off), p.lits.Float), nil
	case p.tok.Kind == bsString:
		p.advance()
		return NewLiteral(p.pos(off), p.lits.String), nil
	case p.atKeyword("true") || p.atKeyword("false"):
		p.advance()
		return NewLiteral(p.pos(off), p.lits.Bool), nil
	case p.atPunct("("):
		p.advance()
		e, err := p.parseExpr(parent)
		if err != nil {
			return nil, err
		}
		return e, p.expectPunct(")")
	case p.atKeyword("new"):
		return p.parseNew(parent)
	case p.tok.Kind == bsIdent:
		id, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if p.atPunct("(") {
			return &pendingCall{exprBase: exprBase{pos: p.pos(off), res: Result(value.Void)}, name: id, parent: parent}, nil
		}
		found, err := p.find(parent, name.SimplePart{PName: id})
		if err != nil {
			return nil, err
		}
		switch n := found.(type) {
		case *LocalVar:
			return NewLocalVarAccess(p.pos(off), n), nil
		case *types.GlobalVar:
			return NewGlobalVarAccess(p.pos(off), n), nil
		case nil:
			return nil, p.errAt(off, "unknown name %q", id)
		default:
			return nil, p.errAt(off, "%q does not name a value", id)
		}
	default:
		return nil, p.errAt(off, "unexpected token %q", p.tok.Text)
	}
}

// parseNew is `new TypeName ( args )` (spec §4.7 "CtorCall").
func (p *Parser) parseNew(parent name.NameLookup) (Expr, error) {
	off := p.tok.Off
	p.advance() // "new"
	typeName, typeOff, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	args, err := p.parseArgs(parent)
	if err != nil {
		return nil, err
	}
	found, err := p.find(parent, name.SimplePart{PName: typeName})
	if err != nil {
		return nil, err
	}
	t, ok := found.(*types.Type)
	if !ok {
		return nil, p.errAt(typeOff, "%q does not name a type", typeName)
	}
	argVals := make([]value.Value, len(args))
	for i, a := range args {
		argVals[i] = a.Result().Value
	}
	ctorFound, err := t.Find(name.SimplePart{PName: CtorName, Params: argVals})
	if err != nil {
		return nil, err
	}
	ctor, ok := ctorFound.(*types.Function)
	if !ok {
		return nil, p.errAt(typeOff, "%s has no matching constructor", typeName)
	}
	return NewCtorCall(p.pos(off), ctor, args)
}
