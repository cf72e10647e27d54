package reader

import (
	"strings"

	"github.com/stormlang/storm/internal/bs"
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// bsreader.go implements the .bs declaration-level reader. internal/bs's
// own lexer/parser are scoped to function bodies only (spec §4.7), so this
// file owns a small hand-written top-level scanner — in the same
// brace-depth-tracking style bnf.go uses for its own source — that finds
// class/value declarations and function signatures and hands each
// function's body text to bs.ParseFunctionBody once every type in the
// package is resolved.

type paramDecl struct {
	TypeName string
	Name     string
}

type fieldDecl struct {
	TypeName string
	Name     string
	Pos      diagnostics.SrcPos
}

type methodDecl struct {
	ResultName string // "" for a constructor
	IsCtor     bool
	Name       string
	Params     []paramDecl
	Body       string
	Pos        diagnostics.SrcPos
	Doc        diagnostics.SrcPos
}

type classDecl struct {
	Kind    string // "class" | "value"
	Name    string
	Super   string
	Fields  []fieldDecl
	Methods []methodDecl
	Pos     diagnostics.SrcPos
	Doc     diagnostics.SrcPos
}

type funcDecl struct {
	ResultName string
	Name       string
	Params     []paramDecl
	Body       string
	Pos        diagnostics.SrcPos
	Doc        diagnostics.SrcPos
}

// pendingFn is a Function whose signature has been registered in the name
// tree (ReadFunctions) but whose body is still raw source, waiting for
// ResolveFunctions once every file in the package has reached that phase.
type pendingFn struct {
	fn     *types.Function
	body   string
	parent name.NameLookup
	pos    diagnostics.SrcPos
}

type bsReader struct {
	NoopFileReader

	classes []classDecl
	funcs   []funcDecl

	types   map[string]*types.Type
	pending []pendingFn
}

func newBsReader(ctx *Context) (FileReader, error) {
	decls, err := splitTopLevel(ctx.Content)
	if err != nil {
		return nil, declErr(ctx, 0, "%v", err)
	}
	r := &bsReader{types: make(map[string]*types.Type)}
	for _, d := range decls {
		head, body, hasBody := splitHeaderBody(d.text)
		fields := strings.Fields(head)
		if len(fields) >= 2 && (fields[0] == "class" || fields[0] == "value") {
			cd, err := parseClassDecl(ctx, fields, body, d.offset)
			if err != nil {
				return nil, err
			}
			cd.Doc = docPos(ctx, d.doc)
			r.classes = append(r.classes, cd)
			continue
		}
		if !hasBody {
			return nil, declErr(ctx, d.offset, "top-level declaration %q must have a body", head)
		}
		fd, err := parseFuncHead(ctx, head, body, d.offset)
		if err != nil {
			return nil, err
		}
		fd.Doc = docPos(ctx, d.doc)
		r.funcs = append(r.funcs, fd)
	}
	return r, nil
}

func (r *bsReader) ReadTypes(ctx *Context) error {
	for _, c := range r.classes {
		flags := types.FlagValue
		if c.Kind == "class" {
			flags = types.FlagClass
		}
		ty := types.NewType(name.NewBase(c.Name, nil, c.Pos), flags)
		if !c.Doc.IsSynthetic() {
			ty.SetDoc(diagnostics.NewDoc(c.Doc))
		}
		if err := ctx.Pkg.Add(ty); err != nil {
			return err
		}
		r.types[c.Name] = ty
	}
	return nil
}

func (r *bsReader) ResolveTypes(ctx *Context) error {
	for _, c := range r.classes {
		ty := r.types[c.Name]
		if c.Super != "" {
			superVal, err := resolveValue(ctx, c.Super, c.Pos)
			if err != nil {
				return err
			}
			superTy, ok := superVal.Type.(*types.Type)
			if !ok {
				return diagnostics.New(diagnostics.TypedefError, c.Pos, "%q cannot be a superclass", c.Super)
			}
			if err := ty.Super(superTy); err != nil {
				return err
			}
		}
		if err := ty.LoadAll(); err != nil {
			return err
		}
		for _, f := range c.Fields {
			fv, err := resolveValue(ctx, f.TypeName, f.Pos)
			if err != nil {
				return err
			}
			ty.AddMember(&types.MemberVar{VarName: f.Name, VarType: fv})
		}
		if err := ty.FinalizeLayout(); err != nil {
			return err
		}
	}
	return nil
}

func (r *bsReader) ReadFunctions(ctx *Context) error {
	for _, c := range r.classes {
		ty := r.types[c.Name]
		for _, m := range c.Methods {
			fn, err := r.declareFunction(ctx, m.Name, m.ResultName, m.IsCtor, m.Params, m.Pos, m.Doc)
			if err != nil {
				return err
			}
			if err := ty.Add(fn); err != nil {
				return err
			}
			r.pending = append(r.pending, pendingFn{fn: fn, body: m.Body, parent: ty, pos: m.Pos})
		}
	}
	for _, f := range r.funcs {
		fn, err := r.declareFunction(ctx, f.Name, f.ResultName, false, f.Params, f.Pos, f.Doc)
		if err != nil {
			return err
		}
		if err := ctx.Pkg.Add(fn); err != nil {
			return err
		}
		r.pending = append(r.pending, pendingFn{fn: fn, body: f.Body, parent: ctx.Pkg, pos: f.Pos})
	}
	return nil
}

func (r *bsReader) declareFunction(ctx *Context, fnName, resultName string, isCtor bool, params []paramDecl, pos, doc diagnostics.SrcPos) (*types.Function, error) {
	result := value.Void
	if !isCtor {
		rv, err := resolveValue(ctx, resultName, pos)
		if err != nil {
			return nil, err
		}
		result = rv
	}
	paramVals := make([]value.Value, len(params))
	for i, p := range params {
		pv, err := resolveValue(ctx, p.TypeName, pos)
		if err != nil {
			return nil, err
		}
		paramVals[i] = pv
	}
	fn := types.NewFunction(name.NewBase(fnName, paramVals, pos), result, 0, ctx.Caller)
	if !doc.IsSynthetic() {
		fn.SetDoc(diagnostics.NewDoc(doc))
	}
	return fn, nil
}

func (r *bsReader) ResolveFunctions(ctx *Context) error {
	for _, pf := range r.pending {
		eb, err := bs.ParseFunctionBody(pf.body, ctx.Path, pf.parent, ctx.Policy, ctx.Lits, ctx.ExcRoot, pf.fn.RunOn)
		if err != nil {
			return err
		}
		*ctx.Bodies = append(*ctx.Bodies, FuncBody{Fn: pf.fn, Body: eb})
	}
	return nil
}

// --- top-level scanning ---

type rawDecl struct {
	text   string
	offset int
	// doc is the span of "//" comment lines immediately preceding this
	// declaration, or diagnostics.NoPos if none were present.
	doc diagnostics.SrcPos
}

// splitTopLevel splits src into top-level declarations: each one runs
// either to a ';' at brace depth 0 (a bodyless field-style declaration, not
// used at this level but tolerated) or to the '}' that closes the first
// '{' opened at depth 0 (a class/value/function declaration with a body).
// Comments ("//" to end of line) are skipped so braces inside them are not
// counted.
func splitTopLevel(src string) ([]rawDecl, error) {
	var decls []rawDecl
	i := 0
	n := len(src)
	for i < n {
		docStart, docEnd, next := skipSpaceAndComments(src, i)
		i = next
		if i >= n {
			break
		}
		start := i
		depth := 0
		for i < n {
			switch src[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					i++
					goto done
				}
			case ';':
				if depth == 0 {
					i++
					goto done
				}
			case '/':
				if i+1 < n && src[i+1] == '/' {
					for i < n && src[i] != '\n' {
						i++
					}
					continue
				}
			}
			i++
		}
	done:
		text := strings.TrimSpace(src[start:i])
		if text != "" {
			d := rawDecl{text: text, offset: start}
			if docEnd > docStart {
				d.doc = diagnostics.SrcPos{Offset: docStart, Length: docEnd - docStart}
			}
			decls = append(decls, d)
		}
	}
	return decls, nil
}

// skipSpaceAndComments advances past whitespace and "//" line comments
// starting at i, returning the byte span of the trailing contiguous run of
// comment lines (doc comment candidate; docStart==docEnd if none were
// seen) along with the position of the first non-space, non-comment byte.
func skipSpaceAndComments(src string, i int) (docStart, docEnd, next int) {
	n := len(src)
	docStart, docEnd = -1, -1
	lineHadComment := false
	for i < n {
		switch {
		case src[i] == ' ' || src[i] == '\t' || src[i] == '\r':
			i++
		case src[i] == '\n':
			if !lineHadComment {
				// a blank line breaks the contiguous comment run
				docStart, docEnd = -1, -1
			}
			lineHadComment = false
			i++
		case i+1 < n && src[i] == '/' && src[i+1] == '/':
			if docStart == -1 {
				docStart = i
			}
			for i < n && src[i] != '\n' {
				i++
			}
			docEnd = i
			lineHadComment = true
		default:
			if docStart == -1 {
				docStart, docEnd = 0, 0
			}
			return docStart, docEnd, i
		}
	}
	return 0, 0, i
}

// splitHeaderBody splits one raw declaration into its header (everything
// before the first top-level '{', or before the trailing ';') and, if it
// had a brace body, the text strictly between the matching '{'/'}' pair.
func splitHeaderBody(decl string) (head, body string, hasBody bool) {
	if strings.HasSuffix(decl, ";") {
		return strings.TrimSpace(decl[:len(decl)-1]), "", false
	}
	open := strings.IndexByte(decl, '{')
	if open < 0 || !strings.HasSuffix(decl, "}") {
		return strings.TrimSpace(decl), "", false
	}
	return strings.TrimSpace(decl[:open]), decl[open+1 : len(decl)-1], true
}

func parseClassDecl(ctx *Context, headFields []string, body string, offset int) (classDecl, error) {
	cd := classDecl{Kind: headFields[0], Pos: srcPos(ctx, offset)}
	rest := headFields[1:]
	if len(rest) == 0 {
		return classDecl{}, declErr(ctx, offset, "%s declaration is missing a name", headFields[0])
	}
	cd.Name = rest[0]
	// "Name : Super" or "Name extends Super"
	switch {
	case len(rest) >= 3 && (rest[1] == ":" || rest[1] == "extends"):
		cd.Super = rest[2]
	case len(rest) >= 2 && strings.HasPrefix(rest[1], ":"):
		cd.Super = strings.TrimPrefix(rest[1], ":")
	}

	memberDecls, err := splitTopLevel(body)
	if err != nil {
		return classDecl{}, err
	}
	for _, md := range memberDecls {
		mHead, mBody, mHasBody := splitHeaderBody(md.text)
		pos := srcPos(ctx, offset+md.offset)
		if !mHasBody {
			fd, err := parseFieldHead(ctx, mHead, pos)
			if err != nil {
				return classDecl{}, err
			}
			cd.Fields = append(cd.Fields, fd)
			continue
		}
		method, err := parseMethodHead(ctx, mHead, mBody, pos)
		if err != nil {
			return classDecl{}, err
		}
		if md.doc.Length > 0 {
			method.Doc = docPos(ctx, diagnostics.SrcPos{Offset: offset + md.doc.Offset, Length: md.doc.Length})
		}
		cd.Methods = append(cd.Methods, method)
	}
	return cd, nil
}

func parseFieldHead(ctx *Context, head string, pos diagnostics.SrcPos) (fieldDecl, error) {
	fields := strings.Fields(head)
	if len(fields) != 2 {
		return fieldDecl{}, declErr(ctx, 0, "malformed field declaration %q", head)
	}
	return fieldDecl{TypeName: fields[0], Name: fields[1], Pos: pos}, nil
}

func parseMethodHead(ctx *Context, head, body string, pos diagnostics.SrcPos) (methodDecl, error) {
	name, resultName, params, isCtor, err := parseCallableHead(ctx, head)
	if err != nil {
		return methodDecl{}, err
	}
	return methodDecl{ResultName: resultName, IsCtor: isCtor, Name: name, Params: params, Body: body, Pos: pos}, nil
}

func parseFuncHead(ctx *Context, head, body string, offset int) (funcDecl, error) {
	name, resultName, params, isCtor, err := parseCallableHead(ctx, head)
	if err != nil {
		return funcDecl{}, err
	}
	if isCtor {
		return funcDecl{}, declErr(ctx, offset, "%q is a constructor name and cannot be declared at package scope", bs.CtorName)
	}
	return funcDecl{ResultName: resultName, Name: name, Params: params, Body: body, Pos: srcPos(ctx, offset)}, nil
}

// parseCallableHead parses "ResultType name(params)" or, for a
// constructor, "__init(params)" with no result type.
func parseCallableHead(ctx *Context, head string) (fnName, resultName string, params []paramDecl, isCtor bool, err error) {
	open := strings.IndexByte(head, '(')
	if open < 0 || !strings.HasSuffix(head, ")") {
		return "", "", nil, false, declErr(ctx, 0, "malformed function declaration %q", head)
	}
	sig := strings.TrimSpace(head[:open])
	paramStr := head[open+1 : len(head)-1]

	parts := strings.Fields(sig)
	switch len(parts) {
	case 1:
		fnName = parts[0]
		isCtor = fnName == bs.CtorName
		if !isCtor {
			return "", "", nil, false, declErr(ctx, 0, "function %q is missing a result type", fnName)
		}
	case 2:
		resultName, fnName = parts[0], parts[1]
	default:
		return "", "", nil, false, declErr(ctx, 0, "malformed function declaration %q", head)
	}

	params, err = parseParams(ctx, paramStr)
	if err != nil {
		return "", "", nil, false, err
	}
	return fnName, resultName, params, isCtor, nil
}

func parseParams(ctx *Context, s string) ([]paramDecl, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []paramDecl
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return nil, declErr(ctx, 0, "malformed parameter %q", strings.TrimSpace(part))
		}
		out = append(out, paramDecl{TypeName: fields[0], Name: fields[1]})
	}
	return out, nil
}

func srcPos(ctx *Context, offset int) diagnostics.SrcPos {
	return diagnostics.SrcPos{File: ctx.Path, Offset: offset}
}

// docPos turns a comment span relative to ctx.Content (as found by
// splitTopLevel, File left empty) into an absolute SrcPos, or
// diagnostics.NoPos if no leading comment was found.
func docPos(ctx *Context, rel diagnostics.SrcPos) diagnostics.SrcPos {
	if rel.Length == 0 {
		return diagnostics.NoPos
	}
	return diagnostics.SrcPos{File: ctx.Path, Offset: rel.Offset, Length: rel.Length}
}

func declErr(ctx *Context, offset int, format string, args ...any) error {
	return diagnostics.New(diagnostics.SyntaxError, srcPos(ctx, offset), format, args...)
}
