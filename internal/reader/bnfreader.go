package reader

import (
	"fmt"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/grammar"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/scope"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// bnfReader drives one .bnf file across the two syntax phases (spec §6
// ".bnf syntax"): ReadSyntaxRules registers every declared Rule as a Type
// in the owning package; ReadSyntaxProductions resolves rule/delimiter
// references and builds each Production's Tokens and generated
// ProductionType. The remaining four phases are no-ops — grammar
// declarations carry no Basic Storm function bodies of their own.
type bnfReader struct {
	NoopFileReader

	file  *grammar.File
	rules map[string]*grammar.Rule
}

func newBnfReader(ctx *Context) (FileReader, error) {
	f, err := grammar.ParseFile(ctx.Content, ctx.Path)
	if err != nil {
		return nil, err
	}
	return &bnfReader{file: f, rules: make(map[string]*grammar.Rule)}, nil
}

func (r *bnfReader) ReadSyntaxRules(ctx *Context) error {
	for _, d := range r.file.Rules {
		result, err := resolveValue(ctx, d.TypeName, d.Pos)
		if err != nil {
			return err
		}
		rule := grammar.NewRule(name.NewBase(d.Name, nil, d.Pos), result)
		for _, pd := range d.Params {
			pv, err := resolveValue(ctx, pd.TypeName, d.Pos)
			if err != nil {
				return err
			}
			rule.RuleParams = append(rule.RuleParams, grammar.RuleParam{Type: pv, Name: pd.Name})
		}
		if err := ctx.Pkg.Add(rule); err != nil {
			return err
		}
		if err := rule.Type.LoadAll(); err != nil {
			return err
		}
		r.rules[d.Name] = rule
	}
	return nil
}

// ReadSyntaxProductions resolves every DelimDecl into ctx.Delims (package
// state shared across every .bnf file: spec §6 "replaced by the declared
// optional/required delimiters") and builds each Production.
func (r *bnfReader) ReadSyntaxProductions(ctx *Context) error {
	for _, d := range r.file.Delims {
		if d.Kind != "optional" && d.Kind != "required" {
			continue // "delimiter = name" names the delimiter rule itself, not a usage site
		}
		rule, err := r.ruleNamed(ctx, d.Name, d.Pos)
		if err != nil {
			return err
		}
		ctx.Delims.set(d.Kind, rule)
	}

	for i, d := range r.file.Productions {
		if err := r.buildProduction(ctx, d, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *bnfReader) buildProduction(ctx *Context, d grammar.ProdDecl, idx int) error {
	rule, err := r.ruleNamed(ctx, d.RuleName, d.Pos)
	if err != nil {
		return err
	}

	prodName := d.ProdName
	if prodName == "" {
		prodName = fmt.Sprintf("%s$prod%d", d.RuleName, idx)
	}
	prod := grammar.NewProduction(name.NewBase(prodName, nil, d.Pos), d.Priority)
	prod.RepStart, prod.RepEnd, prod.RepType = d.RepStart, d.RepEnd, d.RepType

	ownerBase := name.NewBase(prodName+"$type", nil, d.Pos)
	owner, err := grammar.NewProductionType(ownerBase, rule, prod)
	if err != nil {
		return err
	}
	if err := ctx.Pkg.Add(owner.Type); err != nil {
		return err
	}
	if err := owner.Type.LoadAll(); err != nil {
		return err
	}

	tokens := make([]grammar.Token, 0, len(d.Tokens))
	for _, td := range d.Tokens {
		tok, err := r.buildToken(ctx, owner, td, d.Pos)
		if err != nil {
			return err
		}
		if tok != nil {
			tokens = append(tokens, tok)
		}
	}
	prod.Tokens = tokens
	if err := owner.Type.FinalizeLayout(); err != nil {
		return err
	}

	// ResultExpr/CtorArgs (spec §4.6 step 1's other two ways of building
	// `me`) are left nil: with code generation itself out of scope, the
	// reader only needs Owner wired for type-checking purposes, and
	// grammar's constructMe already falls back to a zero-value
	// instance of Owner when neither is set.
	rule.AddProduction(prod)
	return nil
}

func (r *bnfReader) buildToken(ctx *Context, owner *grammar.ProductionType, td grammar.TokenDecl, pos diagnostics.SrcPos) (grammar.Token, error) {
	var opts []grammar.TokenOpt
	if td.Raw {
		opts = append(opts, grammar.WithRaw())
	}
	if td.Invoke != "" {
		opts = append(opts, grammar.WithInvoke(td.Invoke))
	}
	if td.Color != "" {
		opts = append(opts, grammar.WithColor(td.Color))
	}

	var captureType value.Value
	switch td.Kind {
	case "regex":
		captureType = ctx.Lits.String
	case "rule":
	case "comma", "tilde":
	case "dash":
		return nil, nil // a `-` marks "no whitespace skip here"; it captures nothing
	default:
		return nil, diagnostics.New(diagnostics.LangDefError, pos, "unknown token kind %q", td.Kind)
	}

	var ruleRef *grammar.Rule
	if td.Kind == "rule" {
		rl, err := r.ruleNamed(ctx, td.RuleName, pos)
		if err != nil {
			return nil, err
		}
		ruleRef = rl
		captureType = rl.Result
	}

	if td.Target != "" {
		m := &types.MemberVar{VarName: td.Target, VarType: captureType}
		owner.Type.AddMember(m)
		opts = append(opts, grammar.WithTarget(m))
	}

	switch td.Kind {
	case "regex":
		return grammar.NewRegexToken(td.Regex, opts...)
	case "rule":
		return grammar.NewRuleToken(ruleRef, opts...), nil
	case "comma":
		optRule, err := r.delimRule(ctx, ctx.Delims.Optional, "optional", pos)
		if err != nil {
			return nil, err
		}
		return grammar.NewDelimToken(grammar.DelimOptional, optRule, opts...), nil
	case "tilde":
		reqRule, err := r.delimRule(ctx, ctx.Delims.Required, "required", pos)
		if err != nil {
			return nil, err
		}
		return grammar.NewDelimToken(grammar.DelimRequired, reqRule, opts...), nil
	default:
		return nil, diagnostics.New(diagnostics.LangDefError, pos, "unknown token kind %q", td.Kind)
	}
}

func (r *bnfReader) delimRule(ctx *Context, n name.Named, kind string, pos diagnostics.SrcPos) (*grammar.Rule, error) {
	if n == nil {
		return nil, diagnostics.New(diagnostics.LangDefError, pos,
			"no %q delimiter declared in this package", kind)
	}
	rule, ok := n.(*grammar.Rule)
	if !ok {
		return nil, diagnostics.New(diagnostics.LangDefError, pos,
			"%q delimiter does not name a grammar rule", kind)
	}
	return rule, nil
}

// ruleNamed resolves a bare rule name, first against this file's own
// just-declared rules, then against the owning package (and, transitively
// via Package.find's exported-package step, sibling files and packages
// that ran in the same ReadSyntaxRules phase).
func (r *bnfReader) ruleNamed(ctx *Context, n string, pos diagnostics.SrcPos) (*grammar.Rule, error) {
	if rl, ok := r.rules[n]; ok {
		return rl, nil
	}
	found, err := (scope.Scope{Top: ctx.Pkg, Lookup: ctx.Policy}).Find(name.SimpleName{{PName: n}})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, diagnostics.New(diagnostics.LangDefError, pos, "unknown grammar rule %q", n)
	}
	rule, ok := found.(*grammar.Rule)
	if !ok {
		return nil, diagnostics.New(diagnostics.LangDefError, pos, "%q does not name a grammar rule", n)
	}
	return rule, nil
}

func resolveValue(ctx *Context, typeName string, pos diagnostics.SrcPos) (value.Value, error) {
	if typeName == "void" {
		return value.Void, nil
	}
	found, err := (scope.Scope{Top: ctx.Pkg, Lookup: ctx.Policy}).Find(name.SimpleName{{PName: typeName}})
	if err != nil {
		return value.Value{}, err
	}
	if found == nil {
		return value.Value{}, diagnostics.New(diagnostics.TypedefError, pos, "unknown type %q", typeName)
	}
	vp, ok := found.(scope.ValueProvider)
	if !ok {
		return value.Value{}, diagnostics.New(diagnostics.TypedefError, pos, "%q does not name a type", typeName)
	}
	return vp.AsValue(), nil
}
