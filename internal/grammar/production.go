package grammar

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/types"
)

// RepType is a production's repetition discriminant over the half-open
// token range [RepStart, RepEnd) (spec §3, §4.6).
type RepType int

const (
	RepNone RepType = iota
	RepOptional        // '?': captured field is Maybe<T>
	RepPlus            // '+': captured field is Array<T>, one-or-more
	RepStar            // '*': captured field is Array<T>, zero-or-more
)

func (r RepType) String() string {
	switch r {
	case RepOptional:
		return "?"
	case RepPlus:
		return "+"
	case RepStar:
		return "*"
	default:
		return ""
	}
}

// IndentType is one indentation hint recorded on a token range (spec §4.6
// "Indent annotations").
type IndentType int

const (
	IndentNone IndentType = iota
	IndentIncrease
	IndentDecrease
	IndentWeakIncrease
	IndentAlignBegin
	IndentAlignEnd
)

// IndentAnnotation marks [Start, End) of a production's token list with an
// IndentType so the editor can compute indentation for partial parses by
// walking parent->child applying adjustments (spec §4.6).
type IndentAnnotation struct {
	Start, End int
	Type       IndentType
}

// Production is one alternative body of a Rule (spec §3 "Production").
// RepStart == RepEnd means no repetition is declared (RepType is RepNone).
type Production struct {
	name.Base

	Rule     *Rule
	Priority int
	Tokens   []Token

	RepStart, RepEnd int
	RepType          RepType
	// RepCapture is set only for the `none` repetition mode with a
	// declared capture token: the entire repeated substring is captured
	// raw or fed to an invoked setter (spec §4.6 "token seq ... captured
	// as a raw string or fed to an invoked setter").
	RepCapture Token

	Indents []IndentAnnotation

	// Owner is the generated subclass of Rule's class this production
	// populates when it matches (spec §3 "owner: ProductionType").
	Owner *ProductionType

	// ResultExpr/CtorArgs record how a production declares `me` is built.
	// constructMe uses a captured "me" value first, then ResultExpr, and
	// otherwise a zero-value instance of Owner. It does not read CtorArgs:
	// no constructor call is made.
	ResultExpr TransformExpr
	CtorArgs   []string
}

// NewProduction constructs an empty production under rule with the given
// match priority (spec §6 `prod := ... rule-name [ '[' int ']' ]? ...`).
func NewProduction(base name.Base, priority int) *Production {
	return &Production{Base: base, Priority: priority}
}

// HasRepetition reports whether any token range is marked repeated.
func (p *Production) HasRepetition() bool {
	return p.RepType != RepNone && p.RepEnd > p.RepStart
}

// ProductionType is the per-production generated subclass of the owning
// Rule's class (spec §4.6 "the production type instance with its member
// variables populated"). Its members mirror each token's capture Target.
type ProductionType struct {
	*types.Type
	Rule *Rule
	Prod *Production
}

// NewProductionType declares prod's generated AST fragment type and wires
// it as a subtype of rule so overload resolution and visibility checks
// treat a match result as-a rule instance (spec §4.6).
func NewProductionType(base name.Base, rule *Rule, prod *Production) (*ProductionType, error) {
	t := types.NewType(base, types.FlagClass)
	if err := t.Super(rule.Type); err != nil {
		return nil, diagnostics.New(diagnostics.LangDefError, prod.Pos(),
			"production %q cannot derive from rule %q: %v", prod.Name(), rule.Name(), err)
	}
	pt := &ProductionType{Type: t, Rule: rule, Prod: prod}
	prod.Owner = pt
	return pt, nil
}
