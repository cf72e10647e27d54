// Package grammar implements the grammar/parser runtime (spec §4.6,
// component C6): Rules, Productions with repetition and indent
// annotations, Token variants, the InfoNode concrete-syntax tree, and the
// InfoParser front-end that connects parsing to the name tree.
package grammar

import (
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// RuleParam is one declared (type, name) formal parameter of a grammar
// rule (spec §3 "Rule").
type RuleParam struct {
	Type value.Value
	Name string
}

// Rule is a Type whose role is also a grammar non-terminal (spec §3, §4.6).
// It owns every Production that can match it and the color used by syntax
// highlighters for unadorned tokens.
type Rule struct {
	*types.Type

	RuleParams []RuleParam
	Result     value.Value
	Color      string

	productions []*Production
}

// NewRule declares a new grammar rule. A Rule is always a class: matching a
// rule produces a heap-allocated ProductionType instance (spec §4.6 "a
// subclass of the rule's class").
func NewRule(base name.Base, result value.Value) *Rule {
	t := types.NewType(base, types.FlagClass)
	return &Rule{Type: t, Result: result}
}

// AddProduction registers one alternative body for this rule, keeping the
// slice ordered by descending Priority so the matcher always tries the
// highest-priority production first (spec §4.6).
func (r *Rule) AddProduction(p *Production) {
	p.Rule = r
	i := len(r.productions)
	for i > 0 && r.productions[i-1].Priority < p.Priority {
		i--
	}
	r.productions = append(r.productions, nil)
	copy(r.productions[i+1:], r.productions[i:])
	r.productions[i] = p
}

func (r *Rule) Productions() []*Production {
	out := make([]*Production, len(r.productions))
	copy(out, r.productions)
	return out
}

var _ value.Type = (*Rule)(nil)
