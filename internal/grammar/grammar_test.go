package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

func newTestRule(t *testing.T, n string) *Rule {
	t.Helper()
	base := name.NewBase(n, nil, diagnostics.NoPos)
	return NewRule(base, value.Value{})
}

func TestRegexTokenMatchesAnchoredAtPosition(t *testing.T) {
	tok, err := NewRegexToken(`[a-z]+`)
	require.NoError(t, err)

	consumed, text, ok := tok.Match("  abc", 2)
	require.True(t, ok)
	assert.Equal(t, 3, consumed)
	assert.Equal(t, "abc", text)

	_, _, ok = tok.Match("  abc", 0)
	assert.False(t, ok)
}

func TestNewRegexTokenRejectsInvalidPattern(t *testing.T) {
	_, err := NewRegexToken(`[a-`)
	var codeErr *diagnostics.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, diagnostics.LangDefError, codeErr.Kind)
}

func TestAddProductionOrdersByDescendingPriority(t *testing.T) {
	rule := newTestRule(t, "Expr")
	low := NewProduction(name.NewBase("low", nil, diagnostics.NoPos), 1)
	high := NewProduction(name.NewBase("high", nil, diagnostics.NoPos), 10)
	mid := NewProduction(name.NewBase("mid", nil, diagnostics.NoPos), 5)

	rule.AddProduction(low)
	rule.AddProduction(high)
	rule.AddProduction(mid)

	prods := rule.Productions()
	require.Len(t, prods, 3)
	assert.Equal(t, "high", prods[0].Name())
	assert.Equal(t, "mid", prods[1].Name())
	assert.Equal(t, "low", prods[2].Name())
}

func TestInfoInternalLengthCachesAndInvalidatesUpChain(t *testing.T) {
	leaf := NewInfoLeaf("a", "aa")
	inner := NewInfoInternal(nil, leaf)
	outer := NewInfoInternal(nil, inner)

	assert.Equal(t, 2, outer.Length())
	assert.False(t, outer.HasError())

	inner.AddChild(NewErrorLeaf("!"))
	assert.Equal(t, 3, outer.Length())
	assert.True(t, outer.HasError())
}

func TestInfoInternalToSReconstructsSource(t *testing.T) {
	root := NewInfoInternal(nil, NewInfoLeaf("", "foo"), NewInfoLeaf("", " "), NewInfoLeaf("", "bar"))
	assert.Equal(t, "foo bar", root.ToS())
}

func TestColumnsCountsWideRunesAsTwo(t *testing.T) {
	assert.Equal(t, 3, Columns("abc"))
	assert.Equal(t, 4, Columns("世界"))

	root := NewInfoInternal(nil, NewInfoLeaf("", "a"), NewInfoLeaf("", "世"))
	assert.Equal(t, 3, root.Columns())
}

func TestParseFileParsesCombinedRuleAndProduction(t *testing.T) {
	f, err := ParseFile(`void Start() : "a"+ = test;`, "test.bnf")
	require.NoError(t, err)

	require.Len(t, f.Rules, 1)
	rule := f.Rules[0]
	assert.Equal(t, "void", rule.TypeName)
	assert.Equal(t, "Start", rule.Name)

	require.Len(t, f.Productions, 1)
	prod := f.Productions[0]
	assert.Equal(t, "Start", prod.RuleName)
	assert.Equal(t, "test", prod.ProdName)
	require.Len(t, prod.Tokens, 1)
	assert.Equal(t, "regex", prod.Tokens[0].Kind)
	assert.Equal(t, "a", prod.Tokens[0].Regex)
	assert.Equal(t, RepPlus, prod.RepType)
	assert.Equal(t, 0, prod.RepStart)
	assert.Equal(t, 1, prod.RepEnd)
}

func TestParseFileParsesPlainRuleThenSeparateProduction(t *testing.T) {
	f, err := ParseFile(`
		void Digit();
		Digit : "[0-9]" = digit;
	`, "test.bnf")
	require.NoError(t, err)

	require.Len(t, f.Rules, 1)
	assert.Equal(t, "Digit", f.Rules[0].Name)
	require.Len(t, f.Productions, 1)
	assert.Equal(t, "Digit", f.Productions[0].RuleName)
	assert.Equal(t, "digit", f.Productions[0].ProdName)
}

func TestParseFileParsesUseAndDelimDecls(t *testing.T) {
	f, err := ParseFile(`
		use core.lang;
		optional = SDelim;
		required = RDelim;
	`, "test.bnf")
	require.NoError(t, err)

	require.Len(t, f.Uses, 1)
	assert.Equal(t, "core.lang", f.Uses[0].Name)
	require.Len(t, f.Delims, 2)
	assert.Equal(t, "optional", f.Delims[0].Kind)
	assert.Equal(t, "SDelim", f.Delims[0].Name)
	assert.Equal(t, "required", f.Delims[1].Kind)
	assert.Equal(t, "RDelim", f.Delims[1].Name)
}

func TestParseFileReportsSyntaxErrorOnMalformedProduction(t *testing.T) {
	_, err := ParseFile(`void Start() : "a" +`, "test.bnf")
	var codeErr *diagnostics.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, diagnostics.SyntaxError, codeErr.Kind)
}

// buildLetterRule wires up a minimal rule by hand (name resolution against
// the tree is the reader pipeline's job, out of scope here): one production
// matching one-or-more "a" characters, capturing the whole run raw.
func buildLetterRule(t *testing.T) *Rule {
	t.Helper()
	rule := newTestRule(t, "Letters")
	ptype, err := NewProductionType(name.NewBase("Letters_test", nil, diagnostics.NoPos), rule, NewProduction(name.NewBase("test", nil, diagnostics.NoPos), 0))
	require.NoError(t, err)

	tok, err := NewRegexToken("a", WithTarget(&types.MemberVar{VarName: "text"}))
	require.NoError(t, err)

	prod := ptype.Prod
	prod.Tokens = []Token{tok}
	prod.RepStart, prod.RepEnd, prod.RepType = 0, 1, RepPlus
	prod.RepCapture = tok
	rule.AddProduction(prod)
	return rule
}

func TestInfoParserMatchesRepeatedProductionAndTransforms(t *testing.T) {
	rule := buildLetterRule(t)
	p := NewInfoParser()
	p.Root(rule)

	end, err := p.Parse("aaa", "test.bs", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, end)
	assert.Equal(t, "aaa", p.InfoTree().ToS())

	inst := p.Instance()
	require.NotNil(t, inst)
	assert.Equal(t, "aaa", inst.Fields["text"])
}

func TestInfoParserParseFailsWhenRequiredRepetitionAbsent(t *testing.T) {
	rule := buildLetterRule(t)
	p := NewInfoParser()
	p.Root(rule)

	_, err := p.Parse("bbb", "test.bs", 0)
	require.Error(t, err)
}

func TestInfoParserParseApproxSkipsUnmatchedBytes(t *testing.T) {
	rule := buildLetterRule(t)
	p := NewInfoParser()
	p.Root(rule)

	end, err := p.ParseApprox("aa!aa", "test.bs")
	require.NoError(t, err)
	assert.Equal(t, 5, end)
	stats := p.RecoveryStats()
	assert.False(t, stats.Success)
	assert.Equal(t, 1, stats.Skipped)
}

func TestTransformRejectsMemberCapturedByTwoTokens(t *testing.T) {
	rule := newTestRule(t, "Dup")
	prod := NewProduction(name.NewBase("dup", nil, diagnostics.NoPos), 0)
	_, err := NewProductionType(name.NewBase("Dup_dup", nil, diagnostics.NoPos), rule, prod)
	require.NoError(t, err)
	member := &types.MemberVar{VarName: "x"}
	t1, err := NewRegexToken("a", WithTarget(member))
	require.NoError(t, err)
	t2, err := NewRegexToken("b", WithTarget(member))
	require.NoError(t, err)
	prod.Tokens = []Token{t1, t2}

	_, err = Transform(prod, &TransformContext{Captured: map[string]any{"x": "a"}})
	var codeErr *diagnostics.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, diagnostics.InternalError, codeErr.Kind)
}

func TestTransformDefaultConstructsOwnerInstance(t *testing.T) {
	rule := newTestRule(t, "Thing")
	prod := NewProduction(name.NewBase("test", nil, diagnostics.NoPos), 0)
	ptype, err := NewProductionType(name.NewBase("Thing_test", nil, diagnostics.NoPos), rule, prod)
	require.NoError(t, err)

	member := &types.MemberVar{VarName: "x"}
	tok, err := NewRegexToken("a", WithTarget(member))
	require.NoError(t, err)
	prod.Tokens = []Token{tok}

	inst, err := Transform(prod, &TransformContext{Captured: map[string]any{"x": "a"}})
	require.NoError(t, err)
	assert.Same(t, ptype, inst.Type)
	assert.Equal(t, "a", inst.Fields["x"])
}

func TestSameSyntaxComparesTreeShape(t *testing.T) {
	rule := buildLetterRule(t)
	p1, p2 := NewInfoParser(), NewInfoParser()
	p1.Root(rule)
	p2.Root(rule)

	_, err := p1.Parse("aaa", "a.bs", 0)
	require.NoError(t, err)
	_, err = p2.Parse("aaa", "b.bs", 0)
	require.NoError(t, err)
	assert.True(t, p1.SameSyntax(p2))

	p3 := NewInfoParser()
	p3.Root(rule)
	_, err = p3.Parse("aaaa", "c.bs", 0)
	require.NoError(t, err)
	assert.False(t, p1.SameSyntax(p3))
}
