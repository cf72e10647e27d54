package bs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/scope"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// newTestPkg/newTestType mirror internal/types' own test helpers (no Loader
// configured: Add followed by an explicit LoadAll is enough for Find to see
// every entry, since the loader-dependent branches only run if a loader was
// set).
func newTestPkg(t *testing.T) *name.Package {
	t.Helper()
	return name.NewPackage(name.NewBase("test", nil, diagnostics.NoPos), "")
}

func newTestType(t *testing.T, pkg *name.Package, n string, flags types.Flags) *types.Type {
	t.Helper()
	ty := types.NewType(name.NewBase(n, nil, diagnostics.NoPos), flags)
	require.NoError(t, pkg.Add(ty))
	require.NoError(t, ty.LoadAll())
	return ty
}

func newLits(boolT, intT *types.Type) LiteralTypes {
	return LiteralTypes{
		Bool:   value.Value{Type: boolT},
		Int:    value.Value{Type: intT},
		Float:  value.Value{Type: intT},
		String: value.Value{Type: intT},
	}
}

func parse(t *testing.T, pkg *name.Package, lits LiteralTypes, excRoot *types.Type, src string) *ExprBlock {
	t.Helper()
	eb, err := ParseFunctionBody(src, "test.bs", pkg, scope.DefaultLookup{}, lits, excRoot, types.RunOn{})
	require.NoError(t, err)
	return eb
}

func TestParseVarDeclAndArithmetic(t *testing.T) {
	pkg := newTestPkg(t)
	intT := newTestType(t, pkg, "Int", types.FlagValue)
	boolT := newTestType(t, pkg, "Bool", types.FlagValue)
	lits := newLits(boolT, intT)

	eb := parse(t, pkg, lits, nil, "var x = 1 + 2 * 3;")
	require.Len(t, eb.Block.Body, 1)
	assign, ok := eb.Block.Body[0].(*Assign)
	require.True(t, ok)
	_, ok = assign.RHS.(*ArithOp)
	assert.True(t, ok, "expected the reshaped operator run to build an ArithOp")
}

func TestParseIfElseWithElseIf(t *testing.T) {
	pkg := newTestPkg(t)
	intT := newTestType(t, pkg, "Int", types.FlagValue)
	boolT := newTestType(t, pkg, "Bool", types.FlagValue)
	lits := newLits(boolT, intT)

	eb := parse(t, pkg, lits, nil, `
		var y = 0;
		if (true) {
			y = 1;
		} else if (false) {
			y = 2;
		} else {
			y = 3;
		}
	`)
	require.Len(t, eb.Block.Body, 2)
	ifExpr, ok := eb.Block.Body[1].(*If)
	require.True(t, ok)
	require.NotNil(t, ifExpr.Else)
	require.Len(t, ifExpr.Else.Body, 1)
	_, ok = ifExpr.Else.Body[0].(*If)
	assert.True(t, ok, "else-if should nest as an If inside the else block")
}

// maybeType is a minimal MaybeUnwrap implementation, letting a bare `if opt`
// exercise Condition's weak-cast path without a real Maybe<T> type.
type maybeType struct {
	inner value.Value
}

func (m *maybeType) Name() string              { return "Maybe" }
func (m *maybeType) Chain() *value.TypeChain   { return value.NewTypeChain(m) }
func (m *maybeType) IsClass() bool             { return false }
func (m *maybeType) IsActor() bool             { return false }
func (m *maybeType) IsValue() bool             { return true }
func (m *maybeType) BuiltIn() (int, bool, bool) { return 0, false, false }
func (m *maybeType) Inner() value.Value        { return m.inner }

func TestParseIfWithWeakCastCapture(t *testing.T) {
	pkg := newTestPkg(t)
	intT := newTestType(t, pkg, "Int", types.FlagValue)
	boolT := newTestType(t, pkg, "Bool", types.FlagValue)
	lits := newLits(boolT, intT)

	maybeT := &maybeType{inner: value.Value{Type: intT}}
	opt := types.NewGlobalVar(name.NewBase("opt", nil, diagnostics.NoPos), value.Value{Type: maybeT}, nil)
	require.NoError(t, pkg.Add(opt))

	eb := parse(t, pkg, lits, nil, `
		if (opt as unwrapped) {
			unwrapped;
		}
	`)
	require.Len(t, eb.Block.Body, 1)
	ifExpr, ok := eb.Block.Body[0].(*If)
	require.True(t, ok)
	assert.True(t, ifExpr.Cond.IsWeakCast)
	require.NotNil(t, ifExpr.Cond.WeakCastVar)
	assert.Equal(t, "unwrapped", ifExpr.Cond.WeakCastVar.Name())
	assert.Same(t, intT, ifExpr.Cond.WeakCastVar.VarType.Type)
}

func TestParseWhileBreakContinue(t *testing.T) {
	pkg := newTestPkg(t)
	intT := newTestType(t, pkg, "Int", types.FlagValue)
	boolT := newTestType(t, pkg, "Bool", types.FlagValue)
	lits := newLits(boolT, intT)

	eb := parse(t, pkg, lits, nil, `
		while (true) {
			if (false) {
				break;
			}
			continue;
		}
	`)
	require.Len(t, eb.Block.Body, 1)
	wh, ok := eb.Block.Body[0].(*While)
	require.True(t, ok)
	require.Len(t, wh.Body.Body, 2)
	_, ok = wh.Body.Body[1].(*Continue)
	assert.True(t, ok)
}

func TestParseFunctionCall(t *testing.T) {
	pkg := newTestPkg(t)
	intT := newTestType(t, pkg, "Int", types.FlagValue)
	boolT := newTestType(t, pkg, "Bool", types.FlagValue)
	lits := newLits(boolT, intT)

	doubleFn := types.NewFunction(
		name.NewBase("double", []value.Value{{Type: intT}}, diagnostics.NoPos),
		value.Value{Type: intT}, 0, types.RunOn{})
	require.NoError(t, pkg.Add(doubleFn))

	eb := parse(t, pkg, lits, nil, "double(1);")
	require.Len(t, eb.Block.Body, 1)
	call, ok := eb.Block.Body[0].(*FnCall)
	require.True(t, ok)
	assert.Same(t, doubleFn, call.Fn)
}

func TestParseNewAndMemberAccess(t *testing.T) {
	pkg := newTestPkg(t)
	intT := newTestType(t, pkg, "Int", types.FlagValue)
	boolT := newTestType(t, pkg, "Bool", types.FlagValue)
	lits := newLits(boolT, intT)

	pointT := types.NewType(name.NewBase("Point", nil, diagnostics.NoPos), types.FlagClass)
	ctor := types.NewFunction(
		name.NewBase(CtorName, []value.Value{{Type: intT}, {Type: intT}}, diagnostics.NoPos),
		value.Void, 0, types.RunOn{})
	require.NoError(t, pointT.Add(ctor))
	require.NoError(t, pkg.Add(pointT))
	require.NoError(t, pointT.LoadAll())
	pointT.AddMember(&types.MemberVar{VarName: "x", VarType: value.Value{Type: intT}, Owner: pointT})
	pointT.AddMember(&types.MemberVar{VarName: "y", VarType: value.Value{Type: intT}, Owner: pointT})
	require.NoError(t, pointT.FinalizeLayout())

	eb := parse(t, pkg, lits, nil, "new Point(1, 2).x;")
	require.Len(t, eb.Block.Body, 1)
	access, ok := eb.Block.Body[0].(*MemberVarAccess)
	require.True(t, ok)
	assert.Equal(t, "x", access.Member.VarName)
	ctorCall, ok := access.Object.(*CtorCall)
	require.True(t, ok)
	assert.Same(t, ctor, ctorCall.Ctor)
}

func TestParseTryCatch(t *testing.T) {
	pkg := newTestPkg(t)
	intT := newTestType(t, pkg, "Int", types.FlagValue)
	boolT := newTestType(t, pkg, "Bool", types.FlagValue)
	lits := newLits(boolT, intT)

	excRoot := newTestType(t, pkg, "Exception", types.FlagClass)

	eb := parse(t, pkg, lits, excRoot, `
		try {
			var z = 1;
		} catch (Exception e) {
			var w = 2;
		}
	`)
	require.Len(t, eb.Block.Body, 1)
	tryExpr, ok := eb.Block.Body[0].(*Try)
	require.True(t, ok)
	require.Len(t, tryExpr.Catches, 1)
	assert.Equal(t, "e", tryExpr.Catches[0].ExcVar.Name())
}
