package bs

import (
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// ExprResult is what an expression evaluates to, plus whether control ever
// reaches the expression after it (spec §4.7 ExprBlock: "if any
// non-terminal expression never returns ... the result of the block is
// nothing").
type ExprResult struct {
	Value   value.Value
	Returns bool
}

// Result wraps a normally-returning value.
func Result(v value.Value) ExprResult { return ExprResult{Value: v, Returns: true} }

// Nothing is the canonical non-returning result (a `return`, an
// unconditional `break`/`continue`, or a call whose declared result type is
// the bottom marker).
var Nothing = ExprResult{Value: value.Void, Returns: false}

// Expr is any Basic-Storm expression node (spec §4.7).
type Expr interface {
	Result() ExprResult
	SrcPos() diagnostics.SrcPos
}

type exprBase struct {
	pos diagnostics.SrcPos
	res ExprResult
}

func (e exprBase) Result() ExprResult        { return e.res }
func (e exprBase) SrcPos() diagnostics.SrcPos { return e.pos }

// LocalVarAccess reads a block-local variable.
type LocalVarAccess struct {
	exprBase
	Var *LocalVar
}

func NewLocalVarAccess(pos diagnostics.SrcPos, v *LocalVar) *LocalVarAccess {
	return &LocalVarAccess{exprBase: exprBase{pos: pos, res: Result(v.VarType)}, Var: v}
}

// MemberVarAccess reads obj.member.
type MemberVarAccess struct {
	exprBase
	Object Expr
	Member *types.MemberVar
}

func NewMemberVarAccess(pos diagnostics.SrcPos, obj Expr, member *types.MemberVar) *MemberVarAccess {
	return &MemberVarAccess{exprBase: exprBase{pos: pos, res: Result(member.VarType)}, Object: obj, Member: member}
}

// GlobalVarAccess reads a package-level GlobalVar.
type GlobalVarAccess struct {
	exprBase
	Var *types.GlobalVar
}

func NewGlobalVarAccess(pos diagnostics.SrcPos, v *types.GlobalVar) *GlobalVarAccess {
	return &GlobalVarAccess{exprBase: exprBase{pos: pos, res: Result(v.VarType)}, Var: v}
}

// Literal is a constant value baked into the AST at parse time (e.g. an
// integer or string constant resolved by the reader pipeline's readFunctions
// phase).
type Literal struct {
	exprBase
}

func NewLiteral(pos diagnostics.SrcPos, v value.Value) *Literal {
	return &Literal{exprBase: exprBase{pos: pos, res: Result(v)}}
}

// Assign is `lhs = rhs`; lhs must be an l-value (LocalVarAccess or
// MemberVarAccess). Its own result is the assigned value, matching
// expression-oriented assignment semantics.
type Assign struct {
	exprBase
	LHS, RHS Expr
}

// NewAssign validates lhs is an l-value and rhs can be stored through it
// (spec §4.2 Value.canStore), erroring with TypeError otherwise.
func NewAssign(pos diagnostics.SrcPos, lhs, rhs Expr) (*Assign, error) {
	switch lhs.(type) {
	case *LocalVarAccess, *MemberVarAccess, *GlobalVarAccess:
	default:
		return nil, diagnostics.New(diagnostics.SyntaxError, pos, "left side of assignment is not an l-value")
	}
	target := lhs.Result().Value
	if !target.CanStore(rhs.Result().Value) {
		return nil, diagnostics.New(diagnostics.TypeError, pos,
			"cannot assign %s to %s", rhs.Result().Value, target)
	}
	return &Assign{exprBase: exprBase{pos: pos, res: Result(target)}, LHS: lhs, RHS: rhs}, nil
}

// CompareOp is the closed set of comparison operators a Compare node can
// carry; prioritize only ever builds `==` and `<` nodes, reshaping
// `!=`/`>`/`<=`/`>=` onto those two (spec §4.7 "comparison families with
// fallbacks").
type CompareOp int

const (
	CompareEQ CompareOp = iota
	CompareNE
	CompareLT
	CompareLE
	CompareGT
	CompareGE
)

func (op CompareOp) String() string {
	switch op {
	case CompareEQ:
		return "=="
	case CompareNE:
		return "!="
	case CompareLT:
		return "<"
	case CompareLE:
		return "<="
	case CompareGT:
		return ">"
	case CompareGE:
		return ">="
	default:
		return "?"
	}
}

// Compare is a binary comparison; its result is always a non-void,
// non-by-ref Bool value (boolType supplied by the caller since internal/bs
// does not own any built-in type itself).
type Compare struct {
	exprBase
	Op          CompareOp
	Left, Right Expr
}

func NewCompare(pos diagnostics.SrcPos, op CompareOp, left, right Expr, boolType value.Value) *Compare {
	return &Compare{exprBase: exprBase{pos: pos, res: Result(boolType)}, Op: op, Left: left, Right: right}
}
