// Package expr implements the expression trees executors evaluate per
// tuple: column references, constants, comparisons, boolean logic, and
// arithmetic. Grounded on the teacher's query_executor ExpressionNode
// (exec_update.go's evaluateExpression/evaluateExpressionValue), which
// walks a single Type/Left/Right/Op tree against a
// map[string]interface{} row — reworked here into one Expression
// interface with a concrete type per node kind instead of one struct
// branching on an integer tag, and against typed tuple.Tuple/schema
// column indices instead of untyped, name-keyed rows.
package expr

import (
	"fmt"

	"coredb/storage/tuple"
	"coredb/storage/value"
)

// Expression is any node in an expression tree. Evaluate reads from
// one tuple (a filter predicate, a SET clause, a projection); a join
// predicate that reads from two tuples uses EvaluateJoin instead.
type Expression interface {
	Evaluate(tu *tuple.Tuple) (value.Value, error)
	EvaluateJoin(left, right *tuple.Tuple) (value.Value, error)
}

// ColumnRef reads column Index out of whichever tuple Side names.
type ColumnRef struct {
	Index int
	Side  Side
}

type Side int

const (
	SideLeft Side = iota
	SideRight
)

func NewColumnRef(index int) ColumnRef { return ColumnRef{Index: index, Side: SideLeft} }

// NewColumnRefOnSide builds a ColumnRef for use in EvaluateJoin, where
// the referenced tuple may be the join's right-hand side.
func NewColumnRefOnSide(index int, side Side) ColumnRef {
	return ColumnRef{Index: index, Side: side}
}

func (c ColumnRef) Evaluate(tu *tuple.Tuple) (value.Value, error) {
	if c.Index < 0 || c.Index >= len(tu.Values) {
		return value.Value{}, fmt.Errorf("expr: column index %d out of range", c.Index)
	}
	return tu.GetValue(c.Index), nil
}

func (c ColumnRef) EvaluateJoin(left, right *tuple.Tuple) (value.Value, error) {
	if c.Side == SideLeft {
		return c.Evaluate(left)
	}
	return c.Evaluate(right)
}

// Constant always evaluates to the same Value regardless of tuple.
type Constant struct {
	V value.Value
}

func NewConstant(v value.Value) Constant { return Constant{V: v} }

func (c Constant) Evaluate(*tuple.Tuple) (value.Value, error) { return c.V, nil }
func (c Constant) EvaluateJoin(*tuple.Tuple, *tuple.Tuple) (value.Value, error) {
	return c.V, nil
}

// CompareOp is a comparison operator, grounded on the teacher's Op
// string switch in compareValues (exec_update.go).
type CompareOp int

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Comparison evaluates Left and Right then applies Op, short-
// circuiting to a NULL boolean if either side is NULL (three-valued
// SQL comparison semantics).
type Comparison struct {
	Left, Right Expression
	Op          CompareOp
}

func NewComparison(left, right Expression, op CompareOp) Comparison {
	return Comparison{Left: left, Right: right, Op: op}
}

func (c Comparison) apply(l, r value.Value) value.Value {
	if l.IsNull() || r.IsNull() {
		return value.NewNull(value.Boolean)
	}
	switch c.Op {
	case Eq:
		return value.NewBoolean(l.Equals(r))
	case Ne:
		return value.NewBoolean(!l.Equals(r))
	case Lt:
		return value.NewBoolean(l.LessThan(r))
	case Le:
		return value.NewBoolean(l.LessThan(r) || l.Equals(r))
	case Gt:
		return value.NewBoolean(l.GreaterThan(r))
	case Ge:
		return value.NewBoolean(l.GreaterThan(r) || l.Equals(r))
	default:
		return value.NewNull(value.Boolean)
	}
}

func (c Comparison) Evaluate(tu *tuple.Tuple) (value.Value, error) {
	l, err := c.Left.Evaluate(tu)
	if err != nil {
		return value.Value{}, err
	}
	r, err := c.Right.Evaluate(tu)
	if err != nil {
		return value.Value{}, err
	}
	return c.apply(l, r), nil
}

func (c Comparison) EvaluateJoin(left, right *tuple.Tuple) (value.Value, error) {
	l, err := c.Left.EvaluateJoin(left, right)
	if err != nil {
		return value.Value{}, err
	}
	r, err := c.Right.EvaluateJoin(left, right)
	if err != nil {
		return value.Value{}, err
	}
	return c.apply(l, r), nil
}

// LogicOp is AND/OR/NOT over boolean-valued sub-expressions.
type LogicOp int

const (
	And LogicOp = iota
	Or
	Not
)

// Logic combines Left (and Right, unused for Not) under Op.
type Logic struct {
	Left, Right Expression
	Op          LogicOp
}

func NewAnd(left, right Expression) Logic { return Logic{Left: left, Right: right, Op: And} }
func NewOr(left, right Expression) Logic  { return Logic{Left: left, Right: right, Op: Or} }
func NewNot(operand Expression) Logic     { return Logic{Left: operand, Op: Not} }

func combine(op LogicOp, l, r value.Value) value.Value {
	switch op {
	case Not:
		if l.IsNull() {
			return value.NewNull(value.Boolean)
		}
		return value.NewBoolean(!l.AsBoolean())
	case And:
		if (!l.IsNull() && !l.AsBoolean()) || (!r.IsNull() && !r.AsBoolean()) {
			return value.NewBoolean(false)
		}
		if l.IsNull() || r.IsNull() {
			return value.NewNull(value.Boolean)
		}
		return value.NewBoolean(true)
	case Or:
		if (!l.IsNull() && l.AsBoolean()) || (!r.IsNull() && r.AsBoolean()) {
			return value.NewBoolean(true)
		}
		if l.IsNull() || r.IsNull() {
			return value.NewNull(value.Boolean)
		}
		return value.NewBoolean(false)
	default:
		return value.NewNull(value.Boolean)
	}
}

func (lg Logic) Evaluate(tu *tuple.Tuple) (value.Value, error) {
	l, err := lg.Left.Evaluate(tu)
	if err != nil {
		return value.Value{}, err
	}
	if lg.Op == Not {
		return combine(Not, l, value.Value{}), nil
	}
	r, err := lg.Right.Evaluate(tu)
	if err != nil {
		return value.Value{}, err
	}
	return combine(lg.Op, l, r), nil
}

func (lg Logic) EvaluateJoin(left, right *tuple.Tuple) (value.Value, error) {
	l, err := lg.Left.EvaluateJoin(left, right)
	if err != nil {
		return value.Value{}, err
	}
	if lg.Op == Not {
		return combine(Not, l, value.Value{}), nil
	}
	r, err := lg.Right.EvaluateJoin(left, right)
	if err != nil {
		return value.Value{}, err
	}
	return combine(lg.Op, l, r), nil
}

// ArithOp mirrors the teacher's applyArithmeticOp switch.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
)

// Arithmetic evaluates Left Op Right for numeric Values.
type Arithmetic struct {
	Left, Right Expression
	Op          ArithOp
}

func NewArithmetic(left, right Expression, op ArithOp) Arithmetic {
	return Arithmetic{Left: left, Right: right, Op: op}
}

func applyArith(op ArithOp, l, r value.Value) (value.Value, error) {
	if l.IsNull() || r.IsNull() {
		return value.NewNull(l.Type()), nil
	}
	switch op {
	case Add:
		return l.Add(r), nil
	case Sub:
		return subtract(l, r)
	case Mul:
		return multiply(l, r)
	case Div:
		return divide(l, r)
	default:
		return value.Value{}, fmt.Errorf("expr: unknown arithmetic op %d", op)
	}
}

func subtract(l, r value.Value) (value.Value, error) {
	switch l.Type() {
	case value.Integer:
		return value.NewInteger(l.AsInteger() - r.AsInteger()), nil
	case value.BigInt:
		return value.NewBigInt(l.AsBigInt() - r.AsBigInt()), nil
	case value.Decimal:
		return value.NewDecimal(l.AsDecimal() - r.AsDecimal()), nil
	default:
		return value.Value{}, fmt.Errorf("expr: subtraction on non-numeric type %s", l.Type())
	}
}

func multiply(l, r value.Value) (value.Value, error) {
	switch l.Type() {
	case value.Integer:
		return value.NewInteger(l.AsInteger() * r.AsInteger()), nil
	case value.BigInt:
		return value.NewBigInt(l.AsBigInt() * r.AsBigInt()), nil
	case value.Decimal:
		return value.NewDecimal(l.AsDecimal() * r.AsDecimal()), nil
	default:
		return value.Value{}, fmt.Errorf("expr: multiplication on non-numeric type %s", l.Type())
	}
}

func divide(l, r value.Value) (value.Value, error) {
	switch l.Type() {
	case value.Integer:
		if r.AsInteger() == 0 {
			return value.Value{}, fmt.Errorf("expr: division by zero")
		}
		return value.NewInteger(l.AsInteger() / r.AsInteger()), nil
	case value.BigInt:
		if r.AsBigInt() == 0 {
			return value.Value{}, fmt.Errorf("expr: division by zero")
		}
		return value.NewBigInt(l.AsBigInt() / r.AsBigInt()), nil
	case value.Decimal:
		if r.AsDecimal() == 0 {
			return value.Value{}, fmt.Errorf("expr: division by zero")
		}
		return value.NewDecimal(l.AsDecimal() / r.AsDecimal()), nil
	default:
		return value.Value{}, fmt.Errorf("expr: division on non-numeric type %s", l.Type())
	}
}

func (a Arithmetic) Evaluate(tu *tuple.Tuple) (value.Value, error) {
	l, err := a.Left.Evaluate(tu)
	if err != nil {
		return value.Value{}, err
	}
	r, err := a.Right.Evaluate(tu)
	if err != nil {
		return value.Value{}, err
	}
	return applyArith(a.Op, l, r)
}

func (a Arithmetic) EvaluateJoin(left, right *tuple.Tuple) (value.Value, error) {
	l, err := a.Left.EvaluateJoin(left, right)
	if err != nil {
		return value.Value{}, err
	}
	r, err := a.Right.EvaluateJoin(left, right)
	if err != nil {
		return value.Value{}, err
	}
	return applyArith(a.Op, l, r)
}
