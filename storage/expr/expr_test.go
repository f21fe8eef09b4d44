package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/storage/tuple"
	"coredb/storage/value"
)

func schema() *tuple.Schema {
	return tuple.NewSchema([]tuple.Column{
		tuple.NewColumn("id", value.Integer, false),
		tuple.NewColumn("score", value.Decimal, true),
	})
}

func row(id int32, score value.Value) *tuple.Tuple {
	return tuple.NewTuple(schema(), []value.Value{value.NewInteger(id), score})
}

func TestComparisonEvaluate(t *testing.T) {
	cmp := NewComparison(NewColumnRef(0), NewConstant(value.NewInteger(5)), Gt)
	got, err := cmp.Evaluate(row(7, value.NewDecimal(1)))
	require.NoError(t, err)
	assert.True(t, got.AsBoolean())

	got, err = cmp.Evaluate(row(3, value.NewDecimal(1)))
	require.NoError(t, err)
	assert.False(t, got.AsBoolean())
}

func TestComparisonWithNullIsNull(t *testing.T) {
	cmp := NewComparison(NewColumnRef(1), NewConstant(value.NewDecimal(1)), Eq)
	got, err := cmp.Evaluate(row(1, value.NewNull(value.Decimal)))
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestLogicAndOr(t *testing.T) {
	trueExpr := NewConstant(value.NewBoolean(true))
	falseExpr := NewConstant(value.NewBoolean(false))

	got, err := NewAnd(trueExpr, falseExpr).Evaluate(row(1, value.NewDecimal(1)))
	require.NoError(t, err)
	assert.False(t, got.AsBoolean())

	got, err = NewOr(trueExpr, falseExpr).Evaluate(row(1, value.NewDecimal(1)))
	require.NoError(t, err)
	assert.True(t, got.AsBoolean())

	got, err = NewNot(trueExpr).Evaluate(row(1, value.NewDecimal(1)))
	require.NoError(t, err)
	assert.False(t, got.AsBoolean())
}

func TestArithmeticDivideByZero(t *testing.T) {
	arith := NewArithmetic(NewColumnRef(0), NewConstant(value.NewInteger(0)), Div)
	_, err := arith.Evaluate(row(10, value.NewDecimal(1)))
	assert.Error(t, err)
}

func TestArithmeticAddSubMul(t *testing.T) {
	a := NewColumnRef(0)
	five := NewConstant(value.NewInteger(5))

	got, err := NewArithmetic(a, five, Add).Evaluate(row(10, value.NewDecimal(1)))
	require.NoError(t, err)
	assert.Equal(t, int32(15), got.AsInteger())

	got, err = NewArithmetic(a, five, Sub).Evaluate(row(10, value.NewDecimal(1)))
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.AsInteger())

	got, err = NewArithmetic(a, five, Mul).Evaluate(row(10, value.NewDecimal(1)))
	require.NoError(t, err)
	assert.Equal(t, int32(50), got.AsInteger())
}

func TestEvaluateJoinReadsBothSides(t *testing.T) {
	left := row(1, value.NewDecimal(1))
	right := row(2, value.NewDecimal(1))

	cmp := NewComparison(
		NewColumnRefOnSide(0, SideLeft),
		NewColumnRefOnSide(0, SideRight),
		Lt,
	)
	got, err := cmp.EvaluateJoin(left, right)
	require.NoError(t, err)
	assert.True(t, got.AsBoolean())
}
