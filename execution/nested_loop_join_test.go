package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/storage/expr"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

func ordersSchema() *tuple.Schema {
	return tuple.NewSchema([]tuple.Column{
		tuple.NewColumn("user_id", value.Integer, false),
		tuple.NewColumn("item", value.Varchar, false),
	})
}

func orderRow(userID int32, item string) *tuple.Tuple {
	return tuple.NewTuple(ordersSchema(), []value.Value{value.NewInteger(userID), value.NewVarchar(item)})
}

func TestNestedLoopInnerJoinMatchesOnEquality(t *testing.T) {
	ctx, _ := newTestContext(t)
	left := newValuesExecutor(usersSchema(), []*tuple.Tuple{newRow(1, "alice"), newRow(2, "bob")})
	right := newValuesExecutor(ordersSchema(), []*tuple.Tuple{orderRow(1, "book"), orderRow(3, "pen")})

	pred := expr.NewComparison(
		expr.NewColumnRefOnSide(0, expr.SideLeft),
		expr.NewColumnRefOnSide(0, expr.SideRight),
		expr.Eq,
	)
	nlj := NewNestedLoopJoinExecutor(ctx, left, right, pred, InnerJoin)
	rows := drain(t, nlj)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].GetValue(1).AsVarchar())
	assert.Equal(t, "book", rows[0].GetValue(3).AsVarchar())
}

func TestNestedLoopLeftJoinPadsUnmatchedLeftRows(t *testing.T) {
	ctx, _ := newTestContext(t)
	left := newValuesExecutor(usersSchema(), []*tuple.Tuple{newRow(1, "alice"), newRow(2, "bob")})
	right := newValuesExecutor(ordersSchema(), []*tuple.Tuple{orderRow(1, "book")})

	pred := expr.NewComparison(
		expr.NewColumnRefOnSide(0, expr.SideLeft),
		expr.NewColumnRefOnSide(0, expr.SideRight),
		expr.Eq,
	)
	nlj := NewNestedLoopJoinExecutor(ctx, left, right, pred, LeftJoin)
	rows := drain(t, nlj)
	require.Len(t, rows, 2)
	assert.Equal(t, "book", rows[0].GetValue(3).AsVarchar())
	assert.True(t, rows[1].GetValue(2).IsNull())
	assert.True(t, rows[1].GetValue(3).IsNull())
}
