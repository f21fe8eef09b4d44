package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/storage/expr"
	"coredb/storage/tuple"
)

func TestHashJoinInnerMatchesBuiltFromRightSide(t *testing.T) {
	ctx, _ := newTestContext(t)
	left := newValuesExecutor(usersSchema(), []*tuple.Tuple{newRow(1, "alice"), newRow(2, "bob")})
	right := newValuesExecutor(ordersSchema(), []*tuple.Tuple{orderRow(2, "pen"), orderRow(2, "ruler")})

	hj := NewHashJoinExecutor(ctx, left, right,
		[]expr.Expression{expr.NewColumnRef(0)},
		[]expr.Expression{expr.NewColumnRef(0)},
		InnerJoin,
	)
	rows := drain(t, hj)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "bob", row.GetValue(1).AsVarchar())
	}
}

func TestHashJoinLeftPadsUnmatchedLeftRows(t *testing.T) {
	ctx, _ := newTestContext(t)
	left := newValuesExecutor(usersSchema(), []*tuple.Tuple{newRow(1, "alice"), newRow(2, "bob")})
	right := newValuesExecutor(ordersSchema(), []*tuple.Tuple{orderRow(2, "pen")})

	hj := NewHashJoinExecutor(ctx, left, right,
		[]expr.Expression{expr.NewColumnRef(0)},
		[]expr.Expression{expr.NewColumnRef(0)},
		LeftJoin,
	)
	rows := drain(t, hj)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].GetValue(2).IsNull())
	assert.Equal(t, "pen", rows[1].GetValue(3).AsVarchar())
}
