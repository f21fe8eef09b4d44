package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/storage/expr"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

func TestAggregationGroupsAndComputesRunningValues(t *testing.T) {
	ctx, _ := newTestContext(t)
	rows := []*tuple.Tuple{
		orderRow(1, "book"),
		orderRow(1, "pen"),
		orderRow(2, "ruler"),
	}
	child := newValuesExecutor(ordersSchema(), rows)

	aggs := []AggExpr{
		{Func: AggCountStar, Type: value.Integer},
		{Func: AggMin, Input: expr.NewColumnRef(1), Type: value.Varchar},
	}
	agg := NewAggregationExecutor(ctx, child, []expr.Expression{expr.NewColumnRef(0)}, aggs)
	out := drain(t, agg)
	require.Len(t, out, 2)

	byGroup := map[int32][]value.Value{}
	for _, row := range out {
		byGroup[row.GetValue(0).AsInteger()] = row.Values[1:]
	}
	assert.Equal(t, int32(2), byGroup[1][0].AsInteger())
	assert.Equal(t, "book", byGroup[1][1].AsVarchar())
	assert.Equal(t, int32(1), byGroup[2][0].AsInteger())
	assert.Equal(t, "ruler", byGroup[2][1].AsVarchar())
}

func TestAggregationEmptyInputNoGroupByEmitsOneInitialRow(t *testing.T) {
	ctx, _ := newTestContext(t)
	child := newValuesExecutor(ordersSchema(), nil)
	aggs := []AggExpr{
		{Func: AggCountStar, Type: value.Integer},
		{Func: AggSum, Input: expr.NewColumnRef(0), Type: value.Integer},
	}
	agg := NewAggregationExecutor(ctx, child, nil, aggs)
	out := drain(t, agg)
	require.Len(t, out, 1)
	assert.Equal(t, int32(0), out[0].GetValue(0).AsInteger())
	assert.True(t, out[0].GetValue(1).IsNull())
}
