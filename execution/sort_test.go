package execution

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/storage/expr"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

func pairSchema() *tuple.Schema {
	return tuple.NewSchema([]tuple.Column{
		tuple.NewColumn("col1", value.Integer, false),
		tuple.NewColumn("col2", value.Integer, false),
	})
}

func pairRow(a, b int32) *tuple.Tuple {
	return tuple.NewTuple(pairSchema(), []value.Value{value.NewInteger(a), value.NewInteger(b)})
}

func pairOrderBys() []OrderBy {
	return []OrderBy{
		{Direction: Asc, Expr: expr.NewColumnRef(0)},
		{Direction: Desc, Expr: expr.NewColumnRef(1)},
	}
}

func assertPairs(t *testing.T, rows []*tuple.Tuple, want [][2]int32) {
	t.Helper()
	require.Len(t, rows, len(want))
	for i, w := range want {
		require.Equal(t, w[0], rows[i].GetValue(0).AsInteger())
		require.Equal(t, w[1], rows[i].GetValue(1).AsInteger())
	}
}

func TestSortOrdersByMultipleKeys(t *testing.T) {
	ctx, _ := newTestContext(t)
	rows := []*tuple.Tuple{pairRow(3, 1), pairRow(1, 2), pairRow(2, 2), pairRow(2, 1), pairRow(1, 1)}
	child := newValuesExecutor(pairSchema(), rows)

	srt := NewSortExecutor(ctx, child, pairOrderBys())
	out := drain(t, srt)
	assertPairs(t, out, [][2]int32{{1, 2}, {1, 1}, {2, 2}, {2, 1}, {3, 1}})
}
