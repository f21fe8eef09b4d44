package rewrite

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/execution"
	"coredb/logging"
	"coredb/storage/buffer"
	"coredb/storage/catalog"
	"coredb/storage/disk"
	"coredb/storage/expr"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	fs := afero.NewMemMapFs()
	mgr, err := disk.New(fs, "/data/test.db", logging.NewNop())
	require.NoError(t, err)
	sched := disk.NewScheduler(mgr, 64, logging.NewNop())
	t.Cleanup(func() { _ = sched.Close() })
	pool := buffer.New(sched, 32, 2, logging.NewNop())
	return catalog.New(pool, logging.NewNop())
}

func testSchema() *tuple.Schema {
	return tuple.NewSchema([]tuple.Column{
		tuple.NewColumn("id", value.Integer, false),
		tuple.NewColumn("name", value.Varchar, true),
	})
}

func TestSeqScanAsIndexScanRewritesEqualityOverIndexedColumn(t *testing.T) {
	cat := newTestCatalog(t)
	tbl, err := cat.CreateTable("users", testSchema())
	require.NoError(t, err)
	_, err = cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)

	scan := &SeqScanPlan{
		Schema: tbl.Schema,
		Table:  tbl.OID,
		Filter: expr.NewComparison(expr.NewColumnRef(0), expr.NewConstant(value.NewInteger(7)), expr.Eq),
	}
	out := SeqScanAsIndexScan(cat, scan)
	idxScan, ok := out.(*IndexScanPlan)
	require.True(t, ok)
	assert.Equal(t, tbl.OID, idxScan.Table)
}

func TestSeqScanAsIndexScanLeavesUnindexedColumnAlone(t *testing.T) {
	cat := newTestCatalog(t)
	tbl, err := cat.CreateTable("users", testSchema())
	require.NoError(t, err)

	scan := &SeqScanPlan{
		Schema: tbl.Schema,
		Table:  tbl.OID,
		Filter: expr.NewComparison(expr.NewColumnRef(1), expr.NewConstant(value.NewVarchar("bob")), expr.Eq),
	}
	out := SeqScanAsIndexScan(cat, scan)
	_, stillSeq := out.(*SeqScanPlan)
	assert.True(t, stillSeq)
}

func TestSortLimitAsTopNFuses(t *testing.T) {
	schema := testSchema()
	sortPlan := &SortPlan{
		Schema:   schema,
		Child:    &SeqScanPlan{Schema: schema},
		OrderBys: []execution.OrderBy{{Direction: execution.Asc, Expr: expr.NewColumnRef(0)}},
	}
	limit := &LimitPlan{Schema: schema, Child: sortPlan, N: 3}

	out := SortLimitAsTopN(limit)
	topN, ok := out.(*TopNPlan)
	require.True(t, ok)
	assert.Equal(t, 3, topN.N)
	assert.Len(t, topN.OrderBys, 1)
}

func TestSortLimitAsTopNLeavesBareLimitAlone(t *testing.T) {
	schema := testSchema()
	limit := &LimitPlan{Schema: schema, Child: &SeqScanPlan{Schema: schema}, N: 3}
	out := SortLimitAsTopN(limit)
	_, stillLimit := out.(*LimitPlan)
	assert.True(t, stillLimit)
}

func TestNLJAsHashJoinRewritesEquiJoin(t *testing.T) {
	schema := testSchema()
	pred := expr.NewComparison(
		expr.NewColumnRefOnSide(0, expr.SideLeft),
		expr.NewColumnRefOnSide(0, expr.SideRight),
		expr.Eq,
	)
	nlj := &NestedLoopJoinPlan{
		Schema:    schema,
		Left:      &SeqScanPlan{Schema: schema},
		Right:     &SeqScanPlan{Schema: schema},
		Predicate: pred,
		JoinType:  execution.InnerJoin,
	}
	out := NLJAsHashJoin(nlj)
	hj, ok := out.(*HashJoinPlan)
	require.True(t, ok)
	require.Len(t, hj.LeftKeys, 1)
	require.Len(t, hj.RightKeys, 1)
}

func TestNLJAsHashJoinLeavesNonEqualityAlone(t *testing.T) {
	schema := testSchema()
	pred := expr.NewComparison(
		expr.NewColumnRefOnSide(0, expr.SideLeft),
		expr.NewColumnRefOnSide(0, expr.SideRight),
		expr.Lt,
	)
	nlj := &NestedLoopJoinPlan{
		Schema:    schema,
		Left:      &SeqScanPlan{Schema: schema},
		Right:     &SeqScanPlan{Schema: schema},
		Predicate: pred,
		JoinType:  execution.InnerJoin,
	}
	out := NLJAsHashJoin(nlj)
	_, stillNlj := out.(*NestedLoopJoinPlan)
	assert.True(t, stillNlj)
}
