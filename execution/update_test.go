package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/storage/expr"
	"coredb/storage/heap"
	"coredb/storage/index/hash"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

func TestUpdateRewritesRowAndIndexAgainstCommittedVersion(t *testing.T) {
	ctx, cat := newTestContext(t)
	info, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	idx, err := cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)

	rid, err := info.Heap.InsertTuple(heap.TupleMeta{Ts: 0, Deleted: false}, newRow(1, "alice"))
	require.NoError(t, err)
	require.True(t, idx.Table.Insert(hash.Key(1), rid))

	scan := NewSeqScanExecutor(ctx, info.OID, nil)
	setExprs := []expr.Expression{
		expr.NewColumnRef(0),
		expr.NewConstant(value.NewVarchar("alicia")),
	}
	upd := NewUpdateExecutor(ctx, info.OID, scan, setExprs)
	rows := drain(t, upd)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(1), rows[0].GetValue(0).AsInteger())

	meta, tu, err := info.Heap.GetTuple(rid, info.Schema)
	require.NoError(t, err)
	assert.Equal(t, tx0(ctx), meta.Ts)
	assert.Equal(t, "alicia", tu.GetValue(1).AsVarchar())

	link, ok := ctx.TxnMgr.GetVersionLink(rid)
	require.True(t, ok)
	require.True(t, link.Prev.IsValid())
}

func TestUpdateSelfModificationAmendsExistingLogInstead(t *testing.T) {
	ctx, cat := newTestContext(t)
	info, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	_, err = cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)

	rid, err := info.Heap.InsertTuple(heap.TupleMeta{Ts: 0, Deleted: false}, newRow(1, "alice"))
	require.NoError(t, err)

	setA := []expr.Expression{expr.NewColumnRef(0), expr.NewConstant(value.NewVarchar("step1"))}
	first := NewUpdateExecutor(ctx, info.OID, NewSeqScanExecutor(ctx, info.OID, nil), setA)
	_ = drain(t, first)

	before, ok := ctx.TxnMgr.GetVersionLink(rid)
	require.True(t, ok)
	logCount := len(ctx.Txn.UndoLogs)

	setB := []expr.Expression{expr.NewColumnRef(0), expr.NewConstant(value.NewVarchar("step2"))}
	second := NewUpdateExecutor(ctx, info.OID, NewSeqScanExecutor(ctx, info.OID, nil), setB)
	_ = drain(t, second)

	assert.Equal(t, logCount, len(ctx.Txn.UndoLogs), "self-modification must amend, not append")
	after, ok := ctx.TxnMgr.GetVersionLink(rid)
	require.True(t, ok)
	assert.Equal(t, before.Prev, after.Prev)

	amended := ctx.Txn.GetUndoLog(before.Prev.PrevLogIdx)
	assert.Equal(t, "alice", amended.PartialTuple.GetValue(0).AsVarchar())
}

func tx0(ctx *Context) uint64 { return ctx.Txn.ID }
