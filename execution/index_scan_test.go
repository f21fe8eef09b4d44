package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/storage/heap"
	"coredb/storage/index/hash"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

func TestIndexScanProbesSingleMatch(t *testing.T) {
	ctx, cat := newTestContext(t)
	info, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	idx, err := cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)

	tu := tuple.NewTuple(info.Schema, []value.Value{value.NewInteger(7), value.NewVarchar("carol")})
	rid, err := info.Heap.InsertTuple(heap.TupleMeta{Ts: 0, Deleted: false}, tu)
	require.NoError(t, err)
	require.True(t, idx.Table.Insert(hash.Key(7), rid))
	ctx.Txn.ReadTs = 10

	is := NewIndexScanExecutor(ctx, info.OID, idx.OID, value.NewInteger(7))
	rows := drain(t, is)
	require.Len(t, rows, 1)
	assert.Equal(t, "carol", rows[0].GetValue(1).AsVarchar())
}

func TestIndexScanMissReturnsNoRows(t *testing.T) {
	ctx, cat := newTestContext(t)
	_, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	idx, err := cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)

	tbl, _ := cat.GetTableByName("users")
	is := NewIndexScanExecutor(ctx, tbl.OID, idx.OID, value.NewInteger(42))
	rows := drain(t, is)
	assert.Empty(t, rows)
}
