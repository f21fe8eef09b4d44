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

func newRow(id int32, name string) *tuple.Tuple {
	return tuple.NewTuple(usersSchema(), []value.Value{value.NewInteger(id), value.NewVarchar(name)})
}

func TestInsertWritesRowsAndIndexEntries(t *testing.T) {
	ctx, cat := newTestContext(t)
	info, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	idx, err := cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)

	child := newValuesExecutor(usersSchema(), []*tuple.Tuple{newRow(1, "alice"), newRow(2, "bob")})
	ins := NewInsertExecutor(ctx, info.OID, child)
	rows := drain(t, ins)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(2), rows[0].GetValue(0).AsInteger())

	rid, found := idx.Table.GetValue(hash.Key(1))
	require.True(t, found)
	meta, tu, err := info.Heap.GetTuple(rid, info.Schema)
	require.NoError(t, err)
	assert.False(t, meta.Deleted)
	assert.Equal(t, "alice", tu.GetValue(1).AsVarchar())
}

func TestInsertRevivesTombstoneAtSameKey(t *testing.T) {
	ctx, cat := newTestContext(t)
	info, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	idx, err := cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)

	rid, err := info.Heap.InsertTuple(
		heap.TupleMeta{Ts: 0, Deleted: true},
		newRow(1, "ghost"),
	)
	require.NoError(t, err)
	require.True(t, idx.Table.Insert(hash.Key(1), rid))

	child := newValuesExecutor(usersSchema(), []*tuple.Tuple{newRow(1, "reborn")})
	ins := NewInsertExecutor(ctx, info.OID, child)
	rows := drain(t, ins)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(1), rows[0].GetValue(0).AsInteger())

	meta, tu, err := info.Heap.GetTuple(rid, info.Schema)
	require.NoError(t, err)
	assert.False(t, meta.Deleted)
	assert.Equal(t, "reborn", tu.GetValue(1).AsVarchar())
}

func TestInsertConflictsWithLiveRowAtSameKey(t *testing.T) {
	ctx, cat := newTestContext(t)
	info, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	idx, err := cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)

	rid, err := info.Heap.InsertTuple(heap.TupleMeta{Ts: 0, Deleted: false}, newRow(1, "alice"))
	require.NoError(t, err)
	require.True(t, idx.Table.Insert(hash.Key(1), rid))

	child := newValuesExecutor(usersSchema(), []*tuple.Tuple{newRow(1, "dup")})
	ins := NewInsertExecutor(ctx, info.OID, child)
	require.NoError(t, ins.Init())
	_, _, _, err = ins.Next()
	assert.Error(t, err)
}
