package heap

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/logging"
	"coredb/storage/buffer"
	"coredb/storage/disk"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

func newTestHeap(t *testing.T, poolSize int) (*TableHeap, *tuple.Schema) {
	t.Helper()
	fs := afero.NewMemMapFs()
	mgr, err := disk.New(fs, "/data/test.db", logging.NewNop())
	require.NoError(t, err)
	sched := disk.NewScheduler(mgr, 64, logging.NewNop())
	t.Cleanup(func() { _ = sched.Close() })

	pool := buffer.New(sched, poolSize, 2, logging.NewNop())
	h, err := NewTableHeap(pool, logging.NewNop())
	require.NoError(t, err)

	schema := tuple.NewSchema([]tuple.Column{
		tuple.NewColumn("id", value.Integer, false),
		tuple.NewColumn("name", value.Varchar, true),
	})
	return h, schema
}

func row(schema *tuple.Schema, id int32, name string) *tuple.Tuple {
	return tuple.NewTuple(schema, []value.Value{value.NewInteger(id), value.NewVarchar(name)})
}

func TestTableHeapInsertAndGetTuple(t *testing.T) {
	h, schema := newTestHeap(t, 8)

	rid, err := h.InsertTuple(TupleMeta{Ts: 1}, row(schema, 1, "alice"))
	require.NoError(t, err)

	meta, tu, err := h.GetTuple(rid, schema)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), meta.Ts)
	assert.False(t, meta.Deleted)
	assert.Equal(t, int32(1), tu.GetValue(0).AsInteger())
	assert.Equal(t, "alice", tu.GetValue(1).AsVarchar())
}

func TestTableHeapUpdateTupleMeta(t *testing.T) {
	h, schema := newTestHeap(t, 8)
	rid, err := h.InsertTuple(TupleMeta{Ts: 1}, row(schema, 1, "alice"))
	require.NoError(t, err)

	require.NoError(t, h.UpdateTupleMeta(rid, TupleMeta{Ts: 2, Deleted: true}))

	meta, err := h.GetTupleMeta(rid)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), meta.Ts)
	assert.True(t, meta.Deleted)
}

func TestTableHeapUpdateTupleInPlaceRefusesLargerRecord(t *testing.T) {
	h, schema := newTestHeap(t, 8)
	rid, err := h.InsertTuple(TupleMeta{Ts: 1}, row(schema, 1, "a"))
	require.NoError(t, err)

	ok, err := h.UpdateTupleInPlace(rid, TupleMeta{Ts: 2}, row(schema, 1, "a much longer name than before"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.UpdateTupleInPlace(rid, TupleMeta{Ts: 3}, row(schema, 9, ""))
	require.NoError(t, err)
	assert.True(t, ok)

	_, tu, err := h.GetTuple(rid, schema)
	require.NoError(t, err)
	assert.Equal(t, int32(9), tu.GetValue(0).AsInteger())
}

func TestTableHeapIteratorVisitsAllTuples(t *testing.T) {
	h, schema := newTestHeap(t, 8)
	for i := int32(0); i < 5; i++ {
		_, err := h.InsertTuple(TupleMeta{Ts: uint64(i)}, row(schema, i, "row"))
		require.NoError(t, err)
	}

	it := h.MakeIterator(schema)
	seen := map[int32]bool{}
	for {
		_, _, tu, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen[tu.GetValue(0).AsInteger()] = true
	}
	assert.Len(t, seen, 5)
}

func TestTableHeapSpillsToNewPageWhenFull(t *testing.T) {
	h, schema := newTestHeap(t, 8)
	longName := make([]byte, 3000)
	for i := range longName {
		longName[i] = 'x'
	}

	rid1, err := h.InsertTuple(TupleMeta{Ts: 1}, row(schema, 1, string(longName)))
	require.NoError(t, err)
	rid2, err := h.InsertTuple(TupleMeta{Ts: 2}, row(schema, 2, string(longName)))
	require.NoError(t, err)

	assert.NotEqual(t, rid1.PageID, rid2.PageID)
	assert.Equal(t, h.LastPageID(), rid2.PageID)
}
