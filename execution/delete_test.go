package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/storage/heap"
	"coredb/storage/page"
	"coredb/storage/tuple"
)

// ridExecutor yields a fixed (tuple, rid) pair once, bypassing MVCC
// visibility filtering — used to drive the write-path executors'
// eager conflict checks directly against a row a real scan would
// never surface.
type ridExecutor struct {
	schema *tuple.Schema
	tu     *tuple.Tuple
	rid    page.RID
	done   bool
}

func (r *ridExecutor) OutputSchema() *tuple.Schema { return r.schema }
func (r *ridExecutor) Init() error                 { r.done = false; return nil }
func (r *ridExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if r.done {
		return nil, page.RID{}, false, nil
	}
	r.done = true
	return r.tu, r.rid, true, nil
}

func TestDeleteTombstonesRow(t *testing.T) {
	ctx, cat := newTestContext(t)
	info, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)

	rid, err := info.Heap.InsertTuple(heap.TupleMeta{Ts: 0, Deleted: false}, newRow(1, "alice"))
	require.NoError(t, err)

	del := NewDeleteExecutor(ctx, info.OID, NewSeqScanExecutor(ctx, info.OID, nil))
	rows := drain(t, del)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(1), rows[0].GetValue(0).AsInteger())

	meta, err := info.Heap.GetTupleMeta(rid)
	require.NoError(t, err)
	assert.True(t, meta.Deleted)
	assert.Equal(t, ctx.Txn.ID, meta.Ts)

	link, ok := ctx.TxnMgr.GetVersionLink(rid)
	require.True(t, ok)
	log, ok := ctx.TxnMgr.GetUndoLog(link.Prev)
	require.True(t, ok)
	assert.False(t, log.IsDeleted)
	assert.Equal(t, "alice", log.PartialTuple.GetValue(1).AsVarchar())
}

func TestDeleteAlreadyTombstonedIsConflict(t *testing.T) {
	ctx, cat := newTestContext(t)
	info, err := cat.CreateTable("users", usersSchema())
	require.NoError(t, err)
	rid, err := info.Heap.InsertTuple(heap.TupleMeta{Ts: 0, Deleted: true}, newRow(1, "ghost"))
	require.NoError(t, err)

	child := &ridExecutor{schema: info.Schema, tu: newRow(1, "ghost"), rid: rid}
	del := NewDeleteExecutor(ctx, info.OID, child)
	err = del.Init()
	assert.Error(t, err)
}
