package execution

import (
	"fmt"

	"coredb/storage/catalog"
	"coredb/storage/heap"
	"coredb/storage/index/hash"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/txn"
)

// InsertExecutor drains its child and writes each row into the table
// heap and every index on it, resolving primary-key-style conflicts
// against a deleted row at the same index key via the same write
// protocol Update/Delete use. Grounded on insert_executor.cpp.
type InsertExecutor struct {
	ctx   *Context
	table catalog.OID
	child Executor

	info    *catalog.TableInfo
	indexes []*catalog.IndexInfo
	done    bool
}

func NewInsertExecutor(ctx *Context, table catalog.OID, child Executor) *InsertExecutor {
	return &InsertExecutor{ctx: ctx, table: table, child: child}
}

func (i *InsertExecutor) OutputSchema() *tuple.Schema { return countSchema() }

func (i *InsertExecutor) Init() error {
	info, ok := i.ctx.Catalog.GetTable(i.table)
	if !ok {
		return tableNotFoundError(i.table)
	}
	i.info = info
	i.indexes = i.ctx.Catalog.GetTableIndexes(i.table)
	i.done = false
	return i.child.Init()
}

func (i *InsertExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if i.done {
		return nil, page.RID{}, false, nil
	}
	i.done = true

	count := 0
	for {
		row, _, ok, err := i.child.Next()
		if err != nil {
			return nil, page.RID{}, false, err
		}
		if !ok {
			break
		}

		inserted, err := i.insertRow(row)
		if err != nil {
			return nil, page.RID{}, false, err
		}
		if inserted {
			count++
		}
	}
	return countTuple(count), page.RID{}, true, nil
}

// insertRow handles one child row: probe every index for a key
// collision. A live collision taints the transaction. A tombstone
// collision reuses the row's RID via the write protocol instead of
// allocating a new one. No collision means a fresh InsertTuple.
func (i *InsertExecutor) insertRow(row *tuple.Tuple) (bool, error) {
	tx := i.ctx.Txn
	for _, idx := range i.indexes {
		key := hash.Key(row.GetValue(idx.ColumnIdx).AsInt64())
		rid, found := idx.Table.GetValue(key)
		if !found {
			continue
		}

		meta, err := i.info.Heap.GetTupleMeta(rid)
		if err != nil {
			return false, err
		}
		if !meta.Deleted {
			return false, taint(tx, rid)
		}

		if err := i.reviveTombstone(rid, meta, row); err != nil {
			return false, err
		}
		return true, nil
	}

	rid, err := i.info.Heap.InsertTuple(heap.TupleMeta{Ts: tx.ID, Deleted: false}, row)
	if err != nil {
		return false, err
	}
	i.ctx.TxnMgr.UpdateVersionLink(rid, txn.VersionLink{InProgress: true}, nil)
	for _, idx := range i.indexes {
		key := hash.Key(row.GetValue(idx.ColumnIdx).AsInt64())
		if !idx.Table.Insert(key, rid) {
			return false, taint(tx, rid)
		}
	}
	tx.RecordWrite(i.info.OID, rid)
	return true, nil
}

// reviveTombstone turns a deleted row back into a live one at its
// existing RID: self-modification rewrites the row in place and leaves
// the transaction's undo logs untouched (any log it already holds for
// this row keeps the pre-transaction image); otherwise it's a fresh
// write against a row no one is
// reading through anymore, carrying an empty-fields undo log forward
// under the existing chain.
func (i *InsertExecutor) reviveTombstone(rid page.RID, meta heap.TupleMeta, row *tuple.Tuple) error {
	tx := i.ctx.Txn
	if meta.Ts == tx.ID {
		ok, err := i.info.Heap.UpdateTupleInPlace(rid, heap.TupleMeta{Ts: tx.ID, Deleted: false}, row)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("execution: revive tombstone %v: row grew past its slot", rid)
		}
		tx.RecordWrite(i.info.OID, rid)
		return nil
	}

	if writeConflict(meta, tx) {
		return taint(tx, rid)
	}

	prevChain, ok := lockForWrite(i.ctx.TxnMgr, rid)
	if !ok {
		return taint(tx, rid)
	}

	log := txn.UndoLog{
		IsDeleted:      true,
		Ts:             meta.Ts,
		ModifiedFields: make([]bool, i.info.Schema.Len()),
		PartialTuple:   tuple.NewTuple(tuple.NewSchema(nil), nil),
		PrevVersion:    prevChain,
	}
	link := tx.AppendUndoLog(log)
	swingChain(i.ctx.TxnMgr, rid, link)

	ok, err := i.info.Heap.UpdateTupleInPlace(rid, heap.TupleMeta{Ts: tx.ID, Deleted: false}, row)
	if err != nil {
		return fmt.Errorf("execution: revive tombstone %v: %w", rid, err)
	}
	if !ok {
		return fmt.Errorf("execution: revive tombstone %v: row grew past its slot", rid)
	}
	tx.RecordWrite(i.info.OID, rid)
	return nil
}
