package execution

import (
	"fmt"

	"coredb/storage/catalog"
	"coredb/storage/heap"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/txn"
)

// DeleteExecutor buffers its child in Init, checking every row for a
// write-write conflict eagerly, then tombstones each row in Next via
// the shared amend-or-fresh undo-log protocol. Grounded on
// delete_executor.cpp.
type DeleteExecutor struct {
	ctx   *Context
	table catalog.OID
	child Executor

	info *catalog.TableInfo
	rows []bufferedRow
	done bool
}

func NewDeleteExecutor(ctx *Context, table catalog.OID, child Executor) *DeleteExecutor {
	return &DeleteExecutor{ctx: ctx, table: table, child: child}
}

func (d *DeleteExecutor) OutputSchema() *tuple.Schema { return countSchema() }

func (d *DeleteExecutor) Init() error {
	info, ok := d.ctx.Catalog.GetTable(d.table)
	if !ok {
		return tableNotFoundError(d.table)
	}
	d.info = info
	d.done = false
	d.rows = nil

	if err := d.child.Init(); err != nil {
		return err
	}

	tx := d.ctx.Txn
	for {
		tu, rid, ok, err := d.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		meta, err := d.info.Heap.GetTupleMeta(rid)
		if err != nil {
			return err
		}
		// A row already tombstoned is a conflict even for its own
		// deleting transaction: there is nothing left to delete.
		if meta.Deleted {
			return taint(tx, rid)
		}
		if meta.Ts != tx.ID && writeConflict(meta, tx) {
			return taint(tx, rid)
		}
		d.rows = append(d.rows, bufferedRow{rid: rid, meta: meta, tu: tu})
	}
	return nil
}

func (d *DeleteExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if d.done {
		return nil, page.RID{}, false, nil
	}
	d.done = true

	count := 0
	for _, row := range d.rows {
		if err := d.deleteRow(row); err != nil {
			return nil, page.RID{}, false, err
		}
		count++
	}
	return countTuple(count), page.RID{}, true, nil
}

func (d *DeleteExecutor) deleteRow(row bufferedRow) error {
	tx := d.ctx.Txn
	schema := d.info.Schema

	if row.meta.Ts == tx.ID {
		if link, ok := d.ctx.TxnMgr.GetVersionLink(row.rid); ok && link.Prev.IsValid() && link.Prev.PrevTxnID == tx.ID {
			prev := tx.GetUndoLog(link.Prev.PrevLogIdx)
			amended := amendDeleteLog(schema, prev, row.tu.Values)
			tx.ModifyUndoLog(link.Prev.PrevLogIdx, amended)
		}
	} else {
		prevChain, ok := lockForWrite(d.ctx.TxnMgr, row.rid)
		if !ok {
			return taint(tx, row.rid)
		}
		mods := make([]bool, schema.Len())
		for i := range mods {
			mods[i] = true
		}
		log := txn.UndoLog{
			Ts:             row.meta.Ts,
			ModifiedFields: mods,
			PartialTuple:   row.tu,
			PrevVersion:    prevChain,
		}
		link := tx.AppendUndoLog(log)
		swingChain(d.ctx.TxnMgr, row.rid, link)
	}

	if err := d.info.Heap.UpdateTupleMeta(row.rid, heap.TupleMeta{Ts: tx.ID, Deleted: true}); err != nil {
		return fmt.Errorf("execution: delete %v: %w", row.rid, err)
	}
	tx.RecordWrite(d.info.OID, row.rid)
	return nil
}
