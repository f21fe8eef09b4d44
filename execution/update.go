package execution

import (
	"fmt"

	"coredb/storage/catalog"
	"coredb/storage/expr"
	"coredb/storage/heap"
	"coredb/storage/index/hash"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/storage/value"
	"coredb/txn"
)

// UpdateExecutor buffers its child in Init, checking every row for a
// write-write conflict eagerly so a conflict is reported before any
// row is actually written, then rewrites each row's columns via the
// shared amend-or-fresh undo-log protocol. Grounded on
// update_executor.cpp.
type UpdateExecutor struct {
	ctx     *Context
	table   catalog.OID
	child   Executor
	setExpr []expr.Expression

	info *catalog.TableInfo
	rows []bufferedRow
	done bool
}

type bufferedRow struct {
	rid  page.RID
	meta heap.TupleMeta
	tu   *tuple.Tuple
}

func NewUpdateExecutor(ctx *Context, table catalog.OID, child Executor, setExpr []expr.Expression) *UpdateExecutor {
	return &UpdateExecutor{ctx: ctx, table: table, child: child, setExpr: setExpr}
}

func (u *UpdateExecutor) OutputSchema() *tuple.Schema { return countSchema() }

func (u *UpdateExecutor) Init() error {
	info, ok := u.ctx.Catalog.GetTable(u.table)
	if !ok {
		return tableNotFoundError(u.table)
	}
	u.info = info
	u.done = false
	u.rows = nil

	if err := u.child.Init(); err != nil {
		return err
	}

	tx := u.ctx.Txn
	for {
		tu, rid, ok, err := u.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		meta, err := u.info.Heap.GetTupleMeta(rid)
		if err != nil {
			return err
		}
		if meta.Ts != tx.ID && writeConflict(meta, tx) {
			return taint(tx, rid)
		}
		u.rows = append(u.rows, bufferedRow{rid: rid, meta: meta, tu: tu})
	}
	return nil
}

func (u *UpdateExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if u.done {
		return nil, page.RID{}, false, nil
	}
	u.done = true

	count := 0
	for _, row := range u.rows {
		if err := u.updateRow(row); err != nil {
			return nil, page.RID{}, false, err
		}
		count++
	}
	return countTuple(count), page.RID{}, true, nil
}

func (u *UpdateExecutor) updateRow(row bufferedRow) error {
	tx := u.ctx.Txn
	schema := u.info.Schema
	n := schema.Len()

	newValues := make([]value.Value, n)
	for i, e := range u.setExpr {
		v, err := e.Evaluate(row.tu)
		if err != nil {
			return err
		}
		newValues[i] = v
	}
	newRow := tuple.NewTuple(schema, newValues)

	if row.meta.Ts == tx.ID {
		if link, ok := u.ctx.TxnMgr.GetVersionLink(row.rid); ok && link.Prev.IsValid() && link.Prev.PrevTxnID == tx.ID {
			prev := tx.GetUndoLog(link.Prev.PrevLogIdx)
			amended := amendUpdateLog(schema, prev, row.tu.Values, newValues)
			tx.ModifyUndoLog(link.Prev.PrevLogIdx, amended)
		}
	} else {
		prevChain, ok := lockForWrite(u.ctx.TxnMgr, row.rid)
		if !ok {
			return taint(tx, row.rid)
		}
		mods := diffFields(n, row.tu.Values, newValues)
		log := txn.UndoLog{
			Ts:             row.meta.Ts,
			ModifiedFields: mods,
			PartialTuple:   partialTuple(schema, row.tu.Values, mods),
			PrevVersion:    prevChain,
		}
		link := tx.AppendUndoLog(log)
		swingChain(u.ctx.TxnMgr, row.rid, link)
	}

	ok, err := u.info.Heap.UpdateTupleInPlace(row.rid, heap.TupleMeta{Ts: tx.ID, Deleted: false}, newRow)
	if err != nil {
		return fmt.Errorf("execution: update %v: %w", row.rid, err)
	}
	if !ok {
		return fmt.Errorf("execution: update %v: row grew past its slot", row.rid)
	}
	tx.RecordWrite(u.info.OID, row.rid)

	for _, idx := range u.ctx.Catalog.GetTableIndexes(u.info.OID) {
		if row.tu.GetValue(idx.ColumnIdx).Equals(newRow.GetValue(idx.ColumnIdx)) {
			continue
		}
		idx.Table.Remove(hash.Key(row.tu.GetValue(idx.ColumnIdx).AsInt64()))
		idx.Table.Insert(hash.Key(newRow.GetValue(idx.ColumnIdx).AsInt64()), row.rid)
	}
	return nil
}
