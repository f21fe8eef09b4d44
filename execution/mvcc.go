package execution

import (
	"fmt"

	"coredb/storage/heap"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/storage/value"
	"coredb/txn"
)

// reconstructTuple applies undoLogs, newest first, over base to
// produce the version visible as of the reader's snapshot. Returns
// nil if the terminal deleted flag (from the last log applied, or
// from baseMeta if no log touched it) is true. Grounded on
// execution_common.cpp's ReconstructTuple.
func reconstructTuple(schema *tuple.Schema, base *tuple.Tuple, baseMeta heap.TupleMeta, undoLogs []txn.UndoLog) *tuple.Tuple {
	values := make([]value.Value, schema.Len())
	copy(values, base.Values)
	deleted := baseMeta.Deleted
	for _, log := range undoLogs {
		deleted = log.IsDeleted
		idx := 0
		for col, modified := range log.ModifiedFields {
			if modified {
				values[col] = log.PartialTuple.GetValue(idx)
				idx++
			}
		}
	}
	if deleted {
		return nil
	}
	return tuple.NewTuple(schema, values)
}

// visibleTuple reads rid's base version and, if it isn't visible to
// tx's snapshot, walks the undo chain to reconstruct the version that
// is. ok is false if nothing visible exists (never inserted for this
// reader, or reconstructs to deleted). Grounded on seq_scan_executor.cpp
// / index_scan_executor.cpp's shared visibility check.
func visibleTuple(h *heap.TableHeap, mgr *txn.Manager, tx *txn.Transaction, schema *tuple.Schema, rid page.RID) (*tuple.Tuple, bool, error) {
	meta, base, err := h.GetTuple(rid, schema)
	if err != nil {
		return nil, false, err
	}

	if meta.Ts == tx.ID || meta.Ts <= tx.ReadTs {
		if meta.Deleted {
			return nil, false, nil
		}
		return base, true, nil
	}

	link, ok := mgr.GetVersionLink(rid)
	if !ok {
		return nil, false, nil
	}

	undoLink := link.Prev
	var logs []txn.UndoLog
	reachedSnapshot := false
	for undoLink.IsValid() {
		log, ok := mgr.GetUndoLog(undoLink)
		if !ok {
			break
		}
		logs = append(logs, log)
		if log.Ts <= tx.ReadTs {
			reachedSnapshot = true
			break
		}
		undoLink = log.PrevVersion
	}
	if !reachedSnapshot {
		return nil, false, nil
	}

	result := reconstructTuple(schema, base, meta, logs)
	if result == nil {
		return nil, false, nil
	}
	return result, true, nil
}

// writeConflict reports whether tx may not take rid's write lock given
// its current tuple meta: either an in-flight writer other than tx
// holds it, or a committed version newer than tx's snapshot exists.
func writeConflict(meta heap.TupleMeta, tx *txn.Transaction) bool {
	if txn.IsTxnID(meta.Ts) {
		return meta.Ts != tx.ID
	}
	return meta.Ts > tx.ReadTs
}

func taint(tx *txn.Transaction, rid page.RID) error {
	tx.Taint()
	return fmt.Errorf("execution: conflict on rid %v: %w", rid, txn.ErrWriteConflict)
}

// lockForWrite takes rid's version link on tx's behalf via compare-
// and-set against whatever was there before, returning the undo chain
// the new log must link onto. ok is false if a concurrent writer beat
// this one to it.
func lockForWrite(mgr *txn.Manager, rid page.RID) (txn.UndoLink, bool) {
	existing, hadPrev := mgr.GetVersionLink(rid)
	next := txn.VersionLink{InProgress: true}
	if hadPrev {
		next.Prev = existing.Prev
	}
	check := func(cur txn.VersionLink, exists bool) bool {
		if !hadPrev {
			return !exists
		}
		return exists && !cur.InProgress && cur.Prev == existing.Prev
	}
	if !mgr.UpdateVersionLink(rid, next, check) {
		return txn.UndoLink{}, false
	}
	return next.Prev, true
}

// swingChain points rid's version link at head, the undo log just
// appended, keeping the write lock held until commit clears it.
func swingChain(mgr *txn.Manager, rid page.RID, head txn.UndoLink) {
	mgr.UpdateVersionLink(rid, txn.VersionLink{Prev: head, InProgress: true}, nil)
}

// diffFields marks the columns where oldValues and newValues disagree.
func diffFields(n int, oldValues, newValues []value.Value) []bool {
	mods := make([]bool, n)
	for i := 0; i < n; i++ {
		mods[i] = !oldValues[i].Equals(newValues[i])
	}
	return mods
}

// partialTuple builds an undo log's before-image: only the columns
// marked in mods, read from source, against a schema restricted to
// those same columns.
func partialTuple(schema *tuple.Schema, source []value.Value, mods []bool) *tuple.Tuple {
	var cols []int
	var vals []value.Value
	for i, m := range mods {
		if m {
			cols = append(cols, i)
			vals = append(vals, source[i])
		}
	}
	return tuple.NewTuple(schema.CopySchema(cols), vals)
}

// amendUpdateLog folds a second self-modification into prevLog: a
// field gets its pre-transaction value if this is the first time it's
// changed, or keeps whatever pre-image prevLog already held if this
// transaction had already logged it earlier. Grounded on
// update_executor.cpp's self-modification branch.
func amendUpdateLog(schema *tuple.Schema, prevLog txn.UndoLog, oldValues, newValues []value.Value) txn.UndoLog {
	n := schema.Len()
	logged := make(map[int]value.Value, n)
	idx := 0
	for i, m := range prevLog.ModifiedFields {
		if m {
			logged[i] = prevLog.PartialTuple.GetValue(idx)
			idx++
		}
	}

	final := make([]bool, n)
	var cols []int
	var vals []value.Value
	for i := 0; i < n; i++ {
		if v, already := logged[i]; already {
			final[i] = true
			cols = append(cols, i)
			vals = append(vals, v)
		} else if !oldValues[i].Equals(newValues[i]) {
			final[i] = true
			cols = append(cols, i)
			vals = append(vals, oldValues[i])
		}
	}

	prevLog.ModifiedFields = final
	prevLog.PartialTuple = tuple.NewTuple(schema.CopySchema(cols), vals)
	return prevLog
}

// amendDeleteLog folds a delete into a transaction's own earlier
// modification of the same row: every column becomes part of the
// before-image, filling any column not already logged from oldValues
// (its value as of just before this delete). Grounded on
// delete_executor.cpp's self-modification branch.
func amendDeleteLog(schema *tuple.Schema, prevLog txn.UndoLog, oldValues []value.Value) txn.UndoLog {
	n := schema.Len()
	logged := make(map[int]value.Value, n)
	idx := 0
	for i, m := range prevLog.ModifiedFields {
		if m {
			logged[i] = prevLog.PartialTuple.GetValue(idx)
			idx++
		}
	}

	final := make([]bool, n)
	vals := make([]value.Value, n)
	for i := 0; i < n; i++ {
		final[i] = true
		if v, already := logged[i]; already {
			vals[i] = v
		} else {
			vals[i] = oldValues[i]
		}
	}
	prevLog.ModifiedFields = final
	prevLog.PartialTuple = tuple.NewTuple(schema, vals)
	return prevLog
}

// countTuple builds the single-row, single-INTEGER-column result
// Insert/Update/Delete emit.
func countTuple(count int) *tuple.Tuple {
	schema := tuple.NewSchema([]tuple.Column{tuple.NewColumn("count", value.Integer, false)})
	return tuple.NewTuple(schema, []value.Value{value.NewInteger(int32(count))})
}

func countSchema() *tuple.Schema {
	return tuple.NewSchema([]tuple.Column{tuple.NewColumn("count", value.Integer, false)})
}
