package execution

import (
	"coredb/storage/catalog"
	"coredb/storage/expr"
	"coredb/storage/heap"
	"coredb/storage/page"
	"coredb/storage/tuple"
)

// SeqScanExecutor walks a table heap end to end, applying MVCC
// visibility per tuple and an optional filter predicate. Grounded on
// seq_scan_executor.cpp.
type SeqScanExecutor struct {
	ctx    *Context
	table  catalog.OID
	filter expr.Expression

	info *catalog.TableInfo
	it   *heap.Iterator
}

func NewSeqScanExecutor(ctx *Context, table catalog.OID, filter expr.Expression) *SeqScanExecutor {
	return &SeqScanExecutor{ctx: ctx, table: table, filter: filter}
}

func (s *SeqScanExecutor) OutputSchema() *tuple.Schema { return s.info.Schema }

func (s *SeqScanExecutor) Init() error {
	info, ok := s.ctx.Catalog.GetTable(s.table)
	if !ok {
		return tableNotFoundError(s.table)
	}
	s.info = info
	s.it = info.Heap.MakeIterator(info.Schema)
	return nil
}

func (s *SeqScanExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	for {
		rid, _, _, ok, err := s.it.Next()
		if err != nil {
			return nil, page.RID{}, false, err
		}
		if !ok {
			return nil, page.RID{}, false, nil
		}

		tu, visible, err := visibleTuple(s.info.Heap, s.ctx.TxnMgr, s.ctx.Txn, s.info.Schema, rid)
		if err != nil {
			return nil, page.RID{}, false, err
		}
		if !visible {
			continue
		}

		if s.filter != nil {
			v, err := s.filter.Evaluate(tu)
			if err != nil {
				return nil, page.RID{}, false, err
			}
			if v.IsNull() || !v.AsBoolean() {
				continue
			}
		}
		return tu, rid, true, nil
	}
}
