package execution

import (
	"coredb/storage/catalog"
	"coredb/storage/index/hash"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

// IndexScanExecutor probes a single-column hash index for ProbeKey and
// emits at most one tuple, under the same MVCC visibility rule
// SeqScan uses. Grounded on index_scan_executor.cpp.
type IndexScanExecutor struct {
	ctx      *Context
	table    catalog.OID
	index    catalog.OID
	probeKey value.Value

	tableInfo *catalog.TableInfo
	indexInfo *catalog.IndexInfo
	done      bool
}

func NewIndexScanExecutor(ctx *Context, table, index catalog.OID, probeKey value.Value) *IndexScanExecutor {
	return &IndexScanExecutor{ctx: ctx, table: table, index: index, probeKey: probeKey}
}

func (s *IndexScanExecutor) OutputSchema() *tuple.Schema { return s.tableInfo.Schema }

func (s *IndexScanExecutor) Init() error {
	info, ok := s.ctx.Catalog.GetTable(s.table)
	if !ok {
		return tableNotFoundError(s.table)
	}
	idx, ok := s.ctx.Catalog.GetIndex(s.index)
	if !ok {
		return indexNotFoundError(s.index)
	}
	s.tableInfo = info
	s.indexInfo = idx
	s.done = false
	return nil
}

func (s *IndexScanExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if s.done {
		return nil, page.RID{}, false, nil
	}
	s.done = true

	rid, found := s.indexInfo.Table.GetValue(hash.Key(s.probeKey.AsInt64()))
	if !found {
		return nil, page.RID{}, false, nil
	}

	tu, visible, err := visibleTuple(s.tableInfo.Heap, s.ctx.TxnMgr, s.ctx.Txn, s.tableInfo.Schema, rid)
	if err != nil {
		return nil, page.RID{}, false, err
	}
	if !visible {
		return nil, page.RID{}, false, nil
	}
	return tu, rid, true, nil
}
