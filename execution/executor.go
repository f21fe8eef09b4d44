// Package execution implements the pull-based operator tree: every
// node exposes Init/Next against an output schema, composed from leaf
// scans up through joins, aggregation, sort, and the MVCC write paths.
// Grounded on original_source/src/execution/*.cpp's AbstractExecutor
// family, expressed as one Executor interface over concrete structs
// rather than a virtual base class.
package execution

import (
	"coredb/storage/catalog"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/txn"
)

// Executor is one pull-based operator. Next returns ok=false once
// exhausted; rid is meaningful only for operators reading directly off
// a table heap (scans) — synthesized rows from joins/aggregation/sort
// return the zero RID.
type Executor interface {
	Init() error
	Next() (tu *tuple.Tuple, rid page.RID, ok bool, err error)
	OutputSchema() *tuple.Schema
}

// Context is the per-statement environment every executor is built
// against: the catalog (table/index lookup), the transaction manager
// (visibility, version links, write protocol), and the transaction the
// statement is running under.
type Context struct {
	Catalog *catalog.Catalog
	TxnMgr  *txn.Manager
	Txn     *txn.Transaction
}
