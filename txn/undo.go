package txn

import (
	"coredb/storage/tuple"
)

// TxnStartID marks a tuple-meta timestamp as the id of an in-flight
// writer rather than a commit timestamp, per the spec's overloaded
// timestamp field: the high bit distinguishes "transaction id" from
// "commit timestamp" without a separate tag.
const TxnStartID = uint64(1) << 62

// IsTxnID reports whether ts is a transaction id (an in-flight
// writer) rather than a commit timestamp.
func IsTxnID(ts uint64) bool { return ts&TxnStartID != 0 }

// UndoLink addresses one undo log: the transaction that owns it and
// its index within that transaction's append-only log slice. An
// invalid link (PrevTxnID == 0) marks the end of a version chain.
type UndoLink struct {
	PrevTxnID  uint64
	PrevLogIdx int
}

func (l UndoLink) IsValid() bool { return l.PrevTxnID != 0 }

// UndoLog is one prior version of a tuple: which fields changed, the
// pre-image of exactly those fields (against a schema restricted to
// them via Schema.CopySchema), the transaction timestamp that
// produced the version this log undoes, and a link to the next-older
// log in the chain.
type UndoLog struct {
	IsDeleted      bool
	Ts             uint64
	ModifiedFields []bool
	PartialTuple   *tuple.Tuple
	PrevVersion    UndoLink
}

// VersionLink is the per-RID write lock and undo-chain head: InProgress
// is true while a writer holds the tuple (V2 in the data model), Prev
// addresses the most recent undo log for readers that must look
// further back than the current base tuple.
type VersionLink struct {
	Prev       UndoLink
	InProgress bool
}
