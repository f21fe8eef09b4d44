package txn

import (
	"sync"

	"coredb/storage/catalog"
	"coredb/storage/page"
)

type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	SnapshotIsolation
	Serializable
)

type State int

const (
	Running State = iota
	Tainted
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Tainted:
		return "TAINTED"
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Transaction is one client's in-flight work: its snapshot (ReadTs),
// its eventual CommitTs, its append-only undo log, and the RIDs it
// has written per table (WriteSet), used by Commit to stamp commit
// timestamps and by GC to know nothing else needs to.
type Transaction struct {
	mu sync.Mutex

	ID        uint64
	Isolation IsolationLevel
	ReadTs    uint64
	CommitTs  uint64
	State     State

	UndoLogs  []UndoLog
	WriteSet  map[catalog.OID]map[page.RID]struct{}
}

func newTransaction(id uint64, isolation IsolationLevel, readTs uint64) *Transaction {
	return &Transaction{
		ID:        id,
		Isolation: isolation,
		ReadTs:    readTs,
		State:     Running,
		WriteSet:  make(map[catalog.OID]map[page.RID]struct{}),
	}
}

// AppendUndoLog appends log to this transaction's undo chain and
// returns an UndoLink addressing it.
func (t *Transaction) AppendUndoLog(log UndoLog) UndoLink {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := len(t.UndoLogs)
	t.UndoLogs = append(t.UndoLogs, log)
	return UndoLink{PrevTxnID: t.ID, PrevLogIdx: idx}
}

// GetUndoLog returns the undo log at idx, appended earlier by this
// same transaction.
func (t *Transaction) GetUndoLog(idx int) UndoLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.UndoLogs[idx]
}

// ModifyUndoLog replaces the undo log at idx in place, used when a
// self-modification amends its own most recent log instead of
// appending a new one.
func (t *Transaction) ModifyUndoLog(idx int, log UndoLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.UndoLogs[idx] = log
}

// RecordWrite adds rid to this transaction's write set for table,
// used by Commit to know which tuples to stamp.
func (t *Transaction) RecordWrite(table catalog.OID, rid page.RID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.WriteSet[table]
	if !ok {
		set = make(map[page.RID]struct{})
		t.WriteSet[table] = set
	}
	set[rid] = struct{}{}
}

func (t *Transaction) getState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.State
}

// Taint marks the transaction TAINTED after a write-write conflict.
// The caller must still Abort it — Commit refuses any non-RUNNING
// transaction, TAINTED included.
func (t *Transaction) Taint() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.State == Running {
		t.State = Tainted
	}
}

func (t *Transaction) setState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.State = s
}
