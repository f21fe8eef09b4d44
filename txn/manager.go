package txn

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/panjf2000/ants"

	"coredb/logging"
	"coredb/storage/catalog"
	"coredb/storage/heap"
	"coredb/storage/page"
	"coredb/storage/tuple"
)

// reconstructKey identifies one cached tuple reconstruction: the RID
// plus the snapshot timestamp it was reconstructed for, since the
// same RID reconstructs differently depending on which reader's
// snapshot is asking.
type reconstructKey struct {
	rid    page.RID
	readTs uint64
}

// Manager is the transaction manager: transaction lifecycle, the
// version-link store, and garbage collection over every table's undo
// chains. Grounded on original_source/src/concurrency/
// transaction_manager.cpp's Begin/Commit/Abort/GarbageCollection.
type Manager struct {
	cat *catalog.Catalog
	log logging.Logger

	mapMu  sync.RWMutex
	txns   map[uint64]*Transaction
	nextID uint64

	commitMu     sync.Mutex
	lastCommitTs uint64

	watermark *Watermark

	versionMu sync.Mutex
	versions  map[page.RID]VersionLink

	gcPool *ants.Pool
	cache  *ristretto.Cache[reconstructKey, *tuple.Tuple]
}

// New builds a Manager. gcWorkers bounds how many tables GC sweeps
// concurrently (ants.Pool), per the DOMAIN STACK's "bounded worker
// pool so GC cannot starve foreground txns."
func New(cat *catalog.Catalog, gcWorkers int, log logging.Logger) (*Manager, error) {
	pool, err := ants.NewPool(gcWorkers)
	if err != nil {
		return nil, fmt.Errorf("txn: create GC worker pool: %w", err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[reconstructKey, *tuple.Tuple]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		pool.Release()
		return nil, fmt.Errorf("txn: create reconstruction cache: %w", err)
	}

	return &Manager{
		cat:       cat,
		log:       log,
		txns:      make(map[uint64]*Transaction),
		nextID:    1,
		watermark: NewWatermark(0),
		versions:  make(map[page.RID]VersionLink),
		gcPool:    pool,
		cache:     cache,
	}, nil
}

func (m *Manager) Close() {
	m.gcPool.Release()
	m.cache.Close()
}

// Begin allocates a new transaction id (TxnStartID OR'd in, so tuple
// metas can tell an in-flight writer's id apart from a commit
// timestamp), snapshots read_ts, and registers it with the watermark.
func (m *Manager) Begin(isolation IsolationLevel) (*Transaction, error) {
	m.mapMu.Lock()
	id := TxnStartID | m.nextID
	m.nextID++

	m.commitMu.Lock()
	readTs := m.lastCommitTs
	m.commitMu.Unlock()

	t := newTransaction(id, isolation, readTs)
	m.txns[id] = t
	m.mapMu.Unlock()

	if err := m.watermark.AddTxn(readTs); err != nil {
		return nil, fmt.Errorf("txn: begin: %w", err)
	}
	m.log.Debugw("txn: began", "txn_id", id, "read_ts", readTs, "isolation", isolation)
	return t, nil
}

// GetTxn looks up a transaction by id for callers (executors) that
// only carry the id across a boundary.
func (m *Manager) GetTxn(id uint64) (*Transaction, bool) {
	m.mapMu.RLock()
	defer m.mapMu.RUnlock()
	t, ok := m.txns[id]
	return t, ok
}

func (m *Manager) GetWatermark() uint64 { return m.watermark.Get() }

// ActiveTxnCount returns the number of transactions currently in the
// Running state, for operational reporting (cmd/coredb's stats
// subcommand).
func (m *Manager) ActiveTxnCount() int {
	m.mapMu.RLock()
	defer m.mapMu.RUnlock()
	n := 0
	for _, t := range m.txns {
		if t.getState() == Running {
			n++
		}
	}
	return n
}

// GetVersionLink returns rid's version link, if any writer has ever
// touched it.
func (m *Manager) GetVersionLink(rid page.RID) (VersionLink, bool) {
	m.versionMu.Lock()
	defer m.versionMu.Unlock()
	v, ok := m.versions[rid]
	return v, ok
}

// UpdateVersionLink compares the current version link for rid against
// predicate (if non-nil) and, if predicate accepts it (or there is no
// predicate), replaces it with newLink. Returns false if predicate
// rejected the current value — the caller's compare-and-set failed
// and it must retry or signal a write-write conflict. This is the
// exclusive locking primitive for tuple writes the spec calls for.
func (m *Manager) UpdateVersionLink(rid page.RID, newLink VersionLink, predicate func(VersionLink, bool) bool) bool {
	m.versionMu.Lock()
	defer m.versionMu.Unlock()
	cur, ok := m.versions[rid]
	if predicate != nil && !predicate(cur, ok) {
		return false
	}
	m.versions[rid] = newLink
	return true
}

// GetUndoLog resolves an UndoLink to the UndoLog it addresses.
func (m *Manager) GetUndoLog(link UndoLink) (UndoLog, bool) {
	if !link.IsValid() {
		return UndoLog{}, false
	}
	t, ok := m.GetTxn(link.PrevTxnID)
	if !ok {
		return UndoLog{}, false
	}
	return t.GetUndoLog(link.PrevLogIdx), true
}

// CacheReconstructedTuple memoizes tu as the reconstruction for
// (rid, readTs), so a second scan over the same snapshot skips
// re-walking a long undo chain.
func (m *Manager) CacheReconstructedTuple(rid page.RID, readTs uint64, tu *tuple.Tuple) {
	m.cache.Set(reconstructKey{rid: rid, readTs: readTs}, tu, 1)
}

// CachedReconstructedTuple returns a previously cached reconstruction,
// if present.
func (m *Manager) CachedReconstructedTuple(rid page.RID, readTs uint64) (*tuple.Tuple, bool) {
	return m.cache.Get(reconstructKey{rid: rid, readTs: readTs})
}

// Commit validates and finalizes txn: for SERIALIZABLE, runs the
// (currently trivial) verification predicate; stamps every written
// RID's tuple meta with the new commit timestamp, preserving its
// deleted flag; clears each write's in-progress flag; advances
// last_commit_ts under the commit lock (T2).
func (m *Manager) Commit(txn *Transaction) error {
	if st := txn.getState(); st != Running {
		if st == Tainted {
			return fmt.Errorf("txn: commit: txn %d: %w", txn.ID, ErrTxnTainted)
		}
		return fmt.Errorf("txn: commit: txn %d not running: %w", txn.ID, ErrInvalidState)
	}

	if txn.Isolation == Serializable && !m.verify(txn) {
		_ = m.Abort(txn)
		return fmt.Errorf("txn: commit: serializable verification failed for txn %d: %w", txn.ID, ErrWriteConflict)
	}

	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	commitTs := m.lastCommitTs + 1

	for tableOID, rids := range txn.WriteSet {
		info, ok := m.cat.GetTable(tableOID)
		if !ok {
			continue
		}
		for rid := range rids {
			meta, err := info.Heap.GetTupleMeta(rid)
			if err != nil {
				return fmt.Errorf("txn: commit: get tuple meta %v: %w", rid, err)
			}
			if err := info.Heap.UpdateTupleMeta(rid, heap.TupleMeta{Ts: commitTs, Deleted: meta.Deleted}); err != nil {
				return fmt.Errorf("txn: commit: update tuple meta %v: %w", rid, err)
			}
			if link, ok := m.GetVersionLink(rid); ok {
				link.InProgress = false
				m.UpdateVersionLink(rid, link, nil)
			}
		}
	}

	txn.CommitTs = commitTs
	txn.setState(Committed)
	m.watermark.UpdateCommitTs(commitTs)
	m.watermark.RemoveTxn(txn.ReadTs)
	m.lastCommitTs = commitTs

	m.log.Debugw("txn: committed", "txn_id", txn.ID, "commit_ts", commitTs)
	return nil
}

// verify is the SERIALIZABLE commit-time predicate. This core carries
// no conflict-graph/SSI tracking (no component needs it outside the
// SERIALIZABLE path), so it is the original's own trivial VerifyTxn:
// always succeeds, leaving SERIALIZABLE equivalent to snapshot
// isolation here.
func (m *Manager) verify(*Transaction) bool { return true }

// Abort marks txn ABORTED and deregisters it from the watermark. Per
// the spec, table-heap mutations are not rolled back; readers skip an
// ABORTED writer's uncommitted versions via the same visibility check
// used for any in-flight writer, and GC eventually reclaims them.
func (m *Manager) Abort(txn *Transaction) error {
	st := txn.getState()
	if st != Running && st != Tainted {
		return fmt.Errorf("txn: abort: txn %d not running or tainted: %w", txn.ID, ErrInvalidState)
	}

	txn.setState(Aborted)
	m.watermark.RemoveTxn(txn.ReadTs)
	m.log.Debugw("txn: aborted", "txn_id", txn.ID)
	return nil
}

// GarbageCollection walks every table's undo chains, marking which
// transactions still hold a log visible to some reader, then deletes
// every COMMITTED or ABORTED transaction not so marked. The walk
// keeps every log above the watermark plus exactly one anchor log at
// or below it (the first one encountered, newest-first) — see
// DESIGN.md's Open Question note on why the anchor log must survive.
// Each table is swept on the bounded GC worker pool so a pathological
// table cannot starve the others.
func (m *Manager) GarbageCollection() {
	watermark := m.GetWatermark()
	tables := m.cat.Tables()

	var mu sync.Mutex
	shouldKeep := make(map[uint64]bool)
	var wg sync.WaitGroup

	for _, info := range tables {
		info := info
		wg.Add(1)
		_ = m.gcPool.Submit(func() {
			defer wg.Done()
			keep := m.sweepTable(info, watermark)
			mu.Lock()
			for id := range keep {
				shouldKeep[id] = true
			}
			mu.Unlock()
		})
	}
	wg.Wait()

	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	for id, t := range m.txns {
		if shouldKeep[id] {
			continue
		}
		st := t.getState()
		if st == Committed || st == Aborted {
			delete(m.txns, id)
		}
	}
	m.log.Debugw("txn: garbage collection ran", "watermark", watermark, "retained_live", len(shouldKeep))
}

// sweepTable walks every tuple in info's heap and returns the set of
// transaction ids whose undo logs remain visible to some reader.
func (m *Manager) sweepTable(info *catalog.TableInfo, watermark uint64) map[uint64]bool {
	keep := make(map[uint64]bool)
	it := info.Heap.MakeIterator(info.Schema)
	for {
		rid, meta, _, ok, err := it.Next()
		if err != nil || !ok {
			break
		}
		if meta.Ts <= watermark {
			continue
		}
		link, ok := m.GetVersionLink(rid)
		if !ok {
			continue
		}
		undoLink := link.Prev
		anchored := false
		for undoLink.IsValid() {
			if _, exists := m.GetTxn(undoLink.PrevTxnID); !exists {
				break
			}
			log, _ := m.GetUndoLog(undoLink)
			if log.Ts <= watermark && anchored {
				break
			}
			keep[undoLink.PrevTxnID] = true
			if log.Ts <= watermark {
				anchored = true
			}
			undoLink = log.PrevVersion
		}
	}
	return keep
}
