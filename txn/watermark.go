// Package txn implements the MVCC transaction manager: watermark
// tracking, undo-log version chains, and the begin/commit/abort/GC
// lifecycle. Grounded on original_source/src/concurrency/{watermark,
// transaction_manager}.cpp.
package txn

import (
	"fmt"
	"sync"

	"github.com/google/btree"
)

// tsItem adapts a timestamp into a btree.Item for Watermark's ordered
// multiset of distinct active read timestamps.
type tsItem uint64

func (a tsItem) Less(than btree.Item) bool { return a < than.(tsItem) }

// Watermark is a multiset of active read timestamps keyed by value,
// with the minimum element (the oldest snapshot any reader still
// depends on) always available in O(1). Grounded on
// watermark.cpp's current_reads_/current_reads_set_ pair — the
// std::map<timestamp_t,int> counting multiplicity and the
// std::set<timestamp_t> of distinct values both appear here as a
// plain Go map plus a btree.BTree, since google/btree gives the same
// ordered-min-in-log-n property std::set's begin() relies on.
type Watermark struct {
	mu        sync.Mutex
	counts    map[uint64]int
	distinct  *btree.BTree
	commitTs  uint64
	watermark uint64
}

// NoWatermark is the sentinel returned by Get() when no
// transaction is currently registered (no live reader: +infinity).
const NoWatermark = ^uint64(0)

func NewWatermark(commitTs uint64) *Watermark {
	return &Watermark{
		counts:    make(map[uint64]int),
		distinct:  btree.New(32),
		commitTs:  commitTs,
		watermark: NoWatermark,
	}
}

// AddTxn registers readTs as an active snapshot. Fails if readTs is
// older than the latest commit timestamp recorded (at construction or
// by UpdateCommitTs) — reads must never precede all commits (T1 in the
// data model).
func (w *Watermark) AddTxn(readTs uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if readTs < w.commitTs {
		return fmt.Errorf("txn: read ts %d < commit ts %d", readTs, w.commitTs)
	}
	w.counts[readTs]++
	if w.counts[readTs] == 1 {
		w.distinct.ReplaceOrInsert(tsItem(readTs))
	}
	w.refreshMin()
	return nil
}

// RemoveTxn deregisters readTs, e.g. on commit or abort.
func (w *Watermark) RemoveTxn(readTs uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.counts[readTs]--
	if w.counts[readTs] <= 0 {
		delete(w.counts, readTs)
		w.distinct.Delete(tsItem(readTs))
	}
	w.refreshMin()
}

// UpdateCommitTs records the latest commit timestamp, used only to
// validate future AddTxn calls against T1.
func (w *Watermark) UpdateCommitTs(ts uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commitTs = ts
}

func (w *Watermark) refreshMin() {
	if min := w.distinct.Min(); min != nil {
		w.watermark = uint64(min.(tsItem))
	} else {
		w.watermark = NoWatermark
	}
}

// Get returns the oldest active read timestamp, or NoWatermark
// if no transaction is currently registered.
func (w *Watermark) Get() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watermark
}
