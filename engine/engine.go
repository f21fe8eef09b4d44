// Package engine wires the four cores (disk scheduler, buffer pool,
// catalog, transaction manager) into one running instance, the way
// the teacher's own storage_engine package wires its disk manager,
// buffer pool, and catalog together in one place for main to start.
// cmd/coredb is the only caller; it exists as its own package so the
// wiring is one thing to construct and Close, not a main() that also
// has to know cobra.
package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"coredb/config"
	"coredb/logging"
	"coredb/storage/buffer"
	"coredb/storage/catalog"
	"coredb/storage/disk"
	"coredb/txn"
)

// Engine is a fully wired coredb instance: everything a cobra
// subcommand needs to drive executors or report operational stats.
type Engine struct {
	Cfg *config.Config
	Log logging.Logger

	Disk   *disk.Manager
	Sched  *disk.Scheduler
	Pool   *buffer.Pool
	Cat    *catalog.Catalog
	TxnMgr *txn.Manager

	stopGC chan struct{}
	gcDone chan struct{}
}

// Open builds an Engine against cfg's data directory, using the real
// filesystem. Scheduler queue depth and fetch-group sizing are fixed;
// only the knobs config.Config exposes are meant to vary per
// deployment.
func Open(cfg *config.Config, log logging.Logger) (*Engine, error) {
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create data dir %s: %w", cfg.DataDir, err)
	}

	dataFile := filepath.Join(cfg.DataDir, "coredb.db")
	diskMgr, err := disk.New(fs, dataFile, log)
	if err != nil {
		return nil, fmt.Errorf("engine: open disk manager: %w", err)
	}

	sched := disk.NewScheduler(diskMgr, 64, log)
	pool := buffer.New(sched, cfg.BufferPoolSize, cfg.ReplacerK, log)
	cat := catalog.New(pool, log)

	txnMgr, err := txn.New(cat, cfg.GCWorkers, log)
	if err != nil {
		_ = sched.Close()
		return nil, fmt.Errorf("engine: start transaction manager: %w", err)
	}

	e := &Engine{
		Cfg:    cfg,
		Log:    log,
		Disk:   diskMgr,
		Sched:  sched,
		Pool:   pool,
		Cat:    cat,
		TxnMgr: txnMgr,
		stopGC: make(chan struct{}),
		gcDone: make(chan struct{}),
	}
	e.startGCLoop()
	return e, nil
}

// startGCLoop runs GarbageCollection on a fixed interval until Close
// stops it, the way a background vacuum would in a long-running
// server — cmd/coredb's "gc" subcommand forces one pass on demand on
// top of this, for operators who don't want to wait for the tick.
func (e *Engine) startGCLoop() {
	if e.Cfg.GCIntervalMS <= 0 {
		close(e.gcDone)
		return
	}
	go func() {
		defer close(e.gcDone)
		ticker := time.NewTicker(time.Duration(e.Cfg.GCIntervalMS) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-e.stopGC:
				return
			case <-ticker.C:
				e.TxnMgr.GarbageCollection()
			}
		}
	}()
}

// Close shuts the instance down, flushing every resident page before
// the disk scheduler stops taking requests.
func (e *Engine) Close() error {
	close(e.stopGC)
	<-e.gcDone

	e.TxnMgr.Close()
	if err := e.Pool.FlushAllPages(); err != nil {
		e.Log.Warnw("engine: flush on close failed", "error", err)
	}
	return e.Sched.Close()
}
