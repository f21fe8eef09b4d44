package disk

import (
	"fmt"

	"github.com/google/uuid"

	"coredb/logging"
	"coredb/storage/page"
)

// Request is one unit of disk I/O: either a read into Buf or a write of
// Buf's contents, for PageID, with Done signaling completion. Grounded
// on bustub's DiskRequest; Buf is a pointer so the scheduler and its
// caller share the same backing array instead of copying a page.
// CorrelationID tags the scheduler's completion log line for this
// request; ReadPage and WritePage mint a fresh one per call.
type Request struct {
	IsWrite       bool
	PageID        page.ID
	Buf           *[page.Size]byte
	Done          chan error
	CorrelationID uuid.UUID
}

// Scheduler serializes every page read/write issued against a single
// Manager onto one background worker, mirroring bustub's DiskScheduler
// and its single-worker DiskScheduler::StartWorkerThread. Callers never
// touch the Manager directly once a Scheduler owns it.
type Scheduler struct {
	mgr   *Manager
	queue chan *Request
	done  chan struct{}
	log   logging.Logger
}

// NewScheduler starts the background worker and returns a Scheduler
// bound to mgr. queueDepth bounds how many outstanding requests may be
// buffered before Schedule blocks; bustub's queue is unbounded, but an
// unbounded Go channel would need a second goroutine to grow, so a
// generous buffer stands in for it.
func NewScheduler(mgr *Manager, queueDepth int, log logging.Logger) *Scheduler {
	s := &Scheduler{
		mgr:   mgr,
		queue: make(chan *Request, queueDepth),
		done:  make(chan struct{}),
		log:   log,
	}
	go s.workerLoop()
	return s
}

// Schedule enqueues req for the background worker and returns
// immediately; the caller waits on req.Done for completion.
func (s *Scheduler) Schedule(req *Request) {
	s.queue <- req
}

// workerLoop drains the queue one request at a time, in submission
// order, until Close sends the sentinel nil that bustub's scheduler
// uses to unblock its worker thread.
func (s *Scheduler) workerLoop() {
	for req := range s.queue {
		if req == nil {
			close(s.done)
			return
		}
		s.run(req)
	}
}

func (s *Scheduler) run(req *Request) {
	var err error
	if req.IsWrite {
		err = s.mgr.WritePage(req.PageID, req.Buf)
		s.log.Debugw("disk scheduler: write completed", "page_id", req.PageID, "correlation_id", req.CorrelationID, "error", err)
	} else {
		err = s.mgr.ReadPage(req.PageID, req.Buf)
		s.log.Debugw("disk scheduler: read completed", "page_id", req.PageID, "correlation_id", req.CorrelationID, "error", err)
	}
	if req.Done != nil {
		req.Done <- err
	}
}

// ReadPage issues a synchronous read through the scheduler, blocking
// until the worker services it.
func (s *Scheduler) ReadPage(id page.ID, buf *[page.Size]byte) error {
	done := make(chan error, 1)
	s.Schedule(&Request{IsWrite: false, PageID: id, Buf: buf, Done: done, CorrelationID: uuid.New()})
	return <-done
}

// WritePage issues a synchronous write through the scheduler.
func (s *Scheduler) WritePage(id page.ID, buf *[page.Size]byte) error {
	done := make(chan error, 1)
	s.Schedule(&Request{IsWrite: true, PageID: id, Buf: buf, Done: done, CorrelationID: uuid.New()})
	return <-done
}

// AllocatePage delegates straight to the manager: allocation only
// reserves an id, it issues no I/O, so there is nothing to serialize.
func (s *Scheduler) AllocatePage() page.ID {
	return s.mgr.AllocatePage()
}

// Close enqueues the teardown sentinel and waits for the worker to
// exit, then closes the underlying manager.
func (s *Scheduler) Close() error {
	s.queue <- nil
	<-s.done
	if err := s.mgr.Sync(); err != nil {
		return fmt.Errorf("disk scheduler: sync on close: %w", err)
	}
	return s.mgr.Close()
}
