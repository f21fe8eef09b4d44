package buffer

import "sync"

// node is one frame's entry in either the history or buffer list: a
// doubly-linked list node plus its access count and evictable flag.
// Grounded directly on bustub's LRUKNode.
type node struct {
	next, prev *node
	frameID    int
	accesses   int
	evictable  bool
}

// Replacer implements the LRU-K eviction policy: a frame with fewer
// than K recorded accesses has an effectively infinite backward
// k-distance and lives on the history list; once it reaches K accesses
// it moves to the buffer list. Within either list, the most recently
// touched frame sits at the head and eviction walks from the tail,
// skipping non-evictable frames — this is the simplification the
// reference solution ships (true backward-k-distance ordering inside
// the buffer list collapses to plain LRU once every member has ≥K
// accesses and is only re-sorted by touching the head), not a
// from-scratch policy.
type Replacer struct {
	mu sync.Mutex

	k    int
	size int // replacer_size_: max number of frames ever tracked

	historyHead, historyTail *node
	bufferHead, bufferTail   *node

	historyByFrame map[int]*node
	bufferByFrame  map[int]*node

	historySize   int
	bufferSize    int
	evictableSize int
}

// NewReplacer builds a replacer tracking up to numFrames distinct
// frame ids, evicting to the buffer list once a frame has been
// accessed k times.
func NewReplacer(numFrames, k int) *Replacer {
	r := &Replacer{
		k:              k,
		size:           numFrames,
		historyByFrame: make(map[int]*node),
		bufferByFrame:  make(map[int]*node),
	}
	r.historyHead, r.historyTail = newSentinelPair()
	r.bufferHead, r.bufferTail = newSentinelPair()
	return r
}

func newSentinelPair() (*node, *node) {
	head, tail := &node{}, &node{}
	head.next = tail
	tail.prev = head
	return head, tail
}

func removeFromList(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func insertAtHead(head *node, n *node) {
	n.next = head.next
	n.prev = head
	head.next.prev = n
	head.next = n
}

// RecordAccess notes that frame_id was just touched. A never-seen
// frame starts in the history list with one access; the K'th access
// promotes it into the buffer list; subsequent buffer-list accesses
// just move it to the head.
func (r *Replacer) RecordAccess(frameID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if frameID < 0 || frameID >= r.size {
		panic("buffer: invalid frame id")
	}

	if n, ok := r.historyByFrame[frameID]; ok {
		n.accesses++
		if n.accesses >= r.k {
			removeFromList(n)
			if n.evictable {
				r.historySize--
			}
			delete(r.historyByFrame, frameID)

			insertAtHead(r.bufferHead, n)
			r.bufferByFrame[frameID] = n
			if n.evictable {
				r.bufferSize++
			}
		}
		return
	}

	if n, ok := r.bufferByFrame[frameID]; ok {
		removeFromList(n)
		insertAtHead(r.bufferHead, n)
		return
	}

	n := &node{frameID: frameID, accesses: 1}
	insertAtHead(r.historyHead, n)
	r.historyByFrame[frameID] = n
}

// SetEvictable toggles whether frameID is a candidate for Evict,
// adjusting the replacer's size accordingly. A no-op for unknown
// frames.
func (r *Replacer) SetEvictable(frameID int, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if frameID < 0 || frameID >= r.size {
		panic("buffer: invalid frame id")
	}

	if n, ok := r.historyByFrame[frameID]; ok {
		r.toggle(n, evictable, &r.historySize)
		return
	}
	if n, ok := r.bufferByFrame[frameID]; ok {
		r.toggle(n, evictable, &r.bufferSize)
		return
	}
}

func (r *Replacer) toggle(n *node, evictable bool, listSize *int) {
	if n.evictable == evictable {
		return
	}
	if n.evictable {
		*listSize--
		r.evictableSize--
	}
	n.evictable = evictable
	if n.evictable {
		*listSize++
		r.evictableSize++
	}
}

// Evict picks the frame with the largest backward k-distance among
// evictable frames — preferring the history list (infinite distance)
// over the buffer list, and within each list the tail (least
// recently touched) — removes its access history, and returns it.
func (r *Replacer) Evict() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.evictableSize == 0 {
		return 0, false
	}
	r.evictableSize--

	var n *node
	if r.historySize != 0 {
		n = r.deleteEvictableFromTail(r.historyTail, r.historyByFrame)
		r.historySize--
	} else {
		n = r.deleteEvictableFromTail(r.bufferTail, r.bufferByFrame)
		r.bufferSize--
	}
	return n.frameID, true
}

func (r *Replacer) deleteEvictableFromTail(tail *node, byFrame map[int]*node) *node {
	n := tail.prev
	for !n.evictable {
		n = n.prev
	}
	removeFromList(n)
	delete(byFrame, n.frameID)
	return n
}

// Remove evicts frameID regardless of its backward k-distance,
// discarding its access history. Panics if frameID is tracked but not
// evictable, matching the reference implementation's invalid-argument
// behavior; a frame that isn't tracked at all is silently ignored.
func (r *Replacer) Remove(frameID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.historyByFrame[frameID]; ok {
		if !n.evictable {
			panic("buffer: Remove called on non-evictable frame")
		}
		r.evictableSize--
		r.historySize--
		removeFromList(n)
		delete(r.historyByFrame, frameID)
		return
	}
	if n, ok := r.bufferByFrame[frameID]; ok {
		if !n.evictable {
			panic("buffer: Remove called on non-evictable frame")
		}
		r.evictableSize--
		r.bufferSize--
		removeFromList(n)
		delete(r.bufferByFrame, frameID)
		return
	}
}

// Size reports the number of currently evictable frames.
func (r *Replacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictableSize
}
