package heap

import (
	"fmt"

	"coredb/logging"
	"coredb/storage/buffer"
	"coredb/storage/page"
	"coredb/storage/tuple"
)

// TableHeap is a singly linked list of heap pages holding a table's
// tuples, generalized from the teacher's per-table heap file into a
// buffer-pool-backed page chain (original_source's TableHeap/
// TablePage shape) so tuples carry MVCC metadata rather than being
// plain rows addressed by file+page+slot.
type TableHeap struct {
	pool      *buffer.Pool
	log       logging.Logger
	firstPage page.ID
	lastPage  page.ID
}

// NewTableHeap allocates the first page of a brand new table heap.
func NewTableHeap(pool *buffer.Pool, log logging.Logger) (*TableHeap, error) {
	guard, err := pool.NewPageGuarded()
	if err != nil {
		return nil, fmt.Errorf("table heap: allocate first page: %w", err)
	}
	hp := newHeapPage(guard.Data())
	hp.init()
	id := guard.PageID()
	guard.SetDirty(true)
	guard.Drop()

	return &TableHeap{pool: pool, log: log, firstPage: id, lastPage: id}, nil
}

// OpenTableHeap wraps an existing page chain, e.g. after reopening a
// catalog that already recorded firstPage/lastPage.
func OpenTableHeap(pool *buffer.Pool, log logging.Logger, firstPage, lastPage page.ID) *TableHeap {
	return &TableHeap{pool: pool, log: log, firstPage: firstPage, lastPage: lastPage}
}

func (h *TableHeap) FirstPageID() page.ID { return h.firstPage }
func (h *TableHeap) LastPageID() page.ID  { return h.lastPage }

// InsertTuple appends tuple under meta, allocating a new tail page if
// the current tail has no room. Returns the tuple's new RID.
func (h *TableHeap) InsertTuple(meta TupleMeta, tu *tuple.Tuple) (page.RID, error) {
	data := tu.Serialize()

	guard, err := h.pool.FetchPageWrite(h.lastPage)
	if err != nil {
		return page.RID{}, fmt.Errorf("table heap: fetch tail page: %w", err)
	}
	hp := newHeapPage(guard.Data())
	if slot, ok := hp.insertRecord(meta, data); ok {
		guard.SetDirty()
		guard.Drop()
		h.log.Debugw("table heap: inserted tuple", "page_id", h.lastPage, "slot", slot)
		return page.RID{PageID: h.lastPage, Slot: uint32(slot)}, nil
	}
	guard.Drop()

	// Tail page is full — allocate a new one and link it in.
	newGuard, err := h.pool.NewPageGuarded()
	if err != nil {
		return page.RID{}, fmt.Errorf("table heap: allocate new tail page: %w", err)
	}
	newID := newGuard.PageID()
	newPage := newHeapPage(newGuard.Data())
	newPage.init()
	slot, ok := newPage.insertRecord(meta, data)
	if !ok {
		newGuard.Drop()
		return page.RID{}, fmt.Errorf("table heap: tuple of %d bytes does not fit on an empty page", len(data))
	}
	newGuard.SetDirty(true)
	newGuard.Drop()

	oldTail, err := h.pool.FetchPageWrite(h.lastPage)
	if err != nil {
		return page.RID{}, fmt.Errorf("table heap: relink tail page: %w", err)
	}
	newHeapPage(oldTail.Data()).setNextPageID(newID)
	oldTail.SetDirty()
	oldTail.Drop()

	h.lastPage = newID
	h.log.Debugw("table heap: extended with new page", "page_id", newID)
	return page.RID{PageID: newID, Slot: uint32(slot)}, nil
}

// GetTupleMeta returns rid's version header without deserializing its
// tuple payload.
func (h *TableHeap) GetTupleMeta(rid page.RID) (TupleMeta, error) {
	guard, err := h.pool.FetchPageRead(rid.PageID)
	if err != nil {
		return TupleMeta{}, fmt.Errorf("table heap: fetch page %d: %w", rid.PageID, err)
	}
	defer guard.Drop()
	meta, _, err := newHeapPage(guard.Data()).readRecord(uint16(rid.Slot))
	return meta, err
}

// GetTuple returns rid's version header and deserialized tuple.
func (h *TableHeap) GetTuple(rid page.RID, schema *tuple.Schema) (TupleMeta, *tuple.Tuple, error) {
	guard, err := h.pool.FetchPageRead(rid.PageID)
	if err != nil {
		return TupleMeta{}, nil, fmt.Errorf("table heap: fetch page %d: %w", rid.PageID, err)
	}
	defer guard.Drop()

	meta, data, err := newHeapPage(guard.Data()).readRecord(uint16(rid.Slot))
	if err != nil {
		return TupleMeta{}, nil, err
	}
	tu, err := tuple.Deserialize(data, schema)
	if err != nil {
		return TupleMeta{}, nil, fmt.Errorf("table heap: deserialize rid %v: %w", rid, err)
	}
	return meta, tu, nil
}

// UpdateTupleMeta rewrites rid's version header in place.
func (h *TableHeap) UpdateTupleMeta(rid page.RID, meta TupleMeta) error {
	guard, err := h.pool.FetchPageWrite(rid.PageID)
	if err != nil {
		return fmt.Errorf("table heap: fetch page %d: %w", rid.PageID, err)
	}
	defer guard.Drop()
	if err := newHeapPage(guard.Data()).updateMetaInPlace(uint16(rid.Slot), meta); err != nil {
		return err
	}
	guard.SetDirty()
	return nil
}

// UpdateTupleInPlace overwrites rid's record with a new meta and
// tuple, as long as the serialized result fits within the slot's
// current record length. Returns false if it doesn't (the caller must
// fall back to deleting and reinserting).
func (h *TableHeap) UpdateTupleInPlace(rid page.RID, meta TupleMeta, tu *tuple.Tuple) (bool, error) {
	guard, err := h.pool.FetchPageWrite(rid.PageID)
	if err != nil {
		return false, fmt.Errorf("table heap: fetch page %d: %w", rid.PageID, err)
	}
	defer guard.Drop()

	ok, err := newHeapPage(guard.Data()).updateRecordInPlace(uint16(rid.Slot), meta, tu.Serialize())
	if err != nil {
		return false, err
	}
	if ok {
		guard.SetDirty()
	}
	return ok, nil
}

// Iterator walks every slot of every page in the heap, in RID order,
// skipping tombstoned slots.
type Iterator struct {
	heap    *TableHeap
	schema  *tuple.Schema
	pageID  page.ID
	slot    uint16
	slotMax uint16
}

// MakeIterator returns an Iterator positioned before the first tuple.
func (h *TableHeap) MakeIterator(schema *tuple.Schema) *Iterator {
	return &Iterator{heap: h, schema: schema, pageID: h.firstPage, slot: 0, slotMax: 0}
}

// Next advances the iterator and returns the next live tuple, or
// ok=false once the heap is exhausted.
func (it *Iterator) Next() (rid page.RID, meta TupleMeta, tu *tuple.Tuple, ok bool, err error) {
	for it.pageID != page.InvalidID {
		guard, gerr := it.heap.pool.FetchPageRead(it.pageID)
		if gerr != nil {
			return page.RID{}, TupleMeta{}, nil, false, fmt.Errorf("table heap: fetch page %d: %w", it.pageID, gerr)
		}
		hp := newHeapPage(guard.Data())
		count := hp.slotCount()

		for it.slot < count {
			slot := it.slot
			it.slot++
			m, data, rerr := hp.readRecord(slot)
			if rerr != nil {
				continue // tombstone
			}
			t, derr := tuple.Deserialize(data, it.schema)
			guard.Drop()
			if derr != nil {
				return page.RID{}, TupleMeta{}, nil, false, fmt.Errorf("table heap: deserialize: %w", derr)
			}
			return page.RID{PageID: it.pageID, Slot: uint32(slot)}, m, t, true, nil
		}

		next := hp.nextPageID()
		guard.Drop()
		it.pageID = next
		it.slot = 0
	}
	return page.RID{}, TupleMeta{}, nil, false, nil
}
