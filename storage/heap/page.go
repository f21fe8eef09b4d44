// Package heap implements TableHeap: an append-mostly linked list of
// slotted pages holding MVCC-versioned tuples, over a buffer pool.
// Grounded on the teacher's storage_engine/access/heapfile_manager
// (heap_page.go's slotted-page layout), generalized to store a
// TupleMeta — {timestamp, deleted} — ahead of every tuple's bytes
// instead of a plain row, the way original_source's TableHeap/
// TablePage carry tuple versioning for snapshot isolation.
package heap

import (
	"encoding/binary"
	"fmt"

	"coredb/storage/page"
)

// Heap page binary layout (all values little-endian):
//
//	Offset  Size  Field
//	0       8     NextPageID int64  — -1 if this is the tail page
//	8       2     RecordEndPtr uint16 — first free byte after last record
//	10      2     SlotRegionStart uint16 — first byte of the slot directory
//	12      2     SlotCount uint16 — total slots (live + tombstoned)
//	14            heapHeaderSize
//
// Records grow forward from heapHeaderSize; the slot directory grows
// backward from page.Size. A slot is 4 bytes: [offset uint16][length
// uint16], length 0 marks a tombstoned slot whose RID must stay valid
// for anyone still holding it.
//
// Each record's bytes are [tupleMeta 9B][tuple payload]: 8-byte commit
// timestamp plus a 1-byte deleted flag, then whatever
// tuple.Tuple.Serialize produced.
const (
	heapOffNextPageID      = 0
	heapOffRecordEndPtr    = 8
	heapOffSlotRegionStart = 10
	heapOffSlotCount       = 12
	heapHeaderSize         = 14

	slotEntrySize = 4
	tupleMetaSize = 9
)

// TupleMeta is the MVCC version header stored immediately before every
// tuple's bytes: the timestamp of the transaction that produced this
// version, and whether it represents a delete.
type TupleMeta struct {
	Ts      uint64
	Deleted bool
}

type heapPage struct {
	buf *[page.Size]byte
}

func newHeapPage(buf *[page.Size]byte) heapPage {
	return heapPage{buf: buf}
}

func (p heapPage) init() {
	for i := range p.buf {
		p.buf[i] = 0
	}
	p.setNextPageID(page.InvalidID)
	p.setRecordEndPtr(heapHeaderSize)
	p.setSlotRegionStart(page.Size)
	p.setSlotCount(0)
}

func (p heapPage) nextPageID() page.ID {
	return page.ID(binary.LittleEndian.Uint64(p.buf[heapOffNextPageID : heapOffNextPageID+8]))
}

func (p heapPage) setNextPageID(id page.ID) {
	binary.LittleEndian.PutUint64(p.buf[heapOffNextPageID:heapOffNextPageID+8], uint64(id))
}

func (p heapPage) recordEndPtr() uint16 {
	return binary.LittleEndian.Uint16(p.buf[heapOffRecordEndPtr : heapOffRecordEndPtr+2])
}

func (p heapPage) setRecordEndPtr(v uint16) {
	binary.LittleEndian.PutUint16(p.buf[heapOffRecordEndPtr:heapOffRecordEndPtr+2], v)
}

func (p heapPage) slotRegionStart() uint16 {
	return binary.LittleEndian.Uint16(p.buf[heapOffSlotRegionStart : heapOffSlotRegionStart+2])
}

func (p heapPage) setSlotRegionStart(v uint16) {
	binary.LittleEndian.PutUint16(p.buf[heapOffSlotRegionStart:heapOffSlotRegionStart+2], v)
}

func (p heapPage) slotCount() uint16 {
	return binary.LittleEndian.Uint16(p.buf[heapOffSlotCount : heapOffSlotCount+2])
}

func (p heapPage) setSlotCount(v uint16) {
	binary.LittleEndian.PutUint16(p.buf[heapOffSlotCount:heapOffSlotCount+2], v)
}

func (p heapPage) slotOffset(i uint16) int {
	return page.Size - int(i+1)*slotEntrySize
}

func (p heapPage) readSlot(i uint16) (offset, length uint16) {
	off := p.slotOffset(i)
	return binary.LittleEndian.Uint16(p.buf[off : off+2]), binary.LittleEndian.Uint16(p.buf[off+2 : off+4])
}

func (p heapPage) writeSlot(i uint16, offset, length uint16) {
	off := p.slotOffset(i)
	binary.LittleEndian.PutUint16(p.buf[off:off+2], offset)
	binary.LittleEndian.PutUint16(p.buf[off+2:off+4], length)
}

// freeSpace returns the usable gap between the record region and the
// slot directory, not counting the slot entry a fresh insert would
// also need.
func (p heapPage) freeSpace() int {
	return int(p.slotRegionStart()) - int(p.recordEndPtr())
}

func encodeTupleMeta(m TupleMeta) []byte {
	buf := make([]byte, tupleMetaSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.Ts)
	if m.Deleted {
		buf[8] = 1
	}
	return buf
}

func decodeTupleMeta(buf []byte) TupleMeta {
	return TupleMeta{Ts: binary.LittleEndian.Uint64(buf[0:8]), Deleted: buf[8] != 0}
}

// insertRecord appends [meta][tupleData] to the page as a new slot,
// reusing a tombstoned slot index if one exists so existing RIDs
// referencing later slots stay valid. Returns false if there's no room.
func (p heapPage) insertRecord(meta TupleMeta, tupleData []byte) (slot uint16, ok bool) {
	record := append(encodeTupleMeta(meta), tupleData...)
	need := len(record)

	reuse := p.slotCount()
	for i := uint16(0); i < p.slotCount(); i++ {
		if _, l := p.readSlot(i); l == 0 {
			reuse = i
			break
		}
	}

	needsNewSlot := reuse == p.slotCount()
	extra := 0
	if needsNewSlot {
		extra = slotEntrySize
	}
	if p.freeSpace()-extra < need {
		return 0, false
	}

	offset := p.recordEndPtr()
	copy(p.buf[offset:], record)
	p.setRecordEndPtr(offset + uint16(need))
	p.writeSlot(reuse, offset, uint16(need))

	if needsNewSlot {
		p.setSlotRegionStart(p.slotRegionStart() - slotEntrySize)
		p.setSlotCount(p.slotCount() + 1)
	}
	return reuse, true
}

func (p heapPage) readRecord(slot uint16) (TupleMeta, []byte, error) {
	if slot >= p.slotCount() {
		return TupleMeta{}, nil, fmt.Errorf("heap: slot %d out of range (count=%d)", slot, p.slotCount())
	}
	offset, length := p.readSlot(slot)
	if length == 0 {
		return TupleMeta{}, nil, fmt.Errorf("heap: slot %d is a tombstone", slot)
	}
	meta := decodeTupleMeta(p.buf[offset : offset+tupleMetaSize])
	data := make([]byte, int(length)-tupleMetaSize)
	copy(data, p.buf[int(offset)+tupleMetaSize:int(offset)+int(length)])
	return meta, data, nil
}

// updateMetaInPlace rewrites just the meta header of an existing
// record, leaving its tuple payload untouched.
func (p heapPage) updateMetaInPlace(slot uint16, meta TupleMeta) error {
	if slot >= p.slotCount() {
		return fmt.Errorf("heap: slot %d out of range (count=%d)", slot, p.slotCount())
	}
	offset, length := p.readSlot(slot)
	if length == 0 {
		return fmt.Errorf("heap: slot %d is a tombstone", slot)
	}
	copy(p.buf[offset:offset+tupleMetaSize], encodeTupleMeta(meta))
	return nil
}

// updateRecordInPlace overwrites an existing record's bytes without
// moving its slot, as long as the new record is no larger than the
// slot's current record length (a smaller write shrinks that length).
// Returns false if it doesn't fit.
func (p heapPage) updateRecordInPlace(slot uint16, meta TupleMeta, tupleData []byte) (bool, error) {
	if slot >= p.slotCount() {
		return false, fmt.Errorf("heap: slot %d out of range (count=%d)", slot, p.slotCount())
	}
	offset, length := p.readSlot(slot)
	if length == 0 {
		return false, fmt.Errorf("heap: slot %d is a tombstone", slot)
	}
	record := append(encodeTupleMeta(meta), tupleData...)
	if len(record) > int(length) {
		return false, nil
	}
	copy(p.buf[offset:], record)
	p.writeSlot(slot, offset, uint16(len(record)))
	return true, nil
}
