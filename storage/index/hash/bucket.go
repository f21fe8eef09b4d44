package hash

import (
	"encoding/binary"

	"coredb/storage/page"
)

// entrySize is one (key, RID) slot: 8 bytes key, 8 bytes RID page id,
// 4 bytes RID slot.
const entrySize = 20

// maxBucketCapacity bounds bucket_max_size so size+maxSize header
// plus that many entries fit in one page: (4096-8)/20 = 204.
const maxBucketCapacity = 204

// BucketPage holds up to max_size (key, RID) entries, append-only
// within a slot range — Remove/MigrateEntries compact by rewriting the
// whole entry list, mirroring the original's vector-based bucket.
//
// Layout: [0:4) size uint32, [4:8) maxSize uint32, then maxSize
// entries of (8 bytes key, 8 bytes RID page id, 4 bytes RID slot).
type BucketPage struct {
	buf *[page.Size]byte
}

func NewBucketPage(buf *[page.Size]byte) BucketPage {
	return BucketPage{buf: buf}
}

func (b BucketPage) Init(maxSize uint32) {
	binary.LittleEndian.PutUint32(b.buf[0:4], 0)
	binary.LittleEndian.PutUint32(b.buf[4:8], maxSize)
}

func (b BucketPage) Size() uint32 {
	return binary.LittleEndian.Uint32(b.buf[0:4])
}

func (b BucketPage) setSize(n uint32) {
	binary.LittleEndian.PutUint32(b.buf[0:4], n)
}

func (b BucketPage) MaxSize() uint32 {
	return binary.LittleEndian.Uint32(b.buf[4:8])
}

func (b BucketPage) IsFull() bool {
	return b.Size() >= b.MaxSize()
}

func (b BucketPage) IsEmpty() bool {
	return b.Size() == 0
}

func (b BucketPage) entryOffset(i uint32) int {
	return 8 + int(i)*entrySize
}

func (b BucketPage) KeyAt(i uint32) Key {
	off := b.entryOffset(i)
	return Key(binary.LittleEndian.Uint64(b.buf[off : off+8]))
}

func (b BucketPage) ValueAt(i uint32) page.RID {
	off := b.entryOffset(i)
	return page.RID{
		PageID: page.ID(binary.LittleEndian.Uint64(b.buf[off+8 : off+16])),
		Slot:   binary.LittleEndian.Uint32(b.buf[off+16 : off+20]),
	}
}

func (b BucketPage) setEntry(i uint32, key Key, value page.RID) {
	off := b.entryOffset(i)
	binary.LittleEndian.PutUint64(b.buf[off:off+8], uint64(key))
	binary.LittleEndian.PutUint64(b.buf[off+8:off+16], uint64(value.PageID))
	binary.LittleEndian.PutUint32(b.buf[off+16:off+20], value.Slot)
}

// Lookup returns the value for key, if present.
func (b BucketPage) Lookup(key Key) (page.RID, bool) {
	n := b.Size()
	for i := uint32(0); i < n; i++ {
		if b.KeyAt(i) == key {
			return b.ValueAt(i), true
		}
	}
	return page.RID{}, false
}

// Insert appends (key, value) if there is room and key is absent.
// Returns false if the bucket is full; the caller distinguishes
// "full" from "duplicate key" by calling Lookup first.
func (b BucketPage) Insert(key Key, value page.RID) bool {
	if _, ok := b.Lookup(key); ok {
		return false
	}
	if b.IsFull() {
		return false
	}
	n := b.Size()
	b.setEntry(n, key, value)
	b.setSize(n + 1)
	return true
}

// Remove deletes key's entry, compacting the slot range. Returns
// false if key was not present.
func (b BucketPage) Remove(key Key) bool {
	n := b.Size()
	for i := uint32(0); i < n; i++ {
		if b.KeyAt(i) == key {
			for j := i; j < n-1; j++ {
				k := b.KeyAt(j + 1)
				v := b.ValueAt(j + 1)
				b.setEntry(j, k, v)
			}
			b.setSize(n - 1)
			return true
		}
	}
	return false
}
