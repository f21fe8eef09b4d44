package hash

import (
	"encoding/binary"

	"coredb/storage/page"
)

// directoryMaxDepthCeiling bounds directory_max_depth so 2^depth
// (local-depth byte + bucket-id int64) slots plus the two depth
// fields fit in one page: (4096-8)/9 = 454.8 -> 8 bits.
const directoryMaxDepthCeiling = 8

// DirectoryPage maps each of its 2^global_depth slots to a bucket
// page id and that bucket's local depth.
//
// Layout: [0:4) maxDepth uint32, [4:8) globalDepth uint32, then
// 2^maxDepthCeiling slots of (1 byte local depth, 8 bytes bucket
// page id).
type DirectoryPage struct {
	buf *[page.Size]byte
}

func NewDirectoryPage(buf *[page.Size]byte) DirectoryPage {
	return DirectoryPage{buf: buf}
}

const directorySlotStride = 9

func (d DirectoryPage) slotOffset(idx uint32) int {
	return 8 + int(idx)*directorySlotStride
}

func (d DirectoryPage) Init(maxDepth uint32) {
	binary.LittleEndian.PutUint32(d.buf[0:4], maxDepth)
	binary.LittleEndian.PutUint32(d.buf[4:8], 0)
	n := uint32(1) << maxDepth
	for i := uint32(0); i < n; i++ {
		d.SetLocalDepth(i, 0)
		d.SetBucketPageID(i, page.InvalidID)
	}
}

func (d DirectoryPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(d.buf[0:4])
}

func (d DirectoryPage) GetGlobalDepth() uint32 {
	return binary.LittleEndian.Uint32(d.buf[4:8])
}

func (d DirectoryPage) setGlobalDepth(depth uint32) {
	binary.LittleEndian.PutUint32(d.buf[4:8], depth)
}

// Size is the number of directory slots in use: 2^global_depth.
func (d DirectoryPage) Size() uint32 {
	return uint32(1) << d.GetGlobalDepth()
}

// HashToBucketIndex returns the low global_depth bits of hash.
func (d DirectoryPage) HashToBucketIndex(hash uint32) uint32 {
	gd := d.GetGlobalDepth()
	if gd == 0 {
		return 0
	}
	return hash & ((uint32(1) << gd) - 1)
}

func (d DirectoryPage) GetBucketPageID(idx uint32) page.ID {
	off := d.slotOffset(idx)
	return page.ID(binary.LittleEndian.Uint64(d.buf[off+1 : off+9]))
}

func (d DirectoryPage) SetBucketPageID(idx uint32, id page.ID) {
	off := d.slotOffset(idx)
	binary.LittleEndian.PutUint64(d.buf[off+1:off+9], uint64(id))
}

func (d DirectoryPage) GetLocalDepth(idx uint32) uint32 {
	off := d.slotOffset(idx)
	return uint32(d.buf[off])
}

func (d DirectoryPage) SetLocalDepth(idx uint32, depth uint32) {
	off := d.slotOffset(idx)
	d.buf[off] = byte(depth)
}

func (d DirectoryPage) IncrLocalDepth(idx uint32) {
	d.SetLocalDepth(idx, d.GetLocalDepth(idx)+1)
}

func (d DirectoryPage) DecrLocalDepth(idx uint32) {
	d.SetLocalDepth(idx, d.GetLocalDepth(idx)-1)
}

// GetSplitImageIndex returns the directory slot that bucket_idx would
// have shared a bucket with before its most recent split.
func (d DirectoryPage) GetSplitImageIndex(idx uint32) uint32 {
	ld := d.GetLocalDepth(idx)
	return idx ^ (uint32(1) << (ld - 1))
}

func (d DirectoryPage) IncrGlobalDepth() {
	gd := d.GetGlobalDepth()
	n := uint32(1) << gd
	for l, r := uint32(0), n; l < n; l, r = l+1, r+1 {
		d.SetLocalDepth(r, d.GetLocalDepth(l))
		d.SetBucketPageID(r, d.GetBucketPageID(l))
	}
	d.setGlobalDepth(gd + 1)
}

func (d DirectoryPage) DecrGlobalDepth() {
	gd := d.GetGlobalDepth() - 1
	d.setGlobalDepth(gd)
	n := uint32(1) << gd
	for i := n; i < 2*n; i++ {
		d.SetLocalDepth(i, 0)
		d.SetBucketPageID(i, page.InvalidID)
	}
}

// CanShrink reports whether every in-use slot's local depth is below
// the global depth, i.e. halving the directory would lose no mapping.
func (d DirectoryPage) CanShrink() bool {
	gd := d.GetGlobalDepth()
	n := uint32(1) << gd
	for i := uint32(0); i < n; i++ {
		if d.GetLocalDepth(i) == gd {
			return false
		}
	}
	return true
}
