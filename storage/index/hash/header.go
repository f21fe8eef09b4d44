package hash

import (
	"encoding/binary"

	"coredb/storage/page"
)

// headerMaxDepthCeiling bounds header_max_depth so 2^depth int64 slots
// plus the depth field fit in one page: 2^9 * 8 = 4096 already overflows
// the 4-byte depth field's room, and 2^8 * 8 + 4 = 2052 is the largest
// depth that fits in a 4096-byte page -> 8 bits.
const headerMaxDepthCeiling = 8

// HeaderPage is the hash table's single top-level page: an array of
// directory page ids indexed by the top header_max_depth bits of a
// key's hash. Wraps a page's raw bytes in place, the way the original
// implementation's page classes do via reinterpret_cast.
//
// Layout: [0:4) maxDepth uint32, [4:4+8*2^maxDepthCeiling) directory
// page ids (int64, -1 = unset).
type HeaderPage struct {
	buf *[page.Size]byte
}

func NewHeaderPage(buf *[page.Size]byte) HeaderPage {
	return HeaderPage{buf: buf}
}

func (h HeaderPage) Init(maxDepth uint32) {
	binary.LittleEndian.PutUint32(h.buf[0:4], maxDepth)
	n := uint32(1) << maxDepth
	for i := uint32(0); i < n; i++ {
		h.setDirectoryPageID(i, page.InvalidID)
	}
}

func (h HeaderPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(h.buf[0:4])
}

func (h HeaderPage) directoryOffset(idx uint32) int {
	return 4 + int(idx)*8
}

func (h HeaderPage) GetDirectoryPageID(idx uint32) page.ID {
	off := h.directoryOffset(idx)
	return page.ID(binary.LittleEndian.Uint64(h.buf[off : off+8]))
}

func (h HeaderPage) setDirectoryPageID(idx uint32, id page.ID) {
	off := h.directoryOffset(idx)
	binary.LittleEndian.PutUint64(h.buf[off:off+8], uint64(id))
}

// SetDirectoryPageID is exported for the table's write path.
func (h HeaderPage) SetDirectoryPageID(idx uint32, id page.ID) {
	h.setDirectoryPageID(idx, id)
}

// HashToDirectoryIndex returns the top MaxDepth bits of hash.
func (h HeaderPage) HashToDirectoryIndex(hash uint32) uint32 {
	maxDepth := h.MaxDepth()
	if maxDepth == 0 {
		return 0
	}
	return hash >> (32 - maxDepth)
}
