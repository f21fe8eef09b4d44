package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestReplacerScenario walks the canonical LRU-K scenario: frames enter
// the history list below K accesses, graduate into the buffer list at
// exactly K, and eviction always prefers the history list's "infinite"
// backward k-distance over the buffer list.
func TestReplacerScenario(t *testing.T) {
	r := NewReplacer(7, 2)

	// add six frames, all below k=2 accesses -> all in history.
	for _, f := range []int{1, 2, 3, 4, 5} {
		r.RecordAccess(f)
	}
	r.RecordAccess(6)
	for _, f := range []int{1, 2, 3, 4, 5, 6} {
		r.SetEvictable(f, true)
	}
	assert.Equal(t, 6, r.Size())

	// second access to 1 promotes it to the buffer list.
	r.RecordAccess(1)

	// history list now holds 2,3,4,5,6 oldest to newest: evict 2 next.
	fid, ok := r.Evict()
	assert.True(t, ok)
	assert.Equal(t, 2, fid)
	assert.Equal(t, 5, r.Size())

	r.RecordAccess(3)
	r.RecordAccess(4)
	r.SetEvictable(4, false)

	// history list still holds 6 and 5 (3 and 4 just graduated to the
	// buffer list); 5 is the least recently touched of the two.
	fid, ok = r.Evict()
	assert.True(t, ok)
	assert.Equal(t, 5, fid)
	assert.Equal(t, 3, r.Size())

	fid, ok = r.Evict()
	assert.True(t, ok)
	assert.Equal(t, 6, fid)
	assert.Equal(t, 2, r.Size())

	r.SetEvictable(4, true)
	assert.Equal(t, 3, r.Size())

	// history is now empty; the buffer list holds 4, 3, 1 (most to
	// least recently promoted) — eviction picks the tail, 1.
	fid, ok = r.Evict()
	assert.True(t, ok)
	assert.Equal(t, 1, fid)
	assert.Equal(t, 2, r.Size())
}

func TestReplacerRemovePanicsOnNonEvictable(t *testing.T) {
	r := NewReplacer(4, 2)
	r.RecordAccess(1)

	assert.Panics(t, func() { r.Remove(1) })
}

func TestReplacerRemoveAbsentFrameIsNoop(t *testing.T) {
	r := NewReplacer(4, 2)
	assert.NotPanics(t, func() { r.Remove(99) })
	assert.Equal(t, 0, r.Size())
}

func TestReplacerEvictOnEmptyReturnsFalse(t *testing.T) {
	r := NewReplacer(4, 2)
	_, ok := r.Evict()
	assert.False(t, ok)
}
