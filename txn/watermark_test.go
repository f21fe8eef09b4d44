package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermarkTracksMinimumOfActiveReaders(t *testing.T) {
	w := NewWatermark(0)
	assert.Equal(t, NoWatermark, w.Get())

	require.NoError(t, w.AddTxn(5))
	assert.Equal(t, uint64(5), w.Get())

	require.NoError(t, w.AddTxn(3))
	assert.Equal(t, uint64(3), w.Get())

	require.NoError(t, w.AddTxn(3))
	w.RemoveTxn(3)
	// one of the two readers at ts=3 remains
	assert.Equal(t, uint64(3), w.Get())

	w.RemoveTxn(3)
	assert.Equal(t, uint64(5), w.Get())

	w.RemoveTxn(5)
	assert.Equal(t, NoWatermark, w.Get())
}

func TestWatermarkRejectsReadBeforeCommit(t *testing.T) {
	w := NewWatermark(10)
	err := w.AddTxn(4)
	assert.Error(t, err)
}

func TestWatermarkUpdateCommitTsAffectsFutureAdds(t *testing.T) {
	w := NewWatermark(0)
	w.UpdateCommitTs(7)
	assert.Error(t, w.AddTxn(6))
	assert.NoError(t, w.AddTxn(7))
}
