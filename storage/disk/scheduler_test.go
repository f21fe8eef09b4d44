package disk

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"coredb/logging"
	"coredb/storage/page"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	fs := afero.NewMemMapFs()
	m, err := New(fs, "/data/test.db", logging.NewNop())
	require.NoError(t, err)
	s := NewScheduler(m, 16, logging.NewNop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSchedulerWriteThenRead(t *testing.T) {
	s := newTestScheduler(t)
	id := s.AllocatePage()

	var want [page.Size]byte
	want[10] = 0x42
	require.NoError(t, s.WritePage(id, &want))

	var got [page.Size]byte
	require.NoError(t, s.ReadPage(id, &got))
	require.Equal(t, want, got)
}

func TestSchedulerServicesRequestsInOrder(t *testing.T) {
	s := newTestScheduler(t)
	id := s.AllocatePage()

	n := 20
	var buf [page.Size]byte
	for i := 0; i < n; i++ {
		buf[0] = byte(i)
		require.NoError(t, s.WritePage(id, &buf))
	}

	var got [page.Size]byte
	require.NoError(t, s.ReadPage(id, &got))
	require.Equal(t, byte(n-1), got[0])
}
