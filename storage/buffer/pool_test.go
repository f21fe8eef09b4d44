package buffer

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"coredb/logging"
	"coredb/storage/disk"
	"coredb/storage/page"
)

func newTestPool(t *testing.T, poolSize, k int) *Pool {
	t.Helper()
	fs := afero.NewMemMapFs()
	mgr, err := disk.New(fs, "/data/test.db", logging.NewNop())
	require.NoError(t, err)
	sched := disk.NewScheduler(mgr, 16, logging.NewNop())
	t.Cleanup(func() { _ = sched.Close() })
	return New(sched, poolSize, k, logging.NewNop())
}

func TestPoolNewPageThenFetchRoundTrips(t *testing.T) {
	p := newTestPool(t, 4, 2)

	pg, err := p.NewPage()
	require.NoError(t, err)
	pg.Data[0] = 0x99
	require.True(t, p.UnpinPage(pg.ID, true))

	fetched, err := p.FetchPage(pg.ID)
	require.NoError(t, err)
	require.Equal(t, byte(0x99), fetched.Data[0])
	require.True(t, p.UnpinPage(pg.ID, false))
}

func TestPoolExhaustionWithAllPinned(t *testing.T) {
	p := newTestPool(t, 2, 2)

	_, err := p.NewPage()
	require.NoError(t, err)
	_, err = p.NewPage()
	require.NoError(t, err)

	_, err = p.NewPage()
	require.Error(t, err)
}

func TestPoolEvictsUnpinnedPageWhenFull(t *testing.T) {
	p := newTestPool(t, 2, 2)

	p1, err := p.NewPage()
	require.NoError(t, err)
	p2, err := p.NewPage()
	require.NoError(t, err)

	require.True(t, p.UnpinPage(p1.ID, false))
	require.True(t, p.UnpinPage(p2.ID, false))

	p3, err := p.NewPage()
	require.NoError(t, err)
	require.NotEqual(t, page.InvalidID, p3.ID)
}

func TestPoolFlushWritesDirtyPageToDisk(t *testing.T) {
	p := newTestPool(t, 2, 2)

	pg, err := p.NewPage()
	require.NoError(t, err)
	pg.Data[5] = 0x7E
	pg.IsDirty = true
	require.NoError(t, p.FlushPage(pg.ID))
	require.False(t, pg.IsDirty)
}

func TestPoolDeletePageRefusesWhilePinned(t *testing.T) {
	p := newTestPool(t, 2, 2)

	pg, err := p.NewPage()
	require.NoError(t, err)
	require.False(t, p.DeletePage(pg.ID))

	require.True(t, p.UnpinPage(pg.ID, false))
	require.True(t, p.DeletePage(pg.ID))
}

func TestPoolGuardedFetchReleasesOnDrop(t *testing.T) {
	p := newTestPool(t, 2, 2)

	g, err := p.NewPageGuarded()
	require.NoError(t, err)
	id := g.PageID()
	g.Drop()

	rg, err := p.FetchPageRead(id)
	require.NoError(t, err)
	rg.Drop()
}
