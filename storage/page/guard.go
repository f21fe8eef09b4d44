package page

// Pool is the slice of the buffer pool's API the guards in this file
// need to release themselves. storage/buffer.Pool implements it.
// Kept here (rather than imported from storage/buffer) to avoid a
// buffer<->page import cycle: buffer depends on page, not vice versa.
type Pool interface {
	UnpinPage(id ID, isDirty bool) bool
	FetchPageRead(id ID) (ReadGuard, error)
	FetchPageWrite(id ID) (WriteGuard, error)
}

// BasicGuard owns an unpin-on-Drop obligation for a pinned page, with
// no latch discipline of its own — the caller is responsible for not
// racing concurrent writers. Used where the buffer pool's own mutex
// already serializes access (e.g. metadata-only touches) or as the
// staging point for Upgrade{Read,Write}. Grounded on bustub's
// BasicPageGuard.
type BasicGuard struct {
	pool    Pool
	pg      *Page
	dirty   bool
	dropped bool
}

// NewBasicGuard wraps an already-pinned page.
func NewBasicGuard(pool Pool, pg *Page) BasicGuard {
	return BasicGuard{pool: pool, pg: pg}
}

func (g *BasicGuard) PageID() ID { return g.pg.ID }

// Data returns the page's raw bytes for direct mutation.
func (g *BasicGuard) Data() *[Size]byte { return &g.pg.Data }

// SetDirty marks the underlying page dirty; OR'd into the frame's
// dirty flag on Drop via UnpinPage.
func (g *BasicGuard) SetDirty(dirty bool) { g.dirty = g.dirty || dirty }

// Drop releases the pin. Safe to call more than once.
func (g *BasicGuard) Drop() {
	if g.dropped || g.pg == nil {
		return
	}
	g.dropped = true
	g.pool.UnpinPage(g.pg.ID, g.dirty)
}

// UpgradeRead drops this guard and re-fetches the same page with a read
// latch held, mirroring bustub's BasicPageGuard::UpgradeRead.
func (g *BasicGuard) UpgradeRead() (ReadGuard, error) {
	id := g.pg.ID
	rg, err := g.pool.FetchPageRead(id)
	g.Drop()
	return rg, err
}

// UpgradeWrite drops this guard and re-fetches the same page with a
// write latch held.
func (g *BasicGuard) UpgradeWrite() (WriteGuard, error) {
	id := g.pg.ID
	wg, err := g.pool.FetchPageWrite(id)
	g.Drop()
	return wg, err
}

// ReadGuard holds a page's read latch plus its pin, released together
// on Drop (latch first, then pin — mirrors bustub's ReadPageGuard).
type ReadGuard struct {
	inner   BasicGuard
	dropped bool
}

func NewReadGuard(pool Pool, pg *Page) ReadGuard {
	return ReadGuard{inner: NewBasicGuard(pool, pg)}
}

func (g *ReadGuard) PageID() ID           { return g.inner.PageID() }
func (g *ReadGuard) Data() *[Size]byte    { return g.inner.Data() }
func (g *ReadGuard) Page() *Page          { return g.inner.pg }

func (g *ReadGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	g.inner.pg.RUnlock()
	g.inner.Drop()
}

// WriteGuard holds a page's write latch plus its pin.
type WriteGuard struct {
	inner   BasicGuard
	dropped bool
}

func NewWriteGuard(pool Pool, pg *Page) WriteGuard {
	return WriteGuard{inner: NewBasicGuard(pool, pg)}
}

func (g *WriteGuard) PageID() ID        { return g.inner.PageID() }
func (g *WriteGuard) Data() *[Size]byte { return g.inner.Data() }
func (g *WriteGuard) Page() *Page       { return g.inner.pg }
func (g *WriteGuard) SetDirty()         { g.inner.SetDirty(true) }

func (g *WriteGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	g.inner.SetDirty(true)
	g.inner.pg.Unlock()
	g.inner.Drop()
}
