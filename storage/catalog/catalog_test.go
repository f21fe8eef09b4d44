package catalog

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb/logging"
	"coredb/storage/buffer"
	"coredb/storage/disk"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	fs := afero.NewMemMapFs()
	mgr, err := disk.New(fs, "/data/test.db", logging.NewNop())
	require.NoError(t, err)
	sched := disk.NewScheduler(mgr, 64, logging.NewNop())
	t.Cleanup(func() { _ = sched.Close() })
	pool := buffer.New(sched, 32, 2, logging.NewNop())
	return New(pool, logging.NewNop())
}

func testSchema() *tuple.Schema {
	return tuple.NewSchema([]tuple.Column{
		tuple.NewColumn("id", value.Integer, false),
		tuple.NewColumn("name", value.Varchar, true),
	})
}

func TestCatalogCreateTableThenLookup(t *testing.T) {
	cat := newTestCatalog(t)
	info, err := cat.CreateTable("users", testSchema())
	require.NoError(t, err)
	assert.Equal(t, OID(1), info.OID)

	byName, ok := cat.GetTableByName("users")
	require.True(t, ok)
	assert.Equal(t, info.OID, byName.OID)

	byOID, ok := cat.GetTable(info.OID)
	require.True(t, ok)
	assert.Equal(t, "users", byOID.Name)
}

func TestCatalogCreateTableDuplicateNameRejected(t *testing.T) {
	cat := newTestCatalog(t)
	_, err := cat.CreateTable("users", testSchema())
	require.NoError(t, err)
	_, err = cat.CreateTable("users", testSchema())
	assert.Error(t, err)
}

func TestCatalogCreateIndexRegistersUnderTable(t *testing.T) {
	cat := newTestCatalog(t)
	tbl, err := cat.CreateTable("users", testSchema())
	require.NoError(t, err)

	idx, err := cat.CreateIndex("users_id_idx", "users", 0, 2, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, tbl.OID, idx.TableOID)

	idxs := cat.GetTableIndexes(tbl.OID)
	require.Len(t, idxs, 1)
	assert.Equal(t, idx.OID, idxs[0].OID)
}

func TestCatalogCreateIndexOnMissingTableFails(t *testing.T) {
	cat := newTestCatalog(t)
	_, err := cat.CreateIndex("idx", "ghost", 0, 2, 2, 4)
	assert.Error(t, err)
}
