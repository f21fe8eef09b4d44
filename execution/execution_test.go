package execution

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"coredb/logging"
	"coredb/storage/buffer"
	"coredb/storage/catalog"
	"coredb/storage/disk"
	"coredb/storage/tuple"
	"coredb/storage/value"
	"coredb/txn"
)

func newTestContext(t *testing.T) (*Context, *catalog.Catalog) {
	t.Helper()
	fs := afero.NewMemMapFs()
	mgr, err := disk.New(fs, "/data/test.db", logging.NewNop())
	require.NoError(t, err)
	sched := disk.NewScheduler(mgr, 64, logging.NewNop())
	t.Cleanup(func() { _ = sched.Close() })
	pool := buffer.New(sched, 32, 2, logging.NewNop())
	cat := catalog.New(pool, logging.NewNop())

	tm, err := txn.New(cat, 2, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(tm.Close)

	tx, err := tm.Begin(txn.SnapshotIsolation)
	require.NoError(t, err)

	return &Context{Catalog: cat, TxnMgr: tm, Txn: tx}, cat
}

func usersSchema() *tuple.Schema {
	return tuple.NewSchema([]tuple.Column{
		tuple.NewColumn("id", value.Integer, false),
		tuple.NewColumn("name", value.Varchar, true),
	})
}

func newValuesExecutor(schema *tuple.Schema, rows []*tuple.Tuple) *ValuesExecutor {
	return NewValuesExecutor(schema, rows)
}

func drain(t *testing.T, ex Executor) []*tuple.Tuple {
	t.Helper()
	require.NoError(t, ex.Init())
	var out []*tuple.Tuple
	for {
		tu, _, ok, err := ex.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, tu)
	}
	return out
}
