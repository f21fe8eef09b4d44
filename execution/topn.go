package execution

import (
	"sort"

	"coredb/storage/page"
	"coredb/storage/tuple"
)

// TopNExecutor keeps the first N rows of its child in OrderBys order.
// The source maintains a bounded priority queue to avoid materializing
// the whole child; here the same output is reached by sorting the
// fully materialized child and truncating, which is equivalent for
// any input that fits in memory, the only case this core supports.
// Grounded on topn_executor.cpp.
type TopNExecutor struct {
	ctx      *Context
	child    Executor
	orderBys []OrderBy
	n        int

	rows []*tuple.Tuple
	pos  int
}

func NewTopNExecutor(ctx *Context, child Executor, orderBys []OrderBy, n int) *TopNExecutor {
	return &TopNExecutor{ctx: ctx, child: child, orderBys: orderBys, n: n}
}

func (t *TopNExecutor) OutputSchema() *tuple.Schema { return t.child.OutputSchema() }

func (t *TopNExecutor) Init() error {
	if err := t.child.Init(); err != nil {
		return err
	}
	var rows []*tuple.Tuple
	for {
		tu, _, ok, err := t.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		rows = append(rows, tu)
	}

	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		less, _, err := compareRows(t.orderBys, rows[i], rows[j])
		if err != nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}

	if t.n < len(rows) {
		rows = rows[:t.n]
	}
	t.rows = rows
	t.pos = 0
	return nil
}

func (t *TopNExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if t.pos >= len(t.rows) {
		return nil, page.RID{}, false, nil
	}
	tu := t.rows[t.pos]
	t.pos++
	return tu, page.RID{}, true, nil
}
