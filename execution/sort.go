package execution

import (
	"sort"

	"coredb/storage/expr"
	"coredb/storage/page"
	"coredb/storage/tuple"
)

type SortDirection int

const (
	Asc SortDirection = iota
	Desc
)

// OrderBy is one key in a multi-key sort, tried in order until two
// rows disagree.
type OrderBy struct {
	Direction SortDirection
	Expr      expr.Expression
}

// SortExecutor materializes its child fully during Init, sorts it by
// OrderBys, and streams the result. Grounded on sort_executor.cpp.
type SortExecutor struct {
	ctx      *Context
	child    Executor
	orderBys []OrderBy

	rows []*tuple.Tuple
	pos  int
}

func NewSortExecutor(ctx *Context, child Executor, orderBys []OrderBy) *SortExecutor {
	return &SortExecutor{ctx: ctx, child: child, orderBys: orderBys}
}

func (s *SortExecutor) OutputSchema() *tuple.Schema { return s.child.OutputSchema() }

func (s *SortExecutor) Init() error {
	if err := s.child.Init(); err != nil {
		return err
	}
	s.rows = nil
	for {
		tu, _, ok, err := s.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		s.rows = append(s.rows, tu)
	}

	var sortErr error
	sort.SliceStable(s.rows, func(i, j int) bool {
		less, _, err := compareRows(s.orderBys, s.rows[i], s.rows[j])
		if err != nil {
			sortErr = err
		}
		return less
	})
	s.pos = 0
	return sortErr
}

func (s *SortExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, page.RID{}, false, nil
	}
	tu := s.rows[s.pos]
	s.pos++
	return tu, page.RID{}, true, nil
}

// compareRows reports whether a sorts before b under orderBys, trying
// each key in turn until one pair of values differs.
func compareRows(orderBys []OrderBy, a, b *tuple.Tuple) (less bool, equal bool, err error) {
	for _, ob := range orderBys {
		va, err := ob.Expr.Evaluate(a)
		if err != nil {
			return false, false, err
		}
		vb, err := ob.Expr.Evaluate(b)
		if err != nil {
			return false, false, err
		}
		if va.Equals(vb) {
			continue
		}
		if ob.Direction == Asc {
			return va.LessThan(vb), false, nil
		}
		return va.GreaterThan(vb), false, nil
	}
	return false, true, nil
}
