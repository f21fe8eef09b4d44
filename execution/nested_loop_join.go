package execution

import (
	"coredb/storage/expr"
	"coredb/storage/page"
	"coredb/storage/tuple"
)

type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

// NestedLoopJoinExecutor re-inits its right child once per left row
// and probes every right row against predicate. A LEFT join that
// exhausts the right side without a match emits the left row once,
// padded with NULLs. Grounded on nested_loop_join_executor.cpp.
type NestedLoopJoinExecutor struct {
	ctx       *Context
	left      Executor
	right     Executor
	predicate expr.Expression
	joinType  JoinType

	schema      *tuple.Schema
	leftTuple   *tuple.Tuple
	leftMatched bool
}

func NewNestedLoopJoinExecutor(ctx *Context, left, right Executor, predicate expr.Expression, joinType JoinType) *NestedLoopJoinExecutor {
	return &NestedLoopJoinExecutor{ctx: ctx, left: left, right: right, predicate: predicate, joinType: joinType}
}

func (n *NestedLoopJoinExecutor) OutputSchema() *tuple.Schema { return n.schema }

func (n *NestedLoopJoinExecutor) Init() error {
	if err := n.left.Init(); err != nil {
		return err
	}
	if err := n.right.Init(); err != nil {
		return err
	}

	n.schema = concatSchemas(n.left.OutputSchema(), n.right.OutputSchema())
	n.leftTuple = nil
	n.leftMatched = false
	return nil
}

func (n *NestedLoopJoinExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	for {
		if n.leftTuple == nil {
			lt, _, ok, err := n.left.Next()
			if err != nil {
				return nil, page.RID{}, false, err
			}
			if !ok {
				return nil, page.RID{}, false, nil
			}
			n.leftTuple = lt
			n.leftMatched = false
			if err := n.right.Init(); err != nil {
				return nil, page.RID{}, false, err
			}
		}

		rt, _, ok, err := n.right.Next()
		if err != nil {
			return nil, page.RID{}, false, err
		}
		if !ok {
			exhaustedLeft := n.leftTuple
			matched := n.leftMatched
			n.leftTuple = nil
			if n.joinType == LeftJoin && !matched {
				return nullPadRight(n.schema, exhaustedLeft, n.right.OutputSchema()), page.RID{}, true, nil
			}
			continue
		}

		v, err := n.predicate.EvaluateJoin(n.leftTuple, rt)
		if err != nil {
			return nil, page.RID{}, false, err
		}
		if v.IsNull() || !v.AsBoolean() {
			continue
		}
		n.leftMatched = true
		return concatTuples(n.schema, n.leftTuple, rt), page.RID{}, true, nil
	}
}
