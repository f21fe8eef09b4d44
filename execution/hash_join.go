package execution

import (
	"fmt"

	"coredb/storage/expr"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

// HashJoinExecutor materializes the right child into a hash multimap
// keyed by rightKeys during Init, then streams the left child probing
// that map. A LEFT join row with no matching bucket is emitted once,
// padded with NULLs. Grounded on hash_join_executor.cpp.
type HashJoinExecutor struct {
	ctx       *Context
	left      Executor
	right     Executor
	leftKeys  []expr.Expression
	rightKeys []expr.Expression
	joinType  JoinType

	schema *tuple.Schema
	table  map[string][]*tuple.Tuple

	leftTuple   *tuple.Tuple
	bucket      []*tuple.Tuple
	bucketIdx   int
	leftMatched bool
}

func NewHashJoinExecutor(ctx *Context, left, right Executor, leftKeys, rightKeys []expr.Expression, joinType JoinType) *HashJoinExecutor {
	return &HashJoinExecutor{ctx: ctx, left: left, right: right, leftKeys: leftKeys, rightKeys: rightKeys, joinType: joinType}
}

func (h *HashJoinExecutor) OutputSchema() *tuple.Schema { return h.schema }

func (h *HashJoinExecutor) Init() error {
	if err := h.right.Init(); err != nil {
		return err
	}
	if err := h.left.Init(); err != nil {
		return err
	}

	h.schema = concatSchemas(h.left.OutputSchema(), h.right.OutputSchema())
	h.table = make(map[string][]*tuple.Tuple)
	h.leftTuple = nil
	h.bucket = nil
	h.bucketIdx = 0

	for {
		rt, _, ok, err := h.right.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		key, err := h.joinKey(h.rightKeys, rt)
		if err != nil {
			return err
		}
		h.table[key] = append(h.table[key], rt)
	}

	return nil
}

func (h *HashJoinExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	for {
		if h.bucketIdx < len(h.bucket) {
			rt := h.bucket[h.bucketIdx]
			h.bucketIdx++
			h.leftMatched = true
			return concatTuples(h.schema, h.leftTuple, rt), page.RID{}, true, nil
		}

		if h.leftTuple != nil && h.joinType == LeftJoin && !h.leftMatched {
			result := nullPadRight(h.schema, h.leftTuple, h.right.OutputSchema())
			h.leftTuple = nil
			return result, page.RID{}, true, nil
		}

		lt, _, ok, err := h.left.Next()
		if err != nil {
			return nil, page.RID{}, false, err
		}
		if !ok {
			return nil, page.RID{}, false, nil
		}

		key, err := h.joinKey(h.leftKeys, lt)
		if err != nil {
			return nil, page.RID{}, false, err
		}
		h.leftTuple = lt
		h.leftMatched = false
		h.bucket = h.table[key]
		h.bucketIdx = 0
	}
}

func (h *HashJoinExecutor) joinKey(keys []expr.Expression, tu *tuple.Tuple) (string, error) {
	s := ""
	for _, k := range keys {
		v, err := k.Evaluate(tu)
		if err != nil {
			return "", err
		}
		s += valueKey(v) + "|"
	}
	return s, nil
}

// valueKey renders v into a string distinguishing it by type and
// content, used as a hash join / hash aggregation bucket key.
func valueKey(v value.Value) string {
	if v.IsNull() {
		return fmt.Sprintf("%d:NULL", v.Type())
	}
	switch v.Type() {
	case value.Boolean:
		return fmt.Sprintf("%d:%v", v.Type(), v.AsBoolean())
	case value.Integer:
		return fmt.Sprintf("%d:%d", v.Type(), v.AsInteger())
	case value.BigInt:
		return fmt.Sprintf("%d:%d", v.Type(), v.AsBigInt())
	case value.Varchar:
		return fmt.Sprintf("%d:%s", v.Type(), v.AsVarchar())
	case value.Decimal:
		return fmt.Sprintf("%d:%f", v.Type(), v.AsDecimal())
	case value.Timestamp:
		return fmt.Sprintf("%d:%d", v.Type(), v.AsTimestamp().UnixNano())
	default:
		return fmt.Sprintf("%d:?", v.Type())
	}
}
