package execution

import (
	"strconv"

	"coredb/storage/expr"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

type AggFunc int

const (
	AggCount AggFunc = iota
	AggCountStar
	AggSum
	AggMin
	AggMax
)

// AggExpr names one aggregate output column: Input is nil for
// COUNT(*), which counts rows without evaluating anything.
type AggExpr struct {
	Func  AggFunc
	Input expr.Expression
	Type  value.Type
}

// AggregationExecutor hashes group-by keys to running aggregate state
// during Init, then streams the finished groups in Next. Grouping by
// nothing with no input rows still emits one row of initial values
// (NULL except COUNT-family, which are 0). Grounded on
// aggregation_executor.cpp.
type AggregationExecutor struct {
	ctx      *Context
	child    Executor
	groupBys []expr.Expression
	aggs     []AggExpr

	schema *tuple.Schema
	order  []string
	groups map[string][]value.Value
	keys   map[string][]value.Value
	pos    int
}

func NewAggregationExecutor(ctx *Context, child Executor, groupBys []expr.Expression, aggs []AggExpr) *AggregationExecutor {
	return &AggregationExecutor{ctx: ctx, child: child, groupBys: groupBys, aggs: aggs}
}

func (a *AggregationExecutor) OutputSchema() *tuple.Schema { return a.schema }

func (a *AggregationExecutor) Init() error {
	cols := make([]tuple.Column, 0, len(a.groupBys)+len(a.aggs))
	for i := range a.groupBys {
		cols = append(cols, tuple.NewColumn(colName("group", i), value.Invalid, true))
	}
	for i, agg := range a.aggs {
		cols = append(cols, tuple.NewColumn(colName("agg", i), agg.Type, true))
	}
	a.schema = tuple.NewSchema(cols)
	a.groups = make(map[string][]value.Value)
	a.keys = make(map[string][]value.Value)
	a.order = nil
	a.pos = 0

	if err := a.child.Init(); err != nil {
		return err
	}

	any := false
	for {
		tu, _, ok, err := a.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		any = true
		if err := a.combine(tu); err != nil {
			return err
		}
	}

	if !any && len(a.groupBys) == 0 {
		a.order = []string{""}
		a.groups[""] = a.initialState()
	}
	return nil
}

func (a *AggregationExecutor) initialState() []value.Value {
	state := make([]value.Value, len(a.aggs))
	for i, agg := range a.aggs {
		if agg.Func == AggCount || agg.Func == AggCountStar {
			state[i] = value.NewInteger(0)
		} else {
			state[i] = value.NewNull(agg.Type)
		}
	}
	return state
}

func (a *AggregationExecutor) combine(tu *tuple.Tuple) error {
	keyValues := make([]value.Value, len(a.groupBys))
	for i, g := range a.groupBys {
		v, err := g.Evaluate(tu)
		if err != nil {
			return err
		}
		keyValues[i] = v
	}
	key := ""
	for _, v := range keyValues {
		key += valueKey(v) + "|"
	}

	state, seen := a.groups[key]
	if !seen {
		state = a.initialState()
		a.keys[key] = keyValues
		a.order = append(a.order, key)
	}

	for i, agg := range a.aggs {
		var in value.Value
		if agg.Input != nil {
			v, err := agg.Input.Evaluate(tu)
			if err != nil {
				return err
			}
			in = v
		}
		state[i] = combineOne(agg, state[i], in)
	}
	a.groups[key] = state
	return nil
}

func combineOne(agg AggExpr, acc, in value.Value) value.Value {
	switch agg.Func {
	case AggCountStar:
		return value.NewInteger(acc.AsInteger() + 1)
	case AggCount:
		if in.IsNull() {
			return acc
		}
		return value.NewInteger(acc.AsInteger() + 1)
	case AggSum:
		if in.IsNull() {
			return acc
		}
		if acc.IsNull() {
			return in
		}
		return acc.Add(in)
	case AggMin:
		if in.IsNull() {
			return acc
		}
		if acc.IsNull() {
			return in
		}
		return acc.Min(in)
	case AggMax:
		if in.IsNull() {
			return acc
		}
		if acc.IsNull() {
			return in
		}
		return acc.Max(in)
	default:
		return acc
	}
}

func (a *AggregationExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if a.pos >= len(a.order) {
		return nil, page.RID{}, false, nil
	}
	key := a.order[a.pos]
	a.pos++

	values := make([]value.Value, 0, len(a.groupBys)+len(a.aggs))
	values = append(values, a.keys[key]...)
	values = append(values, a.groups[key]...)
	return tuple.NewTuple(a.schema, values), page.RID{}, true, nil
}

func colName(prefix string, i int) string {
	return prefix + "_" + strconv.Itoa(i)
}
