package execution

import (
	"sort"

	"coredb/storage/expr"
	"coredb/storage/page"
	"coredb/storage/tuple"
	"coredb/storage/value"
)

type WindowFunc int

const (
	WinRank WindowFunc = iota
	WinCount
	WinCountStar
	WinSum
	WinMin
	WinMax
)

// WindowSpec is one OVER(...) clause: a running aggregate (or RANK)
// over PartitionBy, optionally ordered by OrderBy.
type WindowSpec struct {
	Func        WindowFunc
	Input       expr.Expression
	PartitionBy []expr.Expression
	OrderBy     []OrderBy
	Type        value.Type
}

// WindowFunctionExecutor materializes its child, sorts once by the
// first ordered window's OrderBy (multi-ORDER-BY windows have no
// defined combined order), then computes each window's column either
// as a running UNBOUNDED PRECEDING..CURRENT ROW value within its
// partition (windows with an OrderBy) or as a second-pass,
// partition-wide final value broadcast to every row (windows without
// one). Grounded on window_function_executor.cpp.
type WindowFunctionExecutor struct {
	ctx     *Context
	child   Executor
	windows []WindowSpec

	schema  *tuple.Schema
	rows    []*tuple.Tuple
	results [][]value.Value
	pos     int
}

func NewWindowFunctionExecutor(ctx *Context, child Executor, windows []WindowSpec) *WindowFunctionExecutor {
	return &WindowFunctionExecutor{ctx: ctx, child: child, windows: windows}
}

func (w *WindowFunctionExecutor) OutputSchema() *tuple.Schema { return w.schema }

func (w *WindowFunctionExecutor) Init() error {
	if err := w.child.Init(); err != nil {
		return err
	}
	w.rows = nil
	for {
		tu, _, ok, err := w.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		w.rows = append(w.rows, tu)
	}

	for _, win := range w.windows {
		if len(win.OrderBy) == 0 {
			continue
		}
		obs := win.OrderBy
		var sortErr error
		sort.SliceStable(w.rows, func(i, j int) bool {
			less, _, err := compareRows(obs, w.rows[i], w.rows[j])
			if err != nil {
				sortErr = err
			}
			return less
		})
		if sortErr != nil {
			return sortErr
		}
		break
	}

	childSchema := w.child.OutputSchema()
	cols := append([]tuple.Column{}, childSchema.Columns...)
	for i, win := range w.windows {
		cols = append(cols, tuple.NewColumn(colName("win", i), win.Type, true))
	}
	w.schema = tuple.NewSchema(cols)

	w.results = make([][]value.Value, len(w.rows))
	for i := range w.results {
		w.results[i] = make([]value.Value, len(w.windows))
	}

	for wi, win := range w.windows {
		var err error
		if len(win.OrderBy) > 0 {
			err = w.computeRunning(wi, win)
		} else {
			err = w.computeFinal(wi, win)
		}
		if err != nil {
			return err
		}
	}

	w.pos = 0
	return nil
}

type windowState struct {
	value        value.Value
	rank         int32
	prevOrderVal value.Value
	hasPrev      bool
}

func (w *WindowFunctionExecutor) computeRunning(wi int, win WindowSpec) error {
	states := make(map[string]*windowState)
	for ri, row := range w.rows {
		key, err := w.partitionKey(win.PartitionBy, row)
		if err != nil {
			return err
		}
		st, ok := states[key]
		if !ok {
			st = &windowState{value: initialWindowValue(win)}
			states[key] = st
		}

		if win.Func == WinRank {
			var ov value.Value
			if len(win.OrderBy) > 0 {
				v, err := win.OrderBy[0].Expr.Evaluate(row)
				if err != nil {
					return err
				}
				ov = v
			}
			if !st.hasPrev || !ov.Equals(st.prevOrderVal) {
				st.rank++
			}
			st.prevOrderVal = ov
			st.hasPrev = true
			w.results[ri][wi] = value.NewInteger(st.rank)
			continue
		}

		var in value.Value
		if win.Input != nil {
			v, err := win.Input.Evaluate(row)
			if err != nil {
				return err
			}
			in = v
		}
		st.value = windowCombine(win.Func, st.value, in)
		w.results[ri][wi] = st.value
	}
	return nil
}

func (w *WindowFunctionExecutor) computeFinal(wi int, win WindowSpec) error {
	states := make(map[string]*windowState)
	keys := make([]string, len(w.rows))
	for ri, row := range w.rows {
		key, err := w.partitionKey(win.PartitionBy, row)
		if err != nil {
			return err
		}
		keys[ri] = key
		st, ok := states[key]
		if !ok {
			st = &windowState{value: initialWindowValue(win)}
			states[key] = st
		}
		var in value.Value
		if win.Input != nil {
			v, err := win.Input.Evaluate(row)
			if err != nil {
				return err
			}
			in = v
		}
		st.value = windowCombine(win.Func, st.value, in)
	}
	for ri, key := range keys {
		w.results[ri][wi] = states[key].value
	}
	return nil
}

func (w *WindowFunctionExecutor) partitionKey(partitionBy []expr.Expression, row *tuple.Tuple) (string, error) {
	key := ""
	for _, p := range partitionBy {
		v, err := p.Evaluate(row)
		if err != nil {
			return "", err
		}
		key += valueKey(v) + "|"
	}
	return key, nil
}

func initialWindowValue(win WindowSpec) value.Value {
	switch win.Func {
	case WinCount, WinCountStar:
		return value.NewInteger(0)
	case WinRank:
		return value.NewInteger(0)
	default:
		return value.NewNull(win.Type)
	}
}

func windowCombine(fn WindowFunc, acc, in value.Value) value.Value {
	switch fn {
	case WinCountStar:
		return value.NewInteger(acc.AsInteger() + 1)
	case WinCount:
		if in.IsNull() {
			return acc
		}
		return value.NewInteger(acc.AsInteger() + 1)
	case WinSum:
		if in.IsNull() {
			return acc
		}
		if acc.IsNull() {
			return in
		}
		return acc.Add(in)
	case WinMin:
		if in.IsNull() {
			return acc
		}
		if acc.IsNull() {
			return in
		}
		return acc.Min(in)
	case WinMax:
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

func (w *WindowFunctionExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if w.pos >= len(w.rows) {
		return nil, page.RID{}, false, nil
	}
	row := w.rows[w.pos]
	res := w.results[w.pos]
	w.pos++

	values := make([]value.Value, 0, len(row.Values)+len(res))
	values = append(values, row.Values...)
	values = append(values, res...)
	return tuple.NewTuple(w.schema, values), page.RID{}, true, nil
}
