package execution

import (
	"coredb/storage/page"
	"coredb/storage/tuple"
)

// ValuesExecutor yields a fixed, in-memory set of rows with no
// backing RID — the source every write-path executor's child is built
// from when there is no parser handing down a scan plan, e.g. the
// literal row lists driving INSERT ... VALUES.
type ValuesExecutor struct {
	schema *tuple.Schema
	rows   []*tuple.Tuple
	pos    int
}

// NewValuesExecutor builds a ValuesExecutor over rows, each expected to
// already conform to schema.
func NewValuesExecutor(schema *tuple.Schema, rows []*tuple.Tuple) *ValuesExecutor {
	return &ValuesExecutor{schema: schema, rows: rows}
}

func (v *ValuesExecutor) Init() error {
	v.pos = 0
	return nil
}

func (v *ValuesExecutor) Next() (*tuple.Tuple, page.RID, bool, error) {
	if v.pos >= len(v.rows) {
		return nil, page.RID{}, false, nil
	}
	row := v.rows[v.pos]
	v.pos++
	return row, page.RID{}, true, nil
}

func (v *ValuesExecutor) OutputSchema() *tuple.Schema { return v.schema }
