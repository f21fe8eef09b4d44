package execution

import (
	"coredb/storage/tuple"
	"coredb/storage/value"
)

// concatSchemas builds the output schema of a join: left's columns
// followed by right's.
func concatSchemas(left, right *tuple.Schema) *tuple.Schema {
	cols := make([]tuple.Column, 0, left.Len()+right.Len())
	cols = append(cols, left.Columns...)
	cols = append(cols, right.Columns...)
	return tuple.NewSchema(cols)
}

// concatTuples builds a joined row out of a matched left/right pair.
func concatTuples(schema *tuple.Schema, left, right *tuple.Tuple) *tuple.Tuple {
	values := make([]value.Value, 0, len(left.Values)+len(right.Values))
	values = append(values, left.Values...)
	values = append(values, right.Values...)
	return tuple.NewTuple(schema, values)
}

// nullPadRight builds a joined row out of a left row with no match:
// right's columns come back as typed NULLs.
func nullPadRight(schema *tuple.Schema, left *tuple.Tuple, rightSchema *tuple.Schema) *tuple.Tuple {
	values := make([]value.Value, 0, len(left.Values)+rightSchema.Len())
	values = append(values, left.Values...)
	for _, col := range rightSchema.Columns {
		values = append(values, value.NewNull(col.Type))
	}
	return tuple.NewTuple(schema, values)
}
