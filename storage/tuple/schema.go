// Package tuple implements the typed row format every heap page slot
// and index entry carries: a Schema describing a table's columns and
// a Tuple holding one row's Values against that Schema. Grounded on
// DaemonDB's types.TableSchema/ColumnDef, widened with the fixed-width
// layout information the flat byte serialization needs (DaemonDB
// stores schemas only as JSON metadata, never as a binary row format).
package tuple

import "coredb/storage/value"

// Column describes one slot in a Schema.
type Column struct {
	Name     string
	Type     value.Type
	Nullable bool
	// FixedLen is the on-disk width for fixed-width types (BOOLEAN=1,
	// INTEGER=4, BIGINT/DECIMAL/TIMESTAMP=8). Zero for VARCHAR, whose
	// value lives in the tuple's variable-length heap instead.
	FixedLen int
}

func fixedLenFor(t value.Type) int {
	switch t {
	case value.Boolean:
		return 1
	case value.Integer:
		return 4
	case value.BigInt, value.Decimal, value.Timestamp:
		return 8
	default:
		return 0
	}
}

// NewColumn builds a Column, deriving FixedLen from its Type.
func NewColumn(name string, typ value.Type, nullable bool) Column {
	return Column{Name: name, Type: typ, Nullable: nullable, FixedLen: fixedLenFor(typ)}
}

func (c Column) IsInlined() bool { return c.FixedLen > 0 }

// Schema is an ordered, named column list.
type Schema struct {
	Columns []Column
}

func NewSchema(columns []Column) *Schema {
	return &Schema{Columns: columns}
}

func (s *Schema) Len() int { return len(s.Columns) }

// ColumnIndex returns the position of name, or -1 if absent.
func (s *Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// CopySchema returns a new Schema containing only the columns at
// indices, in that order — used by undo logs to store only the
// modified_fields subset of a tuple's columns.
func (s *Schema) CopySchema(indices []int) *Schema {
	cols := make([]Column, len(indices))
	for i, idx := range indices {
		cols[i] = s.Columns[idx]
	}
	return NewSchema(cols)
}
