// Package value implements the tagged-union column value every tuple,
// expression, and aggregate in coredb operates on. Grounded on the
// teacher's types.Row (a column's slot in a row) widened from
// DaemonDB's untyped map[string]interface{} into the typed union the
// expression/comparison/aggregate layer needs — DaemonDB's Row only
// ever round-trips Go's own interface{} equality, which can't express
// cross-type comparisons (INTEGER vs BIGINT) or NULL-aware ordering.
package value

import (
	"fmt"
	"time"
)

// Type tags which union member a Value holds.
type Type int

const (
	Invalid Type = iota
	Boolean
	Integer
	BigInt
	Varchar
	Decimal
	Timestamp
)

func (t Type) String() string {
	switch t {
	case Boolean:
		return "BOOLEAN"
	case Integer:
		return "INTEGER"
	case BigInt:
		return "BIGINT"
	case Varchar:
		return "VARCHAR"
	case Decimal:
		return "DECIMAL"
	case Timestamp:
		return "TIMESTAMP"
	default:
		return "INVALID"
	}
}

// Value is a single column value: exactly one of the typed fields
// below is meaningful, selected by typ, unless null is set.
type Value struct {
	typ  Type
	null bool

	boolean bool
	integer int32
	bigint  int64
	varchar string
	decimal float64
	ts      time.Time
}

func NewBoolean(b bool) Value  { return Value{typ: Boolean, boolean: b} }
func NewInteger(i int32) Value { return Value{typ: Integer, integer: i} }
func NewBigInt(i int64) Value  { return Value{typ: BigInt, bigint: i} }
func NewVarchar(s string) Value { return Value{typ: Varchar, varchar: s} }
func NewDecimal(f float64) Value { return Value{typ: Decimal, decimal: f} }
func NewTimestamp(t time.Time) Value { return Value{typ: Timestamp, ts: t} }

// NewNull returns a null value carrying typ so comparisons and
// serialization still know its column type.
func NewNull(typ Type) Value { return Value{typ: typ, null: true} }

func (v Value) Type() Type   { return v.typ }
func (v Value) IsNull() bool { return v.null }

func (v Value) AsBoolean() bool      { return v.boolean }
func (v Value) AsInteger() int32     { return v.integer }
func (v Value) AsBigInt() int64      { return v.bigint }
func (v Value) AsVarchar() string    { return v.varchar }
func (v Value) AsDecimal() float64   { return v.decimal }
func (v Value) AsTimestamp() time.Time { return v.ts }

// AsInt64 widens any numeric value to int64, for code that just needs
// a comparable/hashable group-by key.
func (v Value) AsInt64() int64 {
	switch v.typ {
	case Integer:
		return int64(v.integer)
	case BigInt:
		return v.bigint
	case Decimal:
		return int64(v.decimal)
	default:
		return 0
	}
}

func (v Value) String() string {
	if v.null {
		return "NULL"
	}
	switch v.typ {
	case Boolean:
		return fmt.Sprintf("%t", v.boolean)
	case Integer:
		return fmt.Sprintf("%d", v.integer)
	case BigInt:
		return fmt.Sprintf("%d", v.bigint)
	case Varchar:
		return v.varchar
	case Decimal:
		return fmt.Sprintf("%g", v.decimal)
	case Timestamp:
		return v.ts.Format(time.RFC3339)
	default:
		return "<invalid>"
	}
}

// CompareTo returns -1, 0, 1 comparing v to other. NULL sorts before
// every non-null value of the same type and equals any other NULL.
func (v Value) CompareTo(other Value) int {
	if v.null || other.null {
		switch {
		case v.null && other.null:
			return 0
		case v.null:
			return -1
		default:
			return 1
		}
	}
	switch v.typ {
	case Boolean:
		return compareBool(v.boolean, other.boolean)
	case Integer:
		return compareInt64(int64(v.integer), int64(other.integer))
	case BigInt:
		return compareInt64(v.bigint, other.bigint)
	case Decimal:
		return compareFloat64(v.decimal, other.decimal)
	case Varchar:
		switch {
		case v.varchar < other.varchar:
			return -1
		case v.varchar > other.varchar:
			return 1
		default:
			return 0
		}
	case Timestamp:
		switch {
		case v.ts.Before(other.ts):
			return -1
		case v.ts.After(other.ts):
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v Value) Equals(other Value) bool      { return v.CompareTo(other) == 0 }
func (v Value) LessThan(other Value) bool    { return v.CompareTo(other) < 0 }
func (v Value) GreaterThan(other Value) bool { return v.CompareTo(other) > 0 }

// Add returns v+other for numeric types, used by SUM aggregates.
func (v Value) Add(other Value) Value {
	if v.null {
		return other
	}
	if other.null {
		return v
	}
	switch v.typ {
	case Integer:
		return NewInteger(v.integer + other.integer)
	case BigInt:
		return NewBigInt(v.bigint + other.bigint)
	case Decimal:
		return NewDecimal(v.decimal + other.decimal)
	default:
		return v
	}
}

// Min/Max support MIN/MAX aggregates, treating NULL as the identity
// (the running value replaces a NULL seed on first real input).
func (v Value) Min(other Value) Value {
	if v.null {
		return other
	}
	if other.null {
		return v
	}
	if other.LessThan(v) {
		return other
	}
	return v
}

func (v Value) Max(other Value) Value {
	if v.null {
		return other
	}
	if other.null {
		return v
	}
	if other.GreaterThan(v) {
		return other
	}
	return v
}
