package tuple

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"coredb/storage/value"
)

// Tuple is one row: a Value per column of schema, in schema order.
type Tuple struct {
	Schema *Schema
	Values []value.Value
}

func NewTuple(schema *Schema, values []value.Value) *Tuple {
	return &Tuple{Schema: schema, Values: values}
}

func (t *Tuple) GetValue(col int) value.Value { return t.Values[col] }

// nullBitmapLen returns how many bytes the null bitmap needs for n
// columns, one bit per column.
func nullBitmapLen(n int) int { return (n + 7) / 8 }

// slotWidth returns the number of bytes a column occupies in the
// fixed-width slot region: its own inline width if fixed, or 8 bytes
// (4-byte offset + 4-byte length) pointing into the variable-length
// heap otherwise.
func slotWidth(c Column) int {
	if c.IsInlined() {
		return c.FixedLen
	}
	return 8
}

// Serialize flattens the tuple into [null bitmap][fixed slots][var
// heap], the layout a heap page slot or index entry stores directly.
func (t *Tuple) Serialize() []byte {
	cols := t.Schema.Columns
	bitmapLen := nullBitmapLen(len(cols))

	fixedLen := 0
	for _, c := range cols {
		fixedLen += slotWidth(c)
	}

	var varPayload []byte
	bitmap := make([]byte, bitmapLen)
	fixed := make([]byte, fixedLen)

	fixedOff := 0
	for i, c := range cols {
		v := t.Values[i]
		if v.IsNull() {
			bitmap[i/8] |= 1 << (i % 8)
			fixedOff += slotWidth(c)
			continue
		}
		if c.IsInlined() {
			writeInline(fixed[fixedOff:fixedOff+c.FixedLen], c.Type, v)
		} else {
			data := []byte(v.AsVarchar())
			binary.LittleEndian.PutUint32(fixed[fixedOff:fixedOff+4], uint32(bitmapLen+fixedLen+len(varPayload)))
			binary.LittleEndian.PutUint32(fixed[fixedOff+4:fixedOff+8], uint32(len(data)))
			varPayload = append(varPayload, data...)
		}
		fixedOff += slotWidth(c)
	}

	out := make([]byte, 0, bitmapLen+fixedLen+len(varPayload))
	out = append(out, bitmap...)
	out = append(out, fixed...)
	out = append(out, varPayload...)
	return out
}

func writeInline(dst []byte, typ value.Type, v value.Value) {
	switch typ {
	case value.Boolean:
		if v.AsBoolean() {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	case value.Integer:
		binary.LittleEndian.PutUint32(dst, uint32(v.AsInteger()))
	case value.BigInt:
		binary.LittleEndian.PutUint64(dst, uint64(v.AsBigInt()))
	case value.Decimal:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v.AsDecimal()))
	case value.Timestamp:
		binary.LittleEndian.PutUint64(dst, uint64(v.AsTimestamp().UnixNano()))
	}
}

func readInline(src []byte, typ value.Type) value.Value {
	switch typ {
	case value.Boolean:
		return value.NewBoolean(src[0] != 0)
	case value.Integer:
		return value.NewInteger(int32(binary.LittleEndian.Uint32(src)))
	case value.BigInt:
		return value.NewBigInt(int64(binary.LittleEndian.Uint64(src)))
	case value.Decimal:
		return value.NewDecimal(math.Float64frombits(binary.LittleEndian.Uint64(src)))
	case value.Timestamp:
		return value.NewTimestamp(time.Unix(0, int64(binary.LittleEndian.Uint64(src))))
	default:
		return value.Value{}
	}
}

// Deserialize rebuilds a Tuple from bytes produced by Serialize,
// against schema.
func Deserialize(data []byte, schema *Schema) (*Tuple, error) {
	cols := schema.Columns
	bitmapLen := nullBitmapLen(len(cols))
	if len(data) < bitmapLen {
		return nil, fmt.Errorf("tuple: truncated null bitmap")
	}
	bitmap := data[:bitmapLen]
	fixed := data[bitmapLen:]

	values := make([]value.Value, len(cols))
	fixedOff := 0
	for i, c := range cols {
		w := slotWidth(c)
		if fixedOff+w > len(fixed) {
			return nil, fmt.Errorf("tuple: truncated fixed slot for column %q", c.Name)
		}
		isNull := bitmap[i/8]&(1<<(i%8)) != 0
		switch {
		case isNull:
			values[i] = value.NewNull(c.Type)
		case c.IsInlined():
			values[i] = readInline(fixed[fixedOff:fixedOff+w], c.Type)
		default:
			off := binary.LittleEndian.Uint32(fixed[fixedOff : fixedOff+4])
			length := binary.LittleEndian.Uint32(fixed[fixedOff+4 : fixedOff+8])
			if int(off+length) > len(data) {
				return nil, fmt.Errorf("tuple: varchar payload out of range for column %q", c.Name)
			}
			values[i] = value.NewVarchar(string(data[off : off+length]))
		}
		fixedOff += w
	}
	return NewTuple(schema, values), nil
}
