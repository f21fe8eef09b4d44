package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValueEqualsAcrossConstructors(t *testing.T) {
	assert.True(t, NewInteger(5).Equals(NewInteger(5)))
	assert.False(t, NewInteger(5).Equals(NewInteger(6)))
	assert.True(t, NewVarchar("abc").Equals(NewVarchar("abc")))
}

func TestValueNullOrdering(t *testing.T) {
	n := NewNull(Integer)
	v := NewInteger(0)

	assert.True(t, n.IsNull())
	assert.False(t, v.IsNull())
	assert.True(t, n.LessThan(v))
	assert.True(t, v.GreaterThan(n))
	assert.True(t, n.Equals(NewNull(Integer)))
}

func TestValueCompareToOrdering(t *testing.T) {
	assert.Equal(t, -1, NewInteger(1).CompareTo(NewInteger(2)))
	assert.Equal(t, 1, NewBigInt(10).CompareTo(NewBigInt(3)))
	assert.Equal(t, 0, NewDecimal(1.5).CompareTo(NewDecimal(1.5)))

	early := NewTimestamp(time.Unix(0, 0))
	later := NewTimestamp(time.Unix(100, 0))
	assert.True(t, early.LessThan(later))
}

func TestValueAdd(t *testing.T) {
	sum := NewInteger(2).Add(NewInteger(3))
	assert.Equal(t, int32(5), sum.AsInteger())

	withNull := NewNull(BigInt).Add(NewBigInt(7))
	assert.Equal(t, int64(7), withNull.AsBigInt())
}

func TestValueMinMax(t *testing.T) {
	running := NewNull(Integer)
	for _, n := range []int32{5, 1, 9, 3} {
		running = running.Min(NewInteger(n))
	}
	assert.Equal(t, int32(1), running.AsInteger())

	running = NewNull(Integer)
	for _, n := range []int32{5, 1, 9, 3} {
		running = running.Max(NewInteger(n))
	}
	assert.Equal(t, int32(9), running.AsInteger())
}

func TestValueStringFormatting(t *testing.T) {
	assert.Equal(t, "NULL", NewNull(Varchar).String())
	assert.Equal(t, "abc", NewVarchar("abc").String())
	assert.Equal(t, "5", NewInteger(5).String())
}
