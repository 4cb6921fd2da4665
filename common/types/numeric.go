package types

import (
	"math"

	"github.com/exprcore/celcore/common/types/ref"
)

// Bounds used to test whether a double carries an exact int64/uint64 value.
// 2^63 and 2^64 are not themselves representable as int64/uint64, so the
// upper bounds are exclusive.
const (
	minInt64AsDouble  = float64(math.MinInt64)
	maxInt64AsDouble  = float64(math.MaxInt64) + 1
	maxUint64AsDouble = float64(math.MaxUint64) + 1
)

// intFromDouble reports whether d is finite, integral, and within int64
// range, returning the exact int64 value when so.
func intFromDouble(d float64) (int64, bool) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d != math.Trunc(d) {
		return 0, false
	}
	if d < minInt64AsDouble || d >= maxInt64AsDouble {
		return 0, false
	}
	return int64(d), true
}

// uintFromDouble reports whether d is finite, integral, and within uint64
// range, returning the exact uint64 value when so.
func uintFromDouble(d float64) (uint64, bool) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d != math.Trunc(d) {
		return 0, false
	}
	if d < 0 || d >= maxUint64AsDouble {
		return 0, false
	}
	return uint64(d), true
}

// Cross-numeric ordering helpers backing the Compare implementations. Each
// returns Int(-1|0|1), or an Err when an operand is NaN since NaN admits no
// ordering.

func compareDoubles(d1, d2 float64) ref.Val {
	if math.IsNaN(d1) || math.IsNaN(d2) {
		return NewErr("NaN values cannot be ordered")
	}
	if d1 < d2 {
		return IntNegOne
	}
	if d1 > d2 {
		return IntOne
	}
	return IntZero
}

func compareInts(i1, i2 int64) ref.Val {
	if i1 < i2 {
		return IntNegOne
	}
	if i1 > i2 {
		return IntOne
	}
	return IntZero
}

func compareUints(u1, u2 uint64) ref.Val {
	if u1 < u2 {
		return IntNegOne
	}
	if u1 > u2 {
		return IntOne
	}
	return IntZero
}

func compareIntUint(i int64, u uint64) ref.Val {
	if i < 0 {
		return IntNegOne
	}
	return compareUints(uint64(i), u)
}

func compareDoubleInt(d float64, i int64) ref.Val {
	if d < minInt64AsDouble {
		return IntNegOne
	}
	if d >= maxInt64AsDouble {
		return IntOne
	}
	return compareDoubles(d, float64(i))
}

func compareDoubleUint(d float64, u uint64) ref.Val {
	if d < 0 {
		return IntNegOne
	}
	if d >= maxUint64AsDouble {
		return IntOne
	}
	return compareDoubles(d, float64(u))
}

func reverseOrder(cmp ref.Val) ref.Val {
	if i, ok := cmp.(Int); ok {
		return Int(-i)
	}
	return cmp
}
