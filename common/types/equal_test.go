package types

import (
	"math"
	"testing"

	"github.com/exprcore/celcore/common/types/ref"
)

func TestCrossNumericEqual(t *testing.T) {
	cases := []struct {
		lhs  ref.Val
		rhs  ref.Val
		want ref.Val
	}{
		{lhs: Int(1), rhs: Uint(1), want: True},
		{lhs: Int(1), rhs: Double(1.0), want: True},
		{lhs: Uint(1), rhs: Double(1.0), want: True},
		{lhs: Uint(1), rhs: Int(1), want: True},
		{lhs: Double(1.0), rhs: Int(1), want: True},
		{lhs: Double(1.0), rhs: Uint(1), want: True},
		{lhs: Int(1), rhs: Uint(2), want: False},
		{lhs: Int(-1), rhs: Uint(math.MaxUint64), want: False},
		{lhs: Double(1.5), rhs: Int(1), want: False},
		{lhs: Double(math.NaN()), rhs: Double(math.NaN()), want: False},
		{lhs: Double(math.NaN()), rhs: Int(1), want: False},
		// Mismatched kinds compare false rather than erroring.
		{lhs: Int(1), rhs: String("1"), want: False},
		{lhs: String("a"), rhs: Bytes("a"), want: False},
		{lhs: True, rhs: Int(1), want: False},
	}
	for _, tc := range cases {
		if got := Equal(tc.lhs, tc.rhs); got != tc.want {
			t.Errorf("Equal(%v, %v) got %v, wanted %v", tc.lhs, tc.rhs, got, tc.want)
		}
	}
}

func TestEqualPropagatesErrorAndUnknown(t *testing.T) {
	errVal := NewErr("boom")
	if got := Equal(errVal, Int(1)); got != ref.Val(errVal) {
		t.Errorf("got %v, wanted error propagation", got)
	}
	unk := NewUnknown(7)
	if got := Equal(Int(1), unk); got != ref.Val(unk) {
		t.Errorf("got %v, wanted unknown propagation", got)
	}
}

func TestCrossNumericCompare(t *testing.T) {
	cases := []struct {
		lhs  ref.Val
		rhs  ref.Val
		want ref.Val
	}{
		{lhs: Int(1), rhs: Double(2.0), want: IntNegOne},
		{lhs: Int(3), rhs: Uint(2), want: IntOne},
		{lhs: Int(-1), rhs: Uint(0), want: IntNegOne},
		{lhs: Uint(2), rhs: Double(2.5), want: IntNegOne},
		{lhs: Double(2.0), rhs: Int(2), want: IntZero},
		{lhs: Double(math.MaxFloat64), rhs: Int(math.MaxInt64), want: IntOne},
	}
	for _, tc := range cases {
		cmp := tc.lhs.(interface{ Compare(ref.Val) ref.Val }).Compare(tc.rhs)
		if cmp != tc.want {
			t.Errorf("%v.Compare(%v) got %v, wanted %v", tc.lhs, tc.rhs, cmp, tc.want)
		}
	}
}

func TestCompareNaNErrors(t *testing.T) {
	cmp := Double(math.NaN()).Compare(Int(1))
	if !IsError(cmp) {
		t.Errorf("NaN compare got %v, wanted error", cmp)
	}
}

func TestUintSubtractionUnderflow(t *testing.T) {
	out := Uint(1).Subtract(Uint(2))
	errVal, ok := out.(*Err)
	if !ok || errVal.Error() != "unsigned integer overflow" {
		t.Errorf("1u - 2u got %v, wanted unsigned integer overflow", out)
	}
}

func TestIntDivisionBoundaries(t *testing.T) {
	if out := Int(1).Divide(Int(0)); !IsError(out) {
		t.Errorf("1 / 0 got %v, wanted error", out)
	}
	if out := Int(1).Modulo(Int(0)); !IsError(out) {
		t.Errorf("1 %% 0 got %v, wanted error", out)
	}
	if out := Int(math.MinInt64).Divide(Int(-1)); !IsError(out) {
		t.Errorf("minint / -1 got %v, wanted overflow error", out)
	}
}

func TestMapInsertionOrderIteration(t *testing.T) {
	m := NewValMap(
		[]ref.Val{String("b"), String("a"), String("c")},
		[]ref.Val{Int(1), Int(2), Int(3)})
	it := m.Iterator()
	var got []string
	for it.HasNext() == True {
		got = append(got, string(it.Next().(String)))
	}
	want := []string{"b", "a", "c"}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("iteration order got %v, wanted %v", got, want)
		}
	}
}

func TestListEqualityHeterogeneous(t *testing.T) {
	l1 := NewValList([]ref.Val{Int(1)})
	l2 := NewValList([]ref.Val{String("a")})
	if got := Equal(l1, l2); got != False {
		t.Errorf("[1] == ['a'] got %v, wanted false", got)
	}
	l3 := NewValList([]ref.Val{Int(1)})
	if got := Equal(l1, l3); got != True {
		t.Errorf("[1] == [1] got %v, wanted true", got)
	}
}
