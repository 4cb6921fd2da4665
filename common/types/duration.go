package types

import (
	"fmt"
	"reflect"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/exprcore/celcore/common/types/ref"
)

var durationPtrType = reflect.TypeOf(&durationpb.Duration{})

// Duration is the runtime representation of google.protobuf.Duration,
// backed directly by time.Duration (nanosecond resolution).
type Duration struct {
	time.Duration
}

func durationOf(d time.Duration) Duration {
	return Duration{d}
}

// Add implements traits.Adder: duration+duration and duration+timestamp.
func (d Duration) Add(other ref.Val) ref.Val {
	switch o := other.(type) {
	case Duration:
		result, ok := addDurationChecked(d.Duration, o.Duration)
		if !ok {
			return NewErr("duration overflow")
		}
		return durationOf(result)
	case Timestamp:
		return o.Add(d)
	}
	return ValOrErr(other, "no such overload")
}

// Compare implements traits.Comparer.
func (d Duration) Compare(other ref.Val) ref.Val {
	otherDuration, ok := other.(Duration)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	switch {
	case d.Duration < otherDuration.Duration:
		return IntNegOne
	case d.Duration > otherDuration.Duration:
		return IntOne
	default:
		return IntZero
	}
}

func (d Duration) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	switch typeDesc {
	case reflect.TypeOf(time.Duration(0)):
		return d.Duration, nil
	case durationPtrType:
		return durationpb.New(d.Duration), nil
	}
	return nil, fmt.Errorf("type conversion error from 'google.protobuf.Duration' to '%v'", typeDesc)
}

func (d Duration) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case StringType:
		return String(d.Duration.String())
	case IntType:
		return Int(d.Duration.Nanoseconds())
	case DurationType:
		return d
	case TypeType:
		return DurationType
	}
	return NewErr("type conversion error from 'google.protobuf.Duration' to '%s'", typeVal.TypeName())
}

func (d Duration) Equal(other ref.Val) ref.Val {
	otherDuration, ok := other.(Duration)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return Bool(d.Duration == otherDuration.Duration)
}

// Negate implements traits.Negater.
func (d Duration) Negate() ref.Val {
	result, ok := negateDurationChecked(d.Duration)
	if !ok {
		return NewErr("duration overflow")
	}
	return durationOf(result)
}

// Subtract implements traits.Subtractor.
func (d Duration) Subtract(subtrahend ref.Val) ref.Val {
	otherDuration, ok := subtrahend.(Duration)
	if !ok {
		return ValOrErr(subtrahend, "no such overload")
	}
	result, ok := subtractDurationChecked(d.Duration, otherDuration.Duration)
	if !ok {
		return NewErr("duration overflow")
	}
	return durationOf(result)
}

// Receive implements traits.Receiver for the duration-partitioning
// accessors (getHours, getMinutes, ...), which operate directly on the
// nanosecond count rather than on a point in time.
func (d Duration) Receive(function string, overload string, args []ref.Val) ref.Val {
	if len(args) != 0 {
		return NewErr("no such overload: %s", function)
	}
	switch function {
	case TimeGetHours:
		return Int(d.Duration / time.Hour)
	case TimeGetMinutes:
		return Int(d.Duration / time.Minute)
	case TimeGetSeconds:
		return Int(d.Duration / time.Second)
	case TimeGetMilliseconds:
		return Int(d.Duration / time.Millisecond)
	}
	return NewErr("no such overload: %s", function)
}

func (d Duration) Type() ref.Type {
	return DurationType
}

func (d Duration) Value() interface{} {
	return d.Duration
}

// durationFromProto adapts a google.protobuf.Duration wire message into the
// runtime Duration value, for NativeToValue's proto-boundary case.
func durationFromProto(pb *durationpb.Duration) Duration {
	return durationOf(pb.AsDuration())
}

// IsDuration reports whether elem (a ref.Val or ref.Type) denotes DurationType.
func IsDuration(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == DurationType
	case ref.Val:
		return IsDuration(v.Type())
	}
	return false
}
