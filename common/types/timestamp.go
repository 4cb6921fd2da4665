package types

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/exprcore/celcore/common/types/ref"
)

var timestampPtrType = reflect.TypeOf(&timestamppb.Timestamp{})

// Timestamp is the runtime representation of google.protobuf.Timestamp,
// always held normalized to UTC internally; Receive() accepts a timezone
// argument (IANA name or a fixed +HH:MM/-HH:MM offset) for the instant
// getters, matching the supplemental timestamp functions in SPEC_FULL.md.
type Timestamp struct {
	time.Time
}

func timestampOf(t time.Time) Timestamp {
	return Timestamp{t.In(time.UTC)}
}

func unixSeconds(sec int64) time.Time {
	return time.Unix(sec, 0)
}

// Add implements traits.Adder.
func (t Timestamp) Add(other ref.Val) ref.Val {
	otherDuration, ok := other.(Duration)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	result, ok := addTimeDurationChecked(t.Time, otherDuration.Duration)
	if !ok {
		return NewErr("timestamp overflow")
	}
	return timestampOf(result)
}

// Compare implements traits.Comparer.
func (t Timestamp) Compare(other ref.Val) ref.Val {
	otherTime, ok := other.(Timestamp)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	switch {
	case t.Time.Before(otherTime.Time):
		return IntNegOne
	case t.Time.After(otherTime.Time):
		return IntOne
	default:
		return IntZero
	}
}

func (t Timestamp) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	switch {
	case typeDesc == timestampPtrType:
		return timestamppb.New(t.Time), nil
	case typeDesc.Kind() == reflect.Struct && reflect.TypeOf(t.Time).AssignableTo(typeDesc):
		return t.Time, nil
	}
	return nil, fmt.Errorf("type conversion error from 'google.protobuf.Timestamp' to '%v'", typeDesc)
}

func (t Timestamp) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case StringType:
		return String(t.Time.Format(time.RFC3339Nano))
	case IntType:
		return Int(t.Time.Unix())
	case TimestampType:
		return t
	case TypeType:
		return TimestampType
	}
	return NewErr("type conversion error from 'google.protobuf.Timestamp' to '%s'", typeVal.TypeName())
}

func (t Timestamp) Equal(other ref.Val) ref.Val {
	otherTime, ok := other.(Timestamp)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return Bool(t.Time.Equal(otherTime.Time))
}

// Subtract implements traits.Subtractor: timestamp-duration yields a
// timestamp, timestamp-timestamp yields a duration.
func (t Timestamp) Subtract(subtrahend ref.Val) ref.Val {
	switch other := subtrahend.(type) {
	case Duration:
		result, ok := subtractTimeDurationChecked(t.Time, other.Duration)
		if !ok {
			return NewErr("timestamp overflow")
		}
		return timestampOf(result)
	case Timestamp:
		result, ok := subtractTimeChecked(t.Time, other.Time)
		if !ok {
			return NewErr("timestamp overflow")
		}
		return durationOf(result)
	}
	return ValOrErr(subtrahend, "no such overload")
}

// Receive implements traits.Receiver for the instant-component accessors
// (getFullYear, getMonth, getDayOfMonth, ...), with and without an explicit
// timezone argument.
func (t Timestamp) Receive(function string, overload string, args []ref.Val) ref.Val {
	switch len(args) {
	case 0:
		if f, found := timestampZeroArgOverloads[function]; found {
			return f(t.Time)
		}
	case 1:
		if f, found := timestampOneArgOverloads[function]; found {
			return f(t.Time, args[0])
		}
	}
	return NewErr("no such overload: %s", function)
}

func (t Timestamp) Type() ref.Type {
	return TimestampType
}

func (t Timestamp) Value() interface{} {
	return t.Time
}

// Timestamp instant-component accessor names, matching the CEL standard
// library's time-partitioning functions.
const (
	TimeGetFullYear     = "getFullYear"
	TimeGetMonth        = "getMonth"
	TimeGetDayOfYear    = "getDayOfYear"
	TimeGetDate         = "getDate"
	TimeGetDayOfMonth   = "getDayOfMonth"
	TimeGetDayOfWeek    = "getDayOfWeek"
	TimeGetHours        = "getHours"
	TimeGetMinutes      = "getMinutes"
	TimeGetSeconds      = "getSeconds"
	TimeGetMilliseconds = "getMilliseconds"
)

var (
	timestampZeroArgOverloads = map[string]func(time.Time) ref.Val{
		TimeGetFullYear:     timestampGetFullYear,
		TimeGetMonth:        timestampGetMonth,
		TimeGetDayOfYear:    timestampGetDayOfYear,
		TimeGetDate:         timestampGetDayOfMonthOneBased,
		TimeGetDayOfMonth:   timestampGetDayOfMonthZeroBased,
		TimeGetDayOfWeek:    timestampGetDayOfWeek,
		TimeGetHours:        timestampGetHours,
		TimeGetMinutes:      timestampGetMinutes,
		TimeGetSeconds:      timestampGetSeconds,
		TimeGetMilliseconds: timestampGetMilliseconds,
	}

	timestampOneArgOverloads = map[string]func(time.Time, ref.Val) ref.Val{
		TimeGetFullYear:     withTimeZone(timestampGetFullYear),
		TimeGetMonth:        withTimeZone(timestampGetMonth),
		TimeGetDayOfYear:    withTimeZone(timestampGetDayOfYear),
		TimeGetDate:         withTimeZone(timestampGetDayOfMonthOneBased),
		TimeGetDayOfMonth:   withTimeZone(timestampGetDayOfMonthZeroBased),
		TimeGetDayOfWeek:    withTimeZone(timestampGetDayOfWeek),
		TimeGetHours:        withTimeZone(timestampGetHours),
		TimeGetMinutes:      withTimeZone(timestampGetMinutes),
		TimeGetSeconds:      withTimeZone(timestampGetSeconds),
		TimeGetMilliseconds: withTimeZone(timestampGetMilliseconds),
	}
)

func timestampGetFullYear(t time.Time) ref.Val { return Int(t.Year()) }

// timestampGetMonth returns a 0-based month, per the CEL spec (time.Time's
// Month() is 1-based).
func timestampGetMonth(t time.Time) ref.Val           { return Int(int(t.Month()) - 1) }
func timestampGetDayOfYear(t time.Time) ref.Val       { return Int(t.YearDay() - 1) }
func timestampGetDayOfMonthZeroBased(t time.Time) ref.Val { return Int(t.Day() - 1) }
func timestampGetDayOfMonthOneBased(t time.Time) ref.Val  { return Int(t.Day()) }
func timestampGetDayOfWeek(t time.Time) ref.Val       { return Int(int(t.Weekday())) }
func timestampGetHours(t time.Time) ref.Val           { return Int(t.Hour()) }
func timestampGetMinutes(t time.Time) ref.Val         { return Int(t.Minute()) }
func timestampGetSeconds(t time.Time) ref.Val         { return Int(t.Second()) }
func timestampGetMilliseconds(t time.Time) ref.Val    { return Int(t.Nanosecond() / 1e6) }

// withTimeZone adapts a zero-arg getter into a one-arg getter that first
// relocates the timestamp into the requested zone.
func withTimeZone(getter func(time.Time) ref.Val) func(time.Time, ref.Val) ref.Val {
	return func(t time.Time, tz ref.Val) ref.Val {
		tzStr, ok := tz.(String)
		if !ok {
			return ValOrErr(tz, "no such overload")
		}
		loc, err := parseTimeZone(string(tzStr))
		if err != nil {
			return NewErrFromError(err)
		}
		return getter(t.In(loc))
	}
}

// parseTimeZone resolves either an IANA zone name or a fixed "+HH:MM"/
// "-HH:MM" offset, per SPEC_FULL.md's Open Question decision to support
// fixed offsets without requiring a bundled zoneinfo database fallback.
func parseTimeZone(val string) (*time.Location, error) {
	if ind := strings.Index(val, ":"); ind >= 0 {
		hr, err := strconv.Atoi(val[:ind])
		if err != nil {
			return nil, fmt.Errorf("invalid timezone offset %q: %w", val, err)
		}
		min, err := strconv.Atoi(val[ind+1:])
		if err != nil {
			return nil, fmt.Errorf("invalid timezone offset %q: %w", val, err)
		}
		sign := 1
		if strings.HasPrefix(val, "-") {
			sign = -1
			hr = -hr
		}
		offsetSeconds := sign * (hr*3600 + min*60)
		return time.FixedZone("", offsetSeconds), nil
	}
	loc, err := time.LoadLocation(val)
	if err != nil {
		return nil, fmt.Errorf("unrecognized timezone %q: %w", val, err)
	}
	return loc, nil
}

// timestampFromProto adapts a google.protobuf.Timestamp wire message into
// the runtime Timestamp value, for NativeToValue's proto-boundary case.
func timestampFromProto(pb *timestamppb.Timestamp) Timestamp {
	return timestampOf(pb.AsTime())
}

// IsTimestamp reports whether elem (a ref.Val or ref.Type) denotes TimestampType.
func IsTimestamp(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == TimestampType
	case ref.Val:
		return IsTimestamp(v.Type())
	}
	return false
}
