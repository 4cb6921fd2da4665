package types

import (
	"fmt"
	"reflect"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	rpcpb "google.golang.org/genproto/googleapis/rpc/status"

	"github.com/exprcore/celcore/common/types/ref"
)

// Err is a runtime evaluation error. It implements ref.Val so it can flow
// through the interpreter like any other value: arithmetic, comparison, and
// field access all propagate an Err operand as their result rather than
// panicking. Alongside the message it carries a grpc code, so that an
// embedding RPC server can project an evaluation failure into a status
// response without re-classifying the message text.
type Err struct {
	error
	Code codes.Code

	// ExprID is the id of the expression node the error occurred at, used
	// to recover a source location when the error surfaces to the caller.
	// Zero when the error has not yet been attributed to a node.
	ExprID int64
}

// NewErr builds an Err from a printf-style format string, classified as
// codes.InvalidArgument (the default for "no such overload"/type-mismatch
// style failures).
func NewErr(format string, args ...interface{}) *Err {
	return NewErrWithCode(codes.InvalidArgument, format, args...)
}

// NewErrWithCode builds an Err carrying an explicit grpc code, for the
// cases the runtime error taxonomy distinguishes: codes.NotFound for
// no-such-key/no-such-field, codes.OutOfRange for index-out-of-range,
// codes.InvalidArgument for division-by-zero, overflow, and no-matching-
// overload.
func NewErrWithCode(code codes.Code, format string, args ...interface{}) *Err {
	return &Err{error: fmt.Errorf(format, args...), Code: code}
}

// NewErrWithNodeID builds an Err attributed to the given expression node.
func NewErrWithNodeID(id int64, format string, args ...interface{}) *Err {
	e := NewErr(format, args...)
	e.ExprID = id
	return e
}

// LabelErrNode attributes val to the given expression node when val is an
// unattributed Err; any other value passes through untouched.
func LabelErrNode(id int64, val ref.Val) ref.Val {
	if e, ok := val.(*Err); ok && e.ExprID == 0 {
		e.ExprID = id
	}
	return val
}

// NewErrFromError wraps an existing Go error as a runtime Err.
func NewErrFromError(err error) *Err {
	return &Err{error: err, Code: codes.InvalidArgument}
}

// Status projects the Err onto an rpcpb.Status, the way a server boundary
// would report an evaluation failure back over RPC.
func (e *Err) Status() *rpcpb.Status {
	s := status.Convert(status.New(e.Code, e.error.Error()).Err())
	return s.Proto()
}

func (e *Err) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	return nil, e.error
}

func (e *Err) ConvertToType(typeVal ref.Type) ref.Val {
	return e
}

func (e *Err) Equal(other ref.Val) ref.Val {
	return e
}

func (e *Err) String() string {
	return e.error.Error()
}

func (e *Err) Type() ref.Type {
	return ErrType
}

func (e *Err) Value() interface{} {
	return e.error
}

// IsError reports whether elem (a ref.Val or ref.Type) denotes ErrType.
func IsError(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == ErrType
	case ref.Val:
		return IsError(v.Type())
	}
	return false
}

// ValOrErr returns value if it is already an Err (or Unknown, so that data
// gaps keep propagating instead of being masked by a new error), otherwise
// it builds a fresh "no such overload"-style Err from format/args. This is
// the standard guard every binary trait method starts with: an operand that
// failed to type-assert to the expected concrete kind might itself be an
// Err/Unknown that must propagate rather than be replaced.
func ValOrErr(value ref.Val, format string, args ...interface{}) ref.Val {
	if value == nil {
		return NewErr(format, args...)
	}
	switch value.Type() {
	case ErrType, UnknownType:
		return value
	default:
		return NewErr(format, args...)
	}
}

// MaybeNoSuchOverloadErr is a convenience for dispatch-site guards: if
// either operand is already an Err/Unknown it is returned as-is, signaling
// the caller should not attempt to build its own error.
func MaybeNoSuchOverloadErr(value ref.Val) ref.Val {
	return ValOrErr(value, "no such overload")
}

// NoSuchOverloadErr builds the generic "no such overload" Err, without the
// function name or argument types.
func NoSuchOverloadErr() ref.Val {
	return NewErr("no such overload")
}

// IsUnknownOrError reports whether val is an Unknown or an Err, the two
// kinds that a function's argument-type guard must let pass through
// unevaluated rather than reject as a signature mismatch.
func IsUnknownOrError(val ref.Val) bool {
	if val == nil {
		return false
	}
	switch val.Type() {
	case ErrType, UnknownType:
		return true
	}
	return false
}
