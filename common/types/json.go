package types

import (
	"reflect"

	"google.golang.org/protobuf/types/known/structpb"
)

// jsonValueType is the reflect.Type ConvertToNative checks for when asked
// to project a scalar value to its structpb.Value JSON representation, the
// boundary the dynamic value lattice uses to interoperate with JSON-shaped
// host data (structpb.Struct/structpb.ListValue), mirroring the corpus's
// per-kind jsonValueType branch.
var jsonValueType = reflect.TypeOf(&structpb.Value{})

func boolJSON(b bool) *structpb.Value {
	return structpb.NewBoolValue(b)
}

func numberJSON(n float64) *structpb.Value {
	return structpb.NewNumberValue(n)
}

func stringJSON(s string) *structpb.Value {
	return structpb.NewStringValue(s)
}

func nullJSON() *structpb.Value {
	return structpb.NewNullValue()
}
