package checker

import "github.com/exprcore/celcore/common/decls"

// TypeProvider resolves struct types, struct field types, and enum values
// for the checker. It is the static-type counterpart of the runtime
// ref.TypeProvider: the checker reasons about decls.Type descriptors while
// the interpreter works with runtime values.
type TypeProvider interface {
	// LookupStructType returns the struct type registered under the given
	// qualified name, if any.
	LookupStructType(typeName string) (*decls.Type, bool)

	// LookupFieldType returns the named field's type on the given struct
	// type, if the field is declared.
	LookupFieldType(typeName, fieldName string) (*FieldType, bool)

	// LookupEnumValue returns the integer value of the named enum constant,
	// if declared.
	LookupEnumValue(enumName string) (int64, bool)
}

// FieldType describes a struct field to the checker.
type FieldType struct {
	Type             *decls.Type
	SupportsPresence bool
}

// InMemoryTypeProvider is a TypeProvider backed by plain maps, populated by
// the environment from application-declared struct types and enums.
type InMemoryTypeProvider struct {
	structs map[string]*decls.Type
	fields  map[string]map[string]*FieldType
	enums   map[string]int64
}

var _ TypeProvider = &InMemoryTypeProvider{}

// NewInMemoryTypeProvider returns an empty provider.
func NewInMemoryTypeProvider() *InMemoryTypeProvider {
	return &InMemoryTypeProvider{
		structs: make(map[string]*decls.Type),
		fields:  make(map[string]map[string]*FieldType),
		enums:   make(map[string]int64),
	}
}

// AddStructType declares a struct type and its field types.
func (p *InMemoryTypeProvider) AddStructType(typeName string, fields map[string]*decls.Type) {
	p.structs[typeName] = decls.ObjectType(typeName)
	fieldTypes := make(map[string]*FieldType, len(fields))
	for name, t := range fields {
		fieldTypes[name] = &FieldType{Type: t, SupportsPresence: true}
	}
	p.fields[typeName] = fieldTypes
}

// AddEnumValue declares a named enum constant.
func (p *InMemoryTypeProvider) AddEnumValue(enumName string, value int64) {
	p.enums[enumName] = value
}

func (p *InMemoryTypeProvider) LookupStructType(typeName string) (*decls.Type, bool) {
	t, found := p.structs[typeName]
	return t, found
}

func (p *InMemoryTypeProvider) LookupFieldType(typeName, fieldName string) (*FieldType, bool) {
	fields, found := p.fields[typeName]
	if !found {
		return nil, false
	}
	ft, found := fields[fieldName]
	return ft, found
}

func (p *InMemoryTypeProvider) LookupEnumValue(enumName string) (int64, bool) {
	v, found := p.enums[enumName]
	return v, found
}
