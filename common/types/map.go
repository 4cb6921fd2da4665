package types

import (
	"fmt"
	"reflect"

	"google.golang.org/grpc/codes"

	"github.com/exprcore/celcore/common/types/ref"
	"github.com/exprcore/celcore/common/types/traits"
)

// valMap is a traits.Mapper backed by a slice of already-adapted key/value
// ref.Val pairs, preserving insertion order for Iterator.
type valMap struct {
	keys   []ref.Val
	values []ref.Val
}

// NewValMap wraps parallel key/value slices as a traits.Mapper. Keys must
// already be comparable runtime values (Bool, Int, Uint, String).
func NewValMap(keys, values []ref.Val) traits.Mapper {
	return &valMap{keys: keys, values: values}
}

// NewDynamicMap adapts an arbitrary Go map to a traits.Mapper, converting
// keys and values through NativeToValue.
func NewDynamicMap(adapter ref.TypeAdapter, value interface{}) traits.Mapper {
	v := reflect.ValueOf(value)
	keys := make([]ref.Val, 0, v.Len())
	values := make([]ref.Val, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		keys = append(keys, adapter.NativeToValue(iter.Key().Interface()))
		values = append(values, adapter.NativeToValue(iter.Value().Interface()))
	}
	return &valMap{keys: keys, values: values}
}

func (m *valMap) indexOf(key ref.Val) int {
	for i, k := range m.keys {
		if k.Equal(key) == True {
			return i
		}
	}
	return -1
}

// Contains implements traits.Container.
func (m *valMap) Contains(key ref.Val) ref.Val {
	if IsError(key) || IsUnknown(key) {
		return key
	}
	return Bool(m.indexOf(key) >= 0)
}

// Find implements traits.Mapper, looking a key up without producing an Err
// on a miss.
func (m *valMap) Find(key ref.Val) (ref.Val, bool) {
	i := m.indexOf(key)
	if i < 0 {
		return nil, false
	}
	return m.values[i], true
}

func (m *valMap) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	if typeDesc.Kind() == reflect.Interface {
		native := make(map[interface{}]interface{}, len(m.keys))
		for i, k := range m.keys {
			native[k.Value()] = m.values[i].Value()
		}
		return native, nil
	}
	if typeDesc.Kind() != reflect.Map {
		return nil, fmt.Errorf("unsupported native conversion from map to '%v'", typeDesc)
	}
	keyType := typeDesc.Key()
	valType := typeDesc.Elem()
	native := reflect.MakeMapWithSize(typeDesc, len(m.keys))
	for i, k := range m.keys {
		nk, err := k.ConvertToNative(keyType)
		if err != nil {
			return nil, err
		}
		nv, err := m.values[i].ConvertToNative(valType)
		if err != nil {
			return nil, err
		}
		native.SetMapIndex(reflect.ValueOf(nk), reflect.ValueOf(nv))
	}
	return native.Interface(), nil
}

func (m *valMap) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case MapType:
		return m
	case TypeType:
		return MapType
	}
	return NewErr("type conversion error from 'map' to '%s'", typeVal.TypeName())
}

func (m *valMap) Equal(other ref.Val) ref.Val {
	otherMap, ok := other.(traits.Mapper)
	if !ok {
		return False
	}
	if m.Size().(Int) != otherMap.Size().(Int) {
		return False
	}
	for i, k := range m.keys {
		otherVal, found := otherMap.Find(k)
		if !found {
			return False
		}
		if m.values[i].Equal(otherVal) != True {
			return False
		}
	}
	return True
}

func (m *valMap) Get(key ref.Val) ref.Val {
	v, found := m.Find(key)
	if !found {
		if IsError(key) || IsUnknown(key) {
			return key
		}
		return NewErrWithCode(codes.NotFound, "no such key: %v", key.Value())
	}
	return v
}

func (m *valMap) Iterator() traits.Iterator {
	return &mapIterator{keys: m.keys}
}

func (m *valMap) Size() ref.Val {
	return Int(len(m.keys))
}

func (m *valMap) Type() ref.Type {
	return MapType
}

func (m *valMap) Value() interface{} {
	native := make(map[interface{}]interface{}, len(m.keys))
	for i, k := range m.keys {
		native[k.Value()] = m.values[i].Value()
	}
	return native
}

type mapIterator struct {
	keys   []ref.Val
	cursor int
}

func (it *mapIterator) HasNext() ref.Val {
	return Bool(it.cursor < len(it.keys))
}

func (it *mapIterator) Next() ref.Val {
	if it.HasNext() != True {
		return nil
	}
	k := it.keys[it.cursor]
	it.cursor++
	return k
}

// IsMap reports whether elem (a ref.Val or ref.Type) denotes MapType.
func IsMap(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == MapType
	case ref.Val:
		return IsMap(v.Type())
	}
	return false
}
