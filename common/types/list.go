package types

import (
	"fmt"
	"reflect"

	"google.golang.org/grpc/codes"

	"github.com/exprcore/celcore/common/types/ref"
	"github.com/exprcore/celcore/common/types/traits"
)

// valList is a traits.Lister backed by a slice of already-adapted ref.Val
// elements, used for list literals constructed by the interpreter.
type valList struct {
	elems []ref.Val
}

// NewValList wraps a slice of ref.Val as a traits.Lister.
func NewValList(elems []ref.Val) traits.Lister {
	return &valList{elems: elems}
}

// NewDynamicList adapts an arbitrary Go slice to a traits.Lister, converting
// every element through NativeToValue when the list is built.
func NewDynamicList(adapter ref.TypeAdapter, value interface{}) traits.Lister {
	v := reflect.ValueOf(value)
	elems := make([]ref.Val, v.Len())
	for i := 0; i < v.Len(); i++ {
		elems[i] = adapter.NativeToValue(v.Index(i).Interface())
	}
	return &valList{elems: elems}
}

// concatList is a lazily-merged view over two lists, produced by the `+`
// operator so that concatenation does not require copying both operands.
type concatList struct {
	prevList traits.Lister
	nextList traits.Lister
}

func (l *valList) Add(other ref.Val) ref.Val {
	otherList, ok := other.(traits.Lister)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return &concatList{prevList: l, nextList: otherList}
}

func (l *concatList) Add(other ref.Val) ref.Val {
	otherList, ok := other.(traits.Lister)
	if !ok {
		return ValOrErr(other, "no such overload")
	}
	return &concatList{prevList: l, nextList: otherList}
}

func (l *valList) Contains(elem ref.Val) ref.Val {
	if IsError(elem) || IsUnknown(elem) {
		return elem
	}
	for _, e := range l.elems {
		if e.Equal(elem) == True {
			return True
		}
	}
	return False
}

func (l *concatList) Contains(elem ref.Val) ref.Val {
	prev := l.prevList.Contains(elem)
	if prev == True {
		return True
	}
	if IsError(prev) || IsUnknown(prev) {
		return prev
	}
	return l.nextList.Contains(elem)
}

func (l *valList) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	if typeDesc.Kind() != reflect.Slice && typeDesc.Kind() != reflect.Interface {
		return nil, fmt.Errorf("unsupported native conversion from list to '%v'", typeDesc)
	}
	if typeDesc.Kind() == reflect.Interface {
		native := make([]interface{}, len(l.elems))
		for i, e := range l.elems {
			native[i] = e.Value()
		}
		return native, nil
	}
	elemType := typeDesc.Elem()
	native := reflect.MakeSlice(typeDesc, len(l.elems), len(l.elems))
	for i, e := range l.elems {
		v, err := e.ConvertToNative(elemType)
		if err != nil {
			return nil, err
		}
		native.Index(i).Set(reflect.ValueOf(v))
	}
	return native.Interface(), nil
}

func (l *concatList) ConvertToNative(typeDesc reflect.Type) (interface{}, error) {
	return NewValList(l.flatten()).ConvertToNative(typeDesc)
}

func (l *valList) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case ListType:
		return l
	case TypeType:
		return ListType
	}
	return NewErr("type conversion error from 'list' to '%s'", typeVal.TypeName())
}

func (l *concatList) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case ListType:
		return l
	case TypeType:
		return ListType
	}
	return NewErr("type conversion error from 'list' to '%s'", typeVal.TypeName())
}

func listEqual(l traits.Lister, other ref.Val) ref.Val {
	otherList, ok := other.(traits.Lister)
	if !ok {
		return False
	}
	size := l.Size().(Int)
	if size != otherList.Size().(Int) {
		return False
	}
	for i := IntZero; i < size; i++ {
		if l.Get(i).Equal(otherList.Get(i)) != True {
			return False
		}
	}
	return True
}

func (l *valList) Equal(other ref.Val) ref.Val    { return listEqual(l, other) }
func (l *concatList) Equal(other ref.Val) ref.Val { return listEqual(l, other) }

func (l *valList) Get(index ref.Val) ref.Val {
	i, ok := index.(Int)
	if !ok {
		return ValOrErr(index, "unsupported index type in list")
	}
	if i < 0 || i >= Int(len(l.elems)) {
		return NewErrWithCode(codes.OutOfRange, "index '%d' out of range in list size '%d'", i, len(l.elems))
	}
	return l.elems[i]
}

func (l *concatList) Get(index ref.Val) ref.Val {
	i, ok := index.(Int)
	if !ok {
		return ValOrErr(index, "unsupported index type in list")
	}
	prevLen := l.prevList.Size().(Int)
	if i < prevLen {
		return l.prevList.Get(i)
	}
	return l.nextList.Get(i - prevLen)
}

func (l *valList) Iterator() traits.Iterator {
	return &listIterator{list: l, size: Int(len(l.elems))}
}

func (l *concatList) Iterator() traits.Iterator {
	return &listIterator{list: l, size: l.Size().(Int)}
}

func (l *valList) Size() ref.Val {
	return Int(len(l.elems))
}

func (l *concatList) Size() ref.Val {
	return l.prevList.Size().(Int).Add(l.nextList.Size())
}

func (l *valList) Type() ref.Type {
	return ListType
}

func (l *concatList) Type() ref.Type {
	return ListType
}

func (l *valList) Value() interface{} {
	native := make([]interface{}, len(l.elems))
	for i, e := range l.elems {
		native[i] = e.Value()
	}
	return native
}

func (l *concatList) Value() interface{} {
	return NewValList(l.flatten()).Value()
}

func (l *concatList) flatten() []ref.Val {
	size := int(l.Size().(Int))
	elems := make([]ref.Val, size)
	for i := 0; i < size; i++ {
		elems[i] = l.Get(Int(i))
	}
	return elems
}

// listIterator walks a traits.Lister (any implementation, via Size/Get) in
// index order.
type listIterator struct {
	list   traits.Indexer
	size   Int
	cursor Int
}

func (it *listIterator) HasNext() ref.Val {
	return Bool(it.cursor < it.size)
}

func (it *listIterator) Next() ref.Val {
	if it.HasNext() != True {
		return nil
	}
	v := it.list.Get(it.cursor)
	it.cursor++
	return v
}

// IsList reports whether elem (a ref.Val or ref.Type) denotes ListType.
func IsList(elem interface{}) bool {
	switch v := elem.(type) {
	case ref.Type:
		return v == ListType
	case ref.Val:
		return IsList(v.Type())
	}
	return false
}
