package interpreter

import (
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
	"github.com/exprcore/celcore/common/types/traits"
)

// Interpretable is a planner-produced evaluable tree node.
type Interpretable interface {
	// ID returns the id of the expression node this interpretable was
	// planned from.
	ID() int64

	// Eval produces the node's value against the given activation.
	Eval(vars Activation) ref.Val
}

// InterpretableConst marks a node whose value is known at plan time,
// enabling literal folding of pure calls over constant operands.
type InterpretableConst interface {
	Interpretable

	// Value returns the constant value.
	Value() ref.Val
}

// NewConstValue creates a constant-valued Interpretable.
func NewConstValue(id int64, val ref.Val) InterpretableConst {
	return &evalConst{id: id, val: val}
}

type evalConst struct {
	id  int64
	val ref.Val
}

func (cons *evalConst) ID() int64 {
	return cons.id
}

func (cons *evalConst) Eval(vars Activation) ref.Val {
	return cons.val
}

func (cons *evalConst) Value() ref.Val {
	return cons.val
}

type evalIdent struct {
	id      int64
	name    string
	adapter ref.TypeAdapter
	// candidates are the container-resolved names to try, most specific
	// first. A checked program carries exactly the canonical name.
	candidates []string
}

func (id *evalIdent) ID() int64 {
	return id.id
}

func (id *evalIdent) Eval(vars Activation) ref.Val {
	for _, name := range id.candidates {
		obj, found := vars.ResolveName(name)
		if !found {
			continue
		}
		if val, ok := obj.(ref.Val); ok {
			if unk, isUnk := val.(*types.Unknown); isUnk && len(unk.IDs) == 0 {
				// A partial activation marked the name unknown; attribute
				// the gap to this expression node.
				return types.NewUnknown(id.id)
			}
			return val
		}
		return id.adapter.NativeToValue(obj)
	}
	return types.NewErrWithNodeID(id.id, "no such attribute: %s", id.name)
}

type evalSelect struct {
	id       int64
	operand  Interpretable
	field    string
	testOnly bool
	provider ref.TypeProvider
}

func (sel *evalSelect) ID() int64 {
	return sel.id
}

func (sel *evalSelect) Eval(vars Activation) ref.Val {
	obj := sel.operand.Eval(vars)
	if types.IsUnknownOrError(obj) {
		return obj
	}
	if sel.testOnly {
		return sel.evalPresence(obj)
	}
	switch o := obj.(type) {
	case *types.Object:
		return sel.evalObjectField(o)
	case traits.Mapper:
		return types.LabelErrNode(sel.id, o.Get(types.String(sel.field)))
	}
	return types.NewErrWithNodeID(sel.id, "no such field: %s", sel.field)
}

func (sel *evalSelect) evalPresence(obj ref.Val) ref.Val {
	switch o := obj.(type) {
	case traits.FieldTester:
		return o.IsSet(sel.field)
	case traits.Mapper:
		return o.Contains(types.String(sel.field))
	}
	return types.NewErrWithNodeID(sel.id, "invalid type for field selection")
}

// evalObjectField returns the stored field value, or the field type's
// default when the field is declared but unset: zero for primitives, empty
// containers, null for wrapper and message fields, optional.none() for
// optional fields.
func (sel *evalSelect) evalObjectField(obj *types.Object) ref.Val {
	val := obj.Get(types.String(sel.field))
	if !types.IsError(val) {
		return val
	}
	fieldType, found := sel.provider.FindStructFieldType(obj.Type().TypeName(), sel.field)
	if !found {
		return types.LabelErrNode(sel.id, val)
	}
	return defaultFieldValue(fieldType.Type)
}

func defaultFieldValue(t ref.Type) ref.Val {
	switch t {
	case types.BoolType:
		return types.False
	case types.IntType:
		return types.IntZero
	case types.UintType:
		return types.Uint(0)
	case types.DoubleType:
		return types.Double(0)
	case types.StringType:
		return types.String("")
	case types.BytesType:
		return types.Bytes{}
	case types.ListType:
		return types.NewValList([]ref.Val{})
	case types.MapType:
		return types.NewValMap(nil, nil)
	case types.DurationType:
		return types.Duration{}
	case types.TimestampType:
		return types.Timestamp{}
	case types.NullType:
		return types.NullValue
	case types.OptionalType:
		return types.OptionalNone
	}
	// Message-typed fields read back as null when unset.
	return types.NullValue
}

type evalCall struct {
	id          int64
	function    string
	overloadIDs []string
	args        []Interpretable
	dispatcher  Dispatcher
}

func (call *evalCall) ID() int64 {
	return call.id
}

func (call *evalCall) Eval(vars Activation) ref.Val {
	argVals := make([]ref.Val, len(call.args))
	for i, arg := range call.args {
		argVals[i] = arg.Eval(vars)
	}
	return types.LabelErrNode(call.id, call.dispatcher.Dispatch(call.id, call.function, call.overloadIDs, argVals))
}

type evalAnd struct {
	id    int64
	terms []Interpretable
}

func (and *evalAnd) ID() int64 {
	return and.id
}

// Eval short-circuits on the first false term. The contract is
// commutative: a false term yields false regardless of errors or unknowns
// among the other terms; otherwise error outranks unknown outranks true.
func (and *evalAnd) Eval(vars Activation) ref.Val {
	var err ref.Val
	var unk *types.Unknown
	for _, term := range and.terms {
		val := term.Eval(vars)
		if b, ok := val.(types.Bool); ok {
			if b == types.False {
				return types.False
			}
			continue
		}
		if u, isUnk := val.(*types.Unknown); isUnk {
			unk = types.MergeUnknowns(unk, u)
		} else if err == nil {
			if types.IsError(val) {
				err = val
			} else {
				err = types.MaybeNoSuchOverloadErr(val)
			}
			err = types.LabelErrNode(and.id, err)
		}
	}
	if err != nil {
		return err
	}
	if unk != nil {
		return unk
	}
	return types.True
}

type evalOr struct {
	id    int64
	terms []Interpretable
}

func (or *evalOr) ID() int64 {
	return or.id
}

func (or *evalOr) Eval(vars Activation) ref.Val {
	var err ref.Val
	var unk *types.Unknown
	for _, term := range or.terms {
		val := term.Eval(vars)
		if b, ok := val.(types.Bool); ok {
			if b == types.True {
				return types.True
			}
			continue
		}
		if u, isUnk := val.(*types.Unknown); isUnk {
			unk = types.MergeUnknowns(unk, u)
		} else if err == nil {
			if types.IsError(val) {
				err = val
			} else {
				err = types.MaybeNoSuchOverloadErr(val)
			}
			err = types.LabelErrNode(or.id, err)
		}
	}
	if err != nil {
		return err
	}
	if unk != nil {
		return unk
	}
	return types.False
}

type evalEq struct {
	id  int64
	lhs Interpretable
	rhs Interpretable
}

func (eq *evalEq) ID() int64 {
	return eq.id
}

func (eq *evalEq) Eval(vars Activation) ref.Val {
	lVal := eq.lhs.Eval(vars)
	rVal := eq.rhs.Eval(vars)
	if types.IsUnknownOrError(lVal) {
		return lVal
	}
	if types.IsUnknownOrError(rVal) {
		return rVal
	}
	return types.Equal(lVal, rVal)
}

type evalNe struct {
	id  int64
	lhs Interpretable
	rhs Interpretable
}

func (ne *evalNe) ID() int64 {
	return ne.id
}

func (ne *evalNe) Eval(vars Activation) ref.Val {
	lVal := ne.lhs.Eval(vars)
	rVal := ne.rhs.Eval(vars)
	if types.IsUnknownOrError(lVal) {
		return lVal
	}
	if types.IsUnknownOrError(rVal) {
		return rVal
	}
	return types.Bool(types.Equal(lVal, rVal) != types.True)
}

type evalConditional struct {
	id     int64
	cond   Interpretable
	truthy Interpretable
	falsy  Interpretable
}

func (cond *evalConditional) ID() int64 {
	return cond.id
}

func (cond *evalConditional) Eval(vars Activation) ref.Val {
	condVal := cond.cond.Eval(vars)
	if types.IsUnknownOrError(condVal) {
		return condVal
	}
	b, ok := condVal.(types.Bool)
	if !ok {
		return types.LabelErrNode(cond.id, types.MaybeNoSuchOverloadErr(condVal))
	}
	if b == types.True {
		return cond.truthy.Eval(vars)
	}
	return cond.falsy.Eval(vars)
}

type evalList struct {
	id    int64
	elems []Interpretable
}

func (l *evalList) ID() int64 {
	return l.id
}

func (l *evalList) Eval(vars Activation) ref.Val {
	elemVals := make([]ref.Val, len(l.elems))
	var unk *types.Unknown
	for i, elem := range l.elems {
		elemVal := elem.Eval(vars)
		if types.IsError(elemVal) {
			return elemVal
		}
		if u, isUnk := elemVal.(*types.Unknown); isUnk {
			unk = types.MergeUnknowns(unk, u)
		}
		elemVals[i] = elemVal
	}
	if unk != nil {
		return unk
	}
	return types.NewValList(elemVals)
}

type evalMap struct {
	id   int64
	keys []Interpretable
	vals []Interpretable
}

func (m *evalMap) ID() int64 {
	return m.id
}

func (m *evalMap) Eval(vars Activation) ref.Val {
	keyVals := make([]ref.Val, len(m.keys))
	valVals := make([]ref.Val, len(m.vals))
	var unk *types.Unknown
	for i, key := range m.keys {
		keyVal := key.Eval(vars)
		if types.IsError(keyVal) {
			return keyVal
		}
		if u, isUnk := keyVal.(*types.Unknown); isUnk {
			unk = types.MergeUnknowns(unk, u)
		}
		for _, prev := range keyVals[:i] {
			if prev != nil && types.Equal(prev, keyVal) == types.True {
				return types.NewErrWithNodeID(m.id, "repeated key: %v", keyVal.Value())
			}
		}
		keyVals[i] = keyVal

		valVal := m.vals[i].Eval(vars)
		if types.IsError(valVal) {
			return valVal
		}
		if u, isUnk := valVal.(*types.Unknown); isUnk {
			unk = types.MergeUnknowns(unk, u)
		}
		valVals[i] = valVal
	}
	if unk != nil {
		return unk
	}
	return types.NewValMap(keyVals, valVals)
}

type evalObj struct {
	id       int64
	typeName string
	fields   []string
	vals     []Interpretable
	provider ref.TypeProvider
}

func (o *evalObj) ID() int64 {
	return o.id
}

func (o *evalObj) Eval(vars Activation) ref.Val {
	fieldVals := make(map[string]ref.Val, len(o.fields))
	var unk *types.Unknown
	for i, field := range o.fields {
		val := o.vals[i].Eval(vars)
		if types.IsError(val) {
			return val
		}
		if u, isUnk := val.(*types.Unknown); isUnk {
			unk = types.MergeUnknowns(unk, u)
		}
		fieldVals[field] = val
	}
	if unk != nil {
		return unk
	}
	return types.LabelErrNode(o.id, o.provider.NewValue(o.typeName, fieldVals))
}

type evalFold struct {
	id        int64
	accuVar   string
	iterVar   string
	iterRange Interpretable
	accu      Interpretable
	cond      Interpretable
	step      Interpretable
	result    Interpretable
}

func (fold *evalFold) ID() int64 {
	return fold.id
}

func (fold *evalFold) Eval(vars Activation) ref.Val {
	foldRange := fold.iterRange.Eval(vars)
	if types.IsUnknownOrError(foldRange) {
		return foldRange
	}
	if !foldRange.Type().HasTrait(traits.IterableType) {
		return types.NewErrWithNodeID(fold.id, "got '%s', expected iterable type", foldRange.Type().TypeName())
	}

	accuCtx := varActivationPool.Get().(*varActivation)
	accuCtx.parent = vars
	accuCtx.name = fold.accuVar
	accuCtx.val = fold.accu.Eval(vars)
	iterCtx := varActivationPool.Get().(*varActivation)
	iterCtx.parent = accuCtx
	iterCtx.name = fold.iterVar

	it := foldRange.(traits.Iterable).Iterator()
	for it.HasNext() == types.True {
		iterCtx.val = it.Next()

		cond := fold.cond.Eval(iterCtx)
		condBool, ok := cond.(types.Bool)
		if ok && condBool != types.True {
			break
		}
		accuCtx.val = fold.step.Eval(iterCtx)
	}
	varActivationPool.Put(iterCtx)

	res := fold.result.Eval(accuCtx)
	varActivationPool.Put(accuCtx)
	return res
}
