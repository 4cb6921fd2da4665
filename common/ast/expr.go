// Package ast defines the expression tree the checker, planner, and
// interpreter operate on: a sum type of node kinds, each carrying the
// stable id that keys every side table, plus the factory an embedding
// front end uses to build trees.
package ast

import (
	"github.com/exprcore/celcore/common/types/ref"
)

// ExprKind tags the variant held by an expression node.
type ExprKind int

const (
	// UnspecifiedExprKind marks a node with no content, the zero value.
	UnspecifiedExprKind ExprKind = iota

	// CallKind is a global or member function call.
	CallKind

	// ComprehensionKind is the loop form macros lower into.
	ComprehensionKind

	// IdentKind is a bare identifier.
	IdentKind

	// ListKind is a list literal.
	ListKind

	// LiteralKind is a scalar constant.
	LiteralKind

	// MapKind is a map literal.
	MapKind

	// SelectKind is a field selection, possibly a presence test.
	SelectKind

	// StructKind is a struct literal with named field initializers.
	StructKind
)

// Expr is one node of an expression tree. Kind() reports which variant the
// node holds; the matching As<Kind> method views the payload. Viewing a
// node through the wrong As<Kind> method yields an empty view rather than
// panicking, so callers switch on Kind() once and read freely.
type Expr interface {
	// ID returns the node's stable identifier, the key for the type map,
	// reference map, and source positions.
	ID() int64

	// Kind returns the variant tag.
	Kind() ExprKind

	// AsCall views the node as a function call.
	AsCall() CallExpr

	// AsComprehension views the node as a comprehension.
	AsComprehension() ComprehensionExpr

	// AsIdent returns the identifier name, or "" for other kinds.
	AsIdent() string

	// AsLiteral returns the constant value, or nil for other kinds.
	AsLiteral() ref.Val

	// AsList views the node as a list literal.
	AsList() ListExpr

	// AsMap views the node as a map literal.
	AsMap() MapExpr

	// AsSelect views the node as a field selection.
	AsSelect() SelectExpr

	// AsStruct views the node as a struct literal.
	AsStruct() StructExpr

	// RenumberIDs rewrites the node's id and those of all descendants
	// using the supplied generator.
	RenumberIDs(IDGenerator)

	isExpr()
}

// IDGenerator mints the monotonically increasing ids nodes are tagged
// with.
type IDGenerator func() int64

// EntryExprKind tags the variant held by a map or struct literal entry.
type EntryExprKind int

const (
	// UnspecifiedEntryExprKind marks an empty entry, the zero value.
	UnspecifiedEntryExprKind EntryExprKind = iota

	// MapEntryKind is a key/value pair in a map literal.
	MapEntryKind

	// StructFieldKind is a named initializer in a struct literal.
	StructFieldKind
)

// EntryExpr is one entry of a map or struct literal. Entries carry their
// own ids so diagnostics can point at an individual initializer.
type EntryExpr interface {
	// ID returns the entry's stable identifier.
	ID() int64

	// Kind returns the variant tag.
	Kind() EntryExprKind

	// AsMapEntry views the entry as a map key/value pair.
	AsMapEntry() MapEntry

	// AsStructField views the entry as a struct field initializer.
	AsStructField() StructField

	// RenumberIDs rewrites the entry's id and those of its sub-expressions.
	RenumberIDs(IDGenerator)

	isEntryExpr()
}

// CallExpr views a function call: a member call carries a receiver target,
// a global call does not.
type CallExpr interface {
	// FunctionName returns the called function's name as written.
	FunctionName() string

	// IsMemberFunction reports whether the call has a receiver.
	IsMemberFunction() bool

	// Target returns the receiver for a member call, or an empty node.
	Target() Expr

	// Args returns the arguments, excluding the receiver.
	Args() []Expr

	isExpr()
}

// ComprehensionExpr views the macro-lowered loop form: iterate the range,
// binding the iteration variable per element, folding through the
// accumulator, and producing the result from the final accumulator value.
type ComprehensionExpr interface {
	// IterRange returns the expression producing the iterated container.
	IterRange() Expr

	// IterVar returns the per-element variable name.
	IterVar() string

	// AccuVar returns the accumulator variable name.
	AccuVar() string

	// AccuInit returns the accumulator's initial value expression.
	AccuInit() Expr

	// LoopCondition returns the continue-iteration condition.
	LoopCondition() Expr

	// LoopStep returns the expression rebinding the accumulator each
	// iteration.
	LoopStep() Expr

	// Result returns the expression evaluated against the final
	// accumulator binding.
	Result() Expr

	isExpr()
}

// ListExpr views a list literal.
type ListExpr interface {
	// Elements returns the element expressions in order.
	Elements() []Expr

	// OptionalIndices returns the positions of optionally present
	// elements, empty unless optional syntax is in use.
	OptionalIndices() []int32

	// Size returns the element count.
	Size() int

	isExpr()
}

// MapExpr views a map literal.
type MapExpr interface {
	// Entries returns the key/value entries in declaration order.
	Entries() []EntryExpr

	// Size returns the entry count.
	Size() int

	isExpr()
}

// MapEntry views one key/value pair of a map literal.
type MapEntry interface {
	// Key returns the key expression.
	Key() Expr

	// Value returns the value expression.
	Value() Expr

	// IsOptional reports whether the entry is optionally present.
	IsOptional() bool

	isEntryExpr()
}

// SelectExpr views a field selection. A test-only select is the lowered
// form of has(...): it reports presence rather than reading the field.
type SelectExpr interface {
	// Operand returns the expression the field is selected from.
	Operand() Expr

	// FieldName returns the selected field's name.
	FieldName() string

	// IsTestOnly reports whether the select is a presence test.
	IsTestOnly() bool

	isExpr()
}

// StructExpr views a struct literal.
type StructExpr interface {
	// TypeName returns the struct type name as written.
	TypeName() string

	// Fields returns the field initializers in declaration order.
	Fields() []EntryExpr

	isExpr()
}

// StructField views one named initializer of a struct literal.
type StructField interface {
	// Name returns the field name.
	Name() string

	// Value returns the initializer expression.
	Value() Expr

	// IsOptional reports whether the field is optionally set.
	IsOptional() bool

	isEntryExpr()
}

// exprNode is the single concrete Expr: an id, a kind tag, and the
// kind-specific payload. The payload views double as the per-kind
// interfaces, so As<Kind> is a type assertion away.
type exprNode struct {
	id   int64
	kind ExprKind
	node exprView
}

// exprView is the payload held by an exprNode.
type exprView interface {
	isExpr()
}

var _ Expr = &exprNode{}

func (e *exprNode) ID() int64 {
	if e == nil {
		return 0
	}
	return e.id
}

func (e *exprNode) Kind() ExprKind {
	if e == nil {
		return UnspecifiedExprKind
	}
	return e.kind
}

func (e *exprNode) AsCall() CallExpr {
	if v, ok := e.view().(*callView); ok {
		return v
	}
	return emptyCall
}

func (e *exprNode) AsComprehension() ComprehensionExpr {
	if v, ok := e.view().(*comprehensionView); ok {
		return v
	}
	return emptyComprehension
}

func (e *exprNode) AsIdent() string {
	if v, ok := e.view().(*identView); ok {
		return v.name
	}
	return ""
}

func (e *exprNode) AsLiteral() ref.Val {
	if v, ok := e.view().(*literalView); ok {
		return v.val
	}
	return nil
}

func (e *exprNode) AsList() ListExpr {
	if v, ok := e.view().(*listView); ok {
		return v
	}
	return emptyList
}

func (e *exprNode) AsMap() MapExpr {
	if v, ok := e.view().(*mapView); ok {
		return v
	}
	return emptyMap
}

func (e *exprNode) AsSelect() SelectExpr {
	if v, ok := e.view().(*selectView); ok {
		return v
	}
	return emptySelect
}

func (e *exprNode) AsStruct() StructExpr {
	if v, ok := e.view().(*structView); ok {
		return v
	}
	return emptyStruct
}

func (e *exprNode) view() exprView {
	if e == nil {
		return nil
	}
	return e.node
}

// RenumberIDs walks the node and its descendants, assigning each a fresh
// id. Renumbering is centralized here rather than spread across the view
// types; entries renumber through their own RenumberIDs so their ids are
// refreshed too.
func (e *exprNode) RenumberIDs(nextID IDGenerator) {
	if e == nil || e.kind == UnspecifiedExprKind {
		return
	}
	e.id = nextID()
	switch v := e.node.(type) {
	case *callView:
		if v.member {
			v.target.RenumberIDs(nextID)
		}
		for _, arg := range v.args {
			arg.RenumberIDs(nextID)
		}
	case *comprehensionView:
		v.iterRange.RenumberIDs(nextID)
		v.accuInit.RenumberIDs(nextID)
		v.loopCond.RenumberIDs(nextID)
		v.loopStep.RenumberIDs(nextID)
		v.result.RenumberIDs(nextID)
	case *listView:
		for _, elem := range v.elems {
			elem.RenumberIDs(nextID)
		}
	case *mapView:
		for _, entry := range v.entries {
			entry.RenumberIDs(nextID)
		}
	case *selectView:
		v.operand.RenumberIDs(nextID)
	case *structView:
		for _, field := range v.fields {
			field.RenumberIDs(nextID)
		}
	}
}

func (*exprNode) isExpr() {}

// entryNode is the single concrete EntryExpr, mirroring exprNode.
type entryNode struct {
	id   int64
	kind EntryExprKind
	node entryView
}

type entryView interface {
	isEntryExpr()
}

var _ EntryExpr = &entryNode{}

func (e *entryNode) ID() int64 {
	if e == nil {
		return 0
	}
	return e.id
}

func (e *entryNode) Kind() EntryExprKind {
	if e == nil {
		return UnspecifiedEntryExprKind
	}
	return e.kind
}

func (e *entryNode) AsMapEntry() MapEntry {
	if v, ok := e.node.(*mapEntryView); ok {
		return v
	}
	return emptyMapEntry
}

func (e *entryNode) AsStructField() StructField {
	if v, ok := e.node.(*structFieldView); ok {
		return v
	}
	return emptyStructField
}

func (e *entryNode) RenumberIDs(nextID IDGenerator) {
	if e == nil || e.kind == UnspecifiedEntryExprKind {
		return
	}
	e.id = nextID()
	switch v := e.node.(type) {
	case *mapEntryView:
		v.key.RenumberIDs(nextID)
		v.value.RenumberIDs(nextID)
	case *structFieldView:
		v.value.RenumberIDs(nextID)
	}
}

func (*entryNode) isEntryExpr() {}

// Per-kind payloads. Each implements its view interface directly.

type callView struct {
	function string
	target   Expr
	args     []Expr
	member   bool
}

var _ CallExpr = &callView{}

func (v *callView) FunctionName() string {
	return v.function
}

func (v *callView) IsMemberFunction() bool {
	return v.member
}

func (v *callView) Target() Expr {
	if !v.member {
		return emptyExpr
	}
	return orEmpty(v.target)
}

func (v *callView) Args() []Expr {
	return v.args
}

func (*callView) isExpr() {}

type comprehensionView struct {
	iterRange Expr
	iterVar   string
	accuVar   string
	accuInit  Expr
	loopCond  Expr
	loopStep  Expr
	result    Expr
}

var _ ComprehensionExpr = &comprehensionView{}

func (v *comprehensionView) IterRange() Expr {
	return orEmpty(v.iterRange)
}

func (v *comprehensionView) IterVar() string {
	return v.iterVar
}

func (v *comprehensionView) AccuVar() string {
	return v.accuVar
}

func (v *comprehensionView) AccuInit() Expr {
	return orEmpty(v.accuInit)
}

func (v *comprehensionView) LoopCondition() Expr {
	return orEmpty(v.loopCond)
}

func (v *comprehensionView) LoopStep() Expr {
	return orEmpty(v.loopStep)
}

func (v *comprehensionView) Result() Expr {
	return orEmpty(v.result)
}

func (*comprehensionView) isExpr() {}

type identView struct {
	name string
}

func (*identView) isExpr() {}

type literalView struct {
	val ref.Val
}

func (*literalView) isExpr() {}

type listView struct {
	elems      []Expr
	optIndices []int32
}

var _ ListExpr = &listView{}

func (v *listView) Elements() []Expr {
	return v.elems
}

func (v *listView) OptionalIndices() []int32 {
	return v.optIndices
}

func (v *listView) Size() int {
	return len(v.elems)
}

func (*listView) isExpr() {}

type mapView struct {
	entries []EntryExpr
}

var _ MapExpr = &mapView{}

func (v *mapView) Entries() []EntryExpr {
	return v.entries
}

func (v *mapView) Size() int {
	return len(v.entries)
}

func (*mapView) isExpr() {}

type selectView struct {
	operand  Expr
	field    string
	testOnly bool
}

var _ SelectExpr = &selectView{}

func (v *selectView) Operand() Expr {
	return orEmpty(v.operand)
}

func (v *selectView) FieldName() string {
	return v.field
}

func (v *selectView) IsTestOnly() bool {
	return v.testOnly
}

func (*selectView) isExpr() {}

type structView struct {
	typeName string
	fields   []EntryExpr
}

var _ StructExpr = &structView{}

func (v *structView) TypeName() string {
	return v.typeName
}

func (v *structView) Fields() []EntryExpr {
	return v.fields
}

func (*structView) isExpr() {}

type mapEntryView struct {
	key      Expr
	value    Expr
	optional bool
}

var _ MapEntry = &mapEntryView{}

func (v *mapEntryView) Key() Expr {
	return orEmpty(v.key)
}

func (v *mapEntryView) Value() Expr {
	return orEmpty(v.value)
}

func (v *mapEntryView) IsOptional() bool {
	return v.optional
}

func (*mapEntryView) isEntryExpr() {}

type structFieldView struct {
	name     string
	value    Expr
	optional bool
}

var _ StructField = &structFieldView{}

func (v *structFieldView) Name() string {
	return v.name
}

func (v *structFieldView) Value() Expr {
	return orEmpty(v.value)
}

func (v *structFieldView) IsOptional() bool {
	return v.optional
}

func (*structFieldView) isEntryExpr() {}

// Empty sentinels returned by mismatched As<Kind> views, so callers never
// receive nil interfaces.
var (
	emptyExpr          = &exprNode{}
	emptyCall          = &callView{}
	emptyComprehension = &comprehensionView{}
	emptyList          = &listView{}
	emptyMap           = &mapView{}
	emptySelect        = &selectView{}
	emptyStruct        = &structView{}
	emptyMapEntry      = &mapEntryView{}
	emptyStructField   = &structFieldView{}
)

// orEmpty substitutes the empty node for a nil child so view accessors are
// safe to chain.
func orEmpty(e Expr) Expr {
	if e == nil {
		return emptyExpr
	}
	return e
}
