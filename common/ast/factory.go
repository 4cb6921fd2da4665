package ast

import "github.com/exprcore/celcore/common/types/ref"

// ExprFactory builds expression nodes. The caller supplies every node id:
// ids come from whatever front end is producing the tree (a macro
// expander, a test fixture, an embedding application's parser) and must be
// unique within one tree since they key the checker's side tables.
type ExprFactory interface {
	// NewCall builds a global function call.
	NewCall(id int64, function string, args ...Expr) Expr

	// NewMemberCall builds a receiver-style function call.
	NewMemberCall(id int64, function string, target Expr, args ...Expr) Expr

	// NewComprehension builds the macro-lowered loop form.
	NewComprehension(id int64, iterRange Expr, iterVar, accuVar string, accuInit, loopCondition, loopStep, result Expr) Expr

	// NewIdent builds an identifier node.
	NewIdent(id int64, name string) Expr

	// NewAccuIdent builds a reference to the comprehension accumulator
	// variable.
	NewAccuIdent(id int64) Expr

	// NewLiteral builds a constant node holding the given runtime value.
	NewLiteral(id int64, value ref.Val) Expr

	// NewList builds a list literal. optIndices marks optionally present
	// elements and is normally empty.
	NewList(id int64, elems []Expr, optIndices []int32) Expr

	// NewMap builds a map literal from its entries.
	NewMap(id int64, entries []EntryExpr) Expr

	// NewMapEntry builds one key/value entry of a map literal.
	NewMapEntry(id int64, key, value Expr, isOptional bool) EntryExpr

	// NewSelect builds a field selection.
	NewSelect(id int64, operand Expr, field string) Expr

	// NewPresenceTest builds the test-only select has(...) lowers into.
	NewPresenceTest(id int64, operand Expr, field string) Expr

	// NewStruct builds a struct literal with named field initializers.
	NewStruct(id int64, typeName string, fields []EntryExpr) Expr

	// NewStructField builds one field initializer of a struct literal.
	NewStructField(id int64, field string, value Expr, isOptional bool) EntryExpr

	// NewUnspecifiedExpr builds an empty node carrying only an id.
	NewUnspecifiedExpr(id int64) Expr
}

// AccuVarName is the name comprehension accumulators are bound under.
const AccuVarName = "__result__"

// NewExprFactory returns the default ExprFactory.
func NewExprFactory() ExprFactory {
	return exprFactory{}
}

type exprFactory struct{}

func (exprFactory) NewCall(id int64, function string, args ...Expr) Expr {
	return newNode(id, CallKind, &callView{function: function, args: args})
}

func (exprFactory) NewMemberCall(id int64, function string, target Expr, args ...Expr) Expr {
	return newNode(id, CallKind, &callView{function: function, target: target, args: args, member: true})
}

func (exprFactory) NewComprehension(id int64, iterRange Expr, iterVar, accuVar string, accuInit, loopCond, loopStep, result Expr) Expr {
	return newNode(id, ComprehensionKind, &comprehensionView{
		iterRange: iterRange,
		iterVar:   iterVar,
		accuVar:   accuVar,
		accuInit:  accuInit,
		loopCond:  loopCond,
		loopStep:  loopStep,
		result:    result,
	})
}

func (exprFactory) NewIdent(id int64, name string) Expr {
	return newNode(id, IdentKind, &identView{name: name})
}

func (fac exprFactory) NewAccuIdent(id int64) Expr {
	return fac.NewIdent(id, AccuVarName)
}

func (exprFactory) NewLiteral(id int64, value ref.Val) Expr {
	return newNode(id, LiteralKind, &literalView{val: value})
}

func (exprFactory) NewList(id int64, elems []Expr, optIndices []int32) Expr {
	return newNode(id, ListKind, &listView{elems: elems, optIndices: optIndices})
}

func (exprFactory) NewMap(id int64, entries []EntryExpr) Expr {
	return newNode(id, MapKind, &mapView{entries: entries})
}

func (exprFactory) NewMapEntry(id int64, key, value Expr, isOptional bool) EntryExpr {
	return newEntry(id, MapEntryKind, &mapEntryView{key: key, value: value, optional: isOptional})
}

func (exprFactory) NewSelect(id int64, operand Expr, field string) Expr {
	return newNode(id, SelectKind, &selectView{operand: operand, field: field})
}

func (exprFactory) NewPresenceTest(id int64, operand Expr, field string) Expr {
	return newNode(id, SelectKind, &selectView{operand: operand, field: field, testOnly: true})
}

func (exprFactory) NewStruct(id int64, typeName string, fields []EntryExpr) Expr {
	return newNode(id, StructKind, &structView{typeName: typeName, fields: fields})
}

func (exprFactory) NewStructField(id int64, field string, value Expr, isOptional bool) EntryExpr {
	return newEntry(id, StructFieldKind, &structFieldView{name: field, value: value, optional: isOptional})
}

func (exprFactory) NewUnspecifiedExpr(id int64) Expr {
	return &exprNode{id: id}
}

func newNode(id int64, kind ExprKind, view exprView) Expr {
	return &exprNode{id: id, kind: kind, node: view}
}

func newEntry(id int64, kind EntryExprKind, view entryView) EntryExpr {
	return &entryNode{id: id, kind: kind, node: view}
}
