package checker

import (
	"fmt"

	"github.com/exprcore/celcore/common"
	"github.com/exprcore/celcore/common/ast"
	"github.com/exprcore/celcore/common/containers"
	"github.com/exprcore/celcore/common/decls"
	"github.com/exprcore/celcore/common/types"
)

type checker struct {
	env                *Env
	errors             *typeErrors
	mappings           *decls.Mapping
	freeTypeVarCounter int
	source             common.Source
	sourceInfo         *ast.SourceInfo

	types      map[int64]*decls.Type
	references map[int64]*ast.ReferenceInfo
}

// Check traverses the parsed AST post-order, assigning every node a type
// and recording reference entries for identifiers and calls. Diagnostics
// accumulate in the returned Errors; the checked AST is always returned,
// with Error-typed nodes wherever checking failed.
func Check(parsed *ast.AST, source common.Source, env *Env) (*ast.AST, *common.Errors) {
	errs := common.NewErrors(source)
	c := &checker{
		env:        env,
		errors:     &typeErrors{Errors: errs},
		mappings:   decls.NewMapping(),
		source:     source,
		sourceInfo: parsed.SourceInfo(),
		types:      make(map[int64]*decls.Type),
		references: make(map[int64]*ast.ReferenceInfo),
	}
	c.check(parsed.Expr())

	// Rewrite the type map through the final substitutions so that type
	// parameters resolved late in the traversal become concrete throughout;
	// any parameter never bound widens to dyn.
	m := make(map[int64]*decls.Type, len(c.types))
	for id, t := range c.types {
		m[id] = decls.Substitute(c.mappings, t, true)
	}
	return ast.NewCheckedAST(parsed, m, c.references), errs
}

func (c *checker) check(e ast.Expr) {
	if e == nil {
		return
	}
	switch e.Kind() {
	case ast.LiteralKind:
		c.checkLiteral(e)
	case ast.IdentKind:
		c.checkIdent(e)
	case ast.SelectKind:
		c.checkSelect(e)
	case ast.CallKind:
		c.checkCall(e)
	case ast.ListKind:
		c.checkCreateList(e)
	case ast.MapKind:
		c.checkCreateMap(e)
	case ast.StructKind:
		c.checkCreateStruct(e)
	case ast.ComprehensionKind:
		c.checkComprehension(e)
	default:
		c.errors.ReportError(c.location(e), "unrecognized ast kind: %v", e.Kind())
		c.setType(e, decls.ErrorType)
	}
}

func (c *checker) checkLiteral(e ast.Expr) {
	switch e.AsLiteral().Type() {
	case types.BoolType:
		c.setType(e, decls.BoolType)
	case types.BytesType:
		c.setType(e, decls.BytesType)
	case types.DoubleType:
		c.setType(e, decls.DoubleType)
	case types.IntType:
		c.setType(e, decls.IntType)
	case types.NullType:
		c.setType(e, decls.NullType)
	case types.StringType:
		c.setType(e, decls.StringType)
	case types.UintType:
		c.setType(e, decls.UintType)
	case types.DurationType:
		c.setType(e, decls.DurationType)
	case types.TimestampType:
		c.setType(e, decls.TimestampType)
	default:
		c.errors.ReportError(c.location(e), "unsupported literal kind '%s'", e.AsLiteral().Type().TypeName())
		c.setType(e, decls.ErrorType)
	}
}

func (c *checker) checkIdent(e ast.Expr) {
	name := e.AsIdent()
	if ident := c.env.LookupIdent(name); ident != nil {
		c.setType(e, ident.Type)
		c.setReference(e, ast.NewIdentReference(ident.Name, ident.Value))
		return
	}
	c.setType(e, decls.ErrorType)
	c.errors.undeclaredReference(c.location(e), c.env.container.Name(), name)
}

func (c *checker) checkSelect(e ast.Expr) {
	sel := e.AsSelect()
	// Before descending, try to interpret the whole select chain as a
	// qualified name so pkg.Enum.VALUE and pkg.var resolve as one unit.
	if qname, found := containers.ToQualifiedName(e); found {
		if ident := c.env.LookupIdent(qname); ident != nil {
			if sel.IsTestOnly() {
				c.errors.expressionDoesNotSelectField(c.location(e))
				c.setType(e, decls.BoolType)
				return
			}
			c.setType(e, ident.Type)
			c.setReference(e, ast.NewIdentReference(ident.Name, ident.Value))
			return
		}
	}

	c.check(sel.Operand())
	targetType := decls.Substitute(c.mappings, c.getType(sel.Operand()), false)
	resultType := decls.ErrorType

	switch targetType.Kind {
	case decls.MapKind:
		resultType = targetType.Parameters[1]
	case decls.StructKind:
		if fieldType, found := c.lookupFieldType(c.location(e), targetType, sel.FieldName()); found {
			resultType = fieldType.Type
		} else {
			resultType = decls.DynType
		}
	case decls.TypeParamKind:
		// Bind the param to dyn so later uses of the same variable agree.
		c.isAssignable(decls.DynType, targetType)
		resultType = decls.DynType
	case decls.DynKind, decls.AnyKind:
		resultType = decls.DynType
	default:
		c.errors.typeDoesNotSupportFieldSelection(c.location(e), targetType)
	}

	if sel.IsTestOnly() {
		resultType = decls.BoolType
	}
	c.setType(e, resultType)
}

func (c *checker) checkCall(e ast.Expr) {
	call := e.AsCall()
	args := call.Args()
	for _, arg := range args {
		c.check(arg)
	}

	var resolution *overloadResolution
	if !call.IsMemberFunction() {
		if fn := c.env.LookupFunction(call.FunctionName()); fn != nil {
			resolution = c.resolveOverload(c.location(e), fn, nil, args)
			if resolution != nil {
				// Record the canonical name so a container-qualified
				// function dispatches under its registered name.
				resolution.Reference.Name = fn.Name
			}
		} else {
			c.errors.undeclaredReference(c.location(e), c.env.container.Name(), call.FunctionName())
		}
	} else {
		// A member call target may itself be a namespace prefix, in which
		// case the call is a global function under the qualified name.
		if qname, found := containers.ToQualifiedName(call.Target()); found {
			if fn := c.env.LookupFunction(qname + "." + call.FunctionName()); fn != nil {
				resolution = c.resolveOverload(c.location(e), fn, nil, args)
				if resolution != nil {
					resolution.Reference.Name = fn.Name
				}
			}
		}
		if resolution == nil {
			c.check(call.Target())
			if fn := c.env.LookupFunction(call.FunctionName()); fn != nil {
				resolution = c.resolveOverload(c.location(e), fn, call.Target(), args)
			} else {
				c.errors.undeclaredReference(c.location(e), c.env.container.Name(), call.FunctionName())
			}
		}
	}

	if resolution != nil {
		c.setType(e, resolution.Type)
		c.setReference(e, resolution.Reference)
	} else {
		c.setType(e, decls.ErrorType)
	}
}

// resolveOverload filters fn's overloads to those matching the call shape
// and arity, then tests argument assignability under a scratch substitution
// per candidate, with fresh type variables standing in for each candidate's
// declared type parameters.
func (c *checker) resolveOverload(loc common.Location, fn *decls.FunctionDecl, target ast.Expr, args []ast.Expr) *overloadResolution {
	var argTypes []*decls.Type
	if target != nil {
		argTypes = append(argTypes, c.getType(target))
	}
	for _, arg := range args {
		argTypes = append(argTypes, c.getType(arg))
	}

	var resultType *decls.Type
	var checkedRef *ast.ReferenceInfo
	for _, id := range fn.OverloadIDs() {
		overload := fn.Overloads[id]
		if (target == nil && overload.IsMemberFunction) ||
			(target != nil && !overload.IsMemberFunction) {
			continue
		}
		if len(overload.ArgTypes) != len(argTypes) {
			continue
		}

		candidateArgTypes := overload.ArgTypes
		candidateResultType := overload.ResultType
		if params := typeParamNames(overload); len(params) > 0 {
			// Instantiate the overload with fresh type variables so two
			// calls to the same parametric overload never share bindings.
			substitutions := decls.NewMapping()
			for _, param := range params {
				substitutions.Add(decls.TypeParamType(param), c.newTypeVar())
			}
			instantiated := make([]*decls.Type, len(candidateArgTypes))
			for i, t := range candidateArgTypes {
				instantiated[i] = decls.Substitute(substitutions, t, false)
			}
			candidateArgTypes = instantiated
			candidateResultType = decls.Substitute(substitutions, candidateResultType, false)
		}

		if c.isAssignableList(argTypes, candidateArgTypes) {
			if checkedRef == nil {
				checkedRef = ast.NewFunctionReference(overload.ID)
			} else {
				checkedRef.AddOverload(overload.ID)
			}
			substituted := decls.Substitute(c.mappings, candidateResultType, false)
			if resultType == nil {
				resultType = substituted
			} else if !resultType.IsType(substituted) {
				// Matching overloads disagree on the result; report dyn.
				resultType = decls.DynType
			}
		}
	}

	if resultType == nil {
		c.errors.noMatchingOverload(loc, fn.Name, argTypes, target != nil)
		return nil
	}
	return &overloadResolution{Reference: checkedRef, Type: resultType}
}

func (c *checker) checkCreateList(e ast.Expr) {
	create := e.AsList()
	var elemType *decls.Type
	for _, elem := range create.Elements() {
		c.check(elem)
		elemType = c.joinTypes(c.location(elem), elemType, c.getType(elem))
	}
	if elemType == nil {
		// Empty list literal: a free type variable that widens to dyn at
		// finalization unless context binds it.
		elemType = c.newTypeVar()
	}
	c.setType(e, decls.ListType(elemType))
}

func (c *checker) checkCreateMap(e ast.Expr) {
	create := e.AsMap()
	var keyType, valueType *decls.Type
	for _, entry := range create.Entries() {
		ent := entry.AsMapEntry()
		c.check(ent.Key())
		keyType = c.joinTypes(c.location(ent.Key()), keyType, c.getType(ent.Key()))
		c.check(ent.Value())
		valueType = c.joinTypes(c.location(ent.Value()), valueType, c.getType(ent.Value()))
	}
	if keyType == nil {
		keyType = c.newTypeVar()
		valueType = c.newTypeVar()
	}
	c.setType(e, decls.MapType(keyType, valueType))
}

func (c *checker) checkCreateStruct(e ast.Expr) {
	str := e.AsStruct()
	messageType := decls.ErrorType
	decl := c.env.LookupIdent(str.TypeName())
	if decl == nil {
		c.setType(e, decls.ErrorType)
		c.errors.undeclaredReference(c.location(e), c.env.container.Name(), str.TypeName())
		return
	}
	c.setReference(e, ast.NewIdentReference(decl.Name, nil))

	identType := decl.Type
	if identType.Kind != decls.TypeKind || len(identType.Parameters) != 1 {
		c.errors.notAType(c.location(e), identType)
	} else {
		messageType = identType.Parameters[0]
		if messageType.Kind != decls.StructKind {
			c.errors.notAMessageType(c.location(e), messageType)
			messageType = decls.ErrorType
		}
	}
	c.setType(e, messageType)

	for _, entry := range str.Fields() {
		field := entry.AsStructField()
		c.check(field.Value())

		fieldType := decls.ErrorType
		if ft, found := c.lookupFieldType(c.locationByID(entry.ID()), messageType, field.Name()); found {
			fieldType = ft.Type
		}
		if !c.isAssignable(fieldType, c.getType(field.Value())) {
			c.errors.fieldTypeMismatch(c.locationByID(entry.ID()), field.Name(), fieldType, c.getType(field.Value()))
		}
	}
}

func (c *checker) checkComprehension(e ast.Expr) {
	comp := e.AsComprehension()
	c.check(comp.IterRange())
	c.check(comp.AccuInit())
	accuType := c.getType(comp.AccuInit())
	rangeType := decls.Substitute(c.mappings, c.getType(comp.IterRange()), false)
	var varType *decls.Type

	switch rangeType.Kind {
	case decls.ListKind:
		varType = rangeType.Parameters[0]
	case decls.MapKind:
		// Map comprehensions range over the keys.
		varType = rangeType.Parameters[0]
	case decls.DynKind, decls.AnyKind:
		varType = decls.DynType
	case decls.TypeParamKind:
		c.isAssignable(decls.DynType, rangeType)
		varType = decls.DynType
	default:
		c.errors.notAComprehensionRange(c.location(comp.IterRange()), rangeType)
		varType = decls.DynType
	}

	c.env.enterScope()
	c.env.AddIdents(decls.NewVariable(comp.AccuVar(), accuType))
	// The iteration variable lives in an inner scope so the result
	// expression may only reference the accumulator.
	c.env.enterScope()
	c.env.AddIdents(decls.NewVariable(comp.IterVar(), varType))
	c.check(comp.LoopCondition())
	c.assertType(comp.LoopCondition(), decls.BoolType)
	c.check(comp.LoopStep())
	c.assertType(comp.LoopStep(), accuType)
	c.env.exitScope()
	c.check(comp.Result())
	c.env.exitScope()
	c.setType(e, c.getType(comp.Result()))
}

// joinTypes returns the most general type compatible with both operands,
// reporting an aggregate mismatch when they cannot be unified.
func (c *checker) joinTypes(loc common.Location, previous, current *decls.Type) *decls.Type {
	if previous == nil {
		return current
	}
	if c.isAssignable(previous, current) {
		return mostGeneral(previous, current)
	}
	c.errors.aggregateTypeMismatch(loc, previous, current)
	return previous
}

func mostGeneral(t1, t2 *decls.Type) *decls.Type {
	if t1.Kind == decls.DynKind {
		return t1
	}
	if t2.Kind == decls.DynKind {
		return t2
	}
	return t1
}

func (c *checker) newTypeVar() *decls.Type {
	id := c.freeTypeVarCounter
	c.freeTypeVarCounter++
	return decls.TypeParamType(fmt.Sprintf("_var%d", id))
}

func (c *checker) isAssignable(t1, t2 *decls.Type) bool {
	if subs := decls.IsAssignable(c.mappings, t1, t2); subs != nil {
		c.mappings = subs
		return true
	}
	return false
}

func (c *checker) isAssignableList(l1, l2 []*decls.Type) bool {
	if subs := decls.IsAssignableList(c.mappings, l1, l2); subs != nil {
		c.mappings = subs
		return true
	}
	return false
}

func (c *checker) lookupFieldType(l common.Location, structType *decls.Type, fieldName string) (*FieldType, bool) {
	if ft, found := c.env.provider.LookupFieldType(structType.RuntimeTypeName(), fieldName); found {
		return ft, true
	}
	c.errors.undefinedField(l, fieldName)
	return nil, false
}

func (c *checker) assertType(e ast.Expr, t *decls.Type) {
	if !c.isAssignable(t, c.getType(e)) {
		c.errors.typeMismatch(c.location(e), t, c.getType(e))
	}
}

func (c *checker) setType(e ast.Expr, t *decls.Type) {
	c.types[e.ID()] = t
}

func (c *checker) getType(e ast.Expr) *decls.Type {
	if t, found := c.types[e.ID()]; found {
		return t
	}
	return decls.ErrorType
}

func (c *checker) setReference(e ast.Expr, r *ast.ReferenceInfo) {
	c.references[e.ID()] = r
}

type overloadResolution struct {
	Reference *ast.ReferenceInfo
	Type      *decls.Type
}

// typeParamNames collects the type parameter names referenced anywhere in
// the overload's signature, in first-occurrence order.
func typeParamNames(overload *decls.OverloadDecl) []string {
	seen := map[string]bool{}
	var names []string
	var collect func(t *decls.Type)
	collect = func(t *decls.Type) {
		if t.Kind == decls.TypeParamKind {
			if !seen[t.RuntimeTypeName()] {
				seen[t.RuntimeTypeName()] = true
				names = append(names, t.RuntimeTypeName())
			}
			return
		}
		for _, p := range t.Parameters {
			collect(p)
		}
	}
	for _, t := range overload.ArgTypes {
		collect(t)
	}
	collect(overload.ResultType)
	return names
}

func (c *checker) location(e ast.Expr) common.Location {
	return c.locationByID(e.ID())
}

func (c *checker) locationByID(id int64) common.Location {
	if c.sourceInfo == nil || c.source == nil {
		return common.NoLocation
	}
	if offset, found := c.sourceInfo.GetOffset(id); found {
		return c.source.OffsetLocation(offset)
	}
	return common.NoLocation
}
