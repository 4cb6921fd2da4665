package checker

import (
	"strings"

	"github.com/exprcore/celcore/common"
	"github.com/exprcore/celcore/common/decls"
)

// typeErrors specializes common.Errors with the checker's issue taxonomy:
// undeclared-reference, undefined-field, type-mismatch, no-matching-
// overload, not-a-message-type, unexpected-type, incompatible-types.
type typeErrors struct {
	*common.Errors
}

func (e *typeErrors) undeclaredReference(l common.Location, container, name string) {
	e.ReportError(l, "undeclared reference to '%s' (in container '%s')", name, container)
}

func (e *typeErrors) undefinedField(l common.Location, field string) {
	e.ReportError(l, "undefined field '%s'", field)
}

func (e *typeErrors) typeMismatch(l common.Location, expected, actual *decls.Type) {
	e.ReportError(l, "expected type '%s' but found '%s'", expected, actual)
}

func (e *typeErrors) noMatchingOverload(l common.Location, name string, argTypes []*decls.Type, isInstance bool) {
	signature := formatFunctionSignature(argTypes, isInstance)
	e.ReportError(l, "found no matching overload for '%s' applied to '%s'", name, signature)
}

func (e *typeErrors) notAType(l common.Location, t *decls.Type) {
	e.ReportError(l, "'%s' is not a type", t)
}

func (e *typeErrors) notAMessageType(l common.Location, t *decls.Type) {
	e.ReportError(l, "'%s' is not a message type", t)
}

func (e *typeErrors) fieldTypeMismatch(l common.Location, name string, field, value *decls.Type) {
	e.ReportError(l, "expected type of field '%s' is '%s' but provided type is '%s'", name, field, value)
}

func (e *typeErrors) typeDoesNotSupportFieldSelection(l common.Location, t *decls.Type) {
	e.ReportError(l, "type '%s' does not support field selection", t)
}

func (e *typeErrors) expressionDoesNotSelectField(l common.Location) {
	e.ReportError(l, "expression does not select a field")
}

func (e *typeErrors) aggregateTypeMismatch(l common.Location, aggregate, member *decls.Type) {
	e.ReportError(l,
		"type '%s' does not match previous type '%s' in aggregate. Use 'dyn(x)' to make the aggregate dynamic.",
		member, aggregate)
}

func (e *typeErrors) notAComprehensionRange(l common.Location, t *decls.Type) {
	e.ReportError(l,
		"expression of type '%s' cannot be range of a comprehension (must be list, map, or dynamic)", t)
}

func formatFunctionSignature(argTypes []*decls.Type, isInstance bool) string {
	args := make([]string, len(argTypes))
	for i, t := range argTypes {
		args[i] = t.String()
	}
	if isInstance {
		return args[0] + ".(" + strings.Join(args[1:], ", ") + ")"
	}
	return "(" + strings.Join(args, ", ") + ")"
}
