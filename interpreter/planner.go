package interpreter

import (
	"fmt"

	"github.com/exprcore/celcore/common/ast"
	"github.com/exprcore/celcore/common/containers"
	"github.com/exprcore/celcore/common/operators"
	"github.com/exprcore/celcore/common/types"
	"github.com/exprcore/celcore/common/types/ref"
)

// planner lowers a checked (or unchecked) AST into an interpretable tree.
// Reference resolution happens once here rather than per evaluation: the
// refMap supplies canonical identifier names and candidate overload ids
// when the checker ran, and the container's candidate names stand in when
// it did not.
type planner struct {
	disp      Dispatcher
	provider  ref.TypeProvider
	adapter   ref.TypeAdapter
	container *containers.Container
	refMap    map[int64]*ast.ReferenceInfo
	pure      map[string]bool
}

func (p *planner) Plan(e ast.Expr) (Interpretable, error) {
	switch e.Kind() {
	case ast.LiteralKind:
		return NewConstValue(e.ID(), e.AsLiteral()), nil
	case ast.IdentKind:
		return p.planIdent(e)
	case ast.SelectKind:
		return p.planSelect(e)
	case ast.CallKind:
		return p.planCall(e)
	case ast.ListKind:
		return p.planCreateList(e)
	case ast.MapKind:
		return p.planCreateMap(e)
	case ast.StructKind:
		return p.planCreateStruct(e)
	case ast.ComprehensionKind:
		return p.planComprehension(e)
	}
	return nil, fmt.Errorf("unsupported expr kind: %v", e.Kind())
}

func (p *planner) planIdent(e ast.Expr) (Interpretable, error) {
	name := e.AsIdent()
	if refInfo, found := p.refMap[e.ID()]; found {
		return p.planCheckedIdent(e.ID(), name, refInfo)
	}
	return &evalIdent{
		id:         e.ID(),
		name:       name,
		adapter:    p.adapter,
		candidates: p.container.ResolveCandidateNames(name),
	}, nil
}

func (p *planner) planCheckedIdent(id int64, name string, refInfo *ast.ReferenceInfo) (Interpretable, error) {
	if refInfo.Value != nil {
		// Constant and enum identifiers fold at plan time.
		return NewConstValue(id, refInfo.Value), nil
	}
	return &evalIdent{
		id:         id,
		name:       refInfo.Name,
		adapter:    p.adapter,
		candidates: []string{refInfo.Name},
	}, nil
}

func (p *planner) planSelect(e ast.Expr) (Interpretable, error) {
	sel := e.AsSelect()
	// A select chain the checker resolved as a qualified name plans as an
	// identifier; the operand subtree was never typed and is not planned.
	if refInfo, found := p.refMap[e.ID()]; found && refInfo.Name != "" {
		return p.planCheckedIdent(e.ID(), refInfo.Name, refInfo)
	}
	operand, err := p.Plan(sel.Operand())
	if err != nil {
		return nil, err
	}
	return &evalSelect{
		id:       e.ID(),
		operand:  operand,
		field:    sel.FieldName(),
		testOnly: sel.IsTestOnly(),
		provider: p.provider,
	}, nil
}

func (p *planner) planCall(e ast.Expr) (Interpretable, error) {
	call := e.AsCall()
	function := call.FunctionName()
	refInfo := p.refMap[e.ID()]

	var target ast.Expr
	if !call.IsMemberFunction() {
		if refInfo != nil && refInfo.Name != "" {
			function = refInfo.Name
		}
	} else {
		target = call.Target()
		if refInfo != nil && refInfo.Name != "" {
			// The checker resolved the target as a namespace prefix; the
			// call is global under the qualified name.
			function = refInfo.Name
			target = nil
		} else if refInfo == nil {
			// Unchecked: treat a qualified target as a namespace prefix
			// when a function of the qualified name is registered.
			if qname, found := containers.ToQualifiedName(target); found {
				if _, ok := p.disp.FindFunction(qname + "." + function); ok {
					function = qname + "." + function
					target = nil
				}
			}
		}
	}

	args := make([]Interpretable, 0, len(call.Args())+1)
	if target != nil {
		targetPlan, err := p.Plan(target)
		if err != nil {
			return nil, err
		}
		args = append(args, targetPlan)
	}
	for _, arg := range call.Args() {
		argPlan, err := p.Plan(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, argPlan)
	}

	switch function {
	case operators.LogicalAnd:
		return &evalAnd{id: e.ID(), terms: args}, nil
	case operators.LogicalOr:
		return &evalOr{id: e.ID(), terms: args}, nil
	case operators.Conditional:
		if len(args) != 3 {
			return nil, fmt.Errorf("conditional operator takes 3 args, got %d", len(args))
		}
		return &evalConditional{id: e.ID(), cond: args[0], truthy: args[1], falsy: args[2]}, nil
	case operators.Equals:
		if len(args) != 2 {
			return nil, fmt.Errorf("equality operator takes 2 args, got %d", len(args))
		}
		return &evalEq{id: e.ID(), lhs: args[0], rhs: args[1]}, nil
	case operators.NotEquals:
		if len(args) != 2 {
			return nil, fmt.Errorf("inequality operator takes 2 args, got %d", len(args))
		}
		return &evalNe{id: e.ID(), lhs: args[0], rhs: args[1]}, nil
	}

	var overloadIDs []string
	if refInfo != nil {
		overloadIDs = refInfo.OverloadIDs
	}
	node := &evalCall{
		id:          e.ID(),
		function:    function,
		overloadIDs: overloadIDs,
		args:        args,
		dispatcher:  p.disp,
	}
	return p.maybeFold(node), nil
}

// maybeFold evaluates a call at plan time when its binding is pure and all
// operands are literals; a fold that errors is kept as-is so the error
// surfaces with evaluation-time attribution.
func (p *planner) maybeFold(node *evalCall) Interpretable {
	if !p.pure[node.function] {
		return node
	}
	for _, arg := range node.args {
		if _, ok := arg.(InterpretableConst); !ok {
			return node
		}
	}
	val := node.Eval(EmptyActivation())
	if types.IsUnknownOrError(val) {
		return node
	}
	return NewConstValue(node.id, val)
}

func (p *planner) planCreateList(e ast.Expr) (Interpretable, error) {
	create := e.AsList()
	elems := make([]Interpretable, len(create.Elements()))
	for i, elem := range create.Elements() {
		elemPlan, err := p.Plan(elem)
		if err != nil {
			return nil, err
		}
		elems[i] = elemPlan
	}
	return &evalList{id: e.ID(), elems: elems}, nil
}

func (p *planner) planCreateMap(e ast.Expr) (Interpretable, error) {
	create := e.AsMap()
	entries := create.Entries()
	keys := make([]Interpretable, len(entries))
	vals := make([]Interpretable, len(entries))
	for i, entry := range entries {
		ent := entry.AsMapEntry()
		keyPlan, err := p.Plan(ent.Key())
		if err != nil {
			return nil, err
		}
		valPlan, err := p.Plan(ent.Value())
		if err != nil {
			return nil, err
		}
		keys[i] = keyPlan
		vals[i] = valPlan
	}
	return &evalMap{id: e.ID(), keys: keys, vals: vals}, nil
}

func (p *planner) planCreateStruct(e ast.Expr) (Interpretable, error) {
	str := e.AsStruct()
	typeName := str.TypeName()
	if refInfo, found := p.refMap[e.ID()]; found && refInfo.Name != "" {
		typeName = refInfo.Name
	} else if _, found := p.provider.FindStructType(typeName); !found {
		// Resolve the type name through the container for unchecked plans.
		for _, candidate := range p.container.ResolveCandidateNames(typeName) {
			if _, ok := p.provider.FindStructType(candidate); ok {
				typeName = candidate
				break
			}
		}
	}
	entries := str.Fields()
	fields := make([]string, len(entries))
	vals := make([]Interpretable, len(entries))
	for i, entry := range entries {
		field := entry.AsStructField()
		fields[i] = field.Name()
		valPlan, err := p.Plan(field.Value())
		if err != nil {
			return nil, err
		}
		vals[i] = valPlan
	}
	return &evalObj{id: e.ID(), typeName: typeName, fields: fields, vals: vals, provider: p.provider}, nil
}

func (p *planner) planComprehension(e ast.Expr) (Interpretable, error) {
	comp := e.AsComprehension()
	iterRange, err := p.Plan(comp.IterRange())
	if err != nil {
		return nil, err
	}
	accu, err := p.Plan(comp.AccuInit())
	if err != nil {
		return nil, err
	}
	cond, err := p.Plan(comp.LoopCondition())
	if err != nil {
		return nil, err
	}
	step, err := p.Plan(comp.LoopStep())
	if err != nil {
		return nil, err
	}
	result, err := p.Plan(comp.Result())
	if err != nil {
		return nil, err
	}
	return &evalFold{
		id:        e.ID(),
		accuVar:   comp.AccuVar(),
		iterVar:   comp.IterVar(),
		iterRange: iterRange,
		accu:      accu,
		cond:      cond,
		step:      step,
		result:    result,
	}, nil
}
