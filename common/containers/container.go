// Package containers resolves qualified names within a namespace, the way
// a C++ translation unit resolves an unqualified name against its
// enclosing namespaces before falling back to the global scope.
package containers

import (
	"fmt"
	"strings"

	"github.com/exprcore/celcore/common/ast"
)

// DefaultContainer is the container with an empty name, the starting point
// for any environment that does not configure one.
var DefaultContainer *Container = nil

var noAliases = make(map[string]string)

// Container holds a qualified namespace name and a set of simple-name
// aliases, used by the checker to turn an unqualified identifier or
// message type name into the fully-qualified declaration it refers to.
type Container struct {
	name    string
	aliases map[string]string
}

// NewContainer builds a Container from a series of options.
func NewContainer(opts ...ContainerOption) (*Container, error) {
	var c *Container
	var err error
	for _, opt := range opts {
		c, err = opt(c)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Extend returns a new Container carrying c's name and aliases, with opts
// applied on top.
func (c *Container) Extend(opts ...ContainerOption) (*Container, error) {
	if c == nil {
		return NewContainer(opts...)
	}
	ext := &Container{name: c.Name()}
	if len(c.aliasSet()) > 0 {
		aliasSet := make(map[string]string, len(c.aliasSet()))
		for k, v := range c.aliasSet() {
			aliasSet[k] = v
		}
		ext.aliases = aliasSet
	}
	var err error
	for _, opt := range opts {
		ext, err = opt(ext)
		if err != nil {
			return nil, err
		}
	}
	return ext, nil
}

// Name returns the fully-qualified namespace name, "" for the default
// container.
func (c *Container) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// ResolveCandidateNames returns the candidate fully-qualified names for an
// unqualified reference to name, most-specific first.
//
// A leading '.' marks name as already absolute: the dot is stripped and the
// rest is the only container-based candidate (an absolute reference can
// never be shadowed). Otherwise, given a container
// a.b.c and a reference R, the candidates are:
//
//	a.b.c.R
//	a.b.R
//	a.R
//	R
//
// Configured aliases for name are appended after the container-based
// candidates.
func (c *Container) ResolveCandidateNames(name string) []string {
	if strings.HasPrefix(name, ".") {
		qn := name[1:]
		return c.candidatesWithAlias([]string{qn}, qn)
	}
	if c.Name() == "" {
		return c.candidatesWithAlias([]string{name}, name)
	}
	nextCont := c.name
	candidates := []string{nextCont + "." + name}
	for i := strings.LastIndex(nextCont, "."); i >= 0; i = strings.LastIndex(nextCont, ".") {
		nextCont = nextCont[:i]
		candidates = append(candidates, nextCont+"."+name)
	}
	candidates = append(candidates, name)
	return c.candidatesWithAlias(candidates, name)
}

func (c *Container) aliasSet() map[string]string {
	if c == nil || c.aliases == nil {
		return noAliases
	}
	return c.aliases
}

func (c *Container) candidatesWithAlias(candidates []string, name string) []string {
	if len(c.aliasSet()) == 0 {
		return candidates
	}
	if alias, found := c.aliasSet()[name]; found {
		return append(candidates, alias)
	}
	return candidates
}

// ContainerOption configures a Container.
type ContainerOption func(*Container) (*Container, error)

// Aliases derives a simple-name alias from the last dot-delimited segment
// of each qualified name, e.g. "pkg.sub.Name" aliases to "Name".
func Aliases(qualifiedNames ...string) ContainerOption {
	return func(c *Container) (*Container, error) {
		for _, qn := range qualifiedNames {
			ind := strings.LastIndex(qn, ".")
			if ind <= 0 || ind >= len(qn)-1 {
				return nil, fmt.Errorf(
					"invalid qualified name: %s, wanted name of the form 'qualified.name'", qn)
			}
			alias := qn[ind+1:]
			var err error
			c, err = AliasAs(qn, alias)(c)
			if err != nil {
				return nil, err
			}
		}
		return c, nil
	}
}

// AliasAs associates qualifiedName with a caller-chosen alias, rather than
// the last-segment alias Aliases would derive.
func AliasAs(qualifiedName, alias string) ContainerOption {
	return func(c *Container) (*Container, error) {
		if len(alias) == 0 || strings.Contains(alias, ".") {
			return nil, fmt.Errorf(
				"alias names must be non-empty and simple (not qualified): alias=%s", alias)
		}
		ind := strings.LastIndex(qualifiedName, ".")
		if ind <= 0 || ind == len(qualifiedName)-1 {
			return nil, fmt.Errorf("aliases must refer to qualified names: %s", qualifiedName)
		}
		if existing, found := c.aliasSet()[alias]; found {
			return nil, fmt.Errorf(
				"alias collides with existing reference: name=%s, alias=%s, existing=%s",
				qualifiedName, alias, existing)
		}
		if strings.HasPrefix(c.Name(), alias+".") || c.Name() == alias {
			return nil, fmt.Errorf(
				"alias collides with container name: name=%s, alias=%s, container=%s",
				qualifiedName, alias, c.Name())
		}
		if c == nil {
			c = &Container{}
		}
		if c.aliases == nil {
			c.aliases = make(map[string]string)
		}
		c.aliases[alias] = qualifiedName
		return c, nil
	}
}

// Name sets the Container's fully-qualified namespace name.
func Name(name string) ContainerOption {
	return func(c *Container) (*Container, error) {
		if c.Name() == name {
			return c, nil
		}
		if c == nil {
			return &Container{name: name}, nil
		}
		c.name = name
		return c, nil
	}
}

// ToQualifiedName renders e as a dotted qualified name if it is a chain of
// selects rooted at an identifier, e.g. `a.b.c`, the form the checker's
// qualified-select pre-pass tests against declared identifiers before
// treating the expression as a field selection.
func ToQualifiedName(e ast.Expr) (string, bool) {
	switch e.Kind() {
	case ast.IdentKind:
		return e.AsIdent(), true
	case ast.SelectKind:
		sel := e.AsSelect()
		if sel.IsTestOnly() {
			return "", false
		}
		if qual, found := ToQualifiedName(sel.Operand()); found {
			return qual + "." + sel.FieldName(), true
		}
	}
	return "", false
}
