package common

import "fmt"

// Errors is the checker's diagnostic collector: every Issue encountered
// during type checking (spec.md §4.2's taxonomy) is reported here rather
// than aborting the pass, so a single Check call can surface every problem
// in an expression at once.
type Errors struct {
	source Source
	errors []Error
}

// NewErrors returns a new Errors instance reporting against source.
func NewErrors(source Source) *Errors {
	return &Errors{source: source, errors: []Error{}}
}

// ReportError captures an error report from the caller.
func (e *Errors) ReportError(l Location, format string, args ...interface{}) {
	e.errors = append(e.errors, Error{
		Location: l,
		Message:  fmt.Sprintf(format, args...),
		Source:   e.source,
	})
}

// GetErrors returns all the errors accumulated so far.
func (e *Errors) GetErrors() []Error {
	return e.errors[:]
}

// Empty reports whether no errors have been recorded.
func (e *Errors) Empty() bool {
	return len(e.errors) == 0
}

func (e *Errors) String() string {
	result := ""
	for i, err := range e.errors {
		if i > 0 {
			result += "\n"
		}
		result += err.ToDisplayString()
	}
	return result
}
