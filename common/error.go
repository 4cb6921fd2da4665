package common

import (
	"fmt"
	"strings"
)

// Error is a single compile-time diagnostic: a checker Issue reported
// against a source location.
type Error struct {
	Location Location
	Message  string
	Source   Source
}

// ToDisplayString renders the error as "ERROR: name:line:col: message"
// followed by the offending source line and a caret under the column.
func (e *Error) ToDisplayString() string {
	name := "<input>"
	if e.Source != nil {
		name = e.Source.Name()
	}
	result := fmt.Sprintf("ERROR: %s:%d:%d: %s", name, e.Location.Line(), e.Location.Column()+1, e.Message)
	if e.Source == nil {
		return result
	}
	if snippet, found := e.Source.Snippet(e.Location.Line()); found {
		result += "\n | " + strings.TrimRight(snippet, "\n")
		result += "\n | " + strings.Repeat(".", e.Location.Column()) + "^"
	}
	return result
}
