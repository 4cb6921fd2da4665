package common

import "regexp"

var lineRegexp = regexp.MustCompile("(?m)^")

// Source is a named body of text a checker's diagnostics are reported
// against: a display name (for "ERROR: <name>:<line>:<col>: ..." messages)
// and the means to recover a byte offset's line/column and the snippet
// text for that line.
type Source interface {
	Name() string
	Content() string
	Snippet(line int) (string, bool)

	// OffsetLocation converts a byte offset within Content() into a
	// Location, in the style of the original implementation's
	// SourceInfo.LineOffsets walk.
	OffsetLocation(offset int32) Location
}

// TextSource is a Source backed by an in-memory string, with line offsets
// precomputed once at construction.
type TextSource struct {
	name        string
	contents    string
	lineOffsets []int32
}

var _ Source = &TextSource{}

// NewTextSource builds a TextSource from literal text, e.g. the
// expression string an embedding application is about to check.
func NewTextSource(name, contents string) *TextSource {
	offsets := make([]int32, 0, 1)
	for _, m := range lineRegexp.FindAllStringIndex(contents, -1) {
		offsets = append(offsets, int32(m[0]))
	}
	return &TextSource{name: name, contents: contents, lineOffsets: offsets}
}

func (s *TextSource) Name() string {
	return s.name
}

func (s *TextSource) Content() string {
	return s.contents
}

func (s *TextSource) Snippet(line int) (string, bool) {
	if s.contents == "" || line < 1 || line > len(s.lineOffsets) {
		return "", false
	}
	start := int(s.lineOffsets[line-1])
	end := len(s.contents)
	if line < len(s.lineOffsets) {
		end = int(s.lineOffsets[line])
	}
	return s.contents[start:end], true
}

// OffsetLocation walks the precomputed line offsets to find the 1-based
// line and 0-based column containing the given byte offset.
func (s *TextSource) OffsetLocation(offset int32) Location {
	line := 1
	col := int(offset)
	for i, lineOffset := range s.lineOffsets {
		if i == 0 {
			continue
		}
		if lineOffset > offset {
			break
		}
		line++
		col = int(offset - lineOffset)
	}
	return NewLocation(line, col)
}
