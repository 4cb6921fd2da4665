package ast

// SourceInfo maps expression node IDs back to the byte offset within the
// originating Source they were built from, the way the original
// implementation's parser-generated SourceInfo does. Since grammar parsing
// is out of scope for this module (SPEC_FULL.md's ambient-stack
// boundaries), a SourceInfo is instead built directly by whatever
// constructs the AST: a macro expander, a test fixture, or an embedding
// application's own front end.
type SourceInfo struct {
	Description string
	Positions   map[int64]int32
}

// NewSourceInfo creates an empty SourceInfo for the named input.
func NewSourceInfo(description string) *SourceInfo {
	return &SourceInfo{
		Description: description,
		Positions:   map[int64]int32{},
	}
}

// SetOffset records the byte offset at which expression id begins.
func (info *SourceInfo) SetOffset(id int64, offset int32) {
	info.Positions[id] = offset
}

// GetOffset returns the byte offset recorded for id, if any.
func (info *SourceInfo) GetOffset(id int64) (int32, bool) {
	offset, found := info.Positions[id]
	return offset, found
}
