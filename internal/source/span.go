package source

import (
	"fmt"
)

type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// SameText reports whether two spans cover the same byte range of the same
// file. Conflict reports use this to recognize an access that re-executes
// the instruction that moved the value (a loop back-edge).
func (s Span) SameText(other Span) bool {
	return s.File == other.File && s.Start == other.Start && s.End == other.End
}
