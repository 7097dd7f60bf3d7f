package mir

import (
	"fmt"

	"borrowck/internal/source"
)

// Location addresses a single program point inside a function: instruction
// Index within Block, with Index == len(Instrs) addressing the terminator.
type Location struct {
	Block BlockID
	Index int32
}

func (l Location) String() string {
	return fmt.Sprintf("bb%d[%d]", l.Block, l.Index)
}

// Compare orders locations by block then index.
func (l Location) Compare(other Location) int {
	if l.Block != other.Block {
		if l.Block < other.Block {
			return -1
		}
		return 1
	}
	if l.Index != other.Index {
		if l.Index < other.Index {
			return -1
		}
		return 1
	}
	return 0
}

// InstrAt returns the instruction at the location, nil when the location
// addresses a terminator or is out of range.
func (f *Func) InstrAt(loc Location) *Instr {
	b := f.Block(loc.Block)
	if b == nil || loc.Index < 0 || int(loc.Index) >= len(b.Instrs) {
		return nil
	}
	return &b.Instrs[loc.Index]
}

// TermLocation addresses the terminator of the given block.
func (f *Func) TermLocation(id BlockID) Location {
	b := f.Block(id)
	if b == nil {
		return Location{Block: id}
	}
	return Location{Block: id, Index: int32(len(b.Instrs))}
}

// IsTerminator reports whether the location addresses the block terminator.
func (f *Func) IsTerminator(loc Location) bool {
	b := f.Block(loc.Block)
	return b != nil && int(loc.Index) == len(b.Instrs)
}

// SpanAt returns the source span recorded at the location: the instruction's
// span, or the terminator's when the location addresses one.
func (f *Func) SpanAt(loc Location) source.Span {
	if ins := f.InstrAt(loc); ins != nil {
		return ins.Span
	}
	if b := f.Block(loc.Block); b != nil && int(loc.Index) == len(b.Instrs) {
		return b.Term.Span
	}
	return source.Span{}
}

// ReversePostorder returns reachable blocks in reverse postorder starting at
// the entry. Dataflow sweeps use it so facts propagate forward in as few
// passes as possible.
func ReversePostorder(f *Func) []BlockID {
	if f == nil || len(f.Blocks) == 0 {
		return nil
	}
	visited := make([]bool, len(f.Blocks))
	post := make([]BlockID, 0, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || visited[id] {
			return
		}
		visited[id] = true
		for _, succ := range f.Blocks[id].Term.Successors() {
			visit(succ)
		}
		post = append(post, id)
	}
	visit(f.Entry)

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
