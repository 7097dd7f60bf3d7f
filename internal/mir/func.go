package mir

import (
	"borrowck/internal/source"
	"borrowck/internal/types"
)

type Func struct {
	ID   FuncID
	Name string
	Span source.Span

	Result types.TypeID

	Locals []Local
	Blocks []Block
	Entry  BlockID

	// Captures lists upvar names when this body is a closure, indexed by
	// Local.Upvar (1-based).
	Captures []CaptureDecl
}

// LocalData returns the descriptor for a local, nil when out of range.
func (f *Func) LocalData(id LocalID) *Local {
	if f == nil || id < 0 || int(id) >= len(f.Locals) {
		return nil
	}
	return &f.Locals[id]
}

// Block returns the block with the given ID, nil when out of range.
func (f *Func) Block(id BlockID) *Block {
	if f == nil || id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}

// CaptureFor resolves a local's capture declaration, nil when the local is
// not an upvar.
func (f *Func) CaptureFor(id LocalID) *CaptureDecl {
	l := f.LocalData(id)
	if l == nil || l.Upvar == 0 || int(l.Upvar) > len(f.Captures) {
		return nil
	}
	return &f.Captures[l.Upvar-1]
}
