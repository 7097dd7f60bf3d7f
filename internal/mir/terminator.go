package mir

import "borrowck/internal/source"

type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermGoto
	TermIf
	TermSwitch
	TermUnreachable
)

type Terminator struct {
	Kind TermKind
	Span source.Span

	Return ReturnTerm
	Goto   GotoTerm
	If     IfTerm
	Switch SwitchTerm
}

type ReturnTerm struct {
	HasValue bool
	Value    Operand
}

type GotoTerm struct {
	Target BlockID
}

type IfTerm struct {
	Cond Operand
	Then BlockID
	Else BlockID
}

// SwitchCase routes one union variant to a block.
type SwitchCase struct {
	Variant     uint32
	VariantName string
	Target      BlockID
}

type SwitchTerm struct {
	Value   Operand
	Cases   []SwitchCase
	Default BlockID
}

// Successors returns the terminator's outgoing edges.
func (t *Terminator) Successors() []BlockID {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Target}
	case TermIf:
		return []BlockID{t.If.Then, t.If.Else}
	case TermSwitch:
		out := make([]BlockID, 0, len(t.Switch.Cases)+1)
		for _, c := range t.Switch.Cases {
			out = append(out, c.Target)
		}
		return append(out, t.Switch.Default)
	default:
		return nil
	}
}
