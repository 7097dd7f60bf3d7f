package mir_test

import (
	"testing"

	"borrowck/internal/mir"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// TestLocationCompare tests location ordering within a function.
func TestLocationCompare(t *testing.T) {
	a := mir.Location{Block: 0, Index: 0}
	b := mir.Location{Block: 0, Index: 1}
	c := mir.Location{Block: 1, Index: 0}

	if a.Compare(b) >= 0 {
		t.Error("expected bb0[0] < bb0[1]")
	}
	if b.Compare(c) >= 0 {
		t.Error("expected bb0[1] < bb1[0]")
	}
	if c.Compare(c) != 0 {
		t.Error("expected bb1[0] == bb1[0]")
	}
	if c.Compare(a) <= 0 {
		t.Error("expected bb1[0] > bb0[0]")
	}
	if got := b.String(); got != "bb0[1]" {
		t.Errorf("String = %q, want %q", got, "bb0[1]")
	}
}

// TestLocationAccess tests instruction and terminator addressing.
func TestLocationAccess(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int

	instrSpan := source.Span{Start: 10, End: 15}
	termSpan := source.Span{Start: 20, End: 26}

	f := &mir.Func{
		Name: "test",
		Locals: []mir.Local{
			{Name: "x", Type: intType},
		},
		Blocks: []mir.Block{
			{
				Instrs: []mir.Instr{
					{
						Kind: mir.InstrAssign,
						Span: instrSpan,
						Assign: mir.AssignInstr{
							Dst: mir.LocalPlace(0),
							Src: mir.UseOf(mir.IntConst(1, intType)),
						},
					},
				},
				Term: mir.Terminator{
					Kind: mir.TermReturn,
					Span: termSpan,
				},
			},
		},
	}

	instrLoc := mir.Location{Block: 0, Index: 0}
	if ins := f.InstrAt(instrLoc); ins == nil || ins.Kind != mir.InstrAssign {
		t.Error("expected assign instruction at bb0[0]")
	}
	if f.IsTerminator(instrLoc) {
		t.Error("bb0[0] should not address the terminator")
	}
	if got := f.SpanAt(instrLoc); got != instrSpan {
		t.Errorf("SpanAt(bb0[0]) = %v, want %v", got, instrSpan)
	}

	termLoc := f.TermLocation(0)
	if termLoc.Index != 1 {
		t.Errorf("TermLocation index = %d, want 1", termLoc.Index)
	}
	if f.InstrAt(termLoc) != nil {
		t.Error("expected no instruction at the terminator location")
	}
	if !f.IsTerminator(termLoc) {
		t.Error("expected terminator location to address the terminator")
	}
	if got := f.SpanAt(termLoc); got != termSpan {
		t.Errorf("SpanAt(term) = %v, want %v", got, termSpan)
	}
}

// TestReversePostorder tests block ordering on a diamond CFG.
func TestReversePostorder(t *testing.T) {
	typeInterner := types.NewInterner()
	boolType := typeInterner.Builtins().Bool

	// bb0 -> bb1 -> bb3
	//     -> bb2 -> bb3
	// bb4 unreachable
	f := &mir.Func{
		Name:  "test",
		Entry: 0,
		Locals: []mir.Local{
			{Name: "cond", Type: boolType},
		},
		Blocks: []mir.Block{
			{
				ID: 0,
				Term: mir.Terminator{
					Kind: mir.TermIf,
					If: mir.IfTerm{
						Cond: mir.CopyOf(mir.LocalPlace(0), boolType),
						Then: 1,
						Else: 2,
					},
				},
			},
			{
				ID:   1,
				Term: mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: 3}},
			},
			{
				ID:   2,
				Term: mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: 3}},
			},
			{
				ID:   3,
				Term: mir.Terminator{Kind: mir.TermReturn},
			},
			{
				ID:   4,
				Term: mir.Terminator{Kind: mir.TermUnreachable},
			},
		},
	}

	order := mir.ReversePostorder(f)

	if len(order) != 4 {
		t.Fatalf("expected 4 reachable blocks, got %d (%v)", len(order), order)
	}
	if order[0] != 0 {
		t.Errorf("expected entry first, got bb%d", order[0])
	}
	pos := make(map[mir.BlockID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if _, ok := pos[4]; ok {
		t.Error("unreachable block included in order")
	}
	// Both branch blocks come before the join.
	if pos[1] > pos[3] || pos[2] > pos[3] {
		t.Errorf("join block ordered before its predecessors: %v", order)
	}
}
