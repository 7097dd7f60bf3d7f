package dataflow_test

import (
	"testing"

	"borrowck/internal/borrows"
	"borrowck/internal/dataflow"
	"borrowck/internal/mir"
	"borrowck/internal/moves"
	"borrowck/internal/types"
)

// TestMovedOutBranchJoin tests that a move inside one branch is still
// may-moved at the join and that a later whole-root write clears it.
func TestMovedOutBranchJoin(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	boolType := typeInterner.Builtins().Bool
	unitType := typeInterner.Builtins().Unit

	b := mir.NewFuncBuilder(0, "test", unitType)
	x := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "x", Mutable: true})
	tmp := b.AddLocal(mir.Local{Kind: mir.LocalTemp, Type: intType, Name: "t"})

	then := b.NewBlock()
	els := b.NewBlock()
	join := b.NewBlock()

	// x = 1
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(x),
			Src: mir.UseOf(mir.IntConst(1, intType)),
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermIf, If: mir.IfTerm{
		Cond: mir.BoolConst(true, boolType),
		Then: then,
		Else: els,
	}})

	// then: t = move x
	b.StartBlock(then)
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(tmp),
			Src: mir.UseOf(mir.MoveOf(mir.LocalPlace(x), intType)),
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: join}})

	b.StartBlock(els)
	b.SetTerm(&mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: join}})

	// join: x = 2
	b.StartBlock(join)
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(x),
			Src: mir.UseOf(mir.IntConst(2, intType)),
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	d := moves.Gather(f)
	r := dataflow.Solve(f, dataflow.NewMovedOut(d))

	moveSite := d.AtLoc[mir.Location{Block: then, Index: 0}]
	if len(moveSite) != 1 {
		t.Fatalf("move sites in then-branch = %v, want one", moveSite)
	}

	// The init killed the entry seed, so the join entry holds only the move.
	at := r.EntryOf(join)
	if !at.Has(moveSite[0]) {
		t.Errorf("join entry missing the branch move: %v", at.Items())
	}
	if at.Len() != 1 {
		t.Errorf("join entry = %v, want the move site only", at.Items())
	}

	// The reassignment kills it before the terminator.
	after := r.StateAt(f.TermLocation(join))
	if after.Has(moveSite[0]) {
		t.Error("whole-root write did not clear the move")
	}
}

// TestMovedOutSelfMove tests that an instruction moving out of the path it
// assigns leaves the path initialized.
func TestMovedOutSelfMove(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	unitType := typeInterner.Builtins().Unit

	b := mir.NewFuncBuilder(0, "test", unitType)
	x := b.AddLocal(mir.Local{Kind: mir.LocalArg, Type: intType, Name: "x", Mutable: true})

	// x = move x
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(x),
			Src: mir.UseOf(mir.MoveOf(mir.LocalPlace(x), intType)),
		},
	})
	b.Emit(&mir.Instr{Kind: mir.InstrNop})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	d := moves.Gather(f)
	r := dataflow.Solve(f, dataflow.NewMovedOut(d))

	after := r.StateAt(mir.Location{Block: 0, Index: 1})
	if after.Len() != 0 {
		t.Errorf("state after self-move = %v, want empty", after.Items())
	}
}

// TestMovedOutEntrySeeds tests that an uninitialized user local is in-state
// from entry until its first write.
func TestMovedOutEntrySeeds(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	unitType := typeInterner.Builtins().Unit

	b := mir.NewFuncBuilder(0, "test", unitType)
	y := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "y"})

	// y = 1
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(y),
			Src: mir.UseOf(mir.IntConst(1, intType)),
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	d := moves.Gather(f)
	r := dataflow.Solve(f, dataflow.NewMovedOut(d))

	before := r.StateAt(mir.Location{Block: 0, Index: 0})
	if before.Len() != 1 {
		t.Fatalf("entry state = %v, want the uninit seed", before.Items())
	}
	if d.Site(before.Items()[0]).Kind != moves.SiteUninit {
		t.Error("entry fact is not an uninit seed")
	}
	after := r.StateAt(f.TermLocation(0))
	if after.Len() != 0 {
		t.Errorf("state after first write = %v, want empty", after.Items())
	}
}

// TestLiveBorrowsInterval tests reservation, explicit end and re-point kills.
func TestLiveBorrowsInterval(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	unitType := typeInterner.Builtins().Unit
	refMutType := typeInterner.Intern(types.MakeReference(intType, true))

	b := mir.NewFuncBuilder(0, "test", unitType)
	x := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "x", Mutable: true})
	y := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "y", Mutable: true})
	r := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: refMutType, Name: "r", Mutable: true})

	// r = &mut x
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(r),
			Src: mir.UseOf(mir.RefMutOf(mir.LocalPlace(x), refMutType)),
		},
	})
	// r = &mut y  (re-point: ends the loan of x)
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(r),
			Src: mir.UseOf(mir.RefMutOf(mir.LocalPlace(y), refMutType)),
		},
	})
	// end_borrow r (ends the loan of y)
	b.Emit(&mir.Instr{
		Kind:      mir.InstrEndBorrow,
		EndBorrow: mir.EndBorrowInstr{Place: mir.LocalPlace(r)},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	d := moves.Gather(f)
	s := borrows.Gather(f, typeInterner, d, nil)
	flow := dataflow.Solve(f, dataflow.NewLiveBorrows(s))

	first := s.GenAt(mir.Location{Block: 0, Index: 0})[0]
	second := s.GenAt(mir.Location{Block: 0, Index: 1})[0]

	// Before the re-point only the loan of x is live. Pre-kills apply at
	// access time, not in the before-state, so the re-point location still
	// shows it.
	at := flow.StateAt(mir.Location{Block: 0, Index: 1})
	if !at.Has(first) || at.Has(second) {
		t.Errorf("state before re-point = %v, want [%d]", at.Items(), first)
	}
	// After it, only the loan of y.
	at = flow.StateAt(mir.Location{Block: 0, Index: 2})
	if at.Has(first) || !at.Has(second) {
		t.Errorf("state before end_borrow = %v, want [%d]", at.Items(), second)
	}
	// After end_borrow nothing is live.
	at = flow.StateAt(f.TermLocation(0))
	if at.Len() != 0 {
		t.Errorf("state at terminator = %v, want empty", at.Items())
	}
}

// TestLiveBorrowsOracleEnd tests that a borrow stays live at its
// oracle-supplied end location and is gone after it.
func TestLiveBorrowsOracleEnd(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	unitType := typeInterner.Builtins().Unit
	refType := typeInterner.Intern(types.MakeReference(intType, false))

	b := mir.NewFuncBuilder(0, "test", unitType)
	x := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "x"})
	r := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: refType, Name: "r"})

	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(r),
			Src: mir.UseOf(mir.RefOf(mir.LocalPlace(x), refType)),
		},
	})
	b.Emit(&mir.Instr{Kind: mir.InstrNop})
	b.Emit(&mir.Instr{Kind: mir.InstrNop})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	reserve := mir.Location{Block: 0, Index: 0}
	end := mir.Location{Block: 0, Index: 1}

	d := moves.Gather(f)
	s := borrows.Gather(f, typeInterner, d, borrows.LocMap{reserve: end})
	flow := dataflow.Solve(f, dataflow.NewLiveBorrows(s))

	id := s.GenAt(reserve)[0]
	if !flow.StateAt(end).Has(id) {
		t.Error("borrow dead before its end location")
	}
	if flow.StateAt(mir.Location{Block: 0, Index: 2}).Has(id) {
		t.Error("borrow still live past its end location")
	}
}

// TestEverInitLoop tests that a single write inside a loop marks the root
// initialized at the loop head on later iterations.
func TestEverInitLoop(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	boolType := typeInterner.Builtins().Bool
	unitType := typeInterner.Builtins().Unit

	b := mir.NewFuncBuilder(0, "test", unitType)
	a := b.AddLocal(mir.Local{Kind: mir.LocalArg, Type: intType, Name: "a"})
	y := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "y"})
	z := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "z"})

	head := b.NewBlock()
	body := b.NewBlock()
	exit := b.NewBlock()

	b.SetTerm(&mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: head}})
	b.StartBlock(head)
	b.SetTerm(&mir.Terminator{Kind: mir.TermIf, If: mir.IfTerm{
		Cond: mir.BoolConst(true, boolType),
		Then: body,
		Else: exit,
	}})
	// body: y = 1
	b.StartBlock(body)
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(y),
			Src: mir.UseOf(mir.IntConst(1, intType)),
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: head}})
	b.StartBlock(exit)
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	d := moves.Gather(f)
	r := dataflow.Solve(f, dataflow.NewEverInit(f, d))

	entry := r.EntryOf(f.Entry)
	if !entry.Has(a) {
		t.Error("argument not initialized at entry")
	}
	if entry.Has(y) || entry.Has(z) {
		t.Errorf("user locals initialized at entry: %v", entry.Items())
	}

	at := r.EntryOf(head)
	if !at.Has(y) {
		t.Error("loop-body write did not reach the head through the back edge")
	}
	if at.Has(z) {
		t.Error("never-written local marked initialized")
	}
}
