package moves_test

import (
	"testing"

	"borrowck/internal/mir"
	"borrowck/internal/moves"
	"borrowck/internal/types"
)

// TestGatherRecordsSitesAndWrites tests the per-location effect tables.
func TestGatherRecordsSitesAndWrites(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	unitType := typeInterner.Builtins().Unit

	b := mir.NewFuncBuilder(0, "test", unitType)
	a := b.AddLocal(mir.Local{Kind: mir.LocalArg, Type: intType, Name: "a"})
	x := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "x"})
	tmp := b.AddLocal(mir.Local{Kind: mir.LocalTemp, Type: intType, Name: "t"})
	_ = a

	// t = move x
	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(tmp),
			Src: mir.UseOf(mir.MoveOf(mir.LocalPlace(x), intType)),
		},
	})
	// consume(move t)
	b.Emit(&mir.Instr{
		Kind: mir.InstrCall,
		Call: mir.CallInstr{
			Callee: mir.Callee{Kind: mir.CalleeFn, Fn: mir.NoFuncID, Name: "consume"},
			Args:   []mir.Operand{mir.MoveOf(mir.LocalPlace(tmp), intType)},
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	d := moves.Gather(f)

	// Only the user local seeds the entry state: not the argument, not the temp.
	if len(d.EntrySites) != 1 {
		t.Fatalf("expected 1 entry site, got %d", len(d.EntrySites))
	}
	seed := d.Site(d.EntrySites[0])
	if seed.Kind != moves.SiteUninit {
		t.Errorf("entry site kind = %v, want SiteUninit", seed.Kind)
	}
	if !d.Forest.Place(seed.Path).Equal(mir.LocalPlace(x)) {
		t.Errorf("entry site path = %v, want x", d.Forest.Place(seed.Path))
	}

	xPath := d.Forest.Find(mir.LocalPlace(x))
	tPath := d.Forest.Find(mir.LocalPlace(tmp))
	if xPath == moves.NoPathID || tPath == moves.NoPathID {
		t.Fatal("referenced locals missing from the forest")
	}

	// One move of x at bb0[0], one move of t at bb0[1].
	assignLoc := mir.Location{Block: 0, Index: 0}
	callLoc := mir.Location{Block: 0, Index: 1}
	if got := d.AtLoc[assignLoc]; len(got) != 1 || d.Site(got[0]).Path != xPath {
		t.Errorf("moves at %v = %v", assignLoc, got)
	}
	if got := d.AtLoc[callLoc]; len(got) != 1 || d.Site(got[0]).Path != tPath {
		t.Errorf("moves at %v = %v", callLoc, got)
	}

	// The assignment writes t.
	if got := d.Writes[assignLoc]; len(got) != 1 || got[0] != tPath {
		t.Errorf("writes at %v = %v, want [%d]", assignLoc, got, tPath)
	}
	if got := d.Writes[callLoc]; len(got) != 0 {
		t.Errorf("call without destination recorded writes: %v", got)
	}

	// Killing x covers its seed and its recorded move.
	if got := d.KillsFor(xPath); len(got) != 2 {
		t.Errorf("KillsFor(x) = %v, want 2 sites", got)
	}
	if got := d.SitesOf(tPath); len(got) != 1 {
		t.Errorf("SitesOf(t) = %v, want 1 site", got)
	}
}

// TestGatherClosureCaptures tests that moves into capture lists are sites.
func TestGatherClosureCaptures(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	unitType := typeInterner.Builtins().Unit
	closureType := typeInterner.Intern(types.MakeClosure())

	b := mir.NewFuncBuilder(0, "test", unitType)
	x := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: intType, Name: "x"})
	cl := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: closureType, Name: "cl"})

	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(cl),
			Src: mir.RValue{
				Kind: mir.RValueClosure,
				Closure: mir.ClosureLit{
					Fn: 1,
					Captures: []mir.Capture{
						{Name: "x", Value: mir.MoveOf(mir.LocalPlace(x), intType)},
					},
				},
			},
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	d := moves.Gather(f)

	xPath := d.Forest.Find(mir.LocalPlace(x))
	if xPath == moves.NoPathID {
		t.Fatal("captured local missing from the forest")
	}
	var moved int
	for _, id := range d.SitesOf(xPath) {
		if d.Site(id).Kind == moves.SiteMove {
			moved++
		}
	}
	if moved != 1 {
		t.Errorf("expected 1 move site for the capture, got %d", moved)
	}
}

// TestGatherIndexLocalRoots tests that runtime index locals get root nodes.
func TestGatherIndexLocalRoots(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	unitType := typeInterner.Builtins().Unit
	arrType := typeInterner.Intern(types.MakeArray(intType, types.ArrayDynamicLength))

	b := mir.NewFuncBuilder(0, "test", unitType)
	arr := b.AddLocal(mir.Local{Kind: mir.LocalArg, Type: arrType, Name: "arr"})
	i := b.AddLocal(mir.Local{Kind: mir.LocalArg, Type: intType, Name: "i"})
	out := b.AddLocal(mir.Local{Kind: mir.LocalTemp, Type: intType, Name: "out"})

	b.Emit(&mir.Instr{
		Kind: mir.InstrAssign,
		Assign: mir.AssignInstr{
			Dst: mir.LocalPlace(out),
			Src: mir.UseOf(mir.CopyOf(mir.IndexOf(mir.LocalPlace(arr), i), intType)),
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	f := b.Finish()

	d := moves.Gather(f)

	if d.Forest.Find(mir.LocalPlace(i)) == moves.NoPathID {
		t.Error("index local has no root node")
	}
	if d.Forest.Find(mir.IndexOf(mir.LocalPlace(arr), i)) == moves.NoPathID {
		t.Error("indexed place missing from the forest")
	}
	if len(d.Sites) != 0 {
		t.Errorf("copy access recorded %d move sites", len(d.Sites))
	}
}
