// Package check runs the ownership and borrow conflict analysis over one
// function body. It gathers the move model and the borrow records, solves
// the three forward dataflow problems, then replays every block in lockstep
// with the solved states and reports a diagnostic for each access that
// conflicts with a fact live at that point.
//
// Checking is per body and stateless across bodies: closures borrow from
// their environment through upvar locals, so a body never needs another
// body's flow state.
package check

import (
	"fmt"

	"borrowck/internal/borrows"
	"borrowck/internal/dataflow"
	"borrowck/internal/diag"
	"borrowck/internal/mir"
	"borrowck/internal/moves"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// Liveness narrows borrow lifetimes beyond the end_borrow markers.
// Callers without a liveness oracle pass nil and borrows run to the
// markers or the end of the body.
type Liveness = borrows.Liveness

type Options struct {
	// Live, when set, supplies the last use of each borrow record.
	Live Liveness
	// MaxDiagnostics caps the bag; non-positive means the default.
	MaxDiagnostics int
}

const defaultMaxDiagnostics = 100

// Func checks a single function body and returns its diagnostics. The body
// must have passed mir validation; the checker panics on places it cannot
// resolve rather than guessing.
func Func(f *mir.Func, typesIn *types.Interner, opts Options) *diag.Bag {
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = defaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiag)
	if f == nil || len(f.Blocks) == 0 {
		return bag
	}

	d := moves.Gather(f)
	bs := borrows.Gather(f, typesIn, d, opts.Live)
	movedP := dataflow.NewMovedOut(d)
	initsP := dataflow.NewEverInit(f, d)

	c := &checker{
		f:        f,
		typesIn:  typesIn,
		d:        d,
		bs:       bs,
		movedP:   movedP,
		initsP:   initsP,
		movedRes: dataflow.Solve[moves.SiteID](f, movedP),
		loansRes: dataflow.Solve[borrows.BorrowID](f, dataflow.NewLiveBorrows(bs)),
		initsRes: dataflow.Solve[mir.LocalID](f, initsP),

		bag:           bag,
		reachable:     make(map[mir.BlockID]bool, len(f.Blocks)),
		borrowCursor:  make(map[mir.Location]int),
		movedReported: make(map[moves.PathID]struct{}),
		shortReported: make(map[shortKey]struct{}),
		firstWrite:    make(map[mir.LocalID]source.Span),
	}
	for _, id := range mir.ReversePostorder(f) {
		c.reachable[id] = true
	}
	c.indexFirstWrites()
	c.run()
	return bag
}

// recordRef pairs a borrow record with its id for reporting.
type recordRef struct {
	id borrows.BorrowID
	r  *borrows.Record
}

// shortKey suppresses repeated does-not-live-long-enough reports for the
// same borrowed root blamed at the same span.
type shortKey struct {
	root moves.PathID
	span source.Span
}

// flow is the lockstep dataflow state right before the access under check.
type flow struct {
	moved *dataflow.Set[moves.SiteID]
	loans *dataflow.Set[borrows.BorrowID]
	inits *dataflow.Set[mir.LocalID]
}

type checker struct {
	f       *mir.Func
	typesIn *types.Interner
	d       *moves.Data
	bs      *borrows.Set

	movedP   *dataflow.MovedOut
	initsP   *dataflow.EverInit
	movedRes *dataflow.Result[moves.SiteID]
	loansRes *dataflow.Result[borrows.BorrowID]
	initsRes *dataflow.Result[mir.LocalID]

	bag       *diag.Bag
	reachable map[mir.BlockID]bool

	// borrowCursor aligns borrow operands met during the walk with the
	// records gathered at the same location, in operand order.
	borrowCursor map[mir.Location]int

	movedReported map[moves.PathID]struct{}
	shortReported map[shortKey]struct{}
	firstWrite    map[mir.LocalID]source.Span
}

// run replays every reachable block from its solved entry state. Within a
// location the order is fixed: repoint and end_borrow kills land before the
// accesses are checked, fresh loans and oracle expiries after, and the move
// and init transfers last.
func (c *checker) run() {
	for bi := range c.f.Blocks {
		bb := &c.f.Blocks[bi]
		if !c.reachable[bb.ID] {
			continue
		}
		st := flow{
			moved: c.movedRes.EntryOf(bb.ID),
			loans: c.loansRes.EntryOf(bb.ID),
			inits: c.initsRes.EntryOf(bb.ID),
		}
		for ii := range bb.Instrs {
			loc := mir.Location{Block: bb.ID, Index: int32(ii)}
			c.step(loc, &bb.Instrs[ii], nil, st)
		}
		loc := c.f.TermLocation(bb.ID)
		c.step(loc, nil, &bb.Term, st)
	}
}

func (c *checker) step(loc mir.Location, ins *mir.Instr, term *mir.Terminator, st flow) {
	for _, id := range c.bs.PreKillsAt(loc) {
		st.loans.Remove(id)
	}
	c.checkLocation(loc, ins, term, st)
	for _, id := range c.bs.GenAt(loc) {
		st.loans.Add(id)
	}
	for _, id := range c.bs.PostKillsAt(loc) {
		st.loans.Remove(id)
	}
	c.movedP.Apply(loc, st.moved)
	c.initsP.Apply(loc, st.inits)
}

func (c *checker) emit(d diag.Diagnostic) {
	c.bag.Add(d)
}

func (c *checker) mustPath(p mir.Place) moves.PathID {
	pid := c.d.Forest.Find(p)
	if pid == moves.NoPathID {
		panic(fmt.Errorf("check: place not interned: %v", p))
	}
	return pid
}

// nextBorrowRecord returns the record reserved for the current borrow
// operand at loc plus the records already reserved earlier at the same
// location. Gather enumerates operands in the same order as the walk and
// skips the same raw pointer dereferences, so the cursor stays aligned.
func (c *checker) nextBorrowRecord(loc mir.Location) (recordRef, []borrows.BorrowID) {
	gens := c.bs.GenAt(loc)
	i := c.borrowCursor[loc]
	c.borrowCursor[loc]++
	if i >= len(gens) {
		panic(fmt.Errorf("check: borrow operand at %v has no record", loc))
	}
	id := gens[i]
	return recordRef{id: id, r: c.bs.Record(id)}, gens[:i]
}

// indexFirstWrites records the span of the first whole-local write of each
// local in block order. Reassignment reports point their first-assignment
// label here for bindings without a pattern.
func (c *checker) indexFirstWrites() {
	note := func(p mir.Place, sp source.Span) {
		if len(p.Proj) != 0 {
			return
		}
		if _, seen := c.firstWrite[p.Local]; seen {
			return
		}
		c.firstWrite[p.Local] = sp
	}
	for bi := range c.f.Blocks {
		bb := &c.f.Blocks[bi]
		for ii := range bb.Instrs {
			ins := &bb.Instrs[ii]
			switch ins.Kind {
			case mir.InstrAssign:
				note(ins.Assign.Dst, ins.Span)
			case mir.InstrCall:
				if ins.Call.HasDst {
					note(ins.Call.Dst, ins.Span)
				}
			}
		}
	}
}

func (c *checker) firstWriteSpan(local mir.LocalID) (source.Span, bool) {
	sp, ok := c.firstWrite[local]
	return sp, ok
}
