// Package borrows collects the borrow records of a function body: one entry
// per borrow-creating operand, with its reservation point, the local the
// reference lands in, and the kill points the flow analysis replays.
package borrows

import (
	"fmt"

	"fortio.org/safecast"

	"borrowck/internal/mir"
	"borrowck/internal/moves"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// Kind classifies a borrow.
type Kind uint8

const (
	// Shared is an immutable borrow.
	Shared Kind = iota
	// Unique is a closure capture that needs exclusive, non-mutating access.
	Unique
	// Mutable is a mutable borrow.
	Mutable
)

func (k Kind) String() string {
	switch k {
	case Shared:
		return "shared"
	case Unique:
		return "unique"
	case Mutable:
		return "mutable"
	default:
		return "?"
	}
}

// BorrowID indexes one record. 0 is the invalid sentinel and means
// "no borrow".
type BorrowID uint32

// Record is one borrow of one place.
type Record struct {
	Kind  Kind
	Place mir.Place
	Path  moves.PathID
	// Loc is the reservation point.
	Loc  mir.Location
	Span source.Span
	// StoredIn names the local the reference is assigned into, NoLocalID for
	// borrows passed straight into calls, aggregates or captures.
	StoredIn mir.LocalID
	// EndLoc is the externally supplied last-live location, valid when HasEnd.
	HasEnd bool
	EndLoc mir.Location
}

// Liveness supplies the last location at which a borrow is still live.
// Implementations come from outside the engine; without one, the body's
// explicit end_borrow instructions and reference re-points are the only
// kill points.
type Liveness interface {
	LastUse(f *mir.Func, r *Record) (mir.Location, bool)
}

// Set holds every borrow record of one body plus per-location gen/kill
// tables.
type Set struct {
	records []Record

	atLoc map[mir.Location][]BorrowID
	// preKills end before the location's own accesses run: writes that
	// re-point the holding local and explicit end_borrow instructions.
	preKills map[mir.Location][]BorrowID
	// postKills end after the location runs: oracle-supplied last uses.
	postKills map[mir.Location][]BorrowID
	byStored  map[mir.LocalID][]BorrowID
}

// Gather walks the body and builds its borrow set. Borrow places must
// already be interned in the move-path forest; borrows reached through a
// raw pointer dereference are outside the ownership discipline and get no
// record.
func Gather(f *mir.Func, typesIn *types.Interner, d *moves.Data, live Liveness) *Set {
	s := &Set{
		records:   []Record{{}}, // slot 0 is the invalid sentinel
		atLoc:     make(map[mir.Location][]BorrowID),
		preKills:  make(map[mir.Location][]BorrowID),
		postKills: make(map[mir.Location][]BorrowID),
		byStored:  make(map[mir.LocalID][]BorrowID),
	}
	if f == nil {
		return s
	}

	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for ii := range bb.Instrs {
			loc := mir.Location{Block: bb.ID, Index: int32(ii)} //nolint:gosec // G115: bounded by block length
			s.gatherInstr(f, typesIn, d, &bb.Instrs[ii], loc)
		}
		s.gatherTerm(f, typesIn, d, &bb.Term, f.TermLocation(bb.ID))
	}

	s.gatherKills(f)

	if live != nil {
		for id := 1; id < len(s.records); id++ {
			r := &s.records[id]
			end, ok := live.LastUse(f, r)
			if !ok {
				continue
			}
			r.HasEnd = true
			r.EndLoc = end
			s.postKills[end] = append(s.postKills[end], BorrowID(uint32(id))) //nolint:gosec // G115: bounded by record count
		}
	}
	return s
}

// Len returns the number of records including the sentinel slot.
func (s *Set) Len() int {
	return len(s.records)
}

// Record returns the record for the id, nil for the sentinel or out of range.
func (s *Set) Record(id BorrowID) *Record {
	if id == 0 || int(id) >= len(s.records) {
		return nil
	}
	return &s.records[id]
}

// GenAt lists the borrows reserved at the location.
func (s *Set) GenAt(loc mir.Location) []BorrowID {
	return s.atLoc[loc]
}

// PreKillsAt lists the borrows that end before the location's accesses run.
func (s *Set) PreKillsAt(loc mir.Location) []BorrowID {
	return s.preKills[loc]
}

// PostKillsAt lists the borrows whose oracle-supplied liveness ends at the
// location.
func (s *Set) PostKillsAt(loc mir.Location) []BorrowID {
	return s.postKills[loc]
}

// StoredIn lists the borrows held by the local.
func (s *Set) StoredIn(local mir.LocalID) []BorrowID {
	return s.byStored[local]
}

func (s *Set) add(r Record) BorrowID {
	id32, err := safecast.Conv[uint32](len(s.records))
	if err != nil {
		panic(fmt.Errorf("borrow record table overflow: %w", err))
	}
	id := BorrowID(id32)
	s.records = append(s.records, r)
	s.atLoc[r.Loc] = append(s.atLoc[r.Loc], id)
	if r.StoredIn != mir.NoLocalID {
		s.byStored[r.StoredIn] = append(s.byStored[r.StoredIn], id)
	}
	return id
}

func (s *Set) gatherInstr(f *mir.Func, typesIn *types.Interner, d *moves.Data, ins *mir.Instr, loc mir.Location) {
	switch ins.Kind {
	case mir.InstrAssign:
		storedIn := mir.NoLocalID
		if len(ins.Assign.Dst.Proj) == 0 && ins.Assign.Src.Kind == mir.RValueUse && ins.Assign.Src.Use.IsBorrow() {
			storedIn = ins.Assign.Dst.Local
		}
		s.gatherRValue(f, typesIn, d, &ins.Assign.Src, loc, ins.Span, storedIn)
	case mir.InstrCall:
		if ins.Call.Callee.Kind == mir.CalleeValue {
			s.gatherOperand(f, typesIn, d, ins.Call.Callee.Value, loc, ins.Span, mir.NoLocalID)
		}
		for _, arg := range ins.Call.Args {
			s.gatherOperand(f, typesIn, d, arg, loc, ins.Span, mir.NoLocalID)
		}
	}
}

func (s *Set) gatherTerm(f *mir.Func, typesIn *types.Interner, d *moves.Data, term *mir.Terminator, loc mir.Location) {
	switch term.Kind {
	case mir.TermReturn:
		if term.Return.HasValue {
			s.gatherOperand(f, typesIn, d, term.Return.Value, loc, term.Span, mir.NoLocalID)
		}
	case mir.TermIf:
		s.gatherOperand(f, typesIn, d, term.If.Cond, loc, term.Span, mir.NoLocalID)
	case mir.TermSwitch:
		s.gatherOperand(f, typesIn, d, term.Switch.Value, loc, term.Span, mir.NoLocalID)
	}
}

func (s *Set) gatherRValue(f *mir.Func, typesIn *types.Interner, d *moves.Data, rv *mir.RValue, loc mir.Location, span source.Span, storedIn mir.LocalID) {
	switch rv.Kind {
	case mir.RValueUse:
		s.gatherOperand(f, typesIn, d, rv.Use, loc, span, storedIn)
	case mir.RValueUnary:
		s.gatherOperand(f, typesIn, d, rv.Unary.Operand, loc, span, mir.NoLocalID)
	case mir.RValueBinary:
		s.gatherOperand(f, typesIn, d, rv.Binary.Left, loc, span, mir.NoLocalID)
		s.gatherOperand(f, typesIn, d, rv.Binary.Right, loc, span, mir.NoLocalID)
	case mir.RValueCast:
		s.gatherOperand(f, typesIn, d, rv.Cast.Value, loc, span, mir.NoLocalID)
	case mir.RValueStructLit:
		for i := range rv.StructLit.Fields {
			s.gatherOperand(f, typesIn, d, rv.StructLit.Fields[i].Value, loc, span, mir.NoLocalID)
		}
	case mir.RValueArrayLit:
		for _, elem := range rv.ArrayLit.Elems {
			s.gatherOperand(f, typesIn, d, elem, loc, span, mir.NoLocalID)
		}
	case mir.RValueTupleLit:
		for _, elem := range rv.TupleLit.Elems {
			s.gatherOperand(f, typesIn, d, elem, loc, span, mir.NoLocalID)
		}
	case mir.RValueClosure:
		for i := range rv.Closure.Captures {
			s.gatherOperand(f, typesIn, d, rv.Closure.Captures[i].Value, loc, span, mir.NoLocalID)
		}
	}
}

func (s *Set) gatherOperand(f *mir.Func, typesIn *types.Interner, d *moves.Data, op mir.Operand, loc mir.Location, span source.Span, storedIn mir.LocalID) {
	if !op.IsBorrow() {
		return
	}
	if mir.DereferencesRawPointer(f, typesIn, op.Place) {
		return
	}
	pid := d.Forest.Find(op.Place)
	if pid == moves.NoPathID {
		panic(fmt.Errorf("borrow place not interned: %v", op.Place))
	}

	kind := Shared
	switch op.Kind {
	case mir.OperandAddrOfMut:
		kind = Mutable
	case mir.OperandAddrOfUniq:
		kind = Unique
	}
	s.add(Record{
		Kind:     kind,
		Place:    op.Place,
		Path:     pid,
		Loc:      loc,
		Span:     span,
		StoredIn: storedIn,
	})
}

// gatherKills records re-point and end_borrow kill points. A write to the
// whole local holding a reference ends the loans it held; an explicit
// end_borrow ends the loans of the local it names.
func (s *Set) gatherKills(f *mir.Func) {
	addKills := func(loc mir.Location, local mir.LocalID) {
		if ids := s.byStored[local]; len(ids) > 0 {
			s.preKills[loc] = append(s.preKills[loc], ids...)
		}
	}

	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for ii := range bb.Instrs {
			ins := &bb.Instrs[ii]
			loc := mir.Location{Block: bb.ID, Index: int32(ii)} //nolint:gosec // G115: bounded by block length
			switch ins.Kind {
			case mir.InstrAssign:
				if len(ins.Assign.Dst.Proj) == 0 {
					addKills(loc, ins.Assign.Dst.Local)
				}
			case mir.InstrCall:
				if ins.Call.HasDst && len(ins.Call.Dst.Proj) == 0 {
					addKills(loc, ins.Call.Dst.Local)
				}
			case mir.InstrEndBorrow:
				addKills(loc, ins.EndBorrow.Place.Local)
			}
		}
	}
}
