package moves

import (
	"fmt"

	"fortio.org/safecast"

	"borrowck/internal/mir"
	"borrowck/internal/source"
)

// SiteID indexes one entry in Data.Sites.
type SiteID int32

// SiteKind distinguishes recorded moves from entry-state seeds.
type SiteKind uint8

const (
	// SiteMove is a move-read recorded at an instruction or terminator.
	SiteMove SiteKind = iota
	// SiteUninit seeds a user local declared without an argument value: the
	// root counts as moved-out from function entry until its first write.
	SiteUninit
)

// Site is one occurrence after which a path's value is gone.
type Site struct {
	Kind SiteKind
	Path PathID
	Loc  mir.Location
	Span source.Span
}

// Data is the gathered move model of one function body: the path forest,
// every move-out site, and per-location effect tables the flow analysis
// replays.
type Data struct {
	Forest *Forest
	Sites  []Site

	// AtLoc lists the move sites generated at each location.
	AtLoc map[mir.Location][]SiteID
	// Writes lists the paths directly written at each location
	// (assignment and call destinations).
	Writes map[mir.Location][]PathID
	// EntrySites are the SiteUninit seeds live on entry.
	EntrySites []SiteID

	f           *mir.Func
	sitesByPath map[PathID][]SiteID
}

// Gather builds the move model for a function body. Every fragment any
// operand, destination, borrow, drop, end-borrow or capture references gets
// its forest node here; later lookups by the checker must not insert.
func Gather(f *mir.Func) *Data {
	d := &Data{
		Forest:      NewForest(),
		AtLoc:       make(map[mir.Location][]SiteID),
		Writes:      make(map[mir.Location][]PathID),
		f:           f,
		sitesByPath: make(map[PathID][]SiteID),
	}
	if f == nil {
		return d
	}

	for i := range f.Locals {
		loc := &f.Locals[i]
		if loc.Kind != mir.LocalUser || loc.Upvar != 0 {
			continue
		}
		pid := d.Forest.FindOrInsert(mir.LocalPlace(mir.LocalID(int32(i)))) //nolint:gosec // G115: bounded by locals length
		id := d.addSite(Site{Kind: SiteUninit, Path: pid, Loc: mir.Location{Block: -1, Index: -1}})
		d.EntrySites = append(d.EntrySites, id)
	}

	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for ii := range bb.Instrs {
			loc := mir.Location{Block: bb.ID, Index: int32(ii)} //nolint:gosec // G115: bounded by block length
			d.gatherInstr(&bb.Instrs[ii], loc)
		}
		d.gatherTerm(&bb.Term, f.TermLocation(bb.ID))
	}
	return d
}

// SitesOf returns the move sites recorded for the exact path node.
func (d *Data) SitesOf(id PathID) []SiteID {
	return d.sitesByPath[id]
}

// Site returns the site record, nil when out of range.
func (d *Data) Site(id SiteID) *Site {
	if id < 0 || int(id) >= len(d.Sites) {
		return nil
	}
	return &d.Sites[id]
}

// KillsFor collects every site whose path lies in the written path's subtree.
// A whole write re-initializes the fragment and everything below it.
func (d *Data) KillsFor(write PathID) []SiteID {
	var out []SiteID
	d.Forest.WalkSubtree(write, func(id PathID) {
		out = append(out, d.sitesByPath[id]...)
	})
	return out
}

func (d *Data) addSite(s Site) SiteID {
	id32, err := safecast.Conv[int32](len(d.Sites))
	if err != nil {
		panic(fmt.Errorf("move site table overflow: %w", err))
	}
	id := SiteID(id32)
	d.Sites = append(d.Sites, s)
	d.sitesByPath[s.Path] = append(d.sitesByPath[s.Path], id)
	if s.Kind == SiteMove {
		d.AtLoc[s.Loc] = append(d.AtLoc[s.Loc], id)
	}
	return id
}

func (d *Data) gatherInstr(ins *mir.Instr, loc mir.Location) {
	switch ins.Kind {
	case mir.InstrAssign:
		d.gatherRValue(&ins.Assign.Src, loc, ins.Span)
		dst := d.visitPlace(ins.Assign.Dst)
		if dst != NoPathID {
			d.Writes[loc] = append(d.Writes[loc], dst)
		}
	case mir.InstrCall:
		if ins.Call.Callee.Kind == mir.CalleeValue {
			d.gatherOperand(ins.Call.Callee.Value, loc, ins.Span)
		}
		for _, arg := range ins.Call.Args {
			d.gatherOperand(arg, loc, ins.Span)
		}
		if ins.Call.HasDst {
			dst := d.visitPlace(ins.Call.Dst)
			if dst != NoPathID {
				d.Writes[loc] = append(d.Writes[loc], dst)
			}
		}
	case mir.InstrDrop:
		d.visitPlace(ins.Drop.Place)
	case mir.InstrEndBorrow:
		d.visitPlace(ins.EndBorrow.Place)
	}
}

func (d *Data) gatherTerm(term *mir.Terminator, loc mir.Location) {
	switch term.Kind {
	case mir.TermReturn:
		if term.Return.HasValue {
			d.gatherOperand(term.Return.Value, loc, term.Span)
		}
	case mir.TermIf:
		d.gatherOperand(term.If.Cond, loc, term.Span)
	case mir.TermSwitch:
		d.gatherOperand(term.Switch.Value, loc, term.Span)
	}
}

func (d *Data) gatherRValue(rv *mir.RValue, loc mir.Location, span source.Span) {
	switch rv.Kind {
	case mir.RValueUse:
		d.gatherOperand(rv.Use, loc, span)
	case mir.RValueUnary:
		d.gatherOperand(rv.Unary.Operand, loc, span)
	case mir.RValueBinary:
		d.gatherOperand(rv.Binary.Left, loc, span)
		d.gatherOperand(rv.Binary.Right, loc, span)
	case mir.RValueCast:
		d.gatherOperand(rv.Cast.Value, loc, span)
	case mir.RValueStructLit:
		for i := range rv.StructLit.Fields {
			d.gatherOperand(rv.StructLit.Fields[i].Value, loc, span)
		}
	case mir.RValueArrayLit:
		for _, elem := range rv.ArrayLit.Elems {
			d.gatherOperand(elem, loc, span)
		}
	case mir.RValueTupleLit:
		for _, elem := range rv.TupleLit.Elems {
			d.gatherOperand(elem, loc, span)
		}
	case mir.RValueClosure:
		for i := range rv.Closure.Captures {
			d.gatherOperand(rv.Closure.Captures[i].Value, loc, span)
		}
	}
}

func (d *Data) gatherOperand(op mir.Operand, loc mir.Location, span source.Span) {
	if op.Kind == mir.OperandConst {
		return
	}
	pid := d.visitPlace(op.Place)
	if op.Kind == mir.OperandMove && pid != NoPathID && !d.staticRoot(op.Place.Local) {
		d.addSite(Site{Kind: SiteMove, Path: pid, Loc: loc, Span: span})
	}
}

// staticRoot reports whether the local names a module static. Statics have
// no per-body initialization state, so moves out of them leave no site.
func (d *Data) staticRoot(id mir.LocalID) bool {
	l := d.f.LocalData(id)
	return l != nil && l.Kind == mir.LocalStatic
}

// visitPlace interns the place and the root of every runtime index local
// appearing in its projections.
func (d *Data) visitPlace(p mir.Place) PathID {
	if !p.IsValid() {
		return NoPathID
	}
	for _, proj := range p.Proj {
		if proj.Kind == mir.ProjIndex && proj.IndexLocal != mir.NoLocalID {
			d.Forest.FindOrInsert(mir.LocalPlace(proj.IndexLocal))
		}
	}
	return d.Forest.FindOrInsert(p)
}
