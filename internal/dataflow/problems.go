package dataflow

import (
	"borrowck/internal/borrows"
	"borrowck/internal/mir"
	"borrowck/internal/moves"
)

// MovedOut tracks which move sites may have fired without a later
// re-initialization. Facts are site ids so a hit recovers the move location
// and span directly from the state.
type MovedOut struct {
	d *moves.Data
}

// NewMovedOut builds the move-tracking problem over the gathered data.
func NewMovedOut(d *moves.Data) *MovedOut {
	return &MovedOut{d: d}
}

// Entry seeds the uninitialized-from-declaration sites of user locals.
func (p *MovedOut) Entry(state *Set[moves.SiteID]) {
	for _, sid := range p.d.EntrySites {
		state.Add(sid)
	}
}

// Apply gens the location's move sites, then kills every site under the
// paths it writes. Gen before kill: an instruction that moves out of the
// path it assigns leaves the path initialized.
func (p *MovedOut) Apply(loc mir.Location, state *Set[moves.SiteID]) {
	for _, sid := range p.d.AtLoc[loc] {
		state.Add(sid)
	}
	for _, pid := range p.d.Writes[loc] {
		for _, sid := range p.d.KillsFor(pid) {
			state.Remove(sid)
		}
	}
}

// LiveBorrows tracks which borrow records may be live. Overlapping live
// borrows coexist in-state; conflicts are decided per access, not here.
type LiveBorrows struct {
	s *borrows.Set
}

// NewLiveBorrows builds the borrow-tracking problem over the gathered set.
func NewLiveBorrows(s *borrows.Set) *LiveBorrows {
	return &LiveBorrows{s: s}
}

// Entry leaves the state empty: no borrows are live at function entry.
func (p *LiveBorrows) Entry(_ *Set[borrows.BorrowID]) {}

// Apply runs the location's pre-kills (re-points, end_borrow), then its
// reservations, then the oracle-supplied ends. A borrow stays in-state at
// its end location and is gone after it.
func (p *LiveBorrows) Apply(loc mir.Location, state *Set[borrows.BorrowID]) {
	for _, id := range p.s.PreKillsAt(loc) {
		state.Remove(id)
	}
	for _, id := range p.s.GenAt(loc) {
		state.Add(id)
	}
	for _, id := range p.s.PostKillsAt(loc) {
		state.Remove(id)
	}
}

// EverInit tracks which roots have ever been written. No kills: once a root
// is initialized anywhere upstream, a later whole-root write to an immutable
// binding is a reassignment, including across loop back-edges.
type EverInit struct {
	f *mir.Func
	d *moves.Data
}

// NewEverInit builds the ever-initialized problem for the body.
func NewEverInit(f *mir.Func, d *moves.Data) *EverInit {
	return &EverInit{f: f, d: d}
}

// Entry seeds arguments and captured variables: both arrive initialized.
func (p *EverInit) Entry(state *Set[mir.LocalID]) {
	if p.f == nil {
		return
	}
	for i := range p.f.Locals {
		l := &p.f.Locals[i]
		if l.Kind == mir.LocalArg || l.Upvar != 0 {
			state.Add(mir.LocalID(i)) //nolint:gosec // G115: bounded by local count
		}
	}
}

// Apply gens the root of every direct whole-root write at the location.
func (p *EverInit) Apply(loc mir.Location, state *Set[mir.LocalID]) {
	for _, pid := range p.d.Writes[loc] {
		place := p.d.Forest.Place(pid)
		if len(place.Proj) == 0 {
			state.Add(place.Local)
		}
	}
}
