package borrows

import "borrowck/internal/mir"

// LocMap is a Liveness backed by a fixed table: the borrow reserved at the
// key location is last live at the value location. Borrows missing from the
// table stay live to the end of the body.
type LocMap map[mir.Location]mir.Location

// LastUse implements Liveness.
func (m LocMap) LastUse(_ *mir.Func, r *Record) (mir.Location, bool) {
	end, ok := m[r.Loc]
	return end, ok
}
