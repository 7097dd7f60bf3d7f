package check

import (
	"slices"

	"borrowck/internal/borrows"
	"borrowck/internal/mir"
	"borrowck/internal/moves"
	"borrowck/internal/source"
)

// accessKind classifies how an instruction touches a place.
type accessKind uint8

const (
	accessRead accessKind = iota
	accessMove
	accessBorrow
)

// checkLocation enumerates the accesses of the instruction or terminator at
// loc in operand order and applies the conflict rules to each. Operand
// reads come before the destination write, matching evaluation order.
func (c *checker) checkLocation(loc mir.Location, ins *mir.Instr, term *mir.Terminator, st flow) {
	if ins != nil {
		switch ins.Kind {
		case mir.InstrAssign:
			c.checkRValue(loc, ins.Span, &ins.Assign.Src, st)
			c.checkWrite(loc, ins.Span, ins.Assign.Dst, st)
		case mir.InstrCall:
			if ins.Call.Callee.Kind == mir.CalleeValue {
				c.checkOperand(loc, ins.Span, ins.Call.Callee.Value, st)
			}
			for _, arg := range ins.Call.Args {
				c.checkOperand(loc, ins.Span, arg, st)
			}
			if ins.Call.HasDst {
				c.checkWrite(loc, ins.Span, ins.Call.Dst, st)
			}
		case mir.InstrDrop:
			c.checkDrop(loc, ins.Span, ins.Drop.Place, st)
		}
		return
	}
	if term == nil {
		return
	}
	switch term.Kind {
	case mir.TermReturn:
		if term.Return.HasValue {
			c.checkOperand(loc, term.Span, term.Return.Value, st)
		}
	case mir.TermIf:
		c.checkOperand(loc, term.Span, term.If.Cond, st)
	case mir.TermSwitch:
		c.checkOperand(loc, term.Span, term.Switch.Value, st)
	}
}

func (c *checker) checkRValue(loc mir.Location, span source.Span, rv *mir.RValue, st flow) {
	switch rv.Kind {
	case mir.RValueUse:
		c.checkOperand(loc, span, rv.Use, st)
	case mir.RValueUnary:
		c.checkOperand(loc, span, rv.Unary.Operand, st)
	case mir.RValueBinary:
		c.checkOperand(loc, span, rv.Binary.Left, st)
		c.checkOperand(loc, span, rv.Binary.Right, st)
	case mir.RValueCast:
		c.checkOperand(loc, span, rv.Cast.Value, st)
	case mir.RValueStructLit:
		for i := range rv.StructLit.Fields {
			c.checkOperand(loc, span, rv.StructLit.Fields[i].Value, st)
		}
	case mir.RValueArrayLit:
		for _, elem := range rv.ArrayLit.Elems {
			c.checkOperand(loc, span, elem, st)
		}
	case mir.RValueTupleLit:
		for _, elem := range rv.TupleLit.Elems {
			c.checkOperand(loc, span, elem, st)
		}
	case mir.RValueClosure:
		for i := range rv.Closure.Captures {
			c.checkOperand(loc, span, rv.Closure.Captures[i].Value, st)
		}
	}
}

func (c *checker) checkOperand(loc mir.Location, span source.Span, op mir.Operand, st flow) {
	switch op.Kind {
	case mir.OperandCopy:
		c.checkUse(loc, span, op.Place, accessRead, st)
	case mir.OperandMove:
		c.checkUse(loc, span, op.Place, accessMove, st)
	case mir.OperandAddrOf, mir.OperandAddrOfMut, mir.OperandAddrOfUniq:
		// Gather skipped the same operands, so the cursor only advances
		// for operands that own a record.
		if mir.DereferencesRawPointer(c.f, c.typesIn, op.Place) {
			return
		}
		rec, prior := c.nextBorrowRecord(loc)
		c.checkBorrow(loc, span, op.Place, rec, prior, st)
	}
}

// checkUse applies the moved-value rule first, then the borrow rule for the
// access kind. At most one diagnostic per access.
func (c *checker) checkUse(loc mir.Location, span source.Span, p mir.Place, kind accessKind, st flow) {
	if mir.DereferencesRawPointer(c.f, c.typesIn, p) {
		return
	}
	if c.checkUseOfMoved(loc, span, p, kind, st) {
		return
	}
	switch kind {
	case accessRead:
		c.checkUseWhileBorrowed(loc, p, st)
	case accessMove:
		c.checkMoveWhileBorrowed(loc, p, st)
	}
}

func (c *checker) checkBorrow(loc mir.Location, span source.Span, p mir.Place, rec recordRef, prior []borrows.BorrowID, st flow) {
	if c.checkUseOfMoved(loc, span, p, accessBorrow, st) {
		return
	}
	c.checkConflictingBorrow(loc, span, p, rec, prior, st)
}

func (c *checker) checkWrite(loc mir.Location, span source.Span, p mir.Place, st flow) {
	if mir.DereferencesRawPointer(c.f, c.typesIn, p) {
		return
	}
	if c.checkAssignWhileBorrowed(loc, span, p, st) {
		return
	}
	c.checkReassignImmutable(span, p, st)
}

func (c *checker) checkDrop(loc mir.Location, span source.Span, p mir.Place, st flow) {
	c.checkBorrowTooShort(loc, span, p, st)
}

// checkUseOfMoved reports a use of a moved or never initialized value. It
// returns true when any overlapping site is in flight, even if the report
// itself was suppressed as a repeat for the same root.
func (c *checker) checkUseOfMoved(loc mir.Location, span source.Span, p mir.Place, kind accessKind, st flow) bool {
	var hits []moves.SiteID
	for _, sid := range st.moved.Items() {
		site := c.d.Site(sid)
		if moves.Overlaps(p, c.d.Forest.Place(site.Path)) {
			hits = append(hits, sid)
		}
	}
	if len(hits) == 0 {
		return false
	}
	root := c.d.Forest.Root(c.mustPath(p))
	if _, dup := c.movedReported[root]; dup {
		return true
	}
	c.movedReported[root] = struct{}{}
	c.reportUseOfMoved(loc, span, p, kind, hits)
	return true
}

func (c *checker) checkMoveWhileBorrowed(loc mir.Location, p mir.Place, st flow) {
	loan, ok := c.overlappingLoan(p, st, nil, nil)
	if !ok {
		return
	}
	c.reportMoveWhileBorrowed(loc, p, loan)
}

func (c *checker) checkUseWhileBorrowed(loc mir.Location, p mir.Place, st flow) {
	loan, ok := c.overlappingLoan(p, st, nil, func(r *borrows.Record) bool {
		return r.Kind != borrows.Shared
	})
	if !ok {
		return
	}
	c.reportUseWhileBorrowed(loc, p, loan)
}

func (c *checker) checkConflictingBorrow(loc mir.Location, span source.Span, p mir.Place, rec recordRef, prior []borrows.BorrowID, st flow) {
	var conflict BorrowConflict
	loan, ok := c.overlappingLoan(p, st, prior, func(r *borrows.Record) bool {
		kind, bad := classifyBorrowPair(rec.r.Kind, r.Kind)
		if bad {
			conflict = kind
		}
		return bad
	})
	if !ok {
		return
	}
	c.reportConflictingBorrow(loc, span, p, conflict, rec, loan)
}

func (c *checker) checkAssignWhileBorrowed(loc mir.Location, span source.Span, p mir.Place, st flow) bool {
	loan, ok := c.overlappingLoan(p, st, nil, nil)
	if !ok {
		return false
	}
	c.reportAssignWhileBorrowed(loc, span, p, loan)
	return true
}

func (c *checker) checkReassignImmutable(span source.Span, p mir.Place, st flow) {
	if len(p.Proj) != 0 {
		return
	}
	l := c.f.LocalData(p.Local)
	// Statics initialize outside the body: there is no first write to
	// exempt, so the rule does not apply to them.
	if l == nil || l.Mutable || l.Kind == mir.LocalTemp || l.Kind == mir.LocalStatic {
		return
	}
	if !st.inits.Has(p.Local) {
		// First write initializes the binding.
		return
	}
	c.reportReassignImmutable(span, p, l)
}

// checkBorrowTooShort fires when storage of a borrowed local ends while a
// loan of it is still live. Drops are not uses, so this is the only rule
// that looks at them.
func (c *checker) checkBorrowTooShort(loc mir.Location, span source.Span, p mir.Place, st flow) {
	for _, id := range st.loans.Items() {
		r := c.bs.Record(id)
		if r == nil || r.Place.Local != p.Local {
			continue
		}
		c.reportBorrowTooShort(loc, span, recordRef{id: id, r: r})
	}
}

// overlappingLoan returns the first live loan overlapping p that passes
// keep, in reservation order. extra lists loans reserved earlier at the
// same location, which the flow state cannot see yet.
func (c *checker) overlappingLoan(p mir.Place, st flow, extra []borrows.BorrowID, keep func(*borrows.Record) bool) (recordRef, bool) {
	ids := st.loans.Items()
	if len(extra) != 0 {
		merged := make([]borrows.BorrowID, 0, len(ids)+len(extra))
		merged = append(merged, ids...)
		merged = append(merged, extra...)
		slices.Sort(merged)
		ids = slices.Compact(merged)
	}
	for _, id := range ids {
		r := c.bs.Record(id)
		if r == nil || !moves.Overlaps(p, r.Place) {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		return recordRef{id: id, r: r}, true
	}
	return recordRef{}, false
}
