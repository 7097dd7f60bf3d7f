package check

import (
	"fmt"

	"borrowck/internal/borrows"
	"borrowck/internal/diag"
	"borrowck/internal/mir"
	"borrowck/internal/moves"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

func kindWord(k borrows.Kind) string {
	switch k {
	case borrows.Mutable:
		return "mutable"
	case borrows.Unique:
		return "unique"
	default:
		return "immutable"
	}
}

// reportUseOfMoved renders rule one. Sites that are entry seeds mean the
// place never received a value; recorded moves get one label each, with
// loop phrasing when a move in a previous iteration lands on the very span
// under report.
func (c *checker) reportUseOfMoved(loc mir.Location, span source.Span, p mir.Place, kind accessKind, hits []moves.SiteID) {
	noun, past := "use", "used"
	if kind == accessBorrow {
		noun, past = "borrow", "borrowed"
	}

	use := c.moveSpans(p, loc)
	if !use.closure {
		use = c.borrowSpans(span, loc)
	}
	primary := use.argsOrUse()

	var sites []moves.SiteID
	for _, sid := range hits {
		if c.d.Site(sid).Kind == moves.SiteMove {
			sites = append(sites, sid)
		}
	}

	if len(sites) == 0 {
		msg := fmt.Sprintf("%s of possibly uninitialized variable: %s",
			noun, quoted(c.f, c.typesIn, p, true, "'_'"))
		d := diag.NewError(diag.OwnUseOfUninit, primary, msg)
		d = d.WithNote(primary, fmt.Sprintf("use of possibly uninitialized %s",
			quoted(c.f, c.typesIn, p, true, "value")))
		if use.closure {
			d = d.WithNote(use.varSpan, fmt.Sprintf("%s occurs due to use in closure", noun))
		}
		c.emit(d)
		return
	}

	var msg string
	if desc, ok := describePlace(c.f, c.typesIn, p, true); ok {
		msg = fmt.Sprintf("%s of moved value: '%s'", noun, desc)
	} else {
		msg = fmt.Sprintf("%s of moved value", noun)
	}
	d := diag.NewError(diag.OwnUseOfMoved, primary, msg)

	isLoopMove := false
	for _, sid := range sites {
		site := c.d.Site(sid)
		mv := c.moveSpans(c.d.Forest.Place(site.Path), site.Loc)
		moveSpan := mv.argsOrUse()
		suffix := ""
		if mv.closure {
			suffix = " into closure"
		}
		if moveSpan == primary {
			d = d.WithNote(moveSpan, fmt.Sprintf("value moved%s here in previous iteration of loop", suffix))
			isLoopMove = true
			continue
		}
		d = d.WithNote(moveSpan, fmt.Sprintf("value moved%s here", suffix))
		if mv.closure {
			d = d.WithNote(mv.varSpan, "variable moved due to use in closure")
		}
	}
	if use.closure {
		d = d.WithNote(use.varSpan, fmt.Sprintf("%s occurs due to use in closure", noun))
	}
	if !isLoopMove {
		d = d.WithNote(primary, fmt.Sprintf("value %s here after move", past))
	}

	first := c.d.Forest.Place(c.d.Site(sites[0]).Path)
	if ty := mir.PlaceType(c.f, c.typesIn, first); ty != types.NoTypeID {
		d = d.WithNote(source.Span{}, fmt.Sprintf(
			"move occurs because %s has type '%s', which does not implement implicit copy",
			quoted(c.f, c.typesIn, first, true, "value"), types.Label(c.typesIn, ty)))
	}
	c.emit(d)
}

func (c *checker) reportMoveWhileBorrowed(loc mir.Location, p mir.Place, loan recordRef) {
	borrowSp := c.recordSpans(loan)
	borrowSpan := borrowSp.argsOrUse()
	moveSp := c.moveSpans(p, loc)
	primary := moveSp.argsOrUse()

	d := diag.NewError(diag.OwnMoveWhileBorrowed, primary, fmt.Sprintf(
		"cannot move out of %s because it is borrowed",
		quoted(c.f, c.typesIn, p, false, "'_'")))
	d = d.WithNote(borrowSpan, fmt.Sprintf("borrow of %s occurs here",
		quoted(c.f, c.typesIn, loan.r.Place, false, "value")))
	d = d.WithNote(primary, fmt.Sprintf("move out of %s occurs here",
		quoted(c.f, c.typesIn, p, false, "value")))
	if borrowSp.closure {
		d = d.WithNote(borrowSp.varSpan, "borrow occurs due to use in closure")
	}
	if moveSp.closure {
		d = d.WithNote(moveSp.varSpan, "move occurs due to use in closure")
	}
	d = c.noteBorrowLater(d, loan, loc)
	c.emit(d)
}

func (c *checker) reportUseWhileBorrowed(loc mir.Location, p mir.Place, loan recordRef) {
	borrowSp := c.recordSpans(loan)
	borrowSpan := borrowSp.argsOrUse()
	useSp := c.moveSpans(p, loc)
	primary := useSp.varOrUse()
	borrowed := quoted(c.f, c.typesIn, loan.r.Place, false, "'_'")

	d := diag.NewError(diag.OwnUseWhileBorrowed, primary, fmt.Sprintf(
		"cannot use %s because it was mutably borrowed",
		quoted(c.f, c.typesIn, p, false, "'_'")))
	d = d.WithNote(borrowSpan, fmt.Sprintf("borrow of %s occurs here", borrowed))
	d = d.WithNote(primary, fmt.Sprintf("use of borrowed %s", borrowed))
	if borrowSp.closure {
		d = d.WithNote(borrowSp.varSpan, fmt.Sprintf("borrow occurs due to use of %s in closure", borrowed))
	}
	d = c.noteBorrowLater(d, loan, loc)
	c.emit(d)
}

func (c *checker) reportConflictingBorrow(loc mir.Location, span source.Span, p mir.Place, conflict BorrowConflict, rec, issued recordRef) {
	issuedSp := c.recordSpans(issued)
	issuedSpan := issuedSp.argsOrUse()
	borrowSp := c.borrowSpans(span, loc)
	primary := borrowSp.argsOrUse()
	desc := quoted(c.f, c.typesIn, p, false, "'_'")

	var d diag.Diagnostic
	switch conflict {
	case MutBorrowMultiple:
		d = diag.NewError(diag.OwnMutBorrowMultiple, primary, fmt.Sprintf(
			"cannot borrow %s as mutable more than once at a time", desc))
		d = d.WithNote(issuedSpan, "first mutable borrow occurs here")
		d = d.WithNote(primary, "second mutable borrow occurs here")
	case TwoClosuresUnique:
		d = diag.NewError(diag.OwnTwoClosuresUnique, primary, fmt.Sprintf(
			"two closures require unique access to %s at the same time", desc))
		d = d.WithNote(issuedSpan, "first closure is constructed here")
		d = d.WithNote(primary, "second closure is constructed here")
	case ClosureUniqueBorrow:
		d = diag.NewError(diag.OwnClosureUniqueBorrow, primary, fmt.Sprintf(
			"closure requires unique access to %s but it is already borrowed", desc))
		d = d.WithNote(issuedSpan, "borrow occurs here")
		d = d.WithNote(primary, "closure construction occurs here")
	case ReborrowOfUnique:
		d = diag.NewError(diag.OwnReborrowOfUnique, primary, fmt.Sprintf(
			"cannot borrow %s as %s because previous closure requires unique access",
			desc, kindWord(rec.r.Kind)))
		d = d.WithNote(issuedSpan, "closure construction occurs here")
		d = d.WithNote(primary, "borrow occurs here")
	default:
		d = diag.NewError(diag.OwnBorrowAcrossKinds, primary, fmt.Sprintf(
			"cannot borrow %s as %s because it is also borrowed as %s",
			desc, kindWord(rec.r.Kind), kindWord(issued.r.Kind)))
		d = d.WithNote(issuedSpan, fmt.Sprintf("%s borrow occurs here", kindWord(issued.r.Kind)))
		d = d.WithNote(primary, fmt.Sprintf("%s borrow occurs here", kindWord(rec.r.Kind)))
	}

	if issuedSp == borrowSp {
		if borrowSp.closure {
			d = d.WithNote(borrowSp.varSpan, fmt.Sprintf("borrows occur due to use of %s in closure", desc))
		}
	} else {
		if issuedSp.closure {
			d = d.WithNote(issuedSp.varSpan, fmt.Sprintf("first borrow occurs due to use of %s in closure",
				quoted(c.f, c.typesIn, issued.r.Place, false, "'_'")))
		}
		if borrowSp.closure {
			d = d.WithNote(borrowSp.varSpan, fmt.Sprintf("second borrow occurs due to use of %s in closure", desc))
		}
	}
	d = c.noteBorrowLater(d, issued, loc)
	c.emit(d)
}

func (c *checker) reportAssignWhileBorrowed(loc mir.Location, span source.Span, p mir.Place, loan recordRef) {
	loanSp := c.recordSpans(loan)
	loanSpan := loanSp.argsOrUse()
	desc := quoted(c.f, c.typesIn, p, false, "'_'")

	d := diag.NewError(diag.OwnAssignWhileBorrowed, span, fmt.Sprintf(
		"cannot assign to %s because it is borrowed", desc))
	d = d.WithNote(loanSpan, fmt.Sprintf("borrow of %s occurs here", desc))
	d = d.WithNote(span, fmt.Sprintf("assignment to borrowed %s occurs here", desc))
	if loanSp.closure {
		d = d.WithNote(loanSp.varSpan, "borrow occurs due to use in closure")
	}
	d = c.noteBorrowLater(d, loan, loc)
	c.emit(d)
}

// reportReassignImmutable blames the second write of a binding never
// declared mutable. Pattern bindings blame the declaration, simple ones the
// first write, and a simple user binding also gets the mut fix.
func (c *checker) reportReassignImmutable(span source.Span, p mir.Place, l *mir.Local) {
	desc := quoted(c.f, c.typesIn, p, false, "'_'")

	var d diag.Diagnostic
	if l.Kind == mir.LocalArg {
		d = diag.NewError(diag.OwnReassignImmutableArg, span, fmt.Sprintf(
			"cannot assign to immutable argument %s", desc))
	} else {
		assignedSpan := l.Span
		if !l.FromPattern {
			if sp, ok := c.firstWriteSpan(p.Local); ok {
				assignedSpan = sp
			}
		}
		d = diag.NewError(diag.OwnReassignImmutable, span, fmt.Sprintf(
			"cannot assign twice to immutable variable %s", desc))
		if span != assignedSpan {
			d = d.WithNote(assignedSpan, fmt.Sprintf("first assignment to %s",
				quoted(c.f, c.typesIn, p, false, "value")))
		}
	}
	if l.Kind == mir.LocalUser && !l.FromPattern && l.Name != "" && !l.Span.Empty() {
		d = d.WithFix("consider making this binding mutable", diag.FixEdit{
			Span:    source.Span{File: l.Span.File, Start: l.Span.Start, End: l.Span.Start},
			NewText: "mut ",
		})
	}
	c.emit(d)
}

// reportBorrowTooShort renders rule seven, one report per borrowed root and
// blame span. Borrows of nameable places blame the borrow site; borrows of
// temporaries blame the borrowed value's own lifetime.
func (c *checker) reportBorrowTooShort(loc mir.Location, dropSpan source.Span, rec recordRef) {
	borrowSp := c.recordSpans(rec)
	borrowSpan := borrowSp.varOrUse()
	root := c.d.Forest.Root(c.mustPath(rec.r.Place))
	key := shortKey{root: root, span: borrowSpan}
	if _, dup := c.shortReported[key]; dup {
		return
	}
	c.shortReported[key] = struct{}{}

	properSpan := dropSpan
	if rl := c.f.LocalData(rec.r.Place.Local); rl != nil && !rl.Span.Empty() {
		properSpan = rl.Span
	}

	var d diag.Diagnostic
	if desc, ok := describePlace(c.f, c.typesIn, rec.r.Place, false); ok {
		d = diag.NewError(diag.OwnBorrowTooShort, borrowSpan, fmt.Sprintf(
			"'%s' does not live long enough", desc))
		d = d.WithNote(borrowSpan, "borrowed value does not live long enough")
		d = d.WithNote(dropSpan, fmt.Sprintf("'%s' dropped here while still borrowed", desc))
	} else {
		d = diag.NewError(diag.OwnBorrowTooShort, properSpan, "borrowed value does not live long enough")
		d = d.WithNote(properSpan, "temporary value does not live long enough")
		d = d.WithNote(dropSpan, "temporary value only lives until here")
	}
	if borrowSp.closure {
		d = d.WithNote(borrowSp.argsSpan, "value captured here")
	}
	d = c.noteBorrowLater(d, rec, loc)
	c.emit(d)
}

// noteBorrowLater points at the borrow's last live use when the oracle says
// it survives past the conflict point.
func (c *checker) noteBorrowLater(d diag.Diagnostic, rec recordRef, loc mir.Location) diag.Diagnostic {
	if !rec.r.HasEnd || rec.r.EndLoc.Compare(loc) <= 0 {
		return d
	}
	sp := c.f.SpanAt(rec.r.EndLoc)
	if sp.Empty() {
		return d
	}
	return d.WithNote(sp, "borrow later used here")
}
