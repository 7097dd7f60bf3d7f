package check

import "borrowck/internal/borrows"

// BorrowConflict classifies one incompatible borrow pair. Sub-kinds select
// message phrasing; the shared+shared pair never reaches the matrix.
type BorrowConflict uint8

const (
	// BorrowAcrossKinds is a shared borrow against a mutable one, in either
	// issue order.
	BorrowAcrossKinds BorrowConflict = iota
	// MutBorrowMultiple is a second mutable borrow of an overlapping place.
	MutBorrowMultiple
	// TwoClosuresUnique is two closures both requiring unique access.
	TwoClosuresUnique
	// ClosureUniqueBorrow is a new unique capture of an already borrowed place.
	ClosureUniqueBorrow
	// ReborrowOfUnique is a new shared or mutable borrow of a place a closure
	// already captured uniquely.
	ReborrowOfUnique
)

func (c BorrowConflict) String() string {
	switch c {
	case BorrowAcrossKinds:
		return "borrow-across-kinds"
	case MutBorrowMultiple:
		return "mutable-borrow-multiple"
	case TwoClosuresUnique:
		return "two-closures-unique"
	case ClosureUniqueBorrow:
		return "closure-unique-borrow"
	case ReborrowOfUnique:
		return "reborrow-of-unique"
	default:
		return "?"
	}
}

// classifyBorrowPair applies the compatibility matrix to a newly requested
// borrow against an issued one. ok is false for the one compatible pair,
// shared+shared. The shared/mutable pair resolves to the same sub-kind in
// both issue orders; the unique rows keep their order-specific phrasings.
func classifyBorrowPair(requested, issued borrows.Kind) (BorrowConflict, bool) {
	switch {
	case requested == borrows.Shared && issued == borrows.Shared:
		return 0, false
	case requested == borrows.Unique && issued == borrows.Unique:
		return TwoClosuresUnique, true
	case requested == borrows.Unique:
		return ClosureUniqueBorrow, true
	case issued == borrows.Unique:
		return ReborrowOfUnique, true
	case requested == borrows.Mutable && issued == borrows.Mutable:
		return MutBorrowMultiple, true
	default:
		return BorrowAcrossKinds, true
	}
}
