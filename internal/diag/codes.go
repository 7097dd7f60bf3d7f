package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Ownership / borrow conflicts (3000-3999).
	// One code per conflict shape so goldens can tell them apart.
	OwnInfo                 Code = 3000
	OwnUseOfMoved           Code = 3001
	OwnUseOfUninit          Code = 3002
	OwnMoveWhileBorrowed    Code = 3003
	OwnUseWhileBorrowed     Code = 3004
	OwnBorrowAcrossKinds    Code = 3005
	OwnMutBorrowMultiple    Code = 3006
	OwnTwoClosuresUnique    Code = 3007
	OwnClosureUniqueBorrow  Code = 3008
	OwnReborrowOfUnique     Code = 3009
	OwnAssignWhileBorrowed  Code = 3010
	OwnReassignImmutable    Code = 3011
	OwnReassignImmutableArg Code = 3012
	OwnBorrowTooShort       Code = 3013

	// Ошибки I/O
	IOLoadFileError   Code = 4001
	IODecodeError     Code = 4002
	IOCacheReadError  Code = 4003
	IOCacheWriteError Code = 4004

	// Ошибки проекта / манифеста
	PrjInfo        Code = 5000
	PrjBadManifest Code = 5001

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var ( // todo расширить описания и использовать как notes
	codeDescription = map[Code]string{
		UnknownCode:             "Unknown error",
		OwnInfo:                 "Ownership information",
		OwnUseOfMoved:           "Use of moved value",
		OwnUseOfUninit:          "Use of possibly uninitialized value",
		OwnMoveWhileBorrowed:    "Move out of borrowed value",
		OwnUseWhileBorrowed:     "Use of mutably borrowed value",
		OwnBorrowAcrossKinds:    "Borrow conflicts with borrow of other kind",
		OwnMutBorrowMultiple:    "Multiple mutable borrows",
		OwnTwoClosuresUnique:    "Two closures require unique access",
		OwnClosureUniqueBorrow:  "Closure requires unique access to borrowed value",
		OwnReborrowOfUnique:     "Borrow of uniquely captured value",
		OwnAssignWhileBorrowed:  "Assignment to borrowed value",
		OwnReassignImmutable:    "Reassignment of immutable binding",
		OwnReassignImmutableArg: "Assignment to immutable argument",
		OwnBorrowTooShort:       "Borrowed value does not live long enough",
		IOLoadFileError:         "Cannot load file",
		IODecodeError:           "Cannot decode module file",
		IOCacheReadError:        "Cannot read result cache",
		IOCacheWriteError:       "Cannot write result cache",
		PrjInfo:                 "Project information",
		PrjBadManifest:          "Invalid project manifest",
		ObsInfo:                 "Observability information",
		ObsTimings:              "Phase timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("OWN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
