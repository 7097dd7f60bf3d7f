package mir

import (
	"borrowck/internal/source"
	"borrowck/internal/types"
)

type FuncID int32
type BlockID int32
type LocalID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoLocalID LocalID = -1
)

// LocalKind records where a local came from. The distinction drives
// diagnostics only: user locals and arguments are named in messages,
// temporaries degrade to "value".
type LocalKind uint8

const (
	LocalUser LocalKind = iota
	LocalArg
	LocalTemp
	// LocalStatic names a module global. Statics have no per-body
	// initialization state: moves out of them are not tracked and the
	// reassignment rule skips them. Borrows participate normally.
	LocalStatic
)

func (k LocalKind) String() string {
	switch k {
	case LocalUser:
		return "user"
	case LocalArg:
		return "arg"
	case LocalTemp:
		return "temp"
	case LocalStatic:
		return "static"
	default:
		return "local?"
	}
}

type Local struct {
	Kind LocalKind
	Type types.TypeID
	Name string
	Span source.Span // declaration site

	// Mutable is true for `let mut` bindings and mutable arguments.
	Mutable bool
	// FromPattern is true when the binding was introduced by destructuring.
	// Immutable-reassignment labels then point at the declaration instead of
	// the first write.
	FromPattern bool
	// Upvar is 1+index into Func.Captures when this local is a captured
	// variable inside a closure body, 0 otherwise.
	Upvar uint32
	// StaticRef is 1+index into Module.Globals for LocalStatic locals,
	// 0 otherwise.
	StaticRef uint32
}

// CaptureDecl names one variable captured by a closure body.
type CaptureDecl struct {
	Name string
	Span source.Span // capture site in the enclosing function
	// ByRef is true when the variable is captured by reference. By-value
	// upvars reached through a deref describe as *name, by-ref ones as name.
	ByRef bool
}
