package mir

import (
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// InstrKind enumerates instruction kinds in MIR.
type InstrKind uint8

const (
	// InstrAssign represents an assignment instruction.
	InstrAssign InstrKind = iota
	// InstrCall represents a call instruction.
	InstrCall
	// InstrDrop ends a value's storage at end of scope.
	InstrDrop
	// InstrEndBorrow marks the last point a reference is considered live.
	InstrEndBorrow
	// InstrNop represents a no-op instruction.
	InstrNop
)

// Instr represents a MIR instruction.
type Instr struct {
	Kind InstrKind
	Span source.Span

	Assign    AssignInstr
	Call      CallInstr
	Drop      DropInstr
	EndBorrow EndBorrowInstr
}

// AssignInstr represents an assignment instruction.
type AssignInstr struct {
	Dst Place
	Src RValue
}

// CalleeKind distinguishes call target types.
type CalleeKind uint8

const (
	// CalleeFn targets a function by ID or name.
	CalleeFn CalleeKind = iota
	// CalleeValue targets a function value (closure or fn operand).
	CalleeValue
)

// Callee represents a call target.
type Callee struct {
	Kind  CalleeKind
	Fn    FuncID // NoFuncID for functions outside the module
	Name  string
	Value Operand
}

// CallInstr represents a function call instruction.
type CallInstr struct {
	HasDst bool
	Dst    Place
	Callee Callee
	Args   []Operand
}

// DropInstr represents a drop instruction.
type DropInstr struct {
	Place Place
}

// EndBorrowInstr represents an end borrow instruction.
type EndBorrowInstr struct {
	Place Place
}

// OperandKind distinguishes operand types.
type OperandKind uint8

const (
	// OperandConst represents a constant operand.
	OperandConst OperandKind = iota
	// OperandCopy reads a place without consuming it.
	OperandCopy
	// OperandMove reads a place and consumes the value.
	OperandMove
	// OperandAddrOf takes a shared borrow of a place.
	OperandAddrOf
	// OperandAddrOfMut takes a mutable borrow of a place.
	OperandAddrOfMut
	// OperandAddrOfUniq takes a unique closure-capture borrow: the variable
	// stays readable outside but no second closure may capture it. Valid only
	// inside ClosureLit captures.
	OperandAddrOfUniq
)

// Operand represents a MIR operand.
type Operand struct {
	Kind OperandKind
	Type types.TypeID

	Const Const
	Place Place
}

// IsPlace reports whether the operand reads or borrows a place.
func (op Operand) IsPlace() bool {
	return op.Kind != OperandConst
}

// IsBorrow reports whether the operand creates a borrow.
func (op Operand) IsBorrow() bool {
	switch op.Kind {
	case OperandAddrOf, OperandAddrOfMut, OperandAddrOfUniq:
		return true
	default:
		return false
	}
}

// ConstKind distinguishes constant kinds.
type ConstKind uint8

const (
	// ConstInt represents an integer constant.
	ConstInt ConstKind = iota
	// ConstUint represents an unsigned integer constant.
	ConstUint
	// ConstFloat represents a float constant.
	ConstFloat
	// ConstBool represents a boolean constant.
	ConstBool
	// ConstString represents a string constant.
	ConstString
	// ConstUnit represents the unit value.
	ConstUnit
	// ConstFn references a function by ID.
	ConstFn
)

// Const represents a MIR constant.
type Const struct {
	Kind ConstKind
	Type types.TypeID

	IntValue    int64
	UintValue   uint64
	FloatValue  float64
	BoolValue   bool
	StringValue string
	Fn          FuncID
}

// RValueKind distinguishes right-hand value kinds.
type RValueKind uint8

const (
	// RValueUse represents a use of a value.
	RValueUse RValueKind = iota
	// RValueUnary represents a unary operation.
	RValueUnary
	// RValueBinary represents a binary operation.
	RValueBinary
	// RValueCast represents a cast operation.
	RValueCast
	// RValueStructLit represents a struct literal.
	RValueStructLit
	// RValueArrayLit represents an array literal.
	RValueArrayLit
	// RValueTupleLit represents a tuple literal.
	RValueTupleLit
	// RValueClosure constructs a closure capturing enclosing variables.
	RValueClosure
)

// RValue represents a right-hand value in MIR.
type RValue struct {
	Kind RValueKind

	Use       Operand
	Unary     UnaryOp
	Binary    BinaryOp
	Cast      CastOp
	StructLit StructLit
	ArrayLit  ArrayLit
	TupleLit  TupleLit
	Closure   ClosureLit
}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	UnNeg UnOp = iota
	UnNot
)

func (op UnOp) String() string {
	switch op {
	case UnNeg:
		return "-"
	case UnNot:
		return "!"
	default:
		return "?"
	}
}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinRem:
		return "%"
	case BinAnd:
		return "&&"
	case BinOr:
		return "||"
	case BinEq:
		return "=="
	case BinNe:
		return "!="
	case BinLt:
		return "<"
	case BinLe:
		return "<="
	case BinGt:
		return ">"
	case BinGe:
		return ">="
	default:
		return "?"
	}
}

// UnaryOp represents a unary operation.
type UnaryOp struct {
	Op      UnOp
	Operand Operand
}

// BinaryOp represents a binary operation.
type BinaryOp struct {
	Op    BinOp
	Left  Operand
	Right Operand
}

// CastOp represents a cast operation.
type CastOp struct {
	Value    Operand
	TargetTy types.TypeID
}

// StructLitField represents a struct literal field.
type StructLitField struct {
	Name  string
	Value Operand
}

// StructLit represents a struct literal.
type StructLit struct {
	TypeID types.TypeID
	Fields []StructLitField
}

// ArrayLit represents an array literal.
type ArrayLit struct {
	Elems []Operand
}

// TupleLit represents a tuple literal.
type TupleLit struct {
	Elems []Operand
}

// Capture is one captured variable in a closure literal.
type Capture struct {
	Name string
	// Value reads or borrows the captured place. AddrOfUniq operands may
	// appear here and nowhere else.
	Value Operand
	// UseSpan is the first use of the variable inside the closure body.
	UseSpan source.Span
}

// ClosureLit constructs a closure value capturing the listed places.
type ClosureLit struct {
	// Fn is the closure body; NoFuncID when the body lives outside the module.
	Fn FuncID
	// ParamsSpan covers the closure's parameter list at the construction site.
	ParamsSpan source.Span
	Captures   []Capture
}
