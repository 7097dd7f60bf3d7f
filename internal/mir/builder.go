package mir

import (
	"fmt"

	"fortio.org/safecast"

	"borrowck/internal/source"
	"borrowck/internal/types"
)

// FuncBuilder assembles a Func block by block. It mirrors how the upstream
// lowerer emits bodies: blocks are allocated up front, instructions append to
// the current block, and emission into a terminated block is silently
// ignored so unreachable tails do not corrupt the CFG.
type FuncBuilder struct {
	f        *Func
	cur      BlockID
	nextTemp uint32
}

// NewFuncBuilder starts a function with an empty entry block.
func NewFuncBuilder(id FuncID, name string, result types.TypeID) *FuncBuilder {
	b := &FuncBuilder{
		f: &Func{
			ID:     id,
			Name:   name,
			Result: result,
			Entry:  NoBlockID,
		},
		cur:      NoBlockID,
		nextTemp: 1,
	}
	entry := b.NewBlock()
	b.f.Entry = entry
	b.StartBlock(entry)
	return b
}

// NewBlock allocates an unterminated block and returns its ID.
func (b *FuncBuilder) NewBlock() BlockID {
	if b == nil || b.f == nil {
		return NoBlockID
	}
	raw, err := safecast.Conv[int32](len(b.f.Blocks))
	if err != nil {
		panic(fmt.Errorf("mir: block id overflow: %w", err))
	}
	id := BlockID(raw)
	b.f.Blocks = append(b.f.Blocks, Block{ID: id, Term: Terminator{Kind: TermNone}})
	return id
}

// StartBlock makes id the target of subsequent Emit/SetTerm calls.
func (b *FuncBuilder) StartBlock(id BlockID) {
	if b == nil {
		return
	}
	b.cur = id
}

// Emit appends an instruction to the current block.
func (b *FuncBuilder) Emit(ins *Instr) {
	blk := b.curBlock()
	if blk == nil || blk.Terminated() || ins == nil {
		return
	}
	blk.Instrs = append(blk.Instrs, *ins)
}

// SetTerm terminates the current block. A second terminator is ignored.
func (b *FuncBuilder) SetTerm(t *Terminator) {
	blk := b.curBlock()
	if blk == nil || blk.Terminated() || t == nil {
		return
	}
	blk.Term = *t
}

func (b *FuncBuilder) curBlock() *Block {
	if b == nil || b.f == nil {
		return nil
	}
	return b.f.Block(b.cur)
}

// AddLocal appends a local and returns its ID.
func (b *FuncBuilder) AddLocal(l Local) LocalID {
	if b == nil || b.f == nil {
		return NoLocalID
	}
	raw, err := safecast.Conv[int32](len(b.f.Locals))
	if err != nil {
		panic(fmt.Errorf("mir: local id overflow: %w", err))
	}
	id := LocalID(raw)
	b.f.Locals = append(b.f.Locals, l)
	return id
}

// AddStaticRef declares a local naming the module global ref points at.
func (b *FuncBuilder) AddStaticRef(ref uint32, name string, ty types.TypeID, span source.Span) LocalID {
	return b.AddLocal(Local{
		Kind:      LocalStatic,
		Type:      ty,
		Name:      name,
		Span:      span,
		StaticRef: ref,
	})
}

// NewTemp allocates a compiler temporary.
func (b *FuncBuilder) NewTemp(ty types.TypeID, hint string, span source.Span) LocalID {
	if b == nil || b.f == nil {
		return NoLocalID
	}
	name := fmt.Sprintf("tmp_%s%d", hint, b.nextTemp)
	b.nextTemp++
	return b.AddLocal(Local{
		Kind: LocalTemp,
		Type: ty,
		Name: name,
		Span: span,
	})
}

// Finish returns the assembled function.
func (b *FuncBuilder) Finish() *Func {
	if b == nil {
		return nil
	}
	return b.f
}

// Operand and rvalue constructors -------------------------------------------

// MoveOf reads the place by move.
func MoveOf(p Place, ty types.TypeID) Operand {
	return Operand{Kind: OperandMove, Type: ty, Place: p}
}

// CopyOf reads the place by copy.
func CopyOf(p Place, ty types.TypeID) Operand {
	return Operand{Kind: OperandCopy, Type: ty, Place: p}
}

// RefOf takes a shared borrow of the place.
func RefOf(p Place, ty types.TypeID) Operand {
	return Operand{Kind: OperandAddrOf, Type: ty, Place: p}
}

// RefMutOf takes a mutable borrow of the place.
func RefMutOf(p Place, ty types.TypeID) Operand {
	return Operand{Kind: OperandAddrOfMut, Type: ty, Place: p}
}

// RefUniqOf takes a unique closure-capture borrow of the place.
func RefUniqOf(p Place, ty types.TypeID) Operand {
	return Operand{Kind: OperandAddrOfUniq, Type: ty, Place: p}
}

// IntConst wraps an integer literal.
func IntConst(v int64, ty types.TypeID) Operand {
	return Operand{Kind: OperandConst, Type: ty, Const: Const{Kind: ConstInt, Type: ty, IntValue: v}}
}

// BoolConst wraps a boolean literal.
func BoolConst(v bool, ty types.TypeID) Operand {
	return Operand{Kind: OperandConst, Type: ty, Const: Const{Kind: ConstBool, Type: ty, BoolValue: v}}
}

// UnitConst wraps the unit value.
func UnitConst(ty types.TypeID) Operand {
	return Operand{Kind: OperandConst, Type: ty, Const: Const{Kind: ConstUnit, Type: ty}}
}

// UseOf wraps an operand as an rvalue.
func UseOf(op Operand) RValue {
	return RValue{Kind: RValueUse, Use: op}
}
