package mir

import (
	"errors"
	"fmt"

	"borrowck/internal/types"
)

// Validate checks MIR module invariants.
// Returns error if any invariant is violated.
func Validate(m *Module, typesIn *types.Interner) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.SortedFuncs() {
		if err := validateFunc(m, f, typesIn); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(m *Module, f *Func, typesIn *types.Interner) error {
	if f == nil {
		return nil
	}

	var errs []error

	// 1. Check all blocks terminated
	if err := validateBlocksTerminated(f); err != nil {
		errs = append(errs, err)
	}

	// 2. Check entry and block targets exist
	if err := validateBlockTargets(f); err != nil {
		errs = append(errs, err)
	}

	// 3. Check local IDs exist in instructions
	if err := validateLocalIDs(f); err != nil {
		errs = append(errs, err)
	}

	// 4. Check local types known
	if err := validateTypes(f); err != nil {
		errs = append(errs, err)
	}

	// 5. Check return value presence against result type
	if err := validateReturn(f, typesIn); err != nil {
		errs = append(errs, err)
	}

	// 6. Check EndBorrow and Drop shapes
	if err := validateEndBorrow(f, typesIn); err != nil {
		errs = append(errs, err)
	}
	if err := validateDrop(f, typesIn); err != nil {
		errs = append(errs, err)
	}

	// 7. Check unique borrows appear only in closure captures
	if err := validateUniqueBorrows(f); err != nil {
		errs = append(errs, err)
	}

	// 8. Check closure bodies and capture wiring
	if err := validateClosures(m, f); err != nil {
		errs = append(errs, err)
	}

	// 9. Check projections resolve against the type tables
	if err := validateProjections(f, typesIn); err != nil {
		errs = append(errs, err)
	}

	// 10. Check static locals against the module globals
	if err := validateStatics(m, f); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validateBlocksTerminated checks that every block ends with a terminator.
func validateBlocksTerminated(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
	}
	return errors.Join(errs...)
}

// validateBlockTargets checks that the entry and all target IDs exist.
func validateBlockTargets(f *Func) error {
	var errs []error

	blockExists := func(id BlockID) bool {
		return id >= 0 && int(id) < len(f.Blocks)
	}

	if len(f.Blocks) > 0 && !blockExists(f.Entry) {
		errs = append(errs, fmt.Errorf("entry block bb%d does not exist", f.Entry))
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		switch bb.Term.Kind {
		case TermGoto:
			if !blockExists(bb.Term.Goto.Target) {
				errs = append(errs, fmt.Errorf("bb%d: goto target bb%d does not exist", i, bb.Term.Goto.Target))
			}
		case TermIf:
			if !blockExists(bb.Term.If.Then) {
				errs = append(errs, fmt.Errorf("bb%d: if then target bb%d does not exist", i, bb.Term.If.Then))
			}
			if !blockExists(bb.Term.If.Else) {
				errs = append(errs, fmt.Errorf("bb%d: if else target bb%d does not exist", i, bb.Term.If.Else))
			}
		case TermSwitch:
			seen := make(map[uint32]bool)
			for j, c := range bb.Term.Switch.Cases {
				if seen[c.Variant] {
					errs = append(errs, fmt.Errorf("bb%d: switch has duplicate case for variant %d", i, c.Variant))
				}
				seen[c.Variant] = true

				if !blockExists(c.Target) {
					errs = append(errs, fmt.Errorf("bb%d: switch case %d (variant %d) target bb%d does not exist",
						i, j, c.Variant, c.Target))
				}
			}
			if !blockExists(bb.Term.Switch.Default) {
				errs = append(errs, fmt.Errorf("bb%d: switch default target bb%d does not exist",
					i, bb.Term.Switch.Default))
			}
		}
	}
	return errors.Join(errs...)
}

// validateLocalIDs checks that all LocalID references are valid.
func validateLocalIDs(f *Func) error {
	var errs []error

	localExists := func(id LocalID) bool {
		return id >= 0 && int(id) < len(f.Locals)
	}

	checkPlace := func(p Place, context string) {
		if p.Local != NoLocalID && !localExists(p.Local) {
			errs = append(errs, fmt.Errorf("%s: local L%d does not exist", context, p.Local))
		}
		for _, proj := range p.Proj {
			if proj.Kind == ProjIndex && proj.IndexLocal != NoLocalID && !localExists(proj.IndexLocal) {
				errs = append(errs, fmt.Errorf("%s: index local L%d does not exist", context, proj.IndexLocal))
			}
		}
	}

	checkOperand := func(op Operand, context string) {
		if op.IsPlace() {
			checkPlace(op.Place, context)
		}
	}

	checkRValue := func(rv *RValue, context string) {
		switch rv.Kind {
		case RValueUse:
			checkOperand(rv.Use, context)
		case RValueUnary:
			checkOperand(rv.Unary.Operand, context)
		case RValueBinary:
			checkOperand(rv.Binary.Left, context)
			checkOperand(rv.Binary.Right, context)
		case RValueCast:
			checkOperand(rv.Cast.Value, context)
		case RValueStructLit:
			for i := range rv.StructLit.Fields {
				checkOperand(rv.StructLit.Fields[i].Value, context)
			}
		case RValueArrayLit:
			for _, elem := range rv.ArrayLit.Elems {
				checkOperand(elem, context)
			}
		case RValueTupleLit:
			for _, elem := range rv.TupleLit.Elems {
				checkOperand(elem, context)
			}
		case RValueClosure:
			for i := range rv.Closure.Captures {
				checkOperand(rv.Closure.Captures[i].Value, context)
			}
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			ctx := fmt.Sprintf("bb%d instr %d", i, j)

			switch ins.Kind {
			case InstrAssign:
				checkPlace(ins.Assign.Dst, ctx)
				checkRValue(&ins.Assign.Src, ctx)
			case InstrCall:
				if ins.Call.HasDst {
					checkPlace(ins.Call.Dst, ctx)
				}
				if ins.Call.Callee.Kind == CalleeValue {
					checkOperand(ins.Call.Callee.Value, ctx)
				}
				for _, arg := range ins.Call.Args {
					checkOperand(arg, ctx)
				}
			case InstrDrop:
				checkPlace(ins.Drop.Place, ctx)
			case InstrEndBorrow:
				checkPlace(ins.EndBorrow.Place, ctx)
			}
		}

		// Check terminator operands
		ctx := fmt.Sprintf("bb%d terminator", i)
		switch bb.Term.Kind {
		case TermReturn:
			if bb.Term.Return.HasValue {
				checkOperand(bb.Term.Return.Value, ctx)
			}
		case TermIf:
			checkOperand(bb.Term.If.Cond, ctx)
		case TermSwitch:
			checkOperand(bb.Term.Switch.Value, ctx)
		}
	}

	return errors.Join(errs...)
}

// validateTypes checks that all locals carry a known type.
func validateTypes(f *Func) error {
	var errs []error
	for i, loc := range f.Locals {
		if loc.Type == types.NoTypeID {
			errs = append(errs, fmt.Errorf("local L%d (%s): unknown type", i, loc.Name))
		}
	}
	return errors.Join(errs...)
}

// validateReturn checks that return statements match the result type.
func validateReturn(f *Func, typesIn *types.Interner) error {
	var errs []error

	if f.Result == types.NoTypeID || typesIn == nil {
		return nil
	}

	tt, ok := typesIn.Lookup(f.Result)
	if !ok {
		return nil
	}
	resultless := tt.Kind == types.KindUnit || tt.Kind == types.KindNothing

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if bb.Term.Kind != TermReturn {
			continue
		}

		if resultless && bb.Term.Return.HasValue {
			errs = append(errs, fmt.Errorf("bb%d: return with value in unit function", i))
		}
		if !resultless && !bb.Term.Return.HasValue {
			errs = append(errs, fmt.Errorf("bb%d: return without value in non-unit function", i))
		}
	}

	return errors.Join(errs...)
}

// validateEndBorrow checks that EndBorrow names a bare reference local.
func validateEndBorrow(f *Func, typesIn *types.Interner) error {
	var errs []error

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			if ins.Kind != InstrEndBorrow {
				continue
			}

			p := ins.EndBorrow.Place
			if len(p.Proj) != 0 {
				errs = append(errs, fmt.Errorf("bb%d instr %d: end_borrow on projected place", i, j))
				continue
			}
			loc := f.LocalData(p.Local)
			if loc == nil {
				continue // reported by validateLocalIDs
			}
			if typesIn == nil {
				continue
			}
			if tt, ok := typesIn.Lookup(loc.Type); !ok || tt.Kind != types.KindReference {
				errs = append(errs, fmt.Errorf("bb%d instr %d: end_borrow on non-reference local L%d (%s)",
					i, j, p.Local, loc.Name))
			}
		}
	}

	return errors.Join(errs...)
}

// validateDrop checks that Drop names a bare non-reference local.
func validateDrop(f *Func, typesIn *types.Interner) error {
	var errs []error

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			if ins.Kind != InstrDrop {
				continue
			}

			p := ins.Drop.Place
			if len(p.Proj) != 0 {
				errs = append(errs, fmt.Errorf("bb%d instr %d: drop on projected place", i, j))
				continue
			}
			loc := f.LocalData(p.Local)
			if loc == nil {
				continue
			}
			if loc.Kind == LocalStatic {
				errs = append(errs, fmt.Errorf("bb%d instr %d: drop on static local L%d (%s)",
					i, j, p.Local, loc.Name))
				continue
			}
			if typesIn == nil {
				continue
			}
			if tt, ok := typesIn.Lookup(loc.Type); ok && tt.Kind == types.KindReference {
				errs = append(errs, fmt.Errorf("bb%d instr %d: drop on reference local L%d (%s) (use end_borrow)",
					i, j, p.Local, loc.Name))
			}
		}
	}

	return errors.Join(errs...)
}

// validateUniqueBorrows rejects AddrOfUniq operands outside closure captures.
func validateUniqueBorrows(f *Func) error {
	var errs []error

	checkOperand := func(op Operand, context string) {
		if op.Kind == OperandAddrOfUniq {
			errs = append(errs, fmt.Errorf("%s: unique borrow outside closure capture", context))
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			ctx := fmt.Sprintf("bb%d instr %d", i, j)
			switch ins.Kind {
			case InstrAssign:
				rv := &ins.Assign.Src
				switch rv.Kind {
				case RValueUse:
					checkOperand(rv.Use, ctx)
				case RValueUnary:
					checkOperand(rv.Unary.Operand, ctx)
				case RValueBinary:
					checkOperand(rv.Binary.Left, ctx)
					checkOperand(rv.Binary.Right, ctx)
				case RValueCast:
					checkOperand(rv.Cast.Value, ctx)
				case RValueStructLit:
					for k := range rv.StructLit.Fields {
						checkOperand(rv.StructLit.Fields[k].Value, ctx)
					}
				case RValueArrayLit:
					for _, elem := range rv.ArrayLit.Elems {
						checkOperand(elem, ctx)
					}
				case RValueTupleLit:
					for _, elem := range rv.TupleLit.Elems {
						checkOperand(elem, ctx)
					}
				case RValueClosure:
					// captures are the one place unique borrows belong
				}
			case InstrCall:
				if ins.Call.Callee.Kind == CalleeValue {
					checkOperand(ins.Call.Callee.Value, ctx)
				}
				for _, arg := range ins.Call.Args {
					checkOperand(arg, ctx)
				}
			}
		}

		ctx := fmt.Sprintf("bb%d terminator", i)
		switch bb.Term.Kind {
		case TermReturn:
			if bb.Term.Return.HasValue {
				checkOperand(bb.Term.Return.Value, ctx)
			}
		case TermIf:
			checkOperand(bb.Term.If.Cond, ctx)
		case TermSwitch:
			checkOperand(bb.Term.Switch.Value, ctx)
		}
	}

	return errors.Join(errs...)
}

// validateClosures checks closure literals against the module and upvar
// wiring inside closure bodies.
func validateClosures(m *Module, f *Func) error {
	var errs []error

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			if ins.Kind != InstrAssign || ins.Assign.Src.Kind != RValueClosure {
				continue
			}
			cl := &ins.Assign.Src.Closure
			if cl.Fn == NoFuncID {
				continue
			}
			body := (*Func)(nil)
			if m != nil {
				body = m.Funcs[cl.Fn]
			}
			if body == nil {
				errs = append(errs, fmt.Errorf("bb%d instr %d: closure body fn#%d does not exist", i, j, cl.Fn))
				continue
			}
			if len(body.Captures) != len(cl.Captures) {
				errs = append(errs, fmt.Errorf("bb%d instr %d: closure captures %d values but body fn#%d declares %d",
					i, j, len(cl.Captures), cl.Fn, len(body.Captures)))
			}
		}
	}

	for i, loc := range f.Locals {
		if loc.Upvar != 0 && int(loc.Upvar) > len(f.Captures) {
			errs = append(errs, fmt.Errorf("local L%d (%s): upvar %d out of range", i, loc.Name, loc.Upvar))
		}
	}

	return errors.Join(errs...)
}

// validateStatics checks that static locals and global references agree.
func validateStatics(m *Module, f *Func) error {
	var errs []error

	for i, loc := range f.Locals {
		if loc.Kind == LocalStatic && loc.StaticRef == 0 {
			errs = append(errs, fmt.Errorf("local L%d (%s): static local without global reference", i, loc.Name))
			continue
		}
		if loc.Kind != LocalStatic && loc.StaticRef != 0 {
			errs = append(errs, fmt.Errorf("local L%d (%s): global reference on non-static local", i, loc.Name))
			continue
		}
		if loc.StaticRef == 0 {
			continue
		}
		if loc.Upvar != 0 {
			errs = append(errs, fmt.Errorf("local L%d (%s): static local cannot be an upvar", i, loc.Name))
		}
		g := m.GlobalData(loc.StaticRef)
		if g == nil {
			errs = append(errs, fmt.Errorf("local L%d (%s): global reference %d out of range", i, loc.Name, loc.StaticRef))
			continue
		}
		if g.Type != types.NoTypeID && loc.Type != types.NoTypeID && g.Type != loc.Type {
			errs = append(errs, fmt.Errorf("local L%d (%s): type does not match global %s", i, loc.Name, g.Name))
		}
	}

	return errors.Join(errs...)
}

// validateProjections checks that downcasts sit on unions and fields resolve.
func validateProjections(f *Func, typesIn *types.Interner) error {
	if typesIn == nil {
		return nil
	}
	var errs []error

	checkPlace := func(p Place, context string) {
		if !p.IsValid() || int(p.Local) >= len(f.Locals) || len(p.Proj) == 0 {
			return
		}
		for _, proj := range p.Proj {
			if proj.Kind == ProjDowncast || proj.Kind == ProjField {
				if PlaceType(f, typesIn, p) == types.NoTypeID {
					errs = append(errs, fmt.Errorf("%s: place projection does not resolve", context))
				}
				return
			}
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			ctx := fmt.Sprintf("bb%d instr %d", i, j)
			switch ins.Kind {
			case InstrAssign:
				checkPlace(ins.Assign.Dst, ctx)
				if ins.Assign.Src.Kind == RValueUse && ins.Assign.Src.Use.IsPlace() {
					checkPlace(ins.Assign.Src.Use.Place, ctx)
				}
			case InstrCall:
				if ins.Call.HasDst {
					checkPlace(ins.Call.Dst, ctx)
				}
				for _, arg := range ins.Call.Args {
					if arg.IsPlace() {
						checkPlace(arg.Place, ctx)
					}
				}
			}
		}
	}

	return errors.Join(errs...)
}
