package mir

import (
	"fmt"
	"io"
	"strings"

	"borrowck/internal/source"
	"borrowck/internal/types"
)

// DumpOptions configures MIR module dumping.
type DumpOptions struct {
	// IncludeSpans appends byte span ranges to instructions and terminators.
	IncludeSpans bool
}

// DumpModule writes a human-readable representation of a MIR module.
func DumpModule(w io.Writer, m *Module, typesIn *types.Interner, opts DumpOptions) error {
	if w == nil || m == nil {
		return nil
	}

	if len(m.Globals) > 0 {
		fmt.Fprintf(w, "globals:\n")
		for i := range m.Globals {
			g := &m.Globals[i]
			mut := ""
			if g.Mutable {
				mut = " mut"
			}
			fmt.Fprintf(w, "  G%d: %s%s name=%s\n", i, typeStr(typesIn, g.Type), mut, g.Name)
		}
	}

	funcs := m.SortedFuncs()
	fmt.Fprintf(w, "funcs=%d\n", len(funcs))
	for _, f := range funcs {
		if err := dumpFunc(w, f, typesIn, opts); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func, typesIn *types.Interner, opts DumpOptions) error {
	if w == nil || f == nil {
		return nil
	}
	fmt.Fprintf(w, "\nfn %s:\n", f.Name)

	if len(f.Captures) > 0 {
		fmt.Fprintf(w, "  captures:\n")
		for i := range f.Captures {
			name := f.Captures[i].Name
			if name == "" {
				name = "_"
			}
			mode := "byval"
			if f.Captures[i].ByRef {
				mode = "byref"
			}
			fmt.Fprintf(w, "    c%d: %s %s\n", i, name, mode)
		}
	}

	fmt.Fprintf(w, "  locals:\n")
	for i := range f.Locals {
		l := f.Locals[i]
		attrs := formatLocalAttrs(&l)
		name := l.Name
		if name == "" {
			name = "_"
		}
		if attrs != "" {
			fmt.Fprintf(w, "    L%d: %s %s name=%s\n", i, typeStr(typesIn, l.Type), attrs, name)
		} else {
			fmt.Fprintf(w, "    L%d: %s name=%s\n", i, typeStr(typesIn, l.Type), name)
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(w, "  bb%d:\n", bb.ID)
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			fmt.Fprintf(w, "    %s%s\n", formatInstr(typesIn, ins), spanSuffix(opts, ins.Span))
		}
		fmt.Fprintf(w, "    %s%s\n", formatTerm(&bb.Term), spanSuffix(opts, bb.Term.Span))
	}

	return nil
}

func spanSuffix(opts DumpOptions, sp source.Span) string {
	if !opts.IncludeSpans || sp.Empty() {
		return ""
	}
	return fmt.Sprintf(" @ %d..%d", sp.Start, sp.End)
}

func formatLocalAttrs(l *Local) string {
	var parts []string
	switch l.Kind {
	case LocalArg:
		parts = append(parts, "arg")
	case LocalTemp:
		parts = append(parts, "temp")
	case LocalStatic:
		if l.StaticRef != 0 {
			parts = append(parts, fmt.Sprintf("static#%d", l.StaticRef-1))
		} else {
			parts = append(parts, "static")
		}
	}
	if l.Mutable {
		parts = append(parts, "mut")
	}
	if l.FromPattern {
		parts = append(parts, "pat")
	}
	if l.Upvar != 0 {
		parts = append(parts, fmt.Sprintf("upvar#%d", l.Upvar-1))
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + join(parts, ",") + "]"
}

func join(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}

func formatInstr(typesIn *types.Interner, ins *Instr) string {
	if ins == nil {
		return "<instr?>"
	}
	switch ins.Kind {
	case InstrAssign:
		return fmt.Sprintf("%s = %s", formatPlace(ins.Assign.Dst), formatRValue(typesIn, &ins.Assign.Src))
	case InstrCall:
		dst := ""
		if ins.Call.HasDst {
			dst = formatPlace(ins.Call.Dst) + " = "
		}
		return fmt.Sprintf("%scall %s(%s)", dst, formatCallee(&ins.Call.Callee), formatOperands(ins.Call.Args))
	case InstrDrop:
		return fmt.Sprintf("drop %s", formatPlace(ins.Drop.Place))
	case InstrEndBorrow:
		return fmt.Sprintf("end_borrow %s", formatPlace(ins.EndBorrow.Place))
	case InstrNop:
		return "nop"
	default:
		return "<instr?>"
	}
}

func formatTerm(term *Terminator) string {
	if term == nil {
		return "unreachable"
	}
	switch term.Kind {
	case TermNone:
		return "unreachable"
	case TermReturn:
		if !term.Return.HasValue {
			return "return"
		}
		return fmt.Sprintf("return %s", formatOperand(&term.Return.Value))
	case TermGoto:
		return fmt.Sprintf("goto bb%d", term.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if %s then bb%d else bb%d", formatOperand(&term.If.Cond), term.If.Then, term.If.Else)
	case TermSwitch:
		out := fmt.Sprintf("switch %s {", formatOperand(&term.Switch.Value))
		for _, c := range term.Switch.Cases {
			name := c.VariantName
			if name == "" {
				name = fmt.Sprintf("#%d", c.Variant)
			}
			out += fmt.Sprintf(" %s -> bb%d;", name, c.Target)
		}
		out += fmt.Sprintf(" default -> bb%d; }", term.Switch.Default)
		return out
	case TermUnreachable:
		return "unreachable"
	default:
		return "<term?>"
	}
}

func formatPlace(p Place) string {
	if !p.IsValid() {
		return "L?"
	}
	out := fmt.Sprintf("L%d", p.Local)
	for _, proj := range p.Proj {
		switch proj.Kind {
		case ProjDeref:
			out = fmt.Sprintf("(*%s)", out)
		case ProjField:
			if proj.FieldName != "" {
				out += "." + proj.FieldName
			} else {
				out += fmt.Sprintf(".#%d", proj.FieldIdx)
			}
		case ProjIndex:
			if proj.IndexLocal != NoLocalID {
				out += fmt.Sprintf("[L%d]", proj.IndexLocal)
			} else {
				out += "[?]"
			}
		case ProjConstIndex:
			out += fmt.Sprintf("[%d]", proj.Offset)
		case ProjDowncast:
			name := proj.VariantName
			if name == "" {
				name = fmt.Sprintf("#%d", proj.Variant)
			}
			out = fmt.Sprintf("(%s as %s)", out, name)
		default:
			out += ".<?>"
		}
	}
	return out
}

func formatOperands(ops []Operand) string {
	if len(ops) == 0 {
		return ""
	}
	out := formatOperand(&ops[0])
	for i := 1; i < len(ops); i++ {
		out += ", " + formatOperand(&ops[i])
	}
	return out
}

func formatOperand(op *Operand) string {
	if op == nil {
		return "<op?>"
	}
	switch op.Kind {
	case OperandConst:
		return formatConst(&op.Const)
	case OperandCopy:
		return fmt.Sprintf("copy %s", formatPlace(op.Place))
	case OperandMove:
		return fmt.Sprintf("move %s", formatPlace(op.Place))
	case OperandAddrOf:
		return fmt.Sprintf("addr_of %s", formatPlace(op.Place))
	case OperandAddrOfMut:
		return fmt.Sprintf("addr_of_mut %s", formatPlace(op.Place))
	case OperandAddrOfUniq:
		return fmt.Sprintf("addr_of_uniq %s", formatPlace(op.Place))
	default:
		return "<op?>"
	}
}

func formatConst(c *Const) string {
	if c == nil {
		return "const ?"
	}
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("const %d", c.IntValue)
	case ConstUint:
		return fmt.Sprintf("const %d:uint", c.UintValue)
	case ConstFloat:
		return fmt.Sprintf("const %g", c.FloatValue)
	case ConstBool:
		if c.BoolValue {
			return "const true"
		}
		return "const false"
	case ConstString:
		return fmt.Sprintf("const %q", c.StringValue)
	case ConstUnit:
		return "const ()"
	case ConstFn:
		return fmt.Sprintf("const fn#%d", c.Fn)
	default:
		return "const ?"
	}
}

func formatCallee(c *Callee) string {
	if c == nil {
		return "<callee?>"
	}
	switch c.Kind {
	case CalleeFn:
		if c.Name != "" {
			return c.Name
		}
		return fmt.Sprintf("fn#%d", c.Fn)
	case CalleeValue:
		return formatOperand(&c.Value)
	default:
		return "<callee?>"
	}
}

func formatRValue(typesIn *types.Interner, rv *RValue) string {
	if rv == nil {
		return "<rvalue?>"
	}
	switch rv.Kind {
	case RValueUse:
		return formatOperand(&rv.Use)
	case RValueUnary:
		return fmt.Sprintf("(%v %s)", rv.Unary.Op, formatOperand(&rv.Unary.Operand))
	case RValueBinary:
		return fmt.Sprintf("(%s %v %s)", formatOperand(&rv.Binary.Left), rv.Binary.Op, formatOperand(&rv.Binary.Right))
	case RValueCast:
		return fmt.Sprintf("cast %s to %s", formatOperand(&rv.Cast.Value), typeStr(typesIn, rv.Cast.TargetTy))
	case RValueStructLit:
		out := fmt.Sprintf("struct_lit %s {", typeStr(typesIn, rv.StructLit.TypeID))
		for i := range rv.StructLit.Fields {
			if i > 0 {
				out += ", "
			}
			f := &rv.StructLit.Fields[i]
			out += fmt.Sprintf("%s=%s", f.Name, formatOperand(&f.Value))
		}
		out += "}"
		return out
	case RValueArrayLit:
		out := "array_lit ["
		for i := range rv.ArrayLit.Elems {
			if i > 0 {
				out += ", "
			}
			out += formatOperand(&rv.ArrayLit.Elems[i])
		}
		out += "]"
		return out
	case RValueTupleLit:
		out := "tuple_lit ("
		for i := range rv.TupleLit.Elems {
			if i > 0 {
				out += ", "
			}
			out += formatOperand(&rv.TupleLit.Elems[i])
		}
		out += ")"
		return out
	case RValueClosure:
		caps := make([]string, 0, len(rv.Closure.Captures))
		for i := range rv.Closure.Captures {
			c := &rv.Closure.Captures[i]
			caps = append(caps, fmt.Sprintf("%s=%s", c.Name, formatOperand(&c.Value)))
		}
		return fmt.Sprintf("closure fn#%d [%s]", rv.Closure.Fn, strings.Join(caps, ", "))
	default:
		return "<rvalue?>"
	}
}

func typeStr(typesIn *types.Interner, id types.TypeID) string {
	if id == types.NoTypeID {
		return "?"
	}
	if typesIn == nil {
		return fmt.Sprintf("type#%d", id)
	}
	return types.Label(typesIn, id)
}
