package check

import (
	"borrowck/internal/mir"
	"borrowck/internal/source"
)

// useSpans attributes one use of a place. The closure form carries two
// spans: the capturing closure's parameter list and the first use of the
// captured variable inside its body. The plain form carries the use span
// itself.
type useSpans struct {
	closure  bool
	argsSpan source.Span
	varSpan  source.Span
	span     source.Span
}

func otherUse(sp source.Span) useSpans {
	return useSpans{span: sp}
}

func closureUse(args, varSp source.Span) useSpans {
	return useSpans{closure: true, argsSpan: args, varSpan: varSp}
}

// argsOrUse is the span diagnostics point their primary at.
func (u useSpans) argsOrUse() source.Span {
	if u.closure {
		return u.argsSpan
	}
	return u.span
}

// varOrUse is the span for labels that follow the value into the closure.
func (u useSpans) varOrUse() source.Span {
	if u.closure {
		return u.varSpan
	}
	return u.span
}

// moveSpans attributes a move or copy of movedPlace executed at loc. When
// the instruction there constructs a closure capturing the place, the
// closure attribution wins; otherwise the instruction's own span.
func (c *checker) moveSpans(movedPlace mir.Place, loc mir.Location) useSpans {
	ins := c.f.InstrAt(loc)
	if ins == nil {
		return otherUse(c.f.SpanAt(loc))
	}
	if ins.Kind == mir.InstrAssign && ins.Assign.Src.Kind == mir.RValueClosure {
		cl := &ins.Assign.Src.Closure
		for i := range cl.Captures {
			op := cl.Captures[i].Value
			if op.Kind != mir.OperandMove && op.Kind != mir.OperandCopy {
				continue
			}
			if op.Place.Equal(movedPlace) {
				return closureUse(cl.ParamsSpan, cl.Captures[i].UseSpan)
			}
		}
	}
	return otherUse(ins.Span)
}

// borrowSpans attributes a borrow whose value lands in a compiler temporary
// at loc: when a closure construction later in the same expression captures
// that temporary whole, the borrow really happens for the closure. The scan
// stays within statements carrying the same span as the use, so a borrow is
// never attributed to an unrelated closure further down the block.
func (c *checker) borrowSpans(useSpan source.Span, loc mir.Location) useSpans {
	ins := c.f.InstrAt(loc)
	if ins == nil || ins.Kind != mir.InstrAssign || len(ins.Assign.Dst.Proj) != 0 {
		return otherUse(useSpan)
	}
	tmp := ins.Assign.Dst.Local
	l := c.f.LocalData(tmp)
	if l == nil || l.Kind != mir.LocalTemp {
		return otherUse(useSpan)
	}

	bb := c.f.Block(loc.Block)
	if bb == nil {
		return otherUse(useSpan)
	}
	for i := int(loc.Index) + 1; i < len(bb.Instrs); i++ {
		next := &bb.Instrs[i]
		if next.Span != useSpan {
			break
		}
		if next.Kind != mir.InstrAssign || next.Assign.Src.Kind != mir.RValueClosure {
			continue
		}
		cl := &next.Assign.Src.Closure
		for j := range cl.Captures {
			op := cl.Captures[j].Value
			if op.Kind != mir.OperandMove && op.Kind != mir.OperandCopy {
				continue
			}
			if op.Place.Local == tmp && len(op.Place.Proj) == 0 {
				return closureUse(cl.ParamsSpan, cl.Captures[j].UseSpan)
			}
		}
	}
	return otherUse(useSpan)
}

// recordSpans attributes an issued borrow record at its reservation point.
func (c *checker) recordSpans(rec recordRef) useSpans {
	return c.borrowSpans(rec.r.Span, rec.r.Loc)
}
