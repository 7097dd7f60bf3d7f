package dataflow

import (
	"borrowck/internal/mir"
)

// Problem defines one forward may-analysis: the entry seed and the transfer
// function applied at every location. Apply mutates state in place; it must
// be monotone (may only depend on facts present, never resurrect removed
// ones across iterations) for the fixed point to terminate.
type Problem[F Fact] interface {
	// Entry seeds the state at function entry.
	Entry(state *Set[F])
	// Apply threads the state through one location, instruction or terminator.
	Apply(loc mir.Location, state *Set[F])
}

// Result holds per-block entry states at the fixed point.
type Result[F Fact] struct {
	f       *mir.Func
	problem Problem[F]
	entry   []*Set[F]
}

// Solve runs the analysis to a fixed point. Blocks are seeded in reverse
// postorder and re-queued only when a predecessor's exit grows their entry.
func Solve[F Fact](f *mir.Func, p Problem[F]) *Result[F] {
	r := &Result[F]{f: f, problem: p}
	if f == nil || len(f.Blocks) == 0 {
		return r
	}

	r.entry = make([]*Set[F], len(f.Blocks))
	for i := range r.entry {
		r.entry[i] = NewSet[F]()
	}
	p.Entry(r.entry[f.Entry])

	order := mir.ReversePostorder(f)
	queued := make([]bool, len(f.Blocks))
	queue := make([]mir.BlockID, 0, len(order))
	for _, id := range order {
		queue = append(queue, id)
		queued[id] = true
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		queued[id] = false

		state := r.entry[id].Clone()
		r.applyBlock(id, state)

		for _, succ := range f.Blocks[id].Term.Successors() {
			if succ < 0 || int(succ) >= len(f.Blocks) {
				continue
			}
			if r.entry[succ].UnionWith(state) && !queued[succ] {
				queue = append(queue, succ)
				queued[succ] = true
			}
		}
	}
	return r
}

// applyBlock threads state through every instruction and the terminator.
func (r *Result[F]) applyBlock(id mir.BlockID, state *Set[F]) {
	bb := r.f.Block(id)
	if bb == nil {
		return
	}
	for i := range bb.Instrs {
		r.problem.Apply(mir.Location{Block: id, Index: int32(i)}, state) //nolint:gosec // G115: bounded by block length
	}
	r.problem.Apply(r.f.TermLocation(id), state)
}

// EntryOf returns a copy of the block's entry state.
func (r *Result[F]) EntryOf(id mir.BlockID) *Set[F] {
	if id < 0 || int(id) >= len(r.entry) {
		return NewSet[F]()
	}
	return r.entry[id].Clone()
}

// StateAt replays the block up to the location and returns the state holding
// just before it executes.
func (r *Result[F]) StateAt(loc mir.Location) *Set[F] {
	state := r.EntryOf(loc.Block)
	bb := r.f.Block(loc.Block)
	if bb == nil {
		return state
	}
	for i := 0; int32(i) < loc.Index && i < len(bb.Instrs); i++ { //nolint:gosec // G115: bounded by block length
		r.problem.Apply(mir.Location{Block: loc.Block, Index: int32(i)}, state) //nolint:gosec // G115: bounded by block length
	}
	return state
}

// Visit replays one block, handing the visitor the state holding just before
// each location. The visitor must not retain the set between calls.
func (r *Result[F]) Visit(id mir.BlockID, visit func(loc mir.Location, before *Set[F])) {
	bb := r.f.Block(id)
	if bb == nil {
		return
	}
	state := r.EntryOf(id)
	for i := range bb.Instrs {
		loc := mir.Location{Block: id, Index: int32(i)} //nolint:gosec // G115: bounded by block length
		visit(loc, state)
		r.problem.Apply(loc, state)
	}
	visit(r.f.TermLocation(id), state)
}
