// Package dataflow runs forward may-analyses over a function's control flow
// graph: block entry states merge by union, facts thread through each
// instruction in program order, and an explicit worklist iterates to a fixed
// point. Fact universes are small integer id spaces, one per analysis.
package dataflow

import "slices"

// Fact is an analysis fact id. All analyses key their state on dense
// integer-backed ids.
type Fact interface{ ~int32 | ~uint32 }

// Set is a mutable fact set.
type Set[F Fact] struct {
	m map[F]struct{}
}

// NewSet returns an empty set.
func NewSet[F Fact]() *Set[F] {
	return &Set[F]{m: make(map[F]struct{})}
}

// Add inserts the fact.
func (s *Set[F]) Add(f F) {
	s.m[f] = struct{}{}
}

// Remove deletes the fact if present.
func (s *Set[F]) Remove(f F) {
	delete(s.m, f)
}

// Has reports membership.
func (s *Set[F]) Has(f F) bool {
	_, ok := s.m[f]
	return ok
}

// Len returns the number of facts.
func (s *Set[F]) Len() int {
	return len(s.m)
}

// UnionWith adds every fact of other and reports whether the set grew.
func (s *Set[F]) UnionWith(other *Set[F]) bool {
	if other == nil {
		return false
	}
	grew := false
	for f := range other.m {
		if _, ok := s.m[f]; !ok {
			s.m[f] = struct{}{}
			grew = true
		}
	}
	return grew
}

// Clone returns an independent copy.
func (s *Set[F]) Clone() *Set[F] {
	out := &Set[F]{m: make(map[F]struct{}, len(s.m))}
	for f := range s.m {
		out.m[f] = struct{}{}
	}
	return out
}

// Items returns the facts in ascending id order. Conflict reporting iterates
// states, so the order must not depend on map iteration.
func (s *Set[F]) Items() []F {
	out := make([]F, 0, len(s.m))
	for f := range s.m {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
