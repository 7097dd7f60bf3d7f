package dataflow_test

import (
	"testing"

	"borrowck/internal/dataflow"
)

func TestSetBasics(t *testing.T) {
	s := dataflow.NewSet[int32]()
	if s.Len() != 0 {
		t.Fatalf("new set len = %d", s.Len())
	}
	s.Add(3)
	s.Add(7)
	s.Add(3)
	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}
	if !s.Has(3) || !s.Has(7) || s.Has(4) {
		t.Error("membership mismatch after adds")
	}
	s.Remove(3)
	if s.Has(3) || s.Len() != 1 {
		t.Error("remove did not take")
	}
	s.Remove(100) // absent, no-op
	if s.Len() != 1 {
		t.Error("removing an absent fact changed the set")
	}
}

func TestSetUnionWith(t *testing.T) {
	a := dataflow.NewSet[int32]()
	a.Add(1)
	a.Add(2)

	b := dataflow.NewSet[int32]()
	b.Add(2)
	b.Add(3)

	if !a.UnionWith(b) {
		t.Error("union adding a new fact reported no growth")
	}
	if a.Len() != 3 || !a.Has(3) {
		t.Errorf("union result = %v", a.Items())
	}
	if a.UnionWith(b) {
		t.Error("union with a subset reported growth")
	}
	// b is untouched.
	if b.Len() != 2 || b.Has(1) {
		t.Errorf("union mutated its argument: %v", b.Items())
	}
}

func TestSetClone(t *testing.T) {
	a := dataflow.NewSet[int32]()
	a.Add(5)
	c := a.Clone()
	c.Add(6)
	c.Remove(5)
	if !a.Has(5) || a.Has(6) {
		t.Errorf("clone shares storage with the original: %v", a.Items())
	}
}

func TestSetItemsSorted(t *testing.T) {
	s := dataflow.NewSet[int32]()
	for _, f := range []int32{9, 1, 5, 3} {
		s.Add(f)
	}
	got := s.Items()
	want := []int32{1, 3, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("items = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}
}
