package moves_test

import (
	"testing"

	"borrowck/internal/mir"
	"borrowck/internal/moves"
)

// TestOverlaps tests the structural aliasing rules.
func TestOverlaps(t *testing.T) {
	x := mir.LocalPlace(0)
	y := mir.LocalPlace(1)

	tests := []struct {
		name string
		a, b mir.Place
		want bool
	}{
		{"equal_roots", x, x, true},
		{"different_roots", x, y, false},
		{"ancestor", x, mir.FieldOf(x, "f", 0), true},
		{"descendant", mir.FieldOf(x, "f", 0), x, true},
		{"sibling_fields", mir.FieldOf(x, "a", 0), mir.FieldOf(x, "b", 1), false},
		{"same_field", mir.FieldOf(x, "a", 0), mir.FieldOf(x, "a", 0), true},
		{"nested_disjoint", mir.FieldOf(mir.FieldOf(x, "a", 0), "c", 0), mir.FieldOf(x, "b", 1), false},
		{"const_index_disjoint", mir.ConstIndexOf(x, 0), mir.ConstIndexOf(x, 1), false},
		{"const_index_same", mir.ConstIndexOf(x, 0), mir.ConstIndexOf(x, 0), true},
		{"runtime_indexes_alias", mir.IndexOf(x, 2), mir.IndexOf(x, 3), true},
		{"runtime_vs_const_alias", mir.IndexOf(x, 2), mir.ConstIndexOf(x, 1), true},
		{"variants_disjoint", mir.DowncastOf(x, 0, "None"), mir.DowncastOf(x, 1, "Some"), false},
		{"same_variant", mir.DowncastOf(x, 1, "Some"), mir.DowncastOf(x, 1, "Some"), true},
		{"deref_chain", mir.DerefOf(x), mir.FieldOf(mir.DerefOf(x), "f", 0), true},
		{
			"index_then_disjoint_fields",
			mir.FieldOf(mir.IndexOf(x, 2), "a", 0),
			mir.FieldOf(mir.IndexOf(x, 3), "b", 1),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := moves.Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := moves.Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}
