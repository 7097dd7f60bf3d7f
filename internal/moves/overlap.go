package moves

import "borrowck/internal/mir"

// Overlaps reports whether two places can name overlapping storage: equal
// fragments, ancestor and descendant, or index steps that may alias at
// runtime. Statically disjoint siblings never overlap: distinct field
// indices, distinct constant array offsets, downcasts to distinct variants.
func Overlaps(a, b mir.Place) bool {
	if !a.IsValid() || !b.IsValid() || a.Local != b.Local {
		return false
	}
	n := len(a.Proj)
	if len(b.Proj) < n {
		n = len(b.Proj)
	}
	for i := 0; i < n; i++ {
		pa, pb := a.Proj[i], b.Proj[i]
		if pa.Kind != pb.Kind {
			if indexish(pa.Kind) && indexish(pb.Kind) {
				// A runtime index may land on any constant offset.
				continue
			}
			// Mismatched shapes cannot arise from well-typed projections on
			// the same base; stay conservative if they do.
			return true
		}
		switch pa.Kind {
		case mir.ProjField:
			if pa.FieldIdx != pb.FieldIdx {
				return false
			}
		case mir.ProjConstIndex:
			if pa.Offset != pb.Offset {
				return false
			}
		case mir.ProjDowncast:
			if pa.Variant != pb.Variant {
				return false
			}
		case mir.ProjDeref, mir.ProjIndex:
			// Derefs follow the same pointee; two runtime indexes may collide.
		}
	}
	// One projection path is a prefix of the other.
	return true
}

func indexish(k mir.ProjKind) bool {
	return k == mir.ProjIndex || k == mir.ProjConstIndex
}
