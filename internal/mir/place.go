package mir

import (
	"borrowck/internal/types"
)

// ProjKind enumerates place projection kinds.
type ProjKind uint8

const (
	// ProjDeref descends through a reference, own box or raw pointer.
	ProjDeref ProjKind = iota
	// ProjField selects a struct/tuple/variant field.
	ProjField
	// ProjIndex selects an array element by a runtime index local.
	ProjIndex
	// ProjConstIndex selects an array element at a compile-time offset.
	ProjConstIndex
	// ProjDowncast narrows a union to one variant; fields projected after it
	// resolve against that variant.
	ProjDowncast
)

// Proj is a single projection step applied to a place.
type Proj struct {
	Kind ProjKind

	// ProjField: resolved name (empty for positional fields) and index.
	FieldName string
	FieldIdx  uint32

	// ProjIndex: local holding the runtime index.
	IndexLocal LocalID

	// ProjConstIndex: element offset.
	Offset uint32

	// ProjDowncast: variant index and resolved name.
	Variant     uint32
	VariantName string
}

// Place names a storage location: a local plus a projection path.
type Place struct {
	Local LocalID
	Proj  []Proj
}

func (p Place) IsValid() bool {
	return p.Local != NoLocalID
}

// Root returns the place's base local without projections.
func (p Place) Root() Place {
	return Place{Local: p.Local}
}

// Equal reports structural identity of two places.
func (p Place) Equal(other Place) bool {
	if p.Local != other.Local || len(p.Proj) != len(other.Proj) {
		return false
	}
	for i := range p.Proj {
		if !sameProj(p.Proj[i], other.Proj[i]) {
			return false
		}
	}
	return true
}

func sameProj(a, b Proj) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ProjField:
		return a.FieldIdx == b.FieldIdx
	case ProjIndex:
		return a.IndexLocal == b.IndexLocal
	case ProjConstIndex:
		return a.Offset == b.Offset
	case ProjDowncast:
		return a.Variant == b.Variant
	default:
		return true
	}
}

// Place constructors --------------------------------------------------------

// LocalPlace wraps a bare local as a place.
func LocalPlace(id LocalID) Place {
	return Place{Local: id}
}

// FieldOf extends the place with a field projection.
func FieldOf(base Place, name string, idx uint32) Place {
	return appendProj(base, Proj{Kind: ProjField, FieldName: name, FieldIdx: idx})
}

// DerefOf extends the place with a deref projection.
func DerefOf(base Place) Place {
	return appendProj(base, Proj{Kind: ProjDeref})
}

// IndexOf extends the place with a runtime index projection.
func IndexOf(base Place, index LocalID) Place {
	return appendProj(base, Proj{Kind: ProjIndex, IndexLocal: index})
}

// ConstIndexOf extends the place with a constant index projection.
func ConstIndexOf(base Place, offset uint32) Place {
	return appendProj(base, Proj{Kind: ProjConstIndex, Offset: offset})
}

// DowncastOf extends the place with a variant downcast projection.
func DowncastOf(base Place, variant uint32, name string) Place {
	return appendProj(base, Proj{Kind: ProjDowncast, Variant: variant, VariantName: name})
}

func appendProj(base Place, proj Proj) Place {
	out := Place{Local: base.Local, Proj: make([]Proj, 0, len(base.Proj)+1)}
	out.Proj = append(out.Proj, base.Proj...)
	out.Proj = append(out.Proj, proj)
	return out
}

// Place typing --------------------------------------------------------------

// PlaceType walks the projection path and returns the type of the named
// location. NoTypeID when any step cannot be resolved.
func PlaceType(f *Func, typesIn *types.Interner, p Place) types.TypeID {
	if f == nil || !p.IsValid() || int(p.Local) >= len(f.Locals) {
		return types.NoTypeID
	}
	cur := f.Locals[p.Local].Type
	variant := int32(-1)
	for _, proj := range p.Proj {
		if typesIn == nil || cur == types.NoTypeID {
			return types.NoTypeID
		}
		tt, ok := typesIn.Lookup(cur)
		if !ok {
			return types.NoTypeID
		}
		switch proj.Kind {
		case ProjDeref:
			switch tt.Kind {
			case types.KindReference, types.KindPointer, types.KindOwn:
				cur = tt.Elem
			default:
				return types.NoTypeID
			}
			variant = -1
		case ProjField:
			cur = fieldType(typesIn, cur, tt, variant, proj.FieldIdx)
			variant = -1
		case ProjIndex, ProjConstIndex:
			if tt.Kind != types.KindArray {
				return types.NoTypeID
			}
			cur = tt.Elem
			variant = -1
		case ProjDowncast:
			if tt.Kind != types.KindUnion {
				return types.NoTypeID
			}
			variant = int32(proj.Variant)
		}
	}
	return cur
}

func fieldType(typesIn *types.Interner, id types.TypeID, tt types.Type, variant int32, idx uint32) types.TypeID {
	switch tt.Kind {
	case types.KindStruct:
		fields := typesIn.StructFields(id)
		if int(idx) < len(fields) {
			return fields[idx].Type
		}
	case types.KindTuple:
		if info, ok := typesIn.TupleInfo(id); ok && int(idx) < len(info.Elems) {
			return info.Elems[idx]
		}
	case types.KindUnion:
		if variant < 0 {
			return types.NoTypeID
		}
		if v, ok := typesIn.UnionVariant(id, uint32(variant)); ok && int(idx) < len(v.Fields) {
			return v.Fields[idx].Type
		}
	}
	return types.NoTypeID
}

// DereferencesRawPointer reports whether any deref step in the place goes
// through a raw pointer. Such accesses sit outside the ownership discipline
// and conflict detection skips them.
func DereferencesRawPointer(f *Func, typesIn *types.Interner, p Place) bool {
	if f == nil || typesIn == nil || !p.IsValid() || int(p.Local) >= len(f.Locals) {
		return false
	}
	cur := f.Locals[p.Local].Type
	variant := int32(-1)
	for _, proj := range p.Proj {
		tt, ok := typesIn.Lookup(cur)
		if !ok {
			return false
		}
		switch proj.Kind {
		case ProjDeref:
			if tt.Kind == types.KindPointer {
				return true
			}
			if tt.Kind != types.KindReference && tt.Kind != types.KindOwn {
				return false
			}
			cur = tt.Elem
			variant = -1
		case ProjField:
			cur = fieldType(typesIn, cur, tt, variant, proj.FieldIdx)
			variant = -1
		case ProjIndex, ProjConstIndex:
			if tt.Kind != types.KindArray {
				return false
			}
			cur = tt.Elem
			variant = -1
		case ProjDowncast:
			if tt.Kind != types.KindUnion {
				return false
			}
			variant = int32(proj.Variant)
		}
	}
	return false
}
