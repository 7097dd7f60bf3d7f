package types

import (
	"fmt"
	"slices"
)

// Snapshot is a flat copy of the interner tables. The interchange codec
// writes it as the type table and rebuilds an identical interner on decode,
// so TypeIDs stored in the payload stay valid.
type Snapshot struct {
	Types   []Type
	Structs []StructInfo
	Unions  []UnionInfo
	Tuples  []TupleInfo
	Fns     []FnInfo
}

// Snapshot copies the interner tables into a serializable form.
func (in *Interner) Snapshot() Snapshot {
	snap := Snapshot{
		Types:  slices.Clone(in.types),
		Tuples: slices.Clone(in.tuples),
	}
	snap.Structs = make([]StructInfo, len(in.structs))
	for i, info := range in.structs {
		snap.Structs[i] = StructInfo{
			Name:   info.Name,
			Decl:   info.Decl,
			Fields: cloneStructFields(info.Fields),
		}
	}
	snap.Unions = make([]UnionInfo, len(in.unions))
	for i, info := range in.unions {
		snap.Unions[i] = UnionInfo{
			Name:     info.Name,
			Decl:     info.Decl,
			Variants: cloneUnionVariants(info.Variants),
		}
	}
	snap.Fns = make([]FnInfo, len(in.fns))
	for i, info := range in.fns {
		snap.Fns[i] = FnInfo{
			Params: cloneTypeArgs(info.Params),
			Result: info.Result,
		}
	}
	for i := range snap.Tuples {
		snap.Tuples[i].Elems = cloneTypeArgs(snap.Tuples[i].Elems)
	}
	return snap
}

// NewInternerFromSnapshot rebuilds an interner from tables previously
// produced by Snapshot. The type table must start with the invalid sentinel
// and payload slots must stay inside their side tables, otherwise TypeIDs
// recorded against the original interner would dangle.
func NewInternerFromSnapshot(snap Snapshot) (*Interner, error) {
	if len(snap.Types) == 0 || snap.Types[0].Kind != KindInvalid {
		return nil, fmt.Errorf("type table must start with the invalid sentinel entry")
	}
	in := &Interner{
		index: make(map[typeKey]TypeID, len(snap.Types)),
	}
	for i, tt := range snap.Types {
		if err := checkPayload(tt, snap); err != nil {
			return nil, fmt.Errorf("type table entry %d: %w", i, err)
		}
		in.types = append(in.types, tt)
		in.index[typeKey(tt)] = TypeID(uint32(i))
	}
	in.structs = slices.Clone(snap.Structs)
	in.unions = slices.Clone(snap.Unions)
	in.tuples = slices.Clone(snap.Tuples)
	in.fns = slices.Clone(snap.Fns)
	in.builtins = rebuildBuiltins(in)
	return in, nil
}

func checkPayload(tt Type, snap Snapshot) error {
	switch tt.Kind {
	case KindStruct:
		if tt.Payload == 0 || int(tt.Payload) >= len(snap.Structs) {
			return fmt.Errorf("struct payload %d out of range", tt.Payload)
		}
	case KindUnion:
		if tt.Payload == 0 || int(tt.Payload) >= len(snap.Unions) {
			return fmt.Errorf("union payload %d out of range", tt.Payload)
		}
	case KindTuple:
		if tt.Payload == 0 || int(tt.Payload) >= len(snap.Tuples) {
			return fmt.Errorf("tuple payload %d out of range", tt.Payload)
		}
	case KindFn:
		if tt.Payload == 0 || int(tt.Payload) >= len(snap.Fns) {
			return fmt.Errorf("fn payload %d out of range", tt.Payload)
		}
	}
	return nil
}

func rebuildBuiltins(in *Interner) Builtins {
	return Builtins{
		Invalid: NoTypeID,
		Unit:    in.Intern(Type{Kind: KindUnit}),
		Nothing: in.Intern(Type{Kind: KindNothing}),
		Bool:    in.Intern(Type{Kind: KindBool}),
		String:  in.Intern(Type{Kind: KindString}),
		Int:     in.Intern(MakeInt(WidthAny)),
		Uint:    in.Intern(MakeUint(WidthAny)),
		Float:   in.Intern(MakeFloat(WidthAny)),
	}
}
