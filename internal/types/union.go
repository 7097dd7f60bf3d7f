package types

import (
	"fmt"

	"fortio.org/safecast"

	"borrowck/internal/source"
)

// UnionVariant describes a single variant inside a union. Variant fields
// follow the same naming convention as struct fields.
type UnionVariant struct {
	Name   source.StringID
	Fields []StructField
}

// UnionInfo stores metadata for a union type.
type UnionInfo struct {
	Name     source.StringID
	Decl     source.Span
	Variants []UnionVariant
}

// RegisterUnion allocates a nominal union type slot and returns its TypeID.
func (in *Interner) RegisterUnion(name source.StringID, decl source.Span) TypeID {
	slot := in.appendUnionInfo(UnionInfo{Name: name, Decl: decl})
	return in.internRaw(Type{Kind: KindUnion, Payload: slot})
}

// SetUnionVariants stores the resolved variants for the union type.
func (in *Interner) SetUnionVariants(typeID TypeID, variants []UnionVariant) {
	info := in.unionInfo(typeID)
	if info == nil {
		return
	}
	info.Variants = cloneUnionVariants(variants)
}

// UnionInfo returns metadata for the provided union TypeID.
func (in *Interner) UnionInfo(typeID TypeID) (*UnionInfo, bool) {
	info := in.unionInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// UnionVariant returns the variant descriptor at the given index.
func (in *Interner) UnionVariant(typeID TypeID, variant uint32) (*UnionVariant, bool) {
	info := in.unionInfo(typeID)
	if info == nil || int(variant) >= len(info.Variants) {
		return nil, false
	}
	return &info.Variants[variant], true
}

func (in *Interner) unionInfo(typeID TypeID) *UnionInfo {
	if typeID == NoTypeID {
		return nil
	}
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindUnion {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.unions) {
		return nil
	}
	return &in.unions[tt.Payload]
}

func (in *Interner) appendUnionInfo(info UnionInfo) uint32 {
	if in.unions == nil {
		in.unions = append(in.unions, UnionInfo{})
	}
	in.unions = append(in.unions, UnionInfo{
		Name:     info.Name,
		Decl:     info.Decl,
		Variants: cloneUnionVariants(info.Variants),
	})
	slot, err := safecast.Conv[uint32](len(in.unions) - 1)
	if err != nil {
		panic(fmt.Errorf("union info overflow: %w", err))
	}
	return slot
}

func cloneUnionVariants(variants []UnionVariant) []UnionVariant {
	if len(variants) == 0 {
		return nil
	}
	result := make([]UnionVariant, len(variants))
	copy(result, variants)
	for i := range result {
		result[i].Fields = cloneStructFields(result[i].Fields)
	}
	return result
}
