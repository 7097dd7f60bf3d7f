package types

import (
	"testing"

	"borrowck/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	unit, _ := in.Lookup(b.Unit)
	if unit.Kind != KindUnit {
		t.Fatalf("expected unit kind, got %v", unit.Kind)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Intern(Type{Kind: KindString})
	arr1 := in.Intern(MakeArray(elem, ArrayDynamicLength))
	arr2 := in.Intern(MakeArray(elem, ArrayDynamicLength))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
}

func TestReferenceMutabilityAffectsIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int
	mut := in.Intern(MakeReference(elem, true))
	imm := in.Intern(MakeReference(elem, false))
	if mut == imm {
		t.Fatalf("mutable and immutable references must differ")
	}
}

func TestStructFieldsRoundTrip(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner()
	in.Strings = strs

	name := strs.Intern("Point")
	x := strs.Intern("x")
	y := strs.Intern("y")
	id := in.RegisterStruct(name, source.Span{})
	in.SetStructFields(id, []StructField{
		{Name: x, Type: in.Builtins().Int},
		{Name: y, Type: in.Builtins().Int},
	})

	fields := in.StructFields(id)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Name != x || fields[1].Name != y {
		t.Fatalf("field names out of order: %+v", fields)
	}

	// Distinct registrations are distinct types even with the same name.
	other := in.RegisterStruct(name, source.Span{})
	if other == id {
		t.Fatalf("struct registrations must not be deduplicated")
	}
}

func TestUnionVariantLookup(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner()
	in.Strings = strs

	id := in.RegisterUnion(strs.Intern("Shape"), source.Span{})
	in.SetUnionVariants(id, []UnionVariant{
		{Name: strs.Intern("Dot")},
		{Name: strs.Intern("Rect"), Fields: []StructField{
			{Name: strs.Intern("w"), Type: in.Builtins().Int},
			{Name: strs.Intern("h"), Type: in.Builtins().Int},
		}},
	})

	v, ok := in.UnionVariant(id, 1)
	if !ok || len(v.Fields) != 2 {
		t.Fatalf("variant 1 lookup failed: %+v ok=%v", v, ok)
	}
	if _, ok := in.UnionVariant(id, 2); ok {
		t.Fatalf("variant index out of range must fail")
	}
}

func TestFnRegistrationDeduplicates(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	fn1 := in.RegisterFn([]TypeID{b.Int, b.Bool}, b.Unit)
	fn2 := in.RegisterFn([]TypeID{b.Int, b.Bool}, b.Unit)
	fn3 := in.RegisterFn([]TypeID{b.Bool, b.Int}, b.Unit)
	if fn1 != fn2 {
		t.Fatalf("identical fn signatures should share a TypeID")
	}
	if fn1 == fn3 {
		t.Fatalf("different param order must produce a different TypeID")
	}
}
