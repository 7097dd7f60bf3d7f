package mir_test

import (
	"testing"

	"borrowck/internal/mir"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

// TestPlaceEqual tests structural place identity.
func TestPlaceEqual(t *testing.T) {
	base := mir.LocalPlace(0)

	tests := []struct {
		name string
		a, b mir.Place
		want bool
	}{
		{"same_local", mir.LocalPlace(1), mir.LocalPlace(1), true},
		{"different_local", mir.LocalPlace(1), mir.LocalPlace(2), false},
		{"same_field", mir.FieldOf(base, "x", 0), mir.FieldOf(base, "x", 0), true},
		{"different_field", mir.FieldOf(base, "x", 0), mir.FieldOf(base, "y", 1), false},
		{"field_vs_deref", mir.FieldOf(base, "x", 0), mir.DerefOf(base), false},
		{"proj_len", mir.FieldOf(base, "x", 0), base, false},
		{"same_downcast", mir.DowncastOf(base, 1, "Some"), mir.DowncastOf(base, 1, "Some"), true},
		{"different_downcast", mir.DowncastOf(base, 1, "Some"), mir.DowncastOf(base, 0, "None"), false},
		{"same_const_index", mir.ConstIndexOf(base, 2), mir.ConstIndexOf(base, 2), true},
		{"different_const_index", mir.ConstIndexOf(base, 2), mir.ConstIndexOf(base, 3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestPlaceType tests projection path typing.
func TestPlaceType(t *testing.T) {
	stringsIn := source.NewInterner()
	typeInterner := types.NewInterner()
	typeInterner.Strings = stringsIn
	intType := typeInterner.Builtins().Int
	boolType := typeInterner.Builtins().Bool

	pointType := typeInterner.RegisterStruct(stringsIn.Intern("Point"), source.Span{})
	typeInterner.SetStructFields(pointType, []types.StructField{
		{Name: stringsIn.Intern("x"), Type: intType},
		{Name: stringsIn.Intern("y"), Type: intType},
	})

	optType := typeInterner.RegisterUnion(stringsIn.Intern("Opt"), source.Span{})
	typeInterner.SetUnionVariants(optType, []types.UnionVariant{
		{Name: stringsIn.Intern("None")},
		{Name: stringsIn.Intern("Some"), Fields: []types.StructField{
			{Name: stringsIn.Intern("value"), Type: pointType},
		}},
	})

	refPoint := typeInterner.Intern(types.MakeReference(pointType, false))
	pointArray := typeInterner.Intern(types.MakeArray(pointType, types.ArrayDynamicLength))
	pairType := typeInterner.RegisterTuple([]types.TypeID{intType, boolType})

	f := &mir.Func{
		Name: "test",
		Locals: []mir.Local{
			{Name: "p", Type: pointType},
			{Name: "r", Type: refPoint},
			{Name: "arr", Type: pointArray},
			{Name: "i", Type: intType},
			{Name: "opt", Type: optType},
			{Name: "pair", Type: pairType},
		},
	}

	tests := []struct {
		name  string
		place mir.Place
		want  types.TypeID
	}{
		{"bare_local", mir.LocalPlace(0), pointType},
		{"struct_field", mir.FieldOf(mir.LocalPlace(0), "x", 0), intType},
		{"deref", mir.DerefOf(mir.LocalPlace(1)), pointType},
		{"deref_field", mir.FieldOf(mir.DerefOf(mir.LocalPlace(1)), "y", 1), intType},
		{"array_index", mir.IndexOf(mir.LocalPlace(2), 3), pointType},
		{"array_const_index", mir.ConstIndexOf(mir.LocalPlace(2), 0), pointType},
		{"downcast_field", mir.FieldOf(mir.DowncastOf(mir.LocalPlace(4), 1, "Some"), "value", 0), pointType},
		{"tuple_field", mir.FieldOf(mir.LocalPlace(5), "", 1), boolType},
		{"field_out_of_range", mir.FieldOf(mir.LocalPlace(0), "z", 9), types.NoTypeID},
		{"field_without_downcast", mir.FieldOf(mir.LocalPlace(4), "value", 0), types.NoTypeID},
		{"deref_non_reference", mir.DerefOf(mir.LocalPlace(0)), types.NoTypeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mir.PlaceType(f, typeInterner, tt.place); got != tt.want {
				t.Errorf("PlaceType = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestDereferencesRawPointer tests raw pointer deref detection.
func TestDereferencesRawPointer(t *testing.T) {
	typeInterner := types.NewInterner()
	intType := typeInterner.Builtins().Int
	ptrInt := typeInterner.Intern(types.MakePointer(intType))
	refInt := typeInterner.Intern(types.MakeReference(intType, true))
	refPtr := typeInterner.Intern(types.MakeReference(ptrInt, false))

	f := &mir.Func{
		Name: "test",
		Locals: []mir.Local{
			{Name: "p", Type: ptrInt},
			{Name: "r", Type: refInt},
			{Name: "rp", Type: refPtr},
		},
	}

	if !mir.DereferencesRawPointer(f, typeInterner, mir.DerefOf(mir.LocalPlace(0))) {
		t.Error("expected *p to dereference a raw pointer")
	}
	if mir.DereferencesRawPointer(f, typeInterner, mir.DerefOf(mir.LocalPlace(1))) {
		t.Error("expected *r not to dereference a raw pointer")
	}
	if mir.DereferencesRawPointer(f, typeInterner, mir.LocalPlace(0)) {
		t.Error("expected bare pointer local not to count as a deref")
	}
	// Deref through the reference, then through the pointee.
	inner := mir.DerefOf(mir.DerefOf(mir.LocalPlace(2)))
	if !mir.DereferencesRawPointer(f, typeInterner, inner) {
		t.Error("expected **rp to dereference a raw pointer")
	}
}
