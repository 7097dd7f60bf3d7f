package types

import (
	"testing"

	"borrowck/internal/source"
)

func TestLabelFormatsCompoundTypes(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner()
	in.Strings = strs
	b := in.Builtins()

	point := in.RegisterStruct(strs.Intern("Point"), source.Span{})
	slice := in.Intern(MakeArray(b.Int, ArrayDynamicLength))
	fixed := in.Intern(MakeArray(point, 4))
	refMut := in.Intern(MakeReference(point, true))
	tuple := in.RegisterTuple([]TypeID{b.Int, b.String})
	fn := in.RegisterFn([]TypeID{refMut}, b.Unit)

	cases := []struct {
		id   TypeID
		want string
	}{
		{b.Unit, "()"},
		{b.Int, "int"},
		{in.Intern(MakeUint(Width8)), "uint8"},
		{point, "Point"},
		{slice, "[int]"},
		{fixed, "[Point; 4]"},
		{refMut, "&mut Point"},
		{in.Intern(MakePointer(b.Int)), "*int"},
		{in.Intern(MakeOwn(point)), "own Point"},
		{tuple, "(int, string)"},
		{fn, "fn(&mut Point) -> ()"},
		{in.Intern(MakeClosure()), "closure"},
		{NoTypeID, "?"},
	}
	for _, tc := range cases {
		if got := Label(in, tc.id); got != tc.want {
			t.Errorf("Label(%d) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestLabelWithoutStringsDegrades(t *testing.T) {
	in := NewInterner()
	id := in.RegisterStruct(source.NoStringID, source.Span{})
	if got := Label(in, id); got != "?" {
		t.Fatalf("unnamed struct label = %q, want ?", got)
	}
}
