package mir_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"borrowck/internal/mir"
	"borrowck/internal/source"
	"borrowck/internal/types"
)

func buildCodecUnit(t *testing.T) *mir.Unit {
	t.Helper()

	u := mir.NewUnit("demo")
	fileID := u.Files.AddVirtual("demo.sg", []byte("let p = Point { x: 1 };\nconsume(p);\n"))

	intType := u.Types.Builtins().Int
	pointType := u.Types.RegisterStruct(u.Strings.Intern("Point"), source.Span{File: fileID, Start: 8, End: 13})
	u.Types.SetStructFields(pointType, []types.StructField{
		{Name: u.Strings.Intern("x"), Type: intType},
	})

	limitRef := u.Module.AddGlobal(mir.Global{Name: "LIMIT", Type: intType})

	b := mir.NewFuncBuilder(0, "main", u.Types.Builtins().Unit)
	p := b.AddLocal(mir.Local{Kind: mir.LocalUser, Type: pointType, Name: "p", Span: source.Span{File: fileID, Start: 4, End: 5}})
	b.AddStaticRef(limitRef, "LIMIT", intType, source.Span{})
	b.Emit(&mir.Instr{
		Kind: mir.InstrCall,
		Span: source.Span{File: fileID, Start: 24, End: 34},
		Call: mir.CallInstr{
			Callee: mir.Callee{Kind: mir.CalleeFn, Fn: mir.NoFuncID, Name: "consume"},
			Args:   []mir.Operand{mir.MoveOf(mir.LocalPlace(p), pointType)},
		},
	})
	b.SetTerm(&mir.Terminator{Kind: mir.TermReturn})
	u.Module.Add(b.Finish())

	return u
}

// TestUnitRoundTrip tests that encode/decode preserves the module and its tables.
func TestUnitRoundTrip(t *testing.T) {
	u := buildCodecUnit(t)

	var buf bytes.Buffer
	if err := mir.EncodeUnit(&buf, u); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := mir.DecodeUnit(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Module.Name != "demo" {
		t.Errorf("module name = %q, want %q", got.Module.Name, "demo")
	}
	if len(got.Module.Globals) != 1 || got.Module.Globals[0].Name != "LIMIT" {
		t.Errorf("globals not preserved: %+v", got.Module.Globals)
	}
	f, ok := got.Module.Funcs[0]
	if !ok {
		t.Fatal("function 0 missing after round trip")
	}
	if st := f.Locals[1]; st.Kind != mir.LocalStatic || st.StaticRef != 1 {
		t.Errorf("static local not preserved: %+v", st)
	}
	if f.Name != "main" {
		t.Errorf("function name = %q, want %q", f.Name, "main")
	}
	if len(f.Blocks) != 1 || len(f.Blocks[0].Instrs) != 1 {
		t.Fatalf("unexpected block shape: %d blocks", len(f.Blocks))
	}
	ins := &f.Blocks[0].Instrs[0]
	if ins.Kind != mir.InstrCall || ins.Call.Callee.Name != "consume" {
		t.Errorf("call instruction not preserved: %+v", ins)
	}
	if ins.Span.Start != 24 || ins.Span.End != 34 {
		t.Errorf("instruction span not preserved: %v", ins.Span)
	}

	// The rebuilt type table still resolves the struct and its label.
	pType := f.Locals[0].Type
	tt, ok := got.Types.Lookup(pType)
	if !ok || tt.Kind != types.KindStruct {
		t.Fatalf("local type did not survive: %+v", tt)
	}
	if label := types.Label(got.Types, pType); label != "Point" {
		t.Errorf("struct label = %q, want %q", label, "Point")
	}
	fields := got.Types.StructFields(pType)
	if len(fields) != 1 || fields[0].Type != got.Types.Builtins().Int {
		t.Errorf("struct fields not preserved: %+v", fields)
	}

	// The file table carries content, so spans resolve to line/column.
	if got.Files.Len() != 1 {
		t.Fatalf("expected 1 file, got %d", got.Files.Len())
	}
	file := got.Files.Get(0)
	if file.Path != "demo.sg" || len(file.Content) == 0 {
		t.Errorf("file entry not preserved: path=%q len=%d", file.Path, len(file.Content))
	}
	start, _ := got.Files.Resolve(ins.Span)
	if start.Line != 2 {
		t.Errorf("span resolved to line %d, want 2", start.Line)
	}
}

// TestUnitFileRoundTrip tests the on-disk write/read pair.
func TestUnitFileRoundTrip(t *testing.T) {
	u := buildCodecUnit(t)

	path := filepath.Join(t.TempDir(), "cache", "demo.mir")
	if err := mir.WriteUnitFile(path, u); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := mir.ReadUnitFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Module.Name != "demo" {
		t.Errorf("module name = %q, want %q", got.Module.Name, "demo")
	}
	if _, ok := got.Module.Funcs[0]; !ok {
		t.Error("function 0 missing after file round trip")
	}
}

// TestDecodeUnitRejectsGarbage tests that junk input fails cleanly.
func TestDecodeUnitRejectsGarbage(t *testing.T) {
	if _, err := mir.DecodeUnit(bytes.NewReader([]byte("not msgpack at all"))); err == nil {
		t.Error("expected error for junk input")
	}
}

// TestEncodeUnitNil tests that a nil unit is rejected.
func TestEncodeUnitNil(t *testing.T) {
	var buf bytes.Buffer
	if err := mir.EncodeUnit(&buf, nil); err == nil {
		t.Error("expected error for nil unit")
	}
}
