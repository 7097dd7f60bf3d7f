package diag

import (
	"testing"

	"borrowck/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	userFile := fs.Add("/workspace/testdata/golden/sample.sg", []byte("a\nb\n"), 0)
	internalFile := fs.Add("/workspace/internal/helper.sg", []byte("x\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevError,
			Code:     OwnUseOfMoved,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: userFile, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: internalFile, Start: 0, End: 0}, Msg: "skip me"},
				{Span: source.Span{File: userFile, Start: 2, End: 3}, Msg: "note line"},
			},
		},
		{
			Severity: SevWarning,
			Code:     ObsTimings,
			Message:  "another",
			Primary:  source.Span{File: userFile, Start: 2, End: 3},
		},
	}

	expected := "error OWN3001 testdata/golden/sample.sg:1:1 first line second\n" +
		"note OWN3001 testdata/golden/sample.sg:2:1 note line\n" +
		"warning OBS6001 testdata/golden/sample.sg:2:1 another"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatShortDiagnosticsKeepsInternalPaths(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	internalFile := fs.Add("/workspace/internal/helper.sg", []byte("x\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevError,
			Code:     OwnBorrowTooShort,
			Message:  "kept",
			Primary:  source.Span{File: internalFile, Start: 0, End: 1},
		},
	}

	if got := FormatGoldenDiagnostics(diags, fs, false); got != "" {
		t.Fatalf("golden output should skip internal paths, got %q", got)
	}

	expected := "error OWN3013 internal/helper.sg:1:1 kept"
	if got := FormatShortDiagnostics(diags, fs, false); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}
