package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"borrowck/internal/diag"
	"borrowck/internal/source"
)

func TestSarifBasic(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let x = make()\nlet y = x\n")
	fileID := fs.AddVirtual("src/test.sg", content)

	bag := diag.NewBag(10)
	d := diag.New(
		diag.SevError,
		diag.OwnUseOfMoved,
		source.Span{File: fileID, Start: 23, End: 24},
		"use of moved value: 'x'",
	)
	d = d.WithNote(source.Span{File: fileID, Start: 8, End: 14}, "value moved here")
	d = d.WithNote(source.Span{},
		"move occurs because 'x' has type 'Thing', which does not implement implicit copy")
	bag.Add(d)
	bag.Add(diag.New(
		diag.SevWarning,
		diag.OwnBorrowTooShort,
		source.Span{File: fileID, Start: 4, End: 5},
		"'x' does not live long enough",
	))

	meta := SarifRunMeta{
		ToolName:       "borrowck",
		ToolVersion:    "0.1.0",
		InvocationArgs: []string{"borrowck", "check", "test.mir"},
	}

	var buf bytes.Buffer
	if err := Sarif(&buf, bag, fs, meta); err != nil {
		t.Fatalf("Sarif() error: %v", err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("Invalid SARIF output: %v\nOutput: %s", err, buf.String())
	}

	if log.Version != "2.1.0" {
		t.Errorf("version = %q, want 2.1.0", log.Version)
	}
	if len(log.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(log.Runs))
	}

	run := log.Runs[0]
	if run.Tool.Driver.Name != "borrowck" {
		t.Errorf("driver name = %q", run.Tool.Driver.Name)
	}
	if run.Tool.Driver.Version != "0.1.0" {
		t.Errorf("driver version = %q", run.Tool.Driver.Version)
	}

	// правила отсортированы по коду: OWN3001 < OWN3013
	if len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(run.Tool.Driver.Rules))
	}
	if run.Tool.Driver.Rules[0].ID != "OWN3001" || run.Tool.Driver.Rules[1].ID != "OWN3013" {
		t.Errorf("rule ids = [%s, %s]", run.Tool.Driver.Rules[0].ID, run.Tool.Driver.Rules[1].ID)
	}

	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(run.Results))
	}

	first := run.Results[0]
	if first.RuleID != "OWN3001" || first.RuleIndex != 0 {
		t.Errorf("first result rule = %s/%d", first.RuleID, first.RuleIndex)
	}
	if first.Level != "error" {
		t.Errorf("first result level = %q, want error", first.Level)
	}
	if first.Message.Text != "use of moved value: 'x'" {
		t.Errorf("first result message = %q", first.Message.Text)
	}
	if len(first.Locations) != 1 || first.Locations[0].PhysicalLocation == nil {
		t.Fatalf("first result locations = %+v", first.Locations)
	}
	region := first.Locations[0].PhysicalLocation.Region
	if region == nil || region.StartLine != 2 || region.StartColumn != 9 {
		t.Errorf("first result region = %+v, want 2:9", region)
	}

	// обе заметки попали в relatedLocations, вторая без physicalLocation
	if len(first.RelatedLocations) != 2 {
		t.Fatalf("relatedLocations = %d, want 2", len(first.RelatedLocations))
	}
	if first.RelatedLocations[0].Message == nil || first.RelatedLocations[0].Message.Text != "value moved here" {
		t.Errorf("first related = %+v", first.RelatedLocations[0])
	}
	if first.RelatedLocations[1].PhysicalLocation != nil {
		t.Errorf("spanless note carried a physical location: %+v", first.RelatedLocations[1])
	}

	second := run.Results[1]
	if second.Level != "warning" || second.RuleIndex != 1 {
		t.Errorf("second result = level %q rule index %d", second.Level, second.RuleIndex)
	}
}
