package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, manifestName)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", manifestName, err)
	}
	return path
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeManifest(t, root, "[check]\njobs = 2\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, ok, err := findManifest(nested)
	if err != nil {
		t.Fatalf("findManifest: %v", err)
	}
	if !ok {
		t.Fatalf("expected manifest to be found from %s", nested)
	}
	if got != want {
		t.Fatalf("findManifest = %q, want %q", got, want)
	}
}

func TestFindManifestMissing(t *testing.T) {
	root := t.TempDir()
	_, ok, err := findManifest(root)
	if err != nil {
		t.Fatalf("findManifest: %v", err)
	}
	if ok {
		t.Fatalf("did not expect a manifest under %s", root)
	}
}

func TestLoadManifestDefinedKeys(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `# project defaults
[check]
jobs = 4
format = "short"
warnings_as_errors = true
disk_cache = true
`)

	man, ok, err := loadManifest(root)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if !ok || man == nil {
		t.Fatalf("expected manifest")
	}
	if !man.defines("jobs") || man.Config.Check.Jobs != 4 {
		t.Fatalf("jobs = %d (defined=%v), want 4", man.Config.Check.Jobs, man.defines("jobs"))
	}
	if !man.defines("format") || man.Config.Check.Format != "short" {
		t.Fatalf("format = %q, want short", man.Config.Check.Format)
	}
	if !man.defines("warnings_as_errors") || !man.Config.Check.WarningsAsErrors {
		t.Fatalf("warnings_as_errors should be defined and true")
	}
	if !man.defines("disk_cache") || !man.Config.Check.DiskCache {
		t.Fatalf("disk_cache should be defined and true")
	}
	// Не заданные в файле ключи не считаются определёнными.
	if man.defines("no_warnings") || man.defines("ui") || man.defines("with_notes") {
		t.Fatalf("keys absent from the manifest must not be defined")
	}
}

func TestLoadManifestRejectsBadFormat(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[check]\nformat = \"verbose\"\n")

	_, _, err := loadManifest(root)
	if err == nil {
		t.Fatalf("expected error for bad [check].format")
	}
	if !strings.Contains(err.Error(), "format") {
		t.Fatalf("error should mention format, got: %v", err)
	}
}

func TestLoadManifestRejectsBadUI(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[check]\nui = \"fancy\"\n")

	_, _, err := loadManifest(root)
	if err == nil {
		t.Fatalf("expected error for bad [check].ui")
	}
}

func TestLoadManifestRejectsNegativeJobs(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[check]\njobs = -1\n")

	_, _, err := loadManifest(root)
	if err == nil {
		t.Fatalf("expected error for negative [check].jobs")
	}
}

func TestManifestNilDefines(t *testing.T) {
	var man *manifest
	if man.defines("jobs") {
		t.Fatalf("nil manifest must not define keys")
	}
}

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		input string
		want  uiMode
	}{
		{"", uiModeAuto},
		{"auto", uiModeAuto},
		{"AUTO", uiModeAuto},
		{"on", uiModeOn},
		{" on ", uiModeOn},
		{"off", uiModeOff},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.input)
		if err != nil {
			t.Fatalf("readUIMode(%q) error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
	if _, err := readUIMode("fancy"); err == nil {
		t.Fatalf("expected error for unknown ui mode")
	}
}
