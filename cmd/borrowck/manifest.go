package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const manifestName = "borrowck.toml"

// manifest is the nearest borrowck.toml above the working directory.
// Every [check] key is optional; defined keys become defaults for the
// matching check flags when those flags are not set explicitly.
type manifest struct {
	Path   string
	Root   string
	Config manifestConfig
	meta   toml.MetaData
}

type manifestConfig struct {
	Check checkConfig `toml:"check"`
}

type checkConfig struct {
	Jobs             int    `toml:"jobs"`
	Format           string `toml:"format"`
	NoWarnings       bool   `toml:"no_warnings"`
	WarningsAsErrors bool   `toml:"warnings_as_errors"`
	WithNotes        bool   `toml:"with_notes"`
	Suggest          bool   `toml:"suggest"`
	DiskCache        bool   `toml:"disk_cache"`
	UI               string `toml:"ui"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadManifest(startDir string) (*manifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg manifestConfig
	meta, err := toml.DecodeFile(manifestPath, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", manifestPath, err)
	}
	m := &manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
		meta:   meta,
	}
	if err := m.validate(); err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// defines reports whether the manifest sets the given [check] key.
func (m *manifest) defines(key string) bool {
	return m != nil && m.meta.IsDefined("check", key)
}

func (m *manifest) validate() error {
	if m.defines("jobs") && m.Config.Check.Jobs < 0 {
		return fmt.Errorf("%s: [check].jobs must not be negative", m.Path)
	}
	if m.defines("format") {
		switch m.Config.Check.Format {
		case "pretty", "json", "sarif", "short":
		default:
			return fmt.Errorf("%s: [check].format must be pretty|json|sarif|short, got %q", m.Path, m.Config.Check.Format)
		}
	}
	if m.defines("ui") {
		if _, err := readUIMode(m.Config.Check.UI); err != nil {
			return fmt.Errorf("%s: [check].ui: %w", m.Path, err)
		}
	}
	return nil
}
