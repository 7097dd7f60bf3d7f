package mir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"borrowck/internal/source"
	"borrowck/internal/types"
)

// Module files start with a fixed signature so junk input fails before
// payload decoding.
const unitMagic = "MIRB"

// Current schema version - increment when unitPayload format changes
const unitSchemaVersion uint16 = 1

// Unit bundles a module with the tables its types and spans refer to.
// It is the value that flows through the pipeline and onto disk.
type Unit struct {
	Module  *Module
	Types   *types.Interner
	Strings *source.Interner
	Files   *source.FileSet
}

// NewUnit returns a unit with fresh tables and an empty module.
func NewUnit(name string) *Unit {
	stringsIn := source.NewInterner()
	typesIn := types.NewInterner()
	typesIn.Strings = stringsIn
	return &Unit{
		Module:  NewModule(name),
		Types:   typesIn,
		Strings: stringsIn,
		Files:   source.NewFileSet(),
	}
}

// unitPayload is the on-disk shape of a Unit.
type unitPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Name    string
	Strings []string
	Types   types.Snapshot
	Files   []filePayload
	Globals []Global
	Funcs   []*Func
}

// filePayload stores one source table entry. Content may be omitted:
// readers then reload the path from disk or fall back to a stub.
type filePayload struct {
	Path       string
	Content    []byte
	HasContent bool
}

// EncodeUnit serializes a unit to the writer.
func EncodeUnit(w io.Writer, u *Unit) error {
	if u == nil || u.Module == nil {
		return fmt.Errorf("encode nil unit")
	}

	payload := &unitPayload{
		Schema: unitSchemaVersion,
		Name:   u.Module.Name,
	}
	if u.Strings != nil {
		payload.Strings = u.Strings.Snapshot()
	}
	if u.Types != nil {
		payload.Types = u.Types.Snapshot()
	}
	if u.Files != nil {
		payload.Files = make([]filePayload, u.Files.Len())
		for i := range payload.Files {
			f := u.Files.Get(source.FileID(uint32(i))) //nolint:gosec // G115: bounded by file set length
			fp := filePayload{Path: f.Path}
			if f.Flags&source.FileNoContent == 0 {
				fp.Content = f.Content
				fp.HasContent = true
			}
			payload.Files[i] = fp
		}
	}
	payload.Globals = u.Module.Globals
	payload.Funcs = u.Module.SortedFuncs()

	if _, err := io.WriteString(w, unitMagic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	return msgpack.NewEncoder(w).Encode(payload)
}

// DecodeUnit deserializes a unit from the reader and rebuilds its tables.
// File table entries without content are reloaded from disk when possible;
// unreadable paths degrade to stubs that resolve spans as byte offsets.
func DecodeUnit(r io.Reader) (*Unit, error) {
	var magic [len(unitMagic)]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic[:]) != unitMagic {
		return nil, fmt.Errorf("not a MIR module file")
	}

	var payload unitPayload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	if payload.Schema != unitSchemaVersion {
		return nil, fmt.Errorf("unit schema %d, want %d", payload.Schema, unitSchemaVersion)
	}

	stringsIn, err := source.NewInternerFromSnapshot(payload.Strings)
	if err != nil {
		return nil, fmt.Errorf("string table: %w", err)
	}

	typesIn, err := types.NewInternerFromSnapshot(payload.Types)
	if err != nil {
		return nil, fmt.Errorf("type table: %w", err)
	}
	typesIn.Strings = stringsIn

	// Rebuild the file set in table order so span FileIDs stay valid.
	fileSet := source.NewFileSet()
	for i := range payload.Files {
		fp := &payload.Files[i]
		switch {
		case fp.HasContent:
			fileSet.AddVirtual(fp.Path, fp.Content)
		default:
			if _, loadErr := fileSet.Load(fp.Path); loadErr != nil {
				fileSet.AddStub(fp.Path)
			}
		}
	}

	m := NewModule(payload.Name)
	m.Globals = payload.Globals
	for _, f := range payload.Funcs {
		if f != nil {
			m.Add(f)
		}
	}

	return &Unit{
		Module:  m,
		Types:   typesIn,
		Strings: stringsIn,
		Files:   fileSet,
	}, nil
}

// WriteUnitFile atomically writes a unit to the given path.
func WriteUnitFile(path string, u *Unit) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	if err := EncodeUnit(f, u); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadUnitFile reads a unit written by WriteUnitFile.
func ReadUnitFile(path string) (*Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()
	return DecodeUnit(f)
}
