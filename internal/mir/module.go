package mir

import (
	"slices"

	"borrowck/internal/source"
	"borrowck/internal/types"
)

type Module struct {
	Name    string
	Funcs   map[FuncID]*Func
	Globals []Global
}

// Global is a module-level static item. Bodies reference it through a
// LocalStatic local whose StaticRef is the 1-based index returned by
// AddGlobal.
type Global struct {
	Name    string
	Type    types.TypeID
	Mutable bool
	Span    source.Span
}

// NewModule constructs an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name:  name,
		Funcs: make(map[FuncID]*Func),
	}
}

// Add registers a function in the module.
func (m *Module) Add(f *Func) {
	if m == nil || f == nil {
		return
	}
	m.Funcs[f.ID] = f
}

// AddGlobal appends a static item and returns its 1-based reference.
func (m *Module) AddGlobal(g Global) uint32 {
	if m == nil {
		return 0
	}
	m.Globals = append(m.Globals, g)
	return uint32(len(m.Globals)) //nolint:gosec // G115: bounded by globals length
}

// GlobalData resolves a 1-based static reference, nil when out of range.
func (m *Module) GlobalData(ref uint32) *Global {
	if m == nil || ref == 0 || int(ref) > len(m.Globals) {
		return nil
	}
	return &m.Globals[ref-1]
}

// SortedFuncs returns functions ordered by name then ID, giving every
// consumer the same deterministic traversal.
func (m *Module) SortedFuncs() []*Func {
	if m == nil {
		return nil
	}
	funcs := make([]*Func, 0, len(m.Funcs))
	for _, f := range m.Funcs {
		if f != nil {
			funcs = append(funcs, f)
		}
	}
	slices.SortStableFunc(funcs, func(a, b *Func) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		if a.ID != b.ID {
			if a.ID < b.ID {
				return -1
			}
			return 1
		}
		return 0
	})
	return funcs
}
