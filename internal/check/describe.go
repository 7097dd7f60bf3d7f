package check

import (
	"fmt"
	"strings"

	"borrowck/internal/mir"
	"borrowck/internal/types"
)

// describePlace renders a user-facing path description ("a.b[0]"). ok is
// false when no stable name exists anywhere in the path; callers degrade to
// "value" or "_" then. includeDowncast forces the generic fallback on
// downcast steps instead of silently skipping them; the use-of-moved report
// wants that, everything else skips.
func describePlace(f *mir.Func, typesIn *types.Interner, p mir.Place, includeDowncast bool) (string, bool) {
	l := f.LocalData(p.Local)
	if l == nil {
		return "", false
	}
	name := l.Name
	if l.Kind == mir.LocalTemp || name == "" {
		return "", false
	}

	var b strings.Builder
	b.WriteString(name)
	cur := l.Type
	for i, proj := range p.Proj {
		switch proj.Kind {
		case mir.ProjDeref:
			if i == 0 && l.Upvar != 0 {
				// The deref that unwraps a captured variable is invisible to
				// the user unless the capture was by value.
				if cd := f.CaptureFor(p.Local); cd != nil && cd.ByRef {
					break
				}
			}
			prefixed := "*" + b.String()
			b.Reset()
			b.WriteString(prefixed)
		case mir.ProjField:
			b.WriteString(".")
			b.WriteString(fieldLabel(typesIn, cur, proj))
		case mir.ProjIndex:
			b.WriteString("[")
			if idx := f.LocalData(proj.IndexLocal); idx != nil && idx.Name != "" && idx.Kind != mir.LocalTemp {
				b.WriteString(idx.Name)
			} else {
				b.WriteString("..")
			}
			b.WriteString("]")
		case mir.ProjConstIndex:
			b.WriteString("[..]")
		case mir.ProjDowncast:
			if includeDowncast {
				return "", false
			}
		}
		cur = stepType(typesIn, cur, proj)
	}
	return b.String(), true
}

// fieldLabel names a field step: the projection's recorded name, the type
// interner's declaration, or the bare index.
func fieldLabel(typesIn *types.Interner, base types.TypeID, proj mir.Proj) string {
	if proj.FieldName != "" {
		return proj.FieldName
	}
	if typesIn != nil && typesIn.Strings != nil {
		if t, ok := typesIn.Lookup(base); ok && t.Kind == types.KindStruct {
			fields := typesIn.StructFields(base)
			if int(proj.FieldIdx) < len(fields) {
				if n, ok := typesIn.Strings.Lookup(fields[proj.FieldIdx].Name); ok && n != "" {
					return n
				}
			}
		}
	}
	return fmt.Sprintf("%d", proj.FieldIdx)
}

// stepType advances the walked type through one projection, NoTypeID when it
// cannot be resolved. Description building never fails on it; field labels
// just degrade to indices.
func stepType(typesIn *types.Interner, cur types.TypeID, proj mir.Proj) types.TypeID {
	if typesIn == nil || cur == types.NoTypeID {
		return types.NoTypeID
	}
	t, ok := typesIn.Lookup(cur)
	if !ok {
		return types.NoTypeID
	}
	switch proj.Kind {
	case mir.ProjDeref:
		return t.Elem
	case mir.ProjIndex, mir.ProjConstIndex:
		if t.Kind == types.KindArray {
			return t.Elem
		}
	case mir.ProjField:
		if t.Kind == types.KindStruct {
			fields := typesIn.StructFields(cur)
			if int(proj.FieldIdx) < len(fields) {
				return fields[proj.FieldIdx].Type
			}
		}
	case mir.ProjDowncast:
		return cur
	}
	return types.NoTypeID
}

// quoted renders 'name' or the fallback word when the place has no stable
// description.
func quoted(f *mir.Func, typesIn *types.Interner, p mir.Place, includeDowncast bool, fallback string) string {
	if s, ok := describePlace(f, typesIn, p, includeDowncast); ok {
		return "'" + s + "'"
	}
	return fallback
}
