// Package moves builds the move-path forest for a function body: one
// deduplicated node per storage fragment the body ever touches, organized
// parent-to-child along projection steps. Conflict detection keys its flow
// facts on these node ids instead of raw places.
package moves

import (
	"fmt"

	"fortio.org/safecast"

	"borrowck/internal/mir"
)

// PathID identifies one node in the move-path forest.
type PathID int32

// NoPathID marks the absence of a path node.
const NoPathID PathID = -1

// Path is one node in the forest. Children of the same parent are linked
// through NextSibling, newest first.
type Path struct {
	Place       mir.Place
	Parent      PathID
	FirstChild  PathID
	NextSibling PathID
}

// Forest holds every path node of one function body. Node identity is
// structural: the same root and projection sequence always yields the same id.
type Forest struct {
	paths []Path
	roots map[mir.LocalID]PathID
}

// NewForest returns an empty forest.
func NewForest() *Forest {
	return &Forest{roots: make(map[mir.LocalID]PathID)}
}

// Len returns the number of path nodes.
func (fr *Forest) Len() int {
	return len(fr.paths)
}

// Path returns the node for the given id, nil when out of range.
func (fr *Forest) Path(id PathID) *Path {
	if id < 0 || int(id) >= len(fr.paths) {
		return nil
	}
	return &fr.paths[id]
}

// Place returns the place the node names.
func (fr *Forest) Place(id PathID) mir.Place {
	if p := fr.Path(id); p != nil {
		return p.Place
	}
	return mir.Place{Local: mir.NoLocalID}
}

// Parent returns the node's parent, NoPathID for roots.
func (fr *Forest) Parent(id PathID) PathID {
	if p := fr.Path(id); p != nil {
		return p.Parent
	}
	return NoPathID
}

// Root walks up to the forest root holding the node.
func (fr *Forest) Root(id PathID) PathID {
	for {
		p := fr.Path(id)
		if p == nil || p.Parent == NoPathID {
			return id
		}
		id = p.Parent
	}
}

// Children collects the node's direct children.
func (fr *Forest) Children(id PathID) []PathID {
	p := fr.Path(id)
	if p == nil {
		return nil
	}
	var out []PathID
	for c := p.FirstChild; c != NoPathID; c = fr.paths[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// WalkSubtree visits the node and every descendant.
func (fr *Forest) WalkSubtree(id PathID, visit func(PathID)) {
	p := fr.Path(id)
	if p == nil {
		return
	}
	visit(id)
	for c := p.FirstChild; c != NoPathID; c = fr.paths[c].NextSibling {
		fr.WalkSubtree(c, visit)
	}
}

// Find returns the node for the place without inserting, NoPathID when the
// place was never interned.
func (fr *Forest) Find(p mir.Place) PathID {
	if !p.IsValid() {
		return NoPathID
	}
	cur, ok := fr.roots[p.Local]
	if !ok {
		return NoPathID
	}
	for i := range p.Proj {
		cur = fr.childFor(cur, p.Proj[i])
		if cur == NoPathID {
			return NoPathID
		}
	}
	return cur
}

// FindOrInsert returns the node for the place, interning the place and any
// missing ancestors along the way.
func (fr *Forest) FindOrInsert(p mir.Place) PathID {
	if !p.IsValid() {
		return NoPathID
	}
	cur, ok := fr.roots[p.Local]
	if !ok {
		cur = fr.newPath(mir.LocalPlace(p.Local), NoPathID)
		fr.roots[p.Local] = cur
	}
	for i := range p.Proj {
		next := fr.childFor(cur, p.Proj[i])
		if next == NoPathID {
			place := mir.Place{
				Local: p.Local,
				Proj:  append([]mir.Proj(nil), p.Proj[:i+1]...),
			}
			next = fr.newPath(place, cur)
		}
		cur = next
	}
	return cur
}

// childFor finds the direct child reached by one projection step.
func (fr *Forest) childFor(parent PathID, proj mir.Proj) PathID {
	for c := fr.paths[parent].FirstChild; c != NoPathID; c = fr.paths[c].NextSibling {
		steps := fr.paths[c].Place.Proj
		if projIdentical(steps[len(steps)-1], proj) {
			return c
		}
	}
	return NoPathID
}

func (fr *Forest) newPath(place mir.Place, parent PathID) PathID {
	id32, err := safecast.Conv[int32](len(fr.paths))
	if err != nil {
		panic(fmt.Errorf("move path table overflow: %w", err))
	}
	id := PathID(id32)
	node := Path{
		Place:       place,
		Parent:      parent,
		FirstChild:  NoPathID,
		NextSibling: NoPathID,
	}
	if parent != NoPathID {
		node.NextSibling = fr.paths[parent].FirstChild
		fr.paths[parent].FirstChild = id
	}
	fr.paths = append(fr.paths, node)
	return id
}

// projIdentical is the identity used for forest children: two steps name the
// same fragment. Distinct runtime index locals intern distinct nodes even
// though they may alias; aliasing is Overlaps' concern, not identity's.
func projIdentical(a, b mir.Proj) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case mir.ProjField:
		return a.FieldIdx == b.FieldIdx
	case mir.ProjIndex:
		return a.IndexLocal == b.IndexLocal
	case mir.ProjConstIndex:
		return a.Offset == b.Offset
	case mir.ProjDowncast:
		return a.Variant == b.Variant
	default:
		return true
	}
}
