package mesh

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// degenerateTol is the distance under which a split vertex is treated
// as coincident with an endpoint of the edge being split.
const degenerateTol = 1e-12

// SplitEdge inserts a vertex at pos on edge e and replaces each face
// bordering e with two faces meeting at the new vertex. An interior edge
// yields four new faces; a boundary edge (AllowBoundary only) yields two.
// The edge and its old faces are removed. Orientation is preserved.
//
// The mesh is unchanged when an error is returned.
func (m *Mesh) SplitEdge(e *Edge, pos v3.Vec) (*Vertex, []*Face, error) {
	if e == nil || !e.live || m.edgeIndex[keyOf(e.V1, e.V2)] != e {
		var id EdgeID = -1
		if e != nil {
			id = e.ID
		}
		return nil, nil, &InvariantError{
			Code:    CodeEdgeNotLive,
			EdgeID:  id,
			Message: "edge selected for splitting is not live",
		}
	}

	want := 2
	if m.opts.AllowBoundary && len(e.faces) == 1 {
		want = 1
	}
	if len(e.faces) != want {
		return nil, nil, &InvariantError{
			Code:      CodeEdgeFaceCount,
			EdgeID:    e.ID,
			VertexIDs: []VertexID{e.V1.ID, e.V2.ID},
			Message:   "edge selected for splitting is not bordered by exactly two live faces",
		}
	}

	if !finite(pos) ||
		pos.Sub(e.V1.Pos).Length() <= degenerateTol ||
		pos.Sub(e.V2.Pos).Length() <= degenerateTol {
		return nil, nil, &InvariantError{
			Code:      CodeDegenerateSplit,
			EdgeID:    e.ID,
			VertexIDs: []VertexID{e.V1.ID, e.V2.ID},
			Message:   "split position coincides with an endpoint or is not finite",
		}
	}

	// Resolve every corner before touching the topology.
	type corner struct{ x, y, o *Vertex }
	old := e.Faces()
	corners := make([]corner, len(old))
	for i, f := range old {
		x, y, o, ok := orderedAround(f, e)
		if !ok {
			return nil, nil, &InvariantError{
				Code:      CodeDanglingFaceLink,
				EdgeID:    e.ID,
				VertexIDs: []VertexID{e.V1.ID, e.V2.ID},
				Message:   "edge lists a face that does not contain it",
			}
		}
		corners[i] = corner{x, y, o}
	}

	// Both sides meeting the same opposite corner would give the new
	// edge mid-o four faces.
	if len(corners) == 2 && corners[0].o == corners[1].o {
		return nil, nil, &InvariantError{
			Code:      CodeDegenerateSplit,
			EdgeID:    e.ID,
			VertexIDs: []VertexID{e.V1.ID, e.V2.ID, corners[0].o.ID},
			Message:   "faces on both sides of the edge share their opposite corner",
		}
	}

	for _, f := range old {
		m.detachFace(f)
	}
	m.killEdge(e)

	mid := m.AddVertex(pos)
	created := make([]*Face, 0, 2*len(old))
	for _, c := range corners {
		for _, tri := range [2][3]*Vertex{{c.x, mid, c.o}, {mid, c.y, c.o}} {
			f, err := m.AddTriangle(tri[0], tri[1], tri[2])
			if err != nil {
				return mid, created, err
			}
			created = append(created, f)
		}
	}
	m.compact()
	return mid, created, nil
}

// orderedAround returns the corners of f rotated so that x->y runs along
// e in face orientation, with o the opposite corner.
func orderedAround(f *Face, e *Edge) (x, y, o *Vertex, ok bool) {
	for i := 0; i < 3; i++ {
		p, q := f.verts[i], f.verts[(i+1)%3]
		if e.Has(p) && e.Has(q) {
			return p, q, f.verts[(i+2)%3], true
		}
	}
	return nil, nil, nil, false
}

func (m *Mesh) detachFace(f *Face) {
	for _, e := range f.Edges {
		e.removeFace(f)
	}
	f.live = false
	m.deadFaces++
}

func (m *Mesh) killEdge(e *Edge) {
	delete(m.edgeIndex, keyOf(e.V1, e.V2))
	e.live = false
	e.faces = nil
	m.deadEdges++
}

func finite(p v3.Vec) bool {
	for _, c := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
