package mesh

import (
	"errors"

	"github.com/samber/lo"
)

// Validate checks the manifold invariant: every live edge borders one or
// two live faces (one only when boundaries are allowed), every live face
// is closed by three live edges, no two faces share all three edges, and
// edge/face links agree in both directions. All violations are joined
// into the returned error.
func (m *Mesh) Validate() error {
	var errs []error

	for _, e := range m.Edges() {
		n := len(e.faces)
		if n != 2 && (n != 1 || !m.opts.AllowBoundary) {
			errs = append(errs, &InvariantError{
				Code:      CodeEdgeFaceCount,
				EdgeID:    e.ID,
				VertexIDs: []VertexID{e.V1.ID, e.V2.ID},
				Message:   "live edge is not bordered by a valid number of faces",
			})
		}
		for _, f := range e.faces {
			if !f.live || !lo.Contains(f.Edges[:], e) {
				errs = append(errs, &InvariantError{
					Code:    CodeDanglingFaceLink,
					EdgeID:  e.ID,
					Message: "edge links a face that does not contain it",
				})
			}
		}
	}

	m.ForEachFace(func(f *Face) bool {
		for _, e := range f.Edges {
			if !e.live || !lo.Contains(e.faces, f) {
				errs = append(errs, &InvariantError{
					Code:    CodeFaceEdgeMissing,
					EdgeID:  e.ID,
					Message: "face references an edge that does not link back",
				})
			}
		}
		a, b, c := f.Vertices()
		if a == b || b == c || a == c {
			errs = append(errs, &InvariantError{
				Code:      CodeFaceNotClosed,
				EdgeID:    f.Edges[0].ID,
				VertexIDs: []VertexID{a.ID, b.ID, c.ID},
				Message:   "face corners are not distinct",
			})
			return true
		}
		for _, g := range f.Edges[0].faces {
			if g.ID > f.ID && g.live && lo.Every(g.Edges[:], f.Edges[:]) {
				errs = append(errs, &InvariantError{
					Code:      CodeDuplicateFace,
					EdgeID:    f.Edges[0].ID,
					VertexIDs: []VertexID{a.ID, b.ID, c.ID},
					Message:   "two faces share all three edges",
				})
			}
		}
		corners := lo.Uniq([]*Vertex{
			f.Edges[0].V1, f.Edges[0].V2,
			f.Edges[1].V1, f.Edges[1].V2,
			f.Edges[2].V1, f.Edges[2].V2,
		})
		if len(corners) != 3 || !lo.Every(corners, []*Vertex{a, b, c}) {
			errs = append(errs, &InvariantError{
				Code:      CodeFaceNotClosed,
				EdgeID:    f.Edges[0].ID,
				VertexIDs: []VertexID{a.ID, b.ID, c.ID},
				Message:   "face edges do not share exactly the triangle corners",
			})
		}
		return true
	})

	return errors.Join(errs...)
}

// Closed reports whether every live edge borders exactly two faces.
func (m *Mesh) Closed() bool {
	return lo.EveryBy(m.Edges(), func(e *Edge) bool {
		return len(e.faces) == 2
	})
}
