// Package mesh is the topological store for adaptive refinement.
// It owns vertices, edges and triangular faces, and mutates them only
// through edge splits: nothing is ever collapsed, merged or decimated.
package mesh

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// VertexID identifies a vertex within a single Mesh.
type VertexID int

// EdgeID identifies an edge within a single Mesh.
type EdgeID int

// FaceID identifies a face within a single Mesh.
type FaceID int

// Vertex is an immutable position owned by a Mesh.
type Vertex struct {
	ID  VertexID
	Pos v3.Vec
}

// Edge joins two distinct vertices. While the edge is live it tracks
// the faces that border it.
type Edge struct {
	ID     EdgeID
	V1, V2 *Vertex
	faces  []*Face
	live   bool
}

// Faces returns the live faces bordering the edge.
func (e *Edge) Faces() []*Face {
	out := make([]*Face, len(e.faces))
	copy(out, e.faces)
	return out
}

// FaceCount returns the number of live faces bordering the edge.
func (e *Edge) FaceCount() int {
	return len(e.faces)
}

// Live reports whether the edge is still part of its mesh.
func (e *Edge) Live() bool {
	return e.live
}

// Has reports whether v is one of the edge's endpoints.
func (e *Edge) Has(v *Vertex) bool {
	return e.V1 == v || e.V2 == v
}

// Other returns the endpoint that is not v, or nil if v is not an endpoint.
func (e *Edge) Other(v *Vertex) *Vertex {
	switch v {
	case e.V1:
		return e.V2
	case e.V2:
		return e.V1
	}
	return nil
}

// Midpoint returns the straight-line midpoint of the edge.
func (e *Edge) Midpoint() v3.Vec {
	return e.V1.Pos.Add(e.V2.Pos).MulScalar(0.5)
}

// Length returns the chord length of the edge.
func (e *Edge) Length() float64 {
	return e.V2.Pos.Sub(e.V1.Pos).Length()
}

// shared returns the vertex common to both edges, or nil.
func (e *Edge) shared(o *Edge) *Vertex {
	switch {
	case o.Has(e.V1):
		return e.V1
	case o.Has(e.V2):
		return e.V2
	}
	return nil
}

func (e *Edge) removeFace(f *Face) {
	for i, g := range e.faces {
		if g == f {
			e.faces = append(e.faces[:i], e.faces[i+1:]...)
			return
		}
	}
}

// Face is a triangle bounded by exactly three edges. The vertex order
// is fixed at construction and defines the face orientation.
type Face struct {
	ID    FaceID
	Edges [3]*Edge
	verts [3]*Vertex
	live  bool
}

// Vertices returns the triangle corners in orientation order.
func (f *Face) Vertices() (a, b, c *Vertex) {
	return f.verts[0], f.verts[1], f.verts[2]
}

// Live reports whether the face is still part of its mesh.
func (f *Face) Live() bool {
	return f.live
}

// Normal returns the unnormalised face normal (b-a)x(c-a).
func (f *Face) Normal() v3.Vec {
	a, b, c := f.Vertices()
	return b.Pos.Sub(a.Pos).Cross(c.Pos.Sub(a.Pos))
}

// Area returns the triangle area.
func (f *Face) Area() float64 {
	return f.Normal().Length() / 2
}

// Opposite returns the corner of f not on edge e, or nil if e does not
// bound f.
func (f *Face) Opposite(e *Edge) *Vertex {
	for _, v := range f.verts {
		if !e.Has(v) {
			return v
		}
	}
	return nil
}

// edgeKey is an order-independent vertex pair.
type edgeKey struct {
	lo, hi VertexID
}

func keyOf(a, b *Vertex) edgeKey {
	if a.ID < b.ID {
		return edgeKey{a.ID, b.ID}
	}
	return edgeKey{b.ID, a.ID}
}

// Options configures topological rules for a Mesh.
type Options struct {
	// AllowBoundary permits edges bordered by a single face. Closed
	// meshes leave it false, which makes single-face edges a defect.
	AllowBoundary bool
}

// Mesh is the set of live vertices, edges and faces.
// A Mesh is not safe for concurrent use.
type Mesh struct {
	opts Options

	vertices []*Vertex
	edges    []*Edge
	faces    []*Face

	edgeIndex map[edgeKey]*Edge

	deadEdges int
	deadFaces int

	nextVertex VertexID
	nextEdge   EdgeID
	nextFace   FaceID
}

// New returns an empty mesh.
func New(opts Options) *Mesh {
	return &Mesh{
		opts:      opts,
		edgeIndex: make(map[edgeKey]*Edge),
	}
}

// Options returns the mesh's topological options.
func (m *Mesh) Options() Options {
	return m.opts
}

// AddVertex inserts a vertex at pos.
func (m *Mesh) AddVertex(pos v3.Vec) *Vertex {
	v := &Vertex{ID: m.nextVertex, Pos: pos}
	m.nextVertex++
	m.vertices = append(m.vertices, v)
	return v
}

// AddEdge returns the live edge joining a and b, creating it if needed.
func (m *Mesh) AddEdge(a, b *Vertex) (*Edge, error) {
	if a == nil || b == nil || a == b {
		return nil, &InvariantError{
			Code:    CodeDegenerateEdge,
			Message: "edge endpoints must be two distinct vertices",
		}
	}
	k := keyOf(a, b)
	if e, ok := m.edgeIndex[k]; ok {
		return e, nil
	}
	e := &Edge{ID: m.nextEdge, V1: a, V2: b, live: true}
	m.nextEdge++
	m.edges = append(m.edges, e)
	m.edgeIndex[k] = e
	return e, nil
}

// FindEdge returns the live edge joining a and b, or nil.
func (m *Mesh) FindEdge(a, b *Vertex) *Edge {
	return m.edgeIndex[keyOf(a, b)]
}

// AddFace creates a face from three edges. The corners are inferred the
// way the edges are listed: the first two from e1, the third as the
// vertex of e2 not on e1.
func (m *Mesh) AddFace(e1, e2, e3 *Edge) (*Face, error) {
	for _, e := range []*Edge{e1, e2, e3} {
		if e == nil || !e.live || m.edgeIndex[keyOf(e.V1, e.V2)] != e {
			return nil, &InvariantError{
				Code:    CodeFaceEdgeMissing,
				Message: "face references an edge that is not live in this mesh",
			}
		}
	}
	if e1 == e2 || e2 == e3 || e1 == e3 {
		return nil, &InvariantError{
			Code:    CodeFaceNotClosed,
			EdgeID:  e1.ID,
			Message: "face repeats an edge",
		}
	}

	s := e1.shared(e2)
	if s == nil {
		return nil, &InvariantError{
			Code:    CodeFaceNotClosed,
			EdgeID:  e2.ID,
			Message: "second edge shares no vertex with the first",
		}
	}
	a, b := e1.V1, e1.V2
	c := e2.Other(s)
	if c == a || c == b {
		return nil, &InvariantError{
			Code:    CodeFaceNotClosed,
			EdgeID:  e2.ID,
			Message: "second edge duplicates the first",
		}
	}
	if !e3.Has(c) || !e3.Has(e1.Other(s)) {
		return nil, &InvariantError{
			Code:      CodeFaceNotClosed,
			EdgeID:    e3.ID,
			VertexIDs: []VertexID{a.ID, b.ID, c.ID},
			Message:   "third edge does not close the triangle",
		}
	}
	return m.attachFace([3]*Edge{e1, e2, e3}, [3]*Vertex{a, b, c})
}

// AddTriangle creates a face with corners a, b, c in that orientation,
// creating any missing edges.
func (m *Mesh) AddTriangle(a, b, c *Vertex) (*Face, error) {
	ab, err := m.AddEdge(a, b)
	if err != nil {
		return nil, err
	}
	bc, err := m.AddEdge(b, c)
	if err != nil {
		return nil, err
	}
	ca, err := m.AddEdge(c, a)
	if err != nil {
		return nil, err
	}
	return m.attachFace([3]*Edge{ab, bc, ca}, [3]*Vertex{a, b, c})
}

func (m *Mesh) attachFace(edges [3]*Edge, verts [3]*Vertex) (*Face, error) {
	for _, e := range edges {
		if len(e.faces) >= 2 {
			return nil, &InvariantError{
				Code:      CodeEdgeFaceCount,
				EdgeID:    e.ID,
				VertexIDs: []VertexID{e.V1.ID, e.V2.ID},
				Message:   "edge already borders two faces",
			}
		}
	}
	if g := twinOf(edges); g != nil {
		return nil, &InvariantError{
			Code:      CodeDuplicateFace,
			EdgeID:    edges[0].ID,
			VertexIDs: []VertexID{verts[0].ID, verts[1].ID, verts[2].ID},
			Message:   fmt.Sprintf("triangle already present as face %d", g.ID),
		}
	}
	f := &Face{ID: m.nextFace, Edges: edges, verts: verts, live: true}
	m.nextFace++
	for _, e := range edges {
		e.faces = append(e.faces, f)
	}
	m.faces = append(m.faces, f)
	return f, nil
}

// twinOf returns a face already bounded by all three edges, if any.
func twinOf(edges [3]*Edge) *Face {
	for _, g := range edges[0].faces {
		if g.live && lo.Every(g.Edges[:], edges[1:]) {
			return g
		}
	}
	return nil
}

// ForEachFace visits every live face in creation order until visit
// returns false. Each call starts a fresh traversal.
func (m *Mesh) ForEachFace(visit func(f *Face) bool) {
	for _, f := range m.faces {
		if !f.live {
			continue
		}
		if !visit(f) {
			return
		}
	}
}

// Faces returns the live faces in creation order.
func (m *Mesh) Faces() []*Face {
	out := make([]*Face, 0, len(m.faces)-m.deadFaces)
	m.ForEachFace(func(f *Face) bool {
		out = append(out, f)
		return true
	})
	return out
}

// Edges returns the live edges in creation order.
func (m *Mesh) Edges() []*Edge {
	out := make([]*Edge, 0, len(m.edges)-m.deadEdges)
	for _, e := range m.edges {
		if e.live {
			out = append(out, e)
		}
	}
	return out
}

// Vertices returns all vertices in creation order.
func (m *Mesh) Vertices() []*Vertex {
	out := make([]*Vertex, len(m.vertices))
	copy(out, m.vertices)
	return out
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.vertices) }

// EdgeCount returns the number of live edges.
func (m *Mesh) EdgeCount() int { return len(m.edges) - m.deadEdges }

// FaceCount returns the number of live faces.
func (m *Mesh) FaceCount() int { return len(m.faces) - m.deadFaces }

// Soup flattens the mesh into nine floats per face (three corners of
// x, y, z) in face traversal order.
func (m *Mesh) Soup() []float32 {
	buf := make([]float32, 0, m.FaceCount()*9)
	m.ForEachFace(func(f *Face) bool {
		for _, v := range f.verts {
			buf = append(buf, float32(v.Pos.X), float32(v.Pos.Y), float32(v.Pos.Z))
		}
		return true
	})
	return buf
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() (min, max v3.Vec) {
	if len(m.vertices) == 0 {
		return
	}
	min = v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.vertices {
		min.X, max.X = math.Min(min.X, v.Pos.X), math.Max(max.X, v.Pos.X)
		min.Y, max.Y = math.Min(min.Y, v.Pos.Y), math.Max(max.Y, v.Pos.Y)
		min.Z, max.Z = math.Min(min.Z, v.Pos.Z), math.Max(max.Z, v.Pos.Z)
	}
	return min, max
}

// compact drops dead entries once they outnumber the live ones.
// Creation order of the survivors is preserved.
func (m *Mesh) compact() {
	if m.deadFaces > len(m.faces)/2 {
		live := m.faces[:0]
		for _, f := range m.faces {
			if f.live {
				live = append(live, f)
			}
		}
		for i := len(live); i < len(m.faces); i++ {
			m.faces[i] = nil
		}
		m.faces = live
		m.deadFaces = 0
	}
	if m.deadEdges > len(m.edges)/2 {
		live := m.edges[:0]
		for _, e := range m.edges {
			if e.live {
				live = append(live, e)
			}
		}
		for i := len(live); i < len(m.edges); i++ {
			m.edges[i] = nil
		}
		m.edges = live
		m.deadEdges = 0
	}
}
