package mesh

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Records is an explicit mesh description: vertex positions, edges as
// pairs of position indices, and faces as triples of edge indices.
type Records struct {
	Positions []v3.Vec
	Edges     [][2]int
	Faces     [][3]int
}

// FromRecords builds a mesh from explicit records.
func FromRecords(r Records, opts Options) (*Mesh, error) {
	m := New(opts)
	verts := make([]*Vertex, len(r.Positions))
	for i, p := range r.Positions {
		verts[i] = m.AddVertex(p)
	}
	edges := make([]*Edge, len(r.Edges))
	for i, pair := range r.Edges {
		if pair[0] < 0 || pair[0] >= len(verts) || pair[1] < 0 || pair[1] >= len(verts) {
			return nil, fmt.Errorf("mesh: edge %d references vertex out of range", i)
		}
		e, err := m.AddEdge(verts[pair[0]], verts[pair[1]])
		if err != nil {
			return nil, fmt.Errorf("mesh: edge %d: %w", i, err)
		}
		edges[i] = e
	}
	for i, tri := range r.Faces {
		for _, idx := range tri {
			if idx < 0 || idx >= len(edges) {
				return nil, fmt.Errorf("mesh: face %d references edge out of range", i)
			}
		}
		if _, err := m.AddFace(edges[tri[0]], edges[tri[1]], edges[tri[2]]); err != nil {
			return nil, fmt.Errorf("mesh: face %d: %w", i, err)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("mesh: records: %w", err)
	}
	return m, nil
}

// FromTriangles builds a mesh from positions and oriented index triples.
func FromTriangles(positions []v3.Vec, tris [][3]int, opts Options) (*Mesh, error) {
	m := New(opts)
	verts := make([]*Vertex, len(positions))
	for i, p := range positions {
		verts[i] = m.AddVertex(p)
	}
	for i, t := range tris {
		for _, idx := range t {
			if idx < 0 || idx >= len(verts) {
				return nil, fmt.Errorf("mesh: triangle %d references vertex out of range", i)
			}
		}
		if _, err := m.AddTriangle(verts[t[0]], verts[t[1]], verts[t[2]]); err != nil {
			return nil, fmt.Errorf("mesh: triangle %d: %w", i, err)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("mesh: triangles: %w", err)
	}
	return m, nil
}

// Fan builds the open four-triangle fan around the origin with its rim
// on the unit circle at (±1, 0) and (0, ±1), lifted by height. The rim
// edges are boundary edges, so the mesh allows boundaries.
func Fan(height func(x, y float64) float64) (*Mesh, error) {
	at := func(x, y float64) v3.Vec {
		return v3.Vec{X: x, Y: y, Z: height(x, y)}
	}
	return FromRecords(Records{
		Positions: []v3.Vec{at(0, 0), at(1, 0), at(0, 1), at(-1, 0), at(0, -1)},
		Edges: [][2]int{
			{0, 1}, {0, 2}, {0, 3}, {0, 4},
			{1, 2}, {2, 3}, {3, 4}, {4, 1},
		},
		Faces: [][3]int{
			{0, 1, 4},
			{1, 2, 5},
			{2, 3, 6},
			{3, 0, 7},
		},
	}, Options{AllowBoundary: true})
}

// Bipyramid builds a closed double pyramid: a ring of n vertices of the
// given radius in the z=0 plane, joined to apexes at ±apex on the z axis.
func Bipyramid(n int, radius, apex float64) (*Mesh, error) {
	if n < 3 {
		return nil, fmt.Errorf("mesh: bipyramid needs at least 3 ring vertices, got %d", n)
	}
	if radius <= 0 || apex <= 0 {
		return nil, fmt.Errorf("mesh: bipyramid radius and apex must be positive")
	}
	pos := make([]v3.Vec, 0, n+2)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		pos = append(pos, v3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	top, bottom := n, n+1
	pos = append(pos, v3.Vec{Z: apex}, v3.Vec{Z: -apex})

	tris := make([][3]int, 0, 2*n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		tris = append(tris, [3]int{i, j, top}, [3]int{j, i, bottom})
	}
	return FromTriangles(pos, tris, Options{})
}

// Octahedron builds a regular octahedron with vertices at distance r.
func Octahedron(r float64) (*Mesh, error) {
	return Bipyramid(4, r, r)
}

// Icosahedron builds a regular icosahedron inscribed in a sphere of
// radius r.
func Icosahedron(r float64) (*Mesh, error) {
	if r <= 0 {
		return nil, fmt.Errorf("mesh: icosahedron radius must be positive")
	}
	t := (1 + math.Sqrt(5)) / 2
	raw := []v3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	pos := make([]v3.Vec, len(raw))
	for i, p := range raw {
		pos[i] = p.Normalize().MulScalar(r)
	}
	tris := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	return FromTriangles(pos, tris, Options{})
}
