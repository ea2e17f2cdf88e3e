// Package tessellate turns a refined topology mesh into flat render
// buffers. Output is a triangle soup: each face contributes three fresh
// vertices in face-traversal order, with no shared-vertex deduplication.
package tessellate

import (
	"math"

	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/surface"
	"github.com/samber/lo"
)

// Tessellate produces a render mesh with per-face normals and sequential
// indices. The tessellator is read-only and never mutates m.
func Tessellate(m *mesh.Mesh, name string) *kernel.Mesh {
	if m == nil {
		return &kernel.Mesh{Name: name}
	}
	n := m.FaceCount()
	out := &kernel.Mesh{
		Vertices: make([]float32, 0, n*9),
		Normals:  make([]float32, 0, n*9),
		Indices:  make([]uint32, 0, n*3),
		Name:     name,
	}

	i := uint32(0)
	m.ForEachFace(func(f *mesh.Face) bool {
		nrm := f.Normal()
		a, b, c := f.Vertices()
		for _, v := range [3]*mesh.Vertex{a, b, c} {
			out.Vertices = append(out.Vertices, float32(v.Pos.X), float32(v.Pos.Y), float32(v.Pos.Z))
			out.Normals = append(out.Normals, float32(nrm.X), float32(nrm.Y), float32(nrm.Z))
			out.Indices = append(out.Indices, i)
			i++
		}
		return true
	})
	return out
}

// Soup returns the bare nine-floats-per-triangle buffer.
func Soup(m *mesh.Mesh) []float32 {
	if m == nil {
		return nil
	}
	return m.Soup()
}

// Deviation measures how far the mesh vertices lie from an implicit
// target: the largest and the mean of |Value(v)|. For signed distance
// targets these are distances.
func Deviation(m *mesh.Mesh, s surface.Implicit) (max, mean float64) {
	verts := m.Vertices()
	if len(verts) == 0 {
		return 0, 0
	}
	dev := lo.Map(verts, func(v *mesh.Vertex, _ int) float64 {
		return math.Abs(s.Value(v.Pos))
	})
	return lo.Max(dev), lo.Sum(dev) / float64(len(dev))
}

// Area is the total area of the live faces.
func Area(m *mesh.Mesh) float64 {
	return lo.SumBy(m.Faces(), func(f *mesh.Face) float64 { return f.Area() })
}
