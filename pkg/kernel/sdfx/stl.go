package sdfx

import (
	"fmt"

	"github.com/chazu/facet/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangles converts a kernel mesh to sdfx triangles.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		out = append(out, &sdf.Triangle3{vec(a), vec(b), vec(c)})
	}
	return out
}

func vec(p [3]float32) v3.Vec {
	return v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

// SaveSTL writes m to path as a binary STL file.
func SaveSTL(path string, m *kernel.Mesh) error {
	if m == nil || m.IsEmpty() {
		return fmt.Errorf("sdfx: save %s: empty mesh", path)
	}
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("sdfx: save %s: %w", path, err)
	}
	return nil
}
