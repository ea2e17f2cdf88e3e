package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/surface"
	"github.com/chazu/facet/pkg/tessellate"
)

func octahedron(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.Octahedron(1)
	if err != nil {
		t.Fatalf("Octahedron: %v", err)
	}
	return m
}

func TestTessellateOctahedron(t *testing.T) {
	m := octahedron(t)
	out := tessellate.Tessellate(m, "refined")

	if out.Name != "refined" {
		t.Errorf("Name = %q", out.Name)
	}
	if out.TriangleCount() != 8 {
		t.Fatalf("expected 8 triangles, got %d", out.TriangleCount())
	}
	if out.VertexCount() != 24 {
		t.Errorf("expected 24 soup vertices, got %d", out.VertexCount())
	}
	if len(out.Normals) != len(out.Vertices) {
		t.Fatalf("normals %d != vertices %d", len(out.Normals), len(out.Vertices))
	}
	for i, idx := range out.Indices {
		if idx != uint32(i) {
			t.Fatalf("index %d = %d, want sequential", i, idx)
		}
	}

	// Normals point away from the origin on a convex shape centred there.
	for tri := 0; tri < out.TriangleCount(); tri++ {
		a, b, c := out.Triangle(tri)
		var dot float64
		for k := 0; k < 3; k++ {
			centroid := float64(a[k]+b[k]+c[k]) / 3
			dot += centroid * float64(out.Normals[tri*9+k])
		}
		if dot <= 0 {
			t.Errorf("triangle %d normal points inward", tri)
		}
	}
}

func TestTessellateMatchesSoup(t *testing.T) {
	m := octahedron(t)
	e := m.Edges()[0]
	if _, _, err := m.SplitEdge(e, e.Midpoint().Normalize()); err != nil {
		t.Fatalf("SplitEdge: %v", err)
	}

	out := tessellate.Tessellate(m, "")
	soup := tessellate.Soup(m)
	if len(soup) != 9*m.FaceCount() {
		t.Fatalf("soup has %d floats for %d faces", len(soup), m.FaceCount())
	}
	flat := out.Soup()
	for i := range soup {
		if soup[i] != flat[i] {
			t.Fatalf("soup[%d] = %v, tessellated = %v", i, soup[i], flat[i])
		}
	}
}

func TestTessellateNil(t *testing.T) {
	if out := tessellate.Tessellate(nil, "x"); !out.IsEmpty() {
		t.Error("nil mesh should tessellate to an empty mesh")
	}
	if soup := tessellate.Soup(nil); soup != nil {
		t.Error("nil mesh should have no soup")
	}
}

func TestDeviation(t *testing.T) {
	m := octahedron(t)
	tests := []struct {
		name      string
		target    surface.Implicit
		max, mean float64
	}{
		{"on surface", surface.Sphere{Radius: 1}, 0, 0},
		{"inner sphere", surface.Sphere{Radius: 0.5}, 0.5, 0.5},
		{"plane", surface.Graph{Field: surface.Flat{}}, 1, 1.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			max, mean := tessellate.Deviation(m, tt.target)
			if math.Abs(max-tt.max) > 1e-12 || math.Abs(mean-tt.mean) > 1e-12 {
				t.Errorf("Deviation = %g, %g; want %g, %g", max, mean, tt.max, tt.mean)
			}
		})
	}
}

func TestArea(t *testing.T) {
	m := octahedron(t)
	// Eight equilateral faces with side sqrt(2).
	if got, want := tessellate.Area(m), 4*math.Sqrt(3); math.Abs(got-want) > 1e-12 {
		t.Errorf("Area() = %g, want %g", got, want)
	}
}
