package kernel

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // "refined", "reference", ...
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Soup expands the indexed triangles into nine floats per triangle.
func (m *Mesh) Soup() []float32 {
	out := make([]float32, 0, len(m.Indices)*3)
	for _, i := range m.Indices {
		out = append(out, m.Vertices[3*i:3*i+3]...)
	}
	return out
}

// Triangle returns the corners of triangle t.
func (m *Mesh) Triangle(t int) (a, b, c [3]float32) {
	at := func(k int) [3]float32 {
		i := m.Indices[3*t+k]
		return [3]float32{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
	}
	return at(0), at(1), at(2)
}
