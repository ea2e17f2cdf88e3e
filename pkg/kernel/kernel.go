// Package kernel defines the abstract geometry kernel interface.
// Implementations provide implicit solids that serve as refinement
// targets and a marching-cubes mesh of the same solid for comparison.
// The kernel abstraction allows swapping backends without changing the
// rest of the system.
package kernel

import v3 "github.com/deadsy/sdfx/vec/v3"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Value is the signed distance to the surface: negative inside, zero
	// on the surface. Solids therefore satisfy surface.Implicit.
	Value(p v3.Vec) float64
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centred on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
