// Package surface describes the target geometry a mesh is refined toward.
// A target is either an explicit height field z = f(x, y) or an implicit
// surface F(p) = 0. Models are stateless apart from fixed parameters.
package surface

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// HeightField is an explicit surface z = Height(x, y).
type HeightField interface {
	Height(x, y float64) float64
}

// Implicit is a surface given as the zero set of Value.
type Implicit interface {
	Value(p v3.Vec) float64
}

// Compile-time interface checks.
var (
	_ HeightField = PowerRadial{}
	_ HeightField = Paraboloid{}
	_ HeightField = Flat{}
	_ HeightField = HeightFunc(nil)
	_ Implicit    = Graph{}
	_ Implicit    = Sphere{}
	_ Implicit    = ImplicitFunc(nil)
)

// PowerRadial is Scale * (x² + y²)^Exponent. A zero Scale means 1.
type PowerRadial struct {
	Exponent float64
	Scale    float64
}

// Height implements HeightField.
func (p PowerRadial) Height(x, y float64) float64 {
	s := p.Scale
	if s == 0 {
		s = 1
	}
	return s * math.Pow(x*x+y*y, p.Exponent)
}

// Paraboloid is (sqrt(x² + y²))².
type Paraboloid struct{}

// Height implements HeightField.
func (Paraboloid) Height(x, y float64) float64 {
	r := math.Sqrt(x*x + y*y)
	return r * r
}

// Flat is the constant plane z = Z.
type Flat struct {
	Z float64
}

// Height implements HeightField.
func (f Flat) Height(x, y float64) float64 {
	return f.Z
}

// HeightFunc adapts a plain function to HeightField.
type HeightFunc func(x, y float64) float64

// Height implements HeightField.
func (f HeightFunc) Height(x, y float64) float64 {
	return f(x, y)
}

// Graph views a height field as the implicit surface Height(x, y) - z = 0.
type Graph struct {
	Field HeightField
}

// Value implements Implicit.
func (g Graph) Value(p v3.Vec) float64 {
	return g.Field.Height(p.X, p.Y) - p.Z
}

// Sphere is |p - Center| - Radius = 0.
type Sphere struct {
	Center v3.Vec
	Radius float64
}

// Value implements Implicit.
func (s Sphere) Value(p v3.Vec) float64 {
	return p.Sub(s.Center).Length() - s.Radius
}

// ImplicitFunc adapts a plain function to Implicit.
type ImplicitFunc func(p v3.Vec) float64

// Value implements Implicit.
func (f ImplicitFunc) Value(p v3.Vec) float64 {
	return f(p)
}

// Point lifts (x, y) onto the height field.
func Point(h HeightField, x, y float64) v3.Vec {
	return v3.Vec{X: x, Y: y, Z: h.Height(x, y)}
}
