package recipe

import (
	"time"

	"github.com/chazu/facet/pkg/kernel"
)

// Shape names a starting mesh.
type Shape string

const (
	ShapeFan         Shape = "fan"
	ShapeBipyramid   Shape = "bipyramid"
	ShapeOctahedron  Shape = "octahedron"
	ShapeIcosahedron Shape = "icosahedron"
	ShapeRecords     Shape = "records"
)

// SurfaceKind names a target surface model.
type SurfaceKind string

const (
	SurfacePowerRadial SurfaceKind = "power-radial"
	SurfaceParaboloid  SurfaceKind = "paraboloid"
	SurfaceFlat        SurfaceKind = "flat"
	SurfaceSphere      SurfaceKind = "sphere"
	SurfaceSolid       SurfaceKind = "solid"
)

// HeightField reports whether the kind is an explicit z = f(x, y) surface.
func (k SurfaceKind) HeightField() bool {
	switch k {
	case SurfacePowerRadial, SurfaceParaboloid, SurfaceFlat:
		return true
	}
	return false
}

// Mode names a projector.
type Mode string

const (
	ModeNearest Mode = "nearest"
	ModeRay     Mode = "ray"
)

// CostKind names a cost evaluator.
type CostKind string

const (
	CostSag       CostKind = "sag"
	CostRadial    CostKind = "radial"
	CostRatio     CostKind = "ratio"
	CostMagnitude CostKind = "magnitude"
)

// Direction says which way a cost must cross its threshold to stop.
type Direction string

const (
	Below Direction = "below"
	Above Direction = "above"
)

// Vec3 is an (x, y, z) triple, written as a three-element list in YAML.
type Vec3 [3]float64

// MeshSpec selects the starting mesh.
type MeshSpec struct {
	Shape    Shape   `yaml:"shape"`
	Segments int     `yaml:"segments,omitempty"` // bipyramid ring size
	Radius   float64 `yaml:"radius,omitempty"`
	Height   float64 `yaml:"height,omitempty"` // bipyramid apex height
	// Records holds explicit geometry for ShapeRecords.
	Records       *Records `yaml:"records,omitempty"`
	AllowBoundary bool     `yaml:"allowBoundary,omitempty"`
}

// Records is explicit mesh geometry: positions, edges as position index
// pairs, faces as edge index triples.
type Records struct {
	Positions []Vec3   `yaml:"positions"`
	Edges     [][2]int `yaml:"edges"`
	Faces     [][3]int `yaml:"faces"`
}

// SurfaceSpec selects the target surface.
type SurfaceSpec struct {
	Kind     SurfaceKind `yaml:"kind"`
	Exponent float64     `yaml:"exponent,omitempty"`
	Scale    float64     `yaml:"scale,omitempty"`
	Z        float64     `yaml:"z,omitempty"`
	Radius   float64     `yaml:"radius,omitempty"`
	Center   Vec3        `yaml:"center,omitempty"`
	// Solid is set by scripts; it has no YAML form.
	Solid kernel.Solid `yaml:"-"`
}

// ProjectionSpec selects and bounds the projector.
type ProjectionSpec struct {
	Mode          Mode          `yaml:"mode"`
	Eye           Vec3          `yaml:"eye,omitempty"`
	Guess         string        `yaml:"guess,omitempty"` // "query" (default) or "origin"
	Tolerance     float64       `yaml:"tolerance,omitempty"`
	MaxIterations int           `yaml:"maxIterations,omitempty"`
	Step          float64       `yaml:"step,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
}

// CostSpec selects the edge cost.
type CostSpec struct {
	Kind      CostKind `yaml:"kind"`
	Reference float64  `yaml:"reference,omitempty"` // radial cost target radius
}

// StopSpec selects the stopping policy. Both limits may be given; the run
// stops at whichever is met first.
type StopSpec struct {
	MaxEdges  int      `yaml:"maxEdges,omitempty"`
	Threshold *float64 `yaml:"threshold,omitempty"`
	// Direction defaults to the one implied by the cost's polarity.
	Direction Direction `yaml:"direction,omitempty"`
}

// Recipe is a complete run description.
type Recipe struct {
	Name       string         `yaml:"name,omitempty"`
	Mesh       MeshSpec       `yaml:"mesh"`
	Surface    SurfaceSpec    `yaml:"surface"`
	Projection ProjectionSpec `yaml:"projection"`
	Cost       CostSpec       `yaml:"cost"`
	Stop       StopSpec       `yaml:"stop"`
	MaxSplits  int            `yaml:"maxSplits,omitempty"`
}

// Default reproduces the classic demo: the open four-face fan refined
// toward z = (x²+y²)^5 by nearest-point projection, worst sag first,
// until the mesh has more than 1000 edges.
func Default() *Recipe {
	return &Recipe{
		Name:       "fan",
		Mesh:       MeshSpec{Shape: ShapeFan},
		Surface:    SurfaceSpec{Kind: SurfacePowerRadial, Exponent: 5},
		Projection: ProjectionSpec{Mode: ModeNearest},
		Cost:       CostSpec{Kind: CostSag},
		Stop:       StopSpec{MaxEdges: 1000},
	}
}

// Threshold returns a pointer to v, for StopSpec.Threshold.
func Threshold(v float64) *float64 {
	return &v
}
