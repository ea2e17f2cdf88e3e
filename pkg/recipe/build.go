package recipe

import (
	"fmt"
	"log"
	"math"

	"github.com/chazu/facet/pkg/cost"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/project"
	"github.com/chazu/facet/pkg/refine"
	"github.com/chazu/facet/pkg/solve"
	"github.com/chazu/facet/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Assembly is a recipe turned into live components, ready to run.
type Assembly struct {
	Recipe    *Recipe
	Mesh      *mesh.Mesh
	Target    surface.Implicit
	Projector project.Projector
	Cache     *cost.Cache
	Engine    *refine.Engine
	Warnings  []ValidationError
}

// Build validates r and assembles its mesh, projector, cost evaluator,
// stopping policy and split policy. Blocking findings are returned as
// an error matching refine.ErrInvalidConfiguration, before any
// refinement work. logger may be nil.
func Build(r *Recipe, logger *log.Logger) (*Assembly, error) {
	v := Validate(r)
	if !v.OK() {
		return nil, fmt.Errorf("recipe: %w", v.Err())
	}
	for _, w := range v.Warnings {
		if logger != nil {
			logger.Printf("recipe: %v", w)
		}
	}

	hf, isHeight := heightField(r.Surface)
	target := implicit(r.Surface, hf, isHeight)

	m, err := buildMesh(r.Mesh, hf)
	if err != nil {
		return nil, fmt.Errorf("recipe: %w", err)
	}

	proj := projector(r.Projection, hf, target)
	cache := cost.NewCache(proj)
	if logger != nil {
		cache.OnNonConverged = func(e *mesh.Edge, p project.Projection) {
			logger.Printf("recipe: edge %d projection: %v", e.ID, p.Err)
		}
	}

	cfg := refine.Config{
		Cost:      evaluator(r, cache),
		Stop:      stopPolicy(r),
		Split:     refine.Cached{Cache: cache},
		MaxSplits: r.MaxSplits,
		Logger:    logger,
	}
	eng, err := refine.New(m, cfg)
	if err != nil {
		return nil, fmt.Errorf("recipe: %w", err)
	}

	return &Assembly{
		Recipe:    r,
		Mesh:      m,
		Target:    target,
		Projector: proj,
		Cache:     cache,
		Engine:    eng,
		Warnings:  v.Warnings,
	}, nil
}

func heightField(s SurfaceSpec) (surface.HeightField, bool) {
	switch s.Kind {
	case SurfacePowerRadial:
		return surface.PowerRadial{Exponent: s.Exponent, Scale: s.Scale}, true
	case SurfaceParaboloid:
		return surface.Paraboloid{}, true
	case SurfaceFlat:
		return surface.Flat{Z: s.Z}, true
	}
	return nil, false
}

func implicit(s SurfaceSpec, hf surface.HeightField, isHeight bool) surface.Implicit {
	switch {
	case isHeight:
		return surface.Graph{Field: hf}
	case s.Kind == SurfaceSphere:
		return surface.Sphere{Center: vec(s.Center), Radius: s.Radius}
	default:
		return s.Solid
	}
}

func buildMesh(ms MeshSpec, hf surface.HeightField) (*mesh.Mesh, error) {
	radius := ms.Radius
	if radius == 0 {
		radius = 1
	}
	switch ms.Shape {
	case ShapeFan:
		if hf == nil {
			hf = surface.Flat{}
		}
		return mesh.Fan(hf.Height)
	case ShapeBipyramid:
		n, h := ms.Segments, ms.Height
		if n == 0 {
			n = 4
		}
		if h == 0 {
			h = radius
		}
		return mesh.Bipyramid(n, radius, h)
	case ShapeOctahedron:
		return mesh.Octahedron(radius)
	case ShapeIcosahedron:
		return mesh.Icosahedron(radius)
	case ShapeRecords:
		rec := mesh.Records{Edges: ms.Records.Edges, Faces: ms.Records.Faces}
		for _, p := range ms.Records.Positions {
			rec.Positions = append(rec.Positions, vec(p))
		}
		return mesh.FromRecords(rec, mesh.Options{AllowBoundary: ms.AllowBoundary})
	}
	return nil, fmt.Errorf("unknown shape %q", ms.Shape)
}

func projector(p ProjectionSpec, hf surface.HeightField, target surface.Implicit) project.Projector {
	settings := solve.Settings{Tolerance: p.Tolerance, MaxIterations: p.MaxIterations, Timeout: p.Timeout}
	if p.Mode == ModeNearest {
		return &project.Nearest{Surface: hf, Step: p.Step, Settings: settings}
	}
	guess := project.FromQuery
	if p.Guess == "origin" {
		guess = project.FromOrigin
	}
	return &project.Ray{Eye: vec(p.Eye), Surface: target, Guess: guess, Settings: settings}
}

func evaluator(r *Recipe, cache *cost.Cache) cost.Evaluator {
	switch r.Cost.Kind {
	case CostRadial:
		return cost.Radial{Cache: cache, Reference: r.Cost.Reference}
	case CostRatio:
		return cost.Ratio{Cache: cache, Eye: vec(r.Projection.Eye)}
	case CostMagnitude:
		return cost.Magnitude{Cache: cache}
	default:
		return cost.Sag{Cache: cache}
	}
}

func stopPolicy(r *Recipe) refine.StopPolicy {
	var ps []refine.StopPolicy
	if r.Stop.MaxEdges > 0 {
		ps = append(ps, refine.EdgeCount{Max: r.Stop.MaxEdges})
	}
	if t := r.Stop.Threshold; t != nil {
		below := r.Stop.Direction == Below
		if r.Stop.Direction == "" {
			pol, _, _, _ := polarity(r.Cost.Kind)
			below = pol == cost.Max
		}
		ps = append(ps, refine.Threshold{Value: *t, Below: below})
	}
	switch len(ps) {
	case 0:
		// Only the split ceiling bounds the run.
		return refine.EdgeCount{Max: math.MaxInt}
	case 1:
		return ps[0]
	default:
		return refine.AnyOf(ps...)
	}
}

func vec(v Vec3) v3.Vec {
	return v3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
