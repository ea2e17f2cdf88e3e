package recipe

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/cost"
	"github.com/chazu/facet/pkg/refine"
)

// ValidationSeverity indicates whether a validation finding blocks a run
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the run
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// Validation codes.
const (
	CodeMeshShape          = "MESH_SHAPE_UNKNOWN"
	CodeMeshSegments       = "MESH_SEGMENTS"
	CodeMeshRadius         = "MESH_RADIUS"
	CodeMeshHeight         = "MESH_HEIGHT"
	CodeMeshRecords        = "MESH_RECORDS_MISSING"
	CodeMeshBoundaryUnused = "MESH_BOUNDARY_UNUSED"
	CodeSurfaceKind        = "SURFACE_KIND_UNKNOWN"
	CodeSurfaceRadius      = "SURFACE_RADIUS"
	CodeSurfaceExponent    = "SURFACE_EXPONENT"
	CodeSurfaceSolid       = "SURFACE_SOLID_MISSING"
	CodeProjectionMode     = "PROJECTION_MODE_UNKNOWN"
	CodeProjectionTarget   = "PROJECTION_NEEDS_HEIGHT_FIELD"
	CodeProjectionGuess    = "PROJECTION_GUESS_UNKNOWN"
	CodeProjectionBounds   = "PROJECTION_BOUNDS"
	CodeProjectionEye      = "PROJECTION_EYE_ON_TARGET"
	CodeCostKind           = "COST_KIND_UNKNOWN"
	CodeCostReference      = "COST_REFERENCE"
	CodeCostEye            = "COST_NEEDS_EYE"
	CodeCostMonitoring     = "COST_MONITORING_ONLY"
	CodeStopMissing        = "STOP_MISSING"
	CodeStopEdges          = "STOP_EDGES_NEGATIVE"
	CodeStopDirection      = "STOP_DIRECTION"
	CodeStopUnreachable    = "STOP_THRESHOLD_UNREACHABLE"
	CodeStopImmediate      = "STOP_THRESHOLD_IMMEDIATE"
	CodeMaxSplits          = "MAX_SPLITS_NEGATIVE"
)

// ValidationError describes a single validation finding.
type ValidationError struct {
	Code     string
	Field    string // dotted recipe path, e.g. "stop.threshold"
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %s", e.Severity, e.Code, e.Field, e.Message)
}

// Is makes errors.Is(err, refine.ErrInvalidConfiguration) true for
// blocking findings.
func (e ValidationError) Is(target error) bool {
	return target == refine.ErrInvalidConfiguration && e.Severity == SeverityError
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking findings.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err joins the blocking findings, or returns nil.
func (r ValidationResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

type findings struct {
	ValidationResult
}

func (f *findings) fail(code, field, format string, args ...any) {
	f.Errors = append(f.Errors, ValidationError{
		Code: code, Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError,
	})
}

func (f *findings) warn(code, field, format string, args ...any) {
	f.Warnings = append(f.Warnings, ValidationError{
		Code: code, Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning,
	})
}

// Validate checks r for settings that cannot be assembled or can never
// be satisfied. It is read-only and never mutates the recipe.
func Validate(r *Recipe) ValidationResult {
	var f findings
	if r == nil {
		f.fail(CodeMeshShape, "mesh", "no recipe")
		return f.ValidationResult
	}
	validateMesh(&f, r)
	validateSurface(&f, r)
	validateProjection(&f, r)
	validateCost(&f, r)
	validateStop(&f, r)
	return f.ValidationResult
}

func validateMesh(f *findings, r *Recipe) {
	m := r.Mesh
	switch m.Shape {
	case ShapeFan:
	case ShapeBipyramid:
		if m.Segments != 0 && m.Segments < 3 {
			f.fail(CodeMeshSegments, "mesh.segments", "bipyramid needs at least 3 ring vertices, got %d", m.Segments)
		}
		if m.Height < 0 {
			f.fail(CodeMeshHeight, "mesh.height", "apex height %g must be positive", m.Height)
		}
	case ShapeOctahedron, ShapeIcosahedron:
	case ShapeRecords:
		if m.Records == nil || len(m.Records.Faces) == 0 {
			f.fail(CodeMeshRecords, "mesh.records", "records shape needs at least one face")
		}
	default:
		f.fail(CodeMeshShape, "mesh.shape", "unknown shape %q", m.Shape)
	}
	if m.Radius < 0 {
		f.fail(CodeMeshRadius, "mesh.radius", "radius %g must be positive", m.Radius)
	}
	if m.AllowBoundary && m.Shape != ShapeRecords {
		f.warn(CodeMeshBoundaryUnused, "mesh.allowBoundary", "only explicit records honour allowBoundary")
	}
}

func validateSurface(f *findings, r *Recipe) {
	s := r.Surface
	switch s.Kind {
	case SurfacePowerRadial:
		if s.Exponent < 0 {
			f.fail(CodeSurfaceExponent, "surface.exponent", "negative exponent %g is singular at the origin", s.Exponent)
		}
	case SurfaceParaboloid, SurfaceFlat:
	case SurfaceSphere:
		if s.Radius <= 0 {
			f.fail(CodeSurfaceRadius, "surface.radius", "sphere radius %g must be positive", s.Radius)
		}
	case SurfaceSolid:
		if s.Solid == nil {
			f.fail(CodeSurfaceSolid, "surface.solid", "solid target has no solid; solids can only be given by scripts")
		}
	default:
		f.fail(CodeSurfaceKind, "surface.kind", "unknown surface %q", s.Kind)
	}
}

func validateProjection(f *findings, r *Recipe) {
	p := r.Projection
	switch p.Mode {
	case ModeNearest:
		if r.Surface.Kind != "" && !r.Surface.Kind.HeightField() {
			f.fail(CodeProjectionTarget, "projection.mode",
				"nearest-point projection needs a height field, %q is implicit only", r.Surface.Kind)
		}
	case ModeRay:
		if r.Surface.Kind == SurfaceSphere {
			c := r.Surface.Center
			d := math.Sqrt(sq(p.Eye[0]-c[0]) + sq(p.Eye[1]-c[1]) + sq(p.Eye[2]-c[2]))
			if math.Abs(d-r.Surface.Radius) < 1e-12 {
				f.warn(CodeProjectionEye, "projection.eye", "eye lies on the target surface")
			}
		}
	default:
		f.fail(CodeProjectionMode, "projection.mode", "unknown projection mode %q", p.Mode)
	}
	switch p.Guess {
	case "", "query", "origin":
	default:
		f.fail(CodeProjectionGuess, "projection.guess", "unknown initial guess %q", p.Guess)
	}
	if p.Tolerance < 0 || p.MaxIterations < 0 || p.Step < 0 || p.Timeout < 0 {
		f.fail(CodeProjectionBounds, "projection", "tolerance, iterations, step and timeout must not be negative")
	}
}

func sq(x float64) float64 { return x * x }

func validateCost(f *findings, r *Recipe) {
	switch r.Cost.Kind {
	case CostSag, CostMagnitude:
	case CostRadial:
		if r.Cost.Reference <= 0 {
			f.fail(CodeCostReference, "cost.reference", "radial cost needs a positive reference radius, got %g", r.Cost.Reference)
		}
	case CostRatio:
		if r.Projection.Mode != ModeRay {
			f.warn(CodeCostEye, "cost.kind", "ratio cost measures from projection.eye, which only ray projection sets meaningfully")
		}
	default:
		f.fail(CodeCostKind, "cost.kind", "unknown cost %q", r.Cost.Kind)
	}
}

// polarity returns the polarity and range of a cost kind.
func polarity(k CostKind) (cost.Polarity, float64, float64, bool) {
	var ev cost.Evaluator
	switch k {
	case CostSag:
		ev = cost.Sag{}
	case CostRadial:
		ev = cost.Radial{}
	case CostRatio:
		ev = cost.Ratio{}
	case CostMagnitude:
		ev = cost.Magnitude{}
	default:
		return 0, 0, 0, false
	}
	lo, hi := ev.Range()
	return ev.Polarity(), lo, hi, true
}

func validateStop(f *findings, r *Recipe) {
	s := r.Stop
	if r.MaxSplits < 0 {
		f.fail(CodeMaxSplits, "maxSplits", "%d is negative", r.MaxSplits)
	}
	if s.MaxEdges < 0 {
		f.fail(CodeStopEdges, "stop.maxEdges", "%d is negative", s.MaxEdges)
	}
	if s.MaxEdges <= 0 && s.Threshold == nil && r.MaxSplits <= 0 {
		f.fail(CodeStopMissing, "stop", "no edge cap, threshold or split ceiling; refinement would never stop")
	}
	if s.Threshold == nil {
		if s.Direction != "" {
			f.warn(CodeStopDirection, "stop.direction", "direction without a threshold has no effect")
		}
		return
	}

	t := *s.Threshold
	if math.IsNaN(t) || math.IsInf(t, 0) {
		f.fail(CodeStopUnreachable, "stop.threshold", "threshold must be finite")
		return
	}
	pol, lo, hi, ok := polarity(r.Cost.Kind)
	if !ok {
		return
	}
	dir := s.Direction
	switch dir {
	case "":
		dir = Below
		if pol == cost.Min {
			dir = Above
		}
	case Below, Above:
	default:
		f.fail(CodeStopDirection, "stop.direction", "unknown direction %q", dir)
		return
	}
	switch {
	case pol == cost.Max && dir == Above, pol == cost.Min && dir == Below:
		f.fail(CodeStopDirection, "stop.direction",
			"%s cost is worst at its %s end; refinement cannot drive it %s %g", r.Cost.Kind, pol, dir, t)
	case dir == Below && t < lo:
		f.fail(CodeStopUnreachable, "stop.threshold", "%s cost never falls below %g", r.Cost.Kind, lo)
	case dir == Above && t > hi:
		f.fail(CodeStopUnreachable, "stop.threshold", "%s cost never exceeds %g", r.Cost.Kind, hi)
	case dir == Above && t <= lo:
		f.warn(CodeStopImmediate, "stop.threshold", "threshold %g is met before any split", t)
	}
	if r.Cost.Kind == CostMagnitude {
		f.warn(CodeCostMonitoring, "stop.threshold", "magnitude is a monitoring signal; thresholding it stops on radius, not fit")
	}
}
