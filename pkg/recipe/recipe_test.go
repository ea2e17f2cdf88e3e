package recipe

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/chazu/facet/pkg/project"
	"github.com/chazu/facet/pkg/refine"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// hasCode returns true if findings contains code.
func hasCode(findings []ValidationError, code string) bool {
	for _, f := range findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func sphereRecipe() *Recipe {
	return &Recipe{
		Name:       "sphere",
		Mesh:       MeshSpec{Shape: ShapeOctahedron},
		Surface:    SurfaceSpec{Kind: SurfaceSphere, Radius: 1},
		Projection: ProjectionSpec{Mode: ModeRay, Eye: Vec3{0, 0, 5}},
		Cost:       CostSpec{Kind: CostSag},
		Stop:       StopSpec{MaxEdges: 60},
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestDefaultIsValid(t *testing.T) {
	res := Validate(Default())
	if !res.OK() {
		t.Fatalf("default recipe invalid: %v", res.Err())
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Recipe)
		code   string
	}{
		{"unknown shape", func(r *Recipe) { r.Mesh.Shape = "torus" }, CodeMeshShape},
		{"bipyramid ring", func(r *Recipe) { r.Mesh = MeshSpec{Shape: ShapeBipyramid, Segments: 2} }, CodeMeshSegments},
		{"negative radius", func(r *Recipe) { r.Mesh.Radius = -1 }, CodeMeshRadius},
		{"records missing", func(r *Recipe) { r.Mesh = MeshSpec{Shape: ShapeRecords} }, CodeMeshRecords},
		{"unknown surface", func(r *Recipe) { r.Surface.Kind = "saddle" }, CodeSurfaceKind},
		{"negative exponent", func(r *Recipe) { r.Surface.Exponent = -2 }, CodeSurfaceExponent},
		{"sphere radius", func(r *Recipe) {
			r.Surface = SurfaceSpec{Kind: SurfaceSphere}
			r.Projection.Mode = ModeRay
		}, CodeSurfaceRadius},
		{"solid missing", func(r *Recipe) {
			r.Surface = SurfaceSpec{Kind: SurfaceSolid}
			r.Projection.Mode = ModeRay
		}, CodeSurfaceSolid},
		{"nearest on implicit", func(r *Recipe) { r.Surface = SurfaceSpec{Kind: SurfaceSphere, Radius: 1} }, CodeProjectionTarget},
		{"unknown mode", func(r *Recipe) { r.Projection.Mode = "orthographic" }, CodeProjectionMode},
		{"unknown guess", func(r *Recipe) { r.Projection.Guess = "random" }, CodeProjectionGuess},
		{"negative tolerance", func(r *Recipe) { r.Projection.Tolerance = -1 }, CodeProjectionBounds},
		{"unknown cost", func(r *Recipe) { r.Cost.Kind = "curvature" }, CodeCostKind},
		{"radial reference", func(r *Recipe) { r.Cost = CostSpec{Kind: CostRadial} }, CodeCostReference},
		{"no stop", func(r *Recipe) { r.Stop = StopSpec{} }, CodeStopMissing},
		{"negative edges", func(r *Recipe) { r.Stop.MaxEdges = -5 }, CodeStopEdges},
		{"negative splits", func(r *Recipe) { r.MaxSplits = -1 }, CodeMaxSplits},
		{"sag above", func(r *Recipe) {
			r.Stop = StopSpec{Threshold: Threshold(0.1), Direction: Above}
		}, CodeStopDirection},
		{"ratio below", func(r *Recipe) {
			r.Cost.Kind = CostRatio
			r.Stop = StopSpec{Threshold: Threshold(0.98), Direction: Below}
		}, CodeStopDirection},
		{"unknown direction", func(r *Recipe) {
			r.Stop = StopSpec{Threshold: Threshold(0.1), Direction: "sideways"}
		}, CodeStopDirection},
		{"sag below zero", func(r *Recipe) { r.Stop = StopSpec{Threshold: Threshold(-0.5)} }, CodeStopUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			tt.modify(r)
			res := Validate(r)
			if !hasCode(res.Errors, tt.code) {
				t.Fatalf("expected %s, got errors %v", tt.code, res.Errors)
			}
			if !errors.Is(res.Err(), refine.ErrInvalidConfiguration) {
				t.Errorf("Err() should match ErrInvalidConfiguration: %v", res.Err())
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Recipe)
		code   string
	}{
		{"boundary unused", func(r *Recipe) { r.Mesh.AllowBoundary = true }, CodeMeshBoundaryUnused},
		{"ratio without ray", func(r *Recipe) {
			r.Cost.Kind = CostRatio
			r.Stop = StopSpec{Threshold: Threshold(0.98)}
		}, CodeCostEye},
		{"ratio met at once", func(r *Recipe) {
			r.Cost.Kind = CostRatio
			r.Stop = StopSpec{Threshold: Threshold(0)}
		}, CodeStopImmediate},
		{"direction alone", func(r *Recipe) { r.Stop.Direction = Below }, CodeStopDirection},
		{"magnitude threshold", func(r *Recipe) {
			r.Cost.Kind = CostMagnitude
			r.Stop = StopSpec{Threshold: Threshold(1)}
		}, CodeCostMonitoring},
		{"eye on sphere", func(r *Recipe) {
			r.Surface = SurfaceSpec{Kind: SurfaceSphere, Radius: 1}
			r.Projection = ProjectionSpec{Mode: ModeRay, Eye: Vec3{0, 1, 0}}
		}, CodeProjectionEye},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			tt.modify(r)
			res := Validate(r)
			if !res.OK() {
				t.Fatalf("unexpected errors: %v", res.Errors)
			}
			if !hasCode(res.Warnings, tt.code) {
				t.Errorf("expected warning %s, got %v", tt.code, res.Warnings)
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	if Validate(nil).OK() {
		t.Error("nil recipe should not validate")
	}
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Code: CodeStopMissing, Field: "stop", Message: "never stops", Severity: SeverityError}
	want := "[error] STOP_MISSING: stop: never stops"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
	w := ValidationError{Severity: SeverityWarning}
	if errors.Is(w, refine.ErrInvalidConfiguration) {
		t.Error("warnings must not match ErrInvalidConfiguration")
	}
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

func TestParseOverridesDefaults(t *testing.T) {
	doc := `
name: sphere
mesh:
  shape: icosahedron
  radius: 0.9
surface:
  kind: sphere
  radius: 1
  center: [0, 0, 0.5]
projection:
  mode: ray
  eye: [0, 0, 5]
  guess: origin
  timeout: 5ms
cost:
  kind: ratio
stop:
  threshold: 0.98
maxSplits: 400
`
	r, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Mesh.Shape != ShapeIcosahedron || r.Mesh.Radius != 0.9 {
		t.Errorf("mesh = %+v", r.Mesh)
	}
	if r.Surface.Center != (Vec3{0, 0, 0.5}) {
		t.Errorf("center = %v", r.Surface.Center)
	}
	if r.Projection.Eye != (Vec3{0, 0, 5}) || r.Projection.Guess != "origin" {
		t.Errorf("projection = %+v", r.Projection)
	}
	if r.Projection.Timeout.Milliseconds() != 5 {
		t.Errorf("timeout = %v", r.Projection.Timeout)
	}
	if r.Stop.Threshold == nil || *r.Stop.Threshold != 0.98 {
		t.Errorf("threshold = %v", r.Stop.Threshold)
	}
	// Untouched default.
	if r.Stop.MaxEdges != 1000 {
		t.Errorf("MaxEdges = %d, want default 1000", r.Stop.MaxEdges)
	}
	if r.MaxSplits != 400 {
		t.Errorf("MaxSplits = %d", r.MaxSplits)
	}
}

func TestParseEmptyIsDefault(t *testing.T) {
	r, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Mesh.Shape != ShapeFan || r.Surface.Exponent != 5 || r.Stop.MaxEdges != 1000 {
		t.Errorf("got %+v", r)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("mesh:\n  sides: 5\n")); err == nil {
		t.Error("expected an error for an unknown field")
	}
	if _, err := Parse([]byte("mesh: [")); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	in := sphereRecipe()
	in.Stop.Threshold = Threshold(0.01)
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, data)
	}
	if out.Surface.Kind != SurfaceSphere || out.Projection.Eye != in.Projection.Eye ||
		*out.Stop.Threshold != 0.01 || out.Stop.MaxEdges != 60 {
		t.Errorf("round trip changed recipe:\n%s", data)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected an error")
	}
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

func TestBuildDefaultRuns(t *testing.T) {
	r := Default()
	r.Stop.MaxEdges = 60
	a, err := Build(r, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := a.Projector.(*project.Nearest); !ok {
		t.Errorf("projector = %T, want *project.Nearest", a.Projector)
	}
	res := a.Engine.Run(context.Background())
	if res.State != refine.Converged {
		t.Fatalf("state %s: %v", res.State, res.Err)
	}
	if n := a.Mesh.EdgeCount(); n <= 60 || n > 63 {
		t.Errorf("edges = %d", n)
	}
}

func TestBuildRaySphere(t *testing.T) {
	a, err := Build(sphereRecipe(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := a.Projector.(*project.Ray); !ok {
		t.Errorf("projector = %T, want *project.Ray", a.Projector)
	}
	res := a.Engine.Run(context.Background())
	if res.State != refine.Converged {
		t.Fatalf("state %s: %v", res.State, res.Err)
	}
	if !a.Mesh.Closed() {
		t.Error("octahedron refinement should stay closed")
	}
}

func TestBuildRecords(t *testing.T) {
	r := Default()
	r.Mesh = MeshSpec{
		Shape: ShapeRecords,
		Records: &Records{
			Positions: []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Edges:     [][2]int{{0, 1}, {1, 2}, {2, 0}},
			Faces:     [][3]int{{0, 1, 2}},
		},
		AllowBoundary: true,
	}
	r.Stop.MaxEdges = 10
	a, err := Build(r, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if a.Mesh.FaceCount() != 1 {
		t.Errorf("faces = %d", a.Mesh.FaceCount())
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	r := Default()
	r.Stop = StopSpec{Threshold: Threshold(0.1), Direction: Above}
	_, err := Build(r, nil)
	if !errors.Is(err, refine.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestBuildLogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	r := Default()
	r.Mesh.AllowBoundary = true
	a, err := Build(r, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(a.Warnings) != 1 || !strings.Contains(buf.String(), CodeMeshBoundaryUnused) {
		t.Errorf("warnings %v, log %q", a.Warnings, buf.String())
	}
}

func TestStopPolicySelection(t *testing.T) {
	r := Default()
	r.Stop = StopSpec{MaxEdges: 10, Threshold: Threshold(0.5)}
	p := stopPolicy(r)
	if !p.Stop(0.1, 5) || !p.Stop(0.9, 11) || p.Stop(0.9, 5) {
		t.Error("combined policy should stop on either limit")
	}

	r.Stop = StopSpec{}
	r.MaxSplits = 3
	if p := stopPolicy(r); p.Stop(1e9, 1<<30) {
		t.Error("split-ceiling-only recipe should never stop on its own")
	}
}
