package main

import (
	"math"
	"os"
	"testing"
)

// TestE2EFanExample exercises the full pipeline: Lisp source -> engine ->
// recipe -> refinement -> tessellation. This is the same path the HTTP
// handler and the CLI take.
func TestE2EFanExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/fan.lisp")
	if err != nil {
		t.Fatalf("failed to read fan.lisp: %v", err)
	}

	result := app.Refine(string(source), FormatFor("examples/fan.lisp"))

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}

	m := result.Meshes[0]
	if m.Name != "refined" {
		t.Errorf("expected mesh name 'refined', got %q", m.Name)
	}
	if len(m.Vertices) == 0 || len(m.Normals) != len(m.Vertices) || len(m.Indices) == 0 {
		t.Errorf("malformed mesh: %d vertices, %d normals, %d indices",
			len(m.Vertices), len(m.Normals), len(m.Indices))
	}
	if m.Color == "" {
		t.Error("mesh has no color assigned")
	}

	s := result.Stats
	if s == nil {
		t.Fatal("expected run stats")
	}
	if s.State != "converged" {
		t.Errorf("expected converged, got %s", s.State)
	}
	// An interior split adds 3 edges and a rim split 2, so the run stops
	// within 3 edges past the cap.
	if s.Edges <= 1000 || s.Edges > 1003 {
		t.Errorf("expected 1000 < edges <= 1003, got %d", s.Edges)
	}
	if len(m.Indices)/3 != s.Faces {
		t.Errorf("tessellated %d triangles for %d faces", len(m.Indices)/3, s.Faces)
	}
}

// TestE2ESphereExample runs the YAML ray-projection example.
func TestE2ESphereExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/sphere.yaml")
	if err != nil {
		t.Fatalf("failed to read sphere.yaml: %v", err)
	}

	result := app.Refine(string(source), FormatYAML)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	s := result.Stats
	if s.State != "converged" {
		t.Fatalf("expected converged, got %s", s.State)
	}
	if s.LastCost < 0.98 && s.Edges <= 2000 {
		t.Errorf("stopped early: worst ratio %g with %d edges", s.LastCost, s.Edges)
	}
	if s.MaxDeviation > 1e-4 {
		t.Errorf("vertices should lie on the sphere, max deviation %g", s.MaxDeviation)
	}
	if s.Name != "sphere" {
		t.Errorf("expected name 'sphere', got %q", s.Name)
	}
	if full := 4 * math.Pi; s.Area < 0.9*full || s.Area > 1.001*full {
		t.Errorf("area %g should approach the sphere's %g", s.Area, full)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(s.BoundsMin[i]+1) > 1e-4 || math.Abs(s.BoundsMax[i]-1) > 1e-4 {
			t.Errorf("bounds %v..%v, want the unit cube", s.BoundsMin, s.BoundsMax)
			break
		}
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Refine("", FormatAuto)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if result.Stats != nil {
		t.Error("expected no stats for empty source")
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Refine("(mesh :shape :octahedron", FormatAuto)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2EMinimalRecipe ensures a short script refines a closed mesh.
func TestE2EMinimalRecipe(t *testing.T) {
	app := NewApp()
	source := `(mesh :shape :octahedron :radius 0.5) (surface :kind :sphere :radius 1)
(project :mode :ray) (cost :kind :radial :reference 1) (stop :edges 30)`
	result := app.Refine(source, FormatAuto)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Stats.Edges <= 30 || result.Stats.Edges > 33 {
		t.Errorf("expected 30 < edges <= 33, got %d", result.Stats.Edges)
	}
	// Tessellation emits three vertices per face.
	if n := len(result.Meshes[0].Vertices) / 9; n != result.Stats.Faces {
		t.Errorf("expected %d faces in the buffer, got %d", result.Stats.Faces, n)
	}
}
