package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/facet/pkg/engine"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/kernel/sdfx"
	"github.com/chazu/facet/pkg/recipe"
	"github.com/chazu/facet/pkg/refine"
	"github.com/chazu/facet/pkg/store"
	"github.com/chazu/facet/pkg/tessellate"
)

// colorPalette assigns distinct colors to the meshes of one result.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
}

// Format names the language a recipe is written in.
type Format string

const (
	FormatAuto Format = ""
	FormatLisp Format = "lisp"
	FormatYAML Format = "yaml"
)

// FormatFor picks a format from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lisp", ".zy":
		return FormatLisp
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatAuto
}

// detect treats a source that opens with a list or a comment as Lisp.
func detect(source string) Format {
	s := strings.TrimSpace(source)
	if strings.HasPrefix(s, "(") || strings.HasPrefix(s, ";") {
		return FormatLisp
	}
	return FormatYAML
}

// App runs recipes end to end: source, recipe, refinement, meshes.
type App struct {
	engine  *engine.Engine
	kernel  kernel.Kernel
	store   *store.Store
	logger  *log.Logger
	verbose bool
	timeout time.Duration
}

// Options configures an App.
type Options struct {
	// Store, when set, receives one record per finished run.
	Store *store.Store
	// Logger defaults to log.Default().
	Logger *log.Logger
	// Verbose passes the logger down to the refinement engine.
	Verbose bool
	// Timeout caps one refinement run; zero means no limit.
	Timeout time.Duration
}

// NewApp creates an App with an engine and the sdfx kernel.
func NewApp() *App {
	return NewAppWithOptions(Options{})
}

// NewAppWithOptions creates an App configured by opts.
func NewAppWithOptions(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	k := sdfx.New()
	return &App{
		engine:  engine.NewEngineWithKernel(k),
		kernel:  k,
		store:   opts.Store,
		logger:  logger,
		verbose: opts.Verbose,
		timeout: opts.Timeout,
	}
}

// MeshData is the JSON-serializable mesh format sent to clients.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// RunStats summarises one refinement run.
type RunStats struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"name"`
	State         string     `json:"state"`
	Splits        int        `json:"splits"`
	Edges         int        `json:"edges"`
	Faces         int        `json:"faces"`
	LastCost      float64    `json:"lastCost"`
	NonConverged  int        `json:"nonConverged"`
	Capped        bool       `json:"capped"`
	MaxDeviation  float64    `json:"maxDeviation"`
	MeanDeviation float64    `json:"meanDeviation"`
	Area          float64    `json:"area"`
	BoundsMin     [3]float64 `json:"boundsMin"`
	BoundsMax     [3]float64 `json:"boundsMax"`
	DurationMs    float64    `json:"durationMs"`
}

// RefineResult is the full result returned to clients.
type RefineResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
	Stats    *RunStats       `json:"stats,omitempty"`

	// Refined is the refined surface, kept for export.
	Refined *kernel.Mesh `json:"-"`
}

func newResult() RefineResult {
	return RefineResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

func (r *RefineResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, EvalErrorData{Message: fmt.Sprintf(format, args...)})
}

// Refine takes recipe source and returns the refined mesh plus errors.
// An empty source yields an empty result.
func (a *App) Refine(source string, format Format) RefineResult {
	return a.RefineContext(context.Background(), source, format)
}

// RefineContext is Refine bounded by ctx.
func (a *App) RefineContext(ctx context.Context, source string, format Format) RefineResult {
	if strings.TrimSpace(source) == "" {
		return newResult()
	}
	if format == FormatAuto {
		format = detect(source)
	}

	var r *recipe.Recipe
	switch format {
	case FormatLisp:
		rec, evalErrs, err := a.engine.EvaluateContext(ctx, source)
		if err != nil {
			a.logger.Printf("Evaluate fatal error: %v", err)
			result := newResult()
			result.fail("%s", err.Error())
			return result
		}
		if len(evalErrs) > 0 {
			result := newResult()
			for _, e := range evalErrs {
				result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
			}
			return result
		}
		r = rec
	case FormatYAML:
		rec, err := recipe.Parse([]byte(source))
		if err != nil {
			result := newResult()
			result.fail("%s", err.Error())
			return result
		}
		r = rec
	default:
		result := newResult()
		result.fail("unknown recipe format %q", format)
		return result
	}
	return a.RefineRecipe(ctx, r)
}

// RefineRecipe validates, builds and runs r.
func (a *App) RefineRecipe(ctx context.Context, r *recipe.Recipe) RefineResult {
	result := newResult()

	// Step 1: Validate. Every blocking finding is reported, not just the first.
	v := recipe.Validate(r)
	for _, w := range v.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Code: w.Code, Message: w.Field + ": " + w.Message})
	}
	if !v.OK() {
		for _, e := range v.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Code: e.Code, Message: e.Field + ": " + e.Message})
		}
		return result
	}

	// Step 2: Assemble the components.
	var engineLog *log.Logger
	if a.verbose {
		engineLog = a.logger
	}
	asm, err := recipe.Build(r, engineLog)
	if err != nil {
		result.fail("%s", err.Error())
		return result
	}

	// Step 3: Refine.
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	start := time.Now()
	res := asm.Engine.Run(ctx)
	elapsed := time.Since(start)

	m := asm.Engine.Mesh()
	maxDev, meanDev := tessellate.Deviation(m, asm.Target)
	stats := &RunStats{
		Name:          r.Name,
		State:         res.State.String(),
		Splits:        res.Splits,
		Edges:         m.EdgeCount(),
		Faces:         m.FaceCount(),
		LastCost:      finite(res.LastCost),
		NonConverged:  res.NonConverged,
		Capped:        res.Capped,
		MaxDeviation:  finite(maxDev),
		MeanDeviation: finite(meanDev),
		Area:          finite(tessellate.Area(m)),
		DurationMs:    float64(elapsed) / float64(time.Millisecond),
	}
	low, high := m.Bounds()
	stats.BoundsMin = [3]float64{finite(low.X), finite(low.Y), finite(low.Z)}
	stats.BoundsMax = [3]float64{finite(high.X), finite(high.Y), finite(high.Z)}
	result.Stats = stats
	if res.Err != nil {
		a.logger.Printf("Refine error: %v", res.Err)
		result.fail("refinement %s: %v", res.State, res.Err)
	}
	if res.NonConverged > 0 {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Message: fmt.Sprintf("%d split positions came from unconverged projections", res.NonConverged),
		})
	}

	// Step 4: Tessellate the refined mesh, plus the marching-cubes mesh of
	// a solid target for comparison.
	refined := tessellate.Tessellate(m, "refined")
	result.Refined = refined
	result.Meshes = append(result.Meshes, meshData(refined, 0))
	if r.Surface.Kind == recipe.SurfaceSolid && r.Surface.Solid != nil {
		ref, err := a.kernel.ToMesh(r.Surface.Solid)
		if err != nil {
			result.Warnings = append(result.Warnings, EvalErrorData{Message: "reference mesh: " + err.Error()})
		} else {
			result.Meshes = append(result.Meshes, meshData(ref, 1))
		}
	}

	// Step 5: Record the run.
	if a.store != nil {
		a.record(r, res, stats, elapsed)
	}
	return result
}

func (a *App) record(r *recipe.Recipe, res refine.Result, stats *RunStats, elapsed time.Duration) {
	src, err := recipe.Marshal(r)
	if err != nil {
		a.logger.Printf("Record: marshal recipe: %v", err)
	}
	run := &store.Run{
		Name:         stats.Name,
		Recipe:       string(src),
		State:        stats.State,
		Splits:       stats.Splits,
		Edges:        stats.Edges,
		Faces:        stats.Faces,
		LastCost:     stats.LastCost,
		NonConverged: stats.NonConverged,
		Capped:       stats.Capped,
		MaxDeviation: stats.MaxDeviation,
		Duration:     elapsed,
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	if err := a.store.Record(run); err != nil {
		a.logger.Printf("Record: %v", err)
		return
	}
	stats.ID = run.ID
}

// finite clamps v for encoding/json, which rejects NaN and infinities.
func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

func meshData(m *kernel.Mesh, i int) MeshData {
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
		Name:     m.Name,
		Color:    colorPalette[i%len(colorPalette)],
	}
}
