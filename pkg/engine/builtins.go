package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/recipe"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms recipe Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: max-splits -> max_splits
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Reserved heads: (stop ...) -> (stop_policy ...)
//     zygomys binds some names as compiler builtins ahead of any global,
//     so recipe forms sharing those names are renamed in call position.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Rename reserved heads: (stop -> (stop_policy.
		if b[i] == '(' {
			result = append(result, b[i])
			i++
			j := i
			for j < len(b) && (b[j] == ' ' || b[j] == '\t' || b[j] == '\n' || b[j] == '\r') {
				j++
			}
			k := j
			for k < len(b) && isIdentChar(b[k]) {
				k++
			}
			if to, ok := reservedHeads[string(b[j:k])]; ok && (k == len(b) || b[k] != '-') {
				result = append(result, b[i:j]...)
				result = append(result, to...)
				i = k
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

// reservedHeads maps recipe forms whose names zygomys reserves to the
// names they are registered under.
var reservedHeads = map[string]string{
	"stop": "stop_policy",
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel.Solid so CSG builtins can be nested.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return s.desc
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// unknown reports keywords outside allowed, so typos fail loudly.
func (a kwArgs) unknown(allowed ...string) error {
	for k := range a.kw {
		found := false
		for _, name := range allowed {
			if k == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown keyword :%s", k)
		}
	}
	return nil
}

// float reads an optional numeric keyword into dst.
func (a kwArgs) float(name string, dst *float64) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = f
	return nil
}

// int reads an optional integer keyword into dst.
func (a kwArgs) int(name string, dst *int) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// vec reads an optional vec3 keyword into dst.
func (a kwArgs) vec(name string, dst *recipe.Vec3) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	p, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = recipe.Vec3{p.X, p.Y, p.Z}
	return nil
}

// keyword reads an optional keyword-valued keyword into dst.
func (a kwArgs) keyword(name string, dst *string) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = s
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_ray) and plain strings ("ray").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool extracts a boolean; a keyword given without a value counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a kernel.Solid from a sexpSolid.
func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toInts converts a list of integers.
func toInts(s zygo.Sexp, n int) ([]int, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	if len(items) != n {
		return nil, fmt.Errorf("expected %d indices, got %d", n, len(items))
	}
	out := make([]int, n)
	for i, item := range items {
		if out[i], err = toInt(item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder accumulates the recipe while a script runs.
type builder struct {
	recipe *recipe.Recipe
	kernel kernel.Kernel
}

type builtin func(b *builder, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all recipe DSL builtins into a zygomys
// environment. Source code must be preprocessed with preprocessSource()
// before evaluation so that :keyword tokens are recognisable and
// kebab-case names match their underscore registrations.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	fns := map[string]builtin{
		"title":        titleBuiltin,
		"mesh":         meshBuiltin,
		"surface":      surfaceBuiltin,
		"vec3":         vec3Builtin,
		"sphere":       sphereBuiltin,
		"box":          boxBuiltin,
		"cylinder":     cylinderBuiltin,
		"union":        csgBuiltin("union"),
		"difference":   csgBuiltin("difference"),
		"intersection": csgBuiltin("intersection"),
		"translate":    translateBuiltin,
		"rotate":       rotateBuiltin,
		"target":       targetBuiltin,
		"project":      projectBuiltin,
		"cost":         costBuiltin,
		"stop_policy":  stopBuiltin,
		"max_splits":   maxSplitsBuiltin,
	}
	for name, fn := range fns {
		fn := fn
		display := strings.ReplaceAll(name, "_", "-")
		for from, to := range reservedHeads {
			if to == name {
				display = from
			}
		}
		env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
			out, err := fn(b, args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", display, err)
			}
			return out, nil
		})
	}
}

// (title "sphere from above")
func titleBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("requires exactly 1 argument, got %d", len(args))
	}
	s, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	b.recipe.Name = s
	return zygo.SexpNull, nil
}

// (mesh :shape :bipyramid :segments 6 :radius 1 :height 0.5)
// (mesh :shape :records :positions (list (vec3 ...) ...) :faces (list (list 0 1 2) ...))
func meshBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknown("shape", "segments", "radius", "height", "positions", "edges", "faces", "allow-boundary"); err != nil {
		return nil, err
	}
	var ms recipe.MeshSpec
	var shape string
	if err := pa.keyword("shape", &shape); err != nil {
		return nil, err
	}
	ms.Shape = recipe.Shape(shape)
	if ms.Shape == "" {
		ms.Shape = recipe.ShapeFan
	}
	if err := pa.int("segments", &ms.Segments); err != nil {
		return nil, err
	}
	if err := pa.float("radius", &ms.Radius); err != nil {
		return nil, err
	}
	if err := pa.float("height", &ms.Height); err != nil {
		return nil, err
	}
	if v, ok := pa.kw["allow-boundary"]; ok {
		f, err := toBool(v)
		if err != nil {
			return nil, fmt.Errorf("allow-boundary: %w", err)
		}
		ms.AllowBoundary = f
	}
	if _, ok := pa.kw["positions"]; ok {
		rec, err := records(pa)
		if err != nil {
			return nil, err
		}
		ms.Records = rec
	}
	b.recipe.Mesh = ms
	return zygo.SexpNull, nil
}

func records(pa kwArgs) (*recipe.Records, error) {
	rec := &recipe.Records{}
	items, err := sexpListToSlice(pa.kw["positions"])
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	for _, item := range items {
		p, err := toVec3(item)
		if err != nil {
			return nil, fmt.Errorf("positions: %w", err)
		}
		rec.Positions = append(rec.Positions, recipe.Vec3{p.X, p.Y, p.Z})
	}
	if items, err = sexpListToSlice(pa.kw["edges"]); err != nil {
		return nil, fmt.Errorf("edges: %w", err)
	}
	for _, item := range items {
		ix, err := toInts(item, 2)
		if err != nil {
			return nil, fmt.Errorf("edges: %w", err)
		}
		rec.Edges = append(rec.Edges, [2]int{ix[0], ix[1]})
	}
	if items, err = sexpListToSlice(pa.kw["faces"]); err != nil {
		return nil, fmt.Errorf("faces: %w", err)
	}
	for _, item := range items {
		ix, err := toInts(item, 3)
		if err != nil {
			return nil, fmt.Errorf("faces: %w", err)
		}
		rec.Faces = append(rec.Faces, [3]int{ix[0], ix[1], ix[2]})
	}
	return rec, nil
}

// (surface :kind :power-radial :exponent 5 :scale 1)
// (surface :kind :sphere :radius 1 :center (vec3 0 0 0))
func surfaceBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknown("kind", "exponent", "scale", "z", "radius", "center"); err != nil {
		return nil, err
	}
	var ss recipe.SurfaceSpec
	var kind string
	if err := pa.keyword("kind", &kind); err != nil {
		return nil, err
	}
	ss.Kind = recipe.SurfaceKind(kind)
	for name, dst := range map[string]*float64{
		"exponent": &ss.Exponent, "scale": &ss.Scale, "z": &ss.Z, "radius": &ss.Radius,
	} {
		if err := pa.float(name, dst); err != nil {
			return nil, err
		}
	}
	if err := pa.vec("center", &ss.Center); err != nil {
		return nil, err
	}
	b.recipe.Surface = ss
	return zygo.SexpNull, nil
}

// (vec3 1 2 3)
func vec3Builtin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("requires exactly 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%c: %w", "xyz"[i], err)
		}
		c[i] = f
	}
	return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
}

func floats(args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("requires exactly %d arguments, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, err
		}
		if f <= 0 {
			return nil, fmt.Errorf("dimension %g must be positive", f)
		}
		out[i] = f
	}
	return out, nil
}

// (sphere 1)
func sphereBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	f, err := floats(args, 1)
	if err != nil {
		return nil, err
	}
	return &sexpSolid{solid: b.kernel.Sphere(f[0]), desc: fmt.Sprintf("(sphere %g)", f[0])}, nil
}

// (box 1 2 3)
func boxBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	f, err := floats(args, 3)
	if err != nil {
		return nil, err
	}
	return &sexpSolid{solid: b.kernel.Box(f[0], f[1], f[2]), desc: fmt.Sprintf("(box %g %g %g)", f[0], f[1], f[2])}, nil
}

// (cylinder height radius)
func cylinderBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	f, err := floats(args, 2)
	if err != nil {
		return nil, err
	}
	return &sexpSolid{solid: b.kernel.Cylinder(f[0], f[1], 0), desc: fmt.Sprintf("(cylinder %g %g)", f[0], f[1])}, nil
}

// (union a b ...), (difference a b ...), (intersection a b ...)
func csgBuiltin(op string) builtin {
	return func(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("requires at least 2 solids, got %d", len(args))
		}
		acc, err := toSolid(args[0])
		if err != nil {
			return nil, err
		}
		solid, desc := acc.solid, acc.desc
		for _, a := range args[1:] {
			next, err := toSolid(a)
			if err != nil {
				return nil, err
			}
			switch op {
			case "union":
				solid = b.kernel.Union(solid, next.solid)
			case "difference":
				solid = b.kernel.Difference(solid, next.solid)
			default:
				solid = b.kernel.Intersection(solid, next.solid)
			}
			desc += " " + next.desc
		}
		return &sexpSolid{solid: solid, desc: "(" + op + " " + desc + ")"}, nil
	}
}

func transformArgs(args []zygo.Sexp) (*sexpSolid, v3.Vec, error) {
	if len(args) != 2 {
		return nil, v3.Vec{}, fmt.Errorf("requires a solid and a vec3")
	}
	s, err := toSolid(args[0])
	if err != nil {
		return nil, v3.Vec{}, err
	}
	v, err := toVec3(args[1])
	if err != nil {
		return nil, v3.Vec{}, err
	}
	return s, v, nil
}

// (translate solid (vec3 0 0 1))
func translateBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	s, v, err := transformArgs(args)
	if err != nil {
		return nil, err
	}
	return &sexpSolid{
		solid: b.kernel.Translate(s.solid, v.X, v.Y, v.Z),
		desc:  fmt.Sprintf("(translate %s (vec3 %g %g %g))", s.desc, v.X, v.Y, v.Z),
	}, nil
}

// (rotate solid (vec3 0 0 90)), Euler angles in degrees
func rotateBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	s, v, err := transformArgs(args)
	if err != nil {
		return nil, err
	}
	return &sexpSolid{
		solid: b.kernel.Rotate(s.solid, v.X, v.Y, v.Z),
		desc:  fmt.Sprintf("(rotate %s (vec3 %g %g %g))", s.desc, v.X, v.Y, v.Z),
	}, nil
}

// (target solid)
func targetBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("requires exactly 1 solid, got %d", len(args))
	}
	s, err := toSolid(args[0])
	if err != nil {
		return nil, err
	}
	b.recipe.Surface = recipe.SurfaceSpec{Kind: recipe.SurfaceSolid, Solid: s.solid}
	return s, nil
}

// (project :mode :ray :eye (vec3 0 0 1) :guess :origin :max-iterations 100)
func projectBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknown("mode", "eye", "guess", "tolerance", "max-iterations", "step", "timeout-ms"); err != nil {
		return nil, err
	}
	var ps recipe.ProjectionSpec
	var mode string
	if err := pa.keyword("mode", &mode); err != nil {
		return nil, err
	}
	ps.Mode = recipe.Mode(mode)
	if ps.Mode == "" {
		ps.Mode = recipe.ModeNearest
	}
	if err := pa.vec("eye", &ps.Eye); err != nil {
		return nil, err
	}
	if err := pa.keyword("guess", &ps.Guess); err != nil {
		return nil, err
	}
	if err := pa.float("tolerance", &ps.Tolerance); err != nil {
		return nil, err
	}
	if err := pa.int("max-iterations", &ps.MaxIterations); err != nil {
		return nil, err
	}
	if err := pa.float("step", &ps.Step); err != nil {
		return nil, err
	}
	var ms float64
	if err := pa.float("timeout-ms", &ms); err != nil {
		return nil, err
	}
	ps.Timeout = time.Duration(ms * float64(time.Millisecond))
	b.recipe.Projection = ps
	return zygo.SexpNull, nil
}

// (cost :kind :radial :reference 1)
func costBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknown("kind", "reference"); err != nil {
		return nil, err
	}
	var cs recipe.CostSpec
	var kind string
	if err := pa.keyword("kind", &kind); err != nil {
		return nil, err
	}
	cs.Kind = recipe.CostKind(kind)
	if err := pa.float("reference", &cs.Reference); err != nil {
		return nil, err
	}
	b.recipe.Cost = cs
	return zygo.SexpNull, nil
}

// (stop :edges 1000 :below 0.01) or (stop :above 0.98)
func stopBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknown("edges", "below", "above", "threshold"); err != nil {
		return nil, err
	}
	var ss recipe.StopSpec
	if err := pa.int("edges", &ss.MaxEdges); err != nil {
		return nil, err
	}
	n := 0
	for _, d := range []struct {
		kw  string
		dir recipe.Direction
	}{{"below", recipe.Below}, {"above", recipe.Above}, {"threshold", ""}} {
		if _, ok := pa.kw[d.kw]; !ok {
			continue
		}
		var t float64
		if err := pa.float(d.kw, &t); err != nil {
			return nil, err
		}
		ss.Threshold = recipe.Threshold(t)
		ss.Direction = d.dir
		n++
	}
	if n > 1 {
		return nil, fmt.Errorf("give only one of :below, :above and :threshold")
	}
	b.recipe.Stop = ss
	return zygo.SexpNull, nil
}

// (max-splits 500)
func maxSplitsBuiltin(b *builder, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("requires exactly 1 argument, got %d", len(args))
	}
	n, err := toInt(args[0])
	if err != nil {
		return nil, err
	}
	b.recipe.MaxSplits = n
	return zygo.SexpNull, nil
}
