package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/kernel/sdfx"
	"github.com/chazu/facet/pkg/recipe"
	"github.com/chazu/facet/pkg/store"
	"github.com/gin-gonic/gin"
	"golang.org/x/term"
)

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

const helpBanner = `facet: adaptive surface refinement

Usage: facet [flags]
  Without -recipe the built-in fan recipe is refined.

`

var (
	recipePath = flag.String("recipe", "", "Recipe file (.lisp or .yaml), or - for stdin")
	format     = flag.String("format", "", "Recipe format when it cannot be told from the file name: lisp or yaml")
	out        = flag.String("out", "", "Write the refined mesh as binary STL to this file, or - for stdout")
	jsonOut    = flag.Bool("json", false, "Print the full result as JSON on stdout")
	dbPath     = flag.String("db", "", "Record runs in this SQLite database")
	history    = flag.Int("history", 0, "Print the last n recorded runs and exit (requires -db)")
	serve      = flag.String("serve", "", "Serve the HTTP API on this address instead of running once")
	timeout    = flag.Duration("timeout", 0, "Cap each refinement run (0 means no limit)")
	verbose    = flag.Bool("v", false, "Verbose logging")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, helpBanner)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(); err != nil {
		log.Fatalf("facet: %v", err)
	}
}

func run() error {
	var st *store.Store
	if *dbPath != "" {
		s, err := store.Open(*dbPath, *verbose)
		if err != nil {
			return err
		}
		defer s.Close()
		st = s
	}
	if *history > 0 {
		if st == nil {
			return errors.New("-history requires -db")
		}
		return printHistory(st, *history)
	}

	app := NewAppWithOptions(Options{Store: st, Verbose: *verbose, Timeout: *timeout})

	if *serve != "" {
		if !*verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		log.Printf("facet: listening on %s", *serve)
		return newRouter(app).Run(*serve)
	}

	if *out == pipeName && *jsonOut {
		return errors.New("-json and -out - both write to stdout")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var result RefineResult
	if *recipePath == "" {
		result = app.RefineRecipe(ctx, recipe.Default())
	} else {
		source, err := readSource(*recipePath)
		if err != nil {
			return err
		}
		f := Format(*format)
		if f == FormatAuto {
			f = FormatFor(*recipePath)
		}
		result = app.RefineContext(ctx, string(source), f)
	}

	for _, w := range result.Warnings {
		log.Printf("warning: %s", describe(w))
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else if result.Stats != nil {
		printStatus(result.Stats)
	}
	for _, e := range result.Errors {
		log.Printf("error: %s", describe(e))
	}
	if result.Refined == nil {
		return errors.New("no mesh produced")
	}

	if *out != "" {
		if err := writeSTL(*out, result.Refined); err != nil {
			return err
		}
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d error(s)", len(result.Errors))
	}
	return nil
}

// readSource reads a recipe file, or stdin when path is pipeName.
func readSource(path string) ([]byte, error) {
	if path != pipeName {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read the recipe: %w", err)
		}
		return data, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("`-` should be used with a pipe for stdin")
	}
	return io.ReadAll(os.Stdin)
}

// writeSTL saves m to path, or streams it to stdout when path is pipeName.
func writeSTL(path string, m *kernel.Mesh) error {
	if path != pipeName {
		return sdfx.SaveSTL(path, m)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("`-` should be used with a pipe for stdout")
	}
	tmp, err := os.CreateTemp("", "facet-*.stl")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	tmp.Close()
	if err := sdfx.SaveSTL(tmp.Name(), m); err != nil {
		return err
	}
	f, err := os.Open(tmp.Name())
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(os.Stdout, f)
	return err
}

func describe(e EvalErrorData) string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// printStatus reports the outcome of a run on stderr.
func printStatus(s *RunStats) {
	log.Printf("%s: %s after %d splits, %d edges, %d faces",
		s.Name, s.State, s.Splits, s.Edges, s.Faces)
	log.Printf("  last cost %.6g, deviation max %.3g mean %.3g, %d unconverged, %s",
		s.LastCost, s.MaxDeviation, s.MeanDeviation, s.NonConverged,
		time.Duration(s.DurationMs*float64(time.Millisecond)).Round(time.Microsecond))
	if s.ID != "" {
		log.Printf("  recorded as %s", s.ID)
	}
}

func printHistory(st *store.Store, n int) error {
	runs, err := st.Recent(n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %-12s %-10s splits=%d edges=%d cost=%.4g\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Name, r.State, r.Splits, r.Edges, r.LastCost)
	}
	return nil
}
