// Package recipe describes one refinement run: the starting mesh, the
// target surface, how points are projected onto it, how edges are scored,
// and when to stop. Recipes come from YAML documents or Lisp scripts and
// are validated before any component is assembled.
package recipe
