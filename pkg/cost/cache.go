package cost

import (
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/project"
)

type entry struct {
	edge *mesh.Edge
	proj project.Projection
}

// Cache memoises midpoint projections by edge. Vertices never move, so an
// edge's projection stays valid until the edge is split.
type Cache struct {
	projector project.Projector
	entries   map[mesh.EdgeID]entry

	hits, misses int
	nonConverged int

	// OnNonConverged, when set, is called for each fresh projection whose
	// solver stopped short of its tolerance.
	OnNonConverged func(e *mesh.Edge, p project.Projection)
}

// NewCache wraps p.
func NewCache(p project.Projector) *Cache {
	return &Cache{projector: p, entries: make(map[mesh.EdgeID]entry)}
}

// Projector returns the wrapped projector.
func (c *Cache) Projector() project.Projector {
	return c.projector
}

// Project returns the projection of e's midpoint, computing it on first
// use.
func (c *Cache) Project(e *mesh.Edge) project.Projection {
	if en, ok := c.entries[e.ID]; ok && en.edge == e {
		c.hits++
		return en.proj
	}
	c.misses++
	p := c.projector.Project(e.Midpoint())
	if !p.Converged() {
		c.nonConverged++
		if c.OnNonConverged != nil {
			c.OnNonConverged(e, p)
		}
	}
	c.entries[e.ID] = entry{edge: e, proj: p}
	return p
}

// Forget drops the entry for id.
func (c *Cache) Forget(id mesh.EdgeID) {
	delete(c.entries, id)
}

// Len is the number of cached projections.
func (c *Cache) Len() int { return len(c.entries) }

// Stats reports cache hits, misses, and fresh projections that did not
// converge.
func (c *Cache) Stats() (hits, misses, nonConverged int) {
	return c.hits, c.misses, c.nonConverged
}
