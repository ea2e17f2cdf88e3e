package mesh

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvariant matches every InvariantError via errors.Is.
var ErrInvariant = errors.New("mesh invariant violated")

// Invariant codes reported by InvariantError.
const (
	CodeEdgeNotLive      = "EDGE_NOT_LIVE"
	CodeEdgeFaceCount    = "EDGE_FACE_COUNT"
	CodeDegenerateEdge   = "DEGENERATE_EDGE"
	CodeFaceNotClosed    = "FACE_NOT_CLOSED"
	CodeFaceEdgeMissing  = "FACE_EDGE_MISSING"
	CodeDegenerateSplit  = "DEGENERATE_SPLIT"
	CodeDanglingFaceLink = "DANGLING_FACE_LINK"
	CodeDuplicateFace    = "DUPLICATE_FACE"
)

// InvariantError reports a broken topological invariant together with
// the edge and vertices involved. It is a defect, not a recoverable
// condition.
type InvariantError struct {
	Code      string
	EdgeID    EdgeID
	VertexIDs []VertexID
	Message   string
}

func (e *InvariantError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (edge: %d", e.Code, e.Message, e.EdgeID)
	if len(e.VertexIDs) > 0 {
		ids := make([]string, len(e.VertexIDs))
		for i, id := range e.VertexIDs {
			ids[i] = fmt.Sprint(int(id))
		}
		fmt.Fprintf(&b, ", vertices: %s", strings.Join(ids, ","))
	}
	b.WriteString(")")
	return b.String()
}

// Is makes errors.Is(err, ErrInvariant) true for any InvariantError.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}
