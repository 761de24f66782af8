// Package wall implements the retrieval walls. Each wall is one admission
// strategy over the memory store: vector similarity, lexical substring and
// entity match. Walls run independently and their results are merged by the
// caller, so a failing wall degrades the search instead of failing it.
package wall

import (
	"context"

	"github.com/dormouselabs/dormouse/pkg/model"
)

// Query is the shared input to every wall. Vectors are optional: a wall that
// needs a vector it does not have returns no results.
type Query struct {
	Text      string
	Semantic  []float32
	Emotional []float32
	Space     model.Space
	Interval  *model.Interval
	Entities  []string // canonical names
	Limit     int
}

// Vector returns the query vector for a single space, or nil if absent.
func (q *Query) Vector(space model.Space) []float32 {
	switch space {
	case model.SpaceSemantic:
		return q.Semantic
	case model.SpaceEmotional:
		return q.Emotional
	default:
		return nil
	}
}

// Wall is one admission strategy. Search never returns partial results with
// an error: either the wall succeeds or the caller drops it.
type Wall interface {
	Name() model.WallTag
	Search(ctx context.Context, q *Query) ([]*model.SearchResult, error)
}
