package model

// WallTag identifies which retrieval wall produced a search result.
type WallTag string

const (
	WallSimilarity WallTag = "similarity"
	WallLexical    WallTag = "lexical"
	WallEntity     WallTag = "entity"
	WallBrowse     WallTag = "browse"
)

// Order controls chronological sorting of result sets.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
	OrderAuto Order = "auto"
)

// Validate checks if the order is valid
func (o Order) Validate() error {
	switch o {
	case OrderAsc, OrderDesc, OrderAuto:
		return nil
	default:
		return ErrInvalidOrder
	}
}

// SearchResult is one memory admitted by one or more walls. In a merged
// result list each underlying memory appears at most once: the highest wall
// score wins and Walls records every wall that matched.
type SearchResult struct {
	Memory *Memory
	Score  float64
	Walls  []WallTag
}

// HasWall reports whether the given wall contributed this result.
func (r *SearchResult) HasWall(tag WallTag) bool {
	for _, w := range r.Walls {
		if w == tag {
			return true
		}
	}
	return false
}

// Absorb merges another result for the same memory into this one: the maximum
// score wins and provenance tags are unioned.
func (r *SearchResult) Absorb(other *SearchResult) {
	if other.Score > r.Score {
		r.Score = other.Score
	}
	for _, w := range other.Walls {
		if !r.HasWall(w) {
			r.Walls = append(r.Walls, w)
		}
	}
}
