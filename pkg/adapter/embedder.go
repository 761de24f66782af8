package adapter

import (
	"context"

	"github.com/dormouselabs/dormouse/pkg/model"
)

// Embedding carries the two vector representations of a memory. Semantic
// captures topical meaning, Emotional captures affective tone. The two live
// in separate spaces and are never concatenated.
type Embedding struct {
	Semantic  []float32
	Emotional []float32
}

// Embedder produces both embeddings for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) (*Embedding, error)
}

// Extractor derives marginalia (entities, keywords, importance, summary)
// from memory content.
type Extractor interface {
	Extract(ctx context.Context, text string) (*model.Marginalia, error)
}
