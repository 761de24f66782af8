package wall

import (
	"context"
	"sort"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/repository"
	"github.com/dormouselabs/dormouse/pkg/vector"
	"github.com/m-mizutani/goerr/v2"
)

// Weights controls how the two spaces combine when searching "both". The
// combined score is a weighted average of the per-space scores, never a
// score over concatenated vectors.
type Weights struct {
	Semantic  float64
	Emotional float64
}

// DefaultWeights weighs the spaces equally.
var DefaultWeights = Weights{Semantic: 0.5, Emotional: 0.5}

// Similarity admits memories by vector distance. Score is 1 minus cosine
// distance, clamped to [0,1].
type Similarity struct {
	repo    repository.Repository
	weights Weights
}

type SimilarityOption func(*Similarity)

func WithWeights(w Weights) SimilarityOption {
	return func(s *Similarity) {
		if w.Semantic+w.Emotional > 0 {
			s.weights = w
		}
	}
}

func NewSimilarity(repo repository.Repository, opts ...SimilarityOption) *Similarity {
	s := &Similarity{repo: repo, weights: DefaultWeights}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Similarity) Name() model.WallTag {
	return model.WallSimilarity
}

func (s *Similarity) Search(ctx context.Context, q *Query) ([]*model.SearchResult, error) {
	if err := q.Space.Validate(); err != nil {
		return nil, err
	}

	if q.Space == model.SpaceBoth {
		return s.searchBoth(ctx, q)
	}
	return s.searchSingle(ctx, q, q.Space)
}

func (s *Similarity) searchSingle(ctx context.Context, q *Query, space model.Space) ([]*model.SearchResult, error) {
	vec := q.Vector(space)
	if len(vec) == 0 {
		// No query vector for this space. Degrade to nothing rather
		// than erroring so the other walls still serve.
		return nil, nil
	}

	hits, err := s.repo.SearchSimilar(ctx, space, vec, q.Limit)
	if err != nil {
		return nil, goerr.Wrap(err, "similarity search failed", goerr.V("space", space))
	}

	results := make([]*model.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, &model.SearchResult{
			Memory: hit.Memory,
			Score:  vector.ClampScore(1 - hit.Distance),
			Walls:  []model.WallTag{model.WallSimilarity},
		})
	}
	sortResults(results)
	return results, nil
}

// searchBoth queries each space separately and joins by memory ID. Only
// memories found in both spaces survive; their scores are averaged with the
// configured weights.
func (s *Similarity) searchBoth(ctx context.Context, q *Query) ([]*model.SearchResult, error) {
	if len(q.Semantic) == 0 || len(q.Emotional) == 0 {
		return nil, nil
	}

	// Overfetch per space so the join still fills the limit.
	perSpace := q.Limit * 2
	if perSpace < q.Limit {
		perSpace = q.Limit
	}

	semHits, err := s.repo.SearchSimilar(ctx, model.SpaceSemantic, q.Semantic, perSpace)
	if err != nil {
		return nil, goerr.Wrap(err, "semantic side of combined search failed")
	}
	emoHits, err := s.repo.SearchSimilar(ctx, model.SpaceEmotional, q.Emotional, perSpace)
	if err != nil {
		return nil, goerr.Wrap(err, "emotional side of combined search failed")
	}

	emoScore := make(map[model.MemoryID]float64, len(emoHits))
	for _, hit := range emoHits {
		emoScore[hit.Memory.ID] = vector.ClampScore(1 - hit.Distance)
	}

	total := s.weights.Semantic + s.weights.Emotional
	var results []*model.SearchResult
	for _, hit := range semHits {
		emo, ok := emoScore[hit.Memory.ID]
		if !ok {
			continue
		}
		sem := vector.ClampScore(1 - hit.Distance)
		combined := (s.weights.Semantic*sem + s.weights.Emotional*emo) / total
		results = append(results, &model.SearchResult{
			Memory: hit.Memory,
			Score:  vector.ClampScore(combined),
			Walls:  []model.WallTag{model.WallSimilarity},
		})
	}

	sortResults(results)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// sortResults orders by score descending, ties broken newest first.
func sortResults(results []*model.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.CreatedAt.After(results[j].Memory.CreatedAt)
	})
}
