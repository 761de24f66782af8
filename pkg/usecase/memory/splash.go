package memory

import (
	"context"
	"sort"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/vector"
	"github.com/m-mizutani/goerr/v2"
)

// SplashOptions tunes resonance discovery. Zero values take the engine
// defaults. MinScore is a pointer so a caller can pass zero to request an
// all-inclusive splash; nil takes the default floor. ExcludeIDs removes
// memories from consideration, typically the memory the splash originates
// from.
type SplashOptions struct {
	Space           model.Space
	Count           int
	MinScore        *float64
	ContrastLow     float64
	ContrastHigh    float64
	IncludeContrast bool
	ExcludeIDs      []model.MemoryID
}

const defaultSplashCount = 5

// SplashResult holds the memories that resonate with the probe text and,
// optionally, those that sit far from it.
type SplashResult struct {
	Resonant    []*model.SearchResult
	Contrasting []*model.SearchResult
}

// Splash embeds the probe text and reports the most and least similar
// memories in the corpus.
func (uc *UseCase) Splash(ctx context.Context, text string, opts SplashOptions) (*SplashResult, error) {
	if text == "" {
		return nil, goerr.New("splash text is empty")
	}

	embedding, err := uc.embedder.Embed(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingUnavailable, "cannot splash without a probe embedding", goerr.V("cause", err.Error()))
	}

	return uc.splashFrom(ctx, embedding.Semantic, embedding.Emotional, opts)
}

func (uc *UseCase) splashFrom(ctx context.Context, semantic, emotional []float32, opts SplashOptions) (*SplashResult, error) {
	if opts.Space == "" {
		opts.Space = model.SpaceSemantic
	}
	if err := opts.Space.Validate(); err != nil {
		return nil, err
	}
	if opts.Count <= 0 {
		opts.Count = defaultSplashCount
	}
	minScore := uc.splashMinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}
	if opts.ContrastHigh == 0 {
		opts.ContrastLow = uc.splashContrastLow
		opts.ContrastHigh = uc.splashContrastHi
	}

	excluded := make(map[model.MemoryID]bool, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		excluded[id] = true
	}

	scored, err := uc.scoreCorpus(ctx, semantic, emotional, opts.Space, excluded)
	if err != nil {
		return nil, err
	}

	result := &SplashResult{}

	// Resonant: highest scores above the floor.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Memory.CreatedAt.After(scored[j].Memory.CreatedAt)
	})
	for _, r := range scored {
		if r.Score < minScore {
			break
		}
		result.Resonant = append(result.Resonant, r)
		if len(result.Resonant) >= opts.Count {
			break
		}
	}

	if opts.IncludeContrast {
		// Contrasting: lowest scores inside the band, most distant first.
		for i := len(scored) - 1; i >= 0; i-- {
			r := scored[i]
			if r.Score < opts.ContrastLow || r.Score >= opts.ContrastHigh {
				continue
			}
			result.Contrasting = append(result.Contrasting, r)
			if len(result.Contrasting) >= opts.Count {
				break
			}
		}
	}

	return result, nil
}

// scoreCorpus scores every embedded memory against the probe vectors. In
// the combined space only memories carrying both embeddings participate.
func (uc *UseCase) scoreCorpus(ctx context.Context, semantic, emotional []float32, space model.Space, excluded map[model.MemoryID]bool) ([]*model.SearchResult, error) {
	poolSpace := space
	if space == model.SpaceBoth {
		poolSpace = model.SpaceSemantic
	}

	memories, err := uc.repo.ListWithEmbeddings(ctx, poolSpace)
	if err != nil {
		return nil, err
	}

	var scored []*model.SearchResult
	for _, m := range memories {
		if excluded[m.ID] {
			continue
		}

		var score float64
		switch space {
		case model.SpaceSemantic:
			if len(semantic) == 0 {
				continue
			}
			score = vector.ClampScore(1 - vector.CosineDistance(semantic, m.SemanticEmbedding))
		case model.SpaceEmotional:
			if len(emotional) == 0 {
				continue
			}
			score = vector.ClampScore(1 - vector.CosineDistance(emotional, m.EmotionalEmbedding))
		case model.SpaceBoth:
			if len(semantic) == 0 || len(emotional) == 0 || !m.HasEmbedding(model.SpaceBoth) {
				continue
			}
			sem := vector.ClampScore(1 - vector.CosineDistance(semantic, m.SemanticEmbedding))
			emo := vector.ClampScore(1 - vector.CosineDistance(emotional, m.EmotionalEmbedding))
			total := uc.weights.Semantic + uc.weights.Emotional
			score = vector.ClampScore((uc.weights.Semantic*sem + uc.weights.Emotional*emo) / total)
		}

		scored = append(scored, &model.SearchResult{
			Memory: m,
			Score:  score,
			Walls:  []model.WallTag{model.WallSimilarity},
		})
	}
	return scored, nil
}
