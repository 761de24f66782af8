package wall_test

import (
	"context"
	"testing"
	"time"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/repository"
	"github.com/dormouselabs/dormouse/pkg/wall"
	"github.com/m-mizutani/gt"
)

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func seedMemory(t *testing.T, repo repository.Repository, content string, at time.Time, sem, emo []float32) *model.Memory {
	t.Helper()
	m := &model.Memory{
		ID:                 model.NewMemoryID(),
		Content:            content,
		CreatedAt:          at,
		SemanticEmbedding:  sem,
		EmotionalEmbedding: emo,
	}
	gt.NoError(t, repo.PutMemory(context.Background(), m))
	return m
}

func TestSimilarityScoresMonotone(t *testing.T) {
	repo, err := repository.NewMemstore()
	gt.NoError(t, err)
	ctx := context.Background()

	seedMemory(t, repo, "exact match", base, []float32{1, 0, 0}, nil)
	seedMemory(t, repo, "close", base, []float32{0.9, 0.1, 0}, nil)
	seedMemory(t, repo, "orthogonal", base, []float32{0, 1, 0}, nil)

	w := wall.NewSimilarity(repo)
	results, err := w.Search(ctx, &wall.Query{
		Semantic: []float32{1, 0, 0},
		Space:    model.SpaceSemantic,
		Limit:    10,
	})
	gt.NoError(t, err)
	gt.A(t, results).Length(3)

	for i := 1; i < len(results); i++ {
		gt.True(t, results[i-1].Score >= results[i].Score)
	}
	for _, r := range results {
		gt.True(t, r.Score >= 0 && r.Score <= 1)
		gt.True(t, r.HasWall(model.WallSimilarity))
	}
	gt.Equal(t, results[0].Memory.Content, "exact match")
}

func TestSimilarityMissingQueryVector(t *testing.T) {
	repo, err := repository.NewMemstore()
	gt.NoError(t, err)

	seedMemory(t, repo, "something", base, []float32{1, 0}, nil)

	// No vector for the requested space degrades to empty, not an error.
	w := wall.NewSimilarity(repo)
	results, err := w.Search(context.Background(), &wall.Query{
		Space: model.SpaceEmotional,
		Limit: 10,
	})
	gt.NoError(t, err)
	gt.A(t, results).Length(0)
}

func TestSimilarityBothSpaces(t *testing.T) {
	repo, err := repository.NewMemstore()
	gt.NoError(t, err)
	ctx := context.Background()

	// Strong semantic match, weak emotional match.
	lopsided := seedMemory(t, repo, "lopsided", base,
		[]float32{1, 0}, []float32{0, 1})
	// Decent match in both spaces.
	balanced := seedMemory(t, repo, "balanced", base.Add(time.Hour),
		[]float32{0.9, 0.1}, []float32{0.9, 0.1})
	// Missing the emotional embedding: excluded from the join.
	seedMemory(t, repo, "semantic only", base.Add(2*time.Hour),
		[]float32{1, 0}, nil)

	w := wall.NewSimilarity(repo)
	results, err := w.Search(ctx, &wall.Query{
		Semantic:  []float32{1, 0},
		Emotional: []float32{1, 0},
		Space:     model.SpaceBoth,
		Limit:     10,
	})
	gt.NoError(t, err)
	gt.A(t, results).Length(2)

	// With equal weights the balanced memory wins over the lopsided one.
	gt.Equal(t, results[0].Memory.ID, balanced.ID)
	gt.Equal(t, results[1].Memory.ID, lopsided.ID)
}

func TestSimilarityWeights(t *testing.T) {
	repo, err := repository.NewMemstore()
	gt.NoError(t, err)
	ctx := context.Background()

	semStrong := seedMemory(t, repo, "semantic strong", base,
		[]float32{1, 0}, []float32{0.5, 0.5})
	emoStrong := seedMemory(t, repo, "emotional strong", base.Add(time.Hour),
		[]float32{0.5, 0.5}, []float32{1, 0})

	query := &wall.Query{
		Semantic:  []float32{1, 0},
		Emotional: []float32{1, 0},
		Space:     model.SpaceBoth,
		Limit:     10,
	}

	// Weighting the semantic space promotes the semantic-strong memory.
	semHeavy := wall.NewSimilarity(repo, wall.WithWeights(wall.Weights{Semantic: 0.9, Emotional: 0.1}))
	results, err := semHeavy.Search(ctx, query)
	gt.NoError(t, err)
	gt.Equal(t, results[0].Memory.ID, semStrong.ID)

	emoHeavy := wall.NewSimilarity(repo, wall.WithWeights(wall.Weights{Semantic: 0.1, Emotional: 0.9}))
	results, err = emoHeavy.Search(ctx, query)
	gt.NoError(t, err)
	gt.Equal(t, results[0].Memory.ID, emoStrong.ID)
}

func TestSimilarityTieBreaksNewerFirst(t *testing.T) {
	repo, err := repository.NewMemstore()
	gt.NoError(t, err)

	older := seedMemory(t, repo, "older", base, []float32{1, 0}, nil)
	newer := seedMemory(t, repo, "newer", base.Add(time.Hour), []float32{1, 0}, nil)

	w := wall.NewSimilarity(repo)
	results, err := w.Search(context.Background(), &wall.Query{
		Semantic: []float32{1, 0},
		Space:    model.SpaceSemantic,
		Limit:    10,
	})
	gt.NoError(t, err)
	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].Memory.ID, newer.ID)
	gt.Equal(t, results[1].Memory.ID, older.ID)
}
