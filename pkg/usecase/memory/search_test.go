package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dormouselabs/dormouse/pkg/adapter"
	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/usecase/memory"
	"github.com/m-mizutani/gt"
)

func TestSearchDeduplicatesAcrossWalls(t *testing.T) {
	f := setup(t, &mockEmbedder{fallback: &adapter.Embedding{
		Semantic:  []float32{1, 0, 0},
		Emotional: []float32{1, 0},
	}}, nil)
	ctx := context.Background()

	// Matches the lexical wall (substring) and the similarity wall
	// (identical vector) at once.
	hit := f.seed(t, "retry logic rewrite", time.Hour, []float32{1, 0, 0}, []float32{1, 0})
	f.seed(t, "unrelated and distant", 2*time.Hour, []float32{0, 1, 0}, []float32{0, 1})

	results, err := f.uc.Search(ctx, &memory.SearchInput{
		Query: "retry logic",
		Type:  memory.TypeSemantic,
	})
	gt.NoError(t, err)

	// One entry for the double hit, with both walls recorded and the
	// higher score kept.
	count := 0
	for _, r := range results {
		if r.Memory.ID == hit.ID {
			count++
			gt.True(t, r.HasWall(model.WallLexical))
			gt.True(t, r.HasWall(model.WallSimilarity))
			gt.Equal(t, r.Score, 1.0)
		}
	}
	gt.Equal(t, count, 1)
}

func TestSearchDegradesWhenEmbedderDown(t *testing.T) {
	f := setup(t, &mockEmbedder{err: errUnavailable}, nil)
	ctx := context.Background()

	f.seed(t, "the cache invalidation fix", time.Hour, []float32{1, 0, 0}, nil)

	// Similarity is unavailable but the lexical wall still answers.
	results, err := f.uc.Search(ctx, &memory.SearchInput{
		Query: "cache invalidation",
		Type:  memory.TypeSemantic,
	})
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.True(t, results[0].HasWall(model.WallLexical))
	gt.False(t, results[0].HasWall(model.WallSimilarity))
}

func TestSearchExactUsesLexicalOnly(t *testing.T) {
	f := setup(t, nil, nil)
	ctx := context.Background()

	// Identical vector but no textual overlap: similarity would admit it,
	// exact must not.
	f.seed(t, "completely different words", time.Hour, []float32{1, 0, 0}, []float32{1, 0})
	match := f.seed(t, "exact phrase here", 2*time.Hour, []float32{0, 1, 0}, []float32{0, 1})

	results, err := f.uc.Search(ctx, &memory.SearchInput{
		Query: "exact phrase",
		Type:  memory.TypeExact,
	})
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].Memory.ID, match.ID)
}

func TestSearchIntervalAndEntityFilter(t *testing.T) {
	f := setup(t, nil, nil)
	ctx := context.Background()

	gt.NoError(t, f.names.SetAlias(ctx, "Jeff", "Jeffery Harrell"))

	inWindow := f.seed(t, "debugging the race with Jeff", 2*24*time.Hour,
		[]float32{1, 0, 0}, nil, "Jeffery Harrell")
	// Same entity but outside the window.
	f.seed(t, "debugging session from last month", 40*24*time.Hour,
		[]float32{1, 0, 0}, nil, "Jeffery Harrell")
	// In the window but wrong entity.
	f.seed(t, "debugging alone", 3*24*time.Hour, []float32{1, 0, 0}, nil)

	// The query names the alias; matching runs on the canonical form.
	results, err := f.uc.Search(ctx, &memory.SearchInput{
		Query:    "debugging",
		Type:     memory.TypeSemantic,
		Interval: "past 1 weeks",
		Entities: []string{"Jeff"},
	})
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].Memory.ID, inWindow.ID)
}

func TestSearchKeywordAndImportanceFilter(t *testing.T) {
	f := setup(t, nil, nil)
	ctx := context.Background()

	major := f.seed(t, "postmortem of the deploy outage", time.Hour,
		[]float32{1, 0, 0}, nil)
	major.Marginalia.Keywords = []string{"deploy", "outage"}
	major.Marginalia.Importance = 0.9
	gt.NoError(t, f.repo.PutMemory(ctx, major))

	minor := f.seed(t, "deploy note, nothing unusual", 2*time.Hour,
		[]float32{1, 0, 0}, nil)
	minor.Marginalia.Keywords = []string{"deploy"}
	minor.Marginalia.Importance = 0.1
	gt.NoError(t, f.repo.PutMemory(ctx, minor))

	t.Run("wall search respects both filters", func(t *testing.T) {
		results, err := f.uc.Search(ctx, &memory.SearchInput{
			Query:         "deploy",
			Type:          memory.TypeExact,
			Keywords:      []string{"outage"},
			MinImportance: 0.5,
		})
		gt.NoError(t, err)
		gt.A(t, results).Length(1)
		gt.Equal(t, results[0].Memory.ID, major.ID)
	})

	t.Run("browse respects both filters", func(t *testing.T) {
		results, err := f.uc.Search(ctx, &memory.SearchInput{
			Keywords:      []string{"Deploy"},
			MinImportance: 0.5,
		})
		gt.NoError(t, err)
		gt.A(t, results).Length(1)
		gt.Equal(t, results[0].Memory.ID, major.ID)
	})
}

func TestSearchBrowseOrdering(t *testing.T) {
	f := setup(t, nil, nil)
	ctx := context.Background()

	oldest := f.seed(t, "first", 3*time.Hour, []float32{1, 0}, nil)
	newest := f.seed(t, "last", time.Hour, []float32{0, 1}, nil)

	t.Run("default order is ascending", func(t *testing.T) {
		results, err := f.uc.Search(ctx, &memory.SearchInput{
			Interval: "today",
		})
		gt.NoError(t, err)
		gt.A(t, results).Length(2)
		gt.Equal(t, results[0].Memory.ID, oldest.ID)
		gt.Equal(t, results[1].Memory.ID, newest.ID)
		for _, r := range results {
			gt.True(t, r.HasWall(model.WallBrowse))
		}
	})

	t.Run("explicit descending order", func(t *testing.T) {
		results, err := f.uc.Search(ctx, &memory.SearchInput{
			Interval: "past 6 hours",
			Order:    model.OrderDesc,
		})
		gt.NoError(t, err)
		gt.A(t, results).Length(2)
		gt.Equal(t, results[0].Memory.ID, newest.ID)
	})

	t.Run("no query means browse regardless of type", func(t *testing.T) {
		results, err := f.uc.Search(ctx, &memory.SearchInput{})
		gt.NoError(t, err)
		gt.A(t, results).Length(2)
		gt.Equal(t, results[0].Memory.ID, oldest.ID)
	})
}

func TestSearchBadInterval(t *testing.T) {
	f := setup(t, nil, nil)

	_, err := f.uc.Search(context.Background(), &memory.SearchInput{
		Query:    "anything",
		Interval: "42",
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUnparseableInterval))
}

func TestSearchPagination(t *testing.T) {
	f := setup(t, nil, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.seed(t, "paginated entry", time.Duration(i+1)*time.Hour, nil, nil)
	}

	page1, err := f.uc.Search(ctx, &memory.SearchInput{
		Query: "paginated",
		Type:  memory.TypeExact,
		Limit: 2,
	})
	gt.NoError(t, err)
	gt.A(t, page1).Length(2)

	page2, err := f.uc.Search(ctx, &memory.SearchInput{
		Query:  "paginated",
		Type:   memory.TypeExact,
		Limit:  2,
		Offset: 4,
	})
	gt.NoError(t, err)
	gt.A(t, page2).Length(1)
}
