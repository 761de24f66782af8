package model_test

import (
	"testing"
	"time"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestSearchResultAbsorb(t *testing.T) {
	m := &model.Memory{ID: model.NewMemoryID()}

	r := &model.SearchResult{Memory: m, Score: 0.6, Walls: []model.WallTag{model.WallSimilarity}}
	r.Absorb(&model.SearchResult{Memory: m, Score: 1.0, Walls: []model.WallTag{model.WallLexical}})

	// Max score wins, provenance is unioned without duplicates.
	gt.Equal(t, r.Score, 1.0)
	gt.A(t, r.Walls).Length(2)
	gt.True(t, r.HasWall(model.WallSimilarity))
	gt.True(t, r.HasWall(model.WallLexical))

	r.Absorb(&model.SearchResult{Memory: m, Score: 0.3, Walls: []model.WallTag{model.WallLexical}})
	gt.Equal(t, r.Score, 1.0)
	gt.A(t, r.Walls).Length(2)
}

func TestSpaceValidate(t *testing.T) {
	gt.NoError(t, model.SpaceSemantic.Validate())
	gt.NoError(t, model.SpaceEmotional.Validate())
	gt.NoError(t, model.SpaceBoth.Validate())
	gt.Error(t, model.Space("spatial").Validate())
}

func TestIntervalContains(t *testing.T) {
	iv := model.Interval{
		Start: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	gt.True(t, iv.Contains(iv.Start))
	gt.True(t, iv.Contains(iv.Start.Add(time.Hour)))
	// End is exclusive.
	gt.False(t, iv.Contains(iv.End))
	gt.False(t, iv.Contains(iv.Start.Add(-time.Second)))
}

func TestMemoryEmbeddings(t *testing.T) {
	m := &model.Memory{
		ID:                model.NewMemoryID(),
		SemanticEmbedding: []float32{1, 0},
	}

	gt.True(t, m.HasEmbedding(model.SpaceSemantic))
	gt.False(t, m.HasEmbedding(model.SpaceEmotional))
	gt.False(t, m.HasEmbedding(model.SpaceBoth))

	m.EmotionalEmbedding = []float32{0, 1}
	gt.True(t, m.HasEmbedding(model.SpaceBoth))
}

func TestMemoryPreview(t *testing.T) {
	m := &model.Memory{Content: "short"}
	gt.Equal(t, m.Preview(10), "short")

	m.Content = "a longer piece of content"
	gt.Equal(t, m.Preview(8), "a longer...")
}
