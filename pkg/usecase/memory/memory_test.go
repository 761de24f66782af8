package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/dormouselabs/dormouse/pkg/adapter"
	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/nameindex"
	"github.com/dormouselabs/dormouse/pkg/repository"
	"github.com/dormouselabs/dormouse/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

var now = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

// mockEmbedder returns canned vectors per input text, or a fixed fallback.
type mockEmbedder struct {
	vectors  map[string]*adapter.Embedding
	fallback *adapter.Embedding
	err      error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (*adapter.Embedding, error) {
	if m.err != nil {
		return nil, m.err
	}
	if e, ok := m.vectors[text]; ok {
		return e, nil
	}
	if m.fallback != nil {
		return m.fallback, nil
	}
	return &adapter.Embedding{
		Semantic:  []float32{1, 0, 0},
		Emotional: []float32{1, 0},
	}, nil
}

type mockExtractor struct {
	marginalia *model.Marginalia
	err        error
}

func (m *mockExtractor) Extract(ctx context.Context, text string) (*model.Marginalia, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.marginalia != nil {
		out := *m.marginalia
		return &out, nil
	}
	return &model.Marginalia{}, nil
}

type fixture struct {
	uc    *memory.UseCase
	repo  *repository.Memstore
	names *nameindex.Index
}

func setup(t *testing.T, embedder adapter.Embedder, extractor adapter.Extractor, opts ...memory.Option) *fixture {
	t.Helper()

	repo, err := repository.NewMemstore()
	gt.NoError(t, err)
	names := nameindex.New(nameindex.NewMemStore())

	if embedder == nil {
		embedder = &mockEmbedder{}
	}
	if extractor == nil {
		extractor = &mockExtractor{}
	}

	opts = append([]memory.Option{
		memory.WithClock(func() time.Time { return now }),
	}, opts...)

	return &fixture{
		uc:    memory.New(repo, embedder, extractor, names, opts...),
		repo:  repo,
		names: names,
	}
}

func (f *fixture) seed(t *testing.T, content string, age time.Duration, sem, emo []float32, entities ...string) *model.Memory {
	t.Helper()
	m := &model.Memory{
		ID:                 model.NewMemoryID(),
		Content:            content,
		CreatedAt:          now.Add(-age),
		SemanticEmbedding:  sem,
		EmotionalEmbedding: emo,
		Marginalia:         model.Marginalia{Entities: entities},
	}
	gt.NoError(t, f.repo.PutMemory(context.Background(), m))
	return m
}

var errUnavailable = goerr.New("backend unavailable")

var listAll = repository.ListQuery{Order: model.OrderDesc}
