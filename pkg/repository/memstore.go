package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memstore is an embedded, in-process Repository. Chronological and key
// lookups run against a plain map; nearest-neighbor queries run against one
// chromem-go collection per embedding space. It backs tests and local mode.
type Memstore struct {
	mu       sync.RWMutex
	memories map[model.MemoryID]*model.Memory

	semantic  *chromem.Collection
	emotional *chromem.Collection
}

// NewMemstore creates an empty in-process repository.
func NewMemstore() (*Memstore, error) {
	db := chromem.NewDB()

	// Embeddings are always supplied by the caller, so no embedding func is
	// configured on either collection.
	semantic, err := db.CreateCollection("semantic", nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create semantic collection")
	}
	emotional, err := db.CreateCollection("emotional", nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create emotional collection")
	}

	return &Memstore{
		memories:  map[model.MemoryID]*model.Memory{},
		semantic:  semantic,
		emotional: emotional,
	}, nil
}

func (r *Memstore) PutMemory(ctx context.Context, memory *model.Memory) error {
	if memory.ID == "" {
		return goerr.New("memory id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *memory
	r.memories[memory.ID] = &stored

	if len(memory.SemanticEmbedding) > 0 {
		doc := chromem.Document{
			ID:        string(memory.ID),
			Content:   memory.Content,
			Embedding: memory.SemanticEmbedding,
		}
		if err := r.semantic.AddDocument(ctx, doc); err != nil {
			return goerr.Wrap(err, "failed to index semantic embedding", goerr.V("id", memory.ID))
		}
	}
	if len(memory.EmotionalEmbedding) > 0 {
		doc := chromem.Document{
			ID:        string(memory.ID),
			Content:   memory.Content,
			Embedding: memory.EmotionalEmbedding,
		}
		if err := r.emotional.AddDocument(ctx, doc); err != nil {
			return goerr.Wrap(err, "failed to index emotional embedding", goerr.V("id", memory.ID))
		}
	}

	return nil
}

func (r *Memstore) GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memory, ok := r.memories[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrMemoryNotFound, "no such memory", goerr.V("id", id))
	}
	copied := *memory
	return &copied, nil
}

func (r *Memstore) ListMemories(ctx context.Context, q *ListQuery) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Memory
	for _, memory := range r.memories {
		if !admits(memory, q) {
			continue
		}
		copied := *memory
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		if q.Order == model.OrderAsc {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return paginate(out, q.Offset, q.Limit), nil
}

func (r *Memstore) SearchText(ctx context.Context, query string, interval *model.Interval, limit int) ([]*model.Memory, error) {
	needle := strings.ToLower(query)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Memory
	for _, memory := range r.memories {
		if !admits(memory, &ListQuery{Interval: interval}) {
			continue
		}
		if !strings.Contains(strings.ToLower(memory.Content), needle) {
			continue
		}
		copied := *memory
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return paginate(out, 0, limit), nil
}

func (r *Memstore) SearchSimilar(ctx context.Context, space model.Space, vector []float32, limit int) ([]*VectorHit, error) {
	col, err := r.collection(space)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// chromem rejects nResults larger than the collection.
	n := limit
	if count := col.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "vector query failed", goerr.V("space", space))
	}

	hits := make([]*VectorHit, 0, len(results))
	for _, res := range results {
		memory, ok := r.memories[model.MemoryID(res.ID)]
		if !ok {
			continue
		}
		copied := *memory
		hits = append(hits, &VectorHit{
			Memory:   &copied,
			Distance: 1 - float64(res.Similarity),
		})
	}
	return hits, nil
}

func (r *Memstore) ListWithEmbeddings(ctx context.Context, space model.Space) ([]*model.Memory, error) {
	if err := space.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Memory
	for _, memory := range r.memories {
		if !memory.HasEmbedding(space) {
			continue
		}
		copied := *memory
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Memstore) collection(space model.Space) (*chromem.Collection, error) {
	switch space {
	case model.SpaceSemantic:
		return r.semantic, nil
	case model.SpaceEmotional:
		return r.emotional, nil
	default:
		return nil, goerr.Wrap(model.ErrInvalidSpace, "nearest-neighbor search needs a single space", goerr.V("space", space))
	}
}

func admits(memory *model.Memory, q *ListQuery) bool {
	if q.Interval != nil && !q.Interval.Contains(memory.CreatedAt) {
		return false
	}
	if len(q.Entities) > 0 {
		matched := false
		for _, e := range q.Entities {
			if memory.Marginalia.HasEntity(e) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(q.Keywords) > 0 {
		matched := false
		for _, k := range q.Keywords {
			if memory.Marginalia.HasKeyword(k) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if q.MinImportance > 0 && memory.Marginalia.Importance < q.MinImportance {
		return false
	}
	return true
}

func paginate(memories []*model.Memory, offset, limit int) []*model.Memory {
	if offset >= len(memories) {
		return nil
	}
	memories = memories[offset:]
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}
	return memories
}
