package repository

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const memoryCollection = "memories"

// textScanLimit caps how many recent documents a substring search will pull
// before filtering client-side. Firestore has no native substring operator.
const textScanLimit = 500

// Firestore implements Repository using Cloud Firestore. Nearest-neighbor
// queries use FindNearest on the embedding vector fields.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore repository for the given project and
// database.
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}
	return &Firestore{client: client}, nil
}

// Client exposes the underlying Firestore client so other stores (the name
// index) can share the connection.
func (r *Firestore) Client() *firestore.Client {
	return r.client
}

// Close releases the underlying client.
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutMemory(ctx context.Context, memory *model.Memory) error {
	if memory.ID == "" {
		return goerr.New("memory id is empty")
	}

	_, err := r.client.Collection(memoryCollection).Doc(string(memory.ID)).Set(ctx, memory)
	if err != nil {
		return goerr.Wrap(err, "failed to put memory", goerr.V("id", memory.ID))
	}
	return nil
}

func (r *Firestore) GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	doc, err := r.client.Collection(memoryCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrMemoryNotFound, "no such memory", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("id", id))
	}

	var memory model.Memory
	if err := doc.DataTo(&memory); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("id", id))
	}
	return &memory, nil
}

func (r *Firestore) ListMemories(ctx context.Context, q *ListQuery) ([]*model.Memory, error) {
	query := r.client.Collection(memoryCollection).Query

	if q.Interval != nil {
		query = query.
			Where("created_at", ">=", q.Interval.Start).
			Where("created_at", "<", q.Interval.End)
	}
	if len(q.Entities) > 0 {
		query = query.Where("marginalia.entities", "array-contains-any", q.Entities)
	}
	if q.MinImportance > 0 {
		query = query.Where("marginalia.importance", ">=", q.MinImportance)
	}

	dir := firestore.Desc
	if q.Order == model.OrderAsc {
		dir = firestore.Asc
	}
	query = query.OrderBy("created_at", dir)

	// Keyword matching is case-insensitive, and the query may already carry
	// an array-contains-any on entities (Firestore allows only one per
	// query), so keywords filter client-side. Offset and limit then have to
	// apply after that filter.
	if len(q.Keywords) == 0 {
		if q.Offset > 0 {
			query = query.Offset(q.Offset)
		}
		if q.Limit > 0 {
			query = query.Limit(q.Limit)
		}
		return r.collect(ctx, query.Documents(ctx))
	}

	candidates, err := r.collect(ctx, query.Documents(ctx))
	if err != nil {
		return nil, err
	}

	var out []*model.Memory
	for _, memory := range candidates {
		for _, k := range q.Keywords {
			if memory.Marginalia.HasKeyword(k) {
				out = append(out, memory)
				break
			}
		}
	}
	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *Firestore) SearchText(ctx context.Context, query string, interval *model.Interval, limit int) ([]*model.Memory, error) {
	fsq := r.client.Collection(memoryCollection).Query
	if interval != nil {
		fsq = fsq.
			Where("created_at", ">=", interval.Start).
			Where("created_at", "<", interval.End)
	}
	fsq = fsq.OrderBy("created_at", firestore.Desc).Limit(textScanLimit)

	candidates, err := r.collect(ctx, fsq.Documents(ctx))
	if err != nil {
		return nil, err
	}

	// Substring matching happens client-side over the recent window.
	needle := strings.ToLower(query)
	var out []*model.Memory
	for _, memory := range candidates {
		if strings.Contains(strings.ToLower(memory.Content), needle) {
			out = append(out, memory)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *Firestore) SearchSimilar(ctx context.Context, space model.Space, vector []float32, limit int) ([]*VectorHit, error) {
	var field string
	switch space {
	case model.SpaceSemantic:
		field = "semantic_embedding"
	case model.SpaceEmotional:
		field = "emotional_embedding"
	default:
		return nil, goerr.Wrap(model.ErrInvalidSpace, "nearest-neighbor search needs a single space", goerr.V("space", space))
	}

	vq := r.client.Collection(memoryCollection).Query.FindNearest(
		field,
		firestore.Vector32(vector),
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: "vector_distance"},
	)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	var hits []*VectorHit
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "vector query failed", goerr.V("space", space))
		}

		var memory model.Memory
		if err := doc.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory")
		}

		distance, _ := doc.Data()["vector_distance"].(float64)
		hits = append(hits, &VectorHit{Memory: &memory, Distance: distance})
	}
	return hits, nil
}

func (r *Firestore) ListWithEmbeddings(ctx context.Context, space model.Space) ([]*model.Memory, error) {
	if err := space.Validate(); err != nil {
		return nil, err
	}

	memories, err := r.collect(ctx, r.client.Collection(memoryCollection).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx))
	if err != nil {
		return nil, err
	}

	out := make([]*model.Memory, 0, len(memories))
	for _, memory := range memories {
		if memory.HasEmbedding(space) {
			out = append(out, memory)
		}
	}
	return out, nil
}

func (r *Firestore) collect(ctx context.Context, iter *firestore.DocumentIterator) ([]*model.Memory, error) {
	defer iter.Stop()

	var out []*model.Memory
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories")
		}

		var memory model.Memory
		if err := doc.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory")
		}
		out = append(out, &memory)
	}
	return out, nil
}
