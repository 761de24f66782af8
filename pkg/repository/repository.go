// Package repository persists memories and serves the storage-side queries
// the retrieval walls depend on: key lookups, timestamp ranges, substring
// matching, and nearest-neighbor search per embedding space.
package repository

import (
	"context"

	"github.com/dormouselabs/dormouse/pkg/model"
)

// ListQuery filters and orders a chronological listing of memories.
type ListQuery struct {
	// Interval restricts results to memories created within the range.
	Interval *model.Interval
	// Entities admits only memories whose marginalia entity list contains
	// at least one of the given names.
	Entities []string
	// Keywords admits only memories whose marginalia keyword list contains
	// at least one of the given keywords.
	Keywords []string
	// MinImportance admits only memories whose marginalia importance is at
	// least this value. Zero admits everything.
	MinImportance float64
	// Order is asc or desc by creation time. OrderAuto is resolved by the
	// caller before it reaches the repository.
	Order model.Order

	Limit  int
	Offset int
}

// VectorHit is one nearest-neighbor result with its raw cosine distance.
type VectorHit struct {
	Memory   *model.Memory
	Distance float64
}

// Repository defines the interface for memory persistence and retrieval
type Repository interface {
	// PutMemory saves a memory. Marginalia may be backfilled by storing the
	// same id again; content and embeddings are immutable.
	PutMemory(ctx context.Context, memory *model.Memory) error

	// GetMemory retrieves a memory by ID
	GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error)

	// ListMemories retrieves memories chronologically with optional filters
	ListMemories(ctx context.Context, q *ListQuery) ([]*model.Memory, error)

	// SearchText performs a case-insensitive substring match against content
	SearchText(ctx context.Context, query string, interval *model.Interval, limit int) ([]*model.Memory, error)

	// SearchSimilar performs nearest-neighbor search in one embedding space.
	// Memories lacking the space's embedding are excluded, not errors.
	SearchSimilar(ctx context.Context, space model.Space, vector []float32, limit int) ([]*VectorHit, error)

	// ListWithEmbeddings returns every memory carrying an embedding in the
	// given space, for corpus-wide scans (splash, clustering pools).
	ListWithEmbeddings(ctx context.Context, space model.Space) ([]*model.Memory, error)
}
