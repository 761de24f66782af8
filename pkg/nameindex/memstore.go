package nameindex

import (
	"context"
	"strings"
	"sync"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// memStore is an in-memory AliasStore. A single mutex covers every
// operation, so PutAll is trivially atomic with respect to readers.
type memStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemStore creates an empty in-memory alias store.
func NewMemStore() AliasStore {
	return &memStore{entries: map[string]*Entry{}}
}

func (s *memStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, goerr.Wrap(model.ErrAliasNotFound, "no entry", goerr.V("key", key))
	}
	return &Entry{Name: entry.Name, Canonical: entry.Canonical}, nil
}

func (s *memStore) ListByCanonical(ctx context.Context, canonicalKey string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Entry
	for _, entry := range s.entries {
		if strings.ToLower(entry.Canonical) == canonicalKey {
			out = append(out, &Entry{Name: entry.Name, Canonical: entry.Canonical})
		}
	}
	return out, nil
}

func (s *memStore) PutAll(ctx context.Context, entries []*Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if strings.TrimSpace(entry.Name) == "" || strings.TrimSpace(entry.Canonical) == "" {
			return goerr.New("empty alias entry", goerr.V("entry", entry))
		}
	}
	for _, entry := range entries {
		s.entries[strings.ToLower(strings.TrimSpace(entry.Name))] = &Entry{
			Name:      entry.Name,
			Canonical: entry.Canonical,
		}
	}
	return nil
}
