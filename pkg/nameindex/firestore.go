package nameindex

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

const aliasCollection = "name_index"

type firestoreEntry struct {
	Name         string `firestore:"name"`
	Canonical    string `firestore:"canonical"`
	CanonicalKey string `firestore:"canonical_key"`
}

// firestoreStore is a Firestore-backed AliasStore. PutAll runs inside a
// single transaction, which supplies the all-or-nothing merge semantics.
type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates an alias store on the given Firestore client.
func NewFirestoreStore(client *firestore.Client) AliasStore {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) Get(ctx context.Context, key string) (*Entry, error) {
	doc, err := s.client.Collection(aliasCollection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrAliasNotFound, "no entry", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to get alias entry", goerr.V("key", key))
	}

	var fe firestoreEntry
	if err := doc.DataTo(&fe); err != nil {
		return nil, goerr.Wrap(err, "failed to decode alias entry", goerr.V("key", key))
	}
	return &Entry{Name: fe.Name, Canonical: fe.Canonical}, nil
}

func (s *firestoreStore) ListByCanonical(ctx context.Context, canonicalKey string) ([]*Entry, error) {
	iter := s.client.Collection(aliasCollection).
		Where("canonical_key", "==", canonicalKey).
		Documents(ctx)
	defer iter.Stop()

	var out []*Entry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate alias entries", goerr.V("canonical_key", canonicalKey))
		}

		var fe firestoreEntry
		if err := doc.DataTo(&fe); err != nil {
			return nil, goerr.Wrap(err, "failed to decode alias entry")
		}
		out = append(out, &Entry{Name: fe.Name, Canonical: fe.Canonical})
	}
	return out, nil
}

func (s *firestoreStore) PutAll(ctx context.Context, entries []*Entry) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, entry := range entries {
			key := strings.ToLower(strings.TrimSpace(entry.Name))
			ref := s.client.Collection(aliasCollection).Doc(key)
			fe := firestoreEntry{
				Name:         entry.Name,
				Canonical:    entry.Canonical,
				CanonicalKey: strings.ToLower(entry.Canonical),
			}
			if err := tx.Set(ref, fe); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "alias transaction failed", goerr.V("count", len(entries)))
	}
	return nil
}
