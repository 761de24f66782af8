// Package nameindex maintains the bidirectional alias-to-canonical mapping
// used to normalize entity references. Resolution is a single-hop lookup:
// aliases never chain.
package nameindex

import (
	"context"
	"errors"
	"strings"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Entry maps one source name to its canonical form. Comparison is
// case-insensitive; Canonical preserves the stored casing of the target.
type Entry struct {
	Name      string `firestore:"name"`
	Canonical string `firestore:"canonical"`
}

// AliasStore persists alias entries. Keys are the lowercased source name.
// PutAll must apply all entries atomically: a failed call leaves the prior
// mapping fully intact, and no reader observes a partial application.
type AliasStore interface {
	Get(ctx context.Context, key string) (*Entry, error)
	ListByCanonical(ctx context.Context, canonicalKey string) ([]*Entry, error)
	PutAll(ctx context.Context, entries []*Entry) error
}

// Index resolves entity names to their canonical forms.
type Index struct {
	store AliasStore
}

// New creates an Index backed by the given store.
func New(store AliasStore) *Index {
	return &Index{store: store}
}

// Resolve returns the canonical name for the given name, or the name itself
// unchanged when no mapping exists. It never fails: store errors degrade to
// pass-through.
func (x *Index) Resolve(ctx context.Context, name string) string {
	entry, err := x.store.Get(ctx, key(name))
	if err != nil {
		if !errors.Is(err, model.ErrAliasNotFound) {
			logging.From(ctx).Debug("alias lookup failed", "name", name, "error", err)
		}
		return name
	}
	return entry.Canonical
}

// Aliases returns every source name mapping to the given canonical name,
// always including the canonical name itself.
func (x *Index) Aliases(ctx context.Context, canonical string) ([]string, error) {
	resolved := x.Resolve(ctx, canonical)
	entries, err := x.store.ListByCanonical(ctx, key(resolved))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list aliases", goerr.V("canonical", resolved))
	}

	names := make([]string, 0, len(entries)+1)
	seen := map[string]bool{}
	for _, e := range entries {
		if !seen[key(e.Name)] {
			seen[key(e.Name)] = true
			names = append(names, e.Name)
		}
	}
	if !seen[key(resolved)] {
		names = append(names, resolved)
	}
	return names, nil
}

// SetAlias creates or updates a one-hop mapping from name to canonical. The
// canonical name gains a self-mapping if it has none, so it survives later
// merges.
func (x *Index) SetAlias(ctx context.Context, name, canonical string) error {
	entries := []*Entry{{Name: name, Canonical: canonical}}
	if _, err := x.store.Get(ctx, key(canonical)); err != nil {
		entries = append(entries, &Entry{Name: canonical, Canonical: canonical})
	}

	if err := x.store.PutAll(ctx, entries); err != nil {
		return goerr.Wrap(err, "failed to set alias",
			goerr.V("name", name), goerr.V("canonical", canonical))
	}

	logging.From(ctx).Info("alias set", "name", name, "canonical", canonical)
	return nil
}

// Merge repoints every entry currently mapping to from so it maps to to, and
// adds from itself as an alias of to. The update is applied atomically: a
// concurrent Resolve sees either the pre-merge or the post-merge mapping,
// never a mix, and a failed merge leaves the pre-merge mapping intact.
func (x *Index) Merge(ctx context.Context, from, to string) error {
	entries, err := x.store.ListByCanonical(ctx, key(from))
	if err != nil {
		return goerr.Wrap(err, "failed to list entries for merge", goerr.V("from", from))
	}

	updated := make([]*Entry, 0, len(entries)+2)
	for _, e := range entries {
		updated = append(updated, &Entry{Name: e.Name, Canonical: to})
	}
	updated = append(updated, &Entry{Name: from, Canonical: to})
	if _, err := x.store.Get(ctx, key(to)); err != nil {
		updated = append(updated, &Entry{Name: to, Canonical: to})
	}

	if err := x.store.PutAll(ctx, updated); err != nil {
		return goerr.Wrap(err, "failed to merge aliases",
			goerr.V("from", from), goerr.V("to", to))
	}

	logging.From(ctx).Info("aliases merged",
		"from", from, "to", to, "repointed", len(entries))
	return nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
