package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dormouselabs/dormouse/pkg/interval"
	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/repository"
	"github.com/dormouselabs/dormouse/pkg/utils/logging"
	"github.com/dormouselabs/dormouse/pkg/wall"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// SearchType selects which walls serve a search.
type SearchType string

const (
	// TypeBrowse lists memories chronologically with no query text.
	TypeBrowse SearchType = "browse"
	// TypeExact uses the lexical wall only.
	TypeExact SearchType = "exact"
	// TypeSemantic searches the semantic space.
	TypeSemantic SearchType = "semantic"
	// TypeEmotional searches the emotional space.
	TypeEmotional SearchType = "emotional"
	// TypeBoth combines both spaces with weighted scores.
	TypeBoth SearchType = "both"
)

func (t SearchType) Validate() error {
	switch t {
	case TypeBrowse, TypeExact, TypeSemantic, TypeEmotional, TypeBoth:
		return nil
	default:
		return goerr.New("unknown search type", goerr.V("type", t))
	}
}

// SearchInput is the full search request. Interval is an expression like
// "yesterday" or "P3D/"; empty means unbounded. Entities are resolved
// through the name index before matching.
type SearchInput struct {
	Query    string
	Type     SearchType
	Interval string
	Location *time.Location
	Entities []string
	// Keywords restricts results to memories annotated with at least one of
	// the given keywords.
	Keywords []string
	// MinImportance restricts results to memories whose extracted importance
	// is at least this value. Zero admits everything.
	MinImportance float64
	Order         model.Order
	Limit         int
	Offset        int
}

const defaultSearchLimit = 20

// Search runs the retrieval pipeline: resolve inputs, dispatch the enabled
// walls concurrently, merge with at most one result per memory, filter by
// interval and entities, rank and truncate. A failing wall degrades to no
// results instead of failing the whole search.
func (uc *UseCase) Search(ctx context.Context, input *SearchInput) ([]*model.SearchResult, error) {
	logger := logging.From(ctx)

	if input.Type == "" {
		if input.Query == "" {
			input.Type = TypeBrowse
		} else {
			input.Type = TypeBoth
		}
	}
	if err := input.Type.Validate(); err != nil {
		return nil, err
	}
	if input.Order == "" {
		input.Order = model.OrderAuto
	}
	if err := input.Order.Validate(); err != nil {
		return nil, err
	}
	if input.Limit <= 0 {
		input.Limit = defaultSearchLimit
	}

	var window *model.Interval
	if input.Interval != "" {
		loc := input.Location
		if loc == nil {
			loc = time.UTC
		}
		w, err := interval.Resolve(input.Interval, loc, uc.now())
		if err != nil {
			return nil, err
		}
		window = &w
	}

	entities := make([]string, 0, len(input.Entities))
	for _, name := range input.Entities {
		entities = append(entities, uc.names.Resolve(ctx, name))
	}

	if input.Type == TypeBrowse || input.Query == "" {
		return uc.browse(ctx, input, window, entities)
	}

	query := &wall.Query{
		Text:     input.Query,
		Space:    searchSpace(input.Type),
		Interval: window,
		Entities: entities,
		Limit:    input.Limit + input.Offset,
	}

	if input.Type != TypeExact {
		embedding, err := uc.embedder.Embed(ctx, input.Query)
		if err != nil {
			// Text walls still serve; only similarity goes dark.
			logger.Warn("query embedding failed, similarity wall disabled", "error", err)
		} else {
			query.Semantic = embedding.Semantic
			query.Emotional = embedding.Emotional
		}
	}

	merged := uc.dispatch(ctx, input.Type, query)

	results := make([]*model.SearchResult, 0, len(merged))
	for _, r := range merged {
		if window != nil && !window.Contains(r.Memory.CreatedAt) {
			continue
		}
		if len(entities) > 0 && !mentionsAny(r.Memory, entities) {
			continue
		}
		if len(input.Keywords) > 0 && !keywordAny(r.Memory, input.Keywords) {
			continue
		}
		if input.MinImportance > 0 && r.Memory.Marginalia.Importance < input.MinImportance {
			continue
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.CreatedAt.After(results[j].Memory.CreatedAt)
	})

	return truncate(results, input.Offset, input.Limit), nil
}

// dispatch runs the enabled walls concurrently and merges their results by
// memory ID. A wall error is logged and its results dropped.
func (uc *UseCase) dispatch(ctx context.Context, searchType SearchType, query *wall.Query) map[model.MemoryID]*model.SearchResult {
	logger := logging.From(ctx)

	var mu sync.Mutex
	merged := make(map[model.MemoryID]*model.SearchResult)

	eg, ctx := errgroup.WithContext(ctx)
	for _, w := range uc.walls {
		if searchType == TypeExact && w.Name() != model.WallLexical {
			continue
		}

		eg.Go(func() error {
			results, err := w.Search(ctx, query)
			if err != nil {
				logger.Warn("wall failed, degrading", "wall", w.Name(), "error", err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, r := range results {
				if existing, ok := merged[r.Memory.ID]; ok {
					existing.Absorb(r)
				} else {
					merged[r.Memory.ID] = r
				}
			}
			return nil
		})
	}
	_ = eg.Wait() // walls never return errors

	return merged
}

// browse lists chronologically, oldest first unless the caller asks for
// descending order.
func (uc *UseCase) browse(ctx context.Context, input *SearchInput, window *model.Interval, entities []string) ([]*model.SearchResult, error) {
	order := input.Order
	if order == model.OrderAuto {
		order = model.OrderAsc
	}

	memories, err := uc.repo.ListMemories(ctx, &repository.ListQuery{
		Interval:      window,
		Entities:      entities,
		Keywords:      input.Keywords,
		MinImportance: input.MinImportance,
		Order:         order,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*model.SearchResult, 0, len(memories))
	for _, m := range memories {
		results = append(results, &model.SearchResult{
			Memory: m,
			Score:  1.0,
			Walls:  []model.WallTag{model.WallBrowse},
		})
	}
	return results, nil
}

func searchSpace(t SearchType) model.Space {
	switch t {
	case TypeSemantic:
		return model.SpaceSemantic
	case TypeEmotional:
		return model.SpaceEmotional
	default:
		return model.SpaceBoth
	}
}

func mentionsAny(memory *model.Memory, canonical []string) bool {
	for _, name := range canonical {
		if memory.Marginalia.HasEntity(name) {
			return true
		}
	}
	return false
}

func keywordAny(memory *model.Memory, keywords []string) bool {
	for _, k := range keywords {
		if memory.Marginalia.HasKeyword(k) {
			return true
		}
	}
	return false
}

func truncate(results []*model.SearchResult, offset, limit int) []*model.SearchResult {
	if offset >= len(results) {
		return nil
	}
	results = results[offset:]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
