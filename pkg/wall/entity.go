package wall

import (
	"context"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

// Entity admits memories whose marginalia mention any of the queried
// canonical names. An entity match is an exact identity signal, so every
// admitted result scores the full 1.0.
type Entity struct {
	repo repository.Repository
}

func NewEntity(repo repository.Repository) *Entity {
	return &Entity{repo: repo}
}

func (e *Entity) Name() model.WallTag {
	return model.WallEntity
}

func (e *Entity) Search(ctx context.Context, q *Query) ([]*model.SearchResult, error) {
	if len(q.Entities) == 0 {
		return nil, nil
	}

	memories, err := e.repo.ListMemories(ctx, &repository.ListQuery{
		Interval: q.Interval,
		Entities: q.Entities,
		Order:    model.OrderDesc,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "entity search failed", goerr.V("entities", q.Entities))
	}

	results := make([]*model.SearchResult, 0, len(memories))
	for _, memory := range memories {
		results = append(results, &model.SearchResult{
			Memory: memory,
			Score:  1.0,
			Walls:  []model.WallTag{model.WallEntity},
		})
	}
	return results, nil
}
