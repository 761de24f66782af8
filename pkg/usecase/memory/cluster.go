package memory

import (
	"context"
	"time"

	"github.com/dormouselabs/dormouse/pkg/cluster"
	"github.com/dormouselabs/dormouse/pkg/interval"
	"github.com/dormouselabs/dormouse/pkg/model"
)

// ClustersInput selects the candidate pool and the algorithm. Interval is an
// optional expression restricting candidates by creation time.
type ClustersInput struct {
	Space     model.Space
	Method    cluster.Method
	Threshold float64
	K         int
	Interval  string
	Location  *time.Location
}

// Clusters groups embedded memories and ranks the groups by how interesting
// they are. An empty candidate pool yields an empty list, not an error.
func (uc *UseCase) Clusters(ctx context.Context, input *ClustersInput) ([]*model.ClusterCandidate, error) {
	if input.Space == "" {
		input.Space = model.SpaceSemantic
	}
	if input.Method == "" {
		input.Method = cluster.MethodDensity
	}

	memories, err := uc.repo.ListWithEmbeddings(ctx, input.Space)
	if err != nil {
		return nil, err
	}

	if input.Interval != "" {
		loc := input.Location
		if loc == nil {
			loc = time.UTC
		}
		window, err := interval.Resolve(input.Interval, loc, uc.now())
		if err != nil {
			return nil, err
		}

		filtered := memories[:0]
		for _, m := range memories {
			if window.Contains(m.CreatedAt) {
				filtered = append(filtered, m)
			}
		}
		memories = filtered
	}

	return uc.engine.Cluster(memories, input.Space, input.Method, cluster.Params{
		Threshold: input.Threshold,
		K:         input.K,
	})
}
