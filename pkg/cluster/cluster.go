// Package cluster groups memories by embedding proximity and scores each
// group by how interesting it is: many tight members beat few scattered
// ones.
package cluster

import (
	"math"
	"sort"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/vector"
	"github.com/m-mizutani/goerr/v2"
)

// Method selects the clustering algorithm.
type Method string

const (
	// MethodDensity discovers a variable number of clusters from local
	// density, in the manner of HDBSCAN.
	MethodDensity Method = "density"
	// MethodDensityFixed uses a fixed neighborhood radius (DBSCAN).
	MethodDensityFixed Method = "density-fixed"
	// MethodAgglomerative merges pairs bottom-up with average linkage.
	MethodAgglomerative Method = "agglomerative"
	// MethodKMeans partitions into a fixed number of clusters.
	MethodKMeans Method = "kmeans"
)

func (m Method) Validate() error {
	switch m {
	case MethodDensity, MethodDensityFixed, MethodAgglomerative, MethodKMeans:
		return nil
	default:
		return goerr.Wrap(model.ErrUnknownClusterMethod, "unknown method", goerr.V("method", m))
	}
}

// Params tunes a clustering run. Threshold is a similarity cutoff in [0,1]:
// members closer than 1-Threshold in cosine distance count as neighbors. K
// only applies to kmeans; zero means max(2, sqrt(n)).
type Params struct {
	Threshold float64
	K         int
}

const defaultThreshold = 0.7

// minMembers is the floor for a reportable cluster. Singletons and noise
// are dropped.
const minMembers = 2

type Engine struct {
	memberExp     float64
	radiusExp     float64
	dispersionExp float64
}

type EngineOption func(*Engine)

// WithScoreExponents changes the weight of each interestingness component.
func WithScoreExponents(member, radius, dispersion float64) EngineOption {
	return func(e *Engine) {
		e.memberExp = member
		e.radiusExp = radius
		e.dispersionExp = dispersion
	}
}

func New(opts ...EngineOption) *Engine {
	e := &Engine{memberExp: 1, radiusExp: 1, dispersionExp: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cluster groups the given memories in the chosen embedding space. Memories
// without an embedding in that space are skipped. Results are sorted by
// interestingness, highest first.
func (e *Engine) Cluster(memories []*model.Memory, space model.Space, method Method, params Params) ([]*model.ClusterCandidate, error) {
	if err := method.Validate(); err != nil {
		return nil, err
	}
	if space != model.SpaceSemantic && space != model.SpaceEmotional {
		return nil, goerr.Wrap(model.ErrInvalidSpace, "clustering needs a single space", goerr.V("space", space))
	}
	if params.Threshold <= 0 || params.Threshold >= 1 {
		params.Threshold = defaultThreshold
	}

	points := buildPoints(memories, space)
	if len(points) < minMembers {
		return nil, nil
	}

	var groups [][]int
	switch method {
	case MethodDensity:
		groups = densityGroups(points, params.Threshold)
	case MethodDensityFixed:
		groups = densityFixedGroups(points, params.Threshold)
	case MethodAgglomerative:
		groups = agglomerativeGroups(points, params.Threshold)
	case MethodKMeans:
		groups = kmeansGroups(points, params.K)
	}

	candidates := make([]*model.ClusterCandidate, 0, len(groups))
	for _, group := range groups {
		if len(group) < minMembers {
			continue
		}
		candidates = append(candidates, e.describe(points, group))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Interestingness > candidates[j].Interestingness
	})
	for i, c := range candidates {
		c.ID = i + 1
	}
	return candidates, nil
}

// Score computes interestingness from the cluster summary statistics. Bigger
// and tighter clusters score higher.
func (e *Engine) Score(members int, radius, dispersion float64) float64 {
	return math.Pow(float64(members), e.memberExp) *
		math.Pow(1/(1+radius), e.radiusExp) *
		math.Pow(1/(1+dispersion), e.dispersionExp)
}

type point struct {
	memory *model.Memory
	vec    []float32 // unit length
}

func buildPoints(memories []*model.Memory, space model.Space) []point {
	points := make([]point, 0, len(memories))
	for _, memory := range memories {
		if !memory.HasEmbedding(space) {
			continue
		}
		points = append(points, point{
			memory: memory,
			vec:    vector.Normalize(memory.Embedding(space)),
		})
	}
	return points
}

func (e *Engine) describe(points []point, group []int) *model.ClusterCandidate {
	vecs := make([][]float32, len(group))
	members := make([]*model.Memory, len(group))
	for i, idx := range group {
		vecs[i] = points[idx].vec
		members[i] = points[idx].memory
	}

	centroid := vector.Normalize(vector.Mean(vecs))

	dists := make([]float64, len(group))
	var radius, sum float64
	for i, v := range vecs {
		d := vector.CosineDistance(v, centroid)
		dists[i] = d
		sum += d
		if d > radius {
			radius = d
		}
	}
	mean := sum / float64(len(dists))

	var variance float64
	for _, d := range dists {
		variance += (d - mean) * (d - mean)
	}
	dispersion := math.Sqrt(variance / float64(len(dists)))

	oldest, newest := members[0].CreatedAt, members[0].CreatedAt
	for _, m := range members[1:] {
		if m.CreatedAt.Before(oldest) {
			oldest = m.CreatedAt
		}
		if m.CreatedAt.After(newest) {
			newest = m.CreatedAt
		}
	}

	return &model.ClusterCandidate{
		Members:         members,
		Centroid:        centroid,
		Radius:          radius,
		Dispersion:      dispersion,
		Interestingness: e.Score(len(members), radius, dispersion),
		Oldest:          oldest,
		Newest:          newest,
	}
}
