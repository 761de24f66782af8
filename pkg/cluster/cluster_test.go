package cluster_test

import (
	"math"
	"testing"
	"time"

	"github.com/dormouselabs/dormouse/pkg/cluster"
	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/m-mizutani/gt"
)

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func embedded(content string, at time.Time, vec []float32) *model.Memory {
	return &model.Memory{
		ID:                model.NewMemoryID(),
		Content:           content,
		CreatedAt:         at,
		SemanticEmbedding: vec,
	}
}

// twoBlobs builds two well-separated groups plus one outlier.
func twoBlobs() []*model.Memory {
	return []*model.Memory{
		embedded("a1", base, []float32{1, 0.01, 0}),
		embedded("a2", base.Add(1*time.Hour), []float32{1, 0.02, 0}),
		embedded("a3", base.Add(2*time.Hour), []float32{1, 0.03, 0}),
		embedded("b1", base.Add(3*time.Hour), []float32{0, 1, 0.01}),
		embedded("b2", base.Add(4*time.Hour), []float32{0, 1, 0.02}),
		embedded("outlier", base.Add(5*time.Hour), []float32{0, 0, 1}),
	}
}

func TestClusterMethods(t *testing.T) {
	methods := []cluster.Method{
		cluster.MethodDensity,
		cluster.MethodDensityFixed,
		cluster.MethodAgglomerative,
	}

	for _, method := range methods {
		t.Run(string(method), func(t *testing.T) {
			engine := cluster.New()
			candidates, err := engine.Cluster(twoBlobs(), model.SpaceSemantic, method, cluster.Params{Threshold: 0.9})
			gt.NoError(t, err)
			gt.A(t, candidates).Length(2)

			// The outlier is noise, never a singleton cluster.
			for _, c := range candidates {
				gt.True(t, len(c.Members) >= 2)
				for _, m := range c.Members {
					gt.True(t, m.Content != "outlier")
				}
			}

			// Sorted by interestingness, and the bigger tight group wins.
			gt.True(t, candidates[0].Interestingness >= candidates[1].Interestingness)
			gt.A(t, candidates[0].Members).Length(3)
		})
	}
}

func TestClusterKMeans(t *testing.T) {
	engine := cluster.New()

	candidates, err := engine.Cluster(twoBlobs(), model.SpaceSemantic, cluster.MethodKMeans, cluster.Params{K: 3})
	gt.NoError(t, err)

	total := 0
	for _, c := range candidates {
		gt.True(t, len(c.Members) >= 2)
		total += len(c.Members)
	}
	gt.True(t, total <= 6)

	// Default k is max(2, sqrt(n)).
	candidates, err = engine.Cluster(twoBlobs(), model.SpaceSemantic, cluster.MethodKMeans, cluster.Params{})
	gt.NoError(t, err)
	gt.True(t, len(candidates) >= 1)
}

func TestClusterUnknownMethod(t *testing.T) {
	engine := cluster.New()
	_, err := engine.Cluster(twoBlobs(), model.SpaceSemantic, cluster.Method("voronoi"), cluster.Params{})
	gt.Error(t, err)
	gt.True(t, err != nil)
}

func TestClusterEmptyAndTinyInput(t *testing.T) {
	engine := cluster.New()

	candidates, err := engine.Cluster(nil, model.SpaceSemantic, cluster.MethodDensity, cluster.Params{})
	gt.NoError(t, err)
	gt.A(t, candidates).Length(0)

	// One memory can never form a cluster.
	one := []*model.Memory{embedded("solo", base, []float32{1, 0})}
	candidates, err = engine.Cluster(one, model.SpaceSemantic, cluster.MethodDensity, cluster.Params{})
	gt.NoError(t, err)
	gt.A(t, candidates).Length(0)
}

func TestClusterSkipsUnembedded(t *testing.T) {
	engine := cluster.New()
	memories := []*model.Memory{
		embedded("a", base, []float32{1, 0}),
		embedded("b", base.Add(time.Hour), []float32{1, 0.01}),
		{ID: model.NewMemoryID(), Content: "no vector", CreatedAt: base},
	}

	candidates, err := engine.Cluster(memories, model.SpaceSemantic, cluster.MethodDensityFixed, cluster.Params{Threshold: 0.9})
	gt.NoError(t, err)
	gt.A(t, candidates).Length(1)
	gt.A(t, candidates[0].Members).Length(2)
}

func TestClusterCandidateMetrics(t *testing.T) {
	engine := cluster.New()
	memories := []*model.Memory{
		embedded("a", base, []float32{1, 0.01, 0}),
		embedded("b", base.Add(time.Hour), []float32{1, 0.02, 0}),
	}

	candidates, err := engine.Cluster(memories, model.SpaceSemantic, cluster.MethodDensityFixed, cluster.Params{Threshold: 0.9})
	gt.NoError(t, err)
	gt.A(t, candidates).Length(1)

	c := candidates[0]
	gt.Equal(t, len(c.Centroid), 3)
	gt.True(t, c.Radius >= 0 && c.Radius < 0.01)
	gt.True(t, c.Dispersion >= 0)
	gt.Equal(t, c.Oldest, base)
	gt.Equal(t, c.Newest, base.Add(time.Hour))
	gt.True(t, c.Interestingness > 0)
}

func TestScoreMonotonicity(t *testing.T) {
	engine := cluster.New()

	// More members, same geometry: more interesting.
	gt.True(t, engine.Score(5, 0.1, 0.1) > engine.Score(3, 0.1, 0.1))
	// Wider radius: less interesting.
	gt.True(t, engine.Score(5, 0.3, 0.1) < engine.Score(5, 0.1, 0.1))
	// Higher dispersion: less interesting.
	gt.True(t, engine.Score(5, 0.1, 0.3) < engine.Score(5, 0.1, 0.1))

	// A perfectly tight cluster scores exactly its member count.
	if math.Abs(engine.Score(4, 0, 0)-4) > 1e-9 {
		t.Errorf("perfect cluster score = %v, want 4", engine.Score(4, 0, 0))
	}
}
