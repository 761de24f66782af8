package cluster

import (
	"math"

	"github.com/dormouselabs/dormouse/pkg/vector"
)

// densityGroups approximates HDBSCAN: cosine distances are replaced with
// mutual reachability distances (each lifted to at least the core distance
// of either endpoint), a minimum spanning tree is built over them, and edges
// wider than the cutoff are removed. The surviving components are the
// clusters.
func densityGroups(points []point, threshold float64) [][]int {
	n := len(points)
	eps := 1 - threshold

	dist := pairwise(points)
	core := coreDistances(dist, n)

	reach := func(i, j int) float64 {
		d := dist[i][j]
		if core[i] > d {
			d = core[i]
		}
		if core[j] > d {
			d = core[j]
		}
		return d
	}

	// Prim's MST over mutual reachability.
	inTree := make([]bool, n)
	best := make([]float64, n)
	parent := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
		parent[i] = -1
	}
	best[0] = 0

	type edge struct {
		a, b int
		w    float64
	}
	var edges []edge
	for range points {
		next, min := -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !inTree[i] && best[i] < min {
				next, min = i, best[i]
			}
		}
		inTree[next] = true
		if parent[next] >= 0 {
			edges = append(edges, edge{a: parent[next], b: next, w: best[next]})
		}
		for i := 0; i < n; i++ {
			if inTree[i] {
				continue
			}
			if w := reach(next, i); w < best[i] {
				best[i] = w
				parent[i] = next
			}
		}
	}

	uf := newUnionFind(n)
	for _, e := range edges {
		if e.w <= eps {
			uf.union(e.a, e.b)
		}
	}
	return uf.groups()
}

// densityFixedGroups is DBSCAN with minPts=2: points within eps of each
// other land in the same cluster.
func densityFixedGroups(points []point, threshold float64) [][]int {
	n := len(points)
	eps := 1 - threshold
	dist := pairwise(points)

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dist[i][j] <= eps {
				uf.union(i, j)
			}
		}
	}
	return uf.groups()
}

// agglomerativeGroups merges clusters bottom-up by average linkage until no
// pair of clusters is closer than the cutoff.
func agglomerativeGroups(points []point, threshold float64) [][]int {
	eps := 1 - threshold
	dist := pairwise(points)

	groups := make([][]int, len(points))
	for i := range points {
		groups[i] = []int{i}
	}

	avgLink := func(a, b []int) float64 {
		var sum float64
		for _, i := range a {
			for _, j := range b {
				sum += dist[i][j]
			}
		}
		return sum / float64(len(a)*len(b))
	}

	for len(groups) > 1 {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				if d := avgLink(groups[i], groups[j]); d < best {
					bi, bj, best = i, j, d
				}
			}
		}
		if best > eps {
			break
		}
		groups[bi] = append(groups[bi], groups[bj]...)
		groups = append(groups[:bj], groups[bj+1:]...)
	}
	return groups
}

// kmeansGroups runs Lloyd's algorithm with deterministic initialization:
// centroids seed from evenly spaced points, so repeated runs over the same
// corpus agree.
func kmeansGroups(points []point, k int) [][]int {
	n := len(points)
	if k <= 0 {
		k = int(math.Sqrt(float64(n)))
	}
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		centroids[i] = points[i*n/k].vec
	}

	assign := make([]int, n)
	const maxIterations = 50
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := vector.CosineDistance(p.vec, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		for c := 0; c < k; c++ {
			var vecs [][]float32
			for i, a := range assign {
				if a == c {
					vecs = append(vecs, points[i].vec)
				}
			}
			if len(vecs) > 0 {
				centroids[c] = vector.Normalize(vector.Mean(vecs))
			}
		}
	}

	byCluster := make(map[int][]int)
	for i, a := range assign {
		byCluster[a] = append(byCluster[a], i)
	}
	out := make([][]int, 0, len(byCluster))
	for c := 0; c < k; c++ {
		if members, ok := byCluster[c]; ok {
			out = append(out, members)
		}
	}
	return out
}

func pairwise(points []point) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := vector.CosineDistance(points[i].vec, points[j].vec)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// coreDistances returns the distance from each point to its nearest
// neighbor, the density estimate used for mutual reachability. The point
// itself counts toward the minimum cluster size, so one close neighbor is
// enough for a dense pair.
func coreDistances(dist [][]float64, n int) []float64 {
	core := make([]float64, n)
	for i := 0; i < n; i++ {
		nearest := math.Inf(1)
		for j := 0; j < n; j++ {
			if i != j && dist[i][j] < nearest {
				nearest = dist[i][j]
			}
		}
		core[i] = nearest
	}
	return core
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

func (u *unionFind) groups() [][]int {
	byRoot := make(map[int][]int)
	var roots []int
	for i := range u.parent {
		r := u.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	out := make([][]int, 0, len(roots))
	for _, r := range roots {
		out = append(out, byRoot[r])
	}
	return out
}
