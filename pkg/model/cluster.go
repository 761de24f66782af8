package model

import "time"

// ClusterCandidate is a group of related memories discovered by the
// clustering engine. Candidates are computed fresh per invocation and never
// persisted. A candidate always has at least 2 members.
type ClusterCandidate struct {
	ID      int
	Members []*Memory

	// Centroid is the mean of member embeddings in the clustered space.
	Centroid []float32
	// Radius is the maximum cosine distance from centroid to any member.
	Radius float64
	// Dispersion is the standard deviation of member distances from the
	// centroid.
	Dispersion float64
	// Interestingness rewards larger, tighter, denser clusters.
	Interestingness float64

	Oldest time.Time
	Newest time.Time
}

// MemberIDs returns the ids of all member memories.
func (c *ClusterCandidate) MemberIDs() []MemoryID {
	ids := make([]MemoryID, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// TimeSpan returns the spread between the oldest and newest member.
func (c *ClusterCandidate) TimeSpan() time.Duration {
	return c.Newest.Sub(c.Oldest)
}
