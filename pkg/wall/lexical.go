package wall

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

// Lexical admits memories whose content contains the query text as a
// substring. Admission is binary so every result scores 1.0. An optional
// recency half-life reorders results within the wall but never changes the
// score.
type Lexical struct {
	repo     repository.Repository
	halfLife time.Duration
	now      func() time.Time
}

type LexicalOption func(*Lexical)

// WithRecencyHalfLife enables recency ordering: a memory older by one
// half-life ranks below a fresh one, regardless of insertion order.
func WithRecencyHalfLife(d time.Duration) LexicalOption {
	return func(l *Lexical) {
		l.halfLife = d
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) LexicalOption {
	return func(l *Lexical) {
		l.now = now
	}
}

func NewLexical(repo repository.Repository, opts ...LexicalOption) *Lexical {
	l := &Lexical{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lexical) Name() model.WallTag {
	return model.WallLexical
}

func (l *Lexical) Search(ctx context.Context, q *Query) ([]*model.SearchResult, error) {
	if q.Text == "" {
		return nil, nil
	}

	memories, err := l.repo.SearchText(ctx, q.Text, q.Interval, q.Limit)
	if err != nil {
		return nil, goerr.Wrap(err, "lexical search failed", goerr.V("query", q.Text))
	}

	results := make([]*model.SearchResult, 0, len(memories))
	for _, memory := range memories {
		results = append(results, &model.SearchResult{
			Memory: memory,
			Score:  1.0,
			Walls:  []model.WallTag{model.WallLexical},
		})
	}

	if l.halfLife > 0 {
		now := l.now()
		sort.SliceStable(results, func(i, j int) bool {
			return l.recency(now, results[i].Memory) > l.recency(now, results[j].Memory)
		})
	}
	return results, nil
}

func (l *Lexical) recency(now time.Time, memory *model.Memory) float64 {
	age := now.Sub(memory.CreatedAt)
	if age < 0 {
		age = 0
	}
	return math.Exp2(-float64(age) / float64(l.halfLife))
}
