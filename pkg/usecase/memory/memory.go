package memory

import (
	"io"
	"os"
	"time"

	"github.com/dormouselabs/dormouse/pkg/adapter"
	"github.com/dormouselabs/dormouse/pkg/cluster"
	"github.com/dormouselabs/dormouse/pkg/nameindex"
	"github.com/dormouselabs/dormouse/pkg/repository"
	"github.com/dormouselabs/dormouse/pkg/wall"
)

// UseCase provides memory-related operations
type UseCase struct {
	repo      repository.Repository
	embedder  adapter.Embedder
	extractor adapter.Extractor
	names     *nameindex.Index
	engine    *cluster.Engine
	weights   wall.Weights
	walls     []wall.Wall
	output    io.Writer
	now       func() time.Time

	splashMinScore    float64
	splashContrastLow float64
	splashContrastHi  float64
	lexicalHalfLife   time.Duration
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// WithWeights sets the space weights for combined similarity search.
func WithWeights(w wall.Weights) Option {
	return func(uc *UseCase) {
		uc.weights = w
	}
}

// WithSplashThresholds tunes splash admission: minScore is the resonance
// floor, the band [low, high) admits contrasting memories.
func WithSplashThresholds(minScore, low, high float64) Option {
	return func(uc *UseCase) {
		if minScore > 0 {
			uc.splashMinScore = minScore
		}
		if high > 0 {
			uc.splashContrastLow = low
			uc.splashContrastHi = high
		}
	}
}

// WithLexicalHalfLife enables recency ordering within the lexical wall.
func WithLexicalHalfLife(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.lexicalHalfLife = d
	}
}

// New creates a new memory UseCase instance
func New(
	repo repository.Repository,
	embedder adapter.Embedder,
	extractor adapter.Extractor,
	names *nameindex.Index,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:      repo,
		embedder:  embedder,
		extractor: extractor,
		names:     names,
		engine:    cluster.New(),
		weights:   wall.DefaultWeights,
		output:    os.Stdout,
		now:       time.Now,

		splashMinScore:    0.7,
		splashContrastLow: 0.0,
		splashContrastHi:  0.25,
	}

	for _, opt := range opts {
		opt(uc)
	}

	var lexicalOpts []wall.LexicalOption
	if uc.lexicalHalfLife > 0 {
		lexicalOpts = append(lexicalOpts, wall.WithRecencyHalfLife(uc.lexicalHalfLife))
	}
	uc.walls = []wall.Wall{
		wall.NewSimilarity(repo, wall.WithWeights(uc.weights)),
		wall.NewLexical(repo, lexicalOpts...),
		wall.NewEntity(repo),
	}

	return uc
}
