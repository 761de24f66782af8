package model

import (
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// Space selects which embedding space a similarity operation runs against.
type Space string

const (
	SpaceSemantic  Space = "semantic"
	SpaceEmotional Space = "emotional"
	SpaceBoth      Space = "both"
)

// Validate checks if the space is valid
func (s Space) Validate() error {
	switch s {
	case SpaceSemantic, SpaceEmotional, SpaceBoth:
		return nil
	default:
		return ErrInvalidSpace
	}
}

// Marginalia holds supplementary annotations attached to a memory by the
// extraction helper. Every field is optional; retrieval never requires it.
type Marginalia struct {
	Entities   []string  `firestore:"entities" json:"entities"`
	Keywords   []string  `firestore:"keywords" json:"keywords"`
	Importance float64   `firestore:"importance" json:"importance"`
	Summary    string    `firestore:"summary" json:"summary"`
	AnalyzedAt time.Time `firestore:"analyzed_at" json:"analyzed_at"`
}

// IsZero reports whether no annotation has been recorded.
func (m Marginalia) IsZero() bool {
	return len(m.Entities) == 0 && len(m.Keywords) == 0 &&
		m.Importance == 0 && m.Summary == "" && m.AnalyzedAt.IsZero()
}

// HasEntity reports whether the marginalia entity list contains the given
// canonical name.
func (m Marginalia) HasEntity(canonical string) bool {
	for _, e := range m.Entities {
		if e == canonical {
			return true
		}
	}
	return false
}

// HasKeyword reports whether the marginalia keyword list contains the given
// keyword, compared case-insensitively.
func (m Marginalia) HasKeyword(keyword string) bool {
	for _, k := range m.Keywords {
		if strings.EqualFold(k, keyword) {
			return true
		}
	}
	return false
}

// Memory is a single experiential record: prose content with dual embeddings
// and optional marginalia. It is immutable after creation except for
// marginalia backfill.
type Memory struct {
	ID        MemoryID  `firestore:"id"`
	Content   string    `firestore:"content"`
	CreatedAt time.Time `firestore:"created_at"`

	SemanticEmbedding  firestore.Vector32 `firestore:"semantic_embedding"`
	EmotionalEmbedding firestore.Vector32 `firestore:"emotional_embedding"`

	Marginalia Marginalia `firestore:"marginalia"`
}

// Embedding returns the vector for the given space, or nil if absent.
// SpaceBoth has no single vector; it returns nil.
func (m *Memory) Embedding(space Space) []float32 {
	switch space {
	case SpaceSemantic:
		return m.SemanticEmbedding
	case SpaceEmotional:
		return m.EmotionalEmbedding
	default:
		return nil
	}
}

// HasEmbedding reports whether the memory carries the embeddings required to
// participate in similarity operations for the given space.
func (m *Memory) HasEmbedding(space Space) bool {
	switch space {
	case SpaceSemantic:
		return len(m.SemanticEmbedding) > 0
	case SpaceEmotional:
		return len(m.EmotionalEmbedding) > 0
	case SpaceBoth:
		return len(m.SemanticEmbedding) > 0 && len(m.EmotionalEmbedding) > 0
	default:
		return false
	}
}

// Preview returns the first n runes of content for display.
func (m *Memory) Preview(n int) string {
	r := []rune(m.Content)
	if len(r) <= n {
		return m.Content
	}
	return string(r[:n]) + "..."
}
