package memory

import (
	"context"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// RememberInput is the payload for storing a new memory.
type RememberInput struct {
	Content string
}

// RememberOutput returns the stored memory and the splash analysis run
// against the rest of the corpus. Splash is nil when the analysis failed;
// the memory is stored regardless.
type RememberOutput struct {
	Memory *model.Memory
	Splash *SplashResult
}

// Remember embeds, annotates and persists a new memory, then reports which
// existing memories resonate with it. Embedding failure blocks the write:
// a memory without vectors would be invisible to similarity search forever.
// Marginalia extraction failure only degrades the annotation.
func (uc *UseCase) Remember(ctx context.Context, input *RememberInput) (*RememberOutput, error) {
	if input.Content == "" {
		return nil, goerr.New("memory content is empty")
	}

	logger := logging.From(ctx)

	embedding, err := uc.embedder.Embed(ctx, input.Content)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingUnavailable, "cannot store memory without embeddings", goerr.V("cause", err.Error()))
	}

	marginalia := uc.extractMarginalia(ctx, input.Content)

	memory := &model.Memory{
		ID:                 model.NewMemoryID(),
		Content:            input.Content,
		CreatedAt:          uc.now().UTC(),
		SemanticEmbedding:  embedding.Semantic,
		EmotionalEmbedding: embedding.Emotional,
		Marginalia:         marginalia,
	}

	if err := uc.repo.PutMemory(ctx, memory); err != nil {
		return nil, err
	}

	out := &RememberOutput{Memory: memory}

	splash, err := uc.splashFrom(ctx, embedding.Semantic, embedding.Emotional, SplashOptions{
		Space:           model.SpaceSemantic,
		IncludeContrast: true,
		ExcludeIDs:      []model.MemoryID{memory.ID},
	})
	if err != nil {
		logger.Warn("splash analysis failed after store", "error", err, "memory", memory.ID)
	} else {
		out.Splash = splash
	}

	return out, nil
}

// extractMarginalia never fails: if the extractor errors, the memory gets a
// minimal annotation with a content-prefix summary.
func (uc *UseCase) extractMarginalia(ctx context.Context, content string) model.Marginalia {
	marginalia, err := uc.extractor.Extract(ctx, content)
	if err != nil {
		logging.From(ctx).Warn("marginalia extraction failed, storing with minimal annotation", "error", err)
		return model.Marginalia{
			Summary:    summaryPrefix(content),
			AnalyzedAt: uc.now().UTC(),
		}
	}

	canonical := make([]string, 0, len(marginalia.Entities))
	for _, entity := range marginalia.Entities {
		canonical = append(canonical, uc.names.Resolve(ctx, entity))
	}
	marginalia.Entities = canonical
	return *marginalia
}

const summaryPrefixLen = 120

func summaryPrefix(content string) string {
	r := []rune(content)
	if len(r) <= summaryPrefixLen {
		return content
	}
	return string(r[:summaryPrefixLen]) + "..."
}
