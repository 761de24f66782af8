package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/usecase/memory"
	"github.com/m-mizutani/gt"
)

func TestRememberStoresMemory(t *testing.T) {
	f := setup(t, nil, &mockExtractor{
		marginalia: &model.Marginalia{
			Entities: []string{"Jeff"},
			Keywords: []string{"migration"},
			Summary:  "paired on the migration",
		},
	})
	ctx := context.Background()

	gt.NoError(t, f.names.SetAlias(ctx, "Jeff", "Jeffery Harrell"))

	out, err := f.uc.Remember(ctx, &memory.RememberInput{
		Content: "paired with Jeff on the database migration",
	})
	gt.NoError(t, err)
	gt.V(t, out.Memory).NotNil()
	gt.Equal(t, out.Memory.CreatedAt, now)
	gt.True(t, out.Memory.HasEmbedding(model.SpaceBoth))

	// Extracted entities are stored in canonical form.
	gt.A(t, out.Memory.Marginalia.Entities).Length(1)
	gt.Equal(t, out.Memory.Marginalia.Entities[0], "Jeffery Harrell")

	stored, err := f.uc.Get(ctx, out.Memory.ID)
	gt.NoError(t, err)
	gt.Equal(t, stored.Content, out.Memory.Content)
}

func TestRememberFailsClosedWithoutEmbeddings(t *testing.T) {
	f := setup(t, &mockEmbedder{err: errUnavailable}, nil)
	ctx := context.Background()

	_, err := f.uc.Remember(ctx, &memory.RememberInput{Content: "will not be stored"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrEmbeddingUnavailable))

	// Nothing was persisted.
	memories, err := f.repo.ListMemories(ctx, &listAll)
	gt.NoError(t, err)
	gt.A(t, memories).Length(0)
}

func TestRememberDegradesOnExtractionFailure(t *testing.T) {
	f := setup(t, nil, &mockExtractor{err: errUnavailable})
	ctx := context.Background()

	out, err := f.uc.Remember(ctx, &memory.RememberInput{
		Content: "the gateway fell over during the demo",
	})
	gt.NoError(t, err)

	// Storage succeeded with a minimal annotation.
	gt.Equal(t, out.Memory.Marginalia.Summary, "the gateway fell over during the demo")
	gt.A(t, out.Memory.Marginalia.Entities).Length(0)
}

func TestRememberSplashExcludesSelf(t *testing.T) {
	f := setup(t, nil, nil)
	ctx := context.Background()

	// An existing memory nearly identical to the new one.
	prior := f.seed(t, "previous deploy note", 0, []float32{1, 0, 0}, []float32{1, 0})

	out, err := f.uc.Remember(ctx, &memory.RememberInput{Content: "new deploy note"})
	gt.NoError(t, err)
	gt.V(t, out.Splash).NotNil()

	// The splash reports the prior memory, never the one just stored.
	gt.A(t, out.Splash.Resonant).Length(1)
	gt.Equal(t, out.Splash.Resonant[0].Memory.ID, prior.ID)
	for _, r := range out.Splash.Resonant {
		gt.True(t, r.Memory.ID != out.Memory.ID)
	}
}

func TestRememberEmptyContent(t *testing.T) {
	f := setup(t, nil, nil)
	_, err := f.uc.Remember(context.Background(), &memory.RememberInput{})
	gt.Error(t, err)
}
