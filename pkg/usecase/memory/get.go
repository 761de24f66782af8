package memory

import (
	"context"

	"github.com/dormouselabs/dormouse/pkg/model"
)

// Get fetches one memory by ID.
func (uc *UseCase) Get(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	return uc.repo.GetMemory(ctx, id)
}
