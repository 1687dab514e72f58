package task

import (
	"context"

	"quote-service/internal/task"
)

// Repository is the journal of background task outcomes.
type Repository interface {
	Record(ctx context.Context, o task.Outcome) error
	GetByID(ctx context.Context, id string) (*task.Outcome, error)
	ListByDraftOrder(ctx context.Context, draftOrderID string, limit int) ([]task.Outcome, error)
}
