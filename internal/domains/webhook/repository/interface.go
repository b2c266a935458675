package repository

import (
	"context"

	model "catalog-sync-backend/internal/domains/webhook/model"
)

// Repository persists push-notification events.
type Repository interface {
	// Insert stores a freshly received event and fills in its id.
	Insert(ctx context.Context, e *model.Event) error
	MarkProcessed(ctx context.Context, id int64) error
	MarkError(ctx context.Context, id int64, message string) error
	Recent(ctx context.Context, limit int) ([]model.Event, error)
	Stats(ctx context.Context) (*model.Stats, error)
}
