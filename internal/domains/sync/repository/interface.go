package repository

import (
	"context"

	model "catalog-sync-backend/internal/domains/sync/model"
)

// Repository persists per-retailer-id sync state.
type Repository interface {
	// Ensure creates a pending row for retailerID if none exists yet.
	Ensure(ctx context.Context, productID int64, retailerID string) error

	GetByRetailerID(ctx context.Context, retailerID string) (*model.SyncStatus, error)

	// MarkSynced stamps a successful reconciliation with the availability
	// and inventory that were pushed.
	MarkSynced(ctx context.Context, retailerID, availability string, inventory *int) error
	// MarkError records a failed reconciliation; the next run retries it.
	MarkError(ctx context.Context, retailerID, message string) error
	// SetExistsRemotely flips the "known to the ad catalog" latch.
	SetExistsRemotely(ctx context.Context, retailerID string, exists bool) error
	// DeleteByRetailerID removes the row for ids whose backing row is not a
	// top-level product (variation deletions do not cascade).
	DeleteByRetailerID(ctx context.Context, retailerID string) error

	CountsByState(ctx context.Context) (*model.StateCounts, error)
}
