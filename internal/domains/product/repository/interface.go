package repository

import (
	"context"
	"errors"

	model "catalog-sync-backend/internal/domains/product/model"
)

var ErrNotFound = errors.New("product not found")

// Repository is the cache-side view of products and variations.
type Repository interface {
	// Upsert writes one product row, conflict-resolved by id.
	Upsert(ctx context.Context, p *model.Product) error
	// BulkUpsert writes many product rows in a single transaction.
	BulkUpsert(ctx context.Context, products []model.Product) error
	// UpsertVariations writes one parent's variation rows in a single
	// transaction, so readers never observe a half-written variation set.
	UpsertVariations(ctx context.Context, parentID int64, variations []model.Product) error
	// UpsertVariationSets writes several parents' variation sets in one
	// transaction; the bulk path uses it after each fetch group.
	UpsertVariationSets(ctx context.Context, sets map[int64][]model.Product) error

	Get(ctx context.Context, id int64) (*model.Product, error)
	GetVariation(ctx context.Context, id int64) (*model.Product, error)
	// GetAny looks in products first, then variations.
	GetAny(ctx context.Context, id int64) (*model.Product, error)

	// Delete removes a product row; sync-status and variation rows cascade.
	Delete(ctx context.Context, id int64) error
	// DeleteVariation removes a single variation row without touching the
	// parent product.
	DeleteVariation(ctx context.Context, id int64) error

	ListInStockByKind(ctx context.Context, kind model.ProductKind) ([]model.Product, error)
	ListVariationsByParent(ctx context.Context, parentID int64) ([]model.Product, error)

	Counters(ctx context.Context) (*model.Counters, error)
}
