package service

import (
	"context"

	product "catalog-sync-backend/internal/domains/product/model"
	syncmodel "catalog-sync-backend/internal/domains/sync/model"
	"catalog-sync-backend/internal/infrastructure/adcatalog"
)

// Service is the replication engine: bulk and targeted reconciliation of
// the source store against the ad catalog.
type Service interface {
	// RunInitialSync walks the whole in-stock source catalog and reconciles
	// it against the remote state.
	RunInitialSync(ctx context.Context) (*syncmodel.Report, error)
	// SyncProduct reconciles a single product. parent may be nil; for a
	// variation it is fetched on demand. Variable products recurse into
	// their variations.
	SyncProduct(ctx context.Context, p *product.Product, parent *product.Product) error
	// PushOutOfStock issues one out-of-stock UPDATE for a retailer-id that
	// is known to exist remotely.
	PushOutOfStock(ctx context.Context, retailerID string) error
}

// SourceClient is the engine's view of the source store.
type SourceClient interface {
	FetchAllProducts(ctx context.Context, filters map[string]string) ([]product.Product, error)
	FetchVariations(ctx context.Context, parentID int64) ([]product.Product, error)
	FetchProduct(ctx context.Context, id int64) (*product.Product, error)
}

// CatalogClient is the engine's view of the ad catalog.
type CatalogClient interface {
	Enumerate(ctx context.Context, fields []string, limit int) (map[string]adcatalog.RemoteItem, error)
	LookupByRetailerID(ctx context.Context, retailerID string) (*adcatalog.RemoteItem, error)
	BatchUpsert(ctx context.Context, requests []adcatalog.BatchRequest) (*adcatalog.BatchResponse, error)
	UpdateStock(ctx context.Context, retailerID, availability string, inventory *int) (*adcatalog.BatchResponse, error)
}
