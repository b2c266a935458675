package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-sync-backend/internal/domains/catalog/mapper"
	product "catalog-sync-backend/internal/domains/product/model"
	productrepo "catalog-sync-backend/internal/domains/product/repository"
	syncmodel "catalog-sync-backend/internal/domains/sync/model"
	syncrepo "catalog-sync-backend/internal/domains/sync/repository"
	"catalog-sync-backend/internal/infrastructure/adcatalog"
	"catalog-sync-backend/internal/infrastructure/database"
)

func intp(v int) *int { return &v }

// =====================================================
// FAKES
// =====================================================

type fakeSource struct {
	products   []product.Product
	variations map[int64][]product.Product
	byID       map[int64]*product.Product
}

func (f *fakeSource) FetchAllProducts(ctx context.Context, filters map[string]string) ([]product.Product, error) {
	return f.products, nil
}

func (f *fakeSource) FetchVariations(ctx context.Context, parentID int64) ([]product.Product, error) {
	return f.variations[parentID], nil
}

func (f *fakeSource) FetchProduct(ctx context.Context, id int64) (*product.Product, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, productrepo.ErrNotFound
}

type stockCall struct {
	retailerID   string
	availability string
	inventory    *int
}

type fakeCatalog struct {
	remote     map[string]adcatalog.RemoteItem
	response   *adcatalog.BatchResponse
	batches    [][]adcatalog.BatchRequest
	stockCalls []stockCall
}

func (f *fakeCatalog) Enumerate(ctx context.Context, fields []string, limit int) (map[string]adcatalog.RemoteItem, error) {
	if f.remote == nil {
		return map[string]adcatalog.RemoteItem{}, nil
	}
	return f.remote, nil
}

func (f *fakeCatalog) LookupByRetailerID(ctx context.Context, retailerID string) (*adcatalog.RemoteItem, error) {
	if item, ok := f.remote[retailerID]; ok {
		return &item, nil
	}
	return nil, nil
}

func (f *fakeCatalog) BatchUpsert(ctx context.Context, requests []adcatalog.BatchRequest) (*adcatalog.BatchResponse, error) {
	f.batches = append(f.batches, requests)
	if f.response != nil {
		return f.response, nil
	}
	return &adcatalog.BatchResponse{Handles: []string{"h1"}}, nil
}

func (f *fakeCatalog) UpdateStock(ctx context.Context, retailerID, availability string, inventory *int) (*adcatalog.BatchResponse, error) {
	f.stockCalls = append(f.stockCalls, stockCall{retailerID, availability, inventory})
	if f.response != nil {
		return f.response, nil
	}
	return &adcatalog.BatchResponse{Handles: []string{"h1"}}, nil
}

func newEngineFixture(t *testing.T, source *fakeSource, catalog *fakeCatalog) (Service, productrepo.Repository, syncrepo.Repository) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	products := productrepo.NewSQLiteRepository(db)
	status := syncrepo.NewSQLiteRepository(db)
	svc := NewSyncService(source, catalog, products, status, mapper.Options{Brand: "Test Brand", CurrencySuffix: "BAM"})

	return svc, products, status
}

func bulkFixtureSource() *fakeSource {
	return &fakeSource{
		products: []product.Product{
			{ID: 42, Kind: product.KindSimple, Name: "Wool Scarf", RegularPrice: "10", StockStatus: product.StockInStock, StockQuantity: intp(7)},
			{ID: 11, Kind: product.KindSimple, Name: "Gone", RegularPrice: "3", StockStatus: product.StockOutOfStock},
			{ID: 100, Kind: product.KindVariable, Name: "Canvas Tote", Permalink: "https://shop.example/product/canvas-tote", RegularPrice: "12", StockStatus: product.StockInStock},
		},
		variations: map[int64][]product.Product{
			100: {
				{ID: 201, ParentID: 100, Kind: product.KindVariation, RegularPrice: "10", SalePrice: "8", StockStatus: product.StockInStock, StockQuantity: intp(3)},
				{ID: 202, ParentID: 100, Kind: product.KindVariation, RegularPrice: "10", StockStatus: product.StockOutOfStock},
			},
		},
	}
}

// =====================================================
// BULK PATH
// =====================================================

func TestRunInitialSyncStagesOnlyReplicableItems(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, products, status := newEngineFixture(t, bulkFixtureSource(), catalog)

	report, err := svc.RunInitialSync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalProducts)
	assert.Equal(t, 2, report.InStock)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Errors)

	require.Len(t, catalog.batches, 1)
	batch := catalog.batches[0]
	require.Len(t, batch, 2)

	ids := []string{batch[0].RetailerID, batch[1].RetailerID}
	assert.ElementsMatch(t, []string{"wc_42", "wc_201"}, ids)
	for _, req := range batch {
		assert.Equal(t, adcatalog.MethodCreate, req.Method)
		assert.NotEqual(t, "wc_100_main", req.RetailerID, "variable parents are never replicated")
	}

	// The variation's item carries the group id, parent link and sale price.
	var variation adcatalog.BatchRequest
	for _, req := range batch {
		if req.RetailerID == "wc_201" {
			variation = req
		}
	}
	assert.Equal(t, "wc_201", variation.Data["id"])
	assert.Equal(t, "wc_100", variation.Data["item_group_id"])
	assert.Equal(t, "10.00 BAM", variation.Data["price"])
	assert.Equal(t, "8.00 BAM", variation.Data["sale_price"])
	assert.Equal(t, "https://shop.example/product/canvas-tote", variation.Data["link"])

	// Everything landed in the cache, including skipped rows.
	counters, err := products.Counters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counters.Total)
	assert.Equal(t, 2, counters.Variations)

	st, err := status.GetByRetailerID(context.Background(), "wc_42")
	require.NoError(t, err)
	assert.Equal(t, syncmodel.StateSynced, st.State)
	assert.True(t, st.ExistsRemotely)
	assert.Equal(t, "in stock", st.LastAvailability)
	require.NotNil(t, st.LastInventory)
	assert.Equal(t, 7, *st.LastInventory)

	// Out-of-stock rows never got a sync-status entry.
	_, err = status.GetByRetailerID(context.Background(), "wc_11")
	assert.ErrorIs(t, err, syncmodel.ErrNotFound)
}

func TestRunInitialSyncUpdatesExistingRemoteItems(t *testing.T) {
	catalog := &fakeCatalog{
		remote: map[string]adcatalog.RemoteItem{
			"wc_42": {RetailerID: "wc_42", Availability: "in stock"},
		},
	}
	svc, _, _ := newEngineFixture(t, bulkFixtureSource(), catalog)

	report, err := svc.RunInitialSync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)

	methods := map[string]string{}
	for _, req := range catalog.batches[0] {
		methods[req.RetailerID] = req.Method
	}
	assert.Equal(t, adcatalog.MethodUpdate, methods["wc_42"])
	assert.Equal(t, adcatalog.MethodCreate, methods["wc_201"])
}

func TestRunInitialSyncValidationErrors(t *testing.T) {
	catalog := &fakeCatalog{
		response: &adcatalog.BatchResponse{
			Handles: []string{"h1"},
			ValidationStatus: []adcatalog.ValidationStatus{
				{RetailerID: "wc_42", Errors: []adcatalog.ValidationMessage{{Message: "image too small"}}},
				{RetailerID: "wc_201", Warnings: []adcatalog.ValidationMessage{{Message: "minor"}}},
			},
		},
	}
	svc, _, status := newEngineFixture(t, bulkFixtureSource(), catalog)

	report, err := svc.RunInitialSync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Created)

	st, err := status.GetByRetailerID(context.Background(), "wc_42")
	require.NoError(t, err)
	assert.Equal(t, syncmodel.StateError, st.State)
	assert.Equal(t, "image too small", st.LastError)

	// Warnings alone do not fail an item.
	st, err = status.GetByRetailerID(context.Background(), "wc_201")
	require.NoError(t, err)
	assert.Equal(t, syncmodel.StateSynced, st.State)
}

func TestRunInitialSyncTopLevelError(t *testing.T) {
	catalog := &fakeCatalog{
		response: &adcatalog.BatchResponse{
			Error: &adcatalog.APIError{Message: "token expired", Type: "OAuthException", Code: 190},
		},
	}
	svc, _, status := newEngineFixture(t, bulkFixtureSource(), catalog)

	report, err := svc.RunInitialSync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Errors)
	assert.Equal(t, 0, report.Created)

	st, err := status.GetByRetailerID(context.Background(), "wc_201")
	require.NoError(t, err)
	assert.Equal(t, syncmodel.StateError, st.State)
	assert.Contains(t, st.LastError, "token expired")
}

// =====================================================
// TARGETED PATH
// =====================================================

func TestSyncProductSkipsWhenStockUnchanged(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, _, status := newEngineFixture(t, &fakeSource{}, catalog)

	p := &product.Product{ID: 42, Kind: product.KindSimple, Name: "Wool Scarf", RegularPrice: "10", StockStatus: product.StockInStock, StockQuantity: intp(7)}

	require.NoError(t, svc.SyncProduct(context.Background(), p, nil))
	require.Len(t, catalog.batches, 1)

	st, err := status.GetByRetailerID(context.Background(), "wc_42")
	require.NoError(t, err)
	assert.Equal(t, syncmodel.StateSynced, st.State)

	// Same availability and quantity again: nothing to push.
	require.NoError(t, svc.SyncProduct(context.Background(), p, nil))
	assert.Len(t, catalog.batches, 1)
}

func TestSyncProductPushesStockChange(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, _, _ := newEngineFixture(t, &fakeSource{}, catalog)

	p := &product.Product{ID: 42, Kind: product.KindSimple, RegularPrice: "10", StockStatus: product.StockInStock, StockQuantity: intp(7)}
	require.NoError(t, svc.SyncProduct(context.Background(), p, nil))

	catalog.remote = map[string]adcatalog.RemoteItem{"wc_42": {RetailerID: "wc_42"}}
	p.StockQuantity = intp(5)
	require.NoError(t, svc.SyncProduct(context.Background(), p, nil))

	require.Len(t, catalog.batches, 2)
	second := catalog.batches[1]
	require.Len(t, second, 1)
	assert.Equal(t, adcatalog.MethodUpdate, second[0].Method)
	assert.Equal(t, "wc_42", second[0].RetailerID)
}

func TestSyncProductOutOfStockUnknownRemotelyIsNoop(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, _, status := newEngineFixture(t, &fakeSource{}, catalog)

	p := &product.Product{ID: 42, Kind: product.KindSimple, RegularPrice: "10", StockStatus: product.StockOutOfStock}
	require.NoError(t, svc.SyncProduct(context.Background(), p, nil))

	assert.Empty(t, catalog.batches)
	assert.Empty(t, catalog.stockCalls)

	// The status row exists but stays pending and local.
	st, err := status.GetByRetailerID(context.Background(), "wc_42")
	require.NoError(t, err)
	assert.Equal(t, syncmodel.StatePending, st.State)
	assert.False(t, st.ExistsRemotely)
}

func TestSyncProductOutOfStockKnownRemotelyPushesZero(t *testing.T) {
	catalog := &fakeCatalog{}
	svc, _, status := newEngineFixture(t, &fakeSource{}, catalog)

	in := &product.Product{ID: 42, Kind: product.KindSimple, RegularPrice: "10", StockStatus: product.StockInStock, StockQuantity: intp(7)}
	require.NoError(t, svc.SyncProduct(context.Background(), in, nil))

	out := &product.Product{ID: 42, Kind: product.KindSimple, RegularPrice: "10", StockStatus: product.StockOutOfStock}
	require.NoError(t, svc.SyncProduct(context.Background(), out, nil))

	require.Len(t, catalog.stockCalls, 1)
	call := catalog.stockCalls[0]
	assert.Equal(t, "wc_42", call.retailerID)
	assert.Equal(t, "out of stock", call.availability)
	require.NotNil(t, call.inventory)
	assert.Equal(t, 0, *call.inventory)

	st, err := status.GetByRetailerID(context.Background(), "wc_42")
	require.NoError(t, err)
	assert.Equal(t, "out of stock", st.LastAvailability)
	require.NotNil(t, st.LastInventory)
	assert.Equal(t, 0, *st.LastInventory)
}

func TestSyncProductVariationRehydratesParent(t *testing.T) {
	parent := &product.Product{ID: 100, Kind: product.KindVariable, Name: "Canvas Tote", Permalink: "https://shop.example/product/canvas-tote", RegularPrice: "12", StockStatus: product.StockInStock}
	source := &fakeSource{byID: map[int64]*product.Product{100: parent}}
	catalog := &fakeCatalog{}
	svc, products, _ := newEngineFixture(t, source, catalog)

	// Push payload for a variation: no type tag, parent not cached yet.
	v := &product.Product{ID: 201, ParentID: 100, RegularPrice: "10", StockStatus: product.StockInStock, StockQuantity: intp(3)}
	require.NoError(t, svc.SyncProduct(context.Background(), v, nil))

	require.Len(t, catalog.batches, 1)
	req := catalog.batches[0][0]
	assert.Equal(t, "wc_201", req.RetailerID)
	assert.Equal(t, "wc_100", req.Data["item_group_id"])
	assert.Equal(t, "Canvas Tote", req.Data["title"])

	// Parent and variation are both cached now.
	cached, err := products.Get(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, product.KindVariable, cached.Kind)

	_, err = products.GetVariation(context.Background(), 201)
	require.NoError(t, err)
}

func TestSyncProductVariableRecursesIntoVariations(t *testing.T) {
	source := &fakeSource{
		variations: map[int64][]product.Product{
			100: {
				{ID: 201, ParentID: 100, Kind: product.KindVariation, RegularPrice: "10", StockStatus: product.StockInStock, StockQuantity: intp(3)},
				{ID: 202, ParentID: 100, Kind: product.KindVariation, RegularPrice: "10", StockStatus: product.StockOutOfStock},
			},
		},
	}
	catalog := &fakeCatalog{}
	svc, _, _ := newEngineFixture(t, source, catalog)

	parent := &product.Product{ID: 100, Kind: product.KindVariable, Name: "Canvas Tote", RegularPrice: "12", StockStatus: product.StockInStock}
	require.NoError(t, svc.SyncProduct(context.Background(), parent, nil))

	// Only the in-stock variation was pushed; the parent itself never is.
	require.Len(t, catalog.batches, 1)
	assert.Equal(t, "wc_201", catalog.batches[0][0].RetailerID)
}
