package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	catalogmodel "catalog-sync-backend/internal/domains/catalog/model"
	"catalog-sync-backend/internal/domains/catalog/mapper"
	product "catalog-sync-backend/internal/domains/product/model"
	productrepo "catalog-sync-backend/internal/domains/product/repository"
	syncmodel "catalog-sync-backend/internal/domains/sync/model"
	syncrepo "catalog-sync-backend/internal/domains/sync/repository"
	"catalog-sync-backend/internal/infrastructure/adcatalog"
)

// variationFetchGroup bounds concurrent variation fetches against the
// source store during a bulk run.
const variationFetchGroup = 10

type syncService struct {
	source   SourceClient
	catalog  CatalogClient
	products productrepo.Repository
	status   syncrepo.Repository
	opts     mapper.Options
	log      zerolog.Logger
}

func NewSyncService(
	source SourceClient,
	catalog CatalogClient,
	products productrepo.Repository,
	status syncrepo.Repository,
	opts mapper.Options,
) Service {
	return &syncService{
		source:   source,
		catalog:  catalog,
		products: products,
		status:   status,
		opts:     opts,
		log:      log.With().Str("component", "sync_engine").Logger(),
	}
}

// pendingItem is one batch mutation waiting for submission, together with
// everything needed to record its outcome.
type pendingItem struct {
	retailerID   string
	availability string
	inventory    *int
	request      adcatalog.BatchRequest
}

// RunInitialSync implements the bulk replication path: fetch everything
// in stock, cache it, reconcile against the enumerated remote state and
// submit batched mutations.
func (s *syncService) RunInitialSync(ctx context.Context) (*syncmodel.Report, error) {
	report := &syncmodel.Report{StartedAt: time.Now()}

	products, err := s.source.FetchAllProducts(ctx, map[string]string{
		"stock_status": product.StockInStock.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("bulk sync: %w", err)
	}
	report.TotalProducts = len(products)

	if err := s.products.BulkUpsert(ctx, products); err != nil {
		return nil, fmt.Errorf("bulk sync: %w", err)
	}

	remote, err := s.catalog.Enumerate(ctx, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("bulk sync: %w", err)
	}
	s.log.Info().Int("source_products", len(products)).Int("remote_items", len(remote)).Msg("Bulk sync started")

	var (
		pending   []pendingItem
		variables []product.Product
	)

	for i := range products {
		p := &products[i]
		switch p.Kind {
		case product.KindVariable:
			variables = append(variables, *p)
		default:
			if !p.InStock() {
				report.Skipped++
				continue
			}
			report.InStock++
			if err := s.stageItem(ctx, p, nil, p.ID, remote, &pending); err != nil {
				return nil, fmt.Errorf("bulk sync: %w", err)
			}
		}
	}

	if err := s.stageVariables(ctx, variables, remote, &pending, report); err != nil {
		return nil, fmt.Errorf("bulk sync: %w", err)
	}

	for start := 0; start < len(pending); start += adcatalog.MaxBatchSize {
		end := start + adcatalog.MaxBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := s.submitChunk(ctx, pending[start:end], report); err != nil {
			return nil, fmt.Errorf("bulk sync: %w", err)
		}
	}

	report.FinishedAt = time.Now()
	report.Duration = report.FinishedAt.Sub(report.StartedAt).String()

	s.log.Info().
		Int("total", report.TotalProducts).
		Int("in_stock", report.InStock).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("errors", report.Errors).
		Int("skipped", report.Skipped).
		Str("duration", report.Duration).
		Msg("Bulk sync finished")

	return report, nil
}

// stageVariables fetches variations in bounded groups, persists each group
// in one cache transaction and stages the in-stock variations for batch
// submission. The variable parents themselves are never emitted: variations
// hold the authoritative price data, the parent only groups them.
func (s *syncService) stageVariables(
	ctx context.Context,
	variables []product.Product,
	remote map[string]adcatalog.RemoteItem,
	pending *[]pendingItem,
	report *syncmodel.Report,
) error {
	for start := 0; start < len(variables); start += variationFetchGroup {
		end := start + variationFetchGroup
		if end > len(variables) {
			end = len(variables)
		}
		group := variables[start:end]

		fetched := make([][]product.Product, len(group))
		g, gctx := errgroup.WithContext(ctx)
		for i := range group {
			i := i
			parentID := group[i].ID
			g.Go(func() error {
				variations, err := s.source.FetchVariations(gctx, parentID)
				if err != nil {
					return err
				}
				fetched[i] = variations
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		sets := make(map[int64][]product.Product, len(group))
		for i := range group {
			sets[group[i].ID] = fetched[i]
		}
		if err := s.products.UpsertVariationSets(ctx, sets); err != nil {
			return err
		}

		for i := range group {
			parent := &group[i]
			for j := range fetched[i] {
				v := &fetched[i][j]
				if !v.InStock() {
					report.Skipped++
					continue
				}
				report.InStock++
				if err := s.stageItem(ctx, v, parent, parent.ID, remote, pending); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// stageItem ensures sync-status for one replicable row and appends its
// batch mutation, choosing CREATE vs UPDATE by remote existence.
func (s *syncService) stageItem(
	ctx context.Context,
	p *product.Product,
	parent *product.Product,
	statusProductID int64,
	remote map[string]adcatalog.RemoteItem,
	pending *[]pendingItem,
) error {
	retailerID := catalogmodel.RetailerID(p)

	if err := s.status.Ensure(ctx, statusProductID, retailerID); err != nil {
		return err
	}

	item := mapper.ToItem(p, parent, mapper.StyleStandard, s.opts)

	data, err := adcatalog.ItemData(item)
	if err != nil {
		return err
	}

	method := adcatalog.MethodCreate
	if _, exists := remote[retailerID]; exists {
		method = adcatalog.MethodUpdate
	}

	*pending = append(*pending, pendingItem{
		retailerID:   retailerID,
		availability: item.Availability,
		inventory:    item.Inventory,
		request: adcatalog.BatchRequest{
			Method:     method,
			RetailerID: retailerID,
			Data:       data,
		},
	})

	return nil
}

// submitChunk sends one batch and records per-item outcomes. Transport
// failures are fatal for the run; API failures are absorbed into
// sync-status.
func (s *syncService) submitChunk(ctx context.Context, chunk []pendingItem, report *syncmodel.Report) error {
	requests := make([]adcatalog.BatchRequest, len(chunk))
	for i := range chunk {
		requests[i] = chunk[i].request
	}

	resp, err := s.catalog.BatchUpsert(ctx, requests)
	if err != nil {
		return err
	}

	s.interpretResponse(ctx, resp, chunk, report)
	return nil
}

// interpretResponse applies the three response shapes the remote API
// produces. A bare-handles response is optimistic success: the remote side
// is trusted to apply the batch eventually.
func (s *syncService) interpretResponse(
	ctx context.Context,
	resp *adcatalog.BatchResponse,
	chunk []pendingItem,
	report *syncmodel.Report,
) {
	if resp.Error != nil {
		for i := range chunk {
			s.recordError(ctx, chunk[i].retailerID, resp.Error.Error(), report)
		}
		return
	}

	if len(resp.ValidationStatus) > 0 {
		failed := make(map[string]string)
		for _, vs := range resp.ValidationStatus {
			if len(vs.Errors) > 0 {
				failed[vs.RetailerID] = vs.Errors[0].Message
			}
		}

		for i := range chunk {
			it := &chunk[i]
			if msg, bad := failed[it.retailerID]; bad {
				s.recordError(ctx, it.retailerID, msg, report)
				continue
			}
			s.recordSynced(ctx, it, report)
		}
		return
	}

	// Neither validation status nor error: accepted for async processing.
	for i := range chunk {
		s.recordSynced(ctx, &chunk[i], report)
	}
}

func (s *syncService) recordSynced(ctx context.Context, it *pendingItem, report *syncmodel.Report) {
	if err := s.status.MarkSynced(ctx, it.retailerID, it.availability, it.inventory); err != nil {
		s.log.Error().Err(err).Str("retailer_id", it.retailerID).Msg("Failed to record synced state")
	}
	if report == nil {
		return
	}
	if it.request.Method == adcatalog.MethodCreate {
		report.Created++
	} else {
		report.Updated++
	}
}

func (s *syncService) recordError(ctx context.Context, retailerID, message string, report *syncmodel.Report) {
	if err := s.status.MarkError(ctx, retailerID, message); err != nil {
		s.log.Error().Err(err).Str("retailer_id", retailerID).Msg("Failed to record error state")
	}
	if report != nil {
		report.Errors++
	}
	s.log.Warn().Str("retailer_id", retailerID).Str("reason", message).Msg("Item rejected by ad catalog")
}
