package service

import (
	"context"
	"fmt"

	catalogmodel "catalog-sync-backend/internal/domains/catalog/model"
	"catalog-sync-backend/internal/domains/catalog/mapper"
	product "catalog-sync-backend/internal/domains/product/model"
	"catalog-sync-backend/internal/infrastructure/adcatalog"
)

// SyncProduct reconciles one product against the ad catalog. Variable
// products recurse into their variations and are themselves never emitted.
func (s *syncService) SyncProduct(ctx context.Context, p *product.Product, parent *product.Product) error {
	if p.Kind == product.KindVariable {
		return s.syncVariable(ctx, p)
	}

	retailerID := catalogmodel.RetailerID(p)
	statusProductID := p.ID

	if p.IsVariation() {
		// A variation can arrive before its parent was ever cached; the
		// parent supplies name, link and categories for mapping.
		if parent == nil {
			fetched, err := s.source.FetchProduct(ctx, p.ParentID)
			if err != nil {
				return fmt.Errorf("targeted sync %s: rehydrate parent %d: %w", retailerID, p.ParentID, err)
			}
			parent = fetched
		}
		if err := s.products.Upsert(ctx, parent); err != nil {
			return fmt.Errorf("targeted sync %s: %w", retailerID, err)
		}
		if err := s.products.UpsertVariations(ctx, parent.ID, []product.Product{*p}); err != nil {
			return fmt.Errorf("targeted sync %s: %w", retailerID, err)
		}
		statusProductID = parent.ID
	} else {
		if err := s.products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("targeted sync %s: %w", retailerID, err)
		}
	}

	if err := s.status.Ensure(ctx, statusProductID, retailerID); err != nil {
		return fmt.Errorf("targeted sync %s: %w", retailerID, err)
	}
	st, err := s.status.GetByRetailerID(ctx, retailerID)
	if err != nil {
		return fmt.Errorf("targeted sync %s: %w", retailerID, err)
	}

	availability := catalogmodel.Availability(p.StockStatus)
	inventory := p.Quantity()

	// Out-of-stock rows are only pushed when the remote side already knows
	// them; a product nobody has seen stays local.
	if p.StockStatus == product.StockOutOfStock {
		if !st.ExistsRemotely {
			s.log.Debug().Str("retailer_id", retailerID).Msg("Out of stock and unknown remotely, nothing to do")
			return nil
		}
		return s.PushOutOfStock(ctx, retailerID)
	}

	if !st.StockChanged(availability, inventory) {
		s.log.Debug().Str("retailer_id", retailerID).Msg("Stock unchanged since last sync, nothing to do")
		return nil
	}

	remote, err := s.catalog.LookupByRetailerID(ctx, retailerID)
	if err != nil {
		return fmt.Errorf("targeted sync %s: %w", retailerID, err)
	}

	method := adcatalog.MethodCreate
	if remote != nil {
		method = adcatalog.MethodUpdate
	}

	item := mapper.ToItem(p, parent, mapper.StyleStandard, s.opts)
	data, err := adcatalog.ItemData(item)
	if err != nil {
		return fmt.Errorf("targeted sync %s: %w", retailerID, err)
	}

	resp, err := s.catalog.BatchUpsert(ctx, []adcatalog.BatchRequest{{
		Method:     method,
		RetailerID: retailerID,
		Data:       data,
	}})
	if err != nil {
		return fmt.Errorf("targeted sync %s: %w", retailerID, err)
	}

	s.interpretResponse(ctx, resp, []pendingItem{{
		retailerID:   retailerID,
		availability: item.Availability,
		inventory:    item.Inventory,
		request:      adcatalog.BatchRequest{Method: method, RetailerID: retailerID},
	}}, nil)

	if resp.Error != nil {
		return fmt.Errorf("targeted sync %s: %w", retailerID, resp.Error)
	}

	return nil
}

// syncVariable refreshes a variable product's variation set and reconciles
// each variation through the targeted path.
func (s *syncService) syncVariable(ctx context.Context, parent *product.Product) error {
	if err := s.products.Upsert(ctx, parent); err != nil {
		return fmt.Errorf("variable sync %d: %w", parent.ID, err)
	}

	variations, err := s.source.FetchVariations(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("variable sync %d: %w", parent.ID, err)
	}

	if err := s.products.UpsertVariations(ctx, parent.ID, variations); err != nil {
		return fmt.Errorf("variable sync %d: %w", parent.ID, err)
	}

	for i := range variations {
		if err := s.SyncProduct(ctx, &variations[i], parent); err != nil {
			return err
		}
	}

	return nil
}

// PushOutOfStock marks one remote item out of stock with zero inventory.
func (s *syncService) PushOutOfStock(ctx context.Context, retailerID string) error {
	zero := 0

	resp, err := s.catalog.UpdateStock(ctx, retailerID, catalogmodel.AvailabilityOutOfStock, &zero)
	if err != nil {
		return fmt.Errorf("push out of stock %s: %w", retailerID, err)
	}

	s.interpretResponse(ctx, resp, []pendingItem{{
		retailerID:   retailerID,
		availability: catalogmodel.AvailabilityOutOfStock,
		inventory:    &zero,
		request:      adcatalog.BatchRequest{Method: adcatalog.MethodUpdate, RetailerID: retailerID},
	}}, nil)

	if resp.Error != nil {
		return fmt.Errorf("push out of stock %s: %w", retailerID, resp.Error)
	}

	return nil
}
