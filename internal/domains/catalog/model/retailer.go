package model

import (
	"fmt"

	product "catalog-sync-backend/internal/domains/product/model"
)

// Retailer-id and group-id policy. This is the single place these ids are
// computed; the replication engine, the event processor and the feed
// generator all go through here so a variation reached via any path hashes
// to the same ad-catalog row.
//
//	simple          -> wc_<id>
//	variable parent -> wc_<id>_main
//	variation       -> wc_<id>
//
// The "_main" suffix keeps a variable parent's own id distinct from its
// group id, which sibling variations share.

// RetailerID returns the stable external id for one replicable item.
func RetailerID(p *product.Product) string {
	if p.Kind == product.KindVariable {
		return fmt.Sprintf("wc_%d_main", p.ID)
	}
	return fmt.Sprintf("wc_%d", p.ID)
}

// GroupID returns the attribute grouping sibling variations, or "" for
// simple products.
func GroupID(p *product.Product) string {
	switch {
	case p.IsVariation():
		return fmt.Sprintf("wc_%d", p.ParentID)
	case p.Kind == product.KindVariable:
		return fmt.Sprintf("wc_%d", p.ID)
	default:
		return ""
	}
}

// Availability values accepted by the ad catalog.
const (
	AvailabilityInStock    = "in stock"
	AvailabilityPreorder   = "preorder"
	AvailabilityOutOfStock = "out of stock"
)

// Availability maps the source stock status onto the ad catalog's tri-state.
func Availability(s product.StockStatus) string {
	switch s {
	case product.StockInStock:
		return AvailabilityInStock
	case product.StockOnBackorder:
		return AvailabilityPreorder
	default:
		return AvailabilityOutOfStock
	}
}
