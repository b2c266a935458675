package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	product "catalog-sync-backend/internal/domains/product/model"
)

func TestRetailerID(t *testing.T) {
	tests := []struct {
		name     string
		product  product.Product
		expected string
	}{
		{
			name:     "simple product",
			product:  product.Product{ID: 42, Kind: product.KindSimple},
			expected: "wc_42",
		},
		{
			name:     "variable parent gets the main suffix",
			product:  product.Product{ID: 100, Kind: product.KindVariable},
			expected: "wc_100_main",
		},
		{
			name:     "variation",
			product:  product.Product{ID: 201, ParentID: 100, Kind: product.KindVariation},
			expected: "wc_201",
		},
		{
			name:     "untagged push payload",
			product:  product.Product{ID: 201, ParentID: 100},
			expected: "wc_201",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RetailerID(&tt.product))
		})
	}
}

func TestGroupID(t *testing.T) {
	tests := []struct {
		name     string
		product  product.Product
		expected string
	}{
		{
			name:     "simple product has no group",
			product:  product.Product{ID: 42, Kind: product.KindSimple},
			expected: "",
		},
		{
			name:     "variable parent anchors its own group",
			product:  product.Product{ID: 100, Kind: product.KindVariable},
			expected: "wc_100",
		},
		{
			name:     "variation groups under the parent",
			product:  product.Product{ID: 201, ParentID: 100, Kind: product.KindVariation},
			expected: "wc_100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GroupID(&tt.product))
		})
	}
}

// A variation reached through the bulk path (tagged by the variations
// endpoint) and the same variation arriving as a push payload (no type
// field, only parent_id) must land on the same ad-catalog row.
func TestVariationIDsAgreeAcrossPaths(t *testing.T) {
	bulk := product.Product{ID: 201, ParentID: 100, Kind: product.KindVariation}
	push := product.Product{ID: 201, ParentID: 100}

	assert.Equal(t, RetailerID(&bulk), RetailerID(&push))
	assert.Equal(t, GroupID(&bulk), GroupID(&push))
	assert.NotEqual(t, RetailerID(&bulk), RetailerID(&product.Product{ID: 201, Kind: product.KindVariable}))
}

func TestAvailability(t *testing.T) {
	assert.Equal(t, "in stock", Availability(product.StockInStock))
	assert.Equal(t, "preorder", Availability(product.StockOnBackorder))
	assert.Equal(t, "out of stock", Availability(product.StockOutOfStock))
	assert.Equal(t, "out of stock", Availability(product.StockStatus("draft")))
	assert.Equal(t, "out of stock", Availability(product.StockStatus("")))
}
