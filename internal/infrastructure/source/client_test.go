package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "catalog-sync-backend/internal/domains/product/model"
)

func TestFetchAllProductsPaginates(t *testing.T) {
	var requests []*http.Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Clone(r.Context()))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		// A full first page, a short second one.
		count := pageSize
		if page > 1 {
			count = 3
		}
		products := make([]model.Product, count)
		for i := range products {
			products[i] = model.Product{ID: int64((page-1)*pageSize + i + 1), Kind: model.KindSimple}
		}
		json.NewEncoder(w).Encode(products)
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck_test", "cs_test")

	products, err := client.FetchAllProducts(context.Background(), map[string]string{
		"stock_status": "instock",
	})
	require.NoError(t, err)
	assert.Len(t, products, pageSize+3)

	require.Len(t, requests, 2)
	first := requests[0]
	assert.Equal(t, "/products", first.URL.Path)
	assert.Equal(t, "ck_test", first.URL.Query().Get("consumer_key"))
	assert.Equal(t, "cs_test", first.URL.Query().Get("consumer_secret"))
	assert.Equal(t, "instock", first.URL.Query().Get("stock_status"))
	assert.Equal(t, fmt.Sprintf("%d", pageSize), first.URL.Query().Get("per_page"))
	assert.Equal(t, "2", requests[1].URL.Query().Get("page"))
}

func TestFetchVariationsTagsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/100/variations", r.URL.Path)
		json.NewEncoder(w).Encode([]model.Product{
			{ID: 201, RegularPrice: "10"},
			{ID: 202, RegularPrice: "12"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck_test", "cs_test")

	variations, err := client.FetchVariations(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, variations, 2)

	// The variations endpoint omits type and parent; the client fills both.
	for _, v := range variations {
		assert.Equal(t, model.KindVariation, v.Kind)
		assert.Equal(t, int64(100), v.ParentID)
	}
}

func TestFetchProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/42", r.URL.Path)
		json.NewEncoder(w).Encode(model.Product{ID: 42, Kind: model.KindSimple, Name: "Wool Scarf"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck_test", "cs_test")

	p, err := client.FetchProduct(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Wool Scarf", p.Name)
}

func TestNonSuccessStatusIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"woocommerce_rest_cannot_view"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck_bad", "cs_bad")

	_, err := client.FetchAllProducts(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "woocommerce_rest_cannot_view")
}
