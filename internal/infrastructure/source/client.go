package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	model "catalog-sync-backend/internal/domains/product/model"
)

// pageSize is the source API's maximum page size; a short page terminates
// pagination.
const pageSize = 100

// Client reads products and variations from the source store. Credentials
// travel as query parameters, the legacy auth mode of the source API.
type Client struct {
	baseURL    string
	key        string
	secret     string
	httpClient *http.Client
}

func NewClient(baseURL, key, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		key:     key,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FetchAllProducts returns the full product list across pages. Recognized
// filter for bulk reads: {"stock_status": "instock"}, applied server-side
// before pagination.
func (c *Client) FetchAllProducts(ctx context.Context, filters map[string]string) ([]model.Product, error) {
	var all []model.Product

	for page := 1; ; page++ {
		options := map[string]string{
			"page":     fmt.Sprintf("%d", page),
			"per_page": fmt.Sprintf("%d", pageSize),
		}
		for k, v := range filters {
			options[k] = v
		}

		var batch []model.Product
		if err := c.get(ctx, "/products", options, &batch); err != nil {
			return nil, err
		}

		all = append(all, batch...)
		if len(batch) < pageSize {
			break
		}
	}

	return all, nil
}

// FetchVariations returns up to one page of variations for a parent.
// Parents are assumed not to exceed the page bound.
func (c *Client) FetchVariations(ctx context.Context, parentID int64) ([]model.Product, error) {
	options := map[string]string{
		"per_page": fmt.Sprintf("%d", pageSize),
	}

	var variations []model.Product
	if err := c.get(ctx, fmt.Sprintf("/products/%d/variations", parentID), options, &variations); err != nil {
		return nil, err
	}

	for i := range variations {
		variations[i].ParentID = parentID
		variations[i].Kind = model.KindVariation
	}

	return variations, nil
}

// FetchProduct returns a single product by id. The event processor uses it
// to rehydrate a variation's parent.
func (c *Client) FetchProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := c.get(ctx, fmt.Sprintf("/products/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// get performs one authenticated GET and decodes the JSON body into out.
// Any non-2xx status is a fatal read error with the body preserved.
func (c *Client) get(ctx context.Context, endpoint string, options map[string]string, out interface{}) error {
	q := url.Values{}
	q.Set("consumer_key", c.key)
	q.Set("consumer_secret", c.secret)
	for k, v := range options {
		q.Set(k, v)
	}

	reqURL := c.baseURL + endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create source request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call source API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read source response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("source API returned %d for %s: %s", resp.StatusCode, endpoint, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode source response for %s: %w", endpoint, err)
	}

	return nil
}
