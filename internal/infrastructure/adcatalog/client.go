package adcatalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxBatchSize is the remote API's hard cap on requests per batch call.
const MaxBatchSize = 1000

// Batch methods. DELETE exists for API completeness; the engine never emits
// it and prefers marking items out of stock.
const (
	MethodCreate = "CREATE"
	MethodUpdate = "UPDATE"
	MethodDelete = "DELETE"
)

// itemType is fixed by the batch envelope contract.
const itemType = "PRODUCT_ITEM"

// defaultFields is the minimal tuple the reconciler needs when enumerating
// the remote catalog.
var defaultFields = []string{"retailer_id", "availability", "inventory"}

// Client talks to the batch-oriented ad-catalog API.
type Client struct {
	baseURL    string
	catalogID  string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, catalogID, token string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		catalogID: catalogID,
		token:     token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// =====================================================
// WIRE TYPES
// =====================================================

// BatchRequest is one mutation inside a batch call. Data carries the item
// fields; the client injects data["id"] = retailer_id because the remote
// API requires the id in both places.
type BatchRequest struct {
	Method     string                 `json:"method"`
	RetailerID string                 `json:"retailer_id"`
	Data       map[string]interface{} `json:"data"`
}

type batchEnvelope struct {
	ItemType string         `json:"item_type"`
	Requests []BatchRequest `json:"requests"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ad catalog API error %d (%s): %s", e.Code, e.Type, e.Message)
}

type ValidationMessage struct {
	Message string `json:"message"`
}

type ValidationStatus struct {
	RetailerID string              `json:"retailer_id"`
	Errors     []ValidationMessage `json:"errors,omitempty"`
	Warnings   []ValidationMessage `json:"warnings,omitempty"`
}

// BatchResponse is returned raw; interpretation (async handles vs per-item
// validation vs top-level error) is the engine's responsibility.
type BatchResponse struct {
	Handles          []string           `json:"handles,omitempty"`
	ValidationStatus []ValidationStatus `json:"validation_status,omitempty"`
	Error            *APIError          `json:"error,omitempty"`
}

// RemoteItem is the reconciler's view of one row already in the ad catalog.
type RemoteItem struct {
	ID           string `json:"id"`
	RetailerID   string `json:"retailer_id"`
	Availability string `json:"availability"`
	Inventory    *int   `json:"inventory"`
}

type listResponse struct {
	Data   []RemoteItem `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *APIError `json:"error,omitempty"`
}

// HandleStatus is the state of an asynchronous batch handle.
type HandleStatus struct {
	Status string    `json:"status"`
	Error  *APIError `json:"error,omitempty"`
}

// Metadata describes the catalog itself.
type Metadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProductCount int       `json:"product_count"`
	Error        *APIError `json:"error,omitempty"`
}

// =====================================================
// OPERATIONS
// =====================================================

// Enumerate walks the whole remote catalog following next cursors and
// materializes it into a retailer-id keyed map for O(1) existence checks.
// Passing nil fields selects the default reconciliation tuple.
func (c *Client) Enumerate(ctx context.Context, fields []string, limit int) (map[string]RemoteItem, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = defaultFields
	}
	if limit <= 0 {
		limit = 100
	}

	q := url.Values{}
	q.Set("fields", strings.Join(fields, ","))
	q.Set("limit", fmt.Sprintf("%d", limit))
	next := fmt.Sprintf("%s/%s/products?%s", c.baseURL, c.catalogID, q.Encode())

	remote := make(map[string]RemoteItem)
	for next != "" {
		var page listResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		if page.Error != nil {
			return nil, page.Error
		}

		for _, item := range page.Data {
			remote[item.RetailerID] = item
		}
		next = page.Paging.Next
	}

	return remote, nil
}

// LookupByRetailerID returns the one remote row with that retailer-id, or
// nil when the catalog has never seen it.
func (c *Client) LookupByRetailerID(ctx context.Context, retailerID string) (*RemoteItem, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	filter := fmt.Sprintf(`{"retailer_id":{"eq":"%s"}}`, retailerID)

	q := url.Values{}
	q.Set("filter", filter)
	q.Set("fields", strings.Join(defaultFields, ","))

	var page listResponse
	reqURL := fmt.Sprintf("%s/%s/products?%s", c.baseURL, c.catalogID, q.Encode())
	if err := c.getJSON(ctx, reqURL, &page); err != nil {
		return nil, err
	}
	if page.Error != nil {
		return nil, page.Error
	}

	if len(page.Data) == 0 {
		return nil, nil
	}
	return &page.Data[0], nil
}

// BatchUpsert submits up to MaxBatchSize mutations. Transport failures come
// back as errors; API errors arrive inside the response body.
func (c *Client) BatchUpsert(ctx context.Context, requests []BatchRequest) (*BatchResponse, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return &BatchResponse{}, nil
	}
	if len(requests) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds the %d item limit", len(requests), MaxBatchSize)
	}

	// The remote API requires the retailer id inside the data block too.
	for i := range requests {
		if requests[i].Data == nil {
			requests[i].Data = map[string]interface{}{}
		}
		requests[i].Data["id"] = requests[i].RetailerID
	}

	payload, err := json.Marshal(batchEnvelope{ItemType: itemType, Requests: requests})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s/items_batch", c.baseURL, c.catalogID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ad catalog API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch response: %w", err)
	}

	var batchResp BatchResponse
	if err := json.Unmarshal(body, &batchResp); err != nil {
		return nil, fmt.Errorf("failed to decode batch response (%d): %s", resp.StatusCode, string(body))
	}

	return &batchResp, nil
}

// UpdateStock is a convenience wrapper issuing a single-item UPDATE with
// availability and, when known, inventory.
func (c *Client) UpdateStock(ctx context.Context, retailerID, availability string, inventory *int) (*BatchResponse, error) {
	data := map[string]interface{}{
		"availability": availability,
	}
	if inventory != nil {
		data["inventory"] = *inventory
	}

	return c.BatchUpsert(ctx, []BatchRequest{{
		Method:     MethodUpdate,
		RetailerID: retailerID,
		Data:       data,
	}})
}

// PollHandle reads the state of an async batch handle.
func (c *Client) PollHandle(ctx context.Context, handle string) (*HandleStatus, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	var status HandleStatus
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", c.baseURL, handle), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CatalogMetadata fetches the catalog's name and product count.
func (c *Client) CatalogMetadata(ctx context.Context) (*Metadata, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("fields", "id,name,product_count")

	var meta Metadata
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, c.catalogID, q.Encode())
	if err := c.getJSON(ctx, reqURL, &meta); err != nil {
		return nil, err
	}
	if meta.Error != nil {
		return nil, meta.Error
	}
	return &meta, nil
}

// =====================================================
// INTERNALS
// =====================================================

func (c *Client) validate() error {
	if c.catalogID == "" {
		return fmt.Errorf("ad catalog id is not configured")
	}
	if c.token == "" {
		return fmt.Errorf("ad catalog token is not configured")
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call ad catalog API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read catalog response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode catalog response (%d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// ItemData flattens a catalog item into the map shape the batch API wants.
func ItemData(item interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}

	data := map[string]interface{}{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to flatten item: %w", err)
	}

	return data, nil
}
