package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "catalog-sync-backend/internal/domains/product/model"
	productrepo "catalog-sync-backend/internal/domains/product/repository"
	syncmodel "catalog-sync-backend/internal/domains/sync/model"
	syncrepo "catalog-sync-backend/internal/domains/sync/repository"
	webhookrepo "catalog-sync-backend/internal/domains/webhook/repository"
	"catalog-sync-backend/internal/domains/webhook/service"
	"catalog-sync-backend/internal/infrastructure/database"
)

const (
	testSecret    = "test-secret"
	testSourceURL = "https://shop.example/wp-json/wc/v3"
)

type noopEngine struct{}

func (noopEngine) RunInitialSync(ctx context.Context) (*syncmodel.Report, error) {
	return &syncmodel.Report{}, nil
}

func (noopEngine) SyncProduct(ctx context.Context, p *product.Product, parent *product.Product) error {
	return nil
}

func (noopEngine) PushOutOfStock(ctx context.Context, retailerID string) error {
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.Processor, webhookrepo.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	products := productrepo.NewSQLiteRepository(db)
	status := syncrepo.NewSQLiteRepository(db)
	events := webhookrepo.NewSQLiteRepository(db)

	processor := service.NewProcessor(testSecret, testSourceURL, products, status, events, noopEngine{})

	router := gin.New()
	router.POST("/api/v1/webhooks/woocommerce", NewWebhookHandler(processor).Receive)

	return router, processor, events
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func deliver(router *gin.Engine, topic, source, signature string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/woocommerce", bytes.NewReader(body))
	if topic != "" {
		req.Header.Set("X-WC-Webhook-Topic", topic)
	}
	if source != "" {
		req.Header.Set("X-WC-Webhook-Source", source)
	}
	if signature != "" {
		req.Header.Set("X-WC-Webhook-Signature", signature)
	}
	req.Header.Set("X-WC-Webhook-Delivery-ID", "d-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReceiveValidDelivery(t *testing.T) {
	router, processor, events := newTestRouter(t)

	body := []byte(`{"id":42,"type":"simple","stock_status":"instock","stock_quantity":5}`)
	w := deliver(router, "product.updated", testSourceURL, sign(body), body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"event_id"`)
	assert.Contains(t, w.Body.String(), `"delivery_id":"d-1"`)

	processor.Wait()

	stats, err := events.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Processed)
}

func TestReceiveRejections(t *testing.T) {
	router, _, events := newTestRouter(t)
	body := []byte(`{"id":42,"type":"simple","stock_status":"instock"}`)

	tests := []struct {
		name      string
		topic     string
		source    string
		signature string
		body      []byte
		wantCode  int
	}{
		{"missing topic", "", testSourceURL, sign(body), body, http.StatusBadRequest},
		{"wrong source", "product.updated", "https://evil.example/wp-json/wc/v3", sign(body), body, http.StatusForbidden},
		{"bad signature", "product.updated", testSourceURL, "garbage", body, http.StatusUnauthorized},
		{"invalid payload", "product.updated", testSourceURL, sign([]byte("not json")), []byte("not json"), http.StatusBadRequest},
		{"unknown topic", "order.created", testSourceURL, sign(body), body, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := deliver(router, tt.topic, tt.source, tt.signature, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}

	// Rejected deliveries leave no trace in the event log.
	stats, err := events.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}
