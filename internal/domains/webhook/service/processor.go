package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	catalogmodel "catalog-sync-backend/internal/domains/catalog/model"
	product "catalog-sync-backend/internal/domains/product/model"
	productrepo "catalog-sync-backend/internal/domains/product/repository"
	syncrepo "catalog-sync-backend/internal/domains/sync/repository"
	syncservice "catalog-sync-backend/internal/domains/sync/service"
	model "catalog-sync-backend/internal/domains/webhook/model"
	webhookrepo "catalog-sync-backend/internal/domains/webhook/repository"
)

// Validation failures, translated to HTTP statuses at the handler boundary.
var (
	ErrMissingTopic = errors.New("missing webhook topic")
	ErrWrongSource  = errors.New("webhook source does not match the configured store")
	ErrBadSignature = errors.New("webhook signature mismatch")
	ErrBadPayload   = errors.New("webhook payload is not valid JSON")
	ErrUnknownTopic = errors.New("unsupported webhook topic")
)

const topicPrefix = "product."

// Processor authenticates push notifications, persists them and drives the
// replication engine asynchronously.
type Processor struct {
	secret     string
	sourceHost string
	products   productrepo.Repository
	status     syncrepo.Repository
	events     webhookrepo.Repository
	engine     syncservice.Service
	locks      *keyedLocks
	wg         sync.WaitGroup
	log        zerolog.Logger
}

func NewProcessor(
	secret string,
	sourceBaseURL string,
	products productrepo.Repository,
	status syncrepo.Repository,
	events webhookrepo.Repository,
	engine syncservice.Service,
) *Processor {
	host := ""
	if u, err := url.Parse(sourceBaseURL); err == nil {
		host = u.Hostname()
	}

	return &Processor{
		secret:     secret,
		sourceHost: host,
		products:   products,
		status:     status,
		events:     events,
		engine:     engine,
		locks:      newKeyedLocks(),
		log:        log.With().Str("component", "webhook_processor").Logger(),
	}
}

// Accept runs the validation pipeline, computes the stock delta against the
// cache and persists the event row. It does not perform the replication
// work; the caller responds 200 first and hands the event to DispatchAsync.
func (p *Processor) Accept(ctx context.Context, topic, sourceURL, signature string, body []byte) (*model.Event, *product.Product, error) {
	if topic == "" {
		return nil, nil, ErrMissingTopic
	}

	if u, err := url.Parse(sourceURL); err != nil || u.Hostname() != p.sourceHost {
		return nil, nil, ErrWrongSource
	}

	if !p.verifySignature(body, signature) {
		return nil, nil, ErrBadSignature
	}

	var payload product.Product
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, ErrBadPayload
	}

	action := model.EventAction(strings.TrimPrefix(topic, topicPrefix))
	if !strings.HasPrefix(topic, topicPrefix) || !action.IsValid() {
		return nil, nil, ErrUnknownTopic
	}

	event := &model.Event{
		Topic:      topic,
		Action:     action,
		ResourceID: payload.ID,
		Name:       payload.Name,
		Kind:       payload.Kind.String(),
		Payload:    string(body),
		Signature:  signature,
		RetailerID: catalogmodel.RetailerID(&payload),
	}

	p.computeDelta(ctx, event, &payload)

	if err := p.events.Insert(ctx, event); err != nil {
		return nil, nil, fmt.Errorf("failed to persist event: %w", err)
	}

	p.log.Info().
		Str("topic", topic).
		Int64("resource_id", payload.ID).
		Int("stock_change", event.StockChange).
		Msg("Webhook accepted")

	return event, &payload, nil
}

func (p *Processor) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// computeDelta fills the event's old/new stock fields from the cached row,
// when one exists.
func (p *Processor) computeDelta(ctx context.Context, event *model.Event, payload *product.Product) {
	event.NewStockStatus = payload.StockStatus.String()
	event.NewStockQuantity = payload.StockQuantity

	old, err := p.products.GetAny(ctx, payload.ID)
	if err != nil {
		if err != productrepo.ErrNotFound {
			p.log.Warn().Err(err).Int64("resource_id", payload.ID).Msg("Failed to read cached row for delta")
		}
		event.StockChange = intValue(payload.StockQuantity)
		return
	}

	event.OldStockStatus = old.StockStatus.String()
	event.OldStockQuantity = old.StockQuantity
	event.StockChange = intValue(payload.StockQuantity) - intValue(old.StockQuantity)
}

// DispatchAsync runs the replication work on its own goroutine so the HTTP
// response never waits on upstream calls; the source store would otherwise
// time out and re-deliver.
func (p *Processor) DispatchAsync(event *model.Event, payload *product.Product) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Dispatch(context.Background(), event, payload)
	}()
}

// Wait blocks until all in-flight dispatches finish. Used on shutdown and
// in tests.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Dispatch performs the event's replication work under the product-family
// lock and marks the event row processed or errored.
func (p *Processor) Dispatch(ctx context.Context, event *model.Event, payload *product.Product) {
	key := payload.ID
	if payload.IsVariation() {
		key = payload.ParentID
	}
	release := p.locks.Acquire(key)
	defer release()

	var err error
	switch event.Action {
	case model.ActionCreated, model.ActionRestored, model.ActionUpdated:
		err = p.engine.SyncProduct(ctx, payload, nil)
	case model.ActionDeleted:
		err = p.handleDelete(ctx, payload)
	default:
		err = fmt.Errorf("unsupported action %q", event.Action)
	}

	if err != nil {
		p.log.Error().Err(err).Int64("event_id", event.ID).Msg("Webhook processing failed")
		if markErr := p.events.MarkError(ctx, event.ID, err.Error()); markErr != nil {
			p.log.Error().Err(markErr).Int64("event_id", event.ID).Msg("Failed to mark event errored")
		}
		return
	}

	if err := p.events.MarkProcessed(ctx, event.ID); err != nil {
		p.log.Error().Err(err).Int64("event_id", event.ID).Msg("Failed to mark event processed")
	}
}

// handleDelete pushes out-of-stock for remotely known items and drops the
// cached rows. Items are never deleted from the ad catalog.
func (p *Processor) handleDelete(ctx context.Context, payload *product.Product) error {
	retailerID := catalogmodel.RetailerID(payload)

	st, err := p.status.GetByRetailerID(ctx, retailerID)
	if err == nil && st.ExistsRemotely {
		if err := p.engine.PushOutOfStock(ctx, retailerID); err != nil {
			return err
		}
	}

	if payload.IsVariation() {
		// Variation sync rows reference the parent product, so the cascade
		// does not cover them.
		if err := p.products.DeleteVariation(ctx, payload.ID); err != nil {
			return err
		}
		return p.status.DeleteByRetailerID(ctx, retailerID)
	}

	return p.products.Delete(ctx, payload.ID)
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
