package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	productrepo "catalog-sync-backend/internal/domains/product/repository"
	syncrepo "catalog-sync-backend/internal/domains/sync/repository"
	syncservice "catalog-sync-backend/internal/domains/sync/service"
	webhookrepo "catalog-sync-backend/internal/domains/webhook/repository"
	"catalog-sync-backend/internal/shared/response"
)

// recentEventCount bounds the event tail on the status endpoint.
const recentEventCount = 20

type SyncHandler struct {
	engine   syncservice.Service
	products productrepo.Repository
	status   syncrepo.Repository
	events   webhookrepo.Repository
}

func NewSyncHandler(
	engine syncservice.Service,
	products productrepo.Repository,
	status syncrepo.Repository,
	events webhookrepo.Repository,
) *SyncHandler {
	return &SyncHandler{
		engine:   engine,
		products: products,
		status:   status,
		events:   events,
	}
}

// InitialSync runs the bulk replication path synchronously and returns its
// report. Runs take minutes on large stores; the server's timeouts account
// for that.
func (h *SyncHandler) InitialSync(c *gin.Context) {
	report, err := h.engine.RunInitialSync(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}

	response.Success(c, http.StatusOK, report)
}

// Status reports cache counters, sync states and recent webhook activity.
func (h *SyncHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	counters, err := h.products.Counters(ctx)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}

	states, err := h.status.CountsByState(ctx)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}

	stats, err := h.events.Stats(ctx)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}

	recent, err := h.events.Recent(ctx, recentEventCount)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"products":      counters,
		"sync_states":   states,
		"webhooks":      stats,
		"recent_events": recent,
	})
}
