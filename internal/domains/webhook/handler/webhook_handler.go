package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-sync-backend/internal/domains/webhook/service"
	"catalog-sync-backend/internal/shared/response"
)

// Push headers sent by the source store.
const (
	headerTopic      = "X-WC-Webhook-Topic"
	headerSignature  = "X-WC-Webhook-Signature"
	headerSource     = "X-WC-Webhook-Source"
	headerDeliveryID = "X-WC-Webhook-Delivery-ID"
)

type WebhookHandler struct {
	processor *service.Processor
}

func NewWebhookHandler(processor *service.Processor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// Receive accepts one push notification. The 200 goes out before any
// replication work happens; the source store only needs the ack.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "failed to read request body")
		return
	}

	event, payload, err := h.processor.Accept(
		c.Request.Context(),
		c.GetHeader(headerTopic),
		c.GetHeader(headerSource),
		c.GetHeader(headerSignature),
		body,
	)
	if err != nil {
		switch err {
		case service.ErrMissingTopic, service.ErrBadPayload, service.ErrUnknownTopic:
			response.BadRequest(c, err.Error())
		case service.ErrWrongSource:
			response.Forbidden(c, err.Error())
		case service.ErrBadSignature:
			response.Unauthorized(c, err.Error())
		default:
			response.InternalServerError(c, "failed to accept webhook")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"event_id":    event.ID,
		"delivery_id": c.GetHeader(headerDeliveryID),
	})

	h.processor.DispatchAsync(event, payload)
}
