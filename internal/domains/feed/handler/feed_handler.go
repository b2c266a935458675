package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"catalog-sync-backend/internal/domains/catalog/mapper"
	"catalog-sync-backend/internal/domains/feed/service"
	"catalog-sync-backend/internal/shared/response"
)

type FeedHandler struct {
	feeds service.Service
}

func NewFeedHandler(feeds service.Service) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

// Generate writes both CSV styles and reports their paths. ?refresh=true
// re-pulls the source store first.
func (h *FeedHandler) Generate(c *gin.Context) {
	refresh := c.Query("refresh") == "true"

	result, err := h.feeds.Generate(c.Request.Context(), refresh)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Download streams one style's CSV inline, generating from cache when the
// file does not exist yet.
func (h *FeedHandler) Download(c *gin.Context) {
	style := mapper.Style(c.DefaultQuery("style", string(mapper.StyleStandard)))
	if !style.IsValid() {
		response.BadRequest(c, "style must be standard or christmas")
		return
	}

	path := h.feeds.FilePath(style)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, err := h.feeds.Generate(c.Request.Context(), false); err != nil {
			response.InternalServerError(c, err.Error())
			return
		}
	}

	c.Header("Content-Disposition", `inline; filename="`+string(style)+`.csv"`)
	c.Header("Content-Type", "text/csv")
	c.File(path)
}
