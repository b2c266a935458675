package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model "catalog-sync-backend/internal/domains/auth/model"
	"catalog-sync-backend/internal/domains/auth/service"
	"catalog-sync-backend/internal/shared/middleware"
	"catalog-sync-backend/internal/shared/response"
)

type AuthHandler struct {
	auth service.Service
}

func NewAuthHandler(auth service.Service) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if err == model.ErrInvalidCredentials {
			response.Unauthorized(c, err.Error())
			return
		}
		response.InternalServerError(c, "login failed")
		return
	}

	c.SetCookie(middleware.SessionCookie, session.Token, int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()), "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c)
	if token != "" {
		_ = h.auth.Logout(c.Request.Context(), token)
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

func (h *AuthHandler) Check(c *gin.Context) {
	session, err := h.auth.Validate(c.Request.Context(), middleware.SessionToken(c))
	if err != nil {
		response.Unauthorized(c, "not authenticated")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"username":   session.Username,
		"expires_at": session.ExpiresAt,
	})
}
