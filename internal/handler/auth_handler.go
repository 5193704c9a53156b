package handler

import (
	"net/http"

	"incorpo/config"
	"incorpo/internal/service"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc        *service.AuthService
	cookieName string
	errs       errorResponder
}

func NewAuthHandler(cfg *config.Config, svc *service.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, cookieName: cfg.Affiliate.CookieName, errs: errorResponder{log: log}}
}

type RegisterRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Username      string `json:"username" binding:"omitempty,min=3,max=64"`
	Password      string `json:"password" binding:"required,min=8"`
	AffiliateCode string `json:"affiliate_code"` // optional; falls back to cookie/header
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token := tokenWithBody(c, h.cookieName, req.AffiliateCode)
	u, pair, err := h.svc.Register(c.Request.Context(), req.Email, req.Username, req.Password, token, actorFrom(c, 0))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":          u,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}
