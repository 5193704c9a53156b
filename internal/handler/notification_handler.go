package handler

import (
	"net/http"

	"incorpo/internal/middleware"
	"incorpo/internal/service"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc  *service.NotificationService
	errs errorResponder
}

func NewNotificationHandler(svc *service.NotificationService, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, errs: errorResponder{log: log}}
}

func (h *NotificationHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c), limit, (page-1)*limit)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	updated, err := h.svc.MarkRead(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterDevice stores the caller's FCM token for push delivery.
func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	if err := h.svc.RegisterDevice(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
