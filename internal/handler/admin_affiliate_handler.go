package handler

import (
	"net/http"

	"incorpo/config"
	"incorpo/internal/middleware"
	"incorpo/internal/service"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
)

// maxReceiptSize bounds receipt uploads.
const maxReceiptSize = 10 << 20

// AdminAffiliateHandler serves /admin/affiliate and the force-conversion action.
type AdminAffiliateHandler struct {
	conversions *service.ConversionService
	payouts     *service.PayoutService
	settings    *service.SettingsService
	orders      *service.OrderService
	errs        errorResponder
}

func NewAdminAffiliateHandler(cfg *config.Config, conversions *service.ConversionService, payouts *service.PayoutService, settings *service.SettingsService, orders *service.OrderService, log logger.Logger) *AdminAffiliateHandler {
	return &AdminAffiliateHandler{
		conversions: conversions,
		payouts:     payouts,
		settings:    settings,
		orders:      orders,
		errs:        errorResponder{log: log, withDetail: !cfg.Server.IsProduction()},
	}
}

func (h *AdminAffiliateHandler) ListConversions(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.conversions.ListConversions(c.Request.Context(), service.ConversionFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list, page, limit, total))
}

type statusRequest struct {
	Status  string `json:"status"`
	Version *int   `json:"version"`
}

func (h *AdminAffiliateHandler) UpdateConversionStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversion id"})
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	conv, err := h.conversions.SetStatus(c.Request.Context(), service.StatusChange{
		ConversionID:    id,
		Status:          req.Status,
		ExpectedVersion: req.Version,
		Actor:           actorFrom(c, middleware.GetUserID(c)),
	})
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversion": conv})
}

type forceConversionRequest struct {
	InvoiceID     uint   `json:"invoiceId" binding:"required"`
	AffiliateCode string `json:"affiliateCode" binding:"required"`
}

func (h *AdminAffiliateHandler) ForceConversion(c *gin.Context) {
	var req forceConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoiceId and affiliateCode are required"})
		return
	}
	conv, err := h.orders.ForceConversion(c.Request.Context(), req.InvoiceID, req.AffiliateCode, actorFrom(c, middleware.GetUserID(c)))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversion": conv})
}

// ConfirmInvoice records that an invoice was paid. Attributed invoices get
// their conversion here.
func (h *AdminAffiliateHandler) ConfirmInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	inv, conv, err := h.orders.ConfirmPayment(c.Request.Context(), id, actorFrom(c, middleware.GetUserID(c)))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv, "conversion": conv})
}

func (h *AdminAffiliateHandler) ListPayouts(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.payouts.ListPayouts(c.Request.Context(), service.PayoutFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list, page, limit, total))
}

type recordPayoutRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Method      string `json:"method" binding:"required"`
	Notes       string `json:"notes"`
}

func (h *AdminAffiliateHandler) RecordPayout(c *gin.Context) {
	var req recordPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.payouts.RecordPayout(c.Request.Context(), service.PayoutRequest{
		UserID:      req.UserID,
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Notes:       req.Notes,
	}, actorFrom(c, middleware.GetUserID(c)))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payout": p})
}

type payoutStatusRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

func (h *AdminAffiliateHandler) UpdatePayoutStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout id"})
		return
	}
	var req payoutStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := h.payouts.UpdatePayoutStatus(c.Request.Context(), id, req.Status, req.AdminNotes, actorFrom(c, middleware.GetUserID(c)))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payout": p})
}

// UploadReceipt accepts a multipart "file" field.
func (h *AdminAffiliateHandler) UploadReceipt(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout id"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size > maxReceiptSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 10MB)"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()
	p, err := h.payouts.AttachReceipt(c.Request.Context(), id, f, actorFrom(c, middleware.GetUserID(c)))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payout": p})
}

func (h *AdminAffiliateHandler) GetSettings(c *gin.Context) {
	st, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

type settingsRequest struct {
	CommissionRate     *float64 `json:"commission_rate"`
	MinPayoutCents     *int64   `json:"min_payout_cents"`
	CookieDurationDays *int     `json:"cookie_duration_days"`
}

func (h *AdminAffiliateHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	st, err := h.settings.Update(c.Request.Context(), service.SettingsUpdate{
		CommissionRate:     req.CommissionRate,
		MinPayoutCents:     req.MinPayoutCents,
		CookieDurationDays: req.CookieDurationDays,
	})
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}
