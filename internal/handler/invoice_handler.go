package handler

import (
	"net/http"

	"incorpo/config"
	"incorpo/internal/domain"
	"incorpo/internal/middleware"
	"incorpo/internal/service"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	orders     *service.OrderService
	users      *service.AuthService
	cookieName string
	errs       errorResponder
}

func NewInvoiceHandler(cfg *config.Config, orders *service.OrderService, users *service.AuthService, log logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{orders: orders, users: users, cookieName: cfg.Affiliate.CookieName, errs: errorResponder{log: log}}
}

type checkoutRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
	AffiliateCode string  `json:"affiliate_code"`
}

// Create records an unpaid invoice for the caller and binds it to a referral
// link when a code is present on the request or remembered for the email.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	buyer, err := h.users.GetUser(ctx, middleware.GetUserID(c))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	inv, err := h.orders.Checkout(ctx, buyer, service.CheckoutInput{
		AmountCents: domain.CentsFromAmount(req.Amount),
		Currency:    req.Currency,
		Description: req.Description,
	}, tokenWithBody(c, h.cookieName, req.AffiliateCode))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": inv, "attributed": inv.AffiliateLinkID != nil})
}

func (h *InvoiceHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.orders.ListForUser(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list, page, limit, total))
}
