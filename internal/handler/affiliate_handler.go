package handler

import (
	"errors"
	"net/http"

	"incorpo/config"
	"incorpo/internal/middleware"
	"incorpo/internal/service"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
)

// invalidCodeMessage is the body text of a rejected JSON click.
const invalidCodeMessage = "Invalid affiliate code."

type AffiliateHandler struct {
	links       *service.LinkService
	clicks      *service.ClickService
	conversions *service.ConversionService
	payouts     *service.PayoutService
	stats       *service.StatsService
	settings    *service.SettingsService
	cookieName  string
	secure      bool
	log         logger.Logger
	errs        errorResponder
}

func NewAffiliateHandler(
	cfg *config.Config,
	links *service.LinkService,
	clicks *service.ClickService,
	conversions *service.ConversionService,
	payouts *service.PayoutService,
	stats *service.StatsService,
	settings *service.SettingsService,
	log logger.Logger,
) *AffiliateHandler {
	return &AffiliateHandler{
		links:       links,
		clicks:      clicks,
		conversions: conversions,
		payouts:     payouts,
		stats:       stats,
		settings:    settings,
		cookieName:  cfg.Affiliate.CookieName,
		secure:      cfg.Server.IsProduction(),
		log:         log,
		errs:        errorResponder{log: log},
	}
}

// GetLink returns the caller's referral link, creating it on first use.
func (h *AffiliateHandler) GetLink(c *gin.Context) {
	link, err := h.links.GetOrCreateLink(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

// RedirectClick records a click and always redirects, whatever happens.
// Unknown codes get no row and no cookie.
func (h *AffiliateHandler) RedirectClick(c *gin.Context) {
	target := safeRedirect(c.Query("redirect"))
	ctx := c.Request.Context()
	_, link, err := h.clicks.RecordClick(ctx, service.ClickInput{
		Code:        c.Query("code"),
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Referrer:    c.Request.Referer(),
		LandingPath: target,
	})
	switch {
	case err == nil:
		setAffiliateCookie(c, h.cookieName, link.Code, h.settings.CookieMaxAge(ctx), h.secure)
	case errors.Is(err, service.ErrInvalidAffiliateCode):
	default:
		h.log.Error("click not recorded", "error", err)
		if link != nil {
			setAffiliateCookie(c, h.cookieName, link.Code, h.settings.CookieMaxAge(ctx), h.secure)
		}
	}
	c.Redirect(http.StatusFound, target)
}

// SkipClick redirects like RedirectClick without recording anything. It
// serves throttled visitors.
func (h *AffiliateHandler) SkipClick(c *gin.Context) {
	c.Redirect(http.StatusFound, safeRedirect(c.Query("redirect")))
}

type clickRequest struct {
	Code        string `json:"code"`
	Referrer    string `json:"referrer"`
	UserAgent   string `json:"userAgent"`
	IPAddress   string `json:"ipAddress"`
	LandingPath string `json:"landingPath"`
}

// RecordClick is the JSON variant used by single-page frontends.
func (h *AffiliateHandler) RecordClick(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidCodeMessage})
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}
	ctx := c.Request.Context()
	_, link, err := h.clicks.RecordClick(ctx, service.ClickInput{
		Code:        req.Code,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		Referrer:    req.Referrer,
		LandingPath: req.LandingPath,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidAffiliateCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalidCodeMessage})
			return
		}
		h.errs.respond(c, err)
		return
	}
	setAffiliateCookie(c, h.cookieName, link.Code, h.settings.CookieMaxAge(ctx), h.secure)
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *AffiliateHandler) ListClicks(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.clicks.ListForUser(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list, page, limit, total))
}

// ListConversions returns the caller's conversions oldest first.
func (h *AffiliateHandler) ListConversions(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.conversions.ListForReferrer(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list, page, limit, total))
}

func (h *AffiliateHandler) ListPayouts(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.payouts.ListForUser(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(list, page, limit, total))
}

func (h *AffiliateHandler) AcknowledgePayout(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout id"})
		return
	}
	if err := h.payouts.AcknowledgePayout(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AffiliateHandler) Stats(c *gin.Context) {
	st, err := h.stats.ReferrerStats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
