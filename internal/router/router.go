package router

import (
	"context"
	"net/http"
	"time"

	"incorpo/config"
	"incorpo/internal/handler"
	"incorpo/internal/metrics"
	"incorpo/internal/middleware"
	"incorpo/internal/repository"
	"incorpo/internal/service"
	"incorpo/internal/ws"
	"incorpo/pkg/cloudinary"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers into a gin engine. cloud
// may be nil, in which case receipt uploads answer 503.
func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, log logger.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.SecurityHeaders(), middleware.Metrics(m), middleware.RequestLogger(log))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	linkRepo := repository.NewAffiliateLinkRepository(db)
	clickRepo := repository.NewAffiliateClickRepository(db)
	conversionRepo := repository.NewAffiliateConversionRepository(db)
	settingsRepo := repository.NewAffiliateSettingsRepository(db)
	payoutRepo := repository.NewAffiliatePayoutRepository(db)
	attributionRepo := repository.NewAffiliateAttributionRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	hub := ws.NewHub()

	// Services
	pusher := service.NewFCMPusher(context.Background(), cfg.Firebase.ServiceAccountPath, log)
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, pusher, log)
	legacy := cfg.Affiliate.LegacyApproveAlias

	settingsSvc := service.NewSettingsService(settingsRepo, cfg.Affiliate, log)
	linkSvc := service.NewLinkService(linkRepo, log)
	clickSvc := service.NewClickService(linkSvc, clickRepo, hub, m, log)
	attributionSvc := service.NewAttributionService(linkSvc, attributionRepo, settingsSvc, log)
	conversionSvc := service.NewConversionService(conversionRepo, linkSvc, settingsSvc, auditRepo, notifSvc, hub, m, log, legacy)
	orderSvc := service.NewOrderService(invoiceRepo, attributionSvc, linkSvc, conversionSvc, auditRepo, log)
	payoutSvc := service.NewPayoutService(payoutRepo, userRepo, linkSvc, conversionSvc, settingsSvc, auditRepo,
		cloud, cfg.Cloudinary.Folder, notifSvc, hub, m, log, legacy)
	statsSvc := service.NewStatsService(linkSvc, clickRepo, conversionSvc, payoutSvc)
	authSvc := service.NewAuthService(cfg, userRepo, attributionSvc, auditRepo, log)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, authSvc, log)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, log)
	affiliateHandler := handler.NewAffiliateHandler(cfg, linkSvc, clickSvc, conversionSvc, payoutSvc, statsSvc, settingsSvc, log)
	adminAffiliateHandler := handler.NewAdminAffiliateHandler(cfg, conversionSvc, payoutSvc, settingsSvc, orderSvc, log)
	invoiceHandler := handler.NewInvoiceHandler(cfg, orderSvc, authSvc, log)
	notificationHandler := handler.NewNotificationHandler(notifSvc, log)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()
	clickLimiter := middleware.NewInMemoryRateLimiter(clickRate(cfg.Affiliate))
	clickLimit := middleware.RateLimit(clickLimiter)
	// throttled redirect visitors still land on their page, just uncounted
	redirectLimit := middleware.RateLimitOr(clickLimiter, affiliateHandler.SkipClick)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	r.GET("/ws/affiliate", ws.ServeAffiliateFeed(&cfg.JWT, hub, log))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
		}

		affiliate := api.Group("/affiliate")
		{
			affiliate.GET("/click", redirectLimit, affiliateHandler.RedirectClick)
			affiliate.POST("/clicks", clickLimit, affiliateHandler.RecordClick)

			affiliate.GET("/link", authMw, affiliateHandler.GetLink)
			affiliate.GET("/clicks", authMw, affiliateHandler.ListClicks)
			affiliate.GET("/conversions", authMw, affiliateHandler.ListConversions)
			affiliate.GET("/payouts", authMw, affiliateHandler.ListPayouts)
			affiliate.POST("/payout/acknowledge/:id", authMw, affiliateHandler.AcknowledgePayout)
			affiliate.GET("/stats", authMw, affiliateHandler.Stats)
			affiliate.POST("/force-conversion", authMw, adminMw, adminAffiliateHandler.ForceConversion)
		}

		invoices := api.Group("/invoices")
		invoices.Use(authMw)
		{
			invoices.POST("", invoiceHandler.Create)
			invoices.GET("", invoiceHandler.List)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.POST("/fcm-token", notificationHandler.RegisterDevice)
		}

		admin := api.Group("/admin/affiliate")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/conversions", adminAffiliateHandler.ListConversions)
			admin.PATCH("/conversions/:id", adminAffiliateHandler.UpdateConversionStatus)
			admin.GET("/payouts", adminAffiliateHandler.ListPayouts)
			admin.POST("/payouts", adminAffiliateHandler.RecordPayout)
			admin.PATCH("/payouts/:id", adminAffiliateHandler.UpdatePayoutStatus)
			admin.POST("/payouts/:id/receipt", adminAffiliateHandler.UploadReceipt)
			admin.GET("/settings", adminAffiliateHandler.GetSettings)
			admin.POST("/settings", adminAffiliateHandler.UpdateSettings)
		}

		adminInvoices := api.Group("/admin/invoices")
		adminInvoices.Use(authMw, adminMw)
		{
			adminInvoices.POST("/:id/confirm", adminAffiliateHandler.ConfirmInvoice)
		}
	}
	return r
}

func clickRate(cfg config.AffiliateConfig) (int, time.Duration) {
	limit, window := cfg.ClickRateLimit, cfg.ClickRateWindow
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return limit, window
}
