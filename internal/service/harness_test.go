package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"incorpo/config"
	"incorpo/internal/domain"
	"incorpo/internal/metrics"
	"incorpo/internal/repository"
	"incorpo/internal/testutil"
	"incorpo/pkg/logger"

	"gorm.io/gorm"
)

type sentNotification struct {
	UserID uint
	Type   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uint, notifType, _, _ string, _ map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: notifType})
	return nil
}

type publishedEvent struct {
	UserID uint
	Event  string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(userID uint, event string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Event: event})
}

func (p *recordingPublisher) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) UploadReceipt(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.Copy(io.Discard, file)
	return f.url + folder + "/" + publicID, nil
}

// env wires every service against one in-memory database.
type env struct {
	db        *gorm.DB
	cfg       *config.Config
	notifier  *recordingNotifier
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	uploader  *fakeUploader

	settings    *SettingsService
	links       *LinkService
	clicks      *ClickService
	attribution *AttributionService
	conversions *ConversionService
	orders      *OrderService
	payouts     *PayoutService
	stats       *StatsService
	auth        *AuthService
	audit       *repository.AuditLogRepository
}

func newEnv(t *testing.T, legacyApproveAlias bool) *env {
	t.Helper()
	db := testutil.OpenDB(t)
	cfg := &config.Config{
		JWT: config.JWTConfig{AccessSecret: "a", RefreshSecret: "r", AccessExpiry: time.Minute, RefreshExpiry: time.Hour, Issuer: "test"},
		Affiliate: config.AffiliateConfig{
			CookieName:                "affiliate",
			DefaultCommissionRate:     domain.FallbackCommissionRate,
			DefaultMinPayoutCents:     domain.FallbackMinPayoutCents,
			DefaultCookieDurationDays: domain.FallbackCookieDurationDays,
			LegacyApproveAlias:        legacyApproveAlias,
		},
	}
	log := logger.Nop()
	e := &env{
		db:        db,
		cfg:       cfg,
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
		uploader:  &fakeUploader{url: "https://cdn.test/"},
		audit:     repository.NewAuditLogRepository(db),
	}
	userRepo := repository.NewUserRepository(db)
	e.settings = NewSettingsService(repository.NewAffiliateSettingsRepository(db), cfg.Affiliate, log)
	e.links = NewLinkService(repository.NewAffiliateLinkRepository(db), log)
	clickRepo := repository.NewAffiliateClickRepository(db)
	e.clicks = NewClickService(e.links, clickRepo, e.publisher, e.metrics, log)
	e.attribution = NewAttributionService(e.links, repository.NewAffiliateAttributionRepository(db), e.settings, log)
	e.conversions = NewConversionService(repository.NewAffiliateConversionRepository(db), e.links, e.settings, e.audit,
		e.notifier, e.publisher, e.metrics, log, legacyApproveAlias)
	e.orders = NewOrderService(repository.NewInvoiceRepository(db), e.attribution, e.links, e.conversions, e.audit, log)
	e.payouts = NewPayoutService(repository.NewAffiliatePayoutRepository(db), userRepo, e.links, e.conversions, e.settings,
		e.audit, e.uploader, "receipts", e.notifier, e.publisher, e.metrics, log, legacyApproveAlias)
	e.stats = NewStatsService(e.links, clickRepo, e.conversions, e.payouts)
	e.auth = NewAuthService(cfg, userRepo, e.attribution, e.audit, log)
	return e
}
