package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ENV", "")
	t.Setenv("AFFILIATE_LEGACY_APPROVE_ALIAS", "")
	cfg := Load()

	assert.Equal(t, "development", cfg.Server.Env)
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, "affiliate", cfg.Affiliate.CookieName)
	assert.Equal(t, 10.0, cfg.Affiliate.DefaultCommissionRate)
	assert.Equal(t, int64(5000), cfg.Affiliate.DefaultMinPayoutCents)
	assert.Equal(t, 30, cfg.Affiliate.DefaultCookieDurationDays)
	assert.False(t, cfg.Affiliate.LegacyApproveAlias)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("AFFILIATE_LEGACY_APPROVE_ALIAS", "true")
	t.Setenv("AFFILIATE_DEFAULT_COMMISSION_RATE", "12.5")
	t.Setenv("AFFILIATE_CLICK_RATE_WINDOW", "30s")
	t.Setenv("AFFILIATE_DEFAULT_COOKIE_DAYS", "not-a-number")
	cfg := Load()

	assert.True(t, cfg.Server.IsProduction())
	assert.True(t, cfg.Affiliate.LegacyApproveAlias)
	assert.Equal(t, 12.5, cfg.Affiliate.DefaultCommissionRate)
	assert.Equal(t, 30*time.Second, cfg.Affiliate.ClickRateWindow)
	assert.Equal(t, 30, cfg.Affiliate.DefaultCookieDurationDays)
}
