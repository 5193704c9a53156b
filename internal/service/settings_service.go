package service

import (
	"context"
	"errors"
	"fmt"

	"incorpo/config"
	"incorpo/internal/domain"
	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"

	"gorm.io/gorm"
)

// SettingsUpdate carries a partial settings change; nil fields are left as is.
type SettingsUpdate struct {
	CommissionRate     *float64
	MinPayoutCents     *int64
	CookieDurationDays *int
}

// SettingsService owns the affiliate_settings singleton. The row is created
// with defaults on first read; callers take a snapshot per operation.
type SettingsService struct {
	repo     *repository.AffiliateSettingsRepository
	defaults models.AffiliateSettings
	log      logger.Logger
}

func NewSettingsService(repo *repository.AffiliateSettingsRepository, cfg config.AffiliateConfig, log logger.Logger) *SettingsService {
	d := models.AffiliateSettings{
		CommissionRate:     cfg.DefaultCommissionRate,
		MinPayoutCents:     cfg.DefaultMinPayoutCents,
		CookieDurationDays: cfg.DefaultCookieDurationDays,
	}
	if d.CookieDurationDays <= 0 {
		d.CookieDurationDays = domain.FallbackCookieDurationDays
	}
	if d.CommissionRate < 0 || d.CommissionRate > 100 {
		d.CommissionRate = domain.FallbackCommissionRate
	}
	if d.MinPayoutCents < 0 {
		d.MinPayoutCents = domain.FallbackMinPayoutCents
	}
	return &SettingsService{repo: repo, defaults: d, log: log}
}

func (s *SettingsService) Get(ctx context.Context) (*models.AffiliateSettings, error) {
	st, err := s.repo.Get(ctx)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load affiliate settings: %w", err)
	}
	seed := s.defaults
	if err := s.repo.CreateIfMissing(ctx, &seed); err != nil {
		return nil, fmt.Errorf("init affiliate settings: %w", err)
	}
	st, err = s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load affiliate settings: %w", err)
	}
	return st, nil
}

// Snapshot never fails: when the row cannot be read it logs and returns the
// built-in defaults.
func (s *SettingsService) Snapshot(ctx context.Context) models.AffiliateSettings {
	st, err := s.Get(ctx)
	if err != nil {
		s.log.Warn("affiliate settings unavailable, using defaults", "error", err)
		return s.defaults
	}
	return *st
}

// CookieMaxAge is the attribution cookie lifetime in seconds.
func (s *SettingsService) CookieMaxAge(ctx context.Context) int {
	days := s.Snapshot(ctx).CookieDurationDays
	if days <= 0 {
		days = domain.FallbackCookieDurationDays
	}
	return days * domain.SecondsPerDay
}

func (s *SettingsService) Update(ctx context.Context, u SettingsUpdate) (*models.AffiliateSettings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	next := *current
	if u.CommissionRate != nil {
		next.CommissionRate = *u.CommissionRate
	}
	if u.MinPayoutCents != nil {
		next.MinPayoutCents = *u.MinPayoutCents
	}
	if u.CookieDurationDays != nil {
		next.CookieDurationDays = *u.CookieDurationDays
	}
	if err := validateSettings(next); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, &next); err != nil {
		return nil, fmt.Errorf("save affiliate settings: %w", err)
	}
	return s.repo.Get(ctx)
}

func validateSettings(st models.AffiliateSettings) error {
	if st.CommissionRate < 0 || st.CommissionRate > 100 {
		return fmt.Errorf("%w: commission rate must be between 0 and 100", ErrValidation)
	}
	if st.MinPayoutCents < 0 {
		return fmt.Errorf("%w: minimum payout cannot be negative", ErrValidation)
	}
	if st.CookieDurationDays < 1 || st.CookieDurationDays > 365 {
		return fmt.Errorf("%w: cookie duration must be between 1 and 365 days", ErrValidation)
	}
	return nil
}
