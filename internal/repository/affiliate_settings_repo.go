package repository

import (
	"context"
	"time"

	"incorpo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AffiliateSettingsRepository struct {
	db *gorm.DB
}

func NewAffiliateSettingsRepository(db *gorm.DB) *AffiliateSettingsRepository {
	return &AffiliateSettingsRepository{db: db}
}

// Get returns the settings row; gorm.ErrRecordNotFound when it was never written.
func (r *AffiliateSettingsRepository) Get(ctx context.Context) (*models.AffiliateSettings, error) {
	var s models.AffiliateSettings
	if err := r.db.WithContext(ctx).First(&s, models.SettingsID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes the singleton row, overwriting every editable column.
func (r *AffiliateSettingsRepository) Upsert(ctx context.Context, s *models.AffiliateSettings) error {
	s.ID = models.SettingsID
	s.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"commission_rate", "min_payout_cents", "cookie_duration_days", "updated_at"}),
	}).Create(s).Error
}

// CreateIfMissing inserts the row only when none exists, leaving a concurrent
// writer's row untouched.
func (r *AffiliateSettingsRepository) CreateIfMissing(ctx context.Context, s *models.AffiliateSettings) error {
	s.ID = models.SettingsID
	s.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s).Error
}
