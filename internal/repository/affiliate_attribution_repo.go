package repository

import (
	"context"
	"time"

	"incorpo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AffiliateAttributionRepository struct {
	db *gorm.DB
}

func NewAffiliateAttributionRepository(db *gorm.DB) *AffiliateAttributionRepository {
	return &AffiliateAttributionRepository{db: db}
}

// Upsert stores (or replaces) the link remembered for an email.
func (r *AffiliateAttributionRepository) Upsert(ctx context.Context, email string, linkID uint, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"link_id", "expires_at", "updated_at"}),
	}).Create(&models.AffiliateAttribution{Email: email, LinkID: linkID, ExpiresAt: expiresAt}).Error
}

// GetActiveByEmail returns the association for email if it has not expired at now.
func (r *AffiliateAttributionRepository) GetActiveByEmail(ctx context.Context, email string, now time.Time) (*models.AffiliateAttribution, error) {
	var a models.AffiliateAttribution
	err := r.db.WithContext(ctx).Where("email = ? AND expires_at > ?", email, now).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
