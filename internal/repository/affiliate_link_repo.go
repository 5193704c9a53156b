package repository

import (
	"context"

	"incorpo/internal/models"

	"gorm.io/gorm"
)

type AffiliateLinkRepository struct {
	db *gorm.DB
}

func NewAffiliateLinkRepository(db *gorm.DB) *AffiliateLinkRepository {
	return &AffiliateLinkRepository{db: db}
}

// Create inserts a link. A taken user_id or code surfaces as
// gorm.ErrDuplicatedKey.
func (r *AffiliateLinkRepository) Create(ctx context.Context, link *models.AffiliateLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *AffiliateLinkRepository) GetByID(ctx context.Context, id uint) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	if err := r.db.WithContext(ctx).First(&link, id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *AffiliateLinkRepository) GetByUserID(ctx context.Context, userID uint) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *AffiliateLinkRepository) GetByCode(ctx context.Context, code string) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}
