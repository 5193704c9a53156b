package repository

import (
	"context"

	"incorpo/internal/models"

	"gorm.io/gorm"
)

type AffiliateClickRepository struct {
	db *gorm.DB
}

func NewAffiliateClickRepository(db *gorm.DB) *AffiliateClickRepository {
	return &AffiliateClickRepository{db: db}
}

func (r *AffiliateClickRepository) Create(ctx context.Context, click *models.AffiliateClick) error {
	return r.db.WithContext(ctx).Create(click).Error
}

// ListByLinkID returns clicks for a link, newest first.
func (r *AffiliateClickRepository) ListByLinkID(ctx context.Context, linkID uint, page, limit int) ([]models.AffiliateClick, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AffiliateClick{}).Where("link_id = ?", linkID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.AffiliateClick
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *AffiliateClickRepository) CountByLinkID(ctx context.Context, linkID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.AffiliateClick{}).Where("link_id = ?", linkID).Count(&n).Error
	return n, err
}
