package repository

import (
	"context"
	"time"

	"incorpo/internal/models"

	"gorm.io/gorm"
)

type AffiliatePayoutRepository struct {
	db *gorm.DB
}

func NewAffiliatePayoutRepository(db *gorm.DB) *AffiliatePayoutRepository {
	return &AffiliatePayoutRepository{db: db}
}

func (r *AffiliatePayoutRepository) Create(ctx context.Context, p *models.AffiliatePayout) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *AffiliatePayoutRepository) GetByID(ctx context.Context, id uint) (*models.AffiliatePayout, error) {
	var p models.AffiliatePayout
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns payouts newest first with the receiving user joined.
func (r *AffiliatePayoutRepository) List(ctx context.Context, status string, page, limit int) ([]models.AffiliatePayout, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AffiliatePayout{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.AffiliatePayout
	err := q.Preload("User").Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *AffiliatePayoutRepository) ListByUserID(ctx context.Context, userID uint, page, limit int) ([]models.AffiliatePayout, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AffiliatePayout{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.AffiliatePayout
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// Acknowledge flips processed to true for the caller's own unprocessed
// payout. The where-clause makes this at most once per payout.
func (r *AffiliatePayoutRepository) Acknowledge(ctx context.Context, id, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.AffiliatePayout{}).
		Where("id = ? AND user_id = ? AND processed = ?", id, userID, false).
		Updates(map[string]interface{}{"processed": true, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *AffiliatePayoutRepository) UpdateStatus(ctx context.Context, id uint, status, adminNotes string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.AffiliatePayout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "admin_notes": adminNotes, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *AffiliatePayoutRepository) SetReceiptURL(ctx context.Context, id uint, url string) error {
	return r.db.WithContext(ctx).Model(&models.AffiliatePayout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"receipt_url": url, "updated_at": time.Now()}).Error
}

// SumByUser totals a user's payouts in the given statuses.
func (r *AffiliatePayoutRepository) SumByUser(ctx context.Context, userID uint, statuses ...string) (int64, error) {
	var total struct{ Total int64 }
	err := r.db.WithContext(ctx).Model(&models.AffiliatePayout{}).
		Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("user_id = ? AND status IN ?", userID, statuses).
		Scan(&total).Error
	return total.Total, err
}
