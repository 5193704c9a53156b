package repository

import (
	"context"
	"time"

	"incorpo/internal/models"

	"gorm.io/gorm"
)

// StatusTotal is the count and commission sum of conversions in one status.
type StatusTotal struct {
	Status          string `json:"status"`
	Count           int64  `json:"count"`
	CommissionCents int64  `json:"commission_cents"`
}

type AffiliateConversionRepository struct {
	db *gorm.DB
}

func NewAffiliateConversionRepository(db *gorm.DB) *AffiliateConversionRepository {
	return &AffiliateConversionRepository{db: db}
}

// Create inserts a conversion. A second conversion for the same order
// surfaces as gorm.ErrDuplicatedKey.
func (r *AffiliateConversionRepository) Create(ctx context.Context, c *models.AffiliateConversion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *AffiliateConversionRepository) GetByID(ctx context.Context, id uint) (*models.AffiliateConversion, error) {
	var c models.AffiliateConversion
	if err := r.db.WithContext(ctx).Preload("Link").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *AffiliateConversionRepository) ExistsForOrder(ctx context.Context, orderID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.AffiliateConversion{}).Where("order_id = ?", orderID).Count(&n).Error
	return n > 0, err
}

// List returns conversions newest first with the link and its owner joined.
func (r *AffiliateConversionRepository) List(ctx context.Context, status string, page, limit int) ([]models.AffiliateConversion, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AffiliateConversion{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.AffiliateConversion
	err := q.Preload("Link").Preload("Link.User").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&list).Error
	return list, total, err
}

// ListByLinkIDAsc returns a link's conversions oldest first.
func (r *AffiliateConversionRepository) ListByLinkIDAsc(ctx context.Context, linkID uint, page, limit int) ([]models.AffiliateConversion, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AffiliateConversion{}).Where("link_id = ?", linkID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.AffiliateConversion
	err := q.Order("created_at ASC, id ASC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// UpdateStatus sets the status only if the row still carries the expected
// version, and bumps the version. It returns the number of rows changed; zero
// means another writer got there first (or the row is gone).
func (r *AffiliateConversionRepository) UpdateStatus(ctx context.Context, id uint, expectedVersion int, status string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.AffiliateConversion{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// TotalsByLinkID groups a link's conversions by status.
func (r *AffiliateConversionRepository) TotalsByLinkID(ctx context.Context, linkID uint) ([]StatusTotal, error) {
	var totals []StatusTotal
	err := r.db.WithContext(ctx).Model(&models.AffiliateConversion{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(commission_cents), 0) as commission_cents").
		Where("link_id = ?", linkID).
		Group("status").
		Order("status ASC").
		Scan(&totals).Error
	return totals, err
}
