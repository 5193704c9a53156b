package repository

import (
	"context"

	"incorpo/internal/domain"
	"incorpo/internal/models"

	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkPaid moves a PENDING invoice to PAID and, when conv is not nil, stores
// the conversion in the same transaction. It reports false, writing
// nothing, when the invoice was not PENDING.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, id uint, conv *models.AffiliateConversion) (bool, error) {
	paid := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND status = ?", id, domain.InvoiceStatusPending).
			Update("status", domain.InvoiceStatusPaid)
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		if conv != nil {
			if err := tx.Create(conv).Error; err != nil {
				return err
			}
		}
		paid = true
		return nil
	})
	return paid, err
}

// AttachConversion binds the invoice to conv's link and stores conv; either
// both happen or neither does. A second conversion for the invoice surfaces
// as gorm.ErrDuplicatedKey.
func (r *InvoiceRepository) AttachConversion(ctx context.Context, id uint, conv *models.AffiliateConversion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invoice{}).Where("id = ?", id).Update("affiliate_link_id", conv.LinkID).Error; err != nil {
			return err
		}
		return tx.Create(conv).Error
	})
}

func (r *InvoiceRepository) ListByUserID(ctx context.Context, userID uint, page, limit int) ([]models.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Invoice
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}
