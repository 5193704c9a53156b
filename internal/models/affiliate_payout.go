package models

import "time"

type AffiliatePayout struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Method      string    `gorm:"size:50;not null" json:"method"`
	Status      string    `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, REJECTED
	Processed   bool      `gorm:"not null;default:false" json:"processed"`
	Notes       string    `gorm:"type:text" json:"notes"`
	AdminNotes  string    `gorm:"type:text" json:"admin_notes"`
	ReceiptURL  string    `gorm:"size:512" json:"receipt_url"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AffiliatePayout) TableName() string { return "affiliate_payouts" }
