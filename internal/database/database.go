package database

import (
	"errors"

	"incorpo/config"
	"incorpo/internal/domain"
	"incorpo/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), Options())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// Options is the gorm configuration shared by every dialect. TranslateError
// turns unique-index violations into gorm.ErrDuplicatedKey.
func Options() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		TranslateError: true,
	}
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AffiliateLink{},
		&models.AffiliateClick{},
		&models.AffiliateConversion{},
		&models.AffiliateSettings{},
		&models.AffiliatePayout{},
		&models.AffiliateAttribution{},
		&models.Invoice{},
		&models.Notification{},
		&models.AuditLog{},
	)
}

// SeedAdmin creates the bootstrap admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no user with that email exists.
func SeedAdmin(db *gorm.DB, seed config.AdminSeed) error {
	if seed.Email == "" || seed.Password == "" {
		return nil
	}
	var existing models.User
	err := db.Where("email = ?", seed.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		Email:        seed.Email,
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}).Error
}
