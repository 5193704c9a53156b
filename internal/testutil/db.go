// Package testutil provides an in-memory store for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"incorpo/internal/database"
	"incorpo/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenDB returns a migrated in-memory sqlite database private to the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), database.Options())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateUser inserts a user with the given email and role.
func CreateUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        email,
		Username:     strings.Split(email, "@")[0],
		PasswordHash: "hashed",
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
