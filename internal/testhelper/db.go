// Package testhelper opens throwaway databases for repository and HTTP tests.
package testhelper

import (
	"fmt"

	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory database. The pool is pinned to a
// single connection because every new sqlite :memory: connection is a fresh
// empty database.
func NewSQLiteDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&userDatamodel.User{},
		&rbacDatamodel.Permission{},
		&rbacDatamodel.Role{},
		&rbacDatamodel.UserRole{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	return db, nil
}
