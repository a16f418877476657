package postgres

import (
	"context"
	"errors"
	"fmt"

	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/role"
	rolePostgres "github.com/frahmantamala/user-rbac/internal/role/postgres"
	"github.com/frahmantamala/user-rbac/internal/userrole"
	"github.com/frahmantamala/user-rbac/pkg/database"
	"gorm.io/gorm"
)

type UserRoleRepository struct {
	db *gorm.DB
}

func NewUserRoleRepository(db *gorm.DB) userrole.RepositoryAPI {
	return &UserRoleRepository{db: db}
}

func orderedRoles(db *gorm.DB) *gorm.DB {
	return db.Order("roles.id ASC")
}

func (r *UserRoleRepository) CreateForUser(ctx context.Context, userID int64) (*rbacDatamodel.UserRole, error) {
	row := &rbacDatamodel.UserRole{UserID: userID}
	if err := database.Conn(ctx, r.db).Omit("Roles").Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, userrole.ErrAlreadyExists
		}
		return nil, err
	}
	return row, nil
}

func (r *UserRoleRepository) GetForUser(ctx context.Context, userID int64) (*rbacDatamodel.UserRole, error) {
	return loadForUser(database.Conn(ctx, r.db), userID)
}

// ReplaceRoles resolves every ref, then clears and re-attaches inside one
// transaction so a failed lookup keeps the previous set.
func (r *UserRoleRepository) ReplaceRoles(ctx context.Context, userID int64, refs []role.Ref) (*rbacDatamodel.UserRole, error) {
	var updated *rbacDatamodel.UserRole
	err := database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		row, err := loadForUser(tx, userID)
		if err != nil {
			return err
		}

		roles, err := rolePostgres.ResolveRefs(tx, refs)
		if err != nil {
			return err
		}

		if err := tx.Model(row).Association("Roles").Clear(); err != nil {
			return fmt.Errorf("clear user roles: %w", err)
		}
		if len(roles) > 0 {
			if err := tx.Model(row).Association("Roles").Append(roles); err != nil {
				return fmt.Errorf("attach user roles: %w", err)
			}
		}

		updated, err = loadForUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func loadForUser(db *gorm.DB, userID int64) (*rbacDatamodel.UserRole, error) {
	var row rbacDatamodel.UserRole
	err := db.Preload("Roles", orderedRoles).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userrole.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}
