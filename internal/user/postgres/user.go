package postgres

import (
	"context"
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/user"
	"github.com/frahmantamala/user-rbac/internal/user"
	"github.com/frahmantamala/user-rbac/pkg/database"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.translate(ctx, u, database.Conn(ctx, r.db).Create(u).Error)
}

// Update writes every mutable column, including false booleans.
func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	err := database.Conn(ctx, r.db).Model(u).
		Select("username", "email", "password_hash", "is_active", "is_staff", "is_superuser").
		Updates(u).Error
	return r.translate(ctx, u, err)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) List(ctx context.Context) ([]userDatamodel.User, error) {
	var users []userDatamodel.User
	err := database.Conn(ctx, r.db).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return database.Conn(ctx, r.db).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := database.Conn(ctx, r.db).Where(query, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// translate turns a unique violation into the sentinel for the column that
// clashed. The driver error does not say which one, so the email is looked up again.
func (r *UserRepository) translate(ctx context.Context, u *userDatamodel.User, err error) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if other, lookupErr := r.GetByEmail(ctx, u.Email); lookupErr == nil && other.ID != u.ID {
		return user.ErrDuplicateEmail
	}
	return user.ErrDuplicateUsername
}
