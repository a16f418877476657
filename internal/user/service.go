package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	userDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/user"
	"github.com/frahmantamala/user-rbac/internal/core/events"
	"github.com/frahmantamala/user-rbac/internal/userrole"
)

type RepositoryAPI interface {
	Create(ctx context.Context, user *userDatamodel.User) error
	Update(ctx context.Context, user *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	List(ctx context.Context) ([]userDatamodel.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// RoleLinker creates the per-user role set that every signed-up user owns.
type RoleLinker interface {
	CreateForUser(ctx context.Context, userID int64) (*userrole.UserRole, error)
}

// Transactor runs fn with a ctx whose repository calls share one transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTransaction struct{}

func (noTransaction) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	repo      RepositoryAPI
	hasher    *PasswordHasher
	linker    RoleLinker
	tx        Transactor
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, hasher *PasswordHasher, linker RoleLinker, tx Transactor, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if tx == nil {
		tx = noTransaction{}
	}
	return &Service{
		repo:      repo,
		hasher:    hasher,
		linker:    linker,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateUser persists a new user. It does not create the user's role set;
// callers that need one go through Signup or CreateSuperuser.
func (s *Service) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	v := appErrors.ValidationErrors{}
	if strings.TrimSpace(params.Username) == "" {
		v.Errors = append(v.Errors, appErrors.ValidationError{Field: "username", Message: "User must have an username.", Code: string(appErrors.ErrCodeValidationFailed)})
	}
	if strings.TrimSpace(params.Email) == "" {
		v.Errors = append(v.Errors, appErrors.ValidationError{Field: "email", Message: "User must have an email address.", Code: string(appErrors.ErrCodeValidationFailed)})
	}
	if len(v.Errors) > 0 {
		return nil, appErrors.NewValidationError("Validation failed", appErrors.ErrCodeValidationFailed).WithDetails(v)
	}

	email := NormalizeEmail(params.Email)
	if err := s.ensureUnique(ctx, params.Username, email, 0); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, appErrors.NewInternalError("failed to hash password", err)
	}

	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	row := &userDatamodel.User{
		Username:     params.Username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     isActive,
		IsStaff:      params.IsStaff,
		IsSuperuser:  params.IsSuperuser,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.mapError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", row.ID, "username", row.Username)
	return FromDataModel(row), nil
}

func (s *Service) CreateSuperuser(ctx context.Context, username, email, password string) (*User, error) {
	return s.createWithRoleSet(ctx, CreateUserParams{
		Username:    username,
		Email:       email,
		Password:    password,
		IsStaff:     true,
		IsSuperuser: true,
	})
}

// Signup creates the user and its empty role set. Both rows are written in
// one transaction, so a failed link leaves no user behind.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.createWithRoleSet(ctx, CreateUserParams{
		Username: dto.Username,
		Email:    dto.Email,
		Password: dto.Password,
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.NewUserCreatedEvent(u.ID, u.Username)); err != nil {
		s.logger.Warn("failed to publish user event", "user_id", u.ID, "error", err)
	}

	return u, nil
}

func (s *Service) createWithRoleSet(ctx context.Context, params CreateUserParams) (*User, error) {
	var created *User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.CreateUser(ctx, params)
		if err != nil {
			return err
		}
		if _, err := s.linker.CreateForUser(ctx, u.ID); err != nil {
			s.logger.Error("failed to link role set, rolling back user", "username", params.Username, "error", err)
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		if _, ok := appErrors.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to commit user", "username", params.Username, "error", err)
		return nil, appErrors.NewInternalError("failed to create user", err)
	}
	return created, nil
}

// Authenticate resolves identifier as an email first and as a username
// second, then checks the password. Every failure is ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	row, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to resolve login identifier", "error", err)
			return nil, appErrors.NewInternalError("failed to authenticate", err)
		}
		// unknown identifiers still cost one bcrypt compare
		s.hasher.VerifyAbsent(password)
		return nil, appErrors.ErrInvalidCredentials
	}

	if !s.hasher.Verify(row.PasswordHash, password) || !row.IsActive {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.TouchLastLogin(ctx, row.ID, now); err != nil {
		s.logger.Warn("failed to stamp last login", "user_id", row.ID, "error", err)
	} else {
		row.LastLogin = &now
	}

	return FromDataModel(row), nil
}

func (s *Service) resolveIdentifier(ctx context.Context, identifier string) (*userDatamodel.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrNotFound
	}
	row, err := s.repo.GetByEmail(ctx, NormalizeEmail(identifier))
	if err == nil || !errors.Is(err, ErrNotFound) {
		return row, err
	}
	return s.repo.GetByUsername(ctx, identifier)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("failed to get user", err)
	}

	username := row.Username
	if dto.Username != nil {
		username = *dto.Username
	}
	email := row.Email
	if dto.Email != nil {
		email = NormalizeEmail(*dto.Email)
	}
	if err := s.ensureUnique(ctx, username, email, id); err != nil {
		return nil, err
	}

	row.Username = username
	row.Email = email
	if dto.Password != nil {
		hash, err := s.hasher.Hash(*dto.Password)
		if err != nil {
			return nil, appErrors.NewInternalError("failed to hash password", err)
		}
		row.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.mapError("failed to update user", err)
	}

	s.logger.Info("user updated", "user_id", id, "password_changed", dto.Password != nil)
	return FromDataModel(row), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("failed to get user", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.mapError("failed to list users", err)
	}
	users := make([]*User, 0, len(rows))
	for i := range rows {
		users = append(users, FromDataModel(&rows[i]))
	}
	return users, nil
}

func (s *Service) ensureUnique(ctx context.Context, username, email string, selfID int64) error {
	var details appErrors.ValidationErrors

	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return appErrors.NewInternalError("failed to check username", err)
	}
	if err == nil && existing.ID != selfID {
		details.Errors = append(details.Errors, appErrors.ValidationError{Field: "username", Message: ErrDuplicateUsername.Error(), Code: string(appErrors.ErrCodeAlreadyExists)})
	}

	existing, err = s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return appErrors.NewInternalError("failed to check email", err)
	}
	if err == nil && existing.ID != selfID {
		details.Errors = append(details.Errors, appErrors.ValidationError{Field: "email", Message: ErrDuplicateEmail.Error(), Code: string(appErrors.ErrCodeAlreadyExists)})
	}

	if len(details.Errors) > 0 {
		return appErrors.NewValidationError("Validation failed", appErrors.ErrCodeAlreadyExists).WithDetails(details)
	}
	return nil
}

func (s *Service) mapError(msg string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return appErrors.NewNotFoundError("user not found", appErrors.ErrCodeUserNotFound)
	case errors.Is(err, ErrDuplicateUsername):
		return appErrors.NewValidationFieldError("username", err.Error(), appErrors.ErrCodeAlreadyExists)
	case errors.Is(err, ErrDuplicateEmail):
		return appErrors.NewValidationFieldError("email", err.Error(), appErrors.ErrCodeAlreadyExists)
	}
	s.logger.Error(msg, "error", err)
	return appErrors.NewInternalError(msg, fmt.Errorf("user: %w", err))
}
