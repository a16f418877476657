package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/core/events"
	"github.com/frahmantamala/user-rbac/internal/permission"
)

// RepositoryAPI is implemented by role/postgres. Every method that takes
// permission refs resolves and attaches them atomically: either the whole
// set is written or nothing changes.
type RepositoryAPI interface {
	List(ctx context.Context) ([]rbacDatamodel.Role, error)
	GetByID(ctx context.Context, id int64) (*rbacDatamodel.Role, error)
	GetByRef(ctx context.Context, ref Ref) (*rbacDatamodel.Role, error)
	Create(ctx context.Context, role *rbacDatamodel.Role, perms []permission.Ref) error
	Update(ctx context.Context, id int64, name *string, perms *[]permission.Ref) (*rbacDatamodel.Role, error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, appErrors.NewInternalError("failed to list roles", err)
	}
	return FromDataModels(rows), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Role, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("failed to get role", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) GetBy(ctx context.Context, ref Ref) (*Role, error) {
	if ref.IsZero() {
		return nil, appErrors.NewValidationFieldError("role", "id or name is required", appErrors.ErrCodeValidationFailed)
	}
	row, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		return nil, s.mapError("failed to resolve role", err)
	}
	return FromDataModel(row), nil
}

// Create inserts the role and attaches the referenced permissions. An
// unresolved reference leaves no role behind.
func (s *Service) Create(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureNameAvailable(ctx, dto.Name, 0); err != nil {
		return nil, err
	}

	row := &rbacDatamodel.Role{Name: dto.Name}
	if err := s.repo.Create(ctx, row, dto.Permissions); err != nil {
		return nil, s.mapError("failed to create role", err)
	}

	created := FromDataModel(row)
	s.logger.Info("role created", "role_id", created.ID, "name", created.Name, "permissions", len(created.Permissions))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		if err := s.ensureNameAvailable(ctx, *dto.Name, id); err != nil {
			return nil, err
		}
	}

	row, err := s.repo.Update(ctx, id, dto.Name, dto.Permissions)
	if err != nil {
		return nil, s.mapError("failed to update role", err)
	}

	updated := FromDataModel(row)
	if dto.Permissions != nil {
		s.publishReplaced(ctx, updated)
	}
	return updated, nil
}

// ReplacePermissions swaps the role's permission set for the referenced one.
func (s *Service) ReplacePermissions(ctx context.Context, id int64, dto ReplacePermissionsDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.Update(ctx, id, nil, dto.Permissions)
	if err != nil {
		return nil, s.mapError("failed to replace role permissions", err)
	}

	updated := FromDataModel(row)
	s.publishReplaced(ctx, updated)
	return updated, nil
}

func (s *Service) publishReplaced(ctx context.Context, r *Role) {
	var actorID int64
	if p, ok := appErrors.PrincipalFromContext(ctx); ok {
		actorID = p.UserID
	}
	s.logger.Info("role permissions replaced", "role_id", r.ID, "permission_ids", r.PermissionIDs())
	if err := s.publisher.Publish(ctx, events.NewRolePermissionsReplacedEvent(r.ID, r.PermissionIDs(), actorID)); err != nil {
		s.logger.Warn("failed to publish role event", "role_id", r.ID, "error", err)
	}
}

func (s *Service) ensureNameAvailable(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByRef(ctx, Ref{Name: name})
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return appErrors.NewInternalError("failed to check role name", err)
	case existing.ID != selfID:
		return appErrors.NewValidationFieldError("name", ErrDuplicate.Error(), appErrors.ErrCodeAlreadyExists)
	}
	return nil
}

func (s *Service) mapError(msg string, err error) error {
	switch {
	case errors.Is(err, permission.ErrNotFound):
		return appErrors.NewUnresolvedReferenceError("permissions", err.Error(), appErrors.ErrCodePermissionNotFound)
	case errors.Is(err, ErrNotFound):
		return appErrors.NewNotFoundError("role not found", appErrors.ErrCodeRoleNotFound)
	case errors.Is(err, ErrDuplicate):
		return appErrors.NewValidationFieldError("name", ErrDuplicate.Error(), appErrors.ErrCodeAlreadyExists)
	}
	s.logger.Error(msg, "error", err)
	return appErrors.NewInternalError(msg, fmt.Errorf("role: %w", err))
}
