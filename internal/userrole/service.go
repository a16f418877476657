package userrole

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/core/events"
	"github.com/frahmantamala/user-rbac/internal/permission"
	"github.com/frahmantamala/user-rbac/internal/role"
)

type RepositoryAPI interface {
	CreateForUser(ctx context.Context, userID int64) (*rbacDatamodel.UserRole, error)
	GetForUser(ctx context.Context, userID int64) (*rbacDatamodel.UserRole, error)
	ReplaceRoles(ctx context.Context, userID int64, refs []role.Ref) (*rbacDatamodel.UserRole, error)
}

// PermissionQueryAPI is the read-side projection of permissions per user.
type PermissionQueryAPI interface {
	ListForUser(ctx context.Context, userID int64) ([]PermissionRow, error)
}

type Service struct {
	repo      RepositoryAPI
	query     PermissionQueryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, query PermissionQueryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		query:     query,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateForUser links a fresh, empty role set to the user.
func (s *Service) CreateForUser(ctx context.Context, userID int64) (*UserRole, error) {
	row, err := s.repo.CreateForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, appErrors.NewConflictError("user already has a role set", appErrors.ErrCodeAlreadyExists)
		}
		s.logger.Error("failed to create user role", "user_id", userID, "error", err)
		return nil, appErrors.NewInternalError("failed to create user role", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) GetForUser(ctx context.Context, userID int64) (*UserRole, error) {
	row, err := s.repo.GetForUser(ctx, userID)
	if err != nil {
		return nil, s.mapError("failed to get user role", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) ListRoles(ctx context.Context, userID int64) ([]role.Summary, error) {
	link, err := s.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return link.Roles, nil
}

// ReplaceRoles swaps the user's whole role set for the referenced roles.
func (s *Service) ReplaceRoles(ctx context.Context, userID int64, dto ReplaceRolesDTO) ([]role.Summary, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.ReplaceRoles(ctx, userID, *dto.Roles)
	if err != nil {
		return nil, s.mapError("failed to replace user roles", err)
	}

	link := FromDataModel(row)

	var actorID int64
	if p, ok := appErrors.PrincipalFromContext(ctx); ok {
		actorID = p.UserID
	}
	s.logger.Info("user roles replaced", "user_id", userID, "role_ids", link.RoleIDs(), "actor_id", actorID)
	if err := s.publisher.Publish(ctx, events.NewUserRolesReplacedEvent(userID, link.RoleIDs(), actorID)); err != nil {
		s.logger.Warn("failed to publish user role event", "user_id", userID, "error", err)
	}

	return link.Roles, nil
}

// ListPermissions returns every distinct permission the user holds through
// any of its roles, ordered by id.
func (s *Service) ListPermissions(ctx context.Context, userID int64) ([]*permission.Permission, error) {
	if _, err := s.GetForUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.query.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user permissions", "user_id", userID, "error", err)
		return nil, appErrors.NewInternalError("failed to list user permissions", err)
	}

	perms := make([]*permission.Permission, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, row.ToPermission())
	}
	return perms, nil
}

func (s *Service) mapError(msg string, err error) error {
	switch {
	case errors.Is(err, role.ErrNotFound):
		return appErrors.NewUnresolvedReferenceError("roles", err.Error(), appErrors.ErrCodeRoleNotFound)
	case errors.Is(err, ErrNotFound):
		return appErrors.NewNotFoundError("user role not found", appErrors.ErrCodeUserRoleNotFound)
	}
	s.logger.Error(msg, "error", err)
	return appErrors.NewInternalError(msg, fmt.Errorf("userrole: %w", err))
}
