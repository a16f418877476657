package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]rbacDatamodel.Permission, error)
	GetByID(ctx context.Context, id int64) (*rbacDatamodel.Permission, error)
	GetByRef(ctx context.Context, ref Ref) (*rbacDatamodel.Permission, error)
	Create(ctx context.Context, permission *rbacDatamodel.Permission) error
	Update(ctx context.Context, permission *rbacDatamodel.Permission) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, appErrors.NewInternalError("failed to list permissions", err)
	}
	return FromDataModels(rows), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Permission, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("failed to get permission", err)
	}
	return FromDataModel(row), nil
}

// GetBy resolves a natural-key descriptor to exactly one permission.
func (s *Service) GetBy(ctx context.Context, ref Ref) (*Permission, error) {
	if ref.IsZero() {
		return nil, appErrors.NewValidationFieldError("permission", "id or name is required", appErrors.ErrCodeValidationFailed)
	}
	row, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		return nil, s.mapError("failed to resolve permission", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureNameAvailable(ctx, dto.Name, 0); err != nil {
		return nil, err
	}

	row := &rbacDatamodel.Permission{Name: dto.Name}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.mapError("failed to create permission", err)
	}

	s.logger.Info("permission created", "permission_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("failed to get permission", err)
	}

	if err := s.ensureNameAvailable(ctx, dto.Name, id); err != nil {
		return nil, err
	}

	row.Name = dto.Name
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.mapError("failed to update permission", err)
	}

	s.logger.Info("permission updated", "permission_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) ensureNameAvailable(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByRef(ctx, Ref{Name: name})
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return appErrors.NewInternalError("failed to check permission name", err)
	case existing.ID != selfID:
		return appErrors.NewValidationFieldError("name", ErrDuplicate.Error(), appErrors.ErrCodeAlreadyExists)
	}
	return nil
}

func (s *Service) mapError(msg string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return appErrors.NewNotFoundError("permission not found", appErrors.ErrCodePermissionNotFound)
	case errors.Is(err, ErrDuplicate):
		return appErrors.NewValidationFieldError("name", ErrDuplicate.Error(), appErrors.ErrCodeAlreadyExists)
	}
	s.logger.Error(msg, "error", err)
	return appErrors.NewInternalError(msg, fmt.Errorf("permission: %w", err))
}
