package auth

import (
	"context"
	"errors"
	"log/slog"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/user"
)

// UserAPI is the slice of the credential store that token auth needs.
type UserAPI interface {
	Authenticate(ctx context.Context, identifier, password string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	users       UserAPI
	tokens      TokenGeneratorAPI
	revocations RevocationStore
	logger      *slog.Logger
}

// NewService creates a new auth service
func NewService(users UserAPI, tokens TokenGeneratorAPI, revocations RevocationStore, logger *slog.Logger) *Service {
	if revocations == nil {
		revocations = NewMemoryRevocationStore()
	}
	return &Service{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
	}
}

// Login checks the credentials and issues a token pair. Bad credentials are
// reported as a 400 without saying which part was wrong.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return TokenPair{}, err
	}

	u, err := s.users.Authenticate(ctx, dto.Username, dto.Password)
	if err != nil {
		return TokenPair{}, err
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return s.issue(u)
}

// Refresh trades a valid refresh token for a new pair and revokes the old
// refresh token.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO) (TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return TokenPair{}, err
	}

	claims, err := s.tokens.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return TokenPair{}, err
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.revocations.Revoke(ctx, claims.ID, claims.remaining()); err != nil {
		return TokenPair{}, appErrors.NewInternalError("failed to rotate refresh token", err)
	}

	return s.issue(u)
}

// Authorize validates an access token and returns the caller it belongs to.
func (s *Service) Authorize(ctx context.Context, accessToken string) (*appErrors.Principal, error) {
	if accessToken == "" {
		return nil, appErrors.ErrMissingToken
	}

	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return nil, err
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &appErrors.Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		TokenID:     claims.ID,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}, nil
}

// Logout revokes the access token presented with the request.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return err
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.remaining()); err != nil {
		return appErrors.NewInternalError("failed to revoke token", err)
	}
	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

func (s *Service) issue(u *user.User) (TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		return TokenPair{}, appErrors.NewInternalError("failed to issue token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID, u.Username)
	if err != nil {
		return TokenPair{}, appErrors.NewInternalError("failed to issue token", err)
	}
	return TokenPair{Token: access, RefreshToken: refresh}, nil
}

func (s *Service) ensureNotRevoked(ctx context.Context, claims *Claims) error {
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("revocation lookup failed", "error", err)
		return appErrors.NewInternalError("failed to verify token", err)
	}
	if revoked {
		return appErrors.ErrTokenRevoked
	}
	return nil
}

func (s *Service) activeUser(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) && appErr.Type == appErrors.ErrorTypeNotFound {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActiveUser() {
		return nil, appErrors.ErrUserInactive
	}
	return u, nil
}
