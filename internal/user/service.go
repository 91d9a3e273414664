package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/leave-management/internal/core/user"
)

type Repository interface {
	// GetByID returns nil without error when the user does not exist.
	GetByID(ctx context.Context, userID int64) (*userDatamodel.User, error)
	UpdateRole(ctx context.Context, userID int64, role string) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user by id", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(u), nil
}

// ToggleRole switches the caller between employee and manager. It exists so a
// single account can exercise both sides of the approval flow.
func (s *Service) ToggleRole(ctx context.Context, principal *coreUser.Principal) (*User, error) {
	if err := auth.Authorize(principal, auth.ActionToggleOwnRole); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	next := current.Role.Toggle()
	if err := s.repo.UpdateRole(ctx, principal.ID, string(next)); err != nil {
		s.logger.Error("failed to update role", "user_id", principal.ID, "error", err)
		return nil, internal.NewInternalError("failed to update role", err)
	}

	s.logger.Info("role switched", "user_id", principal.ID, "from", current.Role, "to", next)
	return s.GetByID(ctx, principal.ID)
}
