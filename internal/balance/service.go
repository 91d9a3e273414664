package balance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
)

type RepositoryAPI interface {
	// GetByUserID returns nil without error when the user has no balance row.
	GetByUserID(ctx context.Context, userID int64) (*balanceDatamodel.LeaveBalance, error)
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*balanceDatamodel.LeaveBalance, error)
	CreateIfAbsent(ctx context.Context, b *balanceDatamodel.LeaveBalance) error
	Debit(ctx context.Context, userID int64, column string, amount int) (int64, error)
}

type Service struct {
	repo      RepositoryAPI
	allowance Allowance
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, allowance Allowance, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		allowance: allowance,
		logger:    logger,
	}
}

// GetOrCreate returns the user's balance, provisioning the default allowance on
// first access. Concurrent first reads still end up with a single row.
func (s *Service) GetOrCreate(ctx context.Context, userID int64) (*Balance, error) {
	b, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get leave balance", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to get leave balance", err)
	}
	if b != nil {
		return FromDataModel(b), nil
	}
	return s.Provision(ctx, userID)
}

// Provision inserts the default allowance for userID unless a row already
// exists, then returns whichever row is stored.
func (s *Service) Provision(ctx context.Context, userID int64) (*Balance, error) {
	if err := s.repo.CreateIfAbsent(ctx, newDataModel(userID, s.allowance)); err != nil {
		s.logger.Error("failed to provision leave balance", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to provision leave balance", err)
	}

	b, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get leave balance", err)
	}
	if b == nil {
		return nil, internal.NewInternalError("leave balance missing after provisioning", fmt.Errorf("user %d", userID))
	}

	s.logger.Debug("leave balance ready", "user_id", userID)
	return FromDataModel(b), nil
}

// LockForDebit reads the balance row for update. It must run inside the
// transaction that will debit it.
func (s *Service) LockForDebit(ctx context.Context, userID int64) (*Balance, error) {
	if err := s.repo.CreateIfAbsent(ctx, newDataModel(userID, s.allowance)); err != nil {
		return nil, internal.NewInternalError("failed to provision leave balance", err)
	}

	b, err := s.repo.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		s.logger.Error("failed to lock leave balance", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to lock leave balance", err)
	}
	if b == nil {
		return nil, internal.NewInternalError("leave balance missing", fmt.Errorf("user %d", userID))
	}
	return FromDataModel(b), nil
}

// Debit subtracts amount from the category counter. It does not check the
// floor; callers validate sufficiency first.
func (s *Service) Debit(ctx context.Context, userID int64, c Category, amount int) error {
	column := c.Column()
	if column == "" {
		return internal.NewValidationFieldError("leave_type", fmt.Sprintf("unknown leave type %q", c), internal.ErrCodeInvalidLeaveType)
	}
	if amount <= 0 {
		return internal.NewValidationFieldError("days", "debit amount must be positive", internal.ErrCodeValidationFailed)
	}

	rows, err := s.repo.Debit(ctx, userID, column, amount)
	if err != nil {
		s.logger.Error("failed to debit leave balance", "user_id", userID, "category", c, "amount", amount, "error", err)
		return internal.NewInternalError("failed to debit leave balance", err)
	}
	if rows == 0 {
		return internal.NewInternalError("leave balance missing", fmt.Errorf("user %d", userID))
	}

	s.logger.Info("leave balance debited", "user_id", userID, "category", c, "amount", amount)
	return nil
}
