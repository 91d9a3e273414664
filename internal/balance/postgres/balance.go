package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/leave-management/internal/balance"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
	"github.com/frahmantamala/leave-management/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) balance.RepositoryAPI {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) GetByUserID(ctx context.Context, userID int64) (*balanceDatamodel.LeaveBalance, error) {
	var b balanceDatamodel.LeaveBalance
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BalanceRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*balanceDatamodel.LeaveBalance, error) {
	var b balanceDatamodel.LeaveBalance
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BalanceRepository) CreateIfAbsent(ctx context.Context, b *balanceDatamodel.LeaveBalance) error {
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(b).Error
}

// Debit runs a single relative UPDATE so concurrent debits never overwrite each other.
func (r *BalanceRepository) Debit(ctx context.Context, userID int64, column string, amount int) (int64, error) {
	res := database.Conn(ctx, r.db).
		Model(&balanceDatamodel.LeaveBalance{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column+" - ?", amount),
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}
