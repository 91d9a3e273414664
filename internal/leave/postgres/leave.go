package postgres

import (
	"context"
	"errors"
	"time"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/database"
	"github.com/frahmantamala/leave-management/internal/leave"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) leave.RepositoryAPI {
	return &LeaveRepository{db: db}
}

func (r *LeaveRepository) Create(ctx context.Context, req *leaveDatamodel.LeaveRequest) error {
	return database.Conn(ctx, r.db).Create(req).Error
}

func (r *LeaveRepository) GetByID(ctx context.Context, id int64) (*leaveDatamodel.LeaveRequest, error) {
	return r.first(database.Conn(ctx, r.db), id)
}

func (r *LeaveRepository) GetByIDForUpdate(ctx context.Context, id int64) (*leaveDatamodel.LeaveRequest, error) {
	return r.first(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *LeaveRepository) first(db *gorm.DB, id int64) (*leaveDatamodel.LeaveRequest, error) {
	var req leaveDatamodel.LeaveRequest
	err := db.Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// Decide only matches pending rows, so a request can leave pending at most once
// even without the row lock.
func (r *LeaveRepository) Decide(ctx context.Context, id int64, status string, managerID int64, comments string) (int64, error) {
	res := database.Conn(ctx, r.db).
		Model(&leaveDatamodel.LeaveRequest{}).
		Where("id = ? AND status = ?", id, string(leave.StatusPending)).
		Updates(map[string]interface{}{
			"status":           status,
			"manager_id":       managerID,
			"manager_comments": comments,
			"updated_at":       time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *LeaveRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*leaveDatamodel.LeaveRequest, error) {
	var reqs []*leaveDatamodel.LeaveRequest
	err := database.Conn(ctx, r.db).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").Order("id DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *LeaveRepository) ListByStatus(ctx context.Context, status string) ([]*leaveDatamodel.LeaveRequest, error) {
	var reqs []*leaveDatamodel.LeaveRequest
	err := database.Conn(ctx, r.db).
		Where("status = ?", status).
		Order("created_at DESC").Order("id DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *LeaveRepository) ListRecent(ctx context.Context, limit int) ([]*leaveDatamodel.LeaveRequest, error) {
	var reqs []*leaveDatamodel.LeaveRequest
	err := database.Conn(ctx, r.db).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

func (r *LeaveRepository) EmployeeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var users []userDatamodel.User
	err := database.Conn(ctx, r.db).
		Select("id", "email", "first_name", "last_name").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		core := coreUser.User{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
		names[u.ID] = core.DisplayName()
	}
	return names, nil
}
