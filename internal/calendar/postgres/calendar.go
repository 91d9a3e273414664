package postgres

import (
	"context"

	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/jmoiron/sqlx"
)

const approvedLeaveQuery = `
SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date,
       COALESCE(u.first_name, '') AS first_name, u.email
FROM leave_requests lr
JOIN users u ON u.id = lr.employee_id
WHERE lr.status = ?
ORDER BY lr.start_date ASC, lr.id ASC`

type Reader struct {
	db *sqlx.DB
}

func NewReader(db *sqlx.DB) calendar.ReaderAPI {
	return &Reader{db: db}
}

func (r *Reader) ListApproved(ctx context.Context) ([]calendar.ApprovedLeave, error) {
	rows := []calendar.ApprovedLeave{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(approvedLeaveQuery), "approved"); err != nil {
		return nil, err
	}
	return rows, nil
}
