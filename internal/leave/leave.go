package leave

import (
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/balance"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

const dateLayout = "2006-01-02"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Request struct {
	ID              int64
	EmployeeID      int64
	LeaveType       balance.Category
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
	Status          Status
	ManagerID       *int64
	ManagerComments *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DaysCount is the inclusive calendar-day span of the request.
func (r *Request) DaysCount() int {
	return DaysCount(r.StartDate, r.EndDate)
}

// CanBeDecided fails with LEAVE_ALREADY_DECIDED once the request is terminal.
func (r *Request) CanBeDecided() error {
	if r.Status != StatusPending {
		return internal.ErrLeaveAlreadyDecided
	}
	return nil
}

const secondsPerDay = 24 * 60 * 60

// DaysCount counts calendar days from start to end inclusive. Times of day and
// zones are ignored so a one-day request is always 1.
func DaysCount(start, end time.Time) int {
	// both are UTC midnights, so Unix seconds divide evenly; time.Duration
	// would overflow past roughly 292 years
	s := civilDate(start).Unix() / secondsPerDay
	e := civilDate(end).Unix() / secondsPerDay
	return int(e-s) + 1
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type RequestResponse struct {
	ID              int64     `json:"id"`
	EmployeeID      int64     `json:"employee_id"`
	EmployeeName    string    `json:"employee_name,omitempty"`
	LeaveType       string    `json:"leave_type"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	DaysCount       int       `json:"days_count"`
	Reason          string    `json:"reason"`
	Status          Status    `json:"status"`
	ManagerID       *int64    `json:"manager_id,omitempty"`
	ManagerComments *string   `json:"manager_comments,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r *Request) ToResponse() RequestResponse {
	return RequestResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		LeaveType:       string(r.LeaveType),
		StartDate:       r.StartDate.Format(dateLayout),
		EndDate:         r.EndDate.Format(dateLayout),
		DaysCount:       r.DaysCount(),
		Reason:          r.Reason,
		Status:          r.Status,
		ManagerID:       r.ManagerID,
		ManagerComments: r.ManagerComments,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func ToDataModel(r *Request) *leaveDatamodel.LeaveRequest {
	return &leaveDatamodel.LeaveRequest{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		LeaveType:       string(r.LeaveType),
		StartDate:       civilDate(r.StartDate),
		EndDate:         civilDate(r.EndDate),
		Reason:          r.Reason,
		Status:          string(r.Status),
		ManagerID:       r.ManagerID,
		ManagerComments: r.ManagerComments,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func FromDataModel(r *leaveDatamodel.LeaveRequest) *Request {
	return &Request{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		LeaveType:       balance.Category(r.LeaveType),
		StartDate:       civilDate(r.StartDate),
		EndDate:         civilDate(r.EndDate),
		Reason:          r.Reason,
		Status:          Status(r.Status),
		ManagerID:       r.ManagerID,
		ManagerComments: r.ManagerComments,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type EmployeeDashboard struct {
	Balance  *balance.Balance  `json:"balance"`
	Requests []RequestResponse `json:"leave_requests"`
}

type ManagerDashboard struct {
	Pending []RequestResponse `json:"pending_requests"`
	Recent  []RequestResponse `json:"all_requests"`
}
