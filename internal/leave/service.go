package leave

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/balance"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/database"
	"github.com/frahmantamala/leave-management/internal/metrics"
)

const defaultRecentLimit = 50

type RepositoryAPI interface {
	Create(ctx context.Context, r *leaveDatamodel.LeaveRequest) error
	// GetByID and GetByIDForUpdate return nil without error when the id does not resolve.
	GetByID(ctx context.Context, id int64) (*leaveDatamodel.LeaveRequest, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*leaveDatamodel.LeaveRequest, error)
	// Decide moves a pending request to status and reports how many rows changed.
	Decide(ctx context.Context, id int64, status string, managerID int64, comments string) (int64, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*leaveDatamodel.LeaveRequest, error)
	ListByStatus(ctx context.Context, status string) ([]*leaveDatamodel.LeaveRequest, error)
	ListRecent(ctx context.Context, limit int) ([]*leaveDatamodel.LeaveRequest, error)
	EmployeeNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// BalanceLedger is the subset of the balance service the lifecycle drives.
type BalanceLedger interface {
	GetOrCreate(ctx context.Context, userID int64) (*balance.Balance, error)
	LockForDebit(ctx context.Context, userID int64) (*balance.Balance, error)
	Debit(ctx context.Context, userID int64, c balance.Category, amount int) error
}

type Service struct {
	repo        RepositoryAPI
	balances    BalanceLedger
	txManager   database.TxManager
	publisher   events.Publisher
	metrics     *metrics.Collector
	recentLimit int
	logger      *slog.Logger
}

type ServiceOption func(*Service)

func WithMetrics(c *metrics.Collector) ServiceOption {
	return func(s *Service) {
		s.metrics = c
	}
}

func WithPublisher(p events.Publisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithRecentLimit caps the manager dashboard's recent request list.
func WithRecentLimit(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

func NewService(repo RepositoryAPI, balances BalanceLedger, txManager database.TxManager, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:        repo,
		balances:    balances,
		txManager:   txManager,
		recentLimit: defaultRecentLimit,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a pending request for the principal. The balance is checked but
// not touched; only approval debits it.
func (s *Service) Submit(ctx context.Context, principal *user.Principal, dto SubmitLeaveDTO) (*Request, error) {
	if err := auth.Authorize(principal, auth.ActionSubmitLeave); err != nil {
		return nil, err
	}

	sub, appErr := dto.parse()
	if appErr != nil {
		return nil, appErr
	}

	days := DaysCount(sub.start, sub.end)

	bal, err := s.balances.GetOrCreate(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if available := bal.Available(sub.category); days > available {
		s.logger.Info("leave request rejected for insufficient balance",
			"user_id", principal.ID,
			"leave_type", sub.category,
			"requested", days,
			"available", available)
		return nil, balance.NewInsufficientBalanceError(sub.category, available, days)
	}

	req := &Request{
		EmployeeID: principal.ID,
		LeaveType:  sub.category,
		StartDate:  sub.start,
		EndDate:    sub.end,
		Reason:     sub.reason,
		Status:     StatusPending,
	}
	data := ToDataModel(req)
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create leave request", "user_id", principal.ID, "error", err)
		return nil, internal.NewInternalError("failed to create leave request", err)
	}
	created := FromDataModel(data)

	s.logger.Info("leave request submitted",
		"request_id", created.ID,
		"user_id", principal.ID,
		"leave_type", created.LeaveType,
		"days", days)
	s.metrics.LeaveSubmitted(string(created.LeaveType))
	s.publish(ctx, events.NewLeaveSubmittedEvent(created.ID, created.EmployeeID, string(created.LeaveType), days))

	return created, nil
}

// Approve marks a pending request approved and debits the employee's balance
// by its day count in the same transaction. The balance is re-read under lock,
// so a request that no longer fits is refused without any change.
func (s *Service) Approve(ctx context.Context, principal *user.Principal, requestID int64, dto DecisionDTO) (*Request, error) {
	if err := auth.Authorize(principal, auth.ActionApproveLeave); err != nil {
		return nil, err
	}
	return s.decide(ctx, principal, requestID, dto, StatusApproved)
}

// Reject marks a pending request rejected. Balances are unaffected.
func (s *Service) Reject(ctx context.Context, principal *user.Principal, requestID int64, dto DecisionDTO) (*Request, error) {
	if err := auth.Authorize(principal, auth.ActionRejectLeave); err != nil {
		return nil, err
	}
	return s.decide(ctx, principal, requestID, dto, StatusRejected)
}

func (s *Service) decide(ctx context.Context, principal *user.Principal, requestID int64, dto DecisionDTO, to Status) (*Request, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	comments := strings.TrimSpace(dto.Comments)

	var decided *Request
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		data, err := s.repo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return internal.NewInternalError("failed to load leave request", err)
		}
		if data == nil {
			return internal.ErrLeaveRequestNotFound
		}

		req := FromDataModel(data)
		if err := req.CanBeDecided(); err != nil {
			return err
		}

		days := req.DaysCount()
		if to == StatusApproved {
			bal, err := s.balances.LockForDebit(ctx, req.EmployeeID)
			if err != nil {
				return err
			}
			if available := bal.Available(req.LeaveType); days > available {
				return balance.NewInsufficientBalanceError(req.LeaveType, available, days)
			}
		}

		rows, err := s.repo.Decide(ctx, req.ID, string(to), principal.ID, comments)
		if err != nil {
			return internal.NewInternalError("failed to update leave request", err)
		}
		if rows == 0 {
			return internal.ErrLeaveAlreadyDecided
		}

		if to == StatusApproved {
			if err := s.balances.Debit(ctx, req.EmployeeID, req.LeaveType, days); err != nil {
				return err
			}
		}

		updated, err := s.repo.GetByID(ctx, req.ID)
		if err != nil || updated == nil {
			return internal.NewInternalError("failed to reload leave request", err)
		}
		decided = FromDataModel(updated)
		return nil
	})
	if err != nil {
		s.logger.Warn("leave decision failed",
			"request_id", requestID,
			"manager_id", principal.ID,
			"status", to,
			"error", err)
		return nil, err
	}

	days := decided.DaysCount()
	s.logger.Info("leave request decided",
		"request_id", decided.ID,
		"employee_id", decided.EmployeeID,
		"manager_id", principal.ID,
		"status", to,
		"days", days)

	if to == StatusApproved {
		s.metrics.LeaveDecided(string(decided.LeaveType), string(to), days)
		// read models such as the calendar are refreshed before the caller sees the approval
		s.publishSync(ctx, events.NewLeaveApprovedEvent(decided.ID, decided.EmployeeID, principal.ID, string(decided.LeaveType), days))
	} else {
		s.metrics.LeaveDecided(string(decided.LeaveType), string(to), 0)
		s.publish(ctx, events.NewLeaveRejectedEvent(decided.ID, decided.EmployeeID, principal.ID, string(decided.LeaveType), days))
	}

	return decided, nil
}

// Get returns a single request to its owner or to a manager. Other callers see
// it as missing.
func (s *Service) Get(ctx context.Context, principal *user.Principal, requestID int64) (*RequestResponse, error) {
	if err := auth.Authorize(principal, auth.ActionViewOwnLeave); err != nil {
		return nil, err
	}

	data, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load leave request", err)
	}
	if data == nil {
		return nil, internal.ErrLeaveRequestNotFound
	}
	if data.EmployeeID != principal.ID && !auth.Can(principal, auth.ActionViewAnyLeave) {
		return nil, internal.ErrLeaveRequestNotFound
	}

	responses, err := s.toResponses(ctx, []*leaveDatamodel.LeaveRequest{data})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// ListOwn returns the principal's requests, newest first.
func (s *Service) ListOwn(ctx context.Context, principal *user.Principal) ([]RequestResponse, error) {
	if err := auth.Authorize(principal, auth.ActionViewOwnLeave); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByEmployee(ctx, principal.ID)
	if err != nil {
		s.logger.Error("failed to list leave requests", "user_id", principal.ID, "error", err)
		return nil, internal.NewInternalError("failed to list leave requests", err)
	}
	return s.toResponses(ctx, rows)
}

func (s *Service) EmployeeDashboard(ctx context.Context, principal *user.Principal) (*EmployeeDashboard, error) {
	requests, err := s.ListOwn(ctx, principal)
	if err != nil {
		return nil, err
	}

	bal, err := s.balances.GetOrCreate(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	return &EmployeeDashboard{Balance: bal, Requests: requests}, nil
}

// ManagerDashboard lists every pending request and the most recent requests
// across all employees, both newest first.
func (s *Service) ManagerDashboard(ctx context.Context, principal *user.Principal) (*ManagerDashboard, error) {
	if err := auth.Authorize(principal, auth.ActionViewManagerDashboard); err != nil {
		return nil, err
	}

	pending, err := s.repo.ListByStatus(ctx, string(StatusPending))
	if err != nil {
		s.logger.Error("failed to list pending leave requests", "error", err)
		return nil, internal.NewInternalError("failed to list pending leave requests", err)
	}

	recent, err := s.repo.ListRecent(ctx, s.recentLimit)
	if err != nil {
		s.logger.Error("failed to list recent leave requests", "error", err)
		return nil, internal.NewInternalError("failed to list recent leave requests", err)
	}

	pendingResp, err := s.toResponses(ctx, pending)
	if err != nil {
		return nil, err
	}
	recentResp, err := s.toResponses(ctx, recent)
	if err != nil {
		return nil, err
	}

	return &ManagerDashboard{Pending: pendingResp, Recent: recentResp}, nil
}

func (s *Service) toResponses(ctx context.Context, rows []*leaveDatamodel.LeaveRequest) ([]RequestResponse, error) {
	out := make([]RequestResponse, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	seen := make(map[int64]struct{}, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.EmployeeID]; !ok {
			seen[r.EmployeeID] = struct{}{}
			ids = append(ids, r.EmployeeID)
		}
	}

	names, err := s.repo.EmployeeNames(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to load employee names", err)
	}

	for _, r := range rows {
		resp := FromDataModel(r).ToResponse()
		resp.EmployeeName = names[r.EmployeeID]
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

// publishSync waits for the handlers. Their failures are logged and never
// change the outcome of the operation that raised the event.
func (s *Service) publishSync(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Warn("event handler failed", "event_type", event.EventType(), "error", err)
	}
}
