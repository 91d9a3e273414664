package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLeaveSubmitted = "leave.submitted"
	EventTypeLeaveApproved  = "leave.approved"
	EventTypeLeaveRejected  = "leave.rejected"
)

// LeaveDecisionEvent is published once a request leaves the pending state.
type LeaveDecisionEvent struct {
	BaseEvent
	RequestID  int64  `json:"request_id"`
	EmployeeID int64  `json:"employee_id"`
	ManagerID  int64  `json:"manager_id"`
	LeaveType  string `json:"leave_type"`
	Days       int    `json:"days"`
}

func newLeaveDecisionEvent(eventType string, requestID, employeeID, managerID int64, leaveType string, days int) *LeaveDecisionEvent {
	return &LeaveDecisionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":  requestID,
				"employee_id": employeeID,
				"manager_id":  managerID,
				"leave_type":  leaveType,
				"days":        days,
			},
		},
		RequestID:  requestID,
		EmployeeID: employeeID,
		ManagerID:  managerID,
		LeaveType:  leaveType,
		Days:       days,
	}
}

func NewLeaveApprovedEvent(requestID, employeeID, managerID int64, leaveType string, days int) *LeaveDecisionEvent {
	return newLeaveDecisionEvent(EventTypeLeaveApproved, requestID, employeeID, managerID, leaveType, days)
}

func NewLeaveRejectedEvent(requestID, employeeID, managerID int64, leaveType string, days int) *LeaveDecisionEvent {
	return newLeaveDecisionEvent(EventTypeLeaveRejected, requestID, employeeID, managerID, leaveType, days)
}

type LeaveSubmittedEvent struct {
	BaseEvent
	RequestID  int64  `json:"request_id"`
	EmployeeID int64  `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	Days       int    `json:"days"`
}

func NewLeaveSubmittedEvent(requestID, employeeID int64, leaveType string, days int) *LeaveSubmittedEvent {
	return &LeaveSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeaveSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":  requestID,
				"employee_id": employeeID,
				"leave_type":  leaveType,
				"days":        days,
			},
		},
		RequestID:  requestID,
		EmployeeID: employeeID,
		LeaveType:  leaveType,
		Days:       days,
	}
}
