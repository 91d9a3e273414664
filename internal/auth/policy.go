package auth

import (
	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/user"
)

type Action string

const (
	ActionSubmitLeave          Action = "leave:submit"
	ActionViewOwnLeave         Action = "leave:view_own"
	ActionViewCalendar         Action = "calendar:view"
	ActionToggleOwnRole        Action = "user:toggle_role"
	ActionApproveLeave         Action = "leave:approve"
	ActionRejectLeave          Action = "leave:reject"
	ActionViewAnyLeave         Action = "leave:view_any"
	ActionViewManagerDashboard Action = "dashboard:manager"
)

// Authorize decides whether p may perform a. Roles are matched exhaustively;
// a role outside the known set is denied everything.
func Authorize(p *user.Principal, a Action) error {
	if p == nil {
		return internal.ErrUnauthenticated
	}

	switch p.Role {
	case user.RoleManager:
		return nil
	case user.RoleEmployee:
		if employeeMay(a) {
			return nil
		}
		return internal.ErrManagerRoleRequired
	default:
		return internal.ErrForbiddenAccess
	}
}

func employeeMay(a Action) bool {
	switch a {
	case ActionSubmitLeave, ActionViewOwnLeave, ActionViewCalendar, ActionToggleOwnRole:
		return true
	case ActionApproveLeave, ActionRejectLeave, ActionViewAnyLeave, ActionViewManagerDashboard:
		return false
	default:
		return false
	}
}

// Can is the boolean form of Authorize.
func Can(p *user.Principal, a Action) bool {
	return Authorize(p, a) == nil
}
