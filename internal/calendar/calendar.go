package calendar

import (
	"time"

	"github.com/frahmantamala/leave-management/internal/balance"
)

const (
	ColorVacation = "#3b82f6"
	ColorSick     = "#ef4444"
	ColorPersonal = "#8b5cf6"
)

const dateLayout = "2006-01-02"

// Event is one approved leave as rendered on the shared calendar. Start and
// End are inclusive ISO dates.
type Event struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Color      string `json:"color"`
	LeaveType  string `json:"leave_type"`
	EmployeeID int64  `json:"employee_id"`
}

// ApprovedLeave is the read model row the projection is built from.
type ApprovedLeave struct {
	ID         int64     `db:"id"`
	EmployeeID int64     `db:"employee_id"`
	LeaveType  string    `db:"leave_type"`
	StartDate  time.Time `db:"start_date"`
	EndDate    time.Time `db:"end_date"`
	FirstName  string    `db:"first_name"`
	Email      string    `db:"email"`
}

// ColorFor maps a category to its display color. Anything that is neither
// vacation nor sick renders as personal.
func ColorFor(c balance.Category) string {
	switch c {
	case balance.CategoryVacation:
		return ColorVacation
	case balance.CategorySick:
		return ColorSick
	default:
		return ColorPersonal
	}
}

// Project turns approved leaves into calendar events, preserving order.
func Project(leaves []ApprovedLeave) []Event {
	events := make([]Event, 0, len(leaves))
	for _, l := range leaves {
		events = append(events, ToEvent(l))
	}
	return events
}

func ToEvent(l ApprovedLeave) Event {
	category := balance.Category(l.LeaveType)

	who := l.FirstName
	if who == "" {
		who = l.Email
	}

	return Event{
		ID:         l.ID,
		Title:      who + " - " + category.Title(),
		Start:      l.StartDate.Format(dateLayout),
		End:        l.EndDate.Format(dateLayout),
		Color:      ColorFor(category),
		LeaveType:  l.LeaveType,
		EmployeeID: l.EmployeeID,
	}
}
