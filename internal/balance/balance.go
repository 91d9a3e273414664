package balance

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
)

type Category string

const (
	CategorySick     Category = "sick"
	CategoryVacation Category = "vacation"
	CategoryPersonal Category = "personal"
)

var categories = []Category{CategorySick, CategoryVacation, CategoryPersonal}

func Categories() []Category {
	return append([]Category(nil), categories...)
}

// CategoryNames lists the accepted leave_type values in display order.
func CategoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return names
}

func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategorySick, CategoryVacation, CategoryPersonal:
		return c, true
	}
	return "", false
}

// Column is the leave_balances counter the category is stored in.
func (c Category) Column() string {
	switch c {
	case CategorySick:
		return "sick_leave"
	case CategoryVacation:
		return "vacation_leave"
	case CategoryPersonal:
		return "personal_leave"
	}
	return ""
}

// Title capitalises the category for display, e.g. "Vacation".
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Allowance is the starting balance of a newly provisioned user.
type Allowance struct {
	Sick     int
	Vacation int
	Personal int
}

func DefaultAllowance() Allowance {
	return Allowance{Sick: 10, Vacation: 15, Personal: 5}
}

// AllowanceFromConfig falls back to the defaults when nothing was configured.
func AllowanceFromConfig(cfg internal.LeaveConfig) Allowance {
	if cfg.DefaultSickDays == 0 && cfg.DefaultVacationDays == 0 && cfg.DefaultPersonalDays == 0 {
		return DefaultAllowance()
	}
	return Allowance{
		Sick:     cfg.DefaultSickDays,
		Vacation: cfg.DefaultVacationDays,
		Personal: cfg.DefaultPersonalDays,
	}
}

type Balance struct {
	ID        int64     `json:"-"`
	UserID    int64     `json:"user_id"`
	Sick      int       `json:"sick_leave"`
	Vacation  int       `json:"vacation_leave"`
	Personal  int       `json:"personal_leave"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available returns the remaining days for c. Unknown categories have none.
func (b *Balance) Available(c Category) int {
	switch c {
	case CategorySick:
		return b.Sick
	case CategoryVacation:
		return b.Vacation
	case CategoryPersonal:
		return b.Personal
	}
	return 0
}

func (b *Balance) Covers(c Category, days int) bool {
	return days <= b.Available(c)
}

type InsufficientBalanceDetails struct {
	Category  Category `json:"category"`
	Available int      `json:"available"`
	Requested int      `json:"requested"`
}

func NewInsufficientBalanceError(c Category, available, requested int) *internal.AppError {
	return internal.ErrInsufficientBalance.
		WithMessage(fmt.Sprintf("Insufficient %s leave balance. You have %d days available.", c, available)).
		WithDetails(InsufficientBalanceDetails{Category: c, Available: available, Requested: requested})
}

func newDataModel(userID int64, a Allowance) *balanceDatamodel.LeaveBalance {
	return &balanceDatamodel.LeaveBalance{
		UserID:        userID,
		SickLeave:     a.Sick,
		VacationLeave: a.Vacation,
		PersonalLeave: a.Personal,
	}
}

func FromDataModel(b *balanceDatamodel.LeaveBalance) *Balance {
	return &Balance{
		ID:        b.ID,
		UserID:    b.UserID,
		Sick:      b.SickLeave,
		Vacation:  b.VacationLeave,
		Personal:  b.PersonalLeave,
		UpdatedAt: b.UpdatedAt,
	}
}
