package leave

import (
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

const (
	maxReasonLength   = 2000
	maxCommentsLength = 1000
)

type SubmitLeaveDTO struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type DecisionDTO struct {
	Comments string `json:"comments"`
}

// submission is a SubmitLeaveDTO after parsing.
type submission struct {
	category balance.Category
	start    time.Time
	end      time.Time
	reason   string
}

// parse validates the payload. Field errors are reported together; the date
// order check runs only once both dates parse.
func (d SubmitLeaveDTO) parse() (*submission, *internal.AppError) {
	v := validation.NewValidator()
	v.Field("leave_type", d.LeaveType).Required().OneOf(balance.CategoryNames(), internal.ErrCodeInvalidLeaveType)
	v.Field("start_date", d.StartDate).Required().Date()
	v.Field("end_date", d.EndDate).Required().Date()
	v.Field("reason", d.Reason).Required().MaxLength(maxReasonLength)
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}

	category, _ := balance.ParseCategory(d.LeaveType)
	start, _ := validation.ParseDate(d.StartDate)
	end, _ := validation.ParseDate(d.EndDate)
	if appErr := validation.ValidateDateRange(start, end); appErr != nil {
		return nil, appErr
	}

	return &submission{
		category: category,
		start:    start,
		end:      end,
		reason:   strings.TrimSpace(d.Reason),
	}, nil
}

func (d DecisionDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("comments", d.Comments).MaxLength(maxCommentsLength)
	return v.Validate()
}
