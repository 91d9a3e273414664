package balance

import "time"

type LeaveBalance struct {
	ID            int64     `gorm:"primaryKey"`
	UserID        int64     `gorm:"column:user_id;uniqueIndex;not null"`
	SickLeave     int       `gorm:"column:sick_leave;not null"`
	VacationLeave int       `gorm:"column:vacation_leave;not null"`
	PersonalLeave int       `gorm:"column:personal_leave;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}
