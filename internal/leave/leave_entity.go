package leave

import (
	"fmt"
	"time"

	"go-leave-assistant/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending         Status = "PENDING"
	StatusManagerApproved Status = "MANAGER_APPROVED"
	StatusHRApproved      Status = "HR_APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
	StatusWithdrawn       Status = "WITHDRAWN"
)

func AllStatuses() []Status {
	return []Status{
		StatusPending, StatusManagerApproved, StatusHRApproved,
		StatusRejected, StatusCancelled, StatusWithdrawn,
	}
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusHRApproved, StatusRejected, StatusCancelled, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// ActiveStatuses still occupy the employee's calendar.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusManagerApproved, StatusHRApproved}
}

// ReviewableStatuses are waiting on a manager or HR decision.
func ReviewableStatuses() []Status {
	return []Status{StatusPending, StatusManagerApproved}
}

const (
	CreatedViaChat = "chat"
	CreatedViaAPI  = "api"
)

// LeaveApplication rows are never deleted.
type LeaveApplication struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationNumber string           `gorm:"type:varchar(20);not null;uniqueIndex"`
	EmployeeID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_leave_applications_employee_dates"`
	LeaveType         domain.LeaveType `gorm:"type:varchar(20);not null"`
	StartDate         time.Time        `gorm:"type:date;not null;index:idx_leave_applications_employee_dates"`
	EndDate           time.Time        `gorm:"type:date;not null;index:idx_leave_applications_employee_dates"`
	TotalDays         decimal.Decimal  `gorm:"type:decimal(5,2);not null"`
	Reason            string           `gorm:"type:text"`

	Status            Status     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ManagerID         *uuid.UUID `gorm:"type:uuid;index"`
	ManagerComments   string     `gorm:"type:text"`
	ManagerApprovedAt *time.Time
	HRApproverID      *uuid.UUID `gorm:"column:hr_approver_id;type:uuid"`
	HRComments        string     `gorm:"column:hr_comments;type:text"`
	HRApprovedAt      *time.Time `gorm:"column:hr_approved_at"`
	RejectionReason   string     `gorm:"type:text"`
	FinalDecisionAt   *time.Time

	CreatedVia string `gorm:"type:varchar(10);not null;default:'chat'"`
	Urgency    string `gorm:"type:varchar(20);not null;default:'normal'"`
	Version    int    `gorm:"not null;default:1"`
	AppliedAt  time.Time
	UpdatedAt  time.Time
}

func (LeaveApplication) TableName() string {
	return "leave_applications"
}

// Year is the ledger year the application draws from.
func (a LeaveApplication) Year() int {
	return a.StartDate.Year()
}

func (a LeaveApplication) IsManagedBy(id uuid.UUID) bool {
	return a.ManagerID != nil && *a.ManagerID == id
}

func FormatApplicationNumber(year int, seq int64) string {
	return fmt.Sprintf("LA%d-%04d", year, seq)
}
