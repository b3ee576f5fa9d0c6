package actor

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleEmployee  Role = "employee"
	RoleManager   Role = "manager"
	RoleHRManager Role = "hr_manager"
	RoleHRAdmin   Role = "hr_admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleEmployee, RoleManager, RoleHRManager, RoleHRAdmin:
		return r, true
	default:
		return "", false
	}
}

func (r Role) IsHR() bool {
	return r == RoleHRManager || r == RoleHRAdmin
}

// IsReviewer reports whether the role may look at other people's leave.
func (r Role) IsReviewer() bool {
	return r == RoleManager || r.IsHR()
}

// Actor is the authenticated party behind a request. The core only reads it.
type Actor struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeCode string     `gorm:"type:varchar(50);uniqueIndex"`
	Name         string     `gorm:"type:varchar(100);not null"`
	Email        string     `gorm:"type:varchar(100);uniqueIndex"`
	Department   string     `gorm:"type:varchar(50)"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'employee'"`
	ManagerID    *uuid.UUID `gorm:"type:uuid;index"`
	IsActive     bool       `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Actor) TableName() string {
	return "employees"
}
