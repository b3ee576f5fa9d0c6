package leave

import (
	"time"

	"go-leave-assistant/internal/domain"

	"github.com/shopspring/decimal"
)

// CreateInput is an already normalized application.
type CreateInput struct {
	LeaveType  domain.LeaveType
	StartDate  time.Time
	EndDate    time.Time
	TotalDays  decimal.Decimal
	Reason     string
	Urgency    string
	CreatedVia string
}

type ApproveLeaveRequest struct {
	Comments string `json:"comments" binding:"max=1000"`
}

type RejectLeaveRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type ApplicationResponse struct {
	ID                string          `json:"id"`
	ApplicationNumber string          `json:"application_number"`
	EmployeeID        string          `json:"employee_id"`
	LeaveType         string          `json:"leave_type"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	TotalDays         decimal.Decimal `json:"total_days"`
	Reason            string          `json:"reason,omitempty"`
	Status            string          `json:"status"`
	ManagerID         *string         `json:"manager_id,omitempty"`
	ManagerComments   string          `json:"manager_comments,omitempty"`
	HRComments        string          `json:"hr_comments,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	Urgency           string          `json:"urgency"`
	CreatedVia        string          `json:"created_via"`
	AppliedAt         string          `json:"applied_at"`
	FinalDecisionAt   *string         `json:"final_decision_at,omitempty"`
}

const dateLayout = "2006-01-02"

func mapToResponse(a LeaveApplication) ApplicationResponse {
	resp := ApplicationResponse{
		ID:                a.ID.String(),
		ApplicationNumber: a.ApplicationNumber,
		EmployeeID:        a.EmployeeID.String(),
		LeaveType:         string(a.LeaveType),
		StartDate:         a.StartDate.Format(dateLayout),
		EndDate:           a.EndDate.Format(dateLayout),
		TotalDays:         a.TotalDays,
		Reason:            a.Reason,
		Status:            string(a.Status),
		ManagerComments:   a.ManagerComments,
		HRComments:        a.HRComments,
		RejectionReason:   a.RejectionReason,
		Urgency:           a.Urgency,
		CreatedVia:        a.CreatedVia,
		AppliedAt:         a.AppliedAt.Format(time.RFC3339),
	}
	if a.ManagerID != nil {
		v := a.ManagerID.String()
		resp.ManagerID = &v
	}
	if a.FinalDecisionAt != nil {
		v := a.FinalDecisionAt.Format(time.RFC3339)
		resp.FinalDecisionAt = &v
	}
	return resp
}

func mapToListResponse(apps []LeaveApplication) []ApplicationResponse {
	resp := make([]ApplicationResponse, len(apps))
	for i, a := range apps {
		resp[i] = mapToResponse(a)
	}
	return resp
}
