package events

import "time"

const (
	LeaveStatusChangedTopic     = "leave.application.lifecycle.v1"
	LeaveStatusChangedEventType = "leave.application.status_changed"
	LeaveApplicationAggregate   = "leave_application"
)

// LeaveStatusChangedEvent is written to the outbox in the same transaction
// as the status change. FromStatus is empty for a new application.
type LeaveStatusChangedEvent struct {
	EventType         string    `json:"event_type"`
	ApplicationID     string    `json:"application_id"`
	ApplicationNumber string    `json:"application_number"`
	EmployeeID        string    `json:"employee_id"`
	ManagerID         string    `json:"manager_id,omitempty"`
	ActorID           string    `json:"actor_id"`
	LeaveType         string    `json:"leave_type"`
	TotalDays         string    `json:"total_days"`
	FromStatus        string    `json:"from_status,omitempty"`
	ToStatus          string    `json:"to_status"`
	Urgency           string    `json:"urgency,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}
