package assistant

import "go-leave-assistant/internal/conversation"

type ChatRequest struct {
	Message string             `json:"message" binding:"required,max=2000"`
	State   conversation.State `json:"state"`
}

type ChatResult struct {
	Intent           string             `json:"intent"`
	Confidence       float64            `json:"confidence"`
	Urgency          string             `json:"urgency"`
	Source           string             `json:"classification_source"`
	Content          string             `json:"content"`
	FollowUpNeeded   bool               `json:"follow_up_needed"`
	ActionsPerformed []string           `json:"actions_performed"`
	NewApplicationID string             `json:"new_application_id,omitempty"`
	MissingFields    []string           `json:"missing_fields,omitempty"`
	IsContinuation   bool               `json:"is_continuation"`
	State            conversation.State `json:"state"`
}
