package intent

import (
	"strings"

	"go-leave-assistant/internal/extraction"
)

type Intent string

const (
	CheckBalance   Intent = "CHECK_BALANCE"
	ApplyLeave     Intent = "APPLY_LEAVE"
	CheckStatus    Intent = "CHECK_STATUS"
	ModifyLeave    Intent = "MODIFY_LEAVE"
	CancelLeave    Intent = "CANCEL_LEAVE"
	LeavePolicy    Intent = "LEAVE_POLICY"
	EmergencyLeave Intent = "EMERGENCY_LEAVE"
	LeavePlanning  Intent = "LEAVE_PLANNING"
	ManagerQuery   Intent = "MANAGER_QUERY"
	General        Intent = "GENERAL"
)

var all = []Intent{
	CheckBalance, ApplyLeave, CheckStatus, ModifyLeave, CancelLeave,
	LeavePolicy, EmergencyLeave, LeavePlanning, ManagerQuery, General,
}

// aliases are names the oracle has been seen to answer with.
var aliases = map[string]Intent{
	"GENERAL_HR":     General,
	"FOLLOW_UP_INFO": ApplyLeave,
}

func All() []Intent {
	out := make([]Intent, len(all))
	copy(out, all)
	return out
}

// Parse resolves an intent name, including known aliases. Unknown names fail.
func Parse(s string) (Intent, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if alias, ok := aliases[name]; ok {
		return alias, true
	}
	for _, i := range all {
		if string(i) == name {
			return i, true
		}
	}
	return "", false
}

type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

const (
	SourceOracle   = "oracle"
	SourceFallback = "fallback"
)

type Result struct {
	Intent         Intent         `json:"intent"`
	Confidence     float64        `json:"confidence"`
	Urgency        Urgency        `json:"urgency"`
	Entities       extraction.Bag `json:"entities"`
	IsContinuation bool           `json:"is_continuation"`
	Source         string         `json:"source"`
}
