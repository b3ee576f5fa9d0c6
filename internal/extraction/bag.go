// Package extraction turns loosely extracted leave details into a typed,
// validated request. Nothing here returns an error: unparsable input is
// flagged on the result and left for the caller to ask about.
package extraction

import "strings"

// Bag is the untyped entity set produced by the classifier or by Extract,
// and carried between chat turns.
type Bag struct {
	StartDate         string  `json:"start_date,omitempty"`
	EndDate           string  `json:"end_date,omitempty"`
	RawDateText       string  `json:"raw_date_text,omitempty"`
	Duration          float64 `json:"duration,omitempty"`
	HalfDay           bool    `json:"half_day,omitempty"`
	LeaveType         string  `json:"leave_type,omitempty"`
	Reason            string  `json:"reason,omitempty"`
	ApplicationNumber string  `json:"application_number,omitempty"`
}

// Merge overlays the non-empty fields of newer on b. Fields absent from
// newer keep their previous value.
func (b Bag) Merge(newer Bag) Bag {
	out := b
	if s := strings.TrimSpace(newer.StartDate); s != "" {
		out.StartDate = s
	}
	if s := strings.TrimSpace(newer.EndDate); s != "" {
		out.EndDate = s
	}
	if s := strings.TrimSpace(newer.RawDateText); s != "" {
		out.RawDateText = s
	}
	if newer.Duration > 0 {
		out.Duration = newer.Duration
	}
	if newer.HalfDay {
		out.HalfDay = true
	}
	if s := strings.TrimSpace(newer.LeaveType); s != "" {
		out.LeaveType = s
	}
	if s := strings.TrimSpace(newer.Reason); s != "" {
		out.Reason = s
	}
	if s := strings.TrimSpace(newer.ApplicationNumber); s != "" {
		out.ApplicationNumber = s
	}
	return out
}

func (b Bag) IsEmpty() bool {
	return b == Bag{}
}
