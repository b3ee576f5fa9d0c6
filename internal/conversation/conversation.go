// Package conversation detects when a chat message answers a question the
// assistant asked, and carries the partial leave details across turns.
package conversation

import (
	"sort"
	"strings"
	"time"

	"go-leave-assistant/internal/extraction"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	MaxTurns = 10
)

// markers are phrases the assistant uses when it asks for missing details.
var markers = []string{
	"need a bit more information",
	"please provide",
	"what type of leave",
	"when would you like",
	"how many days",
	"still need",
}

type Turn struct {
	Role      string    `json:"role" binding:"required,oneof=user assistant"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// State is owned by the caller and sent back with every message.
type State struct {
	Turns         []Turn         `json:"turns"`
	Confirmed     extraction.Bag `json:"confirmed"`
	AskedFields   []string       `json:"asked_fields,omitempty"`
	PendingIntent string         `json:"pending_intent,omitempty"`
}

type Continuity struct {
	IsContinuation bool
	Merged         extraction.Bag
	LastAssistant  string
	History        []Turn
}

// Recent returns at most the last MaxTurns turns in chronological order.
func Recent(turns []Turn) []Turn {
	sorted := make([]Turn, len(turns))
	copy(sorted, turns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	if len(sorted) > MaxTurns {
		sorted = sorted[len(sorted)-MaxTurns:]
	}
	return sorted
}

// AsksForInformation reports whether an assistant message requests missing details.
func AsksForInformation(message string) bool {
	lower := strings.ToLower(message)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Track decides whether the new message continues an open question and
// merges its entities into the carried bag when it does.
func Track(state State, extracted extraction.Bag) Continuity {
	history := Recent(state.Turns)
	c := Continuity{Merged: extracted, History: history}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant {
			c.LastAssistant = history[i].Message
			break
		}
	}

	if c.LastAssistant != "" && AsksForInformation(c.LastAssistant) {
		c.IsContinuation = true
		c.Merged = state.Confirmed.Merge(extracted)
	}
	return c
}

// Append records a turn and trims the history.
func (s State) Append(role, message string, at time.Time) State {
	out := s
	out.Turns = Recent(append(append([]Turn(nil), s.Turns...), Turn{Role: role, Message: message, Timestamp: at}))
	return out
}
