package intent

import (
	"fmt"
	"strings"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/conversation"
)

const promptHistoryTurns = 5

// ActorContext is what the classifier may know about the sender.
type ActorContext struct {
	Name       string
	Role       actor.Role
	Department string
	Balances   []BalanceLine
}

type BalanceLine struct {
	LeaveType string
	Remaining string
}

const systemPrompt = `You classify messages sent to a leave management assistant.
Consider the conversation history: when the assistant just asked for details
(dates, leave type, duration) and the user answers, the intent is APPLY_LEAVE.
Extract dates even when written informally ("15th June", "tomorrow").

Allowed values for primary_intent:
%s

Answer with a single JSON object and nothing else:
{
  "primary_intent": "one of the allowed values",
  "confidence": 0.0,
  "urgency_level": "normal|urgent|emergency",
  "conversation_context": {"is_continuation": false},
  "extracted_entities": {
    "dates": {"start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD", "raw_date_text": ""},
    "duration": {"total_days": 0, "half_days": false},
    "leave_type": "annual|sick|personal|maternity|paternity|emergency|bereavement|study",
    "reason": "",
    "application_number": ""
  }
}`

func BuildPrompt(message string, ac ActorContext, history []conversation.Turn, continuationHint bool) Prompt {
	names := make([]string, 0, len(all))
	for _, i := range all {
		names = append(names, "- "+string(i))
	}

	var u strings.Builder
	fmt.Fprintf(&u, "Employee: %s\nRole: %s\nDepartment: %s\n", ac.Name, ac.Role, ac.Department)
	if len(ac.Balances) > 0 {
		u.WriteString("Current balances:\n")
		for _, b := range ac.Balances {
			fmt.Fprintf(&u, "- %s: %s days remaining\n", b.LeaveType, b.Remaining)
		}
	}

	recent := conversation.Recent(history)
	if len(recent) > promptHistoryTurns {
		recent = recent[len(recent)-promptHistoryTurns:]
	}
	if len(recent) > 0 {
		u.WriteString("\nConversation history:\n")
		for _, t := range recent {
			fmt.Fprintf(&u, "%s: %s\n", t.Role, t.Message)
		}
	}
	if continuationHint {
		u.WriteString("\nThe assistant's last message asked the user for missing information.\n")
	}
	fmt.Fprintf(&u, "\nCurrent message: %s\n", message)

	return Prompt{
		System: fmt.Sprintf(systemPrompt, strings.Join(names, "\n")),
		User:   u.String(),
	}
}
