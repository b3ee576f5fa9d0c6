package intent

import (
	"regexp"
	"sort"
	"strings"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/extraction"
)

const (
	fallbackConfidence = 0.6
	overrideConfidence = 0.9
)

// Rule is one row of the deterministic fallback table.
type Rule struct {
	Name       string
	Priority   int
	Roles      []actor.Role
	Match      func(message string) bool
	Intent     Intent
	Confidence float64
}

func (r Rule) allows(role actor.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func words(ws ...string) *regexp.Regexp {
	quoted := make([]string, len(ws))
	for i, w := range ws {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var (
	managementWords = words("pending", "approval", "approvals", "approve", "team", "requests")
	balanceWords    = words("balance", "balances", "remaining", "left", "how many", "check my")
	leaveVerbs      = words("apply", "request", "take", "book", "need", "want", "get", "off")
	leaveNouns      = words("leave", "vacation", "holiday", "day off", "days off", "pto", "annual", "sick", "personal", "paternity", "maternity", "bereavement", "study")
	strongPhrases   = words("i need", "i want", "i would like", "can i get", "apply for", "book", "take leave", "time off")
	statusWords     = words("status", "where is", "approved")
	cancelWords     = words("cancel", "withdraw", "remove", "call off")
	emergencyWords  = words("emergency", "urgent", "asap", "immediately")
	policyWords     = words("policy", "policies", "rule", "rules", "allowed", "maximum", "entitled", "entitlement")
	urgentWords     = words("urgent", "asap", "immediately")
	emergencyWord   = words("emergency")
)

// DefaultRules is evaluated lowest priority first; the first match wins.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "management_override",
			Priority:   10,
			Roles:      []actor.Role{actor.RoleManager, actor.RoleHRManager, actor.RoleHRAdmin},
			Match:      managementWords.MatchString,
			Intent:     ManagerQuery,
			Confidence: overrideConfidence,
		},
		{Name: "balance", Priority: 20, Match: balanceWords.MatchString, Intent: CheckBalance, Confidence: fallbackConfidence},
		{
			Name:     "apply",
			Priority: 30,
			Match: func(m string) bool {
				if strongPhrases.MatchString(m) {
					return true
				}
				if !extraction.HasDateOrDuration(m) {
					return false
				}
				return leaveVerbs.MatchString(m) || isLeaveStatement(m)
			},
			Intent:     ApplyLeave,
			Confidence: fallbackConfidence,
		},
		{Name: "status", Priority: 40, Match: statusWords.MatchString, Intent: CheckStatus, Confidence: fallbackConfidence},
		{Name: "cancel", Priority: 50, Match: cancelWords.MatchString, Intent: CancelLeave, Confidence: fallbackConfidence},
		{Name: "emergency", Priority: 60, Match: emergencyWords.MatchString, Intent: EmergencyLeave, Confidence: fallbackConfidence},
		{Name: "policy", Priority: 70, Match: policyWords.MatchString, Intent: LeavePolicy, Confidence: fallbackConfidence},
	}
}

// isLeaveStatement reports a bare leave request such as "3 days annual leave
// starting 2024-06-15"; wording owned by a later rule keeps that rule.
func isLeaveStatement(m string) bool {
	return leaveNouns.MatchString(m) &&
		!cancelWords.MatchString(m) &&
		!statusWords.MatchString(m) &&
		!emergencyWords.MatchString(m)
}

type RuleTable struct {
	rules []Rule
}

func NewRuleTable(rules []Rule) RuleTable {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	return RuleTable{rules: sorted}
}

// Match returns the first rule that fires, or GENERAL when none does.
func (t RuleTable) Match(message string, role actor.Role) (Intent, float64, string) {
	for _, r := range t.rules {
		if r.allows(role) && r.Match(message) {
			return r.Intent, r.Confidence, r.Name
		}
	}
	return General, fallbackConfidence, "general"
}

func urgencyOf(message string) Urgency {
	switch {
	case emergencyWord.MatchString(message):
		return UrgencyEmergency
	case urgentWords.MatchString(message):
		return UrgencyUrgent
	}
	return UrgencyNormal
}
