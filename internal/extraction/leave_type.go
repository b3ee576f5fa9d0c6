package extraction

import (
	"strings"
	"unicode"

	"go-leave-assistant/internal/domain"
)

// synonyms are checked in order; multi-word phrases come before the words they contain.
var synonyms = []struct {
	phrase    string
	leaveType domain.LeaveType
}{
	{"family emergency", domain.LeaveEmergency},
	{"emergency", domain.LeaveEmergency},
	{"bereavement", domain.LeaveBereavement},
	{"funeral", domain.LeaveBereavement},
	{"maternity", domain.LeaveMaternity},
	{"paternity", domain.LeavePaternity},
	{"study", domain.LeaveStudy},
	{"exam", domain.LeaveStudy},
	{"sick", domain.LeaveSick},
	{"medical", domain.LeaveSick},
	{"ill", domain.LeaveSick},
	{"doctor", domain.LeaveSick},
	{"personal", domain.LeavePersonal},
	{"annual", domain.LeaveAnnual},
	{"vacation", domain.LeaveAnnual},
	{"holiday", domain.LeaveAnnual},
	{"pto", domain.LeaveAnnual},
}

// ResolveLeaveType maps free text ("vacation", "Sick", "family emergency")
// onto the closed leave type set.
func ResolveLeaveType(s string) (domain.LeaveType, bool) {
	if lt, ok := domain.ParseLeaveType(s); ok {
		return lt, true
	}
	words := strings.Fields(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s))
	text := " " + strings.Join(words, " ") + " "
	for _, syn := range synonyms {
		if strings.Contains(text, " "+syn.phrase+" ") {
			return syn.leaveType, true
		}
	}
	return "", false
}
