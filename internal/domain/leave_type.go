package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type LeaveType string

const (
	LeaveAnnual      LeaveType = "ANNUAL"
	LeaveSick        LeaveType = "SICK"
	LeavePersonal    LeaveType = "PERSONAL"
	LeaveMaternity   LeaveType = "MATERNITY"
	LeavePaternity   LeaveType = "PATERNITY"
	LeaveEmergency   LeaveType = "EMERGENCY"
	LeaveBereavement LeaveType = "BEREAVEMENT"
	LeaveStudy       LeaveType = "STUDY"
)

var allLeaveTypes = []LeaveType{
	LeaveAnnual, LeaveSick, LeavePersonal, LeaveMaternity,
	LeavePaternity, LeaveEmergency, LeaveBereavement, LeaveStudy,
}

// DefaultAllocation is the per-year entitlement seeded for every employee.
// Types missing here get no ledger row.
type DefaultAllocation struct {
	LeaveType LeaveType
	Days      decimal.Decimal
}

var defaultAllocations = []DefaultAllocation{
	{LeaveType: LeaveAnnual, Days: decimal.NewFromInt(21)},
	{LeaveType: LeaveSick, Days: decimal.NewFromInt(10)},
	{LeaveType: LeavePersonal, Days: decimal.NewFromInt(5)},
	{LeaveType: LeaveEmergency, Days: decimal.NewFromInt(5)},
	{LeaveType: LeavePaternity, Days: decimal.NewFromInt(15)},
}

func AllLeaveTypes() []LeaveType {
	out := make([]LeaveType, len(allLeaveTypes))
	copy(out, allLeaveTypes)
	return out
}

func DefaultAllocations() []DefaultAllocation {
	out := make([]DefaultAllocation, len(defaultAllocations))
	copy(out, defaultAllocations)
	return out
}

// ParseLeaveType accepts the enum name in any case ("annual", "ANNUAL").
func ParseLeaveType(s string) (LeaveType, bool) {
	t := LeaveType(strings.ToUpper(strings.TrimSpace(s)))
	for _, lt := range allLeaveTypes {
		if lt == t {
			return lt, true
		}
	}
	return "", false
}

func (t LeaveType) DisplayName() string {
	return cases.Title(language.English).String(strings.ToLower(string(t)))
}
