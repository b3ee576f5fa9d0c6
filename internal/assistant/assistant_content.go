package assistant

import (
	"fmt"
	"strings"
	"time"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/balance"
	"go-leave-assistant/internal/domain"
	"go-leave-assistant/internal/extraction"
	"go-leave-assistant/internal/leave"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var fieldPrompts = map[string]string{
	extraction.FieldStartDate: "Start date",
	extraction.FieldDateRange: "Duration or end date",
}

func typeLabel(t string) string {
	return domain.LeaveType(t).DisplayName()
}

func statusLabel(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(s, "_", " ")))
}

func dateRange(a leave.ApplicationResponse) string {
	start, err1 := time.Parse("2006-01-02", a.StartDate)
	end, err2 := time.Parse("2006-01-02", a.EndDate)
	if err1 != nil || err2 != nil {
		return a.StartDate + " - " + a.EndDate
	}
	return start.Format("Jan 02") + " - " + end.Format("Jan 02, 2006")
}

func renderBalances(a actor.Actor, snap balance.SnapshotResponse) string {
	if len(snap.Balances) == 0 {
		return fmt.Sprintf("Hi %s! I don't see any leave balances set up for you yet. Please contact HR to initialize your leave entitlements.", a.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Here are your leave balances for %d:\n\n", a.Name, snap.Year)
	for _, row := range snap.Balances {
		fmt.Fprintf(&b, "%s Leave:\n", row.DisplayName)
		fmt.Fprintf(&b, "  - Remaining: %s days\n", row.RemainingDays.String())
		fmt.Fprintf(&b, "  - Used: %s days\n", row.UsedDays.String())
		fmt.Fprintf(&b, "  - Total Allocated: %s days\n", row.TotalAllocated.String())
		if row.PendingDays.IsPositive() {
			fmt.Fprintf(&b, "  - Pending Approval: %s days\n", row.PendingDays.String())
		}
		b.WriteString("\n")
	}
	b.WriteString("Need to apply for leave? Just ask me!")
	return b.String()
}

func renderMissing(a actor.Actor, partial extraction.Bag, n extraction.Normalized, missing []string) string {
	var b strings.Builder
	if partial.IsEmpty() {
		fmt.Fprintf(&b, "Hi %s! I'd be happy to help you apply for leave. I need a bit more information:\n\n", a.Name)
		for i, f := range missing {
			fmt.Fprintf(&b, "%d. %s\n", i+1, fieldPrompts[f])
		}
		b.WriteString("\nFor example, you can say: 'I need 3 days of vacation leave from December 15-17 for a family trip'")
		return b.String()
	}

	b.WriteString("Great! I have some details for your leave application:\n\n")
	if n.StartDate != nil {
		fmt.Fprintf(&b, "- Start Date: %s\n", n.StartDate.Format("January 02, 2006"))
	} else if n.StartDateFailed {
		fmt.Fprintf(&b, "- I couldn't read the date %q\n", partial.StartDate)
	}
	if partial.Duration > 0 {
		fmt.Fprintf(&b, "- Duration: %s day(s)\n", n.TotalDays.String())
	}
	if partial.LeaveType != "" {
		fmt.Fprintf(&b, "- Leave Type: %s\n", n.LeaveType.DisplayName())
	}
	if n.Reason != "" {
		fmt.Fprintf(&b, "- Reason: %s\n", n.Reason)
	}
	b.WriteString("\nStill need:\n")
	for i, f := range missing {
		fmt.Fprintf(&b, "%d. %s\n", i+1, fieldPrompts[f])
	}
	b.WriteString("\nPlease provide the missing information so I can complete your leave application.")
	return b.String()
}

func renderCreated(a actor.Actor, app leave.ApplicationResponse) string {
	var b strings.Builder
	b.WriteString("Leave Application Submitted Successfully!\n\n")
	b.WriteString("Application Details:\n")
	fmt.Fprintf(&b, "  - Application Number: %s\n", app.ApplicationNumber)
	fmt.Fprintf(&b, "  - Leave Type: %s\n", typeLabel(app.LeaveType))
	fmt.Fprintf(&b, "  - Dates: %s\n", dateRange(app))
	fmt.Fprintf(&b, "  - Duration: %s day(s)\n", app.TotalDays.String())
	fmt.Fprintf(&b, "  - Reason: %s\n\n", app.Reason)
	if a.ManagerID != nil {
		b.WriteString("Your application has been sent to your manager for approval. You can check its status anytime by asking me.\n\n")
	} else {
		b.WriteString("Note: no manager is assigned to you. HR will review this application.\n\n")
	}
	fmt.Fprintf(&b, "Save your application number %s for future reference!", app.ApplicationNumber)
	return b.String()
}

func renderStatus(a actor.Actor, apps []leave.ApplicationResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Here's the status of your recent leave applications:\n\n", a.Name)
	for _, app := range apps {
		fmt.Fprintf(&b, "%s\n", app.ApplicationNumber)
		fmt.Fprintf(&b, "  - Type: %s\n", typeLabel(app.LeaveType))
		fmt.Fprintf(&b, "  - Dates: %s\n", dateRange(app))
		fmt.Fprintf(&b, "  - Status: %s\n", statusLabel(app.Status))
		if app.ManagerComments != "" {
			fmt.Fprintf(&b, "  - Manager Notes: %s\n", app.ManagerComments)
		}
		if app.HRComments != "" {
			fmt.Fprintf(&b, "  - HR Notes: %s\n", app.HRComments)
		}
		b.WriteString("\n")
	}
	b.WriteString("Need help with any of these applications? Just ask!")
	return b.String()
}

func renderModify(a actor.Actor, pending []leave.ApplicationResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! I can help you change an existing leave application. ", a.Name)
	if len(pending) == 0 {
		b.WriteString("You have no pending applications right now, and only pending applications can be changed.")
		return b.String()
	}
	b.WriteString("These applications are still pending and can be changed:\n\n")
	for _, app := range pending {
		fmt.Fprintf(&b, "- %s: %s, %s\n", app.ApplicationNumber, typeLabel(app.LeaveType), dateRange(app))
	}
	b.WriteString("\nTo change one, cancel it (for example 'Cancel application " + pending[0].ApplicationNumber + "') ")
	b.WriteString("and then tell me the new dates, duration and reason.")
	return b.String()
}

func renderCancellable(a actor.Actor, apps []leave.ApplicationResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! I can help you cancel a leave application. Here are your applications that can be cancelled:\n\n", a.Name)
	for _, app := range apps {
		fmt.Fprintf(&b, "%s\n", app.ApplicationNumber)
		fmt.Fprintf(&b, "  - Dates: %s\n", dateRange(app))
		fmt.Fprintf(&b, "  - Type: %s\n", typeLabel(app.LeaveType))
		fmt.Fprintf(&b, "  - Status: %s\n\n", statusLabel(app.Status))
	}
	fmt.Fprintf(&b, "Please provide the application number you'd like to cancel, for example 'Cancel application %s'.", apps[0].ApplicationNumber)
	return b.String()
}

func renderPolicy(a actor.Actor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Here are the key leave policy highlights:\n\n", a.Name)
	b.WriteString("Yearly allocations:\n")
	for _, alloc := range domain.DefaultAllocations() {
		fmt.Fprintf(&b, "  - %s Leave: %s days\n", alloc.LeaveType.DisplayName(), alloc.Days.String())
	}
	b.WriteString("  - Maternity, Bereavement and Study Leave: arranged with HR\n\n")
	b.WriteString("Application process:\n")
	b.WriteString("  - Days are reserved from your balance when you apply\n")
	b.WriteString("  - Your manager reviews first, then HR gives the final approval\n")
	b.WriteString("  - Pending or manager-approved leave can be cancelled and the days are returned\n\n")
	b.WriteString("Have a specific policy question? Feel free to ask!")
	return b.String()
}

func renderEmergency(a actor.Actor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! I understand this is an emergency. I'll flag your request as emergency leave.\n\n", a.Name)
	b.WriteString("Please provide:\n")
	b.WriteString("  - When your leave starts\n")
	b.WriteString("  - How many days you need\n")
	b.WriteString("  - A brief reason\n\n")
	b.WriteString("I'll submit it right away.")
	return b.String()
}

func renderPlanning(a actor.Actor, snap balance.SnapshotResponse, upcoming []leave.ApplicationResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Let's plan your time off.\n\nRemaining this year:\n", a.Name)
	for _, row := range snap.Balances {
		fmt.Fprintf(&b, "  - %s Leave: %s days\n", row.DisplayName, row.RemainingDays.String())
	}
	if len(upcoming) == 0 {
		b.WriteString("\nYou have no approved leave coming up.\n")
	} else {
		b.WriteString("\nYour upcoming approved leave:\n")
		for _, app := range upcoming {
			fmt.Fprintf(&b, "  - %s: %s (%s days)\n", typeLabel(app.LeaveType), dateRange(app), app.TotalDays.String())
		}
	}
	b.WriteString("\nTell me the dates you have in mind and I'll check them against your balance.")
	return b.String()
}

func renderPending(a actor.Actor, apps []leave.ApplicationResponse, names map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pending Leave Approvals for %s\n\n", a.Name)
	fmt.Fprintf(&b, "You have %d application(s) waiting for approval:\n\n", len(apps))
	for i, app := range apps {
		stage := "Manager Review"
		if app.Status == string(leave.StatusManagerApproved) {
			stage = "HR Review"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, app.ApplicationNumber)
		fmt.Fprintf(&b, "  - Employee: %s\n", nameOf(names, app.EmployeeID))
		fmt.Fprintf(&b, "  - Type: %s Leave\n", typeLabel(app.LeaveType))
		fmt.Fprintf(&b, "  - Dates: %s\n", dateRange(app))
		fmt.Fprintf(&b, "  - Duration: %s day(s)\n", app.TotalDays.String())
		if app.Reason != "" {
			fmt.Fprintf(&b, "  - Reason: %s\n", app.Reason)
		}
		fmt.Fprintf(&b, "  - Status: %s\n", stage)
		if app.Urgency == "emergency" || app.LeaveType == string(domain.LeaveEmergency) {
			b.WriteString("  - URGENT: emergency leave, requires immediate attention\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Approve or reject them from the leave applications API.")
	return b.String()
}

func renderTeam(apps []leave.ApplicationResponse, names map[string]string) string {
	var b strings.Builder
	b.WriteString("Team Leave Overview (next 30 days)\n\n")
	if len(apps) == 0 {
		b.WriteString("No approved leave scheduled for the next 30 days. Your team will be fully available!")
		return b.String()
	}
	for _, app := range apps {
		fmt.Fprintf(&b, "%s\n", nameOf(names, app.EmployeeID))
		fmt.Fprintf(&b, "  - %s\n", dateRange(app))
		fmt.Fprintf(&b, "  - %s Leave (%s days)\n\n", typeLabel(app.LeaveType), app.TotalDays.String())
	}
	b.WriteString("Consider workload distribution during these periods.")
	return b.String()
}

func renderManagerHelp(a actor.Actor, pending int) string {
	var b strings.Builder
	capacity := "manager"
	if a.Role.IsHR() {
		capacity = "HR"
	}
	fmt.Fprintf(&b, "Hi %s! As %s, I can help you with:\n\n", a.Name, capacity)
	b.WriteString("  - 'Show pending leave approvals' to review applications waiting for you\n")
	b.WriteString("  - 'Team leave overview' to see upcoming team leave\n\n")
	if pending > 0 {
		fmt.Fprintf(&b, "You have %d leave application(s) pending your approval!\n\n", pending)
	} else {
		b.WriteString("No pending leave approvals at the moment.\n\n")
	}
	b.WriteString("What would you like to check?")
	return b.String()
}

func renderLeaveHelp(a actor.Actor, snap balance.SnapshotResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! I can help you with leave management:\n\n", a.Name)
	b.WriteString("  - Check your leave balance: 'What's my leave balance?'\n")
	b.WriteString("  - Apply for leave: 'I need 3 days off from 15th June'\n")
	b.WriteString("  - Check application status: 'Where is my leave request?'\n")
	b.WriteString("  - Leave policy questions: 'How many sick days do I get?'\n")
	b.WriteString("  - Cancel a request: 'Cancel application LA2025-0001'\n\n")
	for _, t := range []domain.LeaveType{domain.LeaveAnnual, domain.LeaveSick} {
		if row, ok := snap.Find(string(t)); ok {
			fmt.Fprintf(&b, "%s Leave: %s days remaining\n", row.DisplayName, row.RemainingDays.String())
		}
	}
	b.WriteString("\nWhat can I help you with today?")
	return b.String()
}

func renderGeneralHelp(a actor.Actor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! I specialize in leave management. I can:\n\n", a.Name)
	b.WriteString("  - Check leave balances\n")
	b.WriteString("  - Apply for time off\n")
	b.WriteString("  - Track and cancel applications\n")
	b.WriteString("  - Explain the leave policy\n\n")
	b.WriteString("For other HR topics please contact the HR team. How can I assist you today?")
	return b.String()
}

func nameOf(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}
