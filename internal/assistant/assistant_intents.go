package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/balance"
	"go-leave-assistant/internal/domain"
	"go-leave-assistant/internal/extraction"
	"go-leave-assistant/internal/intent"
	"go-leave-assistant/internal/leave"
	"go-leave-assistant/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActionBalanceLookup        = "balance_lookup"
	ActionApplicationCreated   = "application_created"
	ActionBalanceUpdated       = "balance_updated"
	ActionStatusLookup         = "status_lookup"
	ActionApplicationCancelled = "application_cancelled"
	ActionBalanceReleased      = "balance_released"
	ActionPendingChecked       = "pending_approvals_check"
	ActionPendingRetrieved     = "pending_approvals_retrieved"
	ActionTeamOverview         = "team_overview_generated"
	ActionUpcomingLookup       = "upcoming_leave_lookup"

	teamOverviewDays = 30
)

// BalanceService is the part of the balance module the assistant reads.
type BalanceService interface {
	GetBalances(ctx context.Context, employeeID uuid.UUID, year int) (balance.SnapshotResponse, error)
}

// Directory resolves employee names for team views.
type Directory interface {
	FindByIDs(ctx context.Context, ids []string) ([]actor.Actor, error)
}

type intents struct {
	leaves    leave.Service
	balances  BalanceService
	directory Directory
	logger    *zap.Logger
}

func (h *intents) table() map[intent.Intent]HandlerFunc {
	return map[intent.Intent]HandlerFunc{
		intent.CheckBalance:   h.checkBalance,
		intent.ApplyLeave:     h.applyLeave,
		intent.CheckStatus:    h.checkStatus,
		intent.ModifyLeave:    h.modifyLeave,
		intent.CancelLeave:    h.cancelLeave,
		intent.LeavePolicy:    h.leavePolicy,
		intent.EmergencyLeave: h.emergencyLeave,
		intent.LeavePlanning:  h.leavePlanning,
		intent.ManagerQuery:   h.managerQuery,
		intent.General:        h.general,
	}
}

func (h *intents) checkBalance(ctx context.Context, req Request) (Outcome, error) {
	snap, err := h.balances.GetBalances(ctx, req.Actor.ID, req.Year)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Confidence:       0.95,
		ActionsPerformed: []string{ActionBalanceLookup},
		Content:          renderBalances(req.Actor, snap),
	}, nil
}

func (h *intents) applyLeave(ctx context.Context, req Request) (Outcome, error) {
	return h.apply(ctx, req, domain.LeaveAnnual)
}

// apply validates the carried entities and either asks for what is missing
// or creates the application. Validation failures from the store are
// reported back to the user as a follow-up.
func (h *intents) apply(ctx context.Context, req Request, defaultType domain.LeaveType) (Outcome, error) {
	n := extraction.Normalize(req.Entities, extraction.Options{
		DefaultLeaveType: defaultType,
		ReferenceYear:    req.Year,
	})
	if !n.Complete() {
		missing := n.Missing()
		return Outcome{
			Confidence:     0.8,
			FollowUpNeeded: true,
			MissingFields:  missing,
			Partial:        req.Entities,
			Content:        renderMissing(req.Actor, req.Entities, n, missing),
		}, nil
	}

	reason := n.Reason
	if reason == "" {
		reason = "Personal leave"
	}
	app, err := h.leaves.Create(ctx, req.Actor, leave.CreateInput{
		LeaveType:  n.LeaveType,
		StartDate:  *n.StartDate,
		EndDate:    *n.EndDate,
		TotalDays:  n.TotalDays,
		Reason:     reason,
		Urgency:    string(req.Urgency),
		CreatedVia: leave.CreatedViaChat,
	})
	if err != nil {
		if msg, ok := userFacing(err); ok {
			h.logger.Debug("apply leave refused", zap.String("employee_id", req.Actor.ID.String()), zap.Error(err))
			return Outcome{
				Confidence:     0.8,
				FollowUpNeeded: true,
				Partial:        req.Entities,
				Content:        fmt.Sprintf("Hi %s! I couldn't submit that application: %s. Please provide different dates or another leave type.", req.Actor.Name, msg),
			}, nil
		}
		return Outcome{}, err
	}

	return Outcome{
		Confidence:       0.95,
		ActionsPerformed: []string{ActionApplicationCreated, ActionBalanceUpdated},
		NewApplicationID: app.ID,
		Content:          renderCreated(req.Actor, app),
	}, nil
}

func (h *intents) checkStatus(ctx context.Context, req Request) (Outcome, error) {
	apps, err := h.leaves.ListForEmployee(ctx, req.Actor.ID, 5)
	if err != nil {
		return Outcome{}, err
	}
	if len(apps) == 0 {
		return Outcome{
			Confidence: 0.9,
			Content:    fmt.Sprintf("Hi %s! I don't see any leave applications in our system. Would you like to apply for leave?", req.Actor.Name),
		}, nil
	}
	return Outcome{
		Confidence:       0.95,
		ActionsPerformed: []string{ActionStatusLookup},
		Content:          renderStatus(req.Actor, apps),
	}, nil
}

func (h *intents) modifyLeave(ctx context.Context, req Request) (Outcome, error) {
	apps, err := h.leaves.ListCancellable(ctx, req.Actor.ID)
	if err != nil {
		return Outcome{}, err
	}
	var pending []leave.ApplicationResponse
	for _, a := range apps {
		if a.Status == string(leave.StatusPending) {
			pending = append(pending, a)
		}
	}
	return Outcome{
		Confidence:     0.8,
		FollowUpNeeded: true,
		Content:        renderModify(req.Actor, pending),
	}, nil
}

func (h *intents) cancelLeave(ctx context.Context, req Request) (Outcome, error) {
	if number := req.Entities.ApplicationNumber; number != "" {
		app, err := h.leaves.CancelByNumber(ctx, number, req.Actor)
		if err != nil {
			if msg, ok := userFacing(err); ok {
				return Outcome{
					Confidence:     0.8,
					FollowUpNeeded: true,
					Content:        fmt.Sprintf("Hi %s! I couldn't cancel %s: %s.", req.Actor.Name, number, msg),
				}, nil
			}
			return Outcome{}, err
		}
		return Outcome{
			Confidence:       0.95,
			ActionsPerformed: []string{ActionApplicationCancelled, ActionBalanceReleased},
			Content: fmt.Sprintf("Done, %s. Application %s is now %s and %s day(s) of %s leave were returned to your balance.",
				req.Actor.Name, app.ApplicationNumber, statusLabel(app.Status), app.TotalDays.String(), typeLabel(app.LeaveType)),
		}, nil
	}

	apps, err := h.leaves.ListCancellable(ctx, req.Actor.ID)
	if err != nil {
		return Outcome{}, err
	}
	if len(apps) == 0 {
		return Outcome{
			Confidence: 0.9,
			Content: fmt.Sprintf("Hi %s! I don't see any leave applications that can be cancelled. "+
				"Only pending or manager-approved applications can be cancelled.", req.Actor.Name),
		}, nil
	}
	return Outcome{
		Confidence:     0.8,
		FollowUpNeeded: true,
		Content:        renderCancellable(req.Actor, apps),
	}, nil
}

func (h *intents) leavePolicy(_ context.Context, req Request) (Outcome, error) {
	return Outcome{
		Confidence: 0.8,
		Content:    renderPolicy(req.Actor),
	}, nil
}

func (h *intents) emergencyLeave(ctx context.Context, req Request) (Outcome, error) {
	req.Urgency = intent.UrgencyEmergency
	if req.Entities.StartDate != "" {
		return h.apply(ctx, req, domain.LeaveEmergency)
	}
	return Outcome{
		Confidence:     0.9,
		FollowUpNeeded: true,
		MissingFields:  []string{extraction.FieldStartDate},
		Partial:        req.Entities,
		Content:        renderEmergency(req.Actor),
	}, nil
}

func (h *intents) leavePlanning(ctx context.Context, req Request) (Outcome, error) {
	snap, err := h.balances.GetBalances(ctx, req.Actor.ID, req.Year)
	if err != nil {
		return Outcome{}, err
	}
	upcoming, err := h.leaves.ListUpcomingApproved(ctx, req.Actor.ID, today(req.Now))
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Confidence:       0.8,
		FollowUpNeeded:   true,
		ActionsPerformed: []string{ActionBalanceLookup, ActionUpcomingLookup},
		Content:          renderPlanning(req.Actor, snap, upcoming),
	}, nil
}

var (
	pendingWords = []string{"pending", "approval", "approve", "waiting"}
	teamWords    = []string{"team", "overview", "calendar", "schedule"}
	leaveWords   = []string{"leave", "vacation", "holiday", "time off", "pto", "sick", "personal", "day off"}
)

func (h *intents) managerQuery(ctx context.Context, req Request) (Outcome, error) {
	if !req.Actor.Role.IsReviewer() {
		return Outcome{
			Confidence: 0.9,
			Content:    "I can only provide team leave information to managers and HR personnel.",
		}, nil
	}

	lower := strings.ToLower(req.Message)
	switch {
	case containsAny(lower, pendingWords):
		apps, err := h.leaves.ListPendingForReviewer(ctx, req.Actor)
		if err != nil {
			return Outcome{}, err
		}
		if len(apps) == 0 {
			return Outcome{
				Confidence:       0.95,
				ActionsPerformed: []string{ActionPendingChecked},
				Content:          fmt.Sprintf("Great news, %s! You have no pending leave applications to review at the moment.", req.Actor.Name),
			}, nil
		}
		return Outcome{
			Confidence:       0.95,
			ActionsPerformed: []string{ActionPendingRetrieved},
			Content:          renderPending(req.Actor, apps, h.names(ctx, apps)),
		}, nil

	case containsAny(lower, teamWords):
		from := today(req.Now)
		apps, err := h.leaves.ListTeamApproved(ctx, req.Actor, from, from.AddDate(0, 0, teamOverviewDays))
		if err != nil {
			return Outcome{}, err
		}
		out := Outcome{Confidence: 0.9, Content: renderTeam(apps, h.names(ctx, apps))}
		if len(apps) > 0 {
			out.ActionsPerformed = []string{ActionTeamOverview}
		}
		return out, nil

	default:
		apps, err := h.leaves.ListPendingForReviewer(ctx, req.Actor)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Confidence:     0.8,
			FollowUpNeeded: true,
			Content:        renderManagerHelp(req.Actor, len(apps)),
		}, nil
	}
}

func (h *intents) general(ctx context.Context, req Request) (Outcome, error) {
	out := Outcome{Confidence: 0.7, FollowUpNeeded: true}
	if !containsAny(strings.ToLower(req.Message), leaveWords) {
		out.Content = renderGeneralHelp(req.Actor)
		return out, nil
	}

	snap, err := h.balances.GetBalances(ctx, req.Actor.ID, req.Year)
	if err != nil {
		h.logger.Warn("general help balance lookup failed", zap.Error(err))
		snap = balance.SnapshotResponse{}
	}
	out.Content = renderLeaveHelp(req.Actor, snap)
	return out, nil
}

// names maps employee ids to display names. Lookup failures fall back to ids.
func (h *intents) names(ctx context.Context, apps []leave.ApplicationResponse) map[string]string {
	out := make(map[string]string, len(apps))
	if h.directory == nil || len(apps) == 0 {
		return out
	}
	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.EmployeeID)
	}
	people, err := h.directory.FindByIDs(ctx, ids)
	if err != nil {
		h.logger.Warn("employee name lookup failed", zap.Error(err))
		return out
	}
	for _, p := range people {
		out[p.ID.String()] = p.Name
	}
	return out
}

// userFacing reports whether err is a client-side refusal the user can act on.
func userFacing(err error) (string, bool) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus >= http.StatusInternalServerError {
		return "", false
	}
	return appErr.Message, true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
