package leave

import (
	"go-leave-assistant/internal/actor"
	leaveerrors "go-leave-assistant/internal/leave/errors"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// RoleClass is the capacity an actor acts in for one application.
type RoleClass string

const (
	ClassOwner   RoleClass = "owner"
	ClassManager RoleClass = "manager"
	ClassHR      RoleClass = "hr"
)

type LedgerEffect string

const (
	EffectNone    LedgerEffect = "none"
	EffectCommit  LedgerEffect = "commit"
	EffectRelease LedgerEffect = "release"
)

type Transition struct {
	From   Status
	Action Action
	Class  RoleClass
	To     Status
	Effect LedgerEffect
}

type transitionKey struct {
	from   Status
	action Action
	class  RoleClass
}

var transitions = []Transition{
	{From: StatusPending, Action: ActionApprove, Class: ClassManager, To: StatusManagerApproved, Effect: EffectNone},
	{From: StatusPending, Action: ActionApprove, Class: ClassHR, To: StatusHRApproved, Effect: EffectCommit},
	{From: StatusManagerApproved, Action: ActionApprove, Class: ClassHR, To: StatusHRApproved, Effect: EffectCommit},
	{From: StatusPending, Action: ActionReject, Class: ClassManager, To: StatusRejected, Effect: EffectRelease},
	{From: StatusPending, Action: ActionReject, Class: ClassHR, To: StatusRejected, Effect: EffectRelease},
	{From: StatusManagerApproved, Action: ActionReject, Class: ClassManager, To: StatusRejected, Effect: EffectRelease},
	{From: StatusManagerApproved, Action: ActionReject, Class: ClassHR, To: StatusRejected, Effect: EffectRelease},
	{From: StatusPending, Action: ActionCancel, Class: ClassOwner, To: StatusCancelled, Effect: EffectRelease},
	{From: StatusManagerApproved, Action: ActionCancel, Class: ClassOwner, To: StatusWithdrawn, Effect: EffectRelease},
}

var transitionTable = func() map[transitionKey]Transition {
	m := make(map[transitionKey]Transition, len(transitions))
	for _, t := range transitions {
		m[transitionKey{from: t.From, action: t.Action, class: t.Class}] = t
	}
	return m
}()

// Transitions returns a copy of the allowed transitions.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// Authorize checks who may act on app before any state is consulted.
// Nobody reviews their own application; managers only review their reports.
func Authorize(app LeaveApplication, a actor.Actor, action Action) (RoleClass, error) {
	switch action {
	case ActionCancel:
		if app.EmployeeID != a.ID {
			return "", leaveerrors.ErrNotAuthorized
		}
		return ClassOwner, nil
	case ActionApprove, ActionReject:
		if app.EmployeeID == a.ID {
			return "", leaveerrors.ErrSelfReview
		}
		if a.Role.IsHR() {
			return ClassHR, nil
		}
		if a.Role == actor.RoleManager && app.IsManagedBy(a.ID) {
			return ClassManager, nil
		}
		return "", leaveerrors.ErrNotAuthorized
	default:
		return "", leaveerrors.ErrInvalidStatusTransition
	}
}

// Decide looks up the transition for the application's current status.
// Terminal states have no entries.
func Decide(app LeaveApplication, class RoleClass, action Action) (Transition, error) {
	t, ok := transitionTable[transitionKey{from: app.Status, action: action, class: class}]
	if !ok {
		return Transition{}, leaveerrors.ErrInvalidStatusTransition.WithDetails(map[string]string{
			"status": string(app.Status),
			"action": string(action),
		})
	}
	return t, nil
}
