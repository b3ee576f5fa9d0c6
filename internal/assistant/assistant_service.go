package assistant

import (
	"context"
	"strings"
	"time"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/conversation"
	"go-leave-assistant/internal/extraction"
	"go-leave-assistant/internal/intent"
	"go-leave-assistant/internal/leave"
	"go-leave-assistant/internal/shared/contextutil"

	"go.uber.org/zap"
)

// Classifier is satisfied by *intent.Classifier.
type Classifier interface {
	Classify(ctx context.Context, in intent.Input) intent.Result
}

//go:generate mockgen -source=assistant_service.go -destination=mock/assistant_service_mock.go -package=mock
type Service interface {
	ProcessMessage(ctx context.Context, message string, a actor.Actor, state conversation.State) (ChatResult, error)
}

type service struct {
	classifier Classifier
	router     *Router
	balances   BalanceService
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(
	classifier Classifier,
	leaves leave.Service,
	balances BalanceService,
	directory Directory,
	now func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("assistant.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assistant.service")
	}
	if now == nil {
		now = time.Now
	}
	h := &intents{leaves: leaves, balances: balances, directory: directory, logger: l}
	return &service{
		classifier: classifier,
		router:     NewRouter(h.table(), logger...),
		balances:   balances,
		now:        now,
		logger:     l,
	}
}

// ProcessMessage runs one chat cycle: continuity check, classification,
// dispatch, and the updated conversation state. Classification happens
// before any write.
func (s *service) ProcessMessage(ctx context.Context, message string, a actor.Actor, state conversation.State) (ChatResult, error) {
	message = strings.TrimSpace(message)
	now := s.now().UTC()
	year := now.Year()

	history := conversation.Recent(state.Turns)
	hint := conversation.Track(state, extraction.Bag{}).IsContinuation

	res := s.classifier.Classify(ctx, intent.Input{
		Message:          message,
		Actor:            s.actorContext(ctx, a, year),
		History:          history,
		ContinuationHint: hint,
	})

	cont := conversation.Track(state, res.Entities)
	routed := res.Intent
	if cont.IsContinuation && (res.Intent == intent.General || string(res.Intent) == state.PendingIntent) {
		routed = pendingIntent(state)
	}
	entities := cont.Merged
	if !cont.IsContinuation && state.PendingIntent != "" {
		// Back to a request parked by an unrelated question.
		if res.Intent == intent.General && !res.Entities.IsEmpty() {
			routed = pendingIntent(state)
		}
		if string(routed) == state.PendingIntent {
			entities = state.Confirmed.Merge(res.Entities)
		}
	}

	contextutil.Logger(ctx, s.logger).Debug("chat message classified",
		zap.String("employee_id", a.ID.String()),
		zap.String("intent", string(res.Intent)),
		zap.String("routed_intent", string(routed)),
		zap.String("source", res.Source),
		zap.Float64("confidence", res.Confidence),
		zap.Bool("continuation", cont.IsContinuation),
	)

	if err := ctx.Err(); err != nil {
		return ChatResult{}, err
	}

	out := s.router.Dispatch(ctx, routed, Request{
		Actor:      a,
		Message:    message,
		Entities:   entities,
		Urgency:    res.Urgency,
		Confidence: res.Confidence,
		Year:       year,
		Now:        now,
	})

	next := state.Append(conversation.RoleUser, message, now)
	next = next.Append(conversation.RoleAssistant, out.Content, now.Add(time.Millisecond))
	switch {
	case out.FollowUpNeeded:
		next.Confirmed = out.Partial
		next.AskedFields = out.MissingFields
		next.PendingIntent = string(out.Intent)
	case parksPending(state, out):
		next.Confirmed = state.Confirmed
		next.AskedFields = state.AskedFields
		next.PendingIntent = state.PendingIntent
	default:
		next.Confirmed = extraction.Bag{}
		next.AskedFields = nil
		next.PendingIntent = ""
	}

	actions := out.ActionsPerformed
	if actions == nil {
		actions = []string{}
	}

	return ChatResult{
		Intent:           string(out.Intent),
		Confidence:       out.Confidence,
		Urgency:          string(res.Urgency),
		Source:           res.Source,
		Content:          out.Content,
		FollowUpNeeded:   out.FollowUpNeeded,
		ActionsPerformed: actions,
		NewApplicationID: out.NewApplicationID,
		MissingFields:    out.MissingFields,
		IsContinuation:   cont.IsContinuation,
		State:            next,
	}, nil
}

// parksPending reports whether an answered side question leaves the open
// request in place. Finishing it or cancelling clears it.
func parksPending(state conversation.State, out Outcome) bool {
	if state.PendingIntent == "" || out.NewApplicationID != "" {
		return false
	}
	return string(out.Intent) != state.PendingIntent && out.Intent != intent.CancelLeave
}

func pendingIntent(state conversation.State) intent.Intent {
	if i, ok := intent.Parse(state.PendingIntent); ok && i != intent.General {
		return i
	}
	return intent.ApplyLeave
}

// actorContext feeds the classifier prompt. Balance lookup failures only
// thin the prompt.
func (s *service) actorContext(ctx context.Context, a actor.Actor, year int) intent.ActorContext {
	ac := intent.ActorContext{Name: a.Name, Role: a.Role, Department: a.Department}
	snap, err := s.balances.GetBalances(ctx, a.ID, year)
	if err != nil {
		s.logger.Warn("balance lookup for classifier prompt failed",
			zap.String("employee_id", a.ID.String()),
			zap.Error(err),
		)
		return ac
	}
	for _, b := range snap.Balances {
		ac.Balances = append(ac.Balances, intent.BalanceLine{LeaveType: b.LeaveType, Remaining: b.RemainingDays.String()})
	}
	return ac
}
