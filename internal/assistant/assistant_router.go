package assistant

import (
	"context"
	"fmt"
	"time"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/extraction"
	"go-leave-assistant/internal/intent"

	"go.uber.org/zap"
)

const failureConfidence = 0.3

// Request is what an intent handler gets to work with.
type Request struct {
	Actor      actor.Actor
	Message    string
	Entities   extraction.Bag
	Urgency    intent.Urgency
	Confidence float64
	Year       int
	Now        time.Time
}

// Outcome is an intent handler's answer.
type Outcome struct {
	Intent           intent.Intent
	Confidence       float64
	FollowUpNeeded   bool
	ActionsPerformed []string
	NewApplicationID string
	MissingFields    []string
	Partial          extraction.Bag
	Content          string
}

type HandlerFunc func(ctx context.Context, req Request) (Outcome, error)

// Router dispatches a classified message. Unknown intents go to GENERAL.
type Router struct {
	handlers map[intent.Intent]HandlerFunc
	logger   *zap.Logger
}

func NewRouter(handlers map[intent.Intent]HandlerFunc, logger ...*zap.Logger) *Router {
	l := zap.L().Named("assistant.router")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assistant.router")
	}
	return &Router{handlers: handlers, logger: l}
}

// Dispatch never fails: handler errors and panics become a generic
// failure outcome.
func (r *Router) Dispatch(ctx context.Context, in intent.Intent, req Request) (out Outcome) {
	h, ok := r.handlers[in]
	if !ok {
		in = intent.General
		h, ok = r.handlers[in]
	}
	if !ok {
		return failureOutcome(in, req.Actor)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("intent handler panic",
				zap.String("intent", string(in)),
				zap.String("employee_id", req.Actor.ID.String()),
				zap.String("panic", fmt.Sprint(p)),
			)
			out = failureOutcome(in, req.Actor)
		}
	}()

	out, err := h(ctx, req)
	if err != nil {
		r.logger.Error("intent handler failed",
			zap.String("intent", string(in)),
			zap.String("employee_id", req.Actor.ID.String()),
			zap.Error(err),
		)
		return failureOutcome(in, req.Actor)
	}
	out.Intent = in
	return out
}

func failureOutcome(in intent.Intent, a actor.Actor) Outcome {
	return Outcome{
		Intent:     in,
		Confidence: failureConfidence,
		Content: fmt.Sprintf("Hi %s! I'm having trouble processing your request right now. "+
			"Could you please try rephrasing your question or contact HR directly for assistance?", a.Name),
	}
}
