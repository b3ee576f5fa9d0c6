package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go-leave-assistant/internal/conversation"
	"go-leave-assistant/internal/extraction"
	"go-leave-assistant/internal/metrics"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DefaultOracleTimeout = 8 * time.Second
	absentConfidence     = 0.5
)

var (
	errEmptyResponse = errors.New("empty oracle response")
	errNoJSON        = errors.New("no json object in oracle response")
	errOraclePanic   = errors.New("oracle panicked")
)

type Input struct {
	Message          string
	Actor            ActorContext
	History          []conversation.Turn
	ContinuationHint bool
}

type oracleDates struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	RawDateText string `json:"raw_date_text"`
}

type oracleDuration struct {
	TotalDays float64 `json:"total_days" validate:"gte=0"`
	HalfDays  bool    `json:"half_days"`
}

type oracleEntities struct {
	Dates             *oracleDates    `json:"dates"`
	Duration          *oracleDuration `json:"duration" validate:"omitempty"`
	LeaveType         string          `json:"leave_type"`
	Reason            string          `json:"reason"`
	ApplicationNumber string          `json:"application_number"`
}

type oracleResponse struct {
	PrimaryIntent       string   `json:"primary_intent" validate:"required,leave_intent"`
	Confidence          *float64 `json:"confidence"`
	UrgencyLevel        string   `json:"urgency_level" validate:"omitempty,oneof=normal urgent emergency"`
	ConversationContext struct {
		IsContinuation bool `json:"is_continuation"`
	} `json:"conversation_context"`
	ExtractedEntities oracleEntities `json:"extracted_entities"`
}

// Classifier is total: Classify always returns a member of the intent set.
type Classifier struct {
	oracle   Oracle
	timeout  time.Duration
	rules    RuleTable
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

// NewClassifier accepts a nil oracle; every message then takes the rule table.
func NewClassifier(oracle Oracle, timeout time.Duration, now func() time.Time, logger ...*zap.Logger) *Classifier {
	l := zap.L().Named("intent.classifier")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("intent.classifier")
	}
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	if now == nil {
		now = time.Now
	}

	v := validator.New()
	_ = v.RegisterValidation("leave_intent", func(fl validator.FieldLevel) bool {
		_, ok := Parse(fl.Field().String())
		return ok
	})

	return &Classifier{
		oracle:   oracle,
		timeout:  timeout,
		rules:    NewRuleTable(DefaultRules()),
		validate: v,
		now:      now,
		logger:   l,
	}
}

func (c *Classifier) Classify(ctx context.Context, in Input) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("classifier panic recovered", zap.Any("panic", r))
			metrics.ClassifierFallbacks.WithLabelValues("panic").Inc()
			res = c.Fallback(in)
		}
		metrics.ClassifierRequests.WithLabelValues(res.Source, string(res.Intent)).Inc()
	}()

	if c.oracle == nil {
		return c.Fallback(in)
	}

	res, reason, err := c.askOracle(ctx, in)
	if err != nil {
		c.logger.Debug("oracle classification failed, using rules",
			zap.String("reason", reason),
			zap.Error(err),
		)
		metrics.ClassifierFallbacks.WithLabelValues(reason).Inc()
		return c.Fallback(in)
	}
	return res
}

func (c *Classifier) askOracle(ctx context.Context, in Input) (Result, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := BuildPrompt(in.Message, in.Actor, in.History, in.ContinuationHint)

	start := time.Now()
	raw, err := c.complete(ctx, prompt)
	metrics.OracleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, errOraclePanic):
			return Result{}, "panic", err
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			return Result{}, "timeout", err
		}
		return Result{}, "oracle_error", err
	}

	parsed, err := c.parse(raw)
	if err != nil {
		return Result{}, "invalid_response", err
	}

	intent, _ := Parse(parsed.PrimaryIntent)
	urgency := Urgency(parsed.UrgencyLevel)
	if urgency == "" {
		urgency = UrgencyNormal
	}

	entities := extraction.Extract(in.Message, c.now()).Merge(parsed.ExtractedEntities.bag())

	return Result{
		Intent:         intent,
		Confidence:     clampConfidence(parsed.Confidence),
		Urgency:        urgency,
		Entities:       entities,
		IsContinuation: parsed.ConversationContext.IsContinuation || in.ContinuationHint,
		Source:         SourceOracle,
	}, "", nil
}

type completion struct {
	raw string
	err error
}

// complete returns when the oracle answers or ctx ends, whichever is first.
// An oracle that ignores ctx is left to finish on its own.
func (c *Classifier) complete(ctx context.Context, p Prompt) (string, error) {
	done := make(chan completion, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{err: fmt.Errorf("%w: %v", errOraclePanic, r)}
			}
		}()
		raw, err := c.oracle.Complete(ctx, p)
		done <- completion{raw: raw, err: err}
	}()

	select {
	case out := <-done:
		return out.raw, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// parse decodes the first {...} span of raw and validates it.
func (c *Classifier) parse(raw string) (oracleResponse, error) {
	var out oracleResponse
	if strings.TrimSpace(raw) == "" {
		return out, errEmptyResponse
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return out, errNoJSON
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("decode oracle response: %w", err)
	}
	if err := c.validate.Struct(out); err != nil {
		return out, fmt.Errorf("validate oracle response: %w", err)
	}
	return out, nil
}

// Fallback classifies with the rule table and the pattern extractor.
func (c *Classifier) Fallback(in Input) Result {
	intent, confidence, rule := c.rules.Match(in.Message, in.Actor.Role)
	c.logger.Debug("rule classification",
		zap.String("rule", rule),
		zap.String("intent", string(intent)),
	)
	return Result{
		Intent:         intent,
		Confidence:     confidence,
		Urgency:        urgencyOf(in.Message),
		Entities:       extraction.Extract(in.Message, c.now()),
		IsContinuation: in.ContinuationHint,
		Source:         SourceFallback,
	}
}

func (e oracleEntities) bag() extraction.Bag {
	var b extraction.Bag
	if e.Dates != nil {
		b.StartDate = e.Dates.StartDate
		b.EndDate = e.Dates.EndDate
		b.RawDateText = e.Dates.RawDateText
	}
	if e.Duration != nil {
		b.Duration = e.Duration.TotalDays
		b.HalfDay = e.Duration.HalfDays
	}
	b.LeaveType = e.LeaveType
	b.Reason = e.Reason
	b.ApplicationNumber = strings.ToUpper(strings.TrimSpace(e.ApplicationNumber))
	return b
}

func clampConfidence(c *float64) float64 {
	if c == nil || math.IsNaN(*c) {
		return absentConfidence
	}
	return math.Max(0, math.Min(1, *c))
}
