package intent_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC) }

func staticOracle(body string) intent.Oracle {
	return intent.OracleFunc(func(context.Context, intent.Prompt) (string, error) {
		return body, nil
	})
}

func employeeInput(msg string) intent.Input {
	return intent.Input{Message: msg, Actor: intent.ActorContext{Name: "Ana", Role: actor.RoleEmployee}}
}

func TestClassifier_OraclePath(t *testing.T) {
	ctx := context.Background()

	t.Run("valid response is trusted", func(t *testing.T) {
		c := intent.NewClassifier(staticOracle(`Sure! {"primary_intent":"APPLY_LEAVE","confidence":0.92,"urgency_level":"normal",
			"extracted_entities":{"dates":{"start_date":"2024-06-15"},"leave_type":"sick"}} hope that helps`), time.Second, fixedNow)

		res := c.Classify(ctx, employeeInput("sick on the 15th of june"))

		assert.Equal(t, intent.ApplyLeave, res.Intent)
		assert.Equal(t, 0.92, res.Confidence)
		assert.Equal(t, intent.SourceOracle, res.Source)
		assert.Equal(t, "2024-06-15", res.Entities.StartDate)
		assert.Equal(t, "sick", res.Entities.LeaveType)
	})

	t.Run("aliases are normalized", func(t *testing.T) {
		c := intent.NewClassifier(staticOracle(`{"primary_intent":"GENERAL_HR","confidence":0.7}`), time.Second, fixedNow)
		assert.Equal(t, intent.General, c.Classify(ctx, employeeInput("hi")).Intent)

		c = intent.NewClassifier(staticOracle(`{"primary_intent":"FOLLOW_UP_INFO","confidence":0.7}`), time.Second, fixedNow)
		assert.Equal(t, intent.ApplyLeave, c.Classify(ctx, employeeInput("the 15th")).Intent)
	})

	t.Run("confidence is clamped and defaults when absent", func(t *testing.T) {
		c := intent.NewClassifier(staticOracle(`{"primary_intent":"CHECK_BALANCE","confidence":7}`), time.Second, fixedNow)
		assert.Equal(t, 1.0, c.Classify(ctx, employeeInput("x")).Confidence)

		c = intent.NewClassifier(staticOracle(`{"primary_intent":"CHECK_BALANCE","confidence":-2}`), time.Second, fixedNow)
		assert.Equal(t, 0.0, c.Classify(ctx, employeeInput("x")).Confidence)

		c = intent.NewClassifier(staticOracle(`{"primary_intent":"CHECK_BALANCE"}`), time.Second, fixedNow)
		res := c.Classify(ctx, employeeInput("x"))
		assert.Equal(t, 0.5, res.Confidence)
		assert.Equal(t, intent.UrgencyNormal, res.Urgency)
	})

	t.Run("continuation flag from oracle or hint", func(t *testing.T) {
		c := intent.NewClassifier(staticOracle(`{"primary_intent":"APPLY_LEAVE","conversation_context":{"is_continuation":true}}`), time.Second, fixedNow)
		assert.True(t, c.Classify(ctx, employeeInput("x")).IsContinuation)

		c = intent.NewClassifier(staticOracle(`{"primary_intent":"APPLY_LEAVE"}`), time.Second, fixedNow)
		in := employeeInput("x")
		in.ContinuationHint = true
		assert.True(t, c.Classify(ctx, in).IsContinuation)
	})

	t.Run("prompt carries actor and history", func(t *testing.T) {
		var got intent.Prompt
		c := intent.NewClassifier(intent.OracleFunc(func(_ context.Context, p intent.Prompt) (string, error) {
			got = p
			return `{"primary_intent":"GENERAL"}`, nil
		}), time.Second, fixedNow)

		c.Classify(ctx, intent.Input{
			Message: "hello",
			Actor: intent.ActorContext{
				Name:     "Ana",
				Role:     actor.RoleManager,
				Balances: []intent.BalanceLine{{LeaveType: "ANNUAL", Remaining: "18"}},
			},
			ContinuationHint: true,
		})

		assert.Contains(t, got.User, "Ana")
		assert.Contains(t, got.User, "ANNUAL: 18 days remaining")
		assert.Contains(t, got.User, "asked the user for missing information")
		assert.Contains(t, got.System, "MANAGER_QUERY")
	})
}

func TestClassifier_FallsBack(t *testing.T) {
	ctx := context.Background()
	msg := "what is my leave balance"

	tests := []struct {
		name   string
		oracle intent.Oracle
	}{
		{"nil oracle", nil},
		{"oracle error", intent.OracleFunc(func(context.Context, intent.Prompt) (string, error) {
			return "", errors.New("connection refused")
		})},
		{"empty output", staticOracle("   ")},
		{"no json", staticOracle("I think it's a balance question")},
		{"malformed json", staticOracle(`{"primary_intent": "CHECK_BALANCE",`)},
		{"unknown intent", staticOracle(`{"primary_intent":"BOOK_FLIGHT","confidence":0.99}`)},
		{"missing intent", staticOracle(`{"confidence":0.99}`)},
		{"bad urgency", staticOracle(`{"primary_intent":"CHECK_BALANCE","urgency_level":"whenever"}`)},
		{"panic", intent.OracleFunc(func(context.Context, intent.Prompt) (string, error) {
			panic("boom")
		})},
		{"timeout", intent.OracleFunc(func(ctx context.Context, _ intent.Prompt) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := intent.NewClassifier(tt.oracle, 20*time.Millisecond, fixedNow)

			res := c.Classify(ctx, employeeInput(msg))

			assert.Equal(t, intent.SourceFallback, res.Source)
			assert.Equal(t, intent.CheckBalance, res.Intent)
			assert.Equal(t, 0.6, res.Confidence)
		})
	}
}

func TestClassifier_TimeoutWithOracleIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stuck := intent.OracleFunc(func(context.Context, intent.Prompt) (string, error) {
		<-release
		return `{"primary_intent":"LEAVE_POLICY","confidence":0.99}`, nil
	})
	c := intent.NewClassifier(stuck, 50*time.Millisecond, fixedNow)

	start := time.Now()
	res := c.Classify(context.Background(), employeeInput("what is my leave balance"))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, intent.SourceFallback, res.Source)
	assert.Equal(t, intent.CheckBalance, res.Intent)
}

func TestClassifier_Totality(t *testing.T) {
	c := intent.NewClassifier(nil, time.Second, fixedNow)
	valid := map[intent.Intent]bool{}
	for _, i := range intent.All() {
		valid[i] = true
	}

	messages := []string{
		"", " ", "\x00\xff", strings.Repeat("leave ", 5000), "🙂🙂🙂",
		"{\"primary_intent\":", "LA2024-0001", "cancel cancel cancel",
	}
	for _, role := range []actor.Role{actor.RoleEmployee, actor.RoleManager, actor.RoleHRAdmin, ""} {
		for _, m := range messages {
			res := c.Classify(context.Background(), intent.Input{Message: m, Actor: intent.ActorContext{Role: role}})
			require.True(t, valid[res.Intent], "message %q", m)
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
		}
	}

	assert.Equal(t, intent.General, c.Classify(context.Background(), employeeInput("")).Intent)
}

func TestParse(t *testing.T) {
	for _, i := range intent.All() {
		got, ok := intent.Parse(strings.ToLower(string(i)))
		assert.True(t, ok)
		assert.Equal(t, i, got)
	}
	_, ok := intent.Parse("SOMETHING_ELSE")
	assert.False(t, ok)
}
