package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxOracleResponseBytes = 1 << 20

type OracleConfig struct {
	URL    string
	APIKey string
	Model  string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// HTTPOracle calls an OpenAI-compatible chat completions endpoint.
type HTTPOracle struct {
	cfg     OracleConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewHTTPOracle(cfg OracleConfig, client *http.Client, logger ...*zap.Logger) *HTTPOracle {
	l := zap.L().Named("intent.oracle")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("intent.oracle")
	}
	if client == nil {
		client = &http.Client{}
	}

	settings := gobreaker.Settings{
		Name:        "classification-oracle",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			l.Warn("oracle circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &HTTPOracle{
		cfg:     cfg,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  l,
	}
}

func (o *HTTPOracle) Complete(ctx context.Context, p Prompt) (string, error) {
	out, err := o.breaker.Execute(func() (any, error) {
		return o.do(ctx, p)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (o *HTTPOracle) do(ctx context.Context, p Prompt) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: 0.1,
		MaxTokens:   800,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxOracleResponseBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode oracle envelope: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errEmptyResponse
	}
	return decoded.Choices[0].Message.Content, nil
}
