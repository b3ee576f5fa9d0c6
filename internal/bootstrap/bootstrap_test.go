package bootstrap_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave-assistant/internal/bootstrap"
	"go-leave-assistant/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() *config.Config {
	return &config.Config{Env: "test", RateLimitRPS: 10, RateLimitBurst: 10}
}

func TestHealth(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]bootstrap.HealthCheck
		wantStatus int
		wantState  string
	}{
		{"all up", map[string]bootstrap.HealthCheck{"postgres": up, "redis": up}, http.StatusOK, "ok"},
		{"redis down", map[string]bootstrap.HealthCheck{"postgres": up, "redis": down}, http.StatusServiceUnavailable, "degraded"},
		{"no checks", nil, http.StatusOK, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bootstrap.NewEngine(testConfig(), tt.checks)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Status)
			if tt.wantState == "degraded" {
				assert.Equal(t, "connection refused", body.Checks["redis"])
				assert.Equal(t, "ok", body.Checks["postgres"])
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := bootstrap.NewEngine(testConfig(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestZapAuditLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := bootstrap.NewZapAuditLogger(zap.New(core))

	audit.Log(context.Background(), bootstrap.AuditLog{Action: "SERVER_SHUTDOWN", Message: "bye"})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	assert.Equal(t, "SERVER_SHUTDOWN", entry.ContextMap()["action"])
}
