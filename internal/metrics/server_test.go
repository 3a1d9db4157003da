package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		ping error
		code int
		body string
	}{
		{name: "database available", code: http.StatusOK, body: `{"status":"ok"}`},
		{name: "database down", ping: errors.New("refused"), code: http.StatusServiceUnavailable, body: `{"status":"unavailable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := pingerFunc(func(context.Context) error { return tt.ping })
			router := NewRouter(db, prometheus.NewRegistry(), zap.NewNop())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Command("day")
	m.Command("day")
	m.APIRequest("group_schedule", 200, 150*time.Millisecond)
	m.SetBusiness(BusinessStats{Users: 42, Chats: 3})

	server := httptest.NewServer(NewRouter(pingerFunc(func(context.Context) error { return nil }), reg, zap.NewNop()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `schedule_bot_commands_total{command="day"} 2`)
	assert.Contains(t, text, `schedule_bot_schedule_api_requests_total{endpoint="group_schedule",status="200"} 1`)
	assert.Contains(t, text, "schedule_bot_users 42")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Update("message")
		m.Command("start")
		m.MessageSent()
		m.QueueDepth(3)
		m.BanCreated()
	})
}

func TestMethodNotAllowed(t *testing.T) {
	router := NewRouter(pingerFunc(func(context.Context) error { return nil }), prometheus.NewRegistry(), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
