package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notexe/promemoria-bot/internal/metrics"
)

type fixedHealth int

func (f fixedHealth) PendingReminders() int { return int(f) }

func get(t *testing.T, h http.Handler, path string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Result()
}

func TestRouter_KeepAlive(t *testing.T) {
	s := New(":0", nil, nil, nil)

	resp := get(t, s.Router(), "/")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, KeepAliveText, string(body))
}

func TestRouter_Health(t *testing.T) {
	s := New(":0", fixedHealth(3), nil, nil)

	resp := get(t, s.Router(), "/healthz")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 3, body.PendingReminders)
}

func TestRouter_Metrics(t *testing.T) {
	m := metrics.NewCollector("promemoria")
	m.ReminderCreated("task")
	s := New(":0", nil, m.Handler(), nil)

	resp := get(t, s.Router(), "/metrics")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `promemoria_reminders_created_total{category="task"} 1`)
}

func TestRouter_MetricsOmittedWithoutHandler(t *testing.T) {
	s := New(":0", nil, nil, nil)

	resp := get(t, s.Router(), "/metrics")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
