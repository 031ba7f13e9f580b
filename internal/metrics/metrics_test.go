package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordTurn("clarify", 0.01)
	m.RecordTurn("clarify", 0.02)
	m.RecordRejection("budget", "no_number")
	m.ObserveRemote("chat", 0.5, true)
	m.ObserveRemote("chat", 0.3, false)
	m.RecordApproval("accepted")
	m.SetSessionsCached(7)
	m.RecordError("store", "save")

	out := scrape(t, m)
	assert.Contains(t, out, `intake_turns_total{action="clarify"} 2`)
	assert.Contains(t, out, `intake_validation_rejections_total{field="budget",reason="no_number"} 1`)
	assert.Contains(t, out, `intake_remote_failures_total{call="chat"} 1`)
	assert.Contains(t, out, `intake_remote_call_duration_seconds_count{call="chat"} 2`)
	assert.Contains(t, out, `intake_approvals_total{result="accepted"} 1`)
	assert.Contains(t, out, `intake_sessions_cached 7`)
	assert.Contains(t, out, `intake_errors_total{module="store",type="save"} 1`)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordTurn("remote", 1)
	assert.NotContains(t, scrape(t, b), `intake_turns_total{action="remote"}`)
	assert.NotNil(t, a.Registry())
}
