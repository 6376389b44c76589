package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(nil, time.Second)
	m.ObserveRun(fault.New(fault.Schema, "bad"), time.Second)
	m.ObserveRun(fault.New(fault.Schema, "bad"), time.Second)
	m.ObserveRun(fault.New(fault.Transport, "404"), time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("schema")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("transport")))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess), 0.0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCommit()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "switchdog_commit_updates_total 1"), body)
}
