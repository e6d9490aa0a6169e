package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordGateDecision(t *testing.T) {
	c := NewCollector()
	counter := GateDecisionsTotal.WithLabelValues("protected-resource", "redirect", "absent")
	before := testutil.ToFloat64(counter)

	c.RecordGateDecision("protected-resource", "redirect", "absent")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordAuthentication(t *testing.T) {
	c := NewCollector()
	counter := AuthenticationTotal.WithLabelValues("oidc", "false")
	before := testutil.ToFloat64(counter)

	c.RecordAuthentication("oidc", false)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordContentFetch(t *testing.T) {
	c := NewCollector()
	counter := ContentFetchTotal.WithLabelValues("cache", "hit")
	before := testutil.ToFloat64(counter)

	c.RecordContentFetch("cache", "hit", time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestHandlerExposesMetrics(t *testing.T) {
	NewCollector().RecordRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_requests_total")
}
