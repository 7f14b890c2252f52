package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry
	r.ObserveMetadata("movie_credits", "ok", time.Millisecond)
	r.CacheHit("memory")
	r.AggregationPass(PassApplied, 3)
	r.LayoutSettled()
	r.SessionOpened()
	r.SessionClosed()
	assert.NotNil(t, r.Handler())
}

func TestCounters(t *testing.T) {
	r := NewRegistry()

	r.ObserveMetadata("movie_credits", "ok", 10*time.Millisecond)
	r.ObserveMetadata("movie_credits", "error", 10*time.Millisecond)
	r.ObserveMetadata("movie_credits", "ok", 10*time.Millisecond)
	r.AggregationPass(PassApplied, 4)
	r.AggregationPass(PassStale, 4)
	r.LayoutSettled()
	r.SessionOpened()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.MetadataRequestsTotal.WithLabelValues("movie_credits", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MetadataRequestsTotal.WithLabelValues("movie_credits", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.AggregationPassesTotal.WithLabelValues(PassStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.LayoutSettlesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ActiveSessions))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.AggregationPass(PassApplied, 2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "castgraph_aggregation_passes_total"))
}
