package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposed(t *testing.T) {
	Init()
	Init()

	IncStreamEvent("candle")
	IncStreamEvent("candle")
	IncStreamDropped()
	IncControlRequest("subscribe")
	SetCacheSize("instruments", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(streamEvents.WithLabelValues("candle")))
	assert.Equal(t, 7.0, testutil.ToFloat64(cacheSize.WithLabelValues("instruments")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invest_stream_dropped_total")
	assert.Contains(t, rec.Body.String(), `invest_cache_size{cache="instruments"} 7`)
}
