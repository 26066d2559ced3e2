// Registers:
//
//	#invest_stream_events_total{kind}
//	#invest_stream_dropped_total
//	#invest_stream_control_requests_total{action}
//	#invest_cache_size{cache}
//	#go_* and process_* system metrics
//
// Served by the HTTP surface on /metrics. Every helper is a no-op until Init.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once            sync.Once
	registry        *prometheus.Registry
	streamEvents    *prometheus.CounterVec
	streamDropped   prometheus.Counter
	controlRequests *prometheus.CounterVec
	cacheSize       *prometheus.GaugeVec
)

func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		streamEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_stream_events_total",
				Help: "Market data events received from the stream, by kind",
			},
			[]string{"kind"},
		)
		streamDropped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "invest_stream_dropped_total",
				Help: "Events not delivered to a receiver whose buffer was full",
			},
		)
		controlRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invest_stream_control_requests_total",
				Help: "Subscribe and unsubscribe requests sent on the stream",
			},
			[]string{"action"},
		)
		cacheSize = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "invest_cache_size",
				Help: "Number of entries per cache",
			},
			[]string{"cache"},
		)

		registry.MustRegister(streamEvents, streamDropped, controlRequests, cacheSize)
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves the registry, or 404 before Init.
func Handler() http.Handler {
	if registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// -----------------------------------------------------------------------------

func IncStreamEvent(kind string) {
	if streamEvents != nil {
		streamEvents.WithLabelValues(kind).Inc()
	}
}

func IncStreamDropped() {
	if streamDropped != nil {
		streamDropped.Inc()
	}
}

func IncControlRequest(action string) {
	if controlRequests != nil {
		controlRequests.WithLabelValues(action).Inc()
	}
}

func SetCacheSize(cache string, n int) {
	if cacheSize != nil {
		cacheSize.WithLabelValues(cache).Set(float64(n))
	}
}
