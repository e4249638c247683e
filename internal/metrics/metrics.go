package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyslip_http_requests_total",
		Help: "Количество HTTP запросов",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storyslip_http_request_duration_seconds",
		Help:    "Длительность HTTP запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	WidgetRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyslip_widget_renders_total",
		Help: "Количество отрисованных виджетов",
	}, []string{"widget_type"})

	RenderCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyslip_render_cache_hits_total",
		Help: "Попадания в кэш отрисовки",
	})

	RenderCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyslip_render_cache_misses_total",
		Help: "Промахи кэша отрисовки",
	})

	TrackingEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyslip_tracking_events_total",
		Help: "Принятые события виджетов",
	}, []string{"event_type"})
)
