package middleware

import (
	"strconv"
	"strings"
	"time"

	"storyslip/internal/metrics"

	"github.com/labstack/echo/v4"
)

// PrometheusMetrics считает запросы и их длительность по шаблону маршрута.
// Служебные эндпоинты (/metrics, /debug) не учитываются, чтобы scrape не
// искажал статистику публичной выдачи виджетов.
func PrometheusMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Path()
		if path == "/metrics" || strings.HasPrefix(path, "/debug") {
			return next(c)
		}

		start := time.Now()
		err := next(c)
		duration := time.Since(start).Seconds()

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request().Method,
			path,
			strconv.Itoa(c.Response().Status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request().Method,
			path,
		).Observe(duration)

		return err
	}
}
