package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's Prometheus registry. A nil *Collector is valid
// and records nothing, so callers never need to check whether metrics are on.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	leaveRequests  *prometheus.CounterVec
	leaveDecisions *prometheus.CounterVec
	daysDebited    *prometheus.CounterVec

	calendarCache *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leave",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		leaveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "requests_submitted_total",
			Help:      "Leave requests submitted by category.",
		}, []string{"leave_type"}),
		leaveDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "requests_decided_total",
			Help:      "Leave requests approved or rejected by category.",
		}, []string{"leave_type", "status"}),
		daysDebited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "balance_days_debited_total",
			Help:      "Days debited from leave balances by category.",
		}, []string{"leave_type"}),
		calendarCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "calendar_cache_lookups_total",
			Help:      "Calendar feed cache lookups by result.",
		}, []string{"result"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.leaveRequests,
		c.leaveDecisions,
		c.daysDebited,
		c.calendarCache,
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) LeaveSubmitted(leaveType string) {
	if c == nil {
		return
	}
	c.leaveRequests.WithLabelValues(leaveType).Inc()
}

func (c *Collector) LeaveDecided(leaveType, status string, debited int) {
	if c == nil {
		return
	}
	c.leaveDecisions.WithLabelValues(leaveType, status).Inc()
	if debited > 0 {
		c.daysDebited.WithLabelValues(leaveType).Add(float64(debited))
	}
}

func (c *Collector) CalendarCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.calendarCache.WithLabelValues(result).Inc()
}
