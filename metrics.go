package folio

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eringen/folio/keepalive"
)

// setupMetrics builds the App's own registry with runtime, cache and
// keep-alive collectors.
func (a *App) setupMetrics() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := a.Cache
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "folio", Subsystem: "cache", Name: "hits_total",
			Help: "Cache lookups that found a live entry.",
		}, func() float64 { return float64(c.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "folio", Subsystem: "cache", Name: "misses_total",
			Help: "Cache lookups that found nothing or an expired entry.",
		}, func() float64 { return float64(c.Stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "folio", Subsystem: "cache", Name: "evictions_total",
			Help: "Expired entries removed on read or by the sweeper.",
		}, func() float64 { return float64(c.Stats().Evictions) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "folio", Subsystem: "cache", Name: "entries",
			Help: "Entries currently stored, including expired ones not yet swept.",
		}, func() float64 { return float64(c.Len()) }),
	)

	a.pings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio", Subsystem: "keepalive", Name: "pings_total",
		Help: "Keep-alive reads by table and outcome.",
	}, []string{"table", "status"})
	reg.MustRegister(a.pings)

	a.registry = reg
}

func (a *App) observePing(r keepalive.Result) {
	status := "ok"
	if !r.OK() {
		status = "error"
	}
	a.pings.WithLabelValues(r.Table, status).Inc()
}

func (a *App) metricsHandler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: a.registry})
}
