package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/go-spd3303x/spd3303x"
)

// exporter publishes the counters of one session in the Prometheus text format.
type exporter struct {
	registry *prometheus.Registry
}

func newExporter(m *spd3303x.SessionMetrics) *exporter {
	registry := prometheus.NewRegistry()

	counter := func(name, help string, load func() uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "spd3303x",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(load()) })
	}

	registry.MustRegister(
		counter("requests_total", "Requests written to the supply.", m.RequestCount.Load),
		counter("replies_total", "Reply lines read from the supply, including lines that failed to decode.", m.ReplyCount.Load),
		counter("decode_errors_total", "Reply lines that failed to decode.", m.DecodeErrCount.Load),
		counter("transport_errors_total", "Read or write failures on the connection.", m.TransportErrCount.Load),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "spd3303x",
			Name:      "connect_fallbacks",
			Help:      "Resolved addresses that failed before the connection succeeded.",
		}, func() float64 { return float64(m.ConnectFallbackCount.Load()) }),
		&commandCollector{
			metrics: m,
			desc: prometheus.NewDesc("spd3303x_commands_total",
				"Requests written to the supply by command header.", []string{"command"}, nil),
		},
	)

	return &exporter{registry: registry}
}

func (e *exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))

	return mux
}

type commandCollector struct {
	metrics *spd3303x.SessionMetrics
	desc    *prometheus.Desc
}

func (c *commandCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *commandCollector) Collect(ch chan<- prometheus.Metric) {
	c.metrics.RangeCommands(func(header string, count int64) bool {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(count), header)
		return true
	})
}
