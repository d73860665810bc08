package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "vetchart"

// AppointmentMetrics exposes counters/histograms for appointment index refreshes.
type AppointmentMetrics struct {
	refreshTotal   *prometheus.CounterVec
	refreshLatency prometheus.Histogram
	droppedTotal   prometheus.Counter
}

func NewAppointmentMetrics(reg prometheus.Registerer) *AppointmentMetrics {
	m := &AppointmentMetrics{
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "refresh_total",
			Help:      "Total appointment index refreshes by origin",
		}, []string{"origin"}),
		refreshLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "refresh_seconds",
			Help:      "Latency of appointment index refreshes",
			Buckets:   prometheus.DefBuckets,
		}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "dropped_total",
			Help:      "Raw appointment records dropped for lack of a usable date",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.refreshTotal, m.refreshLatency, m.droppedTotal)
	return m
}

func (m *AppointmentMetrics) ObserveRefresh(origin string, dropped int, seconds float64) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(origin).Inc()
	m.refreshLatency.Observe(seconds)
	if dropped > 0 {
		m.droppedTotal.Add(float64(dropped))
	}
}

// HTTPMetrics counts served requests by route pattern and status.
type HTTPMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.latency.WithLabelValues(method, route).Observe(seconds)
}

// RefreshSnapshot summarizes refresh counters for the debug endpoint.
type RefreshSnapshot struct {
	ByOrigin map[string]float64 `json:"by_origin"`
	Dropped  float64            `json:"dropped"`
}

// SnapshotRefreshes reads the refresh counters back out of gatherer.
func SnapshotRefreshes(gatherer prometheus.Gatherer) RefreshSnapshot {
	snap := RefreshSnapshot{ByOrigin: map[string]float64{}}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return snap
	}
	for _, mf := range mfs {
		switch mf.GetName() {
		case namespace + "_appointments_refresh_total":
			for _, metric := range mf.GetMetric() {
				snap.ByOrigin[labelValue(metric, "origin")] += metric.GetCounter().GetValue()
			}
		case namespace + "_appointments_dropped_total":
			for _, metric := range mf.GetMetric() {
				snap.Dropped += metric.GetCounter().GetValue()
			}
		}
	}
	return snap
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
