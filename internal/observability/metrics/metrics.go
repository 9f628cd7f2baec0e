package metrics

import "github.com/prometheus/client_golang/prometheus"

// BackendMetrics exposes counters/histograms for calls to the MedNote backend.
type BackendMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	m := &BackendMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mednote",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total backend requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mednote",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of backend requests",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *BackendMetrics) ObserveRequest(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(seconds)
}

// CaptureMetrics tracks recordings produced by the capture adapter.
type CaptureMetrics struct {
	recordingsTotal *prometheus.CounterVec
	recordedBytes   prometheus.Histogram
}

func NewCaptureMetrics(reg prometheus.Registerer) *CaptureMetrics {
	m := &CaptureMetrics{
		recordingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mednote",
			Subsystem: "capture",
			Name:      "recordings_total",
			Help:      "Recordings by final state",
		}, []string{"result"}),
		recordedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mednote",
			Subsystem: "capture",
			Name:      "recorded_bytes",
			Help:      "Size of encoded recordings",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.recordingsTotal, m.recordedBytes)
	return m
}

func (m *CaptureMetrics) ObserveRecording(result string, size int) {
	if m == nil {
		return
	}
	m.recordingsTotal.WithLabelValues(result).Inc()
	if size > 0 {
		m.recordedBytes.Observe(float64(size))
	}
}
