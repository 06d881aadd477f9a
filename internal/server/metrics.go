package server

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	registry *prometheus.Registry
	locates  *prometheus.CounterVec
	scanTime prometheus.Histogram
	frames   prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		locates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelfind_locate_requests_total",
			Help: "Locate requests by outcome (found, missing, error).",
		}, []string{"result"}),
		scanTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pixelfind_scan_seconds",
			Help:    "Time spent scanning one haystack.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelfind_watch_frames_total",
			Help: "Frames captured and scanned by watches.",
		}),
	}
	m.registry.MustRegister(m.locates, m.scanTime, m.frames)
	return m
}

func (m *metrics) observeLocate(found bool, err error) {
	switch {
	case err != nil:
		m.locates.WithLabelValues("error").Inc()
	case found:
		m.locates.WithLabelValues("found").Inc()
	default:
		m.locates.WithLabelValues("missing").Inc()
	}
}
