// Package telemetry exposes prometheus metrics for the render service.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"thirdcoast.systems/h5video/pkg/videotag"
)

type Metrics struct {
	tags  *prometheus.CounterVec
	pages *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h5video",
			Name:      "video_tags_total",
			Help:      "Rendered <video> tags by source kind and outcome.",
		}, []string{"kind", "outcome"}),
		pages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "h5video",
			Name:      "page_render_seconds",
			Help:      "Time spent rendering a wikitext page.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"surface"}),
	}
	reg.MustRegister(m.tags, m.pages)
	return m
}

// ObserveTag is a videotag.Observer.
func (m *Metrics) ObserveTag(kind videotag.SourceKind, resolved bool) {
	outcome := "error"
	if resolved {
		outcome = "video"
	}
	m.tags.WithLabelValues(kind.String(), outcome).Inc()
}

// ObservePage records the duration of a page render started at start.
func (m *Metrics) ObservePage(surface string, start time.Time) {
	m.pages.WithLabelValues(surface).Observe(time.Since(start).Seconds())
}
