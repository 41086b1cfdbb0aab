// Package metrics exposes the tracker's Prometheus instruments on a private
// registry.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Fetches       *prometheus.CounterVec   // labels: resource, outcome
	FetchDuration *prometheus.HistogramVec // label: resource
	DroppedStops  prometheus.Counter

	Reports prometheus.Gauge

	BadgePublished    prometheus.Counter
	BadgePublishErrs  prometheus.Counter
	BadgePublishTimes prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_fetches_total",
			Help: "Upstream fetches by resource and outcome.",
		}, []string{"resource", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_fetch_duration_seconds",
			Help:    "Duration of an upstream fetch including decoding.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"resource"}),
		DroppedStops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_dropped_stops_total",
			Help: "Trip stop elements skipped because they failed to decode.",
		}),
		Reports: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_contact_reports",
			Help: "Number of stored contact reports.",
		}),
		BadgePublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_badge_published_total",
			Help: "Badge count messages published to NATS.",
		}),
		BadgePublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_badge_publish_errors_total",
			Help: "Badge count publish errors.",
		}),
		BadgePublishTimes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_badge_publish_duration_seconds",
			Help:    "Duration to marshal and publish a badge message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	reg.MustRegister(
		c.Fetches, c.FetchDuration, c.DroppedStops,
		c.Reports,
		c.BadgePublished, c.BadgePublishErrs, c.BadgePublishTimes,
	)
	return c
}

// ObserveFetch implements fetch.Recorder.
func (c *Collector) ObserveFetch(resource, outcome string, elapsed time.Duration) {
	c.Fetches.WithLabelValues(resource, outcome).Inc()
	c.FetchDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// ObserveDroppedStops implements fetch.Recorder.
func (c *Collector) ObserveDroppedStops(n int) {
	if n > 0 {
		c.DroppedStops.Add(float64(n))
	}
}

// SetBadgeCount mirrors the report count into a gauge so it can sit in a
// notify.Fanout next to the real badge publishers. It never fails.
func (c *Collector) SetBadgeCount(_ context.Context, n int) error {
	c.Reports.Set(float64(n))
	return nil
}

// ObservePublish implements notify.PublishMetrics.
func (c *Collector) ObservePublish(elapsed time.Duration, err error) {
	c.BadgePublishTimes.Observe(elapsed.Seconds())
	if err != nil {
		c.BadgePublishErrs.Inc()
		return
	}
	c.BadgePublished.Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
