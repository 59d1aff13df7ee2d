// Package metrics holds the prometheus collectors for detector runs.
// There is no HTTP listener; collectors are flushed to a node-exporter
// textfile when a run ends
package metrics

import (
	"time"

	perr "loopguard/internal/platform/errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "loopguard"

// Recorder owns a private registry and the collectors registered on it
type Recorder struct {
	reg      *prometheus.Registry
	scanned  prometheus.Counter
	detected *prometheus.CounterVec
	seconds  prometheus.Histogram
	streams  *prometheus.CounterVec
}

// New builds a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		scanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "texts_scanned_total",
			Help:      "Texts passed through the repetition detector.",
		}),
		detected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loops_detected_total",
			Help:      "Repetition loops detected, by rule.",
		}, []string{"rule"}),
		seconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_seconds",
			Help:      "Time spent scanning a single text.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Streams watched, by outcome (tripped|clean|canceled).",
		}, []string{"outcome"}),
	}
	r.reg.MustRegister(r.scanned, r.detected, r.seconds, r.streams)
	return r
}

// Registry exposes the underlying registry (tests, custom gatherers)
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveScan records one scanned text, the rules that fired and the scan time
func (r *Recorder) ObserveScan(rules []string, took time.Duration) {
	if r == nil {
		return
	}
	r.scanned.Inc()
	r.seconds.Observe(took.Seconds())
	for _, rule := range rules {
		r.detected.WithLabelValues(rule).Inc()
	}
}

// ObserveStream records the outcome of a watched stream
func (r *Recorder) ObserveStream(outcome string) {
	if r == nil {
		return
	}
	r.streams.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes all collectors in the text exposition format to path
// (atomically, via a temp file) for the node-exporter textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "write metrics textfile %s", path)
	}
	return nil
}
