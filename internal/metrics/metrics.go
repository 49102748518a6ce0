// Package metrics records counters, timings and gauges and fans them out to
// the configured sinks (Prometheus, StatsD).
package metrics

import (
	"log/slog"
	"time"
)

// Metric names shared across the service.
const (
	APICalls        = "api.calls.count"
	APIResponseTime = "api.response.time"

	KindDBQuery     = "db.query"
	KindObjectStore = "s3.operation"
)

// Slow-operation thresholds.
const (
	SlowDBQuery     = time.Second
	SlowObjectStore = 2 * time.Second
)

// Tags identify the operation a sample belongs to.
type Tags map[string]string

// Sink receives samples. Implementations must be safe for concurrent use and
// must not block the caller on network I/O.
type Sink interface {
	Count(name string, value int64, tags Tags)
	Timing(name string, d time.Duration, tags Tags)
	Gauge(name string, value float64, tags Tags)
}

// Recorder is the entry point for all instrumentation. A nil *Recorder
// records nothing.
type Recorder struct {
	sinks  []Sink
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sinks: sinks, logger: logger}
}

func (r *Recorder) Increment(name string, tags Tags) {
	r.Count(name, 1, tags)
}

func (r *Recorder) Count(name string, value int64, tags Tags) {
	if r == nil {
		return
	}
	for _, s := range r.sinks {
		s.Count(name, value, tags)
	}
}

func (r *Recorder) Timing(name string, d time.Duration, tags Tags) {
	if r == nil {
		return
	}
	for _, s := range r.sinks {
		s.Timing(name, d, tags)
	}
}

func (r *Recorder) Gauge(name string, value float64, tags Tags) {
	if r == nil {
		return
	}
	for _, s := range r.sinks {
		s.Gauge(name, value, tags)
	}
}

func (r *Recorder) log() *slog.Logger {
	if r == nil || r.logger == nil {
		return slog.Default()
	}
	return r.logger
}
