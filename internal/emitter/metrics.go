package emitter

import "socd/internal/metrics"

// Metrics are the loop counters.
type Metrics struct {
	EventsRead        *metrics.Counter
	BatchesApplied    *metrics.Counter
	ConflictsResolved *metrics.Counter
	Emits             *metrics.Counter
	TransientErrors   *metrics.Counter
	DeferredReports   *metrics.Counter
	QueueDepth        *metrics.Gauge
	EmitDuration      *metrics.Histogram
}

// NewMetrics registers the loop metrics in r.
func NewMetrics(r *metrics.Registry) *Metrics {
	return &Metrics{
		EventsRead:        r.RegisterCounter("events_read_total", "Key transitions read from the input device", nil),
		BatchesApplied:    r.RegisterCounter("batches_applied_total", "Batches that changed tracked key state", nil),
		ConflictsResolved: r.RegisterCounter("conflicts_resolved_total", "Emitted cycles with at least one opposing pair held", nil),
		Emits:             r.RegisterCounter("emits_total", "Synchronised reports written to the output device", nil),
		TransientErrors:   r.RegisterCounter("transient_errors_total", "Retried input read failures", nil),
		DeferredReports:   r.RegisterCounter("deferred_reports_total", "Cycles where smoothing held back a key", nil),
		QueueDepth:        r.RegisterGauge("queue_depth", "Batches waiting in the reader queue", nil),
		EmitDuration:      r.RegisterHistogram("emit_seconds", "Time spent writing one report", nil, metrics.LatencyBuckets),
	}
}
