// Package metrics records operational counters and timings for load runs.
//
// One process-wide Backend sits behind a small facade. The default backend
// discards everything, so instrumented code never has to check whether
// metrics are configured. Concrete systems live in subpackages (prompush,
// datadog) and are installed once at startup with SetBackend, mirroring how
// the storage registry hands out database backends.
package metrics

import "time"

// Metric names emitted by the record helpers. Backends route on these.
const (
	MetricStepTotal    = "arxload_step_total"
	MetricStepDuration = "arxload_step_duration_seconds"
	MetricRecordsTotal = "arxload_records_total"
	MetricChunksTotal  = "arxload_chunks_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the sink side of the facade. Implementations translate the
// generic calls into their own system's collectors.
type Backend interface {
	// IncCounter adds delta to the named counter.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records one sample of a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush ships whatever the backend buffered. Push-style backends do
	// their network round trip here.
	Flush() error
}

// discard is the default backend.
type discard struct{}

func (discard) IncCounter(string, float64, Labels)       {}
func (discard) ObserveHistogram(string, float64, Labels) {}
func (discard) Flush() error                             { return nil }

var backend Backend = discard{}

// SetBackend installs b as the process-wide backend. Passing nil leaves the
// current backend in place.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the installed backend.
func Flush() error { return backend.Flush() }

// RecordStep reports one timed run step such as "create_schema" or
// "load_chunk". A nil err labels the sample success, anything else failure.
func RecordStep(runID, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"run_id": runID, "step": step, "status": status}
	backend.IncCounter(MetricStepTotal, 1, lbls)
	backend.ObserveHistogram(MetricStepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta records of the given kind to the run's totals. The
// kinds in use mirror the run summary: processed, skipped, failed and
// inserted. Zero and negative deltas are dropped.
func RecordRows(runID, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(MetricRecordsTotal, float64(delta), Labels{"run_id": runID, "kind": kind})
}

// RecordChunks adds delta committed chunks to the run's total. Zero and
// negative deltas are dropped.
func RecordChunks(runID string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(MetricChunksTotal, float64(delta), Labels{"run_id": runID})
}
