// Package prompush pushes run metrics to a Prometheus Pushgateway.
//
// A load run is a batch job and is usually finished before any scraper
// would come around, so instead of exposing a scrape endpoint the backend
// gathers everything into a private registry and ships it with a single
// push per Flush. The run identifier travels as a Pushgateway grouping key
// rather than a series label, which keeps concurrent runs in separate
// metric groups instead of letting them overwrite each other.
package prompush

import (
	"fmt"

	"arxload/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// counterDefs declares every counter the backend collects: name, help text
// and the label keys in the order the vec is built with. IncCounter ignores
// names outside this table.
var counterDefs = []struct {
	name string
	help string
	keys []string
}{
	{metrics.MetricStepTotal, "Run step executions by step and status.", []string{"step", "status"}},
	{metrics.MetricRecordsTotal, "Record counts by kind (processed, skipped, failed, inserted).", []string{"kind"}},
	{metrics.MetricChunksTotal, "Transactional chunks committed during the run.", nil},
}

// counter pairs a registered CounterVec with its label keys so a
// metrics.Labels map can be flattened into positional label values.
type counter struct {
	vec  *prometheus.CounterVec
	keys []string
}

// Backend collects loader counters and step timings in a private registry
// and pushes them to a Pushgateway on Flush.
type Backend struct {
	gatewayURL string
	jobName    string
	runID      string

	reg      *prometheus.Registry
	counters map[string]counter
	timings  *prometheus.SummaryVec
}

// NewBackend builds the collectors for one run. jobName names the
// Pushgateway job group and falls back to "arxload" when empty; a non-empty
// runID is added as a run_id grouping key on push; gatewayURL is the base
// URL of the gateway and is required.
func NewBackend(jobName, runID, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "arxload"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		runID:      runID,
		reg:        prometheus.NewRegistry(),
		counters:   make(map[string]counter, len(counterDefs)),
	}

	for _, def := range counterDefs {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: def.name, Help: def.help}, def.keys)
		if err := b.reg.Register(vec); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", def.name, err)
		}
		b.counters[def.name] = counter{vec: vec, keys: def.keys}
	}

	b.timings = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.MetricStepDuration,
			Help:       "Run step latency in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	if err := b.reg.Register(b.timings); err != nil {
		return nil, fmt.Errorf("prompush: register %s: %w", metrics.MetricStepDuration, err)
	}

	return b, nil
}

// IncCounter adds delta to the named counter. The run_id label never
// becomes part of a series here since it rides along as a grouping key
// instead; names this backend does not collect are dropped.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	c, ok := b.counters[name]
	if !ok {
		return
	}
	values := make([]string, len(c.keys))
	for i, k := range c.keys {
		values[i] = labels[k]
	}
	c.vec.WithLabelValues(values...).Add(delta)
}

// ObserveHistogram records one step duration sample. The summary is the
// only duration collector, so every other name is dropped.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.MetricStepDuration || b.timings == nil {
		return
	}
	b.timings.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway in one request.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	if b.runID != "" {
		p = p.Grouping("run_id", b.runID)
	}
	return p.Push()
}
