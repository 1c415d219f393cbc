// Package datadog emits loader metrics over DogStatsD.
//
// It adapts the metrics.Backend interface to the official statsd client:
// labels become "key:value" tags, counters become Count metrics, and
// histogram observations are forwarded as-is. Everything Datadog-specific
// stays behind this package; the loader core only sees metrics.Backend.
package datadog

import (
	"fmt"
	"sort"

	"arxload/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config holds the DogStatsD connection settings.
type Config struct {
	// Addr is the DogStatsD endpoint, e.g. "127.0.0.1:8125" or
	// "unix:///var/run/datadog/dsd.socket".
	Addr string

	// Namespace is an optional prefix added to every metric name.
	Namespace string

	// GlobalTags are attached to every metric emitted by this backend,
	// e.g. []string{"service:arxload"}.
	GlobalTags []string
}

// Backend sends metrics to a Datadog agent. Install it globally with
// metrics.SetBackend.
type Backend struct {
	client *statsd.Client
}

// NewBackend connects a DogStatsD client. Addr is required.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter reports a Count metric. DogStatsD counts are integral;
// fractional deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Count(name, int64(delta), tagsFor(labels), 1)
}

// ObserveHistogram reports a Histogram metric.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Histogram(name, value, tagsFor(labels), 1)
}

// Flush drains the client's buffer and closes the socket. The loader
// flushes exactly once, right before exiting, so tearing the client down
// here is what keeps the last UDP packets from being dropped.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// tagsFor converts labels into sorted "key:value" tags. Sorting keeps the
// emitted tag order stable across calls.
func tagsFor(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
