package datadog

import (
	"reflect"
	"testing"

	"arxload/internal/metrics"
)

// TestNewBackendRequiresAddr verifies that an empty DogStatsD address is
// rejected before any client is constructed.
func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{})
	if err == nil {
		t.Fatalf("NewBackend(Config{}) error = nil, want non-nil")
	}
	if b != nil {
		t.Fatalf("NewBackend(Config{}) backend = %v, want nil", b)
	}
}

// TestNilClientIsSafe ensures the zero-value Backend ignores all calls
// instead of panicking.
func TestNilClientIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}

	b.IncCounter("arxload_step_total", 1, metrics.Labels{"step": "load_chunk"})
	b.ObserveHistogram("arxload_step_duration_seconds", 0.5, metrics.Labels{"step": "load_chunk"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v, want nil", err)
	}
}

// TestTagsFor verifies the "key:value" tag conversion: sorted output, and
// nil for empty label sets.
func TestTagsFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		labels metrics.Labels
		want   []string
	}{
		{
			name:   "nil labels",
			labels: nil,
			want:   nil,
		},
		{
			name:   "empty labels",
			labels: metrics.Labels{},
			want:   nil,
		},
		{
			name:   "single label",
			labels: metrics.Labels{"kind": "processed"},
			want:   []string{"kind:processed"},
		},
		{
			name: "multiple labels sorted",
			labels: metrics.Labels{
				"run_id": "run-1",
				"step":   "load_chunk",
				"status": "success",
			},
			want: []string{"run_id:run-1", "status:success", "step:load_chunk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tagsFor(tt.labels); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("tagsFor(%v) = %v, want %v", tt.labels, got, tt.want)
			}
		})
	}
}
