// Package config defines the canonical configuration model for the arxload
// loader. It is intentionally small, explicit, and dependency-light so that a
// run can be described fully by flags and environment variables without
// additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the CLI flags (-input, -output,
//     -chunksize, ...) one for one.
//  3. Minimalism: no third-party config libraries; flag parsing stays in the
//     commands, static validation lives here.
package config

// Malformed-line policies. Abort is the default: the first unparsable input
// line ends the run. Skip counts the line as failed and keeps reading.
const (
	MalformedAbort = "abort"
	MalformedSkip  = "skip"
)

// DefaultChunkSize is the number of records per transactional chunk when the
// caller does not specify one.
const DefaultChunkSize = 10000

// Config describes a single loader run.
type Config struct {
	// Input is the path to the JSON Lines source. Files ending in .gz or
	// .zst are decompressed transparently while reading.
	Input string

	// Output is the destination: a plain filesystem path (SQLite database
	// file) or a DSN URL selecting a server backend (postgres://, mysql://,
	// sqlserver://). The destination must not already exist.
	Output string

	// ChunkSize is the number of records per transactional chunk. Must be
	// at least 1.
	ChunkSize int

	// OnMalformed selects the malformed-line policy: MalformedAbort or
	// MalformedSkip.
	OnMalformed string

	// Precount makes the run count input lines up front so that progress
	// logs can show percentages. Costs one extra pass over the input.
	Precount bool

	// MetricsBackend selects the metrics sink: "none", "pushgateway" or
	// "datadog".
	MetricsBackend string

	// PushgatewayURL is the Prometheus Pushgateway base URL, used when
	// MetricsBackend is "pushgateway".
	PushgatewayURL string

	// LogLevel sets the minimum log level: "debug", "info", "warn", "error".
	LogLevel string
}

// Default returns a Config with every optional knob at its default. Input and
// Output stay empty; both are required and nothing could stand in for them.
func Default() Config {
	return Config{
		ChunkSize:      DefaultChunkSize,
		OnMalformed:    MalformedAbort,
		MetricsBackend: "none",
		PushgatewayURL: "http://localhost:9091",
		LogLevel:       "info",
	}
}
