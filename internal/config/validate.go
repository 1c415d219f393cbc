package config

import (
	"fmt"
	"strings"
)

// IssueSeverity classifies a validation finding.
type IssueSeverity string

const (
	// SeverityError marks findings that make a run impossible.
	SeverityError IssueSeverity = "error"
	// SeverityWarning marks findings worth surfacing that a run can
	// proceed over.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path names the offending flag, in
// flag spelling ("chunksize", "on-malformed"), so CLI output and error
// messages line up with what the user typed.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error lets a single Issue travel as an error value.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasError reports whether issues contains at least one SeverityError.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateConfig lints a Config and returns every finding at once rather
// than stopping at the first. The checks are static: nothing here touches
// the filesystem or the network, so whether the input exists or the output
// is writable stays with the run driver. Callers decide which severities
// block; the CLI aborts on errors and prints warnings.
func ValidateConfig(c Config) []Issue {
	var issues []Issue
	fail := func(path, format string, args ...any) {
		issues = append(issues, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
	}
	warn := func(path, format string, args ...any) {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	input := strings.TrimSpace(c.Input)
	switch {
	case input == "":
		fail("input", "input path must not be empty")
	case !looksLikeJSONLines(input):
		warn("input", "%q does not look like JSON Lines (expected .jsonl, .jsonl.gz or .jsonl.zst); the loader expects one JSON object per line", input)
	}

	output := strings.TrimSpace(c.Output)
	if output == "" {
		fail("output", "output destination must not be empty")
	} else if dest, err := ParseOutput(output); err != nil {
		fail("output", "%s", err)
	} else if dest.Path != "" && dest.Path == input {
		fail("output", "output must not be the input path")
	}

	if c.ChunkSize < 1 {
		fail("chunksize", "chunk size must be at least 1, got %d", c.ChunkSize)
	}

	switch c.OnMalformed {
	case MalformedAbort, MalformedSkip:
	default:
		fail("on-malformed", "unknown policy %q; use %q or %q", c.OnMalformed, MalformedAbort, MalformedSkip)
	}

	switch c.MetricsBackend {
	case "", "none", "datadog":
	case "pushgateway":
		if strings.TrimSpace(c.PushgatewayURL) == "" {
			fail("pushgateway-url", "pushgateway backend selected but no URL configured")
		}
	default:
		warn("metrics-backend", "unknown metrics backend %q; metrics will be disabled", c.MetricsBackend)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		warn("log-level", "unknown log level %q; \"info\" will be used", c.LogLevel)
	}

	return issues
}

// looksLikeJSONLines reports whether path carries a recognizable JSON Lines
// extension, with or without a compression suffix.
func looksLikeJSONLines(path string) bool {
	p := strings.ToLower(path)
	for _, suffix := range []string{".gz", ".zst"} {
		p = strings.TrimSuffix(p, suffix)
	}
	for _, ext := range []string{".jsonl", ".ndjson", ".json"} {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
