// Command arxload loads an arXiv metadata JSON Lines snapshot into a
// relational destination in transactional chunks.
//
// Usage:
//
//	arxload -input arxiv.jsonl.gz -output arxiv.db
//	arxload -input arxiv.jsonl -output postgres://user:pw@host/arxiv -chunksize 5000
//
// Every flag resolves in order: flag, then environment variable, then
// built-in default; the variable names sit next to the flag declarations
// below. The destination must not exist yet: arxload never overwrites.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"arxload/internal/config"
	"arxload/internal/load"
	"arxload/internal/logger"
	"arxload/internal/metrics"
	"arxload/internal/metrics/datadog"
	"arxload/internal/metrics/prompush"

	// register all backends with the storage factory.
	// The output DSN selects which one a run uses, but support for all of
	// them has to be compiled in.
	_ "arxload/internal/storage/all"
)

func main() {
	cfg := config.Default()
	var validate bool

	flag.StringVar(&cfg.Input, "input", envOr("ARXLOAD_INPUT", ""),
		"JSON Lines input path (.jsonl, .jsonl.gz, .jsonl.zst)")
	flag.StringVar(&cfg.Output, "output", envOr("ARXLOAD_OUTPUT", ""),
		"destination: SQLite path or DSN (postgres://, mysql://, sqlserver://)")
	flag.IntVar(&cfg.ChunkSize, "chunksize", envInt("ARXLOAD_CHUNKSIZE", config.DefaultChunkSize),
		"records per transactional chunk")
	flag.StringVar(&cfg.OnMalformed, "on-malformed", envOr("ARXLOAD_ON_MALFORMED", config.MalformedAbort),
		"malformed-line policy: abort or skip")
	flag.BoolVar(&cfg.Precount, "precount", false,
		"count input lines first so progress logs show percentages")
	flag.StringVar(&cfg.MetricsBackend, "metrics-backend", envOr("METRICS_BACKEND", "none"),
		"metrics backend: none, pushgateway or datadog")
	flag.StringVar(&cfg.PushgatewayURL, "pushgateway-url", envOr("PUSHGATEWAY_URL", "http://localhost:9091"),
		"Prometheus Pushgateway base URL")
	flag.StringVar(&cfg.LogLevel, "log-level", envOr("ARXLOAD_LOG_LEVEL", "info"),
		"minimum log level: debug, info, warn or error")
	flag.BoolVar(&validate, "validate", false,
		"validate the configuration and exit")
	flag.Parse()

	log := logger.Setup(cfg.LogLevel)

	if validate {
		issues := config.ValidateConfig(cfg)
		for _, iss := range issues {
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		}
		if config.HasError(issues) {
			os.Exit(1)
		}
		fmt.Println("configuration is valid")
		return
	}

	runID := uuid.NewString()
	setupMetrics(log, cfg, runID)

	// The driver honors cancellation at chunk boundaries, so an interrupted
	// run still ends on a committed prefix.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := load.Run(ctx, cfg, runID)
	flushMetrics(log)
	if err != nil {
		fatalf("arxload: %v", err)
	}

	fmt.Printf("loaded %s records (%s skipped, %s failed) as %s rows in %d chunks in %s\n",
		humanize.Comma(int64(sum.Processed)),
		humanize.Comma(int64(sum.Skipped)),
		humanize.Comma(int64(sum.Failed)),
		humanize.Comma(sum.Inserted),
		sum.Chunks,
		sum.Elapsed.Round(time.Millisecond),
	)
}

// setupMetrics installs the selected metrics backend. Selection is forgiving:
// a backend that cannot be constructed logs a warning and leaves the no-op
// default in place rather than blocking the load.
func setupMetrics(log *slog.Logger, cfg config.Config, runID string) {
	switch cfg.MetricsBackend {
	case "", "none":
	case "pushgateway":
		b, err := prompush.NewBackend("arxload", runID, cfg.PushgatewayURL)
		if err != nil {
			log.Warn("metrics backend unavailable, metrics disabled", "backend", "pushgateway", "err", err)
			return
		}
		log.Info("metrics enabled", "backend", "pushgateway", "url", cfg.PushgatewayURL)
		metrics.SetBackend(b)
	case "datadog":
		addr := envOr("DD_DOGSTATSD_ADDR", "127.0.0.1:8125")
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			GlobalTags: []string{"service:arxload"},
		})
		if err != nil {
			log.Warn("metrics backend unavailable, metrics disabled", "backend", "datadog", "err", err)
			return
		}
		log.Info("metrics enabled", "backend", "datadog", "addr", addr)
		metrics.SetBackend(b)
	default:
		// ValidateConfig already warns about this; keep the nop backend.
		log.Warn("unknown metrics backend, metrics disabled", "backend", cfg.MetricsBackend)
	}
}

// flushMetrics pushes buffered metrics. Flush failures are logged, never
// fatal: a dead Pushgateway must not turn a finished load into an error.
func flushMetrics(log *slog.Logger) {
	if err := metrics.Flush(); err != nil {
		log.Warn("metrics flush failed", "err", err)
	}
}

// envOr returns the environment value for key, or def when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt is envOr for integer variables. A set value that does not parse is
// a hard error, never a silent fall-through to the default.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fatalf("arxload: %s: %v", key, err)
	}
	return n
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
