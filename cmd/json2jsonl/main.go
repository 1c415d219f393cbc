// Command json2jsonl normalizes a JSON file into JSON Lines.
//
// The arXiv snapshot ships in different shapes depending on where it was
// exported from: a top-level array of records, an envelope object wrapping
// one array field, occasionally already line-delimited. json2jsonl accepts
// all of them and writes one compact object per line, which is the only shape
// arxload reads.
//
// Usage:
//
//	json2jsonl -input snapshot.json -output snapshot.jsonl
//	json2jsonl -input export.json -output out.jsonl -encoding latin1
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"arxload/internal/logger"
	"arxload/internal/parser/json"
)

func main() {
	var (
		input    string
		output   string
		encoding string
		logLevel string
	)
	flag.StringVar(&input, "input", "", "JSON input path (.json, .json.gz, .json.zst)")
	flag.StringVar(&output, "output", "", "JSON Lines output path; must not exist yet")
	flag.StringVar(&encoding, "encoding", "", `input charset: "" or "utf8", "latin1", "windows-1252"`)
	flag.StringVar(&logLevel, "log-level", "info", "minimum log level: debug, info, warn or error")
	flag.Parse()

	logger.Setup(logLevel)

	if input == "" || output == "" {
		fmt.Fprintln(os.Stderr, "usage: json2jsonl -input snapshot.json -output snapshot.jsonl")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := json.NormalizeFile(ctx, input, output, json.Options{Encoding: encoding})
	if err != nil {
		fatalf("json2jsonl: %v", err)
	}

	if stats.Field != "" {
		slog.Info("unwrapped envelope", "field", stats.Field)
	}
	fmt.Printf("wrote %s records to %s in %s\n",
		humanize.Comma(stats.Records), output, time.Since(start).Round(time.Millisecond))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
