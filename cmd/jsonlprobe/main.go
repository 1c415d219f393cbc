// Command jsonlprobe inspects a JSON Lines dump before loading it.
//
// It samples the head of the file (or the whole file with -sample -1) and
// reports per-field coverage, inferred types, suggested column names, and
// duplicate-identifier density. The report is advisory: it is meant to catch
// surprises (missing ids, unexpected keys, malformed lines) before arxload
// commits to a multi-hour run.
//
// Usage:
//
//	jsonlprobe -input snapshot.jsonl.gz
//	jsonlprobe -input snapshot.jsonl -sample -1 -json
//	jsonlprobe -input snapshot.jsonl -sample 500 -sample-out head.jsonl
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	gojson "github.com/goccy/go-json"

	"arxload/internal/datasource/file"
	"arxload/internal/logger"
	"arxload/internal/probe"
	"arxload/internal/scan"
)

func main() {
	var (
		input     string
		sample    int
		sampleOut string
		asJSON    bool
		count     bool
		logLevel  string
	)
	flag.StringVar(&input, "input", "", "JSON Lines input path (.jsonl, .jsonl.gz, .jsonl.zst)")
	flag.IntVar(&sample, "sample", probe.DefaultSampleRecords, "records to sample; -1 scans the whole file")
	flag.StringVar(&sampleOut, "sample-out", "", "write the sampled records to this path; must not exist yet")
	flag.BoolVar(&asJSON, "json", false, "print the report as JSON instead of text")
	flag.BoolVar(&count, "count", false, "also count all input lines (one extra pass)")
	flag.StringVar(&logLevel, "log-level", "info", "minimum log level: debug, info, warn or error")
	flag.Parse()

	logger.Setup(logLevel)

	if input == "" {
		fmt.Fprintln(os.Stderr, "usage: jsonlprobe -input snapshot.jsonl")
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	rep, err := probe.Probe(ctx, input, probe.Options{
		SampleRecords: sample,
		SamplePath:    sampleOut,
	})
	if err != nil {
		fatalf("jsonlprobe: %v", err)
	}

	totalLines := 0
	if count {
		totalLines, err = countLines(ctx, input)
		if err != nil {
			fatalf("jsonlprobe: count lines: %v", err)
		}
	}

	if asJSON {
		out := struct {
			probe.Report
			TotalLines int `json:"total_lines,omitempty"`
		}{Report: rep, TotalLines: totalLines}
		data, err := gojson.MarshalIndent(out, "", "  ")
		if err != nil {
			fatalf("jsonlprobe: encode report: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Print(rep.Text())
	if count {
		fmt.Printf("total lines: %s\n", humanize.Comma(int64(totalLines)))
	}
}

// countLines makes the extra whole-file pass behind -count. Compressed dumps
// are counted decompressed, matching what the loader will read.
func countLines(ctx context.Context, path string) (int, error) {
	src, err := file.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return scan.CountLines(src)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
