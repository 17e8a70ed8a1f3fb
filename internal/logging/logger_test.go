package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"seqmart/internal/logging"
	"seqmart/internal/services"
)

func TestConsoleFormatIncludesComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "filter").Info("stage skipped", logging.String("run", "SRR1"))

	line := buf.String()
	if !strings.Contains(line, "INFO filter: stage skipped") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "run=SRR1") {
		t.Fatalf("missing attr in line: %q", line)
	}
}

func TestJSONFormatEmitsParseableRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("fetch started", logging.Int("jobs", 4))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record["msg"] != "fetch started" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["level"] != "debug" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestWithContextAddsRunAndStage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(services.WithRun(t.Context(), "SRR9"), "fetch")
	logging.WithContext(ctx, logger).Info("prefetch done")

	line := buf.String()
	if !strings.Contains(line, "run=SRR9") || !strings.Contains(line, "stage=fetch") {
		t.Fatalf("context fields missing: %q", line)
	}
}
