package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"winelens/internal/config"
	"winelens/internal/logging"
	"winelens/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "winelens.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "matching").Info("message without source", logging.String("tier", "exact"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", text)
	}
	if !strings.Contains(text, "INFO matching: message without source") {
		t.Fatalf("expected component prefix, got %q", text)
	}
	if !strings.Contains(text, "tier=exact") {
		t.Fatalf("expected attribute in output, got %q", text)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("json line")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"ts":`, `"level":"warn"`, `"msg":"json line"`} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}

func TestJSONLoggerShapesMatchFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	long := strings.Repeat("Ridge Monte Bello Santa Cruz Mountains ", 5)
	attrs := append([]logging.Attr{logging.Candidate("  " + long)},
		logging.Match("ridge-mb-2016", "fuzzy-local", 0.876543)...)
	logger.Info("candidate matched", logging.Args(attrs...)...)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(content, &line); err != nil {
		t.Fatalf("decode %q: %v", content, err)
	}
	if got := line["confidence"]; got != 0.877 {
		t.Fatalf("confidence = %v", got)
	}
	if got := line["wine_id"]; got != "ridge-mb-2016" {
		t.Fatalf("wine_id = %v", got)
	}
	candidate, _ := line["candidate"].(string)
	if !strings.HasPrefix(candidate, "Ridge Monte Bello") || !strings.HasSuffix(candidate, "…") {
		t.Fatalf("candidate = %q", candidate)
	}
	if n := utf8.RuneCountInString(candidate); n != 121 {
		t.Fatalf("candidate length = %d", n)
	}
	ts, _ := line["ts"].(string)
	if _, err := time.Parse("2006-01-02T15:04:05.000Z07:00", ts); err != nil {
		t.Fatalf("ts %q: %v", ts, err)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithFrameID(context.Background(), 7)
	ctx = services.WithSessionID(ctx, "abc")
	logging.WithContext(ctx, logger).Info("frame processed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"frame_id=7", "session_id=abc"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "remote tier degraded", "search_failed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"event_type=search_failed", "error_hint=", "impact="} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}
