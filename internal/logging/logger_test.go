package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/services"
)

func TestNewJSONWritesRenamedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("scrape complete", logging.String("source", "allocine"), logging.Int("movies", 15))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("decode json log %q: %v", data, err)
	}
	if entry["msg"] != "scrape complete" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key in %v", entry)
	}
	if entry["source"] != "allocine" {
		t.Fatalf("unexpected source attr: %v", entry["source"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerFormatsComponentAndFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "subtitles")
	logger.Debug("blocks merged", logging.Int("blocks", 3), logging.String("file", "my movie.srt"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, want := range []string{"DEBUG subtitles: blocks merged", "blocks=3", `file="my movie.srt"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestNewFromConfigCreatesRotatingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, logging.LogFileName)); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

type captureHandler struct {
	records []slog.Record
	attrs   []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.attrs = append(h.attrs, attrs...)
	return h
}
func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func recordAttrs(r slog.Record) map[string]string {
	out := map[string]string{}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.String()
		return true
	})
	return out
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	h := &captureHandler{}
	logging.WarnWithContext(slog.New(h), "cache miss", "cache_miss", logging.String(logging.FieldImpact, "slower scrape"))
	if len(h.records) != 1 {
		t.Fatalf("expected one record, got %d", len(h.records))
	}
	attrs := recordAttrs(h.records[0])
	if attrs[logging.FieldEventType] != "cache_miss" {
		t.Fatalf("missing event type: %v", attrs)
	}
	if attrs[logging.FieldErrorHint] == "" {
		t.Fatalf("missing error hint: %v", attrs)
	}
	if attrs[logging.FieldImpact] != "slower scrape" {
		t.Fatalf("explicit impact should be kept: %v", attrs)
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	h := &captureHandler{}
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "segment")
	ctx = services.WithRequestID(ctx, "req-9")
	logging.WithContext(ctx, slog.New(h)).Info("x")
	got := map[string]string{}
	for _, a := range h.attrs {
		got[a.Key] = a.Value.String()
	}
	if got[logging.FieldRunID] != "run-1" || got[logging.FieldStage] != "segment" || got[logging.FieldCorrelationID] != "req-9" {
		t.Fatalf("unexpected context fields: %v", got)
	}
}

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.log")
	newPath := filepath.Join(dir, "new.log")
	for _, p := range []string{oldPath, newPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatal(err)
	}
	logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{Dir: dir, Pattern: "*.log"})
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatalf("expected new log kept: %v", err)
	}
}
