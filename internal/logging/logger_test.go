package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not valid JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "coordinator.log")

	logger, err := NewLogger(path, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("signed on", "session_id", "claude_1")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readLogLines(t, path)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0]["msg"] != "signed on" {
		t.Errorf("msg = %v, want 'signed on'", entries[0]["msg"])
	}
	if entries[0]["session_id"] != "claude_1" {
		t.Errorf("session_id = %v, want claude_1", entries[0]["session_id"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordinator.log")

	logger, err := NewLogger(path, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debug("ignored")
	logger.Info("ignored too")
	logger.Warn("kept")
	logger.Close()

	entries := readLogLines(t, path)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0]["msg"] != "kept" {
		t.Errorf("msg = %v, want 'kept'", entries[0]["msg"])
	}
}

func TestLogger_ChildAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordinator.log")

	logger, err := NewLogger(path, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.WithSession("claude_2").WithTool("store_data")
	child.Info("stored", "scope", "issue:42")
	logger.Close()

	entries := readLogLines(t, path)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry["session_id"] != "claude_2" {
		t.Errorf("session_id = %v, want claude_2", entry["session_id"])
	}
	if entry["tool"] != "store_data" {
		t.Errorf("tool = %v, want store_data", entry["tool"])
	}
	if entry["scope"] != "issue:42" {
		t.Errorf("scope = %v, want issue:42", entry["scope"])
	}
}

func TestLogger_CloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordinator.log")

	logger, err := NewLogger(path, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	// Must not panic and must accept attributes.
	logger.WithSession("claude_1").Info("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close on NopLogger failed: %v", err)
	}
}
