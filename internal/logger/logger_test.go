package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := Config{
		Level:  "info",
		Format: "text",
	}
	logger := New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	cfg.Format = "json"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"error", "ERROR"},
		{"invalid", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in).String(); got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithItem(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "info", Format: "json"})

	logger.WithComponent("queue").WithItem("item-1", "Song").Info("Item claimed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "queue" {
		t.Errorf("Expected component=queue, got %v", entry["component"])
	}
	if entry["item_id"] != "item-1" {
		t.Errorf("Expected item_id=item-1, got %v", entry["item_id"])
	}
	if entry["track_name"] != "Song" {
		t.Errorf("Expected track_name=Song, got %v", entry["track_name"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "warn", Format: "text"})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn line missing")
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Error("Expected default logger to not be nil")
	}
	if Discard() == nil {
		t.Error("Expected discard logger to not be nil")
	}
}
