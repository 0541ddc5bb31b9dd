package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qgispluginci/internal/validate"
)

func TestNewFileSink_FormatInference(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		format     string
		wantFormat string
		wantErr    bool
	}{
		{"explicit json", "out.dat", "json", "json", false},
		{"inferred json", "out.json", "", "json", false},
		{"inferred ndjson", "out.ndjson", "", "ndjson", false},
		{"inferred jsonl", "out.jsonl", "", "ndjson", false},
		{"unknown extension", "out.xml", "", "", true},
		{"unsupported format", "out.json", "yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			s, err := NewFileSink(path, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFileSink returned error: %v", err)
			}
			if s.format != tt.wantFormat {
				t.Fatalf("format = %q, want %q", s.format, tt.wantFormat)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close returned error: %v", err)
			}
		})
	}
}

func TestFileSink_JSONAggregate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}

	if err := s.Write(sampleRuleResult(validate.StatusPass)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := s.Write(sampleToolResult()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := s.Write(RunFinished(0)); err != nil {
		t.Fatalf("Write event returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	var parsed []map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal aggregate: %v\n%s", err, raw)
	}
	// Lifecycle events are excluded from the aggregate.
	if len(parsed) != 2 {
		t.Fatalf("aggregate has %d entries, want 2:\n%s", len(parsed), raw)
	}
}

func TestFileSink_NDJSONStreams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}

	if err := s.Write(RunStarted(1, 1)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := s.Write(sampleRuleResult(validate.StatusFail)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), raw)
	}
	var e Event
	if err := json.Unmarshal([]byte(lines[1]), &e); err != nil {
		t.Fatalf("parse second line: %v", err)
	}
	if e.Type != "rule.result" || e.Result == nil || e.Result.RuleID != "name-present" {
		t.Fatalf("second event = %+v", e)
	}
}

func TestFileSink_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.json")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}
