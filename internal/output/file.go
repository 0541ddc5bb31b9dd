package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSink writes results to a file: an aggregate JSON array (written at
// Close) or a streamed NDJSON event log.
type FileSink struct {
	format string
	file   *os.File
	w      *bufio.Writer

	mu      sync.Mutex
	results []any
}

func inferFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "ndjson", nil
	}
	return "", fmt.Errorf("cannot infer output format from file extension %q", filepath.Ext(path))
}

func NewFileSink(path, format string) (*FileSink, error) {
	if path == "" {
		return nil, errors.New("output path required")
	}
	if format == "" {
		var err error
		if format, err = inferFormat(path); err != nil {
			return nil, err
		}
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	return &FileSink{format: format, file: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		// Aggregate mode collects results and drops lifecycle events.
		if isResult(v) {
			s.results = append(s.results, v)
		}
		return nil
	}

	e, ok := eventFromValue(v)
	if !ok {
		return nil
	}
	return json.NewEncoder(s.w).Encode(e)
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.format == "json" {
		enc := json.NewEncoder(s.w)
		enc.SetIndent("", "  ")
		err = enc.Encode(s.results)
	}
	if flushErr := s.w.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := s.file.Close(); err == nil {
		err = closeErr
	}
	return err
}
