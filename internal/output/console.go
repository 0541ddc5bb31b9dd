package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"qgispluginci/internal/checks"
	"qgispluginci/internal/validate"
)

var statusColors = map[string]*color.Color{
	"PASS":    color.New(color.FgGreen),
	"FAIL":    color.New(color.FgRed),
	"SKIPPED": color.New(color.FgYellow),
	"ERROR":   color.New(color.FgRed, color.Bold),
}

type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	mu      sync.Mutex
	results []any // For JSON array output
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{writer: w, format: format}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	switch s.format {
	case "json":
		if !isResult(v) {
			// Ignore lifecycle events in JSON aggregate mode.
			return nil
		}
		s.results = append(s.results, v)
		return nil
	case "ndjson":
		e, ok := eventFromValue(v)
		if !ok {
			return nil
		}
		if err := json.NewEncoder(s.writer).Encode(e); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case "text":
		switch t := v.(type) {
		case validate.Result:
			if err := s.printLine(string(t.Status), t.Plugin, t.RuleID, t.Message); err != nil {
				return err
			}
		case checks.Result:
			detail := fmt.Sprintf("%s (%dms)", t.Command, t.DurationMS)
			if t.Message != "" {
				detail += " - " + t.Message
			}
			if err := s.printLine(string(t.Status), string(t.Group), t.Tool, detail); err != nil {
				return err
			}
		default:
			// Ignore events in text mode.
			return nil
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) printLine(status, target, id, detail string) error {
	statusToken := "[" + status + "]"
	if c, ok := statusColors[status]; ok {
		statusToken = c.Sprintf("[%s]", status)
	}
	if _, err := fmt.Fprintf(s.writer, "%s %s: %s", statusToken, target, id); err != nil {
		return err
	}
	if detail != "" {
		if _, err := fmt.Fprintf(s.writer, " - %s", detail); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(s.writer)
	return err
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.results); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
