// Package output fans validation and check results out to the configured
// sinks: colored console lines, structured files and markdown reports.
package output

import (
	"errors"
	"io"
)

// Sink is a destination for run results and lifecycle events.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager writes every value to all of its sinks. A failing sink never stops
// the others; its error is reported joined with the rest.
type Manager struct {
	sinks []Sink
}

func NewManager(sinks ...Sink) *Manager {
	return &Manager{sinks: sinks}
}

// AddSink appends a sink. Nil sinks are ignored.
func (m *Manager) AddSink(s Sink) {
	if s != nil {
		m.sinks = append(m.sinks, s)
	}
}

func (m *Manager) Write(v any) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type flusher interface {
	Flush() error
}

// flushIfPossible flushes buffered writers so streamed lines appear promptly.
func flushIfPossible(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
